// Package errors defines the import error taxonomy. Record-level problems
// (missing keys, persistence failures) are collected into the run summary
// and never abort a multi-thousand-record run; only configuration and
// run-start failures are fatal.
package errors

import (
	"errors"
	"fmt"
)

// ErrMissingNaturalKey marks a record with an empty natural key. Such
// records are counted as skipped and never reach the persistence engine.
var ErrMissingNaturalKey = errors.New("record is missing its natural key")

// RecordError wraps a per-record persistence failure with enough context
// to locate the record in the source file.
type RecordError struct {
	Seq int    // 1-based position in the source stream
	Key string // natural key, if known
	Err error
}

func (e *RecordError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("record %d (%s): %v", e.Seq, e.Key, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Seq, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
