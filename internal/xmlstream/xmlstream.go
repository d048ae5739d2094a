// Package xmlstream walks large permit dumps one record element at a time.
// The surrounding document is never materialized: each record subtree is
// decoded, handed to the caller, and dropped, so memory stays bounded no
// matter how many sibling records the dump carries.
package xmlstream

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/stwalsh4118/permithub/internal/models"
)

// ErrStop can be returned by an EachRecord callback to stop the walk early
// without reporting an error.
var ErrStop = errors.New("xmlstream: stop iteration")

// EachRecord streams the document in r and invokes fn once per element
// whose local name is recordTag, decoded into an archival RawNode tree.
// Nested elements with the record tag are not expected in permit dumps;
// the outermost match wins and its subtree is consumed whole.
//
// fn returning ErrStop ends the walk cleanly; any other error aborts it
// and is returned to the caller.
func EachRecord(r io.Reader, recordTag string, fn func(*models.RawNode) error) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != recordTag {
			continue
		}

		node := &models.RawNode{}
		if err := dec.DecodeElement(node, &se); err != nil {
			return fmt.Errorf("decode %s element: %w", recordTag, err)
		}
		if err := fn(node); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// TagFrequency reduces a sample of the document to per-tag counts of
// non-blank direct children of the record elements. Diagnostic path for
// schema discovery; nothing is written anywhere. sample <= 0 means no cap.
func TagFrequency(r io.Reader, recordTag string, sample int) (map[string]int, error) {
	counts := make(map[string]int)
	seen := 0
	err := EachRecord(r, recordTag, func(node *models.RawNode) error {
		for _, c := range node.Children {
			if c.Text != "" {
				counts[c.Tag]++
			}
		}
		seen++
		if sample > 0 && seen >= sample {
			return ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
