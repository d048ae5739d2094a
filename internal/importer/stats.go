package importer

// Stats is the canonical run summary of an import engine.
//
// Processed counts records the engine started working on, Skipped counts
// records dropped for a missing natural key, and Failed counts records
// whose write failed; a failed record never aborts the run. Under dry-run
// Created counts records that would have been written.
type Stats struct {
	Processed int
	Created   int
	Updated   int
	Skipped   int
	Failed    int

	// Errors holds one message per failed record, capped at maxErrors.
	Errors []string
}

// maxErrors bounds the retained failure messages so a poisoned file does
// not balloon the run summary.
const maxErrors = 50

func (s *Stats) fail(msg string) {
	s.Failed++
	if len(s.Errors) < maxErrors {
		s.Errors = append(s.Errors, msg)
	}
}

// Fields renders the summary as a log field map.
func (s *Stats) Fields() map[string]interface{} {
	return map[string]interface{}{
		"processed": s.Processed,
		"created":   s.Created,
		"updated":   s.Updated,
		"skipped":   s.Skipped,
		"failed":    s.Failed,
	}
}

// MatchStats is the matcher's run summary. SkippedSources counts approvals
// no rule could link to any permit.
type MatchStats struct {
	Processed      int
	CreatedMatches int
	SkippedSources int
}

// Fields renders the summary as a log field map.
func (s *MatchStats) Fields() map[string]interface{} {
	return map[string]interface{}{
		"processed":       s.Processed,
		"created_matches": s.CreatedMatches,
		"skipped_sources": s.SkippedSources,
	}
}
