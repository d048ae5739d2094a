package importer

// Options carries the run parameters shared by the import engines. Not
// every engine honors every field; the command layer only exposes the
// flags an engine supports.
type Options struct {
	// File is the path of the export to ingest.
	File string

	// Clear wipes the target table (children cascade) before the run.
	// Suppressed under DryRun.
	Clear bool

	// DryRun parses and counts without touching the repository.
	DryRun bool

	// Limit stops the run once this many records have been processed
	// (0 = all).
	Limit int

	// Upsert updates existing rows by natural key. When false the run is
	// insert-only and a duplicate key fails that record.
	Upsert bool
}

// MatchOptions carries the matcher's run parameters.
type MatchOptions struct {
	// Limit caps how many approvals are considered (0 = all).
	Limit int

	// DryRun counts candidate matches without writing them.
	DryRun bool

	// UseAddress enables the low-confidence address-containment fallback
	// for approvals the exact rule could not match.
	UseAddress bool
}
