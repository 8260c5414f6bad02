package models

// RewriteReport records what the version rewriter did, for audit logging
type RewriteReport struct {
	// OldVersion that was replaced
	OldVersion Version
	// NewVersion that replaced it
	NewVersion Version
	// RewrittenFiles had content occurrences replaced
	RewrittenFiles []string
	// RenamedFiles had the old version in their name; old path -> new path
	RenamedFiles map[string]string
	// ExcludedFiles matched the exclusion predicate and were left alone
	ExcludedFiles []string
	// DeletedDuplicates were removed because the rename target already existed
	DeletedDuplicates []string
	// SkippedBinaries were detected as binary and not scanned
	SkippedBinaries []string
}

// Changed returns true if the rewrite touched the working tree at all
func (r *RewriteReport) Changed() bool {
	return len(r.RewrittenFiles) > 0 || len(r.RenamedFiles) > 0 || len(r.DeletedDuplicates) > 0
}
