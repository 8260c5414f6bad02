package models

// PruneResult represents the outcome of one retention pruning pass
type PruneResult struct {
	// Kept branches, newest first
	Kept []string
	// Deleted branches
	Deleted []string
	// Failed maps branch name to the deletion error message.
	// Individual failures never abort pruning of the rest.
	Failed map[string]string
}
