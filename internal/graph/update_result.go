package graph

// UpdateResult summarizes one call to the update planner: which modules
// were added, removed, or modified. The three sets are pairwise disjoint
// between Added/Removed and Modified/Removed.
type UpdateResult struct {
	Added    map[ModuleId]struct{}
	Removed  map[ModuleId]struct{}
	Modified map[ModuleId]struct{}
}

// NewUpdateResult returns an UpdateResult with all three sets allocated
// empty.
func NewUpdateResult() UpdateResult {
	return UpdateResult{
		Added:    map[ModuleId]struct{}{},
		Removed:  map[ModuleId]struct{}{},
		Modified: map[ModuleId]struct{}{},
	}
}

// IsUpdated is the disjunction of non-emptiness across all three sets.
func (r UpdateResult) IsUpdated() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Modified) > 0
}
