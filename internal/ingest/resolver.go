package ingest

import "fmt"

// ResolverStore is the subset of the Store Gateway the Dependency Resolver
// needs.
type ResolverStore interface {
	FindGranulesReferencingFile(basename string) ([]string, error)
	FileIDForStream(streamID string) (string, error)
}

// Dependents enumerates the fileIds of every daily granule whose files
// list names basename, including the granule built from basename itself,
// which always lists itself as its own self-entry (§4.E).
func Dependents(store ResolverStore, basename string) ([]string, error) {
	streamIDs, err := store.FindGranulesReferencingFile(basename)
	if err != nil {
		return nil, fmt.Errorf("ingest: dependents of %s: %w", basename, err)
	}
	fileIDs := make([]string, 0, len(streamIDs))
	for _, sid := range streamIDs {
		fid, err := store.FileIDForStream(sid)
		if err != nil {
			return nil, fmt.Errorf("ingest: dependents of %s: %w", basename, err)
		}
		fileIDs = append(fileIDs, fid)
	}
	return fileIDs, nil
}

// StageDependentsAsChanged is the delete-flow and change-flow helper from
// §4.E/§4.I: given the dependents of a mutated or deleted file, returns
// those not already slated for deletion themselves, to be added to the
// reprocess set.
func StageDependentsAsChanged(dependents []string, deleteTargets map[string]bool) []string {
	out := make([]string, 0, len(dependents))
	for _, d := range dependents {
		if !deleteTargets[d] {
			out = append(out, d)
		}
	}
	return out
}
