package ingest

import (
	"fmt"

	"github.com/EIDA/wfcatalog/internal/catalog"
)

// Store is the subset of the Store Gateway the Change Detector needs.
type Store interface {
	FindDailyByFileID(fileID string) (*catalog.DailyGranule, error)
	ChecksumsForName(name string) ([]string, error)
}

// File is the subset of archive.File the classifier needs, kept narrow so
// tests can supply fakes without touching the filesystem.
type File interface {
	Basename() string
	Checksum() (string, error)
}

// Classifier implements the Change Detector (§4.D). It is only active
// when a persistent store is enabled; callers with MONGO.ENABLED=false
// never construct one.
type Classifier struct {
	Store       Store
	AllowDouble bool
}

// Classify determines the classification of a single candidate under the
// given run mode.
func (c *Classifier) Classify(f File, mode Mode) (Classification, error) {
	if mode.Force && !mode.Update {
		return "", ErrForceRequiresUpdate
	}
	if mode.Delete {
		return DeleteTarget, nil
	}
	if c.AllowDouble {
		// "nothing is ever considered new" in the is-new sense, but every
		// candidate is processed regardless: classify as New so the
		// orchestrator's reprocess branch is taken unconditionally.
		return New, nil
	}

	basename := f.Basename()
	_, err := c.Store.FindDailyByFileID(basename)
	switch {
	case err == catalog.ErrNotFound:
		return New, nil
	case err != nil:
		return "", fmt.Errorf("ingest: classify %s: %w", basename, err)
	}

	if !mode.Update {
		return Unchanged, nil
	}

	if mode.Force {
		return Changed, nil
	}

	sums, err := c.Store.ChecksumsForName(basename)
	if err != nil {
		return "", fmt.Errorf("ingest: classify %s: %w", basename, err)
	}
	current, err := f.Checksum()
	if err != nil {
		return "", fmt.Errorf("ingest: classify %s: %w", basename, err)
	}
	for _, stored := range sums {
		if stored != current {
			return Changed, nil
		}
	}
	return Unchanged, nil
}

// ProcessSet classifies every candidate and returns the deduplicated set
// that must be reprocessed: New, plus Changed when updating. Unchanged
// candidates are dropped; an empty result is a normal early exit.
func ProcessSet(c *Classifier, files []File, mode Mode) ([]File, map[string]Classification, error) {
	seen := make(map[string]bool)
	classes := make(map[string]Classification)
	var out []File
	for _, f := range files {
		class, err := c.Classify(f, mode)
		if err != nil {
			return nil, nil, err
		}
		classes[f.Basename()] = class
		switch class {
		case New:
			if !seen[f.Basename()] {
				seen[f.Basename()] = true
				out = append(out, f)
			}
		case Changed:
			if mode.Update && !seen[f.Basename()] {
				seen[f.Basename()] = true
				out = append(out, f)
			}
		}
	}
	return out, classes, nil
}
