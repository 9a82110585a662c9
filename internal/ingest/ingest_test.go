package ingest

import (
	"testing"

	"github.com/EIDA/wfcatalog/internal/catalog"
)

type fakeFile struct {
	name     string
	checksum string
}

func (f fakeFile) Basename() string            { return f.name }
func (f fakeFile) Checksum() (string, error)   { return f.checksum, nil }

type fakeStore struct {
	daily     map[string]*catalog.DailyGranule
	checksums map[string][]string
}

func (s fakeStore) FindDailyByFileID(fileID string) (*catalog.DailyGranule, error) {
	g, ok := s.daily[fileID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return g, nil
}

func (s fakeStore) ChecksumsForName(name string) ([]string, error) {
	return s.checksums[name], nil
}

func TestClassifyNewWhenNoDailyExists(t *testing.T) {
	c := &Classifier{Store: fakeStore{daily: map[string]*catalog.DailyGranule{}}}
	class, err := c.Classify(fakeFile{name: "day100"}, Mode{Update: true})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if class != New {
		t.Errorf("got %q, want New", class)
	}
}

func TestClassifyUnchangedWhenChecksumMatches(t *testing.T) {
	store := fakeStore{
		daily:     map[string]*catalog.DailyGranule{"day100": {}},
		checksums: map[string][]string{"day100": {"abc"}},
	}
	c := &Classifier{Store: store}
	class, err := c.Classify(fakeFile{name: "day100", checksum: "abc"}, Mode{Update: true})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if class != Unchanged {
		t.Errorf("got %q, want Unchanged", class)
	}
}

func TestClassifyChangedWhenChecksumDiffers(t *testing.T) {
	store := fakeStore{
		daily:     map[string]*catalog.DailyGranule{"day100": {}},
		checksums: map[string][]string{"day100": {"abc"}},
	}
	c := &Classifier{Store: store}
	class, err := c.Classify(fakeFile{name: "day100", checksum: "different"}, Mode{Update: true})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if class != Changed {
		t.Errorf("got %q, want Changed", class)
	}
}

func TestClassifyUnchangedWithoutUpdate(t *testing.T) {
	store := fakeStore{daily: map[string]*catalog.DailyGranule{"day100": {}}}
	c := &Classifier{Store: store}
	class, err := c.Classify(fakeFile{name: "day100"}, Mode{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if class != Unchanged {
		t.Errorf("got %q, want Unchanged (existing daily, not updating)", class)
	}
}

func TestClassifyForcedChangedWithoutChecksumCompare(t *testing.T) {
	store := fakeStore{daily: map[string]*catalog.DailyGranule{"day100": {}}}
	c := &Classifier{Store: store}
	class, err := c.Classify(fakeFile{name: "day100", checksum: "whatever"}, Mode{Update: true, Force: true})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if class != Changed {
		t.Errorf("got %q, want Changed", class)
	}
}

func TestClassifyForceWithoutUpdateRejected(t *testing.T) {
	c := &Classifier{Store: fakeStore{}}
	if _, err := c.Classify(fakeFile{name: "day100"}, Mode{Force: true}); err != ErrForceRequiresUpdate {
		t.Errorf("got %v, want ErrForceRequiresUpdate", err)
	}
}

func TestClassifyDeleteMode(t *testing.T) {
	c := &Classifier{Store: fakeStore{}}
	class, err := c.Classify(fakeFile{name: "day100"}, Mode{Delete: true})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if class != DeleteTarget {
		t.Errorf("got %q, want DeleteTarget", class)
	}
}

func TestClassifyAllowDoubleAlwaysNew(t *testing.T) {
	store := fakeStore{daily: map[string]*catalog.DailyGranule{"day100": {}}}
	c := &Classifier{Store: store, AllowDouble: true}
	class, err := c.Classify(fakeFile{name: "day100"}, Mode{Update: true})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if class != New {
		t.Errorf("got %q, want New under AllowDouble", class)
	}
}

func TestProcessSetDedupsAndDropsUnchanged(t *testing.T) {
	store := fakeStore{
		daily: map[string]*catalog.DailyGranule{
			"day100": {}, // existing, unchanged by default
		},
		checksums: map[string][]string{"day100": {"abc"}},
	}
	c := &Classifier{Store: store}
	files := []File{
		fakeFile{name: "day099"},                  // new
		fakeFile{name: "day100", checksum: "abc"},  // unchanged
		fakeFile{name: "day100", checksum: "abc"},  // duplicate new/unchanged, deduped
	}
	set, classes, err := ProcessSet(c, files, Mode{Update: true})
	if err != nil {
		t.Fatalf("ProcessSet: %v", err)
	}
	if len(set) != 1 || set[0].Basename() != "day099" {
		t.Errorf("got %v, want only day099", set)
	}
	if classes["day100"] != Unchanged {
		t.Errorf("classes[day100] = %q, want Unchanged", classes["day100"])
	}
}

type fakeResolverStore struct {
	referencing map[string][]string
	fileIDs     map[string]string
}

func (s fakeResolverStore) FindGranulesReferencingFile(basename string) ([]string, error) {
	return s.referencing[basename], nil
}

func (s fakeResolverStore) FileIDForStream(streamID string) (string, error) {
	return s.fileIDs[streamID], nil
}

func TestDependents(t *testing.T) {
	store := fakeResolverStore{
		referencing: map[string][]string{"day100": {"s099", "s100", "s101"}},
		fileIDs:     map[string]string{"s099": "day099", "s100": "day100", "s101": "day101"},
	}
	deps, err := Dependents(store, "day100")
	if err != nil {
		t.Fatalf("Dependents: %v", err)
	}
	want := map[string]bool{"day099": true, "day100": true, "day101": true}
	if len(deps) != 3 {
		t.Fatalf("got %v", deps)
	}
	for _, d := range deps {
		if !want[d] {
			t.Errorf("unexpected dependent %q", d)
		}
	}
}

func TestStageDependentsAsChanged(t *testing.T) {
	deps := []string{"day099", "day100", "day101"}
	staged := StageDependentsAsChanged(deps, map[string]bool{"day100": true})
	if len(staged) != 2 {
		t.Fatalf("got %v", staged)
	}
	for _, s := range staged {
		if s == "day100" {
			t.Error("day100 should have been excluded as already a delete target")
		}
	}
}
