package catalog

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDaily(fileID string) DailyGranule {
	return DailyGranule{
		FileID:   fileID,
		Identity: Identity{Net: "NL", Sta: "HGN", Loc: "", Cha: "BHZ"},
		TS:       "2023-04-10T00:00:00Z",
		TE:       "2023-04-11T00:00:00Z",
		Created:  "2023-04-11T00:00:00Z",
		Cont:     true,
		Ngaps:    0,
		Files:    []FileRef{{Name: fileID, Chksm: "abc123"}},
	}
}

func TestInsertAndFindDailyByFileID(t *testing.T) {
	s := newTestStore(t)
	fileID := "NL.HGN..BHZ.D.2023.100"
	streamID, err := s.InsertDailyGranule(sampleDaily(fileID))
	if err != nil {
		t.Fatalf("InsertDailyGranule: %v", err)
	}
	if streamID == "" {
		t.Fatal("expected non-empty streamId")
	}
	got, err := s.FindDailyByFileID(fileID)
	if err != nil {
		t.Fatalf("FindDailyByFileID: %v", err)
	}
	if got.StreamID != streamID || got.Net != "NL" || len(got.Files) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestInsertDailyGuardsAgainstDuplicate(t *testing.T) {
	s := newTestStore(t)
	fileID := "NL.HGN..BHZ.D.2023.100"
	if _, err := s.InsertDailyGranule(sampleDaily(fileID)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := s.InsertDailyGranule(sampleDaily(fileID)); err == nil {
		t.Fatal("expected duplicate insert to fail")
	}
}

func TestInsertDailyAllowsDoubleWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.AllowDouble = true
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	fileID := "NL.HGN..BHZ.D.2023.100"
	d := sampleDaily(fileID)
	if _, err := s.InsertDailyGranule(d); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := s.InsertDailyGranule(d); err != nil {
		t.Fatalf("second insert for the same fileId with AllowDouble: %v", err)
	}
}

func TestFindDailyByFileIDNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.FindDailyByFileID("missing"); err != ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteByStreamIDCascades(t *testing.T) {
	s := newTestStore(t)
	fileID := "NL.HGN..BHZ.D.2023.100"
	streamID, err := s.InsertDailyGranule(sampleDaily(fileID))
	if err != nil {
		t.Fatalf("InsertDailyGranule: %v", err)
	}
	if err := s.InsertHourlyGranule(HourlyGranule{StreamID: streamID, FileID: fileID, Identity: Identity{Net: "NL"}, TS: "t", TE: "t"}); err != nil {
		t.Fatalf("InsertHourlyGranule: %v", err)
	}
	if err := s.InsertContinuousSegment(ContinuousSegment{StreamID: streamID, Identity: Identity{Net: "NL"}, TS: "t", TE: "t"}); err != nil {
		t.Fatalf("InsertContinuousSegment: %v", err)
	}
	if err := s.DeleteByStreamID(streamID); err != nil {
		t.Fatalf("DeleteByStreamID: %v", err)
	}
	if _, err := s.FindDailyByFileID(fileID); err != ErrNotFound {
		t.Errorf("daily should be gone, got %v", err)
	}
	row, err := s.queryItHook(s.db, `SELECT 1 FROM hourly_granules WHERE stream_id = ?`, streamID)
	if err != nil {
		t.Fatalf("query hourly: %v", err)
	}
	if row.Next() {
		t.Error("hourly granule should have cascaded away")
	}
	row.Close()
	row, err = s.queryItHook(s.db, `SELECT 1 FROM continuous_segments WHERE stream_id = ?`, streamID)
	if err != nil {
		t.Fatalf("query csegs: %v", err)
	}
	if row.Next() {
		t.Error("continuous segment should have cascaded away")
	}
	row.Close()
}

func TestFindGranulesReferencingFile(t *testing.T) {
	s := newTestStore(t)
	d := sampleDaily("day101")
	d.Files = []FileRef{{Name: "day100", Chksm: "a"}, {Name: "day101", Chksm: "b"}, {Name: "day102", Chksm: "c"}}
	streamID, err := s.InsertDailyGranule(d)
	if err != nil {
		t.Fatalf("InsertDailyGranule: %v", err)
	}
	ids, err := s.FindGranulesReferencingFile("day100")
	if err != nil {
		t.Fatalf("FindGranulesReferencingFile: %v", err)
	}
	if len(ids) != 1 || ids[0] != streamID {
		t.Errorf("got %v, want [%s]", ids, streamID)
	}
}

func TestDataObjectDedup(t *testing.T) {
	s := newTestStore(t)
	first, err := s.InsertDataObject(DataObject{FileID: "f1", Created: "now"})
	if err != nil {
		t.Fatalf("InsertDataObject: %v", err)
	}
	second, err := s.InsertDataObject(DataObject{FileID: "f1", Created: "later"})
	if err != nil {
		t.Fatalf("InsertDataObject (dedup): %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same id for deduped fileId, got %q and %q", first.ID, second.ID)
	}
}

func TestHasPSDForFile(t *testing.T) {
	s := newTestStore(t)
	ok, err := s.HasPSDForFile("f1")
	if err != nil || ok {
		t.Fatalf("HasPSDForFile before insert = %v, %v", ok, err)
	}
	if err := s.InsertPSDSpectrum(PSDSpectrum{FileID: "f1", Identity: Identity{Net: "NL"}, TS: "t", TE: "t", Binary: []byte{1, 2}}); err != nil {
		t.Fatalf("InsertPSDSpectrum: %v", err)
	}
	ok, err = s.HasPSDForFile("f1")
	if err != nil || !ok {
		t.Fatalf("HasPSDForFile after insert = %v, %v", ok, err)
	}
}

func TestDeletePSDByFileID(t *testing.T) {
	s := newTestStore(t)
	if err := s.InsertPSDSpectrum(PSDSpectrum{FileID: "f1", Identity: Identity{Net: "NL"}, TS: "t", TE: "t", Binary: []byte{1}}); err != nil {
		t.Fatalf("InsertPSDSpectrum: %v", err)
	}
	if err := s.DeletePSDByFileID("f1"); err != nil {
		t.Fatalf("DeletePSDByFileID: %v", err)
	}
	ok, err := s.HasPSDForFile("f1")
	if err != nil {
		t.Fatalf("HasPSDForFile: %v", err)
	}
	if ok {
		t.Error("expected PSD spectra to be gone after DeletePSDByFileID")
	}
}

func TestFlagsAndTimingRoundTrip(t *testing.T) {
	s := newTestStore(t)
	d := sampleDaily("f1")
	d.IO = &IOClockFlags{Clk: 99.5}
	min := 50.0
	d.Timing = &TimingQuality{Min: &min}
	if _, err := s.InsertDailyGranule(d); err != nil {
		t.Fatalf("InsertDailyGranule: %v", err)
	}
	got, err := s.FindDailyByFileID("f1")
	if err != nil {
		t.Fatalf("FindDailyByFileID: %v", err)
	}
	if got.IO == nil || got.IO.Clk != 99.5 {
		t.Errorf("IO flags not round-tripped: %+v", got.IO)
	}
	if got.Timing == nil || got.Timing.Min == nil || *got.Timing.Min != 50.0 {
		t.Errorf("timing quality not round-tripped: %+v", got.Timing)
	}
}
