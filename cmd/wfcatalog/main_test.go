package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/EIDA/wfcatalog/internal/catalog"
)

func TestParseArgsInputModes(t *testing.T) {
	a, err := parseArgs([]string{"--file", "day100", "--update", "--force"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if a.file != "day100" || !a.update || !a.force {
		t.Errorf("got %+v, want file=day100 update=true force=true", a)
	}
}

func TestParseArgsRange(t *testing.T) {
	a, err := parseArgs([]string{"--date", "2023-01-01", "--range", "3"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if a.date != "2023-01-01" || a.rng != 3 {
		t.Errorf("got %+v, want date=2023-01-01 range=3", a)
	}
}

func TestParseArgsUnknownFlag(t *testing.T) {
	if _, err := parseArgs([]string{"--bogus"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestParseArgsMissingValue(t *testing.T) {
	if _, err := parseArgs([]string{"--file"}); err == nil {
		t.Error("expected error for --file with no value")
	}
}

func TestStdoutStoreEncodesDocuments(t *testing.T) {
	var buf bytes.Buffer
	s := &stdoutStore{enc: json.NewEncoder(&buf)}

	streamID, err := s.InsertDailyGranule(catalog.DailyGranule{FileID: "day100"})
	if err != nil {
		t.Fatalf("InsertDailyGranule: %v", err)
	}
	if streamID == "" {
		t.Error("expected a generated streamId")
	}

	if err := s.InsertHourlyGranule(catalog.HourlyGranule{StreamID: streamID, FileID: "day100"}); err != nil {
		t.Fatalf("InsertHourlyGranule: %v", err)
	}

	if _, err := s.FindDataObject("day100"); err != catalog.ErrNotFound {
		t.Errorf("FindDataObject = %v, want ErrNotFound (stdout mode never dedups)", err)
	}

	do, err := s.InsertDataObject(catalog.DataObject{FileID: "day100"})
	if err != nil {
		t.Fatalf("InsertDataObject: %v", err)
	}
	if do.ID == "" {
		t.Error("expected a generated data object id")
	}

	dec := json.NewDecoder(&buf)
	var count int
	for dec.More() {
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			t.Fatalf("decode stdout document %d: %v", count, err)
		}
		count++
	}
	if count != 3 {
		t.Errorf("got %d stdout documents, want 3 (daily, hourly, data object)", count)
	}
}
