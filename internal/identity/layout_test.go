package identity

import "testing"

func TestParseODCRoundTrip(t *testing.T) {
	r, err := NewResolver(ODC, "/archive", nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	basename := "HGN.BHZ.NL.2023.100"
	id, err := r.Parse(basename)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := id.FileID(ODC)
	if err != nil {
		t.Fatalf("FileID: %v", err)
	}
	if got != basename {
		t.Errorf("toPath(parse(%q)) = %q, want %q", basename, got, basename)
	}
}

func TestParseSDSRoundTrip(t *testing.T) {
	r, err := NewResolver(SDS, "/archive", nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	basename := "NL.HGN..BHZ.D.2023.100"
	id, err := r.Parse(basename)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := id.FileID(SDS)
	if err != nil {
		t.Fatalf("FileID: %v", err)
	}
	if got != basename {
		t.Errorf("toPath(parse(%q)) = %q, want %q", basename, got, basename)
	}
}

func TestParseMalformed(t *testing.T) {
	r, _ := NewResolver(ODC, "/archive", nil)
	if _, err := r.Parse("too.few.fields"); err == nil {
		t.Fatal("expected error for malformed basename")
	}
}

func TestUnknownLayout(t *testing.T) {
	if _, err := NewResolver("bogus", "/archive", nil); err == nil {
		t.Fatal("expected error for unknown layout")
	}
}

type fakeExtender struct{ ext string }

func (f fakeExtender) Extend(network, year string) (string, error) { return f.ext, nil }

func TestToPathSDSbynet(t *testing.T) {
	r, err := NewResolver(SDSbynet, "/archive", fakeExtender{ext: "NL2023"})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	id := StreamID{Network: "NL", Station: "HGN", Location: "", Channel: "BHZ", DataType: "D", Year: "2023", JulianDay: "100"}
	path, err := r.ToPath(id)
	if err != nil {
		t.Fatalf("ToPath: %v", err)
	}
	want := "/archive/NL2023/2023/NL/HGN/BHZ.D/NL.HGN..BHZ.D.2023.100"
	if path != want {
		t.Errorf("ToPath = %q, want %q", path, want)
	}
}

func TestShiftRoundTrip(t *testing.T) {
	id := StreamID{Year: "2023", JulianDay: "365"}
	forward, err := Shift(id, 1)
	if err != nil {
		t.Fatalf("Shift +1: %v", err)
	}
	if forward.Year != "2024" || forward.JulianDay != "001" {
		t.Errorf("Shift(+1) = %+v, want year 2024 day 001", forward)
	}
	back, err := Shift(forward, -1)
	if err != nil {
		t.Fatalf("Shift -1: %v", err)
	}
	if back.Year != id.Year || back.JulianDay != id.JulianDay {
		t.Errorf("Shift(+1) then Shift(-1) = %+v, want %+v", back, id)
	}
}

func TestShiftAcrossLeapYear(t *testing.T) {
	// 2024 is a leap year: day 366 exists.
	id := StreamID{Year: "2024", JulianDay: "366"}
	forward, err := Shift(id, 1)
	if err != nil {
		t.Fatalf("Shift: %v", err)
	}
	if forward.Year != "2025" || forward.JulianDay != "001" {
		t.Errorf("Shift(+1) = %+v, want year 2025 day 001", forward)
	}
}

func TestIsInfrasound(t *testing.T) {
	if !(StreamID{Channel: "BDF"}).IsInfrasound() {
		t.Error("BDF should be infrasound")
	}
	if (StreamID{Channel: "BHZ"}).IsInfrasound() {
		t.Error("BHZ should not be infrasound")
	}
}
