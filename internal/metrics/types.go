// Package metrics implements the Metric Pipeline: invoking the waveform
// metric library on the three-file window and shaping its output into
// daily, hourly, and continuous-segment store documents (§4.F).
package metrics

import (
	"context"
	"time"

	"github.com/EIDA/wfcatalog/internal/archive"
	"github.com/EIDA/wfcatalog/internal/catalog"
)

// Window is the three-file neighbourhood (§3): the target file plus its
// previous and next day, when present.
type Window struct {
	Prev   *archive.File
	Target *archive.File
	Next   *archive.File
}

// Files returns the window members that exist, in prev/target/next order,
// for use as a daily granule's files dependency list.
func (w Window) Files() []*archive.File {
	var out []*archive.File
	if w.Prev != nil {
		out = append(out, w.Prev)
	}
	out = append(out, w.Target)
	if w.Next != nil {
		out = append(out, w.Next)
	}
	return out
}

// DailyResult is the explicit schema for the metric library's daily
// output (Design Notes §9: "model it as an explicit schema at the
// boundary"). Required fields are plain; optional fields are pointers or
// nil slices so a missing value is distinguishable from a zero one.
type DailyResult struct {
	Qlt   string
	Enc   string
	Srate float64
	Rlen  int
	Nrec  int
	Nsam  int64

	Stats catalog.SampleStats
	Gaps  catalog.GapStats

	IO     *catalog.IOClockFlags
	DQ     *catalog.DataQualityFlags
	AC     *catalog.ActivityFlags
	Timing *catalog.TimingQuality

	Warnings bool
	Segments []SegmentResult // populated only when csegs requested and Gaps.Cont == false
}

// HourlyResult is the same shape as DailyResult minus the continuous
// segments, which are never computed for an hourly window.
type HourlyResult struct {
	Qlt   string
	Enc   string
	Srate float64
	Rlen  int
	Nrec  int
	Nsam  int64

	Stats catalog.SampleStats
	Gaps  catalog.GapStats

	IO     *catalog.IOClockFlags
	DQ     *catalog.DataQualityFlags
	AC     *catalog.ActivityFlags
	Timing *catalog.TimingQuality

	Warnings bool
}

// SegmentResult is one continuous segment as returned by the metric
// library.
type SegmentResult struct {
	Stats  catalog.SampleStats
	Start  time.Time
	End    time.Time
	Seglen int64
}

// Computer is the waveform-metric library's boundary interface (§1: "the
// waveform-metric and PSD numerical libraries, assumed to exist as black
// boxes with the input/output contracts given in §6").
type Computer interface {
	Daily(ctx context.Context, w Window, start, end time.Time, flags, csegs bool) (DailyResult, error)
	Hourly(ctx context.Context, w Window, start, end time.Time, flags bool) (HourlyResult, error)
}
