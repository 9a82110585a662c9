// Package psd implements the PSD Pipeline: merging the three-file window
// into a single buffered stream, producing 48 half-hour power spectral
// density segments, and encoding each to the opaque byte format wire
// consumers expect (§4.G, §6).
package psd

import (
	"context"
	"time"

	"github.com/EIDA/wfcatalog/internal/metrics"
)

// SegmentsPerFile is the fixed number of half-hour PSD windows per file.
const SegmentsPerFile = 48

// SegmentStride is the fixed window length between PSD segments.
const SegmentStride = 30 * time.Minute

// Segment is one computed half-hour power spectral density, still in
// decibel form (not yet byte-encoded).
type Segment struct {
	Start time.Time
	End   time.Time

	// ValidFrom is the index of the first valid frequency bin, honoring
	// the configured period range.
	ValidFrom int
	// Amplitudes holds one dB value per valid bin starting at ValidFrom.
	Amplitudes []float64

	Warnings bool
}

// Computer is the PSD numerical library's boundary interface, the same
// duck-typed-output treatment as metrics.Computer (§9 Design Notes).
type Computer interface {
	// ComputeSegments merges the window per §4.G steps 2-3 and produces
	// SegmentsPerFile segments at SegmentStride, bounded to
	// [periodLower, periodUpper].
	ComputeSegments(ctx context.Context, w metrics.Window, windowStart time.Time, periodLower, periodUpper float64) ([]Segment, error)
}
