package psd

import "errors"

// ErrNoTraces is returned when the merged three-file window contains no
// non-empty traces (§4.G step 2).
var ErrNoTraces = errors.New("psd: no non-empty traces in window")

// ErrMultipleStreams is returned when more than one logical stream
// remains after merging the window (§4.G step 2).
var ErrMultipleStreams = errors.New("psd: window merges into more than one logical stream")
