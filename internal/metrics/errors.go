package metrics

import "errors"

// ErrNoDataInWindow is the "known-benign" condition from §7: no data
// within temporal constraints during hourly computation. The pipeline
// skips that hour without logging it and without treating it as a
// failure.
var ErrNoDataInWindow = errors.New("metrics: no data within temporal constraints")
