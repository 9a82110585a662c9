package orchestrator

import "errors"

// ErrNoMetricPipeline is returned when a Runner is asked to reprocess
// files without a Metric Pipeline configured.
var ErrNoMetricPipeline = errors.New("orchestrator: no metric pipeline configured")
