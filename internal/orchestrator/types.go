// Package orchestrator drives the Orchestrator state machine (§4.I): per
// run, classify every candidate, act on delete targets, and fan the
// reprocess set out across a fixed worker pool that runs the Metric
// Pipeline (and, when enabled, the PSD Pipeline) for each file.
package orchestrator

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/EIDA/wfcatalog/internal/archive"
)

// Summary reports one run's outcome across the process set, formatted for
// the completion log line.
type Summary struct {
	Processed    int
	Skipped      int
	Deleted      int
	Failed       int
	BytesScanned int64
	Elapsed      time.Duration
}

// String renders the run summary with human-readable byte counts and
// elapsed time, the shape of the orchestrator's completion log line.
func (s Summary) String() string {
	return fmt.Sprintf("processed=%d skipped=%d deleted=%d failed=%d scanned=%s elapsed=%s",
		s.Processed, s.Skipped, s.Deleted, s.Failed,
		humanize.Bytes(uint64(s.BytesScanned)), s.Elapsed.Round(time.Millisecond))
}

// job is one file queued for the reprocess stage, named separately from
// its archive.File since dependents recovered via the Dependency Resolver
// are resolved back to a path rather than coming from the enumerated
// candidate set.
type job struct {
	name string
	file *archive.File
}
