package orchestrator

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/EIDA/wfcatalog/internal/archive"
	"github.com/EIDA/wfcatalog/internal/catalog"
	"github.com/EIDA/wfcatalog/internal/identity"
	"github.com/EIDA/wfcatalog/internal/ingest"
)

// Store is the subset of the Store Gateway the Runner drives directly,
// beyond what the Change Detector and Dependency Resolver already
// declare: the delete-flow's granule lookup and cascading removal.
type Store interface {
	ingest.Store
	ingest.ResolverStore
	DeleteByStreamID(streamID string) error
	DeletePSDByFileID(fileID string) error
}

// Pipeline is the shape shared by the Metric and PSD pipelines: run one
// file end to end under a caller-bounded context.
type Pipeline interface {
	Process(ctx context.Context, target *archive.File) error
}

// Runner drives the Orchestrator state machine for one call to Run: a
// pool of Workers goroutines pulls from the reprocess set, each running
// the Metric Pipeline (and PSD Pipeline, if configured) for one file
// end to end. Across workers only the Store is shared (§5).
type Runner struct {
	Store      Store
	Classifier *ingest.Classifier
	Resolver   *identity.Resolver
	Metrics    Pipeline
	PSD        Pipeline // nil disables the PSD stage for this run

	Workers int
	Logger  *log.Logger
}

// Run classifies every candidate, carries out the delete flow, and fans
// the resulting reprocess set out across the worker pool.
func (r *Runner) Run(ctx context.Context, candidates []*archive.File, mode ingest.Mode) (Summary, error) {
	start := time.Now()
	if mode.Force && !mode.Update {
		return Summary{}, ingest.ErrForceRequiresUpdate
	}
	if r.Metrics == nil {
		return Summary{}, ErrNoMetricPipeline
	}

	byName := make(map[string]*archive.File, len(candidates))
	for _, f := range candidates {
		byName[f.Basename()] = f
	}

	classes := make(map[string]ingest.Classification, len(candidates))
	for _, f := range candidates {
		class, err := r.Classifier.Classify(f, mode)
		if err != nil {
			return Summary{}, fmt.Errorf("orchestrator: classify %s: %w", f.Basename(), err)
		}
		classes[f.Basename()] = class
	}

	deleteTargets := make(map[string]bool)
	for name, c := range classes {
		if c == ingest.DeleteTarget {
			deleteTargets[name] = true
		}
	}

	var summary Summary
	reprocess := make(map[string]bool)
	for name, c := range classes {
		switch c {
		case ingest.New:
			reprocess[name] = true
		case ingest.Changed:
			reprocess[name] = true
			if _, err := r.cascade(name, deleteTargets, reprocess); err != nil {
				return Summary{}, fmt.Errorf("orchestrator: change cascade %s: %w", name, err)
			}
		case ingest.Unchanged:
			summary.Skipped++
		}
	}

	if err := r.runDeleteFlow(deleteTargets, reprocess, &summary); err != nil {
		return Summary{}, err
	}

	jobs, err := r.resolveJobs(reprocess, byName)
	if err != nil {
		return Summary{}, err
	}

	for _, res := range r.runWorkers(ctx, jobs) {
		if res.err != nil {
			summary.Failed++
			r.logf("file %s failed: %v", res.name, res.err)
			continue
		}
		summary.Processed++
		summary.BytesScanned += res.bytes
	}

	summary.Elapsed = time.Since(start)
	r.logf("run complete: %s", summary.String())
	return summary, nil
}

// runDeleteFlow implements the delete-flow specifics (§4.I): for each
// delete target, cascade to its dependents and remove its own granule (a
// no-op if none exists: the file was already gone).
func (r *Runner) runDeleteFlow(deleteTargets, reprocess map[string]bool, summary *Summary) error {
	for name := range deleteTargets {
		deleted, err := r.cascade(name, deleteTargets, reprocess)
		if err != nil {
			return fmt.Errorf("orchestrator: delete %s: %w", name, err)
		}
		if deleted {
			summary.Deleted++
		}
	}
	return nil
}

// cascade is the shared delete-flow/change-flow step (§4.E: "deletion and
// update flows both use this to cascade"): it stages name's non-deleted
// dependents for reprocess, clearing each staged dependent's own stale
// granule (and PSD spectra) so its reinsert doesn't trip the is-new
// guard, then does the same for name itself. Changing one day of a
// three-file window deletes and reinserts all three dailies that
// reference it, not just the one whose bytes changed. Reports whether
// name itself had a granule to remove.
func (r *Runner) cascade(name string, deleteTargets, reprocess map[string]bool) (bool, error) {
	deps, err := ingest.Dependents(r.Store, name)
	if err != nil {
		return false, fmt.Errorf("orchestrator: dependents of %s: %w", name, err)
	}
	for _, d := range ingest.StageDependentsAsChanged(deps, deleteTargets) {
		if reprocess[d] {
			continue
		}
		reprocess[d] = true
		if _, err := r.deleteGranule(d); err != nil {
			return false, fmt.Errorf("orchestrator: clear stale granule for dependent %s: %w", d, err)
		}
	}
	return r.deleteGranule(name)
}

// deleteGranule removes name's own daily granule (cascading to its hourly
// granules and continuous segments) and any PSD spectra recorded for it.
// Reports whether a granule existed to be removed; a no-op (false, nil)
// is expected when the file was already gone from the store.
func (r *Runner) deleteGranule(name string) (bool, error) {
	granule, err := r.Store.FindDailyByFileID(name)
	switch {
	case err == catalog.ErrNotFound:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("orchestrator: find daily for %s: %w", name, err)
	}
	if err := r.Store.DeleteByStreamID(granule.StreamID); err != nil {
		return false, fmt.Errorf("orchestrator: delete %s: %w", name, err)
	}
	if err := r.Store.DeletePSDByFileID(name); err != nil {
		return false, fmt.Errorf("orchestrator: delete psd for %s: %w", name, err)
	}
	return true, nil
}

// resolveJobs turns the reprocess name set into jobs with a concrete
// *archive.File: candidates already carry one, dependents pulled in from
// the Dependency Resolver are resolved back to a path via the Layout
// Resolver.
func (r *Runner) resolveJobs(reprocess map[string]bool, byName map[string]*archive.File) ([]job, error) {
	jobs := make([]job, 0, len(reprocess))
	for name := range reprocess {
		if f, ok := byName[name]; ok {
			jobs = append(jobs, job{name: name, file: f})
			continue
		}
		id, err := r.Resolver.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: resolve dependent %s: %w", name, err)
		}
		path, err := r.Resolver.ToPath(id)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: resolve dependent %s: %w", name, err)
		}
		jobs = append(jobs, job{name: name, file: archive.NewFile(path)})
	}
	return jobs, nil
}

type jobResult struct {
	name  string
	bytes int64
	err   error
}

// runWorkers fans jobs out across a fixed pool of goroutines (§5: "a pool
// of N independent workers, each processing one file end-to-end"). Only
// the Store is shared state across workers.
func (r *Runner) runWorkers(ctx context.Context, jobs []job) []jobResult {
	workers := r.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(jobs) && len(jobs) > 0 {
		workers = len(jobs)
	}

	jobCh := make(chan job)
	resultCh := make(chan jobResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				resultCh <- r.processOne(ctx, j)
			}
		}()
	}

	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	wg.Wait()
	close(resultCh)

	results := make([]jobResult, 0, len(jobs))
	for res := range resultCh {
		results = append(results, res)
	}
	return results
}

// processOne runs the Metric Pipeline, then the PSD Pipeline if
// configured, for one file. Both pipelines bound their own computations
// with context.WithTimeout internally (§5 cancellation & timeouts).
func (r *Runner) processOne(ctx context.Context, j job) jobResult {
	if err := r.Metrics.Process(ctx, j.file); err != nil {
		return jobResult{name: j.name, err: fmt.Errorf("metrics: %w", err)}
	}
	var size int64
	if info, err := os.Stat(j.file.Path); err == nil {
		size = info.Size()
	}
	if r.PSD != nil {
		if err := r.PSD.Process(ctx, j.file); err != nil {
			return jobResult{name: j.name, bytes: size, err: fmt.Errorf("psd: %w", err)}
		}
	}
	return jobResult{name: j.name, bytes: size}
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}
