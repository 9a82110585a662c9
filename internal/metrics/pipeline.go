package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/EIDA/wfcatalog/internal/archive"
	"github.com/EIDA/wfcatalog/internal/catalog"
	"github.com/EIDA/wfcatalog/internal/identity"
)

// Store is the subset of the Store Gateway the Metric Pipeline writes to.
type Store interface {
	InsertDailyGranule(catalog.DailyGranule) (string, error)
	InsertHourlyGranule(catalog.HourlyGranule) error
	InsertContinuousSegment(catalog.ContinuousSegment) error
	FindDataObject(fileID string) (*catalog.DataObject, error)
	InsertDataObject(catalog.DataObject) (*catalog.DataObject, error)
}

// Options configures one pipeline run, mirroring the CLI/config flags.
type Options struct {
	Hourly     bool
	Csegs      bool
	Flags      bool
	DublinCore bool
	Timeout    time.Duration
	Collector  catalog.Collector
}

// Pipeline drives the Metric Pipeline (§4.F) for one file at a time.
type Pipeline struct {
	Computer Computer
	Store    Store
	Resolver *identity.Resolver
	Layout   identity.Layout
	Options  Options

	now func() time.Time
}

// NewPipeline builds a Pipeline with the real wall clock.
func NewPipeline(computer Computer, store Store, resolver *identity.Resolver, layout identity.Layout, opts Options) *Pipeline {
	return &Pipeline{Computer: computer, Store: store, Resolver: resolver, Layout: layout, Options: opts, now: time.Now}
}

// Process runs the full daily (+ optional hourly, + optional continuous
// segment) pipeline for one file and persists the result, in the order
// required by §4.F.5 (daily before its children).
func (p *Pipeline) Process(ctx context.Context, target *archive.File) error {
	id, err := p.Resolver.Parse(target.Basename())
	if err != nil {
		return fmt.Errorf("metrics: parse %s: %w", target.Basename(), err)
	}

	window, err := BuildWindow(p.Resolver, target, id)
	if err != nil {
		return fmt.Errorf("metrics: build window for %s: %w", target.Basename(), err)
	}

	dayStart, err := identity.DayStart(id)
	if err != nil {
		return fmt.Errorf("metrics: %s: %w", target.Basename(), err)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	dailyCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	dailyResult, err := p.Computer.Daily(dailyCtx, window, dayStart, dayEnd, p.Options.Flags, p.Options.Csegs)
	if err != nil {
		return fmt.Errorf("metrics: daily computation for %s: %w", target.Basename(), err)
	}

	files, err := p.buildFileRefs(window)
	if err != nil {
		return err
	}

	daily := catalog.DailyGranule{
		FileID:   target.Basename(),
		Identity: catalog.Identity{Net: id.Network, Sta: id.Station, Loc: id.Location, Cha: id.Channel},
		Qlt:      dailyResult.Qlt,
		TS:       dayStart.UTC().Format(time.RFC3339),
		TE:       dayEnd.UTC().Format(time.RFC3339),
		Enc:      dailyResult.Enc,
		Srate:    dailyResult.Srate,
		Rlen:     dailyResult.Rlen,
		Nrec:     dailyResult.Nrec,
		Nsam:     dailyResult.Nsam,

		SampleStats: dailyResult.Stats,
		GapStats:    dailyResult.Gaps,

		IO:     dailyResult.IO,
		DQ:     dailyResult.DQ,
		AC:     dailyResult.AC,
		Timing: dailyResult.Timing,

		Warnings:  dailyResult.Warnings,
		Status:    "ok",
		Format:    "mseed",
		Type:      "seismic",
		Created:   p.nowFunc().UTC().Format(time.RFC3339),
		Collector: p.Options.Collector,
		Files:     files,
	}

	streamID, err := p.Store.InsertDailyGranule(daily)
	if err != nil {
		return fmt.Errorf("metrics: insert daily granule for %s: %w", target.Basename(), err)
	}

	if p.Options.Hourly {
		if err := p.processHourly(ctx, window, id, dayStart, streamID, target.Basename()); err != nil {
			return err
		}
	}

	if p.Options.Csegs && !dailyResult.Gaps.Cont {
		for _, seg := range dailyResult.Segments {
			cseg := catalog.ContinuousSegment{
				StreamID:    streamID,
				Identity:    daily.Identity,
				SampleStats: seg.Stats,
				TS:          seg.Start.UTC().Format(time.RFC3339),
				TE:          seg.End.UTC().Format(time.RFC3339),
				Seglen:      seg.Seglen,
			}
			if err := p.Store.InsertContinuousSegment(cseg); err != nil {
				return fmt.Errorf("metrics: insert continuous segment for %s: %w", target.Basename(), err)
			}
		}
	}

	return nil
}

func (p *Pipeline) processHourly(ctx context.Context, window Window, id identity.StreamID, dayStart time.Time, streamID, fileID string) error {
	for hour := 0; hour < 24; hour++ {
		start := dayStart.Add(time.Duration(hour) * time.Hour)
		end := start.Add(time.Hour)

		hourlyCtx, cancel := context.WithTimeout(ctx, p.timeout())
		result, err := p.Computer.Hourly(hourlyCtx, window, start, end, p.Options.Flags)
		cancel()
		if err != nil {
			if err == ErrNoDataInWindow {
				continue
			}
			return fmt.Errorf("metrics: hourly computation hour %d for %s: %w", hour, fileID, err)
		}

		hourly := catalog.HourlyGranule{
			StreamID: streamID,
			FileID:   fileID,
			Identity: catalog.Identity{Net: id.Network, Sta: id.Station, Loc: id.Location, Cha: id.Channel},
			Qlt:      result.Qlt,
			TS:       start.UTC().Format(time.RFC3339),
			TE:       end.UTC().Format(time.RFC3339),
			Enc:      result.Enc,
			Srate:    result.Srate,
			Rlen:     result.Rlen,
			Nrec:     result.Nrec,
			Nsam:     result.Nsam,

			SampleStats: result.Stats,
			GapStats:    result.Gaps,

			IO:     result.IO,
			DQ:     result.DQ,
			AC:     result.AC,
			Timing: result.Timing,

			Warnings: result.Warnings,
			Status:   "ok",
			Format:   "mseed",
			Type:     "seismic",
			Created:  p.nowFunc().UTC().Format(time.RFC3339),
		}
		if err := p.Store.InsertHourlyGranule(hourly); err != nil {
			return fmt.Errorf("metrics: insert hourly granule hour %d for %s: %w", hour, fileID, err)
		}
	}
	return nil
}

func (p *Pipeline) buildFileRefs(window Window) ([]catalog.FileRef, error) {
	var refs []catalog.FileRef
	for _, f := range window.Files() {
		sum, err := f.Checksum()
		if err != nil {
			return nil, fmt.Errorf("metrics: checksum %s: %w", f.Basename(), err)
		}
		ref := catalog.FileRef{Name: f.Basename(), Chksm: sum}
		if p.Options.DublinCore {
			do, err := p.attachDataObject(f.Basename())
			if err != nil {
				return nil, err
			}
			ref.DO = &do
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (p *Pipeline) attachDataObject(fileID string) (string, error) {
	existing, err := p.Store.FindDataObject(fileID)
	if err == nil {
		return existing.ID, nil
	}
	if err != catalog.ErrNotFound {
		return "", fmt.Errorf("metrics: find data object for %s: %w", fileID, err)
	}
	created, err := p.Store.InsertDataObject(catalog.DataObject{FileID: fileID, Created: p.nowFunc().UTC().Format(time.RFC3339)})
	if err != nil {
		return "", fmt.Errorf("metrics: insert data object for %s: %w", fileID, err)
	}
	return created.ID, nil
}

func (p *Pipeline) timeout() time.Duration {
	if p.Options.Timeout <= 0 {
		return 120 * time.Second
	}
	return p.Options.Timeout
}

func (p *Pipeline) nowFunc() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}
