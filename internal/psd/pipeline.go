package psd

import (
	"context"
	"fmt"
	"time"

	"github.com/EIDA/wfcatalog/internal/archive"
	"github.com/EIDA/wfcatalog/internal/catalog"
	"github.com/EIDA/wfcatalog/internal/identity"
	"github.com/EIDA/wfcatalog/internal/inventory"
	"github.com/EIDA/wfcatalog/internal/metrics"
)

// Store is the subset of the Store Gateway the PSD Pipeline writes to.
type Store interface {
	HasPSDForFile(fileID string) (bool, error)
	InsertPSDSpectrum(catalog.PSDSpectrum) error
}

// Options configures one PSD pipeline run.
type Options struct {
	PeriodLowerLimit float64
	PeriodUpperLimit float64
	Timeout          time.Duration
}

// Pipeline drives the PSD Pipeline (§4.G) for one file at a time.
type Pipeline struct {
	Computer  Computer
	Store     Store
	Inventory *inventory.Client
	Resolver  *identity.Resolver
	Options   Options
}

// Process resolves inventory, computes 48 half-hour spectra, and persists
// them. PSD is skipped (not an error) for infrasound channels and for
// files already carrying PSD documents (the pipeline's own independent
// idempotency guard, per SPEC_FULL.md §11).
func (p *Pipeline) Process(ctx context.Context, target *archive.File) error {
	id, err := p.Resolver.Parse(target.Basename())
	if err != nil {
		return fmt.Errorf("psd: parse %s: %w", target.Basename(), err)
	}
	if id.IsInfrasound() {
		return nil
	}

	already, err := p.Store.HasPSDForFile(target.Basename())
	if err != nil {
		return fmt.Errorf("psd: checking existing spectra for %s: %w", target.Basename(), err)
	}
	if already {
		return nil
	}

	window, err := metrics.BuildWindow(p.Resolver, target, id)
	if err != nil {
		return fmt.Errorf("psd: build window for %s: %w", target.Basename(), err)
	}

	streamID := id.StreamKey()
	if _, err := p.Inventory.Resolve(streamID, id.Network, id.Station, id.Location, id.Channel); err != nil {
		return fmt.Errorf("psd: resolve inventory for %s: %w", target.Basename(), err)
	}

	dayStart, err := identity.DayStart(id)
	if err != nil {
		return fmt.Errorf("psd: %s: %w", target.Basename(), err)
	}

	computeCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	segments, err := p.Computer.ComputeSegments(computeCtx, window, dayStart, p.Options.PeriodLowerLimit, p.Options.PeriodUpperLimit)
	if err != nil {
		return fmt.Errorf("psd: compute segments for %s: %w", target.Basename(), err)
	}

	for _, seg := range segments {
		doc := catalog.PSDSpectrum{
			FileID:   target.Basename(),
			Identity: catalog.Identity{Net: id.Network, Sta: id.Station, Loc: id.Location, Cha: id.Channel},
			TS:       seg.Start.UTC().Format(time.RFC3339),
			TE:       seg.Start.Add(SegmentStride).UTC().Format(time.RFC3339),
			Warnings: seg.Warnings,
			Binary:   Encode(seg),
		}
		if err := p.Store.InsertPSDSpectrum(doc); err != nil {
			return fmt.Errorf("psd: insert spectrum for %s: %w", target.Basename(), err)
		}
	}
	return nil
}

func (p *Pipeline) timeout() time.Duration {
	if p.Options.Timeout <= 0 {
		return 120 * time.Second
	}
	return p.Options.Timeout
}
