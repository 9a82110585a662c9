// Command wfcatalog ingests seismic waveform files from a disk archive,
// computes QC metadata and optional PSD summaries, and persists the
// result to the catalog (or, when the store is disabled, to stdout).
//
// Usage:
//
//	wfcatalog --file F [--csegs] [--flags] [--hourly] [--update [--force]] [--delete]
//	wfcatalog --dir D | --glob G | --list '["a","b"]' | --date YYYY-MM-DD [--range N] | --past day
//	wfcatalog --config
//	wfcatalog --version
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/EIDA/wfcatalog/internal/archive"
	"github.com/EIDA/wfcatalog/internal/catalog"
	"github.com/EIDA/wfcatalog/internal/config"
	"github.com/EIDA/wfcatalog/internal/identity"
	"github.com/EIDA/wfcatalog/internal/ingest"
	"github.com/EIDA/wfcatalog/internal/inventory"
	"github.com/EIDA/wfcatalog/internal/logging"
	"github.com/EIDA/wfcatalog/internal/metrics"
	"github.com/EIDA/wfcatalog/internal/orchestrator"
	"github.com/EIDA/wfcatalog/internal/psd"
)

// version is stamped at build time via ldflags and printed by --version.
// Granules carry Config.Version instead, which has its own default.
var version = "dev"

// configPath is the conventional location of the static configuration
// file, mirroring the source's config.json sitting next to the script.
const configPath = "config.yaml"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	args, err := parseArgs(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if args.showVersion {
		fmt.Printf("wfcatalog v%s\n", version)
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if args.showConfig {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0
	}

	if args.force && !args.update {
		fmt.Fprintln(os.Stderr, ingest.ErrForceRequiresUpdate)
		return 1
	}
	if (args.update || args.delete) && !cfg.Mongo.Enabled {
		fmt.Fprintln(os.Stderr, "wfcatalog: cannot update or delete: store is disabled (mongo.enabled=false)")
		return 1
	}

	sink, closeSink, err := logging.Sink(logging.Options{
		Path:        args.logfile,
		Stdout:      args.stdout,
		DefaultPath: cfg.DefaultLogFile,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeSink()
	logger := logging.New(sink, "wfcatalog")

	candidates, err := enumerate(args, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(candidates) == 0 {
		logger.Print("empty process set")
		return 0
	}

	resolver, err := identity.NewResolver(cfg.Structure, cfg.ArchiveRoot, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	collector := catalog.Collector{Version: cfg.Version, Archive: cfg.Archive, Publisher: cfg.Publisher}
	timeout := time.Duration(cfg.ProcessingTimeoutSeconds) * time.Second
	mode := ingest.Mode{Update: args.update, Force: args.force, Delete: args.delete}

	if !cfg.Mongo.Enabled {
		return runStdout(candidates, resolver, cfg, collector, timeout, logger)
	}

	storeCfg := catalog.DefaultConfig()
	storeCfg.AllowDouble = cfg.Mongo.AllowDouble
	store, err := catalog.New(storeCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer store.Close()

	metricsPipeline := metrics.NewPipeline(unimplementedMetricComputer{}, store, resolver, cfg.Structure, metrics.Options{
		Hourly:     args.hourly,
		Csegs:      args.csegs,
		Flags:      args.flags,
		DublinCore: cfg.EnableDublinCore,
		Timeout:    timeout,
		Collector:  collector,
	})

	var psdPipeline *psd.Pipeline
	if cfg.FDSNStationAddress != "" {
		psdPipeline = &psd.Pipeline{
			Computer:  unimplementedSpectrumComputer{},
			Store:     store,
			Inventory: inventory.NewClient(cfg.FDSNStationAddress, unimplementedInventoryParser),
			Resolver:  resolver,
			Options: psd.Options{
				PeriodLowerLimit: cfg.PeriodLowerLimit,
				PeriodUpperLimit: cfg.PeriodUpperLimit,
				Timeout:          timeout,
			},
		}
	}

	var psdStage orchestrator.Pipeline
	if psdPipeline != nil {
		psdStage = psdPipeline
	}

	runner := &orchestrator.Runner{
		Store:      store,
		Classifier: &ingest.Classifier{Store: store, AllowDouble: cfg.Mongo.AllowDouble},
		Resolver:   resolver,
		Metrics:    metricsPipeline,
		PSD:        psdStage,
		Workers:    4,
		Logger:     logger,
	}

	summary, err := runner.Run(context.Background(), candidates, mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger.Print(summary.String())
	return 0
}

// enumerate runs the Source Enumerator and Filter for the configured
// input mode.
func enumerate(args cliArgs, cfg config.Config) ([]*archive.File, error) {
	opts := archive.Options{
		File:  args.file,
		Dir:   args.dir,
		Glob:  args.glob,
		Date:  args.date,
		Range: args.rng,
		Past:  archive.PastWindow(args.past),
		Root:  cfg.ArchiveRoot,
	}
	if args.list != "" {
		var list []string
		if err := json.Unmarshal([]byte(args.list), &list); err != nil {
			return nil, fmt.Errorf("wfcatalog: parsing --list: %w", err)
		}
		opts.List = list
	}

	candidates, err := archive.Enumerate(opts)
	if err != nil {
		return nil, fmt.Errorf("wfcatalog: %w", err)
	}

	filter, err := archive.NewFilter(cfg.Filters.White, cfg.Filters.Black)
	if err != nil {
		return nil, fmt.Errorf("wfcatalog: %w", err)
	}
	return filter.Apply(candidates), nil
}

// parseArgs hand-rolls the CLI flag surface in the source repo's own
// switch-on-os.Args style rather than reaching for a flag library.
type cliArgs struct {
	file, dir, glob, list, date, past string
	rng                               int

	csegs, flags, hourly bool
	update, force        bool
	delete               bool

	showConfig, showVersion bool
	logfile                 string
	stdout                  bool
}

func parseArgs(argv []string) (cliArgs, error) {
	var a cliArgs
	next := func(i *int) (string, error) {
		*i++
		if *i >= len(argv) {
			return "", fmt.Errorf("wfcatalog: %s requires a value", argv[*i-1])
		}
		return argv[*i], nil
	}
	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "--file":
			v, err := next(&i)
			if err != nil {
				return cliArgs{}, err
			}
			a.file = v
		case "--list":
			v, err := next(&i)
			if err != nil {
				return cliArgs{}, err
			}
			a.list = v
		case "--dir":
			v, err := next(&i)
			if err != nil {
				return cliArgs{}, err
			}
			a.dir = v
		case "--glob":
			v, err := next(&i)
			if err != nil {
				return cliArgs{}, err
			}
			a.glob = v
		case "--date":
			v, err := next(&i)
			if err != nil {
				return cliArgs{}, err
			}
			a.date = v
		case "--range":
			v, err := next(&i)
			if err != nil {
				return cliArgs{}, err
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return cliArgs{}, fmt.Errorf("wfcatalog: --range wants an integer: %w", err)
			}
			a.rng = n
		case "--past":
			v, err := next(&i)
			if err != nil {
				return cliArgs{}, err
			}
			a.past = v
		case "--csegs":
			a.csegs = true
		case "--flags":
			a.flags = true
		case "--hourly":
			a.hourly = true
		case "--update":
			a.update = true
		case "--force":
			a.force = true
		case "--delete":
			a.delete = true
		case "--config":
			a.showConfig = true
		case "--version":
			a.showVersion = true
		case "--logfile":
			v, err := next(&i)
			if err != nil {
				return cliArgs{}, err
			}
			a.logfile = v
		case "--stdout":
			a.stdout = true
		default:
			return cliArgs{}, fmt.Errorf("wfcatalog: unknown flag %q", argv[i])
		}
	}
	return a, nil
}

// unimplementedMetricComputer, unimplementedSpectrumComputer, and
// unimplementedInventoryParser are the seams for the external
// waveform-metric, PSD, and StationXML libraries (§1, Design Notes §9:
// "duck-typed library output... model it as an explicit schema at the
// boundary"). None exist in this repository; a deployment links its own
// implementation in their place before building.
type unimplementedMetricComputer struct{}

func (unimplementedMetricComputer) Daily(ctx context.Context, w metrics.Window, start, end time.Time, flags, csegs bool) (metrics.DailyResult, error) {
	return metrics.DailyResult{}, fmt.Errorf("wfcatalog: no waveform-metric library linked")
}

func (unimplementedMetricComputer) Hourly(ctx context.Context, w metrics.Window, start, end time.Time, flags bool) (metrics.HourlyResult, error) {
	return metrics.HourlyResult{}, fmt.Errorf("wfcatalog: no waveform-metric library linked")
}

type unimplementedSpectrumComputer struct{}

func (unimplementedSpectrumComputer) ComputeSegments(ctx context.Context, w metrics.Window, start time.Time, lower, upper float64) ([]psd.Segment, error) {
	return nil, fmt.Errorf("wfcatalog: no PSD library linked")
}

func unimplementedInventoryParser(body []byte) (inventory.Inventory, error) {
	return inventory.Inventory{}, fmt.Errorf("wfcatalog: no StationXML parser linked")
}

// runStdout implements the MONGO.ENABLED=false contract (§6): compute and
// print, never persist. Classification is moot with no store to compare
// against, so every candidate is processed fresh.
func runStdout(candidates []*archive.File, resolver *identity.Resolver, cfg config.Config, collector catalog.Collector, timeout time.Duration, logger *log.Logger) int {
	sink := &stdoutStore{enc: json.NewEncoder(os.Stdout)}
	pipeline := metrics.NewPipeline(unimplementedMetricComputer{}, sink, resolver, cfg.Structure, metrics.Options{
		Csegs:      false,
		Flags:      false,
		DublinCore: cfg.EnableDublinCore,
		Timeout:    timeout,
		Collector:  collector,
	})
	failed := 0
	for _, f := range candidates {
		if err := pipeline.Process(context.Background(), f); err != nil {
			logger.Print(err)
			failed++
		}
	}
	logger.Printf("processed=%d failed=%d (stdout mode, no store)", len(candidates)-failed, failed)
	return 0
}

// stdoutStore implements the Store interface the Metric Pipeline needs by
// writing each document to stdout as JSON instead of persisting it, for
// MONGO.ENABLED=false runs. It has no PSD methods; stdout runs compute no
// PSD.
type stdoutStore struct {
	enc *json.Encoder
}

func (s *stdoutStore) InsertDailyGranule(g catalog.DailyGranule) (string, error) {
	g.StreamID = uuid.NewString()
	return g.StreamID, s.enc.Encode(g)
}

func (s *stdoutStore) InsertHourlyGranule(h catalog.HourlyGranule) error {
	return s.enc.Encode(h)
}

func (s *stdoutStore) InsertContinuousSegment(c catalog.ContinuousSegment) error {
	return s.enc.Encode(c)
}

func (s *stdoutStore) FindDataObject(fileID string) (*catalog.DataObject, error) {
	return nil, catalog.ErrNotFound
}

func (s *stdoutStore) InsertDataObject(d catalog.DataObject) (*catalog.DataObject, error) {
	d.ID = uuid.NewString()
	if err := s.enc.Encode(d); err != nil {
		return nil, err
	}
	return &d, nil
}
