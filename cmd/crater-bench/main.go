package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	crater "github.com/jamesainslie/go-crater"
	"github.com/jamesainslie/go-crater/internal/bench"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML bench config")
		envPath    = flag.String("env", ".env", "Path to .env file with CRATER_* overrides")
		truthPath  = flag.String("truth", "", "Ground truth label file (patch,x,y,radius; .gz/.zst accepted)")
		predPath   = flag.String("pred", "", "Prediction label file (patch,x,y,radius; .gz/.zst accepted)")
		threshold  = flag.Float64("threshold", crater.DefaultIoUThreshold, "IoU acceptance threshold")
		pNorm      = flag.Float64("pnorm", 1, "OSPA p-norm order")
		cutoff     = flag.Float64("cutoff", 1, "OSPA cardinality penalty")
		workers    = flag.Int("workers", 0, "Concurrent patches (0 = NumCPU)")
		wp         = flag.Float64("wp", 1.0, "Precision weight")
		wr         = flag.Float64("wr", 1.0, "Recall weight")
		sweep      = flag.Bool("sweep", false, "Run IoU threshold sweep")
		sweepMin   = flag.Float64("sweep-min", 0.1, "Sweep minimum threshold")
		sweepMax   = flag.Float64("sweep-max", 0.9, "Sweep maximum threshold")
		sweepStep  = flag.Float64("sweep-step", 0.05, "Sweep step size")
		format     = flag.String("format", bench.FormatText, "Output format: text, json or yaml")
		verbose    = flag.Bool("v", false, "Debug logging")
		showVer    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("crater-bench %s (%s, %s)\n", version, commit, date)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := bench.LoadDotEnv(*envPath, set["env"]); err != nil {
		fatal(err)
	}

	cfg := bench.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = bench.LoadConfig(*configPath); err != nil {
			fatal(err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		fatal(err)
	}

	// Explicit flags win over config file and environment.
	overrides := map[string]func(){
		"truth":     func() { cfg.Truth = *truthPath },
		"pred":      func() { cfg.Predictions = *predPath },
		"threshold": func() { cfg.IoUThreshold = *threshold },
		"pnorm":     func() { cfg.PNorm = *pNorm },
		"cutoff":    func() { cfg.Cutoff = *cutoff },
		"workers":   func() { cfg.Workers = *workers },
		"wp":        func() { cfg.PrecisionWeight = *wp },
		"wr":        func() { cfg.RecallWeight = *wr },
	}
	for name, apply := range overrides {
		if set[name] {
			apply()
		}
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	if cfg.Truth == "" || cfg.Predictions == "" {
		fmt.Fprintln(os.Stderr, "error: -truth and -pred required (or set them in -config / CRATER_TRUTH, CRATER_PREDICTIONS)")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, cfg, *sweep, *sweepMin, *sweepMax, *sweepStep, *format); err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg bench.Config, sweep bool, min, max, step float64, format string) error {
	ds, err := bench.LoadDataset(cfg.Truth, cfg.Predictions)
	if err != nil {
		return err
	}
	nt, np := ds.Circles()
	logger.Info("loaded dataset", "patches", len(ds.IDs), "true", nt, "pred", np)

	s := crater.New(append(cfg.Options(), crater.WithLogger(logger))...)

	report, err := s.Evaluate(ctx, ds.Truth, ds.Pred)
	if err != nil {
		return fmt.Errorf("evaluating: %w", err)
	}
	if len(report.Undefined) > 0 {
		logger.Warn("metrics undefined for this dataset", "metrics", strings.Join(report.Undefined, ","))
	}

	var results []bench.SweepResult
	if sweep {
		results, err = bench.Sweep(ctx, s, ds, cfg, bench.SweepThresholds(min, max, step))
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
	}

	return bench.Write(os.Stdout, bench.NewRun(cfg, report, results), format)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
