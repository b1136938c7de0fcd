package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/noah-isme/transcript-api/internal/service"
	"github.com/noah-isme/transcript-api/pkg/config"
	"github.com/noah-isme/transcript-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var (
		opts    batchOptions
		formats string
	)
	flag.StringVar(&opts.InputDir, "in", "", "Directory of transcripts to parse")
	flag.StringVar(&opts.OutputDir, "out", cfg.Batch.OutputDir, "Directory for parsed JSON and exports")
	flag.IntVar(&opts.Workers, "workers", cfg.Batch.Workers, "Concurrent parse workers")
	flag.IntVar(&opts.Retries, "retries", cfg.Batch.Retries, "Retries for transient failures")
	flag.DurationVar(&opts.RetryDelay, "retry-delay", 500*time.Millisecond, "Delay between retries")
	flag.DurationVar(&opts.Prune, "prune", 0, "Remove outputs older than this before running")
	flag.StringVar(&formats, "export", "", "Comma separated export formats to write per file (csv, pdf, xlsx)")
	flag.Parse()

	if opts.InputDir == "" {
		flag.Usage()
		os.Exit(2)
	}
	for _, f := range strings.Split(formats, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			opts.Formats = append(opts.Formats, f)
		}
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := service.NewTranscriptService(service.TranscriptServiceParams{
		Logger: logr,
		Config: service.TranscriptServiceConfig{
			MaxInputBytes:      cfg.Parser.MaxInputBytes,
			LineSplitThreshold: cfg.Parser.LineSplitThreshold,
			LineTolerance:      cfg.Parser.LineTolerance,
			DefaultDegree:      cfg.Parser.DefaultDegree,
			Institution:        cfg.Parser.Institution,
		},
	})

	start := time.Now()
	report, err := runBatch(ctx, opts, svc, logr)
	if err != nil {
		logr.Sugar().Errorw("batch failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("files: %d  parsed: %d  empty: %d  failed: %d  (%s)\n",
		report.Total, report.Parsed, report.Empty, len(report.Failures), time.Since(start).Round(time.Millisecond))
	for _, f := range report.Failures {
		fmt.Printf("  FAIL %s: %s\n", f.File, f.Error)
	}
	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}
