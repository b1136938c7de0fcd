package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/transcript-api/internal/dto"
	"github.com/noah-isme/transcript-api/internal/service"
	"github.com/noah-isme/transcript-api/pkg/config"
	"github.com/noah-isme/transcript-api/pkg/logger"
	"github.com/noah-isme/transcript-api/pkg/storage"
)

func main() {
	var (
		formats string
		outDir  string
		timeout time.Duration
	)
	flag.StringVar(&formats, "export", "", "Comma separated export formats to write (csv, pdf, xlsx)")
	flag.StringVar(&outDir, "out", "", "Directory for exported files (defaults to EXPORTS_STORAGE_DIR)")
	flag.DurationVar(&timeout, "timeout", time.Minute, "Parse timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <transcript file | ->\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if outDir == "" {
		outDir = cfg.Exports.StorageDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := run(ctx, cfg, logr, flag.Arg(0), splitFormats(formats), outDir, os.Stdout); err != nil {
		logr.Sugar().Errorw("parse failed", "file", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger, input string, formats []string, outDir string, stdout io.Writer) error {
	name, data, err := readInput(input)
	if err != nil {
		return err
	}

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
	result, err := svc.Parse(ctx, service.ParseRequest{Filename: name, Data: data})
	if err != nil {
		return err
	}

	if len(formats) > 0 {
		paths, err := export(ctx, logr, result, name, formats, outDir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(os.Stderr, p)
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func export(ctx context.Context, logr *zap.Logger, result *dto.ParseResult, name string, formats []string, outDir string) ([]string, error) {
	store, err := storage.NewLocalStorage(outDir)
	if err != nil {
		return nil, fmt.Errorf("prepare export dir: %w", err)
	}
	exports := service.NewExportService(store, nil, logr)
	rel, err := exports.Store(ctx, filepath.Base(name), result.Transcript, formats...)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(rel))
	for _, r := range rel {
		paths = append(paths, store.Path(r))
	}
	return paths, nil
}

func readInput(input string) (string, []byte, error) {
	if input == "-" {
		data, err := io.ReadAll(os.Stdin)
		return "stdin", data, err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", input, err)
	}
	return input, data, nil
}

func splitFormats(raw string) []string {
	var formats []string
	for _, part := range strings.Split(raw, ",") {
		if f := strings.ToLower(strings.TrimSpace(part)); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
