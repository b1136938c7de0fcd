package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/transcript-api/internal/dto"
	"github.com/noah-isme/transcript-api/internal/service"
	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
	"github.com/noah-isme/transcript-api/pkg/jobs"
	"github.com/noah-isme/transcript-api/pkg/storage"
)

var inputExtensions = []string{"pdf", "txt", "text", "html", "htm", "json"}

type parser interface {
	Parse(ctx context.Context, req service.ParseRequest) (*dto.ParseResult, error)
}

type batchOptions struct {
	InputDir   string
	OutputDir  string
	Workers    int
	Retries    int
	RetryDelay time.Duration
	Formats    []string
	Prune      time.Duration
}

type batchFailure struct {
	File  string
	Error string
}

type batchReport struct {
	mu       sync.Mutex
	Total    int
	Parsed   int
	Empty    int
	Outputs  []string
	Failures []batchFailure
}

func (r *batchReport) succeed(empty bool, outputs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Parsed++
	if empty {
		r.Empty++
	}
	r.Outputs = append(r.Outputs, outputs...)
}

func (r *batchReport) fail(file string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, batchFailure{File: file, Error: err.Error()})
}

func (r *batchReport) finish() {
	sort.Strings(r.Outputs)
	sort.Slice(r.Failures, func(i, j int) bool { return r.Failures[i].File < r.Failures[j].File })
}

type batchRunner struct {
	parser  parser
	in      *storage.LocalStorage
	out     *storage.LocalStorage
	exports *service.ExportService
	formats []string
	report  *batchReport
	logger  *zap.Logger
}

func runBatch(ctx context.Context, opts batchOptions, p parser, logr *zap.Logger) (*batchReport, error) {
	if logr == nil {
		logr = zap.NewNop()
	}
	in, err := storage.NewLocalStorage(opts.InputDir)
	if err != nil {
		return nil, err
	}
	out, err := storage.NewLocalStorage(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if opts.Prune > 0 {
		removed, err := out.CleanupOlderThan(opts.Prune)
		if err != nil {
			return nil, err
		}
		logr.Sugar().Infow("pruned stale outputs", "count", len(removed))
	}

	names, err := in.List(inputExtensions...)
	if err != nil {
		return nil, err
	}

	runner := &batchRunner{
		parser:  p,
		in:      in,
		out:     out,
		exports: service.NewExportService(out, nil, logr),
		formats: opts.Formats,
		report:  &batchReport{Total: len(names)},
		logger:  logr,
	}

	retries := opts.Retries
	if retries <= 0 {
		retries = -1
	}
	queue := jobs.NewQueue("transcript-batch", runner.handle, jobs.QueueConfig{
		Workers:    opts.Workers,
		BufferSize: len(names) + 1,
		MaxRetries: retries,
		RetryDelay: opts.RetryDelay,
		Logger:     logr,
		OnFailure: func(job jobs.Job, err error) {
			runner.report.fail(job.ID, err)
		},
	})
	queue.Start(ctx)
	defer queue.Stop()

	for _, name := range names {
		if err := queue.Enqueue(jobs.Job{ID: name, Type: "parse", Payload: name}); err != nil {
			runner.report.fail(name, err)
		}
	}
	if err := queue.Wait(ctx); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}

	runner.report.finish()
	return runner.report, nil
}

// handle parses one file. Client-side errors such as an undecodable document
// are recorded as failures immediately; anything else is returned so the
// queue retries it.
func (b *batchRunner) handle(ctx context.Context, job jobs.Job) error {
	name, _ := job.Payload.(string)
	data, err := b.read(name)
	if err != nil {
		return err
	}

	result, err := b.parser.Parse(ctx, service.ParseRequest{Filename: name, Data: data})
	if err != nil {
		if appErrors.FromError(err).Status < http.StatusInternalServerError {
			b.report.fail(name, err)
			return nil
		}
		return err
	}

	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(name, path.Ext(name))
	written, err := b.out.Save(base+".json", body)
	if err != nil {
		return err
	}
	outputs := []string{written}
	if len(b.formats) > 0 {
		exported, err := b.exports.Store(ctx, name, result.Transcript, b.formats...)
		if err != nil {
			return err
		}
		outputs = append(outputs, exported...)
	}

	b.logger.Debug("transcript parsed",
		zap.String("file", name),
		zap.String("source", result.Source),
		zap.Int("terms", len(result.Transcript.Terms)),
		zap.Bool("empty", result.Empty),
	)
	b.report.succeed(result.Empty, outputs...)
	return nil
}

func (b *batchRunner) read(name string) ([]byte, error) {
	f, err := b.in.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return io.ReadAll(f)
}
