package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/transcript-api/internal/dto"
	"github.com/noah-isme/transcript-api/internal/service"
)

func writeInput(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestRunBatch(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "parsed")
	writeInput(t, in, "alice.txt", []byte("SP2024\nCSC 215 INTRO 4.00 4.00 A 16.00\n"))
	writeInput(t, in, "nested/bob.json", []byte(`{"terms":[{"termCode":"FA2024","courses":[{"code":"MATH 101","units":3,"earnedUnits":3,"grade":"B"}]}]}`))
	writeInput(t, in, "blank.txt", []byte("nothing here\n"))
	writeInput(t, in, "broken.txt", []byte{0xC3, 0x28, 0xA0})
	writeInput(t, in, "notes.md", []byte("ignored"))

	svc := service.NewTranscriptService(service.TranscriptServiceParams{})
	report, err := runBatch(context.Background(), batchOptions{
		InputDir:  in,
		OutputDir: out,
		Workers:   2,
		Formats:   []string{"csv"},
	}, svc, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 3, report.Parsed)
	assert.Equal(t, 1, report.Empty)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "broken.txt", report.Failures[0].File)

	raw, err := os.ReadFile(filepath.Join(out, "nested", "bob.json"))
	require.NoError(t, err)
	var result dto.ParseResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, "json", result.Source)
	assert.Equal(t, 3.0, result.Transcript.Cumulative.OverallGPA)

	assert.FileExists(t, filepath.Join(out, "alice.csv"))
	assert.Contains(t, report.Outputs, "alice.json")
}

type flakyParser struct {
	calls int32
}

func (f *flakyParser) Parse(ctx context.Context, req service.ParseRequest) (*dto.ParseResult, error) {
	if atomic.AddInt32(&f.calls, 1) == 1 {
		return nil, errors.New("transient")
	}
	return &dto.ParseResult{Source: "text", Empty: true}, nil
}

func TestRunBatchRetriesTransientErrors(t *testing.T) {
	in := t.TempDir()
	writeInput(t, in, "a.txt", []byte("x"))

	p := &flakyParser{}
	report, err := runBatch(context.Background(), batchOptions{
		InputDir:   in,
		OutputDir:  t.TempDir(),
		Workers:    1,
		Retries:    2,
		RetryDelay: 10 * time.Millisecond,
	}, p, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&p.calls))
	assert.Equal(t, 1, report.Parsed)
	assert.Empty(t, report.Failures)
}

func TestRunBatchExhaustedRetries(t *testing.T) {
	in := t.TempDir()
	writeInput(t, in, "a.txt", []byte("x"))

	report, err := runBatch(context.Background(), batchOptions{
		InputDir:   in,
		OutputDir:  t.TempDir(),
		Workers:    1,
		RetryDelay: time.Millisecond,
	}, parserFunc(func(context.Context, service.ParseRequest) (*dto.ParseResult, error) {
		return nil, errors.New("database down")
	}), nil)
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "database down", report.Failures[0].Error)
}

type parserFunc func(context.Context, service.ParseRequest) (*dto.ParseResult, error)

func (f parserFunc) Parse(ctx context.Context, req service.ParseRequest) (*dto.ParseResult, error) {
	return f(ctx, req)
}
