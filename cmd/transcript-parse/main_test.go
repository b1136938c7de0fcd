package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-api/internal/dto"
	"github.com/noah-isme/transcript-api/pkg/config"
)

func TestRunWritesJSONAndExports(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "transcript.txt")
	require.NoError(t, os.WriteFile(input, []byte("SP2024\nCSC 215 INTRO 4.00 4.00 A 16.00\n"), 0o600))

	var out bytes.Buffer
	outDir := filepath.Join(dir, "exports")
	err := run(context.Background(), &config.Config{}, zap.NewNop(), input, []string{"csv", "xlsx"}, outDir, &out)
	require.NoError(t, err)

	var result dto.ParseResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "text", result.Source)
	require.Len(t, result.Transcript.Terms, 1)
	assert.Equal(t, 4.0, result.Transcript.Cumulative.OverallGPA)

	assert.FileExists(t, filepath.Join(outDir, "transcript.csv"))
	assert.FileExists(t, filepath.Join(outDir, "transcript.xlsx"))
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "t.txt")
	require.NoError(t, os.WriteFile(input, []byte("SP2024\n"), 0o600))

	err := run(context.Background(), &config.Config{}, zap.NewNop(), input, []string{"docx"}, dir, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestSplitFormats(t *testing.T) {
	assert.Equal(t, []string{"csv", "pdf"}, splitFormats(" CSV, ,pdf"))
	assert.Nil(t, splitFormats(""))
}
