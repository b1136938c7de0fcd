package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/transcript-api/internal/service"
)

func TestCompareFixtureRoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "spring.txt")
	require.NoError(t, os.WriteFile(input, []byte("SP2024\nCSC 215 INTRO 4.00 4.00 A 16.00\n"), 0o600))

	fixtures, err := loadFixtures(dir)
	require.NoError(t, err)
	require.Len(t, fixtures, 1)
	assert.Equal(t, filepath.Join(dir, "spring.expected.json"), fixtures[0].Expected)

	svc := service.NewTranscriptService(service.TranscriptServiceParams{})
	comp := compareFixture(svc, fixtures[0], time.Second, true)
	require.NoError(t, comp.Error)

	comp = compareFixture(svc, fixtures[0], time.Second, false)
	require.NoError(t, comp.Error)
	assert.True(t, comp.Match)

	require.NoError(t, os.WriteFile(input, []byte("SP2024\nCSC 215 INTRO 4.00 4.00 B 12.00\n"), 0o600))
	comp = compareFixture(svc, fixtures[0], time.Second, false)
	require.NoError(t, comp.Error)
	assert.False(t, comp.Match)

	var out bytes.Buffer
	printReport(&out, []comparison{comp})
	assert.Contains(t, out.String(), "[DIFF] spring.txt")
}

func TestBodiesEqualIgnoresVolatileFields(t *testing.T) {
	assert.True(t, bodiesEqual([]byte(`{"id":"a","units":4.0,"terms":[]}`), []byte(`{"id":"b","units":4,"terms":[]}`)))
	assert.False(t, bodiesEqual([]byte(`{"units":4}`), []byte(`{"units":3}`)))
	assert.False(t, bodiesEqual([]byte(`{`), []byte(`{}`)))
}

func TestLoadFixturesEmptyDir(t *testing.T) {
	_, err := loadFixtures(t.TempDir())
	assert.Error(t, err)
}
