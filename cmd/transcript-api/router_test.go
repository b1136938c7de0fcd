package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-api/internal/models"
	"github.com/noah-isme/transcript-api/internal/repository"
	"github.com/noah-isme/transcript-api/pkg/config"
	"github.com/noah-isme/transcript-api/pkg/database"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "transcripts.db"),
		},
		Parser:   config.ParserConfig{MaxInputBytes: 1 << 20},
		Identity: config.IdentityConfig{Header: "X-User-ID"},
	}
	db, err := database.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.NewTranscriptRepository(db, nil).EnsureSchema(context.Background()))

	return newRouter(cfg, zap.NewNop(), db, nil)
}

func do(t *testing.T, h http.Handler, method, target, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("X-User-ID", "student-42")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouterParseSaveAndExport(t *testing.T) {
	r := newTestRouter(t)

	text := "Plan: Computer Science BS\nSP2024\n" +
		"CSC 215 INTERMED COMPUTER PROGRAMMING 4.00 4.00 A 16.00\n" +
		"CSC 220 DATA STRUCTURES 3.00 3.00 B 9.00\n"
	w := do(t, r, http.MethodPost, "/api/v1/transcripts/parse", text, "text/plain")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var parsed struct {
		Data struct {
			Transcript models.Transcript `json:"transcript"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	assert.Equal(t, 3.57, parsed.Data.Transcript.Cumulative.OverallGPA)

	w = do(t, r, http.MethodGet, "/api/v1/transcripts", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	payload, err := json.Marshal(parsed.Data.Transcript)
	require.NoError(t, err)
	w = do(t, r, http.MethodPost, "/api/v1/transcripts", string(payload), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/v1/transcripts/terms/SP2024/courses", `{"code":"MATH 101","name":"CALCULUS I","units":3,"earnedUnits":3,"grade":"B+"}`, "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/v1/transcripts", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stored struct {
		Data models.Transcript `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	require.Len(t, stored.Data.Terms, 1)
	assert.Len(t, stored.Data.Terms[0].Courses, 3)
	assert.InDelta(t, 34.9, stored.Data.Cumulative.TotalPoints, 0.001)

	w = do(t, r, http.MethodGet, "/api/v1/transcripts/export?format=xlsx", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "transcript-student-42.xlsx")

	w = do(t, r, http.MethodGet, "/api/v1/transcripts/export?format=doc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouterProbes(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)

	w = do(t, r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transcripts", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
