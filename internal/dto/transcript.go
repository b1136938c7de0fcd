package dto

import (
	"time"

	"github.com/noah-isme/transcript-api/internal/models"
	"github.com/noah-isme/transcript-api/internal/transcript"
)

// ParseResult is returned by the parse endpoint and the CLIs.
type ParseResult struct {
	Transcript    models.Transcript        `json:"transcript"`
	Source        string                   `json:"source"`
	Pages         int                      `json:"pages,omitempty"`
	Lines         int                      `json:"lines,omitempty"`
	Fallback      bool                     `json:"fallback"`
	Discrepancies []transcript.Discrepancy `json:"discrepancies,omitempty"`
	CacheHit      bool                     `json:"cacheHit"`
	Empty         bool                     `json:"empty"`
}

// TranscriptInsights bundles the dashboard analytics of a stored transcript.
type TranscriptInsights struct {
	Summary           transcript.Summary       `json:"summary"`
	Subjects          transcript.SubjectReport `json:"subjects"`
	GradeDistribution map[string]int           `json:"gradeDistribution"`
	Trend             []transcript.TrendPoint  `json:"trend"`
}

// ExportRequest selects the rendered format of an export.
type ExportRequest struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// MetricsSnapshot is a lightweight summary of process metrics.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	ParsesTotal              uint64    `json:"parsesTotal"`
	ParseFailures            uint64    `json:"parseFailures"`
	AverageParseDurationMs   float64   `json:"averageParseDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
