package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/transcript-api/internal/document"
	"github.com/noah-isme/transcript-api/internal/dto"
	"github.com/noah-isme/transcript-api/internal/models"
	"github.com/noah-isme/transcript-api/internal/transcript"
	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
	"github.com/noah-isme/transcript-api/pkg/logger"
)

type transcriptRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Transcript, error)
	Save(ctx context.Context, t *models.Transcript) error
}

// TranscriptServiceConfig tunes parsing and caching.
type TranscriptServiceConfig struct {
	MaxInputBytes      int64
	LineSplitThreshold int
	LineTolerance      float64
	DefaultDegree      string
	Institution        string
	CacheTTL           time.Duration
}

// TranscriptServiceParams groups constructor dependencies.
type TranscriptServiceParams struct {
	Repo      transcriptRepository
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    TranscriptServiceConfig
}

// TranscriptService parses uploaded transcripts and manages the stored
// transcript of each user.
type TranscriptService struct {
	repo      transcriptRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	extractor *transcript.Extractor
	exporters map[string]Exporter
	cfg       TranscriptServiceConfig
}

// ParseRequest carries one uploaded document.
type ParseRequest struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewTranscriptService constructs the service. Repo may be nil for parse-only
// use such as the CLIs.
func NewTranscriptService(params TranscriptServiceParams) *TranscriptService {
	cfg := params.Config
	if cfg.LineSplitThreshold == 0 {
		cfg.LineSplitThreshold = transcript.DefaultLineSplitThreshold
	}
	if cfg.LineTolerance <= 0 {
		cfg.LineTolerance = document.DefaultLineTolerance
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	log := params.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &TranscriptService{
		repo:      params.Repo,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: validate,
		logger:    log,
		extractor: transcript.NewExtractor(transcript.WithLineSplitThreshold(cfg.LineSplitThreshold)),
		exporters: DefaultExporters(),
		cfg:       cfg,
	}
}

// Parse turns an uploaded document into an aggregated transcript. Documents
// without any recognisable term are a successful, empty result.
func (s *TranscriptService) Parse(ctx context.Context, req ParseRequest) (*dto.ParseResult, error) {
	start := time.Now()
	if len(req.Data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document is empty")
	}
	if s.cfg.MaxInputBytes > 0 && int64(len(req.Data)) > s.cfg.MaxInputBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("document exceeds %d bytes", s.cfg.MaxInputBytes))
	}

	kind := document.Detect(req.Filename, req.ContentType, req.Data)
	source := string(kind)
	log := logger.WithContext(ctx, s.logger).With(zap.String("source", source))

	key := s.parseCacheKey(kind, req.Data)
	var cached dto.ParseResult
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		cached.CacheHit = true
		s.metrics.ObserveParse(source, OutcomeCached, time.Since(start), 0, false, 0)
		log.Debug("transcript parse served from cache")
		return &cached, nil
	}

	result, err := s.parse(ctx, kind, req.Data)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveParse(source, OutcomeError, elapsed, 0, false, 0)
		log.Warn("transcript parse failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return nil, mapTranscriptError(err)
	}

	courses := countCourses(result.Transcript)
	outcome := OutcomeSuccess
	if result.Empty {
		outcome = OutcomeEmpty
	}
	s.metrics.ObserveParse(source, outcome, elapsed, courses, result.Fallback, len(result.Discrepancies))
	if len(result.Discrepancies) > 0 {
		first := result.Discrepancies[0]
		log.Warn("printed points differ from derived points",
			zap.Int("count", len(result.Discrepancies)),
			zap.String("term", first.TermCode),
			zap.String("course", first.Code),
			zap.Float64("printed", first.Stored),
			zap.Float64("derived", first.Derived),
		)
	}
	log.Info("transcript parsed",
		zap.Int("terms", len(result.Transcript.Terms)),
		zap.Int("courses", courses),
		zap.Bool("fallback", result.Fallback),
		zap.Duration("elapsed", elapsed),
	)

	_ = s.cache.Set(ctx, key, result, s.cfg.CacheTTL)
	return result, nil
}

func (s *TranscriptService) parse(ctx context.Context, kind document.Kind, data []byte) (*dto.ParseResult, error) {
	result := &dto.ParseResult{Source: string(kind)}
	var parsed models.Transcript

	if kind == document.KindJSON {
		decoded, err := transcript.DecodeJSON(data)
		if err != nil {
			return nil, err
		}
		parsed = transcript.StripIdentifiers(decoded)
		parsed.UserID = ""
	} else {
		flat, err := document.Flatten(ctx, kind, data, document.Options{LineTolerance: s.cfg.LineTolerance})
		if err != nil {
			return nil, err
		}
		extraction := s.extractor.Extract(flat.Text)
		parsed = extraction.Transcript
		result.Pages = flat.Pages
		result.Lines = extraction.Lines
		result.Fallback = extraction.Fallback
	}

	if strings.TrimSpace(parsed.StudentInfo.Degree) == "" {
		parsed.StudentInfo.Degree = s.cfg.DefaultDegree
	}
	if strings.TrimSpace(parsed.StudentInfo.Institution) == "" {
		parsed.StudentInfo.Institution = s.cfg.Institution
	}

	parsed = transcript.Sanitize(parsed)
	result.Discrepancies = transcript.Discrepancies(parsed)
	result.Transcript = transcript.Aggregate(parsed)
	result.Empty = len(result.Transcript.Terms) == 0
	return result, nil
}

// parseCacheKey digests the payload together with the settings that shape the
// result.
func (s *TranscriptService) parseCacheKey(kind document.Kind, data []byte) string {
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("transcript:parse:%s:%d:%s:%s", kind, s.cfg.LineSplitThreshold,
		strconv.FormatFloat(s.cfg.LineTolerance, 'f', -1, 64), hex.EncodeToString(sum[:]))
}

func userCacheKey(userID string) string {
	return "transcript:user:" + userID
}

// Get returns the stored transcript of userID, re-sorted and re-aggregated.
// A user without a transcript yields nil, nil.
func (s *TranscriptService) Get(ctx context.Context, userID string) (*models.Transcript, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	var cached models.Transcript
	if hit, _ := s.cache.Get(ctx, userCacheKey(userID), &cached); hit {
		return &cached, nil
	}

	t, err := s.load(ctx, userID)
	if err != nil || t == nil {
		return t, err
	}
	_ = s.cache.Set(ctx, userCacheKey(userID), t, s.cfg.CacheTTL)
	return t, nil
}

func (s *TranscriptService) load(ctx context.Context, userID string) (*models.Transcript, error) {
	if s.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transcript storage is not configured")
	}
	stored, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript")
	}
	if stored == nil {
		return nil, nil
	}
	out := transcript.Aggregate(*stored)
	return &out, nil
}

// Save validates, bounds and aggregates t and persists it as the transcript of
// userID, replacing any previous one. The stored transcript is returned.
func (s *TranscriptService) Save(ctx context.Context, userID string, t models.Transcript) (*models.Transcript, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(t); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transcript payload")
	}
	if t.Terms == nil {
		t.Terms = []models.Term{}
	}

	prepared := transcript.Sanitize(transcript.StripIdentifiers(t))
	if code, dup := duplicateTermCode(prepared.Terms); dup {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("term %s appears more than once", code))
	}
	prepared.UserID = userID
	prepared = transcript.Aggregate(prepared)

	return s.persist(ctx, userID, prepared)
}

// SaveJSON decodes a transcript document leniently and saves it for userID.
func (s *TranscriptService) SaveJSON(ctx context.Context, userID string, data []byte) (*models.Transcript, error) {
	t, err := transcript.DecodeJSON(data)
	if err != nil {
		return nil, mapTranscriptError(err)
	}
	return s.Save(ctx, userID, t)
}

func (s *TranscriptService) persist(ctx context.Context, userID string, t models.Transcript) (*models.Transcript, error) {
	if s.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transcript storage is not configured")
	}
	if err := s.repo.Save(ctx, &t); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save transcript")
	}
	_ = s.cache.Delete(ctx, userCacheKey(userID))

	logger.WithContext(ctx, s.logger).Info("transcript saved",
		zap.String("user_id", userID),
		zap.Int("terms", len(t.Terms)),
		zap.Int("courses", countCourses(t)),
		zap.Float64("overall_gpa", t.Cumulative.OverallGPA),
	)

	stored, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return &t, nil
	}
	return stored, nil
}

// AddTerm appends a term to the stored transcript of userID.
func (s *TranscriptService) AddTerm(ctx context.Context, userID string, term models.Term) (*models.Transcript, error) {
	return s.edit(ctx, userID, func(t models.Transcript) (models.Transcript, error) {
		return transcript.AddTerm(t, term)
	})
}

// RemoveTerm deletes a term from the stored transcript of userID.
func (s *TranscriptService) RemoveTerm(ctx context.Context, userID, termCode string) (*models.Transcript, error) {
	return s.edit(ctx, userID, func(t models.Transcript) (models.Transcript, error) {
		return transcript.RemoveTerm(t, termCode)
	})
}

// AddCourse appends a course to a term of the stored transcript of userID.
func (s *TranscriptService) AddCourse(ctx context.Context, userID, termCode string, course models.Course) (*models.Transcript, error) {
	if err := s.validator.Struct(course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	return s.edit(ctx, userID, func(t models.Transcript) (models.Transcript, error) {
		return transcript.AddCourse(t, termCode, course)
	})
}

// UpdateCourse replaces the course at index within a term.
func (s *TranscriptService) UpdateCourse(ctx context.Context, userID, termCode string, index int, course models.Course) (*models.Transcript, error) {
	if err := s.validator.Struct(course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	return s.edit(ctx, userID, func(t models.Transcript) (models.Transcript, error) {
		return transcript.UpdateCourse(t, termCode, index, course)
	})
}

// RemoveCourse deletes the course at index within a term.
func (s *TranscriptService) RemoveCourse(ctx context.Context, userID, termCode string, index int) (*models.Transcript, error) {
	return s.edit(ctx, userID, func(t models.Transcript) (models.Transcript, error) {
		return transcript.RemoveCourse(t, termCode, index)
	})
}

func (s *TranscriptService) edit(ctx context.Context, userID string, apply func(models.Transcript) (models.Transcript, error)) (*models.Transcript, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = &models.Transcript{UserID: userID, Terms: []models.Term{}}
	}
	edited, err := apply(*current)
	if err != nil {
		return nil, mapTranscriptError(err)
	}
	edited = transcript.Aggregate(transcript.Sanitize(transcript.StripIdentifiers(edited)))
	edited.UserID = userID
	return s.persist(ctx, userID, edited)
}

// Insights computes dashboard analytics for the stored transcript of userID.
func (s *TranscriptService) Insights(ctx context.Context, userID string) (*dto.TranscriptInsights, error) {
	t, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "transcript not found")
	}
	return BuildInsights(*t), nil
}

// BuildInsights computes the analytics of an aggregated transcript.
func BuildInsights(t models.Transcript) *dto.TranscriptInsights {
	return &dto.TranscriptInsights{
		Summary:           transcript.Summarize(t),
		Subjects:          transcript.SubjectPerformance(t),
		GradeDistribution: transcript.GradeDistribution(t),
		Trend:             transcript.Trend(t),
	}
}

// Export renders the stored transcript of userID in the requested format.
func (s *TranscriptService) Export(ctx context.Context, userID string, req dto.ExportRequest) (*dto.ExportFile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv, pdf or xlsx")
	}
	t, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "transcript not found")
	}
	return RenderExport(s.exporters, *t, req.Format, "transcript-"+safeFilePart(userID))
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing user identity")
	}
	return nil
}

func duplicateTermCode(terms []models.Term) (string, bool) {
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, ok := seen[term.TermCode]; ok {
			return term.TermCode, true
		}
		seen[term.TermCode] = struct{}{}
	}
	return "", false
}

func countCourses(t models.Transcript) int {
	n := 0
	for _, term := range t.Terms {
		n += len(term.Courses)
	}
	return n
}

func safeFilePart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// mapTranscriptError translates core and document errors to API errors.
func mapTranscriptError(err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, document.ErrUndecodable):
		return appErrors.Wrap(err, appErrors.ErrUndecodable.Code, appErrors.ErrUndecodable.Status, appErrors.ErrUndecodable.Message)
	case errors.Is(err, transcript.ErrMissingTerms):
		return appErrors.Wrap(err, appErrors.ErrInvalidTranscript.Code, appErrors.ErrInvalidTranscript.Status, appErrors.ErrInvalidTranscript.Message)
	case errors.Is(err, transcript.ErrMalformedJSON):
		return appErrors.Wrap(err, appErrors.ErrInvalidTranscript.Code, appErrors.ErrInvalidTranscript.Status, "malformed transcript json")
	case errors.Is(err, document.ErrNotFlattenable):
		return appErrors.Wrap(err, appErrors.ErrUnsupportedMedia.Code, appErrors.ErrUnsupportedMedia.Status, appErrors.ErrUnsupportedMedia.Message)
	case errors.Is(err, transcript.ErrTermNotFound), errors.Is(err, transcript.ErrCourseNotFound):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, err.Error())
	case errors.Is(err, transcript.ErrDuplicateTerm), errors.Is(err, transcript.ErrInvalidTermCode):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
}
