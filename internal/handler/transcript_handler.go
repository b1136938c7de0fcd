package handler

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/transcript-api/internal/dto"
	"github.com/noah-isme/transcript-api/internal/middleware"
	"github.com/noah-isme/transcript-api/internal/models"
	"github.com/noah-isme/transcript-api/internal/service"
	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
	"github.com/noah-isme/transcript-api/pkg/response"
)

type transcriptService interface {
	Parse(ctx context.Context, req service.ParseRequest) (*dto.ParseResult, error)
	Get(ctx context.Context, userID string) (*models.Transcript, error)
	SaveJSON(ctx context.Context, userID string, data []byte) (*models.Transcript, error)
	Insights(ctx context.Context, userID string) (*dto.TranscriptInsights, error)
	Export(ctx context.Context, userID string, req dto.ExportRequest) (*dto.ExportFile, error)
	AddTerm(ctx context.Context, userID string, term models.Term) (*models.Transcript, error)
	RemoveTerm(ctx context.Context, userID, termCode string) (*models.Transcript, error)
	AddCourse(ctx context.Context, userID, termCode string, course models.Course) (*models.Transcript, error)
	UpdateCourse(ctx context.Context, userID, termCode string, index int, course models.Course) (*models.Transcript, error)
	RemoveCourse(ctx context.Context, userID, termCode string, index int) (*models.Transcript, error)
}

// TranscriptHandler exposes transcript parsing and storage endpoints.
type TranscriptHandler struct {
	service  transcriptService
	maxBytes int64
}

// NewTranscriptHandler builds a new handler. maxBytes bounds request bodies;
// zero disables the bound.
func NewTranscriptHandler(service transcriptService, maxBytes int64) *TranscriptHandler {
	return &TranscriptHandler{service: service, maxBytes: maxBytes}
}

// Parse godoc
// @Summary Parse a transcript document
// @Description Accepts a PDF, HTML, plain text or JSON transcript as multipart field "file" or as the raw body.
// @Tags Transcripts
// @Accept multipart/form-data,application/pdf,text/plain,text/html,application/json
// @Produce json
// @Param file formData file false "Transcript document"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /transcripts/parse [post]
func (h *TranscriptHandler) Parse(c *gin.Context) {
	req, err := h.readDocument(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Parse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.CacheHit)
	middleware.SetSource(c, result.Source)
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

func (h *TranscriptHandler) readDocument(c *gin.Context) (service.ParseRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if mediaType == "multipart/form-data" {
		header, err := c.FormFile("file")
		if err != nil {
			return service.ParseRequest{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "multipart field \"file\" is required")
		}
		if h.maxBytes > 0 && header.Size > h.maxBytes {
			return service.ParseRequest{}, appErrors.ErrPayloadTooLarge
		}
		file, err := header.Open()
		if err != nil {
			return service.ParseRequest{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read uploaded file")
		}
		defer file.Close() //nolint:errcheck
		data, err := h.readLimited(file)
		if err != nil {
			return service.ParseRequest{}, err
		}
		return service.ParseRequest{Filename: header.Filename, ContentType: header.Header.Get("Content-Type"), Data: data}, nil
	}

	data, err := h.readLimited(c.Request.Body)
	if err != nil {
		return service.ParseRequest{}, err
	}
	return service.ParseRequest{Filename: c.Query("filename"), ContentType: mediaType, Data: data}, nil
}

func (h *TranscriptHandler) readLimited(r io.Reader) ([]byte, error) {
	if h.maxBytes > 0 {
		r = io.LimitReader(r, h.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read request body")
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		return nil, appErrors.ErrPayloadTooLarge
	}
	return data, nil
}

// Get godoc
// @Summary Get the caller's transcript
// @Tags Transcripts
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /transcripts [get]
func (h *TranscriptHandler) Get(c *gin.Context) {
	t, err := h.service.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if t == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "transcript not found"))
		return
	}
	response.JSON(c, http.StatusOK, t)
}

// Save godoc
// @Summary Save the caller's transcript
// @Description Replaces the stored transcript. Aggregates in the payload are ignored and recomputed.
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param payload body models.Transcript true "Transcript"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /transcripts [post]
// @Router /transcripts [put]
func (h *TranscriptHandler) Save(c *gin.Context) {
	data, err := h.readLimited(c.Request.Body)
	if err != nil {
		response.Error(c, err)
		return
	}
	t, err := h.service.SaveJSON(c.Request.Context(), middleware.UserID(c), data)
	if err != nil {
		response.Error(c, err)
		return
	}
	if c.Request.Method == http.MethodPost {
		response.Created(c, t)
		return
	}
	response.JSON(c, http.StatusOK, t)
}

// Insights godoc
// @Summary Transcript analytics
// @Tags Transcripts
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /transcripts/insights [get]
func (h *TranscriptHandler) Insights(c *gin.Context) {
	insights, err := h.service.Insights(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, insights)
}

// Export godoc
// @Summary Export the caller's transcript
// @Tags Transcripts
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv, pdf or xlsx" Enums(csv, pdf, xlsx)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /transcripts/export [get]
func (h *TranscriptHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// AddTerm godoc
// @Summary Add a term
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param payload body models.Term true "Term"
// @Success 201 {object} response.Envelope
// @Router /transcripts/terms [post]
func (h *TranscriptHandler) AddTerm(c *gin.Context) {
	var term models.Term
	if err := c.ShouldBindJSON(&term); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid term payload"))
		return
	}
	t, err := h.service.AddTerm(c.Request.Context(), middleware.UserID(c), term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, t)
}

// RemoveTerm godoc
// @Summary Remove a term
// @Tags Transcripts
// @Produce json
// @Param termCode path string true "Term code, e.g. SP2024"
// @Success 200 {object} response.Envelope
// @Router /transcripts/terms/{termCode} [delete]
func (h *TranscriptHandler) RemoveTerm(c *gin.Context) {
	t, err := h.service.RemoveTerm(c.Request.Context(), middleware.UserID(c), c.Param("termCode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, t)
}

// AddCourse godoc
// @Summary Add a course to a term
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param termCode path string true "Term code"
// @Param payload body models.Course true "Course"
// @Success 201 {object} response.Envelope
// @Router /transcripts/terms/{termCode}/courses [post]
func (h *TranscriptHandler) AddCourse(c *gin.Context) {
	var course models.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	t, err := h.service.AddCourse(c.Request.Context(), middleware.UserID(c), c.Param("termCode"), course)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, t)
}

// UpdateCourse godoc
// @Summary Replace a course
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param termCode path string true "Term code"
// @Param index path int true "Course index within the term"
// @Param payload body models.Course true "Course"
// @Success 200 {object} response.Envelope
// @Router /transcripts/terms/{termCode}/courses/{index} [put]
func (h *TranscriptHandler) UpdateCourse(c *gin.Context) {
	index, ok := courseIndex(c)
	if !ok {
		return
	}
	var course models.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	t, err := h.service.UpdateCourse(c.Request.Context(), middleware.UserID(c), c.Param("termCode"), index, course)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, t)
}

// RemoveCourse godoc
// @Summary Remove a course
// @Tags Transcripts
// @Produce json
// @Param termCode path string true "Term code"
// @Param index path int true "Course index within the term"
// @Success 200 {object} response.Envelope
// @Router /transcripts/terms/{termCode}/courses/{index} [delete]
func (h *TranscriptHandler) RemoveCourse(c *gin.Context) {
	index, ok := courseIndex(c)
	if !ok {
		return
	}
	t, err := h.service.RemoveCourse(c.Request.Context(), middleware.UserID(c), c.Param("termCode"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, t)
}

func courseIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(strings.TrimSpace(c.Param("index")))
	if err != nil || index < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "course index must be a non-negative integer"))
		return 0, false
	}
	return index, true
}
