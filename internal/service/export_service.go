package service

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/transcript-api/internal/dto"
	"github.com/noah-isme/transcript-api/internal/models"
	"github.com/noah-isme/transcript-api/internal/transcript"
	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
	"github.com/noah-isme/transcript-api/pkg/export"
	"github.com/noah-isme/transcript-api/pkg/logger"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// Exporter renders a dataset into one file format.
type Exporter interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// DefaultExporters returns the CSV, PDF and XLSX exporters keyed by format.
func DefaultExporters() map[string]Exporter {
	return map[string]Exporter{
		FormatCSV:  export.NewCSVExporter(),
		FormatPDF:  export.NewPDFExporter(),
		FormatXLSX: export.NewXLSXExporter(),
	}
}

var datasetHeaders = []string{"Term", "Code", "Name", "Units", "Earned", "Grade", "Points"}

// TranscriptDataset flattens an aggregated transcript into one row per course.
// Terms without courses contribute a single planned row. Term GPAs and the
// cumulative block follow as summary lines.
func TranscriptDataset(t models.Transcript) export.Dataset {
	title := "Transcript"
	if degree := strings.TrimSpace(t.StudentInfo.Degree); degree != "" {
		title += " - " + degree
	}
	data := export.Dataset{Title: title, Headers: datasetHeaders, Rows: []map[string]string{}}

	for _, term := range t.Terms {
		name := term.TermName
		if name == "" {
			name = term.TermCode
		}
		if len(term.Courses) == 0 {
			data.Rows = append(data.Rows, map[string]string{
				"Term":  name,
				"Name":  "Planned",
				"Units": num(term.Credits),
			})
			continue
		}
		for _, c := range term.Courses {
			data.Rows = append(data.Rows, map[string]string{
				"Term":   name,
				"Code":   c.Code,
				"Name":   c.Name,
				"Units":  num(c.Units),
				"Earned": num(c.EarnedUnits),
				"Grade":  c.Grade,
				"Points": num(c.Points),
			})
		}
		data.Summary = append(data.Summary, export.SummaryLine{
			Label: name + " GPA",
			Value: num(term.TermGPA),
		})
	}

	cum := t.Cumulative
	data.Summary = append(data.Summary,
		export.SummaryLine{Label: "Overall GPA", Value: num(cum.OverallGPA)},
		export.SummaryLine{Label: "Total Credits", Value: num(cum.TotalCredits)},
		export.SummaryLine{Label: "Earned Credits", Value: num(cum.TotalEarnedCredits)},
		export.SummaryLine{Label: "Total Points", Value: num(cum.TotalPoints)},
		export.SummaryLine{Label: "Planned Credits", Value: num(cum.TotalPlannedCredits)},
	)
	return data
}

// RenderExport renders t with the exporter registered for format. An empty
// format means CSV.
func RenderExport(exporters map[string]Exporter, t models.Transcript, format, basename string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	exporter, ok := exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	body, err := exporter.Render(TranscriptDataset(t))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	if basename == "" {
		basename = "transcript"
	}
	return &dto.ExportFile{
		Filename:    basename + "." + exporter.Extension(),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}

func num(v float64) string {
	return strconv.FormatFloat(transcript.Round2(v), 'f', 2, 64)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
}

// ExportService renders transcripts and persists the files, for the CLIs.
type ExportService struct {
	storage   fileStorage
	exporters map[string]Exporter
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Nil exporters selects the
// defaults.
func NewExportService(storage fileStorage, exporters map[string]Exporter, log *zap.Logger) *ExportService {
	if log == nil {
		log = zap.NewNop()
	}
	if exporters == nil {
		exporters = DefaultExporters()
	}
	return &ExportService{storage: storage, exporters: exporters, logger: log}
}

// Store renders t in every requested format and saves each file as
// name.<ext>. It returns the stored relative paths.
func (s *ExportService) Store(ctx context.Context, name string, t models.Transcript, formats ...string) ([]string, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("export storage not configured")
	}
	base := strings.TrimSuffix(name, path.Ext(name))
	stored := make([]string, 0, len(formats))
	for _, format := range formats {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		file, err := RenderExport(s.exporters, t, format, base)
		if err != nil {
			return stored, err
		}
		rel, err := s.storage.Save(file.Filename, file.Body)
		if err != nil {
			return stored, err
		}
		logger.WithContext(ctx, s.logger).Debug("export stored", zap.String("path", rel), zap.Int("bytes", len(file.Body)))
		stored = append(stored, rel)
	}
	return stored, nil
}
