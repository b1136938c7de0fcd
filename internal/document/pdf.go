package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

// DefaultLineTolerance is the vertical distance, in PDF units, beyond which two
// text runs belong to different lines.
const DefaultLineTolerance = 5.0

// maxPageWorkers bounds concurrent page decoding.
const maxPageWorkers = 4

var errEmptyPDF = errors.New("pdf content is empty")

// TextRun is one positioned piece of text as drawn on a page.
type TextRun struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// FlattenPDF extracts the text of every page and rebuilds its lines from run
// positions. Pages are decoded concurrently and joined in page order.
func FlattenPDF(ctx context.Context, data []byte, tolerance float64) (string, int, error) {
	if len(data) == 0 {
		return "", 0, fmt.Errorf("%w: %v", ErrUndecodable, errEmptyPDF)
	}
	doc, err := openPDF(data)
	if err != nil {
		return "", 0, err
	}
	pages := doc.NumPage()

	texts := make([]string, pages)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPageWorkers)
	for i := 1; i <= pages; i++ {
		num := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			runs, err := pageRuns(data, num)
			if err != nil {
				return err
			}
			texts[num-1] = ReconstructLines(runs, tolerance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", 0, err
	}
	return strings.Join(texts, "\n"), pages, nil
}

func openPDF(data []byte) (doc *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: open pdf: %v", ErrUndecodable, r)
		}
	}()
	doc, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", ErrUndecodable, err)
	}
	return doc, nil
}

// pageRuns reads the runs of one page through its own reader so pages can be
// decoded in parallel. The pdf package panics on some malformed content
// streams; that is reported as an undecodable page.
func pageRuns(data []byte, num int) (runs []TextRun, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: page %d: %v", ErrUndecodable, num, r)
		}
	}()

	doc, err := openPDF(data)
	if err != nil {
		return nil, err
	}
	page := doc.Page(num)
	if page.V.IsNull() {
		return nil, nil
	}
	content := page.Content()
	runs = make([]TextRun, 0, len(content.Text))
	for _, t := range content.Text {
		runs = append(runs, TextRun{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return runs, nil
}

// ReconstructLines joins runs in drawing order. A vertical jump larger than
// tolerance starts a new line. Within a line a space is inserted only when the
// previous run's width is known and the horizontal gap exceeds a fifth of the
// font size.
func ReconstructLines(runs []TextRun, tolerance float64) string {
	if tolerance <= 0 {
		tolerance = DefaultLineTolerance
	}
	var (
		out   strings.Builder
		line  strings.Builder
		prev  *TextRun
		lines []string
	)
	flush := func() {
		if text := strings.TrimSpace(line.String()); text != "" {
			lines = append(lines, text)
		}
		line.Reset()
	}

	for i := range runs {
		run := &runs[i]
		if prev != nil && math.Abs(run.Y-prev.Y) > tolerance {
			flush()
			prev = nil
		}
		if prev != nil && prev.W > 0 && needsSpace(prev, run, line.String()) {
			line.WriteByte(' ')
		}
		line.WriteString(run.S)
		prev = run
	}
	flush()

	for i, l := range lines {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(l)
	}
	return out.String()
}

func needsSpace(prev, run *TextRun, current string) bool {
	if strings.HasSuffix(current, " ") || strings.HasPrefix(run.S, " ") {
		return false
	}
	gap := run.X - (prev.X + prev.W)
	size := run.FontSize
	if size <= 0 {
		size = prev.FontSize
	}
	return gap > size/5
}
