package document

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFlattenable is returned for structured payloads that bypass text
// extraction.
var ErrNotFlattenable = errors.New("document kind is not flattened")

// Options tunes flattening.
type Options struct {
	// LineTolerance is the vertical tolerance used to rebuild PDF lines.
	LineTolerance float64
}

// Result is flattened, line-oriented text.
type Result struct {
	Kind  Kind
	Text  string
	Pages int
}

// Flatten turns a PDF, HTML or text payload into line-oriented text.
func Flatten(ctx context.Context, kind Kind, data []byte, opts Options) (*Result, error) {
	switch kind {
	case KindPDF:
		text, pages, err := FlattenPDF(ctx, data, opts.LineTolerance)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: kind, Text: text, Pages: pages}, nil
	case KindHTML:
		decoded, err := DecodeText(data)
		if err != nil {
			return nil, err
		}
		text, err := FlattenHTML([]byte(decoded))
		if err != nil {
			return nil, err
		}
		return &Result{Kind: kind, Text: text, Pages: 1}, nil
	case KindText:
		text, err := DecodeText(data)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: kind, Text: text, Pages: 1}, nil
	case KindJSON:
		return nil, ErrNotFlattenable
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrNotFlattenable, kind)
	}
}
