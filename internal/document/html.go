package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "caption": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tbody": true, "thead": true, "tfoot": true,
	"ul": true, "body": true, "html": true,
}

var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true, "template": true, "#comment": true,
}

// FlattenHTML renders an HTML transcript export as lines: one line per table
// row with its cells separated by spaces, and one line per block of text
// outside tables.
func FlattenHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", ErrUndecodable, err)
	}
	f := &htmlFlattener{}
	f.walk(doc.Selection)
	f.flush()
	return strings.Join(f.lines, "\n"), nil
}

type htmlFlattener struct {
	lines   []string
	current strings.Builder
}

func (f *htmlFlattener) walk(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		name := goquery.NodeName(node)
		switch {
		case skippedElements[name]:
		case name == "#text":
			f.current.WriteString(node.Text())
		case name == "br":
			f.flush()
		case name == "tr":
			f.flush()
			f.row(node)
		case blockElements[name]:
			f.flush()
			f.walk(node)
			f.flush()
		default:
			f.walk(node)
		}
	})
}

func (f *htmlFlattener) row(tr *goquery.Selection) {
	var cells []string
	tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
		if text := collapse(cell.Text()); text != "" {
			cells = append(cells, text)
		}
	})
	if len(cells) > 0 {
		f.lines = append(f.lines, strings.Join(cells, " "))
	}
}

func (f *htmlFlattener) flush() {
	if text := collapse(f.current.String()); text != "" {
		f.lines = append(f.lines, text)
	}
	f.current.Reset()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
