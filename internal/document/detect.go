// Package document flattens uploaded transcripts (PDF, HTML, plain text) into
// line-oriented text for the extraction engine.
package document

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Kind identifies the format of an uploaded document.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindHTML Kind = "html"
	KindJSON Kind = "json"
	KindText Kind = "text"
)

var pdfMagic = []byte("%PDF-")

// sniffLen bounds how much of the payload is inspected for markup.
const sniffLen = 512

// Detect classifies a payload. The PDF signature always wins, then the declared
// content type, then the file extension, then content sniffing.
func Detect(filename, contentType string, data []byte) Kind {
	if bytes.HasPrefix(data, pdfMagic) {
		return KindPDF
	}
	if kind, ok := kindFromContentType(contentType); ok {
		return kind
	}
	if kind, ok := kindFromExtension(filename); ok {
		return kind
	}
	return sniff(data)
}

func kindFromContentType(contentType string) (Kind, bool) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch mediaType {
	case "application/pdf":
		return KindPDF, true
	case "text/html", "application/xhtml+xml":
		return KindHTML, true
	case "application/json", "text/json":
		return KindJSON, true
	case "text/plain":
		return KindText, true
	}
	return "", false
}

func kindFromExtension(filename string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF, true
	case ".html", ".htm", ".xhtml":
		return KindHTML, true
	case ".json":
		return KindJSON, true
	case ".txt", ".text":
		return KindText, true
	}
	return "", false
}

func sniff(data []byte) Kind {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	head = bytes.TrimLeft(bytes.TrimPrefix(head, utf8BOM), " \t\r\n")
	if len(head) > 0 && head[0] == '{' {
		return KindJSON
	}
	lower := bytes.ToLower(head)
	for _, marker := range [][]byte{[]byte("<!doctype html"), []byte("<html"), []byte("<table"), []byte("<body")} {
		if bytes.Contains(lower, marker) {
			return KindHTML
		}
	}
	return KindText
}

// Extensions lists the file extensions the batch tools pick up.
func Extensions() []string {
	return []string{".pdf", ".html", ".htm", ".json", ".txt"}
}
