package document

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name        string
		filename    string
		contentType string
		data        string
		want        Kind
	}{
		{"pdf magic beats content type", "a.txt", "text/plain", "%PDF-1.4 ...", KindPDF},
		{"content type", "upload", "application/json; charset=utf-8", "[]", KindJSON},
		{"html content type", "", "text/html", "hello", KindHTML},
		{"extension", "transcript.HTM", "application/octet-stream", "hello", KindHTML},
		{"sniff json", "", "", "  {\"terms\": []}", KindJSON},
		{"sniff html", "", "", "<!DOCTYPE html><html><body></body></html>", KindHTML},
		{"sniff table", "", "", "<table><tr><td>SP2024</td></tr></table>", KindHTML},
		{"fallback text", "", "", "SP2024\nCSC 215 ...", KindText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect(tc.filename, tc.contentType, []byte(tc.data)))
		})
	}
}

func TestDecodeText(t *testing.T) {
	text, err := DecodeText(append([]byte{0xEF, 0xBB, 0xBF}, []byte("SP2024")...))
	require.NoError(t, err)
	assert.Equal(t, "SP2024", text)

	utf16 := []byte{0xFF, 0xFE, 'S', 0, 'P', 0, '2', 0, '0', 0, '2', 0, '4', 0}
	text, err = DecodeText(utf16)
	require.NoError(t, err)
	assert.Equal(t, "SP2024", text)

	_, err = DecodeText([]byte{0xC3, 0x28, 0xA0})
	assert.ErrorIs(t, err, ErrUndecodable)

	_, err = DecodeText([]byte("abc\x00def"))
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestReconstructLines(t *testing.T) {
	runs := []TextRun{
		{X: 10, Y: 700, S: "S"}, {X: 10, Y: 700, S: "P"}, {X: 10, Y: 700, S: "2024"},
		{X: 10, Y: 686, W: 20, FontSize: 10, S: "CSC"},
		{X: 31, Y: 686.5, W: 15, FontSize: 10, S: "215"},
		{X: 60, Y: 686, W: 40, FontSize: 10, S: "INTRO"},
		{X: 10, Y: 672, W: 0, FontSize: 10, S: "   "},
	}

	assert.Equal(t, "SP2024\nCSC215 INTRO", ReconstructLines(runs, 5))
	assert.Equal(t, "SP2024CSC215 INTRO", ReconstructLines(runs, 20))
	assert.Empty(t, ReconstructLines(nil, 5))
}

func TestFlattenHTML(t *testing.T) {
	page := `<html><head><title>ignored</title><style>td{}</style></head><body>
		<h1>Unofficial Transcript</h1>
		<p>Plan: <b>Computer Science</b> BS</p>
		<table>
			<tr><th>Session</th><th>Course</th><th>Description</th></tr>
			<tr><td colspan="3">SP2024</td></tr>
			<tr><td>CSC 215</td><td>INTERMED COMPUTER   PROGRAMMING</td><td>4.00</td><td>4.00</td><td>A</td><td>16.00</td></tr>
		</table>
		<div>Page 1<br>of 1</div>
	</body></html>`

	text, err := FlattenHTML([]byte(page))
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"Unofficial Transcript",
		"Plan: Computer Science BS",
		"Session Course Description",
		"SP2024",
		"CSC 215 INTERMED COMPUTER PROGRAMMING 4.00 4.00 A 16.00",
		"Page 1",
		"of 1",
	}, "\n"), text)
}

func renderPDF(t *testing.T, pages ...[]string) []byte {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 10)
	for _, lines := range pages {
		doc.AddPage()
		for _, line := range lines {
			doc.Cell(0, 6, line)
			doc.Ln(6)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func TestFlattenPDF(t *testing.T) {
	data := renderPDF(t,
		[]string{"SP2024", "CSC 215 INTERMED COMPUTER PROGRAMMING 4.00 4.00 A 16.00"},
		[]string{"FA2024", "MATH 101 CALCULUS I 3.00 3.00 B+ 9.90"},
	)
	require.Equal(t, KindPDF, Detect("upload.bin", "", data))

	result, err := Flatten(context.Background(), KindPDF, data, Options{LineTolerance: DefaultLineTolerance})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pages)
	lines := strings.Split(result.Text, "\n")
	assert.Contains(t, lines, "SP2024")
	assert.Contains(t, lines, "CSC 215 INTERMED COMPUTER PROGRAMMING 4.00 4.00 A 16.00")
	assert.Contains(t, lines, "MATH 101 CALCULUS I 3.00 3.00 B+ 9.90")
	assert.Less(t, strings.Index(result.Text, "SP2024"), strings.Index(result.Text, "FA2024"))
}

func TestFlattenRejectsBrokenInput(t *testing.T) {
	_, err := Flatten(context.Background(), KindPDF, []byte("%PDF-1.4 garbage"), Options{})
	assert.ErrorIs(t, err, ErrUndecodable)

	_, err = Flatten(context.Background(), KindText, []byte{0xFF, 0x00, 0xC3}, Options{})
	assert.ErrorIs(t, err, ErrUndecodable)

	_, err = Flatten(context.Background(), KindJSON, []byte(`{}`), Options{})
	assert.ErrorIs(t, err, ErrNotFlattenable)
}
