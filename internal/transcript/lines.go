package transcript

import "strings"

// DefaultLineSplitThreshold is the length above which a line carrying several
// course codes is treated as merged rows.
const DefaultLineSplitThreshold = 100

var lineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\u00a0", " ", "\t", " ")

// prepareLines normalises line endings, splits merged rows and drops blank
// lines.
func prepareLines(text string, threshold int) []string {
	raw := strings.Split(lineReplacer.Replace(text), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, splitLongLine(line, threshold)...)
	}
	return lines
}

// splitLongLine breaks a line longer than threshold at the start of every
// embedded course when it holds at least two course codes. Text before the
// first course, typically a term header, is kept as its own line.
func splitLongLine(line string, threshold int) []string {
	if threshold <= 0 || len(line) <= threshold {
		return []string{line}
	}
	if len(courseCodePattern.FindAllStringIndex(line, 2)) < 2 {
		return []string{line}
	}
	matches := scanCourses(line)
	if len(matches) == 0 {
		return []string{line}
	}

	parts := make([]string, 0, len(matches)+1)
	if prefix := strings.TrimSpace(line[:matches[0][0]]); prefix != "" {
		parts = append(parts, prefix)
	}
	for i, loc := range matches {
		end := len(line)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		if part := strings.TrimSpace(line[loc[0]:end]); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
