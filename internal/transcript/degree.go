package transcript

import (
	"regexp"
	"strings"
)

// degreePattern finds the first "Plan:", "Major:" or "Degree:" label. The
// value ends at the end of its line or before an inline "Session:" label.
var degreePattern = regexp.MustCompile(`(?im)\b(?:Plan|Major|Degree)[ \t]*:[ \t]*(.+?)(?:[ \t]+Session:|[ \t]*$)`)

// ExtractDegree returns the first non-empty degree label value in text,
// truncated to MaxDegreeLength, or "" when the document carries none.
func ExtractDegree(text string) string {
	for _, m := range degreePattern.FindAllStringSubmatch(text, -1) {
		if value := strings.TrimSpace(m[1]); value != "" {
			return Truncate(value, MaxDegreeLength)
		}
	}
	return ""
}
