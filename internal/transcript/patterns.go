package transcript

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/noah-isme/transcript-api/internal/models"
)

// Capture layout shared by every course pattern:
// 1 code, 2 name, 3 units, 4 earned units, 5 grade, 6 printed points (optional).
const (
	groupCode = 1 + iota
	groupName
	groupUnits
	groupEarned
	groupGrade
	groupPoints
)

// CourseMatcher recognises one physical layout of a course line.
type CourseMatcher struct {
	Name    string
	pattern *regexp.Regexp
}

// NewCourseMatcher compiles a matcher. The expression must follow the shared
// capture layout.
func NewCourseMatcher(name, expr string) CourseMatcher {
	return CourseMatcher{Name: name, pattern: regexp.MustCompile(expr)}
}

// Match parses line into a course. Lines whose numbers do not parse or that
// carry no grade are rejected.
func (m CourseMatcher) Match(line string) (models.Course, bool) {
	groups := m.pattern.FindStringSubmatch(line)
	if groups == nil {
		return models.Course{}, false
	}
	return buildCourse(groups)
}

// DefaultMatchers is the priority order used by the extractor: spaced layouts
// before glued ones, printed points before none.
func DefaultMatchers() []CourseMatcher {
	return []CourseMatcher{
		// CSC 215 INTERMED COMPUTER PROGRAMMING 4.00 4.00 A 16.00
		NewCourseMatcher("spaced-with-points", `^([A-Z]{2,4}\s+\d{3})\s+([A-Z][A-Z\s\-0-9&]+?)\s+(\d+\.\d{2})\s+(\d+\.\d{2})\s+([A-Z+\-]+)\s+(\d+\.\d{2})$`),
		// CSC 215 INTERMED COMPUTER PROGRAMMING 4.00 4.00 A
		NewCourseMatcher("spaced", `^([A-Z]{2,4}\s+\d{3})\s+([A-Z][A-Z\s\-0-9&]+?)\s+(\d+\.\d{2})\s+(\d+\.\d{2})\s+([A-Z+\-]+)$`),
		// HIST  114WORLD HISTORY TO 15003.003.00A12.00
		NewCourseMatcher("glued-with-points", `^([A-Z]{2,4}\s+\d{3})([A-Z][A-Z\s\-0-9&]+)(\d+\.\d{2})(\d+\.\d{2})([A-Z+\-]+)(\d+\.\d{2})`),
		// HIST  114WORLD HISTORY TO 15003.003.00A
		NewCourseMatcher("glued", `^([A-Z]{2,4}\s+\d{3})([A-Z][A-Z\s\-0-9&]+)(\d+\.\d{2})(\d+\.\d{2})([A-Z+\-]+)`),
		// CSC 215 INTERMED COMPUTER PROGRAMMING4.004.00A16.00
		NewCourseMatcher("spaced-code-glued-numbers", `^([A-Z]{2,4}\s+\d{3})\s+([A-Z][A-Z\s\-0-9&]+)(\d+\.\d{2})(\d+\.\d{2})([A-Z+\-]+)(\d+\.\d{2})?`),
	}
}

// Unanchored variants used to find courses inside merged lines and, as a last
// resort, anywhere in the document.
var (
	spacedScanPattern = regexp.MustCompile(`([A-Z]{2,4}\s+\d{3})\s+([A-Z][A-Z\s\-0-9&]+?)\s+(\d+\.\d{2})\s+(\d+\.\d{2})\s+([A-Z+\-]+)(?:\s+(\d+\.\d{2}))?`)
	gluedScanPattern  = regexp.MustCompile(`([A-Z]{2,4}\s+\d{3})([A-Z][A-Z\s\-0-9&]+)(\d+\.\d{2})(\d+\.\d{2})([A-Z+\-]+)(\d+\.\d{2})?`)
	courseCodePattern = regexp.MustCompile(`[A-Z]{2,4}\s+\d{3}`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
)

// scanCourses returns submatch indices of every course in text, preferring the
// spaced layout and falling back to the glued one when it finds nothing.
func scanCourses(text string) [][]int {
	if matches := spacedScanPattern.FindAllStringSubmatchIndex(text, -1); len(matches) > 0 {
		return matches
	}
	return gluedScanPattern.FindAllStringSubmatchIndex(text, -1)
}

// submatches converts FindAllStringSubmatchIndex output into strings, mapping
// unmatched optional groups to "".
func submatches(text string, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return groups
}

func buildCourse(groups []string) (models.Course, bool) {
	if len(groups) <= groupGrade {
		return models.Course{}, false
	}
	units, ok := parseUnits(groups[groupUnits])
	if !ok {
		return models.Course{}, false
	}
	earned, ok := parseUnits(groups[groupEarned])
	if !ok {
		return models.Course{}, false
	}
	grade := strings.TrimSpace(groups[groupGrade])
	if grade == "" {
		return models.Course{}, false
	}

	points := PointsFor(grade, earned)
	if len(groups) > groupPoints && groups[groupPoints] != "" {
		if printed, ok := parseUnits(groups[groupPoints]); ok {
			points = printed
		}
	}

	return models.Course{
		Code:        collapseSpaces(groups[groupCode]),
		Name:        collapseSpaces(groups[groupName]),
		Units:       units,
		EarnedUnits: earned,
		Grade:       grade,
		Points:      points,
	}, true
}

func parseUnits(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return Round2(v), true
}

func collapseSpaces(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}
