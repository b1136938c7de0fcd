package transcript

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/transcript-api/internal/models"
)

// Season is an academic session within a year. Its value is the rank used by
// the chronological ordering.
type Season int

const (
	SeasonUnknown Season = iota
	Spring
	Summer
	Fall
	Winter
)

var seasonNames = map[Season]string{
	Spring: "Spring",
	Summer: "Summer",
	Fall:   "Fall",
	Winter: "Winter",
}

var seasonCodes = map[string]Season{
	"SP": Spring,
	"SU": Summer,
	"FA": Fall,
	"WI": Winter,
}

// String returns the human season name.
func (s Season) String() string {
	if name, ok := seasonNames[s]; ok {
		return name
	}
	return "Unknown"
}

var (
	// termTokenPattern finds a season+year header token anywhere in a line.
	termTokenPattern = regexp.MustCompile(`(?i)(SP|FA|SU|WI)(\d{4})`)
	seasonPrefix     = regexp.MustCompile(`^(SPRING|SUMMER|FALL|WINTER|SP|SU|FA|WI)`)
	yearPattern      = regexp.MustCompile(`\d{4}`)
)

// ParseTermCode extracts season and year from a term code such as "SP2024",
// "fa2023" or "Winter 2025".
func ParseTermCode(code string) (Season, int, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	prefix := seasonPrefix.FindString(normalized)
	if prefix == "" {
		return SeasonUnknown, 0, false
	}
	rawYear := yearPattern.FindString(normalized)
	if rawYear == "" {
		return SeasonUnknown, 0, false
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return SeasonUnknown, 0, false
	}
	return seasonCodes[prefix[:2]], year, true
}

// TermSortKey returns year*10 + season rank, or 0 when code does not parse.
func TermSortKey(code string) int {
	season, year, ok := ParseTermCode(code)
	if !ok {
		return 0
	}
	return year*10 + int(season)
}

// TermName derives the human label for a term code ("SP2024" -> "Spring 2024").
// Codes that do not parse are returned unchanged.
func TermName(code string) string {
	if m := termTokenPattern.FindStringSubmatch(code); m != nil {
		return fmt.Sprintf("%s %s", seasonCodes[strings.ToUpper(m[1])], m[2])
	}
	season, year, ok := ParseTermCode(code)
	if !ok {
		return code
	}
	return fmt.Sprintf("%s %d", season, year)
}

// SortTermsChronologically returns a copy of terms ordered by TermSortKey.
// Ties, including every unparseable code, keep their original order.
func SortTermsChronologically(terms []models.Term) []models.Term {
	if terms == nil {
		return nil
	}
	sorted := append([]models.Term(nil), terms...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return TermSortKey(sorted[i].TermCode) < TermSortKey(sorted[j].TermCode)
	})
	return sorted
}

// findTermToken returns the upper-cased season+year token in line and the
// text following it.
func findTermToken(line string) (code, rest string, ok bool) {
	loc := termTokenPattern.FindStringIndex(line)
	if loc == nil {
		return "", "", false
	}
	return strings.ToUpper(line[loc[0]:loc[1]]), line[loc[1]:], true
}
