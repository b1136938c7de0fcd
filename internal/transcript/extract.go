package transcript

import (
	"strings"

	"github.com/noah-isme/transcript-api/internal/models"
)

// Extractor turns flattened transcript text into terms and courses. It is
// best effort: lines it cannot read are skipped, never reported.
type Extractor struct {
	matchers       []CourseMatcher
	splitThreshold int
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithLineSplitThreshold overrides the merged-row split threshold. Zero or a
// negative value disables splitting.
func WithLineSplitThreshold(n int) Option {
	return func(e *Extractor) {
		e.splitThreshold = n
	}
}

// WithMatchers replaces the course matchers. They are tried in order.
func WithMatchers(matchers ...CourseMatcher) Option {
	return func(e *Extractor) {
		if len(matchers) > 0 {
			e.matchers = matchers
		}
	}
}

// NewExtractor builds an extractor with the default matchers.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		matchers:       DefaultMatchers(),
		splitThreshold: DefaultLineSplitThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extraction is the raw result of one extraction pass. Aggregates in
// Transcript are not computed yet.
type Extraction struct {
	Transcript models.Transcript
	// Lines is the number of non-blank lines examined.
	Lines int
	// Headers lists every distinct term code seen, in order of appearance.
	Headers []string
	// Fallback is set when courses were recovered by the full-document scan.
	Fallback bool
}

// Courses returns the number of extracted courses.
func (x Extraction) Courses() int {
	total := 0
	for _, term := range x.Transcript.Terms {
		total += len(term.Courses)
	}
	return total
}

// scanState is the accumulator of the line fold.
type scanState struct {
	terms   []models.Term
	byCode  map[string]int
	current *models.Term
	headers []string
}

func newScanState() scanState {
	return scanState{byCode: map[string]int{}}
}

func (s scanState) seen(code string) bool {
	for _, h := range s.headers {
		if h == code {
			return true
		}
	}
	return false
}

// closeTerm files the open term. Terms without courses are dropped and a
// repeated header merges into the earlier term of the same code.
func (s scanState) closeTerm() scanState {
	if s.current == nil {
		return s
	}
	term := *s.current
	s.current = nil
	if len(term.Courses) == 0 {
		return s
	}
	if idx, ok := s.byCode[term.TermCode]; ok {
		s.terms[idx].Courses = append(s.terms[idx].Courses, term.Courses...)
		return s
	}
	s.byCode[term.TermCode] = len(s.terms)
	s.terms = append(s.terms, term)
	return s
}

func (s scanState) openTerm(code string) scanState {
	s = s.closeTerm()
	if !s.seen(code) {
		s.headers = append(s.headers, code)
	}
	s.current = &models.Term{TermCode: code, TermName: TermName(code)}
	return s
}

func (s scanState) addCourse(course models.Course) scanState {
	if s.current == nil {
		return s
	}
	next := *s.current
	next.Courses = append(append([]models.Course(nil), next.Courses...), course)
	s.current = &next
	return s
}

// Extract runs the line fold over text and, when headers were found but no
// course could be attached to them, the full-document fallback scan.
func (e *Extractor) Extract(text string) Extraction {
	lines := prepareLines(text, e.splitThreshold)

	state := newScanState()
	for _, line := range lines {
		state = e.step(state, line)
	}
	state = state.closeTerm()

	out := Extraction{
		Lines:   len(lines),
		Headers: state.headers,
	}
	terms := state.terms
	if len(terms) == 0 && len(state.headers) > 0 {
		if recovered := fallbackScan(text, state.headers); len(recovered) > 0 {
			terms = recovered
			out.Fallback = true
		}
	}

	out.Transcript = models.Transcript{
		StudentInfo: models.StudentInfo{Degree: ExtractDegree(text)},
		Terms:       SortTermsChronologically(terms),
	}
	if out.Transcript.Terms == nil {
		out.Transcript.Terms = []models.Term{}
	}
	return out
}

// step folds one line into the state. A course is tried first so that names
// containing a season-like token are not mistaken for headers.
func (e *Extractor) step(state scanState, line string) scanState {
	if course, ok := e.matchCourse(line); ok {
		return state.addCourse(course)
	}
	code, rest, ok := findTermToken(line)
	if !ok {
		return state
	}
	state = state.openTerm(code)
	if rest = strings.TrimSpace(rest); rest != "" {
		if course, ok := e.matchCourse(rest); ok {
			state = state.addCourse(course)
		}
	}
	return state
}

func (e *Extractor) matchCourse(line string) (models.Course, bool) {
	for _, m := range e.matchers {
		if course, ok := m.Match(line); ok {
			return course, true
		}
	}
	return models.Course{}, false
}

// fallbackScan matches courses anywhere in text and assigns each to the
// nearest preceding term header by character offset. Courses before the first
// header are discarded.
func fallbackScan(text string, headers []string) []models.Term {
	marks := termTokenPattern.FindAllStringIndex(text, -1)
	if len(marks) == 0 {
		return nil
	}

	courses := make(map[string][]models.Course, len(headers))
	for _, loc := range scanCourses(text) {
		code := ""
		for _, mark := range marks {
			if mark[0] >= loc[0] {
				break
			}
			code = strings.ToUpper(text[mark[0]:mark[1]])
		}
		if code == "" {
			continue
		}
		course, ok := buildCourse(submatches(text, loc))
		if !ok {
			continue
		}
		courses[code] = append(courses[code], course)
	}

	var terms []models.Term
	for _, code := range headers {
		if len(courses[code]) == 0 {
			continue
		}
		terms = append(terms, models.Term{
			TermCode: code,
			TermName: TermName(code),
			Courses:  courses[code],
		})
	}
	return terms
}

var defaultExtractor = NewExtractor()

// Extract extracts text with the default extractor.
func Extract(text string) models.Transcript {
	return defaultExtractor.Extract(text).Transcript
}

// Parse extracts text and aggregates the result.
func Parse(text string) models.Transcript {
	return Aggregate(Extract(text))
}
