package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/transcript-api/internal/models"
)

var (
	// ErrMalformedJSON is returned for input that is not a JSON object.
	ErrMalformedJSON = errors.New("malformed transcript json")
	// ErrMissingTerms is returned when the object has no "terms" array or its
	// entries have the wrong shape.
	ErrMissingTerms = errors.New("transcript json requires a terms array")
)

const transcriptSchema = `{
  "type": "object",
  "required": ["terms"],
  "properties": {
    "studentInfo": {"type": ["object", "null"]},
    "terms": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "courses": {
            "type": ["array", "null"],
            "items": {"type": "object"}
          }
        }
      }
    }
  }
}`

var transcriptJSONSchema = jsonschema.MustCompileString("transcript.json", transcriptSchema)

// DecodeJSON validates a pre-structured transcript and converts it into a
// Transcript. Numeric fields are read leniently: numbers, numeric strings and
// null are accepted and anything else becomes zero. Aggregates are not
// recomputed here.
func DecodeJSON(data []byte) (models.Transcript, error) {
	var doc any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return models.Transcript{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return models.Transcript{}, ErrMalformedJSON
	}
	if err := transcriptJSONSchema.Validate(doc); err != nil {
		return models.Transcript{}, fmt.Errorf("%w: %v", ErrMissingTerms, err)
	}

	var wire wireTranscript
	if err := json.Unmarshal(data, &wire); err != nil {
		return models.Transcript{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return wire.model(), nil
}

type wireTranscript struct {
	StudentInfo *struct {
		Degree      lenientString `json:"degree"`
		Institution lenientString `json:"institution"`
	} `json:"studentInfo"`
	Terms []wireTerm `json:"terms"`
}

type wireTerm struct {
	TermCode  lenientString `json:"termCode"`
	Term      lenientString `json:"term"`
	TermName  lenientString `json:"termName"`
	Credits   lenientFloat  `json:"credits"`
	IsPlanned lenientBool   `json:"isPlanned"`
	Courses   []wireCourse  `json:"courses"`
}

type wireCourse struct {
	Code        lenientString `json:"code"`
	Name        lenientString `json:"name"`
	Units       lenientFloat  `json:"units"`
	EarnedUnits lenientFloat  `json:"earnedUnits"`
	Grade       lenientString `json:"grade"`
	Points      lenientFloat  `json:"points"`
}

func (w wireTranscript) model() models.Transcript {
	out := models.Transcript{Terms: make([]models.Term, 0, len(w.Terms))}
	if w.StudentInfo != nil {
		out.StudentInfo.Degree = string(w.StudentInfo.Degree)
		out.StudentInfo.Institution = string(w.StudentInfo.Institution)
	}
	for _, wt := range w.Terms {
		code := string(wt.TermCode)
		if strings.TrimSpace(code) == "" {
			code = string(wt.Term)
		}
		term := models.Term{
			TermCode:  strings.ToUpper(strings.TrimSpace(code)),
			TermName:  strings.TrimSpace(string(wt.TermName)),
			Credits:   float64(wt.Credits),
			IsPlanned: bool(wt.IsPlanned),
			Courses:   make([]models.Course, 0, len(wt.Courses)),
		}
		for _, wc := range wt.Courses {
			term.Courses = append(term.Courses, models.Course{
				Code:        string(wc.Code),
				Name:        string(wc.Name),
				Units:       float64(wc.Units),
				EarnedUnits: float64(wc.EarnedUnits),
				Grade:       string(wc.Grade),
				Points:      float64(wc.Points),
			})
		}
		out.Terms = append(out.Terms, term)
	}
	return out
}

// lenientFloat accepts a number, a numeric string or null. Other values and
// negative numbers decode as zero.
type lenientFloat float64

func (f *lenientFloat) UnmarshalJSON(data []byte) error {
	*f = 0
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		v = parsed
	default:
		return nil
	}
	*f = lenientFloat(nonNegative(v))
	return nil
}

// lenientString accepts a string, a number or null.
type lenientString string

func (s *lenientString) UnmarshalJSON(data []byte) error {
	*s = ""
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch x := raw.(type) {
	case string:
		*s = lenientString(strings.TrimSpace(x))
	case float64:
		*s = lenientString(strconv.FormatFloat(x, 'f', -1, 64))
	}
	return nil
}

// lenientBool accepts a boolean or the strings "true"/"false".
type lenientBool bool

func (b *lenientBool) UnmarshalJSON(data []byte) error {
	*b = false
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch x := raw.(type) {
	case bool:
		*b = lenientBool(x)
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(x))
		if err == nil {
			*b = lenientBool(parsed)
		}
	}
	return nil
}
