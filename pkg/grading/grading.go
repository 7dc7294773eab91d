// Package grading encodes the NaCCA grading scales and classifies assessment totals.
package grading

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Level selects which band table applies to a score.
type Level string

// Supported levels. Anything else falls back to LevelPrimary.
const (
	LevelPrimary Level = "PRIMARY"
	LevelJHS     Level = "JHS"
	LevelSHS     Level = "SHS"
)

// Band is an inclusive score range mapped to a grade symbol and remark.
type Band struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Grade  string  `json:"grade"`
	Remark string  `json:"remark"`
}

// Contains reports whether total lies inside the band.
func (b Band) Contains(total float64) bool {
	return b.Min <= total && total <= b.Max
}

// scales is ordered ascending per level and never mutated.
var scales = map[Level][]Band{
	LevelPrimary: {
		{0, 19, "9", "Very Low"},
		{20, 24, "8", "Low"},
		{25, 29, "7", "Below Average"},
		{30, 39, "6", "Low Average"},
		{40, 49, "5", "Average"},
		{50, 59, "4", "High Average"},
		{60, 69, "3", "High"},
		{70, 79, "2", "Higher"},
		{80, 100, "1", "Highest"},
	},
	LevelJHS: {
		{0, 34, "9", "Fail"},
		{35, 39, "8", "Pass"},
		{40, 44, "7", "Pass"},
		{45, 49, "6", "Credit"},
		{50, 54, "5", "Credit"},
		{55, 59, "4", "Credit"},
		{60, 69, "3", "Good"},
		{70, 79, "2", "Very Good"},
		{80, 100, "1", "Excellent"},
	},
	LevelSHS: {
		{0, 34, "F9", "Fail"},
		{35, 39, "E8", "Pass"},
		{40, 44, "D7", "Pass"},
		{45, 49, "C6", "Credit"},
		{50, 54, "C5", "Credit"},
		{55, 59, "C4", "Credit"},
		{60, 69, "B3", "Good"},
		{70, 79, "B2", "Very Good"},
		{80, 100, "A1", "Excellent"},
	},
}

// Levels lists the supported levels in display order.
func Levels() []Level {
	return []Level{LevelPrimary, LevelJHS, LevelSHS}
}

// ParseLevel normalises raw into a Level, defaulting to LevelPrimary.
func ParseLevel(raw string) Level {
	level := Level(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := scales[level]; ok {
		return level
	}
	return LevelPrimary
}

// Bands returns a copy of the band table for level.
func Bands(level Level) []Band {
	table := scales[ParseLevel(string(level))]
	out := make([]Band, len(table))
	copy(out, table)
	return out
}

// Lookup returns the band containing total, if any.
func Lookup(level Level, total float64) (Band, bool) {
	for _, band := range scales[ParseLevel(string(level))] {
		if band.Contains(total) {
			return band, true
		}
	}
	return Band{}, false
}

// Result is the outcome of one classification. Grade and Remark are nil when the
// total falls outside every band.
type Result struct {
	Total  float64 `json:"total"`
	Grade  *string `json:"grade"`
	Remark *string `json:"remark"`
}

// Matched reports whether a band was found.
func (r Result) Matched() bool {
	return r.Grade != nil
}

// GradeOr returns the grade symbol or fallback when unmatched.
func (r Result) GradeOr(fallback string) string {
	if r.Grade == nil {
		return fallback
	}
	return *r.Grade
}

// RemarkOr returns the remark or fallback when unmatched.
func (r Result) RemarkOr(fallback string) string {
	if r.Remark == nil {
		return fallback
	}
	return *r.Remark
}

// Classify sums the four components and looks the total up in the level's table.
// Components are not clamped; an unmatched total yields nil grade and remark.
func Classify(classwork, homework, project, exam float64, level Level) Result {
	total := sanitize(classwork) + sanitize(homework) + sanitize(project) + sanitize(exam)
	return ClassifyTotal(total, level)
}

// ClassifyTotal classifies an already summed total.
func ClassifyTotal(total float64, level Level) Result {
	result := Result{Total: total}
	if band, ok := Lookup(level, total); ok {
		grade, remark := band.Grade, band.Remark
		result.Grade = &grade
		result.Remark = &remark
	}
	return result
}

// Coerce converts a decoded JSON value into a score. Anything that is not a finite
// number or a numeric string becomes 0.
func Coerce(v interface{}) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return sanitize(val)
	case float32:
		return sanitize(float64(val))
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		return ParseScore(val.String())
	case string:
		return ParseScore(val)
	case *float64:
		if val == nil {
			return 0
		}
		return sanitize(*val)
	default:
		return 0
	}
}

// ParseScore parses a form value, returning 0 for blank or non-numeric input.
func ParseScore(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return sanitize(f)
}

func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
