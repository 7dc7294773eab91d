package grading

import "sort"

// Maximum marks per component at score entry.
const (
	MaxClasswork = 30.0
	MaxHomework  = 10.0
	MaxProject   = 10.0
	MaxExam      = 50.0
)

// Components holds the four assessment parts of a subject score.
type Components struct {
	Classwork float64 `json:"classwork"`
	Homework  float64 `json:"homework"`
	Project   float64 `json:"project"`
	Exam      float64 `json:"exam"`
}

// Total sums the components without clamping.
func (c Components) Total() float64 {
	return sanitize(c.Classwork) + sanitize(c.Homework) + sanitize(c.Project) + sanitize(c.Exam)
}

// Clamped bounds every component to [0, its maximum].
func (c Components) Clamped() Components {
	return Components{
		Classwork: clamp(c.Classwork, MaxClasswork),
		Homework:  clamp(c.Homework, MaxHomework),
		Project:   clamp(c.Project, MaxProject),
		Exam:      clamp(c.Exam, MaxExam),
	}
}

// Classify runs the components through Classify for level.
func (c Components) Classify(level Level) Result {
	return Classify(c.Classwork, c.Homework, c.Project, c.Exam, level)
}

func clamp(v, max float64) float64 {
	v = sanitize(v)
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// Rank assigns competition positions ("1224") to scores keyed by id, highest first.
// Equal scores share a position and the next distinct score takes its 1-based index.
func Rank(scores map[string]float64) map[string]int {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		if scores[ids[i]] == scores[ids[j]] {
			return ids[i] < ids[j]
		}
		return scores[ids[i]] > scores[ids[j]]
	})
	positions := make(map[string]int, len(ids))
	position := 1
	for i, id := range ids {
		if i > 0 && scores[id] != scores[ids[i-1]] {
			position = i + 1
		}
		positions[id] = position
	}
	return positions
}
