package pipeline

import (
	"slices"

	"jobmate/digest-service/internal/model"
)

// Rank orders records by TotalScore descending, then by age ascending with
// unknown ages last. Equal records keep their input order.
func Rank(records []model.ScoredRecord) []model.ScoredRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.ScoredRecord) int {
		if a.TotalScore != b.TotalScore {
			return b.TotalScore - a.TotalScore
		}
		return compareAge(a.HoursSincePosted, b.HoursSincePosted)
	})
	return out
}

// TopByRecency returns the n most recently posted records, earliest-posted
// (smallest age) first and unknown ages last. It ignores scores.
func TopByRecency(records []model.ScoredRecord, n int) []model.ScoredRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.ScoredRecord) int {
		return compareAge(a.HoursSincePosted, b.HoursSincePosted)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func compareAge(a, b model.Age) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	default:
		return 0
	}
}
