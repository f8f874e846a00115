package pipeline

import (
	"time"

	"jobmate/digest-service/internal/model"
)

// Result is the output of one pipeline run.
type Result struct {
	Ranked     []model.ScoredRecord // full report order
	Recent     []model.ScoredRecord // top-N by recency, for notification
	Rejections []Rejection
	Stats      model.Stats
}

// Run normalizes, deduplicates, scores and ranks raws. Fuzzy dedup runs only
// when c.FuzzyDedup is set. c must already be valid.
func Run(raws []model.RawRecord, c Criteria, now time.Time) Result {
	canonical := NormalizeAll(raws)

	unique, exactRejected := DedupeExact(canonical)

	var similarRejected []Rejection
	if c.FuzzyDedup {
		unique, similarRejected = DedupeSimilar(unique, c.FuzzyThreshold)
	}

	scored, filterRejected := FilterAndScore(unique, c, now)
	ranked := Rank(scored)

	rejections := make([]Rejection, 0, len(exactRejected)+len(similarRejected)+len(filterRejected))
	rejections = append(rejections, exactRejected...)
	rejections = append(rejections, similarRejected...)
	rejections = append(rejections, filterRejected...)

	return Result{
		Ranked:     ranked,
		Recent:     TopByRecency(ranked, c.TopN),
		Rejections: rejections,
		Stats: model.Stats{
			Collected:    len(raws),
			ExactDupes:   len(exactRejected),
			SimilarDupes: len(similarRejected),
			Rejected:     len(filterRejected),
			Accepted:     len(ranked),
		},
	}
}
