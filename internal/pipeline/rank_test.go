package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobmate/digest-service/internal/model"
	"jobmate/digest-service/internal/pipeline"
)

func scored(title string, total int, age model.Age) model.ScoredRecord {
	return model.ScoredRecord{
		CanonicalRecord:  model.CanonicalRecord{RawRecord: model.RawRecord{Title: title}},
		TotalScore:       total,
		HoursSincePosted: age,
	}
}

func scoredTitles(recs []model.ScoredRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title)
	}
	return out
}

// ── Rank ──────────────────────────────────────────────────────────────────

func TestRank_ScoreThenAge(t *testing.T) {
	in := []model.ScoredRecord{
		scored("low", 10, model.HoursAge(1)),
		scored("high-old", 28, model.HoursAge(20)),
		scored("high-unknown", 28, model.UnknownAge),
		scored("high-new", 28, model.HoursAge(2)),
		scored("mid", 20, model.HoursAge(5)),
	}

	got := pipeline.Rank(in)

	assert.Equal(t, []string{"high-new", "high-old", "high-unknown", "mid", "low"}, scoredTitles(got))
	// input order is untouched
	assert.Equal(t, "low", in[0].Title)
}

func TestRank_Stable(t *testing.T) {
	in := []model.ScoredRecord{
		scored("a", 20, model.HoursAge(3)),
		scored("b", 20, model.HoursAge(3)),
		scored("c", 20, model.UnknownAge),
		scored("d", 20, model.UnknownAge),
		scored("e", 20, model.HoursAge(3)),
	}

	got := pipeline.Rank(in)

	assert.Equal(t, []string{"a", "b", "e", "c", "d"}, scoredTitles(got))
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, pipeline.Rank(nil))
}

// ── TopByRecency ──────────────────────────────────────────────────────────

func TestTopByRecency_IgnoresScore(t *testing.T) {
	in := []model.ScoredRecord{
		scored("best", 40, model.HoursAge(10)),
		scored("unknown", 35, model.UnknownAge),
		scored("newest", 5, model.HoursAge(0.5)),
		scored("middle", 20, model.HoursAge(4)),
	}

	got := pipeline.TopByRecency(in, 30)

	assert.Equal(t, []string{"newest", "middle", "best", "unknown"}, scoredTitles(got))
}

func TestTopByRecency_Cap(t *testing.T) {
	in := make([]model.ScoredRecord, 0, 40)
	for i := 0; i < 40; i++ {
		in = append(in, scored("job", 10, model.HoursAge(float64(40-i))))
	}

	got := pipeline.TopByRecency(in, 30)

	assert.Len(t, got, 30)
	assert.InDelta(t, 1.0, got[0].HoursSincePosted.Hours(), 1e-9)
	assert.InDelta(t, 30.0, got[29].HoursSincePosted.Hours(), 1e-9)
}

func TestTopByRecency_FewerThanN(t *testing.T) {
	in := []model.ScoredRecord{scored("only", 1, model.HoursAge(1))}
	assert.Len(t, pipeline.TopByRecency(in, 30), 1)
	assert.Empty(t, pipeline.TopByRecency(nil, 30))
}
