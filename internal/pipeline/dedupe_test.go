package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/digest-service/internal/model"
	"jobmate/digest-service/internal/pipeline"
)

func canon(title, employer, location, link string) model.CanonicalRecord {
	return pipeline.Normalize(model.RawRecord{
		Title:    title,
		Employer: employer,
		Location: location,
		Link:     link,
		PostedAt: model.UnknownPostedAt,
	})
}

func canonTitles(recs []model.CanonicalRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title)
	}
	return out
}

// ── DedupeExact ───────────────────────────────────────────────────────────

func TestDedupeExact_TrackingVariantsCollapse(t *testing.T) {
	first := canon("Senior PM", "Acme", "Bangalore", "https://site/jobs/view/123?trk=abc&refId=x")
	second := canon("Sr. Product Manager", "Acme Inc", "Bangalore", "https://site/jobs/view/123?pageNum=2")

	kept, rejected := pipeline.DedupeExact([]model.CanonicalRecord{first, second})

	require.Len(t, kept, 1)
	assert.Equal(t, first, kept[0])
	require.Len(t, rejected, 1)
	assert.Equal(t, second, rejected[0].Record)
	assert.Equal(t, pipeline.StageExact, rejected[0].Stage)
	assert.Equal(t, pipeline.ReasonDuplicateID, rejected[0].Reason)
}

func TestDedupeExact_ReasonOrder(t *testing.T) {
	records := []model.CanonicalRecord{
		canon("Head of Product", "Acme", "Mumbai", "https://site/jobs/view/1"),
		// same id and same identity: the id is reported
		canon("Head of Product", "Acme", "Mumbai", "https://site/jobs/view/1?trk=a"),
		// new id, same identity
		canon("head of product ", "ACME", "Delhi", "https://site/jobs/view/2"),
		canon("Director", "Initech", "Remote", "https://other/listing?b=2&a=1"),
		// no id, new identity, same canonical url as the previous record
		canon("Lead PM", "Hooli", "Pune", "https://other/listing?a=1&b=2&trk=z"),
	}

	kept, rejected := pipeline.DedupeExact(records)

	assert.Equal(t, []string{"Head of Product", "Director"}, canonTitles(kept))
	require.Len(t, rejected, 3)
	assert.Equal(t, pipeline.ReasonDuplicateID, rejected[0].Reason)
	assert.Equal(t, pipeline.ReasonDuplicateIdentity, rejected[1].Reason)
	assert.Equal(t, pipeline.ReasonDuplicateURL, rejected[2].Reason)
}

func TestDedupeExact_MissingIDsAreNotDuplicates(t *testing.T) {
	records := []model.CanonicalRecord{
		canon("Staff Engineer", "Hooli", "Pune", "https://hooli.example/careers/1"),
		canon("Principal Engineer", "Globex", "Remote", "https://globex.example/careers/engineer"),
	}

	kept, rejected := pipeline.DedupeExact(records)

	assert.Len(t, kept, 2)
	assert.Empty(t, rejected)
}

func TestDedupeExact_EmptyLinksShareOneURL(t *testing.T) {
	records := []model.CanonicalRecord{
		canon("Lead Designer", "Umbrella", "Delhi", ""),
		canon("Lead Analyst", "Umbrella", "Delhi", ""),
	}

	kept, rejected := pipeline.DedupeExact(records)

	assert.Equal(t, []string{"Lead Designer"}, canonTitles(kept))
	require.Len(t, rejected, 1)
	assert.Equal(t, "Lead Analyst", rejected[0].Record.Title)
	assert.Equal(t, pipeline.ReasonDuplicateURL, rejected[0].Reason)
}

func TestDedupeExact_SoundAndComplete(t *testing.T) {
	records := []model.CanonicalRecord{
		canon("A", "X", "", "https://s/jobs/view/1"),
		canon("B", "X", "", "https://s/jobs/view/2"),
		canon("A", "X", "", "https://s/jobs/view/3"),         // identity of #0
		canon("C", "Y", "", "https://s/jobs/view/2?trk=1"),   // id of #1
		canon("D", "Y", "", "https://s/list?id=7"),
		canon("E", "Z", "", "https://s/list?id=7&refId=abc"), // url of #4
		canon("F", "Z", "", "https://s/jobs/view/6"),
		canon("f ", "z", "", "https://s/jobs/view/8"),        // identity of #6
	}

	kept, _ := pipeline.DedupeExact(records)

	assert.Equal(t, []string{"A", "B", "D", "F"}, canonTitles(kept))

	ids := map[string]bool{}
	keys := map[string]bool{}
	urls := map[string]bool{}
	for _, r := range kept {
		if r.HasStableID() {
			assert.False(t, ids[r.StableID], "stable id %s kept twice", r.StableID)
			ids[r.StableID] = true
		}
		assert.False(t, keys[r.IdentityKey], "identity %s kept twice", r.IdentityKey)
		keys[r.IdentityKey] = true
		assert.False(t, urls[r.CanonicalURL], "url %s kept twice", r.CanonicalURL)
		urls[r.CanonicalURL] = true
	}
}

func TestDedupeExact_Empty(t *testing.T) {
	kept, rejected := pipeline.DedupeExact(nil)
	assert.Empty(t, kept)
	assert.Empty(t, rejected)
}
