package pipeline

import (
	mapset "github.com/deckarep/golang-set/v2"

	"jobmate/digest-service/internal/model"
)

// Stage names the pipeline step that dropped a record.
type Stage string

const (
	StageExact   Stage = "exact"
	StageSimilar Stage = "similar"
	StageFilter  Stage = "filter"
)

// Reasons reported by DedupeExact.
const (
	ReasonDuplicateID       = "duplicate stable id"
	ReasonDuplicateIdentity = "duplicate title and employer"
	ReasonDuplicateURL      = "duplicate canonical url"
)

// Rejection records why a record was dropped. Rejections are diagnostics
// only; they never feed back into the pipeline.
type Rejection struct {
	Record model.CanonicalRecord
	Stage  Stage
	Reason string
}

// DedupeExact keeps the first record for every stable id, identity key and
// canonical URL. Output order follows input order. Records without a link
// share the empty canonical URL, so only the first of them survives.
func DedupeExact(records []model.CanonicalRecord) ([]model.CanonicalRecord, []Rejection) {
	var (
		seenIDs        = mapset.NewThreadUnsafeSet[string]()
		seenIdentities = mapset.NewThreadUnsafeSet[string]()
		seenURLs       = mapset.NewThreadUnsafeSet[string]()

		kept     = make([]model.CanonicalRecord, 0, len(records))
		rejected []Rejection
	)

	for _, rec := range records {
		reason := ""
		switch {
		case rec.HasStableID() && seenIDs.Contains(rec.StableID):
			reason = ReasonDuplicateID
		case seenIdentities.Contains(rec.IdentityKey):
			reason = ReasonDuplicateIdentity
		case seenURLs.Contains(rec.CanonicalURL):
			reason = ReasonDuplicateURL
		}
		if reason != "" {
			rejected = append(rejected, Rejection{Record: rec, Stage: StageExact, Reason: reason})
			continue
		}

		if rec.HasStableID() {
			seenIDs.Add(rec.StableID)
		}
		seenIdentities.Add(rec.IdentityKey)
		seenURLs.Add(rec.CanonicalURL)
		kept = append(kept, rec)
	}

	return kept, rejected
}
