package pipeline

import (
	"strings"
	"time"

	"jobmate/digest-service/internal/model"
)

// Location tiers. Only the highest matching tier applies.
const (
	LocationScoreMajorCity = 15
	LocationScoreCountry   = 10
	LocationScoreRemote    = 5
)

// Freshness tiers.
const (
	FreshnessPreferred = 10
	FreshnessDay       = 5
	FreshnessStale     = 1

	freshnessDayHours = 24
)

// Reasons reported by FilterAndScore.
const (
	ReasonExcludedEmployer = "excluded employer"
	ReasonJunior           = "junior keyword"
	ReasonNoSeniority      = "no seniority keyword"
	ReasonTooOld           = "older than max hours"
	ReasonNoRequired       = "no required keyword"
)

// FilterAndScore applies the relevance rules in order and scores every
// record that passes. now is the reference time for freshness.
func FilterAndScore(records []model.CanonicalRecord, c Criteria, now time.Time) ([]model.ScoredRecord, []Rejection) {
	kept := make([]model.ScoredRecord, 0, len(records))
	var rejected []Rejection

	for _, rec := range records {
		scored, reason := scoreRecord(rec, c, now)
		if reason != "" {
			rejected = append(rejected, Rejection{Record: rec, Stage: StageFilter, Reason: reason})
			continue
		}
		kept = append(kept, scored)
	}

	return kept, rejected
}

func scoreRecord(rec model.CanonicalRecord, c Criteria, now time.Time) (model.ScoredRecord, string) {
	if containsAny(strings.ToLower(rec.Employer), c.ExcludedEmployers) {
		return model.ScoredRecord{}, ReasonExcludedEmployer
	}

	jobText := JobText(rec.Title, rec.Employer)
	if containsAny(jobText, c.ExcludeJuniorKeywords) {
		return model.ScoredRecord{}, ReasonJunior
	}

	seniority := countMatches(jobText, c.SeniorityKeywords)
	if seniority < 1 {
		return model.ScoredRecord{}, ReasonNoSeniority
	}

	location := LocationScore(rec.Location, c)

	age := HoursSince(rec.PostedAt, now)
	if age.Known() && age.Hours() > float64(c.MaxHoursOld) {
		return model.ScoredRecord{}, ReasonTooOld
	}
	freshness := FreshnessScore(age, c.PreferredHoursOld)

	if !containsAny(jobText, c.RequiredKeywords) {
		return model.ScoredRecord{}, ReasonNoRequired
	}

	return model.ScoredRecord{
		CanonicalRecord:  rec,
		SeniorityScore:   seniority,
		LocationScore:    location,
		FreshnessScore:   freshness,
		HoursSincePosted: age,
		TotalScore:       3*seniority + location + freshness,
	}, ""
}

// LocationScore returns the single highest tier the location matches.
func LocationScore(location string, c Criteria) int {
	loc := strings.ToLower(location)
	switch {
	case containsAny(loc, c.MajorCities):
		return LocationScoreMajorCity
	case c.PreferredCountry != "" && strings.Contains(loc, strings.ToLower(c.PreferredCountry)):
		return LocationScoreCountry
	case strings.Contains(loc, "remote"):
		return LocationScoreRemote
	default:
		return 0
	}
}

// FreshnessScore maps an age to its freshness tier. Unknown ages score
// FreshnessStale.
func FreshnessScore(age model.Age, preferredHours int) int {
	switch {
	case !age.Known():
		return FreshnessStale
	case age.Hours() <= float64(preferredHours):
		return FreshnessPreferred
	case age.Hours() <= freshnessDayHours:
		return FreshnessDay
	default:
		return FreshnessStale
	}
}

// timestampLayouts are tried for values carrying a time component. Layouts
// without a zone are read in now's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// HoursSince parses postedAt and returns the hours elapsed until now.
// Date-only values are measured from midnight in now's location. The
// sentinel and anything unparseable yield model.UnknownAge.
func HoursSince(postedAt string, now time.Time) model.Age {
	s := strings.TrimSpace(postedAt)
	if s == "" || strings.EqualFold(s, model.UnknownPostedAt) {
		return model.UnknownAge
	}

	posted, ok := parsePostedAt(s, now.Location())
	if !ok {
		return model.UnknownAge
	}
	return model.HoursAge(now.Sub(posted).Hours())
}

func parsePostedAt(s string, loc *time.Location) (time.Time, bool) {
	if strings.ContainsAny(s, "T ") && len(s) > len(dateLayout) {
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, s[:len(dateLayout)], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
