// Package model defines shared data structures for the digest service.
package model

import (
	"math"
	"time"
)

// UnknownPostedAt is the PostedAt value used when a source gives no date.
const UnknownPostedAt = "unknown"

// RawRecord is a job posting exactly as a source produced it.
type RawRecord struct {
	Title          string    `json:"title"`
	Employer       string    `json:"employer"`
	Location       string    `json:"location"`
	Link           string    `json:"link"`
	PostedAt       string    `json:"postedAt"` // ISO-8601 or UnknownPostedAt
	QuickApply     bool      `json:"quickApply"`
	SourceKeywords string    `json:"sourceKeywords"`
	CollectedAt    time.Time `json:"collectedAt"`
	Source         string    `json:"source,omitempty"`
}

// CanonicalRecord is a RawRecord plus the keys used for deduplication.
type CanonicalRecord struct {
	RawRecord
	StableID     string `json:"stableId,omitempty"` // "" when the link encodes no id
	CanonicalURL string `json:"canonicalUrl"`
	IdentityKey  string `json:"identityKey"`
}

// HasStableID reports whether an id was extracted from the link.
func (c CanonicalRecord) HasStableID() bool {
	return c.StableID != ""
}

// Age is the time elapsed since a posting went up, in hours. The zero value
// is an unknown age.
type Age struct {
	hours float64
	known bool
}

// UnknownAge is the age of a record whose posting date could not be read.
var UnknownAge = Age{}

// HoursAge returns a known age. Negative values are clamped to zero.
func HoursAge(h float64) Age {
	if h < 0 || math.IsNaN(h) {
		h = 0
	}
	return Age{hours: h, known: true}
}

// Known reports whether the age was computed from a posting date.
func (a Age) Known() bool { return a.known }

// Hours returns the age in hours; zero when unknown.
func (a Age) Hours() float64 { return a.hours }

// Before orders ages ascending with unknown ages last.
func (a Age) Before(b Age) bool {
	switch {
	case a.known && b.known:
		return a.hours < b.hours
	case a.known:
		return true
	default:
		return false
	}
}

// Display returns the age rounded to one decimal, or nil when unknown.
func (a Age) Display() *float64 {
	if !a.known {
		return nil
	}
	v := math.Round(a.hours*10) / 10
	return &v
}

// ScoredRecord is a CanonicalRecord that passed the relevance filter.
type ScoredRecord struct {
	CanonicalRecord
	SeniorityScore   int `json:"seniorityScore"`
	LocationScore    int `json:"locationScore"`
	FreshnessScore   int `json:"freshnessScore"`
	HoursSincePosted Age `json:"-"`
	TotalScore       int `json:"totalScore"`
}

// Stats counts records at each stage of one pipeline run.
type Stats struct {
	Collected    int `json:"collected"`
	ExactDupes   int `json:"exactDuplicates"`
	SimilarDupes int `json:"similarDuplicates"`
	Rejected     int `json:"rejected"`
	Accepted     int `json:"accepted"`
	Notified     int `json:"notified"`
	SourceErrors int `json:"sourceErrors"`
}

// Digest is the outcome of one run for one search profile.
type Digest struct {
	ID         string         `json:"id"`
	ProfileID  string         `json:"profileId"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Stats      Stats          `json:"stats"`
	Jobs       []ScoredRecord `json:"jobs"`
	CSVPath    string         `json:"csvPath,omitempty"`
	HTMLPath   string         `json:"htmlPath,omitempty"`
}
