// Package pipeline turns collected job postings into a ranked digest.
//
// Stages run in this order and never mutate their input:
//
//	Normalize ──► DedupeExact ──► DedupeSimilar (optional) ──► FilterAndScore ──► Rank
//
// Every stage is a pure function of its arguments. The current time is passed
// in explicitly so scoring is reproducible.
package pipeline

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"jobmate/digest-service/internal/model"
)

// stableIDPatterns are tried in order; the first capture wins.
var stableIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/jobs/view/(\d+)`),
	regexp.MustCompile(`/jobs/view/[^/?#]*-(\d+)(?:[/?#]|$)`),
	regexp.MustCompile(`jobId=(\d+)`),
	regexp.MustCompile(`/job/(\d+)`),
}

// trackingParams are query parameter names stripped from canonical URLs.
// Matching is exact and case-sensitive.
var trackingParams = map[string]struct{}{
	"refId":             {},
	"trackingId":        {},
	"position":          {},
	"pageNum":           {},
	"origin":            {},
	"trk":               {},
	"originalSubdomain": {},
	"currentJobId":      {},
	"lipi":              {},
}

// Normalize derives the dedup keys for a raw record.
func Normalize(raw model.RawRecord) model.CanonicalRecord {
	rec := raw
	rec.Title = cleanText(raw.Title)
	rec.Employer = cleanText(raw.Employer)
	rec.Location = cleanText(raw.Location)
	rec.Link = strings.TrimSpace(raw.Link)

	return model.CanonicalRecord{
		RawRecord:    rec,
		StableID:     ExtractStableID(rec.Link),
		CanonicalURL: CanonicalURL(rec.Link),
		IdentityKey:  IdentityKey(rec.Title, rec.Employer),
	}
}

// NormalizeAll applies Normalize to every record, preserving order.
func NormalizeAll(raws []model.RawRecord) []model.CanonicalRecord {
	out := make([]model.CanonicalRecord, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

// ExtractStableID returns the posting id embedded in link, or "".
func ExtractStableID(link string) string {
	for _, re := range stableIDPatterns {
		if m := re.FindStringSubmatch(link); m != nil {
			return m[1]
		}
	}
	return ""
}

// IdentityKey is lower(trim(title)) + "|" + lower(trim(employer)).
func IdentityKey(title, employer string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(employer))
}

// CanonicalURL strips tracking parameters and the fragment from link. The
// remaining parameters are sorted so parameter order does not matter. Links
// that do not parse are cleaned with the same rules on the raw text.
func CanonicalURL(link string) string {
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}
	link = strings.TrimSpace(link)
	if u, err := url.Parse(link); err == nil {
		return canonicalString(u)
	}

	base, query, _ := strings.Cut(link, "?")
	cleaned := base
	if q := cleanQuery(query); q != "" {
		cleaned = base + "?" + q
	}
	// Dropping a parameter can expose whitespace or make the rest parseable.
	cleaned = strings.TrimSpace(cleaned)
	if u, err := url.Parse(cleaned); err == nil {
		return canonicalString(u)
	}
	return cleaned
}

func canonicalString(u *url.URL) string {
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = cleanQuery(u.RawQuery)
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return strings.TrimSpace(u.String())
}

// cleanQuery works on raw segments so kept values are never re-encoded,
// which keeps CanonicalURL idempotent.
func cleanQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, seg := range strings.Split(rawQuery, "&") {
		if seg == "" {
			continue
		}
		name, _, _ := strings.Cut(seg, "=")
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if _, drop := trackingParams[name]; drop {
			continue
		}
		kept = append(kept, seg)
	}
	sort.Strings(kept)
	return strings.Join(kept, "&")
}

// cleanText applies NFKC and collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
