package pipeline

import (
	"fmt"
	"strings"

	"jobmate/digest-service/internal/model"
)

// DefaultFuzzyThreshold is the similarity above which two records are
// treated as the same posting.
const DefaultFuzzyThreshold = 0.85

const (
	titleWeight    = 0.6
	employerWeight = 0.3
	locationWeight = 0.1
)

// Similarity is the weighted LCS ratio of title, employer and location.
func Similarity(a, b model.CanonicalRecord) float64 {
	return titleWeight*LCSRatio(a.Title, b.Title) +
		employerWeight*LCSRatio(a.Employer, b.Employer) +
		locationWeight*LCSRatio(a.Location, b.Location)
}

// LCSRatio returns 2*LCS(a, b) / (len(a)+len(b)) over lower-cased runes.
// It is symmetric, lies in [0, 1] and is 1.0 for equal strings, including
// two empty strings.
func LCSRatio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2 * float64(lcsLength(ra, rb)) / float64(total)
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// DedupeSimilar drops every record whose similarity to an already accepted
// record is strictly greater than threshold. Comparison is pairwise against
// the accepted set, so cost grows quadratically with input size.
func DedupeSimilar(records []model.CanonicalRecord, threshold float64) ([]model.CanonicalRecord, []Rejection) {
	kept := make([]model.CanonicalRecord, 0, len(records))
	var rejected []Rejection

	for _, rec := range records {
		dup := -1
		var score float64
		for i := range kept {
			if s := Similarity(rec, kept[i]); s > threshold {
				dup, score = i, s
				break
			}
		}
		if dup >= 0 {
			rejected = append(rejected, Rejection{
				Record: rec,
				Stage:  StageSimilar,
				Reason: fmt.Sprintf("similar to %q at %s (%.2f)", kept[dup].Title, kept[dup].Employer, score),
			})
			continue
		}
		kept = append(kept, rec)
	}

	return kept, rejected
}
