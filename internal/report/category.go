// Package report renders ranked digests as CSV, HTML and console tables.
package report

import (
	"fmt"
	"strings"

	"jobmate/digest-service/internal/model"
)

// Category groups jobs in the HTML report.
type Category string

const (
	CategorySenior     Category = "Senior"
	CategoryMidLevel   Category = "Mid Level"
	CategoryEntryLevel Category = "Entry Level"
	CategoryRemote     Category = "Remote"
)

// CategoryOrder is the order sections appear in the report.
var CategoryOrder = []Category{CategorySenior, CategoryMidLevel, CategoryEntryLevel, CategoryRemote}

var (
	seniorTitleWords = []string{"senior", "lead", "principal", "staff", "director", "vp", "head", "chief"}
	entryTitleWords  = []string{"junior", "entry", "associate", "graduate"}
)

// Categorize places a job by its title first, then by remote location.
func Categorize(rec model.ScoredRecord) Category {
	title := strings.ToLower(rec.Title)
	switch {
	case containsWord(title, seniorTitleWords):
		return CategorySenior
	case containsWord(title, entryTitleWords):
		return CategoryEntryLevel
	case strings.Contains(strings.ToLower(rec.Location), "remote") || strings.Contains(title, "remote"):
		return CategoryRemote
	default:
		return CategoryMidLevel
	}
}

// Group splits records by category, keeping rank order inside each group.
func Group(recs []model.ScoredRecord) map[Category][]model.ScoredRecord {
	out := make(map[Category][]model.ScoredRecord, len(CategoryOrder))
	for _, r := range recs {
		c := Categorize(r)
		out[c] = append(out[c], r)
	}
	return out
}

func containsWord(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Badge marks how fresh a posting is.
type Badge struct {
	Icon  string
	Text  string
	Class string
}

// AgeBadge returns the freshness badge for an age: 🔥 up to 6h, ⚡ up to
// 12h, 🕒 otherwise. Unknown ages get no badge.
func AgeBadge(age model.Age) (Badge, bool) {
	h := age.Display()
	if h == nil {
		return Badge{}, false
	}
	text := fmt.Sprintf("%sh ago", trimFloat(*h))
	switch {
	case *h <= 6:
		return Badge{Icon: "🔥", Text: text, Class: "hot"}, true
	case *h <= 12:
		return Badge{Icon: "⚡", Text: text, Class: "warm"}, true
	default:
		return Badge{Icon: "🕒", Text: text, Class: "old"}, true
	}
}

// FormatHours renders an age for tables and CSV; unknown ages are "unknown".
func FormatHours(age model.Age) string {
	h := age.Display()
	if h == nil {
		return model.UnknownPostedAt
	}
	return trimFloat(*h)
}

func trimFloat(f float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", f), ".0")
}
