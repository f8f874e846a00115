package pipeline

import "strings"

// containsAny reports whether any non-empty term occurs in text. text must
// already be lower-cased; terms are lower-cased here.
func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// countMatches returns how many terms occur in text.
func countMatches(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			n++
		}
	}
	return n
}

// JobText is lower(title) + " " + lower(employer), the text every keyword
// rule is matched against.
func JobText(title, employer string) string {
	return strings.ToLower(title) + " " + strings.ToLower(employer)
}
