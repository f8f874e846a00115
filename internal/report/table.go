package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"jobmate/digest-service/internal/model"
)

const (
	titleWidth    = 48
	employerWidth = 24
	locationWidth = 24
)

// WriteTable prints up to n records as an aligned console table. n <= 0
// prints every record.
func WriteTable(w io.Writer, recs []model.ScoredRecord, n int) error {
	if n <= 0 || n > len(recs) {
		n = len(recs)
	}
	var b strings.Builder
	writeRow(&b, "#", "SCORE", "AGE(H)", "TITLE", "EMPLOYER", "LOCATION")
	for i, r := range recs[:n] {
		writeRow(&b,
			strconv.Itoa(i+1),
			strconv.Itoa(r.TotalScore),
			FormatHours(r.HoursSincePosted),
			r.Title,
			r.Employer,
			r.Location,
		)
	}
	if n < len(recs) {
		fmt.Fprintf(&b, "... and %d more\n", len(recs)-n)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRow(b *strings.Builder, rank, score, age, title, employer, location string) {
	fmt.Fprintf(b, "%3s  %5s  %7s  %s  %s  %s\n",
		rank, score, age,
		cell(title, titleWidth),
		cell(employer, employerWidth),
		strings.TrimRight(cell(location, locationWidth), " "),
	)
}

// cell truncates s to width display columns and pads it on the right.
func cell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
