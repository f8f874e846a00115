package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"jobmate/digest-service/internal/model"
)

// CSVHeader is the first row of every export.
var CSVHeader = []string{
	"rank", "title", "employer", "location", "link", "posted_at", "hours_since_posted",
	"quick_apply", "seniority_score", "location_score", "freshness_score", "total_score",
	"source", "source_keywords", "stable_id", "collected_at",
}

// WriteCSV writes one row per record in the given order.
func WriteCSV(w io.Writer, recs []model.ScoredRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range recs {
		collected := ""
		if !r.CollectedAt.IsZero() {
			collected = r.CollectedAt.Format(time.RFC3339)
		}
		row := []string{
			strconv.Itoa(i + 1),
			r.Title,
			r.Employer,
			r.Location,
			r.Link,
			r.PostedAt,
			FormatHours(r.HoursSincePosted),
			strconv.FormatBool(r.QuickApply),
			strconv.Itoa(r.SeniorityScore),
			strconv.Itoa(r.LocationScore),
			strconv.Itoa(r.FreshnessScore),
			strconv.Itoa(r.TotalScore),
			r.Source,
			r.SourceKeywords,
			r.StableID,
			collected,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
