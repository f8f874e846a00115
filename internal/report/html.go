package report

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"jobmate/digest-service/internal/model"
)

// HTMLPage is the data passed to the report template.
type HTMLPage struct {
	Title       string
	GeneratedAt string
	Stats       HTMLStats
	Sections    []HTMLSection
}

// HTMLStats are the summary boxes at the top of the report.
type HTMLStats struct {
	Total  int
	Senior int
	Mid    int
	Entry  int
	Remote int
}

// HTMLSection is one category of jobs.
type HTMLSection struct {
	Name string
	Jobs []HTMLJob
}

// HTMLJob is one rendered job card.
type HTMLJob struct {
	Title      string
	Employer   string
	Location   string
	Link       string
	Badge      *Badge
	QuickApply bool
	Score      int
	Keywords   string
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{font-family:-apple-system,Segoe UI,Roboto,sans-serif;background:#f4f6f9;margin:0;padding:24px;color:#222}
h1{margin:0 0 4px}
.generated{color:#666;margin-bottom:20px}
.stats{display:flex;gap:12px;flex-wrap:wrap;margin-bottom:24px}
.stat{background:#fff;border-radius:8px;padding:12px 18px;box-shadow:0 1px 3px rgba(0,0,0,.1)}
.stat b{display:block;font-size:22px}
.job{background:#fff;border-radius:8px;padding:14px 18px;margin:10px 0;box-shadow:0 1px 3px rgba(0,0,0,.1)}
.job a{font-weight:600;color:#0a66c2;text-decoration:none}
.meta{color:#555;margin-top:4px}
.badge{display:inline-block;border-radius:10px;padding:2px 8px;font-size:12px;margin-right:6px}
.hot{background:#ffe1e1}.warm{background:#fff4d6}.old{background:#eceff3}.apply{background:#dff5e3}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="generated">Generated {{.GeneratedAt}}</div>
<div class="stats">
<div class="stat"><b>{{.Stats.Total}}</b>Total</div>
<div class="stat"><b>{{.Stats.Senior}}</b>Senior</div>
<div class="stat"><b>{{.Stats.Mid}}</b>Mid Level</div>
<div class="stat"><b>{{.Stats.Entry}}</b>Entry Level</div>
<div class="stat"><b>{{.Stats.Remote}}</b>Remote</div>
</div>
{{range .Sections}}
<h2>{{.Name}} ({{len .Jobs}})</h2>
{{range .Jobs}}
<div class="job">
<a href="{{.Link}}" target="_blank" rel="noopener">{{.Title}}</a>
<div class="meta">{{.Employer}} · {{.Location}} · score {{.Score}}</div>
<div class="meta">
{{with .Badge}}<span class="badge {{.Class}}">{{.Icon}} {{.Text}}</span>{{end}}
{{if .QuickApply}}<span class="badge apply">✅ Easy Apply</span>{{end}}
{{if .Keywords}}<span>{{.Keywords}}</span>{{end}}
</div>
</div>
{{end}}
{{else}}
<p>No matching jobs in this run.</p>
{{end}}
</body>
</html>
`))

// BuildPage groups records into sections and counts the summary boxes.
func BuildPage(title string, generatedAt time.Time, recs []model.ScoredRecord) HTMLPage {
	groups := Group(recs)
	page := HTMLPage{
		Title:       title,
		GeneratedAt: generatedAt.Format("2006-01-02 15:04 MST"),
		Stats: HTMLStats{
			Total:  len(recs),
			Senior: len(groups[CategorySenior]),
			Mid:    len(groups[CategoryMidLevel]),
			Entry:  len(groups[CategoryEntryLevel]),
			Remote: len(groups[CategoryRemote]),
		},
	}
	for _, c := range CategoryOrder {
		jobs := groups[c]
		if len(jobs) == 0 {
			continue
		}
		section := HTMLSection{Name: string(c), Jobs: make([]HTMLJob, 0, len(jobs))}
		for _, r := range jobs {
			j := HTMLJob{
				Title:      r.Title,
				Employer:   r.Employer,
				Location:   r.Location,
				Link:       r.Link,
				QuickApply: r.QuickApply,
				Score:      r.TotalScore,
				Keywords:   r.SourceKeywords,
			}
			if b, ok := AgeBadge(r.HoursSincePosted); ok {
				j.Badge = &b
			}
			section.Jobs = append(section.Jobs, j)
		}
		page.Sections = append(page.Sections, section)
	}
	return page
}

// WriteHTML renders the report page.
func WriteHTML(w io.Writer, page HTMLPage) error {
	if err := htmlTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
