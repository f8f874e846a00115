package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobmate/digest-service/internal/model"
)

const (
	linkedInSearchURL = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"
	linkedInOrigin    = "https://www.linkedin.com"
	linkedInPageSize  = 25
	linkedInMaxPages  = 3
	linkedInPastDay   = "r86400"
)

// LinkedInSearcher reads the public guest job-search listing. It asks for
// postings from the past 24 hours, newest first.
type LinkedInSearcher struct {
	client  *Client
	baseURL string
	now     Clock
	log     *slog.Logger
}

// NewLinkedInSearcher constructs a searcher. baseURL may be empty to use the
// public endpoint.
func NewLinkedInSearcher(client *Client, baseURL string, now Clock, log *slog.Logger) *LinkedInSearcher {
	if baseURL == "" {
		baseURL = linkedInSearchURL
	}
	if now == nil {
		now = time.Now
	}
	return &LinkedInSearcher{client: client, baseURL: baseURL, now: now, log: log.With("component", "linkedin")}
}

// Name implements Searcher.
func (s *LinkedInSearcher) Name() string { return "linkedin" }

// Search fetches up to min(3, max/25+1) pages and stops early on an empty
// page or once MaxResults records were collected.
func (s *LinkedInSearcher) Search(ctx context.Context, q Query) ([]model.RawRecord, error) {
	limit := q.MaxResults
	if limit <= 0 {
		limit = linkedInPageSize
	}
	pages := min(linkedInMaxPages, limit/linkedInPageSize+1)

	var records []model.RawRecord
	for page := 0; page < pages; page++ {
		body, err := s.client.Get(ctx, s.pageURL(q, page), browserHeaders(linkedInOrigin+"/jobs/search"))
		if err != nil {
			if len(records) > 0 {
				s.log.Warn("stopping after failed page", "keywords", q.Keywords, "location", q.Location, "page", page+1, "err", err)
				return records, nil
			}
			return nil, fmt.Errorf("page %d: %w", page+1, err)
		}

		batch, err := ParseLinkedInCards(body, q, s.now())
		if err != nil {
			return records, fmt.Errorf("page %d: %w", page+1, err)
		}
		s.log.Debug("fetched page", "keywords", q.Keywords, "location", q.Location, "page", page+1, "cards", len(batch))
		if len(batch) == 0 {
			break
		}

		for _, r := range batch {
			records = append(records, r)
			if len(records) >= limit {
				return records, nil
			}
		}
	}
	return records, nil
}

func (s *LinkedInSearcher) pageURL(q Query, page int) string {
	params := url.Values{}
	params.Set("keywords", q.Keywords)
	params.Set("location", q.Location)
	params.Set("f_TPR", linkedInPastDay)
	params.Set("sortBy", "DD")
	params.Set("start", strconv.Itoa(page*linkedInPageSize))
	return s.baseURL + "?" + params.Encode()
}

// ParseLinkedInCards extracts job cards from one page of listing HTML. Cards
// without a link or title are skipped.
func ParseLinkedInCards(body []byte, q Query, collectedAt time.Time) ([]model.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var records []model.RawRecord
	doc.Find("li").Each(func(_ int, card *goquery.Selection) {
		link := card.Find(`a[data-tracking-control-name="public_jobs_jserp-result_search-card"]`).First()
		if link.Length() == 0 {
			link = card.Find("a.base-card__full-link").First()
		}
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		title := strings.TrimSpace(card.Find("h3.base-search-card__title").First().Text())
		if title == "" {
			return
		}

		employer := strings.TrimSpace(card.Find("h4.base-search-card__subtitle").First().Text())
		if employer == "" {
			employer = "N/A"
		}

		location := strings.TrimSpace(card.Find("span.job-search-card__location").First().Text())
		if location == "" {
			location = q.Location
		}

		postedAt := model.UnknownPostedAt
		if dt, ok := card.Find("time").First().Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			postedAt = strings.TrimSpace(dt)
		}

		quickApply := false
		card.Find("span").EachWithBreak(func(_ int, sp *goquery.Selection) bool {
			if strings.Contains(sp.Text(), "Easy Apply") {
				quickApply = true
				return false
			}
			return true
		})

		records = append(records, model.RawRecord{
			Title:          title,
			Employer:       employer,
			Location:       location,
			Link:           fixLinkedInLink(href),
			PostedAt:       postedAt,
			QuickApply:     quickApply,
			SourceKeywords: q.Keywords,
			CollectedAt:    collectedAt,
			Source:         "linkedin",
		})
	})
	return records, nil
}

// fixLinkedInLink turns relative and doubled-domain hrefs into absolute job
// URLs.
func fixLinkedInLink(href string) string {
	href = strings.TrimSpace(href)
	var link string
	switch {
	case strings.HasPrefix(href, "https://"), strings.HasPrefix(href, "http://"):
		link = href
	case strings.HasPrefix(href, "/jobs/view/"):
		link = linkedInOrigin + href
	default:
		id := href
		if i := strings.LastIndexByte(id, '/'); i >= 0 {
			id = id[i+1:]
		}
		id, _, _ = strings.Cut(id, "?")
		link = linkedInOrigin + "/jobs/view/" + id
	}
	link = strings.Replace(link, linkedInOrigin+"https://", "https://", 1)
	link = strings.Replace(link, linkedInOrigin+"//", linkedInOrigin+"/", 1)
	return link
}
