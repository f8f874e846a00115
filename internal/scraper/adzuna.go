package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"jobmate/digest-service/internal/model"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3 // max 150 results per (title × location) pair
)

// AdzunaSearcher queries the Adzuna public API. If AppID or AppKey is
// empty, Search returns (nil, nil) and logs once per call.
type AdzunaSearcher struct {
	appID   string
	appKey  string
	country string // "in", "gb", "us", …
	baseURL string
	client  *Client
	now     Clock
	log     *slog.Logger
}

// NewAdzunaSearcher constructs a searcher sharing the given client. baseURL
// may be empty to use the public API.
func NewAdzunaSearcher(client *Client, appID, appKey, country, baseURL string, now Clock, log *slog.Logger) *AdzunaSearcher {
	if baseURL == "" {
		baseURL = adzunaBaseURL
	}
	if now == nil {
		now = time.Now
	}
	return &AdzunaSearcher{
		appID:   appID,
		appKey:  appKey,
		country: country,
		baseURL: baseURL,
		client:  client,
		now:     now,
		log:     log.With("component", "adzuna"),
	}
}

// Name implements Searcher.
func (a *AdzunaSearcher) Name() string { return "adzuna" }

// Enabled reports whether credentials are configured.
func (a *AdzunaSearcher) Enabled() bool { return a.appID != "" && a.appKey != "" }

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Company     adzunaCompany  `json:"company"`
	Location    adzunaLocation `json:"location"`
	RedirectURL string         `json:"redirect_url"`
	Created     string         `json:"created"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// Search pages through results until a short page, MaxResults or
// adzunaMaxPages is reached.
func (a *AdzunaSearcher) Search(ctx context.Context, q Query) ([]model.RawRecord, error) {
	if !a.Enabled() {
		a.log.Debug("ADZUNA_APP_ID / ADZUNA_APP_KEY not set, skipping")
		return nil, nil
	}

	var records []model.RawRecord
	for page := 1; page <= adzunaMaxPages; page++ {
		batch, err := a.fetchPage(ctx, q, page)
		if err != nil {
			return records, fmt.Errorf("page %d: %w", page, err)
		}
		for _, r := range batch {
			records = append(records, r)
			if q.MaxResults > 0 && len(records) >= q.MaxResults {
				return records, nil
			}
		}
		if len(batch) < adzunaPageSize {
			break
		}
	}
	return records, nil
}

func (a *AdzunaSearcher) fetchPage(ctx context.Context, q Query, page int) ([]model.RawRecord, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", a.baseURL, a.country, page)

	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", q.Keywords)
	params.Set("where", q.Location)
	params.Set("max_days_old", "1")
	params.Set("sort_by", "date")

	header := http.Header{}
	header.Set("Accept", "application/json")

	body, err := a.client.Get(ctx, endpoint+"?"+params.Encode(), header)
	if err != nil {
		return nil, err
	}

	var resp adzunaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	collected := a.now()
	records := make([]model.RawRecord, 0, len(resp.Results))
	for _, r := range resp.Results {
		posted := r.Created
		if posted == "" {
			posted = model.UnknownPostedAt
		}
		link := r.RedirectURL
		if link == "" {
			link = fmt.Sprintf("https://www.adzuna.%s/details/%s", a.country, r.ID)
		}
		records = append(records, model.RawRecord{
			Title:          r.Title,
			Employer:       r.Company.DisplayName,
			Location:       r.Location.DisplayName,
			Link:           link,
			PostedAt:       posted,
			SourceKeywords: q.Keywords,
			CollectedAt:    collected,
			Source:         "adzuna",
		})
	}
	return records, nil
}
