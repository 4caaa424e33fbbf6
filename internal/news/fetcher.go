package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/oghuzrustamli/iranisrael/internal/model"
)

// Fetcher queries the article source (a GNews-style search API) for one
// topic at a time. Requests are throttled with a shared limiter so a full
// query sweep stays polite to the upstream.
type Fetcher struct {
	cfg        model.NewsConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewFetcher creates a fetcher from configuration.
func NewFetcher(cfg model.NewsConfig, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxPerQuery <= 0 {
		cfg.MaxPerQuery = 10
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// Search fetches articles for one topic query, newest first, restricted
// to publications after the configured cutoff date. Article descriptions
// are stripped of HTML markup before they reach the extraction prompt.
func (f *Fetcher) Search(ctx context.Context, query string) ([]model.Article, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":      {query},
		"from":   {f.cfg.CutoffDate.UTC().Format("2006-01-02")},
		"lang":   {f.cfg.Lang},
		"max":    {fmt.Sprintf("%d", f.cfg.MaxPerQuery)},
		"sortby": {"publishedAt"},
		"apikey": {f.cfg.APIKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("article source status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Articles []model.Article `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}

	for i := range payload.Articles {
		payload.Articles[i].Description = StripHTML(payload.Articles[i].Description)
	}

	f.logger.Debug("fetched articles", "query", query, "count", len(payload.Articles))
	return payload.Articles, nil
}

// StripHTML flattens markup to the visible text, skipping script/style
// content. Plain text passes through unchanged.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return buf.String()
}
