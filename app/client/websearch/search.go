// Package websearch fetches web results from the DuckDuckGo HTML endpoint.
package websearch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"novachat/app/config"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const (
	DefaultBaseURL = "https://html.duckduckgo.com/html/"
	DefaultTimeout = 15 * time.Second
	DefaultTopK    = 5
)

type Client struct {
	baseURL   string
	timeout   time.Duration
	topK      int
	userAgent string
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	client := New(DefaultBaseURL, cfg.Search.Timeout, cfg.Search.TopK)
	client.userAgent = cfg.Search.UserAgent

	return client, nil
}

func New(baseURL string, timeout time.Duration, topK int) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		topK:    topK,
	}
}

// Search returns at most topK hits that carry a snippet. Fresh-only queries try the past week
// first and fall back to an unrestricted search when that yields nothing.
// Failures are logged and produce no hits.
func (c *Client) Search(ctx context.Context, query string, topK int, freshOnly bool) []Hit {
	if topK <= 0 {
		topK = c.topK
	}

	if freshOnly {
		hits, err := c.fetch(ctx, query, true)
		if err != nil {
			slog.Warn("Web search failed",
				"engine", EngineNews,
				"error", err,
			)
			return nil
		}
		if len(hits) > 0 {
			return truncate(hits, topK)
		}
	}

	hits, err := c.fetch(ctx, query, false)
	if err != nil {
		slog.Warn("Web search failed",
			"engine", EngineText,
			"error", err,
		)
		return nil
	}

	return truncate(hits, topK)
}

func (c *Client) fetch(ctx context.Context, query string, pastWeek bool) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	params := url.Values{}
	params.Set("q", query)
	engine := EngineText
	if pastWeek {
		params.Set("df", "w")
		engine = EngineNews
	}

	agent := fiber.Get(c.baseURL)
	agent.QueryString(params.Encode())
	agent.Timeout(timeout)
	if c.userAgent != "" {
		agent.UserAgent(c.userAgent)
	}
	if err := agent.Parse(); err != nil {
		return nil, oops.In("websearch").Code("transport").Wrapf(err, "invalid search url")
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, oops.In("websearch").Code("transport").Wrapf(errors.Join(errs...), "search engine unreachable")
	}
	if code != fiber.StatusOK {
		return nil, oops.In("websearch").Code("status").With("status", code).Errorf("search engine answered %d", code)
	}

	return parseResults(body, engine)
}

func parseResults(body []byte, engine string) ([]Hit, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, oops.In("websearch").Code("malformed").Wrapf(err, "failed to parse result page")
	}

	var hits []Hit
	doc.Find(".result").Each(func(_ int, result *goquery.Selection) {
		if result.HasClass("result--ad") {
			return
		}

		link := result.Find("a.result__a").First()
		snippet := collapse(result.Find(".result__snippet").First().Text())
		if snippet == "" {
			return
		}

		href, _ := link.Attr("href")

		hits = append(hits, Hit{
			Title:     collapse(link.Text()),
			Snippet:   snippet,
			URL:       resolveLink(href),
			Published: findDate(result),
			Engine:    engine,
		})
	})

	return hits, nil
}

// resolveLink unwraps DuckDuckGo's redirect links ("//duckduckgo.com/l/?uddg=<target>").
func resolveLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}

	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}

	return href
}

func findDate(result *goquery.Selection) string {
	var published string

	result.Find(".result__timestamp, .result__extras__url span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		published = normalizeDate(s.Text())
		return published == ""
	})

	return published
}

// normalizeDate returns the UTC calendar date as YYYY-MM-DD, or "" when the text is not a date.
func normalizeDate(value string) string {
	text := collapse(value)
	if text == "" {
		return ""
	}

	if len(text) >= 10 {
		if parsed, err := time.Parse(time.DateOnly, text[:10]); err == nil {
			return parsed.Format(time.DateOnly)
		}
	}

	parsed, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return ""
	}

	return parsed.UTC().Format(time.DateOnly)
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncate(hits []Hit, topK int) []Hit {
	if len(hits) > topK {
		return hits[:topK]
	}

	return hits
}
