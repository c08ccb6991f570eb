package assistant

import (
	"strings"
	"time"

	"novachat/app/client/websearch"

	"github.com/elliotchance/pie/v2"
)

var freshnessTriggers = []string{"latest", "today", "news", "current", "recent", "headline", "breaking"}

// looksWebFocused reports whether the question asks about something happening now.
func looksWebFocused(question string) bool {
	q := strings.ToLower(question)

	return pie.Any(freshnessTriggers, func(trigger string) bool {
		return strings.Contains(q, trigger)
	})
}

func freshnessWindowDays(question string) int {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "today"):
		return 1
	case strings.Contains(q, "this week"), strings.Contains(q, "weekly"):
		return 8
	case strings.Contains(q, "this month"):
		return 35
	default:
		return 14
	}
}

// filterFreshHits keeps hits published within the question's freshness window. Dates in the
// future are dropped. Undated hits survive only when the search itself was restricted to the
// past week.
func filterFreshHits(hits []websearch.Hit, question string, now time.Time) []websearch.Hit {
	today := truncateDay(now.UTC())
	window := freshnessWindowDays(question)

	return pie.Filter(hits, func(hit websearch.Hit) bool {
		published, ok := parseDay(hit.Published)
		if !ok {
			return hit.Engine == websearch.EngineNews
		}

		age := int(today.Sub(published).Hours() / 24)
		return age >= 0 && age <= window
	})
}

func parseDay(value string) (time.Time, bool) {
	text := strings.TrimSpace(value)
	if len(text) < 10 {
		return time.Time{}, false
	}

	parsed, err := time.Parse(time.DateOnly, text[:10])
	if err != nil {
		return time.Time{}, false
	}

	return parsed, true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
