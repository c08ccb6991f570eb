// Package assistant is the answering service behind /ask: optional live web retrieval followed
// by an LLM answer grounded on what was found.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"novachat/app/client/answer"
	"novachat/app/client/websearch"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const (
	DefaultTopK     = 5
	maxSearchTopK   = 8
	maxLiveHits     = 5
	maxPreviewChars = 220
	maxContextChars = 12000

	intentWeb  = "web"
	intentChat = "chat"
)

var summaryPattern = regexp.MustCompile(`(?i)\bsummary|summarize\b`)

type Searcher interface {
	Search(ctx context.Context, query string, topK int, freshOnly bool) []websearch.Hit
}

type Generator interface {
	Generate(ctx context.Context, gen Generation) (string, error)
}

type Service struct {
	searcher  Searcher
	generator Generator
	now       func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*websearch.Client](di),
		do.MustInvoke[*LLMGenerator](di),
	), nil
}

func NewService(searcher Searcher, generator Generator, opts ...Option) *Service {
	s := &Service{
		searcher:  searcher,
		generator: generator,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Ask(ctx context.Context, req *answer.AskRequest) (*answer.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, oops.In("assistant").Code("bad_request").Errorf("Question cannot be empty")
	}

	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	mode := req.Mode
	if mode == "" {
		mode = answer.ModeAuto
	}

	webFocused := looksWebFocused(question)
	includeWeb := req.UseWeb || mode == answer.ModeWeb || (mode == answer.ModeAuto && webFocused)
	freshnessRequired := webFocused

	var (
		sources      = []answer.Source{}
		contextParts []string
	)

	if includeWeb {
		hits := s.searcher.Search(ctx, question, min(topK, maxSearchTopK), freshnessRequired)

		if freshnessRequired {
			hits = filterFreshHits(hits, question, s.now())

			slog.Info("Live search finished",
				"question", question,
				"hits", len(hits),
			)

			if len(hits) == 0 {
				return &answer.AskResponse{
					Answer: fmt.Sprintf(
						"I could not fetch sufficiently recent live results right now (as of %s UTC). Please retry in a moment.",
						s.today(),
					),
					Intent:  intentWeb,
					Sources: []answer.Source{},
				}, nil
			}

			live := hits[:min(len(hits), maxLiveHits)]

			return &answer.AskResponse{
				Answer:     s.liveAnswer(question, live),
				Intent:     intentWeb,
				Sources:    pie.Map(live, hitSource),
				Grounded:   true,
				HasContext: true,
			}, nil
		}

		for _, hit := range hits {
			sources = append(sources, hitSource(hit))
			contextParts = append(contextParts, contextBlock(hit))
		}
	}

	knowledge := truncateRunes(strings.TrimSpace(strings.Join(contextParts, "\n\n")), maxContextChars)
	grounded := knowledge != ""

	text, err := s.generator.Generate(ctx, Generation{
		Question: question,
		Context:  knowledge,
		History:  req.Messages,
		Grounded: grounded,
	})
	if err != nil {
		return nil, err
	}

	intent := intentChat
	if includeWeb {
		intent = intentWeb
	}

	return &answer.AskResponse{
		Answer:     text,
		Intent:     intent,
		Sources:    sources,
		Grounded:   grounded,
		HasContext: grounded,
	}, nil
}

func (s *Service) today() string {
	return s.now().UTC().Format(time.DateOnly)
}

func (s *Service) liveAnswer(question string, hits []websearch.Hit) string {
	lines := []string{fmt.Sprintf("Live web results as of %s UTC:", s.today())}

	for i, hit := range hits {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, orDefault(strings.TrimSpace(hit.Title), "Untitled"), orDefault(hit.Published, "unknown")))

		if snippet := strings.TrimSpace(hit.Snippet); snippet != "" {
			lines = append(lines, "   "+truncateRunes(snippet, maxPreviewChars))
		}
		if url := strings.TrimSpace(hit.URL); url != "" {
			lines = append(lines, "   Source: "+url)
		}
	}

	if summaryPattern.MatchString(question) {
		lines = append(lines, "Summary: These are the freshest available headlines from live web search.")
	}

	return strings.Join(lines, "\n")
}

func hitSource(hit websearch.Hit) answer.Source {
	return answer.Source{
		Type:      "web",
		Title:     hit.Title,
		URL:       hit.URL,
		Published: hit.Published,
		Engine:    hit.Engine,
		Preview:   truncateRunes(hit.Snippet, maxPreviewChars),
	}
}

func contextBlock(hit websearch.Hit) string {
	return fmt.Sprintf("[WEB title=%s date=%s engine=%s]\n%s\nSource: %s",
		hit.Title,
		orDefault(hit.Published, "unknown"),
		orDefault(hit.Engine, "unknown"),
		hit.Snippet,
		hit.URL,
	)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit])
}
