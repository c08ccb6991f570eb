package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"novachat/app/client/answer"
	"novachat/app/config"

	_ "embed"

	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

//go:embed base_prompt.txt
var basePrompt string

//go:embed grounded_prompt.txt
var groundedPrompt string

const (
	groundedTemperature = 0.25
	defaultTemperature  = 0.45
	maxTokens           = 900
	maxGenerateDuration = 90 * time.Second
)

type Generation struct {
	Question string
	// Context is the retrieved knowledge for this turn, empty when there is none
	Context  string
	History  []answer.HistoryMessage
	Grounded bool
}

// LLMGenerator answers through an OpenAI compatible chat completion endpoint.
type LLMGenerator struct {
	model   llms.Model
	timeout time.Duration
	now     func() time.Time
}

func NewGenerator(di *do.Injector) (*LLMGenerator, error) {
	cfg := do.MustInvoke[*config.Config](di)

	token := cfg.LLM.Token
	if token == "" {
		token = os.Getenv("GROQ_API_KEY")
	}

	var model llms.Model

	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(cfg.LLM.BaseURL),
		openai.WithModel(cfg.LLM.Model),
		openai.WithCallback(LogCallbackHandler{}),
	)
	if err != nil {
		// the HTTP API stays up; /ask reports the missing model per request
		slog.Warn("LLM is not configured", "error", err)
	} else {
		model = llm
	}

	return NewLLMGenerator(model, cfg.LLM.Timeout), nil
}

func NewLLMGenerator(model llms.Model, timeout time.Duration) *LLMGenerator {
	if timeout <= 0 {
		timeout = maxGenerateDuration
	}

	return &LLMGenerator{
		model:   model,
		timeout: timeout,
		now:     time.Now,
	}
}

func (g *LLMGenerator) Generate(ctx context.Context, gen Generation) (string, error) {
	if g.model == nil {
		return "", oops.In("assistant").Code("llm_unavailable").Errorf("LLM is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	temperature := defaultTemperature
	if gen.Grounded {
		temperature = groundedTemperature
	}

	resp, err := g.model.GenerateContent(ctx, g.messages(gen),
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", oops.In("assistant").Code("generation").Wrapf(err, "failed to generate answer")
	}

	if len(resp.Choices) == 0 {
		return "", oops.In("assistant").Code("generation").Errorf("no completion choices")
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func (g *LLMGenerator) messages(gen Generation) []llms.MessageContent {
	system := basePrompt
	if gen.Grounded {
		system = groundedPrompt
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
	}

	if strings.TrimSpace(gen.Context) != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(
			"Today is %s (UTC). Use this context as your knowledge base for this turn:\n\n%s",
			g.now().UTC().Format(time.DateOnly),
			truncateRunes(gen.Context, maxContextChars),
		)))
	}

	messages = append(messages, historyMessages(gen.History)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, strings.TrimSpace(gen.Question)))

	return messages
}
