// Package request runs questions against the answering service with single-flight semantics:
// only the most recently started request may write its result into a thread.
package request

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"novachat/app/client/answer"
	"novachat/app/service/intent"
	"novachat/app/service/thread"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

const (
	EmptyAnswerText   = "I could not generate a response from the backend. Please try again."
	FailedRequestText = "Request failed. Check backend status and try again."
)

type Asker interface {
	Ask(ctx context.Context, req *answer.AskRequest) (*answer.AskResponse, error)
}

type Appender interface {
	Append(threadID string, msg thread.Message) bool
}

type Job struct {
	ThreadID string
	Text     string
	Action   intent.Action
	UseWeb   bool
	// History is the conversation before Text, oldest first.
	History []thread.Message
}

type Controller struct {
	asker Asker
	sink  Appender

	// mu orders minting, cancelling and result application against each other
	mu         sync.Mutex
	generation atomic.Uint64
	current    atomic.Uint64
}

func New(di *do.Injector) (*Controller, error) {
	return NewController(
		do.MustInvoke[*answer.Client](di),
		do.MustInvoke[*thread.Store](di),
	), nil
}

func NewController(asker Asker, sink Appender) *Controller {
	return &Controller{
		asker: asker,
		sink:  sink,
	}
}

// Start makes a new request current, superseding any previous one, and runs it in the background.
// The returned channel is closed once the result was applied or discarded.
func (c *Controller) Start(ctx context.Context, job Job) <-chan struct{} {
	c.mu.Lock()
	token := c.generation.Add(1)
	previous := c.current.Swap(token)
	c.mu.Unlock()

	if previous != 0 {
		slog.Debug("Request superseded", "token", previous, "by", token)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.execute(ctx, token, job)
	}()

	return done
}

// Run is the blocking form of Start.
func (c *Controller) Run(ctx context.Context, job Job) {
	<-c.Start(ctx, job)
}

// Cancel forgets the current request. The network call keeps running; its result is dropped.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.current.Swap(0)
	if previous != 0 {
		slog.Info("Request cancelled", "token", previous)
	}

	return previous != 0
}

func (c *Controller) Loading() bool {
	return c.current.Load() != 0
}

func (c *Controller) execute(ctx context.Context, token uint64, job Job) {
	req := intent.BuildRequest(job.Text, job.Action, job.UseWeb, job.History)

	start := time.Now()
	resp, err := c.asker.Ask(ctx, req)
	msg := buildMessage(resp, err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.Load() != token {
		slog.Info("Discarded stale answer",
			"token", token,
			"thread_id", job.ThreadID,
			"duration", time.Since(start),
		)
		return
	}

	if err != nil {
		slog.Warn("Answering service failed",
			"thread_id", job.ThreadID,
			"mode", req.Mode,
			"error", err,
			"telegram", true,
		)
	}

	applied := c.sink.Append(job.ThreadID, msg)
	c.current.CompareAndSwap(token, 0)

	slog.Info("Processed request",
		"thread_id", job.ThreadID,
		"action", job.Action,
		"mode", req.Mode,
		"applied", applied,
		"duration", time.Since(start),
	)
}

func buildMessage(resp *answer.AskResponse, err error) thread.Message {
	if err != nil {
		content := strings.TrimSpace(err.Error())
		if content == "" {
			content = FailedRequestText
		}

		return thread.NewMessage(thread.RoleAssistant, content, nil)
	}

	if resp == nil || resp.Answer == "" {
		return thread.NewMessage(thread.RoleAssistant, EmptyAnswerText, nil)
	}

	sources := pie.Map(resp.Sources, func(s answer.Source) thread.Source {
		return thread.Source{
			Type:      s.Type,
			Title:     s.Title,
			URL:       s.URL,
			Published: s.Published,
			Engine:    s.Engine,
			Preview:   s.Preview,
		}
	})

	return thread.NewMessage(thread.RoleAssistant, resp.Answer, sources)
}
