// Package workspace is the single coordinator of the chat workspace. Outer surfaces (HTTP, MCP)
// read snapshots and issue commands through it and never touch the thread store directly.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"novachat/app/client/clipboard"
	"novachat/app/service/intent"
	"novachat/app/service/request"
	"novachat/app/service/thread"

	"github.com/samber/do"
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrBusy            = errors.New("a request is already in flight")
	ErrNoActiveThread  = errors.New("no active thread")
	ErrMessageNotFound = errors.New("assistant message not found")
	ErrNoUserMessage   = errors.New("no user message precedes this answer")
	ErrUnknownAction   = errors.New("unknown action")
)

type Snapshot struct {
	Threads            []thread.Thread  `json:"threads"`
	Selection          thread.Selection `json:"selection"`
	SelectedAction     intent.Action    `json:"selectedAction,omitempty"`
	WebSearch          bool             `json:"webSearch"`
	Loading            bool             `json:"loading"`
	CanCreateNewThread bool             `json:"canCreateNewThread"`
}

// Pending is a started request.
type Pending struct {
	ThreadID string
	done     <-chan struct{}
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the answer was applied or discarded.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Service struct {
	threads   *thread.Store
	requests  *request.Controller
	clipboard *clipboard.Sink

	mu             sync.Mutex
	selectedAction intent.Action
	webSearch      bool
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*thread.Store](di),
		do.MustInvoke[*request.Controller](di),
		do.MustInvoke[*clipboard.Sink](di),
	), nil
}

func NewService(threads *thread.Store, requests *request.Controller, clipboardSink *clipboard.Sink) *Service {
	return &Service{
		threads:   threads,
		requests:  requests,
		clipboard: clipboardSink,
	}
}

// Send appends the user's text to the active thread, creating one when there is none
// (or in draft mode), and asks the answering service in the background.
func (s *Service) Send(ctx context.Context, text string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return nil, ErrEmptyMessage
	}
	if s.requests.Loading() {
		return nil, ErrBusy
	}

	var (
		threadID string
		history  []thread.Message
	)
	if active, ok := s.threads.Active(); ok {
		threadID = active.ID
		history = active.Messages
	} else {
		threadID = s.threads.Create(normalized)
	}

	action := intent.Infer(normalized, s.selectedAction)
	s.threads.Append(threadID, thread.NewMessage(thread.RoleUser, normalized, nil))
	s.selectedAction = intent.ActionNone

	slog.Info("Sending message",
		"thread_id", threadID,
		"action", action,
		"web_search", s.webSearch,
	)

	done := s.requests.Start(ctx, request.Job{
		ThreadID: threadID,
		Text:     normalized,
		Action:   action,
		UseWeb:   s.webSearch,
		History:  history,
	})

	return &Pending{ThreadID: threadID, done: done}, nil
}

// SendSuggestion sends one of the catalog suggestions as if typed.
func (s *Service) SendSuggestion(ctx context.Context, suggestion string) (*Pending, error) {
	return s.Send(ctx, suggestion)
}

// Regenerate replaces an assistant answer in the active thread with a fresh one,
// asked with the transcript as it was right before that answer.
func (s *Service) Regenerate(ctx context.Context, assistantMessageID string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.requests.Loading() {
		return nil, ErrBusy
	}

	active, ok := s.threads.Active()
	if !ok {
		return nil, ErrNoActiveThread
	}

	index := active.MessageIndex(assistantMessageID)
	if index < 0 || active.Messages[index].Role != thread.RoleAssistant {
		return nil, ErrMessageNotFound
	}

	history := active.Messages[:index]

	var lastUserText string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == thread.RoleUser {
			lastUserText = history[i].Content
			break
		}
	}
	if lastUserText == "" {
		return nil, ErrNoUserMessage
	}

	s.threads.RemoveMessage(active.ID, assistantMessageID)

	slog.Info("Regenerating answer",
		"thread_id", active.ID,
		"message_id", assistantMessageID,
	)

	done := s.requests.Start(ctx, request.Job{
		ThreadID: active.ID,
		Text:     lastUserText,
		Action:   intent.Infer(lastUserText, intent.ActionNone),
		UseWeb:   s.webSearch,
		History:  history,
	})

	return &Pending{ThreadID: active.ID, done: done}, nil
}

func (s *Service) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.requests.Cancel()
}

// NewThread enters draft mode; the thread itself is created by the next Send.
func (s *Service) NewThread() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.threads.RequestNewThread(s.requests.Loading()) {
		return false
	}

	s.selectedAction = intent.ActionNone

	return true
}

func (s *Service) SelectThread(threadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.threads.Select(threadID)
}

func (s *Service) DeleteThread(threadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := s.threads.Delete(threadID)
	if deleted {
		slog.Info("Thread deleted", "thread_id", threadID)
	}

	return deleted
}

// ToggleAction selects the action, or clears it when it is already selected.
func (s *Service) ToggleAction(key intent.Action) (intent.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := intent.Lookup(key); !ok {
		return s.selectedAction, ErrUnknownAction
	}

	if s.selectedAction == key {
		s.selectedAction = intent.ActionNone
	} else {
		s.selectedAction = key
	}

	return s.selectedAction, nil
}

func (s *Service) ClearAction() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedAction = intent.ActionNone
}

func (s *Service) SetWebSearch(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.webSearch = enabled
}

func (s *Service) ToggleWebSearch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.webSearch = !s.webSearch
	return s.webSearch
}

// Copy puts a message's content on the clipboard. Failures only show up as false.
func (s *Service) Copy(threadID, messageID string) bool {
	th, ok := s.threads.Get(threadID)
	if !ok {
		return false
	}

	index := th.MessageIndex(messageID)
	if index < 0 {
		return false
	}

	return s.clipboard.Write(th.Messages[index].Content)
}

func (s *Service) Thread(threadID string) (thread.Thread, bool) {
	return s.threads.Get(threadID)
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	loading := s.requests.Loading()

	return Snapshot{
		Threads:            s.threads.List(),
		Selection:          s.threads.Selection(),
		SelectedAction:     s.selectedAction,
		WebSearch:          s.webSearch,
		Loading:            loading,
		CanCreateNewThread: s.threads.CanCreateNewThread(loading),
	}
}
