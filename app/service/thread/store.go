// Package thread owns the collection of conversation threads and the active thread pointer.
//
// Every mutation runs under one mutex, keeps the collection sorted by UpdatedAt (newest first),
// reconciles the selection and writes both storage keys before returning.
package thread

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"novachat/app/service/storage"

	"github.com/elliotchance/pie/v2"
	"github.com/google/uuid"
	"github.com/samber/do"
)

type Store struct {
	kv    storage.Store
	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	threads  []*Thread
	activeID string
	draft    bool
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

func New(di *do.Injector) (*Store, error) {
	s := NewStore(do.MustInvoke[storage.Store](di))
	s.Load()

	return s, nil
}

func NewStore(kv storage.Store, options ...Option) *Store {
	s := &Store{
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, option := range options {
		option(s)
	}

	return s
}

// Load replaces the in-memory state with what storage holds.
// Unreadable or corrupt data counts as no saved data.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.threads = nil
	s.activeID = ""
	s.draft = false

	raw, ok, err := s.kv.Get(ChatsKey)
	if err != nil {
		slog.Warn("Failed to read saved threads", "error", err)
	} else if ok {
		var threads []*Thread
		if err = json.Unmarshal([]byte(raw), &threads); err != nil {
			slog.Warn("Saved threads are corrupt, starting empty", "error", err)
		} else {
			s.threads = pie.Filter(threads, func(t *Thread) bool {
				return t != nil && t.ID != ""
			})
		}
	}

	activeID, ok, err := s.kv.Get(ActiveThreadKey)
	if err != nil {
		slog.Warn("Failed to read active thread", "error", err)
	} else if ok {
		s.activeID = activeID
	}

	s.commit()

	slog.Info("Threads loaded",
		"threads", len(s.threads),
		"active", s.activeID,
	)
}

// Create starts a thread titled after seedText, makes it active and returns its id.
func (s *Store) Create(seedText string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := &Thread{
		ID:        s.newID(),
		Title:     MakeTitle(seedText),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}

	s.threads = append([]*Thread{t}, s.threads...)
	s.activeID = t.ID
	s.draft = false
	s.commit()

	return t.ID
}

// Select makes an existing thread active. Unknown ids are ignored.
func (s *Store) Select(threadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(threadID) < 0 {
		return false
	}

	s.activeID = threadID
	s.draft = false
	s.commit()

	return true
}

// Delete removes the thread. Deleting the active thread clears the selection,
// after which reconciliation points it at the most recent remaining thread unless in draft.
func (s *Store) Delete(threadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(threadID)
	if index < 0 {
		return false
	}

	s.threads = append(s.threads[:index:index], s.threads[index+1:]...)
	if s.activeID == threadID {
		s.activeID = ""
	}
	s.commit()

	return true
}

// Append adds msg to the end of the thread log. A thread deleted in the meantime
// is never recreated: the call is dropped and reports false.
func (s *Store) Append(threadID string, msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(threadID)
	if index < 0 {
		slog.Debug("Dropped message for missing thread",
			"thread_id", threadID,
			"message_id", msg.ID,
		)
		return false
	}

	t := s.threads[index]
	if len(t.Messages) == 0 {
		t.Title = MakeTitle(msg.Content)
	}
	t.Messages = append(t.Messages, msg)
	s.touch(t)
	s.commit()

	return true
}

func (s *Store) RemoveMessage(threadID, messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(threadID)
	if index < 0 {
		return false
	}

	t := s.threads[index]
	msgIndex := t.MessageIndex(messageID)
	if msgIndex < 0 {
		return false
	}

	t.Messages = append(t.Messages[:msgIndex:msgIndex], t.Messages[msgIndex+1:]...)
	s.touch(t)
	s.commit()

	return true
}

// RequestNewThread switches to draft mode when CanCreateNewThread allows it.
func (s *Store) RequestNewThread(loading bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.canCreateNewThread(loading) {
		return false
	}

	s.draft = true
	s.activeID = ""
	s.commit()

	return true
}

func (s *Store) CanCreateNewThread(loading bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.canCreateNewThread(loading)
}

func (s *Store) canCreateNewThread(loading bool) bool {
	if loading || s.draft {
		return false
	}

	if active := s.active(); active != nil {
		return len(active.Messages) > 0
	}

	return pie.Any(s.threads, func(t *Thread) bool {
		return len(t.Messages) > 0
	})
}

func (s *Store) Get(threadID string) (Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(threadID)
	if index < 0 {
		return Thread{}, false
	}

	return s.threads[index].clone(), true
}

// Active returns the active thread. There is none in draft mode.
func (s *Store) Active() (Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.active()
	if active == nil {
		return Thread{}, false
	}

	return active.clone(), true
}

// List returns copies of all threads, most recently updated first.
func (s *Store) List() []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	return pie.Map(s.threads, func(t *Thread) Thread {
		return t.clone()
	})
}

func (s *Store) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Selection{
		ActiveThreadID: s.activeID,
		Draft:          s.draft,
	}
}

func (s *Store) active() *Thread {
	if s.draft {
		return nil
	}

	index := s.indexOf(s.activeID)
	if index < 0 {
		return nil
	}

	return s.threads[index]
}

func (s *Store) indexOf(threadID string) int {
	if threadID == "" {
		return -1
	}

	return pie.FindFirstUsing(s.threads, func(t *Thread) bool {
		return t.ID == threadID
	})
}

// touch bumps UpdatedAt without ever moving it backwards.
func (s *Store) touch(t *Thread) {
	now := s.now()
	if now.Before(t.UpdatedAt) {
		now = t.UpdatedAt
	}
	t.UpdatedAt = now
}

func (s *Store) commit() {
	s.threads = pie.SortStableUsing(s.threads, func(a, b *Thread) bool {
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	s.reconcile()
	s.save()
}

func (s *Store) reconcile() {
	if len(s.threads) == 0 {
		s.activeID = ""
		return
	}

	if s.draft {
		s.activeID = ""
		return
	}

	if s.indexOf(s.activeID) < 0 {
		s.activeID = s.threads[0].ID
	}
}

func (s *Store) save() {
	threads := s.threads
	if threads == nil {
		threads = []*Thread{}
	}

	data, err := json.Marshal(threads)
	if err != nil {
		slog.Error("Failed to encode threads", "error", err)
		return
	}

	if err = s.kv.Set(ChatsKey, string(data)); err != nil {
		slog.Error("Failed to save threads", "error", err)
	}

	if s.activeID != "" {
		err = s.kv.Set(ActiveThreadKey, s.activeID)
	} else {
		err = s.kv.Remove(ActiveThreadKey)
	}
	if err != nil {
		slog.Error("Failed to save active thread", "error", err)
	}
}
