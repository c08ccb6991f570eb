package thread

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	ChatsKey        = "nova.nexus.chats.v1"
	ActiveThreadKey = "nova.nexus.activeChatId.v1"

	DefaultTitle   = "New Chat"
	MaxTitleLength = 42
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Source struct {
	Type      string `json:"type,omitempty"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Published string `json:"published,omitempty"`
	Engine    string `json:"engine,omitempty"`
	Preview   string `json:"preview,omitempty"`
}

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewMessage(role Role, content string, sources []Source) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Sources:   sources,
		CreatedAt: time.Now(),
	}
}

type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

func (t *Thread) clone() Thread {
	c := *t
	c.Messages = make([]Message, len(t.Messages))
	for i, msg := range t.Messages {
		c.Messages[i] = msg
		c.Messages[i].Sources = slices.Clone(msg.Sources)
	}

	return c
}

// MessageIndex returns the position of the message in the log or -1.
func (t Thread) MessageIndex(messageID string) int {
	for i, msg := range t.Messages {
		if msg.ID == messageID {
			return i
		}
	}

	return -1
}

// Selection is the active thread pointer. Draft and a non-empty ActiveThreadID never coexist.
type Selection struct {
	ActiveThreadID string `json:"activeThreadId,omitempty"`
	Draft          bool   `json:"draft"`
}
