package answer

type Mode string

const (
	ModeChat Mode = "chat"
	ModeAuto Mode = "auto"
	ModeWeb  Mode = "web"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type HistoryMessage struct {
	Role    string `json:"role" validate:"oneof=user assistant"`
	Content string `json:"content"`
}

type AskRequest struct {
	Question string           `json:"question"`
	Messages []HistoryMessage `json:"messages" validate:"dive"`
	TopK     int              `json:"top_k" validate:"min=1,max=20"`
	Mode     Mode             `json:"mode" validate:"oneof=auto chat web"`
	UseWeb   bool             `json:"use_web"`
}

type Source struct {
	Type      string `json:"type,omitempty"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Published string `json:"published,omitempty"`
	Engine    string `json:"engine,omitempty"`
	Preview   string `json:"preview,omitempty"`
}

type AskResponse struct {
	Answer     string   `json:"answer"`
	Intent     string   `json:"intent,omitempty"`
	Sources    []Source `json:"sources"`
	Grounded   bool     `json:"grounded"`
	HasContext bool     `json:"has_context"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}
