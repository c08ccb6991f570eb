package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

type Config struct {
	Log     Log     `yaml:"log"`
	Storage Storage `yaml:"storage"`
	Server  Server  `yaml:"server"`
	Answer  Answer  `yaml:"answer"`
	LLM     LLM     `yaml:"llm"`
	Search  Search  `yaml:"search"`
}

type Storage struct {
	// Storage backend for threads and the active thread pointer
	Driver string `yaml:"driver" example:"pebble" validate:"oneof=pebble file memory"`
	// Directory (pebble) or file (file) holding the data
	Path string `yaml:"path" example:"data/workspace"`
}

type Server struct {
	// Address the HTTP API listens on
	Listen string `yaml:"listen" example:":8000" validate:"required"`
}

type Answer struct {
	// Base url of the answering service
	BaseURL string `yaml:"base_url" example:"http://127.0.0.1:8000" validate:"required,url"`
	// Transport timeout for a single question
	Timeout time.Duration `yaml:"timeout" example:"2m" validate:"required"`
	// Number of retrieval hits requested per question
	TopK int `yaml:"top_k" example:"6" validate:"min=1,max=20"`
}

type LLM struct {
	// OpenAI compatible base url
	BaseURL string `yaml:"base_url" example:"https://api.groq.com/openai/v1" validate:"required"`
	// API token
	Token string `yaml:"token" example:"gsk_abc123456789DEF789ghi012JKL345mno678PQR901"`
	// Model name
	Model string `yaml:"model" example:"llama-3.1-8b-instant" validate:"required"`
	// Timeout of a single completion
	Timeout time.Duration `yaml:"timeout" example:"90s"`
}

type Search struct {
	// Timeout of a single web search
	Timeout time.Duration `yaml:"timeout" example:"15s"`
	// Number of hits returned by default
	TopK int `yaml:"top_k" example:"5" validate:"min=1,max=20"`
	// User agent sent to the search engine
	UserAgent string `yaml:"user_agent"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load(path string) (*Config, error) {
	var result Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	applyDefaults(&result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "pebble"
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Driver {
		case "file":
			cfg.Storage.Path = "data/workspace.jsonl"
		default:
			cfg.Storage.Path = "data/workspace"
		}
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8000"
	}
	if cfg.Answer.BaseURL == "" {
		cfg.Answer.BaseURL = "http://127.0.0.1:8000"
	}
	if cfg.Answer.Timeout == 0 {
		cfg.Answer.Timeout = 2 * time.Minute
	}
	if cfg.Answer.TopK == 0 {
		cfg.Answer.TopK = 6
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama-3.1-8b-instant"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 90 * time.Second
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 15 * time.Second
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}
	if cfg.Search.UserAgent == "" {
		cfg.Search.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	}
}
