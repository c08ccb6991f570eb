package clipboard

import (
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/samber/do"
)

// Sink writes text to the system clipboard. It never fails loudly: headless hosts
// simply have no clipboard.
type Sink struct {
	write  func(string) error
	system bool
}

func NewSink(_ *do.Injector) (*Sink, error) {
	return &Sink{write: clipboard.WriteAll, system: true}, nil
}

func New(write func(string) error) *Sink {
	return &Sink{write: write}
}

func (s *Sink) Write(text string) bool {
	if s.system && clipboard.Unsupported {
		slog.Debug("Clipboard is not supported on this host")
		return false
	}

	if err := s.write(text); err != nil {
		slog.Debug("Clipboard write failed", "error", err)
		return false
	}

	return true
}
