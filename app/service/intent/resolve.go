// Package intent turns user text plus an optional selected action into an answering service request.
package intent

import (
	"strings"

	"novachat/app/client/answer"
	"novachat/app/service/thread"

	"github.com/elliotchance/pie/v2"
)

type Resolution struct {
	Action   Action
	Mode     answer.Mode
	Prefix   string
	Question string
	UseWeb   bool
}

// Infer returns the explicit action when set, otherwise the first catalog entry whose label
// starts the text, case-insensitively. "Plan B is risky" therefore resolves to plan.
func Infer(text string, explicit Action) Action {
	if explicit != ActionNone {
		return explicit
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	index := pie.FindFirstUsing(catalog, func(entry CatalogEntry) bool {
		return strings.HasPrefix(lower, strings.ToLower(entry.Label))
	})
	if index < 0 {
		return ActionNone
	}

	return catalog[index].Key
}

func ModeFor(action Action, useWeb bool) answer.Mode {
	if !useWeb {
		return answer.ModeChat
	}

	if action == ActionResearch || action == ActionLatest {
		return answer.ModeWeb
	}

	return answer.ModeAuto
}

func Resolve(rawText string, explicit Action, useWeb bool) Resolution {
	return resolve(rawText, Infer(rawText, explicit), useWeb)
}

// BuildRequest uses action as already decided by Infer and attaches the prior conversation,
// oldest first.
func BuildRequest(text string, action Action, useWeb bool, history []thread.Message) *answer.AskRequest {
	resolution := resolve(text, action, useWeb)

	return &answer.AskRequest{
		Question: resolution.Question,
		Messages: pie.Map(history, func(msg thread.Message) answer.HistoryMessage {
			return answer.HistoryMessage{
				Role:    string(msg.Role),
				Content: msg.Content,
			}
		}),
		Mode:   resolution.Mode,
		UseWeb: resolution.UseWeb,
	}
}

func resolve(rawText string, action Action, useWeb bool) Resolution {
	normalized := strings.TrimSpace(rawText)

	var prefix string
	if entry, ok := Lookup(action); ok {
		prefix = entry.Prefix
	}

	question := normalized
	if prefix != "" {
		question = prefix + " " + normalized
	}

	return Resolution{
		Action:   action,
		Mode:     ModeFor(action, useWeb),
		Prefix:   prefix,
		Question: question,
		UseWeb:   useWeb,
	}
}
