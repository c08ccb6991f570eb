package assistant

import (
	"strings"

	"novachat/app/client/answer"

	"github.com/tmc/langchaingo/llms"
)

const messageHistorySize = 10

// historyMessages keeps well-formed user and assistant turns, newest last, at most messageHistorySize of them.
func historyMessages(history []answer.HistoryMessage) []llms.MessageContent {
	var messages []llms.MessageContent

	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}

		switch msg.Role {
		case answer.RoleUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, content))
		case answer.RoleAssistant:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, content))
		}
	}

	if len(messages) > messageHistorySize {
		messages = messages[len(messages)-messageHistorySize:]
	}

	return messages
}
