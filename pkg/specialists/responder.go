package specialists

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// HistoryTurn is one prior conversation turn fed to the model.
type HistoryTurn struct {
	FromUser bool
	Content  string
}

// Respond generates the specialist's reply to the input, preceded by
// the persona system prompt and the recent conversation history.
func Respond(ctx context.Context, model llms.Model, specialist Specialist, history []HistoryTurn, input string) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, specialist.Template()))

	for _, turn := range history {
		role := schema.ChatMessageTypeAI
		if turn.FromUser {
			role = schema.ChatMessageTypeHuman
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}

	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, input))

	resp, err := model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
