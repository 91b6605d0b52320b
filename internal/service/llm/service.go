package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/tanuki-create/voicechat/internal/config"
	"github.com/tanuki-create/voicechat/internal/model/conversation"
)

// Service generates replies through an eino chat chain backed by an
// OpenAI-compatible model.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the chat chain once at startup.
func NewService(ctx context.Context, cfg config.LLMConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{chatModel: chatModel, chain: runnable}, nil
}

// Generate runs the chain over the supplied history. The last user turn
// becomes the query; everything before it is placed in the history slot.
func (s *Service) Generate(ctx context.Context, history []conversation.Turn) (string, error) {
	query, prior := splitQuery(history)

	response, err := s.chain.Invoke(ctx, map[string]any{
		"system":  SystemPrompt,
		"history": buildHistoryMessages(prior),
		"query":   query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}

	log.Printf("[llm] generated reply length=%d", len(response.Content))
	return response.Content, nil
}

// splitQuery peels the trailing user turn off the history.
func splitQuery(history []conversation.Turn) (string, []conversation.Turn) {
	if len(history) == 0 {
		return "", nil
	}

	last := history[len(history)-1]
	if last.Role != conversation.RoleUser {
		return "", history
	}
	return last.Content, history[:len(history)-1]
}

func buildHistoryMessages(turns []conversation.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case conversation.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case conversation.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}

	return history
}
