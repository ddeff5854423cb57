package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/you/companionsvc/domain"
	"go.uber.org/zap"
)

// OpenAIChatModel implements domain.ChatModel with the chat completions API
type OpenAIChatModel struct {
	client *openai.Client
	opts   Options
	logger *zap.Logger
}

// NewOpenAIChatModel creates a model client. An empty baseURL uses the public API.
func NewOpenAIChatModel(apiKey, baseURL string, opts Options, logger *zap.Logger) *OpenAIChatModel {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIChatModel{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
		logger: logger,
	}
}

// Reply implements domain.ChatModel
func (m *OpenAIChatModel) Reply(ctx context.Context, bot *domain.Bot, history []*domain.ChatMessage, message string) (string, error) {
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.opts.Model,
		Messages:    openAIMessages(bot, history, message),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: m.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai bot %s: %v", domain.ErrChatModel, bot.BotID, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrChatModel)
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrChatModel)
	}
	m.logger.Debug("openai reply",
		zap.String("bot_id", bot.BotID),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return reply, nil
}

func openAIMessages(bot *domain.Bot, history []*domain.ChatMessage, message string) []openai.ChatCompletionMessage {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: PersonaPrompt(bot)},
	}
	for _, t := range turns(history) {
		if t.user != "" {
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: t.user})
		}
		if t.assistant != "" {
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: t.assistant})
		}
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})
}

var _ domain.ChatModel = (*OpenAIChatModel)(nil)
