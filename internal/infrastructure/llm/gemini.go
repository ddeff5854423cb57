package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/you/companionsvc/domain"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiChatModel implements domain.ChatModel with Google's Gemini API
type GeminiChatModel struct {
	client *genai.Client
	opts   Options
	logger *zap.Logger
}

// NewGeminiChatModel creates the GenAI client
func NewGeminiChatModel(ctx context.Context, apiKey string, opts Options, logger *zap.Logger) (*GeminiChatModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiChatModel{client: client, opts: opts, logger: logger}, nil
}

// Close releases the client
func (m *GeminiChatModel) Close() error {
	return m.client.Close()
}

// Reply implements domain.ChatModel
func (m *GeminiChatModel) Reply(ctx context.Context, bot *domain.Bot, history []*domain.ChatMessage, message string) (string, error) {
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	model := m.client.GenerativeModel(m.opts.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(PersonaPrompt(bot))},
	}
	if m.opts.Temperature > 0 {
		model.SetTemperature(m.opts.Temperature)
	}
	if m.opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(m.opts.MaxTokens))
	}

	session := model.StartChat()
	session.History = geminiHistory(history)

	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("%w: gemini bot %s: %v", domain.ErrChatModel, bot.BotID, err)
	}

	reply := geminiText(resp)
	if reply == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrChatModel)
	}
	m.logger.Debug("gemini reply", zap.String("bot_id", bot.BotID), zap.Int("candidates", len(resp.Candidates)))
	return reply, nil
}

// geminiHistory converts stored turns to chat contents. Gemini wants the
// history to open with a user turn and alternate roles, so leading model
// turns are dropped (the opener is already part of the persona) and
// consecutive turns of one role are merged.
func geminiHistory(history []*domain.ChatMessage) []*genai.Content {
	var contents []*genai.Content
	add := func(role, text string) {
		if text == "" {
			return
		}
		if len(contents) == 0 && role != "user" {
			return
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, genai.Text(text))
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(text)}})
	}
	for _, t := range turns(history) {
		add("user", t.user)
		add("model", t.assistant)
	}
	return contents
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

var _ domain.ChatModel = (*GeminiChatModel)(nil)
