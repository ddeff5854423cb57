package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/companionsvc/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testBot() *domain.Bot {
	return &domain.Bot{
		BotID:  "b1",
		UserID: "u1",
		Profile: domain.BotProfile{
			Name:         "Aria",
			Bio:          "A stargazer",
			FirstMessage: "Hi, I am Aria!",
			Personality:  "gentle",
			ChattingWay:  "short sentences",
			Privacy:      domain.PrivacyPublic,
		},
	}
}

func testHistory() []*domain.ChatMessage {
	return []*domain.ChatMessage{
		{Message: "", Response: "Hi, I am Aria!", IsSystemMessage: true},
		{Message: "hello", Response: "hey you"},
		{Message: "how are you?", Response: "great"},
	}
}

func TestPersonaPrompt(t *testing.T) {
	prompt := PersonaPrompt(testBot())

	assert.Contains(t, prompt, "You are Aria")
	assert.Contains(t, prompt, "Bio: A stargazer")
	assert.Contains(t, prompt, "Personality: gentle")
	assert.Contains(t, prompt, "Way of chatting: short sentences")
	assert.NotContains(t, prompt, "Situation:")
}

func TestOpenAIChatModel_Reply(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "cmpl-1",
			Model: got.Model,
			Choices: []openai.ChatCompletionChoice{
				{Index: 0, Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "  nice to see you  "}},
			},
		})
	}))
	defer srv.Close()

	model := NewOpenAIChatModel("sk-test", srv.URL+"/v1", Options{Model: "gpt-test", Timeout: 5 * time.Second}, zap.NewNop())

	reply, err := model.Reply(context.Background(), testBot(), testHistory(), "tell me a story")
	require.NoError(t, err)
	assert.Equal(t, "nice to see you", reply)

	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 7)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "You are Aria")
	assert.Equal(t, openai.ChatMessageRoleAssistant, got.Messages[1].Role)
	assert.Equal(t, "Hi, I am Aria!", got.Messages[1].Content)
	assert.Equal(t, "hello", got.Messages[2].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[6].Role)
	assert.Equal(t, "tell me a story", got.Messages[6].Content)
}

func TestOpenAIChatModel_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			core, logs := observer.New(zapcore.DebugLevel)
			model := NewOpenAIChatModel("sk-test", srv.URL+"/v1", Options{Model: "gpt-test"}, zap.New(core))
			_, err := model.Reply(context.Background(), testBot(), nil, "hi")
			assert.ErrorIs(t, err, domain.ErrChatModel)

			// the HTTP layer logs the failure once
			assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		})
	}
}

func TestGeminiHistory(t *testing.T) {
	contents := geminiHistory(testHistory())

	require.Len(t, contents, 4)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, genai.Text("hello"), contents[0].Parts[0])
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, "model", contents[3].Role)
	assert.Equal(t, genai.Text("great"), contents[3].Parts[0])
}

func TestGeminiHistory_MergesSameRole(t *testing.T) {
	contents := geminiHistory([]*domain.ChatMessage{
		{Message: "one", Response: ""},
		{Message: "two", Response: "reply"},
	})

	require.Len(t, contents, 2)
	assert.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "model", contents[1].Role)
}

func TestGeminiText(t *testing.T) {
	assert.Equal(t, "", geminiText(nil))
	assert.Equal(t, "hello world", geminiText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("hello "), genai.Text("world")}}},
		},
	}))
}
