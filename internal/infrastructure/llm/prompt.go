package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/you/companionsvc/domain"
)

// Options tunes a chat model call
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// turn is one exchange as seen by a model: the user side may be empty for
// scripted openers.
type turn struct {
	user      string
	assistant string
}

// PersonaPrompt renders the system instruction for a bot
func PersonaPrompt(bot *domain.Bot) string {
	p := bot.Profile
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, an AI companion. Stay in character for the whole conversation.\n", p.Name)
	field := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, v)
		}
	}
	field("Type", p.TypeOfBot)
	field("Bio", p.Bio)
	field("Situation", p.Situation)
	field("Back story", p.BackStory)
	field("Personality", p.Personality)
	field("Way of chatting", p.ChattingWay)
	field("Your opening line was", p.FirstMessage)
	b.WriteString("Reply as this character in a natural, conversational tone. Never mention that you are a language model.")

	return b.String()
}

func turns(history []*domain.ChatMessage) []turn {
	out := make([]turn, 0, len(history))
	for _, m := range history {
		t := turn{assistant: m.Response}
		if !m.IsSystemMessage {
			t.user = m.Message
		}
		if t.user == "" && t.assistant == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}
