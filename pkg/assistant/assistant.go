// Package assistant answers free-form kiosk questions with an LLM.
//
// Providers implement a single chat completion call. OpenAI is the primary
// provider; Gemini can follow it in a Chain. Service adds the kiosk system
// prompt, the current menu and best-effort persistence of each turn.
//
// Example usage:
//
//	provider, _ := assistant.NewOpenAI(
//	    assistant.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
//	svc := assistant.NewService(provider, menu, turns)
//	reply, _ := svc.Reply(ctx, "session-1", messages)
package assistant

import "context"

// Role of a conversation message.
type Role string

// Roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion request.
type Request struct {
	System   string
	Messages []Message
}

// Provider completes a conversation.
type Provider interface {
	// Complete returns the assistant reply to req.
	Complete(ctx context.Context, req Request) (string, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// FallbackReply is spoken when a provider returns an empty answer.
const FallbackReply = "죄송해요, 다시 말씀해 주시겠어요?"

// LastUserMessage returns the content of the last user message.
func LastUserMessage(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
