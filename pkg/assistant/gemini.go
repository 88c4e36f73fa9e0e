package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const (
	providerGemini = "gemini"

	// ModelGeminiFlash is the default Gemini model.
	ModelGeminiFlash = "gemini-2.0-flash"
)

// Gemini implements Provider with the Google GenAI SDK.
type Gemini struct {
	config *Config
	client *genai.Client
	logger *slog.Logger
}

// NewGemini creates a Gemini provider.
func NewGemini(ctx context.Context, opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.Model = ModelGeminiFlash
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("create client: %w", err))
	}

	return &Gemini{
		config: cfg,
		client: client,
		logger: cfg.Logger.With("component", "assistant.gemini"),
	}, nil
}

// Name implements Provider.
func (g *Gemini) Name() string { return providerGemini }

// Complete implements Provider.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", ErrNoMessages
	}

	contents := toGeminiContents(req.Messages)
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.config.Temperature)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, contents, cfg)
	if err != nil {
		return "", WrapError(providerGemini, err)
	}
	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", WrapError(providerGemini, ErrEmptyReply)
	}

	g.logger.Debug("generate content", "model", g.config.Model, "reply_chars", len(reply))
	return reply, nil
}

// toGeminiContents maps chat roles onto Gemini roles. System messages are
// carried by the system instruction and skipped here.
func toGeminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleUser))
		case RoleAssistant:
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleModel))
		}
	}
	return out
}

var _ Provider = (*Gemini)(nil)
