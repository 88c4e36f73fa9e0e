package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-kiosk/internal/httpc"
)

const (
	openAIChatURL  = "https://api.openai.com/v1/chat/completions"
	providerOpenAI = "openai"

	// ModelGPT4oMini is the default chat model.
	ModelGPT4oMini = "gpt-4o-mini"
)

// OpenAI implements Provider with the chat completions API.
type OpenAI struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewOpenAI creates an OpenAI chat provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Model = ModelGPT4oMini
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIChatURL
	}

	return &OpenAI{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "assistant.openai"),
		baseURL: baseURL,
	}, nil
}

// Name implements Provider.
func (o *OpenAI) Name() string { return providerOpenAI }

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete implements Provider.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", ErrNoMessages
	}
	start := time.Now()

	msgs := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: req.System})
	}
	msgs = append(msgs, req.Messages...)

	body := chatRequest{Model: o.config.Model, Messages: msgs, Temperature: o.config.Temperature}
	headers := map[string]string{"Authorization": "Bearer " + o.config.APIKey}

	var resp chatResponse
	if err := o.doWithRetry(ctx, body, headers, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", WrapError(providerOpenAI, ErrEmptyReply)
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)

	o.logger.Debug("chat completion",
		"model", o.config.Model,
		"messages", len(msgs),
		"reply_chars", len(reply),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}

// doWithRetry retries rate limited and server errors with linear backoff.
func (o *OpenAI) doWithRetry(ctx context.Context, body chatRequest, headers map[string]string, out *chatResponse) error {
	var lastErr error

	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.config.RetryDelay * time.Duration(attempt)):
			}
		}

		err := httpc.DoJSON(ctx, o.client, http.MethodPost, o.baseURL, headers, body, out)
		if err == nil {
			return nil
		}

		var se *httpc.StatusError
		if !errors.As(err, &se) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = WrapError(providerOpenAI, err)
			continue
		}

		apiErr := parseError(se)
		if !apiErr.IsRetryable() {
			return apiErr
		}
		lastErr = apiErr
		o.logger.Warn("retrying request",
			"attempt", attempt+1,
			"status", se.StatusCode,
		)
	}

	return lastErr
}

func parseError(se *httpc.StatusError) *APIError {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message, code := se.Body, ""
	if json.Unmarshal([]byte(se.Body), &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}
	return &APIError{StatusCode: se.StatusCode, Message: message, Code: code, Provider: providerOpenAI}
}

// String describes the provider for logs.
func (o *OpenAI) String() string {
	return fmt.Sprintf("openai(%s)", o.config.Model)
}

var _ Provider = (*OpenAI)(nil)
