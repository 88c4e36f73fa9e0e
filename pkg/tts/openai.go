package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-kiosk/internal/httpc"
)

const (
	openAISpeechURL = "https://api.openai.com/v1/audio/speech"
	providerOpenAI  = "openai"

	maxErrorBody = 4 << 10
)

// OpenAI voices.
const (
	VoiceAlloy   = "alloy"
	VoiceNova    = "nova"
	VoiceShimmer = "shimmer"
)

// OpenAI speech models.
const (
	ModelTTS1   = "tts-1"
	ModelTTS1HD = "tts-1-hd"
)

// OpenAI implements Provider with the audio speech API.
type OpenAI struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewOpenAI creates an OpenAI TTS provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAISpeechURL
	}

	return &OpenAI{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.openai"),
		baseURL: baseURL,
	}, nil
}

type speechRequest struct {
	Model          string   `json:"model"`
	Voice          string   `json:"voice"`
	Input          string   `json:"input"`
	Speed          float64  `json:"speed"`
	ResponseFormat Encoding `json:"response_format"`
}

// Synthesize converts text to audio.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	start := time.Now()

	body, err := json.Marshal(speechRequest{
		Model:          o.config.Model,
		Voice:          o.config.Voice,
		Input:          text,
		Speed:          o.config.Speed,
		ResponseFormat: o.config.Format,
	})
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("marshal payload: %w", err))
	}

	audio, err := o.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}
	latency := time.Since(start).Milliseconds()

	o.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", o.config.Voice,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    o.config.Format,
		CharCount: len([]rune(text)),
		LatencyMs: latency,
	}, nil
}

// Close releases idle connections.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

// Voice returns the configured voice.
func (o *OpenAI) Voice() string {
	return o.config.Voice
}

// doWithRetry posts body, retrying rate limited and server errors with
// linear backoff.
func (o *OpenAI) doWithRetry(ctx context.Context, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.config.RetryDelay * time.Duration(attempt)):
			}
		}

		audio, err := o.post(ctx, body)
		if err == nil {
			return audio, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.IsRetryable() {
			return nil, apiErr
		}
		lastErr = err
		o.logger.Warn("retrying request", "attempt", attempt+1, "error", err)
	}

	return nil, lastErr
}

func (o *OpenAI) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, WrapError(providerOpenAI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}
	return audio, nil
}

func parseError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message, code := string(body), ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerOpenAI,
	}
}

var _ Provider = (*OpenAI)(nil)
