// Package tts turns kiosk prompts into speech audio.
//
// OpenAI speech is the remote provider. Chain tries providers in order so a
// second backend can take over when the first fails, and Mock serves tests.
// When every provider fails the caller falls back to the on-device voice
// (see package speech).
//
// Example usage:
//
//	provider, _ := tts.NewOpenAI(
//	    tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    tts.WithVoice(tts.VoiceNova),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "어떤 메뉴를 드릴까요?")
//	// result.Audio holds mp3 bytes
package tts

import "context"

// Provider synthesizes speech.
type Provider interface {
	// Synthesize converts text to a complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult is a complete synthesis result.
type AudioResult struct {
	Audio     []byte
	Format    Encoding
	CharCount int
	LatencyMs int64
}

// Encoding is an audio container format accepted by the speech API.
type Encoding string

// Encodings.
const (
	EncodingMP3  Encoding = "mp3"
	EncodingOpus Encoding = "opus"
	EncodingAAC  Encoding = "aac"
	EncodingWAV  Encoding = "wav"
)

// Valid reports whether e is a supported encoding.
func (e Encoding) Valid() bool {
	switch e {
	case EncodingMP3, EncodingOpus, EncodingAAC, EncodingWAV:
		return true
	}
	return false
}
