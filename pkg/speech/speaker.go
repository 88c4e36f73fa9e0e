package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/teslashibe/go-kiosk/pkg/tts"
)

// AudioOutput plays encoded audio.
type AudioOutput interface {
	PlayAudio(ctx context.Context, audio []byte, format tts.Encoding) error
}

// LocalVoice speaks text without a network round trip, such as the
// platform's built-in speech synthesizer.
type LocalVoice interface {
	Say(ctx context.Context, text, lang string) error
}

// Speaker is a Player that synthesizes speech with a TTS provider and falls
// back to a local voice when synthesis fails.
type Speaker struct {
	tts    tts.Provider
	out    AudioOutput
	local  LocalVoice
	logger *slog.Logger
}

// NewSpeaker creates a speaker. Either provider and out, or local, may be nil
// but not all three.
func NewSpeaker(provider tts.Provider, out AudioOutput, local LocalVoice, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{tts: provider, out: out, local: local, logger: logger.With("component", "speech.speaker")}
}

// Play implements Player.
func (s *Speaker) Play(ctx context.Context, u Utterance) error {
	if s.tts != nil && s.out != nil {
		res, err := s.tts.Synthesize(ctx, u.Text)
		if err == nil {
			if err = s.out.PlayAudio(ctx, res.Audio, res.Format); err == nil {
				return nil
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.local == nil {
			return err
		}
		s.logger.Warn("audio voice failed, using local voice", "utterance_id", u.ID, "error", err)
	}
	if s.local == nil {
		return ErrNoVoice
	}
	return s.local.Say(ctx, u.Text, Language)
}

var _ Player = (*Speaker)(nil)

// CommandOutput pipes audio into an external player process, ffplay by
// default. Cancelling ctx kills the process.
type CommandOutput struct {
	Name string
	Args []string
}

// NewFFPlayOutput plays through ffplay without a window.
func NewFFPlayOutput() *CommandOutput {
	return &CommandOutput{
		Name: "ffplay",
		Args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-i", "pipe:0"},
	}
}

// PlayAudio implements AudioOutput.
func (o *CommandOutput) PlayAudio(ctx context.Context, audio []byte, format tts.Encoding) error {
	cmd := exec.CommandContext(ctx, o.Name, o.Args...)
	cmd.Stdin = bytes.NewReader(audio)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("speech: play %s audio: %w", format, err)
	}
	return nil
}

// TextVoice writes utterances to a writer, for terminals and tests.
type TextVoice struct {
	W io.Writer
}

// Say implements LocalVoice.
func (v TextVoice) Say(_ context.Context, text, _ string) error {
	_, err := fmt.Fprintf(v.W, "🔊 %s\n", text)
	return err
}
