package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-kiosk/internal/config"
	"github.com/teslashibe/go-kiosk/internal/log"
	"github.com/teslashibe/go-kiosk/pkg/assistant"
	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/kiosk"
	"github.com/teslashibe/go-kiosk/pkg/kioskclient"
	"github.com/teslashibe/go-kiosk/pkg/speech"
	"github.com/teslashibe/go-kiosk/pkg/tts"
)

var (
	remote    bool
	playAudio bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Order by typing utterances, one per line",
	Long: `Reads utterances from stdin and speaks the kiosk's replies.

Each line stands in for one recognized utterance. With --remote the
session runs on a kiosk server (KIOSK_API_URL); otherwise the engine runs
in process against the built-in menu.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().BoolVar(&remote, "remote", false, "drive a session on a running server")
	simulateCmd.Flags().BoolVar(&playAudio, "audio", false, "synthesize replies and play them with ffplay")
}

// turn is one step of the conversation as the simulator sees it.
type turn struct {
	screen kiosk.Screen
	speech string
	total  int
}

// driver runs utterances against a session, locally or on a server.
type driver interface {
	start(ctx context.Context) (turn, error)
	say(ctx context.Context, text string) (turn, error)
}

type localDriver struct {
	engine *kiosk.Engine

	mu      sync.Mutex
	session kiosk.Session
}

func (d *localDriver) start(context.Context) (turn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session = d.engine.NewSession()
	prompt := kiosk.Prompt(d.session.Screen, d.session.Context(), d.engine.Menu())
	return turn{screen: d.session.Screen, speech: prompt}, nil
}

func (d *localDriver) say(ctx context.Context, text string) (turn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	next, out := d.engine.Handle(ctx, d.session, text)
	d.session = next
	return turn{screen: next.Screen, speech: out.Speech, total: next.Cart.Total()}, nil
}

type remoteDriver struct {
	client *kioskclient.Client
	id     string
}

func (d *remoteDriver) start(ctx context.Context) (turn, error) {
	view, err := d.client.CreateSession(ctx, "")
	if err != nil {
		return turn{}, err
	}
	d.id = view.ID
	prompt := view.Prompt
	if prompt == "" {
		prompt = kiosk.Prompt(view.Screen, kiosk.ScreenContext{Screen: view.Screen}, nil)
	}
	return turn{screen: view.Screen, speech: prompt}, nil
}

func (d *remoteDriver) say(ctx context.Context, text string) (turn, error) {
	out, err := d.client.Say(ctx, d.id, text)
	if err != nil {
		return turn{}, err
	}
	return turn{screen: out.Session.Screen, speech: out.Speech, total: out.Session.Cart.Total()}, nil
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := log.Component("kiosk.simulate")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDriver(ctx, cfg)
	if err != nil {
		return err
	}

	var (
		provider tts.Provider
		out      speech.AudioOutput
	)
	if playAudio {
		if provider, err = newTTS(cfg, log.L()); err != nil {
			return err
		}
		if provider != nil {
			defer provider.Close()
			out = speech.NewFFPlayOutput()
		}
	}
	speaker := speech.NewSpeaker(provider, out, speech.TextVoice{W: os.Stdout}, log.L())
	queue := speech.NewPlaybackQueue(speaker, log.L())
	defer queue.Close()

	capture := speech.NewCaptureSession(speech.NewLineRecognizer(os.Stdin), speech.DefaultRestartDelay, log.L())
	life := speech.NewLifecycle(capture, queue, log.L())

	first, err := d.start(ctx)
	if err != nil {
		return err
	}

	speak := func(text string) {
		if text == "" {
			return
		}
		if err := queue.EnqueueReplacing(speech.Utterance{ID: uuid.NewString(), Text: text}); err != nil {
			logger.Warn("failed to queue reply", "error", err)
		}
	}

	var handle speech.Handler
	handle = func(text string) {
		t, err := d.say(ctx, text)
		if err != nil {
			logger.Error("utterance failed", "error", err)
			fmt.Fprintln(os.Stderr, "❌", err)
			return
		}
		if t.screen != life.Screen() {
			if err := life.Enter(ctx, t.screen, handle); err != nil {
				logger.Error("failed to enter screen", "screen", t.screen, "error", err)
			}
		}
		fmt.Printf("   [%s] 합계 %d원\n", t.screen, t.total)
		speak(t.speech)
	}

	fmt.Println("🎤 Type what the customer says. Ctrl-D to finish.")
	if err := life.Enter(ctx, first.screen, handle); err != nil {
		return err
	}
	speak(first.speech)

	capture.Wait()
	drain(queue, 5*time.Second)
	life.Hide()
	return nil
}

func newDriver(ctx context.Context, cfg config.Config) (driver, error) {
	if remote {
		return &remoteDriver{client: kioskclient.New(cfg.Client.BaseURL)}, nil
	}
	matcher, err := loadMatcher(cfg)
	if err != nil {
		return nil, err
	}
	opts := []kiosk.EngineOption{
		kiosk.WithRecommendLimit(cfg.Intent.RecommendLimit),
		kiosk.WithEngineLogger(log.L()),
	}
	provider, err := newAssistantProvider(ctx, cfg, log.L())
	if err != nil {
		return nil, err
	}
	if provider != nil {
		opts = append(opts, kiosk.WithAssistant(assistant.NewService(provider, catalog.NewStatic(catalog.Seed()), nil,
			assistant.WithServiceLogger(log.L()))))
	}
	engine := kiosk.NewEngine(matcher, catalog.NewSnapshot(catalog.Seed()), opts...)
	return &localDriver{engine: engine}, nil
}

// drain waits for the last reply to finish playing.
func drain(q *speech.PlaybackQueue, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, ok := q.Playing(); !ok {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	slog.Debug("playback still running at exit")
}
