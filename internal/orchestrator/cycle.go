// Package orchestrator drives the conversation loop: capture speech,
// transcribe it, generate a reply, speak it, remember the exchange. Exactly
// one cycle runs at a time.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xpanvictor/aria/internal/conversation"
	"github.com/xpanvictor/aria/pkg/Logger"
	"github.com/xpanvictor/aria/pkg/assistant"
	"github.com/xpanvictor/aria/pkg/audio/capture"
)

// Outcome classifies how one cycle ended.
type Outcome int

const (
	// OutcomeNoSpeech means the recorder heard nothing usable.
	OutcomeNoSpeech Outcome = iota
	// OutcomeNoTranscript means audio was captured but nothing was recognized.
	OutcomeNoTranscript
	// OutcomeReplied means a full exchange completed.
	OutcomeReplied
	// OutcomeFallback means the reply pipeline failed and a canned phrase was
	// spoken instead.
	OutcomeFallback
	// OutcomeExit means the user asked to end the conversation.
	OutcomeExit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoSpeech:
		return "no-speech"
	case OutcomeNoTranscript:
		return "no-transcript"
	case OutcomeReplied:
		return "replied"
	case OutcomeFallback:
		return "fallback"
	case OutcomeExit:
		return "exit"
	}
	return "unknown"
}

// Recorder captures one speech segment per call.
type Recorder interface {
	Record(ctx context.Context) (*capture.Recording, error)
}

// Transcriber turns WAV audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte) (string, error)
}

// Replier generates the assistant's answer.
type Replier interface {
	GenerateReply(ctx context.Context, msgs []assistant.Message) (*assistant.Reply, error)
}

// Synthesizer renders text as WAV audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Player plays WAV audio to completion.
type Player interface {
	Play(ctx context.Context, wavData []byte) error
}

// Saver persists reply audio. Optional.
type Saver interface {
	Save(wavData []byte) (string, error)
}

// StatusSink receives human-facing progress lines. Optional.
type StatusSink interface {
	CycleStart(n int)
	Listening()
	Heard(text string)
	Replying(text string)
	Info(msg string)
}

type nopSink struct{}

func (nopSink) CycleStart(int)  {}
func (nopSink) Listening()      {}
func (nopSink) Heard(string)    {}
func (nopSink) Replying(string) {}
func (nopSink) Info(string)     {}

// Config tunes the loop.
type Config struct {
	SystemPrompt string
	ExitPhrases  []string
	// CycleDelay separates consecutive cycles. Zero means 500ms.
	CycleDelay time.Duration
	// EchoMode speaks the transcription back instead of asking the model.
	EchoMode bool
	// Farewell is spoken on exit. Empty means "Goodbye!".
	Farewell string
}

func (c Config) withDefaults() Config {
	if len(c.ExitPhrases) == 0 {
		c.ExitPhrases = conversation.DefaultExitPhrases
	}
	if c.CycleDelay == 0 {
		c.CycleDelay = 500 * time.Millisecond
	}
	if c.Farewell == "" {
		c.Farewell = "Goodbye!"
	}
	return c
}

// Orchestrator owns the loop state. The mutex holds the single-cycle
// invariant even if callers race RunOnce.
type Orchestrator struct {
	cfg      Config
	recorder Recorder
	stt      Transcriber
	llm      Replier
	tts      Synthesizer
	player   Player
	saver    Saver
	memory   *conversation.Memory
	fallback *conversation.Fallback
	status   StatusSink
	logger   *Logger.Logger

	mu     sync.Mutex
	cycles int
}

func New(
	cfg Config,
	recorder Recorder,
	stt Transcriber,
	llm Replier,
	tts Synthesizer,
	player Player,
	saver Saver,
	memory *conversation.Memory,
	fallback *conversation.Fallback,
	status StatusSink,
	logger *Logger.Logger,
) *Orchestrator {
	if status == nil {
		status = nopSink{}
	}
	return &Orchestrator{
		cfg:      cfg.withDefaults(),
		recorder: recorder,
		stt:      stt,
		llm:      llm,
		tts:      tts,
		player:   player,
		saver:    saver,
		memory:   memory,
		fallback: fallback,
		status:   status,
		logger:   logger,
	}
}

// Run loops cycles until the user exits or the context ends. A panic inside
// one cycle is contained; the loop moves on to the next cycle.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := o.safeCycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.logger.Errorf("cycle failed: %v", err)
		}
		if outcome == OutcomeExit {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.cfg.CycleDelay):
		}
	}
}

func (o *Orchestrator) safeCycle(ctx context.Context) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeFallback
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	return o.RunOnce(ctx)
}

// RunOnce executes one full cycle.
func (o *Orchestrator) RunOnce(ctx context.Context) (Outcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cycles++
	o.status.CycleStart(o.cycles)
	o.status.Listening()

	recording, err := o.recorder.Record(ctx)
	if err != nil {
		return OutcomeNoSpeech, fmt.Errorf("record: %w", err)
	}
	if recording == nil {
		o.logger.Debug("no speech detected this cycle")
		return OutcomeNoSpeech, nil
	}

	text, err := o.stt.Transcribe(ctx, recording.WAV())
	if err != nil {
		o.logger.Warnf("transcription failed: %v", err)
		o.status.Info("Sorry, I couldn't make that out.")
		return OutcomeNoTranscript, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		o.logger.Debug("empty transcription, skipping cycle")
		return OutcomeNoTranscript, nil
	}
	o.status.Heard(text)

	if conversation.IsExit(text, o.cfg.ExitPhrases) {
		o.status.Info(o.cfg.Farewell)
		o.speak(ctx, o.cfg.Farewell, false)
		return OutcomeExit, nil
	}

	reply, err := o.reply(ctx, text)
	if err != nil {
		// Rotation index is read before the fallback exchange lands in
		// memory, so back-to-back failures pick different phrases.
		o.logger.Warnf("reply pipeline failed: %v", err)
		phrase := o.fallback.Pick(o.memory.Len())
		o.memory.Record(text, phrase)
		o.status.Replying(phrase)
		o.speak(ctx, phrase, false)
		return OutcomeFallback, nil
	}

	o.memory.Record(text, reply)
	o.status.Replying(reply)
	o.speak(ctx, reply, true)
	return OutcomeReplied, nil
}

// Cycles reports how many cycles have started.
func (o *Orchestrator) Cycles() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cycles
}

func (o *Orchestrator) reply(ctx context.Context, text string) (string, error) {
	if o.cfg.EchoMode {
		return text, nil
	}
	msgs := o.memory.Prompt(o.cfg.SystemPrompt, text)
	out, err := o.llm.GenerateReply(ctx, msgs)
	if err != nil {
		return "", err
	}
	reply := strings.TrimSpace(out.Response.Content)
	if reply == "" {
		return "", fmt.Errorf("model returned an empty reply")
	}
	return reply, nil
}

// speak synthesizes and plays the text. Failures degrade to silence; the
// exchange is already recorded by then. Reply audio is saved only for real
// replies, not fallbacks or farewells.
func (o *Orchestrator) speak(ctx context.Context, text string, save bool) {
	wavData, err := o.tts.Synthesize(ctx, text)
	if err != nil {
		o.logger.Warnf("synthesis failed: %v", err)
		return
	}
	if save && o.saver != nil {
		if _, err := o.saver.Save(wavData); err != nil {
			o.logger.Warnf("saving reply audio failed: %v", err)
		}
	}
	if err := o.player.Play(ctx, wavData); err != nil {
		o.logger.Warnf("playback failed: %v", err)
	}
}
