package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xpanvictor/aria/internal/conversation"
	"github.com/xpanvictor/aria/pkg/Logger"
	"github.com/xpanvictor/aria/pkg/assistant"
	"github.com/xpanvictor/aria/pkg/audio/capture"
)

type fakeRecorder struct {
	recordings []*capture.Recording
	errs       []error
	calls      int
}

func (f *fakeRecorder) Record(ctx context.Context) (*capture.Recording, error) {
	i := f.calls
	f.calls++
	var rec *capture.Recording
	var err error
	if i < len(f.recordings) {
		rec = f.recordings[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return rec, err
}

type fakeTranscriber struct {
	texts []string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	i := f.calls
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if i < len(f.texts) {
		return f.texts[i], nil
	}
	return "", nil
}

type fakeReplier struct {
	reply   string
	err     error
	calls   int
	lastMsg []assistant.Message
}

func (f *fakeReplier) GenerateReply(ctx context.Context, msgs []assistant.Message) (*assistant.Reply, error) {
	f.calls++
	f.lastMsg = msgs
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.Reply{
		Response: assistant.Message{Content: f.reply, MsgRole: assistant.ASSISTANT},
	}, nil
}

type fakeSynth struct {
	err   error
	texts []string
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, text)
	return []byte("WAV:" + text), nil
}

type fakePlayer struct {
	played []string
	err    error
}

func (f *fakePlayer) Play(ctx context.Context, wavData []byte) error {
	if f.err != nil {
		return f.err
	}
	f.played = append(f.played, string(wavData))
	return nil
}

type fakeSaver struct {
	saved []string
	err   error
}

func (f *fakeSaver) Save(wavData []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, string(wavData))
	return "reply_001.wav", nil
}

func speech() *capture.Recording {
	return &capture.Recording{Samples: []int16{1, 2, 3}, SampleRate: 16000, Channels: 1}
}

type rig struct {
	rec    *fakeRecorder
	stt    *fakeTranscriber
	llm    *fakeReplier
	tts    *fakeSynth
	player *fakePlayer
	saver  *fakeSaver
	memory *conversation.Memory
	orch   *Orchestrator
}

func newRig(cfg Config) *rig {
	r := &rig{
		rec:    &fakeRecorder{},
		stt:    &fakeTranscriber{},
		llm:    &fakeReplier{reply: "hello back"},
		tts:    &fakeSynth{},
		player: &fakePlayer{},
		saver:  &fakeSaver{},
		memory: conversation.NewMemory(5),
	}
	r.orch = New(cfg, r.rec, r.stt, r.llm, r.tts, r.player, r.saver,
		r.memory, conversation.NewFallback(nil), nil, Logger.Nop())
	return r
}

func TestCycleFullExchange(t *testing.T) {
	r := newRig(Config{SystemPrompt: "be brief"})
	r.rec.recordings = []*capture.Recording{speech()}
	r.stt.texts = []string{"what time is it"}

	outcome, err := r.orch.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeReplied {
		t.Fatalf("expected OutcomeReplied, got %s", outcome)
	}

	exchanges := r.memory.Exchanges()
	if len(exchanges) != 1 {
		t.Fatalf("expected 1 recorded exchange, got %d", len(exchanges))
	}
	if exchanges[0].User != "what time is it" || exchanges[0].Assistant != "hello back" {
		t.Errorf("unexpected exchange: %+v", exchanges[0])
	}
	if len(r.player.played) != 1 || r.player.played[0] != "WAV:hello back" {
		t.Errorf("expected reply played, got %v", r.player.played)
	}
	if len(r.saver.saved) != 1 {
		t.Errorf("expected reply audio saved, got %v", r.saver.saved)
	}
	// Prompt carries the system prompt and the current input.
	if len(r.llm.lastMsg) != 2 || r.llm.lastMsg[0].MsgRole != assistant.SYSTEM {
		t.Errorf("unexpected prompt shape: %+v", r.llm.lastMsg)
	}
}

func TestCycleNoSpeech(t *testing.T) {
	r := newRig(Config{})
	r.rec.recordings = []*capture.Recording{nil}

	outcome, err := r.orch.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeNoSpeech {
		t.Errorf("expected OutcomeNoSpeech, got %s", outcome)
	}
	if r.stt.calls != 0 {
		t.Error("transcriber must not run without a recording")
	}
	if r.memory.Len() != 0 {
		t.Error("memory must stay empty on a no-speech cycle")
	}
}

func TestCycleEmptyTranscript(t *testing.T) {
	r := newRig(Config{})
	r.rec.recordings = []*capture.Recording{speech()}
	r.stt.texts = []string{"   "}

	outcome, err := r.orch.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeNoTranscript {
		t.Errorf("expected OutcomeNoTranscript, got %s", outcome)
	}
	if r.llm.calls != 0 {
		t.Error("model must not be asked about an empty transcript")
	}
}

func TestCycleExitPhrase(t *testing.T) {
	r := newRig(Config{})
	r.rec.recordings = []*capture.Recording{speech()}
	r.stt.texts = []string{"okay goodbye then"}

	outcome, err := r.orch.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeExit {
		t.Fatalf("expected OutcomeExit, got %s", outcome)
	}
	if r.llm.calls != 0 {
		t.Error("exit must not reach the model")
	}
	if len(r.player.played) != 1 || r.player.played[0] != "WAV:Goodbye!" {
		t.Errorf("expected spoken farewell, got %v", r.player.played)
	}
	if len(r.saver.saved) != 0 {
		t.Error("farewell audio must not be saved")
	}
}

func TestCycleFallbackOnModelFailure(t *testing.T) {
	r := newRig(Config{})
	r.rec.recordings = []*capture.Recording{speech()}
	r.stt.texts = []string{"tell me a story"}
	r.llm.err = errors.New("rate limited")

	outcome, err := r.orch.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeFallback {
		t.Fatalf("expected OutcomeFallback, got %s", outcome)
	}

	exchanges := r.memory.Exchanges()
	if len(exchanges) != 1 {
		t.Fatalf("fallback must still be remembered, got %d exchanges", len(exchanges))
	}
	if exchanges[0].Assistant != conversation.DefaultFallbackPhrases[0] {
		t.Errorf("expected first fallback phrase, got %q", exchanges[0].Assistant)
	}
	if len(r.player.played) != 1 {
		t.Errorf("expected fallback spoken, got %v", r.player.played)
	}
	if len(r.saver.saved) != 0 {
		t.Error("fallback audio must not be saved")
	}
}

func TestConsecutiveFallbacksRotate(t *testing.T) {
	r := newRig(Config{})
	r.rec.recordings = []*capture.Recording{speech(), speech()}
	r.stt.texts = []string{"first", "second"}
	r.llm.err = errors.New("still down")

	for i := 0; i < 2; i++ {
		if _, err := r.orch.RunOnce(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	exchanges := r.memory.Exchanges()
	if len(exchanges) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(exchanges))
	}
	if exchanges[0].Assistant == exchanges[1].Assistant {
		t.Error("consecutive fallbacks used the same phrase")
	}
}

func TestCycleEchoMode(t *testing.T) {
	r := newRig(Config{EchoMode: true})
	r.rec.recordings = []*capture.Recording{speech()}
	r.stt.texts = []string{"testing one two"}

	outcome, err := r.orch.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeReplied {
		t.Fatalf("expected OutcomeReplied, got %s", outcome)
	}
	if r.llm.calls != 0 {
		t.Error("echo mode must bypass the model")
	}
	if len(r.player.played) != 1 || r.player.played[0] != "WAV:testing one two" {
		t.Errorf("expected echoed audio, got %v", r.player.played)
	}
}

func TestCycleSynthesisFailureDegradesToSilence(t *testing.T) {
	r := newRig(Config{})
	r.rec.recordings = []*capture.Recording{speech()}
	r.stt.texts = []string{"say something"}
	r.tts.err = errors.New("tts down")

	outcome, err := r.orch.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeReplied {
		t.Fatalf("expected OutcomeReplied even without audio, got %s", outcome)
	}
	if r.memory.Len() != 1 {
		t.Error("exchange must be remembered despite silent playback")
	}
	if len(r.player.played) != 0 {
		t.Error("nothing should play when synthesis fails")
	}
}

func TestRunStopsOnExit(t *testing.T) {
	r := newRig(Config{CycleDelay: time.Millisecond})
	r.rec.recordings = []*capture.Recording{nil, speech()}
	r.stt.texts = []string{"goodbye"}

	if err := r.orch.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.orch.Cycles() != 2 {
		t.Errorf("expected 2 cycles before exit, got %d", r.orch.Cycles())
	}
}

func TestRunSurvivesPanic(t *testing.T) {
	r := newRig(Config{CycleDelay: time.Millisecond})
	r.rec.recordings = []*capture.Recording{speech(), speech()}
	r.stt.texts = []string{"boom", "goodbye"}
	panicked := false
	r.orch.llm = panicReplier{once: &panicked}

	if err := r.orch.Run(context.Background()); err != nil {
		t.Fatalf("expected loop to survive a panic, got %v", err)
	}
	if !panicked {
		t.Fatal("panic path never exercised")
	}
}

type panicReplier struct{ once *bool }

func (p panicReplier) GenerateReply(ctx context.Context, msgs []assistant.Message) (*assistant.Reply, error) {
	if !*p.once {
		*p.once = true
		panic("nil pointer somewhere deep")
	}
	return &assistant.Reply{Response: assistant.Message{Content: "ok"}}, nil
}

func TestRunHonorsContext(t *testing.T) {
	r := newRig(Config{CycleDelay: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.orch.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
