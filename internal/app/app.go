// Package app wires the configuration, audio hardware, collaborator clients,
// and the conversation loop into one runnable assistant.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xpanvictor/aria/internal/config"
	"github.com/xpanvictor/aria/internal/conversation"
	"github.com/xpanvictor/aria/internal/orchestrator"
	"github.com/xpanvictor/aria/internal/retention"
	"github.com/xpanvictor/aria/internal/ui"
	"github.com/xpanvictor/aria/pkg/Logger"
	"github.com/xpanvictor/aria/pkg/audio/capture"
	"github.com/xpanvictor/aria/pkg/audio/device"
	"github.com/xpanvictor/aria/pkg/audio/playback"
	"github.com/xpanvictor/aria/pkg/io/stt/whisper"
	"github.com/xpanvictor/aria/pkg/io/tts/piper"
)

// App represents the application with all its dependencies wired.
type App struct {
	Config       *config.Settings
	Logger       *Logger.Logger
	Catalog      *device.Catalog
	Status       *ui.Status
	Orchestrator *orchestrator.Orchestrator

	player *playback.Player
}

// NewApp builds the full dependency graph. The context bounds provider
// initialization only, not the conversation itself.
func NewApp(ctx context.Context, cfg *config.Settings, logger *Logger.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		Status: ui.NewStatus(os.Stdout, ui.DefaultTheme),
	}
	if err := a.setupDependencies(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) setupDependencies(ctx context.Context) error {
	cfg := a.Config

	catalog, err := device.Open(a.Logger)
	if err != nil {
		return err
	}
	a.Catalog = catalog

	streamCfg := device.StreamConfig{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		ChunkSize:  cfg.Audio.ChunkSize,
	}

	var deviceLines []string
	for _, d := range catalog.Devices() {
		deviceLines = append(deviceLines, d.String())
	}
	a.Status.Devices(deviceLines)

	input, err := catalog.SelectInput(streamCfg)
	if err != nil {
		return err
	}
	output, err := catalog.SelectOutput()
	if err != nil {
		a.Logger.Warnf("no output device: %v; replies will be silent", err)
	}

	recorder := capture.New(
		capture.Config{
			SampleRate:           cfg.Audio.SampleRate,
			Channels:             cfg.Audio.Channels,
			ChunkSize:            cfg.Audio.ChunkSize,
			SilenceThreshold:     cfg.VAD.SilenceThreshold,
			SilenceDuration:      cfg.VAD.SilenceDuration,
			MinRecordingDuration: cfg.VAD.MinRecordingDuration,
			MaxRecordingDuration: cfg.VAD.MaxRecordingDuration,
			PreBufferDuration:    cfg.VAD.PreBufferDuration,
			SmoothingWindow:      cfg.VAD.SmoothingWindow,
			CalibrationDuration:  cfg.VAD.CalibrationDuration,
		},
		func() (capture.ChunkReader, error) {
			return catalog.OpenInput(input, streamCfg)
		},
		a.Logger,
	)

	a.player = playback.New(
		playback.Config{
			ChunkSize: cfg.Audio.ChunkSize,
			Timeout:   time.Duration(cfg.Playback.TimeoutSeconds) * time.Second,
		},
		func(sampleRate, channels int) (playback.StreamWriter, error) {
			if output == nil {
				return nil, fmt.Errorf("no output device selected")
			}
			return catalog.OpenOutput(output, device.StreamConfig{
				SampleRate: sampleRate,
				Channels:   channels,
				ChunkSize:  cfg.Audio.ChunkSize,
			})
		},
		a.Logger,
	)

	sttClient := whisper.NewClient(
		cfg.STT.URL, cfg.STT.Language,
		time.Duration(cfg.STT.TimeoutSeconds)*time.Second, a.Logger,
	)
	ttsClient := piper.NewClient(
		cfg.TTS.URL, cfg.TTS.Voice, cfg.TTS.MinAudioBytes,
		time.Duration(cfg.TTS.TimeoutSeconds)*time.Second, a.Logger,
	)

	var saver orchestrator.Saver
	if cfg.Saving.Enabled {
		store, err := retention.New(cfg.Saving.Directory, cfg.Saving.MaxSavedFiles, a.Logger)
		if err != nil {
			return err
		}
		saver = store
	}

	var llm orchestrator.Replier
	if !cfg.EchoMode {
		factory := NewLLMRouterFactory(cfg.LLM, a.Logger)
		mux, err := factory.CreateRouter(ctx)
		if err != nil {
			return err
		}
		llm = mux
	}

	a.Orchestrator = orchestrator.New(
		orchestrator.Config{
			SystemPrompt: cfg.Conversation.SystemPrompt,
			ExitPhrases:  cfg.Conversation.ExitPhrases,
			CycleDelay:   time.Duration(cfg.Conversation.CycleDelayMs) * time.Millisecond,
			EchoMode:     cfg.EchoMode,
		},
		recorder,
		transcriberAdapter{sttClient},
		llm,
		ttsClient,
		a.player,
		saver,
		conversation.NewMemory(cfg.Conversation.MemoryLength),
		conversation.NewFallback(cfg.Conversation.FallbackPhrases),
		a.Status,
		a.Logger,
	)
	return nil
}

// Run prints the banner and drives the conversation until exit or cancel.
func (a *App) Run(ctx context.Context) error {
	mode := "assistant"
	if a.Config.EchoMode {
		mode = "echo"
	}
	a.Status.Banner(
		"aria voice assistant",
		fmt.Sprintf("mode: %s", mode),
		fmt.Sprintf("audio: %d Hz / %d ch / chunk %d",
			a.Config.Audio.SampleRate, a.Config.Audio.Channels, a.Config.Audio.ChunkSize),
		fmt.Sprintf("memory: last %d exchanges", a.Config.Conversation.MemoryLength),
		fmt.Sprintf("say %v to end the conversation", a.Config.Conversation.ExitPhrases),
	)
	return a.Orchestrator.Run(ctx)
}

// Close releases the audio resources.
func (a *App) Close() {
	if a.player != nil {
		a.player.Close()
	}
	if a.Catalog != nil {
		a.Catalog.Close()
	}
}

// transcriberAdapter narrows the whisper client to the orchestrator's
// transcript-only view.
type transcriberAdapter struct {
	client *whisper.Client
}

func (t transcriberAdapter) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	res, err := t.client.Transcribe(ctx, wavData)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
