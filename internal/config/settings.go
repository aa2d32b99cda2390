package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/xpanvictor/aria/internal/constants/prompts"
)

type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	Channels   int `mapstructure:"channels"`
	ChunkSize  int `mapstructure:"chunk_size"`
}

type VADConfig struct {
	SilenceThreshold     float64 `mapstructure:"silence_threshold"`
	SilenceDuration      float64 `mapstructure:"silence_duration"`
	MinRecordingDuration float64 `mapstructure:"min_recording_duration"`
	MaxRecordingDuration float64 `mapstructure:"max_recording_duration"`
	PreBufferDuration    float64 `mapstructure:"pre_buffer_duration"`
	SmoothingWindow      int     `mapstructure:"smoothing_window"`
	CalibrationDuration  float64 `mapstructure:"calibration_duration"`
}

type ConversationConfig struct {
	MemoryLength    int      `mapstructure:"memory_length"`
	SystemPrompt    string   `mapstructure:"system_prompt"`
	ExitPhrases     []string `mapstructure:"exit_phrases"`
	FallbackPhrases []string `mapstructure:"fallback_phrases"`
	CycleDelayMs    int      `mapstructure:"cycle_delay_ms"`
}

type STTConfig struct {
	URL            string `mapstructure:"url"`
	Language       string `mapstructure:"language"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type TTSConfig struct {
	URL            string `mapstructure:"url"`
	Voice          string `mapstructure:"voice"`
	MinAudioBytes  int    `mapstructure:"min_audio_bytes"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type PlaybackConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type SavingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Directory     string `mapstructure:"directory"`
	MaxSavedFiles int    `mapstructure:"max_saved_files"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

type OllamaConfig struct {
	URLs  []string `mapstructure:"urls"`
	Model string   `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type LLMConfig struct {
	// Providers is the fallback order; entries are "openai", "ollama",
	// "gemini".
	Providers []string     `mapstructure:"providers"`
	OpenAI    OpenAIConfig `mapstructure:"openai"`
	Ollama    OllamaConfig `mapstructure:"ollama"`
	Gemini    GeminiConfig `mapstructure:"gemini"`
}

type Settings struct {
	Env          string             `mapstructure:"env"`
	Debug        bool               `mapstructure:"debug"`
	EchoMode     bool               `mapstructure:"echo_mode"`
	Audio        AudioConfig        `mapstructure:"audio"`
	VAD          VADConfig          `mapstructure:"vad"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	STT          STTConfig          `mapstructure:"stt"`
	TTS          TTSConfig          `mapstructure:"tts"`
	Playback     PlaybackConfig     `mapstructure:"playback"`
	Saving       SavingConfig       `mapstructure:"saving"`
	LLM          LLMConfig          `mapstructure:"llm"`
}

// Load reads config_<env>.yaml from the working directory, falling back to
// defaults for everything the file omits. A missing file is fine; every
// option has a working default except the LLM API keys.
func Load() (*Settings, error) {
	setDefaults()

	viper.SetConfigName("config_" + genEnv())
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &settings, nil
}

func setDefaults() {
	viper.SetDefault("env", "dev")
	viper.SetDefault("debug", false)
	viper.SetDefault("echo_mode", false)

	viper.SetDefault("audio.sample_rate", 16000)
	viper.SetDefault("audio.channels", 1)
	viper.SetDefault("audio.chunk_size", 1024)

	viper.SetDefault("vad.silence_threshold", 20.0)
	viper.SetDefault("vad.silence_duration", 3.5)
	viper.SetDefault("vad.min_recording_duration", 1.5)
	viper.SetDefault("vad.max_recording_duration", 30.0)
	viper.SetDefault("vad.pre_buffer_duration", 2.0)
	viper.SetDefault("vad.smoothing_window", 5)
	viper.SetDefault("vad.calibration_duration", 1.0)

	viper.SetDefault("conversation.memory_length", 5)
	viper.SetDefault("conversation.system_prompt", prompts.DefaultPrompt.GetCurrentPrompt().Content)
	viper.SetDefault("conversation.exit_phrases",
		[]string{"exit", "quit", "stop", "goodbye", "bye"})
	viper.SetDefault("conversation.fallback_phrases", []string{
		"Sorry, I didn't catch that. Could you say it again?",
		"I'm having trouble thinking right now. Please try once more.",
		"Hmm, something went wrong on my end. Let's try again.",
		"I missed that one. Mind repeating it?",
	})
	viper.SetDefault("conversation.cycle_delay_ms", 500)

	viper.SetDefault("stt.url", "http://localhost:9000")
	viper.SetDefault("stt.language", "en")
	viper.SetDefault("stt.timeout_seconds", 30)

	viper.SetDefault("tts.url", "http://localhost:5000")
	viper.SetDefault("tts.voice", "")
	viper.SetDefault("tts.min_audio_bytes", 1024)
	viper.SetDefault("tts.timeout_seconds", 30)

	viper.SetDefault("playback.timeout_seconds", 30)

	viper.SetDefault("saving.enabled", false)
	viper.SetDefault("saving.directory", "replies")
	viper.SetDefault("saving.max_saved_files", 100)

	viper.SetDefault("llm.providers", []string{"openai"})
	viper.SetDefault("llm.openai.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("llm.openai.model", "openai/gpt-3.5-turbo")
	viper.SetDefault("llm.openai.temperature", 0.7)
	viper.SetDefault("llm.openai.max_tokens", 150)
	viper.SetDefault("llm.openai.top_p", 0.9)
	viper.SetDefault("llm.ollama.model", "llama3:8b")
	viper.SetDefault("llm.gemini.model", "gemini-1.5-flash-latest")
}

func genEnv() string {
	env := viper.GetString("ENV")
	if env == "" {
		return "dev"
	}
	return env
}
