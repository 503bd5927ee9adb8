// Package config loads tutor configuration from the environment, an optional
// .env file and an optional TOML settings file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/keshucs12345/sprechen/internal/llm"
	"github.com/keshucs12345/sprechen/internal/speech"
	"github.com/keshucs12345/sprechen/internal/tutor"
)

// Speech synthesis engines.
const (
	EngineDeepgram = "deepgram"
	EngineOpenAI   = "openai"
)

const (
	DefaultPassword = "sprechen"
	DefaultSTTModel = "nova-2-general"
	DefaultVADMode  = 2
)

// Config holds application configuration.
type Config struct {
	DeepgramKey   string
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	STTModel      string
	TTSEngine     string
	Password      string
	LogLevel      string
	MicDumpPath   string
	VADMode       int

	// Tutor holds the conversation defaults.
	Tutor tutor.Settings
	// Voices overrides the engine's built-in voice registry when non-empty.
	Voices []speech.Voice
}

// File is the TOML settings file layout.
type File struct {
	Level      string         `toml:"level"`
	SpeechRate float64        `toml:"speech_rate"`
	Voice      string         `toml:"voice"`
	TTSEngine  string         `toml:"tts_engine"`
	Voices     []speech.Voice `toml:"voices"`
}

// Load reads .env and the environment, then applies the settings file at path
// when path is not empty.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("[Config] no .env file loaded")
	}

	cfg := Config{
		DeepgramKey:   os.Getenv("DEEPGRAM_API_KEY"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getenv("OPENAI_MODEL", llm.DefaultModel),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		STTModel:      getenv("DEEPGRAM_STT_MODEL", DefaultSTTModel),
		TTSEngine:     strings.ToLower(getenv("TTS_ENGINE", EngineDeepgram)),
		Password:      getenv("TUTOR_PASSWORD", DefaultPassword),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		MicDumpPath:   os.Getenv("MIC_DUMP_PATH"),
		VADMode:       DefaultVADMode,
		Tutor: tutor.Settings{
			Level:      tutor.LevelB1,
			SpeechRate: tutor.DefaultSpeechRate,
			Voice:      tutor.VoiceFemale,
		},
	}

	if v := os.Getenv("VAD_MODE"); v != "" {
		mode, err := strconv.Atoi(v)
		if err != nil || mode < 0 || mode > 3 {
			return Config{}, fmt.Errorf("VAD_MODE must be 0-3, got %q", v)
		}
		cfg.VADMode = mode
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.warn()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return fmt.Errorf("read settings %s: %w", path, err)
	}
	if f.Level != "" {
		l, err := tutor.ParseLevel(f.Level)
		if err != nil {
			return fmt.Errorf("settings %s: %w", path, err)
		}
		c.Tutor.Level = l
	}
	if f.SpeechRate != 0 {
		c.Tutor.SpeechRate = f.SpeechRate
	}
	if f.Voice != "" {
		c.Tutor.Voice = tutor.VoiceGender(strings.ToLower(f.Voice))
	}
	if f.TTSEngine != "" {
		c.TTSEngine = strings.ToLower(f.TTSEngine)
	}
	c.Voices = f.Voices
	log.Debug().Str("path", path).Int("voices", len(f.Voices)).Msg("[Config] settings file applied")
	return nil
}

func (c *Config) validate() error {
	switch c.TTSEngine {
	case EngineDeepgram, EngineOpenAI:
	default:
		return fmt.Errorf("unknown TTS engine %q (want %s or %s)", c.TTSEngine, EngineDeepgram, EngineOpenAI)
	}
	return c.Tutor.Validate()
}

func (c *Config) warn() {
	if c.DeepgramKey == "" {
		log.Warn().Msg("[Config] DEEPGRAM_API_KEY not set - speech recognition will not work")
		if c.TTSEngine == EngineDeepgram {
			log.Warn().Msg("[Config] DEEPGRAM_API_KEY not set - Deepgram speech output will not work")
		}
	}
	if c.OpenAIKey == "" {
		log.Warn().Msg("[Config] OPENAI_API_KEY not set - tutor replies will not work")
	}
	if c.Password == DefaultPassword {
		log.Warn().Msg("[Config] TUTOR_PASSWORD not set - using the default password")
	}
}

// VoiceRegistry returns the configured voices, or the built-in set of the
// selected engine.
func (c Config) VoiceRegistry() *speech.Registry {
	if len(c.Voices) > 0 {
		return speech.NewRegistry(c.Voices)
	}
	if c.TTSEngine == EngineOpenAI {
		return speech.NewRegistry(speech.OpenAIVoices())
	}
	return speech.NewRegistry(speech.DeepgramVoices())
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
