package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keshucs12345/sprechen/internal/audio"
	"github.com/keshucs12345/sprechen/internal/config"
	"github.com/keshucs12345/sprechen/internal/console"
	"github.com/keshucs12345/sprechen/internal/llm"
	"github.com/keshucs12345/sprechen/internal/speech"
	"github.com/keshucs12345/sprechen/internal/tutor"
)

var (
	flagLevel string
	flagRate  float64
	flagVoice string
	flagTTS   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyFlags(cmd, &cfg); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg)
	},
}

func init() {
	runCmd.Flags().StringVar(&flagLevel, "level", "", "proficiency level A1-C2")
	runCmd.Flags().Float64Var(&flagRate, "rate", 0, "speech rate 0.5-1.2")
	runCmd.Flags().StringVar(&flagVoice, "voice", "", "voice profile: female or male")
	runCmd.Flags().StringVar(&flagTTS, "tts", "", "speech engine: deepgram or openai")
}

func applyFlags(cmd *cobra.Command, c *config.Config) error {
	if cmd.Flags().Changed("level") {
		l, err := tutor.ParseLevel(flagLevel)
		if err != nil {
			return err
		}
		c.Tutor.Level = l
	}
	if cmd.Flags().Changed("rate") {
		c.Tutor.SpeechRate = flagRate
	}
	if cmd.Flags().Changed("voice") {
		c.Tutor.Voice = tutor.VoiceGender(strings.ToLower(flagVoice))
	}
	if cmd.Flags().Changed("tts") {
		switch flagTTS {
		case config.EngineDeepgram, config.EngineOpenAI:
			c.TTSEngine = flagTTS
		default:
			return fmt.Errorf("unknown TTS engine %q", flagTTS)
		}
	}
	return c.Tutor.Validate()
}

func run(ctx context.Context, cfg config.Config) error {
	if err := audio.Init(); err != nil {
		log.Warn().Err(err).Msg("[Main] audio unavailable, recognition and playback will fail")
	} else {
		defer audio.Shutdown()
	}

	client := llm.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL)

	mic := &audio.Microphone{DumpPath: cfg.MicDumpPath}
	var vad speech.VoiceDetector
	if v, err := speech.NewWebRTCVAD(cfg.VADMode, audio.SampleRate); err != nil {
		log.Warn().Err(err).Msg("[Main] VAD unavailable, using the timeout as result deadline")
	} else {
		vad = v
	}
	recognizer := speech.NewDeepgramRecognizer(cfg.DeepgramKey, cfg.STTModel, mic.Capture, vad)
	listener := speech.NewListener(recognizer, tutor.Locale)

	var synth speech.Synthesizer
	switch cfg.TTSEngine {
	case config.EngineOpenAI:
		synth = speech.NewOpenAISynthesizer(client)
	default:
		synth = speech.NewDeepgramSynthesizer(cfg.DeepgramKey)
	}
	speaker := speech.NewSpeaker(synth, audio.Speakers{})
	backend := llm.NewOpenAILLM(client, cfg.OpenAIModel)

	orch := tutor.New(listener, speaker, backend, cfg.VoiceRegistry())

	ui := console.New(orch, os.Stdin, os.Stdout)
	if err := ui.Authenticate(ctx, cfg.Password); err != nil {
		return err
	}
	log.Info().Str("engine", cfg.TTSEngine).Msg("[Main] starting conversation")
	return ui.Run(ctx, cfg.Tutor)
}
