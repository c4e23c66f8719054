package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nia-mentor/internal/config"
	"nia-mentor/internal/console"
	"nia-mentor/internal/interview"
	"nia-mentor/internal/speech"
)

type interviewFlags struct {
	configFile string
	topic      string
	difficulty string
	count      int
	noSpeech   bool
	devices    bool
	audio      string
}

func newInterviewCommand(a *app) *cobra.Command {
	var f interviewFlags
	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Run a mock interview in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInterview(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.configFile, "config", "", "interview YAML config; overrides NIA_INTERVIEW_CONFIG")
	cmd.Flags().StringVar(&f.topic, "topic", "", "interview topic")
	cmd.Flags().StringVar(&f.difficulty, "difficulty", "", "beginner, intermediate or advanced")
	cmd.Flags().IntVar(&f.count, "count", 0, "number of questions")
	cmd.Flags().BoolVar(&f.noSpeech, "no-speech", false, "do not read questions aloud")
	cmd.Flags().BoolVar(&f.devices, "devices", false, "use local capture devices for the microphone check and camera")
	cmd.Flags().StringVar(&f.audio, "audio", "", "raw PCM16 audio source for the remote recognizer (file or fifo)")
	return cmd
}

// interviewConfig накладывает флаги на YAML конфигурацию
func interviewConfig(cfg *config.Config, f interviewFlags) (interview.Config, error) {
	ic := interview.Config{
		Topic:         cfg.Interview.Topic,
		QuestionCount: cfg.Interview.QuestionCount,
	}
	difficulty := cfg.Interview.Difficulty
	if f.topic != "" {
		ic.Topic = f.topic
	}
	if f.difficulty != "" {
		difficulty = f.difficulty
	}
	if f.count > 0 {
		ic.QuestionCount = f.count
	}
	d, err := interview.ParseDifficulty(difficulty)
	if err != nil {
		return interview.Config{}, err
	}
	ic.Difficulty = d
	return ic, ic.Validate()
}

func timing(cfg *config.Config) interview.Timing {
	return interview.Timing{
		RevealInterval: cfg.Timing.RevealInterval,
		SpeakDelay:     cfg.Timing.SpeakDelay,
		AdvanceDelay:   cfg.Timing.AdvanceDelay,
		AskDelay:       cfg.Timing.AskDelay,
	}
}

func (a *app) runInterview(cmd *cobra.Command, f interviewFlags) error {
	ctx := cmd.Context()

	file := f.configFile
	if file == "" {
		file = a.cfg.App.InterviewConfig
	}
	cfg, err := config.LoadOrDefault(file)
	if err != nil {
		return err
	}
	ic, err := interviewConfig(cfg, f)
	if err != nil {
		return fmt.Errorf("interview settings: %w", err)
	}

	out := console.NewOutput(a.out)

	// Распознавание: удаленный сервис, если задан, иначе строки из терминала
	var (
		recognizer speech.Recognizer
		voice      *speech.ConsoleRecognizer
	)
	if url := a.cfg.Voice.RecognizerURL; url != "" {
		var audio io.Reader
		if f.audio != "" {
			src, err := os.Open(f.audio)
			if err != nil {
				return fmt.Errorf("open audio source: %w", err)
			}
			defer src.Close()
			audio = src
		}
		recognizer = speech.NewRemoteRecognizer(url, audio, a.log)
	} else {
		voice = speech.NewConsoleRecognizer()
		recognizer = voice
	}

	var media speech.MediaDevices
	if f.devices || cfg.Voice.CameraEnabled {
		media = speech.NewLocalDevices()
	}

	secure := speech.SecureOrigin(a.cfg.Voice.Origin)
	handler := console.NewHandler(out, a.store, voice, a.log)
	session := interview.New(interview.Options{
		Gateway:       a.gateway,
		Recognizer:    recognizer,
		Synthesizer:   speech.NewConsoleSynthesizer(out),
		Media:         media,
		SecureContext: secure,
		SpeechEnabled: cfg.Voice.SpeechEnabled && !f.noSpeech,
		Timing:        timing(cfg),
		Hooks:         handler.Hooks(),
		Metrics:       a.metrics,
		Logger:        a.log.WithField("interview_id", handler.InterviewID()),
	})
	handler.Attach(session)

	a.log.WithFields(logrus.Fields{
		"topic":      ic.Topic,
		"difficulty": ic.Difficulty,
		"questions":  ic.QuestionCount,
		"secure":     secure,
	}).Info("starting interview")

	a.printf("🎯 Mock interview: %s (%s), %d questions\n", ic.Topic, ic.Difficulty, ic.QuestionCount)
	a.println("Type your answers, or /help for commands.")

	runErr := func() error {
		if err := session.RequestConfig(); err != nil {
			return err
		}
		if err := session.Configure(ic); err != nil {
			return err
		}
		if cfg.Voice.CameraEnabled {
			if err := session.EnableCamera(ctx); err != nil {
				a.log.WithError(err).Warn("camera not enabled")
			}
		}
		if err := session.Start(ctx); err != nil {
			return fmt.Errorf("start interview: %w", err)
		}
		return handler.Run(ctx, a.in)
	}()

	closeErr := session.Close()
	handler.Wait()
	if closeErr != nil {
		a.log.WithError(closeErr).Warn("interview teardown reported errors")
	}
	if runErr != nil && ctx.Err() != nil {
		a.println("\n👋 Interview interrupted.")
		return nil
	}
	return runErr
}
