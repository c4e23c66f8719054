package config

import "time"

// Config представляет конфигурацию интервью
type Config struct {
	Interview InterviewDefaults `yaml:"interview"`
	Timing    TimingConfig      `yaml:"timing"`
	Voice     VoiceSettings     `yaml:"voice"`
}

// InterviewDefaults значения диалога настройки по умолчанию
type InterviewDefaults struct {
	Topic         string `yaml:"topic"`
	Difficulty    string `yaml:"difficulty"`
	QuestionCount int    `yaml:"question_count"`
}

// TimingConfig задержки анимации и переходов
type TimingConfig struct {
	RevealInterval time.Duration `yaml:"reveal_interval"`
	SpeakDelay     time.Duration `yaml:"speak_delay"`
	AdvanceDelay   time.Duration `yaml:"advance_delay"`
	AskDelay       time.Duration `yaml:"ask_delay"`
}

type VoiceSettings struct {
	SpeechEnabled bool `yaml:"speech_enabled"`
	CameraEnabled bool `yaml:"camera_enabled"`
}

// Default конфигурация, когда файл не найден
func Default() *Config {
	return &Config{
		Interview: InterviewDefaults{
			Topic:         "General Interview",
			Difficulty:    "intermediate",
			QuestionCount: 5,
		},
		Timing: TimingConfig{
			RevealInterval: 30 * time.Millisecond,
			SpeakDelay:     500 * time.Millisecond,
			AdvanceDelay:   500 * time.Millisecond,
			AskDelay:       time.Second,
		},
		Voice: VoiceSettings{
			SpeechEnabled: true,
		},
	}
}

func (c *Config) GetQuestionCount() int {
	return c.Interview.QuestionCount
}
