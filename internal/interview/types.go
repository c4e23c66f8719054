package interview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"nia-mentor/internal/gateway"
)

// Phase фаза сессии интервью
type Phase string

const (
	PhaseNotStarted          Phase = "not_started"
	PhaseAwaitingConfig      Phase = "awaiting_config"
	PhaseGeneratingQuestions Phase = "generating_questions"
	PhaseAskingQuestion      Phase = "asking_question"
	PhaseAwaitingAnswer      Phase = "awaiting_answer"
	PhaseRecording           Phase = "recording"
	PhaseSubmitting          Phase = "submitting"
	PhaseComplete            Phase = "complete"
)

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// ParseDifficulty принимает значение без учета регистра
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Beginner, Intermediate, Advanced:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Config параметры интервью, неизменны после старта
type Config struct {
	Topic         string
	Difficulty    Difficulty
	QuestionCount int
}

func (c Config) Validate() error {
	if _, err := ParseDifficulty(string(c.Difficulty)); err != nil {
		return err
	}
	if c.QuestionCount < 1 {
		return fmt.Errorf("question count must be at least 1, got %d", c.QuestionCount)
	}
	return nil
}

type Question struct {
	ID   string
	Text string
}

type Author string

const (
	AuthorBot  Author = "bot"
	AuthorUser Author = "user"
)

// Message запись журнала чата
type Message struct {
	ID        string
	Author    Author
	Text      string
	Timestamp time.Time
}

type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice уведомление для пользователя; Retryable означает, что операцию можно повторить
type Notice struct {
	Kind        NoticeKind
	Title       string
	Description string
	Retryable   bool
}

// RecordingState состояние сессии записи
type RecordingState string

const (
	RecordingIdle     RecordingState = "idle"
	RecordingStarting RecordingState = "starting"
	RecordingActive   RecordingState = "active"
	RecordingStopping RecordingState = "stopping"
)

// StopReason причина остановки записи
type StopReason string

const (
	StopManual    StopReason = "manual"
	StopTimer     StopReason = "timer"
	StopFatal     StopReason = "fatal"
	StopEnded     StopReason = "ended"
	StopCancelled StopReason = "cancelled"
)

// MaxRecordingSeconds предел одной записи
const MaxRecordingSeconds = 60

// Timing задержки анимации и переходов. Неположительное значение выполняет шаг сразу.
type Timing struct {
	RevealInterval time.Duration
	SpeakDelay     time.Duration
	AdvanceDelay   time.Duration
	AskDelay       time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		RevealInterval: 30 * time.Millisecond,
		SpeakDelay:     500 * time.Millisecond,
		AdvanceDelay:   500 * time.Millisecond,
		AskDelay:       time.Second,
	}
}

// Hooks уведомления для представления. Вызываются в цикле событий сессии,
// поэтому не должны блокироваться и не должны вызывать методы Session.
type Hooks struct {
	OnPhase      func(Phase)
	OnReveal     func(index int, revealed string)
	OnMessage    func(Message)
	OnTranscript func(accumulated, live string)
	OnCountdown  func(secondsRemaining int)
	OnSpeaking   func(speaking bool)
	OnNotice     func(Notice)
	OnEvaluation func(Result)
}

// Result итог завершенного интервью; Answers выровнены по вопросам
type Result struct {
	SessionID  string
	Config     Config
	Questions  []Question
	Answers    []string
	Evaluation *gateway.Evaluation
}

// Snapshot копия состояния сессии
type Snapshot struct {
	Phase            Phase
	Config           Config
	SessionID        string
	Questions        []Question
	Index            int
	Answers          map[int]string
	Messages         []Message
	Revealed         string
	Transcript       string
	LiveTranscript   string
	Recording        RecordingState
	RecordingStarted time.Time
	SecondsRemaining int
	Speaking         bool
	SpeechEnabled    bool
	VoiceAvailable   bool
	CameraOn         bool
	Submitting       bool
	UsedFallback     bool
	Evaluation       *gateway.Evaluation
}

// CurrentQuestion вопрос под текущим индексом
func (s Snapshot) CurrentQuestion() (Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Index], true
}

var (
	ErrClosed            = errors.New("interview session closed")
	ErrInvalidPhase      = errors.New("operation not allowed in current phase")
	ErrNotConfigured     = errors.New("interview is not configured")
	ErrVoiceUnavailable  = errors.New("voice input is not available")
	ErrCameraUnavailable = errors.New("camera is not available")
	ErrNotRecording      = errors.New("no active recording")
	ErrSubmitInFlight    = errors.New("submission already in progress")
	ErrEmptyAnswer       = errors.New("answer is empty")
)

func phaseError(op string, phase Phase) error {
	return fmt.Errorf("%s in phase %s: %w", op, phase, ErrInvalidPhase)
}
