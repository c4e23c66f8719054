package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"nia-mentor/internal/interview"
	"nia-mentor/internal/speech"
	"nia-mentor/internal/storage"
)

const maxInputLength = 4000

// Handler ведет интервью в терминале: команды управляют сессией,
// обычный текст становится ответом или, во время записи, речью
type Handler struct {
	out     *Output
	store   *storage.Store
	voice   *speech.ConsoleRecognizer
	log     *logrus.Entry
	session *interview.Session

	interviewID string

	// состояние вывода; меняется только из хуков сессии
	revealOpen    bool
	revealPrinted int
	lastLive      string

	wg       sync.WaitGroup
	done     chan struct{}
	doneOnce sync.Once
}

// NewHandler создает обработчик. voice может быть nil, если речь
// распознается не из терминала.
func NewHandler(out *Output, store *storage.Store, voice *speech.ConsoleRecognizer, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{
		out:         out,
		store:       store,
		voice:       voice,
		log:         log.WithField("component", "console"),
		interviewID: uuid.New().String(),
		done:        make(chan struct{}),
	}
}

// Attach связывает обработчик с сессией, созданной с его хуками
func (h *Handler) Attach(s *interview.Session) {
	h.session = s
}

func (h *Handler) InterviewID() string { return h.interviewID }

// Done закрывается после сохранения результата интервью
func (h *Handler) Done() <-chan struct{} { return h.done }

// Wait дожидается фонового сохранения результата
func (h *Handler) Wait() { h.wg.Wait() }

func (h *Handler) finish() {
	h.doneOnce.Do(func() { close(h.done) })
}

// Run читает строки до /quit, конца ввода или завершения интервью
func (h *Handler) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.done:
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if h.HandleLine(ctx, line) {
				return nil
			}
		}
	}
}

// HandleLine обрабатывает одну строку ввода; true означает выход
func (h *Handler) HandleLine(ctx context.Context, line string) bool {
	text := strings.TrimSpace(line)
	if text == "" {
		return false
	}
	if strings.HasPrefix(text, "/") {
		return h.handleCommand(ctx, text)
	}
	h.handleUserInput(text)
	return false
}

// handleCommand обрабатывает команды
func (h *Handler) handleCommand(ctx context.Context, command string) bool {
	switch strings.ToLower(strings.Fields(command)[0]) {
	case "/help":
		h.handleHelpCommand()
	case "/status":
		h.handleStatusCommand()
	case "/record":
		h.report(h.session.StartRecording(ctx))
	case "/stop":
		h.report(h.session.StopRecording())
	case "/skip":
		h.report(h.session.Advance())
	case "/repeat":
		h.report(h.session.AskCurrent())
	case "/retry":
		h.handleRetryCommand(ctx)
	case "/tts":
		h.handleSpeechCommand()
	case "/camera":
		h.handleCameraCommand(ctx)
	case "/quit", "/exit":
		h.out.Send("👋 Interview stopped.")
		return true
	default:
		h.out.Send("Unknown command. Use /help to see the list of commands.")
	}
	return false
}

func (h *Handler) handleHelpCommand() {
	h.out.Send(`🤖 Mock interview

Commands:
/record - Start voice recording (60 seconds max)
/stop   - Stop recording and save the answer
/skip   - Skip the current question
/repeat - Ask the current question again
/retry  - Submit answers again after a failure
/tts    - Turn question narration on or off
/camera - Turn the camera on or off
/status - Show interview progress
/quit   - Leave the interview

How it works:
1. Each question is typed out, then read aloud
2. Type your answer and press Enter, or use /record to answer by voice
3. While recording, each line you type is treated as recognized speech
4. After the last question your answers are evaluated`)
}

func (h *Handler) handleStatusCommand() {
	snap := h.session.Snapshot()

	var b strings.Builder
	b.WriteString("📊 Interview progress\n\n")
	fmt.Fprintf(&b, "🆔 ID: %s\n", h.interviewID)
	if snap.Config.Topic != "" {
		fmt.Fprintf(&b, "📋 Topic: %s (%s)\n", snap.Config.Topic, snap.Config.Difficulty)
	}
	if len(snap.Questions) > 0 {
		fmt.Fprintf(&b, "❓ Question: %d/%d\n", snap.Index+1, len(snap.Questions))
		fmt.Fprintf(&b, "✅ Answered: %d\n", len(snap.Answers))
	}
	fmt.Fprintf(&b, "⏰ State: %s\n", getStateDescription(snap.Phase))
	if snap.Recording == interview.RecordingActive {
		fmt.Fprintf(&b, "⏱ Recording: %d seconds left\n", snap.SecondsRemaining)
	}
	fmt.Fprintf(&b, "🎙 Voice input: %s\n", onOff(snap.VoiceAvailable))
	fmt.Fprintf(&b, "🔊 Narration: %s\n", onOff(snap.SpeechEnabled))
	fmt.Fprintf(&b, "📷 Camera: %s", onOff(snap.CameraOn))
	if snap.UsedFallback {
		b.WriteString("\n⚠️ Using backup questions")
	}
	h.out.Send(b.String())
}

func (h *Handler) handleRetryCommand(ctx context.Context) {
	if h.session.Snapshot().Phase == interview.PhaseSubmitting {
		h.out.Send("📤 Submitting your answers again...")
	}
	h.report(h.session.Submit(ctx))
}

func (h *Handler) handleSpeechCommand() {
	enabled := !h.session.Snapshot().SpeechEnabled
	if err := h.session.SetSpeechEnabled(enabled); err != nil {
		h.report(err)
		return
	}
	h.out.Sendf("🔊 Narration %s.", onOff(enabled))
}

func (h *Handler) handleCameraCommand(ctx context.Context) {
	if h.session.Snapshot().CameraOn {
		if err := h.session.DisableCamera(); err != nil {
			h.report(err)
			return
		}
		h.out.Send("📷 Camera off.")
		return
	}
	if err := h.session.EnableCamera(ctx); err != nil {
		h.report(err)
		return
	}
	h.out.Send("📷 Camera on.")
}

// validateUserInput отсекает слишком длинный и мусорный ввод
func validateUserInput(text string) error {
	if len(text) > maxInputLength {
		return fmt.Errorf("message is too long (maximum %d characters)", maxInputLength)
	}

	// Проверка на повторяющиеся символы
	if len(text) > 10 && strings.Count(text, text[:1]) > len(text)*8/10 {
		return fmt.Errorf("message contains too many repeated characters")
	}

	return nil
}

// handleUserInput обрабатывает ответы пользователя
func (h *Handler) handleUserInput(text string) {
	if err := validateUserInput(text); err != nil {
		h.out.Send("❌ " + err.Error())
		return
	}

	if h.voice != nil && h.voice.Feed(text) {
		return
	}
	h.report(h.session.AnswerText(text))
}

// report печатает понятное сообщение об ошибке операции
func (h *Handler) report(err error) {
	if err == nil {
		return
	}
	h.log.WithError(err).Debug("operation rejected")

	switch {
	case errors.Is(err, interview.ErrInvalidPhase):
		h.out.Send("⏳ That's not available right now. Use /status to see where the interview is.")
	case errors.Is(err, interview.ErrNotRecording):
		h.out.Send("🎙 No recording in progress. Use /record to start one.")
	case errors.Is(err, interview.ErrSubmitInFlight):
		h.out.Send("📤 Your answers are already being submitted.")
	case errors.Is(err, interview.ErrEmptyAnswer):
		h.out.Send("✍️ Please type an answer or use /skip.")
	case errors.Is(err, interview.ErrClosed):
		h.out.Send("🛑 The interview has ended.")
	case errors.Is(err, interview.ErrVoiceUnavailable), errors.Is(err, interview.ErrCameraUnavailable):
		h.out.Send("🚫 " + err.Error() + ".")
	default:
		// сессия уже показала уведомление
	}
}

// saveResult сохраняет итог в фоне, чтобы не задерживать цикл сессии
func (h *Handler) saveResult(r interview.Result) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.finish()

		if h.store == nil {
			return
		}
		result := storage.NewInterviewResult(h.interviewID, r, time.Now())
		path, err := h.store.SaveResult(result)
		if err != nil {
			h.log.WithError(err).Error("failed to save interview result")
			h.out.Send("❌ Failed to save the interview result: " + err.Error())
			return
		}
		h.log.WithFields(logrus.Fields{"interview_id": h.interviewID, "path": path}).Info("interview result saved")
		h.out.Sendf("💾 Result saved to %s\nUse `results show %s` to view it again.", path, h.interviewID)
	}()
}

func getStateDescription(phase interview.Phase) string {
	switch phase {
	case interview.PhaseNotStarted:
		return "Not started"
	case interview.PhaseAwaitingConfig:
		return "Configuring"
	case interview.PhaseGeneratingQuestions:
		return "Preparing questions"
	case interview.PhaseAskingQuestion:
		return "Asking a question"
	case interview.PhaseAwaitingAnswer:
		return "Waiting for your answer"
	case interview.PhaseRecording:
		return "Recording"
	case interview.PhaseSubmitting:
		return "Submitting answers"
	case interview.PhaseComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
