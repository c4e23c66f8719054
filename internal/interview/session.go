package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"nia-mentor/internal/eventloop"
	"nia-mentor/internal/gateway"
	"nia-mentor/internal/metrics"
	"nia-mentor/internal/speech"
)

// Gateway удаленные операции интервью
type Gateway interface {
	GenerateQuestions(ctx context.Context, req gateway.QuestionRequest) (*gateway.QuestionSet, error)
	EvaluateInterview(ctx context.Context, req gateway.EvaluationRequest) (*gateway.Evaluation, error)
}

var (
	errNoQuestions = errors.New("gateway returned no questions")
	errOffline     = errors.New("gateway is not configured")
)

type offlineGateway struct{}

func (offlineGateway) GenerateQuestions(context.Context, gateway.QuestionRequest) (*gateway.QuestionSet, error) {
	return nil, errOffline
}

func (offlineGateway) EvaluateInterview(context.Context, gateway.EvaluationRequest) (*gateway.Evaluation, error) {
	return nil, errOffline
}

// Options зависимости сессии. Nil провайдер означает отсутствие возможности.
type Options struct {
	Gateway       Gateway
	Recognizer    speech.Recognizer
	Synthesizer   speech.Synthesizer
	Media         speech.MediaDevices
	SecureContext bool
	SpeechEnabled bool
	Clock         clock.Clock
	Timing        Timing
	Hooks         Hooks
	Metrics       *metrics.Metrics
	Logger        *logrus.Entry
}

// Session единственный владелец состояния интервью. Все изменения
// выполняются в собственном цикле событий; публичные методы безопасны
// для вызова из любых горутин, кроме хуков.
type Session struct {
	loop    *eventloop.Loop
	clk     clock.Clock
	gw      Gateway
	rec     speech.Recognizer
	synth   speech.Synthesizer
	media   speech.MediaDevices
	secure  bool
	timing  Timing
	hooks   Hooks
	metrics *metrics.Metrics
	log     *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	finalMu sync.Mutex
	final   *Snapshot

	closed       bool
	phase        Phase
	config       Config
	configured   bool
	sessionID    string
	questions    []Question
	answers      map[int]string
	index        int
	messages     []Message
	usedFallback bool

	capsResolved   bool
	voiceAvailable bool
	synthAvailable bool
	mediaAvailable bool

	revealGen uint64
	revealed  string

	speechEnabled bool
	speechGen     uint64
	speechPending bool
	speaking      bool

	transcript      Transcript
	transcriptIndex int
	recording       *recording
	recordingSeq    uint64
	pendingAdvance  bool

	timers map[*clock.Timer]struct{}

	submitting bool
	evaluation *gateway.Evaluation

	camera        speech.MediaStream
	cameraPending bool
}

func New(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	gw := opts.Gateway
	if gw == nil {
		gw = offlineGateway{}
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		clk:             clk,
		gw:              gw,
		rec:             opts.Recognizer,
		synth:           opts.Synthesizer,
		media:           opts.Media,
		secure:          opts.SecureContext,
		timing:          opts.Timing,
		hooks:           opts.Hooks,
		metrics:         opts.Metrics,
		log:             log.WithField("component", "interview"),
		ctx:             ctx,
		cancel:          cancel,
		phase:           PhaseNotStarted,
		answers:         make(map[int]string),
		speechEnabled:   opts.SpeechEnabled,
		transcriptIndex: -1,
		timers:          make(map[*clock.Timer]struct{}),
	}
	s.loop = eventloop.New(s.log)
	return s
}

// call выполняет fn в цикле событий и ждет результат
func (s *Session) call(fn func() error) error {
	var err error
	if callErr := s.loop.Call(func() {
		if s.closed {
			err = ErrClosed
			return
		}
		err = fn()
	}); callErr != nil {
		return ErrClosed
	}
	return err
}

// requestContext отменяется и контекстом вызова, и закрытием сессии
func (s *Session) requestContext(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// RequestConfig открывает диалог настройки
func (s *Session) RequestConfig() error {
	return s.call(func() error {
		if s.phase != PhaseNotStarted && s.phase != PhaseAwaitingConfig {
			return phaseError("request config", s.phase)
		}
		s.setPhase(PhaseAwaitingConfig)
		return nil
	})
}

// Configure сохраняет параметры интервью
func (s *Session) Configure(cfg Config) error {
	cfg.Topic = strings.TrimSpace(cfg.Topic)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid interview config: %w", err)
	}
	return s.call(func() error {
		if s.phase != PhaseNotStarted && s.phase != PhaseAwaitingConfig {
			return phaseError("configure", s.phase)
		}
		s.config = cfg
		s.configured = true
		s.setPhase(PhaseAwaitingConfig)
		return nil
	})
}

// Start запрашивает вопросы и задает первый. Сбой шлюза не является
// ошибкой: сессия продолжается со встроенными вопросами.
func (s *Session) Start(ctx context.Context) error {
	var req gateway.QuestionRequest
	err := s.call(func() error {
		if s.phase != PhaseNotStarted && s.phase != PhaseAwaitingConfig {
			return phaseError("start", s.phase)
		}
		if !s.configured {
			return ErrNotConfigured
		}
		s.resolveCapabilities()
		s.setPhase(PhaseGeneratingQuestions)
		s.metrics.IncrementInterviewsStarted()
		req = gateway.QuestionRequest{
			Topic:      s.config.Topic,
			Difficulty: string(s.config.Difficulty),
			Count:      s.config.QuestionCount,
		}
		return nil
	})
	if err != nil {
		return err
	}

	reqCtx, release := s.requestContext(ctx)
	set, genErr := s.gw.GenerateQuestions(reqCtx, req)
	release()

	return s.call(func() error {
		s.applyQuestions(set, genErr)
		return nil
	})
}

func (s *Session) resolveCapabilities() {
	if s.capsResolved {
		return
	}
	s.capsResolved = true
	s.voiceAvailable = s.secure && s.rec != nil && s.rec.IsSupported()
	s.synthAvailable = s.synth != nil && s.synth.IsSupported()
	s.mediaAvailable = s.secure && s.media != nil && s.media.IsSupported()

	s.log.WithFields(logrus.Fields{
		"voice":  s.voiceAvailable,
		"speech": s.synthAvailable,
		"media":  s.mediaAvailable,
		"secure": s.secure,
	}).Info("capabilities resolved")

	if !s.voiceAvailable {
		s.notify(Notice{
			Kind:        NoticeInfo,
			Title:       "Voice input unavailable",
			Description: "Speech recognition is not supported here or the connection is not secure. You can type your answers instead.",
		})
	}
}

func (s *Session) applyQuestions(set *gateway.QuestionSet, err error) {
	if s.phase != PhaseGeneratingQuestions {
		return
	}
	if err == nil && (set == nil || len(set.Questions) == 0) {
		err = errNoQuestions
	}

	if err != nil {
		s.log.WithError(err).Warn("question generation failed, using built-in questions")
		s.metrics.IncrementFallbacks()
		s.questions = FallbackQuestions(s.config.Topic, s.config.QuestionCount)
		s.sessionID = uuid.NewString()
		s.usedFallback = true
		s.notify(Notice{
			Kind:        NoticeWarning,
			Title:       "Using backup questions",
			Description: "The interview service is unavailable, continuing with built-in questions.",
		})
	} else {
		s.questions = make([]Question, 0, len(set.Questions))
		for _, q := range set.Questions {
			s.questions = append(s.questions, Question{ID: q.ID, Text: q.Text})
		}
		s.sessionID = set.SessionID
	}

	s.log.WithFields(logrus.Fields{
		"session_id": s.sessionID,
		"questions":  len(s.questions),
	}).Info("interview started")

	s.index = 0
	s.answers = make(map[int]string)
	s.askCurrent()
}

// AskCurrent повторяет текущий вопрос
func (s *Session) AskCurrent() error {
	return s.call(func() error {
		if s.phase != PhaseAskingQuestion && s.phase != PhaseAwaitingAnswer {
			return phaseError("ask", s.phase)
		}
		if s.pendingAdvance {
			return phaseError("ask", s.phase)
		}
		s.askCurrent()
		return nil
	})
}

// askCurrent посимвольно выводит вопрос; озвучивание и ожидание ответа
// начинаются только после полного вывода
func (s *Session) askCurrent() {
	if s.index < 0 || s.index >= len(s.questions) {
		return
	}
	q := s.questions[s.index]
	s.revealGen++
	gen := s.revealGen
	if err := s.stopSpeech(); err != nil {
		s.log.WithError(err).Warn("failed to cancel speech")
	}
	s.revealed = ""
	s.setPhase(PhaseAskingQuestion)
	s.metrics.IncrementQuestionsAsked()
	s.log.WithFields(logrus.Fields{"index": s.index, "question_id": q.ID}).Debug("asking question")

	runes := []rune(q.Text)
	if s.timing.RevealInterval <= 0 || len(runes) == 0 {
		s.revealed = q.Text
		s.emitReveal()
		s.finishReveal(gen, q)
		return
	}
	s.revealStep(gen, q, runes, 1)
}

func (s *Session) revealStep(gen uint64, q Question, runes []rune, n int) {
	s.after(s.timing.RevealInterval, func() {
		if gen != s.revealGen {
			return
		}
		s.revealed = string(runes[:n])
		s.emitReveal()
		if n < len(runes) {
			s.revealStep(gen, q, runes, n+1)
			return
		}
		s.finishReveal(gen, q)
	})
}

func (s *Session) finishReveal(gen uint64, q Question) {
	s.appendMessage(AuthorBot, q.Text)
	s.setPhase(PhaseAwaitingAnswer)

	if !s.speechEnabled || !s.synthAvailable {
		return
	}
	s.after(s.timing.SpeakDelay, func() {
		if gen != s.revealGen || !s.speechEnabled || s.recording != nil {
			return
		}
		s.speak(q.Text)
	})
}

func (s *Session) speak(text string) {
	s.speechGen++
	gen := s.speechGen
	s.speechPending = true

	done := func() {
		if gen != s.speechGen {
			return
		}
		s.speechPending = false
		s.setSpeaking(false)
	}
	h := speech.SynthesisHandler{
		OnStart: func() {
			s.loop.Post(func() {
				if gen == s.speechGen {
					s.setSpeaking(true)
				}
			})
		},
		OnEnd: func() { s.loop.Post(done) },
		OnError: func(err error) {
			s.loop.Post(func() {
				if gen == s.speechGen {
					s.log.WithError(err).Warn("speech synthesis failed")
				}
				done()
			})
		},
	}
	if err := s.synth.Speak(text, h); err != nil {
		s.speechPending = false
		s.log.WithError(err).Warn("speech synthesis failed")
	}
}

// stopSpeech отменяет текущее озвучивание; поздние колбэки отбрасываются
func (s *Session) stopSpeech() error {
	s.speechGen++
	s.setSpeaking(false)
	if !s.speechPending {
		return nil
	}
	s.speechPending = false
	return s.synth.Cancel()
}

// SetSpeechEnabled включает и выключает озвучивание вопросов
func (s *Session) SetSpeechEnabled(enabled bool) error {
	return s.call(func() error {
		s.speechEnabled = enabled
		if !enabled {
			if err := s.stopSpeech(); err != nil {
				s.log.WithError(err).Warn("failed to cancel speech")
			}
		}
		return nil
	})
}

// AnswerText сохраняет набранный ответ на текущий вопрос
func (s *Session) AnswerText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyAnswer
	}
	return s.call(func() error {
		if s.phase != PhaseAwaitingAnswer || s.pendingAdvance {
			return phaseError("answer", s.phase)
		}
		if err := s.stopSpeech(); err != nil {
			s.log.WithError(err).Warn("failed to cancel speech")
		}
		s.commit(text, "text")
		return nil
	})
}

// Advance пропускает текущий вопрос без ответа
func (s *Session) Advance() error {
	return s.call(func() error {
		switch s.phase {
		case PhaseAskingQuestion, PhaseAwaitingAnswer, PhaseRecording:
		default:
			return phaseError("advance", s.phase)
		}
		if s.pendingAdvance {
			return phaseError("advance", s.phase)
		}
		s.log.WithField("index", s.index).Info("question skipped")
		s.advance()
		return nil
	})
}

// commit сохраняет ответ и планирует переход к следующему вопросу
func (s *Session) commit(text, source string) {
	text = strings.TrimSpace(text)
	idx := s.index
	s.answers[idx] = text
	if text != "" {
		s.appendMessage(AuthorUser, text)
	}
	s.metrics.IncrementAnswersCommitted(source)
	s.log.WithFields(logrus.Fields{"index": idx, "source": source, "length": len(text)}).Info("answer committed")

	s.pendingAdvance = true
	s.after(s.timing.AdvanceDelay, func() {
		if s.pendingAdvance && s.index == idx {
			s.advance()
		}
	})
}

func (s *Session) advance() {
	s.pendingAdvance = false
	if s.recording != nil {
		if err := s.stopRecording(StopCancelled); err != nil {
			s.log.WithError(err).Warn("failed to stop recognizer")
		}
	}
	s.revealGen++
	if err := s.stopSpeech(); err != nil {
		s.log.WithError(err).Warn("failed to cancel speech")
	}
	s.transcript.Reset()
	s.transcriptIndex = -1
	s.emitTranscript()

	if s.index+1 < len(s.questions) {
		s.index++
		s.revealed = ""
		s.setPhase(PhaseAskingQuestion)
		gen := s.revealGen
		s.after(s.timing.AskDelay, func() {
			if gen == s.revealGen {
				s.askCurrent()
			}
		})
		return
	}

	s.setPhase(PhaseSubmitting)
	s.submitAsync()
}

// Submit повторяет отправку ответов после неудачи
func (s *Session) Submit(ctx context.Context) error {
	var req gateway.EvaluationRequest
	if err := s.call(func() error {
		var err error
		req, err = s.beginSubmit()
		return err
	}); err != nil {
		return err
	}

	reqCtx, release := s.requestContext(ctx)
	eval, err := s.gw.EvaluateInterview(reqCtx, req)
	release()

	if callErr := s.call(func() error {
		s.finishSubmit(eval, err)
		return nil
	}); callErr != nil {
		return callErr
	}
	if err != nil {
		return fmt.Errorf("submit answers: %w", err)
	}
	return nil
}

func (s *Session) submitAsync() {
	req, err := s.beginSubmit()
	if err != nil {
		s.log.WithError(err).Debug("submission not started")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		eval, err := s.gw.EvaluateInterview(s.ctx, req)
		s.loop.Post(func() { s.finishSubmit(eval, err) })
	}()
}

func (s *Session) beginSubmit() (gateway.EvaluationRequest, error) {
	if s.phase != PhaseSubmitting {
		return gateway.EvaluationRequest{}, phaseError("submit", s.phase)
	}
	if s.submitting {
		return gateway.EvaluationRequest{}, ErrSubmitInFlight
	}
	s.submitting = true
	return s.payload(), nil
}

// payload по одной записи на вопрос; пропущенный ответ отправляется пустой строкой
func (s *Session) payload() gateway.EvaluationRequest {
	answers := make([]gateway.AnswerPayload, len(s.questions))
	for i, q := range s.questions {
		answers[i] = gateway.AnswerPayload{
			SessionID:  s.sessionID,
			QuestionID: q.ID,
			Answer:     s.answers[i],
		}
	}
	return gateway.EvaluationRequest{SessionID: s.sessionID, Answers: answers}
}

func (s *Session) finishSubmit(eval *gateway.Evaluation, err error) {
	s.submitting = false
	if s.closed || s.phase != PhaseSubmitting {
		return
	}
	if err != nil {
		s.log.WithError(err).Warn("answer submission failed")
		s.notify(Notice{
			Kind:        NoticeError,
			Title:       "Submission failed",
			Description: "Your answers are saved. Please try submitting again.",
			Retryable:   true,
		})
		return
	}

	s.evaluation = eval
	s.metrics.IncrementInterviewsCompleted()
	s.setPhase(PhaseComplete)
	s.log.WithField("session_id", s.sessionID).Info("interview evaluated")
	if s.hooks.OnEvaluation != nil {
		s.hooks.OnEvaluation(s.result())
	}
}

func (s *Session) result() Result {
	answers := make([]string, len(s.questions))
	for i := range s.questions {
		answers[i] = s.answers[i]
	}
	return Result{
		SessionID:  s.sessionID,
		Config:     s.config,
		Questions:  append([]Question(nil), s.questions...),
		Answers:    answers,
		Evaluation: s.evaluation,
	}
}

// EnableCamera открывает камеру; сессия владеет потоком до DisableCamera или Close
func (s *Session) EnableCamera(ctx context.Context) error {
	var media speech.MediaDevices
	if err := s.call(func() error {
		s.resolveCapabilities()
		if !s.mediaAvailable {
			return ErrCameraUnavailable
		}
		if s.camera != nil || s.cameraPending {
			return nil
		}
		s.cameraPending = true
		media = s.media
		return nil
	}); err != nil || media == nil {
		return err
	}

	reqCtx, release := s.requestContext(ctx)
	stream, openErr := media.Open(reqCtx, speech.MediaRequest{Video: true})
	release()

	adopted := false
	err := s.call(func() error {
		s.cameraPending = false
		if openErr != nil {
			s.notify(Notice{Kind: NoticeError, Title: "Camera unavailable", Description: speech.DeviceErrorMessage(openErr)})
			return fmt.Errorf("open camera: %w", openErr)
		}
		s.camera = stream
		adopted = true
		return nil
	})
	if !adopted && stream != nil {
		if stopErr := stream.Stop(); stopErr != nil {
			s.log.WithError(stopErr).Warn("failed to release camera")
		}
	}
	return err
}

// DisableCamera освобождает камеру
func (s *Session) DisableCamera() error {
	return s.call(func() error {
		if s.camera == nil {
			return nil
		}
		err := s.camera.Stop()
		s.camera = nil
		return err
	})
}

// Close останавливает запись, озвучивание, таймеры и запросы, освобождает камеру
func (s *Session) Close() error {
	var result *multierror.Error
	if err := s.loop.Call(func() {
		if s.closed {
			return
		}
		s.closed = true
		if s.recording != nil {
			if err := s.stopRecording(StopCancelled); err != nil {
				result = multierror.Append(result, fmt.Errorf("stop recognizer: %w", err))
			}
		}
		s.revealGen++
		if err := s.stopSpeech(); err != nil {
			result = multierror.Append(result, fmt.Errorf("cancel speech: %w", err))
		}
		for t := range s.timers {
			t.Stop()
		}
		s.timers = make(map[*clock.Timer]struct{})
		if s.camera != nil {
			if err := s.camera.Stop(); err != nil {
				result = multierror.Append(result, fmt.Errorf("release camera: %w", err))
			}
			s.camera = nil
		}
		snap := s.snapshot()
		s.finalMu.Lock()
		s.final = &snap
		s.finalMu.Unlock()
		s.log.WithField("phase", s.phase).Info("interview session closed")
	}); err != nil {
		return nil
	}

	s.cancel()
	s.wg.Wait()
	s.loop.Close()
	return result.ErrorOrNil()
}

// Snapshot возвращает копию текущего состояния
func (s *Session) Snapshot() Snapshot {
	var snap Snapshot
	if err := s.loop.Call(func() { snap = s.snapshot() }); err != nil {
		s.finalMu.Lock()
		defer s.finalMu.Unlock()
		if s.final != nil {
			return *s.final
		}
	}
	return snap
}

func (s *Session) snapshot() Snapshot {
	answers := make(map[int]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	snap := Snapshot{
		Phase:          s.phase,
		Config:         s.config,
		SessionID:      s.sessionID,
		Questions:      append([]Question(nil), s.questions...),
		Index:          s.index,
		Answers:        answers,
		Messages:       append([]Message(nil), s.messages...),
		Revealed:       s.revealed,
		Transcript:     s.transcript.Accumulated(),
		LiveTranscript: s.transcript.Live(),
		Recording:      RecordingIdle,
		Speaking:       s.speaking,
		SpeechEnabled:  s.speechEnabled,
		VoiceAvailable: s.voiceAvailable,
		CameraOn:       s.camera != nil,
		Submitting:     s.submitting,
		UsedFallback:   s.usedFallback,
		Evaluation:     s.evaluation,
	}
	if r := s.recording; r != nil {
		snap.Recording = r.state
		snap.RecordingStarted = r.startedAt
		snap.SecondsRemaining = r.secondsRemaining
	}
	return snap
}

// after планирует fn в цикле событий. Таймер, удаленный из s.timers,
// считается отмененным, даже если уже сработал.
func (s *Session) after(d time.Duration, fn func()) *clock.Timer {
	if d <= 0 {
		fn()
		return nil
	}
	var t *clock.Timer
	t = s.clk.AfterFunc(d, func() {
		s.loop.Post(func() {
			if _, ok := s.timers[t]; !ok {
				return
			}
			delete(s.timers, t)
			fn()
		})
	})
	s.timers[t] = struct{}{}
	return t
}

func (s *Session) cancelTimer(t *clock.Timer) {
	if t == nil {
		return
	}
	t.Stop()
	delete(s.timers, t)
}

func (s *Session) setPhase(p Phase) {
	if s.phase == p {
		return
	}
	s.log.WithFields(logrus.Fields{"from": s.phase, "to": p}).Debug("phase changed")
	s.phase = p
	if s.hooks.OnPhase != nil {
		s.hooks.OnPhase(p)
	}
}

func (s *Session) setSpeaking(speaking bool) {
	if s.speaking == speaking {
		return
	}
	s.speaking = speaking
	if s.hooks.OnSpeaking != nil {
		s.hooks.OnSpeaking(speaking)
	}
}

func (s *Session) appendMessage(author Author, text string) {
	msg := Message{
		ID:        uuid.NewString(),
		Author:    author,
		Text:      text,
		Timestamp: s.clk.Now(),
	}
	s.messages = append(s.messages, msg)
	if s.hooks.OnMessage != nil {
		s.hooks.OnMessage(msg)
	}
}

func (s *Session) notify(n Notice) {
	s.log.WithFields(logrus.Fields{"kind": n.Kind, "title": n.Title}).Info(n.Description)
	if s.hooks.OnNotice != nil {
		s.hooks.OnNotice(n)
	}
}

func (s *Session) emitReveal() {
	if s.hooks.OnReveal != nil {
		s.hooks.OnReveal(s.index, s.revealed)
	}
}

func (s *Session) emitTranscript() {
	if s.hooks.OnTranscript != nil {
		s.hooks.OnTranscript(s.transcript.Accumulated(), s.transcript.Live())
	}
}
