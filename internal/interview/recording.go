package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"nia-mentor/internal/speech"
)

const countdownTick = time.Second

// recording один захват речи; существует от старта до остановки
type recording struct {
	id               uint64
	index            int
	state            RecordingState
	secondsRemaining int
	startedAt        time.Time
	ticker           *clock.Timer
}

// StartRecording проверяет доступ к микрофону и запускает распознаватель.
// Если ответ на текущий вопрос уже начат, новая запись его продолжает.
func (s *Session) StartRecording(ctx context.Context) error {
	var (
		r     *recording
		media speech.MediaDevices
	)
	err := s.call(func() error {
		if s.phase != PhaseAwaitingAnswer || s.pendingAdvance {
			return phaseError("start recording", s.phase)
		}
		if !s.voiceAvailable {
			s.notify(Notice{
				Kind:        NoticeError,
				Title:       "Voice input unavailable",
				Description: speech.DeviceErrorMessage(speech.ErrNotSupported),
			})
			return ErrVoiceUnavailable
		}
		if err := s.stopSpeech(); err != nil {
			s.log.WithError(err).Warn("failed to cancel speech")
		}
		s.recordingSeq++
		r = &recording{
			id:               s.recordingSeq,
			index:            s.index,
			state:            RecordingStarting,
			secondsRemaining: MaxRecordingSeconds,
		}
		s.recording = r
		s.setPhase(PhaseRecording)
		if s.mediaAvailable {
			media = s.media
		}
		return nil
	})
	if err != nil {
		return err
	}

	probeErr := s.probeMicrophone(ctx, media)

	return s.call(func() error {
		if s.recording != r {
			return ErrNotRecording
		}
		if probeErr != nil {
			s.abortRecording(r)
			s.notify(Notice{Kind: NoticeError, Title: "Microphone unavailable", Description: speech.DeviceErrorMessage(probeErr)})
			return fmt.Errorf("microphone check failed: %w", probeErr)
		}

		if s.transcriptIndex != r.index {
			s.transcript.Reset()
		}
		s.transcriptIndex = r.index
		s.transcript.BeginCapture()
		s.emitTranscript()

		s.rec.SetHandler(s.recognitionHandler(r.id))
		if err := s.rec.Start(); err != nil {
			s.rec.SetHandler(nil)
			s.abortRecording(r)
			s.notify(Notice{Kind: NoticeError, Title: "Recording failed", Description: "Failed to start recording. Please try again."})
			return fmt.Errorf("start recognizer: %w", err)
		}
		s.log.WithFields(logrus.Fields{"index": r.index, "recording": r.id}).Info("recording started")
		return nil
	})
}

// probeMicrophone открывает и сразу освобождает аудиопоток
func (s *Session) probeMicrophone(ctx context.Context, media speech.MediaDevices) error {
	if media == nil {
		return nil
	}
	reqCtx, release := s.requestContext(ctx)
	defer release()

	stream, err := media.Open(reqCtx, speech.MediaRequest{Audio: true})
	if err != nil {
		return err
	}
	if err := stream.Stop(); err != nil {
		s.log.WithError(err).Warn("failed to release microphone probe")
	}
	return nil
}

// StopRecording останавливает запись по запросу пользователя
func (s *Session) StopRecording() error {
	return s.call(func() error {
		if s.recording == nil {
			return ErrNotRecording
		}
		if err := s.stopRecording(StopManual); err != nil {
			s.log.WithError(err).Warn("failed to stop recognizer")
		}
		return nil
	})
}

func (s *Session) abortRecording(r *recording) {
	if s.recording != r {
		return
	}
	s.cancelTimer(r.ticker)
	s.recording = nil
	if s.phase == PhaseRecording {
		s.setPhase(PhaseAwaitingAnswer)
	}
}

// stopRecording отключает обработчики до остановки провайдера, поэтому
// поздние события не меняют состояние. Ответ сохраняется, если истекло
// время или расшифровка не пуста; иначе запись считается паузой.
func (s *Session) stopRecording(reason StopReason) error {
	r := s.recording
	if r == nil {
		return nil
	}
	r.state = RecordingStopping
	s.rec.SetHandler(nil)
	err := s.rec.Stop()

	s.cancelTimer(r.ticker)
	r.ticker = nil
	r.state = RecordingIdle
	s.recording = nil

	s.metrics.IncrementRecordingsStopped(string(reason))
	s.log.WithFields(logrus.Fields{
		"reason":            reason,
		"index":             r.index,
		"seconds_remaining": r.secondsRemaining,
	}).Info("recording stopped")

	if s.phase == PhaseRecording {
		s.setPhase(PhaseAwaitingAnswer)
	}
	s.transcript.live = s.transcript.accumulated
	s.emitTranscript()

	switch reason {
	case StopCancelled, StopEnded:
		return err
	}

	text := s.transcript.Accumulated()
	if reason == StopTimer || text != "" {
		source := "voice"
		if reason == StopTimer {
			source = "timer"
		}
		s.commit(text, source)
	}
	return err
}

func (s *Session) recognitionHandler(id uint64) *speech.RecognitionHandler {
	post := func(fn func(r *recording)) {
		s.loop.Post(func() {
			r := s.recording
			if r == nil || r.id != id {
				return
			}
			fn(r)
		})
	}
	return &speech.RecognitionHandler{
		OnStart: func() { post(s.onRecognitionStart) },
		OnResult: func(ev speech.RecognitionEvent) {
			post(func(r *recording) { s.onRecognitionResult(r, ev) })
		},
		OnError: func(code speech.ErrorCode) {
			post(func(r *recording) { s.onRecognitionError(r, code) })
		},
		OnEnd: func() {
			post(func(r *recording) {
				if err := s.stopRecording(StopEnded); err != nil {
					s.log.WithError(err).Warn("failed to stop recognizer")
				}
			})
		},
	}
}

func (s *Session) onRecognitionStart(r *recording) {
	if r.state != RecordingStarting {
		return
	}
	r.state = RecordingActive
	r.startedAt = s.clk.Now()
	r.secondsRemaining = MaxRecordingSeconds
	s.emitCountdown(r)
	s.scheduleTick(r)
}

func (s *Session) scheduleTick(r *recording) {
	r.ticker = s.after(countdownTick, func() {
		if s.recording != r {
			return
		}
		r.ticker = nil
		r.secondsRemaining--
		s.emitCountdown(r)
		if r.secondsRemaining <= 0 {
			if err := s.stopRecording(StopTimer); err != nil {
				s.log.WithError(err).Warn("failed to stop recognizer")
			}
			return
		}
		s.scheduleTick(r)
	})
}

func (s *Session) onRecognitionResult(r *recording, ev speech.RecognitionEvent) {
	if r.state != RecordingActive && r.state != RecordingStarting {
		return
	}
	s.transcript.Apply(ev)
	s.emitTranscript()
}

func (s *Session) onRecognitionError(r *recording, code speech.ErrorCode) {
	recoverable := code.Recoverable()
	s.metrics.IncrementProviderError(string(code), recoverable)
	if recoverable {
		s.log.WithField("code", code).Debug("ignoring recoverable recognition error")
		return
	}

	s.log.WithFields(logrus.Fields{"code": code, "recording": r.id}).Warn("fatal recognition error")
	s.notify(Notice{Kind: NoticeError, Title: "Recording stopped", Description: code.Message()})
	if err := s.stopRecording(StopFatal); err != nil {
		s.log.WithError(err).Warn("failed to stop recognizer")
	}
}

func (s *Session) emitCountdown(r *recording) {
	if s.hooks.OnCountdown != nil {
		s.hooks.OnCountdown(r.secondsRemaining)
	}
}
