package console

import (
	"fmt"

	"nia-mentor/internal/interview"
)

// Hooks печатают события сессии. Они выполняются в цикле сессии,
// поэтому не вызывают ее методы.
func (h *Handler) Hooks() interview.Hooks {
	return interview.Hooks{
		OnPhase:      h.onPhase,
		OnReveal:     h.onReveal,
		OnMessage:    h.onMessage,
		OnTranscript: h.onTranscript,
		OnCountdown:  h.onCountdown,
		OnNotice:     h.onNotice,
		OnEvaluation: h.onEvaluation,
	}
}

func (h *Handler) onPhase(p interview.Phase) {
	switch p {
	case interview.PhaseGeneratingQuestions:
		h.out.Send("⏳ Preparing your interview questions...")
	case interview.PhaseAskingQuestion:
		h.closeReveal()
	case interview.PhaseRecording:
		h.lastLive = ""
		h.out.Send("🔴 Recording. Speak (type) your answer, /stop when done.")
	case interview.PhaseSubmitting:
		h.out.Send("📤 Submitting your answers for evaluation...")
	}
}

// onReveal печатает только новые символы вопроса
func (h *Handler) onReveal(index int, revealed string) {
	runes := []rune(revealed)
	if len(runes) == 0 {
		return
	}
	if !h.revealOpen || len(runes) < h.revealPrinted {
		h.closeReveal()
		h.out.print(fmt.Sprintf("\n❓ Question %d: ", index+1))
		h.revealOpen = true
		h.revealPrinted = 0
	}
	h.out.print(string(runes[h.revealPrinted:]))
	h.revealPrinted = len(runes)
}

func (h *Handler) closeReveal() {
	if h.revealOpen {
		h.out.print("\n")
	}
	h.revealOpen = false
	h.revealPrinted = 0
}

func (h *Handler) onMessage(m interview.Message) {
	switch m.Author {
	case interview.AuthorBot:
		h.closeReveal()
	case interview.AuthorUser:
		h.out.Sendf("✅ Answer saved: %s", m.Text)
	}
}

func (h *Handler) onTranscript(_, live string) {
	if live == h.lastLive {
		return
	}
	h.lastLive = live
	if live != "" {
		h.out.Sendf("🎙 %s", live)
	}
}

func (h *Handler) onCountdown(sec int) {
	if sec == interview.MaxRecordingSeconds {
		return
	}
	if sec%15 == 0 || sec <= 5 {
		h.out.Sendf("⏱ %d seconds left", sec)
	}
}

func (h *Handler) onNotice(n interview.Notice) {
	icon := "ℹ️"
	switch n.Kind {
	case interview.NoticeWarning:
		icon = "⚠️"
	case interview.NoticeError:
		icon = "❌"
	}
	text := fmt.Sprintf("%s %s: %s", icon, n.Title, n.Description)
	if n.Retryable {
		text += "\n   Use /retry to submit again."
	}
	h.out.Send(text)
}

func (h *Handler) onEvaluation(r interview.Result) {
	h.closeReveal()
	h.out.Send("🎉 Interview complete!\n\n" + FormatEvaluation(r.Evaluation))
	h.saveResult(r)
}
