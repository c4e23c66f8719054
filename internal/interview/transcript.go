package interview

import (
	"strings"

	"nia-mentor/internal/speech"
)

// Transcript накапливает ответ текущего вопроса из потока распознавания.
// Финальный слот применяется не более одного раза за захват, поэтому
// повтор события или перекрытие ResultIndex не дублируют текст.
type Transcript struct {
	accumulated string
	live        string
	applied     map[int]struct{}
}

// Apply обрабатывает событие и возвращает строку для отображения
func (t *Transcript) Apply(ev speech.RecognitionEvent) string {
	start := ev.ResultIndex
	if start < 0 {
		start = 0
	}

	var finals, interims []string
	for i := start; i < len(ev.Results); i++ {
		fragment := ev.Results[i]
		text := strings.TrimSpace(fragment.Text)
		if !fragment.Final {
			if text != "" {
				interims = append(interims, text)
			}
			continue
		}
		if _, done := t.applied[i]; done {
			continue
		}
		if t.applied == nil {
			t.applied = make(map[int]struct{})
		}
		t.applied[i] = struct{}{}
		if text != "" {
			finals = append(finals, text)
		}
	}

	latestFinal := strings.Join(finals, " ")
	latestInterim := strings.Join(interims, " ")

	t.live = t.accumulated
	if latestInterim != "" {
		t.live = joinSpace(t.accumulated, latestInterim)
	}
	if latestFinal != "" {
		t.accumulated = joinSpace(t.accumulated, latestFinal)
		t.live = t.accumulated
	}
	return t.live
}

func (t *Transcript) Accumulated() string { return t.accumulated }

func (t *Transcript) Live() string { return t.live }

// BeginCapture готовит к новому захвату: нумерация слотов начинается заново,
// накопленный текст сохраняется
func (t *Transcript) BeginCapture() {
	t.applied = nil
	t.live = t.accumulated
}

// Reset очищает все перед новым вопросом
func (t *Transcript) Reset() {
	t.accumulated = ""
	t.live = ""
	t.applied = nil
}

func joinSpace(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
