package speech

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ConsoleRecognizer превращает введенные строки в финальные фрагменты.
// Каждая строка занимает следующий слот текущего захвата.
type ConsoleRecognizer struct {
	mu      sync.Mutex
	handler *RecognitionHandler
	running bool
	results []Fragment
}

func NewConsoleRecognizer() *ConsoleRecognizer {
	return &ConsoleRecognizer{}
}

func (c *ConsoleRecognizer) IsSupported() bool { return true }

func (c *ConsoleRecognizer) SetHandler(h *RecognitionHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *ConsoleRecognizer) Start() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("recognizer already started")
	}
	c.running = true
	c.results = nil
	h := c.handler
	c.mu.Unlock()

	if h != nil && h.OnStart != nil {
		h.OnStart()
	}
	return nil
}

func (c *ConsoleRecognizer) Stop() error {
	c.mu.Lock()
	wasRunning := c.running
	c.running = false
	h := c.handler
	c.mu.Unlock()

	if wasRunning && h != nil && h.OnEnd != nil {
		h.OnEnd()
	}
	return nil
}

// Running сообщает, идет ли захват
func (c *ConsoleRecognizer) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Feed передает строку как финальный результат. Возвращает false,
// если захват не запущен.
func (c *ConsoleRecognizer) Feed(line string) bool {
	line = strings.TrimSpace(line)
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return false
	}
	if line == "" {
		c.mu.Unlock()
		return true
	}
	c.results = append(c.results, Fragment{Text: line, Final: true})
	ev := RecognitionEvent{
		ResultIndex: len(c.results) - 1,
		Results:     append([]Fragment(nil), c.results...),
	}
	h := c.handler
	c.mu.Unlock()

	if h != nil && h.OnResult != nil {
		h.OnResult(ev)
	}
	return true
}

// ConsoleSynthesizer печатает озвучиваемый текст
type ConsoleSynthesizer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleSynthesizer(out io.Writer) *ConsoleSynthesizer {
	return &ConsoleSynthesizer{out: out}
}

func (c *ConsoleSynthesizer) IsSupported() bool { return c.out != nil }

func (c *ConsoleSynthesizer) Speak(text string, h SynthesisHandler) error {
	if h.OnStart != nil {
		h.OnStart()
	}
	c.mu.Lock()
	_, err := fmt.Fprintf(c.out, "🔊 %s\n", text)
	c.mu.Unlock()
	if err != nil {
		if h.OnError != nil {
			h.OnError(err)
		}
		return err
	}
	if h.OnEnd != nil {
		h.OnEnd()
	}
	return nil
}

func (c *ConsoleSynthesizer) Cancel() error { return nil }
