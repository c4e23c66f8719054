package console

import (
	"fmt"
	"io"
	"sync"
)

// Output терминал пользователя; все записи сериализованы
type Output struct {
	mu sync.Mutex
	w  io.Writer
}

func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Write позволяет другим писателям, например синтезатору, делить тот же терминал
func (o *Output) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.w.Write(p)
}

// Send печатает сообщение отдельной строкой
func (o *Output) Send(text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := fmt.Fprintln(o.w, text)
	return err
}

// Sendf форматирует и печатает сообщение
func (o *Output) Sendf(format string, args ...any) error {
	return o.Send(fmt.Sprintf(format, args...))
}

// print без перевода строки, для посимвольного вывода вопроса
func (o *Output) print(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = io.WriteString(o.w, text)
}
