package eventloop

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrClosed возвращается, когда цикл уже остановлен
var ErrClosed = errors.New("event loop closed")

// Loop выполняет задачи строго по одной в порядке поступления.
// Post никогда не блокируется, поэтому колбэки провайдеров могут
// вызывать его синхронно изнутри задачи.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
	done   chan struct{}
	log    *logrus.Entry
}

// New создает и запускает цикл
func New(log *logrus.Entry) *Loop {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  log.WithField("component", "eventloop"),
	}
	go l.run()
	return l
}

// Post ставит задачу в очередь. Возвращает false, если цикл закрыт.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call ставит задачу в очередь и ждет ее выполнения.
// Нельзя вызывать изнутри задачи этого же цикла.
func (l *Loop) Call(fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// задача могла успеть выполниться перед остановкой
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Close запрещает новые задачи, дожидается выполнения уже поставленных и
// останавливает цикл.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.done
}

// Done закрывается после остановки цикла
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		if len(batch) == 0 {
			if closed {
				return
			}
			<-l.wake
			continue
		}

		for _, fn := range batch {
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithField("panic", r).Error("task panicked")
		}
	}()
	fn()
}
