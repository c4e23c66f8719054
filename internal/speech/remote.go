package speech

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const defaultChunkSize = 3200 // 100ms PCM16 при 16 кГц

// RemoteRecognizer потоковый распознаватель поверх websocket.
// Сервер присылает JSON сообщения begin, result, error и end;
// аудио из Audio отправляется бинарными кадрами.
type RemoteRecognizer struct {
	URL       string
	Audio     io.Reader
	ChunkSize int
	Dialer    *websocket.Dialer

	log *logrus.Entry

	mu      sync.Mutex
	writeMu sync.Mutex
	handler *RecognitionHandler
	conn    *websocket.Conn
	stopCh  chan struct{}
}

type remoteMessage struct {
	Type        string         `json:"type"`
	ResultIndex int            `json:"result_index"`
	Results     []remoteResult `json:"results"`
	Error       string         `json:"error"`
}

type remoteResult struct {
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"is_final"`
}

type controlMessage struct {
	Type string `json:"type"`
}

// NewRemoteRecognizer создает распознаватель; audio может быть nil
func NewRemoteRecognizer(url string, audio io.Reader, log *logrus.Entry) *RemoteRecognizer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &RemoteRecognizer{
		URL:       url,
		Audio:     audio,
		ChunkSize: defaultChunkSize,
		Dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:       log.WithField("component", "remote_recognizer"),
	}
}

func (r *RemoteRecognizer) IsSupported() bool {
	return r.URL != ""
}

func (r *RemoteRecognizer) SetHandler(h *RecognitionHandler) {
	r.mu.Lock()
	r.handler = h
	r.mu.Unlock()
}

// Start подключается к сервису и начинает чтение результатов
func (r *RemoteRecognizer) Start() error {
	r.mu.Lock()
	if r.conn != nil {
		r.mu.Unlock()
		return fmt.Errorf("recognizer already started")
	}
	r.mu.Unlock()

	conn, resp, err := r.Dialer.Dial(r.URL, nil)
	if err != nil {
		if resp != nil {
			r.log.WithField("status", resp.StatusCode).Warn("recognizer handshake failed")
		}
		return fmt.Errorf("failed to connect to recognizer: %w", err)
	}

	stopCh := make(chan struct{})
	r.mu.Lock()
	r.conn = conn
	r.stopCh = stopCh
	r.mu.Unlock()

	if err := r.write(conn, websocket.TextMessage, mustJSON(controlMessage{Type: "start"})); err != nil {
		_ = conn.Close()
		r.reset(conn)
		return fmt.Errorf("failed to start recognition: %w", err)
	}

	go r.readLoop(conn, stopCh)
	if r.Audio != nil {
		go r.pumpAudio(conn, stopCh)
	}
	return nil
}

// Stop завершает захват; повторный вызов безопасен
func (r *RemoteRecognizer) Stop() error {
	r.mu.Lock()
	conn := r.conn
	stopCh := r.stopCh
	r.conn = nil
	r.stopCh = nil
	r.mu.Unlock()

	if conn == nil {
		return nil
	}
	close(stopCh)
	_ = r.write(conn, websocket.TextMessage, mustJSON(controlMessage{Type: "stop"}))
	return conn.Close()
}

func (r *RemoteRecognizer) reset(conn *websocket.Conn) {
	r.mu.Lock()
	if r.conn == conn {
		close(r.stopCh)
		r.conn = nil
		r.stopCh = nil
	}
	r.mu.Unlock()
}

func (r *RemoteRecognizer) currentHandler() *RecognitionHandler {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handler
}

func (r *RemoteRecognizer) write(conn *websocket.Conn, kind int, data []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return conn.WriteMessage(kind, data)
}

func (r *RemoteRecognizer) readLoop(conn *websocket.Conn, stopCh chan struct{}) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithField("panic", rec).Error("recovered in recognizer read loop")
		}
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-stopCh:
				return
			default:
			}
			r.log.WithError(err).Warn("recognizer connection lost")
			r.reset(conn)
			if h := r.currentHandler(); h != nil {
				if h.OnError != nil {
					h.OnError(ErrorNetwork)
				}
				if h.OnEnd != nil {
					h.OnEnd()
				}
			}
			return
		}
		if r.processMessage(data) {
			return
		}
	}
}

// processMessage возвращает true, когда сервер завершил сессию
func (r *RemoteRecognizer) processMessage(data []byte) bool {
	var msg remoteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		r.log.WithError(err).Debug("skipping malformed recognizer message")
		return false
	}
	h := r.currentHandler()
	if h == nil {
		return msg.Type == "end"
	}

	switch msg.Type {
	case "begin":
		if h.OnStart != nil {
			h.OnStart()
		}
	case "result":
		if h.OnResult == nil {
			return false
		}
		ev := RecognitionEvent{ResultIndex: msg.ResultIndex, Results: make([]Fragment, 0, len(msg.Results))}
		for _, res := range msg.Results {
			ev.Results = append(ev.Results, Fragment{Text: res.Transcript, Final: res.IsFinal})
		}
		h.OnResult(ev)
	case "error":
		if h.OnError != nil {
			h.OnError(ErrorCode(msg.Error))
		}
	case "end":
		if h.OnEnd != nil {
			h.OnEnd()
		}
		return true
	default:
		r.log.WithField("type", msg.Type).Debug("unknown recognizer message")
	}
	return false
}

func (r *RemoteRecognizer) pumpAudio(conn *websocket.Conn, stopCh chan struct{}) {
	size := r.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	buf := make([]byte, size)
	for {
		select {
		case <-stopCh:
			return
		default:
		}
		n, err := r.Audio.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			if werr := r.write(conn, websocket.BinaryMessage, chunk); werr != nil {
				r.log.WithError(werr).Debug("audio write stopped")
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.log.WithError(err).Warn("audio source failed")
			}
			return
		}
	}
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
