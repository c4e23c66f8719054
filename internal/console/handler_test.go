package console

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nia-mentor/internal/gateway"
	"nia-mentor/internal/interview"
	"nia-mentor/internal/speech"
	"nia-mentor/internal/storage"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type stubGateway struct {
	evalErr error
}

func (stubGateway) GenerateQuestions(context.Context, gateway.QuestionRequest) (*gateway.QuestionSet, error) {
	return &gateway.QuestionSet{
		SessionID: "sess-console",
		Questions: []gateway.Question{{ID: "q1", Text: "Tell me about Go."}, {ID: "q2", Text: "Why channels?"}},
	}, nil
}

func (g stubGateway) EvaluateInterview(context.Context, gateway.EvaluationRequest) (*gateway.Evaluation, error) {
	if g.evalErr != nil {
		return nil, g.evalErr
	}
	return &gateway.Evaluation{Grade: "A", Percentage: 91, Strengths: []string{"clear answers"}}, nil
}

type fixture struct {
	buf     *syncBuffer
	handler *Handler
	session *interview.Session
	store   *storage.Store
}

func newFixture(t *testing.T, gw interview.Gateway) *fixture {
	t.Helper()
	buf := &syncBuffer{}
	out := NewOutput(buf)
	voice := speech.NewConsoleRecognizer()
	store := storage.NewStore(t.TempDir())

	h := NewHandler(out, store, voice, nil)
	s := interview.New(interview.Options{
		Gateway:       gw,
		Recognizer:    voice,
		Synthesizer:   speech.NewConsoleSynthesizer(out),
		SecureContext: true,
		SpeechEnabled: true,
		Hooks:         h.Hooks(),
	})
	h.Attach(s)
	t.Cleanup(func() {
		_ = s.Close()
		h.Wait()
	})

	require.NoError(t, s.Configure(interview.Config{Topic: "Go", Difficulty: interview.Beginner, QuestionCount: 2}))
	require.NoError(t, s.Start(context.Background()))
	return &fixture{buf: buf, handler: h, session: s, store: store}
}

func TestHandler_TypedAndVoiceAnswers(t *testing.T) {
	f := newFixture(t, stubGateway{})

	input := strings.Join([]string{
		"my first answer",
		"/record",
		"hello world",
		"/stop",
	}, "\n")
	require.NoError(t, f.handler.Run(context.Background(), strings.NewReader(input)))

	select {
	case <-f.handler.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("interview result was not saved")
	}
	f.handler.Wait()

	out := f.buf.String()
	assert.Contains(t, out, "❓ Question 1: Tell me about Go.")
	assert.Contains(t, out, "🔊 Tell me about Go.")
	assert.Contains(t, out, "✅ Answer saved: my first answer")
	assert.Contains(t, out, "🎙 hello world")
	assert.Contains(t, out, "✅ Answer saved: hello world")
	assert.Contains(t, out, "🏅 Grade: A (91%)")
	assert.Contains(t, out, "💾 Result saved to")

	saved, err := f.store.LoadResult(f.handler.InterviewID())
	require.NoError(t, err)
	assert.Equal(t, "sess-console", saved.SessionID)
	require.Len(t, saved.QuestionsAndAnswers, 2)
	assert.Equal(t, "my first answer", saved.QuestionsAndAnswers[0].Answer)
	assert.Equal(t, "hello world", saved.QuestionsAndAnswers[1].Answer)
}

func TestHandler_QuitReleasesReader(t *testing.T) {
	f := newFixture(t, stubGateway{})

	input := "/quit\nleft over\nstill unread\n"
	require.NoError(t, f.handler.Run(context.Background(), strings.NewReader(input)))

	assert.Eventually(t, func() bool {
		buf := make([]byte, 1<<20)
		n := runtime.Stack(buf, true)
		return !strings.Contains(string(buf[:n]), "console.(*Handler).Run.func1")
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHandler_RetryAfterFailedSubmission(t *testing.T) {
	f := newFixture(t, stubGateway{evalErr: errors.New("gateway down")})

	f.handler.HandleLine(context.Background(), "/skip")
	f.handler.HandleLine(context.Background(), "/skip")
	require.Eventually(t, func() bool {
		return strings.Contains(f.buf.String(), "Use /retry to submit again.")
	}, 2*time.Second, time.Millisecond)

	f.handler.HandleLine(context.Background(), "/retry")
	assert.Contains(t, f.buf.String(), "📤 Submitting your answers again...")
	assert.Equal(t, interview.PhaseSubmitting, f.session.Snapshot().Phase)
}

func TestHandler_Commands(t *testing.T) {
	f := newFixture(t, stubGateway{})
	ctx := context.Background()

	assert.False(t, f.handler.HandleLine(ctx, "/help"))
	assert.Contains(t, f.buf.String(), "/record - Start voice recording")

	f.handler.HandleLine(ctx, "/status")
	out := f.buf.String()
	assert.Contains(t, out, "❓ Question: 1/2")
	assert.Contains(t, out, "⏰ State: Waiting for your answer")
	assert.Contains(t, out, "🎙 Voice input: on")

	f.handler.HandleLine(ctx, "/stop")
	assert.Contains(t, f.buf.String(), "No recording in progress")

	f.handler.HandleLine(ctx, "/tts")
	assert.Contains(t, f.buf.String(), "🔊 Narration off.")
	assert.False(t, f.session.Snapshot().SpeechEnabled)

	f.handler.HandleLine(ctx, "/camera")
	assert.Contains(t, f.buf.String(), "camera is not available")

	f.handler.HandleLine(ctx, "/dance")
	assert.Contains(t, f.buf.String(), "Unknown command")

	f.handler.HandleLine(ctx, strings.Repeat("a", 20))
	assert.Contains(t, f.buf.String(), "too many repeated characters")
	_, answered := f.session.Snapshot().Answers[0]
	assert.False(t, answered)

	assert.True(t, f.handler.HandleLine(ctx, "/quit"))
}

func TestValidateUserInput(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "normal answer", text: "I would use a map for lookups."},
		{name: "short repeated", text: "aaaa"},
		{name: "long repeated", text: strings.Repeat("z", 30), wantErr: true},
		{name: "too long", text: strings.Repeat("ab ", 1500), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUserInput(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetStateDescription(t *testing.T) {
	assert.Equal(t, "Recording", getStateDescription(interview.PhaseRecording))
	assert.Equal(t, "Complete", getStateDescription(interview.PhaseComplete))
	assert.Equal(t, "Unknown", getStateDescription(interview.Phase("???")))
}
