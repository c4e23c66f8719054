package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nia-mentor/internal/config"
	"nia-mentor/internal/gateway"
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

// setupEnv поднимает тестовый шлюз и направляет на него все адреса
func setupEnv(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/generate-questions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"session_id":"cli-session","questions":["First?",{"id":"q2","question":"Second?"}]}`)
	})
	mux.HandleFunc("/evaluate-interview", func(w http.ResponseWriter, r *http.Request) {
		var req gateway.EvaluationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"grade":"B","percentage":80,"overall_feedback":"answers=%d"}`, len(req.Answers))
	})
	mux.HandleFunc("/ask", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":"Learn Go and distributed systems."}`)
	})
	mux.HandleFunc("/generate-roadmap", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total_hours":40,"roadmap":{"learning_path":[{"step":1,"title":"Basics"}]}}`)
	})
	mux.HandleFunc("/analyze-resume", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"analysis":"Strong backend profile."}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	results := t.TempDir()
	for key, value := range map[string]string{
		"NIA_INTERVIEW_URL":    srv.URL,
		"NIA_CHAT_URL":         srv.URL,
		"NIA_RESUME_URL":       srv.URL,
		"NIA_ROADMAP_URL":      srv.URL,
		"NIA_GATEWAY_RETRIES":  "1",
		"NIA_RESULTS_DIR":      results,
		"NIA_LOG_LEVEL":        "error",
		"NIA_METRICS_ADDR":     "",
		"NIA_RECOGNIZER_URL":   "",
		"NIA_ORIGIN":           "http://localhost:3000",
		"NIA_INTERVIEW_CONFIG": filepath.Join(t.TempDir(), "missing.yaml"),
	} {
		t.Setenv(key, value)
	}
	return results
}

func run(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	out := &syncBuffer{}
	cmd := NewRootCommand(in, out)
	cmd.SetArgs(args)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestAskCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, strings.NewReader(""), "ask", "what", "should", "I", "learn?")
	require.NoError(t, err)
	assert.Contains(t, out, "🤖 Learn Go and distributed systems.")
}

func TestRoadmapCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, strings.NewReader(""), "roadmap", "--role", "Backend Developer", "--hours", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "🗺 Learning roadmap: Backend Developer")
	assert.Contains(t, out, "1. Basics")

	_, err = run(t, strings.NewReader(""), "roadmap")
	require.Error(t, err)
}

func TestResumeCommand(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	pdf := filepath.Join(dir, "cv.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0644))

	out, err := run(t, strings.NewReader(""), "resume", pdf)
	require.NoError(t, err)
	assert.Contains(t, out, "Strong backend profile.")

	txt := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(txt, []byte("plain"), 0644))
	_, err = run(t, strings.NewReader(""), "resume", txt)
	require.ErrorIs(t, err, gateway.ErrUnsupportedFile)
}

func TestInterviewCommandSavesResult(t *testing.T) {
	results := setupEnv(t)
	cfgFile := filepath.Join(t.TempDir(), "interview.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
timing:
  reveal_interval: 0s
  speak_delay: 0s
  advance_delay: 0s
  ask_delay: 0s
`), 0644))

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	go func() {
		fmt.Fprintln(pw, "goroutines are cheap")
		fmt.Fprintln(pw, "/skip")
	}()

	out, err := run(t, pr, "interview", "--config", cfgFile, "--topic", "Go", "--difficulty", "beginner", "--count", "2", "--no-speech")
	require.NoError(t, err)
	assert.Contains(t, out, "🎯 Mock interview: Go (beginner), 2 questions")
	assert.Contains(t, out, "❓ Question 1: First?")
	assert.Contains(t, out, "🏅 Grade: B (80%)")
	assert.Contains(t, out, "answers=2")
	assert.NotContains(t, out, "🔊")

	out, err = run(t, strings.NewReader(""), "results", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Go (beginner)  grade B")

	entries, err := os.ReadDir(results)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	id := strings.TrimSuffix(strings.TrimPrefix(entries[0].Name(), "interview_"), ".json")

	out, err = run(t, strings.NewReader(""), "results", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "💬 goroutines are cheap")
	assert.Contains(t, out, "💬 (skipped)")
}

func TestResultsListEmpty(t *testing.T) {
	setupEnv(t)

	out, err := run(t, strings.NewReader(""), "results", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved interviews yet.")
}

func TestInvalidLogLevel(t *testing.T) {
	setupEnv(t)

	_, err := run(t, strings.NewReader(""), "--log-level", "loud", "results", "list")
	require.Error(t, err)
}

func TestInterviewConfigFlagsOverrideFile(t *testing.T) {
	cfg := config.Default()

	ic, err := interviewConfig(cfg, interviewFlags{topic: "Rust", count: 3})
	require.NoError(t, err)
	assert.Equal(t, "Rust", ic.Topic)
	assert.Equal(t, 3, ic.QuestionCount)
	assert.Equal(t, "intermediate", string(ic.Difficulty))

	_, err = interviewConfig(cfg, interviewFlags{difficulty: "guru"})
	require.Error(t, err)
}
