package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := NewMetrics()
	m.IncrementInterviewsStarted()
	m.IncrementInterviewsStarted()
	m.IncrementQuestionsAsked()
	m.IncrementAnswersCommitted("voice")
	m.IncrementRecordingsStopped("timer")
	m.IncrementProviderError("no-speech", true)
	m.IncrementAPICall("generate_questions", false)
	m.IncrementAPICall("generate_questions", true)
	m.IncrementFallbacks()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InterviewsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuestionsAsked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersCommitted.WithLabelValues("voice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordingsStopped.WithLabelValues("timer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderErrors.WithLabelValues("no-speech", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APICalls.WithLabelValues("generate_questions", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksUsed))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementInterviewsStarted()
		m.IncrementInterviewsCompleted()
		m.IncrementQuestionsAsked()
		m.IncrementAnswersCommitted("text")
		m.IncrementRecordingsStopped("manual")
		m.IncrementProviderError("network", false)
		m.IncrementFallbacks()
		m.IncrementAPICall("ask", true)
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := NewMetrics()
	m.IncrementInterviewsCompleted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "nia_interviews_completed_total 1")
}
