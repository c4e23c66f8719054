package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics счетчики тренажера интервью. Все методы безопасны для nil.
type Metrics struct {
	registry *prometheus.Registry

	InterviewsStarted   prometheus.Counter
	InterviewsCompleted prometheus.Counter
	QuestionsAsked      prometheus.Counter
	AnswersCommitted    *prometheus.CounterVec
	RecordingsStopped   *prometheus.CounterVec
	ProviderErrors      *prometheus.CounterVec
	FallbacksUsed       prometheus.Counter
	APICalls            *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		InterviewsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nia", Name: "interviews_started_total",
			Help: "Interviews that requested questions.",
		}),
		InterviewsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nia", Name: "interviews_completed_total",
			Help: "Interviews evaluated by the gateway.",
		}),
		QuestionsAsked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nia", Name: "questions_asked_total",
			Help: "Questions revealed to the candidate.",
		}),
		AnswersCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nia", Name: "answers_committed_total",
			Help: "Answers stored per question, by input source.",
		}, []string{"source"}),
		RecordingsStopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nia", Name: "recordings_stopped_total",
			Help: "Recording sessions stopped, by reason.",
		}, []string{"reason"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nia", Name: "provider_errors_total",
			Help: "Speech recognition errors, by code and recoverability.",
		}, []string{"code", "recoverable"}),
		FallbacksUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nia", Name: "question_fallbacks_total",
			Help: "Sessions that switched to built-in questions.",
		}),
		APICalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nia", Name: "gateway_calls_total",
			Help: "Remote gateway calls, by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
	m.registry.MustRegister(
		m.InterviewsStarted,
		m.InterviewsCompleted,
		m.QuestionsAsked,
		m.AnswersCommitted,
		m.RecordingsStopped,
		m.ProviderErrors,
		m.FallbacksUsed,
		m.APICalls,
	)
	return m
}

func (m *Metrics) IncrementInterviewsStarted() {
	if m == nil {
		return
	}
	m.InterviewsStarted.Inc()
}

func (m *Metrics) IncrementInterviewsCompleted() {
	if m == nil {
		return
	}
	m.InterviewsCompleted.Inc()
}

func (m *Metrics) IncrementQuestionsAsked() {
	if m == nil {
		return
	}
	m.QuestionsAsked.Inc()
}

func (m *Metrics) IncrementAnswersCommitted(source string) {
	if m == nil {
		return
	}
	m.AnswersCommitted.WithLabelValues(source).Inc()
}

func (m *Metrics) IncrementRecordingsStopped(reason string) {
	if m == nil {
		return
	}
	m.RecordingsStopped.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementProviderError(code string, recoverable bool) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(code, strconv.FormatBool(recoverable)).Inc()
}

func (m *Metrics) IncrementFallbacks() {
	if m == nil {
		return
	}
	m.FallbacksUsed.Inc()
}

func (m *Metrics) IncrementAPICall(operation string, success bool) {
	if m == nil {
		return
	}
	outcome := "error"
	if success {
		outcome = "success"
	}
	m.APICalls.WithLabelValues(operation, outcome).Inc()
}

// Handler отдает метрики в формате prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
