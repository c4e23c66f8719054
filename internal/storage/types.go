package storage

import (
	"encoding/json"
	"time"

	"nia-mentor/internal/interview"
)

// InterviewResult представляет результат всего интервью
type InterviewResult struct {
	InterviewID         string          `json:"interview_id"`
	SessionID           string          `json:"session_id"`
	Timestamp           string          `json:"timestamp"`
	Topic               string          `json:"topic"`
	Difficulty          string          `json:"difficulty"`
	QuestionsAndAnswers []QA            `json:"questions_and_answers"`
	Grade               string          `json:"grade,omitempty"`
	Percentage          float64         `json:"percentage,omitempty"`
	Evaluation          json.RawMessage `json:"evaluation,omitempty"`
}

// QA представляет один вопрос и ответ
type QA struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

// NewInterviewResult собирает запись из итога сессии
func NewInterviewResult(id string, r interview.Result, at time.Time) *InterviewResult {
	result := &InterviewResult{
		InterviewID:         id,
		SessionID:           r.SessionID,
		Timestamp:           at.UTC().Format(time.RFC3339),
		Topic:               r.Config.Topic,
		Difficulty:          string(r.Config.Difficulty),
		QuestionsAndAnswers: make([]QA, 0, len(r.Questions)),
	}
	for i, q := range r.Questions {
		qa := QA{QuestionID: q.ID, Question: q.Text}
		if i < len(r.Answers) {
			qa.Answer = r.Answers[i]
		}
		result.QuestionsAndAnswers = append(result.QuestionsAndAnswers, qa)
	}
	if ev := r.Evaluation; ev != nil {
		result.Grade = ev.Grade
		result.Percentage = ev.Percentage
		if len(ev.Raw) > 0 {
			result.Evaluation = ev.Raw
		} else if raw, err := json.Marshal(ev); err == nil {
			result.Evaluation = raw
		}
	}
	return result
}

// Answered количество непустых ответов
func (r *InterviewResult) Answered() int {
	n := 0
	for _, qa := range r.QuestionsAndAnswers {
		if qa.Answer != "" {
			n++
		}
	}
	return n
}
