package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultTopic     = "General Interview"
	DefaultSessionID = "session_default"
)

// GenerateQuestions запрашивает вопросы для интервью. Неудачные попытки
// повторяются согласно конфигурации.
func (c *Client) GenerateQuestions(ctx context.Context, req QuestionRequest) (*QuestionSet, error) {
	if strings.TrimSpace(req.Topic) == "" {
		req.Topic = DefaultTopic
	}
	url := endpoint(c.cfg.InterviewURL, "/generate-questions")

	return retry(ctx, c, func() (*QuestionSet, error) {
		body, err := c.postJSON(ctx, "generate_questions", url, req)
		if err != nil {
			return nil, err
		}
		return parseQuestionSet(body)
	})
}

func parseQuestionSet(body []byte) (*QuestionSet, error) {
	var resp questionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ошибка парсинга вопросов: %w", err)
	}

	set := &QuestionSet{
		Questions: make([]Question, 0, len(resp.Questions)),
		SessionID: resp.SessionID,
	}
	if set.SessionID == "" {
		set.SessionID = DefaultSessionID
	}
	for _, raw := range resp.Questions {
		set.Questions = append(set.Questions, parseQuestion(raw, len(set.Questions)+1))
	}
	return set, nil
}

// parseQuestion принимает строку, объект {id, question} или {id, text};
// все остальное превращается в текст как есть
func parseQuestion(raw json.RawMessage, position int) Question {
	q := Question{ID: fmt.Sprintf("q_%d", position)}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		q.Text = text
		return q
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		if id := scalarString(obj["id"]); id != "" {
			q.ID = id
		}
		switch {
		case obj["question"] != nil:
			q.Text = scalarString(obj["question"])
		case obj["text"] != nil:
			q.Text = scalarString(obj["text"])
		default:
			q.Text = string(bytes.TrimSpace(raw))
		}
		return q
	}

	q.Text = string(bytes.TrimSpace(raw))
	return q
}

func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// EvaluateInterview отправляет ответы на оценку. Повторов нет: повтор
// инициирует пользователь.
func (c *Client) EvaluateInterview(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	if req.Answers == nil {
		req.Answers = []AnswerPayload{}
	}
	body, err := c.postJSON(ctx, "evaluate_interview", endpoint(c.cfg.InterviewURL, "/evaluate-interview"), req)
	if err != nil {
		return nil, err
	}

	return decodeEvaluation(body, c.log), nil
}

// decodeEvaluation разбирает оценку без потери ответа: любое 2xx тело
// попадает в Raw, типизированные поля заполняются по возможности
func decodeEvaluation(body []byte, log *logrus.Entry) *Evaluation {
	var eval Evaluation
	if err := json.Unmarshal(body, &eval); err != nil {
		log.WithError(err).Warn("evaluation response does not match expected shape, keeping raw body")
		eval = Evaluation{}
	}
	if json.Valid(body) {
		eval.Raw = json.RawMessage(body)
	} else {
		quoted, _ := json.Marshal(string(body))
		eval.Raw = quoted
	}
	return &eval
}
