package interview

import "fmt"

// FallbackQuestions встроенные вопросы на случай недоступности шлюза,
// обрезанные до count
func FallbackQuestions(topic string, count int) []Question {
	subject := topic
	if subject == "" {
		subject = "a general interview"
	}
	questions := []Question{
		{
			ID:   "q_intro",
			Text: fmt.Sprintf("Hi! I'm your AI interviewer for %s. Let's start with a simple introduction. Can you tell me about yourself?", subject),
		},
		{
			ID:   "q_conclusion",
			Text: "Thank you for your response! That concludes our interview.",
		},
	}
	if count < 1 {
		count = 1
	}
	if count < len(questions) {
		questions = questions[:count]
	}
	return questions
}
