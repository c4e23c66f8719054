package gateway

import "encoding/json"

// QuestionRequest тело запроса /generate-questions
type QuestionRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"num_questions"`
}

type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionSet вопросы в порядке выдачи сервисом
type QuestionSet struct {
	Questions []Question `json:"questions"`
	SessionID string     `json:"session_id"`
}

type questionResponse struct {
	Questions []json.RawMessage `json:"questions"`
	SessionID string            `json:"session_id"`
}

// AnswerPayload один ответ в запросе оценки; порядок совпадает с вопросами
type AnswerPayload struct {
	SessionID  string `json:"session_id"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

type EvaluationRequest struct {
	SessionID string          `json:"session_id"`
	Answers   []AnswerPayload `json:"answers"`
}

type QuestionEvaluation struct {
	QuestionID string  `json:"question_id"`
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Feedback   string  `json:"feedback"`
}

// Evaluation ответ /evaluate-interview. Raw хранит исходное тело без изменений.
type Evaluation struct {
	OverallScore        float64              `json:"overall_score"`
	MaxPossibleScore    float64              `json:"max_possible_score"`
	Percentage          float64              `json:"percentage"`
	Grade               string               `json:"grade"`
	OverallFeedback     string               `json:"overall_feedback"`
	Topic               string               `json:"topic"`
	Difficulty          string               `json:"difficulty"`
	Strengths           []string             `json:"strengths"`
	AreasForImprovement []string             `json:"areas_for_improvement"`
	Recommendations     []string             `json:"recommendations"`
	QuestionEvaluations []QuestionEvaluation `json:"question_evaluations"`

	Raw json.RawMessage `json:"-"`
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	Response string `json:"response"`
}

type resumeResponse struct {
	Analysis string `json:"analysis"`
	Message  string `json:"message"`
}

// RoadmapRequest тело запроса /generate-roadmap
type RoadmapRequest struct {
	TargetRole      string `json:"target_role"`
	ExperienceLevel string `json:"experience_level"`
	TotalTime       string `json:"total_time"`
}

type LearningStep struct {
	Step               int      `json:"step"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	SkillsCovered      []string `json:"skills_covered,omitempty"`
	EstimatedHours     float64  `json:"estimated_hours,omitempty"`
	Difficulty         string   `json:"difficulty,omitempty"`
	KeyProjects        []string `json:"key_projects,omitempty"`
	CompletionCriteria []string `json:"completion_criteria,omitempty"`
	Prerequisites      []string `json:"prerequisites,omitempty"`
}

type MilestoneProject struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Technologies   []string `json:"technologies,omitempty"`
	EstimatedHours float64  `json:"estimated_hours,omitempty"`
	CompletionAt   string   `json:"completion_at,omitempty"`
}

type TimelineMilestone struct {
	Milestone    string  `json:"milestone"`
	AtHours      float64 `json:"at_hours,omitempty"`
	AtPercentage float64 `json:"at_percentage,omitempty"`
	Deliverable  string  `json:"deliverable,omitempty"`
}

// Roadmap ответ /generate-roadmap; Raw хранит исходное тело
type Roadmap struct {
	TotalHours        float64  `json:"total_hours,omitempty"`
	EstimatedDuration string   `json:"estimated_duration,omitempty"`
	SkillGaps         []string `json:"skill_gaps,omitempty"`
	Roadmap           struct {
		LearningPath       []LearningStep     `json:"learning_path"`
		MilestoneProjects  []MilestoneProject `json:"milestone_projects,omitempty"`
		TotalLearningHours float64            `json:"total_learning_hours,omitempty"`
		BufferHours        float64            `json:"buffer_hours,omitempty"`
	} `json:"roadmap"`
	Timeline struct {
		KeyMilestones []TimelineMilestone `json:"key_milestones,omitempty"`
		LearningHours float64             `json:"learning_hours,omitempty"`
	} `json:"timeline"`

	Raw json.RawMessage `json:"-"`
}
