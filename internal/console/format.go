package console

import (
	"fmt"
	"strings"

	"nia-mentor/internal/gateway"
	"nia-mentor/internal/storage"
)

// FormatEvaluation текстовый отчет по оценке интервью
func FormatEvaluation(ev *gateway.Evaluation) string {
	if ev == nil {
		return "🎯 Interview evaluated, but the service returned no details."
	}

	var b strings.Builder
	b.WriteString("🎯 Interview evaluation\n\n")
	if ev.Grade != "" {
		fmt.Fprintf(&b, "🏅 Grade: %s (%.0f%%)\n", ev.Grade, ev.Percentage)
	} else {
		fmt.Fprintf(&b, "📊 Result: %.0f%%\n", ev.Percentage)
	}
	if ev.MaxPossibleScore > 0 {
		fmt.Fprintf(&b, "📈 Score: %.1f / %.1f\n", ev.OverallScore, ev.MaxPossibleScore)
	}
	if ev.OverallFeedback != "" {
		fmt.Fprintf(&b, "\n%s\n", ev.OverallFeedback)
	}

	writeList(&b, "💪 Strengths", ev.Strengths)
	writeList(&b, "🔧 Areas for improvement", ev.AreasForImprovement)
	writeList(&b, "📚 Recommendations", ev.Recommendations)

	if len(ev.QuestionEvaluations) > 0 {
		b.WriteString("\n📝 Per question:\n")
		for i, q := range ev.QuestionEvaluations {
			title := q.Question
			if title == "" {
				title = q.QuestionID
			}
			fmt.Fprintf(&b, "%d. %s (%.1f/%.1f)\n", i+1, title, q.Score, q.MaxScore)
			if q.Feedback != "" {
				fmt.Fprintf(&b, "   %s\n", q.Feedback)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatRoadmap план обучения по шагам
func FormatRoadmap(rm *gateway.Roadmap, role string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗺 Learning roadmap: %s\n", role)
	if rm.TotalHours > 0 {
		fmt.Fprintf(&b, "⏱ Total: %.0f hours", rm.TotalHours)
		if rm.EstimatedDuration != "" {
			fmt.Fprintf(&b, " (%s)", rm.EstimatedDuration)
		}
		b.WriteString("\n")
	}
	writeList(&b, "🧩 Skill gaps", rm.SkillGaps)

	if len(rm.Roadmap.LearningPath) > 0 {
		b.WriteString("\n📚 Learning path:\n")
		for i, step := range rm.Roadmap.LearningPath {
			n := step.Step
			if n == 0 {
				n = i + 1
			}
			fmt.Fprintf(&b, "%d. %s", n, step.Title)
			if step.EstimatedHours > 0 {
				fmt.Fprintf(&b, " (%.0fh)", step.EstimatedHours)
			}
			b.WriteString("\n")
			if step.Description != "" {
				fmt.Fprintf(&b, "   %s\n", step.Description)
			}
			if len(step.SkillsCovered) > 0 {
				fmt.Fprintf(&b, "   Skills: %s\n", strings.Join(step.SkillsCovered, ", "))
			}
		}
	}

	if len(rm.Roadmap.MilestoneProjects) > 0 {
		b.WriteString("\n🛠 Milestone projects:\n")
		for _, p := range rm.Roadmap.MilestoneProjects {
			fmt.Fprintf(&b, "• %s", p.Title)
			if len(p.Technologies) > 0 {
				fmt.Fprintf(&b, " [%s]", strings.Join(p.Technologies, ", "))
			}
			b.WriteString("\n")
		}
	}

	if len(rm.Timeline.KeyMilestones) > 0 {
		b.WriteString("\n📅 Timeline:\n")
		for _, m := range rm.Timeline.KeyMilestones {
			fmt.Fprintf(&b, "• %s", m.Milestone)
			if m.AtHours > 0 {
				fmt.Fprintf(&b, " at %.0fh", m.AtHours)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatResult сохраненное интервью с ответами
func FormatResult(r *storage.InterviewResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆔 %s\n📋 %s (%s)\n🕒 %s\n", r.InterviewID, r.Topic, r.Difficulty, r.Timestamp)
	if r.Grade != "" {
		fmt.Fprintf(&b, "🏅 Grade: %s (%.0f%%)\n", r.Grade, r.Percentage)
	}
	fmt.Fprintf(&b, "✅ Answered: %d/%d\n", r.Answered(), len(r.QuestionsAndAnswers))
	for i, qa := range r.QuestionsAndAnswers {
		answer := qa.Answer
		if answer == "" {
			answer = "(skipped)"
		}
		fmt.Fprintf(&b, "\n❓ %d. %s\n💬 %s\n", i+1, qa.Question, answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "• %s\n", item)
	}
}
