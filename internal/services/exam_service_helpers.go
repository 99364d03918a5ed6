package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

func (s *examService) ownExam(ctx context.Context, id Identity, examID uint) (*models.Exam, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	exam, err := s.Repo.Exam().GetByID(ctx, examID)
	if err != nil {
		return nil, notFound(err, "exam", examID)
	}
	if exam.TeacherID != id.UserID {
		return nil, fmt.Errorf("%w: exam %d belongs to another teacher", ErrForbidden, examID)
	}
	return exam, nil
}

func (s *examService) classExam(ctx context.Context, id Identity, examID uint) (*models.Exam, error) {
	if err := id.requireRole(models.RoleStudent); err != nil {
		return nil, err
	}
	exam, err := s.Repo.Exam().GetByID(ctx, examID)
	if err != nil {
		return nil, notFound(err, "exam", examID)
	}
	if !id.inClass(exam.ClassID) {
		return nil, fmt.Errorf("exam %d: %w", examID, ErrNotFound)
	}
	return exam, nil
}

var trueFalseOptions = []models.QuestionOption{
	{Key: "true", Text: "正确"},
	{Key: "false", Text: "错误"},
}

// buildOptions keys option lines A, B, C... in order
func buildOptions(qt models.QuestionType, lines []string) []models.QuestionOption {
	switch qt {
	case models.SingleChoice, models.MultipleChoice:
		opts := make([]models.QuestionOption, 0, len(lines))
		for i, line := range lines {
			opts = append(opts, models.QuestionOption{Key: validator.OptionKeys[i], Text: line})
		}
		return opts
	case models.TrueFalse:
		return trueFalseOptions
	}
	return nil
}

func questionView(q *models.ExamQuestion) (ExamQuestionView, error) {
	opts, err := q.OptionList()
	if err != nil {
		return ExamQuestionView{}, err
	}
	return ExamQuestionView{
		ID:      q.ID,
		Order:   q.Order,
		Type:    q.Type,
		Text:    q.Text,
		Options: opts,
		Points:  q.Points,
	}, nil
}

// autoGrade builds one answer row per question. Objective and blank answers
// are graded now; written short answers wait for the teacher.
func autoGrade(questions []models.ExamQuestion, submitted map[uint][]string) ([]*models.ExamAnswer, error) {
	out := make([]*models.ExamAnswer, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		values := normalizeAnswer(q.Type, submitted[q.ID])
		answer := &models.ExamAnswer{
			QuestionID: q.ID,
			Answer:     models.EncodeAnswer(values),
			Question:   q,
		}

		switch {
		case q.Type.Objective():
			correct, err := q.CorrectAnswer()
			if err != nil {
				return nil, err
			}
			ratio, ok := gradeObjective(q.Type, correct, values)
			answer.Score = scaleScore(ratio, q.Points)
			answer.IsCorrect = ptr(ok)
			answer.Graded = true
		case len(values) == 0:
			answer.IsCorrect = ptr(false)
			answer.Graded = true
		}
		out = append(out, answer)
	}
	return out, nil
}

// applyTotals recomputes score, max score and graded state from answers,
// which must carry their questions, and returns the number still pending
func applyTotals(submission *models.ExamSubmission, answers []*models.ExamAnswer, now time.Time) int {
	var score, maxScore float64
	pending := 0
	for _, a := range answers {
		score += a.Score
		if a.Question != nil {
			maxScore += float64(a.Question.Points)
		}
		if !a.Graded {
			pending++
		}
	}
	submission.Score = roundScore(score)
	submission.MaxScore = maxScore
	submission.Graded = pending == 0
	submission.GradedAt = nil
	if submission.Graded {
		submission.GradedAt = &now
	}
	return pending
}
