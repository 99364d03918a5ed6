package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/teaching-assistant/internal/events"
	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/repositories"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

type examService struct {
	Deps
}

func NewExamService(deps Deps) ExamService {
	return &examService{Deps: deps.withDefaults()}
}

// ===== TEACHER OPERATIONS =====

func (s *examService) Create(ctx context.Context, id Identity, form *validator.ExamCreateForm) (*models.Exam, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	if errs := s.Validator.ValidateExamCreate(form, s.Location); len(errs) > 0 {
		return nil, errs
	}

	start, end := form.Window(s.Location)
	exam := &models.Exam{
		Title:       strings.TrimSpace(form.Title),
		Description: form.Description,
		StartTime:   start,
		EndTime:     end,
		Duration:    form.Duration,
		TeacherID:   id.UserID,
		ClassID:     form.ClassID,
	}

	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := tx.Class().GetByID(ctx, form.ClassID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fieldError("class_id", "班级", "班级不存在", form.ClassID, "class_exists")
			}
			return err
		}
		return tx.Exam().Create(ctx, exam)
	})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, verrs
		}
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.Logger.Info("Exam created", "exam_id", exam.ID, "teacher_id", id.UserID, "class_id", exam.ClassID)
	s.publish(ctx, events.ExamCreated, exam)
	return exam, nil
}

func (s *examService) TeacherExams(ctx context.Context, id Identity) ([]models.ExamWithClass, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	rows, err := s.Repo.Exam().ListByTeacherWithClass(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return rows, nil
}

func (s *examService) AddQuestion(ctx context.Context, id Identity, examID uint, form *validator.ExamQuestionForm) (*models.ExamQuestion, error) {
	if _, err := s.ownExam(ctx, id, examID); err != nil {
		return nil, err
	}
	if errs := s.Validator.ValidateExamQuestion(form); len(errs) > 0 {
		return nil, errs
	}

	qt := models.QuestionType(form.Type)
	question := &models.ExamQuestion{
		ExamID:  examID,
		Type:    qt,
		Text:    strings.TrimSpace(form.Text),
		Options: models.EncodeOptions(buildOptions(qt, form.OptionLines())),
		Answer:  models.EncodeAnswer(form.AnswerValues()),
		Points:  form.Points,
	}
	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Exam().AddQuestion(ctx, question)
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Exam question added", "exam_id", examID, "question_id", question.ID, "type", qt)
	return question, nil
}

func (s *examService) Questions(ctx context.Context, id Identity, examID uint) (*models.Exam, []*models.ExamQuestion, error) {
	exam, err := s.ownExam(ctx, id, examID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.Repo.Exam().ListQuestions(ctx, examID)
	if err != nil {
		return nil, nil, err
	}
	return exam, questions, nil
}

func (s *examService) Submissions(ctx context.Context, id Identity, examID uint) (*models.Exam, []*models.ExamSubmission, error) {
	exam, err := s.ownExam(ctx, id, examID)
	if err != nil {
		return nil, nil, err
	}
	submissions, err := s.Repo.Exam().ListSubmissions(ctx, examID)
	if err != nil {
		return nil, nil, err
	}
	return exam, submissions, nil
}

func (s *examService) Submission(ctx context.Context, id Identity, submissionID uint) (*models.ExamSubmission, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	submission, err := s.Repo.Exam().GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, notFound(err, "exam submission", submissionID)
	}
	if _, err := s.ownExam(ctx, id, submission.ExamID); err != nil {
		return nil, err
	}
	return submission, nil
}

// GradeAnswer sets a manual score; once nothing is pending the submission becomes graded
func (s *examService) GradeAnswer(ctx context.Context, id Identity, answerID uint, form *validator.ExamAnswerGradeForm) (*models.ExamSubmission, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	answer, err := s.Repo.Exam().GetAnswerByID(ctx, answerID)
	if err != nil {
		return nil, notFound(err, "answer", answerID)
	}
	submission, err := s.Repo.Exam().GetSubmissionByID(ctx, answer.SubmissionID)
	if err != nil {
		return nil, notFound(err, "exam submission", answer.SubmissionID)
	}
	if _, err := s.ownExam(ctx, id, submission.ExamID); err != nil {
		return nil, err
	}

	points := 0
	if answer.Question != nil {
		points = answer.Question.Points
	}
	if errs := s.Validator.ValidateExamAnswerGrade(form, points); len(errs) > 0 {
		return nil, errs
	}

	score := roundScore(*form.Score)
	answer.Score = score
	answer.Graded = true
	answer.IsCorrect = ptr(score >= float64(points))
	answer.Feedback = nil
	if fb := strings.TrimSpace(form.Feedback); fb != "" {
		answer.Feedback = &fb
	}

	now := s.Now()
	err = s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Exam().UpdateAnswer(ctx, answer); err != nil {
			return err
		}
		answers, err := tx.Exam().ListAnswers(ctx, submission.ID)
		if err != nil {
			return err
		}
		applyTotals(submission, answers, now)
		return tx.Exam().UpdateSubmission(ctx, submission)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to grade answer: %w", err)
	}

	s.Logger.Info("Exam answer graded",
		"answer_id", answer.ID,
		"submission_id", submission.ID,
		"score", score,
		"submission_graded", submission.Graded)
	s.publish(ctx, events.ExamAnswerGraded, map[string]interface{}{
		"answer_id":     answer.ID,
		"submission_id": submission.ID,
		"exam_id":       submission.ExamID,
		"student_id":    submission.StudentID,
		"total":         submission.Score,
		"graded":        submission.Graded,
	})

	return s.Repo.Exam().GetSubmissionByID(ctx, submission.ID)
}

// ===== STUDENT OPERATIONS =====

func (s *examService) StudentExams(ctx context.Context, id Identity) ([]*models.Exam, error) {
	if err := id.requireRole(models.RoleStudent); err != nil {
		return nil, err
	}
	if id.ClassID == nil {
		return []*models.Exam{}, nil
	}
	exams, err := s.Repo.Exam().ListByClass(ctx, *id.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, nil
}

func (s *examService) StudentExam(ctx context.Context, id Identity, examID uint) (*ExamDetail, error) {
	exam, err := s.classExam(ctx, id, examID)
	if err != nil {
		return nil, err
	}

	// stored questions carry the answer key; students only get the views built below
	scrubbed := *exam
	scrubbed.Questions = nil
	detail := &ExamDetail{
		Exam:    &scrubbed,
		Open:    exam.IsOpen(s.Now()),
		Answers: map[uint][]string{},
	}
	for i := range exam.Questions {
		view, err := questionView(&exam.Questions[i])
		if err != nil {
			return nil, err
		}
		detail.Questions = append(detail.Questions, view)
	}

	submission, err := s.Repo.Exam().GetSubmission(ctx, examID, id.UserID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return detail, nil
	case err != nil:
		return nil, err
	}
	detail.Submission = submission

	answers, err := s.Repo.Exam().ListAnswers(ctx, submission.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		values, err := a.Values()
		if err != nil {
			return nil, err
		}
		detail.Answers[a.QuestionID] = values
	}
	return detail, nil
}

// Submit stores one submission per (exam, student), replacing earlier answers.
// Objective questions are graded immediately.
func (s *examService) Submit(ctx context.Context, id Identity, examID uint, answers map[uint][]string) (*ExamSubmitResult, error) {
	exam, err := s.classExam(ctx, id, examID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	if !exam.IsOpen(now) {
		return nil, fmt.Errorf("exam %d: %w", examID, ErrExamClosed)
	}

	graded, err := autoGrade(exam.Questions, answers)
	if err != nil {
		return nil, err
	}

	result := &ExamSubmitResult{}
	err = s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		submission, err := tx.Exam().GetSubmission(ctx, examID, id.UserID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			result.Created = true
			submission = &models.ExamSubmission{ExamID: examID, StudentID: id.UserID, SubmittedAt: now}
			if err := tx.Exam().CreateSubmission(ctx, submission); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		submission.SubmittedAt = now
		result.Pending = applyTotals(submission, graded, now)
		if err := tx.Exam().ReplaceAnswers(ctx, submission.ID, graded); err != nil {
			return err
		}
		result.Submission = submission
		return tx.Exam().UpdateSubmission(ctx, submission)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save exam submission: %w", err)
	}

	s.Logger.Info("Exam submitted",
		"exam_id", examID,
		"student_id", id.UserID,
		"submission_id", result.Submission.ID,
		"score", result.Submission.Score,
		"pending", result.Pending)
	s.publish(ctx, events.ExamSubmitted, map[string]interface{}{
		"submission_id": result.Submission.ID,
		"exam_id":       examID,
		"student_id":    id.UserID,
		"score":         result.Submission.Score,
		"max_score":     result.Submission.MaxScore,
		"graded":        result.Submission.Graded,
	})
	return result, nil
}
