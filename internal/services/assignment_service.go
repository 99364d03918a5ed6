package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/teaching-assistant/internal/events"
	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/repositories"
	"github.com/SAP-F-2025/teaching-assistant/internal/storage"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

type assignmentService struct {
	Deps
	store storage.BlobStore
}

func NewAssignmentService(deps Deps, store storage.BlobStore) AssignmentService {
	return &assignmentService{Deps: deps.withDefaults(), store: store}
}

// ===== TEACHER OPERATIONS =====

func (s *assignmentService) Create(ctx context.Context, id Identity, form *validator.AssignmentCreateForm) (*models.Assignment, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	if errs := s.Validator.Struct(form); len(errs) > 0 {
		return nil, errs
	}

	assignment := &models.Assignment{
		Title:       strings.TrimSpace(form.Title),
		Description: form.Description,
		Deadline:    form.DeadlineTime(s.Location),
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
		return tx.Assignment().Create(ctx, assignment)
	})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, verrs
		}
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.Logger.Info("Assignment created", "assignment_id", assignment.ID, "teacher_id", id.UserID, "class_id", assignment.ClassID)
	s.publish(ctx, events.AssignmentCreated, assignment)
	return assignment, nil
}

func (s *assignmentService) TeacherAssignments(ctx context.Context, id Identity) ([]models.AssignmentWithClass, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	rows, err := s.Repo.Assignment().ListByTeacherWithClass(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return rows, nil
}

func (s *assignmentService) AddQuestion(ctx context.Context, id Identity, assignmentID uint, form *validator.AssignmentQuestionForm) (*models.AssignmentQuestion, error) {
	if _, err := s.ownAssignment(ctx, id, assignmentID); err != nil {
		return nil, err
	}
	if errs := s.Validator.Struct(form); len(errs) > 0 {
		return nil, errs
	}

	question := &models.AssignmentQuestion{
		AssignmentID: assignmentID,
		Text:         strings.TrimSpace(form.Text),
		Points:       form.Points,
	}
	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Assignment().AddQuestion(ctx, question)
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Assignment question added", "assignment_id", assignmentID, "question_id", question.ID)
	return question, nil
}

func (s *assignmentService) Questions(ctx context.Context, id Identity, assignmentID uint) (*models.Assignment, []*models.AssignmentQuestion, error) {
	assignment, err := s.ownAssignment(ctx, id, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.Repo.Assignment().ListQuestions(ctx, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	return assignment, questions, nil
}

func (s *assignmentService) Submissions(ctx context.Context, id Identity, assignmentID uint) (*models.Assignment, []*models.AssignmentSubmission, error) {
	assignment, err := s.ownAssignment(ctx, id, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	submissions, err := s.Repo.Assignment().ListSubmissions(ctx, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	return assignment, submissions, nil
}

func (s *assignmentService) Grade(ctx context.Context, id Identity, submissionID uint, form *validator.GradeForm) (*models.AssignmentSubmission, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	submission, err := s.Repo.Assignment().GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, notFound(err, "submission", submissionID)
	}
	if _, err := s.ownAssignment(ctx, id, submission.AssignmentID); err != nil {
		return nil, err
	}
	if errs := s.Validator.Struct(form); len(errs) > 0 {
		return nil, errs
	}

	now := s.Now()
	submission.Graded = true
	submission.Score = ptr(*form.Score)
	submission.Feedback = nil
	if fb := strings.TrimSpace(form.Feedback); fb != "" {
		submission.Feedback = &fb
	}
	submission.GradedAt = &now

	err = s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Assignment().UpdateSubmission(ctx, submission)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Submission graded", "submission_id", submission.ID, "score", *submission.Score, "teacher_id", id.UserID)
	s.publish(ctx, events.SubmissionGraded, map[string]interface{}{
		"submission_id": submission.ID,
		"assignment_id": submission.AssignmentID,
		"student_id":    submission.StudentID,
		"score":         *submission.Score,
	})
	return submission, nil
}

// ===== STUDENT OPERATIONS =====

// StudentAssignments is empty for a student without a class
func (s *assignmentService) StudentAssignments(ctx context.Context, id Identity) ([]*models.Assignment, error) {
	if err := id.requireRole(models.RoleStudent); err != nil {
		return nil, err
	}
	if id.ClassID == nil {
		return []*models.Assignment{}, nil
	}
	assignments, err := s.Repo.Assignment().ListByClass(ctx, *id.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

func (s *assignmentService) StudentAssignment(ctx context.Context, id Identity, assignmentID uint) (*AssignmentDetail, error) {
	assignment, err := s.classAssignment(ctx, id, assignmentID)
	if err != nil {
		return nil, err
	}

	detail := &AssignmentDetail{Assignment: assignment, Overdue: assignment.IsOverdue(s.Now())}
	submission, err := s.Repo.Assignment().GetSubmission(ctx, assignmentID, id.UserID)
	switch {
	case err == nil:
		detail.Submission = submission
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}
	return detail, nil
}

// Submit inserts the first submission or updates the existing one in place.
// Every resubmission returns to ungraded.
func (s *assignmentService) Submit(ctx context.Context, id Identity, assignmentID uint, form *validator.SubmissionForm, upload *Upload) (*SubmitResult, error) {
	if _, err := s.classAssignment(ctx, id, assignmentID); err != nil {
		return nil, err
	}
	if errs := s.Validator.Struct(form); len(errs) > 0 {
		return nil, errs
	}
	if strings.TrimSpace(form.TextAnswer) == "" && upload == nil {
		return nil, fieldError("text_answer", "作答内容", "请填写作答内容或上传文件", "", "answer_required")
	}

	now := s.Now()
	var filePath *string
	if upload != nil {
		name := submissionFileName(assignmentID, id.UserID, now, upload.Filename)
		path, err := s.store.Save(ctx, storage.AssignmentsDir, name, upload.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		filePath = &path
	}

	result := &SubmitResult{}
	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		existing, err := tx.Assignment().GetSubmission(ctx, assignmentID, id.UserID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		if existing == nil {
			result.Created = true
			result.Submission = &models.AssignmentSubmission{
				AssignmentID: assignmentID,
				StudentID:    id.UserID,
				TextAnswer:   form.TextAnswer,
				FilePath:     filePath,
				SubmittedAt:  now,
			}
			return tx.Assignment().CreateSubmission(ctx, result.Submission)
		}

		existing.TextAnswer = form.TextAnswer
		if filePath != nil {
			existing.FilePath = filePath
		}
		existing.SubmittedAt = now
		existing.Graded = false
		existing.Score = nil
		existing.Feedback = nil
		existing.GradedAt = nil
		result.Submission = existing
		return tx.Assignment().UpdateSubmission(ctx, existing)
	})
	if err != nil {
		if filePath != nil {
			if derr := s.store.Delete(context.WithoutCancel(ctx), *filePath); derr != nil {
				s.Logger.Error("Failed to remove upload of rolled back submission", "path", *filePath, "error", derr)
			}
		}
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	s.Logger.Info("Assignment submitted",
		"assignment_id", assignmentID,
		"student_id", id.UserID,
		"submission_id", result.Submission.ID,
		"created", result.Created)
	s.publish(ctx, events.AssignmentSubmitted, map[string]interface{}{
		"submission_id": result.Submission.ID,
		"assignment_id": assignmentID,
		"student_id":    id.UserID,
		"created":       result.Created,
	})
	return result, nil
}

func (s *assignmentService) StudentGrades(ctx context.Context, id Identity) (*StudentGrades, error) {
	if err := id.requireRole(models.RoleStudent); err != nil {
		return nil, err
	}
	assignments, err := s.Repo.Assignment().ListGradesByStudent(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	exams, err := s.Repo.Exam().ListResultsByStudent(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return &StudentGrades{Assignments: assignments, Exams: exams}, nil
}
