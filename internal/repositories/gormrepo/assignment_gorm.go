package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

type assignmentGorm struct {
	db *gorm.DB
}

func newAssignmentGorm(db *gorm.DB) *assignmentGorm {
	return &assignmentGorm{db: db}
}

func (a *assignmentGorm) Create(ctx context.Context, assignment *models.Assignment) error {
	if err := a.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (a *assignmentGorm) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	err := a.db.WithContext(ctx).
		Preload("Class").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`assignment_questions."order" ASC, assignment_questions.id ASC`)
		}).
		First(&assignment, id).Error
	if err != nil {
		return nil, wrapErr(err, fmt.Sprintf("failed to get assignment %d", id))
	}
	return &assignment, nil
}

func (a *assignmentGorm) ListByClass(ctx context.Context, classID uint) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	err := a.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("deadline ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments of class %d: %w", classID, err)
	}
	return assignments, nil
}

func (a *assignmentGorm) ListByTeacher(ctx context.Context, teacherID uint) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	err := a.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("deadline DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments of teacher %d: %w", teacherID, err)
	}
	return assignments, nil
}

func (a *assignmentGorm) ListByTeacherWithClass(ctx context.Context, teacherID uint) ([]models.AssignmentWithClass, error) {
	var rows []models.AssignmentWithClass
	err := a.db.WithContext(ctx).
		Table("assignments").
		Select("assignments.*, class_info.college, class_info.major, class_info.class_name").
		Joins("JOIN class_info ON class_info.id = assignments.class_id").
		Where("assignments.teacher_id = ?", teacherID).
		Order("assignments.deadline DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments with class: %w", err)
	}
	return rows, nil
}

func (a *assignmentGorm) AddQuestion(ctx context.Context, question *models.AssignmentQuestion) error {
	db := a.db.WithContext(ctx)
	if question.Order == 0 {
		next, err := nextOrder(db, &models.AssignmentQuestion{}, "assignment_id", question.AssignmentID)
		if err != nil {
			return err
		}
		question.Order = next
	}
	if err := db.Create(question).Error; err != nil {
		return fmt.Errorf("failed to add assignment question: %w", err)
	}
	return nil
}

func (a *assignmentGorm) ListQuestions(ctx context.Context, assignmentID uint) ([]*models.AssignmentQuestion, error) {
	var questions []*models.AssignmentQuestion
	err := a.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order(`"order" ASC, id ASC`).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment questions: %w", err)
	}
	return questions, nil
}

func (a *assignmentGorm) GetSubmission(ctx context.Context, assignmentID, studentID uint) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	err := a.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Order("id ASC").
		First(&submission).Error
	if err != nil {
		return nil, wrapErr(err, "failed to get submission")
	}
	return &submission, nil
}

func (a *assignmentGorm) GetSubmissionByID(ctx context.Context, id uint) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	err := a.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Student").
		First(&submission, id).Error
	if err != nil {
		return nil, wrapErr(err, fmt.Sprintf("failed to get submission %d", id))
	}
	return &submission, nil
}

func (a *assignmentGorm) CreateSubmission(ctx context.Context, submission *models.AssignmentSubmission) error {
	if err := a.db.WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (a *assignmentGorm) UpdateSubmission(ctx context.Context, submission *models.AssignmentSubmission) error {
	err := a.db.WithContext(ctx).
		Model(submission).
		Select("text_answer", "file_path", "submitted_at", "graded", "score", "feedback", "graded_at").
		Updates(submission).Error
	if err != nil {
		return fmt.Errorf("failed to update submission %d: %w", submission.ID, err)
	}
	return nil
}

func (a *assignmentGorm) ListSubmissions(ctx context.Context, assignmentID uint) ([]*models.AssignmentSubmission, error) {
	var submissions []*models.AssignmentSubmission
	err := a.db.WithContext(ctx).
		Preload("Student").
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions of assignment %d: %w", assignmentID, err)
	}
	return submissions, nil
}

func (a *assignmentGorm) CountSubmissions(ctx context.Context, assignmentID uint) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.AssignmentSubmission{}).
		Where("assignment_id = ?", assignmentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

func (a *assignmentGorm) ListGradesByStudent(ctx context.Context, studentID uint) ([]models.GradeRow, error) {
	var rows []models.GradeRow
	err := a.db.WithContext(ctx).
		Table("assignment_submissions AS s").
		Select(`s.id AS submission_id, s.assignment_id, a.title AS assignment_title, a.deadline,
			s.submitted_at, s.graded, s.score, s.feedback, s.graded_at`).
		Joins("JOIN assignments AS a ON a.id = s.assignment_id").
		Where("s.student_id = ?", studentID).
		Order("s.submitted_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list grades of student %d: %w", studentID, err)
	}
	return rows, nil
}

// nextOrder returns one past the highest "order" among rows where column = id
func nextOrder(db *gorm.DB, model interface{}, column string, id uint) (int, error) {
	var maxOrder int
	err := db.Model(model).
		Where(column+" = ?", id).
		Select(`COALESCE(MAX("order"), 0)`).
		Scan(&maxOrder).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute question order: %w", err)
	}
	return maxOrder + 1, nil
}
