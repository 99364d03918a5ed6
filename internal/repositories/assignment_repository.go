package repositories

import (
	"context"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uint) (*models.Assignment, error)
	ListByClass(ctx context.Context, classID uint) ([]*models.Assignment, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]*models.Assignment, error)
	// ListByTeacherWithClass joins class info, newest deadline first
	ListByTeacherWithClass(ctx context.Context, teacherID uint) ([]models.AssignmentWithClass, error)

	AddQuestion(ctx context.Context, question *models.AssignmentQuestion) error
	ListQuestions(ctx context.Context, assignmentID uint) ([]*models.AssignmentQuestion, error)

	GetSubmission(ctx context.Context, assignmentID, studentID uint) (*models.AssignmentSubmission, error)
	GetSubmissionByID(ctx context.Context, id uint) (*models.AssignmentSubmission, error)
	CreateSubmission(ctx context.Context, submission *models.AssignmentSubmission) error
	UpdateSubmission(ctx context.Context, submission *models.AssignmentSubmission) error
	ListSubmissions(ctx context.Context, assignmentID uint) ([]*models.AssignmentSubmission, error)
	CountSubmissions(ctx context.Context, assignmentID uint) (int64, error)

	ListGradesByStudent(ctx context.Context, studentID uint) ([]models.GradeRow, error)
}
