package repositories

import (
	"context"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	ListByClass(ctx context.Context, classID uint) ([]*models.Exam, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]*models.Exam, error)
	// ListByTeacherWithClass joins class info, latest start_time first
	ListByTeacherWithClass(ctx context.Context, teacherID uint) ([]models.ExamWithClass, error)

	AddQuestion(ctx context.Context, question *models.ExamQuestion) error
	ListQuestions(ctx context.Context, examID uint) ([]*models.ExamQuestion, error)

	GetSubmission(ctx context.Context, examID, studentID uint) (*models.ExamSubmission, error)
	// GetSubmissionByID preloads the student and answers with their questions
	GetSubmissionByID(ctx context.Context, id uint) (*models.ExamSubmission, error)
	CreateSubmission(ctx context.Context, submission *models.ExamSubmission) error
	UpdateSubmission(ctx context.Context, submission *models.ExamSubmission) error
	ListSubmissions(ctx context.Context, examID uint) ([]*models.ExamSubmission, error)

	// ReplaceAnswers deletes the previous answers of the submission and inserts answers
	ReplaceAnswers(ctx context.Context, submissionID uint, answers []*models.ExamAnswer) error
	ListAnswers(ctx context.Context, submissionID uint) ([]*models.ExamAnswer, error)
	GetAnswerByID(ctx context.Context, id uint) (*models.ExamAnswer, error)
	UpdateAnswer(ctx context.Context, answer *models.ExamAnswer) error

	ListResultsByStudent(ctx context.Context, studentID uint) ([]models.ExamGradeRow, error)
}
