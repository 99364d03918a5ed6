package services

import (
	"context"
	"io"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

// ===== DTOs =====

// Upload is an optional file attached to a submission
type Upload struct {
	Filename string
	Content  io.Reader
}

type AssignmentDetail struct {
	Assignment *models.Assignment
	Submission *models.AssignmentSubmission // nil before the first submission
	Overdue    bool
}

type SubmitResult struct {
	Submission *models.AssignmentSubmission
	Created    bool
}

// ExamQuestionView is a question as shown to students, without the answer key
type ExamQuestionView struct {
	ID      uint                    `json:"id"`
	Order   int                     `json:"order"`
	Type    models.QuestionType     `json:"type"`
	Text    string                  `json:"text"`
	Options []models.QuestionOption `json:"options"`
	Points  int                     `json:"points"`
}

type ExamDetail struct {
	Exam       *models.Exam
	Questions  []ExamQuestionView
	Submission *models.ExamSubmission
	// Answers maps question id to the stored answer values of the submission
	Answers map[uint][]string
	Open    bool
}

type ExamSubmitResult struct {
	Submission *models.ExamSubmission
	Created    bool
	// Pending counts answers left for manual grading
	Pending int
}

type StudentGrades struct {
	Assignments []models.GradeRow
	Exams       []models.ExamGradeRow
}

type StudentDashboard struct {
	Student     *models.User
	Assignments []*models.Assignment
	Exams       []*models.Exam
}

type TeacherDashboard struct {
	Classes     []*models.ClassInfo
	Assignments []*models.Assignment
	Exams       []*models.Exam
}

// Export is a generated spreadsheet
type Export struct {
	Filename string
	Data     []byte
}

// ===== SERVICES =====

type AuthService interface {
	Register(ctx context.Context, form *validator.RegisterForm) (*models.User, error)
	Authenticate(ctx context.Context, form *validator.LoginForm) (*models.User, error)
	CurrentUser(ctx context.Context, userID uint) (*models.User, error)
}

type ClassService interface {
	ListClasses(ctx context.Context) ([]*models.ClassInfo, error)
	CreateClass(ctx context.Context, id Identity, form *validator.ClassCreateForm) (*models.ClassInfo, error)
	ClassStudents(ctx context.Context, id Identity, classID uint) (*models.ClassInfo, []*models.User, error)
	ListStudents(ctx context.Context, id Identity) ([]*models.User, error)
	ClassOptions(ctx context.Context, college, major string) ([]models.Option, error)
}

type DashboardService interface {
	Student(ctx context.Context, id Identity) (*StudentDashboard, error)
	Teacher(ctx context.Context, id Identity) (*TeacherDashboard, error)
}

type AssignmentService interface {
	Create(ctx context.Context, id Identity, form *validator.AssignmentCreateForm) (*models.Assignment, error)
	TeacherAssignments(ctx context.Context, id Identity) ([]models.AssignmentWithClass, error)
	AddQuestion(ctx context.Context, id Identity, assignmentID uint, form *validator.AssignmentQuestionForm) (*models.AssignmentQuestion, error)
	Questions(ctx context.Context, id Identity, assignmentID uint) (*models.Assignment, []*models.AssignmentQuestion, error)
	Submissions(ctx context.Context, id Identity, assignmentID uint) (*models.Assignment, []*models.AssignmentSubmission, error)
	Grade(ctx context.Context, id Identity, submissionID uint, form *validator.GradeForm) (*models.AssignmentSubmission, error)

	StudentAssignments(ctx context.Context, id Identity) ([]*models.Assignment, error)
	StudentAssignment(ctx context.Context, id Identity, assignmentID uint) (*AssignmentDetail, error)
	Submit(ctx context.Context, id Identity, assignmentID uint, form *validator.SubmissionForm, upload *Upload) (*SubmitResult, error)
	StudentGrades(ctx context.Context, id Identity) (*StudentGrades, error)
}

type ExamService interface {
	Create(ctx context.Context, id Identity, form *validator.ExamCreateForm) (*models.Exam, error)
	TeacherExams(ctx context.Context, id Identity) ([]models.ExamWithClass, error)
	AddQuestion(ctx context.Context, id Identity, examID uint, form *validator.ExamQuestionForm) (*models.ExamQuestion, error)
	Questions(ctx context.Context, id Identity, examID uint) (*models.Exam, []*models.ExamQuestion, error)
	Submissions(ctx context.Context, id Identity, examID uint) (*models.Exam, []*models.ExamSubmission, error)
	Submission(ctx context.Context, id Identity, submissionID uint) (*models.ExamSubmission, error)
	GradeAnswer(ctx context.Context, id Identity, answerID uint, form *validator.ExamAnswerGradeForm) (*models.ExamSubmission, error)

	StudentExams(ctx context.Context, id Identity) ([]*models.Exam, error)
	StudentExam(ctx context.Context, id Identity, examID uint) (*ExamDetail, error)
	Submit(ctx context.Context, id Identity, examID uint, answers map[uint][]string) (*ExamSubmitResult, error)
}

type ProfileService interface {
	Profile(ctx context.Context, id Identity) (*models.User, error)
	UpdateProfile(ctx context.Context, id Identity, form *validator.StudentProfileForm) (*models.User, error)
	UpdateAcademicInfo(ctx context.Context, id Identity, form *validator.StudentInfoForm) (*models.User, error)
}

type ExportService interface {
	AssignmentGrades(ctx context.Context, id Identity, assignmentID uint) (*Export, error)
	ExamResults(ctx context.Context, id Identity, examID uint) (*Export, error)
}

type SeedService interface {
	SeedDemoData(ctx context.Context) (int, error)
}

// ServiceManager owns service construction and lifecycle
type ServiceManager interface {
	Initialize(ctx context.Context) error

	Auth() AuthService
	Class() ClassService
	Dashboard() DashboardService
	Assignment() AssignmentService
	Exam() ExamService
	Profile() ProfileService
	Export() ExportService
	Seed() SeedService

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
