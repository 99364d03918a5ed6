package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

type examGorm struct {
	db *gorm.DB
}

func newExamGorm(db *gorm.DB) *examGorm {
	return &examGorm{db: db}
}

func (e *examGorm) Create(ctx context.Context, exam *models.Exam) error {
	if err := e.db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

func (e *examGorm) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	err := e.db.WithContext(ctx).
		Preload("Class").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`exam_questions."order" ASC, exam_questions.id ASC`)
		}).
		First(&exam, id).Error
	if err != nil {
		return nil, wrapErr(err, fmt.Sprintf("failed to get exam %d", id))
	}
	return &exam, nil
}

func (e *examGorm) ListByClass(ctx context.Context, classID uint) ([]*models.Exam, error) {
	var exams []*models.Exam
	err := e.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("start_time ASC").
		Find(&exams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exams of class %d: %w", classID, err)
	}
	return exams, nil
}

func (e *examGorm) ListByTeacher(ctx context.Context, teacherID uint) ([]*models.Exam, error) {
	var exams []*models.Exam
	err := e.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("start_time DESC").
		Find(&exams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exams of teacher %d: %w", teacherID, err)
	}
	return exams, nil
}

func (e *examGorm) ListByTeacherWithClass(ctx context.Context, teacherID uint) ([]models.ExamWithClass, error) {
	var rows []models.ExamWithClass
	err := e.db.WithContext(ctx).
		Table("exams").
		Select("exams.*, class_info.college, class_info.major, class_info.class_name").
		Joins("JOIN class_info ON class_info.id = exams.class_id").
		Where("exams.teacher_id = ?", teacherID).
		Order("exams.start_time DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exams with class: %w", err)
	}
	return rows, nil
}

func (e *examGorm) AddQuestion(ctx context.Context, question *models.ExamQuestion) error {
	db := e.db.WithContext(ctx)
	if question.Order == 0 {
		next, err := nextOrder(db, &models.ExamQuestion{}, "exam_id", question.ExamID)
		if err != nil {
			return err
		}
		question.Order = next
	}
	if err := db.Create(question).Error; err != nil {
		return fmt.Errorf("failed to add exam question: %w", err)
	}
	return nil
}

func (e *examGorm) ListQuestions(ctx context.Context, examID uint) ([]*models.ExamQuestion, error) {
	var questions []*models.ExamQuestion
	err := e.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order(`"order" ASC, id ASC`).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exam questions: %w", err)
	}
	return questions, nil
}

func (e *examGorm) GetSubmission(ctx context.Context, examID, studentID uint) (*models.ExamSubmission, error) {
	var submission models.ExamSubmission
	err := e.db.WithContext(ctx).
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		Order("id ASC").
		First(&submission).Error
	if err != nil {
		return nil, wrapErr(err, "failed to get exam submission")
	}
	return &submission, nil
}

func (e *examGorm) GetSubmissionByID(ctx context.Context, id uint) (*models.ExamSubmission, error) {
	var submission models.ExamSubmission
	err := e.db.WithContext(ctx).
		Preload("Exam").
		Preload("Student").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_answers.id ASC")
		}).
		Preload("Answers.Question").
		First(&submission, id).Error
	if err != nil {
		return nil, wrapErr(err, fmt.Sprintf("failed to get exam submission %d", id))
	}
	return &submission, nil
}

func (e *examGorm) CreateSubmission(ctx context.Context, submission *models.ExamSubmission) error {
	if err := e.db.WithContext(ctx).Omit("Answers").Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create exam submission: %w", err)
	}
	return nil
}

func (e *examGorm) UpdateSubmission(ctx context.Context, submission *models.ExamSubmission) error {
	err := e.db.WithContext(ctx).
		Model(submission).
		Select("submitted_at", "score", "max_score", "graded", "graded_at").
		Updates(submission).Error
	if err != nil {
		return fmt.Errorf("failed to update exam submission %d: %w", submission.ID, err)
	}
	return nil
}

func (e *examGorm) ListSubmissions(ctx context.Context, examID uint) ([]*models.ExamSubmission, error) {
	var submissions []*models.ExamSubmission
	err := e.db.WithContext(ctx).
		Preload("Student").
		Where("exam_id = ?", examID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions of exam %d: %w", examID, err)
	}
	return submissions, nil
}

func (e *examGorm) ReplaceAnswers(ctx context.Context, submissionID uint, answers []*models.ExamAnswer) error {
	db := e.db.WithContext(ctx)
	if err := db.Where("submission_id = ?", submissionID).Delete(&models.ExamAnswer{}).Error; err != nil {
		return fmt.Errorf("failed to clear answers of submission %d: %w", submissionID, err)
	}
	if len(answers) == 0 {
		return nil
	}
	for _, a := range answers {
		a.SubmissionID = submissionID
	}
	if err := db.Omit("Question").Create(&answers).Error; err != nil {
		return fmt.Errorf("failed to save answers of submission %d: %w", submissionID, err)
	}
	return nil
}

func (e *examGorm) ListAnswers(ctx context.Context, submissionID uint) ([]*models.ExamAnswer, error) {
	var answers []*models.ExamAnswer
	err := e.db.WithContext(ctx).
		Preload("Question").
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

func (e *examGorm) GetAnswerByID(ctx context.Context, id uint) (*models.ExamAnswer, error) {
	var answer models.ExamAnswer
	if err := e.db.WithContext(ctx).Preload("Question").First(&answer, id).Error; err != nil {
		return nil, wrapErr(err, fmt.Sprintf("failed to get answer %d", id))
	}
	return &answer, nil
}

func (e *examGorm) UpdateAnswer(ctx context.Context, answer *models.ExamAnswer) error {
	err := e.db.WithContext(ctx).
		Model(answer).
		Select("is_correct", "score", "graded", "feedback").
		Updates(answer).Error
	if err != nil {
		return fmt.Errorf("failed to update answer %d: %w", answer.ID, err)
	}
	return nil
}

func (e *examGorm) ListResultsByStudent(ctx context.Context, studentID uint) ([]models.ExamGradeRow, error) {
	var rows []models.ExamGradeRow
	err := e.db.WithContext(ctx).
		Table("exam_submissions AS s").
		Select(`s.id AS submission_id, s.exam_id, e.title AS exam_title, s.submitted_at,
			s.score, s.max_score, s.graded`).
		Joins("JOIN exams AS e ON e.id = s.exam_id").
		Where("s.student_id = ?", studentID).
		Order("s.submitted_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exam results of student %d: %w", studentID, err)
	}
	return rows, nil
}
