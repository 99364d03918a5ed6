package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type Exam struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:100"`
	Description string    `json:"description" gorm:"type:text"`
	StartTime   time.Time `json:"start_time" gorm:"not null;index"`
	EndTime     time.Time `json:"end_time" gorm:"not null"`
	Duration    int       `json:"duration" gorm:"not null"` // minutes
	TeacherID   uint      `json:"teacher_id" gorm:"not null;index"`
	ClassID     uint      `json:"class_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Teacher   *User          `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Class     *ClassInfo     `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	Questions []ExamQuestion `json:"questions,omitempty" gorm:"foreignKey:ExamID"`
}

func (Exam) TableName() string {
	return "exams"
}

// IsOpen reports whether answers are accepted at now, bounds inclusive
func (e *Exam) IsOpen(now time.Time) bool {
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// Objective questions are graded automatically on submit
func (t QuestionType) Objective() bool {
	return t != ShortAnswer
}

type QuestionOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type ExamQuestion struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	ExamID uint         `json:"exam_id" gorm:"not null;index"`
	Order  int          `json:"order" gorm:"not null;default:0"`
	Type   QuestionType `json:"type" gorm:"size:20;not null"`
	Text   string       `json:"text" gorm:"type:text;not null"`

	// Options holds []QuestionOption, Answer holds []string of option keys,
	// "true"/"false", or a reference text for short answers
	Options datatypes.JSON `json:"options"`
	Answer  datatypes.JSON `json:"answer"`
	Points  int            `json:"points" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}

func (q *ExamQuestion) OptionList() ([]QuestionOption, error) {
	var opts []QuestionOption
	if len(q.Options) == 0 {
		return opts, nil
	}
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, fmt.Errorf("decode options of question %d: %w", q.ID, err)
	}
	return opts, nil
}

func (q *ExamQuestion) CorrectAnswer() ([]string, error) {
	return decodeAnswer(q.Answer)
}

type ExamSubmission struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ExamID      uint       `json:"exam_id" gorm:"not null;index:idx_exam_submission_pair"`
	StudentID   uint       `json:"student_id" gorm:"not null;index:idx_exam_submission_pair"`
	SubmittedAt time.Time  `json:"submitted_at" gorm:"not null"`
	Score       float64    `json:"score" gorm:"not null;default:0"`
	MaxScore    float64    `json:"max_score" gorm:"not null;default:0"`
	Graded      bool       `json:"graded" gorm:"not null;default:false"`
	GradedAt    *time.Time `json:"graded_at"`

	Exam    *Exam        `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	Student *User        `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Answers []ExamAnswer `json:"answers,omitempty" gorm:"foreignKey:SubmissionID"`
}

func (ExamSubmission) TableName() string {
	return "exam_submissions"
}

type ExamAnswer struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	SubmissionID uint           `json:"submission_id" gorm:"not null;index"`
	QuestionID   uint           `json:"question_id" gorm:"not null;index"`
	Answer       datatypes.JSON `json:"answer"`
	IsCorrect    *bool          `json:"is_correct"`
	Score        float64        `json:"score" gorm:"not null;default:0"`
	Graded       bool           `json:"graded" gorm:"not null;default:false"`
	Feedback     *string        `json:"feedback" gorm:"type:text"`

	Question *ExamQuestion `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (ExamAnswer) TableName() string {
	return "exam_answers"
}

func (a *ExamAnswer) Values() ([]string, error) {
	return decodeAnswer(a.Answer)
}

// EncodeAnswer stores a list of answer values as a JSON array
func EncodeAnswer(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}

func EncodeOptions(opts []QuestionOption) datatypes.JSON {
	if opts == nil {
		opts = []QuestionOption{}
	}
	b, _ := json.Marshal(opts)
	return datatypes.JSON(b)
}

func decodeAnswer(raw datatypes.JSON) ([]string, error) {
	var values []string
	if len(raw) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	return values, nil
}
