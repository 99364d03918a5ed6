package models

import "time"

type Assignment struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:100"`
	Description string    `json:"description" gorm:"type:text"`
	Deadline    time.Time `json:"deadline" gorm:"not null;index"`
	TeacherID   uint      `json:"teacher_id" gorm:"not null;index"`
	ClassID     uint      `json:"class_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Teacher   *User                `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Class     *ClassInfo           `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	Questions []AssignmentQuestion `json:"questions,omitempty" gorm:"foreignKey:AssignmentID"`
}

func (Assignment) TableName() string {
	return "assignments"
}

// IsOverdue reports whether the deadline has passed at now
func (a *Assignment) IsOverdue(now time.Time) bool {
	return now.After(a.Deadline)
}

type AssignmentQuestion struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	AssignmentID uint   `json:"assignment_id" gorm:"not null;index"`
	Order        int    `json:"order" gorm:"not null;default:0"`
	Text         string `json:"text" gorm:"type:text;not null"`
	Points       int    `json:"points" gorm:"not null;default:10"`

	CreatedAt time.Time `json:"created_at"`
}

func (AssignmentQuestion) TableName() string {
	return "assignment_questions"
}

// AssignmentSubmission is unique per (assignment, student) only through
// query-then-update-or-insert in the service layer.
type AssignmentSubmission struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	AssignmentID uint       `json:"assignment_id" gorm:"not null;index:idx_submission_pair"`
	StudentID    uint       `json:"student_id" gorm:"not null;index:idx_submission_pair"`
	TextAnswer   string     `json:"text_answer" gorm:"type:text"`
	FilePath     *string    `json:"file_path" gorm:"size:255"`
	SubmittedAt  time.Time  `json:"submitted_at" gorm:"not null"`
	Graded       bool       `json:"graded" gorm:"not null;default:false"`
	Score        *float64   `json:"score"`
	Feedback     *string    `json:"feedback" gorm:"type:text"`
	GradedAt     *time.Time `json:"graded_at"`

	Assignment *Assignment `json:"assignment,omitempty" gorm:"foreignKey:AssignmentID"`
	Student    *User       `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (AssignmentSubmission) TableName() string {
	return "assignment_submissions"
}
