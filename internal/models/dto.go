package models

import "time"

// Read models returned by joined list queries

type AssignmentWithClass struct {
	Assignment
	College   string `json:"college"`
	Major     string `json:"major"`
	ClassName string `json:"class_name"`
}

type ExamWithClass struct {
	Exam
	College   string `json:"college"`
	Major     string `json:"major"`
	ClassName string `json:"class_name"`
}

// GradeRow is one line of a student's grade view
type GradeRow struct {
	SubmissionID    uint       `json:"submission_id"`
	AssignmentID    uint       `json:"assignment_id"`
	AssignmentTitle string     `json:"assignment_title"`
	Deadline        time.Time  `json:"deadline"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	Graded          bool       `json:"graded"`
	Score           *float64   `json:"score"`
	Feedback        *string    `json:"feedback"`
	GradedAt        *time.Time `json:"graded_at"`
}

// ExamGradeRow is one line of a student's exam results
type ExamGradeRow struct {
	SubmissionID uint      `json:"submission_id"`
	ExamID       uint      `json:"exam_id"`
	ExamTitle    string    `json:"exam_title"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Score        float64   `json:"score"`
	MaxScore     float64   `json:"max_score"`
	Graded       bool      `json:"graded"`
}

// Option is the {id, name} pair served to cascading dropdowns
type Option struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}
