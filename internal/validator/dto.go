package validator

import (
	"slices"
	"strings"
	"time"
)

// RegisterForm is the self-service account form
type RegisterForm struct {
	Name            string `form:"name" label:"姓名" validate:"trimmed_required,max=64"`
	Phone           string `form:"phone" label:"手机号" validate:"required,phone"`
	Password        string `form:"password" label:"密码" validate:"required,min=6,max=128"`
	ConfirmPassword string `form:"confirm_password" label:"确认密码" validate:"required,eqfield=Password"`
	Role            string `form:"role" label:"角色" validate:"required,oneof=student teacher"`
}

type LoginForm struct {
	Phone      string `form:"phone" label:"手机号" validate:"required,max=20"`
	Password   string `form:"password" label:"密码" validate:"required"`
	// RememberMe is read from the checkbox by the handler
	RememberMe bool `form:"-"`
}

type ClassCreateForm struct {
	College     string `form:"college" label:"学院" validate:"trimmed_required,max=64"`
	Major       string `form:"major" label:"专业" validate:"trimmed_required,max=64"`
	ClassName   string `form:"class_name" label:"班级" validate:"trimmed_required,max=32"`
	Description string `form:"description" label:"描述" validate:"max=500"`
}

type AssignmentCreateForm struct {
	Title       string `form:"title" label:"作业标题" validate:"trimmed_required,max=100"`
	Description string `form:"description" label:"作业描述" validate:"max=5000"`
	Deadline    string `form:"deadline" label:"截止时间" validate:"required,datetime=2006-01-02T15:04"`
	ClassID     uint   `form:"class_id" label:"班级" validate:"required"`
}

// DeadlineTime parses Deadline in loc; call after Struct succeeded
func (f *AssignmentCreateForm) DeadlineTime(loc *time.Location) time.Time {
	t, _ := time.ParseInLocation(DateTimeLayout, f.Deadline, loc)
	return t
}

type AssignmentQuestionForm struct {
	Text   string `form:"text" label:"题目内容" validate:"trimmed_required,max=2000"`
	Points int    `form:"points" label:"分值" validate:"required,min=1,max=100"`
}

type SubmissionForm struct {
	TextAnswer string `form:"text_answer" label:"作答内容" validate:"max=20000"`
}

type ExamCreateForm struct {
	Title       string `form:"title" label:"考试标题" validate:"trimmed_required,max=100"`
	Description string `form:"description" label:"考试说明" validate:"max=5000"`
	StartTime   string `form:"start_time" label:"开始时间" validate:"required,datetime=2006-01-02T15:04"`
	EndTime     string `form:"end_time" label:"结束时间" validate:"required,datetime=2006-01-02T15:04"`
	Duration    int    `form:"duration" label:"考试时长" validate:"required,min=1"`
	ClassID     uint   `form:"class_id" label:"班级" validate:"required"`
}

func (f *ExamCreateForm) Window(loc *time.Location) (start, end time.Time) {
	start, _ = time.ParseInLocation(DateTimeLayout, f.StartTime, loc)
	end, _ = time.ParseInLocation(DateTimeLayout, f.EndTime, loc)
	return start, end
}

// ExamQuestionForm takes options one per line; keys A, B, C... are assigned in order
type ExamQuestionForm struct {
	Type    string `form:"type" label:"题型" validate:"required,oneof=single_choice multiple_choice true_false short_answer"`
	Text    string `form:"text" label:"题目内容" validate:"trimmed_required,max=2000"`
	Options string `form:"options" label:"选项" validate:"max=5000"`
	Answer  string `form:"answer" label:"答案" validate:"max=2000"`
	Points  int    `form:"points" label:"分值" validate:"required,min=1,max=100"`
}

// OptionLines returns the non-empty option lines
func (f *ExamQuestionForm) OptionLines() []string {
	var lines []string
	for _, l := range strings.Split(f.Options, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// AnswerValues splits "A,C" style answers; short answers stay whole
func (f *ExamQuestionForm) AnswerValues() []string {
	answer := strings.TrimSpace(f.Answer)
	if answer == "" {
		return nil
	}
	switch f.Type {
	case "short_answer":
		return []string{answer}
	case "true_false":
		return []string{strings.ToLower(answer)}
	}
	var out []string
	for _, part := range strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == '，' || r == ' ' }) {
		key := strings.ToUpper(strings.TrimSpace(part))
		if !slices.Contains(out, key) {
			out = append(out, key)
		}
	}
	return out
}

type GradeForm struct {
	Score    *float64 `form:"score" label:"分数" validate:"required,gte=0,lte=100"`
	Feedback string   `form:"feedback" label:"评语" validate:"max=2000"`
}

type ExamAnswerGradeForm struct {
	Score    *float64 `form:"score" label:"分数" validate:"required,gte=0"`
	Feedback string   `form:"feedback" label:"评语" validate:"max=2000"`
}

// StudentProfileForm is the full profile form; the class is found or created from the triple
type StudentProfileForm struct {
	Name      string `form:"name" label:"姓名" validate:"trimmed_required,max=64"`
	Phone     string `form:"phone" label:"手机号" validate:"required,phone"`
	StudentID string `form:"student_id" label:"学号" validate:"trimmed_required,max=20"`
	College   string `form:"college" label:"学院" validate:"trimmed_required,max=64"`
	Major     string `form:"major" label:"专业" validate:"trimmed_required,max=64"`
	ClassName string `form:"class_name" label:"班级" validate:"trimmed_required,max=32"`
}

// StudentInfoForm edits college, major and an existing class id
type StudentInfoForm struct {
	College string `form:"college" label:"学院" validate:"trimmed_required,max=64"`
	Major   string `form:"major" label:"专业" validate:"trimmed_required,max=64"`
	ClassID uint   `form:"class_id" label:"班级" validate:"required"`
}
