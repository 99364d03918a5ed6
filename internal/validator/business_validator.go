package validator

import (
	"fmt"
	"slices"
	"time"
)

// ValidateExamCreate checks the form and the exam window
func (v *Validator) ValidateExamCreate(f *ExamCreateForm, loc *time.Location) ValidationErrors {
	if errs := v.Struct(f); len(errs) > 0 {
		return errs
	}

	var errs ValidationErrors
	start, end := f.Window(loc)
	if !end.After(start) {
		errs = append(errs, ValidationError{
			Field:   "end_time",
			Label:   "结束时间",
			Message: "必须晚于开始时间",
			Value:   f.EndTime,
			Rule:    "exam_window",
		})
		return errs
	}
	if window := int(end.Sub(start) / time.Minute); f.Duration > window {
		errs = append(errs, ValidationError{
			Field:   "duration",
			Label:   "考试时长",
			Message: fmt.Sprintf("不能超过考试时间窗口(%d分钟)", window),
			Value:   f.Duration,
			Rule:    "exam_window",
		})
	}
	return errs
}

// ValidateExamQuestion checks that options and answer agree with the question type
func (v *Validator) ValidateExamQuestion(f *ExamQuestionForm) ValidationErrors {
	if errs := v.Struct(f); len(errs) > 0 {
		return errs
	}

	var errs ValidationErrors
	answers := f.AnswerValues()
	options := f.OptionLines()

	answerErr := func(msg string) {
		errs = append(errs, ValidationError{Field: "answer", Label: "答案", Message: msg, Value: f.Answer, Rule: "question_answer"})
	}

	switch f.Type {
	case "single_choice", "multiple_choice":
		if len(options) < 2 {
			errs = append(errs, ValidationError{Field: "options", Label: "选项", Message: "选择题至少需要两个选项", Value: len(options), Rule: "question_options"})
			return errs
		}
		if len(options) > len(OptionKeys) {
			errs = append(errs, ValidationError{Field: "options", Label: "选项", Message: fmt.Sprintf("选项不能超过%d个", len(OptionKeys)), Value: len(options), Rule: "question_options"})
			return errs
		}
		if len(answers) == 0 {
			answerErr("此项为必填项")
			return errs
		}
		if f.Type == "single_choice" && len(answers) != 1 {
			answerErr("单选题只能有一个答案")
			return errs
		}
		valid := OptionKeys[:len(options)]
		for _, a := range answers {
			if !slices.Contains(valid, a) {
				answerErr(fmt.Sprintf("答案 %s 不在选项中", a))
				return errs
			}
		}
	case "true_false":
		if len(answers) != 1 || (answers[0] != "true" && answers[0] != "false") {
			answerErr("判断题答案必须为 true 或 false")
		}
	case "short_answer":
		// reference answer is optional
	}
	return errs
}

// ValidateExamAnswerGrade bounds a manual score by the question points
func (v *Validator) ValidateExamAnswerGrade(f *ExamAnswerGradeForm, points int) ValidationErrors {
	if errs := v.Struct(f); len(errs) > 0 {
		return errs
	}
	if *f.Score > float64(points) {
		return ValidationErrors{{
			Field:   "score",
			Label:   "分数",
			Message: fmt.Sprintf("不能大于%d", points),
			Value:   *f.Score,
			Rule:    "points_range",
		}}
	}
	return nil
}

// OptionKeys label choice options in order
var OptionKeys = []string{"A", "B", "C", "D", "E", "F", "G", "H"}
