package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/teaching-assistant/internal/events"
	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

type examFixture struct {
	env     *testEnv
	svc     ExamService
	teacher Identity
	student Identity
	exam    *models.Exam
	single  *models.ExamQuestion
	multi   *models.ExamQuestion
	judge   *models.ExamQuestion
	essay   *models.ExamQuestion
}

func examForm(classID uint, start, end time.Time, duration int) *validator.ExamCreateForm {
	return &validator.ExamCreateForm{
		Title:     "期中考试",
		StartTime: start.Format(validator.DateTimeLayout),
		EndTime:   end.Format(validator.DateTimeLayout),
		Duration:  duration,
		ClassID:   classID,
	}
}

func newExamFixture(t *testing.T, start, end time.Time) *examFixture {
	t.Helper()
	env := newTestEnv(t)
	ctx := context.Background()
	f := &examFixture{env: env, svc: NewExamService(env.deps)}

	class := env.class(t, "人文学院", "历史专业", "1班")
	f.teacher = env.teacher(t, "13800000001")
	f.student = env.student(t, "13800000002", class.ID)

	var err error
	f.exam, err = f.svc.Create(ctx, f.teacher, examForm(class.ID, start, end, 60))
	require.NoError(t, err)

	add := func(form *validator.ExamQuestionForm) *models.ExamQuestion {
		q, err := f.svc.AddQuestion(ctx, f.teacher, f.exam.ID, form)
		require.NoError(t, err)
		return q
	}
	f.single = add(&validator.ExamQuestionForm{Type: "single_choice", Text: "秦朝建立于?", Options: "前221年\n前206年", Answer: "a", Points: 2})
	f.multi = add(&validator.ExamQuestionForm{Type: "multiple_choice", Text: "唐朝诗人", Options: "李白\n杜甫\n苏轼\n白居易", Answer: "A,B,D", Points: 6})
	f.judge = add(&validator.ExamQuestionForm{Type: "true_false", Text: "宋朝在元朝之前", Answer: "True", Points: 2})
	f.essay = add(&validator.ExamQuestionForm{Type: "short_answer", Text: "简述丝绸之路", Points: 10})
	return f
}

func openWindow() (time.Time, time.Time) {
	return testNow.Add(-30 * time.Minute), testNow.Add(90 * time.Minute)
}

func TestExamService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewExamService(env.deps)
	class := env.class(t, "人文学院", "历史专业", "1班")
	teacher := env.teacher(t, "13800000001")
	ctx := context.Background()

	_, err := svc.Create(ctx, teacher, examForm(class.ID, testNow, testNow.Add(-time.Hour), 30))
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ByField(), "end_time")

	_, err = svc.Create(ctx, teacher, examForm(class.ID, testNow, testNow.Add(time.Hour), 90))
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ByField(), "duration")

	exam, err := svc.Create(ctx, teacher, examForm(class.ID, testNow, testNow.Add(time.Hour), 60))
	require.NoError(t, err)
	assert.Len(t, env.events.EventsOfType(events.ExamCreated), 1)

	rows, err := svc.TeacherExams(ctx, teacher)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, exam.ID, rows[0].ID)
	assert.Equal(t, "历史专业", rows[0].Major)
}

func TestExamService_AddQuestionStoresKey(t *testing.T) {
	start, end := openWindow()
	f := newExamFixture(t, start, end)

	opts, err := f.single.OptionList()
	require.NoError(t, err)
	assert.Equal(t, []models.QuestionOption{{Key: "A", Text: "前221年"}, {Key: "B", Text: "前206年"}}, opts)

	answer, err := f.multi.CorrectAnswer()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "D"}, answer)

	answer, err = f.judge.CorrectAnswer()
	require.NoError(t, err)
	assert.Equal(t, []string{"true"}, answer)

	_, err = f.svc.AddQuestion(context.Background(), f.teacher, f.exam.ID,
		&validator.ExamQuestionForm{Type: "single_choice", Text: "x", Options: "a\nb", Answer: "C", Points: 1})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestExamService_StudentExamHidesKey(t *testing.T) {
	start, end := openWindow()
	f := newExamFixture(t, start, end)

	detail, err := f.svc.StudentExam(context.Background(), f.student, f.exam.ID)
	require.NoError(t, err)
	assert.True(t, detail.Open)
	assert.Nil(t, detail.Submission)
	require.Len(t, detail.Questions, 4)
	assert.Equal(t, models.TrueFalse, detail.Questions[2].Type)
	assert.Len(t, detail.Questions[2].Options, 2)
	assert.Empty(t, detail.Exam.Questions, "stored questions carry the answer key")

	raw, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"answer"`)
}

func TestExamService_SubmitAutoGrades(t *testing.T) {
	start, end := openWindow()
	f := newExamFixture(t, start, end)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, f.student, f.exam.ID, map[uint][]string{
		f.single.ID: {"a"},
		f.multi.ID:  {"A", "B"},
		f.judge.ID:  {"true"},
		f.essay.ID:  {"连接东西方的贸易路线"},
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 1, res.Pending)
	assert.False(t, res.Submission.Graded)
	// 2 + 6*(2-1)/3 + 2
	assert.Equal(t, 6.0, res.Submission.Score)
	assert.Equal(t, 20.0, res.Submission.MaxScore)

	// resubmission replaces the answers of the same row
	again, err := f.svc.Submit(ctx, f.student, f.exam.ID, map[uint][]string{
		f.single.ID: {"B"},
		f.multi.ID:  {"A", "B", "D"},
		f.judge.ID:  {"false"},
	})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, res.Submission.ID, again.Submission.ID)
	assert.Equal(t, 0, again.Pending)
	assert.True(t, again.Submission.Graded)
	assert.Equal(t, 6.0, again.Submission.Score)

	answers, err := f.env.repo.Exam().ListAnswers(ctx, again.Submission.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 4)
	assert.Len(t, f.env.events.EventsOfType(events.ExamSubmitted), 2)
}

func TestExamService_SubmitOutsideWindow(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		wantErr    error
	}{
		{name: "not started", start: testNow.Add(time.Minute), end: testNow.Add(2 * time.Hour), wantErr: ErrExamClosed},
		{name: "ended", start: testNow.Add(-2 * time.Hour), end: testNow.Add(-time.Minute), wantErr: ErrExamClosed},
		{name: "starts now", start: testNow, end: testNow.Add(2 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExamFixture(t, tt.start, tt.end)
			_, err := f.svc.Submit(context.Background(), f.student, f.exam.ID, map[uint][]string{f.single.ID: {"A"}})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestExamService_GradeAnswer(t *testing.T) {
	start, end := openWindow()
	f := newExamFixture(t, start, end)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, f.student, f.exam.ID, map[uint][]string{
		f.single.ID: {"A"},
		f.multi.ID:  {"A", "B", "D"},
		f.judge.ID:  {"true"},
		f.essay.ID:  {"贸易路线"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Pending)

	detail, err := f.svc.Submission(ctx, f.teacher, res.Submission.ID)
	require.NoError(t, err)
	var essayAnswer *models.ExamAnswer
	for i := range detail.Answers {
		if detail.Answers[i].QuestionID == f.essay.ID {
			essayAnswer = &detail.Answers[i]
		}
	}
	require.NotNil(t, essayAnswer)
	assert.False(t, essayAnswer.Graded)

	_, err = f.svc.GradeAnswer(ctx, f.teacher, essayAnswer.ID, &validator.ExamAnswerGradeForm{Score: ptr(11.0)})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	other := f.env.teacher(t, "13800000009")
	_, err = f.svc.GradeAnswer(ctx, other, essayAnswer.ID, &validator.ExamAnswerGradeForm{Score: ptr(5.0)})
	assert.ErrorIs(t, err, ErrForbidden)

	graded, err := f.svc.GradeAnswer(ctx, f.teacher, essayAnswer.ID, &validator.ExamAnswerGradeForm{Score: ptr(7.5), Feedback: "要点不全"})
	require.NoError(t, err)
	assert.True(t, graded.Graded)
	assert.Equal(t, 17.5, graded.Score)
	assert.NotNil(t, graded.GradedAt)
	assert.Len(t, f.env.events.EventsOfType(events.ExamAnswerGraded), 1)

	grades, err := NewAssignmentService(f.env.deps, nil).StudentGrades(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, grades.Exams, 1)
	assert.Equal(t, 17.5, grades.Exams[0].Score)
}

func TestGradeObjective(t *testing.T) {
	tests := []struct {
		name      string
		qt        models.QuestionType
		correct   []string
		answer    []string
		wantRatio float64
		wantOK    bool
	}{
		{name: "single right", qt: models.SingleChoice, correct: []string{"B"}, answer: []string{"B"}, wantRatio: 1, wantOK: true},
		{name: "single wrong", qt: models.SingleChoice, correct: []string{"B"}, answer: []string{"A"}},
		{name: "single blank", qt: models.SingleChoice, correct: []string{"B"}},
		{name: "true false", qt: models.TrueFalse, correct: []string{"false"}, answer: []string{"false"}, wantRatio: 1, wantOK: true},
		{name: "multi exact any order", qt: models.MultipleChoice, correct: []string{"A", "C"}, answer: []string{"C", "A"}, wantRatio: 1, wantOK: true},
		{name: "multi partial", qt: models.MultipleChoice, correct: []string{"A", "B", "C", "D"}, answer: []string{"A", "B", "C"}, wantRatio: 0.5},
		{name: "multi wrong pick cancels", qt: models.MultipleChoice, correct: []string{"A", "B"}, answer: []string{"A", "C"}},
		{name: "multi single key", qt: models.MultipleChoice, correct: []string{"A"}, answer: []string{"A", "B"}},
		{name: "short answer", qt: models.ShortAnswer, correct: []string{"x"}, answer: []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, ok := gradeObjective(tt.qt, tt.correct, tt.answer)
			assert.InDelta(t, tt.wantRatio, ratio, 1e-9)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestNormalizeAnswer(t *testing.T) {
	assert.Equal(t, []string{"A", "C"}, normalizeAnswer(models.MultipleChoice, []string{" a", "c", "A", ""}))
	assert.Equal(t, []string{"true"}, normalizeAnswer(models.TrueFalse, []string{"TRUE"}))
	assert.Equal(t, []string{"Some Text"}, normalizeAnswer(models.ShortAnswer, []string{" Some Text "}))
	assert.Empty(t, normalizeAnswer(models.SingleChoice, nil))
}
