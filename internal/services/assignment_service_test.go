package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/teaching-assistant/internal/events"
	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/storage"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

type assignmentFixture struct {
	env        *testEnv
	svc        AssignmentService
	store      *storage.LocalStore
	teacher    Identity
	student    Identity
	class      *models.ClassInfo
	assignment *models.Assignment
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	env := newTestEnv(t)
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	f := &assignmentFixture{env: env, store: store, svc: NewAssignmentService(env.deps, store)}
	f.class = env.class(t, "计算机学院", "物联网专业", "1班")
	f.teacher = env.teacher(t, "13800000001")
	f.student = env.student(t, "13800000002", f.class.ID)

	f.assignment, err = f.svc.Create(context.Background(), f.teacher, &validator.AssignmentCreateForm{
		Title:    "第一次作业",
		Deadline: testNow.Add(48 * time.Hour).Format(validator.DateTimeLayout),
		ClassID:  f.class.ID,
	})
	require.NoError(t, err)
	return f
}

func TestAssignmentService_Create(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	assert.Equal(t, f.teacher.UserID, f.assignment.TeacherID)
	assert.True(t, f.assignment.Deadline.Equal(testNow.Add(48*time.Hour)))
	assert.Len(t, f.env.events.EventsOfType(events.AssignmentCreated), 1)

	rows, err := f.svc.TeacherAssignments(ctx, f.teacher)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "物联网专业", rows[0].Major)
	assert.Equal(t, "1班", rows[0].ClassName)

	_, err = f.svc.Create(ctx, f.teacher, &validator.AssignmentCreateForm{
		Title:    "无效班级",
		Deadline: "2025-03-12T10:00",
		ClassID:  999,
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ByField(), "class_id")

	_, err = f.svc.Create(ctx, f.student, &validator.AssignmentCreateForm{Title: "x", Deadline: "2025-03-12T10:00", ClassID: f.class.ID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAssignmentService_StudentScope(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	list, err := f.svc.StudentAssignments(ctx, f.student)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	detail, err := f.svc.StudentAssignment(ctx, f.student, f.assignment.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Submission)
	assert.False(t, detail.Overdue)

	other := f.env.class(t, "计算机学院", "物联网专业", "2班")
	outsider := f.env.student(t, "13800000003", other.ID)
	_, err = f.svc.StudentAssignment(ctx, outsider, f.assignment.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	noClass := IdentityFromUser(f.env.user(t, "无班级", "13800000004", models.RoleStudent, nil))
	list, err = f.svc.StudentAssignments(ctx, noClass)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAssignmentService_SubmitUpsert(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, f.student, f.assignment.ID,
		&validator.SubmissionForm{TextAnswer: "初稿"},
		&Upload{Filename: "report.PDF", Content: strings.NewReader("pdf-bytes")})
	require.NoError(t, err)
	assert.True(t, first.Created)
	require.NotNil(t, first.Submission.FilePath)

	wantName := fmt.Sprintf("assignment_%d_student_%d_20250310093000.pdf", f.assignment.ID, f.student.UserID)
	assert.Equal(t, wantName, filepath.Base(*first.Submission.FilePath))
	content, err := os.ReadFile(filepath.Join(f.store.Root(), storage.AssignmentsDir, wantName))
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(content))

	_, err = f.svc.Grade(ctx, f.teacher, first.Submission.ID, &validator.GradeForm{Score: ptr(90.0), Feedback: "不错"})
	require.NoError(t, err)

	second, err := f.svc.Submit(ctx, f.student, f.assignment.ID, &validator.SubmissionForm{TextAnswer: "修改稿"}, nil)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Submission.ID, second.Submission.ID)

	stored, err := f.env.repo.Assignment().GetSubmission(ctx, f.assignment.ID, f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, "修改稿", stored.TextAnswer)
	assert.False(t, stored.Graded)
	assert.Nil(t, stored.Score)
	assert.Nil(t, stored.Feedback)
	require.NotNil(t, stored.FilePath)
	assert.Equal(t, *first.Submission.FilePath, *stored.FilePath)

	count, err := f.env.repo.Assignment().CountSubmissions(ctx, f.assignment.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Len(t, f.env.events.EventsOfType(events.AssignmentSubmitted), 2)
}

func TestAssignmentService_SubmitRequiresAnswer(t *testing.T) {
	f := newAssignmentFixture(t)

	_, err := f.svc.Submit(context.Background(), f.student, f.assignment.ID, &validator.SubmissionForm{TextAnswer: "  "}, nil)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ByField(), "text_answer")
}

func TestAssignmentService_Grade(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, f.student, f.assignment.ID, &validator.SubmissionForm{TextAnswer: "答案"}, nil)
	require.NoError(t, err)

	_, err = f.svc.Grade(ctx, f.teacher, res.Submission.ID, &validator.GradeForm{Score: ptr(150.0)})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	otherTeacher := f.env.teacher(t, "13800000009")
	_, err = f.svc.Grade(ctx, otherTeacher, res.Submission.ID, &validator.GradeForm{Score: ptr(80.0)})
	assert.ErrorIs(t, err, ErrForbidden)

	graded, err := f.svc.Grade(ctx, f.teacher, res.Submission.ID, &validator.GradeForm{Score: ptr(85.5), Feedback: "好"})
	require.NoError(t, err)
	assert.True(t, graded.Graded)
	require.NotNil(t, graded.GradedAt)

	grades, err := f.svc.StudentGrades(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, grades.Assignments, 1)
	assert.Equal(t, "第一次作业", grades.Assignments[0].AssignmentTitle)
	require.NotNil(t, grades.Assignments[0].Score)
	assert.Equal(t, 85.5, *grades.Assignments[0].Score)
	assert.Len(t, f.env.events.EventsOfType(events.SubmissionGraded), 1)
}

func TestAssignmentService_Questions(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	for _, text := range []string{"第一题", "第二题"} {
		_, err := f.svc.AddQuestion(ctx, f.teacher, f.assignment.ID, &validator.AssignmentQuestionForm{Text: text, Points: 10})
		require.NoError(t, err)
	}
	_, questions, err := f.svc.Questions(ctx, f.teacher, f.assignment.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, 1, questions[0].Order)
	assert.Equal(t, 2, questions[1].Order)
}

func TestUploadExt(t *testing.T) {
	tests := map[string]string{
		"report.pdf":     ".pdf",
		"Report.DOCX":    ".docx",
		"noext":          ".docx",
		"weird.p d f":    ".docx",
		"archive.tar.gz": ".gz",
		"":               ".docx",
	}
	for name, want := range tests {
		assert.Equal(t, want, uploadExt(name), name)
	}
}

func TestAssignmentService_SubmitRollbackRemovesUpload(t *testing.T) {
	f := newAssignmentFixture(t)
	f.env.failInserts(t, "assignment_submissions")

	_, err := f.svc.Submit(context.Background(), f.student, f.assignment.ID,
		&validator.SubmissionForm{TextAnswer: "初稿"},
		&Upload{Filename: "report.docx", Content: strings.NewReader("docx-bytes")})
	require.ErrorIs(t, err, errDiskFull)

	entries, err := os.ReadDir(filepath.Join(f.store.Root(), storage.AssignmentsDir))
	require.NoError(t, err)
	assert.Empty(t, entries, "upload of a rolled back submission is removed")
	assert.Empty(t, f.env.events.EventsOfType(events.AssignmentSubmitted))
}
