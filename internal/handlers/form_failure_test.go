package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/teaching-assistant/internal/storage"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

func dangerMessages(p pageBody) []string {
	var out []string
	for _, f := range p.Flashes {
		if f.Category == FlashDanger {
			out = append(out, f.Message)
		}
	}
	return out
}

func TestInvalidForms_FlashFieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		path  string
		form  url.Values
		page  string
		want  string
	}{
		{
			name: "register",
			path: "/register",
			form: func() url.Values {
				f := registration("13900000003", "student")
				f.Set("confirm_password", "different")
				return f
			}(),
			page: "auth/register",
			want: "确认密码: ",
		},
		{name: "login", path: "/login", form: url.Values{"phone": {""}, "password": {""}}, page: "auth/login", want: "手机号: "},
		{name: "create class", phone: teacherPhone, path: "/teacher/class/create", form: url.Values{}, page: "teacher/create_class", want: "学院: "},
		{name: "create assignment", phone: teacherPhone, path: "/teacher/assignment/create", form: url.Values{"deadline": {"tomorrow"}}, page: "teacher/create_assignment", want: "作业标题: "},
		{name: "create exam", phone: teacherPhone, path: "/teacher/exam/create", form: url.Values{}, page: "teacher/create_exam", want: "考试标题: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			c := app.client(t)
			if tt.phone != "" {
				c = app.loggedIn(t, tt.phone)
			}

			resp := app.postForm(t, c, tt.path, tt.form)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			page := decodePage(t, resp)
			assert.Equal(t, tt.page, page.Page)

			var errs map[string][]string
			page.field(t, "errors", &errs)
			require.NotEmpty(t, errs)

			flashed := dangerMessages(page)
			require.NotEmpty(t, flashed, "field errors are flashed")
			found := false
			for _, msg := range flashed {
				if strings.HasPrefix(msg, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "want a flash starting with %q, got %v", tt.want, flashed)
		})
	}
}

func TestCreateClass_StoreFailureIsFlashed(t *testing.T) {
	app := newTestApp(t)
	teacher := app.loggedIn(t, teacherPhone)
	app.failInserts(t, "class_info")

	resp := app.postForm(t, teacher, "/teacher/class/create", url.Values{
		"college":    {"计算机学院"},
		"major":      {"物联网专业"},
		"class_name": {"1班"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodePage(t, resp)
	assert.Equal(t, "teacher/create_class", page.Page)

	flashed := dangerMessages(page)
	require.Len(t, flashed, 1)
	assert.True(t, strings.HasPrefix(flashed[0], "班级创建失败: "), flashed[0])
	assert.Contains(t, flashed[0], errDiskFull.Error())

	var form map[string]interface{}
	page.field(t, "form", &form)
	assert.Equal(t, "1班", form["ClassName"], "the form keeps its input")

	classes, err := app.services.Class().ListClasses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func TestSubmitAssignment_StoreFailureIsFlashed(t *testing.T) {
	app := newTestApp(t)
	teacher, student, classID := classroom(t, app)

	resp := app.postForm(t, teacher, "/teacher/assignment/create", url.Values{
		"title":    {"实验报告"},
		"deadline": {time.Now().Add(48 * time.Hour).Format(validator.DateTimeLayout)},
		"class_id": {fmt.Sprint(classID)},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	var assignments []idRow
	app.page(t, teacher, "/teacher/assignments").field(t, "assignments", &assignments)
	require.Len(t, assignments, 1)
	detail := "/student/assignment/" + fmt.Sprint(assignments[0].ID)

	app.failInserts(t, "assignment_submissions")
	resp = app.postMultipart(t, student, detail, map[string]string{"text_answer": "见附件"}, "report.docx", []byte("docx"))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, detail, location(resp))

	page := app.page(t, student, detail)
	var failure string
	for _, msg := range dangerMessages(page) {
		if strings.HasPrefix(msg, "作业提交失败: ") {
			failure = msg
		}
	}
	assert.Contains(t, failure, errDiskFull.Error())
	assert.Equal(t, "null", string(page.Data["submission"]))

	entries, err := os.ReadDir(filepath.Join(app.uploads, storage.AssignmentsDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFormFailure_RoutesDomainErrorsToStatusPages(t *testing.T) {
	app := newTestApp(t)
	teacher := app.loggedIn(t, teacherPhone)

	resp := app.postForm(t, teacher, "/teacher/exam/999/questions", url.Values{"type": {"short_answer"}, "text": {"x"}, "points": {"1"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "error", decodePage(t, resp).Page)
}
