package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/session"
)

func TestRequireLogin_RedirectsWithNext(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp := app.get(t, c, "/teacher/classes?page=2")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next="+url.QueryEscape("/teacher/classes?page=2"), location(resp))

	login := app.page(t, c, location(resp))
	assert.Equal(t, []Flash{{Category: FlashWarning, Message: "请先登录"}}, login.Flashes)

	var next string
	login.field(t, "next", &next)
	assert.Equal(t, "/teacher/classes?page=2", next)
}

type gatedRoute struct {
	method string
	path   string
}

var (
	studentPanelRoutes = []gatedRoute{
		{http.MethodGet, "/student/dashboard"},
		{http.MethodGet, "/student/assignments"},
		{http.MethodGet, "/student/assignment/1"},
		{http.MethodPost, "/student/assignment/1"},
		{http.MethodGet, "/student/grades"},
		{http.MethodGet, "/student/exams"},
		{http.MethodGet, "/student/exam/1"},
		{http.MethodPost, "/student/exam/1"},
	}
	studentProfileRoutes = []gatedRoute{
		{http.MethodGet, "/student/profile"},
		{http.MethodPost, "/student/profile"},
		{http.MethodGet, "/student/profile/info"},
		{http.MethodPost, "/student/profile/info"},
	}
	teacherPageRoutes = []gatedRoute{
		{http.MethodGet, "/teacher/students"},
		{http.MethodGet, "/teacher/classes"},
		{http.MethodGet, "/teacher/class/create"},
		{http.MethodPost, "/teacher/class/create"},
		{http.MethodGet, "/teacher/class/1/students"},
		{http.MethodGet, "/teacher/assignment/create"},
		{http.MethodPost, "/teacher/assignment/create"},
		{http.MethodGet, "/teacher/assignments"},
		{http.MethodGet, "/teacher/assignment/1/questions"},
		{http.MethodPost, "/teacher/assignment/1/questions"},
		{http.MethodGet, "/teacher/assignment/1/submissions"},
		{http.MethodGet, "/teacher/assignment/1/export"},
		{http.MethodPost, "/teacher/submission/1/grade"},
		{http.MethodGet, "/teacher/exam/create"},
		{http.MethodPost, "/teacher/exam/create"},
		{http.MethodGet, "/teacher/exams"},
		{http.MethodGet, "/teacher/exam/1/questions"},
		{http.MethodPost, "/teacher/exam/1/questions"},
		{http.MethodGet, "/teacher/exam/1/submissions"},
		{http.MethodGet, "/teacher/exam/1/export"},
		{http.MethodGet, "/teacher/exam-submission/1"},
		{http.MethodPost, "/teacher/exam-answer/1/grade"},
	}
)

func TestRequireRole_RedirectsHome(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		routes  []gatedRoute
		message string
	}{
		{name: "teacher on student panel", phone: teacherPhone, routes: studentPanelRoutes, message: "无权访问学生面板"},
		{name: "teacher on student profile", phone: teacherPhone, routes: studentProfileRoutes, message: "无权访问学生个人中心"},
		{name: "student on teacher panel", phone: studentPhone, routes: []gatedRoute{{http.MethodGet, "/teacher/dashboard"}}, message: "无权访问教师面板"},
		{name: "student on teacher pages", phone: studentPhone, routes: teacherPageRoutes, message: "无权访问此页面"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			c := app.loggedIn(t, tt.phone)
			_ = app.get(t, c, "/") // drain the login flash

			for _, r := range tt.routes {
				var resp *http.Response
				if r.method == http.MethodPost {
					resp = app.postForm(t, c, r.path, url.Values{"title": {"x"}})
				} else {
					resp = app.get(t, c, r.path)
				}
				require.Equal(t, http.StatusFound, resp.StatusCode, "%s %s", r.method, r.path)
				assert.Equal(t, "/", location(resp), "%s %s", r.method, r.path)

				index := app.page(t, c, "/")
				assert.Equal(t, []Flash{{Category: FlashDanger, Message: tt.message}}, index.Flashes, "%s %s", r.method, r.path)
			}
		})
	}
}

func TestRoleGatedRoutes_RequireLogin(t *testing.T) {
	app := newTestApp(t)

	var all []gatedRoute
	all = append(all, studentPanelRoutes...)
	all = append(all, studentProfileRoutes...)
	all = append(all, teacherPageRoutes...)
	all = append(all, gatedRoute{http.MethodGet, "/teacher/dashboard"}, gatedRoute{http.MethodGet, "/logout"})
	for _, r := range all {
		c := app.client(t)
		var resp *http.Response
		if r.method == http.MethodPost {
			resp = app.postForm(t, c, r.path, url.Values{})
		} else {
			resp = app.get(t, c, r.path)
		}
		require.Equal(t, http.StatusFound, resp.StatusCode, "%s %s", r.method, r.path)
		assert.Equal(t, "/login?next="+url.QueryEscape(r.path), location(resp), "%s %s", r.method, r.path)
	}
}

func TestStudentLookups_ForbiddenJSONForTeachers(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, teacherPhone)

	for path, key := range map[string]string{
		"/student/get_majors/" + escapePath("计算机学院"):           "majors",
		"/student/get_classes/" + escapePath("计算机学院", "物联网专业"): "classes",
	} {
		resp := app.get(t, c, path)
		require.Equal(t, http.StatusForbidden, resp.StatusCode, path)

		var body map[string][]models.Option
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Contains(t, body, key)
		assert.Empty(t, body[key])
	}
}

func TestMajorLookups(t *testing.T) {
	app := newTestApp(t)

	var body struct {
		Majors []models.Option `json:"majors"`
	}
	resp := app.get(t, app.loggedIn(t, studentPhone), "/student/get_majors/"+escapePath("人文学院"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []models.Option{{ID: "汉语言专业", Name: "汉语言专业"}, {ID: "历史专业", Name: "历史专业"}}, body.Majors)

	// the teacher variant only needs a login
	resp = app.get(t, app.loggedIn(t, studentPhone), "/teacher/get_majors/"+escapePath("未知学院"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body.Majors = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Majors)
	assert.NotNil(t, body.Majors)
}

func TestSessionMiddleware_DropsTamperedCookie(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	u, _ := url.Parse(app.server.URL)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: session.CookieName, Value: "not-a-token", Path: "/"}})

	resp := app.get(t, c, "/student/dashboard")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, location(resp), "/login?next=")

	cleared := false
	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	resp := app.get(t, app.client(t), "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}
