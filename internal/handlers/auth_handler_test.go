package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/teaching-assistant/internal/events"
	"github.com/SAP-F-2025/teaching-assistant/internal/session"
)

func registration(phone, role string) url.Values {
	return url.Values{
		"name":             {"赵六"},
		"phone":            {phone},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
		"role":             {role},
	}
}

func TestRegisterThenLogin(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp := app.postForm(t, c, "/register", registration("13900000001", "student"))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", location(resp))
	assert.Len(t, app.events.EventsOfType(events.UserRegistered), 1)

	login := app.page(t, c, "/login")
	assert.Equal(t, "auth/login", login.Page)
	assert.Contains(t, login.messages(), "注册成功! 请登录")

	resp = app.postForm(t, c, "/login", url.Values{"phone": {"13900000001"}, "password": {"secret1"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/student/dashboard", location(resp))

	dash := app.page(t, c, "/student/dashboard")
	assert.Equal(t, "student/dashboard", dash.Page)
	assert.Contains(t, dash.messages(), "登录成功!")
	assert.Equal(t, "赵六", dash.User["name"])
}

func TestRegister_DuplicatePhone(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp := app.postForm(t, c, "/register", registration(studentPhone, "teacher"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodePage(t, resp)
	assert.Equal(t, "auth/register", page.Page)
	assert.Contains(t, page.messages(), "手机号已被注册")
	assert.Empty(t, app.events.EventsOfType(events.UserRegistered))
}

func TestRegister_ValidationErrorsInline(t *testing.T) {
	app := newTestApp(t)
	form := registration("13900000002", "student")
	form.Set("confirm_password", "different")

	resp := app.postForm(t, app.client(t), "/register", form)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var errs map[string][]string
	decodePage(t, resp).field(t, "errors", &errs)
	assert.Contains(t, errs, "confirm_password")
}

func TestRegisterPage_PrefillsRole(t *testing.T) {
	app := newTestApp(t)
	page := app.page(t, app.client(t), "/register?role=teacher")

	var form map[string]interface{}
	page.field(t, "form", &form)
	assert.Equal(t, "teacher", form["Role"])
}

func TestLogin_WrongPassword(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp := app.postForm(t, c, "/login", url.Values{"phone": {teacherPhone}, "password": {"nope"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decodePage(t, resp).messages(), "手机号或密码错误")
	for _, ck := range resp.Cookies() {
		assert.NotEqual(t, session.CookieName, ck.Name)
	}
}

func TestLogin_HonorsRelativeNext(t *testing.T) {
	tests := []struct {
		name string
		next string
		want string
	}{
		{name: "relative", next: "/teacher/classes?x=1", want: "/teacher/classes?x=1"},
		{name: "absolute ignored", next: "https://evil.example/", want: "/teacher/dashboard"},
		{name: "scheme relative ignored", next: "//evil.example/", want: "/teacher/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			resp := app.postForm(t, app.client(t), "/login?next="+url.QueryEscape(tt.next), url.Values{
				"phone":    {teacherPhone},
				"password": {demoPassword},
			})
			require.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.want, location(resp))
		})
	}
}

func TestLogin_RememberMeSetsPersistentCookie(t *testing.T) {
	app := newTestApp(t)

	find := func(resp *http.Response) *http.Cookie {
		for _, ck := range resp.Cookies() {
			if ck.Name == session.CookieName {
				return ck
			}
		}
		return nil
	}

	resp := app.postForm(t, app.client(t), "/login", url.Values{"phone": {teacherPhone}, "password": {demoPassword}})
	ck := find(resp)
	require.NotNil(t, ck)
	assert.Zero(t, ck.MaxAge)
	assert.True(t, ck.HttpOnly)

	resp = app.postForm(t, app.client(t), "/login", url.Values{"phone": {teacherPhone}, "password": {demoPassword}, "remember_me": {"on"}})
	ck = find(resp)
	require.NotNil(t, ck)
	assert.Equal(t, 24*60*60, ck.MaxAge)
}

func TestAuthenticatedUsersSkipAuthPages(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, teacherPhone)

	resp := app.get(t, c, "/login")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/teacher/dashboard", location(resp))

	resp = app.get(t, c, "/register")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", location(resp))
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t, studentPhone)

	resp := app.get(t, c, "/logout")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", location(resp))

	index := app.page(t, c, "/")
	assert.Contains(t, index.messages(), "您已成功退出登录")
	assert.Nil(t, index.User)

	resp = app.get(t, c, "/student/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestCheckbox(t *testing.T) {
	for v, want := range map[string]bool{"on": true, "true": true, "1": true, "Y": true, "yes": true, "": false, "off": false, "0": false} {
		assert.Equal(t, want, checkbox(v), v)
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"/student/grades", true},
		{"/login?next=%2F", true},
		{"", false},
		{"student/grades", false},
		{"//host/path", false},
		{"/\\host", false},
		{"http://host/", false},
	}
	for _, tt := range tests {
		_, ok := safeNext(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
