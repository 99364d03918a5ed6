package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/teaching-assistant/internal/config"
	"github.com/SAP-F-2025/teaching-assistant/internal/events"
	"github.com/SAP-F-2025/teaching-assistant/internal/repositories/gormrepo"
	"github.com/SAP-F-2025/teaching-assistant/internal/services"
	"github.com/SAP-F-2025/teaching-assistant/internal/session"
	"github.com/SAP-F-2025/teaching-assistant/internal/storage"
	"github.com/SAP-F-2025/teaching-assistant/internal/utils"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
	"github.com/SAP-F-2025/teaching-assistant/pkg"
)

const demoPassword = "password123"

// Seeded demo accounts
const (
	teacherPhone  = "13800138001"
	teacher2Phone = "13800138002"
	studentPhone  = "13800138003"
)

type testApp struct {
	db       *gorm.DB
	uploads  string
	server   *httptest.Server
	services services.ServiceManager
	events   *events.MockEventPublisher
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := pkg.OpenDatabase(config.DriverSQLite, ":memory:", logger.Silent)
	require.NoError(t, err)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	log := utils.NewSlogLogger(slogger)

	repoManager := gormrepo.NewRepositoryManager(gormrepo.RepositoryConfig{DB: db})
	require.NoError(t, repoManager.Initialize())

	uploads := t.TempDir()
	store, err := storage.NewLocalStore(uploads)
	require.NoError(t, err)

	pub := events.NewMockEventPublisher(slogger)
	sm := services.NewServiceManager(repoManager, services.Deps{
		Logger:    slogger,
		Validator: validator.New(),
		Events:    pub,
	}, store)
	require.NoError(t, sm.Initialize(context.Background()))
	_, err = sm.Seed().SeedDemoData(context.Background())
	require.NoError(t, err)

	router := gin.New()
	SetupMiddleware(router, log, 1<<20)
	NewHandlerManager(sm, log, HandlerConfig{
		Sessions: session.NewManager("test-secret", time.Hour, 24*time.Hour),
		Renderer: JSONRenderer{},
	}).SetupRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		_ = sm.Shutdown(context.Background())
	})
	return &testApp{db: db, uploads: uploads, server: srv, services: sm, events: pub}
}

// client keeps cookies and never follows redirects
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) loggedIn(t *testing.T, phone string) *http.Client {
	t.Helper()
	c := a.client(t)
	resp := a.postForm(t, c, "/login", url.Values{"phone": {phone}, "password": {demoPassword}})
	require.Equal(t, http.StatusFound, resp.StatusCode, "login %s", phone)
	return c
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) *http.Response {
	t.Helper()
	resp, err := c.Get(a.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (a *testApp) postForm(t *testing.T, c *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (a *testApp) postMultipart(t *testing.T, c *http.Client, path string, fields map[string]string, fileName string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	resp, err := c.Post(a.server.URL+path, w.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type pageBody struct {
	Page    string                     `json:"page"`
	Flashes []Flash                    `json:"flashes"`
	User    map[string]interface{}     `json:"user"`
	Data    map[string]json.RawMessage `json:"data"`
}

func decodePage(t *testing.T, resp *http.Response) pageBody {
	t.Helper()
	var body pageBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// page fetches path and decodes the rendered page
func (a *testApp) page(t *testing.T, c *http.Client, path string) pageBody {
	t.Helper()
	resp := a.get(t, c, path)
	require.Equal(t, http.StatusOK, resp.StatusCode, "GET %s", path)
	return decodePage(t, resp)
}

func (p pageBody) messages() []string {
	out := make([]string, 0, len(p.Flashes))
	for _, f := range p.Flashes {
		out = append(out, f.Message)
	}
	return out
}

func (p pageBody) field(t *testing.T, key string, dest interface{}) {
	t.Helper()
	raw, ok := p.Data[key]
	require.True(t, ok, "page %s has no %q", p.Page, key)
	require.NoError(t, json.Unmarshal(raw, dest))
}

func location(resp *http.Response) string {
	return resp.Header.Get("Location")
}

func escapePath(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return strings.Join(escaped, "/")
}

func decodeJSON(resp *http.Response, dest interface{}) error {
	return json.NewDecoder(resp.Body).Decode(dest)
}

// failInserts makes every insert into table fail with errDiskFull
func (a *testApp) failInserts(t *testing.T, table string) {
	t.Helper()
	err := a.db.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errDiskFull)
		}
	})
	require.NoError(t, err)
}

var errDiskFull = errors.New("disk I/O error")
