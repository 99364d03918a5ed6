package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/teaching-assistant/internal/utils"
)

// Renderer turns a named page and its data into a response
type Renderer interface {
	Render(c *gin.Context, status int, page string, data gin.H)
}

// JSONRenderer serves pages as {"page", "flashes", "user", "data"}; used when no templates are configured
type JSONRenderer struct{}

func (JSONRenderer) Render(c *gin.Context, status int, page string, data gin.H) {
	body := gin.H{"page": page}
	payload := gin.H{}
	for k, v := range data {
		switch k {
		case "flashes":
			body["flashes"] = v
		case "current_user":
			body["user"] = v
		default:
			payload[k] = v
		}
	}
	body["data"] = payload
	c.JSON(status, body)
}

// HTMLRenderer executes html/template pages loaded from a directory.
// A page "student/dashboard" is the file student/dashboard.html below the root.
type HTMLRenderer struct {
	templates *template.Template
	logger    utils.Logger
}

func NewHTMLRenderer(dir string, logger utils.Logger) (*HTMLRenderer, error) {
	root := template.New("").Funcs(templateFuncs())
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := root.New(filepath.ToSlash(rel)).Parse(string(content)); err != nil {
			return fmt.Errorf("parse template %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load templates from %s: %w", dir, err)
	}
	return &HTMLRenderer{templates: root, logger: logger}, nil
}

func (r *HTMLRenderer) Render(c *gin.Context, status int, page string, data gin.H) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, page+".html", data); err != nil {
		utils.FromContext(c, r.logger).Error("Failed to render page", "page", page, "error", err)
		c.String(http.StatusInternalServerError, "template error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
		"score": func(v *float64) string {
			if v == nil {
				return "-"
			}
			return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", *v), "0"), ".")
		},
		"join": strings.Join,
	}
}
