package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/services"
	"github.com/SAP-F-2025/teaching-assistant/internal/utils"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

type AuthHandler struct {
	BaseHandler
	service  services.AuthService
	sessions *SessionAuth
}

func NewAuthHandler(service services.AuthService, sessions *SessionAuth, logger utils.Logger, renderer Renderer) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger, renderer),
		service:     service,
		sessions:    sessions,
	}
}

func (h *AuthHandler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, "index", nil)
}

// LoginPage shows the login form; signed-in users go to their dashboard
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if id, ok := currentIdentity(c); ok {
		h.redirect(c, dashboardPath(id.Role))
		return
	}
	h.render(c, http.StatusOK, "auth/login", gin.H{
		"form": validator.LoginForm{},
		"next": c.Query("next"),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	if id, ok := currentIdentity(c); ok {
		h.redirect(c, dashboardPath(id.Role))
		return
	}
	h.LogRequest(c, "Login attempt")

	var form validator.LoginForm
	_ = c.ShouldBind(&form)
	form.RememberMe = checkbox(c.PostForm("remember_me"))
	next := c.DefaultPostForm("next", c.Query("next"))

	user, err := h.service.Authenticate(c.Request.Context(), &form)
	if err != nil {
		ok := true
		var fe map[string][]string
		if errors.Is(err, services.ErrInvalidCredentials) {
			AddFlash(c, FlashDanger, "手机号或密码错误")
		} else if fe, ok = h.formFailure(c, err, "登录失败"); !ok {
			return
		}
		form.Password = ""
		h.render(c, http.StatusOK, "auth/login", gin.H{
			"form":   form,
			"next":   next,
			"errors": fe,
		})
		return
	}

	if err := h.sessions.StartSession(c, user, form.RememberMe); err != nil {
		h.handleServiceError(c, err)
		return
	}
	AddFlash(c, FlashSuccess, "登录成功!")
	if target, ok := safeNext(next); ok {
		h.redirect(c, target)
		return
	}
	h.redirect(c, dashboardPath(user.Role))
}

// RegisterPage pre-fills the role from ?role=
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	if _, ok := currentIdentity(c); ok {
		h.redirect(c, "/")
		return
	}
	form := validator.RegisterForm{}
	if role, err := models.ParseRole(c.Query("role")); err == nil {
		form.Role = string(role)
	}
	h.renderRegister(c, http.StatusOK, &form, nil)
}

func (h *AuthHandler) Register(c *gin.Context) {
	if _, ok := currentIdentity(c); ok {
		h.redirect(c, "/")
		return
	}
	h.LogRequest(c, "Registering user")

	var form validator.RegisterForm
	_ = c.ShouldBind(&form)

	_, err := h.service.Register(c.Request.Context(), &form)
	if err != nil {
		ok := true
		var fe map[string][]string
		if errors.Is(err, services.ErrDuplicatePhone) {
			AddFlash(c, FlashDanger, "手机号已被注册")
		} else if fe, ok = h.formFailure(c, err, "注册失败"); !ok {
			return
		}
		form.Password, form.ConfirmPassword = "", ""
		h.renderRegister(c, http.StatusOK, &form, fe)
		return
	}

	AddFlash(c, FlashSuccess, "注册成功! 请登录")
	h.redirect(c, "/login")
}

func (h *AuthHandler) renderRegister(c *gin.Context, status int, form *validator.RegisterForm, errs map[string][]string) {
	h.render(c, status, "auth/register", gin.H{
		"form":   form,
		"errors": errs,
		"roles": []models.Option{
			{ID: string(models.RoleStudent), Name: models.RoleStudent.Label()},
			{ID: string(models.RoleTeacher), Name: models.RoleTeacher.Label()},
		},
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.ClearSession(c)
	AddFlash(c, FlashInfo, "您已成功退出登录")
	h.redirect(c, "/")
}

// checkbox accepts the values browsers and form libraries send for a checked box
func checkbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "y", "yes":
		return true
	}
	return false
}
