package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/services"
	"github.com/SAP-F-2025/teaching-assistant/internal/session"
	"github.com/SAP-F-2025/teaching-assistant/internal/utils"
)

const (
	identityContextKey = "identity"
	userContextKey     = "current_user"
)

// SessionAuth resolves the session cookie into an identity and gates routes on it
type SessionAuth struct {
	sessions *session.Manager
	auth     services.AuthService
	logger   utils.Logger
	secure   bool
}

func NewSessionAuth(sessions *session.Manager, auth services.AuthService, logger utils.Logger, secureCookies bool) *SessionAuth {
	return &SessionAuth{sessions: sessions, auth: auth, logger: logger, secure: secureCookies}
}

// SessionMiddleware loads the current user when a valid session cookie is present.
// Requests without one continue anonymously.
func (sa *SessionAuth) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(session.CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		claims, err := sa.sessions.Parse(token)
		if err != nil {
			sa.ClearSession(c)
			c.Next()
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			sa.ClearSession(c)
			c.Next()
			return
		}

		user, err := sa.auth.CurrentUser(c.Request.Context(), userID)
		if err != nil {
			if !errors.Is(err, services.ErrNotFound) {
				utils.FromContext(c, sa.logger).Error("Failed to load session user", "user_id", userID, "error", err)
			}
			sa.ClearSession(c)
			c.Next()
			return
		}

		c.Set(identityContextKey, services.IdentityFromUser(user))
		c.Set(userContextKey, user)
		c.Next()
	}
}

// StartSession issues the session cookie. A remembered session is persistent; otherwise
// the cookie ends with the browser session and the token carries the short lifetime.
func (sa *SessionAuth) StartSession(c *gin.Context, user *models.User, remember bool) error {
	token, err := sa.sessions.Issue(user, remember)
	if err != nil {
		return err
	}
	maxAge := 0
	if remember {
		maxAge = int(sa.sessions.TTL(true).Seconds())
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sa.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (sa *SessionAuth) ClearSession(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sa.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireLogin redirects anonymous callers to the login page with a next link
func (sa *SessionAuth) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentIdentity(c); ok {
			c.Next()
			return
		}
		AddFlash(c, FlashWarning, "请先登录")
		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// RequireRole sends callers with another role home with a danger flash
func (sa *SessionAuth) RequireRole(role models.UserRole, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := currentIdentity(c); ok && id.Role == role {
			c.Next()
			return
		}
		AddFlash(c, FlashDanger, message)
		c.Redirect(http.StatusFound, "/")
		c.Abort()
	}
}

// RequireRoleJSON answers 403 with an empty list under key
func (sa *SessionAuth) RequireRoleJSON(role models.UserRole, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := currentIdentity(c); ok && id.Role == role {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{key: []models.Option{}})
	}
}

func currentIdentity(c *gin.Context) (services.Identity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return services.Identity{}, false
	}
	id, ok := v.(services.Identity)
	return id, ok && id.UserID != 0
}

// mustIdentity is for handlers mounted behind RequireLogin
func mustIdentity(c *gin.Context) services.Identity {
	id, _ := currentIdentity(c)
	return id
}

func dashboardPath(role models.UserRole) string {
	switch role {
	case models.RoleStudent:
		return "/student/dashboard"
	case models.RoleTeacher:
		return "/teacher/dashboard"
	}
	return "/"
}

// safeNext accepts only same-site relative paths
func safeNext(next string) (string, bool) {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "", false
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "", false
	}
	return next, true
}
