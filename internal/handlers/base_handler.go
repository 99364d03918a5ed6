package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/teaching-assistant/internal/services"
	"github.com/SAP-F-2025/teaching-assistant/internal/utils"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

// ErrorResponse is the body of error pages and JSON errors
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries what every page handler needs
type BaseHandler struct {
	logger   utils.Logger
	renderer Renderer
}

func NewBaseHandler(logger utils.Logger, renderer Renderer) BaseHandler {
	return BaseHandler{logger: logger, renderer: renderer}
}

func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.FromContext(c, h.logger)
}

func (h *BaseHandler) LogRequest(c *gin.Context, message string, args ...any) {
	attrs := append([]any{"method", c.Request.Method, "path", c.FullPath()}, args...)
	if id, ok := currentIdentity(c); ok {
		attrs = append(attrs, "user_id", id.UserID)
	}
	h.log(c).Debug(message, attrs...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, args ...any) {
	attrs := append([]any{"error", err, "path", c.Request.URL.Path}, args...)
	h.log(c).Error(message, attrs...)
}

// render writes a page with the flashes queued so far
func (h *BaseHandler) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["flashes"] = PopFlashes(c)
	if user, ok := c.Get(userContextKey); ok {
		data["current_user"] = user
	}
	h.renderer.Render(c, status, page, data)
}

// redirect sends a 302; POST handlers use it after a mutation
func (h *BaseHandler) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

// handleServiceError renders failures that have no page specific handling
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		h.render(c, http.StatusBadRequest, "error", gin.H{
			"error": ErrorResponse{Message: "输入有误", Details: verrs},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		h.render(c, http.StatusNotFound, "error", gin.H{
			"error": ErrorResponse{Message: "页面不存在"},
		})
	case errors.Is(err, services.ErrForbidden):
		h.render(c, http.StatusForbidden, "error", gin.H{
			"error": ErrorResponse{Message: "无权访问此页面"},
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		h.render(c, http.StatusInternalServerError, "error", gin.H{
			"error": ErrorResponse{Message: "服务器内部错误"},
		})
	}
}

// flashValidation queues one danger flash per field error
func flashValidation(c *gin.Context, verrs validator.ValidationErrors) {
	for _, msg := range verrs.Summary() {
		AddFlash(c, FlashDanger, msg)
	}
}

// formErrors returns inline field errors for err, or nil
func formErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.ByField()
	}
	return nil
}

// formFailure flashes a failed form post. Validation errors are flashed one per field and
// returned for inline display; store failures are flashed with their text after the rollback.
// It returns false when err already rendered its own status page.
func (h *BaseHandler) formFailure(c *gin.Context, err error, failMsg string) (map[string][]string, bool) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		flashValidation(c, verrs)
		return verrs.ByField(), true
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrForbidden):
		h.handleServiceError(c, err)
		return nil, false
	default:
		h.LogError(c, err, "Form submission failed")
		AddFlash(c, FlashDanger, fmt.Sprintf("%s: %s", failMsg, err))
		return nil, true
	}
}

// parseID reads a positive uint path parameter
func parseID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", services.ErrNotFound, name, raw)
	}
	return uint(id), nil
}
