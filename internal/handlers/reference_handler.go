package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/teaching-assistant/internal/services"
	"github.com/SAP-F-2025/teaching-assistant/internal/utils"
)

// ReferenceHandler serves the cascading college, major and class dropdowns
type ReferenceHandler struct {
	BaseHandler
	classes services.ClassService
}

func NewReferenceHandler(classes services.ClassService, logger utils.Logger, renderer Renderer) *ReferenceHandler {
	return &ReferenceHandler{
		BaseHandler: NewBaseHandler(logger, renderer),
		classes:     classes,
	}
}

func (h *ReferenceHandler) Majors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"majors": services.MajorOptions(c.Param("college"))})
}

func (h *ReferenceHandler) Classes(c *gin.Context) {
	classes, err := h.classes.ClassOptions(c.Request.Context(), c.Param("college"), c.Param("major"))
	if err != nil {
		h.LogError(c, err, "Failed to load class options")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "加载班级失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}
