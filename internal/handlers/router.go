package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/services"
	"github.com/SAP-F-2025/teaching-assistant/internal/session"
	"github.com/SAP-F-2025/teaching-assistant/internal/utils"
)

type HandlerManager struct {
	authHandler      *AuthHandler
	studentHandler   *StudentHandler
	teacherHandler   *TeacherHandler
	referenceHandler *ReferenceHandler
	sessionAuth      *SessionAuth
	serviceManager   services.ServiceManager
	logger           utils.Logger
}

type HandlerConfig struct {
	Sessions      *session.Manager
	Renderer      Renderer
	SecureCookies bool
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger, cfg HandlerConfig) *HandlerManager {
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = JSONRenderer{}
	}
	sessionAuth := NewSessionAuth(cfg.Sessions, serviceManager.Auth(), logger, cfg.SecureCookies)

	return &HandlerManager{
		authHandler:      NewAuthHandler(serviceManager.Auth(), sessionAuth, logger, renderer),
		studentHandler:   NewStudentHandler(serviceManager, logger, renderer),
		teacherHandler:   NewTeacherHandler(serviceManager, logger, renderer),
		referenceHandler: NewReferenceHandler(serviceManager.Class(), logger, renderer),
		sessionAuth:      sessionAuth,
		serviceManager:   serviceManager,
		logger:           logger,
	}
}

// SetupRoutes registers every page and JSON route
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	web := router.Group("/")
	web.Use(hm.sessionAuth.SessionMiddleware())

	web.GET("/", hm.authHandler.Index)
	web.GET("/login", hm.authHandler.LoginPage)
	web.POST("/login", hm.authHandler.Login)
	web.GET("/register", hm.authHandler.RegisterPage)
	web.POST("/register", hm.authHandler.Register)

	authed := web.Group("")
	authed.Use(hm.sessionAuth.RequireLogin())
	{
		authed.GET("/logout", hm.authHandler.Logout)

		// JSON lookups answer 403 with an empty list for non-students
		authed.GET("/student/get_majors/:college", hm.sessionAuth.RequireRoleJSON(models.RoleStudent, "majors"), hm.referenceHandler.Majors)
		authed.GET("/student/get_classes/:college/:major", hm.sessionAuth.RequireRoleJSON(models.RoleStudent, "classes"), hm.referenceHandler.Classes)
		authed.GET("/teacher/get_majors/:college", hm.referenceHandler.Majors)
	}

	hm.setupStudentRoutes(authed.Group("/student"))
	hm.setupTeacherRoutes(authed.Group("/teacher"))
}

func (hm *HandlerManager) setupStudentRoutes(student *gin.RouterGroup) {
	h := hm.studentHandler
	panel := hm.sessionAuth.RequireRole(models.RoleStudent, "无权访问学生面板")
	profile := hm.sessionAuth.RequireRole(models.RoleStudent, "无权访问学生个人中心")

	student.GET("/dashboard", panel, h.Dashboard)
	student.GET("/assignments", panel, h.Assignments)
	student.GET("/assignment/:id", panel, h.Assignment)
	student.POST("/assignment/:id", panel, h.SubmitAssignment)
	student.GET("/grades", panel, h.Grades)
	student.GET("/exams", panel, h.Exams)
	student.GET("/exam/:id", panel, h.Exam)
	student.POST("/exam/:id", panel, h.SubmitExam)

	student.GET("/profile", profile, h.Profile)
	student.POST("/profile", profile, h.UpdateProfile)
	student.GET("/profile/info", profile, h.ProfileInfo)
	student.POST("/profile/info", profile, h.UpdateProfileInfo)
}

func (hm *HandlerManager) setupTeacherRoutes(teacher *gin.RouterGroup) {
	h := hm.teacherHandler
	panel := hm.sessionAuth.RequireRole(models.RoleTeacher, "无权访问教师面板")
	page := hm.sessionAuth.RequireRole(models.RoleTeacher, "无权访问此页面")

	teacher.GET("/dashboard", panel, h.Dashboard)

	teacher.GET("/students", page, h.Students)
	teacher.GET("/classes", page, h.Classes)
	teacher.GET("/class/create", page, h.CreateClassPage)
	teacher.POST("/class/create", page, h.CreateClass)
	teacher.GET("/class/:id/students", page, h.ClassStudents)

	teacher.GET("/assignment/create", page, h.CreateAssignmentPage)
	teacher.POST("/assignment/create", page, h.CreateAssignment)
	teacher.GET("/assignments", page, h.Assignments)
	teacher.GET("/assignment/:id/questions", page, h.AssignmentQuestions)
	teacher.POST("/assignment/:id/questions", page, h.AddAssignmentQuestion)
	teacher.GET("/assignment/:id/submissions", page, h.AssignmentSubmissions)
	teacher.GET("/assignment/:id/export", page, h.ExportAssignment)
	teacher.POST("/submission/:id/grade", page, h.GradeSubmission)

	teacher.GET("/exam/create", page, h.CreateExamPage)
	teacher.POST("/exam/create", page, h.CreateExam)
	teacher.GET("/exams", page, h.Exams)
	teacher.GET("/exam/:id/questions", page, h.ExamQuestions)
	teacher.POST("/exam/:id/questions", page, h.AddExamQuestion)
	teacher.GET("/exam/:id/submissions", page, h.ExamSubmissions)
	teacher.GET("/exam/:id/export", page, h.ExportExam)
	teacher.GET("/exam-submission/:id", page, h.ExamSubmission)
	teacher.POST("/exam-answer/:id/grade", page, h.GradeExamAnswer)
}

func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		utils.FromContext(c, hm.logger).Warn("Health check failed", "error", err)
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "teaching-assistant",
	})
}
