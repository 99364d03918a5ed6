package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/services"
	"github.com/SAP-F-2025/teaching-assistant/internal/utils"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

const (
	examAnswerPrefix   = "q_"
	multipartMaxMemory = 8 << 20
)

type StudentHandler struct {
	BaseHandler
	dashboard   services.DashboardService
	assignments services.AssignmentService
	exams       services.ExamService
	profile     services.ProfileService
	classes     services.ClassService
}

func NewStudentHandler(sm services.ServiceManager, logger utils.Logger, renderer Renderer) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger, renderer),
		dashboard:   sm.Dashboard(),
		assignments: sm.Assignment(),
		exams:       sm.Exam(),
		profile:     sm.Profile(),
		classes:     sm.Class(),
	}
}

// ===== DASHBOARD =====

func (h *StudentHandler) Dashboard(c *gin.Context) {
	h.LogRequest(c, "Student dashboard")

	board, err := h.dashboard.Student(c.Request.Context(), mustIdentity(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "student/dashboard", gin.H{
		"student":     board.Student,
		"assignments": board.Assignments,
		"exams":       board.Exams,
	})
}

// ===== ASSIGNMENTS =====

func (h *StudentHandler) Assignments(c *gin.Context) {
	assignments, err := h.assignments.StudentAssignments(c.Request.Context(), mustIdentity(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "student/assignments", gin.H{"assignments": assignments})
}

func (h *StudentHandler) Assignment(c *gin.Context) {
	assignmentID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	detail, err := h.assignments.StudentAssignment(c.Request.Context(), mustIdentity(c), assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "student/assignment_detail", gin.H{
		"assignment": detail.Assignment,
		"submission": detail.Submission,
		"overdue":    detail.Overdue,
	})
}

// SubmitAssignment takes a text answer and an optional "file" upload
func (h *StudentHandler) SubmitAssignment(c *gin.Context) {
	assignmentID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogRequest(c, "Submitting assignment", "assignment_id", assignmentID)

	var form validator.SubmissionForm
	_ = c.ShouldBind(&form)

	var upload *services.Upload
	header, err := c.FormFile("file")
	switch {
	case err == nil && header.Filename != "":
		file, err := header.Open()
		if err != nil {
			h.handleServiceError(c, fmt.Errorf("open upload: %w", err))
			return
		}
		defer file.Close()
		upload = &services.Upload{Filename: header.Filename, Content: file}
	case err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		h.handleServiceError(c, fmt.Errorf("read upload: %w", err))
		return
	}

	back := c.Request.URL.Path
	result, err := h.assignments.Submit(c.Request.Context(), mustIdentity(c), assignmentID, &form, upload)
	if err != nil {
		if _, ok := h.formFailure(c, err, "作业提交失败"); ok {
			h.redirect(c, back)
		}
		return
	}

	if result.Created {
		AddFlash(c, FlashSuccess, "作业提交成功!")
	} else {
		AddFlash(c, FlashSuccess, "作业已更新!")
	}
	h.redirect(c, back)
}

func (h *StudentHandler) Grades(c *gin.Context) {
	grades, err := h.assignments.StudentGrades(c.Request.Context(), mustIdentity(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "student/grades", gin.H{
		"submissions":  grades.Assignments,
		"exam_results": grades.Exams,
	})
}

// ===== EXAMS =====

func (h *StudentHandler) Exams(c *gin.Context) {
	exams, err := h.exams.StudentExams(c.Request.Context(), mustIdentity(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "student/exams", gin.H{"exams": exams})
}

func (h *StudentHandler) Exam(c *gin.Context) {
	examID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	detail, err := h.exams.StudentExam(c.Request.Context(), mustIdentity(c), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "student/exam_detail", gin.H{
		"exam":       detail.Exam,
		"questions":  detail.Questions,
		"submission": detail.Submission,
		"answers":    detail.Answers,
		"open":       detail.Open,
	})
}

// SubmitExam reads one q_<question id> field per question; checkboxes repeat the field
func (h *StudentHandler) SubmitExam(c *gin.Context) {
	examID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogRequest(c, "Submitting exam", "exam_id", examID)

	answers, err := examAnswers(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	back := c.Request.URL.Path
	result, err := h.exams.Submit(c.Request.Context(), mustIdentity(c), examID, answers)
	if err != nil {
		if errors.Is(err, services.ErrExamClosed) {
			AddFlash(c, FlashWarning, "考试不在作答时间内")
			h.redirect(c, back)
			return
		}
		if _, ok := h.formFailure(c, err, "考试提交失败"); ok {
			h.redirect(c, back)
		}
		return
	}

	if result.Pending > 0 {
		AddFlash(c, FlashSuccess, fmt.Sprintf("考试提交成功! %d 道主观题待批改", result.Pending))
	} else {
		AddFlash(c, FlashSuccess, "考试提交成功!")
	}
	h.redirect(c, back)
}

func examAnswers(c *gin.Context) (map[uint][]string, error) {
	if err := c.Request.ParseMultipartForm(multipartMaxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("parse exam form: %w", err)
	}
	answers := make(map[uint][]string)
	for key, values := range c.Request.PostForm {
		if !strings.HasPrefix(key, examAnswerPrefix) {
			continue
		}
		qid, err := strconv.ParseUint(strings.TrimPrefix(key, examAnswerPrefix), 10, 64)
		if err != nil || qid == 0 {
			continue
		}
		answers[uint(qid)] = values
	}
	return answers, nil
}

// ===== PROFILE =====

func (h *StudentHandler) Profile(c *gin.Context) {
	user, err := h.profile.Profile(c.Request.Context(), mustIdentity(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	form := validator.StudentProfileForm{
		Name:      user.Name,
		Phone:     user.Phone,
		StudentID: user.StudentID,
		College:   user.College,
		Major:     user.Major,
	}
	if user.Class != nil {
		form.ClassName = user.Class.ClassName
	}
	h.renderProfile(c, user, &form, nil)
}

// UpdateProfile edits the full profile; the class is found or created from college, major and class name
func (h *StudentHandler) UpdateProfile(c *gin.Context) {
	id := mustIdentity(c)
	h.LogRequest(c, "Updating student profile")

	var form validator.StudentProfileForm
	_ = c.ShouldBind(&form)

	user, err := h.profile.UpdateProfile(c.Request.Context(), id, &form)
	if err != nil {
		fe := formErrors(err)
		if fe == nil {
			if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrForbidden) {
				h.handleServiceError(c, err)
				return
			}
			h.LogError(c, err, "Profile update failed")
		}
		AddFlash(c, FlashDanger, fmt.Sprintf("更新失败: %s", failureText(err)))

		current, perr := h.profile.Profile(c.Request.Context(), id)
		if perr != nil {
			h.handleServiceError(c, perr)
			return
		}
		h.renderProfile(c, current, &form, fe)
		return
	}

	h.log(c).Info("Student profile updated", "user_id", user.ID)
	AddFlash(c, FlashSuccess, "个人信息更新成功!")
	h.redirect(c, "/student/profile")
}

func (h *StudentHandler) renderProfile(c *gin.Context, user *models.User, form *validator.StudentProfileForm, errs map[string][]string) {
	h.render(c, http.StatusOK, "student/profile", gin.H{
		"user":        user,
		"form":        form,
		"errors":      errs,
		"colleges":    services.Colleges(),
		"majors":      services.MajorOptions(form.College),
		"class_names": services.ClassNameOptions(),
	})
}

func (h *StudentHandler) ProfileInfo(c *gin.Context) {
	user, err := h.profile.Profile(c.Request.Context(), mustIdentity(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	form := validator.StudentInfoForm{College: user.College, Major: user.Major}
	if user.ClassID != nil {
		form.ClassID = *user.ClassID
	}
	h.renderProfileInfo(c, user, &form, nil)
}

// UpdateProfileInfo switches college, major and class to an existing class
func (h *StudentHandler) UpdateProfileInfo(c *gin.Context) {
	id := mustIdentity(c)
	h.LogRequest(c, "Updating academic info")

	var form validator.StudentInfoForm
	_ = c.ShouldBind(&form)

	_, err := h.profile.UpdateAcademicInfo(c.Request.Context(), id, &form)
	if err != nil {
		fe := formErrors(err)
		switch {
		case errors.Is(err, services.ErrClassMismatch):
			fe = map[string][]string{"class_id": {"所选班级与学院/专业不匹配"}}
			AddFlash(c, FlashDanger, "所选班级与学院/专业不匹配")
		case fe != nil:
			AddFlash(c, FlashDanger, fmt.Sprintf("修改失败：%s", failureText(err)))
		case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrForbidden):
			h.handleServiceError(c, err)
			return
		default:
			h.LogError(c, err, "Academic info update failed")
			AddFlash(c, FlashDanger, fmt.Sprintf("修改失败：%s", err))
		}

		current, perr := h.profile.Profile(c.Request.Context(), id)
		if perr != nil {
			h.handleServiceError(c, perr)
			return
		}
		h.renderProfileInfo(c, current, &form, fe)
		return
	}

	AddFlash(c, FlashSuccess, "学院、专业、班级修改成功")
	h.redirect(c, "/student/profile/info")
}

func (h *StudentHandler) renderProfileInfo(c *gin.Context, user *models.User, form *validator.StudentInfoForm, errs map[string][]string) {
	classes, err := h.classes.ClassOptions(c.Request.Context(), form.College, form.Major)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "student/profile_info", gin.H{
		"user":     user,
		"form":     form,
		"errors":   errs,
		"colleges": services.Colleges(),
		"majors":   services.MajorOptions(form.College),
		"classes":  classes,
	})
}

// failureText prefers the field summary for validation failures
func failureText(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return strings.Join(verrs.Summary(), "; ")
	}
	return err.Error()
}
