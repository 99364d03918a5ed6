package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/services"
	"github.com/SAP-F-2025/teaching-assistant/internal/utils"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TeacherHandler struct {
	BaseHandler
	dashboard   services.DashboardService
	classes     services.ClassService
	assignments services.AssignmentService
	exams       services.ExamService
	export      services.ExportService
}

func NewTeacherHandler(sm services.ServiceManager, logger utils.Logger, renderer Renderer) *TeacherHandler {
	return &TeacherHandler{
		BaseHandler: NewBaseHandler(logger, renderer),
		dashboard:   sm.Dashboard(),
		classes:     sm.Class(),
		assignments: sm.Assignment(),
		exams:       sm.Exam(),
		export:      sm.Export(),
	}
}

func (h *TeacherHandler) Dashboard(c *gin.Context) {
	h.LogRequest(c, "Teacher dashboard")

	board, err := h.dashboard.Teacher(c.Request.Context(), mustIdentity(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/dashboard", gin.H{
		"classes":     board.Classes,
		"assignments": board.Assignments,
		"exams":       board.Exams,
	})
}

// ===== CLASSES & STUDENTS =====

func (h *TeacherHandler) Students(c *gin.Context) {
	students, err := h.classes.ListStudents(c.Request.Context(), mustIdentity(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/students", gin.H{"students": students})
}

func (h *TeacherHandler) Classes(c *gin.Context) {
	classes, err := h.classes.ListClasses(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/classes", gin.H{"classes": classes})
}

func (h *TeacherHandler) CreateClassPage(c *gin.Context) {
	h.renderClassForm(c, &validator.ClassCreateForm{}, nil)
}

func (h *TeacherHandler) CreateClass(c *gin.Context) {
	h.LogRequest(c, "Creating class")

	var form validator.ClassCreateForm
	_ = c.ShouldBind(&form)

	_, err := h.classes.CreateClass(c.Request.Context(), mustIdentity(c), &form)
	if err != nil {
		var fe map[string][]string
		if errors.Is(err, services.ErrClassExists) {
			AddFlash(c, FlashDanger, "该班级已存在!")
		} else {
			var ok bool
			if fe, ok = h.formFailure(c, err, "班级创建失败"); !ok {
				return
			}
		}
		h.renderClassForm(c, &form, fe)
		return
	}

	AddFlash(c, FlashSuccess, "班级创建成功!")
	h.redirect(c, "/teacher/classes")
}

func (h *TeacherHandler) renderClassForm(c *gin.Context, form *validator.ClassCreateForm, errs map[string][]string) {
	h.render(c, http.StatusOK, "teacher/create_class", gin.H{
		"form":        form,
		"errors":      errs,
		"colleges":    services.Colleges(),
		"majors":      services.MajorOptions(form.College),
		"class_names": services.ClassNameOptions(),
	})
}

func (h *TeacherHandler) ClassStudents(c *gin.Context) {
	classID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	class, students, err := h.classes.ClassStudents(c.Request.Context(), mustIdentity(c), classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/class_students", gin.H{
		"class":    class,
		"students": students,
	})
}

// classChoices labels every class for the target class dropdown
func (h *TeacherHandler) classChoices(c *gin.Context) ([]models.Option, error) {
	classes, err := h.classes.ListClasses(c.Request.Context())
	if err != nil {
		return nil, err
	}
	out := make([]models.Option, 0, len(classes))
	for _, class := range classes {
		out = append(out, models.Option{ID: class.ID, Name: class.DisplayName()})
	}
	return out, nil
}

// ===== ASSIGNMENTS =====

func (h *TeacherHandler) CreateAssignmentPage(c *gin.Context) {
	h.renderAssignmentForm(c, &validator.AssignmentCreateForm{}, nil)
}

func (h *TeacherHandler) CreateAssignment(c *gin.Context) {
	h.LogRequest(c, "Creating assignment")

	var form validator.AssignmentCreateForm
	_ = c.ShouldBind(&form)

	if _, err := h.assignments.Create(c.Request.Context(), mustIdentity(c), &form); err != nil {
		if fe, ok := h.formFailure(c, err, "作业创建失败"); ok {
			h.renderAssignmentForm(c, &form, fe)
		}
		return
	}

	AddFlash(c, FlashSuccess, "作业创建成功!")
	h.redirect(c, "/teacher/assignments")
}

func (h *TeacherHandler) renderAssignmentForm(c *gin.Context, form *validator.AssignmentCreateForm, errs map[string][]string) {
	choices, err := h.classChoices(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/create_assignment", gin.H{
		"form":    form,
		"errors":  errs,
		"classes": choices,
	})
}

func (h *TeacherHandler) Assignments(c *gin.Context) {
	assignments, err := h.assignments.TeacherAssignments(c.Request.Context(), mustIdentity(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/assignments", gin.H{"assignments": assignments})
}

func (h *TeacherHandler) AssignmentQuestions(c *gin.Context) {
	assignmentID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.renderAssignmentQuestions(c, assignmentID, &validator.AssignmentQuestionForm{}, nil)
}

func (h *TeacherHandler) AddAssignmentQuestion(c *gin.Context) {
	assignmentID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	var form validator.AssignmentQuestionForm
	_ = c.ShouldBind(&form)

	if _, err := h.assignments.AddQuestion(c.Request.Context(), mustIdentity(c), assignmentID, &form); err != nil {
		if fe, ok := h.formFailure(c, err, "题目添加失败"); ok {
			h.renderAssignmentQuestions(c, assignmentID, &form, fe)
		}
		return
	}

	AddFlash(c, FlashSuccess, "题目添加成功!")
	h.redirect(c, c.Request.URL.Path)
}

func (h *TeacherHandler) renderAssignmentQuestions(c *gin.Context, assignmentID uint, form *validator.AssignmentQuestionForm, errs map[string][]string) {
	assignment, questions, err := h.assignments.Questions(c.Request.Context(), mustIdentity(c), assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/assignment_questions", gin.H{
		"assignment": assignment,
		"questions":  questions,
		"form":       form,
		"errors":     errs,
	})
}

func (h *TeacherHandler) AssignmentSubmissions(c *gin.Context) {
	assignmentID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	assignment, submissions, err := h.assignments.Submissions(c.Request.Context(), mustIdentity(c), assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/assignment_submissions", gin.H{
		"assignment":  assignment,
		"submissions": submissions,
	})
}

// GradeSubmission returns to the submissions page of the graded assignment
func (h *TeacherHandler) GradeSubmission(c *gin.Context) {
	submissionID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogRequest(c, "Grading submission", "submission_id", submissionID)

	var form validator.GradeForm
	_ = c.ShouldBind(&form)

	submission, err := h.assignments.Grade(c.Request.Context(), mustIdentity(c), submissionID, &form)
	if err != nil {
		if _, ok := h.formFailure(c, err, "批改失败"); ok {
			h.redirect(c, backTo(c, "/teacher/assignments"))
		}
		return
	}

	AddFlash(c, FlashSuccess, "批改完成!")
	h.redirect(c, fmt.Sprintf("/teacher/assignment/%d/submissions", submission.AssignmentID))
}

func (h *TeacherHandler) ExportAssignment(c *gin.Context) {
	assignmentID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	export, err := h.export.AssignmentGrades(c.Request.Context(), mustIdentity(c), assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	sendExport(c, export)
}

// ===== EXAMS =====

func (h *TeacherHandler) CreateExamPage(c *gin.Context) {
	h.renderExamForm(c, &validator.ExamCreateForm{}, nil)
}

func (h *TeacherHandler) CreateExam(c *gin.Context) {
	h.LogRequest(c, "Creating exam")

	var form validator.ExamCreateForm
	_ = c.ShouldBind(&form)

	exam, err := h.exams.Create(c.Request.Context(), mustIdentity(c), &form)
	if err != nil {
		if fe, ok := h.formFailure(c, err, "考试创建失败"); ok {
			h.renderExamForm(c, &form, fe)
		}
		return
	}

	AddFlash(c, FlashSuccess, "考试创建成功!")
	h.redirect(c, fmt.Sprintf("/teacher/exam/%d/questions", exam.ID))
}

func (h *TeacherHandler) renderExamForm(c *gin.Context, form *validator.ExamCreateForm, errs map[string][]string) {
	choices, err := h.classChoices(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/create_exam", gin.H{
		"form":    form,
		"errors":  errs,
		"classes": choices,
	})
}

func (h *TeacherHandler) Exams(c *gin.Context) {
	exams, err := h.exams.TeacherExams(c.Request.Context(), mustIdentity(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/exams", gin.H{"exams": exams})
}

func (h *TeacherHandler) ExamQuestions(c *gin.Context) {
	examID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.renderExamQuestions(c, examID, &validator.ExamQuestionForm{}, nil)
}

func (h *TeacherHandler) AddExamQuestion(c *gin.Context) {
	examID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	var form validator.ExamQuestionForm
	_ = c.ShouldBind(&form)

	if _, err := h.exams.AddQuestion(c.Request.Context(), mustIdentity(c), examID, &form); err != nil {
		if fe, ok := h.formFailure(c, err, "题目添加失败"); ok {
			h.renderExamQuestions(c, examID, &form, fe)
		}
		return
	}

	AddFlash(c, FlashSuccess, "题目添加成功!")
	h.redirect(c, c.Request.URL.Path)
}

func (h *TeacherHandler) renderExamQuestions(c *gin.Context, examID uint, form *validator.ExamQuestionForm, errs map[string][]string) {
	exam, questions, err := h.exams.Questions(c.Request.Context(), mustIdentity(c), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/exam_questions", gin.H{
		"exam":      exam,
		"questions": questions,
		"form":      form,
		"errors":    errs,
		"types": []models.Option{
			{ID: string(models.SingleChoice), Name: "单选题"},
			{ID: string(models.MultipleChoice), Name: "多选题"},
			{ID: string(models.TrueFalse), Name: "判断题"},
			{ID: string(models.ShortAnswer), Name: "简答题"},
		},
	})
}

func (h *TeacherHandler) ExamSubmissions(c *gin.Context) {
	examID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	exam, submissions, err := h.exams.Submissions(c.Request.Context(), mustIdentity(c), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/exam_submissions", gin.H{
		"exam":        exam,
		"submissions": submissions,
	})
}

func (h *TeacherHandler) ExamSubmission(c *gin.Context) {
	submissionID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	submission, err := h.exams.Submission(c.Request.Context(), mustIdentity(c), submissionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, "teacher/exam_submission", gin.H{"submission": submission})
}

// GradeExamAnswer scores one short answer and returns to its submission
func (h *TeacherHandler) GradeExamAnswer(c *gin.Context) {
	answerID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogRequest(c, "Grading exam answer", "answer_id", answerID)

	var form validator.ExamAnswerGradeForm
	_ = c.ShouldBind(&form)

	submission, err := h.exams.GradeAnswer(c.Request.Context(), mustIdentity(c), answerID, &form)
	if err != nil {
		if _, ok := h.formFailure(c, err, "批改失败"); ok {
			h.redirect(c, backTo(c, "/teacher/exams"))
		}
		return
	}

	if submission.Graded {
		AddFlash(c, FlashSuccess, "批改完成!")
	} else {
		AddFlash(c, FlashSuccess, "已保存评分")
	}
	h.redirect(c, fmt.Sprintf("/teacher/exam-submission/%d", submission.ID))
}

func (h *TeacherHandler) ExportExam(c *gin.Context) {
	examID, err := parseID(c, "id")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	export, err := h.export.ExamResults(c.Request.Context(), mustIdentity(c), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	sendExport(c, export)
}

func sendExport(c *gin.Context, export *services.Export) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, xlsxContentType, export.Data)
}

// backTo honors a relative "next" form field, else fallback
func backTo(c *gin.Context, fallback string) string {
	if next, ok := safeNext(c.PostForm("next")); ok {
		return next
	}
	return fallback
}
