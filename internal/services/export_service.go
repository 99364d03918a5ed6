package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	exportTimeLayout = "2006-01-02 15:04"
	stampLayout      = "20060102_150405"
)

type exportService struct {
	Deps
	assignments *assignmentService
	exams       *examService
}

func NewExportService(deps Deps) ExportService {
	deps = deps.withDefaults()
	return &exportService{
		Deps:        deps,
		assignments: &assignmentService{Deps: deps},
		exams:       &examService{Deps: deps},
	}
}

// AssignmentGrades writes one row per submission of an assignment the teacher owns
func (s *exportService) AssignmentGrades(ctx context.Context, id Identity, assignmentID uint) (*Export, error) {
	assignment, submissions, err := s.assignments.Submissions(ctx, id, assignmentID)
	if err != nil {
		return nil, err
	}

	headers := []string{"学号", "姓名", "提交时间", "作答内容", "附件", "已批改", "分数", "评语"}
	rows := make([][]interface{}, 0, len(submissions))
	for _, sub := range submissions {
		var studentNo, name string
		if sub.Student != nil {
			studentNo, name = sub.Student.StudentID, sub.Student.Name
		}
		row := []interface{}{
			studentNo,
			name,
			sub.SubmittedAt.In(s.Location).Format(exportTimeLayout),
			sub.TextAnswer,
			deref(sub.FilePath),
			yesNo(sub.Graded),
			"",
			deref(sub.Feedback),
		}
		if sub.Score != nil {
			row[6] = *sub.Score
		}
		rows = append(rows, row)
	}

	data, err := writeSheet("成绩", headers, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to export assignment %d: %w", assignmentID, err)
	}
	s.Logger.Info("Assignment grades exported", "assignment_id", assignment.ID, "rows", len(rows))
	return &Export{
		Filename: fmt.Sprintf("assignment_%d_grades_%s.xlsx", assignment.ID, s.Now().Format(stampLayout)),
		Data:     data,
	}, nil
}

func (s *exportService) ExamResults(ctx context.Context, id Identity, examID uint) (*Export, error) {
	exam, submissions, err := s.exams.Submissions(ctx, id, examID)
	if err != nil {
		return nil, err
	}

	headers := []string{"学号", "姓名", "提交时间", "得分", "满分", "已批改"}
	rows := make([][]interface{}, 0, len(submissions))
	for _, sub := range submissions {
		var studentNo, name string
		if sub.Student != nil {
			studentNo, name = sub.Student.StudentID, sub.Student.Name
		}
		rows = append(rows, []interface{}{
			studentNo,
			name,
			sub.SubmittedAt.In(s.Location).Format(exportTimeLayout),
			sub.Score,
			sub.MaxScore,
			yesNo(sub.Graded),
		})
	}

	data, err := writeSheet("考试成绩", headers, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to export exam %d: %w", examID, err)
	}
	s.Logger.Info("Exam results exported", "exam_id", exam.ID, "rows", len(rows))
	return &Export{
		Filename: fmt.Sprintf("exam_%d_results_%s.xlsx", exam.ID, s.Now().Format(stampLayout)),
		Data:     data,
	}, nil
}

func writeSheet(sheetName string, headers []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, err
		}
	}
	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
