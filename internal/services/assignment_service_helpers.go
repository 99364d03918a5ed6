package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

const (
	submissionTimeLayout = "20060102150405"
	defaultUploadExt     = ".docx"
)

// ownAssignment loads an assignment the teacher created; other teachers get ErrForbidden
func (s *assignmentService) ownAssignment(ctx context.Context, id Identity, assignmentID uint) (*models.Assignment, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	assignment, err := s.Repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		return nil, notFound(err, "assignment", assignmentID)
	}
	if assignment.TeacherID != id.UserID {
		return nil, fmt.Errorf("%w: assignment %d belongs to another teacher", ErrForbidden, assignmentID)
	}
	return assignment, nil
}

// classAssignment loads an assignment of the student's class; anything else is not found
func (s *assignmentService) classAssignment(ctx context.Context, id Identity, assignmentID uint) (*models.Assignment, error) {
	if err := id.requireRole(models.RoleStudent); err != nil {
		return nil, err
	}
	assignment, err := s.Repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		return nil, notFound(err, "assignment", assignmentID)
	}
	if !id.inClass(assignment.ClassID) {
		return nil, fmt.Errorf("assignment %d: %w", assignmentID, ErrNotFound)
	}
	return assignment, nil
}

// submissionFileName builds assignment_<aid>_student_<sid>_<timestamp><ext>
func submissionFileName(assignmentID, studentID uint, at time.Time, original string) string {
	return fmt.Sprintf("assignment_%d_student_%d_%s%s",
		assignmentID, studentID, at.Format(submissionTimeLayout), uploadExt(original))
}

// uploadExt keeps a short alphanumeric extension of the client file name
func uploadExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 10 {
		return defaultUploadExt
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return defaultUploadExt
		}
	}
	return ext
}
