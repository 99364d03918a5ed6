package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/teaching-assistant/internal/events"
	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/repositories"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

type classService struct {
	Deps
}

func NewClassService(deps Deps) ClassService {
	return &classService{Deps: deps.withDefaults()}
}

func (s *classService) ListClasses(ctx context.Context) ([]*models.ClassInfo, error) {
	classes, err := s.Repo.Class().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

func (s *classService) CreateClass(ctx context.Context, id Identity, form *validator.ClassCreateForm) (*models.ClassInfo, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	if errs := s.Validator.Struct(form); len(errs) > 0 {
		return nil, errs
	}

	college := strings.TrimSpace(form.College)
	major := strings.TrimSpace(form.Major)
	className := strings.TrimSpace(form.ClassName)
	if !IsKnownMajor(college, major) {
		return nil, fieldError("major", "专业", "不属于所选学院", major, "college_major")
	}

	class := &models.ClassInfo{
		College:     college,
		Major:       major,
		ClassName:   className,
		Description: strings.TrimSpace(form.Description),
	}
	if class.Description == "" {
		class.Description = models.DefaultClassDescription(college, major, className)
	}

	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		_, err := tx.Class().FindByNaturalKey(ctx, college, major, className)
		switch {
		case err == nil:
			return ErrClassExists
		case !errors.Is(err, repositories.ErrNotFound):
			return err
		}
		return tx.Class().Create(ctx, class)
	})
	if err != nil {
		if errors.Is(err, ErrClassExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create class: %w", err)
	}

	s.Logger.Info("Class created", "class_id", class.ID, "teacher_id", id.UserID)
	s.publish(ctx, events.ClassCreated, class)
	return class, nil
}

func (s *classService) ClassStudents(ctx context.Context, id Identity, classID uint) (*models.ClassInfo, []*models.User, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, nil, err
	}
	class, err := s.Repo.Class().GetByID(ctx, classID)
	if err != nil {
		return nil, nil, notFound(err, "class", classID)
	}
	students, err := s.Repo.User().ListStudentsByClass(ctx, classID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list students of class %d: %w", classID, err)
	}
	return class, students, nil
}

func (s *classService) ListStudents(ctx context.Context, id Identity) ([]*models.User, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	students, err := s.Repo.User().ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// ClassOptions serves the cascading class dropdown as {id, name: class_name}
func (s *classService) ClassOptions(ctx context.Context, college, major string) ([]models.Option, error) {
	classes, err := s.Repo.Class().ListByCollegeMajor(ctx, college, major)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	out := make([]models.Option, 0, len(classes))
	for _, c := range classes {
		out = append(out, models.Option{ID: c.ID, Name: c.ClassName})
	}
	return out, nil
}
