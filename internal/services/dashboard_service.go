package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

type dashboardService struct {
	Deps
	profile ProfileService
}

func NewDashboardService(deps Deps) DashboardService {
	deps = deps.withDefaults()
	return &dashboardService{Deps: deps, profile: NewProfileService(deps)}
}

func (s *dashboardService) Student(ctx context.Context, id Identity) (*StudentDashboard, error) {
	student, err := s.profile.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	dash := &StudentDashboard{
		Student:     student,
		Assignments: []*models.Assignment{},
		Exams:       []*models.Exam{},
	}
	if student.ClassID == nil {
		return dash, nil
	}

	if dash.Assignments, err = s.Repo.Assignment().ListByClass(ctx, *student.ClassID); err != nil {
		return nil, fmt.Errorf("failed to load dashboard assignments: %w", err)
	}
	if dash.Exams, err = s.Repo.Exam().ListByClass(ctx, *student.ClassID); err != nil {
		return nil, fmt.Errorf("failed to load dashboard exams: %w", err)
	}
	return dash, nil
}

func (s *dashboardService) Teacher(ctx context.Context, id Identity) (*TeacherDashboard, error) {
	if err := id.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}

	var (
		dash TeacherDashboard
		err  error
	)
	if dash.Classes, err = s.Repo.Class().List(ctx); err != nil {
		return nil, fmt.Errorf("failed to load dashboard classes: %w", err)
	}
	if dash.Assignments, err = s.Repo.Assignment().ListByTeacher(ctx, id.UserID); err != nil {
		return nil, fmt.Errorf("failed to load dashboard assignments: %w", err)
	}
	if dash.Exams, err = s.Repo.Exam().ListByTeacher(ctx, id.UserID); err != nil {
		return nil, fmt.Errorf("failed to load dashboard exams: %w", err)
	}
	return &dash, nil
}
