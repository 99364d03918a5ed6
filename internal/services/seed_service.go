package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/repositories"
)

const demoPassword = "password123"

type demoUser struct {
	name, phone, studentID string
	role                   models.UserRole
}

var demoUsers = []demoUser{
	{name: "张老师", phone: "13800138001", role: models.RoleTeacher},
	{name: "李老师", phone: "13800138002", role: models.RoleTeacher},
	{name: "张三", phone: "13800138003", studentID: "2021001", role: models.RoleStudent},
	{name: "李四", phone: "13800138004", studentID: "2021002", role: models.RoleStudent},
	{name: "王五", phone: "13800138005", studentID: "2021003", role: models.RoleStudent},
}

type seedService struct {
	Deps
}

func NewSeedService(deps Deps) SeedService {
	return &seedService{Deps: deps.withDefaults()}
}

// SeedDemoData creates the demo accounts on an empty database and returns how many were added
func (s *seedService) SeedDemoData(ctx context.Context) (int, error) {
	count, err := s.Repo.User().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		s.Logger.Debug("Skipping demo data, users exist", "count", count)
		return 0, nil
	}

	users := make([]*models.User, 0, len(demoUsers))
	for _, d := range demoUsers {
		u := &models.User{Name: d.name, Phone: d.phone, StudentID: d.studentID, Role: d.role}
		if err := u.SetPassword(demoPassword); err != nil {
			return 0, err
		}
		users = append(users, u)
	}

	err = s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		for _, u := range users {
			if err := tx.User().Create(ctx, u); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed demo users: %w", err)
	}

	s.Logger.Info("Demo data seeded", "users", len(users))
	return len(users), nil
}
