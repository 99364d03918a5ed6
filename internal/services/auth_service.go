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

type authService struct {
	Deps
}

func NewAuthService(deps Deps) AuthService {
	return &authService{Deps: deps.withDefaults()}
}

func (s *authService) Register(ctx context.Context, form *validator.RegisterForm) (*models.User, error) {
	if errs := s.Validator.Struct(form); len(errs) > 0 {
		return nil, errs
	}
	role, err := models.ParseRole(form.Role)
	if err != nil {
		return nil, fieldError("role", "角色", "无效的角色", form.Role, "oneof")
	}

	user := &models.User{
		Name:  strings.TrimSpace(form.Name),
		Phone: strings.TrimSpace(form.Phone),
		Role:  role,
	}
	if err := user.SetPassword(form.Password); err != nil {
		return nil, err
	}

	err = s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		exists, err := tx.User().ExistsByPhone(ctx, user.Phone, 0)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicatePhone
		}
		return tx.User().Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicatePhone) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.Logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	s.publish(ctx, events.UserRegistered, map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, form *validator.LoginForm) (*models.User, error) {
	if errs := s.Validator.Struct(form); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.Repo.User().GetByPhone(ctx, strings.TrimSpace(form.Phone))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.CheckPassword(form.Password) {
		s.Logger.Warn("Login rejected", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user", userID)
	}
	return user, nil
}
