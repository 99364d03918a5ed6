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

type profileService struct {
	Deps
}

func NewProfileService(deps Deps) ProfileService {
	return &profileService{Deps: deps.withDefaults()}
}

// Profile returns the student with the class attached when one is set
func (s *profileService) Profile(ctx context.Context, id Identity) (*models.User, error) {
	if err := id.requireRole(models.RoleStudent); err != nil {
		return nil, err
	}
	user, err := s.Repo.User().GetByID(ctx, id.UserID)
	if err != nil {
		return nil, notFound(err, "user", id.UserID)
	}
	if user.ClassID != nil {
		class, err := s.Repo.Class().GetByID(ctx, *user.ClassID)
		switch {
		case err == nil:
			user.Class = class
		case !errors.Is(err, repositories.ErrNotFound):
			return nil, err
		}
	}
	return user, nil
}

// UpdateProfile finds or creates the class named by the form and moves the student into it
func (s *profileService) UpdateProfile(ctx context.Context, id Identity, form *validator.StudentProfileForm) (*models.User, error) {
	if err := id.requireRole(models.RoleStudent); err != nil {
		return nil, err
	}
	if errs := s.Validator.Struct(form); len(errs) > 0 {
		return nil, errs
	}

	college := strings.TrimSpace(form.College)
	major := strings.TrimSpace(form.Major)
	className := strings.TrimSpace(form.ClassName)
	phone := strings.TrimSpace(form.Phone)

	var errs validator.ValidationErrors
	if !IsKnownMajor(college, major) {
		errs = append(errs, fieldError("major", "专业", "不属于所选学院", major, "college_major")...)
	}
	if !IsKnownClassName(className) {
		errs = append(errs, fieldError("class_name", "班级", "无效的班级", className, "oneof")...)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	var user *models.User
	var createdClass *models.ClassInfo
	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		taken, err := tx.User().ExistsByPhone(ctx, phone, id.UserID)
		if err != nil {
			return err
		}
		if taken {
			return fieldError("phone", "手机号", "手机号已被注册", phone, "unique")
		}

		class, err := tx.Class().FindByNaturalKey(ctx, college, major, className)
		if errors.Is(err, repositories.ErrNotFound) {
			class = &models.ClassInfo{
				College:     college,
				Major:       major,
				ClassName:   className,
				Description: models.DefaultClassDescription(college, major, className),
			}
			if err := tx.Class().Create(ctx, class); err != nil {
				return err
			}
			createdClass = class
		} else if err != nil {
			return err
		}

		user, err = tx.User().GetByID(ctx, id.UserID)
		if err != nil {
			return err
		}
		user.Name = strings.TrimSpace(form.Name)
		user.Phone = phone
		user.StudentID = strings.TrimSpace(form.StudentID)
		user.College = college
		user.Major = major
		user.ClassID = &class.ID
		if err := tx.User().Update(ctx, user); err != nil {
			return err
		}
		user.Class = class
		return nil
	})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, verrs
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.Logger.Info("Student profile updated", "user_id", user.ID, "class_id", *user.ClassID)
	if createdClass != nil {
		s.publish(ctx, events.ClassCreated, createdClass)
	}
	s.publish(ctx, events.ProfileUpdated, map[string]interface{}{
		"user_id":  user.ID,
		"class_id": *user.ClassID,
	})
	return user, nil
}

// UpdateAcademicInfo accepts a class only if it belongs to the chosen college and major
func (s *profileService) UpdateAcademicInfo(ctx context.Context, id Identity, form *validator.StudentInfoForm) (*models.User, error) {
	if err := id.requireRole(models.RoleStudent); err != nil {
		return nil, err
	}
	if errs := s.Validator.Struct(form); len(errs) > 0 {
		return nil, errs
	}

	college := strings.TrimSpace(form.College)
	major := strings.TrimSpace(form.Major)

	var user *models.User
	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		class, err := tx.Class().FindForCollegeMajor(ctx, form.ClassID, college, major)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrClassMismatch
			}
			return err
		}

		user, err = tx.User().GetByID(ctx, id.UserID)
		if err != nil {
			return err
		}
		user.College = college
		user.Major = major
		user.ClassID = &class.ID
		if err := tx.User().Update(ctx, user); err != nil {
			return err
		}
		user.Class = class
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrClassMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update academic info: %w", err)
	}

	s.Logger.Info("Student academic info updated", "user_id", user.ID, "class_id", *user.ClassID)
	s.publish(ctx, events.ProfileUpdated, map[string]interface{}{
		"user_id":  user.ID,
		"class_id": *user.ClassID,
	})
	return user, nil
}
