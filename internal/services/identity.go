package services

import (
	"fmt"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

// Identity is the authenticated caller, passed explicitly into every service call
type Identity struct {
	UserID  uint
	Name    string
	Role    models.UserRole
	ClassID *uint
	College string
	Major   string
}

func IdentityFromUser(u *models.User) Identity {
	return Identity{
		UserID:  u.ID,
		Name:    u.Name,
		Role:    u.Role,
		ClassID: u.ClassID,
		College: u.College,
		Major:   u.Major,
	}
}

func (i Identity) requireRole(role models.UserRole) error {
	if i.UserID == 0 || i.Role != role {
		return fmt.Errorf("%w: %s required", ErrForbidden, role)
	}
	return nil
}

// inClass reports whether a student belongs to classID
func (i Identity) inClass(classID uint) bool {
	return i.ClassID != nil && *i.ClassID == classID
}
