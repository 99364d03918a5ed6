package models

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
)

// ParseRole accepts only the two known roles
func ParseRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleTeacher:
		return RoleTeacher, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Label is the user-facing name of the role
func (r UserRole) Label() string {
	switch r {
	case RoleStudent:
		return "学生"
	case RoleTeacher:
		return "教师"
	}
	return string(r)
}

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Name         string   `json:"name" gorm:"not null;size:64"`
	Phone        string   `json:"phone" gorm:"uniqueIndex;not null;size:20"`
	PasswordHash string   `json:"-" gorm:"size:128;not null"`
	Role         UserRole `json:"role" gorm:"size:10;not null;index"`

	// Student profile, denormalized from ClassInfo
	StudentID string `json:"student_id" gorm:"size:20;index"`
	College   string `json:"college" gorm:"size:64"`
	Major     string `json:"major" gorm:"size:64"`
	ClassID   *uint  `json:"class_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Class *ClassInfo `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

func (User) TableName() string {
	return "users"
}

// SetPassword replaces the stored hash; the plaintext is never kept
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}
