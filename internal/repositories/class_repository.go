package repositories

import (
	"context"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

type ClassRepository interface {
	Create(ctx context.Context, class *models.ClassInfo) error
	GetByID(ctx context.Context, id uint) (*models.ClassInfo, error)

	// FindByNaturalKey looks up the (college, major, class_name) triple
	FindByNaturalKey(ctx context.Context, college, major, className string) (*models.ClassInfo, error)
	// FindForCollegeMajor returns the class only if it belongs to college and major
	FindForCollegeMajor(ctx context.Context, id uint, college, major string) (*models.ClassInfo, error)

	List(ctx context.Context) ([]*models.ClassInfo, error)
	ListByCollegeMajor(ctx context.Context, college, major string) ([]*models.ClassInfo, error)
}
