package repositories

import (
	"context"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)

	// ExistsByPhone ignores the user with excludeID, 0 excludes nobody
	ExistsByPhone(ctx context.Context, phone string, excludeID uint) (bool, error)
	Count(ctx context.Context) (int64, error)

	ListStudents(ctx context.Context) ([]*models.User, error)
	ListStudentsByClass(ctx context.Context, classID uint) ([]*models.User, error)
}
