package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/teaching-assistant/internal/cache"
	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

type userGorm struct {
	db       *gorm.DB
	reads    *cache.CacheManager
	writes   *cache.CacheManager
	onCommit afterCommit
}

func newUserGorm(db *gorm.DB, reads, writes *cache.CacheManager, onCommit afterCommit) *userGorm {
	return &userGorm{db: db, reads: reads, writes: writes, onCommit: onCommit}
}

func (u *userGorm) Create(ctx context.Context, user *models.User) error {
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update writes the profile columns only; role and password hash are left untouched
func (u *userGorm) Update(ctx context.Context, user *models.User) error {
	err := u.db.WithContext(ctx).
		Model(user).
		Select("name", "phone", "student_id", "college", "major", "class_id", "updated_at").
		Updates(user).Error
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}

	id := user.ID
	u.onCommit(func() { cache.InvalidateUserCache(context.WithoutCancel(ctx), u.writes, id) })
	return nil
}

// GetByID is cached; the cached copy carries no password hash
func (u *userGorm) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := u.reads.User.CacheOrExecute(ctx, cache.UserKey(id), &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		if err := u.db.WithContext(ctx).First(&dbUser, id).Error; err != nil {
			return nil, wrapErr(err, fmt.Sprintf("failed to get user %d", id))
		}
		return &dbUser, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *userGorm) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, wrapErr(err, "failed to get user by phone")
	}
	return &user, nil
}

func (u *userGorm) ExistsByPhone(ctx context.Context, phone string, excludeID uint) (bool, error) {
	var count int64
	q := u.db.WithContext(ctx).Model(&models.User{}).Where("phone = ?", phone)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check phone: %w", err)
	}
	return count > 0, nil
}

func (u *userGorm) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := u.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (u *userGorm) ListStudents(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := u.db.WithContext(ctx).
		Preload("Class").
		Where("role = ?", models.RoleStudent).
		Order("student_id ASC").Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return users, nil
}

func (u *userGorm) ListStudentsByClass(ctx context.Context, classID uint) ([]*models.User, error) {
	var users []*models.User
	err := u.db.WithContext(ctx).
		Where("role = ? AND class_id = ?", models.RoleStudent, classID).
		Order("student_id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list students of class %d: %w", classID, err)
	}
	return users, nil
}
