package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/teaching-assistant/internal/cache"
	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

type classGorm struct {
	db       *gorm.DB
	reads    *cache.CacheManager
	writes   *cache.CacheManager
	onCommit afterCommit
}

func newClassGorm(db *gorm.DB, reads, writes *cache.CacheManager, onCommit afterCommit) *classGorm {
	return &classGorm{db: db, reads: reads, writes: writes, onCommit: onCommit}
}

func (c *classGorm) Create(ctx context.Context, class *models.ClassInfo) error {
	if err := c.db.WithContext(ctx).Create(class).Error; err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}

	college, major := class.College, class.Major
	c.onCommit(func() { cache.InvalidateClassCache(context.WithoutCancel(ctx), c.writes, college, major) })
	return nil
}

func (c *classGorm) GetByID(ctx context.Context, id uint) (*models.ClassInfo, error) {
	var class models.ClassInfo
	if err := c.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return nil, wrapErr(err, fmt.Sprintf("failed to get class %d", id))
	}
	return &class, nil
}

// FindByNaturalKey returns the oldest row when duplicates exist
func (c *classGorm) FindByNaturalKey(ctx context.Context, college, major, className string) (*models.ClassInfo, error) {
	var class models.ClassInfo
	err := c.db.WithContext(ctx).
		Where("college = ? AND major = ? AND class_name = ?", college, major, className).
		Order("id ASC").
		First(&class).Error
	if err != nil {
		return nil, wrapErr(err, "failed to find class")
	}
	return &class, nil
}

func (c *classGorm) FindForCollegeMajor(ctx context.Context, id uint, college, major string) (*models.ClassInfo, error) {
	var class models.ClassInfo
	err := c.db.WithContext(ctx).
		Where("id = ? AND college = ? AND major = ?", id, college, major).
		First(&class).Error
	if err != nil {
		return nil, wrapErr(err, fmt.Sprintf("failed to match class %d", id))
	}
	return &class, nil
}

func (c *classGorm) List(ctx context.Context) ([]*models.ClassInfo, error) {
	var classes []*models.ClassInfo
	err := c.reads.Class.CacheOrExecute(ctx, cache.ClassListAllKey, &classes, cache.ClassCacheConfig.TTL, func() (interface{}, error) {
		var rows []*models.ClassInfo
		if err := c.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list classes: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return classes, nil
}

func (c *classGorm) ListByCollegeMajor(ctx context.Context, college, major string) ([]*models.ClassInfo, error) {
	var classes []*models.ClassInfo
	key := cache.ClassListKey(college, major)
	err := c.reads.Class.CacheOrExecute(ctx, key, &classes, cache.ClassCacheConfig.TTL, func() (interface{}, error) {
		var rows []*models.ClassInfo
		err := c.db.WithContext(ctx).
			Where("college = ? AND major = ?", college, major).
			Order("id ASC").
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list classes for %s/%s: %w", college, major, err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return classes, nil
}
