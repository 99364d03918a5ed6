package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/teaching-assistant/internal/cache"
	"github.com/SAP-F-2025/teaching-assistant/internal/repositories"
)

// afterCommit runs fn immediately outside a transaction and after commit inside one
type afterCommit func(fn func())

func runNow(fn func()) { fn() }

// GormRepository implements repositories.Repository on gorm
type GormRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager
	inTx         bool
	onCommit     afterCommit

	user       repositories.UserRepository
	class      repositories.ClassRepository
	assignment repositories.AssignmentRepository
	exam       repositories.ExamRepository
}

type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

func NewGormRepository(config RepositoryConfig) *GormRepository {
	cm := cache.NewCacheManager(config.RedisClient)
	return newBound(config.DB, config.RedisClient, cm, cm, false, runNow)
}

// newBound wires the sub-repositories to db. reads serves cached lookups,
// writes receives invalidations scheduled through onCommit.
func newBound(db *gorm.DB, client *redis.Client, reads, writes *cache.CacheManager, inTx bool, onCommit afterCommit) *GormRepository {
	return &GormRepository{
		db:           db,
		redisClient:  client,
		cacheManager: writes,
		inTx:         inTx,
		onCommit:     onCommit,

		user:       newUserGorm(db, reads, writes, onCommit),
		class:      newClassGorm(db, reads, writes, onCommit),
		assignment: newAssignmentGorm(db),
		exam:       newExamGorm(db),
	}
}

func (r *GormRepository) User() repositories.UserRepository             { return r.user }
func (r *GormRepository) Class() repositories.ClassRepository           { return r.class }
func (r *GormRepository) Assignment() repositories.AssignmentRepository { return r.assignment }
func (r *GormRepository) Exam() repositories.ExamRepository             { return r.exam }

// WithTransaction executes fn within one database transaction
func (r *GormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if r.inTx {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(newBound(tx, r.redisClient, cache.NewCacheManager(nil), r.cacheManager, true, r.onCommit))
		})
	}

	var pending []func()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Reads inside the transaction bypass the cache so uncommitted rows are never cached
		txRepo := newBound(tx, r.redisClient, cache.NewCacheManager(nil), r.cacheManager, true, func(f func()) {
			pending = append(pending, f)
		})
		return fn(txRepo)
	})
	if err != nil {
		return err
	}

	for _, f := range pending {
		f()
	}
	return nil
}

// Ping checks the database and, when configured, the cache
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}
	return nil
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	return nil
}

// wrapErr maps gorm.ErrRecordNotFound onto repositories.ErrNotFound
func wrapErr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// RepositoryManager implements repositories.RepositoryManager
type RepositoryManager struct {
	config     RepositoryConfig
	repository *GormRepository
}

func NewRepositoryManager(config RepositoryConfig) *RepositoryManager {
	return &RepositoryManager{config: config}
}

func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}
	rm.repository = NewGormRepository(rm.config)
	// class rows may have changed while no process was running
	cache.InvalidateClassLists(context.Background(), rm.repository.cacheManager)
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repository
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repository == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repository.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repository == nil {
		return nil
	}
	return rm.repository.Close()
}
