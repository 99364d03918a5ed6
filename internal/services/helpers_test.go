package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/teaching-assistant/internal/config"
	"github.com/SAP-F-2025/teaching-assistant/internal/events"
	"github.com/SAP-F-2025/teaching-assistant/internal/models"
	"github.com/SAP-F-2025/teaching-assistant/internal/repositories"
	"github.com/SAP-F-2025/teaching-assistant/internal/repositories/gormrepo"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
	"github.com/SAP-F-2025/teaching-assistant/pkg"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	db     *gorm.DB
	repo   repositories.Repository
	events *events.MockEventPublisher
	deps   Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := pkg.OpenDatabase(config.DriverSQLite, ":memory:", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := gormrepo.NewGormRepository(gormrepo.RepositoryConfig{DB: db})
	pub := events.NewMockEventPublisher(log)
	return &testEnv{
		db:     db,
		repo:   repo,
		events: pub,
		deps: Deps{
			Repo:      repo,
			Logger:    log,
			Validator: validator.New(),
			Events:    pub,
			Location:  time.UTC,
			Now:       func() time.Time { return testNow },
		},
	}
}

func (e *testEnv) user(t *testing.T, name, phone string, role models.UserRole, classID *uint) *models.User {
	t.Helper()
	u := &models.User{Name: name, Phone: phone, Role: role, ClassID: classID}
	require.NoError(t, u.SetPassword("password123"))
	require.NoError(t, e.repo.User().Create(context.Background(), u))
	return u
}

func (e *testEnv) teacher(t *testing.T, phone string) Identity {
	t.Helper()
	return IdentityFromUser(e.user(t, "张老师", phone, models.RoleTeacher, nil))
}

func (e *testEnv) student(t *testing.T, phone string, classID uint) Identity {
	t.Helper()
	return IdentityFromUser(e.user(t, "张三", phone, models.RoleStudent, &classID))
}

func (e *testEnv) class(t *testing.T, college, major, name string) *models.ClassInfo {
	t.Helper()
	c := &models.ClassInfo{College: college, Major: major, ClassName: name}
	require.NoError(t, e.repo.Class().Create(context.Background(), c))
	return c
}

// failInserts makes every insert into table fail with errDiskFull
func (e *testEnv) failInserts(t *testing.T, table string) {
	t.Helper()
	err := e.db.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errDiskFull)
		}
	})
	require.NoError(t, err)
}

var errDiskFull = errors.New("disk I/O error")
