package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/SAP-F-2025/teaching-assistant/internal/repositories"
	"github.com/SAP-F-2025/teaching-assistant/internal/storage"
)

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repoManager repositories.RepositoryManager
	deps        Deps
	store       storage.BlobStore

	// Service instances
	authService       AuthService
	classService      ClassService
	dashboardService  DashboardService
	assignmentService AssignmentService
	examService       ExamService
	profileService    ProfileService
	exportService     ExportService
	seedService       SeedService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager builds services over an initialized repository manager.
// deps.Repo is taken from the manager.
func NewServiceManager(repoManager repositories.RepositoryManager, deps Deps, store storage.BlobStore) ServiceManager {
	return &serviceManager{
		repoManager: repoManager,
		deps:        deps.withDefaults(),
		store:       store,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	repo := sm.repoManager.GetRepository()
	if repo == nil {
		return fmt.Errorf("failed to initialize services: repository not initialized")
	}
	sm.deps.Repo = repo

	sm.authService = NewAuthService(sm.deps)
	sm.classService = NewClassService(sm.deps)
	sm.dashboardService = NewDashboardService(sm.deps)
	sm.assignmentService = NewAssignmentService(sm.deps, sm.store)
	sm.examService = NewExamService(sm.deps)
	sm.profileService = NewProfileService(sm.deps)
	sm.exportService = NewExportService(sm.deps)
	sm.seedService = NewSeedService(sm.deps)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")
	return nil
}

// ready guards every getter; using a service before Initialize is a programming error
func (sm *serviceManager) ready(name string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if !sm.initialized {
		panic(name + " service used before service manager initialized")
	}
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.ready("auth")
	return sm.authService
}

func (sm *serviceManager) Class() ClassService {
	sm.ready("class")
	return sm.classService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.ready("dashboard")
	return sm.dashboardService
}

func (sm *serviceManager) Assignment() AssignmentService {
	sm.ready("assignment")
	return sm.assignmentService
}

func (sm *serviceManager) Exam() ExamService {
	sm.ready("exam")
	return sm.examService
}

func (sm *serviceManager) Profile() ProfileService {
	sm.ready("profile")
	return sm.profileService
}

func (sm *serviceManager) Export() ExportService {
	sm.ready("export")
	return sm.exportService
}

func (sm *serviceManager) Seed() SeedService {
	sm.ready("seed")
	return sm.seedService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}
	if err := sm.repoManager.HealthCheck(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if sm.deps.Events != nil {
		if err := sm.deps.Events.Close(); err != nil {
			sm.deps.Logger.Error("Failed to close event publisher", "error", err)
		}
	}
	if err := sm.repoManager.Shutdown(ctx); err != nil {
		sm.deps.Logger.Error("Failed to shutdown repository manager", "error", err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")
	return nil
}
