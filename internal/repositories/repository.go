package repositories

import "context"

// Repository aggregates the per-entity repositories
type Repository interface {
	User() UserRepository
	Class() ClassRepository
	Assignment() AssignmentRepository
	Exam() ExamRepository

	// WithTransaction runs fn against repositories bound to one transaction.
	// Cache invalidations requested inside fn run only after commit.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns the repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
