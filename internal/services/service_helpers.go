package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/teaching-assistant/internal/events"
	"github.com/SAP-F-2025/teaching-assistant/internal/repositories"
	"github.com/SAP-F-2025/teaching-assistant/internal/validator"
)

// Deps are the collaborators shared by every service
type Deps struct {
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator
	Events    events.EventPublisher
	// Location parses form timestamps; nil means time.Local
	Location *time.Location
	// Now is the clock; nil means time.Now
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// publish sends an event after the caller's transaction committed.
// Publishing failures are logged and never fail the request.
func (d Deps) publish(ctx context.Context, eventType string, data interface{}) {
	if d.Events == nil {
		return
	}
	if err := d.Events.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		d.Logger.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}

// notFound converts a repository miss into ErrNotFound, other errors pass through
func notFound(err error, what string, id uint) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s %d: %w", what, id, err)
}

func fieldError(field, label, message string, value interface{}, rule string) validator.ValidationErrors {
	return validator.ValidationErrors{{
		Field:   field,
		Label:   label,
		Message: message,
		Value:   value,
		Rule:    rule,
	}}
}

func ptr[T any](v T) *T { return &v }
