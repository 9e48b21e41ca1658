// Package services orchestrates writes across the Entity Store and AMQP.
// Publishing an entity event is best effort: the store write is the source of
// truth and a broker outage never fails the request.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"proyeksi/internal/core"
	"proyeksi/internal/store"
)

// Entity kinds used in published events.
const (
	KindProject = "project"
	KindTask    = "task"
	KindExpense = "expense"
	KindUser    = "user"
)

// EventPublisher is the slice of the AMQP client the service needs.
type EventPublisher interface {
	PublishEntityEvent(ctx context.Context, kind, id, action string) error
}

// EntityService wraps an Entity Store and announces every successful write on
// the event bus. A nil publisher disables events entirely.
type EntityService struct {
	store.EntityStore
	publisher EventPublisher
}

func NewEntityService(st store.EntityStore, publisher EventPublisher) *EntityService {
	return &EntityService{EntityStore: st, publisher: publisher}
}

func (s *EntityService) CreateProject(ctx context.Context, p core.Project) error {
	if err := s.EntityStore.CreateProject(ctx, p); err != nil {
		return err
	}
	s.publish(ctx, KindProject, p.ID, "created")
	return nil
}

func (s *EntityService) UpdateProject(ctx context.Context, p core.Project) error {
	if err := s.EntityStore.UpdateProject(ctx, p); err != nil {
		return err
	}
	s.publish(ctx, KindProject, p.ID, "updated")
	return nil
}

func (s *EntityService) DeleteProject(ctx context.Context, id string) error {
	if err := s.EntityStore.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, KindProject, id, "deleted")
	return nil
}

func (s *EntityService) CreateTask(ctx context.Context, t core.Task) error {
	if err := s.EntityStore.CreateTask(ctx, t); err != nil {
		return err
	}
	s.publish(ctx, KindTask, t.ID, "created")
	return nil
}

func (s *EntityService) UpdateTask(ctx context.Context, t core.Task) error {
	if err := s.EntityStore.UpdateTask(ctx, t); err != nil {
		return err
	}
	s.publish(ctx, KindTask, t.ID, "updated")
	return nil
}

func (s *EntityService) DeleteTask(ctx context.Context, id string) error {
	if err := s.EntityStore.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, KindTask, id, "deleted")
	return nil
}

func (s *EntityService) CreateExpense(ctx context.Context, e core.Expense) error {
	if err := s.EntityStore.CreateExpense(ctx, e); err != nil {
		return err
	}
	s.publish(ctx, KindExpense, e.ID, "created")
	return nil
}

func (s *EntityService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := s.EntityStore.UpdateExpense(ctx, e); err != nil {
		return err
	}
	s.publish(ctx, KindExpense, e.ID, "updated")
	return nil
}

func (s *EntityService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.EntityStore.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, KindExpense, id, "deleted")
	return nil
}

func (s *EntityService) CreateUser(ctx context.Context, u core.User) error {
	if err := s.EntityStore.CreateUser(ctx, u); err != nil {
		return err
	}
	s.publish(ctx, KindUser, u.ID, "created")
	return nil
}

func (s *EntityService) UpdateUser(ctx context.Context, u core.User) error {
	if err := s.EntityStore.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.publish(ctx, KindUser, u.ID, "updated")
	return nil
}

func (s *EntityService) DeleteUser(ctx context.Context, id string) error {
	if err := s.EntityStore.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, KindUser, id, "deleted")
	return nil
}

func (s *EntityService) publish(ctx context.Context, kind, id, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntityEvent(ctx, kind, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entity event",
			"kind", kind, "id", id, "action", action, "error", err)
	}
}

// Close shuts down the underlying store and publisher when they own
// resources.
func (s *EntityService) Close() error {
	var errs []error

	if c, ok := s.EntityStore.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close entity service: %v", errs)
	}
	return nil
}
