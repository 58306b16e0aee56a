package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/kconnect-service/internal/auth"
	"github.com/spec-kit/kconnect-service/internal/domain"
	"github.com/spec-kit/kconnect-service/internal/events"
	"github.com/spec-kit/kconnect-service/internal/repository"
	apperrors "github.com/spec-kit/kconnect-service/pkg/util"
)

const (
	minPasswordLength    = 8
	maxNameLength        = 200
	maxDescriptionLength = 2000
)

func requireAdmin(actor auth.Principal) error {
	if err := auth.RequireRole(actor, domain.RoleAdmin); err != nil {
		return auth.AsDomainError(err)
	}
	return nil
}

func requireOwnerOrAdmin(actor auth.Principal, ownerEmail string) error {
	if err := auth.RequireOwnerOrAdmin(actor, ownerEmail); err != nil {
		return auth.AsDomainError(err)
	}
	return nil
}

// mapRepoError converts repository sentinels into transport errors.
func mapRepoError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict(resource+" conflicts with existing data", nil)
	default:
		return err
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"field": "password", "min": minPasswordLength})
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperrors.NewValidationError("password too long", map[string]any{"field": "password", "max": auth.MaxPasswordBytes})
	}
	return nil
}

func requireText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	if len(value) > max {
		return "", apperrors.NewValidationError(field+" too long", map[string]any{"field": field, "max": max})
	}
	return value, nil
}

// emitter publishes domain events. Delivery failures are logged, never
// surfaced to the caller whose write already succeeded.
type emitter struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (e emitter) emit(ctx context.Context, typ events.EventType, resourceID string, actor auth.Principal, payload any) {
	if e.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		ResourceID: resourceID,
		Actor:      events.Actor{ID: actor.SubjectID, Email: actor.Email, Role: actor.Role},
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
	if err := e.dispatcher.Publish(ctx, event); err != nil && e.logger != nil {
		e.logger.Warn("event delivery failed", zap.String("event_type", string(typ)), zap.Error(err))
	}
}
