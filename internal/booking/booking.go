// Package booking holds the appointment lifecycle and user management rules.
//
// Nothing here emits notifications: callers broadcast after a successful
// mutation, so the rules can be exercised against a store alone.
package booking

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/store"
)

// ErrInvalid marks malformed input.
var ErrInvalid = errors.New("invalid input")

// Repository is the persistence contract; store.Store and store.SQLite satisfy it.
type Repository interface {
	Ping(ctx context.Context) error
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, id string) (changed bool, err error)
	ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) CreateUser(ctx context.Context, email string, role model.Role) (*model.User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, "<> ") {
		return nil, fmt.Errorf("email %q: %w", email, ErrInvalid)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, ErrInvalid)
	}

	u := &model.User{ID: uuid.New().String(), Email: email, Role: role}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser fails with store.ErrReferenced while appointments point at the user.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("user id: %w", ErrInvalid)
	}
	return s.repo.DeleteUser(ctx, id)
}

// CreateAppointment books a slot for an existing user.
func (s *Service) CreateAppointment(ctx context.Context, title string, slot time.Time, userID string) (*model.Appointment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title required: %w", ErrInvalid)
	}
	if slot.IsZero() {
		return nil, fmt.Errorf("slot_time required: %w", ErrInvalid)
	}
	if userID == "" {
		return nil, fmt.Errorf("user_id required: %w", ErrInvalid)
	}

	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
		}
		return nil, err
	}

	a := &model.Appointment{
		ID:       uuid.New().String(),
		Title:    title,
		SlotTime: NormalizeSlot(slot),
		Status:   model.StatusBooked,
		UserID:   userID,
	}
	if err := s.repo.CreateAppointment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("appointment %s: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return a, nil
}

// CancelAppointment moves a booked appointment to cancelled. Cancelling an
// already cancelled appointment succeeds with changed=false.
func (s *Service) CancelAppointment(ctx context.Context, id string) (a *model.Appointment, changed bool, err error) {
	changed, err = s.repo.CancelAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, fmt.Errorf("appointment %s: %w", id, store.ErrNotFound)
		}
		return nil, false, err
	}
	a, err = s.GetAppointment(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return a, changed, nil
}

// ListByDate returns appointments whose slot falls on the given UTC calendar day.
func (s *Service) ListByDate(ctx context.Context, day time.Time) ([]model.Appointment, error) {
	from, to := DayBounds(day)
	return s.repo.ListAppointmentsBetween(ctx, from, to)
}

// DayBounds returns the first and last representable instant of day in UTC,
// both inclusive, at microsecond resolution.
func DayBounds(day time.Time) (from, to time.Time) {
	y, m, d := day.Date()
	from = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	to = from.Add(24*time.Hour - time.Microsecond)
	return from, to
}

// NormalizeSlot stores slots in UTC at microsecond resolution, matching the
// precision of a postgres timestamp.
func NormalizeSlot(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
