package store

import (
	"context"
	"fmt"
	"time"

	"appointment-booking-api/internal/model"
)

const appointmentCols = `id, title, slot_time, status, user_id, created_at, updated_at`

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO appointments (id, title, slot_time, status, user_id)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING created_at, updated_at`,
		a.ID, a.Title, a.SlotTime, string(a.Status), a.UserID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		// user vanished between the lookup and the insert
		if pgCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("user %s: %w", a.UserID, ErrNotFound)
		}
		return err
	}
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	return nil
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if err != nil {
		return nil, noRows(err)
	}
	return a, nil
}

// CancelAppointment flips a booked appointment to cancelled. changed is false
// when the appointment was already cancelled.
func (s *Store) CancelAppointment(ctx context.Context, id string) (changed bool, err error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET status = 'cancelled', updated_at = NOW()
		 WHERE id = $1 AND status = 'booked'`, id,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM appointments WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

// ListAppointmentsBetween returns appointments with from <= slot_time <= to.
func (s *Store) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+appointmentCols+`
		 FROM appointments
		 WHERE slot_time >= $1 AND slot_time <= $2
		 ORDER BY slot_time, id`, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner) (*model.Appointment, error) {
	a := &model.Appointment{}
	var status string
	if err := row.Scan(&a.ID, &a.Title, &a.SlotTime, &status, &a.UserID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = model.Status(status)
	a.SlotTime = a.SlotTime.UTC()
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	return a, nil
}
