package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"appointment-booking-api/internal/model"
)

// SQLite is a single-file store for development and tests. It keeps the same
// semantics as the postgres Store; times are stored as UTC unix microseconds.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database file at path with
// foreign keys enforced.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Migrate(ctx context.Context) error {
	files, err := migrationFiles("sqlite")
	if err != nil {
		return err
	}
	for _, f := range files {
		b, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
	}
	return nil
}

func (s *SQLite) CreateUser(ctx context.Context, u *model.User) error {
	created := nowUTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, role, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Email, string(u.Role), created.UnixMicro(),
	)
	if err != nil {
		if sqliteCode(err) == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("email %q: %w", u.Email, ErrConflict)
		}
		return err
	}
	u.CreatedAt = created
	return nil
}

func (s *SQLite) GetUser(ctx context.Context, id string) (*model.User, error) {
	u := &model.User{}
	var role string
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, role, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &role, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	u.CreatedAt = time.UnixMicro(created).UTC()
	return u, nil
}

func (s *SQLite) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		if foreignKeyViolation(err) {
			return fmt.Errorf("user %s: %w", id, ErrReferenced)
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	now := nowUTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO appointments (id, title, slot_time, status, user_id, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)`,
		a.ID, a.Title, a.SlotTime.UnixMicro(), string(a.Status), a.UserID, now.UnixMicro(), now.UnixMicro(),
	)
	if err != nil {
		if foreignKeyViolation(err) {
			return fmt.Errorf("user %s: %w", a.UserID, ErrNotFound)
		}
		return err
	}
	a.CreatedAt, a.UpdatedAt = now, now
	return nil
}

func (s *SQLite) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = ?`, id)
	a, err := scanSQLiteAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *SQLite) CancelAppointment(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET status = 'cancelled', updated_at = ?
		 WHERE id = ? AND status = 'booked'`, nowUTC().UnixMicro(), id,
	)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM appointments WHERE id = ?)`, id,
	).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *SQLite) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentCols+`
		 FROM appointments
		 WHERE slot_time >= ? AND slot_time <= ?
		 ORDER BY slot_time, id`, from.UnixMicro(), to.UnixMicro(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanSQLiteAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanSQLiteAppointment(row scanner) (*model.Appointment, error) {
	a := &model.Appointment{}
	var status string
	var slot, created, updated int64
	if err := row.Scan(&a.ID, &a.Title, &slot, &status, &a.UserID, &created, &updated); err != nil {
		return nil, err
	}
	a.Status = model.Status(status)
	a.SlotTime = time.UnixMicro(slot).UTC()
	a.CreatedAt = time.UnixMicro(created).UTC()
	a.UpdatedAt = time.UnixMicro(updated).UTC()
	return a, nil
}

func sqliteCode(err error) sqlite3.ErrNoExtended {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode
	}
	return 0
}

// foreignKeyViolation reports a failed FK check. sqlite raises RESTRICT
// actions as SQLITE_CONSTRAINT_TRIGGER rather than _FOREIGNKEY.
func foreignKeyViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) || se.Code != sqlite3.ErrConstraint {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintForeignKey || se.ExtendedCode == sqlite3.ErrConstraintTrigger
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
