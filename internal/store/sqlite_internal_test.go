package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"

	"appointment-booking-api/internal/model"
)

func TestForeignKeyViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"foreign key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, true},
		{"restrict action", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintTrigger}, true},
		{"wrapped", fmt.Errorf("exec: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintTrigger}), true},
		{"unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, false},
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := foreignKeyViolation(tt.err); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSQLiteRestrictOnDelete(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "restrict.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	u := &model.User{ID: "u1", Email: "u1@example.com", Role: model.RoleClient}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	a := &model.Appointment{ID: "a1", Title: "t", SlotTime: time.Date(2031, 1, 1, 9, 0, 0, 0, time.UTC), Status: model.StatusBooked, UserID: "u1"}
	if err := db.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	// the raw statement fails with the RESTRICT code
	_, raw := db.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, "u1")
	if !foreignKeyViolation(raw) {
		t.Fatalf("raw delete: %v (extended %d)", raw, sqliteCode(raw))
	}

	if err := db.DeleteUser(ctx, "u1"); !errors.Is(err, ErrReferenced) {
		t.Errorf("expected ErrReferenced, got %v", err)
	}
	if _, err := db.GetUser(ctx, "u1"); err != nil {
		t.Errorf("user should survive: %v", err)
	}
}
