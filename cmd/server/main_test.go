package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"appointment-booking-api/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "appointment-booking-api dev") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestHashKey(t *testing.T) {
	out, err := run(t, "hash-key", "s3cret")
	if err != nil {
		t.Fatalf("hash-key: %v", err)
	}
	hash := strings.TrimSpace(out)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("output is not a hash of the key: %v", err)
	}

	if _, err := run(t, "hash-key"); err == nil {
		t.Error("expected error without an argument")
	}
}

func TestMigrateSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_PATH", path)
	t.Setenv("API_KEY", "k")

	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "migrations applied (sqlite)") {
		t.Errorf("unexpected output %q", out)
	}

	repo, release, err := openStore(context.Background(), config.DatabaseConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer release()
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpenStoreUnreachablePostgres(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := openStore(ctx, config.DatabaseConfig{Driver: "postgres", URL: "postgres://u:p@127.0.0.1:1/db"}); err == nil {
		t.Error("expected error")
	}
}
