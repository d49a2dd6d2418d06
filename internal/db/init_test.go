package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestInitPostgres_ErrorPaths(t *testing.T) {
	cases := []struct {
		name       string
		dsn        string
		wantSubstr string
	}{
		{"invalid DSN", "some=random", "ping postgres"},
		{"unreachable host", "postgres://nobody@127.0.0.1:1/tasks?sslmode=disable&connect_timeout=1", "ping postgres"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := InitPostgres(tc.dsn)
			if err == nil {
				t.Fatalf("InitPostgres(%q) did not return error", tc.dsn)
			}
			if !strings.Contains(err.Error(), tc.wantSubstr) {
				t.Errorf("InitPostgres(%q) error = %q; want substring %q", tc.dsn, err.Error(), tc.wantSubstr)
			}
		})
	}
}

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	dbMock, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	if err := Migrate(context.Background(), dbMock); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	if gotDir != "migrations" {
		t.Errorf("migrations dir = %q; want %q", gotDir, "migrations")
	}

	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) < 2 {
		t.Errorf("expected at least 2 embedded migrations, got %d", len(entries))
	}
}

func TestMigrate_Error(t *testing.T) {
	dbMock, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()
	gooseUp = func(context.Context, *sql.DB, string) error { return errors.New("boom") }

	err = Migrate(context.Background(), dbMock)
	if err == nil || !strings.Contains(err.Error(), "migrate schema") {
		t.Fatalf("expected migrate schema error, got %v", err)
	}
}
