package repository

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// newPostgresTestPool connects to TASKS_TEST_POSTGRES_DSN with a fresh
// schema on the search path. The schema is dropped when the test ends.
func newPostgresTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TASKS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TASKS_TEST_POSTGRES_DSN is not set")
	}
	ctx := context.Background()

	schema := "tasks_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	admin, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer admin.Close(ctx)
	if _, err = admin.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("CREATE SCHEMA: %v", err)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	poolCfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
		conn, err := pgx.Connect(context.Background(), dsn)
		if err != nil {
			t.Logf("Connect for cleanup: %v", err)
			return
		}
		defer conn.Close(context.Background())
		if _, err := conn.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE"); err != nil {
			t.Logf("DROP SCHEMA: %v", err)
		}
	})
	return pool
}

func TestPostgresTaskRepository_Lifecycle(t *testing.T) {
	pool := newPostgresTestPool(t)
	r := NewPostgresTaskRepository(zerolog.Nop(), pool)
	if err := r.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	testTaskLifecycle(t, r)
}

func TestPostgresUserDirectory(t *testing.T) {
	pool := newPostgresTestPool(t)
	ctx := context.Background()
	d := NewPostgresUserDirectory(zerolog.Nop(), pool)

	if err := d.CheckSchema(ctx); !errors.Is(err, ErrUsersTableMissing) {
		t.Fatalf("CheckSchema without table: got %v, want ErrUsersTableMissing", err)
	}

	_, err := pool.Exec(ctx, `CREATE TABLE users (
    id       TEXT PRIMARY KEY,
    name     TEXT NOT NULL,
    email    TEXT NOT NULL,
    password TEXT NOT NULL
)`)
	if err != nil {
		t.Fatalf("CREATE TABLE users: %v", err)
	}
	for _, u := range directoryUsers {
		_, err = pool.Exec(ctx, `INSERT INTO users (id, name, email, password) VALUES ($1, $2, $3, 'hash')`, u.ID, u.Name, u.Email)
		if err != nil {
			t.Fatalf("INSERT user %s: %v", u.ID, err)
		}
	}

	if err := d.CheckSchema(ctx); err != nil {
		t.Fatalf("CheckSchema: %v", err)
	}
	testUserListing(t, d)
}
