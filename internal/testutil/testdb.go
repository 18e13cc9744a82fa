package testutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"boltalka-bot/internal/config"
	"boltalka-bot/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const initMigration = "000001_init.up.sql"

// OpenTestStore returns a Store bound to a fresh schema with the init
// migration applied. The schema is dropped when the test ends. Tests are
// skipped when TEST_POSTGRES_DSN is not set.
func OpenTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	ctx := context.Background()
	dsn := cfg.TestPostgresDSN
	schema := pgx.Identifier{fmt.Sprintf("test_%d", time.Now().UnixNano())}

	if err := execOnce(ctx, dsn, "CREATE SCHEMA "+schema.Sanitize()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_ = execOnce(context.Background(), dsn, "DROP SCHEMA "+schema.Sanitize()+" CASCADE")
	})

	st, err := store.New(withSearchPath(dsn, schema[0]))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)

	ddl, err := readInitMigration()
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := st.Pool.Exec(ctx, ddl); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return st
}

func execOnce(ctx context.Context, dsn, sql string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	_, err = pool.Exec(ctx, sql)
	return err
}

// readInitMigration walks up from the working directory until it finds
// migrations/, so it works from any package's test binary.
func readInitMigration() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		p := filepath.Join(dir, "migrations", initMigration)
		if b, err := os.ReadFile(p); err == nil {
			return string(b), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found", initMigration)
		}
		dir = parent
	}
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}
