// Package testutil provides a shared PostgreSQL container for integration
// tests.
//
// One container is started per test binary. Every call to DSN creates a
// fresh database cloned from a template that holds the fixture schema in
// testdata/schema.sql, so tests never see each other's writes.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

//go:embed testdata/schema.sql
var schemaSQL string

const templateName = "hugsql_template"

var (
	singletonOnce sync.Once
	singletonDSN  string
	singletonErr  error

	templateOnce sync.Once
	templateErr  error
)

// ensureSingleton lazily starts the PostgreSQL container.
func ensureSingleton() (string, error) {
	singletonOnce.Do(func() {
		ctx := context.Background()

		container, err := postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			singletonErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}

		// Container is not stored - ryuk will handle cleanup automatically
		singletonDSN = dsn
	})

	return singletonDSN, singletonErr
}

// ensureTemplate creates the template database with the fixture schema.
func ensureTemplate(adminDSN string) error {
	templateOnce.Do(func() {
		if err := exec(adminDSN, "CREATE DATABASE "+templateName); err != nil {
			templateErr = fmt.Errorf("failed to create template database: %w", err)
			return
		}
		if err := exec(replaceDBName(adminDSN, templateName), schemaSQL); err != nil {
			templateErr = fmt.Errorf("failed to load fixture schema: %w", err)
			return
		}
		// Non-fatal: copying works without the template flag
		_ = exec(adminDSN, fmt.Sprintf("ALTER DATABASE %s WITH is_template = true", templateName))
	})
	return templateErr
}

// DSN returns the connection string of a new database holding the fixture
// schema. The database is dropped when the test completes.
func DSN(tb testing.TB) string {
	tb.Helper()

	adminDSN, err := ensureSingleton()
	require.NoError(tb, err, "failed to start PostgreSQL container")
	require.NoError(tb, ensureTemplate(adminDSN), "failed to create template database")

	name := uniqueDBName("test")
	err = exec(adminDSN, fmt.Sprintf("CREATE DATABASE %s WITH TEMPLATE %s", name, templateName))
	require.NoError(tb, err, "failed to create test database from template")

	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = execContext(ctx, adminDSN, fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", name))
	})

	return replaceDBName(adminDSN, name)
}

func exec(dsn, stmt string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return execContext(ctx, dsn, stmt)
}

func execContext(ctx context.Context, dsn, stmt string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, stmt)
	return err
}

func uniqueDBName(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

// replaceDBName swaps the database of a postgres:// URL.
func replaceDBName(dsn, name string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	u.Path = "/" + name
	return u.String()
}
