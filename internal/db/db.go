// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/toeirei/keymaster-knownhosts/internal/logging"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// Store is an open audit database.
type Store struct {
	bun    *bun.DB
	dbType string
}

// driverFor maps a configured database type to its database/sql driver.
func driverFor(dbType string) (string, error) {
	switch dbType {
	case "sqlite":
		return "sqlite", nil
	case "postgres":
		// The pgx stdlib registers driver name "pgx".
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported database type: '%s'", dbType)
	}
}

// createBunDB wraps sqlDB with the Bun dialect for dbType.
func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// Open connects to the audit database and creates the audit_log table if it
// does not exist yet.
func Open(ctx context.Context, dbType, dsn string) (*Store, error) {
	driverName, err := driverFor(dbType)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(2)
	if dbType == "sqlite" && (dsn == ":memory:" || dsn == "file::memory:") {
		// In-memory SQLite must stay on one connection; every new connection
		// would see a fresh, empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	sqlDB.SetConnMaxLifetime(time.Minute)

	s := &Store{bun: createBunDB(sqlDB, dbType), dbType: dbType}
	if err := s.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to prepare audit schema: %w", err)
	}
	dbLogf("db: opened %s audit store in %s", driverName, time.Since(start))
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.bun.NewCreateTable().
		Model((*AuditLogModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.bun.Close()
}

func dbLogf(format string, v ...any) {
	logging.Debugf(format, v...)
}
