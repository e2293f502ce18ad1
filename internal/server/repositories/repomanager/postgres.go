// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors, transactions and database
// migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/lootledger/internal/dbx"
	"github.com/dmitrijs2005/lootledger/internal/server/migrations"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/drops"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/inventory"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/items"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/trades"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// txOptions: contended writes are guarded single-row updates or read under
// FOR UPDATE, and multi-row reads use one statement, so
// READ COMMITTED is enough.
var txOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// postgresRepositories binds every repository to the same DBTX.
type postgresRepositories struct {
	db dbx.DBTX
}

func (r postgresRepositories) Users() users.Repository         { return users.NewPostgresRepository(r.db) }
func (r postgresRepositories) Items() items.Repository         { return items.NewPostgresRepository(r.db) }
func (r postgresRepositories) Inventory() inventory.Repository { return inventory.NewPostgresRepository(r.db) }
func (r postgresRepositories) Drops() drops.Repository         { return drops.NewPostgresRepository(r.db) }
func (r postgresRepositories) Ledger() ledger.Repository       { return ledger.NewPostgresRepository(r.db) }
func (r postgresRepositories) Trades() trades.Repository       { return trades.NewPostgresRepository(r.db) }

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	db *sql.DB
}

func (m *PostgresRepositoryManager) Repositories() Repositories {
	return postgresRepositories{db: m.db}
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return dbx.WithTx(ctx, m.db, txOptions, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresRepositories{db: tx})
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the managed database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// NewPostgresRepositoryManager wraps an already opened database handle.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

// OpenPostgres opens a pgx-backed pool for dsn and checks connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}
