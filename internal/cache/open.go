package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/winelabel/internal/common"
)

// Open builds the store selected by cfg.Driver. "none" returns a nil Store,
// which the pipeline treats as caching disabled.
func Open(ctx context.Context, cfg common.CacheConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryStore(cfg.TTL), nil
	case "sqlite":
		return openSQLite(ctx, cfg, logger)
	case "postgres":
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, common.NewAppError("CONFIG_ERROR", "unknown cache driver "+cfg.Driver, common.ErrInvalidInput)
	}
}

func openSQLite(ctx context.Context, cfg common.CacheConfig, logger *slog.Logger) (Store, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", common.ErrDatabase, err)
	}
	// an in-memory database lives and dies with its connection
	db.SetMaxOpenConns(1)

	s := NewSQLStore(db, dialect.SQLite, cfg.TTL, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("cache.sqlite.ready", "dsn", dsn)
	return s, nil
}

// openPostgres creates a pgx pool and wraps it as *sql.DB for the ent driver.
func openPostgres(ctx context.Context, cfg common.CacheConfig, logger *slog.Logger) (Store, error) {
	logger.Info("cache.postgres.connecting")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dsn: %v", common.ErrDatabase, err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "winelabel"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	dialCtx, cancel := common.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", common.ErrDatabase, err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", common.ErrDatabase, err)
	}

	s := NewSQLStore(stdlib.OpenDBFromPool(pool), dialect.Postgres, cfg.TTL, logger)
	s.onClose = pool.Close
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	logger.Info("cache.postgres.ready")
	return s, nil
}
