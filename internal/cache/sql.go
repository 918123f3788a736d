package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/winelabel/internal/entity"
)

const DefaultTable = "label_cache"

// SQLStore persists records in a single table through ent's dialect-aware
// query builder, so the same code serves Postgres and SQLite.
type SQLStore struct {
	db      *sql.DB
	drv     *entsql.Driver
	dialect string
	table   string
	ttl     time.Duration
	now     func() time.Time
	log     *slog.Logger
	onClose func()
}

func NewSQLStore(db *sql.DB, dialectName string, ttl time.Duration, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{
		db:      db,
		drv:     entsql.OpenDB(dialectName, db),
		dialect: dialectName,
		table:   DefaultTable,
		ttl:     ttl,
		now:     time.Now,
		log:     logger,
	}
}

// Migrate creates the cache table if needed.
func (s *SQLStore) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	content_hash TEXT PRIMARY KEY,
	record_json  TEXT NOT NULL,
	source       TEXT NOT NULL,
	confidence   INTEGER NOT NULL,
	created_at   BIGINT NOT NULL
)`, s.table)
	if err := s.drv.Exec(ctx, ddl, []any{}, nil); err != nil {
		return fmt.Errorf("migrate %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (entity.ParsedWineRecord, bool, error) {
	query, args := entsql.Dialect(s.dialect).
		Select("record_json", "created_at").
		From(entsql.Table(s.table)).
		Where(entsql.EQ("content_hash", key)).
		Limit(1).
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return entity.ParsedWineRecord{}, false, fmt.Errorf("cache get: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return entity.ParsedWineRecord{}, false, rows.Err()
	}
	var payload string
	var created int64
	if err := rows.Scan(&payload, &created); err != nil {
		return entity.ParsedWineRecord{}, false, fmt.Errorf("cache scan: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(time.Unix(created, 0)) > s.ttl {
		return entity.ParsedWineRecord{}, false, nil
	}

	var rec entity.ParsedWineRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		s.log.Warn("cache.decode_error", "key", key, "error", err)
		return entity.ParsedWineRecord{}, false, nil
	}
	if rec.GrapeVarieties == nil {
		rec.GrapeVarieties = []string{}
	}
	return rec, true, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, rec entity.ParsedWineRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	query, args := entsql.Dialect(s.dialect).
		Insert(s.table).
		Columns("content_hash", "record_json", "source", "confidence", "created_at").
		Values(key, string(payload), string(rec.Source), rec.Confidence, s.now().Unix()).
		OnConflict(
			entsql.ConflictColumns("content_hash"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Prune deletes entries older than the TTL and returns how many went.
func (s *SQLStore) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	query, args := entsql.Dialect(s.dialect).
		Delete(s.table).
		Where(entsql.LT("created_at", cutoff)).
		Query()
	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored entries, expired ones included.
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	query, args := entsql.Dialect(s.dialect).
		Select(entsql.Count("*")).
		From(entsql.Table(s.table)).
		Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("cache count: %w", err)
		}
	}
	return n, rows.Err()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	err := s.drv.Close()
	if s.onClose != nil {
		s.onClose()
	}
	return err
}
