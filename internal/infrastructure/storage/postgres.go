package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"regintel/internal/domain"
	"regintel/internal/ports"
)

//go:embed schema.sql
var schemaSQL string

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists instruments, run logs, and progress rows into the
// shared Postgres database.
type PostgresStore struct {
	db *sql.DB
}

var _ ports.RecordStore = (*PostgresStore)(nil)
var _ ports.RunLogStore = (*PostgresStore)(nil)
var _ ports.ProgressStore = (*PostgresStore)(nil)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an existing connection; used by tests.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema applies the embedded schema. All statements are idempotent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// JurisdictionIDs returns the code-to-id mapping for all jurisdictions.
func (s *PostgresStore) JurisdictionIDs(ctx context.Context) (map[string]string, error) {
	query, args, err := psql.Select("code", "id").From("jurisdiction").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build jurisdiction query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jurisdictions: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var code, id string
		if err := rows.Scan(&code, &id); err != nil {
			return nil, fmt.Errorf("scan jurisdiction: %w", err)
		}
		result[code] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jurisdiction rows: %w", err)
	}

	return result, nil
}

// SeenExternalIDs loads every external id previously written under the
// given source tag. Called once per invocation to avoid per-item reads.
func (s *PostgresStore) SeenExternalIDs(ctx context.Context, sourceTag string) (map[string]struct{}, error) {
	query, args, err := psql.Select("external_id").
		From("instrument").
		Where(sq.Eq{"source": sourceTag}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seen query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seen ids: %w", err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan external id: %w", err)
		}
		result[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("seen rows: %w", err)
	}

	return result, nil
}

// UpsertRecord inserts or fully replaces the record keyed on external_id.
func (s *PostgresStore) UpsertRecord(ctx context.Context, rec domain.ContentRecord) error {
	query, args, err := upsertRecordQuery(rec)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert record %s: %w", rec.ExternalID, err)
	}
	return nil
}

func upsertRecordQuery(rec domain.ContentRecord) (string, []any, error) {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return "", nil, fmt.Errorf("marshal metadata: %w", err)
	}

	var effectiveDate any
	if !rec.EffectiveDate.IsZero() {
		effectiveDate = rec.EffectiveDate
	}

	return psql.Insert("instrument").
		Columns("external_id", "title", "description", "effective_date",
			"jurisdiction_id", "source", "url", "category", "sub_category", "metadata").
		Values(rec.ExternalID, rec.Title, rec.Description, effectiveDate,
			rec.JurisdictionID, rec.Source, rec.URL, rec.Category, rec.SubCategory, metadata).
		Suffix(`ON CONFLICT (external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			effective_date = EXCLUDED.effective_date,
			jurisdiction_id = EXCLUDED.jurisdiction_id,
			source = EXCLUDED.source,
			url = EXCLUDED.url,
			category = EXCLUDED.category,
			sub_category = EXCLUDED.sub_category,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()`).
		ToSql()
}

// InsertRunLog appends the run summary row. Run logs are never mutated.
func (s *PostgresStore) InsertRunLog(ctx context.Context, log domain.RunLog) error {
	metadata, err := json.Marshal(map[string]any{
		"newItemsFound":   log.NewItemsFound,
		"statesProcessed": log.StatesDone,
		"errors":          log.Errors,
		"recentItems":     log.RecentItems,
	})
	if err != nil {
		return fmt.Errorf("marshal run metadata: %w", err)
	}

	id := log.ID
	if id == "" {
		id = uuid.NewString()
	}

	query, args, err := psql.Insert("ingestion_run").
		Columns("id", "source", "status", "records_fetched", "metadata", "started_at", "finished_at").
		Values(id, log.Source, string(log.Status), log.RecordsFetched, metadata, log.StartedAt, log.FinishedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run log insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run log: %w", err)
	}
	return nil
}

// UpsertProgress updates the live progress row for (session, source).
func (s *PostgresStore) UpsertProgress(ctx context.Context, p domain.Progress) error {
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query, args, err := psql.Insert("ingestion_progress").
		Columns("session_id", "source_name", "states_done", "states_total", "items_found", "updated_at").
		Values(p.SessionID, p.SourceName, p.StatesDone, p.StatesTotal, p.ItemsFound, updatedAt).
		Suffix(`ON CONFLICT (session_id, source_name) DO UPDATE SET
			states_done = EXCLUDED.states_done,
			states_total = EXCLUDED.states_total,
			items_found = EXCLUDED.items_found,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build progress upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}
