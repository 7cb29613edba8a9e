package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/becomeliminal/holomem-go/core"
	"github.com/becomeliminal/holomem-go/memory"
)

// timeLayout is fixed-width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists traces so they can be decoded after a restart. The
// permutation set is not stored; it is rebuilt from the trace's seed.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the database at path.
func New(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite has a single writer
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	createSQL := `CREATE TABLE IF NOT EXISTS traces (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		input_size INTEGER NOT NULL,
		num_models INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		convolution TEXT NOT NULL,
		normalization TEXT NOT NULL,
		key_type TEXT NOT NULL,
		memory TEXT NOT NULL,
		keys TEXT NOT NULL,
		metadata TEXT DEFAULT '{}'
	)`
	if _, err := db.Exec(createSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save inserts or replaces a trace.
func (s *SQLiteStore) Save(ctx context.Context, trace *memory.Trace) error {
	r := trace.Record()

	mem, err := json.Marshal(r.Memory)
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}
	keys, err := json.Marshal(r.Keys)
	if err != nil {
		return fmt.Errorf("marshal keys: %w", err)
	}
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO traces
		 (id, created_at, input_size, num_models, seed, convolution, normalization, key_type, memory, keys, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(timeLayout),
		r.InputSize, r.NumModels, r.Seed,
		string(r.Convolution), string(r.Normalization), string(r.KeyType),
		string(mem), string(keys), string(metadata),
	)
	if err != nil {
		return fmt.Errorf("insert trace: %w", err)
	}

	log.Printf("[SQLITE] Saved trace %s (%d items)", r.ID, len(r.Keys))
	return nil
}

// Load reads a trace back.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*memory.Trace, error) {
	var r memory.TraceRecord
	var createdAt, conv, norm, keyType string
	var memJSON, keysJSON, metadataJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, input_size, num_models, seed, convolution, normalization, key_type, memory, keys, metadata
		 FROM traces WHERE id = ?`, id,
	).Scan(&r.ID, &createdAt, &r.InputSize, &r.NumModels, &r.Seed, &conv, &norm, &keyType, &memJSON, &keysJSON, &metadataJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: trace %s", core.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select trace: %w", err)
	}

	if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	r.Convolution = core.Convolution(conv)
	r.Normalization = core.Normalization(norm)
	r.KeyType = core.KeyType(keyType)
	if err := json.Unmarshal([]byte(memJSON), &r.Memory); err != nil {
		return nil, fmt.Errorf("unmarshal memory: %w", err)
	}
	if err := json.Unmarshal([]byte(keysJSON), &r.Keys); err != nil {
		return nil, fmt.Errorf("unmarshal keys: %w", err)
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return memory.NewTraceFromStorage(r), nil
}

// List returns stored trace IDs, oldest first.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM traces ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a trace. Unknown IDs are not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM traces WHERE id = ?`, id)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
