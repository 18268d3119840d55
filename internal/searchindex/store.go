package searchindex

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultStoreName is the fixed snapshot database name.
const DefaultStoreName = "ganj-search-index.db"

// snapshotFormatVersion is bumped whenever the snapshot layout changes; a
// persisted snapshot with a different version is discarded on load.
const snapshotFormatVersion = 2

// snapshotMaxAge is how long a persisted snapshot stays usable.
const snapshotMaxAge = 24 * time.Hour

// snapshotChunkSize is the serialized payload size per chunk row.
const snapshotChunkSize = 256 * 1024

// ErrNoSnapshot is returned by Load when no usable snapshot exists: the store
// is empty, the format version does not match, the snapshot is stale, or its
// chunk set is incomplete.
var ErrNoSnapshot = errors.New("searchindex: no usable snapshot")

const storeSchema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
    key            TEXT PRIMARY KEY,
    format_version INTEGER NOT NULL,
    created_at     INTEGER NOT NULL,
    total_chunks   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_chunks (
    chunk_no INTEGER PRIMARY KEY,
    data     BLOB NOT NULL
);`

// Store persists index snapshots in a local SQLite database as chunked rows
// plus a single metadata row keyed "main".
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) the snapshot database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the persisted snapshot with the given documents. The previous
// snapshot is dropped and rewritten in one transaction, so readers never see
// a half-written chunk set.
func (s *Store) Save(docs []Document) (chunks int, err error) {
	payload, err := json.Marshal(docs)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin snapshot save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM snapshot_chunks`); err != nil {
		return 0, fmt.Errorf("clear snapshot chunks: %w", err)
	}
	if _, err = tx.Exec(`DELETE FROM snapshot_meta`); err != nil {
		return 0, fmt.Errorf("clear snapshot meta: %w", err)
	}

	for off := 0; off < len(payload); off += snapshotChunkSize {
		end := off + snapshotChunkSize
		if end > len(payload) {
			end = len(payload)
		}
		if _, err = tx.Exec(`INSERT INTO snapshot_chunks (chunk_no, data) VALUES (?, ?)`,
			chunks, payload[off:end]); err != nil {
			return 0, fmt.Errorf("write snapshot chunk %d: %w", chunks, err)
		}
		chunks++
	}

	_, err = tx.Exec(`INSERT INTO snapshot_meta (key, format_version, created_at, total_chunks) VALUES ('main', ?, ?, ?)`,
		snapshotFormatVersion, s.now().Unix(), chunks)
	if err != nil {
		return 0, fmt.Errorf("write snapshot meta: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}
	return chunks, nil
}

// Load restores the persisted snapshot. It returns ErrNoSnapshot when the
// snapshot is missing, has a different format version, is older than
// snapshotMaxAge, or its chunk count does not match the metadata; stale and
// mismatched snapshots are deleted so the next save starts clean.
func (s *Store) Load() ([]Document, error) {
	var (
		version   int
		createdAt int64
		total     int
	)
	err := s.db.QueryRow(
		`SELECT format_version, created_at, total_chunks FROM snapshot_meta WHERE key = 'main'`,
	).Scan(&version, &createdAt, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot meta: %w", err)
	}

	if version != snapshotFormatVersion || s.now().Sub(time.Unix(createdAt, 0)) > snapshotMaxAge {
		s.discard()
		return nil, ErrNoSnapshot
	}

	rows, err := s.db.Query(`SELECT data FROM snapshot_chunks ORDER BY chunk_no`)
	if err != nil {
		return nil, fmt.Errorf("read snapshot chunks: %w", err)
	}
	defer rows.Close()

	var (
		payload []byte
		got     int
	)
	for rows.Next() {
		var chunk []byte
		if err := rows.Scan(&chunk); err != nil {
			return nil, fmt.Errorf("scan snapshot chunk: %w", err)
		}
		payload = append(payload, chunk...)
		got++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot chunks: %w", err)
	}

	if got != total {
		s.discard()
		return nil, ErrNoSnapshot
	}

	var docs []Document
	if err := json.Unmarshal(payload, &docs); err != nil {
		s.discard()
		return nil, ErrNoSnapshot
	}

	return docs, nil
}

func (s *Store) discard() {
	_, _ = s.db.Exec(`DELETE FROM snapshot_chunks`)
	_, _ = s.db.Exec(`DELETE FROM snapshot_meta`)
}
