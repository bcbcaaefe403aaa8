// Package store persists the fetched KCC records together with their
// embeddings so a restart can rebuild the corpus without re-calling
// the embedding backend. It is a cache, not the source of truth:
// -refresh wipes and repopulates it.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/kisaansetu/advisor/internal/core"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err = s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS kcc_records (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        query_text TEXT NOT NULL,
        answer_text TEXT NOT NULL,
        embedding_json TEXT NOT NULL -- JSON array of float32
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// CountRecords returns the number of cached records.
func (s *SQLiteStore) CountRecords() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM kcc_records").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count kcc_records: %w", err)
	}
	return count, nil
}

// SaveCorpus replaces the cache with the given records and vectors.
// Records and vectors must be paired 1:1 in order.
func (s *SQLiteStore) SaveCorpus(records []core.Record, vectors [][]float32) error {
	if len(records) != len(vectors) {
		return fmt.Errorf("records/vectors length mismatch: %d != %d", len(records), len(vectors))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM kcc_records"); err != nil {
		return fmt.Errorf("failed to clear kcc_records: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO kcc_records (query_text, answer_text, embedding_json) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		embJSON, err := json.Marshal(vectors[i])
		if err != nil {
			return fmt.Errorf("failed to marshal embedding %d: %w", i, err)
		}
		if _, err := stmt.Exec(rec.QueryText, rec.AnswerText, string(embJSON)); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LoadCorpus reads all cached records and their embeddings in insert
// order. A row with a malformed embedding fails the whole load: a
// partially embedded corpus is worse than none.
func (s *SQLiteStore) LoadCorpus() ([]core.Record, [][]float32, error) {
	rows, err := s.db.Query("SELECT id, query_text, answer_text, embedding_json FROM kcc_records ORDER BY id ASC")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query kcc_records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	var vectors [][]float32
	for rows.Next() {
		var row cachedRecord
		var embJSON string
		if err := rows.Scan(&row.ID, &row.QueryText, &row.AnswerText, &embJSON); err != nil {
			return nil, nil, fmt.Errorf("failed to scan kcc_record: %w", err)
		}
		if err := json.Unmarshal([]byte(embJSON), &row.Embedding); err != nil {
			return nil, nil, fmt.Errorf("malformed embedding for record %d: %w", row.ID, err)
		}
		records = append(records, core.Record{QueryText: row.QueryText, AnswerText: row.AnswerText})
		vectors = append(vectors, row.Embedding)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate kcc_records: %w", err)
	}
	return records, vectors, nil
}
