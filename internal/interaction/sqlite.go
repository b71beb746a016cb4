package interaction

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS interactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file TEXT,
    query TEXT NOT NULL,
    response TEXT NOT NULL,
    timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interactions_timestamp ON interactions(timestamp DESC);
`

// SQLiteStore keeps the interaction log in a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the interaction log at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// every pooled connection would get its own empty in-memory database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// NewSQLiteStore uses an existing connection and ensures the schema exists.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, in Interaction) error {
	var file sql.NullString
	if in.File != nil {
		data, err := json.Marshal(in.File)
		if err != nil {
			return fmt.Errorf("marshal file snapshot: %w", err)
		}
		file = sql.NullString{String: string(data), Valid: true}
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (file, query, response, timestamp) VALUES (?, ?, ?, ?)`,
		file, in.Query, in.Response, ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Interaction, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT file, query, response, timestamp
		FROM interactions
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var in Interaction
		var file sql.NullString
		var ts string
		if err := rows.Scan(&file, &in.Query, &in.Response, &ts); err != nil {
			return nil, err
		}

		if file.Valid {
			var snap FileSnapshot
			if err := json.Unmarshal([]byte(file.String), &snap); err != nil {
				return nil, fmt.Errorf("decode file snapshot: %w", err)
			}
			in.File = &snap
		}

		in.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, in)
	}

	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
