package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id           TEXT NOT NULL,
	file_id          TEXT NOT NULL,
	dataset          TEXT,
	version          TEXT,
	created_at       TEXT NOT NULL,
	duration_s       REAL,
	vuln_count       INTEGER,
	fixed_count      INTEGER,
	new_issues       INTEGER,
	loc_churn        INTEGER,
	ast_churn        INTEGER,
	total_cost_usd   REAL,
	record_json      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	file_row          INTEGER NOT NULL,
	finding_id        TEXT NOT NULL,
	line              INTEGER,
	tier              INTEGER NOT NULL,
	model             TEXT,
	status            TEXT NOT NULL,
	finish_reason     TEXT,
	prompt_tokens     INTEGER,
	completion_tokens INTEGER,
	cost              REAL,
	duration_s        REAL,
	FOREIGN KEY (file_row) REFERENCES files(id)
);

CREATE INDEX IF NOT EXISTS attempts_finding ON attempts(finding_id);
`

// SQLiteStore keeps audit records in a SQLite database, one row per file
// and one per patch attempt.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// pragmas and in-memory databases are per connection
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Write(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sum := rec.SecuritySummary
	res, err := tx.ExecContext(ctx,
		`INSERT INTO files (run_id, file_id, dataset, version, created_at, duration_s,
			vuln_count, fixed_count, new_issues, loc_churn, ast_churn, total_cost_usd, record_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Meta.RunID, rec.Meta.FileID, rec.Meta.Dataset, rec.Meta.Version, rec.Meta.Timestamp, rec.Meta.DurationS,
		rec.InputStats.VulnCount, sum.FixedCount, sum.NewIssuesIntroduced, sum.NormalizedLOCChurn, sum.ASTChurn,
		rec.TotalCostUSD, string(raw),
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	fileRow, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("file row id: %w", err)
	}

	for _, v := range rec.Vulnerabilities {
		for _, a := range v.Attempts {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO attempts (file_row, finding_id, line, tier, model, status, finish_reason,
					prompt_tokens, completion_tokens, cost, duration_s)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				fileRow, v.FindingID, v.Line, a.Tier, a.Model, string(a.Status), a.FinishReason,
				a.Tokens.Prompt, a.Tokens.Completion, a.Cost, a.Duration,
			)
			if err != nil {
				return fmt.Errorf("insert attempt: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Records returns every stored record in insertion order.
func (s *SQLiteStore) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record_json FROM files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
