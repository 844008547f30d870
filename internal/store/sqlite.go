package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mediaparse/titlebench/internal/model"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS versions (
	version       TEXT PRIMARY KEY,
	tested_count  INTEGER NOT NULL,
	correct_count INTEGER NOT NULL,
	timestamp     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS judgments (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	version       TEXT NOT NULL,
	is_correct    INTEGER NOT NULL,
	parsed_result TEXT NOT NULL,
	notes         TEXT NOT NULL,
	timestamp     TEXT NOT NULL,
	UNIQUE(title, version)
);

CREATE INDEX IF NOT EXISTS idx_judgments_version ON judgments(version);
`

// ExportSQLite flattens the results document into a SQLite database for
// analysis tooling. The database is a derived artifact: the JSON results
// file remains the source of truth, and each export replaces the previous
// contents wholesale. Returns the number of judgment rows written.
func ExportSQLite(ctx context.Context, dsn string, doc *model.ResultsDocument) (int, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: open")
	}
	defer db.Close()

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return 0, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		return 0, eris.Wrap(err, "sqlite: migrate")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	for _, table := range []string{"judgments", "versions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return 0, eris.Wrapf(err, "sqlite: clear %s", table)
		}
	}

	for version, stats := range doc.Versions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO versions (version, tested_count, correct_count, timestamp) VALUES (?, ?, ?, ?)`,
			version, stats.TestedCount, stats.CorrectCount, stats.Timestamp,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert version %s", version)
		}
	}

	rows := 0
	for title, records := range doc.Titles {
		for version, rec := range records {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO judgments (id, title, version, is_correct, parsed_result, notes, timestamp)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), title, version, rec.IsCorrect, string(rec.ParsedResult), rec.Notes, rec.Timestamp,
			)
			if err != nil {
				return 0, eris.Wrapf(err, "sqlite: insert judgment %s/%s", title, version)
			}
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return rows, nil
}
