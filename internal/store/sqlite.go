package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/openkg/loom/internal/rdf"
)

// SQLiteStore persists triples in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS triples (
		position        INTEGER PRIMARY KEY AUTOINCREMENT,
		subject         TEXT NOT NULL,
		subject_kind    TEXT NOT NULL,
		predicate       TEXT NOT NULL,
		object          TEXT NOT NULL,
		object_kind     TEXT NOT NULL,
		object_datatype TEXT NOT NULL DEFAULT '',
		object_lang     TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_triples_subject ON triples(subject);
	CREATE INDEX IF NOT EXISTS idx_triples_predicate ON triples(predicate);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Replace(ctx context.Context, triples []rdf.Triple) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM triples`); err != nil {
		return fmt.Errorf("clear triples: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO triples (subject, subject_kind, predicate, object, object_kind, object_datatype, object_lang)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range triples {
		subj, subjKind, _, _ := encodeTerm(t.Subject)
		obj, objKind, objDatatype, objLang := encodeTerm(t.Object)
		if _, err := stmt.ExecContext(ctx, subj, subjKind, t.Predicate.Value, obj, objKind, objDatatype, objLang); err != nil {
			return fmt.Errorf("insert triple: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadAll(ctx context.Context) ([]rdf.Triple, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject, subject_kind, predicate, object, object_kind, object_datatype, object_lang
		FROM triples ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query triples: %w", err)
	}
	defer rows.Close()

	var triples []rdf.Triple
	for rows.Next() {
		var subj, subjKind, pred, obj, objKind, objDatatype, objLang string
		if err := rows.Scan(&subj, &subjKind, &pred, &obj, &objKind, &objDatatype, &objLang); err != nil {
			return nil, fmt.Errorf("scan triple: %w", err)
		}
		subject, err := decodeTerm(subj, subjKind, "", "")
		if err != nil {
			return nil, err
		}
		predicate, err := rdf.NewIRI(pred)
		if err != nil {
			return nil, fmt.Errorf("stored predicate: %w", err)
		}
		object, err := decodeTerm(obj, objKind, objDatatype, objLang)
		if err != nil {
			return nil, err
		}
		triples = append(triples, rdf.Triple{Subject: subject, Predicate: predicate, Object: object})
	}
	return triples, rows.Err()
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}
