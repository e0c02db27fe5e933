// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annostore persists annotated vignettes in SQLite and builds a
// full-text retrieval index over their texts, so annotated cases can be
// searched by symptom, disease or medication without re-running the
// pipeline.
// Implements: prd009-annotation-store (R1-R4);
//
//	docs/ARCHITECTURE § Annotation Store.
package annostore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "annotations.db"
)

// Store manages the annotation SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the database at StoreDir/index/annotations.db
// and creates the schema when missing.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.StoreDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS vignettes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			book_page INTEGER NOT NULL UNIQUE,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			document TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mentions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			book_page INTEGER NOT NULL REFERENCES vignettes(book_page) ON DELETE CASCADE,
			role TEXT NOT NULL,
			label TEXT NOT NULL,
			text TEXT NOT NULL,
			drugbank_id TEXT,
			purpose TEXT,
			is_history INTEGER NOT NULL DEFAULT 0,
			is_family_history INTEGER NOT NULL DEFAULT 0,
			never_history INTEGER NOT NULL DEFAULT 0,
			never_family_history INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_page ON mentions(book_page)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_label ON mentions(label)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_drugbank ON mentions(drugbank_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='vignettes_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE vignettes_fts USING fts5(question, answer, content=vignettes, content_rowid=rowid)`,
			`CREATE TRIGGER vignettes_ai AFTER INSERT ON vignettes BEGIN
				INSERT INTO vignettes_fts(rowid, question, answer) VALUES (new.rowid, new.question, new.answer);
			END`,
			`CREATE TRIGGER vignettes_ad AFTER DELETE ON vignettes BEGIN
				INSERT INTO vignettes_fts(vignettes_fts, rowid, question, answer) VALUES('delete', old.rowid, old.question, old.answer);
			END`,
			`CREATE TRIGGER vignettes_au AFTER UPDATE ON vignettes BEGIN
				INSERT INTO vignettes_fts(vignettes_fts, rowid, question, answer) VALUES('delete', old.rowid, old.question, old.answer);
				INSERT INTO vignettes_fts(rowid, question, answer) VALUES (new.rowid, new.question, new.answer);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an ingestion run.
type IngestSummary struct {
	Ingested int
	Updated  int
	Failed   int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Ingested + s.Updated + s.Failed
}

// Ingest upserts annotated documents, keyed by book page. Re-ingesting a
// page replaces its record and mention rows; per-document progress goes
// to w.
func (s *Store) Ingest(ctx context.Context, docs []types.AnnotatedVignette, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for i := range docs {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		doc := &docs[i]
		updated, err := s.ingestDoc(ctx, doc)
		if err != nil {
			fmt.Fprintf(w, "failed  page %d: %v\n", doc.BookPage, err)
			summary.Failed++
			continue
		}
		if updated {
			fmt.Fprintf(w, "updated page %d\n", doc.BookPage)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "ingested page %d\n", doc.BookPage)
			summary.Ingested++
		}
	}

	fmt.Fprintf(w, "\ningested: %d, updated: %d, failed: %d\n",
		summary.Ingested, summary.Updated, summary.Failed)
	return summary, nil
}

func (s *Store) ingestDoc(ctx context.Context, doc *types.AnnotatedVignette) (updated bool, err error) {
	document, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("encoding document: %w", err)
	}

	var existing int
	err = s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM vignettes WHERE book_page = ?`, doc.BookPage,
	).Scan(&existing)
	if err != nil {
		return false, fmt.Errorf("checking existing page: %w", err)
	}
	updated = existing > 0

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if updated {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vignettes WHERE book_page = ?`, doc.BookPage); err != nil {
			return false, fmt.Errorf("deleting old record: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vignettes (book_page, question, answer, document) VALUES (?, ?, ?, ?)`,
		doc.BookPage, doc.Question.Text, doc.Answer.Text, string(document),
	); err != nil {
		return false, fmt.Errorf("inserting vignette: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO mentions (book_page, role, label, text, drugbank_id, purpose,
			is_history, is_family_history, never_history, never_family_history)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return false, fmt.Errorf("preparing mention insert: %w", err)
	}
	defer stmt.Close()

	for _, text := range []*types.AnnotatedText{&doc.Question, &doc.Answer} {
		for j := range text.Entities {
			ent := &text.Entities[j]
			if _, err := stmt.ExecContext(ctx,
				doc.BookPage, string(text.Role), ent.Label, ent.Text,
				ent.MedicationDetails["drugbank_id"], ent.Purpose,
				ent.IsHistory, ent.IsFamilyHistory, ent.NeverHistory, ent.NeverFamilyHistory,
			); err != nil {
				return false, fmt.Errorf("inserting mention %q: %w", ent.Text, err)
			}
		}
	}

	return updated, tx.Commit()
}

// Get returns the stored document for a book page.
func (s *Store) Get(ctx context.Context, bookPage int) (*types.AnnotatedVignette, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM vignettes WHERE book_page = ?`, bookPage,
	).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("page %d not in store", bookPage)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up page %d: %w", bookPage, err)
	}

	var doc types.AnnotatedVignette
	if err := json.Unmarshal([]byte(document), &doc); err != nil {
		return nil, fmt.Errorf("decoding stored document: %w", err)
	}
	return &doc, nil
}

// Pages returns the book pages present in the store, ascending.
func (s *Store) Pages(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT book_page FROM vignettes ORDER BY book_page`)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	var pages []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
