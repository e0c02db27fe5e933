// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annostore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for store queries. Text search and
// structured filters combine with AND semantics.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over question and answer.
	Query string

	// Label filters to pages with a mention of the prefixed label.
	Label string

	// DrugBankID filters to pages mentioning the medication.
	DrugBankID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Label == "" && q.DrugBankID == ""
}

// QueryResult is one matching vignette, with text fields truncated for
// listing.
type QueryResult struct {
	BookPage int    `json:"book_page" yaml:"book_page"`
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Retrieve queries the store. Full-text queries rank by relevance;
// structured-only queries sort by book page.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT v.book_page, v.question, v.answer
			FROM vignettes_fts
			JOIN vignettes v ON v.rowid = vignettes_fts.rowid
			WHERE vignettes_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT v.book_page, v.question, v.answer
			FROM vignettes v
			WHERE 1=1`)
	}

	if opts.Label != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM mentions m WHERE m.book_page = v.book_page AND m.label = ?)`)
		args = append(args, opts.Label)
	}

	if opts.DrugBankID != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM mentions m WHERE m.book_page = v.book_page AND m.drugbank_id = ?)`)
		args = append(args, opts.DrugBankID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY vignettes_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY v.book_page`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying annotation store: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr       QueryResult
			question sql.NullString
			answer   sql.NullString
		)
		if err := rows.Scan(&qr.BookPage, &question, &answer); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.Question = question.String
		qr.Answer = answer.String
		results = append(results, qr)
	}
	return results, rows.Err()
}
