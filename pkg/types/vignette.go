// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Vignette is one clinical case extracted from the source book: a question
// page and the answer text from the following page, keyed by the page number
// the question appears on. Per prd001-extraction R2.1-R2.3.
type Vignette struct {
	// BookPage is the page number of the question within the source book.
	BookPage int `json:"book_page" yaml:"book_page"`

	// Question is the clinical case narrative posed to the reader.
	Question string `json:"question" yaml:"question"`

	// Answer is the discussion text for the case, taken from the page
	// following the question.
	Answer string `json:"answer" yaml:"answer"`
}

// PageError records a page that could not be extracted. Malformed pages are
// collected separately and never abort the extraction run (R3.2).
type PageError struct {
	// BookPage is the page number that failed.
	BookPage int `json:"book_page" yaml:"book_page"`

	// Error is the human-readable failure reason.
	Error string `json:"error" yaml:"error"`
}

// TextRole distinguishes the two text fields of a vignette. The question and
// answer are annotated independently but share the vignette's page number.
type TextRole string

const (
	RoleQuestion TextRole = "question"
	RoleAnswer   TextRole = "answer"
)

// VocabEntry is one row of the preprocessed medication vocabulary: the
// DrugBank identifier and the drug's standard name. Synonym columns of the
// source CSV are dropped during preprocessing (prd002-vocabulary R1.3).
type VocabEntry struct {
	// DrugBankID is the external identifier, e.g. "DB00331".
	DrugBankID string `json:"drugbank_id" yaml:"drugbank_id"`

	// CommonName is the drug's standard name as used in the book text.
	CommonName string `json:"common_name" yaml:"common_name"`
}
