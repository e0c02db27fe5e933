// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RawEntityMatch is the output of a single recognizer on a single span of
// text. Character offsets refer to the original text; token offsets refer to
// whatever tokenization the producing model used and are NOT comparable
// across models (prd005-consolidation R1.2). Only character offsets are
// trusted during consolidation.
type RawEntityMatch struct {
	// Model names the recognizer that produced this match ("drugbank",
	// "bc5cdr", "bionlp13cg"). Set during intake from the source filename.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Entity is the matched text slice.
	Entity string `json:"entity" yaml:"entity"`

	// Label is the model's own label, without the model prefix
	// (e.g. "MEDICATION_DRUGBANK", "DISEASE", "ORGAN").
	Label string `json:"label" yaml:"label"`

	// CharLimits holds [start, end) byte offsets into the original text.
	CharLimits [2]int `json:"char_limits" yaml:"char_limits"`

	// TokenLimits holds [start, end) token offsets in the producing model's
	// own tokenization. Informational only.
	TokenLimits [2]int `json:"token_limits" yaml:"token_limits"`

	// DrugBankID is set by the lexicon matcher for medication matches.
	DrugBankID string `json:"drugbank_id,omitempty" yaml:"drugbank_id,omitempty"`

	// RxNormLink is set by statistical taggers that resolved the entity
	// against the RxNorm knowledge base.
	RxNormLink string `json:"rxnorm_link,omitempty" yaml:"rxnorm_link,omitempty"`
}

// Abbreviation is a short form detected in a text together with its expansion.
type Abbreviation struct {
	Abbrev   string `json:"abbrev" yaml:"abbrev"`
	Extended string `json:"extended" yaml:"extended"`
}

// ParseToken carries the grammatical attributes of one canonical token, as
// supplied by the external parser. The parser is required to tokenize with
// the canonical tokenizer so that ParseTokens align 1:1 with Tokens
// (prd006-context R1.4).
type ParseToken struct {
	// Text is the token surface form; must equal the canonical token text.
	Text string `json:"text" yaml:"text"`

	// Lemma is the token's base form.
	Lemma string `json:"lemma" yaml:"lemma"`

	// POS is the coarse part-of-speech tag (UPOS: VERB, ADP, CCONJ, ...).
	POS string `json:"pos" yaml:"pos"`

	// Dep is the dependency relation to the head token.
	Dep string `json:"dep" yaml:"dep"`

	// Head is the token index of the grammatical head. A token that is its
	// own head is a sentence root.
	Head int `json:"head" yaml:"head"`

	// SentStart marks the first token of a sentence.
	SentStart bool `json:"sent_start" yaml:"sent_start"`
}

// ModelOutput is one vignette's worth of recognizer output, the wire format
// shared by the lexicon matcher and the statistical taggers. Parse fields are
// optional and only populated by taggers that run a parser.
type ModelOutput struct {
	BookPage int    `json:"book_page" yaml:"book_page"`
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`

	BnerQuestion []RawEntityMatch `json:"bner_question" yaml:"bner_question"`
	BnerAnswer   []RawEntityMatch `json:"bner_answer" yaml:"bner_answer"`

	AbbrevQuestion []Abbreviation `json:"abbrev_question,omitempty" yaml:"abbrev_question,omitempty"`
	AbbrevAnswer   []Abbreviation `json:"abbrev_answer,omitempty" yaml:"abbrev_answer,omitempty"`

	ParseQuestion []ParseToken `json:"parse_question,omitempty" yaml:"parse_question,omitempty"`
	ParseAnswer   []ParseToken `json:"parse_answer,omitempty" yaml:"parse_answer,omitempty"`
}

// Token is one canonical token: the text slice and its [Start, End) byte
// offsets in the original text. The canonical tokenization is the single
// coordinate space all consolidated annotations refer to.
type Token struct {
	Text  string `json:"text" yaml:"text"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// TokenFlags holds the exclusive per-token classification flags promoted from
// the token's label set during consolidation (prd005-consolidation R4.2).
// At most one flag is true per token; promotion order is organ, disease,
// medication.
type TokenFlags struct {
	IsBodyOrgan  bool `json:"is_body_organ,omitempty" yaml:"is_body_organ,omitempty"`
	IsDisease    bool `json:"is_disease,omitempty" yaml:"is_disease,omitempty"`
	IsMedication bool `json:"is_medication,omitempty" yaml:"is_medication,omitempty"`
}

// ConsolidatedSpan is one entity in the canonical non-overlapping entity set
// of an annotated text. Token offsets refer to the canonical tokenization.
// Context flags and Purpose are written by the context stage; everything else
// is fixed at consolidation time.
type ConsolidatedSpan struct {
	// TokenStart and TokenEnd delimit the span as [TokenStart, TokenEnd).
	TokenStart int `json:"token_start" yaml:"token_start"`
	TokenEnd   int `json:"token_end" yaml:"token_end"`

	// Label is the prefixed label "model:LABEL", e.g. "bc5cdr:DISEASE".
	Label string `json:"label" yaml:"label"`

	// Text is the covered slice of the original text.
	Text string `json:"text" yaml:"text"`

	// IsMedication is set when the originating match carried a DrugBank id
	// or an RxNorm link.
	IsMedication bool `json:"is_medication,omitempty" yaml:"is_medication,omitempty"`

	// MedicationDetails holds the external identifiers attached to a
	// medication span, keyed "drugbank_id" or "rxnorm_link".
	MedicationDetails map[string]string `json:"medication_details,omitempty" yaml:"medication_details,omitempty"`

	// Context flags, all false by default: an entity with no matching
	// trigger is a current finding of the patient. FAMILY_HISTORY triggers
	// set IsFamilyHistory and clear IsHistory (prd006-context R2.3).
	IsHistory          bool `json:"is_history,omitempty" yaml:"is_history,omitempty"`
	IsFamilyHistory    bool `json:"is_family_history,omitempty" yaml:"is_family_history,omitempty"`
	NeverHistory       bool `json:"never_history,omitempty" yaml:"never_history,omitempty"`
	NeverFamilyHistory bool `json:"never_family_history,omitempty" yaml:"never_family_history,omitempty"`

	// Purpose is the text of the disease this medication was linked to by
	// relation extraction. Empty for non-medication spans and for
	// medications with no extracted relation.
	Purpose string `json:"purpose,omitempty" yaml:"purpose,omitempty"`
}

// Contains reports whether the span covers the given token index.
func (s *ConsolidatedSpan) Contains(tok int) bool {
	return s.TokenStart <= tok && tok < s.TokenEnd
}

// AnnotatedText is one text of a vignette re-tokenized exactly once and
// carrying the consolidated annotations. Entities is the canonical entity
// set: mutually non-overlapping by construction, sorted by TokenStart.
// TokenLabels is the per-token union of ALL span labels covering the token,
// including spans that lost the canonical slot to a higher-priority model
// (prd005-consolidation R3.4, R4.1).
type AnnotatedText struct {
	Role   TextRole `json:"role" yaml:"role"`
	Text   string   `json:"text" yaml:"text"`
	Tokens []Token  `json:"tokens" yaml:"tokens"`

	Entities []ConsolidatedSpan `json:"entities" yaml:"entities"`

	TokenLabels [][]string   `json:"token_labels" yaml:"token_labels"`
	TokenFlags  []TokenFlags `json:"token_flags" yaml:"token_flags"`

	Abbreviations []Abbreviation `json:"abbreviations,omitempty" yaml:"abbreviations,omitempty"`
}

// EntityAt returns the first entity span containing the token index, or nil.
func (t *AnnotatedText) EntityAt(tok int) *ConsolidatedSpan {
	for i := range t.Entities {
		if t.Entities[i].Contains(tok) {
			return &t.Entities[i]
		}
	}
	return nil
}

// MedicationIDs returns the unique DrugBank ids among the text's medication
// entities, in order of first appearance.
func (t *AnnotatedText) MedicationIDs() []string {
	var ids []string
	seen := make(map[string]bool)
	for i := range t.Entities {
		id := t.Entities[i].MedicationDetails["drugbank_id"]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// AnnotatedVignette is the consolidated document for one vignette: both
// texts annotated on the canonical tokenization, plus interaction records
// appended by the interaction stage.
type AnnotatedVignette struct {
	BookPage int           `json:"book_page" yaml:"book_page"`
	Question AnnotatedText `json:"question" yaml:"question"`
	Answer   AnnotatedText `json:"answer" yaml:"answer"`

	// Interactions is non-nil once the interaction stage has run, even when
	// no pair interacts (prd007-interactions R3.2).
	Interactions []DrugInteraction `json:"drugdrug_interactions,omitempty" yaml:"drugdrug_interactions,omitempty"`

	// UnresolvedPairs lists drug-id pairs whose interaction lookup failed
	// after retries. An unresolved pair is not the same as "no interaction".
	UnresolvedPairs [][2]string `json:"unresolved_pairs,omitempty" yaml:"unresolved_pairs,omitempty"`
}
