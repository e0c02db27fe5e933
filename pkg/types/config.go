package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "vignette-annotator/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ExtractConfig holds settings for the page extraction stage.
// Per prd001-extraction R1.1-R1.4.
type ExtractConfig struct {
	HTTPConfig `yaml:",inline"`

	// TikaURL is the base URL of a running Apache Tika server. When empty,
	// the extractor reads a pre-extracted XHTML file instead.
	TikaURL string `json:"tika_url,omitempty" yaml:"tika_url,omitempty"`

	// QuestionStart and QuestionEnd delimit the question text on a page.
	QuestionStart string `json:"question_start" yaml:"question_start"`
	QuestionEnd   string `json:"question_end" yaml:"question_end"`

	// AnswerStart and AnswerEnd delimit the answer text on the page
	// following the question.
	AnswerStart string `json:"answer_start" yaml:"answer_start"`
	AnswerEnd   string `json:"answer_end" yaml:"answer_end"`
}

// DefaultExtractConfig returns the delimiters used by the source book.
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		HTTPConfig:    HTTPConfig{Timeout: 60 * time.Second, UserAgent: "vignette-annotator/0.1"},
		QuestionStart: "Question:",
		QuestionEnd:   "Contributors:",
		AnswerStart:   "Answer:",
		AnswerEnd:     " Take Home Points",
	}
}

// ConsolidationConfig holds settings for the consolidation engine.
// Per prd005-consolidation R2.1, R4.2.
type ConsolidationConfig struct {
	// Priority is the fixed total order over model names; earlier entries
	// win span conflicts. Must be identical across runs.
	Priority []string `json:"priority" yaml:"priority"`

	// OrganLabel, DiseaseLabel and MedicationLabel are the prefixed labels
	// whose presence in a token's label set promotes the corresponding
	// token flag, checked in that order.
	OrganLabel      string `json:"organ_label" yaml:"organ_label"`
	DiseaseLabel    string `json:"disease_label" yaml:"disease_label"`
	MedicationLabel string `json:"medication_label" yaml:"medication_label"`

	// Workers bounds the per-vignette worker pool. Zero means one worker.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConsolidationConfig returns the model order and promotion labels
// used by the production pipeline.
func DefaultConsolidationConfig() ConsolidationConfig {
	return ConsolidationConfig{
		Priority:        []string{"drugbank", "bc5cdr", "bionlp13cg"},
		OrganLabel:      "bionlp13cg:ORGAN",
		DiseaseLabel:    "bc5cdr:DISEASE",
		MedicationLabel: "drugbank:MEDICATION_DRUGBANK",
		Workers:         4,
	}
}

// ContextConfig holds settings for the context and relation stage.
// Per prd006-context R1.1, R3.1.
type ContextConfig struct {
	// DiseaseLabel is the prefixed entity label context rules apply to by
	// default.
	DiseaseLabel string `json:"disease_label" yaml:"disease_label"`

	// MedicationLabel is the prefixed entity label relation patterns treat
	// as medication.
	MedicationLabel string `json:"medication_label" yaml:"medication_label"`

	// Workers bounds the per-vignette worker pool. Zero means one worker.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultContextConfig returns the labels used by the production pipeline.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		DiseaseLabel:    "bc5cdr:DISEASE",
		MedicationLabel: "drugbank:MEDICATION_DRUGBANK",
		Workers:         4,
	}
}

// InteractionConfig holds settings for the drug-drug interaction stage.
// Per prd007-interactions R1.2, R4.1-R4.3.
type InteractionConfig struct {
	HTTPConfig `yaml:",inline"`

	// SPARQLEndpoint is the Bio2RDF SPARQL endpoint URL.
	SPARQLEndpoint string `json:"sparql_endpoint" yaml:"sparql_endpoint"`

	// MaxRetries bounds retry attempts for a failed lookup (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestsPerSecond limits the query rate against the endpoint.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// DefaultInteractionConfig returns the public Bio2RDF endpoint settings.
func DefaultInteractionConfig() InteractionConfig {
	return InteractionConfig{
		HTTPConfig:        HTTPConfig{Timeout: 30 * time.Second, UserAgent: "vignette-annotator/0.1"},
		SPARQLEndpoint:    "https://drugbank.bio2rdf.org/sparql",
		MaxRetries:        3,
		RequestsPerSecond: 2,
	}
}

// ReportConfig holds settings for the report renderer.
type ReportConfig struct {
	// OutputDir is the directory report HTML files are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// PDF enables HTML-to-PDF conversion via wkhtmltopdf when present.
	PDF bool `json:"pdf" yaml:"pdf"`
}

// StoreConfig holds settings for the annotation store.
// Per prd009-annotation-store R1.2, R2.3.
type StoreConfig struct {
	// StoreDir is the base directory for the store (contains index/).
	StoreDir string `json:"store_dir" yaml:"store_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
