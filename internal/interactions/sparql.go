// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package interactions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/meshintel/vignette-annotator/internal/httputil"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

// Client queries a Bio2RDF SPARQL endpoint for drug-drug interactions. One
// request covers one drug pair; requests are rate limited and retried with
// backoff through httputil.
type Client struct {
	endpoint   string
	userAgent  string
	maxRetries int
	http       *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client from the interaction configuration.
func NewClient(cfg types.InteractionConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		endpoint:   cfg.SPARQLEndpoint,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		http:       &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// pairQuery builds the SPARQL query asking whether two DrugBank drugs are
// interactors in a common interaction resource.
func pairQuery(id1, id2 string) string {
	var b strings.Builder
	b.WriteString(`PREFIX db: <http://bio2rdf.org/drugbank:>
PREFIX dct: <http://purl.org/dc/terms/>
PREFIX dv: <http://bio2rdf.org/drugbank_vocabulary:>
PREFIX bv: <http://bio2rdf.org/bio2rdf_vocabulary:>

SELECT DISTINCT ?d1_str ?drug1_label_str ?d2_str ?drug2_label_str ?titleddi_str
WHERE {
`)
	fmt.Fprintf(&b, "    VALUES ?db_drug1 {db:%s} .\n", id1)
	fmt.Fprintf(&b, "    VALUES ?db_drug2 {db:%s} .\n", id2)
	b.WriteString(`
    ?db_drug1 rdf:type dv:Drug;
              bv:identifier ?d1;
              dct:title ?drug1_label;
              dv:ddi-interactor-in ?interactor.

    ?db_drug2 rdf:type dv:Drug;
              bv:identifier ?d2;
              dct:title ?drug2_label;
              dv:ddi-interactor-in ?interactor.

    ?interactor dct:title ?titleddi.

    BIND(STR(?titleddi) AS ?titleddi_str).
    BIND(STR(?d1) AS ?d1_str).
    BIND(STR(?d2) AS ?d2_str).
    BIND(STR(?drug1_label) AS ?drug1_label_str).
    BIND(STR(?drug2_label) AS ?drug2_label_str).
}
`)
	return b.String()
}

// sparqlResponse mirrors the application/sparql-results+json envelope for
// the variables the pair query selects.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Lookup queries the endpoint for interactions between the pair. The empty
// binding list is a definitive "no interaction"; transport failures and
// non-2xx statuses after retries are errors.
func (c *Client) Lookup(ctx context.Context, id1, id2 string) ([]types.DrugInteraction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{"query": {pairQuery(id1, id2)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building SPARQL request: %w", err)
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("SPARQL endpoint returned %s", resp.Status)
	}

	var parsed sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding SPARQL results: %w", err)
	}

	var hits []types.DrugInteraction
	for _, binding := range parsed.Results.Bindings {
		hits = append(hits, types.DrugInteraction{
			Interaction: binding["titleddi_str"].Value,
			Drug1ID:     binding["d1_str"].Value,
			Drug2ID:     binding["d2_str"].Value,
			Drug1Name:   binding["drug1_label_str"].Value,
			Drug2Name:   binding["drug2_label_str"].Value,
		})
	}
	return hits, nil
}
