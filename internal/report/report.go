// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders one HTML report per annotated vignette: the texts
// with highlighted mentions, the health issue table, the medication table
// and the drug-drug interactions, plus an index page over all reports.
// Implements: prd008-report (R1-R4); docs/ARCHITECTURE § Reports.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

// Highlight colors per prefixed label, matching the published reports.
var labelColors = map[string]string{
	"drugbank:MEDICATION_DRUGBANK": "#fce9a2",
	"bc5cdr:DISEASE":               "#facdee",
}

const defaultColor = "#e3e8e7"

// Highlight renders the text with every canonical entity wrapped in a
// colored mark element. Non-entity text is escaped verbatim.
func Highlight(text *types.AnnotatedText) template.HTML {
	var b strings.Builder
	pos := 0
	for i := range text.Entities {
		ent := &text.Entities[i]
		start := text.Tokens[ent.TokenStart].Start
		end := text.Tokens[ent.TokenEnd-1].End

		b.WriteString(template.HTMLEscapeString(text.Text[pos:start]))

		color, ok := labelColors[ent.Label]
		if !ok {
			color = defaultColor
		}
		fmt.Fprintf(&b, `<mark style="background: %s" title="%s">%s</mark>`,
			color,
			template.HTMLEscapeString(ent.Label),
			template.HTMLEscapeString(text.Text[start:end]))
		pos = end
	}
	b.WriteString(template.HTMLEscapeString(text.Text[pos:]))
	return template.HTML(b.String())
}

// HealthIssues buckets the disease mentions of both texts by context, with
// case-insensitive deduplication. A mention with no context flag is a
// current finding of the patient.
type HealthIssues struct {
	Current     []string
	Historic    []string
	Never       []string
	Family      []string
	NeverFamily []string
}

func collectDiseases(doc *types.AnnotatedVignette, diseaseLabel string) HealthIssues {
	var issues HealthIssues
	seen := map[string]map[string]bool{}
	add := func(bucket string, list *[]string, name string) {
		name = strings.ToLower(name)
		if seen[bucket] == nil {
			seen[bucket] = map[string]bool{}
		}
		if seen[bucket][name] {
			return
		}
		seen[bucket][name] = true
		*list = append(*list, name)
	}

	for _, text := range []*types.AnnotatedText{&doc.Question, &doc.Answer} {
		for i := range text.Entities {
			ent := &text.Entities[i]
			if ent.Label != diseaseLabel {
				continue
			}
			switch {
			case ent.IsFamilyHistory:
				add("family", &issues.Family, ent.Text)
			case ent.NeverFamilyHistory:
				add("never_family", &issues.NeverFamily, ent.Text)
			case ent.IsHistory:
				add("historic", &issues.Historic, ent.Text)
			case ent.NeverHistory:
				add("never", &issues.Never, ent.Text)
			default:
				add("current", &issues.Current, ent.Text)
			}
		}
	}

	for _, list := range []*[]string{&issues.Current, &issues.Historic, &issues.Never, &issues.Family, &issues.NeverFamily} {
		sort.Strings(*list)
	}
	return issues
}

// MedicationRow is one row of the medication table.
type MedicationRow struct {
	Name       string
	Purpose    string
	DrugBankID string
	RxNormLink string
}

func collectMedications(doc *types.AnnotatedVignette, medLabel string) []MedicationRow {
	var rows []MedicationRow
	seen := map[string]bool{}
	for _, text := range []*types.AnnotatedText{&doc.Question, &doc.Answer} {
		for i := range text.Entities {
			ent := &text.Entities[i]
			if ent.Label != medLabel {
				continue
			}
			key := strings.ToLower(ent.Text) + "|" + ent.MedicationDetails["drugbank_id"]
			if seen[key] {
				continue
			}
			seen[key] = true
			rows = append(rows, MedicationRow{
				Name:       ent.Text,
				Purpose:    ent.Purpose,
				DrugBankID: ent.MedicationDetails["drugbank_id"],
				RxNormLink: ent.MedicationDetails["rxnorm_link"],
			})
		}
	}
	return rows
}

// page is the template context for one vignette report.
type page struct {
	BookPage      int
	Question      template.HTML
	Answer        template.HTML
	Issues        HealthIssues
	Medications   []MedicationRow
	Abbreviations []types.Abbreviation
	Interactions  []types.DrugInteraction
	Unresolved    [][2]string
	HasInteracted bool
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Clinical vignette of book page {{.BookPage}}</title>
<style>
table, th, td { border: 1px solid black; border-collapse: collapse; padding: 4px; }
tr:nth-child(odd) { background: rgba(227, 232, 231, 0.7); }
mark { padding: 1px 3px; border-radius: 3px; }
body { font-family: sans-serif; font-size: 14px; max-width: 60em; }
</style>
</head>
<body>
<h2>Clinical vignette of book page {{.BookPage}}</h2>

<h3>Question</h3>
<p>{{.Question}}</p>

<h3>Answer</h3>
<p>{{.Answer}}</p>

<h3>Health issues</h3>
<table>
<tr><th></th><th>Current</th><th>Historic</th><th>Never</th></tr>
<tr>
  <td>Patient</td>
  <td><ul>{{range .Issues.Current}}<li>{{.}}</li>{{end}}</ul></td>
  <td><ul>{{range .Issues.Historic}}<li>{{.}}</li>{{end}}</ul></td>
  <td><ul>{{range .Issues.Never}}<li>{{.}}</li>{{end}}</ul></td>
</tr>
<tr>
  <td>Patient's Family</td>
  <td> - </td>
  <td><ul>{{range .Issues.Family}}<li>{{.}}</li>{{end}}</ul></td>
  <td><ul>{{range .Issues.NeverFamily}}<li>{{.}}</li>{{end}}</ul></td>
</tr>
</table>

<h3>Medication</h3>
<table>
<tr><th>Medication</th><th>Purpose</th><th>DrugBank ID</th><th>RxNorm</th></tr>
{{range .Medications}}<tr>
  <td>{{.Name}}</td>
  <td>{{.Purpose}}</td>
  <td>{{if .DrugBankID}}<a href="https://go.drugbank.com/drugs/{{.DrugBankID}}">{{.DrugBankID}}</a>{{else}}-{{end}}</td>
  <td>{{if .RxNormLink}}{{.RxNormLink}}{{else}}-{{end}}</td>
</tr>{{end}}
</table>

{{if .Abbreviations}}<h3>Abbreviations</h3>
<ul>{{range .Abbreviations}}<li><b>{{.Abbrev}}</b>: {{.Extended}}</li>{{end}}</ul>
{{end}}

{{if .HasInteracted}}<h3>Drug-drug interactions</h3>
<table>
<tr><th>Drug 1</th><th>Drug 2</th><th>Interaction</th></tr>
{{range .Interactions}}<tr>
  <td>{{.Drug1Name}} ({{.Drug1ID}})</td>
  <td>{{.Drug2Name}} ({{.Drug2ID}})</td>
  <td>{{.Interaction}}</td>
</tr>{{end}}
</table>
{{end}}

{{if .Unresolved}}<h3>Unresolved lookups</h3>
<p>The following drug pairs could not be checked for interactions:</p>
<ul>{{range .Unresolved}}<li>{{index . 0}} / {{index . 1}}</li>{{end}}</ul>
{{end}}

</body>
</html>
`))

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Vignette reports</title></head>
<body>
<h2>Vignette reports</h2>
<ul>
{{range .}}<li><a href="Report_Page_{{.}}.html">Book page {{.}}</a></li>
{{end}}</ul>
</body>
</html>
`))

// Render produces the report HTML for one document.
func Render(doc *types.AnnotatedVignette, cfg types.ConsolidationConfig) (string, error) {
	ctx := page{
		BookPage:      doc.BookPage,
		Question:      Highlight(&doc.Question),
		Answer:        Highlight(&doc.Answer),
		Issues:        collectDiseases(doc, cfg.DiseaseLabel),
		Medications:   collectMedications(doc, cfg.MedicationLabel),
		Abbreviations: append(append([]types.Abbreviation{}, doc.Question.Abbreviations...), doc.Answer.Abbreviations...),
		Interactions:  doc.Interactions,
		Unresolved:    doc.UnresolvedPairs,
		HasInteracted: len(doc.Interactions) > 0,
	}

	var b strings.Builder
	if err := pageTemplate.Execute(&b, ctx); err != nil {
		return "", fmt.Errorf("rendering report for page %d: %w", doc.BookPage, err)
	}
	return b.String(), nil
}

// WriteReports renders every document into cfg.OutputDir as
// Report_Page_N.html plus an index.html, returning the written paths.
func WriteReports(docs []types.AnnotatedVignette, labels types.ConsolidationConfig, cfg types.ReportConfig) ([]string, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	var paths []string
	var pages []int
	for i := range docs {
		html, err := Render(&docs[i], labels)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("Report_Page_%d.html", docs[i].BookPage)
		path := filepath.Join(cfg.OutputDir, name)
		if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		paths = append(paths, path)
		pages = append(pages, docs[i].BookPage)
	}

	var b strings.Builder
	if err := indexTemplate.Execute(&b, pages); err != nil {
		return nil, fmt.Errorf("rendering index: %w", err)
	}
	indexPath := filepath.Join(cfg.OutputDir, "index.html")
	if err := os.WriteFile(indexPath, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("writing index: %w", err)
	}
	return append(paths, indexPath), nil
}
