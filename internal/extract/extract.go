// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls clinical vignettes out of the source book: the PDF
// is rendered to paginated XHTML, split into pages, and each selected page
// yields a question whose answer sits on the following page.
// Implements: prd001-extraction (R1-R4); docs/ARCHITECTURE § Extraction.
package extract

import (
	"fmt"
	"strings"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

// pageMarker opens each page division in Tika's XHTML rendering.
const pageMarker = `<div class="page">`

// Result holds the vignettes and per-page failures of an extraction run.
type Result struct {
	Vignettes []types.Vignette
	Errors    []types.PageError
}

// HasFailures reports whether any page failed extraction.
func (r Result) HasFailures() bool { return len(r.Errors) > 0 }

// SplitPages cuts the XHTML rendering of the book into per-page text. Only
// the body is kept; paragraph and division tags are stripped so the page
// text is flat. Page indices follow the rendering order, starting at zero.
func SplitPages(xhtml string) ([]string, error) {
	_, body, found := strings.Cut(xhtml, "<body>")
	if !found {
		return nil, fmt.Errorf("no <body> element in XHTML input")
	}
	body, _, _ = strings.Cut(body, "</body>")

	replacer := strings.NewReplacer("<p>", "", "</p>", "", "<div>", "", "</div>", "", "<p />", "")
	body = replacer.Replace(body)

	parts := strings.Split(body, pageMarker)
	if len(parts) < 2 {
		return nil, fmt.Errorf("no page divisions in XHTML input")
	}
	return parts[1:], nil
}

// unescape reverses the XML escaping Tika applies to text content.
func unescape(s string) string {
	return strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&").Replace(s)
}

// cutBetween returns the trimmed text between the first occurrences of
// start and end.
func cutBetween(s, start, end string) (string, error) {
	i := strings.Index(s, start)
	if i < 0 {
		return "", fmt.Errorf("delimiter %q not found", start)
	}
	s = s[i+len(start):]
	j := strings.Index(s, end)
	if j < 0 {
		return "", fmt.Errorf("delimiter %q not found", end)
	}
	return strings.TrimSpace(s[:j]), nil
}

// Case extracts one vignette: the question on the given page and its answer
// on the page that follows. Newlines are flattened to spaces before the
// delimiters are searched.
func Case(pages []string, pageID int, cfg types.ExtractConfig) (types.Vignette, error) {
	if pageID < 0 || pageID+1 >= len(pages) {
		return types.Vignette{}, fmt.Errorf("page %d out of range (%d pages)", pageID, len(pages))
	}

	questionPage := strings.ReplaceAll(pages[pageID], "\n", " ")
	answerPage := strings.ReplaceAll(pages[pageID+1], "\n", " ")

	question, err := cutBetween(questionPage, cfg.QuestionStart, cfg.QuestionEnd)
	if err != nil {
		return types.Vignette{}, fmt.Errorf("question: %w", err)
	}
	answer, err := cutBetween(answerPage, cfg.AnswerStart, cfg.AnswerEnd)
	if err != nil {
		return types.Vignette{}, fmt.Errorf("answer: %w", err)
	}

	return types.Vignette{
		BookPage: pageID,
		Question: unescape(question),
		Answer:   unescape(answer),
	}, nil
}

// Cases extracts the selected pages, collecting per-page failures instead of
// aborting the run. Failed pages never appear in the output as empty
// vignettes.
func Cases(pages []string, pageIDs []int, cfg types.ExtractConfig) Result {
	var res Result
	for _, id := range pageIDs {
		v, err := Case(pages, id, cfg)
		if err != nil {
			res.Errors = append(res.Errors, types.PageError{BookPage: id, Error: err.Error()})
			continue
		}
		res.Vignettes = append(res.Vignettes, v)
	}
	return res
}
