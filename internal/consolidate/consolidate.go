// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package consolidate merges entity recognizer outputs from multiple models
// onto the canonical tokenization, resolving span conflicts by fixed model
// priority and republishing per-token classification flags.
// Implements: prd005-consolidation (R1-R5);
//
//	docs/ARCHITECTURE § Consolidation.
package consolidate

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meshintel/vignette-annotator/internal/tokenize"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

// MetaDrugBankID and MetaRxNormLink key the MedicationDetails map of a
// consolidated medication span.
const (
	MetaDrugBankID = "drugbank_id"
	MetaRxNormLink = "rxnorm_link"
)

// Result holds the documents and per-page failures of a consolidation run.
type Result struct {
	Documents []types.AnnotatedVignette
	Errors    []types.PageError
}

// HasFailures reports whether any page failed consolidation.
func (r Result) HasFailures() bool { return len(r.Errors) > 0 }

// Run consolidates every page present in the model outputs. A page missing
// any model named in the priority order is a hard error for that page only:
// it is recorded in Result.Errors and skipped, never silently defaulted to
// "no entities" (R2.2). Pages are independent and processed by a bounded
// worker pool; shared state is read-only configuration, so the output is
// identical run to run.
func Run(ctx context.Context, outputsByModel map[string][]types.ModelOutput, cfg types.ConsolidationConfig, logger *zap.Logger) (Result, error) {
	if len(cfg.Priority) == 0 {
		return Result{}, fmt.Errorf("consolidation priority order is empty")
	}
	for _, model := range cfg.Priority {
		if _, ok := outputsByModel[model]; !ok {
			return Result{}, fmt.Errorf("no output file loaded for model %q", model)
		}
	}

	// Index model outputs by page and collect the page universe.
	byPage := make(map[string]map[int]*types.ModelOutput, len(outputsByModel))
	pageSet := make(map[int]bool)
	for model, outputs := range outputsByModel {
		byPage[model] = make(map[int]*types.ModelOutput, len(outputs))
		for i := range outputs {
			byPage[model][outputs[i].BookPage] = &outputs[i]
			pageSet[outputs[i].BookPage] = true
		}
	}
	pages := make([]int, 0, len(pageSet))
	for p := range pageSet {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	docs := make([]*types.AnnotatedVignette, len(pages))
	pageErrs := make([]*types.PageError, len(pages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, page := range pages {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			perModel := make(map[string]*types.ModelOutput, len(cfg.Priority))
			for _, model := range cfg.Priority {
				out, ok := byPage[model][page]
				if !ok {
					logger.Warn("page missing required model output",
						zap.Int("book_page", page), zap.String("model", model))
					pageErrs[i] = &types.PageError{
						BookPage: page,
						Error:    fmt.Sprintf("missing output of model %q", model),
					}
					return nil
				}
				perModel[model] = out
			}

			doc, err := Page(page, perModel, cfg, logger)
			if err != nil {
				pageErrs[i] = &types.PageError{BookPage: page, Error: err.Error()}
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for i := range pages {
		if pageErrs[i] != nil {
			res.Errors = append(res.Errors, *pageErrs[i])
			continue
		}
		res.Documents = append(res.Documents, *docs[i])
	}
	return res, nil
}

// Page consolidates one vignette from the per-model outputs, which must
// contain every model in the priority order. The vignette text is taken from
// the highest-priority model's record; all records refer to the same
// underlying text.
func Page(page int, perModel map[string]*types.ModelOutput, cfg types.ConsolidationConfig, logger *zap.Logger) (*types.AnnotatedVignette, error) {
	first := perModel[cfg.Priority[0]]

	question, err := Text(first.Question, types.RoleQuestion, page, perModel, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("question: %w", err)
	}
	answer, err := Text(first.Answer, types.RoleAnswer, page, perModel, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}

	return &types.AnnotatedVignette{
		BookPage: page,
		Question: question,
		Answer:   answer,
	}, nil
}

// Text consolidates one text of a vignette. The text is re-tokenized exactly
// once; models are processed strictly in priority order; each raw match is
// aligned to token boundaries with the expand rule and offered to the
// canonical entity set, which stays an antichain under overlap (R3.1-R3.3).
func Text(text string, role types.TextRole, page int, perModel map[string]*types.ModelOutput, cfg types.ConsolidationConfig, logger *zap.Logger) (types.AnnotatedText, error) {
	tokens := tokenize.Tokenize(text)
	index := NewIndex()

	var entities []types.ConsolidatedSpan
	var abbrevs []types.Abbreviation
	seenAbbrev := make(map[types.Abbreviation]bool)

	for _, model := range cfg.Priority {
		out := perModel[model]

		matches := out.BnerQuestion
		modelAbbrevs := out.AbbrevQuestion
		if role == types.RoleAnswer {
			matches = out.BnerAnswer
			modelAbbrevs = out.AbbrevAnswer
		}

		for _, m := range matches {
			tokStart, tokEnd, ok := alignExpand(tokens, m.CharLimits[0], m.CharLimits[1], len(text))
			if !ok {
				logger.Warn("dropping match with unalignable offsets",
					zap.Int("book_page", page),
					zap.String("role", string(role)),
					zap.String("model", model),
					zap.String("entity", m.Entity),
					zap.Ints("char_limits", m.CharLimits[:]))
				continue
			}

			label := model + ":" + m.Label

			// Priority order decides conflicts: a span enters the canonical
			// entity set only when nothing already in the index overlaps it.
			if !index.Overlaps(tokStart, tokEnd) {
				span := types.ConsolidatedSpan{
					TokenStart: tokStart,
					TokenEnd:   tokEnd,
					Label:      label,
					Text:       text[tokens[tokStart].Start:tokens[tokEnd-1].End],
				}
				if m.DrugBankID != "" {
					span.IsMedication = true
					span.MedicationDetails = map[string]string{MetaDrugBankID: m.DrugBankID}
				} else if m.RxNormLink != "" {
					span.IsMedication = true
					span.MedicationDetails = map[string]string{MetaRxNormLink: m.RxNormLink}
				}
				entities = append(entities, span)
			}

			// Losing spans still feed the per-token label union.
			index.Insert(tokStart, tokEnd, label)
		}

		for _, a := range modelAbbrevs {
			if seenAbbrev[a] {
				continue
			}
			seenAbbrev[a] = true
			abbrevs = append(abbrevs, a)
		}
	}

	sort.Slice(entities, func(i, j int) bool {
		return entities[i].TokenStart < entities[j].TokenStart
	})

	tokenLabels := make([][]string, len(tokens))
	tokenFlags := make([]types.TokenFlags, len(tokens))
	for i := range tokens {
		labels := index.Stab(i)
		tokenLabels[i] = labels
		tokenFlags[i] = promoteFlags(labels, cfg)
	}

	return types.AnnotatedText{
		Role:          role,
		Text:          text,
		Tokens:        tokens,
		Entities:      entities,
		TokenLabels:   tokenLabels,
		TokenFlags:    tokenFlags,
		Abbreviations: abbrevs,
	}, nil
}

// promoteFlags derives the exclusive token flags from a token's label set,
// checked in fixed order: organ, then disease, then medication (R4.2).
func promoteFlags(labels []string, cfg types.ConsolidationConfig) types.TokenFlags {
	has := func(want string) bool {
		for _, l := range labels {
			if l == want {
				return true
			}
		}
		return false
	}

	switch {
	case has(cfg.OrganLabel):
		return types.TokenFlags{IsBodyOrgan: true}
	case has(cfg.DiseaseLabel):
		return types.TokenFlags{IsDisease: true}
	case has(cfg.MedicationLabel):
		return types.TokenFlags{IsMedication: true}
	}
	return types.TokenFlags{}
}

// alignExpand maps a character range onto canonical token offsets with the
// expand-to-boundary rule: a character bound inside a token pulls in the
// whole token. Alignment can only widen a span, so it cannot fail for any
// in-range offsets that touch at least one token; offsets outside the text
// or spans covering only whitespace report ok=false.
func alignExpand(tokens []types.Token, charStart, charEnd, textLen int) (tokStart, tokEnd int, ok bool) {
	if charStart < 0 || charEnd > textLen || charStart >= charEnd {
		return 0, 0, false
	}

	first, last := -1, -1
	for i, tok := range tokens {
		if tok.End > charStart && tok.Start < charEnd {
			if first == -1 {
				first = i
			}
			last = i
		}
		if tok.Start >= charEnd {
			break
		}
	}
	if first == -1 {
		return 0, 0, false
	}
	return first, last + 1, true
}
