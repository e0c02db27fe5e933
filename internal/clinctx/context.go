// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clinctx classifies consolidated disease mentions by clinical
// context (history, family history, negated variants) and attaches drug
// purposes found through dependency-tree patterns.
// Implements: prd006-context (R1-R4); docs/ARCHITECTURE § Context.
package clinctx

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meshintel/vignette-annotator/internal/tokenize"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

// triggerMatch is one rule firing over a token range [start, end).
type triggerMatch struct {
	rule  int
	start int
	end   int
}

// matchTriggers finds every rule occurrence in the token stream, then keeps
// only the longest match wherever occurrences overlap. Without the pruning a
// phrase like "no family history of" would also fire the shorter "family
// history of" and "history of" rules inside it and the categories would
// fight each other.
func matchTriggers(rules []Rule, tokens []types.Token, parse []types.ParseToken) []triggerMatch {
	var all []triggerMatch
	for r := range rules {
		for i := 0; i < len(tokens); i++ {
			if end, ok := matchPatternAt(rules[r].Pattern, tokens, parse, i); ok {
				all = append(all, triggerMatch{rule: r, start: i, end: end})
			}
		}
	}

	// Longest wins; ties go to the earlier start, then rule order.
	sort.Slice(all, func(i, j int) bool {
		li, lj := all[i].end-all[i].start, all[j].end-all[j].start
		if li != lj {
			return li > lj
		}
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].rule < all[j].rule
	})

	var kept []triggerMatch
	for _, m := range all {
		conflict := false
		for _, k := range kept {
			if m.start < k.end && k.start < m.end {
				conflict = true
				break
			}
		}
		if !conflict {
			kept = append(kept, m)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].start < kept[j].start })
	return kept
}

// matchPatternAt tries to match a trigger pattern anchored at token i,
// returning the exclusive end offset on success. Optional elements may be
// skipped; lemma constraints read the parse when present.
func matchPatternAt(pattern []TokenPattern, tokens []types.Token, parse []types.ParseToken, i int) (int, bool) {
	pos := i
	for _, p := range pattern {
		if pos < len(tokens) && tokenMatches(p, tokens[pos], parse, pos) {
			pos++
			continue
		}
		if p.Optional {
			continue
		}
		return 0, false
	}
	return pos, true
}

func tokenMatches(p TokenPattern, tok types.Token, parse []types.ParseToken, pos int) bool {
	lower := strings.ToLower(tok.Text)

	if len(p.Lower) > 0 {
		found := false
		for _, w := range p.Lower {
			if lower == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if p.Lemma != "" {
		lemma := lower
		if pos < len(parse) && parse[pos].Lemma != "" {
			lemma = strings.ToLower(parse[pos].Lemma)
		}
		if lemma != p.Lemma {
			return false
		}
	}
	return true
}

// applyCategory writes one category onto a span. A family history finding
// overrides a plain history one: the mention belongs to a relative, not the
// patient.
func applyCategory(span *types.ConsolidatedSpan, cat Category) {
	switch cat {
	case History:
		span.IsHistory = true
	case FamilyHistory:
		span.IsFamilyHistory = true
		span.IsHistory = false
	case NoHistory:
		span.NeverHistory = true
	case NoFamilyHistory:
		span.NeverFamilyHistory = true
	}
}

// allowsLabel reports whether the rule applies to entities with the label.
func allowsLabel(r Rule, label string) bool {
	for _, t := range r.AllowedTypes {
		if t == label {
			return true
		}
	}
	return false
}

// ApplyRules runs the trigger rules over one annotated text, mutating entity
// flags in place. A trigger's scope runs from the trigger to the sentence
// boundary in its direction, truncated at the nearest other trigger, and
// only entities whose label the rule allows are touched (R2.1-R2.4).
func ApplyRules(text *types.AnnotatedText, parse []types.ParseToken, rules []Rule) {
	sentences := tokenize.SplitSentences(text.Tokens)
	if len(parse) == len(text.Tokens) && len(parse) > 0 {
		sentences = tokenize.SentencesFromParse(parse)
	}

	matches := matchTriggers(rules, text.Tokens, parse)

	for mi, m := range matches {
		rule := rules[m.rule]
		sent := sentenceOf(sentences, m.start)

		scopeStart, scopeEnd := m.end, sent.End
		if rule.Direction == Backward {
			scopeStart, scopeEnd = sent.Start, m.start
		}

		// Another trigger in the same direction closes the scope early.
		for mj, other := range matches {
			if mj == mi {
				continue
			}
			if rule.Direction == Forward && other.start >= m.end && other.start < scopeEnd {
				scopeEnd = other.start
			}
			if rule.Direction == Backward && other.end <= m.start && other.end > scopeStart {
				scopeStart = other.end
			}
		}

		for i := range text.Entities {
			ent := &text.Entities[i]
			if !allowsLabel(rule, ent.Label) {
				continue
			}
			// Full containment: an entity straddling a scope edge is left
			// untouched, unlike overlap-based modifier application.
			if ent.TokenStart >= scopeStart && ent.TokenEnd <= scopeEnd {
				applyCategory(ent, rule.Category)
			}
		}
	}
}

// sentenceOf returns the sentence containing the token offset, or a sentence
// spanning nothing when the offset is out of range.
func sentenceOf(sentences []tokenize.Sentence, tok int) tokenize.Sentence {
	for _, s := range sentences {
		if tok >= s.Start && tok < s.End {
			return s
		}
	}
	return tokenize.Sentence{}
}

// Result holds the classified documents and the per-page failures of a
// context run.
type Result struct {
	Documents []types.AnnotatedVignette
	Errors    []types.PageError
}

// HasFailures reports whether any page failed classification.
func (r Result) HasFailures() bool { return len(r.Errors) > 0 }

// parseByPage indexes the tagger outputs that carry dependency parses.
func parseByPage(outputs []types.ModelOutput) map[int]*types.ModelOutput {
	byPage := make(map[int]*types.ModelOutput, len(outputs))
	for i := range outputs {
		if len(outputs[i].ParseQuestion) > 0 || len(outputs[i].ParseAnswer) > 0 {
			byPage[outputs[i].BookPage] = &outputs[i]
		}
	}
	return byPage
}

// Run classifies every document: trigger rules always apply; dependency
// relation patterns apply when a parse for the page is available and aligns
// one to one with the canonical tokens. A page whose parse misaligns is a
// hard error for that page, not a silent downgrade (R3.4).
func Run(ctx context.Context, docs []types.AnnotatedVignette, parses []types.ModelOutput, cfg types.ContextConfig, logger *zap.Logger) (Result, error) {
	rules := DefaultRules(cfg.DiseaseLabel)
	patterns := DefaultPatterns(cfg.MedicationLabel, cfg.DiseaseLabel)
	parsed := parseByPage(parses)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	out := make([]types.AnnotatedVignette, len(docs))
	pageErrs := make([]*types.PageError, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range docs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			doc := docs[i]
			var parseQ, parseA []types.ParseToken
			if p, ok := parsed[doc.BookPage]; ok {
				parseQ, parseA = p.ParseQuestion, p.ParseAnswer
			}

			if err := classifyText(&doc.Question, parseQ, rules, patterns, logger); err != nil {
				pageErrs[i] = &types.PageError{BookPage: doc.BookPage, Error: fmt.Sprintf("question: %v", err)}
				return nil
			}
			if err := classifyText(&doc.Answer, parseA, rules, patterns, logger); err != nil {
				pageErrs[i] = &types.PageError{BookPage: doc.BookPage, Error: fmt.Sprintf("answer: %v", err)}
				return nil
			}

			out[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for i := range docs {
		if pageErrs[i] != nil {
			res.Errors = append(res.Errors, *pageErrs[i])
			continue
		}
		res.Documents = append(res.Documents, out[i])
	}
	return res, nil
}

// classifyText applies triggers and, when a parse is present, relation
// patterns to one text.
func classifyText(text *types.AnnotatedText, parse []types.ParseToken, rules []Rule, patterns []DepPattern, logger *zap.Logger) error {
	if len(parse) > 0 && len(parse) != len(text.Tokens) {
		return fmt.Errorf("parse has %d tokens, text has %d", len(parse), len(text.Tokens))
	}

	ApplyRules(text, parse, rules)

	if len(parse) > 0 {
		ExtractRelations(text, parse, patterns, logger)
	}
	return nil
}
