// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lexicon implements rule-based medication spotting against the
// DrugBank vocabulary: case-insensitive whole-word matches, longest span wins.
// Implements: prd003-lexicon (R1-R3);
//
//	docs/ARCHITECTURE § Lexicon Matching.
package lexicon

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/meshintel/vignette-annotator/internal/tokenize"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

// ModelName is the recognizer name lexicon matches are filed under during
// consolidation.
const ModelName = "drugbank"

// Label is the single label the lexicon matcher emits.
const Label = "MEDICATION_DRUGBANK"

// Matcher spots vocabulary names in text with one Aho-Corasick automaton
// built over the lowercased names.
type Matcher struct {
	ac *ahocorasick.Automaton

	// entries[i] is the vocabulary entry for pattern index i. When two
	// vocabulary rows share a name, the first row wins, matching the
	// first-hit lookup of the vocabulary table.
	entries []types.VocabEntry
}

// NewMatcher builds a matcher from the preprocessed vocabulary. Entries with
// empty names are skipped.
func NewMatcher(vocab []types.VocabEntry) (*Matcher, error) {
	var patterns []string
	var entries []types.VocabEntry
	seen := make(map[string]bool)

	for _, e := range vocab {
		name := asciiLower(strings.TrimSpace(e.CommonName))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		patterns = append(patterns, name)
		entries = append(entries, e)
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}

	ac, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("building automaton: %w", err)
	}

	return &Matcher{ac: ac, entries: entries}, nil
}

// Match returns the non-overlapping longest vocabulary matches in text,
// sorted by character start. Candidate spans are collected with overlaps
// allowed, then filtered longest-first: a span is accepted only if it does
// not overlap an already-accepted span, so a name that is a substring of a
// longer listed name never double-counts (R2.3).
func (m *Matcher) Match(text string) []types.RawEntityMatch {
	haystack := asciiLower(text)
	tokens := tokenize.Tokenize(text)

	var candidates []types.RawEntityMatch
	for _, hit := range m.ac.FindAllOverlapping([]byte(haystack)) {
		if !wholeWord(text, hit.Start, hit.End) {
			continue
		}
		entry := m.entries[hit.PatternID]
		tokStart, tokEnd, ok := tokenSpan(tokens, hit.Start, hit.End)
		if !ok {
			continue
		}
		candidates = append(candidates, types.RawEntityMatch{
			Model:       ModelName,
			Entity:      text[hit.Start:hit.End],
			Label:       Label,
			CharLimits:  [2]int{hit.Start, hit.End},
			TokenLimits: [2]int{tokStart, tokEnd},
			DrugBankID:  entry.DrugBankID,
		})
	}

	return filterSpans(candidates)
}

// MatchVignette runs the matcher over both texts of a vignette and returns
// the model-output record consumed by consolidation.
func (m *Matcher) MatchVignette(v types.Vignette) types.ModelOutput {
	return types.ModelOutput{
		BookPage:     v.BookPage,
		Question:     v.Question,
		Answer:       v.Answer,
		BnerQuestion: m.Match(v.Question),
		BnerAnswer:   m.Match(v.Answer),
	}
}

// filterSpans keeps the longest non-overlapping candidates: sort by length
// descending (start ascending on ties), accept a span only when it overlaps
// no accepted span, return accepted spans in text order.
func filterSpans(candidates []types.RawEntityMatch) []types.RawEntityMatch {
	sorted := make([]types.RawEntityMatch, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		li := sorted[i].CharLimits[1] - sorted[i].CharLimits[0]
		lj := sorted[j].CharLimits[1] - sorted[j].CharLimits[0]
		if li != lj {
			return li > lj
		}
		return sorted[i].CharLimits[0] < sorted[j].CharLimits[0]
	})

	var accepted []types.RawEntityMatch
	for _, c := range sorted {
		overlaps := false
		for _, a := range accepted {
			if c.CharLimits[0] < a.CharLimits[1] && a.CharLimits[0] < c.CharLimits[1] {
				overlaps = true
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, c)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].CharLimits[0] < accepted[j].CharLimits[0]
	})
	return accepted
}

// tokenSpan maps a character range to canonical token offsets. Matches land
// on word boundaries, so the range aligns with whole tokens.
func tokenSpan(tokens []types.Token, charStart, charEnd int) (int, int, bool) {
	start, end := -1, -1
	for i, tok := range tokens {
		if start == -1 && tok.End > charStart {
			start = i
		}
		if tok.Start < charEnd {
			end = i
		}
	}
	if start == -1 || end < start {
		return 0, 0, false
	}
	return start, end + 1, true
}

// wholeWord reports whether the byte range sits on word boundaries in text.
func wholeWord(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// asciiLower lowercases ASCII letters only, preserving byte offsets for
// non-ASCII content.
func asciiLower(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}
