// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tokenize implements the canonical tokenizer: the single shared
// tokenization every consolidated annotation refers to.
// Implements: prd005-consolidation R1.3 (canonical coordinate space);
//
//	docs/ARCHITECTURE § Consolidation.
package tokenize

import (
	"unicode"
	"unicode/utf8"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

// isJoiner reports whether r may appear inside a word token when flanked by
// alphanumerics on both sides ("O'Brien", "Type-2").
func isJoiner(r rune) bool {
	return r == '\'' || r == '-'
}

// isWordRune reports whether r starts or extends a word token.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize splits text into canonical tokens with byte offsets into text.
// Word tokens are runs of letters and digits, allowing an internal hyphen or
// apostrophe between alphanumerics and a decimal point between digits.
// Every other non-space rune becomes a one-rune punctuation token, so
// sentence-final periods stay addressable as their own tokens.
//
// The tokenization is deterministic: the same text always yields the same
// token sequence.
func Tokenize(text string) []types.Token {
	var tokens []types.Token

	i := 0
	for i < len(text) {
		r, w := utf8.DecodeRuneInString(text[i:])

		if unicode.IsSpace(r) {
			i += w
			continue
		}

		if !isWordRune(r) {
			tokens = append(tokens, types.Token{Text: text[i : i+w], Start: i, End: i + w})
			i += w
			continue
		}

		start := i
		i += w
		for i < len(text) {
			r, w = utf8.DecodeRuneInString(text[i:])
			if isWordRune(r) {
				i += w
				continue
			}

			// A joiner or decimal point continues the token only when the
			// next rune keeps the run alphanumeric.
			next, nw := utf8.DecodeRuneInString(text[i+w:])
			if nw > 0 && isWordRune(next) {
				if isJoiner(r) || (r == '.' && unicode.IsDigit(next) && unicode.IsDigit(prevRune(text, i))) {
					i += w
					continue
				}
			}
			break
		}
		tokens = append(tokens, types.Token{Text: text[start:i], Start: start, End: i})
	}

	return tokens
}

func prevRune(text string, i int) rune {
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return r
}

// Sentence is a token range [Start, End) within one tokenized text.
type Sentence struct {
	Start int
	End   int
}

// SplitSentences derives sentence boundaries from the canonical tokens.
// A sentence ends after a ".", "!" or "?" token, with trailing closing
// quotes and brackets kept in the same sentence. Used when no parse with
// sentence marks is available.
func SplitSentences(tokens []types.Token) []Sentence {
	var sents []Sentence
	start := 0
	for i := 0; i < len(tokens); i++ {
		if !isSentenceEnd(tokens[i].Text) {
			continue
		}
		end := i + 1
		for end < len(tokens) && isCloser(tokens[end].Text) {
			end++
		}
		sents = append(sents, Sentence{Start: start, End: end})
		start = end
		i = end - 1
	}
	if start < len(tokens) {
		sents = append(sents, Sentence{Start: start, End: len(tokens)})
	}
	return sents
}

// SentencesFromParse derives sentence boundaries from parser sentence marks.
func SentencesFromParse(parse []types.ParseToken) []Sentence {
	var sents []Sentence
	start := 0
	for i := 1; i < len(parse); i++ {
		if parse[i].SentStart {
			sents = append(sents, Sentence{Start: start, End: i})
			start = i
		}
	}
	if start < len(parse) {
		sents = append(sents, Sentence{Start: start, End: len(parse)})
	}
	return sents
}

func isSentenceEnd(s string) bool {
	return s == "." || s == "!" || s == "?"
}

func isCloser(s string) bool {
	switch s {
	case ")", "]", "\"", "'", "”", "’":
		return true
	}
	return false
}
