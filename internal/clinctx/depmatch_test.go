// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clinctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

// parseSpec builds an aligned parse from per-token (pos, head) attributes.
// Lemmas default to the lowercase surface form.
func parseSpec(text *types.AnnotatedText, pos []string, heads []int) []types.ParseToken {
	parse := make([]types.ParseToken, len(text.Tokens))
	for i, tok := range text.Tokens {
		parse[i] = types.ParseToken{
			Text:      tok.Text,
			Lemma:     lowerLemma(tok.Text),
			POS:       pos[i],
			Head:      heads[i],
			SentStart: i == 0,
		}
	}
	return parse
}

func lowerLemma(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func TestExtractRelationsVerbMedForDisease(t *testing.T) {
	text := annotated(t, "He takes metformin for diabetes.", []testEnt{
		{phrase: "metformin", label: medLabel, drugbankID: "DB00331"},
		{phrase: "diabetes", label: diseaseLabel},
	})
	// He(0) takes(1) metformin(2) for(3) diabetes(4) .(5)
	pos := []string{"PRON", "VERB", "NOUN", "ADP", "NOUN", "PUNCT"}
	heads := []int{1, 1, 1, 1, 3, 1}

	patterns := DefaultPatterns(medLabel, diseaseLabel)
	ExtractRelations(&text, parseSpec(&text, pos, heads), patterns, zap.NewNop())

	assert.Equal(t, "diabetes", entByText(t, &text, "metformin").Purpose)
	assert.Empty(t, entByText(t, &text, "diabetes").Purpose)
}

func TestExtractRelationsPrepositionOnDrug(t *testing.T) {
	text := annotated(t, "He takes metformin for diabetes.", []testEnt{
		{phrase: "metformin", label: medLabel, drugbankID: "DB00331"},
		{phrase: "diabetes", label: diseaseLabel},
	})
	// Same sentence, "for" attached to the drug instead of the verb.
	pos := []string{"PRON", "VERB", "NOUN", "ADP", "NOUN", "PUNCT"}
	heads := []int{1, 1, 1, 2, 3, 1}

	patterns := DefaultPatterns(medLabel, diseaseLabel)
	ExtractRelations(&text, parseSpec(&text, pos, heads), patterns, zap.NewNop())

	assert.Equal(t, "diabetes", entByText(t, &text, "metformin").Purpose)
}

func TestExtractRelationsOnMedication(t *testing.T) {
	text := annotated(t, "She is on lisinopril for hypertension.", []testEnt{
		{phrase: "lisinopril", label: medLabel, drugbankID: "DB00722"},
		{phrase: "hypertension", label: diseaseLabel},
	})
	// She(0) is(1) on(2) lisinopril(3) for(4) hypertension(5) .(6)
	pos := []string{"PRON", "AUX", "ADP", "NOUN", "ADP", "NOUN", "PUNCT"}
	heads := []int{1, 1, 1, 2, 3, 4, 1}

	patterns := DefaultPatterns(medLabel, diseaseLabel)
	ExtractRelations(&text, parseSpec(&text, pos, heads), patterns, zap.NewNop())

	assert.Equal(t, "hypertension", entByText(t, &text, "lisinopril").Purpose)
}

func TestExtractRelationsRespectively(t *testing.T) {
	text := annotated(t, "Patient takes metformin and lisinopril for diabetes and hypertension respectively.", []testEnt{
		{phrase: "metformin", label: medLabel, drugbankID: "DB00331"},
		{phrase: "lisinopril", label: medLabel, drugbankID: "DB00722"},
		{phrase: "diabetes", label: diseaseLabel},
		{phrase: "hypertension", label: diseaseLabel},
	})
	// Patient(0) takes(1) metformin(2) and(3) lisinopril(4) for(5)
	// diabetes(6) and(7) hypertension(8) respectively(9) .(10)
	pos := []string{"NOUN", "VERB", "NOUN", "CCONJ", "NOUN", "ADP", "NOUN", "CCONJ", "NOUN", "ADV", "PUNCT"}
	heads := []int{1, 1, 1, 2, 2, 1, 5, 8, 6, 1, 1}

	patterns := DefaultPatterns(medLabel, diseaseLabel)
	ExtractRelations(&text, parseSpec(&text, pos, heads), patterns, zap.NewNop())

	assert.Equal(t, "diabetes", entByText(t, &text, "metformin").Purpose)
	assert.Equal(t, "hypertension", entByText(t, &text, "lisinopril").Purpose)
}

func TestExtractRelationsCoordinationNeedsBothPurposes(t *testing.T) {
	// Same coordination shape, but the second purpose token is not part of
	// any canonical entity: no pair is written, including the one that could
	// have resolved.
	text := annotated(t, "Patient takes metformin and lisinopril for diabetes and rest respectively.", []testEnt{
		{phrase: "metformin", label: medLabel, drugbankID: "DB00331"},
		{phrase: "lisinopril", label: medLabel, drugbankID: "DB00722"},
		{phrase: "diabetes", label: diseaseLabel},
	})
	pos := []string{"NOUN", "VERB", "NOUN", "CCONJ", "NOUN", "ADP", "NOUN", "CCONJ", "NOUN", "ADV", "PUNCT"}
	heads := []int{1, 1, 1, 2, 2, 1, 5, 8, 6, 1, 1}

	var patterns []DepPattern
	for _, p := range DefaultPatterns(medLabel, diseaseLabel) {
		if p.Name == "respectively-pairs" {
			patterns = append(patterns, p)
		}
	}
	require.Len(t, patterns, 1)
	ExtractRelations(&text, parseSpec(&text, pos, heads), patterns, zap.NewNop())

	assert.Empty(t, entByText(t, &text, "metformin").Purpose)
	assert.Empty(t, entByText(t, &text, "lisinopril").Purpose)
}

func TestExtractRelationsDiscardsUnresolvedRole(t *testing.T) {
	// The medication token carries the consolidated medication flag from a
	// span that lost its canonical slot, so the flag-based pattern binds it,
	// but there is no containing entity to write to. The match is discarded.
	text := annotated(t, "He takes metformin 500, for diabetes.", []testEnt{
		{phrase: "diabetes", label: diseaseLabel},
	})
	// He(0) takes(1) metformin(2) 500(3) ,(4) for(5) diabetes(6) .(7)
	text.TokenFlags[2].IsMedication = true
	pos := []string{"PRON", "VERB", "NOUN", "NUM", "PUNCT", "ADP", "NOUN", "PUNCT"}
	heads := []int{1, 1, 1, 2, 1, 4, 5, 1}

	patterns := DefaultPatterns(medLabel, diseaseLabel)
	ExtractRelations(&text, parseSpec(&text, pos, heads), patterns, zap.NewNop())

	assert.Empty(t, entByText(t, &text, "diabetes").Purpose)
}

func TestExtractRelationsLaterMatchOverwrites(t *testing.T) {
	text := annotated(t, "He takes metformin for diabetes.", []testEnt{
		{phrase: "metformin", label: medLabel, drugbankID: "DB00331"},
		{phrase: "diabetes", label: diseaseLabel},
	})
	pos := []string{"PRON", "VERB", "NOUN", "ADP", "NOUN", "PUNCT"}
	heads := []int{1, 1, 1, 1, 3, 1}

	patterns := []DepPattern{
		{
			Name: "first",
			Nodes: []DepNode{
				{ID: "verb", Attrs: NodeAttrs{POS: []string{"VERB"}}},
				{ID: "medication", Left: "verb", Attrs: NodeAttrs{EntLabel: []string{medLabel}}},
			},
			Pairs: []RolePair{{Medication: "medication", Purpose: "medication"}},
		},
		{
			Name: "second",
			Nodes: []DepNode{
				{ID: "verb", Attrs: NodeAttrs{POS: []string{"VERB"}}},
				{ID: "for", Left: "verb", Attrs: NodeAttrs{POS: []string{"ADP"}}},
				{ID: "medication", Left: "verb", Attrs: NodeAttrs{EntLabel: []string{medLabel}}},
			},
			Pairs: []RolePair{{Medication: "medication", Purpose: "medication"}},
		},
	}
	// Both patterns write a purpose for metformin; with self-referential
	// pairs the written text is the same, so distinguish by mutating between
	// registrations instead: give the second pattern a different purpose
	// node.
	patterns[1].Nodes = append(patterns[1].Nodes,
		DepNode{ID: "disease", Left: "for", Attrs: NodeAttrs{EntLabel: []string{diseaseLabel}}})
	patterns[1].Pairs = []RolePair{{Medication: "medication", Purpose: "disease"}}

	ExtractRelations(&text, parseSpec(&text, pos, heads), patterns, zap.NewNop())

	assert.Equal(t, "diabetes", entByText(t, &text, "metformin").Purpose,
		"the later pattern's write must win")
}

func TestMatchPatternStaysInSentence(t *testing.T) {
	text := annotated(t, "He takes metformin. It is for diabetes.", []testEnt{
		{phrase: "metformin", label: medLabel, drugbankID: "DB00331"},
		{phrase: "diabetes", label: diseaseLabel},
	})
	// He(0) takes(1) metformin(2) .(3) It(4) is(5) for(6) diabetes(7) .(8)
	parse := parseSpec(&text,
		[]string{"PRON", "VERB", "NOUN", "PUNCT", "PRON", "AUX", "ADP", "NOUN", "PUNCT"},
		[]int{1, 1, 1, 1, 5, 5, 5, 6, 5})
	parse[4].SentStart = true

	patterns := DefaultPatterns(medLabel, diseaseLabel)
	ExtractRelations(&text, parse, patterns, zap.NewNop())

	assert.Empty(t, entByText(t, &text, "metformin").Purpose,
		"relations must not span sentences")
}

func TestNewMatcherChildren(t *testing.T) {
	text := annotated(t, "He takes metformin.", nil)
	parse := parseSpec(&text, []string{"PRON", "VERB", "NOUN", "PUNCT"}, []int{1, 1, 1, 1})

	m := newMatcher(&text, parse)
	require.Equal(t, []int{0, 2, 3}, m.children[1])
	assert.Empty(t, m.children[0], "leaves have no dependents")
}
