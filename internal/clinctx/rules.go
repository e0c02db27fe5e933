// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clinctx

import "strings"

// Category classifies what a context trigger asserts about entities in its
// scope.
type Category string

const (
	History         Category = "HISTORY"
	FamilyHistory   Category = "FAMILY_HISTORY"
	NoHistory       Category = "NO_HISTORY"
	NoFamilyHistory Category = "NO_FAMILY_HISTORY"
)

// Direction states which side of the trigger the scope extends to.
type Direction string

const (
	// Forward scopes apply to entities after the trigger, to the end of the
	// sentence or the next trigger.
	Forward Direction = "FORWARD"

	// Backward scopes apply to entities before the trigger.
	Backward Direction = "BACKWARD"
)

// TokenPattern constrains one token of a trigger phrase. Zero-value fields
// are unconstrained; Lower matches any of the listed lowercase forms; Lemma
// matches the parser lemma when a parse is present and falls back to the
// lowercase surface form otherwise.
type TokenPattern struct {
	Lower    []string
	Lemma    string
	Optional bool
}

// Rule is one context trigger: a phrase (or token pattern), the category it
// asserts, the direction its scope extends, and the prefixed entity labels
// it applies to. Per prd006-context R1.1-R1.3.
type Rule struct {
	// Name is the trigger phrase, used for reporting.
	Name string

	Category  Category
	Direction Direction

	// AllowedTypes lists the prefixed entity labels the rule may touch.
	AllowedTypes []string

	// Pattern is the compiled token sequence. Built from Name by
	// phrasePattern when nil.
	Pattern []TokenPattern
}

// phrasePattern compiles a plain phrase into one exact-lowercase pattern per
// word.
func phrasePattern(phrase string) []TokenPattern {
	words := strings.Fields(strings.ToLower(phrase))
	pats := make([]TokenPattern, len(words))
	for i, w := range words {
		pats[i] = TokenPattern{Lower: []string{w}}
	}
	return pats
}

// DefaultRules returns the production trigger set for disease mentions.
// diseaseLabel is the prefixed label context classification applies to.
func DefaultRules(diseaseLabel string) []Rule {
	disease := []string{diseaseLabel}
	rules := []Rule{
		{Name: "history of", Category: History, Direction: Forward, AllowedTypes: disease},
		{Name: "family history of", Category: FamilyHistory, Direction: Forward, AllowedTypes: disease},
		{
			Name: "runs in his family", Category: FamilyHistory, Direction: Backward, AllowedTypes: disease,
			Pattern: []TokenPattern{
				{Lemma: "run"},
				{Lower: []string{"in"}},
				{Lower: []string{"his", "her", "their"}},
				{Lemma: "family"},
			},
		},
		{Name: "in her family", Category: FamilyHistory, Direction: Backward, AllowedTypes: disease},
		{
			Name: "no prior history of", Category: NoHistory, Direction: Forward, AllowedTypes: disease,
			Pattern: []TokenPattern{
				{Lower: []string{"no"}},
				{Lower: []string{"prior"}, Optional: true},
				{Lower: []string{"history", "past"}},
				{Lower: []string{"of"}},
			},
		},
		{Name: "denies history of", Category: NoHistory, Direction: Forward, AllowedTypes: disease},
		{Name: "never suffered from", Category: NoHistory, Direction: Forward, AllowedTypes: disease},
		{Name: "never had", Category: NoHistory, Direction: Forward, AllowedTypes: disease},
		{Name: "no family history of", Category: NoFamilyHistory, Direction: Forward, AllowedTypes: disease},
	}

	for i := range rules {
		if rules[i].Pattern == nil {
			rules[i].Pattern = phrasePattern(rules[i].Name)
		}
	}
	return rules
}
