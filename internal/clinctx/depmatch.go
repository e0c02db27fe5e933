// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clinctx

import (
	"strings"

	"go.uber.org/zap"

	"github.com/meshintel/vignette-annotator/internal/tokenize"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

// NodeAttrs constrains the token a pattern node may bind. Zero-value fields
// are unconstrained.
type NodeAttrs struct {
	// POS matches any of the listed universal part-of-speech tags.
	POS []string

	// Lemma matches the parser lemma, lowercased.
	Lemma string

	// Lower matches any of the listed lowercase surface forms.
	Lower []string

	// EntLabel matches tokens inside a canonical entity with any of the
	// listed prefixed labels.
	EntLabel []string

	// Medication matches tokens whose consolidated flag marks them as part
	// of a medication mention.
	Medication bool
}

// DepNode is one node of a dependency pattern. The first node of a pattern
// is the anchor and has no Left; every later node binds a direct dependent
// of the token already bound to Left.
type DepNode struct {
	ID    string
	Left  string
	Attrs NodeAttrs
}

// RolePair names the medication node and the purpose node of one relation a
// pattern asserts.
type RolePair struct {
	Medication string
	Purpose    string
}

// DepPattern is a connected subtree to search for in the dependency parse.
// Per prd006-context R3.1-R3.3.
type DepPattern struct {
	Name  string
	Nodes []DepNode
	Pairs []RolePair
}

// depMatch maps node IDs to the token offsets they bound.
type depMatch map[string]int

// matcher holds the per-text state shared by all pattern searches.
type matcher struct {
	text     *types.AnnotatedText
	parse    []types.ParseToken
	children map[int][]int
}

func newMatcher(text *types.AnnotatedText, parse []types.ParseToken) *matcher {
	children := make(map[int][]int)
	for i, p := range parse {
		if p.Head != i {
			children[p.Head] = append(children[p.Head], i)
		}
	}
	return &matcher{text: text, parse: parse, children: children}
}

func (m *matcher) nodeMatches(attrs NodeAttrs, tok int) bool {
	if len(attrs.POS) > 0 && !containsString(attrs.POS, m.parse[tok].POS) {
		return false
	}
	if attrs.Lemma != "" && strings.ToLower(m.parse[tok].Lemma) != attrs.Lemma {
		return false
	}
	if len(attrs.Lower) > 0 && !containsString(attrs.Lower, strings.ToLower(m.text.Tokens[tok].Text)) {
		return false
	}
	if len(attrs.EntLabel) > 0 {
		ent := m.text.EntityAt(tok)
		if ent == nil || !containsString(attrs.EntLabel, ent.Label) {
			return false
		}
	}
	if attrs.Medication && !m.text.TokenFlags[tok].IsMedication {
		return false
	}
	return true
}

// search extends a partial assignment node by node, backtracking over the
// dependents of each node's head. Nodes bind distinct tokens.
func (m *matcher) search(p DepPattern, depth int, bound depMatch, out *[]depMatch) {
	if depth == len(p.Nodes) {
		done := make(depMatch, len(bound))
		for k, v := range bound {
			done[k] = v
		}
		*out = append(*out, done)
		return
	}

	node := p.Nodes[depth]
	head, ok := bound[node.Left]
	if !ok {
		return
	}
	for _, child := range m.children[head] {
		if m.bound(bound, child) || !m.nodeMatches(node.Attrs, child) {
			continue
		}
		bound[node.ID] = child
		m.search(p, depth+1, bound, out)
		delete(bound, node.ID)
	}
}

func (m *matcher) bound(bound depMatch, tok int) bool {
	for _, v := range bound {
		if v == tok {
			return true
		}
	}
	return false
}

// matchPattern returns every binding of the pattern within one sentence,
// ordered by anchor token.
func (m *matcher) matchPattern(p DepPattern, sent tokenize.Sentence) []depMatch {
	var out []depMatch
	anchor := p.Nodes[0]
	for tok := sent.Start; tok < sent.End; tok++ {
		if !m.nodeMatches(anchor.Attrs, tok) {
			continue
		}
		bound := depMatch{anchor.ID: tok}
		m.search(p, 1, bound, &out)
	}
	return out
}

// ExtractRelations runs the dependency patterns over the text and writes the
// purpose of each matched medication entity. Patterns apply in registration
// order and later matches overwrite earlier purposes; a match with any role
// token outside a canonical entity is discarded whole, with no partial
// writes (R3.3).
func ExtractRelations(text *types.AnnotatedText, parse []types.ParseToken, patterns []DepPattern, logger *zap.Logger) {
	m := newMatcher(text, parse)
	sentences := tokenize.SentencesFromParse(parse)

	for _, p := range patterns {
		for _, sent := range sentences {
			for _, match := range m.matchPattern(p, sent) {
				type write struct {
					med     *types.ConsolidatedSpan
					purpose string
				}
				writes := make([]write, 0, len(p.Pairs))
				resolved := true

				for _, pair := range p.Pairs {
					med := text.EntityAt(match[pair.Medication])
					purpose := text.EntityAt(match[pair.Purpose])
					if med == nil || purpose == nil {
						logger.Debug("discarding relation match with unresolvable role token",
							zap.String("pattern", p.Name))
						resolved = false
						break
					}
					writes = append(writes, write{med: med, purpose: purpose.Text})
				}
				if !resolved {
					continue
				}
				for _, w := range writes {
					w.med.Purpose = w.purpose
				}
			}
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
