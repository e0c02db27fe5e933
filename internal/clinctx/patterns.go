// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clinctx

// DefaultPatterns returns the production relation patterns. medLabel and
// diseaseLabel are the prefixed labels of medication and disease mentions; a
// purpose slot accepts either, since a drug is sometimes prescribed to
// counter another drug.
func DefaultPatterns(medLabel, diseaseLabel string) []DepPattern {
	med := []string{medLabel}
	purpose := []string{diseaseLabel, medLabel}

	return []DepPattern{
		{
			// "He takes metformin for diabetes."
			Name: "verb-med-for-disease",
			Nodes: []DepNode{
				{ID: "verb", Attrs: NodeAttrs{POS: []string{"VERB"}}},
				{ID: "medication", Left: "verb", Attrs: NodeAttrs{EntLabel: med}},
				{ID: "for", Left: "verb", Attrs: NodeAttrs{POS: []string{"ADP"}}},
				{ID: "disease", Left: "for", Attrs: NodeAttrs{EntLabel: purpose}},
			},
			Pairs: []RolePair{{Medication: "medication", Purpose: "disease"}},
		},
		{
			// Same shape with a stray punctuation token hanging off the verb,
			// as left behind by dosage fragments ("takes metformin 500 mg,
			// for diabetes"). The medication binds through the consolidated
			// flag so multi-word dosage forms still anchor.
			Name: "verb-med-punct-for-disease",
			Nodes: []DepNode{
				{ID: "verb", Attrs: NodeAttrs{POS: []string{"VERB"}}},
				{ID: "medication", Left: "verb", Attrs: NodeAttrs{Medication: true}},
				{ID: "punct", Left: "verb", Attrs: NodeAttrs{POS: []string{"PUNCT"}}},
				{ID: "for", Left: "punct", Attrs: NodeAttrs{POS: []string{"ADP"}}},
				{ID: "disease", Left: "for", Attrs: NodeAttrs{EntLabel: purpose}},
			},
			Pairs: []RolePair{{Medication: "medication", Purpose: "disease"}},
		},
		{
			// "metformin for diabetes", preposition attached to the drug.
			Name: "med-for-disease",
			Nodes: []DepNode{
				{ID: "verb", Attrs: NodeAttrs{POS: []string{"VERB"}}},
				{ID: "medication", Left: "verb", Attrs: NodeAttrs{EntLabel: med}},
				{ID: "for", Left: "medication", Attrs: NodeAttrs{POS: []string{"ADP"}}},
				{ID: "disease", Left: "for", Attrs: NodeAttrs{EntLabel: purpose}},
			},
			Pairs: []RolePair{{Medication: "medication", Purpose: "disease"}},
		},
		{
			// "She is on metformin for diabetes."
			Name: "on-med-for-disease",
			Nodes: []DepNode{
				{ID: "verb", Attrs: NodeAttrs{POS: []string{"VERB", "AUX"}}},
				{ID: "on", Left: "verb", Attrs: NodeAttrs{Lemma: "on"}},
				{ID: "medication", Left: "on", Attrs: NodeAttrs{EntLabel: med}},
				{ID: "for", Left: "medication", Attrs: NodeAttrs{POS: []string{"ADP"}}},
				{ID: "disease", Left: "for", Attrs: NodeAttrs{EntLabel: []string{diseaseLabel}}},
			},
			Pairs: []RolePair{{Medication: "medication", Purpose: "disease"}},
		},
		{
			// "takes metformin and lisinopril for diabetes and hypertension
			// respectively": coordinated drugs pair with coordinated purposes
			// in order.
			Name: "respectively-pairs",
			Nodes: []DepNode{
				{ID: "verb", Attrs: NodeAttrs{POS: []string{"VERB"}}},
				{ID: "medication1", Left: "verb", Attrs: NodeAttrs{EntLabel: med}},
				{ID: "cc1", Left: "medication1", Attrs: NodeAttrs{POS: []string{"CCONJ"}}},
				{ID: "medication2", Left: "medication1", Attrs: NodeAttrs{EntLabel: med}},
				{ID: "for", Left: "verb", Attrs: NodeAttrs{POS: []string{"ADP"}}},
				{ID: "purpose1", Left: "for", Attrs: NodeAttrs{EntLabel: purpose}},
				{ID: "purpose2", Left: "purpose1", Attrs: NodeAttrs{EntLabel: purpose}},
				{ID: "cc2", Left: "purpose2", Attrs: NodeAttrs{POS: []string{"CCONJ"}}},
				{ID: "respectively", Left: "verb", Attrs: NodeAttrs{Lower: []string{"respectively"}}},
			},
			Pairs: []RolePair{
				{Medication: "medication1", Purpose: "purpose1"},
				{Medication: "medication2", Purpose: "purpose2"},
			},
		},
	}
}
