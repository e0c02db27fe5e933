// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DrugInteraction is one pairwise drug-drug interaction record returned by
// an interaction source, appended verbatim to the vignette
// (prd007-interactions R2.4).
type DrugInteraction struct {
	Drug1ID   string `json:"drug1_id" yaml:"drug1_id"`
	Drug2ID   string `json:"drug2_id" yaml:"drug2_id"`
	Drug1Name string `json:"drug1_name" yaml:"drug1_name"`
	Drug2Name string `json:"drug2_name" yaml:"drug2_name"`

	// Interaction is the textual description of the interaction.
	Interaction string `json:"interaction" yaml:"interaction"`
}
