// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package consolidate

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

const sampleText = "He takes metformin for diabetes mellitus daily."

// match builds a RawEntityMatch whose char limits cover the given substring.
func match(t *testing.T, text, substr, label string) types.RawEntityMatch {
	t.Helper()
	start := strings.Index(text, substr)
	if start < 0 {
		t.Fatalf("substring %q not in %q", substr, text)
	}
	return types.RawEntityMatch{
		Entity:     substr,
		Label:      label,
		CharLimits: [2]int{start, start + len(substr)},
	}
}

func twoModelCfg() types.ConsolidationConfig {
	return types.ConsolidationConfig{
		Priority:        []string{"drugbank", "bc5cdr"},
		OrganLabel:      "bionlp13cg:ORGAN",
		DiseaseLabel:    "bc5cdr:DISEASE",
		MedicationLabel: "drugbank:MEDICATION_DRUGBANK",
		Workers:         2,
	}
}

func outputs(page int, text string, byModel map[string][]types.RawEntityMatch) map[string]*types.ModelOutput {
	out := make(map[string]*types.ModelOutput, len(byModel))
	for model, matches := range byModel {
		out[model] = &types.ModelOutput{BookPage: page, Question: text, BnerQuestion: matches}
	}
	return out
}

func TestTextPriorityWinsConflict(t *testing.T) {
	drug := match(t, sampleText, "metformin", "MEDICATION_DRUGBANK")
	drug.DrugBankID = "DB00331"
	// Same token range claimed by the lower-priority model.
	chem := match(t, sampleText, "metformin", "CHEMICAL")

	cfgAB := twoModelCfg()
	perModel := outputs(1, sampleText, map[string][]types.RawEntityMatch{
		"drugbank": {drug},
		"bc5cdr":   {chem},
	})

	text, err := Text(sampleText, types.RoleQuestion, 1, perModel, cfgAB, zap.NewNop())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if len(text.Entities) != 1 {
		t.Fatalf("got %d entities, want 1", len(text.Entities))
	}
	if text.Entities[0].Label != "drugbank:MEDICATION_DRUGBANK" {
		t.Errorf("winner = %q, want the higher-priority model", text.Entities[0].Label)
	}

	// Reversed priority flips the winner.
	cfgBA := cfgAB
	cfgBA.Priority = []string{"bc5cdr", "drugbank"}
	text2, err := Text(sampleText, types.RoleQuestion, 1, perModel, cfgBA, zap.NewNop())
	if err != nil {
		t.Fatalf("Text reversed: %v", err)
	}
	if text2.Entities[0].Label != "bc5cdr:CHEMICAL" {
		t.Errorf("reversed winner = %q, want bc5cdr:CHEMICAL", text2.Entities[0].Label)
	}
}

func TestTextRejectedSpanStillInTokenLabels(t *testing.T) {
	drug := match(t, sampleText, "metformin", "MEDICATION_DRUGBANK")
	drug.DrugBankID = "DB00331"
	chem := match(t, sampleText, "metformin", "CHEMICAL")

	perModel := outputs(1, sampleText, map[string][]types.RawEntityMatch{
		"drugbank": {drug},
		"bc5cdr":   {chem},
	})
	text, err := Text(sampleText, types.RoleQuestion, 1, perModel, twoModelCfg(), zap.NewNop())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}

	// Exactly one canonical entity, but the token carries both labels.
	if len(text.Entities) != 1 {
		t.Fatalf("got %d entities, want 1", len(text.Entities))
	}
	tok := text.Entities[0].TokenStart
	labels := text.TokenLabels[tok]
	if !contains(labels, "drugbank:MEDICATION_DRUGBANK") || !contains(labels, "bc5cdr:CHEMICAL") {
		t.Errorf("token labels = %v, want both models' labels", labels)
	}
}

func TestTextEntitiesAreAntichain(t *testing.T) {
	// Overlapping spans from the same and different models.
	m1 := match(t, sampleText, "diabetes mellitus", "DISEASE")
	m2 := match(t, sampleText, "mellitus daily", "DISEASE")
	m3 := match(t, sampleText, "diabetes", "DISEASE")

	perModel := outputs(1, sampleText, map[string][]types.RawEntityMatch{
		"drugbank": {},
		"bc5cdr":   {m1, m2, m3},
	})
	text, err := Text(sampleText, types.RoleQuestion, 1, perModel, twoModelCfg(), zap.NewNop())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	for i := range text.Entities {
		for j := i + 1; j < len(text.Entities); j++ {
			a, b := text.Entities[i], text.Entities[j]
			if a.TokenStart < b.TokenEnd && b.TokenStart < a.TokenEnd {
				t.Errorf("entities overlap: %+v and %+v", a, b)
			}
		}
	}
	if len(text.Entities) != 1 {
		t.Errorf("got %d entities, want only the first accepted span", len(text.Entities))
	}
}

func TestTextExpandAlignment(t *testing.T) {
	// Char limits starting mid-token expand to the whole token.
	start := strings.Index(sampleText, "diabetes") + 3 // inside "diabetes"
	m := types.RawEntityMatch{
		Entity:     "abetes mellitus",
		Label:      "DISEASE",
		CharLimits: [2]int{start, start + len("abetes mellitus")},
	}
	perModel := outputs(1, sampleText, map[string][]types.RawEntityMatch{
		"drugbank": {},
		"bc5cdr":   {m},
	})
	text, err := Text(sampleText, types.RoleQuestion, 1, perModel, twoModelCfg(), zap.NewNop())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if len(text.Entities) != 1 {
		t.Fatalf("got %d entities, want 1", len(text.Entities))
	}
	if text.Entities[0].Text != "diabetes mellitus" {
		t.Errorf("expanded text = %q, want %q", text.Entities[0].Text, "diabetes mellitus")
	}
}

func TestTextDropsOutOfRangeMatch(t *testing.T) {
	m := types.RawEntityMatch{Entity: "ghost", Label: "DISEASE", CharLimits: [2]int{500, 510}}
	perModel := outputs(1, sampleText, map[string][]types.RawEntityMatch{
		"drugbank": {},
		"bc5cdr":   {m},
	})
	text, err := Text(sampleText, types.RoleQuestion, 1, perModel, twoModelCfg(), zap.NewNop())
	if err != nil {
		t.Fatalf("Text: %v (out-of-range offsets must not be fatal)", err)
	}
	if len(text.Entities) != 0 {
		t.Errorf("got %d entities, want 0", len(text.Entities))
	}
}

func TestTextMedicationDetails(t *testing.T) {
	drug := match(t, sampleText, "metformin", "MEDICATION_DRUGBANK")
	drug.DrugBankID = "DB00331"
	linked := match(t, sampleText, "diabetes mellitus", "DISEASE")
	linked.RxNormLink = "C0011849"

	perModel := outputs(1, sampleText, map[string][]types.RawEntityMatch{
		"drugbank": {drug},
		"bc5cdr":   {linked},
	})
	text, err := Text(sampleText, types.RoleQuestion, 1, perModel, twoModelCfg(), zap.NewNop())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if len(text.Entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(text.Entities))
	}
	med := text.Entities[0]
	if !med.IsMedication || med.MedicationDetails[MetaDrugBankID] != "DB00331" {
		t.Errorf("medication span = %+v, want drugbank id attached", med)
	}
	dis := text.Entities[1]
	if !dis.IsMedication || dis.MedicationDetails[MetaRxNormLink] != "C0011849" {
		t.Errorf("rxnorm span = %+v, want rxnorm link attached", dis)
	}
}

func TestTextTokenFlagPromotionOrder(t *testing.T) {
	cfg := types.ConsolidationConfig{
		Priority:        []string{"drugbank", "bc5cdr", "bionlp13cg"},
		OrganLabel:      "bionlp13cg:ORGAN",
		DiseaseLabel:    "bc5cdr:DISEASE",
		MedicationLabel: "drugbank:MEDICATION_DRUGBANK",
	}
	text := "enlarged liver noted"
	organ := match(t, text, "liver", "ORGAN")
	disease := match(t, text, "liver", "DISEASE")

	perModel := map[string]*types.ModelOutput{
		"drugbank":   {BookPage: 1, Question: text},
		"bc5cdr":     {BookPage: 1, Question: text, BnerQuestion: []types.RawEntityMatch{disease}},
		"bionlp13cg": {BookPage: 1, Question: text, BnerQuestion: []types.RawEntityMatch{organ}},
	}
	at, err := Text(text, types.RoleQuestion, 1, perModel, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	// "liver" is token 1; organ beats disease in promotion order even though
	// the disease model ranks higher in span priority.
	flags := at.TokenFlags[1]
	if !flags.IsBodyOrgan || flags.IsDisease || flags.IsMedication {
		t.Errorf("flags = %+v, want organ only", flags)
	}
}

func TestTextIdempotent(t *testing.T) {
	drug := match(t, sampleText, "metformin", "MEDICATION_DRUGBANK")
	drug.DrugBankID = "DB00331"
	dis := match(t, sampleText, "diabetes mellitus", "DISEASE")
	perModel := outputs(7, sampleText, map[string][]types.RawEntityMatch{
		"drugbank": {drug},
		"bc5cdr":   {dis},
	})

	a, err := Text(sampleText, types.RoleQuestion, 7, perModel, twoModelCfg(), zap.NewNop())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	b, err := Text(sampleText, types.RoleQuestion, 7, perModel, twoModelCfg(), zap.NewNop())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("re-running consolidation on identical input changed the output")
	}
}

func TestRunMissingModelIsPageError(t *testing.T) {
	outputsByModel := map[string][]types.ModelOutput{
		"drugbank": {
			{BookPage: 1, Question: sampleText},
			{BookPage: 2, Question: sampleText},
		},
		"bc5cdr": {
			{BookPage: 1, Question: sampleText},
			// page 2 missing
		},
	}
	res, err := Run(context.Background(), outputsByModel, twoModelCfg(), zap.NewNop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Documents) != 1 || res.Documents[0].BookPage != 1 {
		t.Errorf("documents = %+v, want page 1 only", res.Documents)
	}
	if len(res.Errors) != 1 || res.Errors[0].BookPage != 2 {
		t.Errorf("errors = %+v, want page 2 flagged", res.Errors)
	}
	if !res.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
}

func TestRunMissingModelEntirelyIsFatal(t *testing.T) {
	outputsByModel := map[string][]types.ModelOutput{
		"drugbank": {{BookPage: 1, Question: sampleText}},
	}
	if _, err := Run(context.Background(), outputsByModel, twoModelCfg(), zap.NewNop()); err == nil {
		t.Error("expected error when a priority model has no output file at all")
	}
}

func TestRunDeterministicOrder(t *testing.T) {
	var dbOut, bcOut []types.ModelOutput
	for _, page := range []int{9, 3, 17, 5} {
		dbOut = append(dbOut, types.ModelOutput{BookPage: page, Question: sampleText})
		bcOut = append(bcOut, types.ModelOutput{BookPage: page, Question: sampleText})
	}
	res, err := Run(context.Background(), map[string][]types.ModelOutput{
		"drugbank": dbOut, "bc5cdr": bcOut,
	}, twoModelCfg(), zap.NewNop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 1; i < len(res.Documents); i++ {
		if res.Documents[i-1].BookPage >= res.Documents[i].BookPage {
			t.Errorf("documents out of page order: %d before %d",
				res.Documents[i-1].BookPage, res.Documents[i].BookPage)
		}
	}
}

func TestAnnotatedVignetteRoundTrip(t *testing.T) {
	drug := match(t, sampleText, "metformin", "MEDICATION_DRUGBANK")
	drug.DrugBankID = "DB00331"
	dis := match(t, sampleText, "diabetes mellitus", "DISEASE")
	perModel := outputs(11, sampleText, map[string][]types.RawEntityMatch{
		"drugbank": {drug},
		"bc5cdr":   {dis},
	})
	doc, err := Page(11, perModel, twoModelCfg(), zap.NewNop())
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	doc.Question.Entities[0].IsHistory = true
	doc.Question.Entities[0].Purpose = "diabetes mellitus"

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back types.AnnotatedVignette
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(*doc, back) {
		t.Error("round trip changed the document")
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
