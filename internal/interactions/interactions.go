// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package interactions

import (
	"context"

	"go.uber.org/zap"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

// Pairs returns all unordered pairs of the ids, in first-appearance order.
func Pairs(ids []string) [][2]string {
	var pairs [][2]string
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			pairs = append(pairs, [2]string{ids[i], ids[j]})
		}
	}
	return pairs
}

// Annotate looks up interactions for every medication pair in each document
// and writes the results onto the documents in place. Pairs come from the
// question's unique DrugBank ids. Interactions is always left non-nil so a
// completed stage is distinguishable from one that never ran; a pair whose
// lookup fails after retries goes to UnresolvedPairs instead of being
// silently dropped (R3.2, R4.3).
func Annotate(ctx context.Context, docs []types.AnnotatedVignette, src Source, logger *zap.Logger) error {
	for i := range docs {
		doc := &docs[i]
		ddi := []types.DrugInteraction{}
		doc.UnresolvedPairs = nil

		ids := doc.Question.MedicationIDs()
		for _, pair := range Pairs(ids) {
			hits, err := src.Lookup(ctx, pair[0], pair[1])
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("interaction lookup failed",
					zap.Int("book_page", doc.BookPage),
					zap.String("drug1_id", pair[0]),
					zap.String("drug2_id", pair[1]),
					zap.Error(err))
				doc.UnresolvedPairs = append(doc.UnresolvedPairs, pair)
				continue
			}
			ddi = append(ddi, hits...)
		}

		doc.Interactions = ddi
		logger.Debug("annotated interactions",
			zap.Int("book_page", doc.BookPage),
			zap.Int("medications", len(ids)),
			zap.Int("interactions", len(ddi)),
			zap.Int("unresolved", len(doc.UnresolvedPairs)))
	}
	return nil
}
