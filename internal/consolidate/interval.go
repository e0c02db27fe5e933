// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package consolidate

import "sort"

// interval is one labeled token range [start, end) in the index.
type interval struct {
	start int
	end   int
	label string
	seq   int
}

// Index is the per-document interval index over token offsets used during
// consolidation. Every aligned span is inserted, whether or not it wins a
// slot in the canonical entity set; point queries therefore see labels from
// losing spans too (prd005-consolidation R3.4). The index is rebuilt per
// document and discarded afterwards.
//
// Intervals are kept in a slice sorted by start offset with binary search on
// queries. Span counts per document are small, so a balanced tree buys
// nothing here.
type Index struct {
	items []interval
	nseq  int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Len returns the number of inserted intervals.
func (ix *Index) Len() int { return len(ix.items) }

// Insert adds the labeled range [start, end) to the index.
func (ix *Index) Insert(start, end int, label string) {
	iv := interval{start: start, end: end, label: label, seq: ix.nseq}
	ix.nseq++

	// Keep items sorted by start; equal starts stay in insertion order.
	pos := sort.Search(len(ix.items), func(i int) bool {
		return ix.items[i].start > start
	})
	ix.items = append(ix.items, interval{})
	copy(ix.items[pos+1:], ix.items[pos:])
	ix.items[pos] = iv
}

// Overlaps reports whether any inserted interval intersects [start, end).
func (ix *Index) Overlaps(start, end int) bool {
	// Candidates are exactly those with item.start < end.
	hi := sort.Search(len(ix.items), func(i int) bool {
		return ix.items[i].start >= end
	})
	for i := 0; i < hi; i++ {
		if ix.items[i].end > start {
			return true
		}
	}
	return false
}

// Stab returns the labels of all intervals covering the token offset, in
// insertion order. Duplicate labels from distinct spans are preserved once.
func (ix *Index) Stab(tok int) []string {
	hi := sort.Search(len(ix.items), func(i int) bool {
		return ix.items[i].start > tok
	})

	var covering []interval
	for i := 0; i < hi; i++ {
		if ix.items[i].end > tok {
			covering = append(covering, ix.items[i])
		}
	}
	sort.Slice(covering, func(i, j int) bool {
		return covering[i].seq < covering[j].seq
	})

	var labels []string
	seen := make(map[string]bool)
	for _, iv := range covering {
		if seen[iv.label] {
			continue
		}
		seen[iv.label] = true
		labels = append(labels, iv.label)
	}
	return labels
}
