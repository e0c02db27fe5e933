// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package consolidate

import "testing"

func TestIndexOverlaps(t *testing.T) {
	ix := NewIndex()
	ix.Insert(2, 5, "a:X")

	tests := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"identical", 2, 5, true},
		{"contained", 3, 4, true},
		{"containing", 0, 10, true},
		{"left partial", 0, 3, true},
		{"right partial", 4, 8, true},
		{"touching left", 0, 2, false},
		{"touching right", 5, 8, false},
		{"disjoint", 7, 9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ix.Overlaps(tt.start, tt.end); got != tt.want {
				t.Errorf("Overlaps(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestIndexStab(t *testing.T) {
	ix := NewIndex()
	ix.Insert(0, 3, "a:X")
	ix.Insert(2, 5, "b:Y")
	ix.Insert(2, 3, "c:Z")

	got := ix.Stab(2)
	want := []string{"a:X", "b:Y", "c:Z"}
	if len(got) != len(want) {
		t.Fatalf("Stab(2) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Stab(2)[%d] = %q, want %q (insertion order)", i, got[i], want[i])
		}
	}

	if got := ix.Stab(4); len(got) != 1 || got[0] != "b:Y" {
		t.Errorf("Stab(4) = %v, want [b:Y]", got)
	}
	if got := ix.Stab(5); got != nil {
		t.Errorf("Stab(5) = %v, want nil (end is exclusive)", got)
	}
}

func TestIndexStabDeduplicatesLabels(t *testing.T) {
	ix := NewIndex()
	ix.Insert(0, 2, "a:X")
	ix.Insert(1, 3, "a:X")
	if got := ix.Stab(1); len(got) != 1 {
		t.Errorf("Stab(1) = %v, want one occurrence of the shared label", got)
	}
}

func TestIndexInsertKeepsSorted(t *testing.T) {
	ix := NewIndex()
	ix.Insert(8, 9, "c")
	ix.Insert(1, 4, "a")
	ix.Insert(3, 6, "b")
	if !ix.Overlaps(0, 2) || !ix.Overlaps(5, 7) || ix.Overlaps(6, 8) {
		t.Error("overlap queries wrong after out-of-order inserts")
	}
	if ix.Len() != 3 {
		t.Errorf("Len() = %d, want 3", ix.Len())
	}
}
