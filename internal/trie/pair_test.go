package trie

import "testing"

func TestPairLearnShortInputIsNoOp(t *testing.T) {
	p := NewPair(3)
	tokensLearned, ok := p.Learn([]uint32{2, 3, 4})
	if ok {
		t.Fatal("sentence of length == Order should be a no-op")
	}
	if tokensLearned != 0 {
		t.Fatalf("tokensLearned = %d, want 0", tokensLearned)
	}
	if p.Forward.Len() != 1 || p.Backward.Len() != 1 {
		t.Fatalf("tries should still be empty: forward=%d backward=%d", p.Forward.Len(), p.Backward.Len())
	}
}

func TestPairLearnBuildsWindowsOfBothDirections(t *testing.T) {
	p := NewPair(2)
	sentence := []uint32{2, 3, 4, 5}
	tokensLearned, ok := p.Learn(sentence)
	if !ok {
		t.Fatal("expected Learn to succeed")
	}
	if tokensLearned != len(sentence) {
		t.Fatalf("tokensLearned = %d, want %d", tokensLearned, len(sentence))
	}

	// Forward: sentence + <FIN> = [2,3,4,5,1], windows of length 3:
	// [2,3,4], [3,4,5], [4,5,1]
	if _, depth := p.Forward.Walk([]uint32{2, 3, 4}); depth != 3 {
		t.Fatalf("forward window [2,3,4] not found, depth=%d", depth)
	}
	if _, depth := p.Forward.Walk([]uint32{3, 4, 5}); depth != 3 {
		t.Fatalf("forward window [3,4,5] not found, depth=%d", depth)
	}
	if _, depth := p.Forward.Walk([]uint32{4, 5, 1}); depth != 3 {
		t.Fatalf("forward window [4,5,1] not found, depth=%d", depth)
	}

	// Backward: reverse of [2,3,4,5,1] = [1,5,4,3,2], windows of length 3:
	// [1,5,4], [5,4,3], [4,3,2]
	if _, depth := p.Backward.Walk([]uint32{1, 5, 4}); depth != 3 {
		t.Fatalf("backward window [1,5,4] not found, depth=%d", depth)
	}
	if _, depth := p.Backward.Walk([]uint32{5, 4, 3}); depth != 3 {
		t.Fatalf("backward window [5,4,3] not found, depth=%d", depth)
	}
	if _, depth := p.Backward.Walk([]uint32{4, 3, 2}); depth != 3 {
		t.Fatalf("backward window [4,3,2] not found, depth=%d", depth)
	}

	// Root usage equals the window count in each direction: len(fseq) - Order = 5 - 2 = 3.
	if got := p.Forward.Usage(p.Forward.Root()); got != 3 {
		t.Fatalf("forward root usage = %d, want 3", got)
	}
	if got := p.Backward.Usage(p.Backward.Root()); got != 3 {
		t.Fatalf("backward root usage = %d, want 3", got)
	}
}

// nodeKey identifies a node by its tree tag and word path rather than by id,
// since ids depend on insertion order but word paths do not.
type nodeKey struct {
	tree string
	path string
}

func snapshot(p *Pair) map[nodeKey][2]uint64 {
	out := make(map[nodeKey][2]uint64)
	for _, tr := range []*Trie{p.Forward, p.Backward} {
		for _, row := range tr.All() {
			path := tr.WordPath(row.ID)
			out[nodeKey{tree: tr.Tag, path: pathString(path)}] = [2]uint64{row.Count, row.Usage}
		}
	}
	return out
}

func pathString(path []uint32) string {
	s := ""
	for _, sym := range path {
		s += "/" + string(rune(sym))
	}
	return s
}

func mapsEqual(a, b map[nodeKey][2]uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// TestPairLearnBulkEquivalence verifies that learning two sentences via two
// separate Learn calls produces the same (tree, word path) -> (count, usage)
// state as learning them in the opposite order — the trie state depends only
// on the multiset of sentences learned, not on call order or on node ids.
func TestPairLearnBulkEquivalence(t *testing.T) {
	sentenceA := []uint32{2, 3, 4, 5}
	sentenceB := []uint32{2, 3, 6}

	p1 := NewPair(2)
	p1.Learn(sentenceA)
	p1.Learn(sentenceB)

	p2 := NewPair(2)
	p2.Learn(sentenceB)
	p2.Learn(sentenceA)

	if !mapsEqual(snapshot(p1), snapshot(p2)) {
		t.Fatalf("trie state depends on learn order:\np1=%v\np2=%v", snapshot(p1), snapshot(p2))
	}
}

func TestPairLearnRepeatedSentenceAccumulatesCount(t *testing.T) {
	p := NewPair(2)
	sentence := []uint32{2, 3, 4}
	p.Learn(sentence)
	p.Learn(sentence)

	leaf, depth := p.Forward.Walk([]uint32{2, 3, 4})
	if depth != 3 {
		t.Fatalf("window not found after repeated learn")
	}
	if got := p.Forward.Count(leaf); got != 2 {
		t.Fatalf("count = %d, want 2 after learning the same sentence twice", got)
	}
}
