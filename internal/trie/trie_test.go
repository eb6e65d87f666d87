package trie

import "testing"

func TestNewHasOnlyRoot(t *testing.T) {
	tr := New("F")
	if tr.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tr.Len())
	}
	if tr.Usage(tr.Root()) != 0 {
		t.Fatalf("root usage = %d, want 0", tr.Usage(tr.Root()))
	}
	if _, has := tr.Parent(tr.Root()); has {
		t.Fatal("root should report no parent")
	}
}

func TestInsertCreatesPathAndIncrementsCounters(t *testing.T) {
	tr := New("F")
	tr.Insert([]uint32{10, 20, 30})

	if got := tr.Usage(tr.Root()); got != 1 {
		t.Fatalf("root usage = %d, want 1", got)
	}

	id, depth := tr.Walk([]uint32{10, 20, 30})
	if depth != 3 {
		t.Fatalf("depth = %d, want 3", depth)
	}
	if got := tr.Count(id); got != 1 {
		t.Fatalf("leaf count = %d, want 1", got)
	}
	if got := tr.Usage(id); got != 1 {
		t.Fatalf("leaf usage = %d, want 1", got)
	}

	// Intermediate node should have usage but no count (it was never a leaf).
	mid, depth := tr.Walk([]uint32{10, 20})
	if depth != 2 {
		t.Fatalf("depth = %d, want 2", depth)
	}
	if got := tr.Count(mid); got != 0 {
		t.Fatalf("mid count = %d, want 0", got)
	}
	if got := tr.Usage(mid); got != 1 {
		t.Fatalf("mid usage = %d, want 1", got)
	}
}

func TestInsertSharedPrefixIncrementsUsageNotCount(t *testing.T) {
	tr := New("F")
	tr.Insert([]uint32{1, 2, 3})
	tr.Insert([]uint32{1, 2, 4})

	mid, _ := tr.Walk([]uint32{1, 2})
	if got := tr.Usage(mid); got != 2 {
		t.Fatalf("shared prefix usage = %d, want 2", got)
	}
	if got := tr.Count(mid); got != 0 {
		t.Fatalf("shared prefix (non-leaf) count = %d, want 0", got)
	}

	leaf3, _ := tr.Walk([]uint32{1, 2, 3})
	leaf4, _ := tr.Walk([]uint32{1, 2, 4})
	if tr.Count(leaf3) != 1 || tr.Count(leaf4) != 1 {
		t.Fatalf("each distinct leaf should have count 1: got %d, %d", tr.Count(leaf3), tr.Count(leaf4))
	}
}

func TestInsertRepeatedPathIncrementsLeafCount(t *testing.T) {
	tr := New("F")
	tr.Insert([]uint32{5, 6})
	tr.Insert([]uint32{5, 6})
	tr.Insert([]uint32{5, 6})

	leaf, depth := tr.Walk([]uint32{5, 6})
	if depth != 2 {
		t.Fatalf("depth = %d, want 2", depth)
	}
	if got := tr.Count(leaf); got != 3 {
		t.Fatalf("leaf count = %d, want 3", got)
	}
	if got := tr.Usage(leaf); got != 3 {
		t.Fatalf("leaf usage = %d, want 3", got)
	}
	if got := tr.Usage(tr.Root()); got != 3 {
		t.Fatalf("root usage = %d, want 3", got)
	}
}

func TestWalkStopsAtMissingChild(t *testing.T) {
	tr := New("F")
	tr.Insert([]uint32{1, 2, 3})

	id, depth := tr.Walk([]uint32{1, 2, 99, 100})
	if depth != 2 {
		t.Fatalf("depth = %d, want 2 (stop where child is missing)", depth)
	}
	want, _ := tr.Walk([]uint32{1, 2})
	if id != want {
		t.Fatalf("walk returned wrong node on partial match")
	}
}

func TestUsageGESumOfChildrenAndCount(t *testing.T) {
	tr := New("F")
	tr.Insert([]uint32{1, 2})
	tr.Insert([]uint32{1, 3})
	tr.Insert([]uint32{1, 2})

	node1, _ := tr.Walk([]uint32{1})
	var childUsageSum uint64
	for _, c := range tr.Children(node1) {
		childUsageSum += c.Usage
	}
	if usage := tr.Usage(node1); usage < childUsageSum {
		t.Fatalf("usage %d should be >= sum of children usage %d", usage, childUsageSum)
	}
	if usage, count := tr.Usage(node1), tr.Count(node1); usage < count {
		t.Fatalf("usage %d should be >= count %d", usage, count)
	}
}

func TestWordPathRoundTrip(t *testing.T) {
	tr := New("F")
	tr.Insert([]uint32{7, 8, 9})
	leaf, _ := tr.Walk([]uint32{7, 8, 9})

	path := tr.WordPath(leaf)
	want := []uint32{7, 8, 9}
	if len(path) != len(want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path = %v, want %v", path, want)
		}
	}
}

func TestAllAndRestoreRoundTrip(t *testing.T) {
	tr := New("F")
	tr.Insert([]uint32{1, 2, 3})
	tr.Insert([]uint32{1, 2, 4})
	tr.Insert([]uint32{1, 5})

	rows := tr.All()
	restored := Restore("F", rows)

	if restored.Len() != tr.Len() {
		t.Fatalf("restored.Len() = %d, want %d", restored.Len(), tr.Len())
	}

	for _, path := range [][]uint32{{1, 2, 3}, {1, 2, 4}, {1, 5}} {
		origID, origDepth := tr.Walk(path)
		newID, newDepth := restored.Walk(path)
		if origDepth != newDepth {
			t.Fatalf("path %v: depth mismatch %d vs %d", path, origDepth, newDepth)
		}
		if tr.Usage(origID) != restored.Usage(newID) || tr.Count(origID) != restored.Count(newID) {
			t.Fatalf("path %v: usage/count mismatch", path)
		}
	}
}
