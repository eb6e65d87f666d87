package symbol

import "testing"

func TestNewReservesSentinels(t *testing.T) {
	in := New()
	if id, ok := in.Lookup(ErrorWord); !ok || id != ErrorID {
		t.Fatalf("lookup(%q) = %d, %v; want %d, true", ErrorWord, id, ok, ErrorID)
	}
	if id, ok := in.Lookup(FinWord); !ok || id != FinID {
		t.Fatalf("lookup(%q) = %d, %v; want %d, true", FinWord, id, ok, FinID)
	}
	if in.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", in.Len())
	}
}

func TestInternAssignsMonotonicIDs(t *testing.T) {
	in := New()
	catID := in.Intern("CAT")
	dogID := in.Intern("DOG")
	if catID != 2 {
		t.Errorf("first new word id = %d, want 2", catID)
	}
	if dogID != 3 {
		t.Errorf("second new word id = %d, want 3", dogID)
	}

	// Re-interning returns the same id.
	if again := in.Intern("CAT"); again != catID {
		t.Errorf("re-intern CAT = %d, want %d", again, catID)
	}
}

func TestLookupUnknown(t *testing.T) {
	in := New()
	if _, ok := in.Lookup("NOPE"); ok {
		t.Fatal("expected Lookup of unseen word to fail")
	}
}

func TestWordRoundTrip(t *testing.T) {
	in := New()
	id := in.Intern("HELLO")
	if got := in.Word(id); got != "HELLO" {
		t.Errorf("Word(%d) = %q, want HELLO", id, got)
	}
}

func TestWordPanicsOnUnknownID(t *testing.T) {
	in := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown id")
		}
	}()
	in.Word(999)
}

func TestRestoreRoundTrip(t *testing.T) {
	in := New()
	in.Intern("CAT")
	in.Intern("DOG")

	restored, err := Restore(in.All())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Len() != in.Len() {
		t.Fatalf("restored.Len() = %d, want %d", restored.Len(), in.Len())
	}
	id, ok := restored.Lookup("DOG")
	if !ok || id != 3 {
		t.Errorf("restored lookup DOG = %d, %v; want 3, true", id, ok)
	}
}

func TestRestoreRejectsMissingSentinels(t *testing.T) {
	_, err := Restore([]Symbol{{ID: 0, Word: "WRONG"}, {ID: 1, Word: "<FIN>"}})
	if err == nil {
		t.Fatal("expected error for mismatched sentinel words")
	}
}
