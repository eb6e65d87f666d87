// Package symbol provides the bijection between token strings and the small
// integer ids used throughout the trie, keyword, and babble packages.
package symbol

import "fmt"

// ErrorID is the reserved id for the "<ERROR>" sentinel. It is also the
// symbol carried by the root node of every [trie.Trie].
const ErrorID uint32 = 0

// FinID is the reserved id for the "<FIN>" sentinel marking the end of a
// learned window or a generated reply.
const FinID uint32 = 1

// ErrorWord and FinWord are the literal strings stored for the two reserved ids.
const (
	ErrorWord = "<ERROR>"
	FinWord   = "<FIN>"
)

// Interner is a bijective word<->id table. Ids are assigned monotonically by
// first-seen order starting at 2; 0 and 1 are reserved at construction for
// [ErrorWord] and [FinWord]. Once assigned, a mapping is never reused or
// removed.
//
// The zero value is not ready to use — call [New].
type Interner struct {
	words []string         // id -> word, indexed directly
	ids   map[string]uint32 // word -> id
}

// New returns an [Interner] with the two reserved sentinels already interned.
func New() *Interner {
	in := &Interner{
		words: make([]string, 0, 256),
		ids:   make(map[string]uint32, 256),
	}
	in.words = append(in.words, ErrorWord, FinWord)
	in.ids[ErrorWord] = ErrorID
	in.ids[FinWord] = FinID
	return in
}

// Intern returns the id for word, assigning a new one if word has never been
// seen before. word is used verbatim — callers are responsible for any
// case-folding (the tokenizer uppercases words before interning).
func (in *Interner) Intern(word string) uint32 {
	if id, ok := in.ids[word]; ok {
		return id
	}
	id := uint32(len(in.words))
	in.words = append(in.words, word)
	in.ids[word] = id
	return id
}

// Lookup returns the id for word without creating a new entry. ok is false
// when word has never been interned.
func (in *Interner) Lookup(word string) (id uint32, ok bool) {
	id, ok = in.ids[word]
	return id, ok
}

// Word returns the string stored for id. It panics if id was never assigned —
// callers only ever hold ids returned by [Interner.Intern] or discovered by
// walking a trie built from this same interner.
func (in *Interner) Word(id uint32) string {
	if int(id) >= len(in.words) {
		panic(fmt.Sprintf("symbol: id %d was never interned", id))
	}
	return in.words[id]
}

// Len returns the number of distinct symbols interned, including the two
// reserved sentinels.
func (in *Interner) Len() int {
	return len(in.words)
}

// All returns every (id, word) pair in id order. Used by the storage layer to
// persist the symbols(id, word) relation.
func (in *Interner) All() []Symbol {
	out := make([]Symbol, len(in.words))
	for id, w := range in.words {
		out[id] = Symbol{ID: uint32(id), Word: w}
	}
	return out
}

// Symbol is a single (id, word) pair, mirroring the symbols(id, word) logical
// relation from the specification.
type Symbol struct {
	ID   uint32
	Word string
}

// Restore rebuilds an [Interner] from a previously persisted set of symbols.
// syms must include the two reserved sentinels at ids 0 and 1 — callers
// typically obtain syms from [store.Store.LoadSymbols].
func Restore(syms []Symbol) (*Interner, error) {
	if len(syms) < 2 {
		return nil, fmt.Errorf("symbol: restore: need at least 2 symbols, got %d", len(syms))
	}
	maxID := uint32(0)
	for _, s := range syms {
		if s.ID > maxID {
			maxID = s.ID
		}
	}
	in := &Interner{
		words: make([]string, maxID+1),
		ids:   make(map[string]uint32, len(syms)),
	}
	for _, s := range syms {
		in.words[s.ID] = s.Word
		in.ids[s.Word] = s.ID
	}
	if in.words[ErrorID] != ErrorWord || in.words[FinID] != FinWord {
		return nil, fmt.Errorf("symbol: restore: ids 0/1 must be %q/%q", ErrorWord, FinWord)
	}
	return in, nil
}
