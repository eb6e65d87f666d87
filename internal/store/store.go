// Package store defines the persistence substrate for the brain: the four
// logical relations the specification names (symbols, trie_nodes, and the
// lexicon sets), and a non-fatal [Guard] wrapper that degrades to
// in-memory-only operation when the backing store is unavailable.
package store

import (
	"context"

	"github.com/arvidsson/chatterbox/internal/lexicon"
)

// SymbolRow is one row of the persisted symbols relation.
type SymbolRow struct {
	ID   uint32
	Word string
}

// NodeRow is one row of the persisted trie_nodes relation.
type NodeRow struct {
	Tree      string
	ID        uint64
	ParentID  uint64
	HasParent bool
	Symbol    uint32
	Usage     uint64
	Count     uint64
}

// Store is the persistence substrate a brain writes through to and restores
// from. Implementations must be safe for concurrent use.
type Store interface {
	// SaveSymbol persists a single interned word. Called once per newly
	// interned word, never for ids already known to the store.
	SaveSymbol(ctx context.Context, id uint32, word string) error

	// SaveNode persists or updates a single trie node's counters.
	SaveNode(ctx context.Context, tree string, id, parentID uint64, hasParent bool, symbol uint32, usage, count uint64) error

	// LoadSymbols returns every persisted symbol, in id order.
	LoadSymbols(ctx context.Context) ([]SymbolRow, error)

	// LoadNodes returns every persisted trie node, in an order consistent
	// with root-first traversal (a node's parent row precedes it).
	LoadNodes(ctx context.Context) ([]NodeRow, error)

	// LoadLexicon returns the persisted banned/aux/greeting/swap word lists.
	LoadLexicon(ctx context.Context) (*lexicon.Lexicon, error)

	// SaveLexicon replaces the persisted lexicon with lex's contents.
	SaveLexicon(ctx context.Context, lex *lexicon.Lexicon) error

	// Close releases any resources held by the store.
	Close()
}
