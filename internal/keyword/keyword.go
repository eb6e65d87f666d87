// Package keyword implements the keyword selection policy described in the
// specification: swap substitution, banned-word dropping, auxiliary-word
// fallback, and interning of the survivors.
package keyword

import (
	"github.com/arvidsson/chatterbox/internal/lexicon"
	"github.com/arvidsson/chatterbox/internal/symbol"
	"github.com/arvidsson/chatterbox/internal/token"
)

// Select applies the selection policy to the word tokens of an utterance and
// returns the resulting keyword ids. Punctuation tokens never contribute.
//
// The policy, applied in order:
//  1. Substitute each word via lex.SwapTarget, if one exists.
//  2. Drop words in lex.Banned.
//  3. Split the remainder into a primary set (everything not in lex.Aux) and
//     a secondary set (everything in lex.Aux).
//  4. Intern surviving words; words never seen during learning are excluded.
//  5. Use the primary set if non-empty, else the secondary set.
func Select(tokens []token.Token, lex *lexicon.Lexicon, in *symbol.Interner) []uint32 {
	var primary, secondary []string

	for _, tok := range tokens {
		if tok.Kind != token.Word {
			continue
		}

		word := tok.Text
		if target, ok := lex.SwapTarget(word); ok {
			word = target
		}
		if lex.IsBanned(word) {
			continue
		}
		if lex.IsAux(word) {
			secondary = append(secondary, word)
		} else {
			primary = append(primary, word)
		}
	}

	survivors := primary
	if len(survivors) == 0 {
		survivors = secondary
	}

	var ids []uint32
	seen := make(map[uint32]struct{}, len(survivors))
	for _, word := range survivors {
		id, ok := in.Lookup(word)
		if !ok {
			continue // UnknownKeyword: silently dropped
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Set wraps a keyword id slice with O(1) membership testing, used by the
// babble generator's keyword-bias step.
type Set struct {
	ids  []uint32
	used map[uint32]bool
}

// NewSet builds a [Set] from the given keyword ids, deduplicating.
func NewSet(ids []uint32) *Set {
	s := &Set{used: make(map[uint32]bool, len(ids))}
	seen := make(map[uint32]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		s.ids = append(s.ids, id)
		s.used[id] = false
	}
	return s
}

// Contains reports whether id is one of the set's keywords.
func (s *Set) Contains(id uint32) bool {
	_, ok := s.used[id]
	return ok
}

// Available reports whether id is a keyword that has not yet been consumed
// this reply.
func (s *Set) Available(id uint32) bool {
	used, ok := s.used[id]
	return ok && !used
}

// Use marks id as consumed, so it will not be substituted again this reply.
func (s *Set) Use(id uint32) {
	if _, ok := s.used[id]; ok {
		s.used[id] = true
	}
}

// Reset clears every keyword's used state, so the set can be reused for a
// fresh candidate: "each keyword used at most once" (spec.md §4.5) applies
// per candidate, not across an entire search.
func (s *Set) Reset() {
	for id := range s.used {
		s.used[id] = false
	}
}

// Ids returns the set's keyword ids, in selection order.
func (s *Set) Ids() []uint32 {
	return s.ids
}

// HitCount returns how many distinct keywords from s appear in reply.
func (s *Set) HitCount(reply []uint32) int {
	hit := make(map[uint32]struct{})
	for _, id := range reply {
		if s.Contains(id) {
			hit[id] = struct{}{}
		}
	}
	return len(hit)
}

// Empty reports whether the set has no keywords.
func (s *Set) Empty() bool {
	return len(s.ids) == 0
}
