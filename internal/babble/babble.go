// Package babble implements the bidirectional reply generator: starting from
// an anchor symbol, it extends a candidate reply forward and backward by
// weighted sampling over the trie pair, biasing towards unused keywords
// whenever one is reachable.
package babble

import (
	"math/rand/v2"

	"github.com/arvidsson/chatterbox/internal/keyword"
	"github.com/arvidsson/chatterbox/internal/symbol"
	"github.com/arvidsson/chatterbox/internal/trie"
)

// MaxTokens bounds the length of a generated reply, guarding against a
// pathological model that never samples <FIN>.
const MaxTokens = 1024

// Generate produces one candidate reply as a sequence of symbol ids, seeded
// from an anchor chosen from keywords (uniformly at random among them), or,
// if keywords is empty, from the forward trie root's children weighted by
// usage. rng must be a deterministic source tied to the caller's session seed
// for [Generate] to itself be deterministic, as required by the reply
// determinism law.
func Generate(pair *trie.Pair, keywords *keyword.Set, rng *rand.Rand) []uint32 {
	anchor, ok := pickAnchor(pair, keywords, rng)
	if !ok {
		return nil
	}

	reply := []uint32{anchor}
	if keywords != nil && keywords.Contains(anchor) {
		keywords.Use(anchor)
	}

	reply = extend(pair.Forward, pair.Order, keywords, rng, reply, appendDirection)
	reply = extend(pair.Backward, pair.Order, keywords, rng, reply, prependDirection)
	return reply
}

// pickAnchor chooses the seed symbol for a new reply.
func pickAnchor(pair *trie.Pair, keywords *keyword.Set, rng *rand.Rand) (uint32, bool) {
	if keywords != nil && !keywords.Empty() {
		ids := keywords.Ids()
		return ids[rng.IntN(len(ids))], true
	}

	children := pair.Forward.Children(pair.Forward.Root())
	children = withoutSentinels(children)
	if len(children) == 0 {
		return 0, false
	}
	return sampleWeighted(children, rng), true
}

// direction controls whether a newly sampled symbol is appended or prepended
// to the reply under construction.
type direction int

const (
	appendDirection direction = iota
	prependDirection
)

// extend walks t from the root following up to order symbols of context
// (taken from the tail of reply for forward extension, or the head for
// backward extension), sampling one child at a time until <FIN> is sampled or
// MaxTokens is reached. Keywords already used in this reply are excluded from
// sampling, so each keyword appears at most once.
func extend(t *trie.Trie, order int, keywords *keyword.Set, rng *rand.Rand, reply []uint32, dir direction) []uint32 {
	for len(reply) < MaxTokens {
		ctx := context(reply, order, dir)
		node, _ := t.Walk(ctx)

		children := withoutSentinels(t.Children(node))
		if keywords != nil {
			kept := children[:0:0]
			for _, c := range children {
				if !keywords.Contains(c.Symbol) || keywords.Available(c.Symbol) {
					kept = append(kept, c)
				}
			}
			children = kept
		}
		if len(children) == 0 {
			break
		}

		next := sampleWeighted(children, rng)
		if bias, ok := keywordBias(children, keywords); ok {
			next = bias
		}
		if next == symbol.FinID {
			break
		}

		if keywords != nil && keywords.Available(next) {
			keywords.Use(next)
		}

		switch dir {
		case appendDirection:
			reply = append(reply, next)
		case prependDirection:
			reply = prepend(reply, next)
		}
	}
	return reply
}

// context returns the up-to-order trailing (forward) or leading (backward,
// read in reverse) symbols of reply to use as trie context.
func context(reply []uint32, order int, dir direction) []uint32 {
	n := len(reply)
	if n > order {
		n = order
	}
	ctx := make([]uint32, n)
	switch dir {
	case appendDirection:
		copy(ctx, reply[len(reply)-n:])
	case prependDirection:
		for i := 0; i < n; i++ {
			ctx[i] = reply[i]
		}
		reverse(ctx)
	}
	return ctx
}

// keywordBias implements the reference substitution policy: if any child at
// the current depth is an unused keyword, prefer it over the sampled symbol.
// The first matching child (in trie insertion order) is used.
func keywordBias(children []trie.ChildInfo, keywords *keyword.Set) (uint32, bool) {
	if keywords == nil {
		return 0, false
	}
	for _, c := range children {
		if keywords.Available(c.Symbol) {
			return c.Symbol, true
		}
	}
	return 0, false
}

// sampleWeighted picks one child, weighted by usage, via a linear scan over
// a uniform draw in [0, totalUsage).
func sampleWeighted(children []trie.ChildInfo, rng *rand.Rand) uint32 {
	var total uint64
	for _, c := range children {
		total += c.Usage
	}
	if total == 0 {
		return children[0].Symbol
	}
	pick := rng.Uint64N(total)
	var acc uint64
	for _, c := range children {
		acc += c.Usage
		if pick < acc {
			return c.Symbol
		}
	}
	return children[len(children)-1].Symbol
}

// withoutSentinels filters out the <ERROR> child, which is never a valid
// generation target (the root itself carries <ERROR> as its own symbol, but
// never appears as anyone's child in practice; filtering defensively keeps
// sampleWeighted from ever emitting it).
func withoutSentinels(children []trie.ChildInfo) []trie.ChildInfo {
	out := children[:0:0]
	for _, c := range children {
		if c.Symbol == symbol.ErrorID {
			continue
		}
		out = append(out, c)
	}
	return out
}

func prepend(reply []uint32, sym uint32) []uint32 {
	out := make([]uint32, len(reply)+1)
	out[0] = sym
	copy(out[1:], reply)
	return out
}

func reverse(s []uint32) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
