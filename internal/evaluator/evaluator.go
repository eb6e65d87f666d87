// Package evaluator scores candidate replies against a trie pair using a
// cross-entropy measure biased by keyword hits.
package evaluator

import (
	"math"

	"github.com/arvidsson/chatterbox/internal/keyword"
	"github.com/arvidsson/chatterbox/internal/trie"
)

// Weight is the keyword-hit weighting function applied to raw entropy: a
// reply with k keyword hits scores entropy * (1 + k). It is monotone
// non-decreasing in k, strictly increasing as soon as a reply contains any
// keyword at all, which favors on-topic replies over generic high-entropy
// ones without letting keyword count alone dominate the score.
func Weight(k int) float64 {
	return 1 + float64(k)
}

// Score computes entropy_f + entropy_b for reply against pair, then
// multiplies by [Weight] of the number of distinct keywords reply contains.
// Higher is better.
func Score(reply []uint32, pair *trie.Pair, keywords *keyword.Set) float64 {
	entropy := crossEntropy(pair.Forward, pair.Order, reply) +
		crossEntropy(pair.Backward, pair.Order, reverseCopy(reply))

	k := 0
	if keywords != nil {
		k = keywords.HitCount(reply)
	}
	return entropy * Weight(k)
}

// crossEntropy computes -mean(log p(r[i])) over every position i of r. At
// each position it backs off from the full order-bounded context to shorter
// suffixes until it finds the longest one that is a valid trie-prefix match
// with a nonzero conditional probability child.usage/parent.usage. Only a
// position where even the shortest (empty) context has no usable child is
// skipped entirely.
func crossEntropy(t *trie.Trie, order int, r []uint32) float64 {
	var sum float64
	var n int

	for i := range r {
		lo := 0
		if i+1 > order {
			lo = i + 1 - order
		}

		p, ok := backoffProbability(t, r[lo:i], r[i])
		if !ok {
			continue
		}
		sum += -math.Log(p)
		n++
	}

	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// backoffProbability looks up p(next | context), backing off from context as
// given to progressively shorter suffixes (dropping the oldest token first)
// until it finds the longest one that is both a valid root path and has a
// child for next. ok is false only when even the empty context (the trie
// root) has no such child.
func backoffProbability(t *trie.Trie, context []uint32, next uint32) (p float64, ok bool) {
	for {
		node, depth := t.Walk(context)
		if depth == len(context) {
			parentUsage := t.Usage(node)
			if parentUsage > 0 {
				if childID, found := t.ChildByID(node, next); found {
					if childUsage := t.Usage(childID); childUsage > 0 {
						return float64(childUsage) / float64(parentUsage), true
					}
				}
			}
		}

		if len(context) == 0 {
			return 0, false
		}
		context = context[1:]
	}
}

func reverseCopy(s []uint32) []uint32 {
	out := make([]uint32, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
