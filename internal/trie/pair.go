package trie

import "github.com/arvidsson/chatterbox/internal/symbol"

// Pair holds the forward and backward tries for a fixed order N and applies
// the learner's context-window update rule (specification §4.3) to both in
// lock step.
type Pair struct {
	Order    int
	Forward  *Trie
	Backward *Trie
}

// NewPair returns an empty [Pair] for the given order.
func NewPair(order int) *Pair {
	return &Pair{
		Order:    order,
		Forward:  New("F"),
		Backward: New("B"),
	}
}

// Learn applies the learner policy to a single sentence of symbol ids (no
// <FIN> appended by the caller — Learn appends it conceptually).
//
// If len(sentence) <= Order, neither trie is modified and ok is false (the
// "short input" no-op case). Otherwise both tries receive every context
// window in one pass and ok is true; tokensLearned is len(sentence).
//
// Because no step here can fail, the update is naturally atomic: either both
// tries gain every window or (on short input) neither gains any.
func (p *Pair) Learn(sentence []uint32) (tokensLearned int, ok bool) {
	if len(sentence) <= p.Order {
		return 0, false
	}

	// Forward sequence: the sentence with <FIN> marking its end.
	fseq := make([]uint32, len(sentence)+1)
	copy(fseq, sentence)
	fseq[len(sentence)] = symbol.FinID

	// Backward sequence is exactly the reverse of fseq, which places <FIN> at
	// the start as the specification requires.
	bseq := make([]uint32, len(fseq))
	for i, s := range fseq {
		bseq[len(fseq)-1-i] = s
	}

	windowLen := p.Order + 1
	windowCount := len(fseq) - p.Order // == len(fseq) - windowLen + 1

	for i := 0; i < windowCount; i++ {
		p.Forward.Insert(fseq[i : i+windowLen])
	}
	for i := 0; i < windowCount; i++ {
		p.Backward.Insert(bseq[i : i+windowLen])
	}

	return len(sentence), true
}
