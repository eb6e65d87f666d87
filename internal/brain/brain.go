// Package brain wires the tokenizer, symbol interner, trie pair, keyword
// selector, babble generator, evaluator, and reconstructor into the stateful
// object described by the specification: learn(text), reply(text, budget),
// greet(), converse(text). It also owns the write-behind persistence mirror
// and the metrics/tracing instrumentation around those four operations.
package brain

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/arvidsson/chatterbox/internal/babble"
	"github.com/arvidsson/chatterbox/internal/evaluator"
	"github.com/arvidsson/chatterbox/internal/keyword"
	"github.com/arvidsson/chatterbox/internal/lexicon"
	"github.com/arvidsson/chatterbox/internal/observe"
	"github.com/arvidsson/chatterbox/internal/reconstruct"
	"github.com/arvidsson/chatterbox/internal/store"
	"github.com/arvidsson/chatterbox/internal/symbol"
	"github.com/arvidsson/chatterbox/internal/token"
	"github.com/arvidsson/chatterbox/internal/trie"
)

// FallbackReply is returned, bit-exact, whenever reply generation has
// nothing to offer: an empty model, a budget that never accepted a
// candidate, or an empty greeting set.
const FallbackReply = "I don't know enough to answer you yet!"

// Budget bounds a reply search either by wall-clock duration or by a fixed
// iteration count. A zero field means that dimension is unbounded; Config's
// Validate requires at least one of the two to be positive.
type Budget struct {
	Duration   time.Duration
	Iterations int
}

// Brain is the single stateful object the specification describes as the
// "(symbols, tries, lexicons, config, RNG) ensemble": one logical unit with
// init and no hidden process-wide singletons. Learn takes the exclusive
// write lock; Reply and Greet take the shared read lock.
type Brain struct {
	mu sync.RWMutex

	rng *rand.Rand

	interner *symbol.Interner
	pair     *trie.Pair
	lexicon  *lexicon.Lexicon

	store   *store.Guard
	metrics *observe.Metrics

	replies singleflight.Group
}

// Option configures a new Brain.
type Option func(*Brain)

// WithStore attaches a persistence backend. When omitted, the brain runs
// purely in memory.
func WithStore(s store.Store) Option {
	return func(b *Brain) { b.store = store.NewGuard(s) }
}

// WithMetrics attaches a metrics recorder. When omitted, [observe.DefaultMetrics]
// is used.
func WithMetrics(m *observe.Metrics) Option {
	return func(b *Brain) { b.metrics = m }
}

// WithSeed fixes the RNG seed, making Reply/Greet/Converse deterministic for
// a given model state.
func WithSeed(seed uint64) Option {
	return func(b *Brain) { b.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// New creates an empty Brain with the given N-gram order and lexicon.
func New(order int, lex *lexicon.Lexicon, opts ...Option) *Brain {
	b := &Brain{
		interner: symbol.New(),
		pair:     trie.NewPair(order),
		lexicon:  lex,
		metrics:  observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return b
}

// Restore rebuilds a Brain's in-memory state from a persisted store: it
// replays LoadSymbols/LoadNodes into a fresh interner and trie pair rather
// than hitting the database again on every subsequent Learn/Reply. A failed
// or empty load is not fatal — the brain simply starts empty, matching
// spec.md §7's StorageUnavailable policy.
func Restore(ctx context.Context, order int, s store.Store, opts ...Option) *Brain {
	b := New(order, lexicon.New(), opts...)
	b.store = store.NewGuard(s)

	syms, err := b.store.LoadSymbols(ctx)
	if err == nil && len(syms) > 0 {
		// The store holds only learned words; the sentinels are re-seeded here.
		rows := []symbol.Symbol{
			{ID: symbol.ErrorID, Word: symbol.ErrorWord},
			{ID: symbol.FinID, Word: symbol.FinWord},
		}
		for _, s := range syms {
			if s.ID == symbol.ErrorID || s.ID == symbol.FinID {
				continue
			}
			rows = append(rows, symbol.Symbol{ID: s.ID, Word: s.Word})
		}
		if in, err := symbol.Restore(rows); err == nil {
			b.interner = in
		}
	}

	if nodes, err := b.store.LoadNodes(ctx); err == nil && len(nodes) > 0 {
		var fRows, bRows []trie.NodeRow
		for _, n := range nodes {
			row := trie.NodeRow{
				Tree: n.Tree, ID: n.ID, ParentID: n.ParentID,
				HasParent: n.HasParent, Symbol: n.Symbol,
				Usage: n.Usage, Count: n.Count,
			}
			switch n.Tree {
			case "F":
				fRows = append(fRows, row)
			case "B":
				bRows = append(bRows, row)
			}
		}
		if len(fRows) > 0 && len(bRows) > 0 {
			b.pair = &trie.Pair{
				Order:    order,
				Forward:  trie.Restore("F", fRows),
				Backward: trie.Restore("B", bRows),
			}
		}
	}

	if lex, err := b.store.LoadLexicon(ctx); err == nil {
		b.lexicon = lex
	}

	return b
}

// StoreGuard returns the persistence guard the brain writes through to, or
// nil when no store was configured. Exposed so callers can wire its
// IsDegraded status into a readiness check.
func (b *Brain) StoreGuard() *store.Guard {
	return b.store
}

// SetLexicon swaps the banned/aux/greeting/swap word lists used by keyword
// selection and greeting. Safe to call while the brain is serving
// Learn/Reply/Greet concurrently; used to apply a config hot-reload without
// restarting the process.
func (b *Brain) SetLexicon(lex *lexicon.Lexicon) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lexicon = lex
}

// Learn tokenizes text (a possibly multi-line input), updates both tries for
// every line whose length exceeds the configured order, and writes new
// symbols/nodes through to the persistence guard. It returns
// (tokens_learned, lines_learned, lines_processed) per spec.md §4.3/§6.
//
// Learn holds the exclusive write lock for its whole duration: a learn call
// either commits every window from every qualifying line, or (on an internal
// panic-free error path there is none — tokenization and trie insertion never
// fail) none of it does, satisfying the all-or-nothing law from spec.md §5.
func (b *Brain) Learn(ctx context.Context, text string) (tokensLearned, linesLearned, linesProcessed int) {
	start := time.Now()
	b.mu.Lock()
	defer b.mu.Unlock()

	newSymbols := make(map[uint32]string)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		linesProcessed++

		ids := internLine(trimmed, b.interner, newSymbols)
		n, ok := b.pair.Learn(ids)
		if !ok {
			continue
		}
		tokensLearned += n
		linesLearned++
	}

	b.persistLearn(ctx, newSymbols)

	b.metrics.RecordLearn(ctx, time.Since(start).Seconds(), tokensLearned)
	return tokensLearned, linesLearned, linesProcessed
}

// internLine tokenizes a single trimmed line and interns every word token,
// recording any newly assigned id in newSymbols for the write-behind pass.
func internLine(line string, in *symbol.Interner, newSymbols map[uint32]string) []uint32 {
	tokens := token.TokenizeLine(line)
	ids := make([]uint32, len(tokens))
	for i, tok := range tokens {
		if id, ok := in.Lookup(tok.Text); ok {
			ids[i] = id
			continue
		}
		id := in.Intern(tok.Text)
		ids[i] = id
		newSymbols[id] = tok.Text
	}
	return ids
}

// persistLearn writes new symbols and the full current node set through to
// the store concurrently, mirroring hotctx.Assembler's errgroup fan-out.
// Both writes are independent (symbols and trie nodes are disjoint relations)
// so there is no shared state to race on.
func (b *Brain) persistLearn(ctx context.Context, newSymbols map[uint32]string) {
	if b.store == nil || len(newSymbols) == 0 {
		if b.store != nil {
			b.persistNodes(ctx)
		}
		return
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for id, word := range newSymbols {
			_ = b.store.SaveSymbol(egCtx, id, word)
		}
		return nil
	})
	eg.Go(func() error {
		b.persistNodes(egCtx)
		return nil
	})
	_ = eg.Wait()
}

func (b *Brain) persistNodes(ctx context.Context) {
	for _, row := range b.pair.Forward.All() {
		_ = b.store.SaveNode(ctx, row.Tree, row.ID, row.ParentID, row.HasParent, row.Symbol, row.Usage, row.Count)
	}
	for _, row := range b.pair.Backward.All() {
		_ = b.store.SaveNode(ctx, row.Tree, row.ID, row.ParentID, row.HasParent, row.Symbol, row.Usage, row.Count)
	}
}

// Reply runs the candidate search of spec.md §4.7 against the current
// utterance and returns the reconstructed best candidate, or [FallbackReply]
// if none is accepted. Concurrent identical requests (same utterance and
// budget) are deduplicated via singleflight so they share one generation run.
func (b *Brain) Reply(ctx context.Context, utterance string, budget Budget) string {
	start := time.Now()
	key := fmt.Sprintf("%s\x00%d\x00%d", strings.ToUpper(strings.TrimSpace(utterance)), budget.Duration, budget.Iterations)

	v, _, _ := b.replies.Do(key, func() (any, error) {
		return b.reply(ctx, utterance, budget), nil
	})

	reply := v.(string)
	b.metrics.RecordReply(ctx, time.Since(start).Seconds())
	return reply
}

func (b *Brain) reply(ctx context.Context, utterance string, budget Budget) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tokens := token.TokenizeLine(utterance)
	ids := keyword.Select(tokens, b.lexicon, b.interner)
	keywords := keyword.NewSet(ids)

	return b.runSearch(ctx, utterance, keywords, budget)
}

// runSearch runs one candidate search and returns its reconstructed best
// candidate, or [FallbackReply] if the model is empty or no candidate was
// accepted. It takes no lock itself; callers must hold b.mu's read lock.
func (b *Brain) runSearch(ctx context.Context, echoText string, keywords *keyword.Set, budget Budget) string {
	if b.interner.Len() <= 2 {
		b.metrics.RecordFallback(ctx)
		return FallbackReply
	}

	best := b.search(ctx, echoText, keywords, budget)
	if best == nil {
		b.metrics.RecordFallback(ctx)
		return FallbackReply
	}
	return reconstruct.String(best, b.interner)
}

// search performs the candidate loop of spec.md §4.7: generate, reject
// echoes of the input, score, and keep the best-scoring survivor. The loop
// stops when the wall-clock budget elapses (if set) or the iteration budget
// is exhausted (if set); when neither is set, [defaultIterations] applies.
func (b *Brain) search(ctx context.Context, utterance string, keywords *keyword.Set, budget Budget) (best []uint32) {
	bestScore := math.Inf(-1)
	normalized := normalizeForEcho(utterance)

	var deadline time.Time
	hasDeadline := budget.Duration > 0
	if hasDeadline {
		deadline = time.Now().Add(budget.Duration)
	}

	maxIterations := budget.Iterations
	if maxIterations <= 0 {
		if hasDeadline {
			maxIterations = math.MaxInt
		} else {
			maxIterations = defaultIterations
		}
	}

	emptyStreak := 0
	for i := 0; i < maxIterations; i++ {
		if hasDeadline && time.Now().After(deadline) {
			break
		}

		keywords.Reset()
		candidate := babble.Generate(b.pair, keywords, b.rng)
		if len(candidate) == 0 {
			emptyStreak++
			if emptyStreak > maxEmptyAttempts {
				break
			}
			continue
		}
		emptyStreak = 0

		rendered := reconstruct.String(candidate, b.interner)
		isEcho := normalizeForEcho(rendered) == normalized
		b.metrics.RecordCandidate(ctx, isEcho)
		if isEcho {
			continue
		}

		score := evaluator.Score(candidate, b.pair, keywords)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best
}

const (
	defaultIterations = 200
	maxEmptyAttempts  = 20
)

// normalizeForEcho strips case and punctuation so echo rejection matches
// spec.md §4.7's "case-insensitive, punctuation-insensitive" rule.
func normalizeForEcho(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Greet chooses a word uniformly at random from GREETING ∩ known symbols and
// runs the reply pipeline with it as the sole keyword. An empty intersection
// returns the fallback string verbatim, per spec.md §6.
func (b *Brain) Greet(ctx context.Context) string {
	start := time.Now()
	b.mu.RLock()
	defer b.mu.RUnlock()

	candidates := b.knownGreetingWords()
	if len(candidates) == 0 {
		return FallbackReply
	}

	id := candidates[b.rng.IntN(len(candidates))]
	keywords := keyword.NewSet([]uint32{id})
	reply := b.runSearch(ctx, b.interner.Word(id), keywords, Budget{Iterations: defaultIterations})

	b.metrics.RecordReply(ctx, time.Since(start).Seconds())
	return reply
}

func (b *Brain) knownGreetingWords() []uint32 {
	rows := b.lexicon.All()
	var known []uint32
	for _, w := range rows.Greeting {
		if id, ok := b.interner.Lookup(w); ok {
			known = append(known, id)
		}
	}
	return known
}

// Converse learns from text, then replies to it with the given budget.
// Both effects occur unconditionally; reply success never gates learning.
func (b *Brain) Converse(ctx context.Context, text string, budget Budget) string {
	b.Learn(ctx, text)
	return b.Reply(ctx, text, budget)
}
