package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/arvidsson/chatterbox/internal/lexicon"
	"github.com/arvidsson/chatterbox/internal/resilience"
)

// Guard wraps a [Store] and makes every method non-fatal: a failing call is
// logged at warn level and swallowed, IsDegraded flips true, and the caller
// (the brain) keeps serving learn/reply from memory. A later successful call
// clears the degraded flag again.
//
// Calls are also routed through a [resilience.CircuitBreaker]: once the
// store has failed enough times in a row, the breaker opens and further
// calls are rejected immediately (without touching the store) until its
// reset timeout elapses, rather than letting every learn/reply retry a
// database that's already down.
//
// Guard implements [Store].
type Guard struct {
	store    Store
	breaker  *resilience.CircuitBreaker
	degraded atomic.Bool
}

// NewGuard wraps store in a [Guard].
func NewGuard(store Store) *Guard {
	return &Guard{
		store:   store,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "store"}),
	}
}

// IsDegraded reports whether the most recent call through the guard failed,
// either in the wrapped store or by rejection from the open circuit breaker.
// Any successful call, including a half-open probe, clears it.
func (g *Guard) IsDegraded() bool {
	return g.degraded.Load()
}

// call runs fn through the breaker, updates the degraded flag, and logs a
// warning on any failure (including a rejected call from an open breaker).
func (g *Guard) call(op string, fields []any, fn func() error) error {
	err := g.breaker.Execute(fn)
	if err != nil {
		g.degraded.Store(true)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			slog.Warn("store guard: circuit open, skipping call", append([]any{"op", op}, fields...)...)
		} else {
			slog.Warn("store guard: call failed, swallowing error", append([]any{"op", op, "error", err}, fields...)...)
		}
		return err
	}
	g.degraded.Store(false)
	return nil
}

func (g *Guard) SaveSymbol(ctx context.Context, id uint32, word string) error {
	g.call("SaveSymbol", []any{"id", id, "word", word}, func() error {
		return g.store.SaveSymbol(ctx, id, word)
	})
	return nil
}

func (g *Guard) SaveNode(ctx context.Context, tree string, id, parentID uint64, hasParent bool, symbol uint32, usage, count uint64) error {
	g.call("SaveNode", []any{"tree", tree, "id", id}, func() error {
		return g.store.SaveNode(ctx, tree, id, parentID, hasParent, symbol, usage, count)
	})
	return nil
}

func (g *Guard) LoadSymbols(ctx context.Context) ([]SymbolRow, error) {
	var rows []SymbolRow
	err := g.call("LoadSymbols", nil, func() error {
		var err error
		rows, err = g.store.LoadSymbols(ctx)
		return err
	})
	if err != nil {
		return nil, nil
	}
	return rows, nil
}

func (g *Guard) LoadNodes(ctx context.Context) ([]NodeRow, error) {
	var rows []NodeRow
	err := g.call("LoadNodes", nil, func() error {
		var err error
		rows, err = g.store.LoadNodes(ctx)
		return err
	})
	if err != nil {
		return nil, nil
	}
	return rows, nil
}

func (g *Guard) LoadLexicon(ctx context.Context) (*lexicon.Lexicon, error) {
	var lex *lexicon.Lexicon
	err := g.call("LoadLexicon", nil, func() error {
		var err error
		lex, err = g.store.LoadLexicon(ctx)
		return err
	})
	if err != nil {
		return lexicon.New(), nil
	}
	return lex, nil
}

func (g *Guard) SaveLexicon(ctx context.Context, lex *lexicon.Lexicon) error {
	g.call("SaveLexicon", nil, func() error {
		return g.store.SaveLexicon(ctx, lex)
	})
	return nil
}

// Close delegates to the wrapped store.
func (g *Guard) Close() {
	g.store.Close()
}

var _ Store = (*Guard)(nil)
