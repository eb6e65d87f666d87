package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arvidsson/chatterbox/internal/lexicon"
	"github.com/arvidsson/chatterbox/internal/store"
)

// Store is the PostgreSQL-backed implementation of [store.Store]. It holds a
// single [pgxpool.Pool] and is safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore opens a connection pool to the database at dsn and runs [Migrate]
// to ensure every required table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) SaveSymbol(ctx context.Context, id uint32, word string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO symbols (id, word) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET word = EXCLUDED.word
	`, id, word)
	if err != nil {
		return fmt.Errorf("postgres store: save symbol %d: %w", id, err)
	}
	return nil
}

func (s *Store) SaveNode(ctx context.Context, tree string, id, parentID uint64, hasParent bool, symbol uint32, usage, count uint64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trie_nodes (tree, id, parent_id, has_parent, symbol, usage_count, leaf_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tree, id) DO UPDATE SET
			usage_count = EXCLUDED.usage_count,
			leaf_count  = EXCLUDED.leaf_count
	`, tree, id, parentID, hasParent, symbol, usage, count)
	if err != nil {
		return fmt.Errorf("postgres store: save node %s/%d: %w", tree, id, err)
	}
	return nil
}

func (s *Store) LoadSymbols(ctx context.Context) ([]store.SymbolRow, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, word FROM symbols ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres store: load symbols: %w", err)
	}
	defer rows.Close()

	var out []store.SymbolRow
	for rows.Next() {
		var r store.SymbolRow
		if err := rows.Scan(&r.ID, &r.Word); err != nil {
			return nil, fmt.Errorf("postgres store: scan symbol row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) LoadNodes(ctx context.Context) ([]store.NodeRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tree, id, parent_id, has_parent, symbol, usage_count, leaf_count
		FROM trie_nodes
		ORDER BY tree, id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres store: load nodes: %w", err)
	}
	defer rows.Close()

	var out []store.NodeRow
	for rows.Next() {
		var r store.NodeRow
		if err := rows.Scan(&r.Tree, &r.ID, &r.ParentID, &r.HasParent, &r.Symbol, &r.Usage, &r.Count); err != nil {
			return nil, fmt.Errorf("postgres store: scan node row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) LoadLexicon(ctx context.Context) (*lexicon.Lexicon, error) {
	lex := lexicon.New()

	if err := loadWordSet(ctx, s.pool, "banned_words", lex.Banned); err != nil {
		return nil, err
	}
	if err := loadWordSet(ctx, s.pool, "aux_words", lex.Aux); err != nil {
		return nil, err
	}
	if err := loadWordSet(ctx, s.pool, "greeting_words", lex.Greeting); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `SELECT from_word, to_word FROM swap_pairs`)
	if err != nil {
		return nil, fmt.Errorf("postgres store: load swap pairs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("postgres store: scan swap pair: %w", err)
		}
		lex.Swap[from] = append(lex.Swap[from], to)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lex, nil
}

func loadWordSet(ctx context.Context, pool *pgxpool.Pool, table string, dst map[string]struct{}) error {
	rows, err := pool.Query(ctx, fmt.Sprintf(`SELECT word FROM %s`, table))
	if err != nil {
		return fmt.Errorf("postgres store: load %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return fmt.Errorf("postgres store: scan %s row: %w", table, err)
		}
		dst[word] = struct{}{}
	}
	return rows.Err()
}

func (s *Store) SaveLexicon(ctx context.Context, lex *lexicon.Lexicon) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres store: begin save lexicon: %w", err)
	}
	defer tx.Rollback(ctx)

	rows := lex.All()

	if err := replaceWordSet(ctx, tx, "banned_words", rows.Banned); err != nil {
		return err
	}
	if err := replaceWordSet(ctx, tx, "aux_words", rows.Aux); err != nil {
		return err
	}
	if err := replaceWordSet(ctx, tx, "greeting_words", rows.Greeting); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM swap_pairs`); err != nil {
		return fmt.Errorf("postgres store: clear swap_pairs: %w", err)
	}
	for _, r := range rows.Swap {
		if _, err := tx.Exec(ctx, `INSERT INTO swap_pairs (from_word, to_word) VALUES ($1, $2)`, r.From, r.To); err != nil {
			return fmt.Errorf("postgres store: insert swap pair %s->%s: %w", r.From, r.To, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres store: commit save lexicon: %w", err)
	}
	return nil
}

func replaceWordSet(ctx context.Context, tx pgx.Tx, table string, words []string) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
		return fmt.Errorf("postgres store: clear %s: %w", table, err)
	}
	for _, w := range words {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (word) VALUES ($1)`, table), w); err != nil {
			return fmt.Errorf("postgres store: insert into %s: %w", table, err)
		}
	}
	return nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

var _ store.Store = (*Store)(nil)
