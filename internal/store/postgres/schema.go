// Package postgres provides a PostgreSQL-backed implementation of
// [store.Store], persisting the interned symbol table, both trie node
// relations, and the four lexicon sets as a write-behind mirror of the
// in-memory brain.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlSymbols = `
CREATE TABLE IF NOT EXISTS symbols (
    id    BIGINT PRIMARY KEY,
    word  TEXT   NOT NULL
);
`

const ddlTrieNodes = `
CREATE TABLE IF NOT EXISTS trie_nodes (
    tree        TEXT    NOT NULL,
    id          BIGINT  NOT NULL,
    parent_id   BIGINT  NOT NULL,
    has_parent  BOOLEAN NOT NULL,
    symbol      BIGINT  NOT NULL,
    usage_count BIGINT  NOT NULL,
    leaf_count  BIGINT  NOT NULL,
    PRIMARY KEY (tree, id)
);

CREATE INDEX IF NOT EXISTS idx_trie_nodes_parent
    ON trie_nodes (tree, parent_id);
`

const ddlLexicon = `
CREATE TABLE IF NOT EXISTS banned_words (
    word TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS aux_words (
    word TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS greeting_words (
    word TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS swap_pairs (
    from_word TEXT NOT NULL,
    to_word   TEXT NOT NULL,
    PRIMARY KEY (from_word, to_word)
);
`

// Migrate creates every table this package needs, if it does not already
// exist. It is idempotent and safe to call on every process start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{ddlSymbols, ddlTrieNodes, ddlLexicon}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}
