// Package reconstruct turns a sequence of symbol ids back into readable text:
// detokenization, sentence casing, and terminal punctuation.
package reconstruct

import (
	"strings"
	"unicode"

	"github.com/arvidsson/chatterbox/internal/symbol"
)

// String renders ids as a single sentence. Sentinel ids (<ERROR>, <FIN>) are
// dropped before rendering.
func String(ids []uint32, in *symbol.Interner) string {
	var b strings.Builder
	first := true

	for _, id := range ids {
		if id == symbol.ErrorID || id == symbol.FinID {
			continue
		}
		word := in.Word(id)
		isWord := isWordText(word)

		// A word token always gets a preceding space (after the first token);
		// a punctuation token is appended directly, never preceded by a space.
		if !first && isWord {
			b.WriteByte(' ')
		}
		b.WriteString(word)
		first = false
	}

	return finish(b.String())
}

// finish applies sentence casing and ensures terminal punctuation.
func finish(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(strings.ToLower(s))
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
	}
	s = string(runes)

	trimmed := strings.TrimRight(s, " \t")
	if trimmed == "" {
		return s
	}
	last := trimmed[len(trimmed)-1]
	switch last {
	case '.', '!', '?':
		return trimmed
	default:
		return trimmed + "."
	}
}

// isWordText reports whether text is a "word" token's text, judged by its
// first rune being a letter or digit (tokens are uniform runs, so the first
// rune decides the tokenizer's classification; an empty string never occurs
// since the tokenizer never emits empty tokens).
func isWordText(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
		return false
	}
	return false
}
