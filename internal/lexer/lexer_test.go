package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satlang/saturate/internal/config"
	"github.com/satlang/saturate/internal/lexer"
	"github.com/satlang/saturate/internal/token"
)

func TestLexBasicTokens(t *testing.T) {
	cfg := config.Default()
	toks, err := lexer.Lex([]byte(`BEGIN { PUSH "hi" GATE depth < 3 }`), cfg)
	require.NoError(t, err)

	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []token.Kind{
		token.IDENT, token.LBRACE, token.IDENT, token.STRING, token.IDENT,
		token.REF, token.LT, token.INT, token.RBRACE, token.EOF,
	}, kinds)
}

func TestLexStripsCommentsAndWhitespace(t *testing.T) {
	cfg := config.Default()
	toks, err := lexer.Lex([]byte("P { # a comment\n  HALT }"), cfg)
	require.NoError(t, err)
	require.Len(t, toks, 5) // IDENT LBRACE IDENT RBRACE EOF
	assert.Equal(t, token.IDENT, toks[2].Kind)
	assert.Equal(t, "HALT", toks[2].Value)
}

func TestLexUnterminatedString(t *testing.T) {
	cfg := config.Default()
	_, err := lexer.Lex([]byte(`P { PUSH "unterminated }`), cfg)
	require.Error(t, err)
	lexErr, ok := err.(*lexer.Error)
	require.True(t, ok)
	assert.Contains(t, lexErr.Reason, "unterminated string")
}

func TestLexUnknownCharacter(t *testing.T) {
	cfg := config.Default()
	_, err := lexer.Lex([]byte(`P { PUSH $ }`), cfg)
	require.Error(t, err)
	lexErr, ok := err.(*lexer.Error)
	require.True(t, ok)
	assert.Contains(t, lexErr.Reason, "unknown character")
}

func TestLexTokenCountLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxTokens = 3
	_, err := lexer.Lex([]byte(`P { PUSH "a" PUSH "b" }`), cfg)
	require.Error(t, err)
	lexErr, ok := err.(*lexer.Error)
	require.True(t, ok)
	assert.Contains(t, lexErr.Reason, "max_tokens")
}

func TestLexSourceTooLarge(t *testing.T) {
	cfg := config.Default()
	cfg.MaxSourceBytes = 4
	_, err := lexer.Lex([]byte(`P { HALT }`), cfg)
	require.Error(t, err)
	lexErr, ok := err.(*lexer.Error)
	require.True(t, ok)
	assert.Contains(t, lexErr.Reason, "max_source_bytes")
}

func TestLexIntNormalizationIsLexicalPassthrough(t *testing.T) {
	// Normalization happens in the parser; the lexer preserves raw digits.
	cfg := config.Default()
	toks, err := lexer.Lex([]byte(`P { GATE depth == 007 }`), cfg)
	require.NoError(t, err)

	var found string
	for _, tok := range toks {
		if tok.Kind == token.INT {
			found = tok.Value
		}
	}
	assert.Equal(t, "007", found)
}

func TestLexSymbolTooLong(t *testing.T) {
	cfg := config.Default()
	cfg.MaxSymbolLen = 4
	_, err := lexer.Lex([]byte(`P { PUSH "toolongvalue" }`), cfg)
	require.Error(t, err)
	lexErr, ok := err.(*lexer.Error)
	require.True(t, ok)
	assert.Contains(t, lexErr.Reason, "max_symbol_len")
}
