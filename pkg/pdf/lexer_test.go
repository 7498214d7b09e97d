package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokens(t *testing.T, input string) []Token {
	t.Helper()
	lex := NewLexer([]byte(input))
	var out []Token
	for {
		tok, err := lex.NextToken()
		require.NoError(t, err)
		if tok.Type == TokenEOF {
			return out
		}
		out = append(out, tok)
	}
}

func TestLexerNumbers(t *testing.T) {
	toks := tokens(t, "42 -17 +3 3.14 -.5 10.")
	require.Len(t, toks, 6)

	assert.Equal(t, TokenInteger, toks[0].Type)
	assert.Equal(t, int64(42), toks[0].Value)
	assert.Equal(t, int64(-17), toks[1].Value)
	assert.Equal(t, int64(3), toks[2].Value)
	assert.Equal(t, TokenReal, toks[3].Type)
	assert.InDelta(t, 3.14, toks[3].Value, 1e-9)
	assert.InDelta(t, -0.5, toks[4].Value, 1e-9)
	assert.InDelta(t, 10.0, toks[5].Value, 1e-9)
}

func TestLexerMalformedNumberReadsAsZero(t *testing.T) {
	toks := tokens(t, "--5")
	require.Len(t, toks, 2)
	assert.Equal(t, TokenReal, toks[0].Type)
	assert.Equal(t, 0.0, toks[0].Value)
	assert.Equal(t, int64(-5), toks[1].Value)
}

func TestLexerLiteralStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`(hello)`, "hello"},
		{`(a (nested) b)`, "a (nested) b"},
		{`(esc\n\t\(\))`, "esc\n\t()"},
		{`(\101\102)`, "AB"},
		{"(line\\\ncont)", "linecont"},
		{"(cr\r\nlf)", "cr\nlf"},
	}
	for _, tt := range tests {
		toks := tokens(t, tt.input)
		require.Len(t, toks, 1, tt.input)
		assert.Equal(t, TokenString, toks[0].Type)
		assert.Equal(t, tt.want, string(toks[0].Value.([]byte)), tt.input)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	_, err := NewLexer([]byte("(never closed")).NextToken()
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, 0, syn.Offset)
}

func TestLexerHexStrings(t *testing.T) {
	toks := tokens(t, "<48 65 6C6C 6F> <901FA>")
	require.Len(t, toks, 2)
	assert.Equal(t, TokenHexString, toks[0].Type)
	assert.Equal(t, "Hello", string(toks[0].Value.([]byte)))
	// odd digit count pads with zero
	assert.Equal(t, []byte{0x90, 0x1F, 0xA0}, toks[1].Value)
}

func TestLexerNames(t *testing.T) {
	toks := tokens(t, "/Type /A#20B /Lime#47reen /")
	require.Len(t, toks, 4)
	assert.Equal(t, "Type", toks[0].Value)
	assert.Equal(t, "A B", toks[1].Value)
	assert.Equal(t, "LimeGreen", toks[2].Value)
	assert.Equal(t, "", toks[3].Value)
}

func TestLexerDelimitersAndComments(t *testing.T) {
	toks := tokens(t, "<< /K [1 2] >> % comment\n{ dup } obj")
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	assert.Equal(t, []TokenType{
		TokenDictStart, TokenName, TokenArrayStart, TokenInteger, TokenInteger, TokenArrayEnd, TokenDictEnd,
		TokenKeyword, TokenKeyword, TokenKeyword, TokenKeyword,
	}, types)
	assert.Equal(t, "{", toks[7].Value)
	assert.Equal(t, "dup", toks[8].Value)
	assert.Equal(t, "obj", toks[10].Value)
}

func TestLexerStrayClosers(t *testing.T) {
	_, err := NewLexer([]byte(">")).NextToken()
	assert.Error(t, err)
	_, err = NewLexer([]byte(")")).NextToken()
	assert.Error(t, err)
}

func TestLexerSeekClamps(t *testing.T) {
	lex := NewLexer([]byte("abc"))
	lex.Seek(-4)
	assert.Equal(t, 0, lex.Position())
	lex.Seek(99)
	assert.Equal(t, 3, lex.Position())
}

func TestCharacterClasses(t *testing.T) {
	for _, b := range []byte{' ', '\t', '\n', '\r', '\f', 0} {
		assert.True(t, isWhitespace(b), "%q", b)
	}
	for _, b := range []byte{'(', ')', '<', '>', '[', ']', '{', '}', '/', '%'} {
		assert.True(t, isDelimiter(b), "%q", b)
	}
	for _, b := range []byte{'a', '1', '.', '-'} {
		assert.False(t, isDelimiter(b), "%q", b)
		assert.True(t, isRegular(b), "%q", b)
	}
}
