package pdf

import (
	"bytes"
	"fmt"
	"strconv"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenInteger
	TokenReal
	TokenString
	TokenHexString
	TokenName
	TokenArrayStart
	TokenArrayEnd
	TokenDictStart
	TokenDictEnd
	TokenKeyword
)

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value interface{}
	Pos   int
}

// SyntaxError reports malformed input at a byte offset
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pdf syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Lexer splits PDF bytes into tokens
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer creates a lexer positioned at offset 0
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// Position returns the offset of the next unread byte
func (l *Lexer) Position() int { return l.pos }

// Seek moves the lexer to an absolute offset
func (l *Lexer) Seek(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(l.data) {
		pos = len(l.data)
	}
	l.pos = pos
}

func isWhitespace(b byte) bool {
	return b == 0 || b == '\t' || b == '\n' || b == '\f' || b == '\r' || b == ' '
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

// skipWhitespace skips whitespace and comments
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) {
			l.pos++
			continue
		}
		if b == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

// NextToken returns the next token
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()
	pos := l.pos
	if pos >= len(l.data) {
		return Token{Type: TokenEOF, Pos: pos}, nil
	}

	b := l.data[pos]
	switch {
	case b == '[':
		l.pos++
		return Token{Type: TokenArrayStart, Pos: pos}, nil
	case b == ']':
		l.pos++
		return Token{Type: TokenArrayEnd, Pos: pos}, nil
	case b == '(':
		l.pos++
		return l.readLiteralString(pos)
	case b == '<':
		if l.peekAt(1) == '<' {
			l.pos += 2
			return Token{Type: TokenDictStart, Pos: pos}, nil
		}
		l.pos++
		return l.readHexString(pos)
	case b == '>':
		if l.peekAt(1) == '>' {
			l.pos += 2
			return Token{Type: TokenDictEnd, Pos: pos}, nil
		}
		l.pos++
		return Token{}, &SyntaxError{Offset: pos, Msg: "unexpected '>'"}
	case b == '/':
		l.pos++
		return l.readName(pos), nil
	case b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9'):
		return l.readNumber(pos), nil
	case b == '{' || b == '}':
		// PostScript calculator braces inside function streams
		l.pos++
		return Token{Type: TokenKeyword, Value: string(b), Pos: pos}, nil
	case b == ')':
		l.pos++
		return Token{}, &SyntaxError{Offset: pos, Msg: "unbalanced ')'"}
	default:
		return l.readKeyword(pos), nil
	}
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n < len(l.data) {
		return l.data[l.pos+n]
	}
	return 0
}

func (l *Lexer) readLiteralString(pos int) (Token, error) {
	var buf bytes.Buffer
	depth := 1

	for l.pos < len(l.data) {
		b := l.data[l.pos]
		l.pos++
		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Value: buf.Bytes(), Pos: pos}, nil
			}
			buf.WriteByte(b)
		case '\\':
			l.readEscape(&buf)
		case '\r':
			// end-of-line markers inside strings read as a single LF
			if l.pos < len(l.data) && l.data[l.pos] == '\n' {
				l.pos++
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
	return Token{}, &SyntaxError{Offset: pos, Msg: "unterminated string"}
}

func (l *Lexer) readEscape(buf *bytes.Buffer) {
	if l.pos >= len(l.data) {
		return
	}
	b := l.data[l.pos]
	l.pos++

	switch b {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		if l.pos < len(l.data) && l.data[l.pos] == '\n' {
			l.pos++
		}
	case '\n':
	default:
		if b >= '0' && b <= '7' {
			v := int(b - '0')
			for i := 0; i < 2 && l.pos < len(l.data); i++ {
				c := l.data[l.pos]
				if c < '0' || c > '7' {
					break
				}
				v = v*8 + int(c-'0')
				l.pos++
			}
			buf.WriteByte(byte(v))
			return
		}
		buf.WriteByte(b)
	}
}

func (l *Lexer) readHexString(pos int) (Token, error) {
	var out []byte
	var hi byte
	half := false

	for l.pos < len(l.data) {
		b := l.data[l.pos]
		l.pos++
		if b == '>' {
			if half {
				out = append(out, hi<<4)
			}
			return Token{Type: TokenHexString, Value: out, Pos: pos}, nil
		}
		v, ok := hexValue(b)
		if !ok {
			continue
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	return Token{}, &SyntaxError{Offset: pos, Msg: "unterminated hex string"}
}

func (l *Lexer) readName(pos int) Token {
	var buf bytes.Buffer
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		b := l.data[l.pos]
		l.pos++
		if b == '#' && l.pos+1 < len(l.data) {
			hi, ok1 := hexValue(l.data[l.pos])
			lo, ok2 := hexValue(l.data[l.pos+1])
			if ok1 && ok2 {
				buf.WriteByte(hi<<4 | lo)
				l.pos += 2
				continue
			}
		}
		buf.WriteByte(b)
	}
	return Token{Type: TokenName, Value: buf.String(), Pos: pos}
}

func (l *Lexer) readNumber(pos int) Token {
	start := l.pos
	isReal := false
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '.' {
			isReal = true
		} else if !(b >= '0' && b <= '9') && !((b == '-' || b == '+') && l.pos == start) {
			break
		}
		l.pos++
	}

	text := string(l.data[start:l.pos])
	if !isReal {
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Token{Type: TokenInteger, Value: v, Pos: pos}
		}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// malformed numbers such as "--5" or a lone "-" read as zero
		v = 0
	}
	return Token{Type: TokenReal, Value: v, Pos: pos}
}

func (l *Lexer) readKeyword(pos int) Token {
	start := l.pos
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		// stray delimiter; consume it so the caller makes progress
		l.pos++
	}
	return Token{Type: TokenKeyword, Value: string(l.data[start:l.pos]), Pos: pos}
}
