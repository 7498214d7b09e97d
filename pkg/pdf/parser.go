package pdf

import (
	"bytes"
	"fmt"
	"io"
)

// Parser reads PDF objects from a token stream
type Parser struct {
	lex *Lexer
	// length resolves indirect /Length values while reading streams.
	length func(Object) (int, bool)
}

// NewParser creates a parser over data
func NewParser(data []byte) *Parser {
	return &Parser{lex: NewLexer(data)}
}

// ParseObject parses the next direct object. Bare keywords other than
// true, false and null are returned as Keyword values.
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	return p.objectFrom(tok)
}

func (p *Parser) objectFrom(tok Token) (Object, error) {
	switch tok.Type {
	case TokenEOF:
		return nil, io.ErrUnexpectedEOF
	case TokenInteger:
		if ref, ok := p.tryReference(tok); ok {
			return ref, nil
		}
		return Integer(tok.Value.(int64)), nil
	case TokenReal:
		return Real(tok.Value.(float64)), nil
	case TokenString:
		return String{Value: tok.Value.([]byte)}, nil
	case TokenHexString:
		return String{Value: tok.Value.([]byte), IsHex: true}, nil
	case TokenName:
		return Name(tok.Value.(string)), nil
	case TokenArrayStart:
		return p.parseArray()
	case TokenDictStart:
		return p.parseDictionary()
	case TokenKeyword:
		switch kw := tok.Value.(string); kw {
		case "true":
			return Boolean(true), nil
		case "false":
			return Boolean(false), nil
		case "null":
			return Null{}, nil
		default:
			return Keyword(kw), nil
		}
	default:
		return nil, &SyntaxError{Offset: tok.Pos, Msg: "unexpected delimiter"}
	}
}

// tryReference looks ahead for "<int> <int> R" and rewinds if absent
func (p *Parser) tryReference(first Token) (Reference, bool) {
	save := p.lex.Position()
	gen, err := p.lex.NextToken()
	if err == nil && gen.Type == TokenInteger {
		r, err := p.lex.NextToken()
		if err == nil && r.Type == TokenKeyword && r.Value.(string) == "R" {
			return Reference{ObjectNumber: int(first.Value.(int64)), GenerationNumber: int(gen.Value.(int64))}, true
		}
	}
	p.lex.Seek(save)
	return Reference{}, false
}

func (p *Parser) parseArray() (Array, error) {
	arr := Array{}
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenArrayEnd {
			return arr, nil
		}
		if tok.Type == TokenEOF {
			return nil, &SyntaxError{Offset: tok.Pos, Msg: "unterminated array"}
		}
		obj, err := p.objectFrom(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDictionary() (Dictionary, error) {
	dict := Dictionary{}
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenEOF:
			return nil, &SyntaxError{Offset: tok.Pos, Msg: "unterminated dictionary"}
		case TokenName:
		default:
			// skip junk keys the way lenient readers do
			continue
		}

		vtok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		if vtok.Type == TokenDictEnd {
			// a key without a value closes the dictionary
			return dict, nil
		}
		value, err := p.objectFrom(vtok)
		if err != nil {
			return nil, err
		}
		if _, isNull := value.(Null); !isNull {
			dict[Name(tok.Value.(string))] = value
		}
	}
}

// ParseIndirectObject parses "N G obj ... endobj" at the current position
func (p *Parser) ParseIndirectObject() (Reference, Object, error) {
	start := p.lex.Position()
	num, err := p.lex.NextToken()
	if err != nil {
		return Reference{}, nil, err
	}
	gen, err := p.lex.NextToken()
	if err != nil {
		return Reference{}, nil, err
	}
	kw, err := p.lex.NextToken()
	if err != nil {
		return Reference{}, nil, err
	}
	if num.Type != TokenInteger || gen.Type != TokenInteger || kw.Type != TokenKeyword || kw.Value.(string) != "obj" {
		return Reference{}, nil, &SyntaxError{Offset: start, Msg: "expected indirect object header"}
	}
	ref := Reference{ObjectNumber: int(num.Value.(int64)), GenerationNumber: int(gen.Value.(int64))}

	obj, err := p.ParseObject()
	if err != nil {
		return ref, nil, fmt.Errorf("object %d %d: %w", ref.ObjectNumber, ref.GenerationNumber, err)
	}
	if kw, ok := obj.(Keyword); ok && kw == "endobj" {
		return ref, Null{}, nil
	}

	dict, isDict := obj.(Dictionary)
	if !isDict {
		return ref, obj, nil
	}

	save := p.lex.Position()
	next, err := p.lex.NextToken()
	if err == nil && next.Type == TokenKeyword && next.Value.(string) == "stream" {
		data, err := p.readStreamData(dict)
		if err != nil {
			return ref, nil, fmt.Errorf("object %d stream: %w", ref.ObjectNumber, err)
		}
		return ref, Stream{Dictionary: dict, Data: data}, nil
	}
	p.lex.Seek(save)
	return ref, dict, nil
}

var endstream = []byte("endstream")

// readStreamData reads the bytes following the "stream" keyword. A /Length
// that does not land on endstream is ignored and the keyword is searched for.
func (p *Parser) readStreamData(dict Dictionary) ([]byte, error) {
	data := p.lex.data
	pos := p.lex.Position()
	if pos < len(data) && data[pos] == '\r' {
		pos++
	}
	if pos < len(data) && data[pos] == '\n' {
		pos++
	}

	length, ok := toInt(dict.Get("Length"))
	if !ok && p.length != nil {
		length, ok = p.length(dict.Get("Length"))
	}

	if ok && length >= 0 && pos+length <= len(data) {
		end := pos + length
		tail := end
		for tail < len(data) && isWhitespace(data[tail]) {
			tail++
		}
		if bytes.HasPrefix(data[tail:], endstream) {
			p.lex.Seek(tail + len(endstream))
			return data[pos:end], nil
		}
	}

	idx := bytes.Index(data[pos:], endstream)
	if idx < 0 {
		return nil, &SyntaxError{Offset: pos, Msg: "missing endstream"}
	}
	end := pos + idx
	// drop the end-of-line marker that precedes endstream
	if end > pos && data[end-1] == '\n' {
		end--
	}
	if end > pos && data[end-1] == '\r' {
		end--
	}
	p.lex.Seek(pos + idx + len(endstream))
	return data[pos:end], nil
}
