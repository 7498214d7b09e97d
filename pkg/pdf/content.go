package pdf

import (
	"bytes"
)

// Operation represents a content stream operation
type Operation struct {
	Operator string
	Operands []Object
}

// ContentStreamParser splits a content stream into operations
type ContentStreamParser struct {
	parser *Parser
}

// NewContentStreamParser creates a content stream parser over data
func NewContentStreamParser(data []byte) *ContentStreamParser {
	return &ContentStreamParser{parser: NewParser(data)}
}

// inlineAbbreviations expands the short keys allowed in inline image dictionaries
var inlineAbbreviations = map[Name]Name{
	"BPC": "BitsPerComponent",
	"CS":  "ColorSpace",
	"D":   "Decode",
	"DP":  "DecodeParms",
	"F":   "Filter",
	"H":   "Height",
	"IM":  "ImageMask",
	"I":   "Interpolate",
	"W":   "Width",
}

// ParseOperations parses operations until the end of the stream. Operands
// around a syntax error are discarded and parsing resumes after it.
func (p *ContentStreamParser) ParseOperations() ([]Operation, error) {
	var ops []Operation
	var operands []Object

	for {
		obj, err := p.parser.ParseObject()
		if err != nil {
			if p.parser.lex.Position() >= len(p.parser.lex.data) {
				return ops, nil
			}
			operands = nil
			continue
		}

		kw, isOp := obj.(Keyword)
		if !isOp {
			operands = append(operands, obj)
			continue
		}

		if kw == "BI" {
			img, err := p.readInlineImage()
			if err != nil {
				return ops, err
			}
			ops = append(ops, Operation{Operator: "BI", Operands: []Object{img}})
			operands = nil
			continue
		}

		ops = append(ops, Operation{Operator: string(kw), Operands: operands})
		operands = nil
	}
}

// readInlineImage reads "key value ... ID <data> EI" after a BI operator
func (p *ContentStreamParser) readInlineImage() (Stream, error) {
	dict := Dictionary{}
	for {
		obj, err := p.parser.ParseObject()
		if err != nil {
			return Stream{}, err
		}
		if kw, ok := obj.(Keyword); ok {
			if kw == "ID" {
				break
			}
			continue
		}
		key, ok := obj.(Name)
		if !ok {
			continue
		}
		value, err := p.parser.ParseObject()
		if err != nil {
			return Stream{}, err
		}
		if full, ok := inlineAbbreviations[key]; ok {
			key = full
		}
		dict[key] = expandInlineName(value)
	}

	lex := p.parser.lex
	start := lex.Position()
	if start < len(lex.data) && isWhitespace(lex.data[start]) {
		start++
	}

	end := findInlineEnd(lex.data, start)
	data := lex.data[start:end]
	lex.Seek(end + 2)
	return Stream{Dictionary: dict, Data: trimSeparator(data)}, nil
}

// trimSeparator drops the single end-of-line or space that precedes EI
func trimSeparator(data []byte) []byte {
	if bytes.HasSuffix(data, []byte("\r\n")) {
		return data[:len(data)-2]
	}
	if n := len(data); n > 0 && (data[n-1] == '\n' || data[n-1] == '\r' || data[n-1] == ' ') {
		return data[:n-1]
	}
	return data
}

// findInlineEnd finds an EI keyword delimited by whitespace
func findInlineEnd(data []byte, from int) int {
	for i := from; i+1 < len(data); i++ {
		if data[i] != 'E' || data[i+1] != 'I' {
			continue
		}
		if i > from && !isWhitespace(data[i-1]) {
			continue
		}
		if i+2 < len(data) && !isWhitespace(data[i+2]) && !isDelimiter(data[i+2]) {
			continue
		}
		return i
	}
	return len(data)
}

var inlineNames = map[Name]Name{
	"G":    "DeviceGray",
	"RGB":  "DeviceRGB",
	"CMYK": "DeviceCMYK",
	"I":    "Indexed",
	"AHx":  "ASCIIHexDecode",
	"A85":  "ASCII85Decode",
	"LZW":  "LZWDecode",
	"Fl":   "FlateDecode",
	"RL":   "RunLengthDecode",
	"CCF":  "CCITTFaxDecode",
	"DCT":  "DCTDecode",
}

func expandInlineName(obj Object) Object {
	switch v := obj.(type) {
	case Name:
		if full, ok := inlineNames[v]; ok {
			return full
		}
	case Array:
		out := make(Array, len(v))
		for i, item := range v {
			out[i] = expandInlineName(item)
		}
		return out
	}
	return obj
}
