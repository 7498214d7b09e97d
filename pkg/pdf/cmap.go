package pdf

import (
	"errors"
	"io"
	"unicode/utf16"
)

type codespace struct {
	lo, hi uint32
	n      int
}

type cidRange struct {
	lo, hi uint32
	cid    int
}

// cmap holds the code to CID and code to Unicode mappings of a CMap stream
type cmap struct {
	spaces  []codespace
	cids    []cidRange
	unicode map[uint32]rune
}

func (d *Document) parseCMap(obj Object) *cmap {
	s, ok := d.Resolve(obj).(Stream)
	if !ok {
		return nil
	}
	data, _, err := d.DecodeStream(s)
	if err != nil {
		return nil
	}
	return parseCMap(data)
}

func parseCMap(data []byte) *cmap {
	cm := &cmap{unicode: make(map[uint32]rune)}
	p := NewParser(data)
	var stack []Object
	section := ""

	for {
		obj, err := p.ParseObject()
		if errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			continue
		}
		kw, isKeyword := obj.(Keyword)
		if !isKeyword {
			if section != "" {
				stack = append(stack, obj)
			}
			continue
		}

		switch kw {
		case "begincodespacerange", "beginbfchar", "beginbfrange", "begincidchar", "begincidrange":
			section = string(kw)
			stack = stack[:0]
		case "endcodespacerange":
			for i := 0; i+1 < len(stack); i += 2 {
				lo, n := codeOf(stack[i])
				hi, _ := codeOf(stack[i+1])
				if n > 0 {
					cm.spaces = append(cm.spaces, codespace{lo: lo, hi: hi, n: n})
				}
			}
			section = ""
		case "endbfchar":
			for i := 0; i+1 < len(stack); i += 2 {
				code, n := codeOf(stack[i])
				if n == 0 {
					continue
				}
				if dst, ok := stack[i+1].(String); ok {
					cm.unicode[code] = utf16Rune(dst.Value)
				} else if name, ok := stack[i+1].(Name); ok {
					cm.unicode[code] = glyphRune(string(name))
				}
			}
			section = ""
		case "endbfrange":
			for i := 0; i+2 < len(stack); i += 3 {
				lo, n1 := codeOf(stack[i])
				hi, n2 := codeOf(stack[i+1])
				if n1 == 0 || n2 == 0 || hi < lo || hi-lo > 0xFFFF {
					continue
				}
				switch dst := stack[i+2].(type) {
				case String:
					base := utf16Rune(dst.Value)
					for c := lo; c <= hi; c++ {
						cm.unicode[c] = base + rune(c-lo)
					}
				case Array:
					for j, item := range dst {
						if s, ok := item.(String); ok && lo+uint32(j) <= hi {
							cm.unicode[lo+uint32(j)] = utf16Rune(s.Value)
						}
					}
				}
			}
			section = ""
		case "endcidchar":
			for i := 0; i+1 < len(stack); i += 2 {
				code, n := codeOf(stack[i])
				cid, ok := toInt(stack[i+1])
				if n > 0 && ok {
					cm.cids = append(cm.cids, cidRange{lo: code, hi: code, cid: cid})
				}
			}
			section = ""
		case "endcidrange":
			for i := 0; i+2 < len(stack); i += 3 {
				lo, n1 := codeOf(stack[i])
				hi, n2 := codeOf(stack[i+1])
				cid, ok := toInt(stack[i+2])
				if n1 > 0 && n2 > 0 && ok {
					cm.cids = append(cm.cids, cidRange{lo: lo, hi: hi, cid: cid})
				}
			}
			section = ""
		}
	}
	return cm
}

func codeOf(obj Object) (uint32, int) {
	s, ok := obj.(String)
	if !ok || len(s.Value) == 0 || len(s.Value) > 4 {
		return 0, 0
	}
	var v uint32
	for _, b := range s.Value {
		v = v<<8 | uint32(b)
	}
	return v, len(s.Value)
}

func utf16Rune(b []byte) rune {
	if len(b) == 1 {
		return rune(b[0])
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	rs := utf16.Decode(units)
	if len(rs) == 0 {
		return 0
	}
	return rs[0]
}

// next splits the first character code off a string
func (cm *cmap) next(b []byte) (uint32, int) {
	if cm != nil && len(cm.spaces) > 0 {
		for n := 1; n <= 4 && n <= len(b); n++ {
			var v uint32
			for _, c := range b[:n] {
				v = v<<8 | uint32(c)
			}
			for _, sp := range cm.spaces {
				if sp.n == n && v >= sp.lo && v <= sp.hi {
					return v, n
				}
			}
		}
	}
	if len(b) >= 2 {
		return uint32(b[0])<<8 | uint32(b[1]), 2
	}
	return uint32(b[0]), 1
}

// cid maps a character code to a CID; codes without a mapping are identity
func (cm *cmap) cid(code uint32) int {
	if cm != nil {
		for _, r := range cm.cids {
			if code >= r.lo && code <= r.hi {
				return r.cid + int(code-r.lo)
			}
		}
		if len(cm.cids) > 0 {
			return 0
		}
	}
	return int(code)
}
