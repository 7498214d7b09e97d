package pdf

import (
	"math"
	"strconv"
)

// psOp is one instruction of a type 4 calculator function
type psOp struct {
	op   string
	num  float64
	then []psOp
	els  []psOp
}

// parsePostScript parses the {...} body of a calculator function
func parsePostScript(data []byte) ([]psOp, bool) {
	lex := NewLexer(data)
	tok, err := lex.NextToken()
	if err != nil || tok.Type != TokenKeyword || tok.Value != "{" {
		return nil, false
	}
	return parsePSBlock(lex, 0)
}

func parsePSBlock(lex *Lexer, depth int) ([]psOp, bool) {
	if depth > 16 {
		return nil, false
	}
	var ops []psOp
	var pending [][]psOp
	for {
		tok, err := lex.NextToken()
		if err != nil || tok.Type == TokenEOF {
			return nil, false
		}
		switch tok.Type {
		case TokenInteger:
			ops = append(ops, psOp{num: float64(tok.Value.(int64))})
			continue
		case TokenReal:
			ops = append(ops, psOp{num: tok.Value.(float64)})
			continue
		case TokenKeyword:
		default:
			return nil, false
		}

		word := tok.Value.(string)
		switch word {
		case "}":
			return ops, true
		case "{":
			block, ok := parsePSBlock(lex, depth+1)
			if !ok {
				return nil, false
			}
			pending = append(pending, block)
		case "if":
			if len(pending) < 1 {
				return nil, false
			}
			ops = append(ops, psOp{op: "if", then: pending[len(pending)-1]})
			pending = pending[:0]
		case "ifelse":
			if len(pending) < 2 {
				return nil, false
			}
			ops = append(ops, psOp{op: "ifelse", then: pending[len(pending)-2], els: pending[len(pending)-1]})
			pending = pending[:0]
		default:
			if v, err := strconv.ParseFloat(word, 64); err == nil {
				ops = append(ops, psOp{num: v})
				continue
			}
			ops = append(ops, psOp{op: word})
		}
	}
}

type psStack []float64

func (s *psStack) push(v float64) { *s = append(*s, v) }

func (s *psStack) pop() float64 {
	if len(*s) == 0 {
		return 0
	}
	v := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return v
}

func boolF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func runPostScript(prog []psOp, in []float64) []float64 {
	st := make(psStack, 0, 32)
	st = append(st, in...)
	execPS(prog, &st, 0)
	return st
}

func execPS(prog []psOp, st *psStack, depth int) {
	if depth > 16 {
		return
	}
	for _, ins := range prog {
		if len(*st) > 1000 {
			return
		}
		switch ins.op {
		case "":
			st.push(ins.num)
		case "add":
			b, a := st.pop(), st.pop()
			st.push(a + b)
		case "sub":
			b, a := st.pop(), st.pop()
			st.push(a - b)
		case "mul":
			b, a := st.pop(), st.pop()
			st.push(a * b)
		case "div":
			b, a := st.pop(), st.pop()
			if b == 0 {
				st.push(0)
			} else {
				st.push(a / b)
			}
		case "idiv":
			b, a := int64(st.pop()), int64(st.pop())
			if b == 0 {
				st.push(0)
			} else {
				st.push(float64(a / b))
			}
		case "mod":
			b, a := int64(st.pop()), int64(st.pop())
			if b == 0 {
				st.push(0)
			} else {
				st.push(float64(a % b))
			}
		case "neg":
			st.push(-st.pop())
		case "abs":
			st.push(math.Abs(st.pop()))
		case "ceiling":
			st.push(math.Ceil(st.pop()))
		case "floor":
			st.push(math.Floor(st.pop()))
		case "round":
			st.push(math.Floor(st.pop() + 0.5))
		case "truncate", "cvi":
			st.push(math.Trunc(st.pop()))
		case "cvr":
		case "sqrt":
			st.push(math.Sqrt(math.Max(0, st.pop())))
		case "sin":
			st.push(math.Sin(st.pop() * math.Pi / 180))
		case "cos":
			st.push(math.Cos(st.pop() * math.Pi / 180))
		case "atan":
			b, a := st.pop(), st.pop()
			deg := math.Atan2(a, b) * 180 / math.Pi
			if deg < 0 {
				deg += 360
			}
			st.push(deg)
		case "exp":
			b, a := st.pop(), st.pop()
			st.push(math.Pow(a, b))
		case "ln":
			st.push(math.Log(st.pop()))
		case "log":
			st.push(math.Log10(st.pop()))
		case "eq":
			b, a := st.pop(), st.pop()
			st.push(boolF(a == b))
		case "ne":
			b, a := st.pop(), st.pop()
			st.push(boolF(a != b))
		case "gt":
			b, a := st.pop(), st.pop()
			st.push(boolF(a > b))
		case "ge":
			b, a := st.pop(), st.pop()
			st.push(boolF(a >= b))
		case "lt":
			b, a := st.pop(), st.pop()
			st.push(boolF(a < b))
		case "le":
			b, a := st.pop(), st.pop()
			st.push(boolF(a <= b))
		case "and":
			b, a := st.pop(), st.pop()
			st.push(float64(int64(a) & int64(b)))
		case "or":
			b, a := st.pop(), st.pop()
			st.push(float64(int64(a) | int64(b)))
		case "xor":
			b, a := st.pop(), st.pop()
			st.push(float64(int64(a) ^ int64(b)))
		case "not":
			a := st.pop()
			if a == 0 || a == 1 {
				st.push(1 - a)
			} else {
				st.push(float64(^int64(a)))
			}
		case "true":
			st.push(1)
		case "false":
			st.push(0)
		case "pop":
			st.pop()
		case "dup":
			v := st.pop()
			st.push(v)
			st.push(v)
		case "exch":
			b, a := st.pop(), st.pop()
			st.push(b)
			st.push(a)
		case "copy":
			n := int(st.pop())
			if n > 0 && n <= len(*st) {
				*st = append(*st, (*st)[len(*st)-n:]...)
			}
		case "index":
			n := int(st.pop())
			if n >= 0 && n < len(*st) {
				st.push((*st)[len(*st)-1-n])
			} else {
				st.push(0)
			}
		case "roll":
			j, n := int(st.pop()), int(st.pop())
			if n > 0 && n <= len(*st) {
				seg := (*st)[len(*st)-n:]
				j = ((j % n) + n) % n
				rolled := append(append([]float64{}, seg[n-j:]...), seg[:n-j]...)
				copy(seg, rolled)
			}
		case "if":
			if st.pop() != 0 {
				execPS(ins.then, st, depth+1)
			}
		case "ifelse":
			if st.pop() != 0 {
				execPS(ins.then, st, depth+1)
			} else {
				execPS(ins.els, st, depth+1)
			}
		}
	}
}
