package pdf

import (
	"math"
)

// function is a PDF function object (types 0, 2, 3 and 4)
type function struct {
	kind   int
	domain []float64
	rng    []float64

	// type 0
	size    []int
	bps     int
	encode  []float64
	decode  []float64
	samples []byte

	// type 2
	c0, c1 []float64
	exp    float64

	// type 3
	funcs  []*function
	bounds []float64

	// type 4
	program []psOp
}

// function parses a function dictionary or stream; nil means unsupported
func (d *Document) function(obj Object, depth int) *function {
	if depth > 4 {
		return nil
	}
	obj = d.Resolve(obj)

	// an array of 1-output functions acts as one n-output function
	if arr, ok := obj.(Array); ok {
		f := &function{kind: -1}
		for _, item := range arr {
			sub := d.function(item, depth+1)
			if sub == nil {
				return nil
			}
			f.funcs = append(f.funcs, sub)
		}
		return f
	}

	var dict Dictionary
	var stream *Stream
	switch v := obj.(type) {
	case Dictionary:
		dict = v
	case Stream:
		dict = v.Dictionary
		stream = &v
	default:
		return nil
	}

	f := &function{kind: intOr(d.Resolve(dict.Get("FunctionType")), -1)}
	f.domain, _ = d.floats(dict.Get("Domain"))
	f.rng, _ = d.floats(dict.Get("Range"))

	switch f.kind {
	case 0:
		if stream == nil {
			return nil
		}
		sizes, ok := d.floats(dict.Get("Size"))
		if !ok || len(sizes) == 0 {
			return nil
		}
		for _, s := range sizes {
			f.size = append(f.size, int(s))
		}
		f.bps = intOr(d.Resolve(dict.Get("BitsPerSample")), 8)
		f.encode, _ = d.floats(dict.Get("Encode"))
		if len(f.encode) == 0 {
			for _, s := range f.size {
				f.encode = append(f.encode, 0, float64(s-1))
			}
		}
		f.decode, _ = d.floats(dict.Get("Decode"))
		if len(f.decode) == 0 {
			f.decode = f.rng
		}
		data, _, err := d.DecodeStream(*stream)
		if err != nil || len(f.rng) == 0 {
			return nil
		}
		f.samples = data
	case 2:
		f.c0, _ = d.floats(dict.Get("C0"))
		f.c1, _ = d.floats(dict.Get("C1"))
		if len(f.c0) == 0 {
			f.c0 = []float64{0}
		}
		if len(f.c1) == 0 {
			f.c1 = []float64{1}
		}
		e, _ := toFloat(d.Resolve(dict.Get("N")))
		f.exp = e
	case 3:
		arr, ok := d.Resolve(dict.Get("Functions")).(Array)
		if !ok {
			return nil
		}
		for _, item := range arr {
			sub := d.function(item, depth+1)
			if sub == nil {
				return nil
			}
			f.funcs = append(f.funcs, sub)
		}
		f.bounds, _ = d.floats(dict.Get("Bounds"))
		f.encode, _ = d.floats(dict.Get("Encode"))
	case 4:
		if stream == nil {
			return nil
		}
		data, _, err := d.DecodeStream(*stream)
		if err != nil {
			return nil
		}
		prog, ok := parsePostScript(data)
		if !ok {
			return nil
		}
		f.program = prog
	default:
		return nil
	}
	return f
}

func (f *function) eval(in []float64) []float64 {
	x := make([]float64, len(in))
	copy(x, in)
	for i := range x {
		if 2*i+1 < len(f.domain) {
			x[i] = math.Max(f.domain[2*i], math.Min(f.domain[2*i+1], x[i]))
		}
	}

	var out []float64
	switch f.kind {
	case -1:
		for _, sub := range f.funcs {
			out = append(out, sub.eval(x)...)
		}
		return out
	case 0:
		out = f.evalSampled(x)
	case 2:
		t := 0.0
		if len(x) > 0 {
			t = x[0]
		}
		n := len(f.c0)
		if len(f.c1) < n {
			n = len(f.c1)
		}
		out = make([]float64, n)
		p := math.Pow(t, f.exp)
		for i := range out {
			out[i] = f.c0[i] + p*(f.c1[i]-f.c0[i])
		}
	case 3:
		out = f.evalStitching(x)
	case 4:
		out = runPostScript(f.program, x)
	}

	for i := range out {
		if 2*i+1 < len(f.rng) {
			out[i] = math.Max(f.rng[2*i], math.Min(f.rng[2*i+1], out[i]))
		}
	}
	return out
}

func (f *function) evalSampled(x []float64) []float64 {
	m := len(f.size)
	nOut := len(f.rng) / 2
	if len(x) < m || len(f.encode) < 2*m || len(f.domain) < 2*m {
		return make([]float64, nOut)
	}

	// nearest sample lookup
	offset := 0
	stride := 1
	for i := 0; i < m; i++ {
		d0, d1 := f.domain[2*i], f.domain[2*i+1]
		e := f.encode[2*i]
		if d1 != d0 {
			e += (x[i] - d0) * (f.encode[2*i+1] - f.encode[2*i]) / (d1 - d0)
		}
		idx := int(math.Round(e))
		if idx < 0 {
			idx = 0
		}
		if idx >= f.size[i] {
			idx = f.size[i] - 1
		}
		offset += idx * stride
		stride *= f.size[i]
	}

	out := make([]float64, nOut)
	maxVal := math.Pow(2, float64(f.bps)) - 1
	for j := 0; j < nOut; j++ {
		bit := (offset*nOut + j) * f.bps
		v := float64(readBits(f.samples, bit, f.bps))
		lo, hi := 0.0, 1.0
		if 2*j+1 < len(f.decode) {
			lo, hi = f.decode[2*j], f.decode[2*j+1]
		}
		out[j] = lo + v*(hi-lo)/maxVal
	}
	return out
}

func (f *function) evalStitching(x []float64) []float64 {
	if len(f.funcs) == 0 || len(x) == 0 || len(f.domain) < 2 {
		return nil
	}
	t := x[0]
	k := 0
	for k < len(f.bounds) && t >= f.bounds[k] {
		k++
	}
	if k >= len(f.funcs) {
		k = len(f.funcs) - 1
	}
	lo, hi := f.domain[0], f.domain[1]
	if k > 0 && k-1 < len(f.bounds) {
		lo = f.bounds[k-1]
	}
	if k < len(f.bounds) {
		hi = f.bounds[k]
	}
	if 2*k+1 < len(f.encode) && hi != lo {
		e0, e1 := f.encode[2*k], f.encode[2*k+1]
		t = e0 + (t-lo)*(e1-e0)/(hi-lo)
	}
	return f.funcs[k].eval([]float64{t})
}

// readBits reads an n-bit big-endian unsigned value starting at a bit offset
func readBits(data []byte, bit, n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		pos := bit + i
		if pos/8 >= len(data) {
			v <<= 1
			continue
		}
		b := data[pos/8] >> (7 - uint(pos%8)) & 1
		v = v<<1 | uint32(b)
	}
	return v
}
