package pdf

import (
	"math"
)

type csKind int

const (
	csGray csKind = iota
	csRGB
	csCMYK
	csLab
	csIndexed
	csTint
	csPattern
)

// colorSpace converts operand components to device RGB
type colorSpace struct {
	kind csKind
	n    int
	// base is the Indexed base or the alternate of Separation and DeviceN.
	base   *colorSpace
	hival  int
	lookup []byte
	tint   *function
	// white point and ranges for Lab
	white [3]float64
	rng   [4]float64
}

var (
	deviceGray = &colorSpace{kind: csGray, n: 1}
	deviceRGB  = &colorSpace{kind: csRGB, n: 3}
	deviceCMYK = &colorSpace{kind: csCMYK, n: 4}
	patternCS  = &colorSpace{kind: csPattern, n: 1}
)

// initial returns the initial colour components for the space
func (cs *colorSpace) initial() []float64 {
	switch cs.kind {
	case csCMYK:
		return []float64{0, 0, 0, 1}
	case csTint:
		v := make([]float64, cs.n)
		for i := range v {
			v[i] = 1
		}
		return v
	case csLab:
		return []float64{0, 0, 0}
	}
	return make([]float64, cs.n)
}

// toRGB converts components in this space to device RGB
func (cs *colorSpace) toRGB(c []float64) rgb {
	at := func(i int) float64 {
		if i < len(c) {
			return c[i]
		}
		return 0
	}

	switch cs.kind {
	case csGray:
		g := clamp01(at(0))
		return rgb{g, g, g}
	case csRGB:
		return rgb{clamp01(at(0)), clamp01(at(1)), clamp01(at(2))}
	case csCMYK:
		return cmykToRGB(at(0), at(1), at(2), at(3))
	case csLab:
		return cs.labToRGB(at(0), at(1), at(2))
	case csIndexed:
		if cs.base == nil {
			return rgb{}
		}
		idx := int(math.Round(at(0)))
		if idx < 0 {
			idx = 0
		}
		if idx > cs.hival {
			idx = cs.hival
		}
		n := cs.base.n
		comps := make([]float64, n)
		for i := 0; i < n; i++ {
			if off := idx*n + i; off < len(cs.lookup) {
				comps[i] = float64(cs.lookup[off]) / 255
			}
		}
		if cs.base.kind == csLab {
			// Lab lookup bytes map onto the component ranges
			comps[0] *= 100
			comps[1] = cs.base.rng[0] + comps[1]*(cs.base.rng[1]-cs.base.rng[0])
			comps[2] = cs.base.rng[2] + comps[2]*(cs.base.rng[3]-cs.base.rng[2])
		}
		return cs.base.toRGB(comps)
	case csTint:
		if cs.tint != nil && cs.base != nil {
			return cs.base.toRGB(cs.tint.eval(c))
		}
		// without a usable tint transform, treat the tint as ink coverage
		g := 1 - clamp01(at(0))
		return rgb{g, g, g}
	}
	return rgb{0.5, 0.5, 0.5}
}

func cmykToRGB(c, m, y, k float64) rgb {
	c, m, y, k = clamp01(c), clamp01(m), clamp01(y), clamp01(k)
	return rgb{(1 - c) * (1 - k), (1 - m) * (1 - k), (1 - y) * (1 - k)}
}

func (cs *colorSpace) labToRGB(l, a, b float64) rgb {
	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - b/200
	inv := func(t float64) float64 {
		if t > 6.0/29 {
			return t * t * t
		}
		return 3 * (6.0 / 29) * (6.0 / 29) * (t - 4.0/29)
	}
	x := cs.white[0] * inv(fx)
	y := cs.white[1] * inv(fy)
	z := cs.white[2] * inv(fz)

	r := 3.2406*x - 1.5372*y - 0.4986*z
	g := -0.9689*x + 1.8758*y + 0.0415*z
	bl := 0.0557*x - 0.2040*y + 1.0570*z
	gamma := func(v float64) float64 {
		if v <= 0.0031308 {
			return clamp01(12.92 * v)
		}
		return clamp01(1.055*math.Pow(v, 1/2.4) - 0.055)
	}
	return rgb{gamma(r), gamma(g), gamma(bl)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// colorSpace resolves a colour space operand or resource entry
func (d *Document) colorSpace(obj Object, resources Dictionary, depth int) *colorSpace {
	if depth > 8 {
		return deviceGray
	}
	obj = d.Resolve(obj)

	if name, ok := obj.(Name); ok {
		switch name {
		case "DeviceGray", "G", "CalGray":
			return deviceGray
		case "DeviceRGB", "RGB", "CalRGB":
			return deviceRGB
		case "DeviceCMYK", "CMYK":
			return deviceCMYK
		case "Pattern":
			return patternCS
		}
		if named, ok := d.resourceEntry(resources, "ColorSpace", name); ok {
			return d.colorSpace(named, resources, depth+1)
		}
		return deviceGray
	}

	arr, ok := obj.(Array)
	if !ok || len(arr) == 0 {
		return deviceGray
	}
	family, _ := d.Resolve(arr[0]).(Name)

	switch family {
	case "DeviceGray", "CalGray", "G":
		return deviceGray
	case "DeviceRGB", "CalRGB", "RGB":
		return deviceRGB
	case "DeviceCMYK", "CMYK":
		return deviceCMYK
	case "ICCBased":
		if len(arr) > 1 {
			if s, ok := d.Resolve(arr[1]).(Stream); ok {
				if alt := s.Dictionary.Get("Alternate"); alt != nil {
					return d.colorSpace(alt, resources, depth+1)
				}
				switch intOr(d.Resolve(s.Dictionary.Get("N")), 3) {
				case 1:
					return deviceGray
				case 4:
					return deviceCMYK
				}
			}
		}
		return deviceRGB
	case "Lab":
		cs := &colorSpace{kind: csLab, n: 3, white: [3]float64{0.9505, 1, 1.089}, rng: [4]float64{-100, 100, -100, 100}}
		if len(arr) > 1 {
			if dict, ok := d.Resolve(arr[1]).(Dictionary); ok {
				if wp, ok := d.floats(dict.Get("WhitePoint")); ok && len(wp) == 3 {
					copy(cs.white[:], wp)
				}
				if r, ok := d.floats(dict.Get("Range")); ok && len(r) == 4 {
					copy(cs.rng[:], r)
				}
			}
		}
		return cs
	case "Indexed", "I":
		if len(arr) < 4 {
			return deviceGray
		}
		cs := &colorSpace{
			kind:  csIndexed,
			n:     1,
			base:  d.colorSpace(arr[1], resources, depth+1),
			hival: intOr(d.Resolve(arr[2]), 0),
		}
		switch lk := d.Resolve(arr[3]).(type) {
		case String:
			cs.lookup = lk.Value
		case Stream:
			cs.lookup, _, _ = d.DecodeStream(lk)
		}
		return cs
	case "Separation", "DeviceN":
		if len(arr) < 4 {
			return deviceGray
		}
		n := 1
		if family == "DeviceN" {
			if names, ok := d.Resolve(arr[1]).(Array); ok {
				n = len(names)
			}
		}
		if sep, ok := d.Resolve(arr[1]).(Name); ok && sep == "None" {
			return &colorSpace{kind: csTint, n: n}
		}
		return &colorSpace{
			kind: csTint,
			n:    n,
			base: d.colorSpace(arr[2], resources, depth+1),
			tint: d.function(arr[3], 0),
		}
	case "Pattern":
		return patternCS
	}
	return deviceGray
}

// resourceEntry looks up /Category/name in a resource dictionary
func (d *Document) resourceEntry(resources Dictionary, category string, name Name) (Object, bool) {
	if resources == nil {
		return nil, false
	}
	cat, ok := d.Resolve(resources.Get(category)).(Dictionary)
	if !ok {
		return nil, false
	}
	obj, ok := cat[name]
	return obj, ok
}

func (d *Document) floats(obj Object) ([]float64, bool) {
	arr, ok := d.Resolve(obj).(Array)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(arr))
	for i, item := range arr {
		v, ok := toFloat(d.Resolve(item))
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
