package pdf

import (
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// glyphSeg is one outline segment: 'M', 'L', 'Q' or 'C'
type glyphSeg struct {
	op  byte
	pts [3]Point
}

// glyph is an outline in em units with the y axis pointing up
type glyph struct {
	segs    []glyphSeg
	advance float64
}

type outlineSource interface {
	glyphIndex(r rune) (int, bool)
	outline(gid int) *glyph
}

type ttfSource struct {
	f   *truetype.Font
	buf truetype.GlyphBuf
}

func (s *ttfSource) glyphIndex(r rune) (int, bool) {
	i := s.f.Index(r)
	return int(i), i != 0
}

func (s *ttfSource) outline(gid int) *glyph {
	upem := int(s.f.FUnitsPerEm())
	if upem <= 0 {
		return nil
	}
	if err := s.buf.Load(s.f, fixed.I(upem), truetype.Index(gid), font.HintingNone); err != nil {
		return nil
	}
	scale := 1 / (64 * float64(upem))
	g := &glyph{advance: float64(s.buf.AdvanceWidth) * scale}
	start := 0
	for _, end := range s.buf.Ends {
		if end > len(s.buf.Points) || end < start {
			break
		}
		g.segs = appendContour(g.segs, s.buf.Points[start:end], scale)
		start = end
	}
	return g
}

// appendContour converts a quadratic TrueType contour into outline segments
func appendContour(segs []glyphSeg, ps []truetype.Point, scale float64) []glyphSeg {
	if len(ps) == 0 {
		return segs
	}
	pt := func(p truetype.Point) Point {
		return Point{X: float64(p.X) * scale, Y: float64(p.Y) * scale}
	}
	on := func(p truetype.Point) bool { return p.Flags&1 != 0 }
	mid := func(a, b Point) Point { return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2} }

	order := ps
	var start Point
	k := -1
	for i, p := range ps {
		if on(p) {
			k = i
			break
		}
	}
	if k >= 0 {
		order = append(append([]truetype.Point{}, ps[k+1:]...), ps[:k]...)
		start = pt(ps[k])
	} else {
		start = mid(pt(ps[len(ps)-1]), pt(ps[0]))
	}

	segs = append(segs, glyphSeg{op: 'M', pts: [3]Point{start}})
	var ctrl Point
	pending := false
	for _, p := range order {
		cur := pt(p)
		if on(p) {
			if pending {
				segs = append(segs, glyphSeg{op: 'Q', pts: [3]Point{ctrl, cur}})
			} else {
				segs = append(segs, glyphSeg{op: 'L', pts: [3]Point{cur}})
			}
			pending = false
			continue
		}
		if pending {
			segs = append(segs, glyphSeg{op: 'Q', pts: [3]Point{ctrl, mid(ctrl, cur)}})
		}
		ctrl, pending = cur, true
	}
	if pending {
		segs = append(segs, glyphSeg{op: 'Q', pts: [3]Point{ctrl, start}})
	} else {
		segs = append(segs, glyphSeg{op: 'L', pts: [3]Point{start}})
	}
	return segs
}

type sfntSource struct {
	f   *sfnt.Font
	buf sfnt.Buffer
}

func (s *sfntSource) glyphIndex(r rune) (int, bool) {
	gi, err := s.f.GlyphIndex(&s.buf, r)
	return int(gi), err == nil && gi != 0
}

func (s *sfntSource) outline(gid int) *glyph {
	upem := int(s.f.UnitsPerEm())
	if upem <= 0 {
		return nil
	}
	ppem := fixed.I(upem)
	gi := sfnt.GlyphIndex(gid)
	segments, err := s.f.LoadGlyph(&s.buf, gi, ppem, nil)
	if err != nil {
		return nil
	}
	scale := 1 / (64 * float64(upem))
	pt := func(p fixed.Point26_6) Point {
		return Point{X: float64(p.X) * scale, Y: -float64(p.Y) * scale}
	}

	g := &glyph{}
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			g.segs = append(g.segs, glyphSeg{op: 'M', pts: [3]Point{pt(seg.Args[0])}})
		case sfnt.SegmentOpLineTo:
			g.segs = append(g.segs, glyphSeg{op: 'L', pts: [3]Point{pt(seg.Args[0])}})
		case sfnt.SegmentOpQuadTo:
			g.segs = append(g.segs, glyphSeg{op: 'Q', pts: [3]Point{pt(seg.Args[0]), pt(seg.Args[1])}})
		case sfnt.SegmentOpCubeTo:
			g.segs = append(g.segs, glyphSeg{op: 'C', pts: [3]Point{pt(seg.Args[0]), pt(seg.Args[1]), pt(seg.Args[2])}})
		}
	}
	if adv, err := s.f.GlyphAdvance(&s.buf, gi, ppem, font.HintingNone); err == nil {
		g.advance = float64(adv) * scale
	}
	return g
}

var (
	fallbackOnce  sync.Once
	fallbackFonts map[string]*truetype.Font
)

func fallbackFont(mono, bold, italic bool) *truetype.Font {
	fallbackOnce.Do(func() {
		fallbackFonts = make(map[string]*truetype.Font)
		for key, data := range map[string][]byte{
			"sans":             goregular.TTF,
			"sans-bold":        gobold.TTF,
			"sans-italic":      goitalic.TTF,
			"sans-bold-italic": gobolditalic.TTF,
			"mono":             gomono.TTF,
			"mono-bold":        gomonobold.TTF,
			"mono-italic":      gomonoitalic.TTF,
			"mono-bold-italic": gomonobolditalic.TTF,
		} {
			if f, err := truetype.Parse(data); err == nil {
				fallbackFonts[key] = f
			}
		}
	})

	key := "sans"
	if mono {
		key = "mono"
	}
	if bold {
		key += "-bold"
	}
	if italic {
		key += "-italic"
	}
	if f, ok := fallbackFonts[key]; ok {
		return f
	}
	return fallbackFonts["sans"]
}

// fontFace is a font resource prepared for glyph painting
type fontFace struct {
	name      string
	composite bool
	embedded  bool
	symbolic  bool
	encoding  [256]rune
	names     [256]string
	cmap      *cmap
	toUnicode *cmap
	cidToGID  []byte
	widths    map[int]float64
	missing   float64
	src       outlineSource
	glyphs    map[int]*glyph

	type3      bool
	charProcs  Dictionary
	fontMatrix Matrix
	resources  Dictionary
}

func (d *Document) loadFont(obj Object) *fontFace {
	ref, isRef := obj.(Reference)
	if isRef {
		if f, ok := d.fonts[ref]; ok {
			return f
		}
	}
	dict, _ := d.Resolve(obj).(Dictionary)
	f := d.newFontFace(dict)
	if isRef {
		d.fonts[ref] = f
	}
	return f
}

func (d *Document) newFontFace(dict Dictionary) *fontFace {
	f := &fontFace{
		widths: make(map[int]float64),
		glyphs: make(map[int]*glyph),
	}
	if dict == nil {
		f.src = &ttfSource{f: fallbackFont(false, false, false)}
		f.encoding = standardEncoding
		return f
	}

	subtype, _ := d.Resolve(dict.Get("Subtype")).(Name)
	if base, ok := d.Resolve(dict.Get("BaseFont")).(Name); ok {
		f.name = string(base)
	}
	f.toUnicode = d.parseCMap(dict.Get("ToUnicode"))

	descriptor := Dictionary(nil)
	switch subtype {
	case "Type0":
		f.composite = true
		f.missing = 1
		if enc, ok := d.Resolve(dict.Get("Encoding")).(Stream); ok {
			f.cmap = d.parseCMap(enc)
		}
		desc := d.descendant(dict)
		if desc != nil {
			if dw, ok := toFloat(d.Resolve(desc.Get("DW"))); ok {
				f.missing = dw / 1000
			}
			d.cidWidths(f, desc.Get("W"))
			if m, ok := d.Resolve(desc.Get("CIDToGIDMap")).(Stream); ok {
				f.cidToGID, _, _ = d.DecodeStream(m)
			}
			descriptor, _ = d.Resolve(desc.Get("FontDescriptor")).(Dictionary)
		}
	case "Type3":
		f.type3 = true
		f.fontMatrix = Matrix{0.001, 0, 0, 0.001, 0, 0}
		if m, ok := matrixFrom(d.Resolve(dict.Get("FontMatrix"))); ok {
			f.fontMatrix = m
		}
		f.charProcs, _ = d.Resolve(dict.Get("CharProcs")).(Dictionary)
		f.resources, _ = d.Resolve(dict.Get("Resources")).(Dictionary)
		d.simpleWidths(f, dict, 1)
		d.simpleEncoding(f, dict)
		return f
	default:
		descriptor, _ = d.Resolve(dict.Get("FontDescriptor")).(Dictionary)
		d.simpleWidths(f, dict, 1000)
		if descriptor != nil {
			if mw, ok := toFloat(d.Resolve(descriptor.Get("MissingWidth"))); ok {
				f.missing = mw / 1000
			}
		}
	}

	flags := 0
	if descriptor != nil {
		flags = intOr(d.Resolve(descriptor.Get("Flags")), 0)
		f.symbolic = flags&4 != 0
		f.src = d.embeddedSource(descriptor)
		f.embedded = f.src != nil
	}
	if !f.composite {
		d.simpleEncoding(f, dict)
	}
	if f.src == nil {
		lower := strings.ToLower(f.name)
		mono := flags&1 != 0 || strings.Contains(lower, "courier") || strings.Contains(lower, "mono")
		bold := flags&(1<<18) != 0 || strings.Contains(lower, "bold") || strings.Contains(lower, "black") || strings.Contains(lower, "heavy")
		italic := flags&64 != 0 || strings.Contains(lower, "italic") || strings.Contains(lower, "oblique")
		if descriptor != nil {
			if w, ok := toFloat(d.Resolve(descriptor.Get("FontWeight"))); ok && w >= 600 {
				bold = true
			}
		}
		f.src = &ttfSource{f: fallbackFont(mono, bold, italic)}
	}
	return f
}

func (d *Document) descendant(dict Dictionary) Dictionary {
	arr, ok := d.Resolve(dict.Get("DescendantFonts")).(Array)
	if !ok || len(arr) == 0 {
		return nil
	}
	desc, _ := d.Resolve(arr[0]).(Dictionary)
	return desc
}

func (d *Document) embeddedSource(descriptor Dictionary) outlineSource {
	if s, ok := d.Resolve(descriptor.Get("FontFile2")).(Stream); ok {
		if data, _, err := d.DecodeStream(s); err == nil {
			if tf, err := truetype.Parse(data); err == nil {
				return &ttfSource{f: tf}
			}
		}
	}
	if s, ok := d.Resolve(descriptor.Get("FontFile3")).(Stream); ok {
		if sub, _ := d.Resolve(s.Dictionary.Get("Subtype")).(Name); sub == "OpenType" {
			if data, _, err := d.DecodeStream(s); err == nil {
				if sf, err := sfnt.Parse(data); err == nil {
					return &sfntSource{f: sf}
				}
			}
		}
	}
	return nil
}

func (d *Document) simpleWidths(f *fontFace, dict Dictionary, unitsPerEm float64) {
	first := intOr(d.Resolve(dict.Get("FirstChar")), 0)
	widths, ok := d.Resolve(dict.Get("Widths")).(Array)
	if !ok {
		return
	}
	for i, w := range widths {
		if v, ok := toFloat(d.Resolve(w)); ok {
			f.widths[first+i] = v / unitsPerEm
		}
	}
}

// cidWidths reads a /W array of "c [w1 w2 ...]" and "cfirst clast w" entries
func (d *Document) cidWidths(f *fontFace, obj Object) {
	arr, ok := d.Resolve(obj).(Array)
	if !ok {
		return
	}
	for i := 0; i < len(arr); {
		first, ok := toInt(d.Resolve(arr[i]))
		if !ok || i+1 >= len(arr) {
			return
		}
		if list, ok := d.Resolve(arr[i+1]).(Array); ok {
			for j, w := range list {
				if v, ok := toFloat(d.Resolve(w)); ok {
					f.widths[first+j] = v / 1000
				}
			}
			i += 2
			continue
		}
		if i+2 >= len(arr) {
			return
		}
		last, ok1 := toInt(d.Resolve(arr[i+1]))
		w, ok2 := toFloat(d.Resolve(arr[i+2]))
		if ok1 && ok2 && last >= first && last-first <= 0xFFFF {
			for c := first; c <= last; c++ {
				f.widths[c] = w / 1000
			}
		}
		i += 3
	}
}

func (d *Document) simpleEncoding(f *fontFace, dict Dictionary) {
	f.encoding = standardEncoding
	if f.symbolic && f.embedded {
		f.encoding = [256]rune{}
	}

	var diffs Array
	switch enc := d.Resolve(dict.Get("Encoding")).(type) {
	case Name:
		if e, ok := baseEncoding(enc); ok {
			f.encoding = e
		}
	case Dictionary:
		if base, ok := d.Resolve(enc.Get("BaseEncoding")).(Name); ok {
			if e, ok := baseEncoding(base); ok {
				f.encoding = e
			}
		}
		diffs, _ = d.Resolve(enc.Get("Differences")).(Array)
	}

	code := 0
	for _, item := range diffs {
		switch v := d.Resolve(item).(type) {
		case Integer:
			code = int(v)
		case Name:
			if code >= 0 && code < 256 {
				f.names[code] = string(v)
				if r := glyphRune(string(v)); r != 0 {
					f.encoding[code] = r
				}
			}
			code++
		}
	}
}

// charCode is one character code of a shown string
type charCode struct {
	code  int
	space bool
}

func (f *fontFace) decode(b []byte) []charCode {
	var out []charCode
	if !f.composite {
		for _, c := range b {
			out = append(out, charCode{code: int(c), space: c == ' '})
		}
		return out
	}
	for len(b) > 0 {
		code, n := f.cmap.next(b)
		out = append(out, charCode{code: int(code), space: n == 1 && code == ' '})
		b = b[n:]
	}
	return out
}

// width returns the advance of a code in text space units
func (f *fontFace) width(code int) float64 {
	if f.type3 {
		w := f.widths[code]
		return w * f.fontMatrix.A
	}
	key := code
	if f.composite {
		key = f.cmap.cid(uint32(code))
	}
	if w, ok := f.widths[key]; ok {
		return w
	}
	if !f.composite {
		if g := f.glyph(code); g != nil && g.advance > 0 {
			return g.advance
		}
	}
	return f.missing
}

func (f *fontFace) unicode(code int) rune {
	if f.toUnicode != nil {
		if r, ok := f.toUnicode.unicode[uint32(code)]; ok {
			return r
		}
	}
	if !f.composite && code >= 0 && code < 256 {
		return f.encoding[code]
	}
	return 0
}

// glyph returns the outline painted for a character code
func (f *fontFace) glyph(code int) *glyph {
	if g, ok := f.glyphs[code]; ok {
		return g
	}
	var g *glyph
	if gid, ok := f.glyphID(code); ok {
		g = f.src.outline(gid)
	}
	f.glyphs[code] = g
	return g
}

func (f *fontFace) glyphID(code int) (int, bool) {
	if f.src == nil {
		return 0, false
	}
	if f.composite {
		cid := f.cmap.cid(uint32(code))
		if f.embedded {
			if f.cidToGID != nil {
				if 2*cid+1 < len(f.cidToGID) {
					return int(f.cidToGID[2*cid])<<8 | int(f.cidToGID[2*cid+1]), true
				}
				return 0, false
			}
			return cid, true
		}
		if r := f.unicode(code); r != 0 {
			return f.src.glyphIndex(r)
		}
		return f.src.glyphIndex(rune(cid))
	}

	r := f.unicode(code)
	if f.embedded && f.symbolic {
		if gid, ok := f.src.glyphIndex(0xF000 + rune(code)); ok {
			return gid, true
		}
		if gid, ok := f.src.glyphIndex(rune(code)); ok {
			return gid, true
		}
	}
	if r != 0 {
		if gid, ok := f.src.glyphIndex(r); ok {
			return gid, true
		}
	}
	return f.src.glyphIndex(rune(code))
}
