package pdf

// textMatrix returns the glyph-to-device matrix for the current text state
func (r *renderer) textMatrix() Matrix {
	ts := &r.gs.text
	m := Matrix{A: ts.size * ts.hScale, D: ts.size, F: ts.rise}
	return m.Multiply(ts.matrix).Multiply(r.gs.CTM)
}

func (r *renderer) showText(s []byte) {
	ts := &r.gs.text
	if ts.font == nil {
		ts.font = r.doc.newFontFace(nil)
		if ts.size == 0 {
			ts.size = 12
		}
	}
	f := ts.font

	var glyphs path
	for _, cc := range f.decode(s) {
		trm := r.textMatrix()
		if f.type3 {
			r.showType3(f, cc.code, trm)
		} else if g := f.glyph(cc.code); g != nil && ts.renderMode%4 != 3 {
			appendGlyph(&glyphs, g, trm)
		}

		tx := f.width(cc.code)*ts.size + ts.charSpace
		if cc.space {
			tx += ts.wordSpace
		}
		r.advance(tx * ts.hScale)
	}
	if glyphs.empty() {
		return
	}

	mode := ts.renderMode % 4
	aa := r.opts.TextAntialias
	if mode == 0 || mode == 2 {
		r.canvas.paint(r.canvas.fillMask(glyphs.subs, false, aa), r.gs.clip, r.gs.fill, r.gs.fillAlpha)
	}
	if mode == 1 || mode == 2 {
		r.canvas.paint(r.canvas.strokeMask(glyphs.subs, r.strokeStyle(), aa), r.gs.clip, r.gs.stroke, r.gs.strokeAlpha)
	}
}

// showArray handles TJ: strings interleaved with adjustments in thousandths of an em
func (r *renderer) showArray(arr Array) {
	ts := &r.gs.text
	for _, item := range arr {
		switch v := item.(type) {
		case String:
			r.showText(v.Value)
		case Integer, Real:
			adj, _ := toFloat(v)
			r.advance(-adj / 1000 * ts.size * ts.hScale)
		}
	}
}

func (r *renderer) advance(tx float64) {
	ts := &r.gs.text
	ts.matrix = Matrix{A: 1, D: 1, E: tx}.Multiply(ts.matrix)
}

func (r *renderer) nextLine(tx, ty float64) {
	ts := &r.gs.text
	ts.lineMatrix = Matrix{A: 1, D: 1, E: tx, F: ty}.Multiply(ts.lineMatrix)
	ts.matrix = ts.lineMatrix
}

func appendGlyph(p *path, g *glyph, m Matrix) {
	tr := func(pt Point) Point {
		x, y := m.Transform(pt.X, pt.Y)
		return Point{X: x, Y: y}
	}
	for _, seg := range g.segs {
		switch seg.op {
		case 'M':
			p.moveTo(tr(seg.pts[0]))
		case 'L':
			p.lineTo(tr(seg.pts[0]))
		case 'Q':
			if !p.has {
				p.moveTo(tr(seg.pts[0]))
			}
			p.quadTo(tr(seg.pts[0]), tr(seg.pts[1]))
		case 'C':
			p.curveTo(tr(seg.pts[0]), tr(seg.pts[1]), tr(seg.pts[2]))
		}
	}
}

// showType3 runs a Type3 glyph procedure in glyph space
func (r *renderer) showType3(f *fontFace, code int, trm Matrix) {
	if code < 0 || code >= 256 || f.charProcs == nil || r.depth >= maxFormDepth {
		return
	}
	proc, ok := r.doc.Resolve(f.charProcs.Get(f.names[code])).(Stream)
	if !ok {
		return
	}
	data, _, err := r.doc.DecodeStream(proc)
	if err != nil {
		return
	}
	res := f.resources
	if res == nil {
		res = r.resources
	}
	r.runNested(data, res, f.fontMatrix.Multiply(trm))
}
