package pdf

import (
	"image"
	"math"
)

// shadingColor approximates a shading by its colour at the middle of the domain
func (d *Document) shadingColor(obj Object, resources Dictionary) (rgb, bool) {
	var dict Dictionary
	switch v := d.Resolve(obj).(type) {
	case Dictionary:
		dict = v
	case Stream:
		dict = v.Dictionary
	default:
		return rgb{}, false
	}

	cs := d.colorSpace(dict.Get("ColorSpace"), resources, 0)
	fn := d.function(dict.Get("Function"), 0)
	if fn == nil {
		return rgb{}, false
	}

	kind := intOr(d.Resolve(dict.Get("ShadingType")), 0)
	domain, ok := d.floats(dict.Get("Domain"))
	var in []float64
	switch {
	case kind == 1:
		if !ok || len(domain) < 4 {
			domain = []float64{0, 1, 0, 1}
		}
		in = []float64{(domain[0] + domain[1]) / 2, (domain[2] + domain[3]) / 2}
	default:
		if !ok || len(domain) < 2 {
			domain = []float64{0, 1}
		}
		in = []float64{(domain[0] + domain[1]) / 2}
	}
	return cs.toRGB(fn.eval(in)), true
}

// paintShading handles sh: the shading fills the current clip
func (r *renderer) paintShading(name Name) {
	obj, ok := r.doc.resourceEntry(r.resources, "Shading", name)
	if !ok {
		return
	}
	c, ok := r.doc.shadingColor(obj, r.resources)
	if !ok {
		return
	}
	mask := image.NewAlpha(r.canvas.img.Bounds())
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}
	r.canvas.paint(mask, r.gs.clip, c, r.gs.fillAlpha)
}

// paintPattern fills a coverage mask with a shading or tiling pattern
func (r *renderer) paintPattern(mask *image.Alpha, obj Object, c rgb, alpha float64) {
	pat := r.doc.Resolve(obj)
	var dict Dictionary
	var tile *Stream
	switch v := pat.(type) {
	case Dictionary:
		dict = v
	case Stream:
		dict = v.Dictionary
		tile = &v
	default:
		return
	}

	switch intOr(r.doc.Resolve(dict.Get("PatternType")), 0) {
	case 2:
		if sc, ok := r.doc.shadingColor(dict.Get("Shading"), r.resources); ok {
			c = sc
		}
		r.canvas.paint(mask, r.gs.clip, c, alpha)
	case 1:
		// uncoloured tiles take the current colour
		if intOr(r.doc.Resolve(dict.Get("PaintType")), 1) == 2 || tile == nil {
			r.canvas.paint(mask, r.gs.clip, c, alpha)
			return
		}
		r.paintTiles(mask, *tile)
	}
}

func (r *renderer) paintTiles(mask *image.Alpha, s Stream) {
	if r.depth >= maxFormDepth {
		return
	}
	dict := s.Dictionary
	box, ok := r.doc.rect(dict.Get("BBox"))
	if !ok {
		return
	}
	xstep, _ := toFloat(r.doc.Resolve(dict.Get("XStep")))
	ystep, _ := toFloat(r.doc.Resolve(dict.Get("YStep")))
	if xstep == 0 || ystep == 0 {
		return
	}
	xstep, ystep = math.Abs(xstep), math.Abs(ystep)

	m, ok := matrixFrom(r.doc.Resolve(dict.Get("Matrix")))
	if !ok {
		m = IdentityMatrix()
	}
	pm := m.Multiply(r.base)
	inv, ok := pm.Invert()
	if !ok {
		return
	}

	// pattern space extent of the area being filled
	rect := mask.Rect
	lo := Point{math.Inf(1), math.Inf(1)}
	hi := Point{math.Inf(-1), math.Inf(-1)}
	for _, corner := range [][2]float64{
		{float64(rect.Min.X), float64(rect.Min.Y)},
		{float64(rect.Max.X), float64(rect.Min.Y)},
		{float64(rect.Min.X), float64(rect.Max.Y)},
		{float64(rect.Max.X), float64(rect.Max.Y)},
	} {
		x, y := inv.Transform(corner[0], corner[1])
		lo.X, lo.Y = math.Min(lo.X, x), math.Min(lo.Y, y)
		hi.X, hi.Y = math.Max(hi.X, x), math.Max(hi.Y, y)
	}
	i0 := int(math.Floor((lo.X - box.URX) / xstep))
	i1 := int(math.Ceil((hi.X - box.LLX) / xstep))
	j0 := int(math.Floor((lo.Y - box.URY) / ystep))
	j1 := int(math.Ceil((hi.Y - box.LLY) / ystep))
	if (i1-i0+1)*(j1-j0+1) > maxTiles {
		return
	}

	data, _, err := r.doc.DecodeStream(s)
	if err != nil {
		return
	}
	res, ok := r.doc.Resolve(dict.Get("Resources")).(Dictionary)
	if !ok {
		res = r.resources
	}

	r.push()
	r.gs.clip = r.canvas.intersectClip(r.gs.clip, mask)
	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			cell := Matrix{A: 1, D: 1, E: float64(i) * xstep, F: float64(j) * ystep}.Multiply(pm)
			r.push()
			r.gs.clip = r.clipToRect(box, cell)
			r.runNested(data, res, cell)
			r.pop()
		}
	}
	r.pop()
}
