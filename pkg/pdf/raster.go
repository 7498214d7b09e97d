package pdf

import (
	"image"
	"math"

	"github.com/golang/freetype/raster"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

// coordLimit keeps device coordinates inside the 26.6 fixed point range
const coordLimit = 1 << 20

type subpath struct {
	pts    []Point
	closed bool
}

// path accumulates a path in device space
type path struct {
	subs  []subpath
	start Point
	cur   Point
	has   bool
}

func (p *path) moveTo(pt Point) {
	p.subs = append(p.subs, subpath{pts: []Point{pt}})
	p.start, p.cur, p.has = pt, pt, true
}

func (p *path) lineTo(pt Point) {
	if !p.has {
		p.moveTo(pt)
		return
	}
	last := &p.subs[len(p.subs)-1]
	last.pts = append(last.pts, pt)
	p.cur = pt
}

func (p *path) curveTo(c1, c2, end Point) {
	if !p.has {
		p.moveTo(c1)
	}
	p0 := p.cur
	n := curveSteps(p0, c1, c2, end)
	last := &p.subs[len(p.subs)-1]
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		mt := 1 - t
		a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
		last.pts = append(last.pts, Point{
			X: a*p0.X + b*c1.X + c*c2.X + d*end.X,
			Y: a*p0.Y + b*c1.Y + c*c2.Y + d*end.Y,
		})
	}
	p.cur = end
}

func (p *path) quadTo(ctrl, end Point) {
	p0 := p.cur
	c1 := Point{X: p0.X + 2*(ctrl.X-p0.X)/3, Y: p0.Y + 2*(ctrl.Y-p0.Y)/3}
	c2 := Point{X: end.X + 2*(ctrl.X-end.X)/3, Y: end.Y + 2*(ctrl.Y-end.Y)/3}
	p.curveTo(c1, c2, end)
}

func (p *path) closePath() {
	if !p.has {
		return
	}
	p.subs[len(p.subs)-1].closed = true
	// a new subpath starts at the closed subpath's first point
	p.subs = append(p.subs, subpath{pts: []Point{p.start}})
	p.cur = p.start
}

func (p *path) reset() {
	p.subs = nil
	p.has = false
}

func (p *path) empty() bool {
	for _, s := range p.subs {
		if len(s.pts) > 1 {
			return false
		}
	}
	return true
}

func curveSteps(p0, p1, p2, p3 Point) int {
	l := dist(p0, p1) + dist(p1, p2) + dist(p2, p3)
	n := int(math.Sqrt(l) * 2)
	if n < 4 {
		n = 4
	}
	if n > 100 {
		n = 100
	}
	return n
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func bounds(subs []subpath) (Point, Point, bool) {
	lo := Point{math.Inf(1), math.Inf(1)}
	hi := Point{math.Inf(-1), math.Inf(-1)}
	found := false
	for _, s := range subs {
		for _, pt := range s.pts {
			lo.X, lo.Y = math.Min(lo.X, pt.X), math.Min(lo.Y, pt.Y)
			hi.X, hi.Y = math.Max(hi.X, pt.X), math.Max(hi.Y, pt.Y)
			found = true
		}
	}
	return lo, hi, found
}

func fixedPoint(pt Point) fixed.Point26_6 {
	x := math.Max(-coordLimit, math.Min(coordLimit, pt.X))
	y := math.Max(-coordLimit, math.Min(coordLimit, pt.Y))
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

func toRasterPath(subs []subpath, closeAll bool) raster.Path {
	var rp raster.Path
	for _, s := range subs {
		if len(s.pts) < 2 {
			continue
		}
		rp.Start(fixedPoint(s.pts[0]))
		prev := s.pts[0]
		for _, pt := range s.pts[1:] {
			if pt == prev {
				continue
			}
			rp.Add1(fixedPoint(pt))
			prev = pt
		}
		if (closeAll || s.closed) && prev != s.pts[0] {
			rp.Add1(fixedPoint(s.pts[0]))
		}
	}
	return rp
}

// canvas is the device surface pages are rasterized onto
type canvas struct {
	img *image.RGBA
	r   *raster.Rasterizer
}

func newCanvas(w, h int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return &canvas{img: img, r: raster.NewRasterizer(w, h)}
}

// maskRect returns the device rectangle covering the path, padded for strokes
func (c *canvas) maskRect(subs []subpath, pad float64) image.Rectangle {
	lo, hi, ok := bounds(subs)
	if !ok {
		return image.Rectangle{}
	}
	r := image.Rect(
		int(math.Floor(math.Max(-1, lo.X-pad))),
		int(math.Floor(math.Max(-1, lo.Y-pad))),
		int(math.Ceil(math.Min(coordLimit, hi.X+pad)))+1,
		int(math.Ceil(math.Min(coordLimit, hi.Y+pad)))+1,
	)
	return r.Intersect(c.img.Bounds())
}

// rasterize returns the coverage of a raster path, or nil if nothing is covered
func (c *canvas) rasterize(rp raster.Path, rect image.Rectangle, nonZero, aa bool) (mask *image.Alpha) {
	if rect.Empty() || len(rp) == 0 {
		return nil
	}
	defer func() {
		// the stroker rejects some degenerate geometry by panicking
		if recover() != nil {
			mask = nil
		}
	}()

	mask = image.NewAlpha(rect)
	c.r.Clear()
	c.r.UseNonZeroWinding = nonZero
	c.r.AddPath(rp)
	c.r.Rasterize(raster.NewAlphaSrcPainter(mask))
	if !aa {
		threshold(mask)
	}
	return mask
}

func (c *canvas) fillMask(subs []subpath, evenOdd, aa bool) *image.Alpha {
	return c.rasterize(toRasterPath(subs, true), c.maskRect(subs, 1), !evenOdd, aa)
}

type strokeStyle struct {
	width     float64
	cap       int
	join      int
	dash      []float64
	dashPhase float64
}

func (c *canvas) strokeMask(subs []subpath, st strokeStyle, aa bool) (mask *image.Alpha) {
	if len(st.dash) > 0 {
		subs = dashSubpaths(subs, st.dash, st.dashPhase)
	}
	w := math.Max(st.width, 1)

	var capper raster.Capper = raster.ButtCapper
	switch st.cap {
	case 1:
		capper = raster.RoundCapper
	case 2:
		capper = raster.SquareCapper
	}
	var joiner raster.Joiner = raster.BevelJoiner
	if st.join == 1 {
		joiner = raster.RoundJoiner
	}

	rect := c.maskRect(subs, w+1)
	if rect.Empty() {
		return nil
	}
	defer func() {
		if recover() != nil {
			mask = nil
		}
	}()
	var stroke raster.Path
	for _, s := range subs {
		rp := toRasterPath([]subpath{s}, false)
		if len(rp) == 0 {
			continue
		}
		stroke = append(stroke, strokeToPath(rp, fixed.Int26_6(w*64), capper, joiner)...)
	}
	return c.rasterize(stroke, rect, true, aa)
}

// strokeToPath converts a stroked outline into a fillable path
func strokeToPath(rp raster.Path, width fixed.Int26_6, cr raster.Capper, jr raster.Joiner) raster.Path {
	var out raster.Path
	raster.Stroke(&out, rp, width, cr, jr)
	return out
}

// paint composites a colour through a coverage mask and optional clip
func (c *canvas) paint(mask, clip *image.Alpha, col rgb, alpha float64) {
	if mask == nil || alpha <= 0 {
		return
	}
	if clip != nil {
		applyClip(mask, clip)
	}
	src := image.NewUniform(uniformAlpha(col, alpha))
	draw.DrawMask(c.img, mask.Rect, src, image.Point{}, mask, mask.Rect.Min, draw.Over)
}

// applyClip multiplies mask coverage by the clip coverage
func applyClip(mask, clip *image.Alpha) {
	r := mask.Rect
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := mask.PixOffset(x, y)
			if mask.Pix[i] == 0 {
				continue
			}
			var cv uint8
			if (image.Point{X: x, Y: y}).In(clip.Rect) {
				cv = clip.Pix[clip.PixOffset(x, y)]
			}
			mask.Pix[i] = uint8(uint16(mask.Pix[i]) * uint16(cv) / 255)
		}
	}
}

// intersectClip returns a page-sized clip that is the product of clip and mask
func (c *canvas) intersectClip(clip, mask *image.Alpha) *image.Alpha {
	out := image.NewAlpha(c.img.Bounds())
	if mask == nil {
		return out
	}
	r := mask.Rect
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			v := mask.Pix[mask.PixOffset(x, y)]
			if clip != nil {
				v = uint8(uint16(v) * uint16(clip.Pix[clip.PixOffset(x, y)]) / 255)
			}
			out.Pix[out.PixOffset(x, y)] = v
		}
	}
	return out
}

// threshold turns antialiased coverage into hard pixel coverage
func threshold(mask *image.Alpha) {
	for i, v := range mask.Pix {
		if v >= 128 {
			mask.Pix[i] = 255
		} else {
			mask.Pix[i] = 0
		}
	}
}

// dashSubpaths splits polylines into the on segments of a dash pattern
func dashSubpaths(subs []subpath, pattern []float64, phase float64) []subpath {
	total := 0.0
	for _, v := range pattern {
		if v < 0 {
			return subs
		}
		total += v
	}
	if total <= 0 {
		return subs
	}

	var out []subpath
	for _, s := range subs {
		pts := s.pts
		if s.closed && len(pts) > 1 {
			pts = append(append([]Point{}, pts...), pts[0])
		}
		if len(pts) < 2 {
			continue
		}

		idx := 0
		left := pattern[0]
		on := true
		ph := math.Mod(phase, total)
		for ph > 0 {
			if ph < left {
				left -= ph
				break
			}
			ph -= left
			idx = (idx + 1) % len(pattern)
			left = pattern[idx]
			on = !on
		}

		var cur []Point
		if on {
			cur = []Point{pts[0]}
		}
		for i := 1; i < len(pts); i++ {
			a, b := pts[i-1], pts[i]
			seg := dist(a, b)
			pos := 0.0
			for seg-pos > left {
				pos += left
				t := pos / seg
				mid := Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
				if on {
					cur = append(cur, mid)
					out = append(out, subpath{pts: cur})
					cur = nil
				} else {
					cur = []Point{mid}
				}
				on = !on
				idx = (idx + 1) % len(pattern)
				left = pattern[idx]
			}
			left -= seg - pos
			if on {
				cur = append(cur, b)
			}
		}
		if on && len(cur) > 1 {
			out = append(out, subpath{pts: cur})
		}
	}
	return out
}
