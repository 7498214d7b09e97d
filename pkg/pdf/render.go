package pdf

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// maxFormDepth bounds nested form XObjects, patterns and Type3 glyphs
const maxFormDepth = 8

// maxTiles bounds the tiling pattern cells painted for one fill
const maxTiles = 1024

// RenderOptions controls page rasterization
type RenderOptions struct {
	DPIX          float64
	DPIY          float64
	Antialias     bool
	TextAntialias bool
}

// DefaultRenderOptions returns 72 DPI with antialiasing enabled
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{DPIX: 72, DPIY: 72, Antialias: true, TextAntialias: true}
}

type renderer struct {
	doc       *Document
	canvas    *canvas
	opts      RenderOptions
	gs        *GraphicsState
	stack     []*GraphicsState
	path      path
	clipRule  int
	resources Dictionary
	base      Matrix
	depth     int
	// floor is the stack height a nested stream must not pop below.
	floor int
	err   error
}

const (
	clipNone = iota
	clipNonZero
	clipEvenOdd
)

// RenderPage rasterizes the page at a 0-based index onto a white background
func (d *Document) RenderPage(index int, opts RenderOptions) (*image.RGBA, error) {
	if index < 0 || index >= len(d.Pages) {
		return nil, fmt.Errorf("page index %d out of range (%d pages)", index, len(d.Pages))
	}
	if opts.DPIX <= 0 || opts.DPIY <= 0 {
		return nil, errors.New("resolution must be positive")
	}
	page := d.Pages[index]

	pw, ph := page.Size()
	w := int(math.Ceil(pw * opts.DPIX / 72))
	h := int(math.Ceil(ph * opts.DPIY / 72))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("page %d has an empty box", index+1)
	}
	if w*h > maxImagePixels {
		return nil, fmt.Errorf("page %d is too large to render at %gx%g dpi", index+1, opts.DPIX, opts.DPIY)
	}

	base := deviceMatrix(page.CropBox, page.Rotate, opts.DPIX/72, opts.DPIY/72)
	r := &renderer{
		doc:       d,
		canvas:    newCanvas(w, h),
		opts:      opts,
		gs:        newGraphicsState(base),
		resources: page.Resources,
		base:      base,
	}

	data, err := page.Contents()
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", index+1, err)
	}
	r.run(data)
	if r.err != nil {
		return nil, fmt.Errorf("page %d: %w", index+1, r.err)
	}
	return r.canvas.img, nil
}

// deviceMatrix maps default user space onto device pixels with y pointing down
func deviceMatrix(box Rectangle, rotate int, sx, sy float64) Matrix {
	switch rotate {
	case 90:
		return Matrix{A: 0, B: sy, C: sx, D: 0, E: -box.LLY * sx, F: -box.LLX * sy}
	case 180:
		return Matrix{A: -sx, B: 0, C: 0, D: sy, E: box.URX * sx, F: -box.LLY * sy}
	case 270:
		return Matrix{A: 0, B: -sy, C: -sx, D: 0, E: box.URY * sx, F: box.URX * sy}
	}
	return Matrix{A: sx, B: 0, C: 0, D: -sy, E: -box.LLX * sx, F: box.URY * sy}
}

// run interprets a content stream. Unknown operators and bad operands are
// skipped; a parse failure or an interpreter panic is recorded in r.err and
// stops all further painting.
func (r *renderer) run(data []byte) {
	if r.err != nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(fmt.Errorf("content interpreter: %v", rec))
		}
	}()
	ops, err := NewContentStreamParser(data).ParseOperations()
	for _, op := range ops {
		if r.err != nil {
			return
		}
		r.exec(op)
	}
	if err != nil {
		r.fail(fmt.Errorf("content stream: %w", err))
	}
}

// fail keeps the first error raised while painting a page
func (r *renderer) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// runNested interprets a content stream under a new CTM and resources
func (r *renderer) runNested(data []byte, resources Dictionary, ctm Matrix) {
	if r.depth >= maxFormDepth {
		return
	}
	savedRes, savedPath, savedFloor := r.resources, r.path, r.floor
	r.push()
	r.floor = len(r.stack)
	r.gs.CTM = ctm
	r.resources = resources
	r.path = path{}
	r.depth++

	r.run(data)

	r.depth--
	r.stack = r.stack[:r.floor]
	r.pop()
	r.resources, r.path, r.floor = savedRes, savedPath, savedFloor
}

func (r *renderer) push() {
	r.stack = append(r.stack, r.gs.clone())
}

func (r *renderer) pop() {
	if len(r.stack) == 0 {
		return
	}
	r.gs = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
}

func (r *renderer) pt(x, y float64) Point {
	dx, dy := r.gs.CTM.Transform(x, y)
	return Point{X: dx, Y: dy}
}

func nums(operands []Object, n int) ([]float64, bool) {
	if len(operands) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i, obj := range operands[len(operands)-n:] {
		v, ok := toFloat(obj)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func allNums(operands []Object) []float64 {
	var out []float64
	for _, obj := range operands {
		if v, ok := toFloat(obj); ok {
			out = append(out, v)
		}
	}
	return out
}

func (r *renderer) exec(op Operation) {
	args := op.Operands
	gs := r.gs

	switch op.Operator {
	// graphics state
	case "q":
		r.push()
	case "Q":
		if len(r.stack) > r.floor {
			r.pop()
		}
	case "cm":
		if v, ok := nums(args, 6); ok {
			gs.CTM = Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.Multiply(gs.CTM)
		}
	case "w":
		if v, ok := nums(args, 1); ok {
			gs.LineWidth = v[0]
		}
	case "J":
		if v, ok := nums(args, 1); ok {
			gs.LineCap = int(v[0])
		}
	case "j":
		if v, ok := nums(args, 1); ok {
			gs.LineJoin = int(v[0])
		}
	case "M":
		if v, ok := nums(args, 1); ok {
			gs.MiterLimit = v[0]
		}
	case "d":
		if len(args) == 2 {
			if arr, ok := args[0].(Array); ok {
				gs.Dash, _ = r.doc.floats(arr)
				gs.DashPhase, _ = toFloat(args[1])
			}
		}
	case "gs":
		if len(args) == 1 {
			if name, ok := args[0].(Name); ok {
				r.applyExtGState(name)
			}
		}

	// path construction
	case "m":
		if v, ok := nums(args, 2); ok {
			r.path.moveTo(r.pt(v[0], v[1]))
		}
	case "l":
		if v, ok := nums(args, 2); ok {
			r.path.lineTo(r.pt(v[0], v[1]))
		}
	case "c":
		if v, ok := nums(args, 6); ok {
			r.path.curveTo(r.pt(v[0], v[1]), r.pt(v[2], v[3]), r.pt(v[4], v[5]))
		}
	case "v":
		if v, ok := nums(args, 4); ok {
			r.path.curveTo(r.path.cur, r.pt(v[0], v[1]), r.pt(v[2], v[3]))
		}
	case "y":
		if v, ok := nums(args, 4); ok {
			end := r.pt(v[2], v[3])
			r.path.curveTo(r.pt(v[0], v[1]), end, end)
		}
	case "h":
		r.path.closePath()
	case "re":
		if v, ok := nums(args, 4); ok {
			x, y, w, h := v[0], v[1], v[2], v[3]
			r.path.moveTo(r.pt(x, y))
			r.path.lineTo(r.pt(x+w, y))
			r.path.lineTo(r.pt(x+w, y+h))
			r.path.lineTo(r.pt(x, y+h))
			r.path.closePath()
		}

	// path painting
	case "S":
		r.paintPath(false, false, true)
	case "s":
		r.path.closePath()
		r.paintPath(false, false, true)
	case "f", "F":
		r.paintPath(true, false, false)
	case "f*":
		r.paintPath(true, true, false)
	case "B":
		r.paintPath(true, false, true)
	case "B*":
		r.paintPath(true, true, true)
	case "b":
		r.path.closePath()
		r.paintPath(true, false, true)
	case "b*":
		r.path.closePath()
		r.paintPath(true, true, true)
	case "n":
		r.paintPath(false, false, false)
	case "W":
		r.clipRule = clipNonZero
	case "W*":
		r.clipRule = clipEvenOdd

	// colour
	case "CS", "cs":
		if len(args) == 1 {
			cs := r.doc.colorSpace(args[0], r.resources, 0)
			c := cs.toRGB(cs.initial())
			if op.Operator == "CS" {
				gs.strokeSpace, gs.stroke, gs.strokePattern = cs, c, nil
			} else {
				gs.fillSpace, gs.fill, gs.fillPattern = cs, c, nil
			}
		}
	case "SC", "SCN":
		gs.stroke, gs.strokePattern = r.setColor(gs.strokeSpace, args, gs.stroke)
	case "sc", "scn":
		gs.fill, gs.fillPattern = r.setColor(gs.fillSpace, args, gs.fill)
	case "G", "g", "RG", "rg", "K", "k":
		cs, n := deviceGray, 1
		switch op.Operator {
		case "RG", "rg":
			cs, n = deviceRGB, 3
		case "K", "k":
			cs, n = deviceCMYK, 4
		}
		if v, ok := nums(args, n); ok {
			if op.Operator[0] >= 'a' {
				gs.fillSpace, gs.fill, gs.fillPattern = cs, cs.toRGB(v), nil
			} else {
				gs.strokeSpace, gs.stroke, gs.strokePattern = cs, cs.toRGB(v), nil
			}
		}
	case "sh":
		if len(args) == 1 {
			if name, ok := args[0].(Name); ok {
				r.paintShading(name)
			}
		}

	// XObjects and inline images
	case "Do":
		if len(args) == 1 {
			if name, ok := args[0].(Name); ok {
				r.doXObject(name)
			}
		}
	case "BI":
		if len(args) == 1 {
			if s, ok := args[0].(Stream); ok {
				r.drawImage(s, r.resources)
			}
		}

	// text
	case "BT":
		gs.text.matrix = IdentityMatrix()
		gs.text.lineMatrix = IdentityMatrix()
	case "ET":
	case "Tc":
		if v, ok := nums(args, 1); ok {
			gs.text.charSpace = v[0]
		}
	case "Tw":
		if v, ok := nums(args, 1); ok {
			gs.text.wordSpace = v[0]
		}
	case "Tz":
		if v, ok := nums(args, 1); ok {
			gs.text.hScale = v[0] / 100
		}
	case "TL":
		if v, ok := nums(args, 1); ok {
			gs.text.leading = v[0]
		}
	case "Ts":
		if v, ok := nums(args, 1); ok {
			gs.text.rise = v[0]
		}
	case "Tr":
		if v, ok := nums(args, 1); ok {
			gs.text.renderMode = int(v[0])
		}
	case "Tf":
		if len(args) == 2 {
			name, _ := args[0].(Name)
			size, _ := toFloat(args[1])
			gs.text.size = size
			if obj, ok := r.doc.resourceEntry(r.resources, "Font", name); ok {
				gs.text.font = r.doc.loadFont(obj)
			}
		}
	case "Td":
		if v, ok := nums(args, 2); ok {
			r.nextLine(v[0], v[1])
		}
	case "TD":
		if v, ok := nums(args, 2); ok {
			gs.text.leading = -v[1]
			r.nextLine(v[0], v[1])
		}
	case "Tm":
		if v, ok := nums(args, 6); ok {
			gs.text.matrix = Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
			gs.text.lineMatrix = gs.text.matrix
		}
	case "T*":
		r.nextLine(0, -gs.text.leading)
	case "Tj":
		if len(args) >= 1 {
			if s, ok := args[len(args)-1].(String); ok {
				r.showText(s.Value)
			}
		}
	case "'":
		r.nextLine(0, -gs.text.leading)
		if len(args) >= 1 {
			if s, ok := args[len(args)-1].(String); ok {
				r.showText(s.Value)
			}
		}
	case "\"":
		if len(args) == 3 {
			gs.text.wordSpace, _ = toFloat(args[0])
			gs.text.charSpace, _ = toFloat(args[1])
			r.nextLine(0, -gs.text.leading)
			if s, ok := args[2].(String); ok {
				r.showText(s.Value)
			}
		}
	case "TJ":
		if len(args) >= 1 {
			if arr, ok := args[len(args)-1].(Array); ok {
				r.showArray(arr)
			}
		}
	}
}

func (r *renderer) strokeStyle() strokeStyle {
	scale := r.gs.CTM.scale()
	st := strokeStyle{
		width: r.gs.LineWidth * scale,
		cap:   r.gs.LineCap,
		join:  r.gs.LineJoin,
	}
	if len(r.gs.Dash) > 0 {
		st.dash = make([]float64, len(r.gs.Dash))
		for i, v := range r.gs.Dash {
			st.dash[i] = v * scale
		}
		st.dashPhase = r.gs.DashPhase * scale
	}
	return st
}

// paintPath fills and strokes the current path, then applies a pending clip
func (r *renderer) paintPath(fill, evenOdd, stroke bool) {
	subs := r.path.subs
	gs := r.gs
	aa := r.opts.Antialias

	if fill {
		mask := r.canvas.fillMask(subs, evenOdd, aa)
		r.paintWith(mask, gs.fillPattern, gs.fill, gs.fillAlpha, gs.fillSpace)
	}
	if stroke {
		mask := r.canvas.strokeMask(subs, r.strokeStyle(), aa)
		r.paintWith(mask, gs.strokePattern, gs.stroke, gs.strokeAlpha, gs.strokeSpace)
	}
	if r.clipRule != clipNone {
		mask := r.canvas.fillMask(subs, r.clipRule == clipEvenOdd, aa)
		gs.clip = r.canvas.intersectClip(gs.clip, mask)
		r.clipRule = clipNone
	}
	r.path.reset()
}

func (r *renderer) paintWith(mask *image.Alpha, pattern Object, c rgb, alpha float64, cs *colorSpace) {
	if mask == nil {
		return
	}
	if cs != nil && cs.kind == csPattern && pattern != nil {
		r.paintPattern(mask, pattern, c, alpha)
		return
	}
	r.canvas.paint(mask, r.gs.clip, c, alpha)
}

// setColor applies SC/SCN style operands in a colour space
func (r *renderer) setColor(cs *colorSpace, args []Object, cur rgb) (rgb, Object) {
	if cs.kind == csPattern {
		if len(args) > 0 {
			if name, ok := args[len(args)-1].(Name); ok {
				if obj, ok := r.doc.resourceEntry(r.resources, "Pattern", name); ok {
					return cur, obj
				}
			}
		}
		return cur, nil
	}
	v := allNums(args)
	if len(v) == 0 {
		return cur, nil
	}
	return cs.toRGB(v), nil
}

func (r *renderer) applyExtGState(name Name) {
	obj, ok := r.doc.resourceEntry(r.resources, "ExtGState", name)
	if !ok {
		return
	}
	dict, ok := r.doc.Resolve(obj).(Dictionary)
	if !ok {
		return
	}
	gs := r.gs
	for key, val := range dict {
		val = r.doc.Resolve(val)
		switch key {
		case "CA":
			if v, ok := toFloat(val); ok {
				gs.strokeAlpha = v
			}
		case "ca":
			if v, ok := toFloat(val); ok {
				gs.fillAlpha = v
			}
		case "LW":
			if v, ok := toFloat(val); ok {
				gs.LineWidth = v
			}
		case "LC":
			if v, ok := toInt(val); ok {
				gs.LineCap = v
			}
		case "LJ":
			if v, ok := toInt(val); ok {
				gs.LineJoin = v
			}
		case "ML":
			if v, ok := toFloat(val); ok {
				gs.MiterLimit = v
			}
		case "D":
			if arr, ok := val.(Array); ok && len(arr) == 2 {
				gs.Dash, _ = r.doc.floats(arr[0])
				gs.DashPhase, _ = toFloat(r.doc.Resolve(arr[1]))
			}
		case "Font":
			if arr, ok := val.(Array); ok && len(arr) == 2 {
				gs.text.font = r.doc.loadFont(arr[0])
				gs.text.size, _ = toFloat(r.doc.Resolve(arr[1]))
			}
		}
	}
}

func (r *renderer) doXObject(name Name) {
	obj, ok := r.doc.resourceEntry(r.resources, "XObject", name)
	if !ok {
		return
	}
	s, ok := r.doc.Resolve(obj).(Stream)
	if !ok {
		return
	}
	switch sub, _ := r.doc.Resolve(s.Dictionary.Get("Subtype")).(Name); sub {
	case "Image":
		r.drawImage(s, r.resources)
	case "Form":
		r.drawForm(s)
	}
}

func (r *renderer) drawForm(s Stream) {
	if r.depth >= maxFormDepth {
		return
	}
	data, _, err := r.doc.DecodeStream(s)
	if err != nil {
		r.fail(fmt.Errorf("form xobject: %w", err))
		return
	}
	m, ok := matrixFrom(r.doc.Resolve(s.Dictionary.Get("Matrix")))
	if !ok {
		m = IdentityMatrix()
	}
	ctm := m.Multiply(r.gs.CTM)

	res, ok := r.doc.Resolve(s.Dictionary.Get("Resources")).(Dictionary)
	if !ok {
		res = r.resources
	}

	r.push()
	if box, ok := r.doc.rect(s.Dictionary.Get("BBox")); ok {
		r.gs.clip = r.clipToRect(box, ctm)
	}
	r.runNested(data, res, ctm)
	r.pop()
}

// clipToRect intersects the current clip with a rectangle in the given space
func (r *renderer) clipToRect(box Rectangle, m Matrix) *image.Alpha {
	tr := func(x, y float64) Point {
		dx, dy := m.Transform(x, y)
		return Point{X: dx, Y: dy}
	}
	var p path
	p.moveTo(tr(box.LLX, box.LLY))
	p.lineTo(tr(box.URX, box.LLY))
	p.lineTo(tr(box.URX, box.URY))
	p.lineTo(tr(box.LLX, box.URY))
	p.closePath()
	return r.canvas.intersectClip(r.gs.clip, r.canvas.fillMask(p.subs, false, r.opts.Antialias))
}
