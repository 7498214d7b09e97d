package pdf

import (
	"image"
	"math"
)

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// Matrix represents a 2D affine transformation [a b c d e f]
type Matrix struct {
	A, B, C, D, E, F float64
}

// IdentityMatrix returns the identity matrix
func IdentityMatrix() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Multiply returns m followed by n
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.B*n.C,
		B: m.A*n.B + m.B*n.D,
		C: m.C*n.A + m.D*n.C,
		D: m.C*n.B + m.D*n.D,
		E: m.E*n.A + m.F*n.C + n.E,
		F: m.E*n.B + m.F*n.D + n.F,
	}
}

// Transform applies the matrix to a point
func (m Matrix) Transform(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// Invert returns the inverse matrix, or false if m is singular
func (m Matrix) Invert() (Matrix, bool) {
	det := m.A*m.D - m.B*m.C
	if math.Abs(det) < 1e-12 {
		return Matrix{}, false
	}
	return Matrix{
		A: m.D / det,
		B: -m.B / det,
		C: -m.C / det,
		D: m.A / det,
		E: (m.C*m.F - m.D*m.E) / det,
		F: (m.B*m.E - m.A*m.F) / det,
	}, true
}

// scale returns the geometric mean of the axis scale factors
func (m Matrix) scale() float64 {
	return math.Sqrt(math.Abs(m.A*m.D - m.B*m.C))
}

func matrixFrom(obj Object) (Matrix, bool) {
	arr, ok := obj.(Array)
	if !ok || len(arr) != 6 {
		return Matrix{}, false
	}
	v, ok := arr.Floats()
	if !ok {
		return Matrix{}, false
	}
	return Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}, true
}

// rgb is a device colour with components in [0,1]
type rgb struct {
	R, G, B float64
}

// textState holds the parameters set by the text state operators
type textState struct {
	font       *fontFace
	size       float64
	charSpace  float64
	wordSpace  float64
	hScale     float64
	leading    float64
	rise       float64
	renderMode int
	matrix     Matrix
	lineMatrix Matrix
}

// GraphicsState is the state saved and restored by q and Q
type GraphicsState struct {
	CTM           Matrix
	fillSpace     *colorSpace
	strokeSpace   *colorSpace
	fill          rgb
	stroke        rgb
	fillPattern   Object
	strokePattern Object
	fillAlpha     float64
	strokeAlpha   float64
	LineWidth     float64
	LineCap       int
	LineJoin      int
	MiterLimit    float64
	Dash          []float64
	DashPhase     float64
	// clip is shared between saved states and replaced, never mutated.
	clip *image.Alpha
	text textState
}

func newGraphicsState(ctm Matrix) *GraphicsState {
	return &GraphicsState{
		CTM:         ctm,
		fillSpace:   deviceGray,
		strokeSpace: deviceGray,
		fillAlpha:   1,
		strokeAlpha: 1,
		LineWidth:   1,
		MiterLimit:  10,
		text: textState{
			hScale:     1,
			matrix:     IdentityMatrix(),
			lineMatrix: IdentityMatrix(),
		},
	}
}

func (gs *GraphicsState) clone() *GraphicsState {
	c := *gs
	return &c
}
