package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func newTestDoc() *Document {
	return &Document{fonts: make(map[Reference]*fontFace)}
}

func TestFallbackFontSelection(t *testing.T) {
	doc := newTestDoc()

	f := doc.newFontFace(Dictionary{"Subtype": Name("Type1"), "BaseFont": Name("Courier-BoldOblique")})
	require.NotNil(t, f.src)
	assert.False(t, f.embedded)
	assert.Same(t, fallbackFont(true, true, true), f.src.(*ttfSource).f)

	f = doc.newFontFace(Dictionary{"Subtype": Name("TrueType"), "BaseFont": Name("Arial")})
	assert.Same(t, fallbackFont(false, false, false), f.src.(*ttfSource).f)

	// descriptor flags and weight win over the name
	desc := Dictionary{"Flags": Integer(1 | 64), "FontWeight": Integer(700)}
	f = doc.newFontFace(Dictionary{"Subtype": Name("Type1"), "BaseFont": Name("ABCDEF+Custom"), "FontDescriptor": desc})
	assert.Same(t, fallbackFont(true, true, true), f.src.(*ttfSource).f)
}

func TestSimpleFontWidthsAndEncoding(t *testing.T) {
	doc := newTestDoc()
	f := doc.newFontFace(Dictionary{
		"Subtype":   Name("Type1"),
		"BaseFont":  Name("Helvetica"),
		"FirstChar": Integer(65),
		"Widths":    Array{Integer(667), Integer(500)},
		"Encoding": Dictionary{
			"BaseEncoding": Name("WinAnsiEncoding"),
			"Differences":  Array{Integer(66), Name("Euro"), Name("bullet")},
		},
	})

	assert.InDelta(t, 0.667, f.width('A'), 1e-9)
	assert.InDelta(t, 0.5, f.width('B'), 1e-9)
	// codes without a width use the glyph advance
	assert.Positive(t, f.width('z'))

	assert.Equal(t, 'A', f.unicode('A'))
	assert.Equal(t, rune(0x20AC), f.unicode('B'))
	assert.Equal(t, rune(0x2022), f.unicode('C'))
	assert.Equal(t, "Euro", f.names['B'])

	codes := f.decode([]byte("A B"))
	require.Len(t, codes, 3)
	assert.True(t, codes[1].space)

	g := f.glyph('A')
	require.NotNil(t, g)
	assert.NotEmpty(t, g.segs)
	assert.Equal(t, byte('M'), g.segs[0].op)
}

func TestEmbeddedTrueTypeFont(t *testing.T) {
	doc := newTestDoc()
	desc := Dictionary{"Flags": Integer(32), "FontFile2": Stream{Dictionary: Dictionary{}, Data: goregular.TTF}}
	f := doc.newFontFace(Dictionary{"Subtype": Name("TrueType"), "BaseFont": Name("GoRegular"), "FontDescriptor": desc})

	require.True(t, f.embedded)
	g := f.glyph('H')
	require.NotNil(t, g)
	assert.NotEmpty(t, g.segs)
	assert.InDelta(t, 0.7, g.advance, 0.2)
}

func TestEmbeddedOpenTypeFont(t *testing.T) {
	doc := newTestDoc()
	file := Stream{Dictionary: Dictionary{"Subtype": Name("OpenType")}, Data: goregular.TTF}
	desc := Dictionary{"Flags": Integer(32), "FontFile3": file}
	f := doc.newFontFace(Dictionary{"Subtype": Name("TrueType"), "FontDescriptor": desc})

	require.True(t, f.embedded)
	_, isSFNT := f.src.(*sfntSource)
	assert.True(t, isSFNT)

	g := f.glyph('o')
	require.NotNil(t, g)
	// glyph outlines use a y-up em square
	_, hi, ok := glyphBounds(g)
	require.True(t, ok)
	assert.Greater(t, hi.Y, 0.3)
}

func TestUnparsableEmbeddedFontFallsBack(t *testing.T) {
	doc := newTestDoc()
	desc := Dictionary{"FontFile2": Stream{Dictionary: Dictionary{}, Data: []byte("not a font")}}
	f := doc.newFontFace(Dictionary{"Subtype": Name("TrueType"), "BaseFont": Name("Broken"), "FontDescriptor": desc})
	assert.False(t, f.embedded)
	assert.NotNil(t, f.src)
}

func TestCompositeFont(t *testing.T) {
	doc := newTestDoc()
	desc := Dictionary{
		"Subtype":  Name("CIDFontType2"),
		"BaseFont": Name("Go"),
		"DW":       Integer(600),
		"W":        Array{Integer(10), Array{Integer(100), Integer(200)}, Integer(20), Integer(30), Integer(400)},
		"FontDescriptor": Dictionary{
			"FontFile2": Stream{Dictionary: Dictionary{}, Data: goregular.TTF},
		},
	}
	f := doc.newFontFace(Dictionary{
		"Subtype":         Name("Type0"),
		"Encoding":        Name("Identity-H"),
		"DescendantFonts": Array{desc},
	})
	require.True(t, f.composite)
	require.True(t, f.embedded)

	codes := f.decode([]byte{0x00, 0x0A, 0x00, 0x19})
	require.Len(t, codes, 2)
	assert.Equal(t, 10, codes[0].code)
	assert.Equal(t, 0x19, codes[1].code)

	assert.InDelta(t, 0.1, f.width(10), 1e-9)
	assert.InDelta(t, 0.2, f.width(11), 1e-9)
	assert.InDelta(t, 0.4, f.width(25), 1e-9)
	assert.InDelta(t, 0.6, f.width(99), 1e-9)

	gid, ok := f.glyphID(36)
	assert.True(t, ok)
	assert.Equal(t, 36, gid)
}

func TestType3FontWidths(t *testing.T) {
	doc := newTestDoc()
	f := doc.newFontFace(Dictionary{
		"Subtype":    Name("Type3"),
		"FontMatrix": Array{Real(0.01), Integer(0), Integer(0), Real(0.01), Integer(0), Integer(0)},
		"FirstChar":  Integer(97),
		"Widths":     Array{Integer(50)},
		"CharProcs":  Dictionary{"a": Stream{Data: []byte("0 0 50 50 re f")}},
		"Encoding":   Dictionary{"Differences": Array{Integer(97), Name("a")}},
	})
	require.True(t, f.type3)
	assert.InDelta(t, 0.5, f.width('a'), 1e-9)
	assert.Equal(t, "a", f.names['a'])
}

func TestLoadFontCachesByReference(t *testing.T) {
	data := singlePage("[0 0 10 10]", "", "", "<< /Type /Font /Subtype /Type1 /BaseFont /Times-Roman >>")
	doc := openBytes(t, data)
	a := doc.loadFont(Reference{ObjectNumber: 5})
	b := doc.loadFont(Reference{ObjectNumber: 5})
	assert.Same(t, a, b)
	assert.Equal(t, "Times-Roman", a.name)
}

func glyphBounds(g *glyph) (Point, Point, bool) {
	var sub subpath
	for _, s := range g.segs {
		sub.pts = append(sub.pts, s.pts[:segPoints(s.op)]...)
	}
	return bounds([]subpath{sub})
}

func segPoints(op byte) int {
	switch op {
	case 'Q':
		return 2
	case 'C':
		return 3
	}
	return 1
}
