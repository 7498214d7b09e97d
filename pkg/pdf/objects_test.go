package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, input string) Object {
	t.Helper()
	obj, err := NewParser([]byte(input)).ParseObject()
	require.NoError(t, err, input)
	return obj
}

func TestParseScalars(t *testing.T) {
	assert.Equal(t, Integer(42), parse(t, "42"))
	assert.Equal(t, Real(-2.5), parse(t, "-2.5"))
	assert.Equal(t, Boolean(true), parse(t, "true"))
	assert.Equal(t, Boolean(false), parse(t, "false"))
	assert.Equal(t, Null{}, parse(t, "null"))
	assert.Equal(t, Name("Page"), parse(t, "/Page"))
	assert.Equal(t, String{Value: []byte("abc")}, parse(t, "(abc)"))
	assert.Equal(t, String{Value: []byte{0xAB}, IsHex: true}, parse(t, "<ab>"))
	assert.Equal(t, Keyword("re"), parse(t, "re"))
}

func TestParseReferenceLookahead(t *testing.T) {
	assert.Equal(t, Reference{ObjectNumber: 12, GenerationNumber: 0}, parse(t, "12 0 R"))

	// two integers without R rewind to a plain integer
	p := NewParser([]byte("12 0 obj"))
	obj, err := p.ParseObject()
	require.NoError(t, err)
	assert.Equal(t, Integer(12), obj)
	obj, err = p.ParseObject()
	require.NoError(t, err)
	assert.Equal(t, Integer(0), obj)
}

func TestParseContainers(t *testing.T) {
	obj := parse(t, "<< /Type /Page /Kids [1 0 R 2 0 R] /Box [0 0 612.5 792] /Skip null /Nested << /A 1 >> >>")
	dict, ok := obj.(Dictionary)
	require.True(t, ok)

	assert.Equal(t, Name("Page"), dict.Get("Type"))
	assert.Equal(t, Array{Reference{1, 0}, Reference{2, 0}}, dict.Get("Kids"))
	_, hasNull := dict[Name("Skip")]
	assert.False(t, hasNull, "null values are dropped")

	box, ok := dict.Get("Box").(Array).Floats()
	require.True(t, ok)
	assert.Equal(t, []float64{0, 0, 612.5, 792}, box)

	nested, ok := dict.Get("Nested").(Dictionary)
	require.True(t, ok)
	assert.Equal(t, Integer(1), nested.Get("A"))
}

func TestParseLenientDictionary(t *testing.T) {
	dict, ok := parse(t, "<< 5 /A 1 /B >>").(Dictionary)
	require.True(t, ok)
	assert.Equal(t, Integer(1), dict.Get("A"))
	assert.Nil(t, dict.Get("B"))
}

func TestParseUnterminated(t *testing.T) {
	_, err := NewParser([]byte("[1 2")).ParseObject()
	assert.Error(t, err)
	_, err = NewParser([]byte("<< /A 1")).ParseObject()
	assert.Error(t, err)
}

func TestArrayFloatsRejectsNonNumbers(t *testing.T) {
	_, ok := Array{Integer(1), Name("x")}.Floats()
	assert.False(t, ok)
}

func TestParseIndirectObjectStream(t *testing.T) {
	input := "7 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj"
	ref, obj, err := NewParser([]byte(input)).ParseIndirectObject()
	require.NoError(t, err)
	assert.Equal(t, Reference{7, 0}, ref)

	s, ok := obj.(Stream)
	require.True(t, ok)
	assert.Equal(t, "hello", string(s.Data))
}

func TestParseIndirectObjectBadLength(t *testing.T) {
	// a wrong /Length falls back to scanning for endstream
	input := "3 0 obj\n<< /Length 99 >>\nstream\r\nabc\r\nendstream\nendobj"
	_, obj, err := NewParser([]byte(input)).ParseIndirectObject()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(obj.(Stream).Data))
}

func TestParseIndirectObjectHeader(t *testing.T) {
	_, _, err := NewParser([]byte("3 0 xyz 1 endobj")).ParseIndirectObject()
	var syn *SyntaxError
	assert.ErrorAs(t, err, &syn)
}

func TestObjectStrings(t *testing.T) {
	assert.Equal(t, "3 0 R", Reference{3, 0}.String())
	assert.Equal(t, "/Name", Name("Name").String())
	assert.Equal(t, "<0A>", String{Value: []byte{0x0A}, IsHex: true}.String())
	assert.Equal(t, "[1 2.5]", Array{Integer(1), Real(2.5)}.String())
	assert.Equal(t, "null", Null{}.String())
}

func TestContentStreamOperations(t *testing.T) {
	ops, err := NewContentStreamParser([]byte("q 1 0 0 1 5 5 cm /F1 12 Tf [(a) -20 (b)] TJ Q")).ParseOperations()
	require.NoError(t, err)
	require.Len(t, ops, 5)

	assert.Equal(t, "q", ops[0].Operator)
	assert.Empty(t, ops[0].Operands)
	assert.Equal(t, "cm", ops[1].Operator)
	assert.Len(t, ops[1].Operands, 6)
	assert.Equal(t, "Tf", ops[2].Operator)
	assert.Equal(t, []Object{Name("F1"), Integer(12)}, ops[2].Operands)
	assert.Equal(t, "TJ", ops[3].Operator)
	assert.Equal(t, "Q", ops[4].Operator)
}

func TestContentStreamInlineImage(t *testing.T) {
	data := "BI /W 2 /H 1 /CS /RGB /BPC 8 ID \xff\x00\x00\x00\x00\xff EI 0 g"
	ops, err := NewContentStreamParser([]byte(data)).ParseOperations()
	require.NoError(t, err)
	require.Len(t, ops, 2)

	require.Equal(t, "BI", ops[0].Operator)
	img, ok := ops[0].Operands[0].(Stream)
	require.True(t, ok)
	assert.Equal(t, Integer(2), img.Dictionary.Get("Width"))
	assert.Equal(t, Name("DeviceRGB"), img.Dictionary.Get("ColorSpace"))
	assert.Equal(t, []byte{0xff, 0, 0, 0, 0, 0xff}, img.Data)
	assert.Equal(t, "g", ops[1].Operator)
}
