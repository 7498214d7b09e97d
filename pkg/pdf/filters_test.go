package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDecodeStreamFlate(t *testing.T) {
	doc := &Document{}
	s := Stream{Dictionary: Dictionary{"Filter": Name("FlateDecode")}, Data: deflate(t, []byte("BT ET"))}

	data, codec, err := doc.DecodeStream(s)
	require.NoError(t, err)
	assert.Equal(t, Name(""), codec)
	assert.Equal(t, "BT ET", string(data))
}

func TestDecodeStreamChain(t *testing.T) {
	doc := &Document{}
	hexed := []byte("78DA>")
	s := Stream{
		Dictionary: Dictionary{"Filter": Array{Name("AHx"), Name("DCT")}},
		Data:       hexed,
	}
	data, codec, err := doc.DecodeStream(s)
	require.NoError(t, err)
	// decoding stops at the image codec
	assert.Equal(t, Name("DCTDecode"), codec)
	assert.Equal(t, []byte{0x78, 0xDA}, data)
}

func TestDecodeStreamUnsupported(t *testing.T) {
	doc := &Document{}
	_, _, err := doc.DecodeStream(Stream{Dictionary: Dictionary{"Filter": Name("Bogus")}})
	assert.Error(t, err)
}

func TestFlateWithPNGPredictor(t *testing.T) {
	// two rows of three bytes: None then Up
	raw := []byte{0, 1, 2, 3, 2, 1, 1, 1}
	want := []byte{1, 2, 3, 2, 3, 4}
	params := Dictionary{"Predictor": Integer(12), "Columns": Integer(3)}

	out, err := applyFilter(deflate(t, raw), "FlateDecode", params)
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestPNGPredictorRowTypes(t *testing.T) {
	params := Dictionary{"Predictor": Integer(15), "Columns": Integer(2)}
	raw := []byte{
		1, 10, 5, // Sub
		3, 4, 4, // Average
		4, 1, 1, // Paeth
	}
	out, err := applyPredictor(raw, params)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 15, 9, 16, 10, 17}, out)

	_, err = applyPredictor([]byte{9, 0, 0}, params)
	assert.Error(t, err)
}

func TestTIFFPredictor(t *testing.T) {
	params := Dictionary{"Predictor": Integer(2), "Columns": Integer(3)}
	out, err := applyPredictor([]byte{5, 1, 1}, params)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 7}, out)
}

func TestASCIIHexDecode(t *testing.T) {
	out, err := asciiHexDecode([]byte("48 65\n6c6C 6F>ignored"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(out))

	out, err = asciiHexDecode([]byte("A"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA0}, out)

	_, err = asciiHexDecode([]byte("zz"))
	assert.Error(t, err)
}

func TestASCII85Decode(t *testing.T) {
	for _, text := range []string{"Hello, world", "a", "abcd", "\x00\x00\x00\x00tail"} {
		enc := make([]byte, ascii85.MaxEncodedLen(len(text)))
		n := ascii85.Encode(enc, []byte(text))
		out, err := ascii85Decode(append(enc[:n], '~', '>'))
		require.NoError(t, err)
		assert.Equal(t, text, string(out))
	}

	_, err := ascii85Decode([]byte("ab{~>"))
	assert.Error(t, err)
}

func TestRunLengthDecode(t *testing.T) {
	out, err := runLengthDecode([]byte{2, 'a', 'b', 'c', 254, 'x', 128, 'z'})
	require.NoError(t, err)
	assert.Equal(t, "abcxxx", string(out))

	_, err = runLengthDecode([]byte{5, 'a'})
	assert.Error(t, err)
}

func TestLZWDecode(t *testing.T) {
	data := []byte{0x80, 0x0B, 0x60, 0x50, 0x22, 0x0C, 0x0C, 0x85, 0x01}
	out, err := lzwDecode(data, 1)
	require.NoError(t, err)
	assert.Equal(t, "-----A---B", string(out))
}

func TestFilterChainParams(t *testing.T) {
	doc := &Document{}
	dict := Dictionary{
		"Filter":      Array{Name("FlateDecode"), Name("CCITTFaxDecode")},
		"DecodeParms": Array{Null{}, Dictionary{"K": Integer(-1)}},
	}
	filters, params := doc.filterChain(dict)
	assert.Equal(t, []Name{"FlateDecode", "CCITTFaxDecode"}, filters)
	assert.Nil(t, params[0])
	assert.Equal(t, Integer(-1), params[1].Get("K"))
	assert.Equal(t, Integer(-1), doc.codecParams(Stream{Dictionary: dict}).Get("K"))
}
