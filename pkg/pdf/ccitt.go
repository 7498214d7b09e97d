package pdf

import (
	"errors"
)

// CCITTDecoder decodes CCITT Group 3 and Group 4 fax data
type CCITTDecoder struct {
	K                int // <0 Group 4, 0 Group 3 1D, >0 Group 3 mixed
	Columns          int
	Rows             int
	EndOfLine        bool
	EncodedByteAlign bool
	BlackIs1         bool
}

// CCITTCode is one Huffman code table entry
type CCITTCode struct {
	Code   int
	Bits   int
	RunLen int
}

var whiteTermCodes = []CCITTCode{
	{0x35, 8, 0}, {0x07, 6, 1}, {0x07, 4, 2}, {0x08, 4, 3},
	{0x0B, 4, 4}, {0x0C, 4, 5}, {0x0E, 4, 6}, {0x0F, 4, 7},
	{0x13, 5, 8}, {0x14, 5, 9}, {0x07, 5, 10}, {0x08, 5, 11},
	{0x08, 6, 12}, {0x03, 6, 13}, {0x34, 6, 14}, {0x35, 6, 15},
	{0x2A, 6, 16}, {0x2B, 6, 17}, {0x27, 7, 18}, {0x0C, 7, 19},
	{0x08, 7, 20}, {0x17, 7, 21}, {0x03, 7, 22}, {0x04, 7, 23},
	{0x28, 7, 24}, {0x2B, 7, 25}, {0x13, 7, 26}, {0x24, 7, 27},
	{0x18, 7, 28}, {0x02, 8, 29}, {0x03, 8, 30}, {0x1A, 8, 31},
	{0x1B, 8, 32}, {0x12, 8, 33}, {0x13, 8, 34}, {0x14, 8, 35},
	{0x15, 8, 36}, {0x16, 8, 37}, {0x17, 8, 38}, {0x28, 8, 39},
	{0x29, 8, 40}, {0x2A, 8, 41}, {0x2B, 8, 42}, {0x2C, 8, 43},
	{0x2D, 8, 44}, {0x04, 8, 45}, {0x05, 8, 46}, {0x0A, 8, 47},
	{0x0B, 8, 48}, {0x52, 8, 49}, {0x53, 8, 50}, {0x54, 8, 51},
	{0x55, 8, 52}, {0x24, 8, 53}, {0x25, 8, 54}, {0x58, 8, 55},
	{0x59, 8, 56}, {0x5A, 8, 57}, {0x5B, 8, 58}, {0x4A, 8, 59},
	{0x4B, 8, 60}, {0x32, 8, 61}, {0x33, 8, 62}, {0x34, 8, 63},
}

var whiteMakeupCodes = []CCITTCode{
	{0x1B, 5, 64}, {0x12, 5, 128}, {0x17, 6, 192}, {0x37, 7, 256},
	{0x36, 8, 320}, {0x37, 8, 384}, {0x64, 8, 448}, {0x65, 8, 512},
	{0x68, 8, 576}, {0x67, 8, 640}, {0xCC, 9, 704}, {0xCD, 9, 768},
	{0xD2, 9, 832}, {0xD3, 9, 896}, {0xD4, 9, 960}, {0xD5, 9, 1024},
	{0xD6, 9, 1088}, {0xD7, 9, 1152}, {0xD8, 9, 1216}, {0xD9, 9, 1280},
	{0xDA, 9, 1344}, {0xDB, 9, 1408}, {0x98, 9, 1472}, {0x99, 9, 1536},
	{0x9A, 9, 1600}, {0x18, 6, 1664}, {0x9B, 9, 1728},
}

var blackTermCodes = []CCITTCode{
	{0x37, 10, 0}, {0x02, 3, 1}, {0x03, 2, 2}, {0x02, 2, 3},
	{0x03, 3, 4}, {0x03, 4, 5}, {0x02, 4, 6}, {0x03, 5, 7},
	{0x05, 6, 8}, {0x04, 6, 9}, {0x04, 7, 10}, {0x05, 7, 11},
	{0x07, 7, 12}, {0x04, 8, 13}, {0x07, 8, 14}, {0x18, 9, 15},
	{0x17, 10, 16}, {0x18, 10, 17}, {0x08, 10, 18}, {0x67, 11, 19},
	{0x68, 11, 20}, {0x6C, 11, 21}, {0x37, 11, 22}, {0x28, 11, 23},
	{0x17, 11, 24}, {0x18, 11, 25}, {0xCA, 12, 26}, {0xCB, 12, 27},
	{0xCC, 12, 28}, {0xCD, 12, 29}, {0x68, 12, 30}, {0x69, 12, 31},
	{0x6A, 12, 32}, {0x6B, 12, 33}, {0xD2, 12, 34}, {0xD3, 12, 35},
	{0xD4, 12, 36}, {0xD5, 12, 37}, {0xD6, 12, 38}, {0xD7, 12, 39},
	{0x6C, 12, 40}, {0x6D, 12, 41}, {0xDA, 12, 42}, {0xDB, 12, 43},
	{0x54, 12, 44}, {0x55, 12, 45}, {0x56, 12, 46}, {0x57, 12, 47},
	{0x64, 12, 48}, {0x65, 12, 49}, {0x52, 12, 50}, {0x53, 12, 51},
	{0x24, 12, 52}, {0x37, 12, 53}, {0x38, 12, 54}, {0x27, 12, 55},
	{0x28, 12, 56}, {0x58, 12, 57}, {0x59, 12, 58}, {0x2B, 12, 59},
	{0x2C, 12, 60}, {0x5A, 12, 61}, {0x66, 12, 62}, {0x67, 12, 63},
}

var blackMakeupCodes = []CCITTCode{
	{0x0F, 10, 64}, {0xC8, 12, 128}, {0xC9, 12, 192}, {0x5B, 12, 256},
	{0x33, 12, 320}, {0x34, 12, 384}, {0x35, 12, 448}, {0x6C, 13, 512},
	{0x6D, 13, 576}, {0x4A, 13, 640}, {0x4B, 13, 704}, {0x4C, 13, 768},
	{0x4D, 13, 832}, {0x72, 13, 896}, {0x73, 13, 960}, {0x74, 13, 1024},
	{0x75, 13, 1088}, {0x76, 13, 1152}, {0x77, 13, 1216}, {0x52, 13, 1280},
	{0x53, 13, 1344}, {0x54, 13, 1408}, {0x55, 13, 1472}, {0x5A, 13, 1536},
	{0x5B, 13, 1600}, {0x64, 13, 1664}, {0x65, 13, 1728},
}

// extended makeup codes shared by both colours
var extMakeupCodes = []CCITTCode{
	{0x08, 11, 1792}, {0x0C, 11, 1856}, {0x0D, 11, 1920}, {0x12, 12, 1984},
	{0x13, 12, 2048}, {0x14, 12, 2112}, {0x15, 12, 2176}, {0x16, 12, 2240},
	{0x17, 12, 2304}, {0x1C, 12, 2368}, {0x1D, 12, 2432}, {0x1E, 12, 2496},
	{0x1F, 12, 2560},
}

const (
	modePass = iota
	modeHorizontal
	modeV0
	modeVR1
	modeVR2
	modeVR3
	modeVL1
	modeVL2
	modeVL3
)

var twoDCodes = []CCITTCode{
	{0x01, 4, modePass},
	{0x01, 3, modeHorizontal},
	{0x01, 1, modeV0},
	{0x03, 3, modeVR1},
	{0x03, 6, modeVR2},
	{0x03, 7, modeVR3},
	{0x02, 3, modeVL1},
	{0x02, 6, modeVL2},
	{0x02, 7, modeVL3},
}

var verticalOffset = map[int]int{
	modeV0: 0, modeVR1: 1, modeVR2: 2, modeVR3: 3, modeVL1: -1, modeVL2: -2, modeVL3: -3,
}

type codeKey struct{ bits, code int }

type codeTable map[codeKey]CCITTCode

func newCodeTable(lists ...[]CCITTCode) codeTable {
	t := make(codeTable)
	for _, list := range lists {
		for _, c := range list {
			t[codeKey{c.Bits, c.Code}] = c
		}
	}
	return t
}

var (
	whiteTable = newCodeTable(whiteTermCodes, whiteMakeupCodes, extMakeupCodes)
	blackTable = newCodeTable(blackTermCodes, blackMakeupCodes, extMakeupCodes)
	modeTable  = newCodeTable(twoDCodes)
)

var errCCITT = errors.New("invalid CCITT code")

// BitReader reads a byte slice most significant bit first
type BitReader struct {
	data []byte
	pos  int
}

// NewBitReader creates a bit reader over data
func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// ReadBit returns the next bit, or -1 at the end of the data
func (r *BitReader) ReadBit() int {
	if r.pos >= len(r.data)*8 {
		return -1
	}
	b := int(r.data[r.pos/8]>>(7-uint(r.pos%8))) & 1
	r.pos++
	return b
}

// PeekBits returns the next n bits without consuming them; missing bits read as 0
func (r *BitReader) PeekBits(n int) int {
	v := 0
	for i := 0; i < n; i++ {
		p := r.pos + i
		bit := 0
		if p < len(r.data)*8 {
			bit = int(r.data[p/8]>>(7-uint(p%8))) & 1
		}
		v = v<<1 | bit
	}
	return v
}

// ByteAlign skips to the next byte boundary
func (r *BitReader) ByteAlign() {
	r.pos = (r.pos + 7) &^ 7
}

// EOF reports whether all bits were consumed
func (r *BitReader) EOF() bool {
	return r.pos >= len(r.data)*8
}

func (r *BitReader) lookup(t codeTable, maxBits int) (CCITTCode, error) {
	code := 0
	for bits := 1; bits <= maxBits; bits++ {
		b := r.ReadBit()
		if b < 0 {
			return CCITTCode{}, errCCITT
		}
		code = code<<1 | b
		if c, ok := t[codeKey{bits, code}]; ok {
			return c, nil
		}
	}
	return CCITTCode{}, errCCITT
}

// NewCCITTDecoder creates a decoder from a CCITTFaxDecode parameter dictionary
func NewCCITTDecoder(params Dictionary) *CCITTDecoder {
	dec := &CCITTDecoder{Columns: 1728}
	if params == nil {
		return dec
	}
	dec.K = intOr(params.Get("K"), 0)
	dec.Columns = intOr(params.Get("Columns"), 1728)
	dec.Rows = intOr(params.Get("Rows"), 0)
	if b, ok := params.Get("EndOfLine").(Boolean); ok {
		dec.EndOfLine = bool(b)
	}
	if b, ok := params.Get("EncodedByteAlign").(Boolean); ok {
		dec.EncodedByteAlign = bool(b)
	}
	if b, ok := params.Get("BlackIs1").(Boolean); ok {
		dec.BlackIs1 = bool(b)
	}
	return dec
}

// Decode returns packed rows of 1-bit samples
func (dec *CCITTDecoder) Decode(data []byte) ([]byte, error) {
	if dec.Columns <= 0 || dec.Columns > 1<<16 {
		return nil, errors.New("invalid CCITT column count")
	}
	r := NewBitReader(data)
	rowBytes := (dec.Columns + 7) / 8
	maxRows := dec.Rows
	if maxRows <= 0 {
		maxRows = maxImagePixels / dec.Columns
	}

	ref := []int{dec.Columns, dec.Columns}
	var out []byte
	for row := 0; row < maxRows && !r.EOF(); row++ {
		if dec.EncodedByteAlign && row > 0 {
			r.ByteAlign()
		}
		dec.skipEOL(r)

		twoD := dec.K < 0
		if dec.K > 0 {
			twoD = r.ReadBit() == 0
		}

		var changes []int
		var err error
		if twoD {
			changes, err = dec.decode2DRow(r, ref)
		} else {
			changes, err = dec.decode1DRow(r)
		}
		if err != nil {
			break
		}
		out = append(out, dec.pack(changes, rowBytes)...)
		ref = append(changes, dec.Columns, dec.Columns)
	}

	if len(out) == 0 {
		return nil, errCCITT
	}
	return out, nil
}

// skipEOL consumes an EOL code (eleven zeros and a one) when present
func (dec *CCITTDecoder) skipEOL(r *BitReader) {
	for r.PeekBits(12) == 1 {
		r.pos += 12
	}
}

func (dec *CCITTDecoder) decodeRun(r *BitReader, white bool) (int, error) {
	t, maxBits := blackTable, 13
	if white {
		t, maxBits = whiteTable, 12
	}
	total := 0
	for {
		c, err := r.lookup(t, maxBits)
		if err != nil {
			return 0, err
		}
		total += c.RunLen
		if c.RunLen < 64 {
			return total, nil
		}
	}
}

// decode1DRow decodes a modified Huffman row into its changing elements
func (dec *CCITTDecoder) decode1DRow(r *BitReader) ([]int, error) {
	var changes []int
	col := 0
	white := true
	for col < dec.Columns {
		run, err := dec.decodeRun(r, white)
		if err != nil {
			return nil, err
		}
		col += run
		if col > dec.Columns {
			col = dec.Columns
		}
		changes = append(changes, col)
		white = !white
	}
	return changes, nil
}

// decode2DRow decodes a row coded relative to the reference line's changing elements
func (dec *CCITTDecoder) decode2DRow(r *BitReader, ref []int) ([]int, error) {
	var changes []int
	a0 := -1
	white := true
	cols := dec.Columns

	for a0 < cols {
		mode, err := r.lookup(modeTable, 7)
		if err != nil {
			return nil, err
		}
		b1, b2 := findB1B2(ref, a0, white, cols)
		start := a0
		if start < 0 {
			start = 0
		}

		switch mode.RunLen {
		case modePass:
			a0 = b2
		case modeHorizontal:
			run1, err := dec.decodeRun(r, white)
			if err != nil {
				return nil, err
			}
			run2, err := dec.decodeRun(r, !white)
			if err != nil {
				return nil, err
			}
			a1 := clampCol(start+run1, cols)
			a2 := clampCol(a1+run2, cols)
			changes = append(changes, a1, a2)
			a0 = a2
		default:
			a1 := clampCol(b1+verticalOffset[mode.RunLen], cols)
			if a1 < start {
				return nil, errCCITT
			}
			changes = append(changes, a1)
			a0 = a1
			white = !white
		}
	}
	return changes, nil
}

// findB1B2 locates the first reference change right of a0 whose colour differs from a0's
func findB1B2(ref []int, a0 int, white bool, cols int) (int, int) {
	for i := 0; i < len(ref); i++ {
		if ref[i] <= a0 {
			continue
		}
		// changes at even indices turn black
		if (i%2 == 0) != white {
			continue
		}
		b2 := cols
		if i+1 < len(ref) {
			b2 = ref[i+1]
		}
		return ref[i], b2
	}
	return cols, cols
}

func clampCol(v, cols int) int {
	if v < 0 {
		return 0
	}
	if v > cols {
		return cols
	}
	return v
}

// pack turns changing elements into a packed row of samples
func (dec *CCITTDecoder) pack(changes []int, rowBytes int) []byte {
	row := make([]byte, rowBytes)
	black := false
	pos := 0
	for _, c := range append(changes, dec.Columns) {
		if black {
			for x := pos; x < c && x < dec.Columns; x++ {
				row[x/8] |= 0x80 >> uint(x%8)
			}
		}
		if c > pos {
			pos = c
		}
		black = !black
	}
	if !dec.BlackIs1 {
		for i := range row {
			row[i] = ^row[i]
		}
	}
	return row
}

// DecodeCCITTFax decodes CCITTFaxDecode stream data
func DecodeCCITTFax(data []byte, params Dictionary) ([]byte, error) {
	return NewCCITTDecoder(params).Decode(data)
}

// decodeCCITT decodes an image's fax data, defaulting the geometry to the image size
func (d *Document) decodeCCITT(s Stream, data []byte, w, h int) ([]byte, error) {
	params := d.codecParams(s)
	dec := NewCCITTDecoder(params)
	if params == nil || params.Get("Columns") == nil {
		dec.Columns = w
	}
	if dec.Rows <= 0 {
		dec.Rows = h
	}
	return dec.Decode(data)
}
