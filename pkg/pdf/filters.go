package pdf

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// imageFilters are left encoded by DecodeStream and handled by the image decoder
var imageFilters = map[Name]bool{
	"DCTDecode": true, "DCT": true,
	"JPXDecode":      true,
	"JBIG2Decode":    true,
	"CCITTFaxDecode": true, "CCF": true,
}

// DecodeStream applies the stream's filter chain. Decoding stops before the
// first image codec; the returned name is that codec, or "" if none.
func (d *Document) DecodeStream(s Stream) ([]byte, Name, error) {
	filters, params := d.filterChain(s.Dictionary)
	data := s.Data

	for i, filter := range filters {
		if imageFilters[filter] {
			return data, canonicalCodec(filter), nil
		}
		var err error
		data, err = applyFilter(data, filter, params[i])
		if err != nil {
			return nil, "", fmt.Errorf("filter %s: %w", filter, err)
		}
	}
	return data, "", nil
}

// codecParams returns the /DecodeParms of the stream's image codec
func (d *Document) codecParams(s Stream) Dictionary {
	filters, params := d.filterChain(s.Dictionary)
	for i, filter := range filters {
		if imageFilters[filter] {
			return params[i]
		}
	}
	return nil
}

func canonicalCodec(name Name) Name {
	switch name {
	case "DCT":
		return "DCTDecode"
	case "CCF":
		return "CCITTFaxDecode"
	}
	return name
}

// filterChain resolves /Filter and /DecodeParms into parallel slices
func (d *Document) filterChain(dict Dictionary) ([]Name, []Dictionary) {
	var filters []Name
	switch f := d.Resolve(firstOf(dict, "Filter", "F")).(type) {
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f {
			if n, ok := d.Resolve(item).(Name); ok {
				filters = append(filters, n)
			}
		}
	}

	params := make([]Dictionary, len(filters))
	switch p := d.Resolve(firstOf(dict, "DecodeParms", "DP")).(type) {
	case Dictionary:
		if len(params) > 0 {
			params[0] = p
		}
	case Array:
		for i := 0; i < len(p) && i < len(params); i++ {
			params[i], _ = d.Resolve(p[i]).(Dictionary)
		}
	}
	return filters, params
}

func firstOf(dict Dictionary, keys ...string) Object {
	for _, k := range keys {
		if v := dict.Get(k); v != nil {
			return v
		}
	}
	return nil
}

// applyFilter applies a single non-image filter
func applyFilter(data []byte, filter Name, params Dictionary) ([]byte, error) {
	switch filter {
	case "FlateDecode", "Fl":
		out, err := flateDecode(data)
		if err != nil {
			return nil, err
		}
		return applyPredictor(out, params)
	case "LZWDecode", "LZW":
		early := 1
		if v, ok := toInt(params.Get("EarlyChange")); ok {
			early = v
		}
		out, err := lzwDecode(data, early)
		if err != nil {
			return nil, err
		}
		return applyPredictor(out, params)
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode(data)
	case "ASCII85Decode", "A85":
		return ascii85Decode(data)
	case "RunLengthDecode", "RL":
		return runLengthDecode(data)
	case "Crypt":
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported filter %s", filter)
	}
}

// flateDecode inflates zlib data, falling back to raw deflate for streams
// with a damaged header. Output read before a corrupt tail is kept.
func flateDecode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		r = flate.NewReader(bytes.NewReader(data))
	}
	defer r.Close()

	_, err = io.Copy(&out, r)
	if err != nil && out.Len() == 0 {
		return nil, err
	}
	return out.Bytes(), nil
}

// applyPredictor undoes TIFF (2) and PNG (10+) predictors
func applyPredictor(data []byte, params Dictionary) ([]byte, error) {
	predictor, _ := toInt(params.Get("Predictor"))
	if predictor <= 1 {
		return data, nil
	}

	columns := intOr(params.Get("Columns"), 1)
	colors := intOr(params.Get("Colors"), 1)
	bpc := intOr(params.Get("BitsPerComponent"), 8)
	bpp := (colors*bpc + 7) / 8
	rowBytes := (columns*colors*bpc + 7) / 8
	if rowBytes <= 0 {
		return nil, errors.New("invalid predictor row size")
	}

	if predictor == 2 {
		if bpc != 8 {
			return data, nil
		}
		out := append([]byte(nil), data...)
		for row := 0; row+rowBytes <= len(out); row += rowBytes {
			for i := bpp; i < rowBytes; i++ {
				out[row+i] += out[row+i-bpp]
			}
		}
		return out, nil
	}

	stride := rowBytes + 1
	rows := len(data) / stride
	out := make([]byte, rows*rowBytes)
	prev := make([]byte, rowBytes)

	for row := 0; row < rows; row++ {
		src := data[row*stride+1 : (row+1)*stride]
		cur := out[row*rowBytes : (row+1)*rowBytes]
		switch data[row*stride] {
		case 0:
			copy(cur, src)
		case 1:
			for i := range cur {
				var left byte
				if i >= bpp {
					left = cur[i-bpp]
				}
				cur[i] = src[i] + left
			}
		case 2:
			for i := range cur {
				cur[i] = src[i] + prev[i]
			}
		case 3:
			for i := range cur {
				var left byte
				if i >= bpp {
					left = cur[i-bpp]
				}
				cur[i] = src[i] + byte((int(left)+int(prev[i]))/2)
			}
		case 4:
			for i := range cur {
				var left, upLeft byte
				if i >= bpp {
					left = cur[i-bpp]
					upLeft = prev[i-bpp]
				}
				cur[i] = src[i] + paeth(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("invalid png predictor %d in row %d", data[row*stride], row)
		}
		prev = cur
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(p-int(a)), absInt(p-int(b)), absInt(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func intOr(obj Object, def int) int {
	if v, ok := toInt(obj); ok {
		return v
	}
	return def
}

func hexValue(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

func asciiHexDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)/2)
	var hi byte
	half := false
	for _, b := range data {
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		v, ok := hexValue(b)
		if !ok {
			return nil, fmt.Errorf("invalid hex digit %q", b)
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out, nil
}

func ascii85Decode(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("<~"))
	out := make([]byte, 0, len(data)*4/5)
	var tuple uint32
	count := 0

	for _, b := range data {
		switch {
		case b == '~':
			goto done
		case isWhitespace(b):
			continue
		case b == 'z' && count == 0:
			out = append(out, 0, 0, 0, 0)
			continue
		case b < '!' || b > 'u':
			return nil, fmt.Errorf("invalid ascii85 byte %q", b)
		}
		tuple = tuple*85 + uint32(b-'!')
		count++
		if count == 5 {
			out = append(out, byte(tuple>>24), byte(tuple>>16), byte(tuple>>8), byte(tuple))
			tuple, count = 0, 0
		}
	}
done:
	if count > 1 {
		for i := count; i < 5; i++ {
			tuple = tuple*85 + 84
		}
		for i := 0; i < count-1; i++ {
			out = append(out, byte(tuple>>(24-8*i)))
		}
	}
	return out, nil
}

func runLengthDecode(data []byte) ([]byte, error) {
	var out []byte
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			end := i + n + 1
			if end > len(data) {
				return nil, errors.New("run length literal overruns data")
			}
			out = append(out, data[i:end]...)
			i = end
		default:
			if i >= len(data) {
				return nil, errors.New("run length repeat overruns data")
			}
			out = append(out, bytes.Repeat(data[i:i+1], 257-n)...)
			i++
		}
	}
	return out, nil
}

// lzwDecode implements the variable-width MSB-first LZW used by PDF
func lzwDecode(data []byte, earlyChange int) ([]byte, error) {
	const (
		clearCode = 256
		eodCode   = 257
	)

	table := make([][]byte, 4096)
	for i := 0; i < 256; i++ {
		table[i] = []byte{byte(i)}
	}
	next, width := 258, 9
	var out, prev []byte
	var acc uint32
	bits := 0

	for pos := 0; ; {
		for bits < width && pos < len(data) {
			acc = acc<<8 | uint32(data[pos])
			pos++
			bits += 8
		}
		if bits < width {
			break
		}
		code := int(acc>>(bits-width)) & (1<<width - 1)
		bits -= width

		if code == eodCode {
			break
		}
		if code == clearCode {
			next, width, prev = 258, 9, nil
			continue
		}

		var entry []byte
		switch {
		case code < next && table[code] != nil:
			entry = table[code]
		case code == next && prev != nil:
			entry = append(append([]byte(nil), prev...), prev[0])
		default:
			return out, fmt.Errorf("invalid lzw code %d", code)
		}
		out = append(out, entry...)

		if prev != nil && next < 4096 {
			table[next] = append(append([]byte(nil), prev...), entry[0])
			next++
		}
		if next+earlyChange >= 1<<width && width < 12 {
			width++
		}
		prev = entry
	}
	return out, nil
}
