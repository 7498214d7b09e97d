package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// maxImagePixels bounds the decoded size of a single image
const maxImagePixels = 1 << 26

// decodeImage decodes an image XObject or inline image to NRGBA
func (d *Document) decodeImage(s Stream, resources Dictionary) (*image.NRGBA, error) {
	dict := s.Dictionary
	w := intOr(d.Resolve(dict.Get("Width")), 0)
	h := intOr(d.Resolve(dict.Get("Height")), 0)
	if w <= 0 || h <= 0 || w*h > maxImagePixels {
		return nil, fmt.Errorf("bad image size %dx%d", w, h)
	}

	data, codec, err := d.DecodeStream(s)
	if err != nil {
		return nil, err
	}

	var img *image.NRGBA
	switch codec {
	case "":
		img, err = d.decodeSamples(dict, data, w, h, resources)
		if err != nil {
			return nil, err
		}
	case "CCITTFaxDecode":
		if data, err = d.decodeCCITT(s, data, w, h); err != nil {
			return nil, err
		}
		if img, err = d.decodeSamples(dict, data, w, h, resources); err != nil {
			return nil, err
		}
	case "DCTDecode":
		src, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		img = image.NewNRGBA(src.Bounds().Sub(src.Bounds().Min))
		draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	default:
		return nil, fmt.Errorf("unsupported image codec %s", codec)
	}

	d.applySoftMask(img, dict)
	return img, nil
}

func (d *Document) decodeSamples(dict Dictionary, data []byte, w, h int, resources Dictionary) (*image.NRGBA, error) {
	bpc := intOr(d.Resolve(dict.Get("BitsPerComponent")), 8)
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("unsupported bits per component %d", bpc)
	}
	cs := d.colorSpace(dict.Get("ColorSpace"), resources, 0)
	n := cs.n
	maxv := float64(uint32(1)<<uint(bpc) - 1)

	decode, ok := d.floats(dict.Get("Decode"))
	if !ok || len(decode) < 2*n {
		decode = make([]float64, 2*n)
		for i := 0; i < n; i++ {
			decode[2*i+1] = 1
			if cs.kind == csIndexed {
				decode[2*i+1] = maxv
			}
		}
	}

	var palette []rgb
	if cs.kind == csIndexed {
		palette = make([]rgb, cs.hival+1)
		for i := range palette {
			palette[i] = cs.toRGB([]float64{float64(i)})
		}
	}

	var colorKey []float64
	if key, ok := d.floats(dict.Get("Mask")); ok && len(key) >= 2*n {
		colorKey = key
	}

	rowBits := w * n * bpc
	rowBytes := (rowBits + 7) / 8
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	comps := make([]float64, n)
	raw := make([]uint32, n)

	for y := 0; y < h; y++ {
		rowStart := y * rowBytes * 8
		for x := 0; x < w; x++ {
			for i := 0; i < n; i++ {
				raw[i] = readBits(data, rowStart+(x*n+i)*bpc, bpc)
				comps[i] = decode[2*i] + float64(raw[i])*(decode[2*i+1]-decode[2*i])/maxv
			}

			var c rgb
			if palette != nil {
				idx := int(math.Round(comps[0]))
				if idx < 0 {
					idx = 0
				}
				if idx >= len(palette) {
					idx = len(palette) - 1
				}
				c = palette[idx]
			} else {
				c = cs.toRGB(comps)
			}

			off := img.PixOffset(x, y)
			img.Pix[off] = uint8(c.R*255 + 0.5)
			img.Pix[off+1] = uint8(c.G*255 + 0.5)
			img.Pix[off+2] = uint8(c.B*255 + 0.5)
			img.Pix[off+3] = 255
			if colorKey != nil && keyed(raw, colorKey) {
				img.Pix[off+3] = 0
			}
		}
	}
	return img, nil
}

func keyed(raw []uint32, key []float64) bool {
	for i, v := range raw {
		if float64(v) < key[2*i] || float64(v) > key[2*i+1] {
			return false
		}
	}
	return true
}

// applySoftMask folds /SMask or a stencil /Mask into the image alpha
func (d *Document) applySoftMask(img *image.NRGBA, dict Dictionary) {
	var mask *image.Alpha
	if sm, ok := d.Resolve(dict.Get("SMask")).(Stream); ok {
		if g, err := d.decodeImage(sm, nil); err == nil {
			mask = image.NewAlpha(g.Bounds())
			for i := 0; i < len(mask.Pix); i++ {
				mask.Pix[i] = g.Pix[4*i]
			}
		}
	} else if m, ok := d.Resolve(dict.Get("Mask")).(Stream); ok {
		mask, _ = d.decodeStencil(m)
	}
	if mask == nil {
		return
	}

	b := img.Bounds()
	mb := mask.Bounds()
	for y := 0; y < b.Dy(); y++ {
		my := y * mb.Dy() / b.Dy()
		for x := 0; x < b.Dx(); x++ {
			mx := x * mb.Dx() / b.Dx()
			a := mask.Pix[my*mask.Stride+mx]
			off := img.PixOffset(x, y)
			img.Pix[off+3] = uint8(uint16(img.Pix[off+3]) * uint16(a) / 255)
		}
	}
}

// decodeStencil decodes a 1-bit mask; painted samples have full alpha
func (d *Document) decodeStencil(s Stream) (*image.Alpha, error) {
	dict := s.Dictionary
	w := intOr(d.Resolve(dict.Get("Width")), 0)
	h := intOr(d.Resolve(dict.Get("Height")), 0)
	if w <= 0 || h <= 0 || w*h > maxImagePixels {
		return nil, fmt.Errorf("bad mask size %dx%d", w, h)
	}
	data, codec, err := d.DecodeStream(s)
	if err != nil {
		return nil, err
	}
	switch codec {
	case "":
	case "CCITTFaxDecode":
		if data, err = d.decodeCCITT(s, data, w, h); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported mask codec %s", codec)
	}

	paint := uint32(0)
	if dec, ok := d.floats(dict.Get("Decode")); ok && len(dec) >= 2 && dec[0] > dec[1] {
		paint = 1
	}
	rowBytes := (w + 7) / 8
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if readBits(data, (y*rowBytes)*8+x, 1) == paint {
				mask.Pix[y*mask.Stride+x] = 255
			}
		}
	}
	return mask, nil
}

// drawImage paints an image or stencil mask into the unit square of the CTM
func (r *renderer) drawImage(s Stream, resources Dictionary) {
	if isMask, _ := r.doc.Resolve(s.Dictionary.Get("ImageMask")).(Boolean); isMask {
		mask, err := r.doc.decodeStencil(s)
		if err != nil {
			return
		}
		c := r.gs.fill
		img := image.NewNRGBA(mask.Bounds())
		a := clamp01(r.gs.fillAlpha)
		for i, v := range mask.Pix {
			img.Pix[4*i] = uint8(c.R*255 + 0.5)
			img.Pix[4*i+1] = uint8(c.G*255 + 0.5)
			img.Pix[4*i+2] = uint8(c.B*255 + 0.5)
			img.Pix[4*i+3] = uint8(float64(v)*a + 0.5)
		}
		r.transformImage(img)
		return
	}

	img, err := r.doc.decodeImage(s, resources)
	if err != nil {
		return
	}
	if a := r.gs.fillAlpha; a < 1 {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = uint8(float64(img.Pix[i])*clamp01(a) + 0.5)
		}
	}
	r.transformImage(img)
}

func (r *renderer) transformImage(img *image.NRGBA) {
	m := r.gs.CTM
	if math.Abs(m.A*m.D-m.B*m.C) < 1e-9 {
		return
	}
	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())
	s2d := f64.Aff3{
		m.A / w, -m.C / h, m.C + m.E,
		m.B / w, -m.D / h, m.D + m.F,
	}

	var interp draw.Interpolator = draw.NearestNeighbor
	if r.opts.Antialias {
		interp = draw.ApproxBiLinear
	}
	var opts *draw.Options
	if r.gs.clip != nil {
		opts = &draw.Options{DstMask: r.gs.clip}
	}
	interp.Transform(r.canvas.img, s2d, img, img.Bounds(), draw.Over, opts)
}

// uniformAlpha converts a device colour and opacity to NRGBA
func uniformAlpha(c rgb, a float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(c.R*255 + 0.5),
		G: uint8(c.G*255 + 0.5),
		B: uint8(c.B*255 + 0.5),
		A: uint8(clamp01(a)*255 + 0.5),
	}
}
