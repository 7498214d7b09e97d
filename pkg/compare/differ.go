package compare

import "errors"

// UnchangedAlpha is the alpha written for pixels that match in both inputs
const UnchangedAlpha = 128

// ErrSizeMismatch is returned when two buffers cannot be compared
var ErrSizeMismatch = errors.New("buffer dimensions differ")

// DiffPixels compares two RGBA byte slices of width*height pixels.
//
// Every differing channel adds one to a tally, so a single pixel may add
// up to four. The similarity is 1 - tally/(width*height) and is not
// clamped: heavily differing inputs score below zero. Differing pixels
// are painted opaque red in the returned buffer; matching pixels keep
// their colour with alpha set to UnchangedAlpha.
func DiffPixels(a, b []byte, width, height int) (float64, []byte) {
	n := width * height
	diff := make([]byte, n*4)
	tally := 0

	for i := 0; i < n*4; i += 4 {
		changed := 0
		for c := 0; c < 4; c++ {
			if a[i+c] != b[i+c] {
				changed++
			}
		}

		if changed > 0 {
			tally += changed
			diff[i] = 255
			diff[i+1] = 0
			diff[i+2] = 0
			diff[i+3] = 255
			continue
		}

		diff[i] = a[i]
		diff[i+1] = a[i+1]
		diff[i+2] = a[i+2]
		diff[i+3] = UnchangedAlpha
	}

	if n == 0 {
		return 1.0, diff
	}
	return 1.0 - float64(tally)/float64(n), diff
}

// DiffBuffers is DiffPixels over PixelBuffers, rejecting incomparable input
func DiffBuffers(a, b PixelBuffer) (float64, PixelBuffer, error) {
	if !a.SameSize(b) {
		return 0, PixelBuffer{}, ErrSizeMismatch
	}
	if err := a.Validate(); err != nil {
		return 0, PixelBuffer{}, err
	}
	if err := b.Validate(); err != nil {
		return 0, PixelBuffer{}, err
	}

	sim, pix := DiffPixels(a.Pix, b.Pix, a.Width, a.Height)
	return sim, PixelBuffer{Width: a.Width, Height: a.Height, Pix: pix}, nil
}
