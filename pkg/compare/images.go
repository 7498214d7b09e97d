package compare

// ImageResult is the outcome of comparing two standalone images
type ImageResult struct {
	// Identical is true when no channel differs.
	Identical  bool
	Similarity float64
	DiffImage  PixelBuffer
}

// CompareImages runs the buffer differ over two images of equal size
func CompareImages(a, b PixelBuffer) (ImageResult, error) {
	sim, diff, err := DiffBuffers(a, b)
	if err != nil {
		return ImageResult{}, err
	}
	return ImageResult{
		Identical:  sim == 1.0,
		Similarity: sim,
		DiffImage:  diff,
	}, nil
}
