package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// FillPixels returns a tightly packed RGBA8 image of width*height texels, all set to fill.
//
// Parameters:
//   - width, height: the image size in texels
//   - fill: the RGBA value of every texel
//
// Returns:
//   - []byte: width*height*4 bytes
func FillPixels(width, height uint32, fill [4]byte) []byte {
	pixels := make([]byte, int(width)*int(height)*4)
	for i := 0; i < len(pixels); i += 4 {
		copy(pixels[i:i+4], fill[:])
	}
	return pixels
}
