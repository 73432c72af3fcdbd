package domain

import "math"

// TargetGeometry derives the encode dimensions from the source dimensions
// and the configured target height. Sources at or below the target keep
// their dimensions. Taller sources are scaled to the target height with the
// width rounded proportionally and bumped to the next even integer when odd,
// since most codecs require even frame widths.
func TargetGeometry(width, height, targetHeight int) (int, int) {
	if height <= targetHeight {
		return width, height
	}
	w := int(math.Round(float64(width) * float64(targetHeight) / float64(height)))
	if w%2 != 0 {
		w++
	}
	return w, targetHeight
}
