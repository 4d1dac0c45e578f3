package geometry

// ToImageSpace converts a viewport point to image-space pixel coordinates.
// The surface rectangle describes where the image is rendered within the
// viewport; horizontal and vertical scale factors are independent because
// the rendered area may be letterboxed. A surface with zero rendered width
// or height (not yet laid out) maps everything to the origin.
func ToImageSpace(vp Point2D, surface Rect, imageWidth, imageHeight float64) Point2D {
	if surface.Width <= 0 || surface.Height <= 0 {
		return Point2D{}
	}
	return Point2D{
		X: (vp.X - surface.X) * imageWidth / surface.Width,
		Y: (vp.Y - surface.Y) * imageHeight / surface.Height,
	}
}

// ToViewportSpace converts an image-space point back to viewport coordinates.
// It is the inverse of ToImageSpace for the same surface and image dimensions.
func ToViewportSpace(ip Point2D, surface Rect, imageWidth, imageHeight float64) Point2D {
	if imageWidth <= 0 || imageHeight <= 0 {
		return Point2D{}
	}
	return Point2D{
		X: surface.X + ip.X*surface.Width/imageWidth,
		Y: surface.Y + ip.Y*surface.Height/imageHeight,
	}
}
