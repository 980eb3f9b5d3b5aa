package mot

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidBox is returned by Update when box validation is enabled and a detection
// is not a proper axis-aligned rectangle.
var ErrInvalidBox = errors.New("invalid bounding box")

// BoundingBox is an axis-aligned detection box in (minX, minY, maxX, maxY) form.
// Zero-area boxes are valid.
type BoundingBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBoundingBox creates box from corner coordinates
func NewBoundingBox(minX, minY, maxX, maxY float64) BoundingBox {
	return BoundingBox{
		MinX: minX,
		MinY: minY,
		MaxX: maxX,
		MaxY: maxY,
	}
}

// NewBoundingBoxFromRect converts (x, y, width, height) rectangle into corner form
func NewBoundingBoxFromRect(rect Rectangle) BoundingBox {
	return BoundingBox{
		MinX: rect.X,
		MinY: rect.Y,
		MaxX: rect.X + rect.Width,
		MaxY: rect.Y + rect.Height,
	}
}

// NewBoundingBoxFrom converts image.Rectangle (e.g. gocv output) into corner form
func NewBoundingBoxFrom(rect image.Rectangle) BoundingBox {
	return BoundingBox{
		MinX: float64(rect.Min.X),
		MinY: float64(rect.Min.Y),
		MaxX: float64(rect.Max.X),
		MaxY: float64(rect.Max.Y),
	}
}

// Centroid returns geometric center of the box.
// Malformed boxes (MinX > MaxX) are not rejected here: the midpoint is computed from raw values.
func (box BoundingBox) Centroid() Point {
	return Point{
		X: (box.MinX + box.MaxX) / 2.0,
		Y: (box.MinY + box.MaxY) / 2.0,
	}
}

// Rect returns box in (x, y, width, height) form
func (box BoundingBox) Rect() Rectangle {
	return Rectangle{
		X:      box.MinX,
		Y:      box.MinY,
		Width:  box.MaxX - box.MinX,
		Height: box.MaxY - box.MinY,
	}
}

// Validate checks that every coordinate is finite and min corner does not exceed max corner
func (box BoundingBox) Validate() error {
	for _, v := range [4]float64{box.MinX, box.MinY, box.MaxX, box.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidBox, "non-finite coordinate in %+v", box)
		}
	}
	if box.MinX > box.MaxX {
		return errors.Wrapf(ErrInvalidBox, "minX %f > maxX %f", box.MinX, box.MaxX)
	}
	if box.MinY > box.MaxY {
		return errors.Wrapf(ErrInvalidBox, "minY %f > maxY %f", box.MinY, box.MaxY)
	}
	return nil
}
