package mot

import (
	"image"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxCentroid(t *testing.T) {
	assert.Equal(t, NewPoint(5, 5), NewBoundingBox(0, 0, 10, 10).Centroid())
	assert.Equal(t, NewPoint(105, 105), NewBoundingBox(103, 103, 107, 107).Centroid())
	assert.Equal(t, NewPoint(2.5, -1), NewBoundingBox(0, -2, 5, 0).Centroid())
}

func TestBoundingBoxConversions(t *testing.T) {
	box := NewBoundingBoxFromRect(NewRect(378, 147, 173, 243))
	assert.Equal(t, NewBoundingBox(378, 147, 551, 390), box)
	assert.Equal(t, NewRect(378, 147, 173, 243), box.Rect())

	box = NewBoundingBoxFrom(image.Rect(1, 2, 11, 22))
	assert.Equal(t, NewBoundingBox(1, 2, 11, 22), box)
	assert.Equal(t, NewPoint(6, 12), box.Centroid())
}

func TestBoundingBoxValidate(t *testing.T) {
	valid := []BoundingBox{
		NewBoundingBox(0, 0, 10, 10),
		NewBoundingBox(5, 5, 5, 5),
		NewBoundingBox(-10, -10, -1, -1),
	}
	for _, box := range valid {
		assert.NoError(t, box.Validate(), "box %+v", box)
	}

	invalid := []BoundingBox{
		NewBoundingBox(10, 0, 0, 10),
		NewBoundingBox(0, 10, 10, 0),
		NewBoundingBox(math.NaN(), 0, 10, 10),
		NewBoundingBox(0, 0, math.Inf(1), 10),
	}
	for _, box := range invalid {
		err := box.Validate()
		assert.Error(t, err, "box %+v", box)
		assert.True(t, errors.Is(err, ErrInvalidBox), "box %+v", box)
	}
}
