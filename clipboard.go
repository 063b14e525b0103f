package clipboard

import (
	"fmt"
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// Air is the block id treated as empty space.
const Air = 0

// Clipboard holds a copied cuboid region of block ids.
// The region spans Min to Max inclusive. Origin is a reference point, usually
// the position the region was copied from, and is only used to compute paste
// offsets; it does not need to lie inside the region.
type Clipboard struct {
	min    cube.Pos
	max    cube.Pos
	origin cube.Pos

	// Block ids laid out Y-major, then Z, then X.
	data []int
}

// BoundsError is returned when a region cannot be allocated from the corners given.
type BoundsError struct {
	Min, Max cube.Pos
	Reason   string
}

// Error ...
func (e *BoundsError) Error() string {
	return fmt.Sprintf("invalid clipboard bounds %v..%v: %s", e.Min, e.Max, e.Reason)
}

// New creates an empty clipboard for the region between lo and hi.
// Every component of lo must be less than or equal to the same component of hi.
func New(lo, hi, origin cube.Pos) (*Clipboard, error) {
	size, err := volume(lo, hi)
	if err != nil {
		return nil, err
	}
	return &Clipboard{
		min:    lo,
		max:    hi,
		origin: origin,
		data:   make([]int, size),
	}, nil
}

// volume validates the corners and returns the number of cells between them.
func volume(lo, hi cube.Pos) (int, error) {
	total := 1
	for i := range 3 {
		if lo[i] > hi[i] {
			return 0, &BoundsError{Min: lo, Max: hi, Reason: fmt.Sprintf("min %c greater than max %c", "xyz"[i], "xyz"[i])}
		}
		extent := hi[i] - lo[i] + 1
		if extent <= 0 || total > math.MaxInt/extent {
			return 0, &BoundsError{Min: lo, Max: hi, Reason: "volume overflows"}
		}
		total *= extent
	}
	return total, nil
}

// Width returns the size of the region along the X axis.
func (c *Clipboard) Width() int {
	return c.max.X() - c.min.X() + 1
}

// Height returns the size of the region along the Y axis.
func (c *Clipboard) Height() int {
	return c.max.Y() - c.min.Y() + 1
}

// Length returns the size of the region along the Z axis.
func (c *Clipboard) Length() int {
	return c.max.Z() - c.min.Z() + 1
}

// Volume returns the number of blocks held by the clipboard.
func (c *Clipboard) Volume() int {
	return len(c.data)
}

// Min returns the lowest corner of the copied region.
func (c *Clipboard) Min() cube.Pos {
	return c.min
}

// Max returns the highest corner of the copied region.
func (c *Clipboard) Max() cube.Pos {
	return c.max
}

// Origin returns the reference point used to offset pastes.
func (c *Clipboard) Origin() cube.Pos {
	return c.origin
}

// At returns the block id at the local position x, y, z, each of which must
// lie within [0, Width()), [0, Height()) and [0, Length()).
func (c *Clipboard) At(x, y, z int) int {
	return c.data[c.index(x, y, z)]
}

// Set stores a block id at the local position x, y, z.
func (c *Clipboard) Set(x, y, z, id int) {
	c.data[c.index(x, y, z)] = id
}

// Count returns the number of cells that do not hold air.
func (c *Clipboard) Count() int {
	n := 0
	for _, id := range c.data {
		if id != Air {
			n++
		}
	}
	return n
}

func (c *Clipboard) index(x, y, z int) int {
	w, l := c.Width(), c.Length()
	return y*w*l + z*w + x
}
