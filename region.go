package clipboard

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// Source is a world that block ids can be read from.
type Source interface {
	// Block returns the block id at an absolute position.
	Block(pos cube.Pos) (int, error)
}

// Sink is a world that block ids can be written to.
type Sink interface {
	// SetBlock places a block id at an absolute position.
	SetBlock(pos cube.Pos, id int) error
}

// World is a world that can be both copied from and pasted into.
type World interface {
	Source
	Sink
}

// Copy reads every block of the clipboard's region from src.
// The copy stops at the first error returned by src, leaving the clipboard
// partially filled.
func (c *Clipboard) Copy(src Source) error {
	for x := c.min.X(); x <= c.max.X(); x++ {
		for y := c.min.Y(); y <= c.max.Y(); y++ {
			for z := c.min.Z(); z <= c.max.Z(); z++ {
				pos := cube.Pos{x, y, z}
				id, err := src.Block(pos)
				if err != nil {
					return fmt.Errorf("copy block at %v: %w", pos, err)
				}
				c.Set(x-c.min.X(), y-c.min.Y(), z-c.min.Z(), id)
			}
		}
	}
	return nil
}

// Offset returns the translation from local clipboard positions to world
// positions when pasting at anchor. Pasting at the clipboard's own origin
// places every block back where it was copied from.
func (c *Clipboard) Offset(anchor cube.Pos) cube.Pos {
	return c.min.Sub(c.origin).Add(anchor)
}

// Paste writes the clipboard into dst so that its origin lands on anchor.
// If skipAir is true, air cells are not written and whatever dst holds there
// is kept. The paste stops at the first error returned by dst.
func (c *Clipboard) Paste(dst Sink, anchor cube.Pos, skipAir bool) error {
	offset := c.Offset(anchor)
	w, h, l := c.Width(), c.Height(), c.Length()

	for x := range w {
		for y := range h {
			for z := range l {
				id := c.At(x, y, z)
				if skipAir && id == Air {
					continue
				}
				pos := cube.Pos{x, y, z}.Add(offset)
				if err := dst.SetBlock(pos, id); err != nil {
					return fmt.Errorf("paste block at %v: %w", pos, err)
				}
			}
		}
	}
	return nil
}
