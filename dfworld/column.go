package dfworld

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/oriumgames/clipboard/format"
)

// column converts a format chunk whose first section starts at minSection to
// a dragonfly column. Non-empty sections that fall outside the column range
// are an error.
func column(c *format.Chunk, minSection int32, ch *chunk.Chunk, air uint32) (*chunk.Column, error) {
	r := ch.Range()
	for i, section := range c.Sections {
		if section == nil || section.IsEmpty() {
			continue
		}
		baseY := int(minSection+int32(i)) << 4
		if baseY < r[0] || baseY+15 > r[1] {
			return nil, fmt.Errorf("section at y=%d outside dimension range %v", baseY, r)
		}
		for y := range 16 {
			for z := range 16 {
				for x := range 16 {
					id := section.Block(x, y, z)
					if id == format.Air {
						continue
					}
					if id < 0 {
						return nil, fmt.Errorf("negative block id %d at y=%d", id, baseY+y)
					}
					ch.SetBlock(uint8(x), int16(baseY+y), uint8(z), 0, toRuntimeID(uint32(id), air))
				}
			}
		}
	}
	return &chunk.Column{Chunk: ch}, nil
}

// fromColumn converts a dragonfly column to a format chunk at x, z spanning
// minSection to maxSection. Sections the column does not cover are taken
// from prev, which may be nil.
func fromColumn(col *chunk.Column, prev *format.Chunk, x, z, minSection, maxSection int32, air uint32) *format.Chunk {
	r := col.Chunk.Range()
	c := format.NewChunk(x, z, int(maxSection-minSection))
	for i := range c.Sections {
		baseY := int(minSection+int32(i)) << 4
		if baseY < r[0] || baseY+15 > r[1] {
			if prev != nil && i < len(prev.Sections) {
				c.Sections[i] = prev.Sections[i]
			}
			continue
		}
		var s *format.Section
		for y := range 16 {
			for lz := range 16 {
				for lx := range 16 {
					rid := col.Chunk.Block(uint8(lx), int16(baseY+y), uint8(lz), 0)
					if rid == air {
						continue
					}
					if s == nil {
						s = format.NewSection()
					}
					s.SetBlock(lx, y, lz, int32(toID(rid, air)))
				}
			}
		}
		c.Sections[i] = s
	}
	return c
}
