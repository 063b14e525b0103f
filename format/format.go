// Package format implements a small single-file voxel world holding numeric
// block ids. Worlds are split into 16x16 chunk columns of 16x16x16 sections,
// each section storing a palette of ids and bit-packed palette indices.
package format

import (
	"errors"
	"fmt"
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
)

const (
	// MagicNumber is the world file identifier "Voxl".
	MagicNumber = 0x566F786C

	// CurrentVersion is the latest supported format version.
	CurrentVersion = 1

	// Compression types
	CompressionNone = 0
	CompressionZstd = 1

	// Recommended world size limits (not enforced, for validation helpers)
	MaxReasonableSections = 128  // 2048 blocks tall
	MinReasonableSections = -128 // Supports deep underground builds

	// Air is the block id of empty space.
	Air = 0
)

var (
	// ErrOutOfBounds is returned when a position lies outside the world's vertical range.
	ErrOutOfBounds = errors.New("position outside world range")
	// ErrReadOnly is returned when writing to a read-only world.
	ErrReadOnly = errors.New("world is read-only")
)

// World is a set of chunk columns sharing one vertical section range.
// World implements clipboard.World.
type World struct {
	Version    int16
	MinSection int32
	MaxSection int32
	Settings   Settings

	chunks      map[int64]*Chunk
	dirtyChunks map[int64]bool // Track which chunks have been modified
	readOnly    bool           // If true, prevents modifications to the world
}

// NewWorld creates an empty world spanning sections minSection (inclusive) to
// maxSection (exclusive).
func NewWorld(minSection, maxSection int32) *World {
	return &World{
		Version:     CurrentVersion,
		MinSection:  minSection,
		MaxSection:  maxSection,
		Settings:    DefaultSettings(),
		chunks:      make(map[int64]*Chunk),
		dirtyChunks: make(map[int64]bool),
	}
}

// ValidateDimensions checks if the world dimensions are reasonable.
func (w *World) ValidateDimensions() error {
	if w.MinSection < MinReasonableSections {
		return fmt.Errorf("MinSection %d is below recommended minimum %d", w.MinSection, MinReasonableSections)
	}
	if w.MaxSection > MaxReasonableSections {
		return fmt.Errorf("MaxSection %d exceeds recommended maximum %d", w.MaxSection, MaxReasonableSections)
	}
	if w.MinSection >= w.MaxSection {
		return fmt.Errorf("MinSection %d must be less than MaxSection %d", w.MinSection, w.MaxSection)
	}
	return nil
}

// Range returns the lowest and highest block Y coordinates of the world.
func (w *World) Range() cube.Range {
	return cube.Range{int(w.MinSection) << 4, int(w.MaxSection)<<4 - 1}
}

// SetReadOnly marks the world as read-only, making SetBlock fail with ErrReadOnly.
func (w *World) SetReadOnly(readOnly bool) {
	w.readOnly = readOnly
}

// IsReadOnly returns true if the world is marked as read-only.
func (w *World) IsReadOnly() bool {
	return w.readOnly
}

// Block returns the block id at pos. Positions in chunks or sections that were
// never written hold air.
func (w *World) Block(pos cube.Pos) (int, error) {
	if pos.OutOfBounds(w.Range()) {
		return 0, fmt.Errorf("read %v: %w", pos, ErrOutOfBounds)
	}
	c := w.Chunk(int32(pos.X()>>4), int32(pos.Z()>>4))
	if c == nil {
		return Air, nil
	}
	s := c.Sections[w.sectionIndex(pos.Y())]
	if s == nil {
		return Air, nil
	}
	return int(s.Block(pos.X()&0xF, pos.Y()&0xF, pos.Z()&0xF)), nil
}

// SetBlock stores id at pos, creating the chunk and section if needed.
func (w *World) SetBlock(pos cube.Pos, id int) error {
	if w.readOnly {
		return ErrReadOnly
	}
	if pos.OutOfBounds(w.Range()) {
		return fmt.Errorf("write %v: %w", pos, ErrOutOfBounds)
	}
	if id < math.MinInt32 || id > math.MaxInt32 {
		return fmt.Errorf("write %v: block id %d does not fit in 32 bits", pos, id)
	}

	cx, cz := int32(pos.X()>>4), int32(pos.Z()>>4)
	c := w.Chunk(cx, cz)
	if c == nil {
		c = NewChunk(cx, cz, int(w.MaxSection-w.MinSection))
	}
	i := w.sectionIndex(pos.Y())
	if c.Sections[i] == nil {
		if id == Air {
			return nil
		}
		c.Sections[i] = NewSection()
	}
	c.Sections[i].SetBlock(pos.X()&0xF, pos.Y()&0xF, pos.Z()&0xF, int32(id))
	w.setChunk(c)
	return nil
}

// sectionIndex returns the index into Chunk.Sections for block Y coordinate y.
func (w *World) sectionIndex(y int) int {
	return int(int32(y>>4) - w.MinSection)
}

// Chunk returns the chunk at the given coordinates, or nil if not found.
func (w *World) Chunk(x, z int32) *Chunk {
	if w.chunks == nil {
		return nil
	}
	return w.chunks[chunkKey(x, z)]
}

// SetChunk sets a chunk at the given coordinates.
// Silently ignores the operation if the world is read-only.
func (w *World) SetChunk(c *Chunk) {
	if w.readOnly {
		return
	}
	w.setChunk(c)
}

// setChunk bypasses read-only checks. Used during decoding to populate the world.
func (w *World) setChunk(c *Chunk) {
	if w.chunks == nil {
		w.chunks = make(map[int64]*Chunk)
	}
	if w.dirtyChunks == nil {
		w.dirtyChunks = make(map[int64]bool)
	}
	key := chunkKey(c.X, c.Z)
	w.chunks[key] = c
	w.dirtyChunks[key] = true
}

// Chunks returns all chunks in the world.
func (w *World) Chunks() []*Chunk {
	chunks := make([]*Chunk, 0, len(w.chunks))
	for _, c := range w.chunks {
		chunks = append(chunks, c)
	}
	return chunks
}

// ClearDirty clears the dirty flag for all chunks.
func (w *World) ClearDirty() {
	w.dirtyChunks = make(map[int64]bool)
}

// IsDirty returns true if any chunks have been modified.
func (w *World) IsDirty() bool {
	return len(w.dirtyChunks) > 0
}

// ChunkCount returns the number of chunks in the world.
func (w *World) ChunkCount() int {
	return len(w.chunks)
}

// Chunk represents a 16x16 column of sections spanning the entire height of a world.
type Chunk struct {
	X        int32      // Chunk X coordinate in world space
	Z        int32      // Chunk Z coordinate in world space
	Sections []*Section // Sections from bottom to top, nil when empty
}

// NewChunk creates a chunk with sectionCount empty sections.
func NewChunk(x, z int32, sectionCount int) *Chunk {
	return &Chunk{X: x, Z: z, Sections: make([]*Section, sectionCount)}
}

// chunkKey creates a unique key for chunk coordinates.
func chunkKey(x, z int32) int64 {
	return int64(x)<<32 | int64(uint32(z))
}
