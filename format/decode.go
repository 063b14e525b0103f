package format

import (
	"fmt"
	"io"
	"math"
)

// DecodeWorld decodes a World from a reader.
func DecodeWorld(r io.Reader) (*World, error) {
	rd := newReader(r)

	minSection, err := rd.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read min section: %w", err)
	}
	maxSection, err := rd.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read max section: %w", err)
	}
	w := NewWorld(minSection, maxSection)
	if err := w.ValidateDimensions(); err != nil {
		return nil, fmt.Errorf("invalid section range: %w", err)
	}

	settings, err := rd.ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if len(settings) > 0 {
		if err := decodeSettings(settings, &w.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}

	chunkCount, err := rd.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("read chunk count: %w", err)
	}
	if chunkCount < 0 || chunkCount > 1000000 {
		return nil, fmt.Errorf("invalid chunk count: %d", chunkCount)
	}

	for i := range chunkCount {
		chunk, err := decodeChunk(rd, minSection, maxSection)
		if err != nil {
			return nil, fmt.Errorf("decode chunk %d (total: %d): %w", i, chunkCount, err)
		}
		w.setChunk(chunk)
	}
	w.ClearDirty()

	return w, nil
}

// decodeChunk decodes a Chunk from a reader.
func decodeChunk(rd *reader, minSection, maxSection int32) (*Chunk, error) {
	x, err := rd.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read x: %w", err)
	}
	z, err := rd.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read z: %w", err)
	}
	chunk := NewChunk(x, z, int(maxSection-minSection))

	for i := range chunk.Sections {
		section, err := decodeSection(rd)
		if err != nil {
			return nil, fmt.Errorf("decode section %d: %w", i, err)
		}
		// Only store non-empty sections
		if !section.IsEmpty() {
			chunk.Sections[i] = section
		}
	}
	return chunk, nil
}

// decodeSection decodes a Section from a reader.
func decodeSection(rd *reader) (*Section, error) {
	paletteSize, err := rd.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("read palette size: %w", err)
	}
	if paletteSize < 0 || paletteSize > sectionVolume {
		return nil, fmt.Errorf("invalid palette size: %d", paletteSize)
	}

	s := &Section{Palette: make([]int32, paletteSize)}
	for i := range paletteSize {
		id, err := rd.ReadVarInt()
		if err != nil {
			return nil, fmt.Errorf("read palette entry %d: %w", i, err)
		}
		if id < math.MinInt32 || id > math.MaxInt32 {
			return nil, fmt.Errorf("palette entry %d out of range: %d", i, id)
		}
		s.Palette[i] = int32(id)
	}

	dataSize, err := rd.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("read data size: %w", err)
	}
	if bits := bitsPerEntry(int(paletteSize)); bits > 0 {
		valuesPerLong := 64 / bits
		if want := int64((sectionVolume + valuesPerLong - 1) / valuesPerLong); dataSize != want {
			return nil, fmt.Errorf("data size %d does not match palette size %d (want %d)", dataSize, paletteSize, want)
		}
	} else if dataSize != 0 {
		return nil, fmt.Errorf("unexpected data for single entry palette: %d longs", dataSize)
	}

	s.Data = make([]int64, dataSize)
	for i := range dataSize {
		val, err := rd.ReadInt64()
		if err != nil {
			return nil, fmt.Errorf("read data %d: %w", i, err)
		}
		s.Data[i] = val
	}
	return s, nil
}
