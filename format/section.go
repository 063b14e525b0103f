package format

// sectionVolume is the number of blocks in a 16x16x16 section.
const sectionVolume = 4096

// Section represents a 16x16x16 section of blocks.
// Data is stored in a paletted format:
// - Palette contains the unique block ids of the section, air first
// - Data contains packed indices into the palette
type Section struct {
	Palette []int32 // Unique block ids in this section
	Data    []int64 // Packed palette indices (bits per entry = ceil(log2(palette size)))
}

// NewSection returns a section filled with air.
func NewSection() *Section {
	return &Section{Palette: []int32{Air}}
}

// IsEmpty returns true if the section contains only air.
func (s *Section) IsEmpty() bool {
	return len(s.Palette) == 0 || (len(s.Palette) == 1 && s.Palette[0] == Air)
}

// Block returns the block id at the section-local coordinates.
func (s *Section) Block(x, y, z int) int32 {
	bits := bitsPerEntry(len(s.Palette))
	if bits == 0 {
		if len(s.Palette) == 0 {
			return Air
		}
		return s.Palette[0]
	}
	valuesPerLong := 64 / bits
	i := blockIndex(x, y, z)
	longIndex := i / valuesPerLong
	if longIndex >= len(s.Data) {
		return Air
	}
	mask := int64((1 << bits) - 1)
	p := int((s.Data[longIndex] >> ((i % valuesPerLong) * bits)) & mask)
	if p >= len(s.Palette) {
		return Air
	}
	return s.Palette[p]
}

// SetBlock stores id at the section-local coordinates, growing the palette and
// repacking the data when the palette needs more bits per entry.
func (s *Section) SetBlock(x, y, z int, id int32) {
	if len(s.Palette) == 0 {
		s.Palette = []int32{Air}
	}

	oldPaletteSize := len(s.Palette)
	p := paletteIndex(s.Palette, id)
	if p >= oldPaletteSize {
		s.Palette = append(s.Palette, id)
		if len(s.Data) > 0 && bitsPerEntry(oldPaletteSize) != bitsPerEntry(len(s.Palette)) {
			s.Data = repack(s.Data, oldPaletteSize, len(s.Palette))
		}
	}

	bits := bitsPerEntry(len(s.Palette))
	if bits == 0 {
		return
	}
	valuesPerLong := 64 / bits

	// Ensure data array is large enough
	requiredLongs := (sectionVolume + valuesPerLong - 1) / valuesPerLong
	if len(s.Data) < requiredLongs {
		data := make([]int64, requiredLongs)
		copy(data, s.Data)
		s.Data = data
	}

	i := blockIndex(x, y, z)
	longIndex := i / valuesPerLong
	bitOffset := (i % valuesPerLong) * bits

	// Clear old value and set new value
	mask := int64((1 << bits) - 1)
	s.Data[longIndex] &= ^(mask << bitOffset)
	s.Data[longIndex] |= int64(p) << bitOffset
}

// blockIndex returns the position of a section-local block in the packed data.
func blockIndex(x, y, z int) int {
	return y*256 + z*16 + x
}

// paletteIndex finds id in the palette or returns the index where it should be added.
func paletteIndex(palette []int32, id int32) int {
	for i, v := range palette {
		if v == id {
			return i
		}
	}
	return len(palette)
}

// bitsPerEntry calculates the number of bits needed per palette entry.
func bitsPerEntry(paletteSize int) int {
	if paletteSize <= 1 {
		return 0
	}
	bits := 0
	size := paletteSize - 1
	for size > 0 {
		bits++
		size >>= 1
	}
	return bits
}

// repack re-encodes packed data when the bits per entry change.
func repack(oldData []int64, oldPaletteSize, newPaletteSize int) []int64 {
	oldBits := bitsPerEntry(oldPaletteSize)
	newBits := bitsPerEntry(newPaletteSize)

	if oldBits == newBits || oldBits == 0 {
		return oldData
	}

	// Extract all values from old data
	oldValuesPerLong := 64 / oldBits
	values := make([]int, sectionVolume)
	oldMask := int64((1 << oldBits) - 1)
	for i := range sectionVolume {
		longIndex := i / oldValuesPerLong
		if longIndex < len(oldData) {
			values[i] = int((oldData[longIndex] >> ((i % oldValuesPerLong) * oldBits)) & oldMask)
		}
	}

	// Pack into new format
	newValuesPerLong := 64 / newBits
	newData := make([]int64, (sectionVolume+newValuesPerLong-1)/newValuesPerLong)
	for i := range sectionVolume {
		newData[i/newValuesPerLong] |= int64(values[i]) << ((i % newValuesPerLong) * newBits)
	}
	return newData
}
