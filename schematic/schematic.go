// Package schematic reads and writes clipboards in the legacy MCEdit
// .schematic format: a gzip-compressed, big-endian NBT compound named
// "Schematic" holding one byte per block.
package schematic

import (
	"errors"
	"fmt"
	"math"

	"github.com/Tnze/go-mc/nbt"
)

const (
	// RootName is the name of the root compound tag.
	RootName = "Schematic"
	// MaterialsAlpha is the only supported value of the Materials tag.
	MaterialsAlpha = "Alpha"
	// MaxDimension is the largest width, height or length a TAG_Short can carry.
	MaxDimension = math.MaxInt16
)

// document is the root compound as written to disk. Length is the Z extent and
// Height the Y extent, as the format names them.
type document struct {
	Width        int16          `nbt:"Width"`
	Length       int16          `nbt:"Length"`
	Height       int16          `nbt:"Height"`
	Materials    string         `nbt:"Materials"`
	Blocks       []byte         `nbt:"Blocks"`
	Data         []byte         `nbt:"Data"`
	Entities     nbt.RawMessage `nbt:"Entities"`
	TileEntities nbt.RawMessage `nbt:"TileEntities"`
}

// emptyCompoundList is an empty TAG_List whose element type is TAG_Compound.
func emptyCompoundList() nbt.RawMessage {
	return nbt.RawMessage{Type: nbt.TagList, Data: []byte{nbt.TagCompound, 0, 0, 0, 0}}
}

// index returns the offset of local block x, y, z in the Blocks and Data arrays.
func index(x, y, z, width, length int) int {
	return y*width*length + z*width + x
}

// ErrFormat is matched by every *FormatError through errors.Is.
var ErrFormat = errors.New("invalid schematic")

// Kind identifies which check a schematic failed.
type Kind uint8

const (
	// KindRoot means the root tag is not a compound named "Schematic".
	KindRoot Kind = iota + 1
	// KindMissingTag means a required tag is absent.
	KindMissingTag
	// KindTagType means a required tag has the wrong tag type.
	KindTagType
	// KindMaterials means the Materials tag is not "Alpha".
	KindMaterials
	// KindDimensions means a width, height or length is out of range.
	KindDimensions
	// KindBlocksLength means the Blocks array is shorter than the volume.
	KindBlocksLength
)

// FormatError describes a schematic that could not be read or written.
type FormatError struct {
	Kind Kind
	// Tag is the name of the offending tag, if any.
	Tag string
	// Expected and Actual are NBT tag types, set for KindTagType.
	Expected, Actual byte
	// Value holds the offending root name, materials value or dimension.
	Value string
}

// Error ...
func (e *FormatError) Error() string {
	switch e.Kind {
	case KindRoot:
		return fmt.Sprintf("tag %q does not exist or is not first (found %q)", RootName, e.Value)
	case KindMissingTag:
		return fmt.Sprintf("schematic file is missing a %q tag", e.Tag)
	case KindTagType:
		return fmt.Sprintf("%s tag is not of tag type %s (got %s)", e.Tag, tagTypeName(e.Expected), tagTypeName(e.Actual))
	case KindMaterials:
		return "schematic file is not an Alpha schematic"
	case KindDimensions:
		return fmt.Sprintf("schematic %s %s is out of range [1, %d]", e.Tag, e.Value, MaxDimension)
	case KindBlocksLength:
		return fmt.Sprintf("schematic %s array is too short: %s", e.Tag, e.Value)
	default:
		return "invalid schematic"
	}
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func tagTypeName(t byte) string {
	switch t {
	case nbt.TagEnd:
		return "TAG_End"
	case nbt.TagByte:
		return "TAG_Byte"
	case nbt.TagShort:
		return "TAG_Short"
	case nbt.TagInt:
		return "TAG_Int"
	case nbt.TagLong:
		return "TAG_Long"
	case nbt.TagFloat:
		return "TAG_Float"
	case nbt.TagDouble:
		return "TAG_Double"
	case nbt.TagByteArray:
		return "TAG_Byte_Array"
	case nbt.TagString:
		return "TAG_String"
	case nbt.TagList:
		return "TAG_List"
	case nbt.TagCompound:
		return "TAG_Compound"
	case nbt.TagIntArray:
		return "TAG_Int_Array"
	case nbt.TagLongArray:
		return "TAG_Long_Array"
	default:
		return fmt.Sprintf("TAG_Unknown(%d)", t)
	}
}
