package schematic

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
	"github.com/oriumgames/clipboard"
)

// Encode writes c to w as a gzip-compressed schematic.
// Block ids are stored as single bytes: ids outside 0-255 are truncated to
// their low 8 bits, and ids from 128 to 255 read back as negative values.
func Encode(w io.Writer, c *clipboard.Clipboard) error {
	doc, err := newDocument(c)
	if err != nil {
		return err
	}

	zw := gzip.NewWriter(w)
	if err := nbt.NewEncoder(zw).Encode(doc, RootName); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode nbt: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close gzip stream: %w", err)
	}
	return nil
}

// newDocument lays the clipboard out in the on-disk tag structure.
func newDocument(c *clipboard.Clipboard) (document, error) {
	if err := checkDimensions(c); err != nil {
		return document{}, err
	}
	width, height, length := c.Width(), c.Height(), c.Length()

	blocks := make([]byte, c.Volume())
	for y := range height {
		for z := range length {
			for x := range width {
				blocks[index(x, y, z, width, length)] = byte(c.At(x, y, z))
			}
		}
	}

	return document{
		Width:     int16(width),
		Length:    int16(length),
		Height:    int16(height),
		Materials: MaterialsAlpha,
		Blocks:    blocks,
		// Block data values are not supported.
		Data: make([]byte, len(blocks)),
		// Neither are entities or tile entities.
		Entities:     emptyCompoundList(),
		TileEntities: emptyCompoundList(),
	}, nil
}

// checkDimensions makes sure every extent of c fits in a TAG_Short.
func checkDimensions(c *clipboard.Clipboard) error {
	dims := []struct {
		tag  string
		size int
	}{
		{"Width", c.Width()},
		{"Height", c.Height()},
		{"Length", c.Length()},
	}
	for _, d := range dims {
		if d.size > MaxDimension {
			return &FormatError{Kind: KindDimensions, Tag: d.tag, Value: strconv.Itoa(d.size)}
		}
	}
	return nil
}
