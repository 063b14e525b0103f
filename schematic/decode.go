package schematic

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/Tnze/go-mc/nbt"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/klauspost/compress/gzip"
	"github.com/oriumgames/clipboard"
)

// Decode reads a schematic from r into a new clipboard whose lowest corner and
// origin are both at origin.
func Decode(r io.Reader, origin cube.Pos) (*clipboard.Clipboard, error) {
	return DecodeAt(r, origin, origin)
}

// DecodeAt reads a schematic from r into a new clipboard whose lowest corner
// is at lo and whose paste origin is origin.
func DecodeAt(r io.Reader, lo, origin cube.Pos) (*clipboard.Clipboard, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	br := bufio.NewReader(zr)
	rootType, err := br.Peek(1)
	if err != nil {
		return nil, fmt.Errorf("read root tag: %w", err)
	}
	if rootType[0] == nbt.TagEnd {
		return nil, &FormatError{Kind: KindRoot}
	}

	var root nbt.RawMessage
	name, err := nbt.NewDecoder(br).Decode(&root)
	if err != nil {
		return nil, fmt.Errorf("decode nbt: %w", err)
	}
	if root.Type != nbt.TagCompound || name != RootName {
		return nil, &FormatError{Kind: KindRoot, Value: name}
	}

	var tags map[string]nbt.RawMessage
	if err := root.Unmarshal(&tags); err != nil {
		return nil, fmt.Errorf("decode %s compound: %w", RootName, err)
	}
	return fromTags(tags, lo, origin)
}

// fromTags validates the root compound and builds the clipboard from it.
// Checks run in a fixed order and stop at the first failure.
func fromTags(tags map[string]nbt.RawMessage, lo, origin cube.Pos) (*clipboard.Clipboard, error) {
	if _, ok := tags["Blocks"]; !ok {
		return nil, &FormatError{Kind: KindMissingTag, Tag: "Blocks"}
	}

	var width, length, height int16
	if err := childTag(tags, "Width", nbt.TagShort, &width); err != nil {
		return nil, err
	}
	if err := childTag(tags, "Length", nbt.TagShort, &length); err != nil {
		return nil, err
	}
	if err := childTag(tags, "Height", nbt.TagShort, &height); err != nil {
		return nil, err
	}

	var materials string
	if err := childTag(tags, "Materials", nbt.TagString, &materials); err != nil || materials != MaterialsAlpha {
		return nil, &FormatError{Kind: KindMaterials, Tag: "Materials", Value: materials}
	}

	var blocks []byte
	if err := childTag(tags, "Blocks", nbt.TagByteArray, &blocks); err != nil {
		return nil, err
	}

	dims := []struct {
		tag  string
		size int16
	}{
		{"Width", width},
		{"Height", height},
		{"Length", length},
	}
	for _, d := range dims {
		if d.size < 1 {
			return nil, &FormatError{Kind: KindDimensions, Tag: d.tag, Value: strconv.Itoa(int(d.size))}
		}
	}

	w, h, l := int(width), int(height), int(length)
	if len(blocks) < w*h*l {
		return nil, &FormatError{Kind: KindBlocksLength, Tag: "Blocks", Value: fmt.Sprintf("got %d, want %d", len(blocks), w*h*l)}
	}

	c, err := clipboard.New(lo, lo.Add(cube.Pos{w - 1, h - 1, l - 1}), origin)
	if err != nil {
		return nil, err
	}
	for x := range w {
		for y := range h {
			for z := range l {
				c.Set(x, y, z, int(int8(blocks[index(x, y, z, w, l)])))
			}
		}
	}
	return c, nil
}

// childTag looks up key in tags, checks it has the expected tag type and
// decodes its payload into v.
func childTag(tags map[string]nbt.RawMessage, key string, expected byte, v any) error {
	raw, ok := tags[key]
	if !ok {
		return &FormatError{Kind: KindMissingTag, Tag: key}
	}
	if raw.Type != expected {
		return &FormatError{Kind: KindTagType, Tag: key, Expected: expected, Actual: raw.Type}
	}
	if err := raw.Unmarshal(v); err != nil {
		return fmt.Errorf("decode %s tag: %w", key, err)
	}
	return nil
}
