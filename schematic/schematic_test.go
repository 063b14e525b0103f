package schematic

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/klauspost/compress/gzip"
	"github.com/oriumgames/clipboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenario returns the 2x2x2 clipboard used throughout the tests.
func scenario(t *testing.T) *clipboard.Clipboard {
	t.Helper()
	c, err := clipboard.New(cube.Pos{0, 0, 0}, cube.Pos{1, 1, 1}, cube.Pos{0, 0, 0})
	require.NoError(t, err)
	ids := map[[3]int]int{
		{0, 0, 0}: 1, {1, 0, 0}: 2, {0, 1, 0}: 3, {1, 1, 0}: 4,
		{0, 0, 1}: 5, {1, 0, 1}: 6, {0, 1, 1}: 7, {1, 1, 1}: 8,
	}
	for p, id := range ids {
		c.Set(p[0], p[1], p[2], id)
	}
	return c
}

// readDocument gunzips and parses an encoded schematic.
func readDocument(t *testing.T, data []byte) (string, document) {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer zr.Close()

	var doc document
	name, err := nbt.NewDecoder(zr).Decode(&doc)
	require.NoError(t, err)
	return name, doc
}

// encodeRaw writes an arbitrary root tag the way a schematic is stored.
func encodeRaw(t *testing.T, name string, v any) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	require.NoError(t, nbt.NewEncoder(zw).Encode(v, name))
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// gzipBytes compresses b without any NBT framing.
func gzipBytes(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(b)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// validTags returns a well-formed 2x1x1 schematic compound.
func validTags() map[string]any {
	return map[string]any{
		"Width":     int16(2),
		"Height":    int16(1),
		"Length":    int16(1),
		"Materials": "Alpha",
		"Blocks":    []byte{1, 2},
		"Data":      []byte{0, 0},
	}
}

func TestEncodeScenarioLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, scenario(t)))

	name, doc := readDocument(t, buf.Bytes())
	assert.Equal(t, RootName, name)
	assert.Equal(t, int16(2), doc.Width)
	assert.Equal(t, int16(2), doc.Height)
	assert.Equal(t, int16(2), doc.Length)
	assert.Equal(t, MaterialsAlpha, doc.Materials)
	assert.Equal(t, []byte{1, 2, 5, 6, 3, 4, 7, 8}, doc.Blocks)
	assert.Equal(t, make([]byte, 8), doc.Data)

	for _, list := range []nbt.RawMessage{doc.Entities, doc.TileEntities} {
		assert.Equal(t, byte(nbt.TagList), list.Type)
		assert.Equal(t, []byte{nbt.TagCompound, 0, 0, 0, 0}, list.Data)
	}
}

func TestEncodeFieldNamesFollowAxes(t *testing.T) {
	// 3 wide (x), 1 high (y), 2 long (z).
	c, err := clipboard.New(cube.Pos{0, 0, 0}, cube.Pos{2, 0, 1}, cube.Pos{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, c))
	_, doc := readDocument(t, buf.Bytes())
	assert.Equal(t, int16(3), doc.Width)
	assert.Equal(t, int16(1), doc.Height)
	assert.Equal(t, int16(2), doc.Length)
	assert.Len(t, doc.Blocks, 6)
}

func TestEncodeDeterministic(t *testing.T) {
	c := scenario(t)
	var a, b bytes.Buffer
	require.NoError(t, Encode(&a, c))
	require.NoError(t, Encode(&b, c))

	_, docA := readDocument(t, a.Bytes())
	_, docB := readDocument(t, b.Bytes())
	assert.Equal(t, docA.Blocks, docB.Blocks)
}

func TestEncodeTruncatesWideIDs(t *testing.T) {
	c, err := clipboard.New(cube.Pos{0, 0, 0}, cube.Pos{2, 0, 0}, cube.Pos{})
	require.NoError(t, err)
	c.Set(0, 0, 0, 300)
	c.Set(1, 0, 0, 200)
	c.Set(2, 0, 0, 127)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, c))
	_, doc := readDocument(t, buf.Bytes())
	assert.Equal(t, []byte{44, 200, 127}, doc.Blocks)

	out, err := Decode(bytes.NewReader(buf.Bytes()), cube.Pos{})
	require.NoError(t, err)
	assert.Equal(t, 44, out.At(0, 0, 0))
	assert.Equal(t, -56, out.At(1, 0, 0))
	assert.Equal(t, 127, out.At(2, 0, 0))
}

func TestDecodeScenario(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, scenario(t)))

	origin := cube.Pos{10, 20, 30}
	c, err := Decode(&buf, origin)
	require.NoError(t, err)

	assert.Equal(t, origin, c.Min())
	assert.Equal(t, cube.Pos{11, 21, 31}, c.Max())
	assert.Equal(t, origin, c.Origin())
	assert.Equal(t, 8, c.At(1, 1, 1))
	assert.Equal(t, cube.Pos{11, 21, 31}, cube.Pos{1, 1, 1}.Add(c.Offset(c.Origin())))
}

func TestRoundTrip(t *testing.T) {
	lo, hi := cube.Pos{-3, 60, 7}, cube.Pos{1, 63, 9}
	c, err := clipboard.New(lo, hi, cube.Pos{0, 64, 0})
	require.NoError(t, err)
	n := 0
	for x := range c.Width() {
		for y := range c.Height() {
			for z := range c.Length() {
				c.Set(x, y, z, n%127+1)
				n++
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, c))
	out, err := Decode(&buf, c.Origin())
	require.NoError(t, err)

	require.Equal(t, c.Width(), out.Width())
	require.Equal(t, c.Height(), out.Height())
	require.Equal(t, c.Length(), out.Length())
	for x := range c.Width() {
		for y := range c.Height() {
			for z := range c.Length() {
				require.Equal(t, c.At(x, y, z), out.At(x, y, z), "cell %d,%d,%d", x, y, z)
			}
		}
	}
}

func TestDecodeAtKeepsOrigin(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, scenario(t)))

	c, err := DecodeAt(&buf, cube.Pos{5, 5, 5}, cube.Pos{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, cube.Pos{5, 5, 5}, c.Min())
	assert.Equal(t, cube.Pos{6, 6, 6}, c.Max())
	assert.Equal(t, cube.Pos{0, 0, 0}, c.Origin())
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name  string
		root  string
		tags  func(m map[string]any)
		value any
		raw   []byte
		check func(t *testing.T, fe *FormatError)
	}{
		{
			name: "no root tag",
			raw:  []byte{nbt.TagEnd},
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindRoot, fe.Kind)
				assert.Empty(t, fe.Value)
			},
		},
		{
			name: "root name",
			root: "NotASchematic",
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindRoot, fe.Kind)
				assert.Equal(t, "NotASchematic", fe.Value)
			},
		},
		{
			name:  "root not a compound",
			root:  RootName,
			value: int16(5),
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindRoot, fe.Kind)
			},
		},
		{
			name: "missing blocks",
			root: RootName,
			tags: func(m map[string]any) { delete(m, "Blocks") },
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindMissingTag, fe.Kind)
				assert.Equal(t, "Blocks", fe.Tag)
			},
		},
		{
			name: "beta materials",
			root: RootName,
			tags: func(m map[string]any) { m["Materials"] = "Beta" },
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindMaterials, fe.Kind)
				assert.Equal(t, "Beta", fe.Value)
				assert.Equal(t, "schematic file is not an Alpha schematic", fe.Error())
			},
		},
		{
			name: "missing materials",
			root: RootName,
			tags: func(m map[string]any) { delete(m, "Materials") },
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindMaterials, fe.Kind)
			},
		},
		{
			name: "width as string",
			root: RootName,
			tags: func(m map[string]any) { m["Width"] = "2" },
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindTagType, fe.Kind)
				assert.Equal(t, "Width", fe.Tag)
				assert.Equal(t, byte(nbt.TagShort), fe.Expected)
				assert.Equal(t, byte(nbt.TagString), fe.Actual)
				assert.Contains(t, fe.Error(), "TAG_Short")
			},
		},
		{
			name: "missing length",
			root: RootName,
			tags: func(m map[string]any) { delete(m, "Length") },
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindMissingTag, fe.Kind)
				assert.Equal(t, "Length", fe.Tag)
			},
		},
		{
			name: "height as int",
			root: RootName,
			tags: func(m map[string]any) { m["Height"] = int32(1) },
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindTagType, fe.Kind)
				assert.Equal(t, "Height", fe.Tag)
				assert.Equal(t, byte(nbt.TagInt), fe.Actual)
			},
		},
		{
			name: "dimension checked before materials",
			root: RootName,
			tags: func(m map[string]any) {
				m["Width"] = "2"
				m["Materials"] = "Beta"
			},
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindTagType, fe.Kind)
				assert.Equal(t, "Width", fe.Tag)
			},
		},
		{
			name: "blocks as string",
			root: RootName,
			tags: func(m map[string]any) { m["Blocks"] = "stone" },
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindTagType, fe.Kind)
				assert.Equal(t, "Blocks", fe.Tag)
				assert.Equal(t, byte(nbt.TagByteArray), fe.Expected)
			},
		},
		{
			name: "zero width",
			root: RootName,
			tags: func(m map[string]any) { m["Width"] = int16(0) },
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindDimensions, fe.Kind)
				assert.Equal(t, "Width", fe.Tag)
			},
		},
		{
			name: "negative height",
			root: RootName,
			tags: func(m map[string]any) { m["Height"] = int16(-4) },
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindDimensions, fe.Kind)
				assert.Equal(t, "Height", fe.Tag)
				assert.Equal(t, "-4", fe.Value)
			},
		},
		{
			name: "short blocks",
			root: RootName,
			tags: func(m map[string]any) { m["Blocks"] = []byte{1} },
			check: func(t *testing.T, fe *FormatError) {
				assert.Equal(t, KindBlocksLength, fe.Kind)
				assert.Equal(t, "Blocks", fe.Tag)
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data := gzipBytes(t, c.raw)
			if c.raw == nil {
				v := c.value
				if v == nil {
					m := validTags()
					if c.tags != nil {
						c.tags(m)
					}
					v = m
				}
				data = encodeRaw(t, c.root, v)
			}

			out, err := Decode(bytes.NewReader(data), cube.Pos{})
			require.Error(t, err)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrFormat)

			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			c.check(t, fe)
		})
	}
}

func TestDecodeAcceptsMinimalDocument(t *testing.T) {
	m := validTags()
	delete(m, "Data")
	m["Blocks"] = []byte{9, 10, 11}

	c, err := Decode(bytes.NewReader(encodeRaw(t, RootName, m)), cube.Pos{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Volume())
	assert.Equal(t, 9, c.At(0, 0, 0))
	assert.Equal(t, 10, c.At(1, 0, 0))
}

func TestDecodeStreamErrors(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not gzip")), cube.Pos{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrFormat))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, scenario(t)))
	truncated := buf.Bytes()[:buf.Len()/2]
	_, err = Decode(bytes.NewReader(truncated), cube.Pos{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrFormat))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.schematic")
	require.NoError(t, Save(path, scenario(t)))

	c, err := Load(path, cube.Pos{10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, 8, c.Volume())
	assert.Equal(t, 8, c.At(1, 1, 1))
	assert.Equal(t, 5, c.At(0, 0, 1))
}

func TestSaveRejectsOversizedClipboard(t *testing.T) {
	c, err := clipboard.New(cube.Pos{0, 0, 0}, cube.Pos{MaxDimension, 0, 0}, cube.Pos{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "big.schematic")
	err = Save(path, c)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindDimensions, fe.Kind)
	assert.Equal(t, "Width", fe.Tag)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.schematic"), cube.Pos{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
