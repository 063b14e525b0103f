package format

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// CompressionLevel represents the compression level for saving worlds.
type CompressionLevel int

const (
	// CompressionLevelNone disables compression.
	CompressionLevelNone CompressionLevel = iota
	// CompressionLevelFast uses fast compression (level 1).
	CompressionLevelFast
	// CompressionLevelDefault uses default compression (level 3).
	CompressionLevelDefault
	// CompressionLevelBest uses best compression (level 9).
	CompressionLevelBest
)

// zstdLevel maps a compression level to the zstd encoder level.
func (l CompressionLevel) zstdLevel() zstd.EncoderLevel {
	switch l {
	case CompressionLevelFast:
		return zstd.SpeedFastest
	case CompressionLevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// Read reads a world from a reader.
func Read(r io.Reader) (*World, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != MagicNumber {
		return nil, fmt.Errorf("invalid magic number: got 0x%08X, want 0x%08X", magic, MagicNumber)
	}

	var version int16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version > CurrentVersion {
		return nil, fmt.Errorf("unsupported version: %d (max supported: %d)", version, CurrentVersion)
	}

	var compression uint8
	if err := binary.Read(r, binary.BigEndian, &compression); err != nil {
		return nil, fmt.Errorf("read compression: %w", err)
	}

	// Uncompressed length, informational only
	if _, err := readVarInt(r); err != nil {
		return nil, fmt.Errorf("read data length: %w", err)
	}

	var dataReader io.Reader
	switch compression {
	case CompressionNone:
		dataReader = r
	case CompressionZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer decoder.Close()
		dataReader = decoder
	default:
		return nil, fmt.Errorf("unknown compression type: %d", compression)
	}

	w, err := DecodeWorld(dataReader)
	if err != nil {
		return nil, err
	}
	w.Version = version
	return w, nil
}

// WriteWithCompression writes a world to a writer with a specific compression level.
// Small payloads and payloads that do not shrink are stored uncompressed.
func WriteWithCompression(w io.Writer, world *World, compressionLevel CompressionLevel) error {
	buf := newBuffer()
	EncodeWorld(buf, world)
	data := buf.Bytes()

	compression := CompressionNone
	payload := data
	if compressionLevel != CompressionLevelNone && len(data) > 1024 {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(compressionLevel.zstdLevel()))
		if err == nil {
			compressed := encoder.EncodeAll(data, make([]byte, 0, len(data)))
			if len(compressed) < len(data) {
				compression = CompressionZstd
				payload = compressed
			}
			_ = encoder.Close()
		}
	}

	if err := writeHeader(w, compression, int64(len(data))); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// WriteStreaming writes a world chunk by chunk instead of buffering the whole
// payload. The uncompressed length in the header is written as zero.
func WriteStreaming(w io.Writer, world *World, compressionLevel CompressionLevel) (err error) {
	compression := CompressionNone
	if compressionLevel != CompressionLevelNone {
		compression = CompressionZstd
	}
	if err := writeHeader(w, compression, 0); err != nil {
		return err
	}

	dataWriter := w
	if compression == CompressionZstd {
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(compressionLevel.zstdLevel()))
		if err != nil {
			return fmt.Errorf("create zstd encoder: %w", err)
		}
		defer func() {
			if cerr := enc.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close zstd stream: %w", cerr)
			}
		}()
		dataWriter = enc
	}

	chunks := world.Chunks()
	hdr := newBuffer()
	encodeWorldHeader(hdr, world, len(chunks))
	if _, err := dataWriter.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("write world header: %w", err)
	}

	for _, c := range chunks {
		cb := newBuffer()
		EncodeChunk(cb, c, world.MinSection, world.MaxSection)
		if _, err := dataWriter.Write(cb.Bytes()); err != nil {
			return fmt.Errorf("write chunk (%d,%d): %w", c.X, c.Z, err)
		}
	}
	return nil
}

// writeHeader writes the magic, version, compression type and data length.
func writeHeader(w io.Writer, compression int, dataLength int64) error {
	if err := binary.Write(w, binary.BigEndian, uint32(MagicNumber)); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, int16(CurrentVersion)); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint8(compression)); err != nil {
		return fmt.Errorf("write compression: %w", err)
	}
	if err := writeVarInt(w, dataLength); err != nil {
		return fmt.Errorf("write data length: %w", err)
	}
	return nil
}

// ReadFile reads the world stored at path.
func ReadFile(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open world: %w", err)
	}
	defer f.Close()

	return Read(bufio.NewReader(f))
}

// WriteFile writes world to path with the given compression level and clears
// its dirty state on success.
func WriteFile(path string, world *World, compressionLevel CompressionLevel) error {
	return writeFile(path, world, compressionLevel, WriteWithCompression)
}

// WriteFileStreaming is like WriteFile but streams the world chunk by chunk
// through WriteStreaming.
func WriteFileStreaming(path string, world *World, compressionLevel CompressionLevel) error {
	return writeFile(path, world, compressionLevel, WriteStreaming)
}

func writeFile(path string, world *World, compressionLevel CompressionLevel, write func(io.Writer, *World, CompressionLevel) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create world: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close world: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := write(bw, world, compressionLevel); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write world: %w", err)
	}
	world.ClearDirty()
	return nil
}
