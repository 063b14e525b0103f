package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// buffer is a helper for writing binary data with convenient typed methods.
type buffer struct {
	bytes.Buffer
}

// newBuffer creates a new buffer.
func newBuffer() *buffer {
	return &buffer{}
}

// WriteInt64 writes an int64 in big-endian format.
func (b *buffer) WriteInt64(v int64) {
	_ = binary.Write(b, binary.BigEndian, v)
}

// WriteInt32 writes an int32 in big-endian format.
func (b *buffer) WriteInt32(v int32) {
	_ = binary.Write(b, binary.BigEndian, v)
}

// WriteVarInt writes a variable-length integer.
func (b *buffer) WriteVarInt(v int64) {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, v)
	_, _ = b.Write(buf[:n])
}

// WriteBytes writes a byte slice with its length as a varint.
func (b *buffer) WriteBytes(data []byte) {
	b.WriteVarInt(int64(len(data)))
	_, _ = b.Write(data)
}

// writeVarInt writes a variable-length integer to a writer.
func writeVarInt(w io.Writer, v int64) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, v)
	_, err := w.Write(buf[:n])
	return err
}

// readVarInt reads a variable-length integer from a reader.
func readVarInt(r io.Reader) (int64, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = &byteReader{r: r}
	}
	return binary.ReadVarint(br)
}

// byteReader wraps an io.Reader to implement io.ByteReader
type byteReader struct {
	r io.Reader
}

func (br *byteReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(br.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// reader is a helper for reading binary data with convenient typed methods.
type reader struct {
	r io.Reader
}

// newReader creates a new reader wrapping the given io.Reader.
func newReader(r io.Reader) *reader {
	return &reader{r: r}
}

// ReadInt64 reads an int64 in big-endian format.
func (r *reader) ReadInt64() (int64, error) {
	var v int64
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

// ReadInt32 reads an int32 in big-endian format.
func (r *reader) ReadInt32() (int32, error) {
	var v int32
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

// ReadVarInt reads a variable-length integer.
func (r *reader) ReadVarInt() (int64, error) {
	return readVarInt(r.r)
}

// ReadBytes reads a byte slice with its length as a varint.
func (r *reader) ReadBytes() ([]byte, error) {
	length, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if length < 0 || length > 1<<24 { // 16MB limit
		return nil, fmt.Errorf("invalid byte array length: %d", length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
