package format

// EncodeWorld encodes a World into a buffer.
func EncodeWorld(buf *buffer, w *World) {
	encodeWorldHeader(buf, w, len(w.chunks))
	for _, c := range w.Chunks() {
		EncodeChunk(buf, c, w.MinSection, w.MaxSection)
	}
}

// encodeWorldHeader writes the section range, settings and chunk count.
func encodeWorldHeader(buf *buffer, w *World, chunkCount int) {
	buf.WriteInt32(w.MinSection)
	buf.WriteInt32(w.MaxSection)
	buf.WriteBytes(encodeSettings(w.Settings))
	buf.WriteVarInt(int64(chunkCount))
}

// EncodeChunk encodes a Chunk into a buffer.
func EncodeChunk(buf *buffer, c *Chunk, minSection, maxSection int32) {
	buf.WriteInt32(c.X)
	buf.WriteInt32(c.Z)

	// Write sections (pad with empty sections if needed)
	sectionCount := int(maxSection - minSection)
	for i := range sectionCount {
		if i < len(c.Sections) && c.Sections[i] != nil && !c.Sections[i].IsEmpty() {
			encodeSection(buf, c.Sections[i])
		} else {
			encodeEmptySection(buf)
		}
	}
}

// encodeSection encodes a Section into a buffer.
func encodeSection(buf *buffer, s *Section) {
	buf.WriteVarInt(int64(len(s.Palette)))
	for _, id := range s.Palette {
		buf.WriteVarInt(int64(id))
	}

	buf.WriteVarInt(int64(len(s.Data)))
	for _, val := range s.Data {
		buf.WriteInt64(val)
	}
}

// encodeEmptySection encodes an empty section (all air).
func encodeEmptySection(buf *buffer) {
	buf.WriteVarInt(1)
	buf.WriteVarInt(Air)
	buf.WriteVarInt(0) // No data needed for single palette entry
}
