// Package store persists clipboards per player in a leveldb database.
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/google/uuid"
	"github.com/oriumgames/clipboard"
	"github.com/oriumgames/clipboard/schematic"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned by Get when no clipboard is stored for a player.
var ErrNotFound = fmt.Errorf("clipboard not found: %w", leveldb.ErrNotFound)

// headerSize is the size of the min corner and origin stored before the schematic.
const headerSize = 6 * 4

// Store holds one clipboard per player. It is safe for concurrent use.
type Store struct {
	db  *leveldb.DB
	log logrus.FieldLogger
}

// Open opens or creates the store in dir.
func Open(dir string, log logrus.FieldLogger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := leveldb.OpenFile(dir, &opt.Options{
		Compression: opt.FlateCompression,
		BlockSize:   16 * opt.KiB,
	})
	if err != nil {
		return nil, fmt.Errorf("open leveldb database: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Put stores c as the clipboard of the player, replacing any previous one.
func (s *Store) Put(id uuid.UUID, c *clipboard.Clipboard) error {
	for _, pos := range []cube.Pos{c.Min(), c.Origin()} {
		if !fitsInt32(pos) {
			return fmt.Errorf("put clipboard: position %v does not fit in 32 bits", pos)
		}
	}
	buf := bytes.NewBuffer(make([]byte, 0, headerSize+c.Volume()/4))
	writePos(buf, c.Min())
	writePos(buf, c.Origin())
	if err := schematic.Encode(buf, c); err != nil {
		return fmt.Errorf("encode clipboard: %w", err)
	}
	if err := s.db.Put(id[:], buf.Bytes(), nil); err != nil {
		return fmt.Errorf("put clipboard: %w", err)
	}
	s.log.WithFields(logrus.Fields{"player": id, "volume": c.Volume(), "size": buf.Len()}).Debug("Stored clipboard.")
	return nil
}

// Get returns the clipboard of the player at the min corner and origin it
// was stored with.
func (s *Store) Get(id uuid.UUID) (*clipboard.Clipboard, error) {
	data, err := s.db.Get(id[:], nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get clipboard: %w", err)
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("stored clipboard for %v is truncated: %d bytes", id, len(data))
	}

	lo, origin := readPos(data[0:12]), readPos(data[12:24])
	c, err := schematic.DecodeAt(bytes.NewReader(data[headerSize:]), lo, origin)
	if err != nil {
		return nil, fmt.Errorf("decode stored clipboard for %v: %w", id, err)
	}
	return c, nil
}

// Delete removes the clipboard of the player. Deleting a missing entry is not an error.
func (s *Store) Delete(id uuid.UUID) error {
	if err := s.db.Delete(id[:], nil); err != nil {
		return fmt.Errorf("delete clipboard: %w", err)
	}
	s.log.WithField("player", id).Debug("Deleted clipboard.")
	return nil
}

// Players returns the ids of all players with a stored clipboard.
func (s *Store) Players() ([]uuid.UUID, error) {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	var ids []uuid.UUID
	for iter.Next() {
		id, err := uuid.FromBytes(iter.Key())
		if err != nil {
			s.log.WithField("key", fmt.Sprintf("%x", iter.Key())).Warn("Skipping malformed store key.")
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate store: %w", err)
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close leveldb database: %w", err)
	}
	return nil
}

func fitsInt32(pos cube.Pos) bool {
	for _, v := range pos {
		if int64(v) < math.MinInt32 || int64(v) > math.MaxInt32 {
			return false
		}
	}
	return true
}

func writePos(buf *bytes.Buffer, pos cube.Pos) {
	for _, v := range pos {
		_ = binary.Write(buf, binary.BigEndian, int32(v))
	}
}

func readPos(b []byte) cube.Pos {
	return cube.Pos{
		int(int32(binary.BigEndian.Uint32(b[0:4]))),
		int(int32(binary.BigEndian.Uint32(b[4:8]))),
		int(int32(binary.BigEndian.Uint32(b[8:12]))),
	}
}
