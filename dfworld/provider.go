package dfworld

import (
	"fmt"
	"sync"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/google/uuid"
	"github.com/oriumgames/clipboard/format"
	"github.com/sirupsen/logrus"
)

// Provider implements world.Provider on a format world, so a world edited
// with clipboards can be served by a dragonfly server. Only the overworld is
// stored. The whole world is held in memory and written back to its file on
// Save and Close.
type Provider struct {
	mu       sync.RWMutex
	path     string
	level    format.CompressionLevel
	w        *format.World
	air      uint32
	settings *world.Settings
	log      logrus.FieldLogger

	// Player spawn positions, kept for the lifetime of the provider only.
	playerSpawns map[uuid.UUID]cube.Pos

	dirty bool // Settings changed since the last save
}

// NewProvider serves w and saves it to path with the given compression level.
// A read-only w is served but never stored to or saved.
func NewProvider(path string, w *format.World, level format.CompressionLevel, log logrus.FieldLogger) *Provider {
	return newProvider(path, w, level, airRuntimeID(), log)
}

func newProvider(path string, w *format.World, level format.CompressionLevel, air uint32, log logrus.FieldLogger) *Provider {
	s := defaultSettings()
	s.Name, s.Spawn = w.Settings.Name, w.Settings.Spawn
	return &Provider{
		path:         path,
		level:        level,
		w:            w,
		air:          air,
		settings:     s,
		log:          log,
		playerSpawns: make(map[uuid.UUID]cube.Pos),
	}
}

// Settings returns the world settings.
func (p *Provider) Settings() *world.Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// SaveSettings records the name and spawn of s in the world.
func (p *Provider) SaveSettings(s *world.Settings) {
	s.Lock()
	name, spawn := s.Name, s.Spawn
	s.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s
	if p.w.IsReadOnly() || (p.w.Settings.Name == name && p.w.Settings.Spawn == spawn) {
		return
	}
	p.w.Settings.Name, p.w.Settings.Spawn = name, spawn
	p.dirty = true
}

// LoadColumn loads a chunk column. Columns missing from the world, and every
// column outside the overworld, return leveldb.ErrNotFound.
func (p *Provider) LoadColumn(pos world.ChunkPos, dim world.Dimension) (*chunk.Column, error) {
	if dim != world.Overworld {
		return nil, leveldb.ErrNotFound
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	c := p.w.Chunk(pos[0], pos[1])
	if c == nil {
		return nil, leveldb.ErrNotFound
	}
	col, err := column(c, p.w.MinSection, chunk.New(p.air, dim.Range()), p.air)
	if err != nil {
		return nil, fmt.Errorf("load column %v: %w", pos, err)
	}
	return col, nil
}

// StoreColumn stores a chunk column in the world. Stores into a read-only
// world are dropped.
func (p *Provider) StoreColumn(pos world.ChunkPos, dim world.Dimension, col *chunk.Column) error {
	if dim != world.Overworld {
		return fmt.Errorf("store column %v: dimension %T is not stored", pos, dim)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.w.IsReadOnly() {
		return nil
	}
	p.w.SetChunk(fromColumn(col, p.w.Chunk(pos[0], pos[1]), pos[0], pos[1], p.w.MinSection, p.w.MaxSection, p.air))
	return nil
}

// LoadPlayerSpawnPosition loads a player's spawn position.
func (p *Provider) LoadPlayerSpawnPosition(id uuid.UUID) (cube.Pos, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pos, ok := p.playerSpawns[id]
	return pos, ok, nil
}

// SavePlayerSpawnPosition saves a player's spawn position.
func (p *Provider) SavePlayerSpawnPosition(id uuid.UUID, pos cube.Pos) error {
	p.mu.Lock()
	p.playerSpawns[id] = pos
	p.mu.Unlock()
	return nil
}

// Save writes the world to its file if it changed since the last save.
func (p *Provider) Save() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveInternal()
}

// Close saves pending changes.
func (p *Provider) Close() error {
	return p.Save()
}

// saveInternal writes the world. Must be called with lock held.
func (p *Provider) saveInternal() error {
	if p.w.IsReadOnly() || (!p.dirty && !p.w.IsDirty()) {
		return nil
	}
	if err := format.WriteFileStreaming(p.path, p.w, p.level); err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	p.dirty = false
	p.log.WithFields(logrus.Fields{"path": p.path, "chunks": p.w.ChunkCount()}).Debug("Saved world.")
	return nil
}

func defaultSettings() *world.Settings {
	return &world.Settings{
		Name:            "World",
		Spawn:           cube.Pos{0, 64, 0},
		Time:            6000,
		TimeCycle:       true,
		WeatherCycle:    true,
		DefaultGameMode: world.GameModeSurvival,
		Difficulty:      world.DifficultyNormal,
	}
}
