package format

import (
	"bytes"
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// Settings holds world metadata stored alongside the block data.
type Settings struct {
	Name  string
	Spawn cube.Pos
}

// DefaultSettings returns the settings of a newly created world.
func DefaultSettings() Settings {
	return Settings{Name: "World"}
}

// encodeSettings encodes world settings to NBT bytes.
func encodeSettings(s Settings) []byte {
	buf := new(bytes.Buffer)
	data := map[string]any{
		"name":   s.Name,
		"spawnX": int32(s.Spawn.X()),
		"spawnY": int32(s.Spawn.Y()),
		"spawnZ": int32(s.Spawn.Z()),
	}
	_ = nbt.NewEncoder(buf).Encode(data)
	return buf.Bytes()
}

// decodeSettings decodes world settings from NBT bytes. Missing fields keep
// the value already present in s.
func decodeSettings(data []byte, s *Settings) error {
	if len(data) == 0 {
		return fmt.Errorf("no settings data")
	}

	var m map[string]any
	if err := nbt.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return err
	}

	if name, ok := m["name"].(string); ok {
		s.Name = name
	}
	if x, ok := m["spawnX"].(int32); ok {
		if y, ok := m["spawnY"].(int32); ok {
			if z, ok := m["spawnZ"].(int32); ok {
				s.Spawn = cube.Pos{int(x), int(y), int(z)}
			}
		}
	}
	return nil
}
