package schematic

import (
	"bufio"
	"fmt"
	"os"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/oriumgames/clipboard"
)

// Save writes c to a schematic file at path, replacing any existing file.
func Save(path string, c *clipboard.Clipboard) (err error) {
	// Fail before touching the file system.
	if err := checkDimensions(c); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create schematic: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close schematic: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Encode(bw, c); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write schematic: %w", err)
	}
	return nil
}

// Load reads the schematic file at path into a clipboard placed at origin.
func Load(path string, origin cube.Pos) (*clipboard.Clipboard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schematic: %w", err)
	}
	defer f.Close()

	return Decode(bufio.NewReader(f), origin)
}
