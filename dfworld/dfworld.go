// Package dfworld connects clipboards and format worlds to a dragonfly server.
//
// Block ids are dragonfly block runtime ids, except that air always has id 0:
// the runtime ids of air and of the block registered at runtime id 0 are
// swapped, so clipboard.Air keeps its meaning.
package dfworld

import (
	"fmt"
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/oriumgames/clipboard"
)

// blockTx is the part of *world.Tx a World reads and writes through.
type blockTx interface {
	Block(pos cube.Pos) world.Block
	SetBlock(pos cube.Pos, b world.Block, opts *world.SetOpts)
	Range() cube.Range
}

// World implements clipboard.World on a dragonfly transaction.
type World struct {
	tx  blockTx
	air uint32

	runtimeID      func(world.Block) uint32
	blockByRuntime func(uint32) (world.Block, bool)
}

var _ clipboard.World = (*World)(nil)

// New wraps tx. The returned World must not be used after the transaction ends.
func New(tx *world.Tx) *World {
	return &World{
		tx:             tx,
		air:            airRuntimeID(),
		runtimeID:      world.BlockRuntimeID,
		blockByRuntime: world.BlockByRuntimeID,
	}
}

// Block returns the id of the block at pos.
func (w *World) Block(pos cube.Pos) (int, error) {
	if pos.OutOfBounds(w.tx.Range()) {
		return 0, fmt.Errorf("position %v outside world range %v", pos, w.tx.Range())
	}
	return int(toID(w.runtimeID(w.tx.Block(pos)), w.air)), nil
}

// SetBlock places the block with the given id at pos.
func (w *World) SetBlock(pos cube.Pos, id int) error {
	if pos.OutOfBounds(w.tx.Range()) {
		return fmt.Errorf("position %v outside world range %v", pos, w.tx.Range())
	}
	if id < 0 || int64(id) > math.MaxUint32 {
		return fmt.Errorf("block id %d is not a runtime id", id)
	}
	b, ok := w.blockByRuntime(toRuntimeID(uint32(id), w.air))
	if !ok {
		return fmt.Errorf("unknown block id %d", id)
	}
	w.tx.SetBlock(pos, b, nil)
	return nil
}

// airRuntimeID returns the runtime id of minecraft:air.
func airRuntimeID() uint32 {
	air, _ := world.BlockByName("minecraft:air", nil)
	return world.BlockRuntimeID(air)
}

// toID maps a runtime id to a block id.
func toID(rid, air uint32) uint32 {
	switch rid {
	case air:
		return 0
	case 0:
		return air
	}
	return rid
}

// toRuntimeID maps a block id to a runtime id. It is the inverse of toID.
func toRuntimeID(id, air uint32) uint32 {
	return toID(id, air)
}
