package core

import (
	"fmt"

	"github.com/tonkeeper/tongo/ton"
)

// BlockRef is a block position used as a query key. Hashes are optional:
// when present they must match the catalogued block exactly.
type BlockRef struct {
	ton.BlockID
	RootHash *ton.Bits256
	FileHash *ton.Bits256
}

// Criteria selects the block an account query is answered against.
// At most one field is set; nil criteria (or an empty value) means the
// latest known block.
type Criteria struct {
	Block   *BlockRef
	Tx      *TxID
	AtLeast *ton.BlockID
}

func (c *Criteria) Validate() error {
	if c == nil {
		return nil
	}
	set := 0
	if c.Block != nil {
		set++
	}
	if c.Tx != nil {
		set++
	}
	if c.AtLeast != nil {
		set++
	}
	if set > 1 {
		return fmt.Errorf("%w: more than one block criteria supplied", ErrInvalidArgument)
	}
	return nil
}

type BoundType int8

const (
	BoundIncluded BoundType = iota
	BoundExcluded
)

// Bound limits a transaction range query. Exactly one of Block and Tx
// carries the position; Type controls whether the boundary itself is part
// of the result. Bounds are resolved to logical time thresholds, never
// stored.
type Bound struct {
	Type  BoundType
	Block *ton.BlockID
	Tx    *TxID
}

func (b *Bound) Validate() error {
	if b == nil {
		return nil
	}
	if b.Type != BoundIncluded && b.Type != BoundExcluded {
		return fmt.Errorf("%w: unknown bound type %d", ErrInvalidArgument, b.Type)
	}
	if (b.Block == nil) == (b.Tx == nil) {
		return fmt.Errorf("%w: bound position must be a block or a transaction", ErrInvalidArgument)
	}
	return nil
}

// Order of an account transaction range.
type Order int8

const (
	OrderUnordered Order = iota
	OrderFromNewToOld
	// OrderFromOldToNew is reserved by the interface and rejected with
	// ErrInvalidArgument when requested.
	OrderFromOldToNew
)

// ListOrder of per-block transaction listings.
type ListOrder int8

const (
	ListUnordered ListOrder = iota
	ListAsc
	// ListDesc is reserved by the interface and rejected with
	// ErrInvalidArgument when requested.
	ListDesc
)
