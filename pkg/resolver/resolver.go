// Package resolver turns the block criteria of an account query into one
// pinned block reference. Resolution is the single synchronization point of
// a request: everything the request answers afterwards is read against the
// block resolved here, never against a mix of shard views.
package resolver

import (
	"fmt"

	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
	"github.com/txsociety/mentat/pkg/shards"
)

type catalog interface {
	Get(workchain int32, shard uint64, seqno uint32) (ton.BlockIDExt, error)
	Last(workchain int32, shard uint64) (ton.BlockIDExt, error)
	AtLeast(workchain int32, shard uint64, seqno uint32) (ton.BlockIDExt, error)
	AtLt(workchain int32, shard uint64, lt uint64) (ton.BlockIDExt, error)
	ActiveShards(workchain int32) []uint64
}

type index interface {
	Lookup(account ton.AccountID, lt uint64, hash ton.Bits256) (core.Transaction, error)
}

type Resolver struct {
	catalog catalog
	index   index
}

func New(catalog catalog, index index) *Resolver {
	return &Resolver{catalog: catalog, index: index}
}

// Resolve maps the request criteria to one block. Nil criteria pin the
// latest known block of the account's shard.
func (r *Resolver) Resolve(account ton.AccountID, c *core.Criteria) (ton.BlockIDExt, error) {
	if err := c.Validate(); err != nil {
		return ton.BlockIDExt{}, err
	}
	switch {
	case c != nil && c.Block != nil:
		return r.ResolveBlock(c.Block)
	case c != nil && c.Tx != nil:
		return r.resolveTransaction(account, c.Tx)
	case c != nil && c.AtLeast != nil:
		// a miss here is retryable: the chain simply has not advanced
		// that far yet and the caller polls
		return r.catalog.AtLeast(c.AtLeast.Workchain, c.AtLeast.Shard, c.AtLeast.Seqno)
	default:
		return r.resolveLatest(account)
	}
}

// ResolveBlock treats the triple as a lookup key and the optional hashes as
// a consistency check against the catalogued block.
func (r *Resolver) ResolveBlock(ref *core.BlockRef) (ton.BlockIDExt, error) {
	known, err := r.catalog.Get(ref.Workchain, ref.Shard, ref.Seqno)
	if err != nil {
		return ton.BlockIDExt{}, err
	}
	if ref.RootHash != nil && *ref.RootHash != known.RootHash {
		return ton.BlockIDExt{}, fmt.Errorf("root hash of block (%d,%016x,%d): %w", ref.Workchain, ref.Shard, ref.Seqno, core.ErrStaleBlock)
	}
	if ref.FileHash != nil && *ref.FileHash != known.FileHash {
		return ton.BlockIDExt{}, fmt.Errorf("file hash of block (%d,%016x,%d): %w", ref.Workchain, ref.Shard, ref.Seqno, core.ErrStaleBlock)
	}
	return known, nil
}

// resolveTransaction pins the block whose logical time window contains the
// transaction, on the shard the transaction was committed to.
func (r *Resolver) resolveTransaction(account ton.AccountID, id *core.TxID) (ton.BlockIDExt, error) {
	tx, err := r.index.Lookup(account, id.Lt, id.Hash)
	if err != nil {
		return ton.BlockIDExt{}, err
	}
	return r.catalog.AtLt(tx.Block.Workchain, tx.Block.Shard, tx.Lt)
}

// resolveLatest picks the tip of the account's shard, falling back to the
// masterchain tip while the shard has nothing catalogued yet.
func (r *Resolver) resolveLatest(account ton.AccountID) (ton.BlockIDExt, error) {
	active := r.catalog.ActiveShards(account.Workchain)
	if shard, ok := shards.Route(account, active); ok {
		return r.catalog.Last(account.Workchain, shard)
	}
	return r.catalog.Last(shards.MasterchainID, shards.FullShard)
}
