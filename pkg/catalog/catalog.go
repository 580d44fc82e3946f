// Package catalog keeps every block observed on the ledger. Entries are
// append-only and immutable: a (workchain, shard, seqno) triple maps to
// exactly one pair of content hashes, so lookups can be cached forever.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
)

type chainKey struct {
	workchain int32
	shard     uint64
}

type chain struct {
	headers []core.BlockHeader // ascending seqno
}

func (c *chain) search(seqno uint32) int {
	return sort.Search(len(c.headers), func(i int) bool {
		return c.headers[i].Seqno >= seqno
	})
}

type Catalog struct {
	mu      sync.RWMutex
	chains  map[chainKey]*chain
	masters map[uint32][]ton.BlockIDExt
}

func New() *Catalog {
	return &Catalog{
		chains:  make(map[chainKey]*chain),
		masters: make(map[uint32][]ton.BlockIDExt),
	}
}

// Add inserts a block header. Re-adding a known block is a no-op as long as
// the hashes match; conflicting hashes for one triple mean a forked source
// and are rejected.
func (c *Catalog) Add(h core.BlockHeader) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := chainKey{workchain: h.Workchain, shard: h.Shard}
	ch, ok := c.chains[key]
	if !ok {
		ch = &chain{}
		c.chains[key] = ch
	}
	i := ch.search(h.Seqno)
	if i < len(ch.headers) && ch.headers[i].Seqno == h.Seqno {
		known := ch.headers[i]
		if known.RootHash != h.RootHash || known.FileHash != h.FileHash {
			return fmt.Errorf("conflicting hashes for block (%d,%016x,%d)", h.Workchain, h.Shard, h.Seqno)
		}
		return nil
	}
	ch.headers = append(ch.headers, core.BlockHeader{})
	copy(ch.headers[i+1:], ch.headers[i:])
	ch.headers[i] = h
	return nil
}

// AddShards records the shard blocks referenced by a masterchain block.
func (c *Catalog) AddShards(masterSeqno uint32, blocks []ton.BlockIDExt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if known, ok := c.masters[masterSeqno]; ok {
		if len(known) != len(blocks) {
			return fmt.Errorf("conflicting shard set for masterchain seqno %d", masterSeqno)
		}
		for i := range known {
			if known[i] != blocks[i] {
				return fmt.Errorf("conflicting shard set for masterchain seqno %d", masterSeqno)
			}
		}
		return nil
	}
	cp := make([]ton.BlockIDExt, len(blocks))
	copy(cp, blocks)
	c.masters[masterSeqno] = cp
	return nil
}

func (c *Catalog) Get(workchain int32, shard uint64, seqno uint32) (ton.BlockIDExt, error) {
	h, err := c.Header(workchain, shard, seqno)
	if err != nil {
		return ton.BlockIDExt{}, err
	}
	return h.BlockIDExt, nil
}

func (c *Catalog) Header(workchain int32, shard uint64, seqno uint32) (core.BlockHeader, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.chains[chainKey{workchain: workchain, shard: shard}]
	if !ok {
		return core.BlockHeader{}, fmt.Errorf("block (%d,%016x,%d): %w", workchain, shard, seqno, core.ErrNotFound)
	}
	i := ch.search(seqno)
	if i >= len(ch.headers) || ch.headers[i].Seqno != seqno {
		return core.BlockHeader{}, fmt.Errorf("block (%d,%016x,%d): %w", workchain, shard, seqno, core.ErrNotFound)
	}
	return ch.headers[i], nil
}

// Has reports whether the exact block position is already catalogued.
func (c *Catalog) Has(id ton.BlockID) bool {
	_, err := c.Header(id.Workchain, id.Shard, id.Seqno)
	return err == nil
}

// Last returns the newest known block of a shard.
func (c *Catalog) Last(workchain int32, shard uint64) (ton.BlockIDExt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.chains[chainKey{workchain: workchain, shard: shard}]
	if !ok || len(ch.headers) == 0 {
		return ton.BlockIDExt{}, fmt.Errorf("shard (%d,%016x) has no blocks: %w", workchain, shard, core.ErrNotFound)
	}
	return ch.headers[len(ch.headers)-1].BlockIDExt, nil
}

// AtLeast returns the earliest known block with seqno >= the given one.
// A miss means the chain has not advanced that far yet and the caller may
// retry.
func (c *Catalog) AtLeast(workchain int32, shard uint64, seqno uint32) (ton.BlockIDExt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.chains[chainKey{workchain: workchain, shard: shard}]
	if !ok {
		return ton.BlockIDExt{}, fmt.Errorf("shard (%d,%016x) has no blocks: %w", workchain, shard, core.ErrNotFound)
	}
	i := ch.search(seqno)
	if i >= len(ch.headers) {
		return ton.BlockIDExt{}, fmt.Errorf("no block with seqno >= %d on shard (%d,%016x) yet: %w", seqno, workchain, shard, core.ErrNotFound)
	}
	return ch.headers[i].BlockIDExt, nil
}

// AtLt returns the block whose logical time window covers lt.
func (c *Catalog) AtLt(workchain int32, shard uint64, lt uint64) (ton.BlockIDExt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.chains[chainKey{workchain: workchain, shard: shard}]
	if !ok {
		return ton.BlockIDExt{}, fmt.Errorf("shard (%d,%016x) has no blocks: %w", workchain, shard, core.ErrNotFound)
	}
	i := sort.Search(len(ch.headers), func(i int) bool {
		return ch.headers[i].EndLt >= lt
	})
	if i >= len(ch.headers) || ch.headers[i].StartLt > lt {
		return ton.BlockIDExt{}, fmt.Errorf("no block covering lt %d on shard (%d,%016x): %w", lt, workchain, shard, core.ErrNotFound)
	}
	return ch.headers[i].BlockIDExt, nil
}

// Window returns the logical time range [start, end] of a block.
func (c *Catalog) Window(id ton.BlockID) (uint64, uint64, error) {
	h, err := c.Header(id.Workchain, id.Shard, id.Seqno)
	if err != nil {
		return 0, 0, err
	}
	return h.StartLt, h.EndLt, nil
}

// Shards returns the shard blocks referenced by a masterchain block.
func (c *Catalog) Shards(masterSeqno uint32) ([]ton.BlockIDExt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	blocks, ok := c.masters[masterSeqno]
	if !ok {
		return nil, fmt.Errorf("masterchain block %d: %w", masterSeqno, core.ErrNotFound)
	}
	cp := make([]ton.BlockIDExt, len(blocks))
	copy(cp, blocks)
	return cp, nil
}

// ActiveShards lists every shard of a workchain with at least one
// catalogued block, ascending.
func (c *Catalog) ActiveShards(workchain int32) []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var res []uint64
	for key, ch := range c.chains {
		if key.workchain == workchain && len(ch.headers) > 0 {
			res = append(res, key.shard)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
