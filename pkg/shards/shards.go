// Package shards implements the address to shard mapping of the ledger.
//
// A shard id is a 64-bit bitmask over the account address space: the bits
// above the lowest set bit are the address prefix owned by the shard, the
// lowest set bit marks the prefix length. The full shard 0x8000000000000000
// has an empty prefix and owns the whole workchain.
package shards

import (
	"encoding/binary"
	"math/bits"

	"github.com/tonkeeper/tongo/ton"
)

const (
	MasterchainID int32 = -1

	// FullShard covers the entire address space of a workchain.
	FullShard uint64 = 0x8000000000000000
)

func lowBit(shard uint64) uint64 {
	return shard & (^shard + 1)
}

// Matches reports whether the address prefix belongs to the shard.
func Matches(shard uint64, address ton.Bits256) bool {
	if shard == 0 {
		return false
	}
	tz := bits.TrailingZeros64(shard)
	if tz >= 63 {
		return true
	}
	prefix := binary.BigEndian.Uint64(address[:8])
	return (prefix^shard)>>(tz+1) == 0
}

// Route picks the shard owning the account among the given shards of the
// account's workchain. After a split the candidate set can still carry the
// parent alongside its children, so the longest matching prefix wins.
// Pure: the caller supplies the candidate set.
func Route(account ton.AccountID, active []uint64) (uint64, bool) {
	var (
		best  uint64
		found bool
	)
	for _, s := range active {
		if !Matches(s, account.Address) {
			continue
		}
		if !found || lowBit(s) < lowBit(best) {
			best = s
			found = true
		}
	}
	return best, found
}

// Parent is the shard this one was split from. Must not be called with the
// full shard.
func Parent(shard uint64) uint64 {
	lb := lowBit(shard)
	return (shard - lb) | (lb << 1)
}

// Children are the two shards this one splits into, left then right.
func Children(shard uint64) (uint64, uint64) {
	half := lowBit(shard) >> 1
	return shard - half, shard + half
}

// FromIdent converts a TLB shard ident (prefix length in bits plus the
// prefix itself) into a shard id.
func FromIdent(prefixBits uint32, prefix uint64) uint64 {
	return prefix | (FullShard >> prefixBits)
}
