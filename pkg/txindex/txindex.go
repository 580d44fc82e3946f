// Package txindex keeps the per-account transaction logs of the ledger and
// the per-block transaction lists built at ingestion time. Logs are
// append-only and ordered by logical time, so range reads never need locks
// beyond a snapshot of the slice they scan.
package txindex

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
)

// windows resolves a block position to its logical time range.
// *catalog.Catalog satisfies it.
type windows interface {
	Window(id ton.BlockID) (uint64, uint64, error)
}

type blockKey struct {
	workchain int32
	shard     uint64
	seqno     uint32
}

type blockEntry struct {
	account ton.AccountID
	lt      uint64
	hash    ton.Bits256
}

type Index struct {
	windows windows

	mu     sync.RWMutex
	logs   map[ton.AccountID][]core.Transaction // ascending lt
	blocks map[blockKey][]blockEntry            // ingestion order

	cursors     sync.Mutex
	openCursors map[uuid.UUID]struct{}
}

func New(w windows) *Index {
	return &Index{
		windows:     w,
		logs:        make(map[ton.AccountID][]core.Transaction),
		blocks:      make(map[blockKey][]blockEntry),
		openCursors: make(map[uuid.UUID]struct{}),
	}
}

// Add appends a transaction to its account's log. Transactions of one
// account must arrive in lt order; a violation means the ingestion path is
// broken and is rejected. Re-adding the latest known transaction is a no-op
// so replay after a crash is safe.
func (x *Index) Add(tx core.Transaction) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	log := x.logs[tx.Account]
	if n := len(log); n > 0 {
		last := log[n-1]
		if tx.Lt == last.Lt && tx.Hash == last.Hash {
			return nil
		}
		if tx.Lt <= last.Lt {
			return fmt.Errorf("transaction lt %d of %v is not after the log tail lt %d", tx.Lt, tx.Account.ToRaw(), last.Lt)
		}
	}
	x.logs[tx.Account] = append(log, tx)
	key := blockKey{workchain: tx.Block.Workchain, shard: tx.Block.Shard, seqno: tx.Block.Seqno}
	x.blocks[key] = append(x.blocks[key], blockEntry{account: tx.Account, lt: tx.Lt, hash: tx.Hash})
	return nil
}

// Lookup finds one transaction of an account by its (lt, hash) pair.
func (x *Index) Lookup(account ton.AccountID, lt uint64, hash ton.Bits256) (core.Transaction, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	log := x.logs[account]
	i := sort.Search(len(log), func(i int) bool { return log[i].Lt >= lt })
	if i >= len(log) || log[i].Lt != lt || log[i].Hash != hash {
		return core.Transaction{}, fmt.Errorf("transaction (lt %d) of %v: %w", lt, account.ToRaw(), core.ErrNotFound)
	}
	return log[i], nil
}

// Len is the number of indexed transactions of an account.
func (x *Index) Len(account ton.AccountID) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.logs[account])
}

// Range opens a cursor over an account's transactions between two optional
// bounds. The snapshot is taken here: transactions ingested after the call
// are not part of the result, reissue the call to observe them.
func (x *Index) Range(account ton.AccountID, from, to *core.Bound, order core.Order) (*Cursor, error) {
	switch order {
	case core.OrderUnordered, core.OrderFromNewToOld:
	case core.OrderFromOldToNew:
		return nil, fmt.Errorf("%w: ascending order is not supported", core.ErrInvalidArgument)
	default:
		return nil, fmt.Errorf("%w: unknown order %d", core.ErrInvalidArgument, order)
	}
	if err := from.Validate(); err != nil {
		return nil, err
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}

	x.mu.RLock()
	log := x.logs[account]
	x.mu.RUnlock()

	lo := uint64(0)
	hi := ^uint64(0)
	empty := false
	if from != nil {
		start, err := x.lowerLt(from)
		if err != nil {
			return nil, err
		}
		lo = start
	}
	if to != nil {
		end, ok, err := x.upperLt(to)
		if err != nil {
			return nil, err
		}
		if !ok {
			empty = true
		}
		hi = end
	}
	if from != nil && to != nil && (empty || lo > hi) {
		return nil, fmt.Errorf("%w: range bounds are contradictory", core.ErrInvalidArgument)
	}

	// The sub-slice stays valid after the lock is dropped: entries are
	// immutable and appends either extend the tail or move the log to a
	// new backing array.
	i := sort.Search(len(log), func(i int) bool { return log[i].Lt >= lo })
	j := sort.Search(len(log), func(j int) bool { return log[j].Lt > hi })
	if empty || i >= j {
		log = nil
	} else {
		log = log[i:j]
	}
	return x.newCursor(log, order == core.OrderFromNewToOld), nil
}

// lowerLt resolves a from-bound to the smallest lt that is in range.
func (x *Index) lowerLt(b *core.Bound) (uint64, error) {
	if b.Tx != nil {
		if b.Type == core.BoundExcluded {
			return b.Tx.Lt + 1, nil
		}
		return b.Tx.Lt, nil
	}
	start, end, err := x.windows.Window(*b.Block)
	if err != nil {
		return 0, err
	}
	if b.Type == core.BoundExcluded {
		return end + 1, nil
	}
	return start, nil
}

// upperLt resolves a to-bound to the greatest lt that is in range. The
// second result is false when the bound excludes everything (an excluded
// position at lt zero).
func (x *Index) upperLt(b *core.Bound) (uint64, bool, error) {
	if b.Tx != nil {
		if b.Type == core.BoundExcluded {
			return b.Tx.Lt - 1, b.Tx.Lt > 0, nil
		}
		return b.Tx.Lt, true, nil
	}
	start, end, err := x.windows.Window(*b.Block)
	if err != nil {
		return 0, false, err
	}
	if b.Type == core.BoundExcluded {
		return start - 1, start > 0, nil
	}
	return end, true, nil
}

// BlockTransactionIDs lists the transactions committed in one block.
// Ascending order sorts by (account, lt); unordered keeps ingestion order.
func (x *Index) BlockTransactionIDs(id ton.BlockID, order core.ListOrder) ([]core.TransactionID, error) {
	entries, err := x.blockEntries(id, order)
	if err != nil {
		return nil, err
	}
	ids := make([]core.TransactionID, len(entries))
	for i, e := range entries {
		ids[i] = core.TransactionID{Account: e.account, Lt: e.lt, Hash: e.hash}
	}
	return ids, nil
}

// BlockTransactions lists the full transactions committed in one block.
func (x *Index) BlockTransactions(id ton.BlockID, order core.ListOrder) ([]core.Transaction, error) {
	entries, err := x.blockEntries(id, order)
	if err != nil {
		return nil, err
	}
	txs := make([]core.Transaction, 0, len(entries))
	for _, e := range entries {
		tx, err := x.Lookup(e.account, e.lt, e.hash)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// BlockAccounts lists every account touched in one block, each once, in the
// order of its first transaction in the block.
func (x *Index) BlockAccounts(id ton.BlockID) ([]ton.AccountID, error) {
	entries, err := x.blockEntries(id, core.ListUnordered)
	if err != nil {
		return nil, err
	}
	seen := make(map[ton.AccountID]struct{}, len(entries))
	var accounts []ton.AccountID
	for _, e := range entries {
		if _, ok := seen[e.account]; ok {
			continue
		}
		seen[e.account] = struct{}{}
		accounts = append(accounts, e.account)
	}
	return accounts, nil
}

func (x *Index) blockEntries(id ton.BlockID, order core.ListOrder) ([]blockEntry, error) {
	switch order {
	case core.ListUnordered, core.ListAsc:
	case core.ListDesc:
		return nil, fmt.Errorf("%w: descending block listing is not supported", core.ErrInvalidArgument)
	default:
		return nil, fmt.Errorf("%w: unknown list order %d", core.ErrInvalidArgument, order)
	}
	if _, _, err := x.windows.Window(id); err != nil {
		return nil, err
	}
	x.mu.RLock()
	entries := x.blocks[blockKey{workchain: id.Workchain, shard: id.Shard, seqno: id.Seqno}]
	x.mu.RUnlock()
	cp := make([]blockEntry, len(entries))
	copy(cp, entries)
	if order == core.ListAsc {
		sort.Slice(cp, func(i, j int) bool {
			if cp[i].account != cp[j].account {
				return lessAccount(cp[i].account, cp[j].account)
			}
			return cp[i].lt < cp[j].lt
		})
	}
	return cp, nil
}

func lessAccount(a, b ton.AccountID) bool {
	if a.Workchain != b.Workchain {
		return a.Workchain < b.Workchain
	}
	for i := range a.Address {
		if a.Address[i] != b.Address[i] {
			return a.Address[i] < b.Address[i]
		}
	}
	return false
}
