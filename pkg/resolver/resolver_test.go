package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/ton"
	blockcatalog "github.com/txsociety/mentat/pkg/catalog"
	"github.com/txsociety/mentat/pkg/core"
	"github.com/txsociety/mentat/pkg/shards"
	"github.com/txsociety/mentat/pkg/txindex"
)

func header(workchain int32, shard uint64, seqno uint32, startLt, endLt uint64) core.BlockHeader {
	var h core.BlockHeader
	h.Workchain = workchain
	h.Shard = shard
	h.Seqno = seqno
	h.RootHash[0] = byte(seqno)
	h.RootHash[1] = byte(shard >> 56)
	h.FileHash[0] = byte(seqno)
	h.StartLt = startLt
	h.EndLt = endLt
	return h
}

func account(first byte) ton.AccountID {
	var a ton.AccountID
	a.Address[0] = first
	return a
}

// newFixture builds a catalog with a masterchain chain, one split workchain
// 0 shard pair, and one indexed transaction on the left shard.
func newFixture(t *testing.T) (*Resolver, *blockcatalog.Catalog, core.Transaction) {
	t.Helper()
	cat := blockcatalog.New()
	idx := txindex.New(cat)

	left, right := shards.Children(shards.FullShard)
	for _, h := range []core.BlockHeader{
		header(shards.MasterchainID, shards.FullShard, 100, 1000, 1099),
		header(shards.MasterchainID, shards.FullShard, 101, 1100, 1199),
		header(0, left, 40, 500, 599),
		header(0, left, 41, 600, 699),
		header(0, right, 55, 500, 699),
	} {
		require.NoError(t, cat.Add(h))
	}

	a := account(0x01) // top bit 0: left shard
	tx := core.Transaction{Account: a, Lt: 620}
	tx.Hash[0] = 0xaa
	tx.Block, _ = cat.Get(0, left, 41)
	require.NoError(t, idx.Add(tx))

	return New(cat, idx), cat, tx
}

func TestResolveExplicitBlock(t *testing.T) {
	r, cat, _ := newFixture(t)
	left, _ := shards.Children(shards.FullShard)
	known, err := cat.Get(0, left, 40)
	require.NoError(t, err)

	// bare triple: hashes filled from the catalog
	got, err := r.Resolve(account(0x01), &core.Criteria{Block: &core.BlockRef{BlockID: known.BlockID}})
	require.NoError(t, err)
	require.Equal(t, known, got)

	// resolving the same key twice is idempotent
	again, err := r.Resolve(account(0x01), &core.Criteria{Block: &core.BlockRef{BlockID: known.BlockID}})
	require.NoError(t, err)
	require.Equal(t, got, again)

	// matching hashes pass, mismatching hashes mean a stale client view
	ok, err := r.Resolve(account(0x01), &core.Criteria{Block: &core.BlockRef{
		BlockID: known.BlockID, RootHash: &known.RootHash, FileHash: &known.FileHash,
	}})
	require.NoError(t, err)
	require.Equal(t, known, ok)

	var forged ton.Bits256
	forged[0] = 0xff
	_, err = r.Resolve(account(0x01), &core.Criteria{Block: &core.BlockRef{
		BlockID: known.BlockID, RootHash: &forged,
	}})
	require.ErrorIs(t, err, core.ErrStaleBlock)

	unknown := known.BlockID
	unknown.Seqno = 999
	_, err = r.Resolve(account(0x01), &core.Criteria{Block: &core.BlockRef{BlockID: unknown}})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestResolveTransaction(t *testing.T) {
	r, cat, tx := newFixture(t)

	got, err := r.Resolve(tx.Account, &core.Criteria{Tx: &core.TxID{Lt: tx.Lt, Hash: tx.Hash}})
	require.NoError(t, err)
	require.Equal(t, tx.Block, got)

	// the resolved block's window must contain the transaction's lt
	start, end, err := cat.Window(got.BlockID)
	require.NoError(t, err)
	require.LessOrEqual(t, start, tx.Lt)
	require.LessOrEqual(t, tx.Lt, end)

	_, err = r.Resolve(tx.Account, &core.Criteria{Tx: &core.TxID{Lt: 777, Hash: tx.Hash}})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestResolveAtLeast(t *testing.T) {
	r, cat, _ := newFixture(t)
	key := ton.BlockID{Workchain: shards.MasterchainID, Shard: shards.FullShard, Seqno: 101}

	got, err := r.Resolve(account(0x01), &core.Criteria{AtLeast: &key})
	require.NoError(t, err)
	require.Equal(t, uint32(101), got.Seqno)

	// not reached yet: retryable miss, succeeds once the chain advances
	key.Seqno = 102
	_, err = r.Resolve(account(0x01), &core.Criteria{AtLeast: &key})
	require.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, cat.Add(header(shards.MasterchainID, shards.FullShard, 102, 1200, 1299)))
	got, err = r.Resolve(account(0x01), &core.Criteria{AtLeast: &key})
	require.NoError(t, err)
	require.GreaterOrEqual(t, got.Seqno, uint32(102))
}

func TestResolveLatest(t *testing.T) {
	r, cat, _ := newFixture(t)
	left, right := shards.Children(shards.FullShard)

	got, err := r.Resolve(account(0x01), nil)
	require.NoError(t, err)
	want, _ := cat.Last(0, left)
	require.Equal(t, want, got)

	got, err = r.Resolve(account(0x81), nil) // top bit 1: right shard
	require.NoError(t, err)
	want, _ = cat.Last(0, right)
	require.Equal(t, want, got)

	// workchain with no catalogued shards falls back to the masterchain tip
	stray := account(0x01)
	stray.Workchain = 7
	got, err = r.Resolve(stray, nil)
	require.NoError(t, err)
	want, _ = cat.Last(shards.MasterchainID, shards.FullShard)
	require.Equal(t, want, got)
}

func TestResolveLatestPrefersSplitChild(t *testing.T) {
	cat := blockcatalog.New()
	idx := txindex.New(cat)
	r := New(cat, idx)

	// before the split the workchain ran as a single shard; after it the
	// catalog still remembers the parent's tip next to the children's
	_, right := shards.Children(shards.FullShard)
	for _, h := range []core.BlockHeader{
		header(shards.MasterchainID, shards.FullShard, 10, 1000, 1099),
		header(0, shards.FullShard, 100, 400, 499),
		header(0, right, 101, 500, 599),
		header(0, right, 102, 600, 699),
	} {
		require.NoError(t, cat.Add(h))
	}

	got, err := r.Resolve(account(0xc1), nil) // top bits 11: right child
	require.NoError(t, err)
	require.Equal(t, right, got.Shard)
	require.Equal(t, uint32(102), got.Seqno)
}

func TestResolveRejectsAmbiguousCriteria(t *testing.T) {
	r, _, tx := newFixture(t)
	key := ton.BlockID{Workchain: 0, Shard: shards.FullShard, Seqno: 1}
	_, err := r.Resolve(tx.Account, &core.Criteria{
		Block: &core.BlockRef{BlockID: key},
		Tx:    &core.TxID{Lt: tx.Lt, Hash: tx.Hash},
	})
	require.ErrorIs(t, err, core.ErrInvalidArgument)
}
