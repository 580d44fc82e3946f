package txindex

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
)

// fakeWindows maps seqno -> [start_lt, end_lt] on a single shard.
type fakeWindows map[uint32][2]uint64

func (f fakeWindows) Window(id ton.BlockID) (uint64, uint64, error) {
	w, ok := f[id.Seqno]
	if !ok {
		return 0, 0, core.ErrNotFound
	}
	return w[0], w[1], nil
}

func account(b byte) ton.AccountID {
	var a ton.AccountID
	a.Address[0] = b
	return a
}

func block(seqno uint32) ton.BlockIDExt {
	b := ton.BlockIDExt{}
	b.Workchain = 0
	b.Shard = 0x8000000000000000
	b.Seqno = seqno
	b.RootHash[0] = byte(seqno)
	b.FileHash[0] = byte(seqno)
	return b
}

func tx(a ton.AccountID, lt uint64, blk ton.BlockIDExt) core.Transaction {
	var h ton.Bits256
	h[0] = byte(lt)
	h[1] = a.Address[0]
	return core.Transaction{Account: a, Lt: lt, Hash: h, Block: blk}
}

// fill indexes lts 10,20,...,100: 30..60 in block 2, the rest in blocks 1 and 3.
func fill(t *testing.T, x *Index, a ton.AccountID) []core.Transaction {
	t.Helper()
	var txs []core.Transaction
	for lt := uint64(10); lt <= 100; lt += 10 {
		var blk ton.BlockIDExt
		switch {
		case lt < 30:
			blk = block(1)
		case lt <= 60:
			blk = block(2)
		default:
			blk = block(3)
		}
		tr := tx(a, lt, blk)
		require.NoError(t, x.Add(tr))
		txs = append(txs, tr)
	}
	return txs
}

func newTestIndex() *Index {
	return New(fakeWindows{
		1: {1, 29},
		2: {30, 60},
		3: {61, 110},
	})
}

func TestAddKeepsLtMonotonic(t *testing.T) {
	x := newTestIndex()
	a := account(1)
	txs := fill(t, x, a)

	for i := 1; i < len(txs); i++ {
		require.Less(t, txs[i-1].Lt, txs[i].Lt)
	}
	// replaying the tail is a no-op, going backwards is not
	require.NoError(t, x.Add(txs[len(txs)-1]))
	require.Equal(t, len(txs), x.Len(a))
	require.Error(t, x.Add(tx(a, 50, block(2))))
}

func TestLookup(t *testing.T) {
	x := newTestIndex()
	a := account(1)
	txs := fill(t, x, a)

	got, err := x.Lookup(a, txs[3].Lt, txs[3].Hash)
	require.NoError(t, err)
	require.Equal(t, txs[3], got)

	_, err = x.Lookup(a, 55, txs[3].Hash)
	require.ErrorIs(t, err, core.ErrNotFound)
	var wrong ton.Bits256
	_, err = x.Lookup(a, txs[3].Lt, wrong)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRangeUnboundedStreamsWholeLog(t *testing.T) {
	x := newTestIndex()
	a := account(1)
	txs := fill(t, x, a)

	cur, err := x.Range(a, nil, nil, core.OrderUnordered)
	require.NoError(t, err)
	seen := make(map[uint64]bool)
	for {
		tr, ok := cur.Next()
		if !ok {
			break
		}
		require.False(t, seen[tr.Lt], "duplicate lt %d", tr.Lt)
		seen[tr.Lt] = true
	}
	require.Len(t, seen, len(txs))
	require.Equal(t, 0, x.OpenCursors())
}

func TestRangeSameBlockNewToOld(t *testing.T) {
	x := newTestIndex()
	a := account(1)
	fill(t, x, a)

	blk := block(2).BlockID
	from := &core.Bound{Type: core.BoundIncluded, Block: &blk}
	to := &core.Bound{Type: core.BoundIncluded, Block: &blk}
	cur, err := x.Range(a, from, to, core.OrderFromNewToOld)
	require.NoError(t, err)

	var lts []uint64
	for {
		tr, ok := cur.Next()
		if !ok {
			break
		}
		lts = append(lts, tr.Lt)
	}
	// block 2 covers lts 30..60; first item is the greatest lt within it
	require.Equal(t, []uint64{60, 50, 40, 30}, lts)
}

func TestRangeExcludedBounds(t *testing.T) {
	x := newTestIndex()
	a := account(1)
	fill(t, x, a)

	from := &core.Bound{Type: core.BoundExcluded, Tx: &core.TxID{Lt: 30}}
	to := &core.Bound{Type: core.BoundExcluded, Tx: &core.TxID{Lt: 60}}
	cur, err := x.Range(a, from, to, core.OrderUnordered)
	require.NoError(t, err)
	var lts []uint64
	for {
		tr, ok := cur.Next()
		if !ok {
			break
		}
		lts = append(lts, tr.Lt)
	}
	require.Equal(t, []uint64{40, 50}, lts)
}

func TestRangeContradictoryBounds(t *testing.T) {
	x := newTestIndex()
	a := account(1)
	fill(t, x, a)

	from := &core.Bound{Type: core.BoundIncluded, Tx: &core.TxID{Lt: 80}}
	to := &core.Bound{Type: core.BoundIncluded, Tx: &core.TxID{Lt: 20}}
	_, err := x.Range(a, from, to, core.OrderUnordered)
	require.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestRangeRejectsAscendingOrder(t *testing.T) {
	x := newTestIndex()
	_, err := x.Range(account(1), nil, nil, core.OrderFromOldToNew)
	require.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestRangeUnknownBlockBound(t *testing.T) {
	x := newTestIndex()
	a := account(1)
	fill(t, x, a)

	blk := block(9).BlockID
	from := &core.Bound{Type: core.BoundIncluded, Block: &blk}
	_, err := x.Range(a, from, nil, core.OrderUnordered)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRangeSnapshotsTail(t *testing.T) {
	x := newTestIndex()
	a := account(1)
	fill(t, x, a)

	cur, err := x.Range(a, nil, nil, core.OrderUnordered)
	require.NoError(t, err)
	require.NoError(t, x.Add(tx(a, 110, block(3))))
	require.Equal(t, 10, cur.Len())
	cur.Close()
}

func TestCursorCloseReturnsToBaseline(t *testing.T) {
	x := newTestIndex()
	a := account(1)
	fill(t, x, a)

	cur, err := x.Range(a, nil, nil, core.OrderFromNewToOld)
	require.NoError(t, err)
	require.Equal(t, 1, x.OpenCursors())
	for i := 0; i < 3; i++ {
		_, ok := cur.Next()
		require.True(t, ok)
	}
	// consumer cancels mid-stream
	cur.Close()
	require.Equal(t, 0, x.OpenCursors())
	_, ok := cur.Next()
	require.False(t, ok)
}

func TestBlockListings(t *testing.T) {
	x := newTestIndex()
	a, b := account(2), account(1)
	require.NoError(t, x.Add(tx(a, 35, block(2))))
	require.NoError(t, x.Add(tx(b, 40, block(2))))
	require.NoError(t, x.Add(tx(a, 55, block(2))))

	blk := block(2).BlockID
	ids, err := x.BlockTransactionIDs(blk, core.ListUnordered)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	require.Equal(t, uint64(35), ids[0].Lt)

	ids, err = x.BlockTransactionIDs(blk, core.ListAsc)
	require.NoError(t, err)
	// sorted by (account, lt): b before a
	require.Equal(t, b, ids[0].Account)
	require.Equal(t, []uint64{40, 35, 55}, []uint64{ids[0].Lt, ids[1].Lt, ids[2].Lt})

	_, err = x.BlockTransactionIDs(blk, core.ListDesc)
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	txs, err := x.BlockTransactions(blk, core.ListAsc)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	accounts, err := x.BlockAccounts(blk)
	require.NoError(t, err)
	require.Equal(t, []ton.AccountID{a, b}, accounts)

	_, err = x.BlockAccounts(block(9).BlockID)
	require.ErrorIs(t, err, core.ErrNotFound)
}
