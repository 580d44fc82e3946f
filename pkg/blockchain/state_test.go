package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
)

func TestDecodeTextComment(t *testing.T) {
	cell := boc.NewCell()
	require.NoError(t, cell.WriteUint(0, 32))
	text := tlb.Text("hello there")
	require.NoError(t, tlb.Marshal(cell, text))
	cell.ResetCounters()

	got, ok := decodeTextComment(cell)
	require.True(t, ok)
	require.Equal(t, "hello there", got)
}

func TestDecodeTextCommentRejectsOpcodes(t *testing.T) {
	cell := boc.NewCell()
	require.NoError(t, cell.WriteUint(0x0f8a7ea5, 32))
	cell.ResetCounters()

	_, ok := decodeTextComment(cell)
	require.False(t, ok)

	short := boc.NewCell()
	require.NoError(t, short.WriteUint(0, 16))
	short.ResetCounters()

	_, ok = decodeTextComment(short)
	require.False(t, ok)
}

func TestConvertAccountStateMissingAccount(t *testing.T) {
	accountID := ton.AccountID{Workchain: 0}
	pinned := ton.BlockIDExt{BlockID: ton.BlockID{Workchain: -1, Shard: 0x8000000000000000, Seqno: 7}}

	state, err := convertAccountState(accountID, pinned, tlb.ShardAccount{
		Account: tlb.Account{SumType: "AccountNone"},
	})
	require.NoError(t, err)
	require.Equal(t, core.AccountUninitialized, state.Status)
	require.Zero(t, state.Balance)
	require.Nil(t, state.LastTx)
	require.Equal(t, pinned, state.Block)
}
