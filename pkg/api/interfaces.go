package api

import (
	"context"

	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
	"github.com/txsociety/mentat/pkg/txindex"
)

type resolver interface {
	Resolve(account ton.AccountID, c *core.Criteria) (ton.BlockIDExt, error)
	ResolveBlock(ref *core.BlockRef) (ton.BlockIDExt, error)
}

type catalog interface {
	Last(workchain int32, shard uint64) (ton.BlockIDExt, error)
	Header(workchain int32, shard uint64, seqno uint32) (core.BlockHeader, error)
	Shards(masterSeqno uint32) ([]ton.BlockIDExt, error)
}

type index interface {
	Range(account ton.AccountID, from, to *core.Bound, order core.Order) (*txindex.Cursor, error)
	BlockTransactionIDs(id ton.BlockID, order core.ListOrder) ([]core.TransactionID, error)
	BlockTransactions(id ton.BlockID, order core.ListOrder) ([]core.Transaction, error)
	BlockAccounts(id ton.BlockID) ([]ton.AccountID, error)
}

type ledger interface {
	GetAccountState(ctx context.Context, accountID ton.AccountID, pinned ton.BlockIDExt) (core.AccountState, error)
	GetAccountCell(ctx context.Context, accountID ton.AccountID, pinned ton.BlockIDExt) ([]byte, error)
	SendMessage(ctx context.Context, payload []byte) (ton.Bits256, error)
}
