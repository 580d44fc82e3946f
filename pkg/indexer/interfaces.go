package indexer

import (
	"context"

	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
)

type blockchain interface {
	GetMasterchainHead(ctx context.Context) (ton.BlockIDExt, error)
	GetBlock(ctx context.Context, id ton.BlockIDExt) (core.BlockHeader, []core.Transaction, error)
	GetShards(ctx context.Context, master ton.BlockIDExt) ([]ton.BlockIDExt, error)
}

type journal interface {
	SaveBlock(ctx context.Context, h core.BlockHeader, mcSeqno uint32) error
	SaveTransactions(ctx context.Context, txs []core.Transaction) error
	SaveShards(ctx context.Context, mcSeqno uint32, blocks []ton.BlockIDExt) error
	GetWatermark(ctx context.Context) (*ton.BlockIDExt, error)
	SetWatermark(ctx context.Context, block ton.BlockIDExt) error
	ReplayBlocks(ctx context.Context, fn func(core.BlockHeader) error) error
	ReplayShards(ctx context.Context, fn func(uint32, []ton.BlockIDExt) error) error
	ReplayTransactions(ctx context.Context, fn func(core.Transaction) error) error
}

type catalog interface {
	Add(h core.BlockHeader) error
	AddShards(masterSeqno uint32, blocks []ton.BlockIDExt) error
	Get(workchain int32, shard uint64, seqno uint32) (ton.BlockIDExt, error)
	Has(id ton.BlockID) bool
}

type txstore interface {
	Add(tx core.Transaction) error
}
