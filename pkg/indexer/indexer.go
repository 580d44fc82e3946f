// Package indexer follows the masterchain and feeds everything it observes
// into the journal and the in-memory stores. It is the single writer of the
// catalog and the transaction index: queries never mutate, so readers only
// ever see fully published blocks.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// StartSeqno bounds initial history on a fresh database: ingestion
	// starts at this masterchain seqno instead of the current tip.
	// Zero means start at the tip.
	StartSeqno uint32
	// PollInterval is the masterchain tip polling period.
	PollInterval time.Duration
	// FanoutDepth caps how many prev-links of one shard tip are walked per
	// masterchain block, absorbing shard splits and merges without a full
	// scan.
	FanoutDepth int
}

type Indexer struct {
	blockchain blockchain
	journal    journal
	catalog    catalog
	index      txstore
	opts       Options

	watermark *ton.BlockIDExt
}

func New(blockchain blockchain, journal journal, catalog catalog, index txstore, opts Options) *Indexer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.FanoutDepth <= 0 {
		opts.FanoutDepth = 64
	}
	return &Indexer{
		blockchain: blockchain,
		journal:    journal,
		catalog:    catalog,
		index:      index,
		opts:       opts,
	}
}

// Replay rebuilds the in-memory stores from the journal. Must run before
// Run and before the stores serve queries.
func (i *Indexer) Replay(ctx context.Context) error {
	err := i.journal.ReplayBlocks(ctx, func(h core.BlockHeader) error {
		return i.catalog.Add(h)
	})
	if err != nil {
		return fmt.Errorf("replay blocks: %w", err)
	}
	err = i.journal.ReplayShards(ctx, func(mcSeqno uint32, blocks []ton.BlockIDExt) error {
		return i.catalog.AddShards(mcSeqno, blocks)
	})
	if err != nil {
		return fmt.Errorf("replay shards: %w", err)
	}
	err = i.journal.ReplayTransactions(ctx, func(tx core.Transaction) error {
		// the journal keeps the block triple only, the hashes come from
		// the headers replayed above
		block, err := i.catalog.Get(tx.Block.Workchain, tx.Block.Shard, tx.Block.Seqno)
		if err != nil {
			return fmt.Errorf("block of journaled transaction (lt %d) of %v: %w", tx.Lt, tx.Account.ToRaw(), err)
		}
		tx.Block = block
		return i.index.Add(tx)
	})
	if err != nil {
		return fmt.Errorf("replay transactions: %w", err)
	}
	i.watermark, err = i.journal.GetWatermark(ctx)
	if err != nil {
		return fmt.Errorf("read watermark: %w", err)
	}
	if i.watermark != nil {
		slog.Info("journal replayed", "watermark", i.watermark.Seqno)
	}
	return nil
}

// Run starts the ingestion loop. The first sync happens before the next
// poll tick so a fresh process catches up immediately.
func (i *Indexer) Run(ctx context.Context, wg *sync.WaitGroup) {
	slog.Info("indexer started")
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := i.sync(ctx); err != nil {
			slog.Error("masterchain sync", "err", err.Error())
		}
		for {
			select {
			case <-ctx.Done():
				slog.Info("indexer stopped")
				return
			case <-time.After(i.opts.PollInterval):
				if err := i.sync(ctx); err != nil {
					slog.Error("masterchain sync", "err", err.Error())
				}
			}
		}
	}()
}

type fetched struct {
	header core.BlockHeader
	txs    []core.Transaction
}

// sync walks the masterchain from the current tip back to the watermark and
// ingests the gap oldest first.
func (i *Indexer) sync(ctx context.Context) error {
	head, err := withRetry(ctx, func() (ton.BlockIDExt, error) {
		return i.blockchain.GetMasterchainHead(ctx)
	})
	if err != nil {
		return err
	}
	var gap []fetched
	cur := head
	for {
		if i.watermark != nil && cur.Seqno <= i.watermark.Seqno {
			break
		}
		if i.watermark == nil && i.opts.StartSeqno > 0 && cur.Seqno < i.opts.StartSeqno {
			break
		}
		blk, err := withRetry(ctx, func() (fetched, error) {
			header, txs, err := i.blockchain.GetBlock(ctx, cur)
			return fetched{header: header, txs: txs}, err
		})
		if err != nil {
			return err
		}
		gap = append(gap, blk)
		if i.watermark == nil && (i.opts.StartSeqno == 0 || cur.Seqno == i.opts.StartSeqno) {
			break
		}
		if len(blk.header.PrevBlocks) != 1 {
			return fmt.Errorf("masterchain block %d has %d prev blocks", cur.Seqno, len(blk.header.PrevBlocks))
		}
		cur = blk.header.PrevBlocks[0]
	}
	// oldest first
	for n := len(gap) - 1; n >= 0; n-- {
		if err := i.ingestMaster(ctx, gap[n]); err != nil {
			return err
		}
	}
	return nil
}

// ingestMaster publishes one masterchain block: its own content, the new
// shard blocks it references, the shard set and finally the watermark.
// The journal is written before the in-memory stores so a crash in between
// re-ingests instead of losing data.
func (i *Indexer) ingestMaster(ctx context.Context, master fetched) error {
	shardTips, err := withRetry(ctx, func() ([]ton.BlockIDExt, error) {
		return i.blockchain.GetShards(ctx, master.header.BlockIDExt)
	})
	if err != nil {
		return err
	}
	shardBlocks, err := i.fetchNewShardBlocks(ctx, shardTips)
	if err != nil {
		return err
	}
	// ascending logical time keeps every account's log append-only
	sort.Slice(shardBlocks, func(a, b int) bool {
		return shardBlocks[a].header.StartLt < shardBlocks[b].header.StartLt
	})
	batch := append(shardBlocks, master)

	mcSeqno := master.header.Seqno
	for _, blk := range batch {
		if err := i.journal.SaveBlock(ctx, blk.header, mcSeqno); err != nil {
			return fmt.Errorf("journal block: %w", err)
		}
		if err := i.journal.SaveTransactions(ctx, blk.txs); err != nil {
			return fmt.Errorf("journal transactions: %w", err)
		}
	}
	if err := i.journal.SaveShards(ctx, mcSeqno, shardTips); err != nil {
		return fmt.Errorf("journal shards: %w", err)
	}
	for _, blk := range batch {
		if i.catalog.Has(blk.header.BlockID) {
			continue
		}
		if err := i.catalog.Add(blk.header); err != nil {
			return err
		}
		for _, tx := range blk.txs {
			if err := i.index.Add(tx); err != nil {
				return err
			}
		}
	}
	if err := i.catalog.AddShards(mcSeqno, shardTips); err != nil {
		return err
	}
	if err := i.journal.SetWatermark(ctx, master.header.BlockIDExt); err != nil {
		return fmt.Errorf("set watermark: %w", err)
	}
	watermark := master.header.BlockIDExt
	i.watermark = &watermark
	slog.Info("masterchain block ingested", "seqno", mcSeqno, "shard_blocks", len(shardBlocks))
	return nil
}

// fetchNewShardBlocks walks each shard tip's prev-links until a catalogued
// block (or the depth cap) is met and fetches everything new. Tips fan out
// concurrently; splits and merges are absorbed by the walk because a merged
// block simply has two prev-links onto different chains.
func (i *Indexer) fetchNewShardBlocks(ctx context.Context, tips []ton.BlockIDExt) ([]fetched, error) {
	var (
		mu      sync.Mutex
		results []fetched
		seen    = make(map[ton.BlockIDExt]struct{})
	)
	claim := func(id ton.BlockIDExt) bool {
		mu.Lock()
		defer mu.Unlock()
		if _, ok := seen[id]; ok {
			return false
		}
		seen[id] = struct{}{}
		return true
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, tip := range tips {
		g.Go(func() error {
			queue := []ton.BlockIDExt{tip}
			for depth := 0; len(queue) > 0 && depth < i.opts.FanoutDepth; depth++ {
				id := queue[0]
				queue = queue[1:]
				if i.catalog.Has(id.BlockID) || !claim(id) {
					continue
				}
				blk, err := withRetry(gctx, func() (fetched, error) {
					header, txs, err := i.blockchain.GetBlock(gctx, id)
					return fetched{header: header, txs: txs}, err
				})
				if err != nil {
					return err
				}
				mu.Lock()
				results = append(results, blk)
				mu.Unlock()
				queue = append(queue, blk.header.PrevBlocks...)
			}
			if len(queue) > 0 {
				var pending int
				for _, id := range queue {
					if !i.catalog.Has(id.BlockID) {
						pending++
					}
				}
				if pending > 0 {
					slog.Warn("shard block walk stopped at depth cap",
						"tip", tip.String(), "pending", pending, "depth", i.opts.FanoutDepth)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func withRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	return retry.DoWithData(fn,
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}
