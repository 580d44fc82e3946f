package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
)

// blockRef is the JSON shape of a block reference inside jsonb columns.
// Shard is kept as a decimal string: its top bit does not survive a trip
// through a signed JSON number.
type blockRef struct {
	Workchain int32  `json:"workchain"`
	Shard     string `json:"shard"`
	Seqno     uint32 `json:"seqno"`
	RootHash  string `json:"root_hash"`
	FileHash  string `json:"file_hash"`
}

func toBlockRef(id ton.BlockIDExt) blockRef {
	return blockRef{
		Workchain: id.Workchain,
		Shard:     strconv.FormatUint(id.Shard, 10),
		Seqno:     id.Seqno,
		RootHash:  id.RootHash.Hex(),
		FileHash:  id.FileHash.Hex(),
	}
}

func (r blockRef) toBlockIDExt() (ton.BlockIDExt, error) {
	shard, err := strconv.ParseUint(r.Shard, 10, 64)
	if err != nil {
		return ton.BlockIDExt{}, fmt.Errorf("invalid shard %q: %w", r.Shard, err)
	}
	id := ton.BlockIDExt{BlockID: ton.BlockID{Workchain: r.Workchain, Shard: shard, Seqno: r.Seqno}}
	if id.RootHash, err = core.ParseHash(r.RootHash); err != nil {
		return ton.BlockIDExt{}, err
	}
	if id.FileHash, err = core.ParseHash(r.FileHash); err != nil {
		return ton.BlockIDExt{}, err
	}
	return id, nil
}

// SaveBlock journals one ingested block header. Re-inserting a known block
// is a no-op, so replaying a crashed ingestion batch is safe.
func (c *Connection) SaveBlock(ctx context.Context, h core.BlockHeader, mcSeqno uint32) error {
	prev := make([]blockRef, len(h.PrevBlocks))
	for i, p := range h.PrevBlocks {
		prev[i] = toBlockRef(p)
	}
	prevBytes, err := json.Marshal(prev)
	if err != nil {
		return err
	}
	var masterBytes []byte
	if h.MasterRef != nil {
		masterBytes, err = json.Marshal(toBlockRef(*h.MasterRef))
		if err != nil {
			return err
		}
	}
	_, err = c.postgres.Exec(ctx, `
		INSERT INTO mentat.blocks
		(workchain, shard, seqno, root_hash, file_hash, mc_seqno,
		 start_lt, end_lt, global_id, gen_utime, version, catchain_seqno,
		 min_ref_mc_seqno, prev_key_block_seqno, validator_list_hash_short,
		 want_merge, want_split, after_merge, after_split, before_split, key_block,
		 master_ref, prev_blocks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (workchain, shard, seqno) DO NOTHING`,
		h.Workchain, int64(h.Shard), h.Seqno, h.RootHash, h.FileHash, mcSeqno,
		int64(h.StartLt), int64(h.EndLt), h.GlobalID, h.GenUtime, h.Version, h.CatchainSeqno,
		h.MinRefMcSeqno, h.PrevKeyBlockSeqno, h.ValidatorListHashShort,
		h.WantMerge, h.WantSplit, h.AfterMerge, h.AfterSplit, h.BeforeSplit, h.IsKeyBlock,
		masterBytes, prevBytes)
	return err
}

// ReplayBlocks feeds every journaled block header to fn in insertion order.
func (c *Connection) ReplayBlocks(ctx context.Context, fn func(core.BlockHeader) error) error {
	rows, err := c.postgres.Query(ctx, `
		SELECT workchain, shard, seqno, root_hash, file_hash,
		       start_lt, end_lt, global_id, gen_utime, version, catchain_seqno,
		       min_ref_mc_seqno, prev_key_block_seqno, validator_list_hash_short,
		       want_merge, want_split, after_merge, after_split, before_split, key_block,
		       master_ref, prev_blocks
		FROM mentat.blocks ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			h                     core.BlockHeader
			shard, startLt, endLt int64
			masterBytes           []byte
			prevBytes             []byte
		)
		err := rows.Scan(&h.Workchain, &shard, &h.Seqno, &h.RootHash, &h.FileHash,
			&startLt, &endLt, &h.GlobalID, &h.GenUtime, &h.Version, &h.CatchainSeqno,
			&h.MinRefMcSeqno, &h.PrevKeyBlockSeqno, &h.ValidatorListHashShort,
			&h.WantMerge, &h.WantSplit, &h.AfterMerge, &h.AfterSplit, &h.BeforeSplit, &h.IsKeyBlock,
			&masterBytes, &prevBytes)
		if err != nil {
			return err
		}
		h.Shard = uint64(shard)
		h.StartLt = uint64(startLt)
		h.EndLt = uint64(endLt)
		var prev []blockRef
		if err := json.Unmarshal(prevBytes, &prev); err != nil {
			return err
		}
		for _, p := range prev {
			id, err := p.toBlockIDExt()
			if err != nil {
				return err
			}
			h.PrevBlocks = append(h.PrevBlocks, id)
		}
		if len(masterBytes) > 0 {
			var ref blockRef
			if err := json.Unmarshal(masterBytes, &ref); err != nil {
				return err
			}
			id, err := ref.toBlockIDExt()
			if err != nil {
				return err
			}
			h.MasterRef = &id
		}
		if err := fn(h); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SaveShards journals the shard set referenced by a masterchain block.
func (c *Connection) SaveShards(ctx context.Context, mcSeqno uint32, blocks []ton.BlockIDExt) error {
	for i, b := range blocks {
		_, err := c.postgres.Exec(ctx, `
			INSERT INTO mentat.shards
			(mc_seqno, position, workchain, shard, seqno, root_hash, file_hash)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (mc_seqno, position) DO NOTHING`,
			mcSeqno, i, b.Workchain, int64(b.Shard), b.Seqno, b.RootHash, b.FileHash)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplayShards feeds every journaled (masterchain seqno, shard set) pair to
// fn, ascending by masterchain seqno.
func (c *Connection) ReplayShards(ctx context.Context, fn func(uint32, []ton.BlockIDExt) error) error {
	rows, err := c.postgres.Query(ctx, `
		SELECT mc_seqno, workchain, shard, seqno, root_hash, file_hash
		FROM mentat.shards ORDER BY mc_seqno, position`)
	if err != nil {
		return err
	}
	defer rows.Close()
	var (
		current uint32
		set     []ton.BlockIDExt
	)
	flush := func() error {
		if len(set) == 0 {
			return nil
		}
		err := fn(current, set)
		set = nil
		return err
	}
	for rows.Next() {
		var (
			mcSeqno uint32
			b       ton.BlockIDExt
			shard   int64
		)
		if err := rows.Scan(&mcSeqno, &b.Workchain, &shard, &b.Seqno, &b.RootHash, &b.FileHash); err != nil {
			return err
		}
		b.Shard = uint64(shard)
		if mcSeqno != current {
			if err := flush(); err != nil {
				return err
			}
			current = mcSeqno
		}
		set = append(set, b)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return flush()
}

// GetWatermark returns the last fully ingested masterchain block, or nil on
// a fresh database.
func (c *Connection) GetWatermark(ctx context.Context) (*ton.BlockIDExt, error) {
	blockID := ton.BlockIDExt{
		BlockID: ton.BlockID{
			Workchain: -1,
			Shard:     0x8000000000000000,
		},
	}
	err := c.postgres.QueryRow(ctx, `
		SELECT seqno, root_hash, file_hash
		FROM mentat.watermark
		WHERE id = 1`).Scan(&blockID.Seqno, &blockID.RootHash, &blockID.FileHash)
	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &blockID, nil
}

// SetWatermark records a masterchain block as fully ingested: its header,
// shard set and transactions are all journaled.
func (c *Connection) SetWatermark(ctx context.Context, block ton.BlockIDExt) error {
	if block.Workchain != -1 || block.Shard != 0x8000000000000000 {
		return errors.New("only a masterchain block can be the watermark")
	}
	_, err := c.postgres.Exec(ctx, `
		INSERT INTO mentat.watermark
		(id, seqno, root_hash, file_hash)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET seqno = $1, root_hash = $2, file_hash = $3`,
		block.Seqno, block.RootHash, block.FileHash)
	return err
}
