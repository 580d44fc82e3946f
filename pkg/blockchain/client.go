// Package blockchain adapts the liteserver API to the query engine: pinned
// account state reads, full block fetches for ingestion and relay of
// outbound message bodies. Everything here is a read of already-validated
// ledger data except SendMessage, which forwards bytes untouched.
package blockchain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/config"
	"github.com/tonkeeper/tongo/liteapi"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
	"github.com/txsociety/mentat/pkg/shards"
)

type Client struct {
	connection *liteapi.Client
}

func New(ls []config.LiteServer) (*Client, error) {
	options := make([]liteapi.Option, 0)
	if len(ls) > 0 {
		options = append(options, liteapi.WithLiteServers(ls))
		options = append(options, liteapi.WithMaxConnectionsNumber(len(ls)))
	} else {
		options = append(options, liteapi.Mainnet())
		slog.Warn("liteservers are not set, retrieving liteservers from global config")
	}
	api, err := liteapi.NewClient(options...)
	if err != nil {
		return nil, err
	}
	return &Client{connection: api}, nil
}

// GetMasterchainHead returns the current masterchain tip.
func (c *Client) GetMasterchainHead(ctx context.Context) (ton.BlockIDExt, error) {
	info, err := c.connection.GetMasterchainInfo(ctx)
	if err != nil {
		return ton.BlockIDExt{}, unavailable("get masterchain info", err)
	}
	return info.Last.ToBlockIdExt(), nil
}

// GetBlock fetches one block and converts its header and every transaction
// committed in it.
func (c *Client) GetBlock(ctx context.Context, id ton.BlockIDExt) (core.BlockHeader, []core.Transaction, error) {
	block, err := c.connection.GetBlock(ctx, id)
	if err != nil {
		return core.BlockHeader{}, nil, unavailable(fmt.Sprintf("get block %s", id.String()), err)
	}
	header, err := convertHeader(id, block)
	if err != nil {
		return core.BlockHeader{}, nil, err
	}
	var txs []core.Transaction
	for _, tx := range block.AllTransactions() {
		converted, err := convertTransaction(id, *tx)
		if err != nil {
			return core.BlockHeader{}, nil, fmt.Errorf("convert transaction of block %s: %w", id.String(), err)
		}
		txs = append(txs, converted)
	}
	return header, txs, nil
}

// GetShards enumerates the shard blocks referenced by a masterchain block.
func (c *Client) GetShards(ctx context.Context, master ton.BlockIDExt) ([]ton.BlockIDExt, error) {
	blocks, err := c.connection.GetAllShardsInfo(ctx, master)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("get shards of %s", master.String()), err)
	}
	return blocks, nil
}

// GetAccountState reads one account's state at the pinned block. An account
// the ledger has never seen comes back uninitialized with zero balance, not
// as an error.
func (c *Client) GetAccountState(ctx context.Context, accountID ton.AccountID, pinned ton.BlockIDExt) (core.AccountState, error) {
	shardAcc, err := c.connection.WithBlock(pinned).GetAccountState(ctx, accountID)
	if err != nil {
		return core.AccountState{}, unavailable(fmt.Sprintf("get account state of %s", accountID.ToRaw()), err)
	}
	return convertAccountState(accountID, pinned, shardAcc)
}

// GetAccountCell reads one account's state at the pinned block and returns
// it re-serialized as a bag of cells.
func (c *Client) GetAccountCell(ctx context.Context, accountID ton.AccountID, pinned ton.BlockIDExt) ([]byte, error) {
	shardAcc, err := c.connection.WithBlock(pinned).GetAccountState(ctx, accountID)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("get account state of %s", accountID.ToRaw()), err)
	}
	cell := boc.NewCell()
	if err := tlb.Marshal(cell, shardAcc.Account); err != nil {
		return nil, fmt.Errorf("marshal account state of %s: %w", accountID.ToRaw(), err)
	}
	return cell.ToBoc()
}

// SendMessage relays a serialized external message to the ledger and
// returns the content hash of its root cell. The hash addresses the body,
// it does not confirm inclusion.
func (c *Client) SendMessage(ctx context.Context, payload []byte) (ton.Bits256, error) {
	cells, err := boc.DeserializeBoc(payload)
	if err != nil || len(cells) != 1 {
		return ton.Bits256{}, fmt.Errorf("%w: message body is not a single-root bag of cells", core.ErrInvalidArgument)
	}
	hash, err := cells[0].Hash()
	if err != nil {
		return ton.Bits256{}, fmt.Errorf("%w: malformed message body", core.ErrInvalidArgument)
	}
	if _, err := c.connection.SendMessage(ctx, payload); err != nil {
		return ton.Bits256{}, unavailable("send message", err)
	}
	return ton.Bits256(hash), nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, core.ErrUnavailable)
}

func convertHeader(id ton.BlockIDExt, block tlb.Block) (core.BlockHeader, error) {
	info := block.Info
	header := core.BlockHeader{
		BlockIDExt:             id,
		StartLt:                info.StartLt,
		EndLt:                  info.EndLt,
		GlobalID:               block.GlobalId,
		GenUtime:               info.GenUtime,
		Version:                info.Version,
		CatchainSeqno:          info.GenCatchainSeqno,
		MinRefMcSeqno:          info.MinRefMcSeqno,
		PrevKeyBlockSeqno:      info.PrevKeyBlockSeqno,
		ValidatorListHashShort: info.GenValidatorListHashShort,
		WantMerge:              info.WantMerge,
		WantSplit:              info.WantSplit,
		AfterMerge:             info.AfterMerge,
		AfterSplit:             info.AfterSplit,
		BeforeSplit:            info.BeforeSplit,
		IsKeyBlock:             info.KeyBlock,
	}
	parents, err := ton.GetParents(info)
	if err != nil {
		return core.BlockHeader{}, fmt.Errorf("prev blocks of %s: %w", id.String(), err)
	}
	header.PrevBlocks = parents
	if info.MasterRef != nil {
		ref := info.MasterRef.Master
		master := ton.BlockIDExt{
			BlockID:  ton.BlockID{Workchain: shards.MasterchainID, Shard: shards.FullShard, Seqno: ref.SeqNo},
			RootHash: ton.Bits256(ref.RootHash),
			FileHash: ton.Bits256(ref.FileHash),
		}
		header.MasterRef = &master
	}
	return header, nil
}

func convertTransaction(block ton.BlockIDExt, tx tlb.Transaction) (core.Transaction, error) {
	cell := boc.NewCell()
	if err := tlb.Marshal(cell, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("marshal transaction: %w", err)
	}
	data, err := cell.ToBoc()
	if err != nil {
		return core.Transaction{}, err
	}
	transaction := core.Transaction{
		Account:     ton.AccountID{Workchain: block.Workchain, Address: ton.Bits256(tx.AccountAddr)},
		Lt:          tx.Lt,
		Hash:        ton.Bits256(tx.Hash()),
		PrevTxHash:  ton.Bits256(tx.PrevTransHash),
		PrevTxLt:    tx.PrevTransLt,
		Block:       block,
		Utime:       tx.Now,
		Success:     tx.IsSuccess(),
		Data:        data,
		TotalFees:   uint64(tx.TotalFees.Grams),
		StorageFees: storageFees(tx),
	}
	if tx.Msgs.InMsg.Exists {
		m := convertMessage(tx.Msgs.InMsg.Value.Value)
		transaction.InMessage = &m
	}
	for _, m := range tx.Msgs.OutMsgs.Values() {
		transaction.OutMessages = append(transaction.OutMessages, convertMessage(m.Value))
	}
	return transaction, nil
}

func storageFees(tx tlb.Transaction) uint64 {
	switch tx.Description.SumType {
	case "TransOrd":
		if ph := tx.Description.TransOrd.StoragePh; ph.Exists {
			return uint64(ph.Value.StorageFeesCollected)
		}
	case "TransTickTock":
		return uint64(tx.Description.TransTickTock.StoragePh.StorageFeesCollected)
	case "TransStorage":
		return uint64(tx.Description.TransStorage.StoragePh.StorageFeesCollected)
	}
	return 0
}

func convertMessage(m tlb.Message) core.Message {
	message := core.Message{
		Type:            string(m.Info.SumType),
		Hash:            ton.Bits256(m.Hash(true)),
		ExtraCurrencies: make(map[uint32]tlb.VarUInteger32),
	}
	switch m.Info.SumType {
	case "IntMsgInfo":
		a, _ := ton.AccountIDFromTlb(m.Info.IntMsgInfo.Src)
		message.Source = a
		a, _ = ton.AccountIDFromTlb(m.Info.IntMsgInfo.Dest)
		message.Destination = a
		message.Value = uint64(m.Info.IntMsgInfo.Value.Grams)
		for _, item := range m.Info.IntMsgInfo.Value.Other.Dict.Items() {
			message.ExtraCurrencies[uint32(item.Key)] = item.Value
		}
		message.FwdFee = uint64(m.Info.IntMsgInfo.FwdFee)
		message.IhrFee = uint64(m.Info.IntMsgInfo.IhrFee)
		message.CreatedLt = m.Info.IntMsgInfo.CreatedLt
	case "ExtInMsgInfo":
		a, _ := ton.AccountIDFromTlb(m.Info.ExtInMsgInfo.Dest)
		message.Destination = a
	case "ExtOutMsgInfo":
		a, _ := ton.AccountIDFromTlb(m.Info.ExtOutMsgInfo.Src)
		message.Source = a
		message.CreatedLt = m.Info.ExtOutMsgInfo.CreatedLt
	}
	if m.Init.Exists {
		cell := boc.NewCell()
		if err := tlb.Marshal(cell, m.Init.Value.Value); err == nil {
			if raw, err := cell.ToBoc(); err == nil {
				message.InitState = raw
			}
		}
	}
	body := boc.Cell(m.Body.Value)
	if body.BitsAvailableForRead()+body.RefsAvailableForRead() == 0 {
		return message // empty body
	}
	b := body.CopyRemaining()
	h, err := b.Hash()
	if err != nil {
		return message
	}
	message.BodyHash = ton.Bits256(h)
	raw, err := b.ToBoc()
	if err != nil {
		return message
	}
	message.Body = raw
	if text, ok := decodeTextComment(body.CopyRemaining()); ok {
		message.Text = &text
	}
	return message
}

// decodeTextComment recognizes the standard plain text convention: a zero
// 32-bit opcode followed by a snake-encoded UTF-8 string.
func decodeTextComment(body *boc.Cell) (string, bool) {
	if body.BitsAvailableForRead() < 32 {
		return "", false
	}
	op, err := body.ReadUint(32)
	if err != nil || op != 0 {
		return "", false
	}
	var text tlb.Text
	if err := tlb.Unmarshal(body, &text); err != nil {
		return "", false
	}
	return string(text), true
}
