package api

import (
	"encoding/base64"
	"fmt"

	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
)

func parseCriteria(blockId *BlockId, txId *PartialTransactionId, atLeast *BlockId) (*core.Criteria, error) {
	c := &core.Criteria{}
	if blockId != nil {
		ref, err := parseBlockRef(blockId)
		if err != nil {
			return nil, err
		}
		c.Block = ref
	}
	if txId != nil {
		id, err := parsePartialTxId(txId)
		if err != nil {
			return nil, err
		}
		c.Tx = id
	}
	if atLeast != nil {
		key := ton.BlockID{Workchain: atLeast.Workchain, Shard: atLeast.Shard, Seqno: atLeast.Seqno}
		c.AtLeast = &key
	}
	return c, nil
}

func parseBlockRef(b *BlockId) (*core.BlockRef, error) {
	ref := &core.BlockRef{
		BlockID: ton.BlockID{Workchain: b.Workchain, Shard: b.Shard, Seqno: b.Seqno},
	}
	if b.RootHash != "" {
		h, err := core.ParseHash(b.RootHash)
		if err != nil {
			return nil, err
		}
		ref.RootHash = &h
	}
	if b.FileHash != "" {
		h, err := core.ParseHash(b.FileHash)
		if err != nil {
			return nil, err
		}
		ref.FileHash = &h
	}
	return ref, nil
}

func parsePartialTxId(id *PartialTransactionId) (*core.TxID, error) {
	hash, err := core.ParseHash(id.Hash)
	if err != nil {
		return nil, err
	}
	return &core.TxID{Lt: id.Lt, Hash: hash}, nil
}

func parseBound(b *Bound) (*core.Bound, error) {
	if b == nil {
		return nil, nil
	}
	bound := &core.Bound{}
	switch b.Type {
	case "", "INCLUDED":
		bound.Type = core.BoundIncluded
	case "EXCLUDED":
		bound.Type = core.BoundExcluded
	default:
		return nil, fmt.Errorf("%w: unknown bound type %q", core.ErrInvalidArgument, b.Type)
	}
	if b.BlockId != nil {
		key := ton.BlockID{Workchain: b.BlockId.Workchain, Shard: b.BlockId.Shard, Seqno: b.BlockId.Seqno}
		bound.Block = &key
	}
	if b.TransactionId != nil {
		id, err := parsePartialTxId(b.TransactionId)
		if err != nil {
			return nil, err
		}
		bound.Tx = id
	}
	return bound, nil
}

func parseOrder(s string) (core.Order, error) {
	switch s {
	case "", "UNORDERED":
		return core.OrderUnordered, nil
	case "FROM_NEW_TO_OLD":
		return core.OrderFromNewToOld, nil
	case "FROM_OLD_TO_NEW":
		return core.OrderFromOldToNew, nil
	default:
		return 0, fmt.Errorf("%w: unknown order %q", core.ErrInvalidArgument, s)
	}
}

func parseListOrder(s string) (core.ListOrder, error) {
	switch s {
	case "", "UNORDERED":
		return core.ListUnordered, nil
	case "ASC":
		return core.ListAsc, nil
	case "DESC":
		return core.ListDesc, nil
	default:
		return 0, fmt.Errorf("%w: unknown order %q", core.ErrInvalidArgument, s)
	}
}

func blockIdExtToWire(id ton.BlockIDExt) BlockIdExt {
	return BlockIdExt{
		Workchain: id.Workchain,
		Shard:     id.Shard,
		Seqno:     id.Seqno,
		RootHash:  id.RootHash.Hex(),
		FileHash:  id.FileHash.Hex(),
	}
}

func headerToWire(h core.BlockHeader) *BlocksHeader {
	header := &BlocksHeader{
		Id:                     blockIdExtToWire(h.BlockIDExt),
		GlobalId:               h.GlobalID,
		Version:                h.Version,
		WantMerge:              h.WantMerge,
		WantSplit:              h.WantSplit,
		AfterMerge:             h.AfterMerge,
		AfterSplit:             h.AfterSplit,
		BeforeSplit:            h.BeforeSplit,
		IsKeyBlock:             h.IsKeyBlock,
		GenUtime:               h.GenUtime,
		StartLt:                h.StartLt,
		EndLt:                  h.EndLt,
		ValidatorListHashShort: h.ValidatorListHashShort,
		CatchainSeqno:          h.CatchainSeqno,
		MinRefMcSeqno:          h.MinRefMcSeqno,
		PrevKeyBlockSeqno:      h.PrevKeyBlockSeqno,
	}
	for _, p := range h.PrevBlocks {
		header.PrevBlocks = append(header.PrevBlocks, blockIdExtToWire(p))
	}
	if h.MasterRef != nil {
		ref := blockIdExtToWire(*h.MasterRef)
		header.MasterRef = &ref
	}
	return header
}

func transactionIdToWire(id core.TransactionID) *TransactionId {
	return &TransactionId{
		AccountAddress: id.Account.ToRaw(),
		Lt:             id.Lt,
		Hash:           id.Hash.Hex(),
	}
}

func transactionToWire(tx core.Transaction) *Transaction {
	wire := &Transaction{
		Id: TransactionId{
			AccountAddress: tx.Account.ToRaw(),
			Lt:             tx.Lt,
			Hash:           tx.Hash.Hex(),
		},
		Utime:      tx.Utime,
		Data:       base64.StdEncoding.EncodeToString(tx.Data),
		Fee:        tx.TotalFees,
		StorageFee: tx.StorageFees,
		OtherFee:   tx.OtherFees(),
	}
	if tx.InMessage != nil {
		wire.InMsg = messageToWire(*tx.InMessage)
	}
	for _, m := range tx.OutMessages {
		wire.OutMsgs = append(wire.OutMsgs, *messageToWire(m))
	}
	return wire
}

func messageToWire(m core.Message) *Message {
	wire := &Message{
		Value:     m.Value,
		FwdFee:    m.FwdFee,
		IhrFee:    m.IhrFee,
		CreatedLt: m.CreatedLt,
	}
	if m.Source != nil {
		wire.Source = m.Source.ToRaw()
	}
	if m.Destination != nil {
		wire.Destination = m.Destination.ToRaw()
	}
	var zero ton.Bits256
	if m.BodyHash != zero {
		wire.BodyHash = m.BodyHash.Hex()
	}
	switch {
	case m.Text != nil:
		wire.MsgData = &MessageData{Text: *m.Text}
	case len(m.Body) > 0 || len(m.InitState) > 0:
		raw := &RawMessageData{Body: base64.StdEncoding.EncodeToString(m.Body)}
		if len(m.InitState) > 0 {
			raw.InitState = base64.StdEncoding.EncodeToString(m.InitState)
		}
		wire.MsgData = &MessageData{Raw: raw}
	}
	return wire
}

func accountStateToWire(state core.AccountState) *GetAccountStateResponse {
	resp := &GetAccountStateResponse{
		Balance: state.Balance,
		BlockId: blockIdExtToWire(state.Block),
	}
	if state.LastTx != nil {
		resp.LastTransactionId = &PartialTransactionId{
			Lt:   state.LastTx.Lt,
			Hash: state.LastTx.Hash.Hex(),
		}
	}
	switch state.Status {
	case core.AccountActive:
		resp.Active = &ActiveAccountState{
			Code: base64.StdEncoding.EncodeToString(state.Code),
			Data: base64.StdEncoding.EncodeToString(state.Data),
		}
	case core.AccountFrozen:
		resp.Frozen = &FrozenAccountState{FrozenHash: state.FrozenHash.Hex()}
	default:
		resp.Uninitialized = &UninitializedAccountState{}
	}
	return resp
}
