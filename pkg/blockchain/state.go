package blockchain

import (
	"fmt"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
)

// convertAccountState derives the snapshot variant from the raw shard
// account. A missing account is a valid uninitialized state. Balances the
// ledger reports as negative are clamped to zero.
func convertAccountState(accountID ton.AccountID, pinned ton.BlockIDExt, shardAcc tlb.ShardAccount) (core.AccountState, error) {
	state := core.AccountState{
		Account: accountID,
		Block:   pinned,
		Status:  core.AccountUninitialized,
	}
	if shardAcc.Account.SumType == "AccountNone" {
		return state, nil
	}
	if shardAcc.LastTransLt > 0 {
		state.LastTx = &core.TxID{
			Lt:   shardAcc.LastTransLt,
			Hash: ton.Bits256(shardAcc.LastTransHash),
		}
	}
	storage := shardAcc.Account.Account.Storage
	if balance := int64(storage.Balance.Grams); balance > 0 {
		state.Balance = balance
	}
	switch storage.State.SumType {
	case "AccountUninit":
		state.Status = core.AccountUninitialized
	case "AccountFrozen":
		state.Status = core.AccountFrozen
		state.FrozenHash = ton.Bits256(storage.State.AccountFrozen.StateHash)
	case "AccountActive":
		state.Status = core.AccountActive
		init := storage.State.AccountActive.StateInit
		if init.Code.Exists {
			code := boc.Cell(init.Code.Value.Value)
			raw, err := code.ToBoc()
			if err != nil {
				return core.AccountState{}, fmt.Errorf("serialize code of %s: %w", accountID.ToRaw(), err)
			}
			state.Code = raw
		}
		if init.Data.Exists {
			data := boc.Cell(init.Data.Value.Value)
			raw, err := data.ToBoc()
			if err != nil {
				return core.AccountState{}, fmt.Errorf("serialize data of %s: %w", accountID.ToRaw(), err)
			}
			state.Data = raw
		}
	default:
		return core.AccountState{}, fmt.Errorf("unknown account state %q of %s", storage.State.SumType, accountID.ToRaw())
	}
	return state, nil
}
