package core

import (
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

type TxID struct {
	Lt   uint64
	Hash ton.Bits256
}

// TransactionID fully identifies a transaction: the owning account plus
// the per-account (lt, hash) pair.
type TransactionID struct {
	Account ton.AccountID
	Lt      uint64
	Hash    ton.Bits256
}

// Transaction is one ledger transaction of a single account, pinned to the
// shard block it was committed in.
type Transaction struct {
	Account     ton.AccountID
	Lt          uint64
	Hash        ton.Bits256
	PrevTxLt    uint64
	PrevTxHash  ton.Bits256
	Block       ton.BlockIDExt
	Utime       uint32
	Success     bool
	Data        []byte
	TotalFees   uint64
	StorageFees uint64
	InMessage   *Message
	OutMessages []Message
}

func (t Transaction) ID() TxID {
	return TxID{Lt: t.Lt, Hash: t.Hash}
}

// OtherFees is the non-storage part of the total fee.
func (t Transaction) OtherFees() uint64 {
	if t.TotalFees < t.StorageFees {
		return 0
	}
	return t.TotalFees - t.StorageFees
}

type Message struct {
	Type            string
	Source          *ton.AccountID
	Destination     *ton.AccountID
	Value           uint64
	ExtraCurrencies map[uint32]tlb.VarUInteger32
	FwdFee          uint64
	IhrFee          uint64
	CreatedLt       uint64
	Hash            ton.Bits256
	BodyHash        ton.Bits256
	Body            []byte
	InitState       []byte
	// Text is set instead of a raw body when the body carries a plain
	// text comment (32 zero bits followed by valid UTF-8).
	Text *string
}

type AccountStatus string

const (
	AccountUninitialized AccountStatus = "uninitialized"
	AccountActive        AccountStatus = "active"
	AccountFrozen        AccountStatus = "frozen"
)

// AccountState is a snapshot of one account as of one pinned block.
// LastTx is nil only for accounts never touched as of that block.
type AccountState struct {
	Account    ton.AccountID
	Block      ton.BlockIDExt
	Balance    int64
	LastTx     *TxID
	Status     AccountStatus
	Code       []byte
	Data       []byte
	FrozenHash ton.Bits256
}

// BlockHeader contains information extracted from a block.
type BlockHeader struct {
	ton.BlockIDExt
	MasterRef              *ton.BlockIDExt
	PrevBlocks             []ton.BlockIDExt
	StartLt                uint64
	EndLt                  uint64
	GlobalID               int32
	GenUtime               uint32
	Version                uint32
	CatchainSeqno          uint32
	MinRefMcSeqno          uint32
	PrevKeyBlockSeqno      uint32
	ValidatorListHashShort uint32
	WantMerge              bool
	WantSplit              bool
	AfterMerge             bool
	AfterSplit             bool
	BeforeSplit            bool
	IsKeyBlock             bool
}
