package api

// Wire structs of the gRPC surface. Field names mirror the upstream schema
// in snake_case; lt, shard and balance ride as strings because their values
// do not survive JSON number precision.

type BlockId struct {
	Workchain int32  `json:"workchain"`
	Shard     uint64 `json:"shard,string"`
	Seqno     uint32 `json:"seqno"`
	RootHash  string `json:"root_hash,omitempty"`
	FileHash  string `json:"file_hash,omitempty"`
}

type BlockIdExt struct {
	Workchain int32  `json:"workchain"`
	Shard     uint64 `json:"shard,string"`
	Seqno     uint32 `json:"seqno"`
	RootHash  string `json:"root_hash"`
	FileHash  string `json:"file_hash"`
}

type PartialTransactionId struct {
	Lt   uint64 `json:"lt,string"`
	Hash string `json:"hash"`
}

type TransactionId struct {
	AccountAddress string `json:"account_address"`
	Lt             uint64 `json:"lt,string"`
	Hash           string `json:"hash"`
}

// Message body variants; exactly one is set.
type MessageData struct {
	Raw       *RawMessageData `json:"raw,omitempty"`
	Text      string          `json:"text,omitempty"`
	Decrypted string          `json:"decrypted,omitempty"`
	Encrypted string          `json:"encrypted,omitempty"`
}

type RawMessageData struct {
	Body      string `json:"body"`
	InitState string `json:"init_state,omitempty"`
}

type Message struct {
	Source      string       `json:"source,omitempty"`
	Destination string       `json:"destination,omitempty"`
	Value       uint64       `json:"value,string"`
	FwdFee      uint64       `json:"fwd_fee,string"`
	IhrFee      uint64       `json:"ihr_fee,string"`
	CreatedLt   uint64       `json:"created_lt,string"`
	BodyHash    string       `json:"body_hash,omitempty"`
	MsgData     *MessageData `json:"msg_data,omitempty"`
}

type Transaction struct {
	Id         TransactionId `json:"id"`
	Utime      uint32        `json:"utime"`
	Data       string        `json:"data"`
	Fee        uint64        `json:"fee,string"`
	StorageFee uint64        `json:"storage_fee,string"`
	OtherFee   uint64        `json:"other_fee,string"`
	InMsg      *Message      `json:"in_msg,omitempty"`
	OutMsgs    []Message     `json:"out_msgs,omitempty"`
}

// Range bound of an account transaction query.
type Bound struct {
	Type          string                `json:"type"` // INCLUDED | EXCLUDED
	BlockId       *BlockId              `json:"block_id,omitempty"`
	TransactionId *PartialTransactionId `json:"transaction_id,omitempty"`
}

type GetAccountStateRequest struct {
	AccountAddress string                `json:"account_address"`
	BlockId        *BlockId              `json:"block_id,omitempty"`
	TransactionId  *PartialTransactionId `json:"transaction_id,omitempty"`
	AtLeastBlockId *BlockId              `json:"at_least_block_id,omitempty"`
}

type ActiveAccountState struct {
	Code string `json:"code,omitempty"`
	Data string `json:"data,omitempty"`
}

type FrozenAccountState struct {
	FrozenHash string `json:"frozen_hash"`
}

type UninitializedAccountState struct{}

type GetAccountStateResponse struct {
	Balance           int64                      `json:"balance,string"`
	BlockId           BlockIdExt                 `json:"block_id"`
	LastTransactionId *PartialTransactionId      `json:"last_transaction_id,omitempty"`
	Active            *ActiveAccountState        `json:"active,omitempty"`
	Frozen            *FrozenAccountState        `json:"frozen,omitempty"`
	Uninitialized     *UninitializedAccountState `json:"uninitialized,omitempty"`
}

type GetShardAccountCellRequest struct {
	AccountAddress string                `json:"account_address"`
	BlockId        *BlockId              `json:"block_id,omitempty"`
	TransactionId  *PartialTransactionId `json:"transaction_id,omitempty"`
	AtLeastBlockId *BlockId              `json:"at_least_block_id,omitempty"`
}

type GetShardAccountCellResponse struct {
	Cell    string     `json:"cell"`
	BlockId BlockIdExt `json:"block_id"`
}

type GetAccountTransactionsRequest struct {
	AccountAddress string `json:"account_address"`
	Order          string `json:"order"` // UNORDERED | FROM_NEW_TO_OLD | FROM_OLD_TO_NEW
	From           *Bound `json:"from,omitempty"`
	To             *Bound `json:"to,omitempty"`
}

type GetLastBlockRequest struct{}

type GetBlockRequest struct {
	BlockId BlockId `json:"block_id"`
}

type GetBlockHeaderRequest struct {
	BlockId BlockId `json:"block_id"`
}

type BlocksHeader struct {
	Id                     BlockIdExt   `json:"id"`
	GlobalId               int32        `json:"global_id"`
	Version                uint32       `json:"version"`
	WantMerge              bool         `json:"want_merge"`
	WantSplit              bool         `json:"want_split"`
	AfterMerge             bool         `json:"after_merge"`
	AfterSplit             bool         `json:"after_split"`
	BeforeSplit            bool         `json:"before_split"`
	IsKeyBlock             bool         `json:"is_key_block"`
	GenUtime               uint32       `json:"gen_utime"`
	StartLt                uint64       `json:"start_lt,string"`
	EndLt                  uint64       `json:"end_lt,string"`
	ValidatorListHashShort uint32       `json:"validator_list_hash_short"`
	CatchainSeqno          uint32       `json:"catchain_seqno"`
	MinRefMcSeqno          uint32       `json:"min_ref_mc_seqno"`
	PrevKeyBlockSeqno      uint32       `json:"prev_key_block_seqno"`
	PrevBlocks             []BlockIdExt `json:"prev_blocks,omitempty"`
	MasterRef              *BlockIdExt  `json:"master_ref,omitempty"`
}

type GetShardsRequest struct {
	BlockId BlockId `json:"block_id"`
}

type GetShardsResponse struct {
	Shards []BlockIdExt `json:"shards"`
}

type GetTransactionIdsRequest struct {
	BlockId BlockId `json:"block_id"`
	Order   string  `json:"order"` // UNORDERED | ASC | DESC
}

type GetTransactionsRequest struct {
	BlockId BlockId `json:"block_id"`
	Order   string  `json:"order"`
}

type GetAccountAddressesRequest struct {
	BlockId BlockId `json:"block_id"`
}

type AccountAddress struct {
	AccountAddress string `json:"account_address"`
}

type SendMessageRequest struct {
	Body string `json:"body"` // base64 bag of cells
}

type SendMessageResponse struct {
	Hash string `json:"hash"`
}
