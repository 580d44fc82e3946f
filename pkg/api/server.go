package api

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
	"github.com/txsociety/mentat/pkg/shards"
	"google.golang.org/grpc"
)

// Server implements the three query services over the resolver, the
// catalog, the transaction index and the ledger adapter.
type Server struct {
	resolver resolver
	catalog  catalog
	index    index
	ledger   ledger
}

var (
	_ AccountServiceServer = (*Server)(nil)
	_ BlockServiceServer   = (*Server)(nil)
	_ MessageServiceServer = (*Server)(nil)
)

func NewServer(resolver resolver, catalog catalog, index index, ledger ledger) *Server {
	return &Server{
		resolver: resolver,
		catalog:  catalog,
		index:    index,
		ledger:   ledger,
	}
}

// Register adds all three services to a gRPC server.
func (s *Server) Register(gs *grpc.Server) {
	RegisterAccountServiceServer(gs, s)
	RegisterBlockServiceServer(gs, s)
	RegisterMessageServiceServer(gs, s)
}

// --- ton.AccountService ---

func (s *Server) GetAccountState(ctx context.Context, req *GetAccountStateRequest) (*GetAccountStateResponse, error) {
	account, err := core.ParseAddress(req.AccountAddress)
	if err != nil {
		return nil, statusFromError(err)
	}
	criteria, err := parseCriteria(req.BlockId, req.TransactionId, req.AtLeastBlockId)
	if err != nil {
		return nil, statusFromError(err)
	}
	pinned, err := s.resolver.Resolve(account, criteria)
	if err != nil {
		return nil, statusFromError(err)
	}
	state, err := s.ledger.GetAccountState(ctx, account, pinned)
	if err != nil {
		return nil, statusFromError(err)
	}
	return accountStateToWire(state), nil
}

func (s *Server) GetShardAccountCell(ctx context.Context, req *GetShardAccountCellRequest) (*GetShardAccountCellResponse, error) {
	account, err := core.ParseAddress(req.AccountAddress)
	if err != nil {
		return nil, statusFromError(err)
	}
	criteria, err := parseCriteria(req.BlockId, req.TransactionId, req.AtLeastBlockId)
	if err != nil {
		return nil, statusFromError(err)
	}
	pinned, err := s.resolver.Resolve(account, criteria)
	if err != nil {
		return nil, statusFromError(err)
	}
	cell, err := s.ledger.GetAccountCell(ctx, account, pinned)
	if err != nil {
		return nil, statusFromError(err)
	}
	return &GetShardAccountCellResponse{
		Cell:    base64.StdEncoding.EncodeToString(cell),
		BlockId: blockIdExtToWire(pinned),
	}, nil
}

func (s *Server) GetAccountTransactions(req *GetAccountTransactionsRequest, stream grpc.ServerStream) error {
	account, err := core.ParseAddress(req.AccountAddress)
	if err != nil {
		return statusFromError(err)
	}
	order, err := parseOrder(req.Order)
	if err != nil {
		return statusFromError(err)
	}
	from, err := parseBound(req.From)
	if err != nil {
		return statusFromError(err)
	}
	to, err := parseBound(req.To)
	if err != nil {
		return statusFromError(err)
	}
	cursor, err := s.index.Range(account, from, to, order)
	if err != nil {
		return statusFromError(err)
	}
	// the cursor is dropped on any exit: normal end, send failure or
	// client cancellation all release it
	defer cursor.Close()
	for {
		tx, ok := cursor.Next()
		if !ok {
			return nil
		}
		if err := stream.SendMsg(transactionToWire(tx)); err != nil {
			return err
		}
	}
}

// --- ton.BlockService ---

func (s *Server) GetLastBlock(_ context.Context, _ *GetLastBlockRequest) (*BlockIdExt, error) {
	last, err := s.catalog.Last(shards.MasterchainID, shards.FullShard)
	if err != nil {
		return nil, statusFromError(err)
	}
	wire := blockIdExtToWire(last)
	return &wire, nil
}

func (s *Server) GetBlock(_ context.Context, req *GetBlockRequest) (*BlockIdExt, error) {
	ref, err := parseBlockRef(&req.BlockId)
	if err != nil {
		return nil, statusFromError(err)
	}
	block, err := s.resolver.ResolveBlock(ref)
	if err != nil {
		return nil, statusFromError(err)
	}
	wire := blockIdExtToWire(block)
	return &wire, nil
}

func (s *Server) GetBlockHeader(_ context.Context, req *GetBlockHeaderRequest) (*BlocksHeader, error) {
	ref, err := parseBlockRef(&req.BlockId)
	if err != nil {
		return nil, statusFromError(err)
	}
	block, err := s.resolver.ResolveBlock(ref)
	if err != nil {
		return nil, statusFromError(err)
	}
	header, err := s.catalog.Header(block.Workchain, block.Shard, block.Seqno)
	if err != nil {
		return nil, statusFromError(err)
	}
	return headerToWire(header), nil
}

func (s *Server) GetShards(_ context.Context, req *GetShardsRequest) (*GetShardsResponse, error) {
	if req.BlockId.Workchain != shards.MasterchainID {
		return nil, statusFromError(fmt.Errorf("%w: shards are enumerated per masterchain block", core.ErrInvalidArgument))
	}
	ref, err := parseBlockRef(&req.BlockId)
	if err != nil {
		return nil, statusFromError(err)
	}
	block, err := s.resolver.ResolveBlock(ref)
	if err != nil {
		return nil, statusFromError(err)
	}
	set, err := s.catalog.Shards(block.Seqno)
	if err != nil {
		return nil, statusFromError(err)
	}
	resp := &GetShardsResponse{Shards: make([]BlockIdExt, len(set))}
	for i, b := range set {
		resp.Shards[i] = blockIdExtToWire(b)
	}
	return resp, nil
}

func (s *Server) GetTransactionIds(req *GetTransactionIdsRequest, stream grpc.ServerStream) error {
	block, order, err := s.resolveBlockListing(&req.BlockId, req.Order)
	if err != nil {
		return statusFromError(err)
	}
	ids, err := s.index.BlockTransactionIDs(block, order)
	if err != nil {
		return statusFromError(err)
	}
	for _, id := range ids {
		if err := stream.SendMsg(transactionIdToWire(id)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) GetTransactions(req *GetTransactionsRequest, stream grpc.ServerStream) error {
	block, order, err := s.resolveBlockListing(&req.BlockId, req.Order)
	if err != nil {
		return statusFromError(err)
	}
	txs, err := s.index.BlockTransactions(block, order)
	if err != nil {
		return statusFromError(err)
	}
	for _, tx := range txs {
		if err := stream.SendMsg(transactionToWire(tx)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) GetAccountAddresses(req *GetAccountAddressesRequest, stream grpc.ServerStream) error {
	ref, err := parseBlockRef(&req.BlockId)
	if err != nil {
		return statusFromError(err)
	}
	block, err := s.resolver.ResolveBlock(ref)
	if err != nil {
		return statusFromError(err)
	}
	accounts, err := s.index.BlockAccounts(block.BlockID)
	if err != nil {
		return statusFromError(err)
	}
	for _, a := range accounts {
		if err := stream.SendMsg(&AccountAddress{AccountAddress: a.ToRaw()}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) resolveBlockListing(blockId *BlockId, orderName string) (ton.BlockID, core.ListOrder, error) {
	order, err := parseListOrder(orderName)
	if err != nil {
		return ton.BlockID{}, 0, err
	}
	ref, err := parseBlockRef(blockId)
	if err != nil {
		return ton.BlockID{}, 0, err
	}
	block, err := s.resolver.ResolveBlock(ref)
	if err != nil {
		return ton.BlockID{}, 0, err
	}
	return block.BlockID, order, nil
}

// --- ton.MessageService ---

func (s *Server) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	body, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, statusFromError(fmt.Errorf("%w: message body is not valid base64", core.ErrInvalidArgument))
	}
	hash, err := s.ledger.SendMessage(ctx, body)
	if err != nil {
		return nil, statusFromError(err)
	}
	return &SendMessageResponse{Hash: hash.Hex()}, nil
}
