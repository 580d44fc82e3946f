package api

import (
	"context"

	"google.golang.org/grpc"
)

const (
	accountServiceName = "ton.AccountService"
	blockServiceName   = "ton.BlockService"
	messageServiceName = "ton.MessageService"
)

// AccountServiceServer answers account queries pinned to one resolved block.
type AccountServiceServer interface {
	GetAccountState(context.Context, *GetAccountStateRequest) (*GetAccountStateResponse, error)
	GetShardAccountCell(context.Context, *GetShardAccountCellRequest) (*GetShardAccountCellResponse, error)
	GetAccountTransactions(*GetAccountTransactionsRequest, grpc.ServerStream) error
}

// BlockServiceServer answers block-scoped queries.
type BlockServiceServer interface {
	GetLastBlock(context.Context, *GetLastBlockRequest) (*BlockIdExt, error)
	GetBlock(context.Context, *GetBlockRequest) (*BlockIdExt, error)
	GetBlockHeader(context.Context, *GetBlockHeaderRequest) (*BlocksHeader, error)
	GetShards(context.Context, *GetShardsRequest) (*GetShardsResponse, error)
	GetTransactionIds(*GetTransactionIdsRequest, grpc.ServerStream) error
	GetTransactions(*GetTransactionsRequest, grpc.ServerStream) error
	GetAccountAddresses(*GetAccountAddressesRequest, grpc.ServerStream) error
}

// MessageServiceServer relays outbound message bodies to the ledger.
type MessageServiceServer interface {
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
}

func RegisterAccountServiceServer(s *grpc.Server, srv AccountServiceServer) {
	s.RegisterService(&accountServiceDesc, srv)
}

func RegisterBlockServiceServer(s *grpc.Server, srv BlockServiceServer) {
	s.RegisterService(&blockServiceDesc, srv)
}

func RegisterMessageServiceServer(s *grpc.Server, srv MessageServiceServer) {
	s.RegisterService(&messageServiceDesc, srv)
}

// --- Handler functions ---

func handlerGetAccountState(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetAccountStateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(AccountServiceServer).GetAccountState(ctx, req)
}

func handlerGetShardAccountCell(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetShardAccountCellRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(AccountServiceServer).GetShardAccountCell(ctx, req)
}

func handlerGetAccountTransactions(srv any, stream grpc.ServerStream) error {
	req := new(GetAccountTransactionsRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(AccountServiceServer).GetAccountTransactions(req, stream)
}

func handlerGetLastBlock(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetLastBlockRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(BlockServiceServer).GetLastBlock(ctx, req)
}

func handlerGetBlock(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetBlockRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(BlockServiceServer).GetBlock(ctx, req)
}

func handlerGetBlockHeader(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetBlockHeaderRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(BlockServiceServer).GetBlockHeader(ctx, req)
}

func handlerGetShards(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetShardsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(BlockServiceServer).GetShards(ctx, req)
}

func handlerGetTransactionIds(srv any, stream grpc.ServerStream) error {
	req := new(GetTransactionIdsRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(BlockServiceServer).GetTransactionIds(req, stream)
}

func handlerGetTransactions(srv any, stream grpc.ServerStream) error {
	req := new(GetTransactionsRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(BlockServiceServer).GetTransactions(req, stream)
}

func handlerGetAccountAddresses(srv any, stream grpc.ServerStream) error {
	req := new(GetAccountAddressesRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(BlockServiceServer).GetAccountAddresses(req, stream)
}

func handlerSendMessage(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(SendMessageRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(MessageServiceServer).SendMessage(ctx, req)
}

var accountServiceDesc = grpc.ServiceDesc{
	ServiceName: accountServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetAccountState", Handler: handlerGetAccountState},
		{MethodName: "GetShardAccountCell", Handler: handlerGetShardAccountCell},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "GetAccountTransactions",
			Handler:       handlerGetAccountTransactions,
			ServerStreams: true,
		},
	},
	Metadata: "ton/account.proto",
}

var blockServiceDesc = grpc.ServiceDesc{
	ServiceName: blockServiceName,
	HandlerType: (*BlockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetLastBlock", Handler: handlerGetLastBlock},
		{MethodName: "GetBlock", Handler: handlerGetBlock},
		{MethodName: "GetBlockHeader", Handler: handlerGetBlockHeader},
		{MethodName: "GetShards", Handler: handlerGetShards},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "GetTransactionIds",
			Handler:       handlerGetTransactionIds,
			ServerStreams: true,
		},
		{
			StreamName:    "GetTransactions",
			Handler:       handlerGetTransactions,
			ServerStreams: true,
		},
		{
			StreamName:    "GetAccountAddresses",
			Handler:       handlerGetAccountAddresses,
			ServerStreams: true,
		},
	},
	Metadata: "ton/block.proto",
}

var messageServiceDesc = grpc.ServiceDesc{
	ServiceName: messageServiceName,
	HandlerType: (*MessageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendMessage", Handler: handlerSendMessage},
	},
	Metadata: "ton/message.proto",
}
