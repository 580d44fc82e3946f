package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/txsociety/mentat/internal/config"
	"github.com/txsociety/mentat/pkg/api"
	"github.com/txsociety/mentat/pkg/blockchain"
	"github.com/txsociety/mentat/pkg/catalog"
	"github.com/txsociety/mentat/pkg/db"
	"github.com/txsociety/mentat/pkg/indexer"
	"github.com/txsociety/mentat/pkg/resolver"
	"github.com/txsociety/mentat/pkg/txindex"
	"google.golang.org/grpc"
)

var Version = "dev"

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))
	slog.Info("running ledger query service", "version", Version, "log level", cfg.LogLevel.String())

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	wg := new(sync.WaitGroup)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	dbClient, err := db.New(ctx, cfg.PostgresURI)
	if err != nil {
		slog.Error("db connection", "error", err)
		os.Exit(1)
	}
	cancel()

	ctx, cancel = context.WithCancel(context.Background())

	blockCatalog := catalog.New()
	txIndex := txindex.New(blockCatalog)

	bcClient, err := blockchain.New(cfg.LiteServers)
	if err != nil {
		slog.Error("blockchain connection", "error", err)
		os.Exit(1)
	}

	indexerProc := indexer.New(bcClient, dbClient, blockCatalog, txIndex, indexer.Options{
		StartSeqno:   cfg.StartSeqno,
		PollInterval: cfg.PollInterval,
		FanoutDepth:  cfg.FanoutDepth,
	})

	ctx1, cancel1 := context.WithTimeout(context.Background(), 60*time.Second)
	err = indexerProc.Replay(ctx1)
	cancel1()
	if err != nil {
		slog.Error("journal replay", "error", err)
		os.Exit(1)
	}
	indexerProc.Run(ctx, wg)

	blockResolver := resolver.New(blockCatalog, txIndex)
	server := api.NewServer(blockResolver, blockCatalog, txIndex, bcClient)

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			api.RecoverUnaryInterceptor(),
			api.AuthUnaryInterceptor(cfg.Token),
		),
		grpc.ChainStreamInterceptor(
			api.RecoverStreamInterceptor(),
			api.AuthStreamInterceptor(cfg.Token),
		),
	)
	server.Register(grpcServer)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%v", cfg.Port))
	if err != nil {
		slog.Error("listen", "error", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("running api server", "port", cfg.Port)
		err := grpcServer.Serve(listener)
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			slog.Error("grpc serve", "error", err)
			os.Exit(1)
		}
	}()

	sig := <-ch
	slog.Info("shut down", "signal", sig.String())
	grpcServer.GracefulStop()
	slog.Info("api stopped")
	cancel()
	wg.Wait()
	dbClient.Close()
}
