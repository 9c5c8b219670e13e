package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lightlink-network/ll-bridge-tracker/account"
	"github.com/lightlink-network/ll-bridge-tracker/api"
	"github.com/lightlink-network/ll-bridge-tracker/bridge"
	"github.com/lightlink-network/ll-bridge-tracker/config"
	"github.com/lightlink-network/ll-bridge-tracker/database"
	"github.com/lightlink-network/ll-bridge-tracker/ethereum"
	"github.com/lightlink-network/ll-bridge-tracker/lightlink"
	"github.com/lightlink-network/ll-bridge-tracker/tracker"
	"github.com/lmittmann/tint"
)

// Version will be set at build time
var Version = "development"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	Logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(Logger)

	Logger.Info("Starting ll-bridge-tracker ("+Version+")",
		"Go Version", runtime.Version(),
		"Operating System", runtime.GOOS,
		"Architecture", runtime.GOARCH)

	db, err := database.NewDatabase(database.DatabaseOpts{
		URI:          cfg.DatabaseURI,
		DatabaseName: cfg.DatabaseName,
		Logger:       Logger.With("component", "database"),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			Logger.Error("failed to close database", "error", err)
		}
	}()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateIndexes(indexCtx); err != nil {
		Logger.Warn("failed to create database indexes", "error", err)
	}
	cancelIndex()

	l1, err := ethereum.NewClient(ethereum.ClientOpts{
		Endpoint:                cfg.EthereumRPCURL,
		L1StandardBridgeAddress: cfg.L1StandardBridgeAddress,
		LightLinkPortalAddress:  cfg.LightLinkPortalAddress,
		Logger:                  Logger.With("component", "ethereum"),
		PollInterval:            cfg.PollInterval,
		MinGasLimit:             cfg.MinGasLimit,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer l1.Close()

	l2, err := lightlink.NewClient(lightlink.ClientOpts{
		Endpoint:                   cfg.LightLinkRPCURL,
		L2ToL1MessagePasserAddress: cfg.L2ToL1MessagePasserAddress,
		Logger:                     Logger.With("component", "lightlink"),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer l2.Close()

	originChainID := big.NewInt(cfg.OriginChainID)
	if l1.ChainID().Cmp(originChainID) != 0 {
		Logger.Warn("ethereum endpoint is not on the origin chain, deposits are disabled",
			"endpointChainId", l1.ChainID(), "originChainId", originChainID)
	}

	// Gateways always read from the indexer and the L2 chain. They can only
	// submit when the signer is on the origin chain.
	gatewayFactory := func(ctx context.Context, signer account.Signer) (bridge.Gateway, error) {
		opts := bridge.MessengerOpts{
			Index:    db,
			Receipts: l2,
			Logger:   Logger.With("component", "messenger"),
		}
		if s, ok := signer.(*ethereum.Signer); ok && s.ChainID().Cmp(originChainID) == 0 {
			opts.Submitter = l1.NewTransactor(s)
		}
		return bridge.NewMessenger(opts), nil
	}

	scheduler := tracker.NewScheduler(tracker.SchedulerOpts{
		Account:        account.NewContext(originChainID),
		GatewayFactory: gatewayFactory,
		CallTimeout:    cfg.CallTimeout,
		Concurrency:    cfg.ResolverConcurrency,
		Logger:         Logger.With("component", "tracker"),
	})

	var signer account.Signer
	trackedAccount := cfg.Account
	if cfg.PrivateKey != "" {
		s, err := ethereum.NewSigner(cfg.PrivateKey, l1.ChainID())
		if err != nil {
			log.Fatal(err)
		}
		signer = s
		if trackedAccount == (common.Address{}) {
			trackedAccount = s.Address()
		} else if trackedAccount != s.Address() {
			Logger.Warn("signer does not control the tracked account, deposits are disabled",
				"account", trackedAccount.Hex(), "signer", s.Address().Hex())
		}
	}

	if trackedAccount != (common.Address{}) {
		if err := scheduler.SetAccount(trackedAccount); err != nil {
			log.Fatal(err)
		}
	} else {
		Logger.Warn("no account configured, set one with PUT /v1/account")
	}
	scheduler.SetSigner(signer)

	server, err := api.NewServer(api.ServerOpts{
		Logger:     Logger.With("component", "api-server"),
		Port:       cfg.APIPort,
		Tracker:    scheduler,
		Index:      db,
		L1Balances: l1,
		L2Balances: l2,
	})
	if err != nil {
		log.Fatalf("failed to create api server: %v", err)
	}

	// Create context that will be canceled on SIGINT or SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	running := 2
	errChan := make(chan error, running)
	go func() {
		errChan <- server.StartServer(ctx)
	}()
	go func() {
		errChan <- scheduler.Run(ctx, l1, l1)
	}()

	// Wait for either error or signal
	select {
	case err := <-errChan:
		running--
		if err != nil {
			Logger.Error("tracker stopped", "error", err)
		}
		cancel()
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)
		fmt.Println("Shutting down gracefully...")
		cancel() // This will trigger shutdown via context
	}

	// Wait for the api server and the scheduler to finish
	for ; running > 0; running-- {
		select {
		case err := <-errChan:
			if err != nil {
				Logger.Error("error during shutdown", "error", err)
			}
		case <-time.After(15 * time.Second):
			Logger.Error("timed out waiting for shutdown")
			return
		}
	}
}
