// ====================================
// File: cmd/launchpad/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rmuradev/solana-launchpad/internal/chain"
	"github.com/rmuradev/solana-launchpad/internal/config"
	"github.com/rmuradev/solana-launchpad/internal/dex"
	"github.com/rmuradev/solana-launchpad/internal/jito"
	"github.com/rmuradev/solana-launchpad/internal/launch"
	"github.com/rmuradev/solana-launchpad/internal/logger"
	"github.com/rmuradev/solana-launchpad/internal/token"
	"github.com/rmuradev/solana-launchpad/internal/wallet"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to the configuration file")
	requestPath := flag.String("request", "configs/launch.json", "path to the launch request file")
	estimateOnly := flag.Bool("estimate", false, "print the cost estimate and exit")
	recoverDest := flag.String("recover", "", "sweep remaining funds to this address and exit")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	w, err := wallet.NewWallet(cfg.PrivateKey)
	if err != nil {
		log.Fatal("Failed to load wallet", zap.Error(err))
	}
	log.Info("Wallet loaded", zap.String("pubkey", w.String()))

	client := chain.NewClient(cfg.RPCURL, log.Logger)
	launcher := launch.New(
		client,
		token.NewMinter(client, w.PrivateKey, log.Logger),
		jito.NewSubmitter(
			client,
			jito.NewBundleClient(cfg.JitoRegion, log.Logger),
			jito.NewTipQuoter(cfg.TipFloorURL, cfg.TipFallbackSOL, log.Logger),
			log.Logger,
			jito.Config{
				MaxRetries:     cfg.Retries,
				RetryInterval:  time.Duration(cfg.RetryIntervalMs) * time.Millisecond,
				ConfirmTimeout: time.Duration(cfg.ConfirmTimeoutSec) * time.Second,
			},
		),
		nil, nil,
		w.PrivateKey,
		log.Logger,
	)

	if *recoverDest != "" {
		dest, err := solana.PublicKeyFromBase58(*recoverDest)
		if err != nil {
			log.Fatal("Invalid recovery destination", zap.Error(err))
		}
		sig, err := launcher.RecoverFunds(ctx, dest)
		if err != nil {
			log.Fatal("Recovery failed", zap.Error(err))
		}
		fmt.Println(sig.String())
		return
	}

	req, err := loadRequest(*requestPath, cfg.Network)
	if err != nil {
		log.Fatal("Failed to load launch request", zap.Error(err))
	}

	if *estimateOnly {
		cost, err := launch.EstimateLaunchCost(launch.EstimateRequest{
			Protocol:   dex.ResolveProtocol(req.Dex, req.Strategy),
			SolAmount:  float64(req.SolAmount) / 1e9,
			Tip:        req.Tip,
			MarketMode: req.MarketMode,
			DLMM:       &req.DLMM,
		})
		if err != nil {
			log.Fatal("Estimate failed", zap.Error(err))
		}
		fmt.Printf("estimated launch cost: %.9f SOL\n", cost)
		return
	}

	result, err := launcher.Launch(ctx, req)
	if err != nil {
		log.Fatal("Launch failed",
			zap.String("state", string(result.State)),
			zap.Error(err))
	}

	fmt.Printf("token:     %s\n", result.Token)
	fmt.Printf("pool:      %s\n", result.Pool)
	fmt.Printf("market:    %s\n", result.Market)
	fmt.Printf("strategy:  %s\n", result.Strategy)
	fmt.Printf("signature: %s\n", result.Signature)
}

// loadRequest reads the launch request file; the config's network fills the
// request when the file leaves it out.
func loadRequest(path, network string) (*launch.Request, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var req launch.Request
	if err := v.Unmarshal(&req); err != nil {
		return nil, err
	}
	if req.Network == "" {
		req.Network = network
	}
	return &req, nil
}
