// Command arbengine runs the real-time two-hop arbitrage engine: bootstrap
// the pool manifest and account cache, subscribe to account/transaction
// pushes, and race a pool of workers against every balance-changing pool,
// submitting profitable cycles as Jito bundles. Grounded on
// _examples/original_source/bin/arb/src/arb_bot.rs's top-level supervised
// task set (load -> bootstrap -> spawn ingestion+workers -> JoinSet, exit
// non-zero on any fatal task exit) and on
// _examples/poaiw-blockchain-paw/cmd/pawd/cmd/root.go's cobra+viper root
// command wiring.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/solroute-arb/arbengine/internal/arb"
	"github.com/solroute-arb/arbengine/internal/bootstrap"
	"github.com/solroute-arb/arbengine/internal/cache"
	"github.com/solroute-arb/arbengine/internal/config"
	"github.com/solroute-arb/arbengine/internal/executor"
	"github.com/solroute-arb/arbengine/internal/graph"
	"github.com/solroute-arb/arbengine/internal/ingest"
	"github.com/solroute-arb/arbengine/internal/logging"
	"github.com/solroute-arb/arbengine/internal/slice"
	"github.com/solroute-arb/arbengine/internal/solclient"
	"github.com/solroute-arb/arbengine/internal/wallet"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const bulkFetchRequestsPerSecond = 40

func main() {
	v := viper.New()
	root := &cobra.Command{
		Use:   "arbengine",
		Short: "real-time two-hop Solana arbitrage engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	config.BindFlags(root, v)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logging.Init(cfg.LogLevel)
	log := logging.For("main")

	entries, err := config.LoadManifest(cfg.DexJSONPath, cfg.FollowMintSet())
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	entries = bootstrap.ResolveFamilies(entries)
	log.WithField("pools", len(entries)).Info("manifest loaded")

	schemas := slice.NewRegistry()
	bootstrap.RegisterSchemas(schemas)

	c := cache.New(bootstrap.SysvarClockPubkey)
	rpcClient := rpc.New(cfg.RPCURL)
	bulkClient := solclient.New(rpcClient, bulkFetchRequestsPerSecond)

	entries, err = bootstrap.Populate(ctx, bulkClient, schemas, c, entries)
	if err != nil {
		return fmt.Errorf("populate cache: %w", err)
	}
	log.WithField("pools", len(entries)).Info("cache populated")

	relations := bootstrap.BuildRelations(entries)
	pools := arb.NewPoolRegistry(entries)
	g := graph.Build(entries, cfg.FollowMintSet())

	signer, err := wallet.LoadKeypair(cfg.KeypairPath, []byte(cfg.KeypairPassword))
	if err != nil {
		return fmt.Errorf("load keypair: %w", err)
	}

	arbMintATA, _, err := solana.FindAssociatedTokenAddress(signer.PublicKey(), cfg.ArbMint)
	if err != nil {
		return fmt.Errorf("derive arb-mint ATA: %w", err)
	}
	meta, err := wallet.New(ctx, rpcClient, arbMintATA)
	if err != nil {
		return fmt.Errorf("init wallet metadata: %w", err)
	}

	exec, err := executor.New(ctx, cfg.JitoEndpoint(), rpcClient, cfg.TipBpsNumerator, cfg.TipBpsDenominator, cfg.StandardProgram)
	if err != nil {
		return fmt.Errorf("init executor: %w", err)
	}

	pipeline := ingest.NewPipeline(c, relations, schemas, cfg.ArbChannelCapacity)
	broadcast := ingest.NewBroadcast(cfg.ArbChannelCapacity)
	subscriber := &ingest.GrpcSubscriber{
		Endpoint: cfg.GRPCURL,
		Decoder:  &ingest.JSONDecoder{Method: cfg.GRPCMethod},
	}

	workerCfg := arb.Config{
		ArbMint:   cfg.ArbMint,
		AmountIn:  cfg.ArbAmountIn,
		MinProfit: cfg.ArbMinProfit,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return meta.RunRefreshers(gctx) })
	group.Go(func() error {
		accounts, txs := pipeline.RawChannels()
		return subscriber.Run(gctx, accounts, txs)
	})
	group.Go(func() error { return pipeline.RunProcessors(gctx, cfg.ProcessorSize, broadcast) })
	group.Go(func() error {
		return arb.RunWorkers(gctx, cfg.ArbSize, broadcast, func(id int) *arb.Worker {
			return &arb.Worker{
				ID:     id,
				Graph:  g,
				Cache:  c,
				Pools:  pools,
				Meta:   meta,
				Exec:   exec,
				Signer: signer,
				Cfg:    workerCfg,
			}
		})
	})

	log.WithFields(map[string]interface{}{
		"workers":    cfg.ArbSize,
		"processors": cfg.ProcessorSize,
	}).Info("arbengine running")

	if err := group.Wait(); err != nil && gctx.Err() == nil {
		return fmt.Errorf("fatal task exit: %w", err)
	}
	return nil
}
