// Package executor wraps bundle submission (C8's executor glue), grounded
// on _examples/nick199910-SolRoute/pkg/sol/{jito.go,send.go}, rewritten to
// never log.Fatalf on a single submission failure (SPEC_FULL §7: executor
// failure is logged per attempt and never propagated as a process abort)
// and to derive the tip amount from the configured tip bps fraction instead
// of a caller-supplied constant.
package executor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	jitorpc "github.com/jito-labs/jito-go-rpc"
	"github.com/solroute-arb/arbengine/internal/logging"
)

var log = logging.For("executor")

// JitoExecutor submits signed transactions as a tip-bearing bundle.
type JitoExecutor struct {
	bundleClient   *jitorpc.JitoJsonRpcClient
	rpcClient      *rpc.Client
	tipAccount     solana.PublicKey
	tipBpsNum      uint64
	tipBpsDen      uint64
	standardSubmit bool // executor configuration: fall back to plain sendTransaction
}

// New builds a JitoExecutor. When standardSubmit is set, Submit sends the
// main transaction directly instead of bundling it with a tip transaction,
// matching the CLI's "standard program" executor flag.
func New(ctx context.Context, jitoEndpoint string, rpcClient *rpc.Client, tipBpsNum, tipBpsDen uint64, standardSubmit bool) (*JitoExecutor, error) {
	e := &JitoExecutor{rpcClient: rpcClient, tipBpsNum: tipBpsNum, tipBpsDen: tipBpsDen, standardSubmit: standardSubmit}
	if standardSubmit || jitoEndpoint == "" {
		return e, nil
	}
	bundleClient := jitorpc.NewJitoJsonRpcClient(jitoEndpoint, "")
	tip, err := bundleClient.GetRandomTipAccount()
	if err != nil {
		return nil, fmt.Errorf("get random tip account: %w", err)
	}
	tipKey, err := solana.PublicKeyFromBase58(tip.Address)
	if err != nil {
		return nil, fmt.Errorf("parse tip account: %w", err)
	}
	e.bundleClient = bundleClient
	e.tipAccount = tipKey
	return e, nil
}

func createTipTransaction(signer solana.PrivateKey, amount uint64, blockhash solana.Hash, tipAccount solana.PublicKey) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(amount, signer.PublicKey(), tipAccount).Build(),
		},
		blockhash,
		solana.TransactionPayer(signer.PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("build tip transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if signer.PublicKey().Equals(key) {
			return &signer
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign tip transaction: %w", err)
	}
	return tx, nil
}

func encodeTransaction(tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Submit dispatches mainTx, computing the tip from profitAmount * tipBpsNum /
// tipBpsDen. Never returns an error that should abort the process: failures
// are logged and surfaced to the caller only for bookkeeping/metrics.
func (e *JitoExecutor) Submit(ctx context.Context, signer solana.PrivateKey, mainTx *solana.Transaction, profitAmount uint64) (string, error) {
	if e.standardSubmit || e.bundleClient == nil {
		sig, err := e.rpcClient.SendTransactionWithOpts(ctx, mainTx, rpc.TransactionOpts{
			SkipPreflight:       true,
			PreflightCommitment: rpc.CommitmentProcessed,
		})
		if err != nil {
			log.WithError(err).Warn("standard submit failed")
			return "", err
		}
		return sig.String(), nil
	}

	bh, err := e.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		log.WithError(err).Warn("failed to fetch blockhash for tip transaction")
		return "", err
	}

	tipAmount := profitAmount * e.tipBpsNum / e.tipBpsDen
	tipTx, err := createTipTransaction(signer, tipAmount, bh.Value.Blockhash, e.tipAccount)
	if err != nil {
		log.WithError(err).Warn("failed to build tip transaction")
		return "", err
	}

	mainEnc, err := encodeTransaction(mainTx)
	if err != nil {
		log.WithError(err).Warn("failed to encode main transaction")
		return "", err
	}
	tipEnc, err := encodeTransaction(tipTx)
	if err != nil {
		log.WithError(err).Warn("failed to encode tip transaction")
		return "", err
	}

	bundleIDRaw, err := e.bundleClient.SendBundle([][]string{{mainEnc, tipEnc}})
	if err != nil {
		log.WithError(err).Warn("failed to send bundle")
		return "", err
	}
	var bundleID string
	if err := json.Unmarshal(bundleIDRaw, &bundleID); err != nil {
		log.WithError(err).Warn("failed to unmarshal bundle id")
		return "", err
	}
	log.WithField("bundle_id", bundleID).Info("bundle submitted")
	go e.pollBundleStatus(bundleID)
	return bundleID, nil
}

func (e *JitoExecutor) pollBundleStatus(bundleID string) {
	const maxAttempts = 5
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		time.Sleep(5 * time.Second)
		resp, err := e.bundleClient.GetBundleStatuses([]string{bundleID})
		if err != nil {
			log.WithError(err).WithField("attempt", attempt).Debug("bundle status check failed")
			continue
		}
		if len(resp.Value) == 0 {
			continue
		}
		status := resp.Value[0]
		entry := log.WithField("bundle_id", bundleID).WithField("status", status.ConfirmationStatus)
		switch status.ConfirmationStatus {
		case "finalized":
			if status.Err.Ok == nil {
				entry.WithField("slot", status.Slot).Info("bundle finalized successfully")
			} else {
				entry.WithField("err", status.Err.Ok).Warn("bundle finalized with error")
			}
			return
		default:
			entry.Debug("bundle status")
		}
	}
	log.WithField("bundle_id", bundleID).Warn("bundle status polling exhausted")
}
