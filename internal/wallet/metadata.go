// Package wallet also holds the refresh-maintained wallet/blockhash state:
// one recurring refresher writer per value, many readers, single mutex each
// — per SPEC_FULL §5's "Wallet state" shared-resource policy. Grounded on
// _examples/original_source/bin/arb/src/metadata.rs.
package wallet

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/solroute-arb/arbengine/internal/logging"
)

var log = logging.For("wallet")

// Metadata holds the arb-mint ATA balance and the latest blockhash, each
// behind its own mutex, refreshed by background goroutines.
type Metadata struct {
	rpcClient *rpc.Client

	ataMu     sync.RWMutex
	ataAmount uint64

	bhMu sync.RWMutex
	bh   solana.Hash

	arbMintATA solana.PublicKey
}

// New constructs Metadata and performs the initial synchronous fetch of
// both values so the first reader never observes zero values.
func New(ctx context.Context, rpcClient *rpc.Client, arbMintATA solana.PublicKey) (*Metadata, error) {
	m := &Metadata{rpcClient: rpcClient, arbMintATA: arbMintATA}
	if err := m.refreshATA(ctx); err != nil {
		log.WithError(err).Warn("initial ATA balance fetch failed, starting from zero")
	}
	if err := m.refreshBlockhash(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metadata) refreshATA(ctx context.Context) error {
	bal, err := m.rpcClient.GetTokenAccountBalance(ctx, m.arbMintATA, rpc.CommitmentProcessed)
	if err != nil {
		return err
	}
	parsed, err := strconv.ParseUint(bal.Value.Amount, 10, 64)
	if err != nil {
		return err
	}
	m.ataMu.Lock()
	m.ataAmount = parsed
	m.ataMu.Unlock()
	return nil
}

func (m *Metadata) refreshBlockhash(ctx context.Context) error {
	res, err := m.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return err
	}
	m.bhMu.Lock()
	m.bh = res.Value.Blockhash
	m.bhMu.Unlock()
	return nil
}

// RunRefreshers blocks, refreshing the ATA balance every 60s and the
// blockhash every 500ms, until ctx is cancelled. Intended to be run under an
// errgroup alongside the ingestion/processor/arb tasks (SPEC_FULL §5).
func (m *Metadata) RunRefreshers(ctx context.Context) error {
	ataTicker := time.NewTicker(60 * time.Second)
	defer ataTicker.Stop()
	bhTicker := time.NewTicker(500 * time.Millisecond)
	defer bhTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ataTicker.C:
			if err := m.refreshATA(ctx); err != nil {
				log.WithError(err).Debug("ata refresh failed")
			}
		case <-bhTicker.C:
			if err := m.refreshBlockhash(ctx); err != nil {
				log.WithError(err).Debug("blockhash refresh failed")
			}
		}
	}
}

// ArbMintATAAmount returns the last-refreshed balance; readers never block.
func (m *Metadata) ArbMintATAAmount() uint64 {
	m.ataMu.RLock()
	defer m.ataMu.RUnlock()
	return m.ataAmount
}

// LatestBlockhash returns the last-refreshed blockhash; readers never block.
func (m *Metadata) LatestBlockhash() solana.Hash {
	m.bhMu.RLock()
	defer m.bhMu.RUnlock()
	return m.bh
}
