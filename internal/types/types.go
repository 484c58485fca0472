// Package types holds the domain vocabulary shared by every core component:
// DEX family tags, account-type tags, the pool manifest shape, and the
// handful of account records (clock, transfer-fee config) every quoter
// consults.
package types

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// DexFamily tags one of the five AMM families the engine understands.
type DexFamily uint8

const (
	DexUnknown DexFamily = iota
	DexRaydiumAMM
	DexRaydiumCLMM
	DexMeteoraDLMM
	DexRaydiumCPMM
	DexWhirlpool
)

func (f DexFamily) String() string {
	switch f {
	case DexRaydiumAMM:
		return "raydium-amm"
	case DexRaydiumCLMM:
		return "raydium-clmm"
	case DexMeteoraDLMM:
		return "meteora-dlmm"
	case DexRaydiumCPMM:
		return "raydium-cpmm"
	case DexWhirlpool:
		return "whirlpool"
	default:
		return "unknown"
	}
}

// AccountType tags what kind of account a key refers to, within a DexFamily.
type AccountType uint8

const (
	AccountUnknown AccountType = iota
	AccountPool
	AccountVault
	AccountAmmConfig
	AccountTickArray
	AccountTickArrayBitmap
	AccountBinArray
	AccountBinArrayBitmap
	AccountOracle
	AccountClock
)

// Token2022ProgramID is the SPL Token-2022 program, not exported by
// gagliardetto/solana-go alongside the classic TokenProgramID.
var Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAw1KgzgueYDhCHKEHksFmGAPhpT")

// MarketAccounts is the Serum/OpenBook market a family-A pool settles
// through, carried alongside the pool's own accounts since the swap
// instruction reads the market's order book directly.
type MarketAccounts struct {
	Program     solana.PublicKey `json:"program"`
	ID          solana.PublicKey `json:"id"`
	Bids        solana.PublicKey `json:"bids"`
	Asks        solana.PublicKey `json:"asks"`
	EventQueue  solana.PublicKey `json:"eventQueue"`
	CoinVault   solana.PublicKey `json:"coinVault"`
	PcVault     solana.PublicKey `json:"pcVault"`
	VaultSigner solana.PublicKey `json:"vaultSigner"`
}

// ManifestEntry is one row of the pool manifest (dex.json).
type ManifestEntry struct {
	Pool                      solana.PublicKey  `json:"pool"`
	Owner                     solana.PublicKey  `json:"owner"`
	MintA                     solana.PublicKey  `json:"mintA"`
	MintB                     solana.PublicKey  `json:"mintB"`
	VaultA                    solana.PublicKey  `json:"vaultA"`
	VaultB                    solana.PublicKey  `json:"vaultB"`
	AddressLookupTableAddress *solana.PublicKey `json:"addressLookupTableAddress,omitempty"`
	// RelatedAccounts lists, in traversal order, the pool's tick-array
	// accounts (families B/E) or bin-array accounts (family C). Ignored by
	// constant-product families A/D.
	RelatedAccounts []solana.PublicKey `json:"relatedAccounts,omitempty"`
	// AmmConfig is the sibling fee/tier-configuration account for families
	// that split that state out of the pool account: family D's AmmConfig
	// and family B's AmmConfig, and reused for family E's FeeTierConfig.
	AmmConfig *solana.PublicKey `json:"ammConfig,omitempty"`
	// Oracle is the sibling adaptive-fee/price-oracle account for families
	// that carry one outside the pool account: family C's Oracle, reused for
	// family E's AdaptiveFeeOracle.
	Oracle *solana.PublicKey `json:"oracle,omitempty"`
	// Authority is the PDA a pool's vaults are owned by (families A, D, E).
	Authority *solana.PublicKey `json:"authority,omitempty"`
	// OpenOrders is family A's per-pool Serum open-orders account.
	OpenOrders *solana.PublicKey `json:"openOrders,omitempty"`
	// ObservationAccount is the sibling price-observation account for
	// families that carry one outside the pool account: family D's
	// ObservationState, reused for family B's ObservationKey.
	ObservationAccount *solana.PublicKey `json:"observationAccount,omitempty"`
	// Market is family A's Serum/OpenBook market account set.
	Market *MarketAccounts `json:"market,omitempty"`
	Family DexFamily        `json:"-"`
}

// Clock mirrors the Solana sysvar clock account, matching
// pkg/sol/clock.go's layout exactly (40 bytes, 5 little-endian uint64s).
type Clock struct {
	Slot                uint64
	EpochStartTimestamp uint64
	Epoch               uint64
	LeaderScheduleEpoch uint64
	UnixTimestamp       uint64
}

const ClockAccountDataSize = 40

// DecodeClock decodes the well-known sysvar clock account bytes.
func DecodeClock(data []byte) (Clock, bool) {
	if len(data) != ClockAccountDataSize {
		return Clock{}, false
	}
	return Clock{
		Slot:                binary.LittleEndian.Uint64(data[0:8]),
		EpochStartTimestamp: binary.LittleEndian.Uint64(data[8:16]),
		Epoch:               binary.LittleEndian.Uint64(data[16:24]),
		LeaderScheduleEpoch: binary.LittleEndian.Uint64(data[24:32]),
		UnixTimestamp:       binary.LittleEndian.Uint64(data[32:40]),
	}, true
}

// TransferFeeConfig is the token-2022 transfer-fee extension, carried on a
// mint's static projection.
type TransferFeeConfig struct {
	TransferFeeBasisPoints uint16
	MaximumFee             uint64
}

// ExcludedAmount applies the transfer fee deducted from amount at the given
// epoch-relative basis points, per P6 (zero bps is an identity).
func (c TransferFeeConfig) ExcludedAmount(amount uint64) uint64 {
	if c.TransferFeeBasisPoints == 0 {
		return amount
	}
	fee := amount * uint64(c.TransferFeeBasisPoints) / 10_000
	if rem := amount * uint64(c.TransferFeeBasisPoints) % 10_000; rem != 0 {
		fee++
	}
	if fee > c.MaximumFee {
		fee = c.MaximumFee
	}
	if fee > amount {
		return 0
	}
	return amount - fee
}

// BalanceChange is emitted by the ingestion path for every vault whose
// balance moved.
type BalanceChange struct {
	Pool         solana.PublicKey
	Vault        solana.PublicKey
	Family       DexFamily
	Change       int64
	AccountIndex int
}

// Edge is a directed traversal of one pool.
type Edge struct {
	Family     DexFamily
	Pool       int // pool_index
	InMint     int // mint_index
	OutMint    int // mint_index
	PoolKey    solana.PublicKey
	InMintKey  solana.PublicKey
	OutMintKey solana.PublicKey
}

// TwoHopCycle is an ordered pair of edges returning to the starting mint.
type TwoHopCycle struct {
	First, Second Edge
}
