// Package instruction builds deterministic instruction-material bundles
// (C8) from cached pool state, one builder per DEX family. Builders never
// perform I/O; they only read already-known public keys. Account orderings
// are grounded on the BuildSwapInstructions implementations in
// _examples/nick199910-SolRoute/pkg/pool/{raydium,meteora,pump}/*.go.
package instruction

import (
	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/types"
)

// memoProgramID is the SPL memo program, required as a trailing account by
// Meteora DLMM's swap2 instruction.
var memoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// MintATAPair is one (mint, associated-token-account) the executor must
// ensure exists before submitting the swap.
type MintATAPair struct {
	Mint solana.PublicKey
	ATA  solana.PublicKey
}

// Material is everything the executor needs to assemble a swap instruction
// for one leg of a cycle, per SPEC_FULL §4.8.
type Material struct {
	Family            types.DexFamily
	AToB              bool
	Accounts          solana.AccountMetaSlice
	RemainingAccounts int
	ALTEntries        []solana.PublicKey
	ATAPairs          []MintATAPair
}

// RaydiumAMMPool is the minimal set of cached keys a family-A builder needs.
type RaydiumAMMPool struct {
	ID, Authority, OpenOrders, CoinVault, PcVault, Market solana.PublicKey
	MarketProgram, MarketBids, MarketAsks, MarketEventQueue,
	MarketCoinVault, MarketPcVault, MarketVaultSigner solana.PublicKey
}

// BuildRaydiumAMM reproduces the 18-account swap-in layout from
// ammPool.go's InSwapInstruction, minus the two per-call user token
// accounts and payer, which the executor fills in at submission time.
func BuildRaydiumAMM(p RaydiumAMMPool, userSource, userDest, userOwner solana.PublicKey, aToB bool) Material {
	accs := solana.AccountMetaSlice{
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(p.ID, true, false),
		solana.NewAccountMeta(p.Authority, false, false),
		solana.NewAccountMeta(p.OpenOrders, true, false),
		solana.NewAccountMeta(p.CoinVault, true, false),
		solana.NewAccountMeta(p.PcVault, true, false),
		solana.NewAccountMeta(p.MarketProgram, false, false),
		solana.NewAccountMeta(p.Market, true, false),
		solana.NewAccountMeta(p.MarketBids, true, false),
		solana.NewAccountMeta(p.MarketAsks, true, false),
		solana.NewAccountMeta(p.MarketEventQueue, true, false),
		solana.NewAccountMeta(p.MarketCoinVault, true, false),
		solana.NewAccountMeta(p.MarketPcVault, true, false),
		solana.NewAccountMeta(p.MarketVaultSigner, false, false),
		solana.NewAccountMeta(userSource, true, false),
		solana.NewAccountMeta(userDest, true, false),
		solana.NewAccountMeta(userOwner, false, true),
	}
	return Material{Family: types.DexRaydiumAMM, AToB: aToB, Accounts: accs}
}

// RaydiumCPMMPool is the minimal cached-key set for family D.
type RaydiumCPMMPool struct {
	ID, Authority, AmmConfig, Token0Vault, Token1Vault,
	Token0Mint, Token1Mint, ObservationState solana.PublicKey
}

// BuildRaydiumCPMM reproduces cpmmPool.go's 13-account swap-base-input
// layout.
func BuildRaydiumCPMM(p RaydiumCPMMPool, userPayer, userBaseAccount, userQuoteAccount solana.PublicKey, aToB bool) Material {
	inVault, outVault := p.Token0Vault, p.Token1Vault
	inMint, outMint := p.Token0Mint, p.Token1Mint
	inAcc, outAcc := userBaseAccount, userQuoteAccount
	if !aToB {
		inVault, outVault = outVault, inVault
		inMint, outMint = outMint, inMint
		inAcc, outAcc = outAcc, inAcc
	}
	accs := solana.AccountMetaSlice{
		solana.NewAccountMeta(userPayer, true, true),
		solana.NewAccountMeta(p.Authority, false, false),
		solana.NewAccountMeta(p.AmmConfig, false, false),
		solana.NewAccountMeta(p.ID, true, false),
		solana.NewAccountMeta(inAcc, true, false),
		solana.NewAccountMeta(outAcc, true, false),
		solana.NewAccountMeta(inVault, true, false),
		solana.NewAccountMeta(outVault, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(inMint, false, false),
		solana.NewAccountMeta(outMint, false, false),
		solana.NewAccountMeta(p.ObservationState, true, false),
	}
	return Material{Family: types.DexRaydiumCPMM, AToB: aToB, Accounts: accs}
}

// RaydiumCLMMPool is the minimal cached-key set for family B.
type RaydiumCLMMPool struct {
	ID, AmmConfig, Authority, TokenVault0, TokenVault1, ObservationKey solana.PublicKey
	TickArrays                                                        []solana.PublicKey // in traversal order, derived at bootstrap
}

// BuildRaydiumCLMM reproduces clmmPool.go's RayCLMMSwapInstruction account
// layout, with the remaining-accounts tick-array list appended per direction.
func BuildRaydiumCLMM(p RaydiumCLMMPool, userOwner, userInputAcc, userOutputAcc solana.PublicKey, aToB bool) Material {
	accs := solana.AccountMetaSlice{
		solana.NewAccountMeta(userOwner, false, true),
		solana.NewAccountMeta(p.AmmConfig, false, false),
		solana.NewAccountMeta(p.ID, true, false),
		solana.NewAccountMeta(userInputAcc, true, false),
		solana.NewAccountMeta(userOutputAcc, true, false),
		solana.NewAccountMeta(p.TokenVault0, true, false),
		solana.NewAccountMeta(p.TokenVault1, true, false),
		solana.NewAccountMeta(p.ObservationKey, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}
	for _, ta := range p.TickArrays {
		accs = append(accs, solana.NewAccountMeta(ta, true, false))
	}
	return Material{Family: types.DexRaydiumCLMM, AToB: aToB, Accounts: accs, RemainingAccounts: len(p.TickArrays)}
}

// MeteoraDLMMPool is the minimal cached-key set for family C.
type MeteoraDLMMPool struct {
	ID, Oracle, TokenXMint, TokenYMint, ReserveX, ReserveY solana.PublicKey
	BinArrays                                              []solana.PublicKey
}

// BuildMeteoraDLMM reproduces meteora/swap.go's dynamic-length swap2
// instruction layout: 16 fixed accounts plus the bin arrays needed for this
// swap as remaining accounts.
func BuildMeteoraDLMM(p MeteoraDLMMPool, userOwner, userInputAcc, userOutputAcc solana.PublicKey, aToB bool) Material {
	accs := solana.AccountMetaSlice{
		solana.NewAccountMeta(p.ID, true, false),
		solana.NewAccountMeta(p.ReserveX, true, false),
		solana.NewAccountMeta(p.ReserveY, true, false),
		solana.NewAccountMeta(userInputAcc, true, false),
		solana.NewAccountMeta(userOutputAcc, true, false),
		solana.NewAccountMeta(p.TokenXMint, false, false),
		solana.NewAccountMeta(p.TokenYMint, false, false),
		solana.NewAccountMeta(p.Oracle, true, false),
		solana.NewAccountMeta(userOwner, false, true),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(memoProgramID, false, false),
	}
	for _, ba := range p.BinArrays {
		accs = append(accs, solana.NewAccountMeta(ba, true, false))
	}
	return Material{Family: types.DexMeteoraDLMM, AToB: aToB, Accounts: accs, RemainingAccounts: len(p.BinArrays)}
}

// WhirlpoolPool is the minimal cached-key set for family E, laid out like
// RaydiumCLMMPool plus the adaptive-fee oracle account.
type WhirlpoolPool struct {
	ID, FeeTierConfig, Authority, TokenVault0, TokenVault1, AdaptiveFeeOracle solana.PublicKey
	TickArrays                                                               []solana.PublicKey
}

// BuildWhirlpool mirrors BuildRaydiumCLMM's layout with the oracle account
// appended ahead of the remaining tick arrays.
func BuildWhirlpool(p WhirlpoolPool, userOwner, userInputAcc, userOutputAcc solana.PublicKey, aToB bool) Material {
	accs := solana.AccountMetaSlice{
		solana.NewAccountMeta(userOwner, false, true),
		solana.NewAccountMeta(p.FeeTierConfig, false, false),
		solana.NewAccountMeta(p.ID, true, false),
		solana.NewAccountMeta(userInputAcc, true, false),
		solana.NewAccountMeta(userOutputAcc, true, false),
		solana.NewAccountMeta(p.TokenVault0, true, false),
		solana.NewAccountMeta(p.TokenVault1, true, false),
		solana.NewAccountMeta(p.AdaptiveFeeOracle, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}
	for _, ta := range p.TickArrays {
		accs = append(accs, solana.NewAccountMeta(ta, true, false))
	}
	return Material{Family: types.DexWhirlpool, AToB: aToB, Accounts: accs, RemainingAccounts: len(p.TickArrays)}
}
