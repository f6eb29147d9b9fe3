// =============================
// File: internal/dex/cpmm/pda.go
// =============================
package cpmm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the mainnet constant-product AMM program.
var ProgramID = solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")

// CreatePoolFeeReceiver collects the protocol's fixed pool-creation fee.
var CreatePoolFeeReceiver = solana.MustPublicKeyFromBase58("DNXgeM9EiiaAbaWvwjHj9fQQLAX5ZsfHyvmYUNRAdNC8")

// PDA seed prefixes from the program source.
const (
	ammConfigSeed   = "amm_config"
	poolSeed        = "pool"
	poolVaultSeed   = "pool_vault"
	poolLpMintSeed  = "pool_lp_mint"
	observationSeed = "observation"
	authoritySeed   = "vault_and_lp_mint_auth_seed"
)

// DeriveAmmConfig derives the fee-tier config account for an index.
func DeriveAmmConfig(index uint16) (solana.PublicKey, error) {
	indexBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(indexBytes, index)
	pda, _, err := solana.FindProgramAddress([][]byte{
		[]byte(ammConfigSeed),
		indexBytes,
	}, ProgramID)
	return pda, err
}

// DeriveAuthority derives the vault/lp-mint authority.
func DeriveAuthority() (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{
		[]byte(authoritySeed),
	}, ProgramID)
	return pda, err
}

// DerivePoolAddress derives the pool for a config and ordered token pair.
// Deterministic: the same pair and fee tier always yield the same pool.
func DerivePoolAddress(ammConfig, token0, token1 solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{
		[]byte(poolSeed),
		ammConfig.Bytes(),
		token0.Bytes(),
		token1.Bytes(),
	}, ProgramID)
	return pda, err
}

// DeriveVault derives the pool's vault for one token side.
func DeriveVault(pool, mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{
		[]byte(poolVaultSeed),
		pool.Bytes(),
		mint.Bytes(),
	}, ProgramID)
	return pda, err
}

// DeriveLpMint derives the pool's LP token mint.
func DeriveLpMint(pool solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{
		[]byte(poolLpMintSeed),
		pool.Bytes(),
	}, ProgramID)
	return pda, err
}

// DeriveObservation derives the pool's price observation account.
func DeriveObservation(pool solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{
		[]byte(observationSeed),
		pool.Bytes(),
	}, ProgramID)
	return pda, err
}
