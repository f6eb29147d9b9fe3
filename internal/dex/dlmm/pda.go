// =============================
// File: internal/dex/dlmm/pda.go
// =============================
package dlmm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the mainnet DLMM program.
var ProgramID = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")

// PDA seed prefixes from the program source.
const (
	binArraySeed = "bin_array"
	oracleSeed   = "oracle"
	bitmapSeed   = "bitmap"
)

// SortTokenMints returns the two mints in canonical order: the byte-wise
// smaller key is token X. Pool derivation and price orientation both depend
// on this ordering.
func SortTokenMints(a, b solana.PublicKey) (x, y solana.PublicKey) {
	for i := 0; i < len(a); i++ {
		if a[i] < b[i] {
			return a, b
		}
		if a[i] > b[i] {
			return b, a
		}
	}
	return a, b
}

// DerivePoolAddress derives the lb-pair address for a canonical token pair,
// bin step and base fee factor. Deterministic: the pool address is known
// before any transaction is submitted.
func DerivePoolAddress(tokenX, tokenY solana.PublicKey, binStep, baseFactor uint16) (solana.PublicKey, error) {
	stepBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(stepBytes, binStep)
	factorBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(factorBytes, baseFactor)

	pda, _, err := solana.FindProgramAddress([][]byte{
		tokenX.Bytes(),
		tokenY.Bytes(),
		stepBytes,
		factorBytes,
	}, ProgramID)
	return pda, err
}

// DeriveReserve derives the pool's vault for one token side.
func DeriveReserve(pool, tokenMint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{
		pool.Bytes(),
		tokenMint.Bytes(),
	}, ProgramID)
	return pda, err
}

// DeriveOracle derives the pool's oracle account.
func DeriveOracle(pool solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{
		[]byte(oracleSeed),
		pool.Bytes(),
	}, ProgramID)
	return pda, err
}

// DeriveBinArray derives the bin-array account for the given array index.
func DeriveBinArray(pool solana.PublicKey, index int64) (solana.PublicKey, error) {
	indexBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(indexBytes, uint64(index))

	pda, _, err := solana.FindProgramAddress([][]byte{
		[]byte(binArraySeed),
		pool.Bytes(),
		indexBytes,
	}, ProgramID)
	return pda, err
}

// DeriveBitmapExtension derives the bin-array bitmap extension account.
func DeriveBitmapExtension(pool solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{
		[]byte(bitmapSeed),
		pool.Bytes(),
	}, ProgramID)
	return pda, err
}

// DeriveEventAuthority derives the program's anchor event authority.
func DeriveEventAuthority() solana.PublicKey {
	pda, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("__event_authority"),
	}, ProgramID)
	return pda
}
