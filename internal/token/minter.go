// =============================
// File: internal/token/minter.go
// =============================
package token

import (
	"bytes"
	"context"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	spltoken "github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"github.com/rmuradev/solana-launchpad/internal/dex"
)

// MetadataProgramID is the Metaplex token metadata program.
var MetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

// createMetadataAccountV3Discriminator is the single-byte instruction index
// used by the (non-Anchor) metadata program.
const createMetadataAccountV3Discriminator = 33

const confirmTimeout = 60 * time.Second

// ChainClient is the RPC surface the minter needs.
type ChainClient interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature, timeout time.Duration) error
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
}

// Params describes the token to create. Supply is in whole tokens and is
// scaled by Decimals before minting.
type Params struct {
	Name     string
	Symbol   string
	URI      string
	Decimals uint8
	Supply   uint64
}

// Minter creates SPL tokens with Metaplex metadata and mints the full supply
// to the payer in a single transaction.
type Minter struct {
	client ChainClient
	payer  solana.PrivateKey
	logger *zap.Logger
}

// NewMinter creates a minter funded and signed by payer.
func NewMinter(client ChainClient, payer solana.PrivateKey, logger *zap.Logger) *Minter {
	return &Minter{
		client: client,
		payer:  payer,
		logger: logger.Named("token"),
	}
}

// CreateToken creates the mint account, initializes it, attaches metadata,
// creates the payer's token account and mints the supply. Everything lands in
// one transaction so a partial token can never exist on chain.
func (m *Minter) CreateToken(ctx context.Context, params Params) (solana.PublicKey, solana.Signature, error) {
	if params.Supply == 0 {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("token supply must be positive")
	}
	if params.Decimals > 9 {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("token decimals %d exceeds maximum 9", params.Decimals)
	}

	mint, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("failed to generate mint keypair: %w", err)
	}
	mintPub := mint.PublicKey()
	owner := m.payer.PublicKey()

	rent, err := m.client.GetMinimumBalanceForRentExemption(ctx, spltoken.MINT_SIZE)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("failed to fetch mint rent: %w", err)
	}

	rawSupply := params.Supply
	for i := uint8(0); i < params.Decimals; i++ {
		rawSupply *= 10
	}

	metadata, err := deriveMetadataAddress(mintPub)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("failed to derive metadata address: %w", err)
	}
	metadataIx, err := buildCreateMetadataV3(metadata, mintPub, owner, params)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, err
	}

	ata, err := dex.FindATA(owner, mintPub)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, err
	}

	instructions := []solana.Instruction{
		system.NewCreateAccountInstruction(
			rent,
			spltoken.MINT_SIZE,
			solana.TokenProgramID,
			owner,
			mintPub,
		).Build(),
		spltoken.NewInitializeMint2InstructionBuilder().
			SetDecimals(params.Decimals).
			SetMintAuthority(owner).
			SetFreezeAuthority(owner).
			SetMintAccount(mintPub).
			Build(),
		metadataIx,
		dex.NewCreateATAIdempotentInstruction(owner, owner, mintPub),
		spltoken.NewMintToInstruction(
			rawSupply,
			mintPub,
			ata,
			owner,
			nil,
		).Build(),
	}

	sig, err := m.signAndSend(ctx, instructions, &mint)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("failed to create token: %w", err)
	}

	m.logger.Info("Token created",
		zap.String("mint", mintPub.String()),
		zap.String("symbol", params.Symbol),
		zap.Uint64("supply", params.Supply),
		zap.String("signature", sig.String()))

	return mintPub, sig, nil
}

// RevokeAuthorities strips the mint and freeze authorities so the supply is
// provably fixed. Revocations run one at a time and the first failure aborts:
// proceeding to a pool with a mintable token is worse than stopping.
func (m *Minter) RevokeAuthorities(ctx context.Context, mint solana.PublicKey) error {
	owner := m.payer.PublicKey()

	for _, revoke := range []struct {
		label string
		kind  spltoken.AuthorityType
	}{
		{"mint", spltoken.AuthorityMintTokens},
		{"freeze", spltoken.AuthorityFreezeAccount},
	} {
		ix := spltoken.NewSetAuthorityInstructionBuilder().
			SetAuthorityType(revoke.kind).
			SetSubjectAccount(mint).
			SetAuthorityAccount(owner).
			Build()

		sig, err := m.signAndSend(ctx, []solana.Instruction{ix}, nil)
		if err != nil {
			return fmt.Errorf("failed to revoke %s authority: %w", revoke.label, err)
		}
		m.logger.Info("Authority revoked",
			zap.String("mint", mint.String()),
			zap.String("authority", revoke.label),
			zap.String("signature", sig.String()))
	}
	return nil
}

func (m *Minter) signAndSend(ctx context.Context, instructions []solana.Instruction, extra *solana.PrivateKey) (solana.Signature, error) {
	blockhash, err := m.client.GetRecentBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(m.payer.PublicKey()))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(m.payer.PublicKey()) {
			return &m.payer
		}
		if extra != nil && key.Equals(extra.PublicKey()) {
			return extra
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := m.client.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := m.client.ConfirmTransaction(ctx, sig, confirmTimeout); err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}

func deriveMetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{
		[]byte("metadata"),
		MetadataProgramID.Bytes(),
		mint.Bytes(),
	}, MetadataProgramID)
	return pda, err
}

type metadataDataV2 struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             *struct{} `bin:"optional"`
	Collection           *struct{} `bin:"optional"`
	Uses                 *struct{} `bin:"optional"`
}

type createMetadataV3Args struct {
	Data              metadataDataV2
	IsMutable         bool
	CollectionDetails *struct{} `bin:"optional"`
}

func buildCreateMetadataV3(metadata, mint, owner solana.PublicKey, params Params) (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte(createMetadataAccountV3Discriminator)
	err := bin.NewBorshEncoder(buf).Encode(createMetadataV3Args{
		Data: metadataDataV2{
			Name:   params.Name,
			Symbol: params.Symbol,
			URI:    params.URI,
		},
		IsMutable: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata args: %w", err)
	}

	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(metadata, true, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(owner, true, true),
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
	}
	return solana.NewInstruction(MetadataProgramID, metas, buf.Bytes()), nil
}
