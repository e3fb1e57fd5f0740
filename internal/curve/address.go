// =============================================
// File: internal/curve/address.go
// =============================================
package curve

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Seeds used to derive program addresses.
const (
	BondingCurveSeed  = "bonding-curve"
	GlobalSeed        = "global"
	MintAuthoritySeed = "mint-authority"
)

// DeriveBondingCurveAddress returns the custody address of the curve for mint.
func DeriveBondingCurveAddress(programID, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(BondingCurveSeed), mint.Bytes()},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive bonding curve address: %w", err)
	}
	return addr, nil
}

// DeriveGlobalAddress returns the address of the global configuration.
func DeriveGlobalAddress(programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(GlobalSeed)}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive global account: %w", err)
	}
	return addr, nil
}

// DeriveMintAuthority returns the program's mint authority.
func DeriveMintAuthority(programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(MintAuthoritySeed)}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive mint authority: %w", err)
	}
	return addr, nil
}
