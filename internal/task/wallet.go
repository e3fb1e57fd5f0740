// ==================================
// File: internal/task/wallet.go
// ==================================
package task

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Wallet представляет кошелёк участника сценария.
type Wallet struct {
	Name       string
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey
	// FundSol зачисляется на кошелёк перед запуском сценария
	FundSol float64
}

// NewWallet создаёт кошелёк из base58-encoded приватного ключа. Пустой ключ
// означает новый случайный кошелёк.
func NewWallet(name, privateKeyBase58 string, fundSol float64) (*Wallet, error) {
	if privateKeyBase58 == "" {
		account := solana.NewWallet()
		return &Wallet{
			Name:       name,
			PrivateKey: account.PrivateKey,
			PublicKey:  account.PublicKey(),
			FundSol:    fundSol,
		}, nil
	}

	privateKey, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &Wallet{
		Name:       name,
		PrivateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
		FundSol:    fundSol,
	}, nil
}

// Funding returns FundSol in lamports.
func (w *Wallet) Funding() uint64 {
	return SolToLamports(w.FundSol)
}
