// Package issuer sends zero-value self-addressed placeholder transactions through the connected wallet.
package issuer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Network is the network a wallet or transaction reports.
type Network struct {
	ChainID int64
	Name    string
}

// TxRequest is the transaction descriptor handed to the wallet.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

// PendingTransaction is a submitted, not necessarily mined, transaction.
type PendingTransaction interface {
	Hash() common.Hash
	// Network returns the network the transaction was sent on.
	Network(ctx context.Context) (Network, error)
}

// Provider is the connected wallet capability.
type Provider interface {
	// Account returns the connected account, false when disconnected.
	Account() (common.Address, bool)
	// ChainID returns the chain the wallet is connected to, false when disconnected.
	ChainID() (int64, bool)
	// Network queries the wallet's current network.
	Network(ctx context.Context) (Network, error)
	// SendTransaction signs and submits the request.
	SendTransaction(ctx context.Context, req TxRequest) (PendingTransaction, error)
}

// IssueFunc submits a placeholder transaction. It reports false when no transaction was produced.
type IssueFunc func(ctx context.Context) (PendingTransaction, bool)

// Issuer builds blank transactions for the current wallet connection.
type Issuer struct {
	provider Provider
	logger   *zap.Logger
}

// New creates an Issuer.
func New(provider Provider, logger *zap.Logger) *Issuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Issuer{provider: provider, logger: logger}
}

// Provider returns the underlying wallet capability.
func (i *Issuer) Provider() Provider {
	if i == nil {
		return nil
	}
	return i.provider
}

// Callback returns the issue action bound to the current connection, or nil when the account,
// chain or provider is unavailable. Do not keep the result across connection changes.
func (i *Issuer) Callback() IssueFunc {
	if i == nil || i.provider == nil {
		return nil
	}
	account, ok := i.provider.Account()
	if !ok {
		return nil
	}
	chainID, ok := i.provider.ChainID()
	if !ok || chainID == 0 {
		return nil
	}

	provider := i.provider

	return func(ctx context.Context) (PendingTransaction, bool) {
		tx, err := provider.SendTransaction(ctx, TxRequest{From: account, To: account, Value: new(big.Int)})
		if err != nil {
			i.logger.Error("fail on blank tx",
				zap.String("account", account.Hex()),
				zap.Int64("chain_id", chainID),
				zap.Error(err))
			return nil, false
		}
		if tx == nil {
			i.logger.Error("blank tx returned no handle",
				zap.String("account", account.Hex()),
				zap.Int64("chain_id", chainID))
			return nil, false
		}
		i.logger.Info("blank tx submitted",
			zap.String("account", account.Hex()),
			zap.Int64("chain_id", chainID),
			zap.String("hash", tx.Hash().Hex()))
		return tx, true
	}
}
