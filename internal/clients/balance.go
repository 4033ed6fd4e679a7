package clients

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/wrapsim/internal/domain"
	"github.com/vadiminshakov/wrapsim/pkg/retrier"
)

const erc20BalanceABI = `[
	{
		"constant": true,
		"inputs": [{"name": "_owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "balance", "type": "uint256"}],
		"type": "function"
	}
]`

// BalanceSource reads real on-chain balances.
type BalanceSource struct {
	backend EthBackend
	erc20   abi.ABI
	retrier *retrier.Retrier
}

// NewBalanceSource creates a balance reader over the backend.
func NewBalanceSource(backend EthBackend) (*BalanceSource, error) {
	if backend == nil {
		return nil, errors.New("eth backend is required")
	}
	parsed, err := abi.JSON(strings.NewReader(erc20BalanceABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse erc20 abi")
	}
	return &BalanceSource{backend: backend, erc20: parsed, retrier: retrier.New()}, nil
}

// OnChainBalance returns the latest balance of the account in currency.
func (b *BalanceSource) OnChainBalance(ctx context.Context, account common.Address, currency domain.Currency) (*domain.Amount, error) {
	var (
		raw *big.Int
		err error
	)
	if currency.Native {
		raw, err = retrier.DoWithData(b.retrier, ctx, func(ctx context.Context) (*big.Int, error) {
			return b.backend.BalanceAt(ctx, account, nil)
		})
	} else {
		raw, err = b.tokenBalance(ctx, account, currency.Address)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s balance", currency.Symbol)
	}

	amount := domain.NewAmountFromRaw(currency, raw)
	return &amount, nil
}

func (b *BalanceSource) tokenBalance(ctx context.Context, account, token common.Address) (*big.Int, error) {
	data, err := b.erc20.Pack("balanceOf", account)
	if err != nil {
		return nil, errors.Wrap(err, "pack balanceOf")
	}

	out, err := retrier.DoWithData(b.retrier, ctx, func(ctx context.Context) ([]byte, error) {
		return b.backend.CallContract(ctx, ethereum.CallMsg{From: account, To: &token, Data: data}, nil)
	})
	if err != nil {
		return nil, err
	}

	values, err := b.erc20.Unpack("balanceOf", out)
	if err != nil {
		return nil, errors.Wrap(err, "unpack balanceOf")
	}
	if len(values) != 1 {
		return nil, errors.Errorf("unexpected balanceOf output length %d", len(values))
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("unexpected balanceOf output type %T", values[0])
	}
	return balance, nil
}
