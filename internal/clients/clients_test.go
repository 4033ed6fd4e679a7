package clients

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/wrapsim/internal/domain"
	"github.com/vadiminshakov/wrapsim/internal/issuer"
	"github.com/vadiminshakov/wrapsim/pkg/retrier"
	"go.uber.org/zap"
)

// well-known throwaway key, never fund it
const testKeyHex = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

type mockBackend struct {
	chainID      int64
	chainIDFails int
	nonce        uint64
	tip          *big.Int
	baseFee      *big.Int
	gas          uint64
	sendErr      error
	sent         []*types.Transaction
	balance      *big.Int
	callOutput   []byte
	lastCall     ethereum.CallMsg
}

func (m *mockBackend) ChainID(context.Context) (*big.Int, error) {
	if m.chainIDFails > 0 {
		m.chainIDFails--
		return nil, errors.New("connection refused")
	}
	return big.NewInt(m.chainID), nil
}

func (m *mockBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return m.nonce, nil
}

func (m *mockBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return new(big.Int).Set(m.tip), nil
}

func (m *mockBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: m.baseFee}, nil
}

func (m *mockBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return m.gas, nil
}

func (m *mockBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, tx)
	return nil
}

func (m *mockBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return m.balance, nil
}

func (m *mockBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m.lastCall = msg
	return m.callOutput, nil
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		chainID: domain.ChainMainnet,
		nonce:   7,
		tip:     big.NewInt(1_000_000_000),
		baseFee: big.NewInt(10_000_000_000),
		gas:     21000,
	}
}

func TestEthProvider_Connect(t *testing.T) {
	backend := newMockBackend()
	p, err := NewEthProvider(context.Background(), backend, testKeyHex, zap.NewNop())
	require.NoError(t, err)

	key, err := crypto.HexToECDSA(strings.TrimPrefix(testKeyHex, "0x"))
	require.NoError(t, err)

	account, ok := p.Account()
	require.True(t, ok)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), account)

	chainID, ok := p.ChainID()
	require.True(t, ok)
	assert.Equal(t, domain.ChainMainnet, chainID)

	p.Disconnect()
	_, ok = p.Account()
	assert.False(t, ok)
	_, ok = p.ChainID()
	assert.False(t, ok)
}

func TestEthProvider_InvalidKey(t *testing.T) {
	_, err := NewEthProvider(context.Background(), newMockBackend(), "not-a-key", nil)
	assert.Error(t, err)
}

func TestEthProvider_InvalidChainIDIsNotRetried(t *testing.T) {
	backend := newMockBackend()
	backend.chainID = 0

	start := time.Now()
	_, err := NewEthProvider(context.Background(), backend, testKeyHex, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid chain id")
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestEthProvider_NetworkRetries(t *testing.T) {
	backend := newMockBackend()
	p, err := NewEthProvider(context.Background(), backend, testKeyHex, nil)
	require.NoError(t, err)
	p.retrier = retrier.New(retrier.WithInitialInterval(time.Millisecond))

	backend.chainIDFails = 2
	backend.chainID = domain.ChainOptimism
	network, err := p.Network(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ChainOptimism, network.ChainID)
}

func TestEthProvider_SendBlankTransaction(t *testing.T) {
	backend := newMockBackend()
	p, err := NewEthProvider(context.Background(), backend, testKeyHex, nil)
	require.NoError(t, err)
	account, _ := p.Account()

	tx, err := p.SendTransaction(context.Background(), issuer.TxRequest{From: account, To: account, Value: big.NewInt(0)})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	sent := backend.sent[0]
	assert.Equal(t, sent.Hash(), tx.Hash())
	assert.Equal(t, uint64(7), sent.Nonce())
	assert.Equal(t, uint64(21000), sent.Gas())
	assert.Equal(t, 0, sent.Value().Sign())
	assert.Equal(t, account, *sent.To())
	assert.Equal(t, big.NewInt(21_000_000_000), sent.GasFeeCap())

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(domain.ChainMainnet)), sent)
	require.NoError(t, err)
	assert.Equal(t, account, from)

	network, err := tx.Network(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ChainMainnet, network.ChainID)
}

func TestEthProvider_SendErrors(t *testing.T) {
	backend := newMockBackend()
	p, err := NewEthProvider(context.Background(), backend, testKeyHex, nil)
	require.NoError(t, err)
	account, _ := p.Account()

	_, err = p.SendTransaction(context.Background(), issuer.TxRequest{From: common.HexToAddress("0x01"), To: account})
	assert.Error(t, err)

	backend.sendErr = errors.New("user rejected")
	_, err = p.SendTransaction(context.Background(), issuer.TxRequest{From: account, To: account})
	assert.ErrorContains(t, err, "user rejected")

	p.Disconnect()
	_, err = p.SendTransaction(context.Background(), issuer.TxRequest{From: account, To: account})
	assert.ErrorContains(t, err, "disconnected")
}

func TestBalanceSource_Native(t *testing.T) {
	backend := newMockBackend()
	backend.balance = new(big.Int).Mul(big.NewInt(25), big.NewInt(1e17)) // 2.5 ETH

	src, err := NewBalanceSource(backend)
	require.NoError(t, err)

	eth, _ := domain.NativeCurrency(domain.ChainMainnet)
	amount, err := src.OnChainBalance(context.Background(), common.HexToAddress("0x01"), eth)
	require.NoError(t, err)
	assert.Equal(t, "2.5", amount.Exact())
}

func TestBalanceSource_Token(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(erc20BalanceABI))
	require.NoError(t, err)
	out, err := parsed.Methods["balanceOf"].Outputs.Pack(big.NewInt(1_500_000))
	require.NoError(t, err)

	backend := newMockBackend()
	backend.callOutput = out

	src, err := NewBalanceSource(backend)
	require.NoError(t, err)

	usdc := domain.NewToken(domain.ChainMainnet, common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC", "USD Coin")
	amount, err := src.OnChainBalance(context.Background(), common.HexToAddress("0x01"), usdc)
	require.NoError(t, err)
	assert.True(t, amount.Value.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, usdc.Address, *backend.lastCall.To)
}

func TestSimulateProvider(t *testing.T) {
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	p := NewSimulateProvider(account, domain.ChainMainnet)
	ctx := context.Background()

	first, err := p.SendTransaction(ctx, issuer.TxRequest{From: account, To: account, Value: big.NewInt(0)})
	require.NoError(t, err)
	second, err := p.SendTransaction(ctx, issuer.TxRequest{From: account, To: account, Value: big.NewInt(0)})
	require.NoError(t, err)
	assert.NotEqual(t, first.Hash(), second.Hash())
	assert.Len(t, p.Sent(), 2)

	p.RejectNext(errors.New("user rejected"))
	_, err = p.SendTransaction(ctx, issuer.TxRequest{From: account, To: account})
	assert.Error(t, err)
	_, err = p.SendTransaction(ctx, issuer.TxRequest{From: account, To: account})
	assert.NoError(t, err)

	p.SwitchNetwork(domain.ChainPolygon)
	network, err := p.Network(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ChainPolygon, network.ChainID)
	chainID, _ := p.ChainID()
	assert.Equal(t, domain.ChainMainnet, chainID)

	eth, _ := domain.NativeCurrency(domain.ChainMainnet)
	p.SetBalance(eth, domain.NewAmount(eth, decimal.RequireFromString("2.5")))
	balance, err := p.OnChainBalance(ctx, account, eth)
	require.NoError(t, err)
	assert.Equal(t, "2.5", balance.Exact())

	other, err := p.OnChainBalance(ctx, common.HexToAddress("0x01"), eth)
	require.NoError(t, err)
	assert.True(t, other.Value.IsZero())
}
