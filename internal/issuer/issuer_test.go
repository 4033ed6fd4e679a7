package issuer

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockTx struct {
	hash common.Hash
}

func (m mockTx) Hash() common.Hash { return m.hash }

func (m mockTx) Network(context.Context) (Network, error) { return Network{ChainID: 1}, nil }

type mockProvider struct {
	account   common.Address
	chainID   int64
	connected bool
	sendErr   error
	nilTx     bool
	requests  []TxRequest
}

func (m *mockProvider) Account() (common.Address, bool) { return m.account, m.connected }

func (m *mockProvider) ChainID() (int64, bool) { return m.chainID, m.connected }

func (m *mockProvider) Network(context.Context) (Network, error) {
	return Network{ChainID: m.chainID}, nil
}

func (m *mockProvider) SendTransaction(_ context.Context, req TxRequest) (PendingTransaction, error) {
	m.requests = append(m.requests, req)
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	if m.nilTx {
		return nil, nil
	}
	return mockTx{hash: common.HexToHash("0xbeef")}, nil
}

func connectedProvider() *mockProvider {
	return &mockProvider{
		account:   common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		chainID:   1,
		connected: true,
	}
}

func TestIssuer_CallbackUnavailable(t *testing.T) {
	assert.Nil(t, New(nil, nil).Callback())

	var nilIssuer *Issuer
	assert.Nil(t, nilIssuer.Callback())

	p := connectedProvider()
	p.connected = false
	assert.Nil(t, New(p, zap.NewNop()).Callback())

	p = connectedProvider()
	p.chainID = 0
	assert.Nil(t, New(p, zap.NewNop()).Callback())
}

func TestIssuer_CallbackTracksConnection(t *testing.T) {
	p := connectedProvider()
	iss := New(p, zap.NewNop())
	require.NotNil(t, iss.Callback())

	p.connected = false
	assert.Nil(t, iss.Callback())

	p.connected = true
	assert.NotNil(t, iss.Callback())
}

func TestIssuer_IssueBlankTransaction(t *testing.T) {
	p := connectedProvider()
	issue := New(p, zap.NewNop()).Callback()
	require.NotNil(t, issue)

	tx, ok := issue(context.Background())
	require.True(t, ok)
	assert.Equal(t, common.HexToHash("0xbeef"), tx.Hash())

	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, p.account, req.From)
	assert.Equal(t, p.account, req.To)
	assert.Equal(t, 0, req.Value.Cmp(big.NewInt(0)))
}

func TestIssuer_SubmissionFailureIsSwallowed(t *testing.T) {
	p := connectedProvider()
	p.sendErr = errors.New("user rejected transaction")
	issue := New(p, zap.NewNop()).Callback()
	require.NotNil(t, issue)

	tx, ok := issue(context.Background())
	assert.False(t, ok)
	assert.Nil(t, tx)

	p.sendErr = nil
	p.nilTx = true
	tx, ok = issue(context.Background())
	assert.False(t, ok)
	assert.Nil(t, tx)
}
