package clients

import (
	"context"
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/wrapsim/internal/domain"
	"github.com/vadiminshakov/wrapsim/internal/issuer"
)

// SimulateProvider is an offline wallet. It accepts every transaction and derives a
// deterministic hash from account, chain and nonce. Balances are set explicitly.
type SimulateProvider struct {
	mu            sync.Mutex
	account       common.Address
	chainID       int64
	walletChainID int64
	connected     bool
	nonce         uint64
	rejectNext    error
	sent          []issuer.TxRequest
	balances      map[domain.Currency]*big.Int
}

// NewSimulateProvider creates a connected offline wallet.
func NewSimulateProvider(account common.Address, chainID int64) *SimulateProvider {
	return &SimulateProvider{
		account:       account,
		chainID:       chainID,
		walletChainID: chainID,
		connected:     true,
		balances:      make(map[domain.Currency]*big.Int),
	}
}

func (p *SimulateProvider) Account() (common.Address, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.account, p.connected
}

func (p *SimulateProvider) ChainID() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chainID, p.connected
}

// Network reports the wallet's live network, which differs from ChainID after SwitchNetwork.
func (p *SimulateProvider) Network(context.Context) (issuer.Network, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return issuer.Network{}, errors.New("wallet is disconnected")
	}
	return issuer.Network{ChainID: p.walletChainID}, nil
}

func (p *SimulateProvider) SendTransaction(_ context.Context, req issuer.TxRequest) (issuer.PendingTransaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return nil, errors.New("wallet is disconnected")
	}
	if err := p.rejectNext; err != nil {
		p.rejectNext = nil
		return nil, err
	}

	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(p.walletChainID))
	binary.BigEndian.PutUint64(buf[8:], p.nonce)
	hash := crypto.Keccak256Hash(req.From.Bytes(), req.To.Bytes(), buf[:])
	p.nonce++

	sent := req
	if req.Value != nil {
		sent.Value = new(big.Int).Set(req.Value)
	}
	p.sent = append(p.sent, sent)

	return &simulatedTx{hash: hash, chainID: p.walletChainID}, nil
}

// SwitchNetwork changes the wallet network without updating the cached chain id.
func (p *SimulateProvider) SwitchNetwork(chainID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.walletChainID = chainID
}

// RejectNext makes the next SendTransaction fail with err.
func (p *SimulateProvider) RejectNext(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejectNext = err
}

// Disconnect makes the account and chain unavailable.
func (p *SimulateProvider) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
}

// Sent returns the submitted requests.
func (p *SimulateProvider) Sent() []issuer.TxRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]issuer.TxRequest, len(p.sent))
	copy(out, p.sent)
	return out
}

// SetBalance sets the on-chain balance of currency for the wallet account.
func (p *SimulateProvider) SetBalance(currency domain.Currency, amount domain.Amount) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[balanceKey(currency)] = amount.Quotient()
}

// OnChainBalance returns the balance set with SetBalance, zero otherwise.
func (p *SimulateProvider) OnChainBalance(_ context.Context, account common.Address, currency domain.Currency) (*domain.Amount, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if account != p.account {
		amount := domain.NewAmountFromRaw(currency, nil)
		return &amount, nil
	}
	amount := domain.NewAmountFromRaw(currency, p.balances[balanceKey(currency)])
	return &amount, nil
}

func balanceKey(c domain.Currency) domain.Currency {
	if c.Native {
		return domain.Currency{ChainID: c.ChainID, Native: true}
	}
	return domain.Currency{ChainID: c.ChainID, Address: c.Address}
}

type simulatedTx struct {
	hash    common.Hash
	chainID int64
}

func (t *simulatedTx) Hash() common.Hash { return t.hash }

func (t *simulatedTx) Network(context.Context) (issuer.Network, error) {
	return issuer.Network{ChainID: t.chainID}, nil
}
