package clients

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/wrapsim/internal/issuer"
	"github.com/vadiminshakov/wrapsim/pkg/retrier"
	"go.uber.org/zap"
)

// EthBackend is the subset of ethclient.Client used by the provider.
type EthBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var _ EthBackend = (*ethclient.Client)(nil)

// EthProvider is a wallet connection backed by a JSON-RPC node and a local private key.
type EthProvider struct {
	mu        sync.RWMutex
	backend   EthBackend
	key       *ecdsa.PrivateKey
	account   common.Address
	chainID   int64
	connected bool
	retrier   *retrier.Retrier
	logger    *zap.Logger
}

// NewEthProvider binds the wallet to an existing backend and reads its chain id.
func NewEthProvider(ctx context.Context, backend EthBackend, privateKeyHex string, logger *zap.Logger) (*EthProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if backend == nil {
		return nil, errors.New("eth backend is required")
	}

	key, err := parsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}

	p := &EthProvider{
		backend: backend,
		key:     key,
		account: crypto.PubkeyToAddress(key.PublicKey),
		logger:  logger,
	}
	p.retrier = retrier.New(retrier.WithOnRetry(func(attempt int, err error) {
		logger.Warn("rpc call failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}))

	network, err := p.Network(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read chain id")
	}
	p.chainID = network.ChainID
	p.connected = true

	logger.Info("wallet connected",
		zap.String("account", p.account.Hex()),
		zap.Int64("chain_id", p.chainID))

	return p, nil
}

func parsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	key := strings.TrimSpace(privateKeyHex)
	if len(key) >= 2 && (key[:2] == "0x" || key[:2] == "0X") {
		key = key[2:]
	}

	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, errors.Wrap(err, "decode private key")
	}
	return privateKey, nil
}

// Account returns the connected account.
func (p *EthProvider) Account() (common.Address, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.account, p.connected
}

// ChainID returns the chain id read at connect time.
func (p *EthProvider) ChainID() (int64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chainID, p.connected
}

// Disconnect makes the account and chain unavailable.
func (p *EthProvider) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
}

// Network queries the node for its current chain id.
func (p *EthProvider) Network(ctx context.Context) (issuer.Network, error) {
	id, err := retrier.DoWithData(p.retrier, ctx, func(ctx context.Context) (*big.Int, error) {
		id, err := p.backend.ChainID(ctx)
		if err == nil && (id == nil || id.Sign() <= 0) {
			return nil, retrier.Permanent(errors.Errorf("node reported invalid chain id %v", id))
		}
		return id, err
	})
	if err != nil {
		return issuer.Network{}, err
	}
	return issuer.Network{ChainID: id.Int64()}, nil
}

// SendTransaction builds an EIP-1559 transaction, signs it with the local key and submits it.
// Submission itself is never retried.
func (p *EthProvider) SendTransaction(ctx context.Context, req issuer.TxRequest) (issuer.PendingTransaction, error) {
	account, ok := p.Account()
	if !ok {
		return nil, errors.New("wallet is disconnected")
	}
	if req.From != account {
		return nil, errors.Errorf("cannot sign for %s, connected account is %s", req.From.Hex(), account.Hex())
	}
	chainID, _ := p.ChainID()

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To

	nonce, err := retrier.DoWithData(p.retrier, ctx, func(ctx context.Context) (uint64, error) {
		return p.backend.PendingNonceAt(ctx, account)
	})
	if err != nil {
		return nil, errors.Wrap(err, "get pending nonce")
	}
	tip, err := retrier.DoWithData(p.retrier, ctx, func(ctx context.Context) (*big.Int, error) {
		return p.backend.SuggestGasTipCap(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "suggest gas tip")
	}
	head, err := retrier.DoWithData(p.retrier, ctx, func(ctx context.Context) (*types.Header, error) {
		return p.backend.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		return nil, errors.Wrap(err, "get head header")
	}
	gas, err := retrier.DoWithData(p.retrier, ctx, func(ctx context.Context) (uint64, error) {
		return p.backend.EstimateGas(ctx, ethereum.CallMsg{From: account, To: &to, Value: value})
	})
	if err != nil {
		return nil, errors.Wrap(err, "estimate gas")
	}

	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	chain := big.NewInt(chainID)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chain,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chain), p.key)
	if err != nil {
		return nil, errors.Wrap(err, "sign transaction")
	}

	if err := p.backend.SendTransaction(ctx, signed); err != nil {
		return nil, errors.Wrap(err, "send transaction")
	}

	p.logger.Debug("transaction sent",
		zap.String("hash", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas))

	return &ethPendingTx{tx: signed}, nil
}

type ethPendingTx struct {
	tx *types.Transaction
}

func (t *ethPendingTx) Hash() common.Hash { return t.tx.Hash() }

// Network returns the chain the transaction was signed for.
func (t *ethPendingTx) Network(context.Context) (issuer.Network, error) {
	return issuer.Network{ChainID: t.tx.ChainId().Int64()}, nil
}
