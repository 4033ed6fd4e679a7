// Package session ties one wallet connection to its simulated ledger and wrap resolver.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/wrapsim/internal/domain"
	"github.com/vadiminshakov/wrapsim/internal/events"
	"github.com/vadiminshakov/wrapsim/internal/issuer"
	"github.com/vadiminshakov/wrapsim/internal/ledger"
	"github.com/vadiminshakov/wrapsim/internal/storage/simstate"
	"github.com/vadiminshakov/wrapsim/internal/wrap"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when the wallet has no account or chain.
var ErrNotConnected = errors.New("wallet is not connected")

// BalanceSource reads real on-chain balances.
type BalanceSource interface {
	OnChainBalance(ctx context.Context, account common.Address, currency domain.Currency) (*domain.Amount, error)
}

// Options configures a session.
type Options struct {
	// StateDir enables ledger persistence when set.
	StateDir string
	Recorder wrap.Recorder
	// Events receives simulated balance changes, optional.
	Events *events.BalanceBroadcaster
	Logger *zap.Logger
}

// Session is the lifetime of one wallet connection.
type Session struct {
	id       string
	provider issuer.Provider
	balances BalanceSource
	ledger   *ledger.Ledger
	resolver *wrap.Resolver
	logger   *zap.Logger
}

// Start opens a session for the connected wallet. The wrapped-native contract of the chain
// the wallet is connected to now is cached for the whole session.
func Start(provider issuer.Provider, balances BalanceSource, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if provider == nil || balances == nil {
		return nil, errors.New("provider and balance source are required")
	}
	if opts.Recorder == nil {
		return nil, errors.New("recorder is required")
	}

	account, ok := provider.Account()
	if !ok {
		return nil, ErrNotConnected
	}
	chainID, ok := provider.ChainID()
	if !ok {
		return nil, ErrNotConnected
	}

	id := uuid.New().String()
	logger = logger.With(zap.String("session", id))

	ledgerOpts := []ledger.Option{ledger.WithLogger(logger), ledger.WithSession(id), ledger.WithBroadcaster(opts.Events)}
	if opts.StateDir != "" {
		scope := fmt.Sprintf("%d_%s", chainID, strings.ToLower(account.Hex()))
		store, err := simstate.NewStore(opts.StateDir, scope)
		if err != nil {
			return nil, errors.Wrap(err, "open ledger state")
		}
		ledgerOpts = append(ledgerOpts, ledger.WithStore(store))
	}
	l, err := ledger.New(ledgerOpts...)
	if err != nil {
		return nil, err
	}

	var contract common.Address
	if weth, ok := domain.WrappedNative(chainID); ok {
		contract = weth.Address
	}

	resolver, err := wrap.NewResolver(issuer.New(provider, logger), opts.Recorder, l, contract, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("session started",
		zap.String("account", account.Hex()),
		zap.Int64("chain_id", chainID))

	return &Session{
		id:       id,
		provider: provider,
		balances: balances,
		ledger:   l,
		resolver: resolver,
		logger:   logger,
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Ledger returns the session ledger.
func (s *Session) Ledger() *ledger.Ledger { return s.ledger }

// Resolve snapshots the connection and the real balances of the pair, then resolves the intent.
// An unreadable input balance is treated as unknown; an unreadable output balance makes an untracked
// output entry start from zero.
func (s *Session) Resolve(ctx context.Context, input, output *domain.Currency, typed string) wrap.Result {
	snapshot := wrap.Snapshot{Input: input, Output: output, TypedAmount: typed}

	chainID, ok := s.provider.ChainID()
	if ok {
		snapshot.ChainID = chainID
	}
	account, ok := s.provider.Account()
	if !ok || input == nil || output == nil {
		return s.resolver.Resolve(snapshot)
	}

	if balance, ok := s.onChainBalance(ctx, account, *input); ok {
		snapshot.Balance = balance
		snapshot.Seeds = append(snapshot.Seeds, *balance)
	}
	if balance, ok := s.onChainBalance(ctx, account, *output); ok {
		snapshot.Seeds = append(snapshot.Seeds, *balance)
	}

	return s.resolver.Resolve(snapshot)
}

func (s *Session) onChainBalance(ctx context.Context, account common.Address, c domain.Currency) (*domain.Amount, bool) {
	balance, err := s.balances.OnChainBalance(ctx, account, c)
	if err != nil {
		s.logger.Warn("failed to read on-chain balance",
			zap.String("currency", c.String()),
			zap.Error(err))
		return nil, false
	}
	if balance == nil {
		return nil, false
	}
	return balance, true
}

// DisplayBalance returns the simulated balance of currency when tracked, the on-chain one otherwise.
func (s *Session) DisplayBalance(ctx context.Context, currency domain.Currency) (*domain.Amount, error) {
	key := ledger.KeyFor(currency)
	if chainID, ok := s.provider.ChainID(); ok {
		key = wrap.LedgerKey(chainID, currency)
	}
	if e, ok := s.ledger.Read(key); ok {
		amount := domain.NewAmount(currency, e.Value())
		return &amount, nil
	}
	account, ok := s.provider.Account()
	if !ok {
		return nil, ErrNotConnected
	}
	return s.balances.OnChainBalance(ctx, account, currency)
}

// End clears the simulated ledger. Call it on disconnect.
func (s *Session) End() error {
	if err := s.ledger.Clear(); err != nil {
		return errors.Wrap(err, "clear ledger")
	}
	s.logger.Info("session ended")
	return nil
}
