// Package wrap resolves wrap/unwrap intents and simulates their effect on balances.
//
// A wrap is never executed on chain: a zero-value self-addressed transaction is sent through the
// wallet to obtain a real signature and hash, and the simulated ledger is updated as if the
// wrapped-native contract had been called.
package wrap

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/wrapsim/internal/domain"
	"github.com/vadiminshakov/wrapsim/internal/issuer"
	"github.com/vadiminshakov/wrapsim/internal/ledger"
	"go.uber.org/zap"
)

// Recorder appends transaction history entries.
type Recorder interface {
	Record(ctx context.Context, tx issuer.PendingTransaction, info domain.WrapInfo) error
}

// Snapshot is the explicit dependency set of a resolution.
type Snapshot struct {
	ChainID     int64
	Input       *domain.Currency
	Output      *domain.Currency
	TypedAmount string
	// Balance is the real on-chain balance of Input, nil when unknown.
	Balance *domain.Amount
	// Seeds are on-chain balances that untracked ledger entries start from instead of zero.
	// They are applied after submission and before the balance update.
	Seeds []domain.Amount
}

// ExecuteFunc performs the simulated wrap and returns the placeholder transaction hash.
type ExecuteFunc func(ctx context.Context) (common.Hash, error)

// Result is the outcome of a resolution.
// Execute is nil whenever the action must be disabled; NOT_APPLICABLE also carries no input error.
type Result struct {
	WrapType   domain.WrapType
	InputError domain.WrapInputError
	Execute    ExecuteFunc
}

var notApplicable = Result{WrapType: domain.WrapTypeNotApplicable, InputError: domain.WrapInputNoError}

// Resolver classifies currency pairs and builds execute actions.
type Resolver struct {
	issuer   *issuer.Issuer
	recorder Recorder
	ledger   *ledger.Ledger
	contract common.Address
	logger   *zap.Logger
}

// NewResolver creates a Resolver. contract is the locally cached wrapped-native contract address
// for the connected chain; a zero address disables wrapping.
func NewResolver(iss *issuer.Issuer, recorder Recorder, l *ledger.Ledger, contract common.Address, logger *zap.Logger) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		return nil, errors.New("recorder is required for Resolver")
	}
	if l == nil {
		return nil, errors.New("ledger is required for Resolver")
	}
	return &Resolver{
		issuer:   iss,
		recorder: recorder,
		ledger:   l,
		contract: contract,
		logger:   logger,
	}, nil
}

// Classify returns the wrap direction of the pair on the chain.
func Classify(chainID int64, input, output *domain.Currency) domain.WrapType {
	if chainID == 0 || input == nil || output == nil {
		return domain.WrapTypeNotApplicable
	}
	weth, ok := domain.WrappedNative(chainID)
	if !ok {
		return domain.WrapTypeNotApplicable
	}

	switch {
	case input.Native && weth.Equals(*output):
		return domain.WrapTypeWrap
	case weth.Equals(*input) && output.Native:
		return domain.WrapTypeUnwrap
	default:
		return domain.WrapTypeNotApplicable
	}
}

// Resolve classifies and validates the snapshot. It has no side effects.
func (r *Resolver) Resolve(s Snapshot) Result {
	if r.issuer.Callback() == nil || r.contract == (common.Address{}) {
		return notApplicable
	}

	wrapType := Classify(s.ChainID, s.Input, s.Output)
	if wrapType == domain.WrapTypeNotApplicable {
		return notApplicable
	}

	inputAmount, parsed := domain.TryParseAmount(s.TypedAmount, s.Input)
	hasInputAmount := parsed && inputAmount.GreaterThan(decimal.Zero)
	sufficientBalance := parsed && s.Balance != nil && !s.Balance.LessThan(inputAmount)

	res := Result{WrapType: wrapType, InputError: domain.WrapInputNoError}
	if !sufficientBalance {
		res.InputError = inputError(wrapType, hasInputAmount)
		return res
	}

	op := operation{
		chainID: s.ChainID,
		input:   *s.Input,
		output:  *s.Output,
		amount:  inputAmount,
		seeds:   append([]domain.Amount(nil), s.Seeds...),
	}
	if wrapType == domain.WrapTypeWrap {
		res.Execute = func(ctx context.Context) (common.Hash, error) {
			return r.executeWrap(ctx, op)
		}
	} else {
		op.unwrapped = true
		res.Execute = func(ctx context.Context) (common.Hash, error) {
			return r.executeUnwrap(ctx, op)
		}
	}

	return res
}

// operation is a validated wrap captured by an execute closure.
type operation struct {
	chainID   int64
	input     domain.Currency
	output    domain.Currency
	amount    domain.Amount
	seeds     []domain.Amount
	unwrapped bool
}

func inputError(wrapType domain.WrapType, hasInputAmount bool) domain.WrapInputError {
	if wrapType == domain.WrapTypeWrap {
		if hasInputAmount {
			return domain.WrapInputInsufficientNativeBalance
		}
		return domain.WrapInputEnterNativeAmount
	}
	if hasInputAmount {
		return domain.WrapInputInsufficientWrappedBalance
	}
	return domain.WrapInputEnterWrappedAmount
}

func (r *Resolver) executeWrap(ctx context.Context, op operation) (common.Hash, error) {
	if err := r.verifyContract(ctx, op.chainID); err != nil {
		return common.Hash{}, err
	}
	return r.submit(ctx, op)
}

func (r *Resolver) executeUnwrap(ctx context.Context, op operation) (common.Hash, error) {
	hash, err := r.submit(ctx, op)
	if err != nil {
		r.logger.Error("could not withdraw",
			zap.Int64("chain_id", op.chainID),
			zap.String("amount", op.amount.Exact()),
			zap.Error(err))
		return hash, err
	}
	return hash, nil
}

// verifyContract guards against a stale contract reference after a silent network switch.
func (r *Resolver) verifyContract(ctx context.Context, chainID int64) error {
	provider := r.issuer.Provider()
	if provider == nil {
		return ErrIssuerUnavailable
	}
	network, err := provider.Network(ctx)
	if err != nil {
		return errors.Wrap(err, "query wallet network")
	}

	expected, known := domain.WrappedNative(network.ChainID)
	if network.ChainID != chainID || !known || expected.Address != r.contract {
		r.logger.Error("invalid wrapped native contract",
			zap.Int64("expected_chain_id", chainID),
			zap.Int64("wallet_chain_id", network.ChainID),
			zap.String("contract", r.contract.Hex()))
		return errors.Wrapf(ErrInvalidWrappedContract,
			"contract %s on wallet chain %d, expected chain %d", r.contract.Hex(), network.ChainID, chainID)
	}
	return nil
}

func (r *Resolver) submit(ctx context.Context, op operation) (common.Hash, error) {
	issue := r.issuer.Callback()
	if issue == nil {
		return common.Hash{}, ErrIssuerUnavailable
	}

	tx, ok := issue(ctx)
	if !ok {
		return common.Hash{}, ErrTransactionNotProduced
	}
	hash := tx.Hash()

	info := domain.WrapInfo{
		Type:              domain.TransactionTypeWrap,
		Unwrapped:         op.unwrapped,
		CurrencyAmountRaw: op.amount.RawString(),
		ChainID:           op.chainID,
	}
	if err := r.recorder.Record(ctx, tx, info); err != nil {
		r.logger.Error("failed to record simulated wrap",
			zap.String("hash", hash.Hex()),
			zap.Error(err))
		return hash, &PartialUpdateError{Hash: hash, Stage: StageRecord, Err: err}
	}

	if err := r.seed(op.chainID, op.seeds); err != nil {
		err.Hash = hash
		r.logger.Error("failed to seed simulated balance",
			zap.String("hash", hash.Hex()),
			zap.Error(err))
		return hash, err
	}

	if err := r.UpdateBalancesAfterSwap(op.chainID, op.input, op.output, op.amount.Exact()); err != nil {
		var partial *PartialUpdateError
		if errors.As(err, &partial) {
			partial.Hash = hash
		}
		r.logger.Error("simulated balances partially updated",
			zap.String("hash", hash.Hex()),
			zap.Error(err))
		return hash, err
	}

	r.logger.Info("simulated wrap executed",
		zap.String("hash", hash.Hex()),
		zap.Int64("chain_id", op.chainID),
		zap.Bool("unwrapped", op.unwrapped),
		zap.String("amount", op.amount.Exact()),
		zap.String("input", op.input.Symbol),
		zap.String("output", op.output.Symbol))

	return hash, nil
}

// seed starts untracked entries from their on-chain balance. Zero balances are skipped,
// the balance update creates those entries from zero anyway.
func (r *Resolver) seed(chainID int64, seeds []domain.Amount) *PartialUpdateError {
	for _, s := range seeds {
		if s.Value.IsZero() {
			continue
		}
		if _, _, err := r.ledger.Seed(LedgerKey(chainID, s.Currency), s.Exact(), decimalsOf(s.Currency)); err != nil {
			return &PartialUpdateError{
				Stage:    StageSeed,
				Currency: s.Currency.Symbol,
				Err:      err,
			}
		}
	}
	return nil
}

// UpdateBalancesAfterSwap moves exact from the input entry to the output entry at a 1:1 rate.
// An empty exact is a no-op. A failed leg is reported as *PartialUpdateError.
func (r *Resolver) UpdateBalancesAfterSwap(chainID int64, input, output domain.Currency, exact string) error {
	if exact == "" {
		return nil
	}

	if _, err := r.ledger.Debit(LedgerKey(chainID, input), exact, decimalsOf(input)); err != nil {
		return &PartialUpdateError{Stage: StageDebit, Currency: input.Symbol, Err: err}
	}
	if _, err := r.ledger.Credit(LedgerKey(chainID, output), exact, decimalsOf(output)); err != nil {
		return &PartialUpdateError{Stage: StageCredit, Currency: output.Symbol, DebitApplied: true, Err: err}
	}
	return nil
}

// LedgerKey returns the ledger key of c on the given chain. The chain wins over c.ChainID.
func LedgerKey(chainID int64, c domain.Currency) ledger.Key {
	c.ChainID = chainID
	return ledger.KeyFor(c)
}

func decimalsOf(c domain.Currency) int32 {
	if c.Native {
		return domain.NativeDecimals
	}
	return c.Decimals
}
