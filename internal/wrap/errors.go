package wrap

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidWrappedContract means the cached wrapped-native contract does not belong to the
	// wallet's current network. It is not retryable.
	ErrInvalidWrappedContract = errors.New("invalid wrapped native contract")
	// ErrIssuerUnavailable means the wallet disconnected between validation and execution.
	ErrIssuerUnavailable = errors.New("blank transaction issuer is unavailable")
	// ErrTransactionNotProduced means the wallet rejected or failed the placeholder transaction.
	ErrTransactionNotProduced = errors.New("placeholder transaction was not produced")
	// ErrPartialUpdate matches every *PartialUpdateError.
	ErrPartialUpdate = errors.New("partial update after submitted transaction")
)

// Stage is the step that failed after the placeholder transaction was submitted.
type Stage string

const (
	StageRecord Stage = "record"
	// StageSeed means an untracked entry could not start from its on-chain balance.
	// Neither side of the balance update was applied.
	StageSeed   Stage = "seed"
	StageDebit  Stage = "debit"
	StageCredit Stage = "credit"
)

// PartialUpdateError reports a submitted transaction whose bookkeeping was not fully applied.
// The ledger entries of both currencies should be re-derived from on-chain balances.
type PartialUpdateError struct {
	Hash  common.Hash
	Stage Stage
	// Currency is the symbol of the entry that failed, empty for the record stage.
	Currency string
	// DebitApplied is true when the input side was already debited.
	DebitApplied bool
	Err          error
}

func (e *PartialUpdateError) Error() string {
	if e.Currency != "" {
		return fmt.Sprintf("partial update of tx %s at %s stage of %s (debit applied: %t): %v",
			e.Hash.Hex(), e.Stage, e.Currency, e.DebitApplied, e.Err)
	}
	return fmt.Sprintf("partial update of tx %s at %s stage (debit applied: %t): %v",
		e.Hash.Hex(), e.Stage, e.DebitApplied, e.Err)
}

func (e *PartialUpdateError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPartialUpdate) true.
func (e *PartialUpdateError) Is(target error) bool {
	return target == ErrPartialUpdate
}
