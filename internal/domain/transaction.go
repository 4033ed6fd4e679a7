package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TransactionType is the kind of history entry.
type TransactionType string

const TransactionTypeWrap TransactionType = "wrap"

// WrapInfo is the metadata recorded for a simulated wrap or unwrap.
type WrapInfo struct {
	Type              TransactionType `json:"type"`
	Unwrapped         bool            `json:"unwrapped"`
	CurrencyAmountRaw string          `json:"currency_amount_raw"`
	ChainID           int64           `json:"chain_id"`
}

// TransactionRecord is a transaction history entry.
type TransactionRecord struct {
	Hash       common.Hash `json:"hash"`
	RecordedAt time.Time   `json:"recorded_at"`
	WrapInfo
}

// TransactionRecordEntry pairs a stored record with its log index.
type TransactionRecordEntry struct {
	Index  uint64            `json:"index"`
	Record TransactionRecord `json:"record"`
}
