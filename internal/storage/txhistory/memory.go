package txhistory

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/wrapsim/internal/domain"
	"github.com/vadiminshakov/wrapsim/internal/issuer"
)

// MemoryStore keeps transaction records for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.TransactionRecord
}

// NewMemoryStore creates an empty in-memory history.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends a history entry for the submitted transaction.
func (s *MemoryStore) Record(_ context.Context, tx issuer.PendingTransaction, info domain.WrapInfo) error {
	if tx == nil {
		return errors.New("transaction handle is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, domain.TransactionRecord{
		Hash:       tx.Hash(),
		RecordedAt: time.Now().UTC(),
		WrapInfo:   info,
	})
	return nil
}

// Records returns a copy of the stored records in insertion order.
func (s *MemoryStore) Records() []domain.TransactionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TransactionRecord, len(s.records))
	copy(out, s.records)
	return out
}
