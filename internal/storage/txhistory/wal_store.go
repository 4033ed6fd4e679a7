// Package txhistory stores the transaction history entries of simulated wraps.
package txhistory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/wrapsim/internal/domain"
	"github.com/vadiminshakov/wrapsim/internal/issuer"
)

const (
	DefaultDir   = "./wal/txhistory"
	segmentLimit = 1000
	maxSegments  = 100
	keyPrefix    = "wrap_tx_"
)

// WALStore persists transaction records in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
	now func() time.Time
}

// NewWALStore initializes a WAL-backed history store under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "txhistory_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init transaction history WAL")
	}

	return &WALStore{wal: wal, now: time.Now}, nil
}

// Record appends a history entry for the submitted transaction.
func (s *WALStore) Record(_ context.Context, tx issuer.PendingTransaction, info domain.WrapInfo) error {
	if s == nil || s.wal == nil {
		return errors.New("transaction history store is not initialized")
	}
	if tx == nil {
		return errors.New("transaction handle is required")
	}

	record := domain.TransactionRecord{
		Hash:       tx.Hash(),
		RecordedAt: s.now().UTC(),
		WrapInfo:   info,
	}
	key := fmt.Sprintf("%s%d_%s", keyPrefix, info.ChainID, record.Hash.Hex())

	s.mu.Lock()
	defer s.mu.Unlock()

	// the index is stored in the payload so reads do not depend on segment rotation
	nextIndex := s.wal.CurrentIndex() + 1
	payload, err := json.Marshal(domain.TransactionRecordEntry{Index: nextIndex, Record: record})
	if err != nil {
		return errors.Wrap(err, "marshal transaction record")
	}

	return s.wal.Write(nextIndex, key, payload)
}

// RecordsAfter returns all records written after the provided WAL index.
func (s *WALStore) RecordsAfter(index uint64) ([]domain.TransactionRecordEntry, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("transaction history store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.TransactionRecordEntry, 0, current-index)
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, keyPrefix) {
			continue
		}
		var entry domain.TransactionRecordEntry
		if err := json.Unmarshal(msg.Value, &entry); err != nil {
			return nil, errors.Wrap(err, "decode transaction record")
		}
		if entry.Index > index {
			records = append(records, entry)
		}
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("transaction history store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
