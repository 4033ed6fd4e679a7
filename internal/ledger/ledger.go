// Package ledger keeps the simulated "as-if" balances produced by fake wraps.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/wrapsim/internal/domain"
	"github.com/vadiminshakov/wrapsim/internal/events"
	"github.com/vadiminshakov/wrapsim/internal/storage/simstate"
	"go.uber.org/zap"
)

// ErrInvalidAmount is returned when an amount or stored balance cannot be parsed.
var ErrInvalidAmount = errors.New("invalid ledger amount")

// Key identifies a ledger entry. Address is zero for native entries.
type Key struct {
	ChainID int64
	Native  bool
	Address common.Address
}

// KeyFor returns the ledger key of the currency.
func KeyFor(c domain.Currency) Key {
	if c.Native {
		return Key{ChainID: c.ChainID, Native: true}
	}
	return Key{ChainID: c.ChainID, Address: c.Address}
}

// Entry is a simulated balance formatted at its currency precision.
type Entry struct {
	Balance  string
	Decimals int32
}

// Value returns the balance as a decimal.
func (e Entry) Value() decimal.Decimal {
	v, err := decimal.NewFromString(e.Balance)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// Ledger is a session-scoped simulated balance store.
// It performs no sufficiency checks: debits may go below zero.
type Ledger struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	session string
	store   *simstate.Store
	events  *events.BalanceBroadcaster
	logger  *zap.Logger
}

// Option configures the Ledger.
type Option func(*Ledger)

// WithStore persists the ledger after every mutation and restores it on creation.
func WithStore(store *simstate.Store) Option {
	return func(l *Ledger) {
		l.store = store
	}
}

// WithBroadcaster publishes a change event after every mutation.
func WithBroadcaster(b *events.BalanceBroadcaster) Option {
	return func(l *Ledger) {
		l.events = b
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithSession tags persisted state with the session id.
func WithSession(id string) Option {
	return func(l *Ledger) {
		l.session = id
	}
}

// New creates an empty ledger, restoring persisted entries when a store is configured.
func New(opts ...Option) (*Ledger, error) {
	l := &Ledger{
		entries: make(map[Key]Entry),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.restore(); err != nil {
		return nil, errors.Wrap(err, "restore ledger")
	}

	return l, nil
}

// Read returns the entry for key.
func (l *Ledger) Read(key Key) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[key]
	return e, ok
}

// Credit adds amount to the entry, creating it from zero if absent.
func (l *Ledger) Credit(key Key, amount string, decimals int32) (Entry, error) {
	return l.apply(key, amount, decimals, events.ChangeCredit, decimal.Decimal.Add)
}

// Debit subtracts amount from the entry, creating it from zero if absent.
func (l *Ledger) Debit(key Key, amount string, decimals int32) (Entry, error) {
	return l.apply(key, amount, decimals, events.ChangeDebit, decimal.Decimal.Sub)
}

// Seed creates the entry with amount when it is absent. It reports whether the entry was created;
// a tracked entry is returned unchanged.
func (l *Ledger) Seed(key Key, amount string, decimals int32) (Entry, bool, error) {
	value, err := parseAmount(amount, decimals)
	if err != nil {
		return Entry{}, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok {
		return e, false, nil
	}

	next := Entry{
		Balance:  FormatBalance(value, decimals),
		Decimals: decimals,
	}
	l.entries[key] = next
	l.persist()
	l.publish(events.ChangeSeed, key, value.String(), next.Balance)

	return next, true, nil
}

func (l *Ledger) apply(key Key, amount string, decimals int32, kind string, op func(decimal.Decimal, decimal.Decimal) decimal.Decimal) (Entry, error) {
	delta, err := parseAmount(amount, decimals)
	if err != nil {
		return Entry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := decimal.Zero
	if e, ok := l.entries[key]; ok {
		current, err = decimal.NewFromString(e.Balance)
		if err != nil {
			return Entry{}, errors.Wrapf(ErrInvalidAmount, "parse stored balance %q", e.Balance)
		}
	}

	next := Entry{
		Balance:  FormatBalance(op(current, delta), decimals),
		Decimals: decimals,
	}
	l.entries[key] = next
	l.persist()
	l.publish(kind, key, delta.String(), next.Balance)

	return next, nil
}

func parseAmount(amount string, decimals int32) (decimal.Decimal, error) {
	if decimals < 0 {
		return decimal.Zero, errors.Wrapf(ErrInvalidAmount, "negative decimals %d", decimals)
	}
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidAmount, "parse amount %q", amount)
	}
	return v, nil
}

// Entries returns a copy of all entries.
func (l *Ledger) Entries() map[Key]Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[Key]Entry, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}

// Clear drops all entries and the persisted state. Used at session end.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[Key]Entry)
	l.publish(events.ChangeClear, Key{}, "", "")
	if l.store != nil {
		return l.store.Reset()
	}
	return nil
}

func (l *Ledger) publish(kind string, key Key, delta, balance string) {
	if l.events == nil {
		return
	}
	change := events.BalanceChange{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		ChainID:   key.ChainID,
		Native:    key.Native,
		Delta:     delta,
		Balance:   balance,
	}
	if kind != events.ChangeClear && !key.Native {
		change.Address = key.Address.Hex()
	}
	l.events.Publish(change)
}

// FormatBalance renders v truncated to decimals fractional digits.
func FormatBalance(v decimal.Decimal, decimals int32) string {
	return v.Truncate(decimals).String()
}

func (l *Ledger) restore() error {
	if l.store == nil {
		return nil
	}
	state, err := l.store.Load()
	if err != nil || state == nil {
		return err
	}

	for _, se := range state.Entries {
		if _, err := decimal.NewFromString(se.Balance); err != nil {
			return errors.Wrapf(ErrInvalidAmount, "decode stored balance %q", se.Balance)
		}
		key := Key{ChainID: se.ChainID, Native: se.Native}
		if !se.Native {
			key.Address = common.HexToAddress(se.Address)
		}
		l.entries[key] = Entry{Balance: se.Balance, Decimals: se.Decimals}
	}
	if l.session == "" {
		l.session = state.Session
	}

	l.logger.Info("ledger restored",
		zap.String("path", l.store.Path()),
		zap.Int("entries", len(l.entries)))
	return nil
}

// persist must be called with mu held.
func (l *Ledger) persist() {
	if l.store == nil {
		return
	}

	keys := make([]Key, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ChainID != keys[j].ChainID {
			return keys[i].ChainID < keys[j].ChainID
		}
		if keys[i].Native != keys[j].Native {
			return keys[i].Native
		}
		return keys[i].Address.Cmp(keys[j].Address) < 0
	})

	state := simstate.State{
		Session: l.session,
		Entries: make([]simstate.StoredEntry, 0, len(keys)),
	}
	for _, k := range keys {
		e := l.entries[k]
		se := simstate.StoredEntry{
			ChainID:  k.ChainID,
			Native:   k.Native,
			Balance:  e.Balance,
			Decimals: e.Decimals,
		}
		if !k.Native {
			se.Address = k.Address.Hex()
		}
		state.Entries = append(state.Entries, se)
	}

	if err := l.store.Save(state); err != nil {
		l.logger.Warn("failed to persist ledger state", zap.Error(err))
	}
}
