// Package events carries simulated ledger changes to in-process listeners such as the CLI.
package events

import (
	"sync"
	"time"
)

// BalanceChange kinds.
const (
	ChangeSeed   = "seed"
	ChangeCredit = "credit"
	ChangeDebit  = "debit"
	ChangeClear  = "clear"
)

// BalanceChange is published after every simulated ledger mutation.
// Amounts are strings to keep exact decimals for UI consumers.
type BalanceChange struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	ChainID   int64     `json:"chain_id"`
	Native    bool      `json:"native"`
	Address   string    `json:"address,omitempty"`
	Delta     string    `json:"delta,omitempty"`
	Balance   string    `json:"balance,omitempty"`
}

// BalanceBroadcaster delivers each ledger change to every subscriber without blocking the ledger.
// A nil broadcaster ignores Publish.
type BalanceBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan BalanceChange]struct{}
	buffer int
}

// NewBalanceBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewBalanceBroadcaster(buffer int) *BalanceBroadcaster {
	if buffer < 1 {
		buffer = 64
	}
	return &BalanceBroadcaster{
		subs:   make(map[chan BalanceChange]struct{}),
		buffer: buffer,
	}
}

// Publish sends the change to all subscribers, dropping if a reader is slow.
func (b *BalanceBroadcaster) Publish(c BalanceChange) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- c:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a channel that receives changes until Unsubscribe is called.
func (b *BalanceBroadcaster) Subscribe() chan BalanceChange {
	ch := make(chan BalanceChange, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *BalanceBroadcaster) Unsubscribe(ch chan BalanceChange) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
