// Package base provides the nonce allocator shared by every contract instance.
package base

import (
	"sync"

	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/state"
)

// NonceAllocator single monotonically increasing counter per contract
type NonceAllocator struct {
	chainID uint64
	journal *state.Journal
	nonce   uint64
	lock    sync.RWMutex
}

// NewNonceAllocator new nonce allocator starting at 0
func NewNonceAllocator(chainID uint64, journal *state.Journal) *NonceAllocator {
	return &NonceAllocator{
		chainID: chainID,
		journal: journal,
	}
}

// Current next nonce to be allocated
func (a *NonceAllocator) Current() uint64 {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.nonce
}

// Next returns the pre-increment value and increments by one.
// The increment is journaled and disappears if the call reverts.
func (a *NonceAllocator) Next() uint64 {
	a.lock.Lock()
	defer a.lock.Unlock()

	nonce := a.nonce
	a.nonce++
	a.journal.Append(func() {
		a.lock.Lock()
		a.nonce = nonce
		a.lock.Unlock()
	})
	return nonce
}

// Restore init counter from persisted value, never goes backwards
func (a *NonceAllocator) Restore(value uint64) uint64 {
	a.lock.Lock()
	defer a.lock.Unlock()

	old := a.nonce
	if value > old {
		a.nonce = value
		log.Info("restore nonce", "chainID", a.chainID, "old", old, "new", value)
	} else if value < old {
		log.Warn("forbid restore nonce (backwards)", "chainID", a.chainID, "old", old, "new", value)
	}
	return a.nonce
}
