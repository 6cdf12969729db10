package fee

import (
	"bytes"
	"math/big"
	"sync"

	"github.com/anyswap/CrossChain-Settlement/state"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/exp/slices"
)

type ledgerKey struct {
	Token       common.Address
	Beneficiary common.Address
}

// LedgerEntry accrued but unwithdrawn fee
type LedgerEntry struct {
	Token       common.Address `json:"token"`
	Beneficiary common.Address `json:"beneficiary"`
	Amount      *big.Int       `json:"amount"`
}

// Ledger fee balances per (token, beneficiary), credited only by Engine
type Ledger struct {
	journal  *state.Journal
	balances map[ledgerKey]*big.Int
	lock     sync.RWMutex
}

// NewLedger new ledger
func NewLedger(journal *state.Journal) *Ledger {
	return &Ledger{
		journal:  journal,
		balances: make(map[ledgerKey]*big.Int),
	}
}

// Get returns a copy of accrued fee
func (l *Ledger) Get(token, beneficiary common.Address) *big.Int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	if bal, exist := l.balances[ledgerKey{token, beneficiary}]; exist {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Entries returns all non zero entries sorted by token then beneficiary
func (l *Ledger) Entries() []*LedgerEntry {
	l.lock.RLock()
	defer l.lock.RUnlock()
	entries := make([]*LedgerEntry, 0, len(l.balances))
	for key, bal := range l.balances {
		entries = append(entries, &LedgerEntry{
			Token:       key.Token,
			Beneficiary: key.Beneficiary,
			Amount:      new(big.Int).Set(bal),
		})
	}
	slices.SortFunc(entries, func(a, b *LedgerEntry) bool {
		if c := bytes.Compare(a.Token[:], b.Token[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(a.Beneficiary[:], b.Beneficiary[:]) < 0
	})
	return entries
}

// Restore load a persisted entry at startup, not journaled
func (l *Ledger) Restore(token, beneficiary common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	l.balances[ledgerKey{token, beneficiary}] = new(big.Int).Set(amount)
}

func (l *Ledger) credit(token, beneficiary common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()

	key := ledgerKey{token, beneficiary}
	prev, existed := l.balances[key]
	l.journal.Append(func() {
		l.lock.Lock()
		defer l.lock.Unlock()
		if existed {
			l.balances[key] = prev
		} else {
			delete(l.balances, key)
		}
	})
	if existed {
		l.balances[key] = new(big.Int).Add(prev, amount)
	} else {
		l.balances[key] = new(big.Int).Set(amount)
	}
}
