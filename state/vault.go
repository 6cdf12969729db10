package state

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/exp/slices"
)

type balanceKey struct {
	token   common.Address
	account common.Address
}

// Vault token custody of every account known to a contract instance.
// Tokens entering from or leaving to the outside world (dex fills,
// wrap and unwrap) go through Credit and Debit, moves between
// accounts go through Transfer.
type Vault struct {
	journal  *Journal
	balances map[balanceKey]*big.Int
	lock     sync.RWMutex
}

// NewVault new vault
func NewVault(journal *Journal) *Vault {
	return &Vault{
		journal:  journal,
		balances: make(map[balanceKey]*big.Int),
	}
}

// BalanceOf returns a copy of the balance
func (v *Vault) BalanceOf(token, account common.Address) *big.Int {
	v.lock.RLock()
	defer v.lock.RUnlock()
	if bal, exist := v.balances[balanceKey{token, account}]; exist {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Balance custody balance of one (token, account)
type Balance struct {
	Token   common.Address `json:"token"`
	Account common.Address `json:"account"`
	Amount  *big.Int       `json:"amount"`
}

// Balances all touched balances sorted by token then account.
// Drained balances are kept as zero so a stored snapshot gets overwritten.
func (v *Vault) Balances() []*Balance {
	v.lock.RLock()
	defer v.lock.RUnlock()
	result := make([]*Balance, 0, len(v.balances))
	for key, bal := range v.balances {
		result = append(result, &Balance{
			Token:   key.token,
			Account: key.account,
			Amount:  new(big.Int).Set(bal),
		})
	}
	slices.SortFunc(result, func(a, b *Balance) bool {
		if c := bytes.Compare(a.Token[:], b.Token[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(a.Account[:], b.Account[:]) < 0
	})
	return result
}

// Restore load a persisted balance at startup, not journaled
func (v *Vault) Restore(token, account common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	v.lock.Lock()
	defer v.lock.Unlock()
	v.balances[balanceKey{token, account}] = new(big.Int).Set(amount)
}

func (v *Vault) set(key balanceKey, value *big.Int) {
	v.lock.Lock()
	defer v.lock.Unlock()
	prev, existed := v.balances[key]
	v.journal.Append(func() {
		v.lock.Lock()
		defer v.lock.Unlock()
		if existed {
			v.balances[key] = prev
		} else {
			delete(v.balances, key)
		}
	})
	v.balances[key] = value
}

// Credit increases balance
func (v *Vault) Credit(token, account common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: credit %v", tokens.ErrInvalidAmount, amount)
	}
	if amount.Sign() == 0 {
		return nil
	}
	key := balanceKey{token, account}
	v.set(key, new(big.Int).Add(v.BalanceOf(token, account), amount))
	return nil
}

// Debit decreases balance
func (v *Vault) Debit(token, account common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: debit %v", tokens.ErrInvalidAmount, amount)
	}
	if amount.Sign() == 0 {
		return nil
	}
	bal := v.BalanceOf(token, account)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: token %v account %v has %v, need %v",
			tokens.ErrInsufficientBalance, token.Hex(), account.Hex(), bal, amount)
	}
	v.set(balanceKey{token, account}, bal.Sub(bal, amount))
	return nil
}

// Transfer moves amount of token between accounts
func (v *Vault) Transfer(token, from, to common.Address, amount *big.Int) error {
	if err := v.Debit(token, from, amount); err != nil {
		return err
	}
	return v.Credit(token, to, amount)
}

// Wrap converts native of account to wrapped native
func (v *Vault) Wrap(wnative, account common.Address, amount *big.Int) error {
	if err := v.Debit(tokens.NativeToken, account, amount); err != nil {
		return err
	}
	return v.Credit(wnative, account, amount)
}

// Unwrap converts wrapped native of account to native
func (v *Vault) Unwrap(wnative, account common.Address, amount *big.Int) error {
	if err := v.Debit(wnative, account, amount); err != nil {
		return err
	}
	return v.Credit(tokens.NativeToken, account, amount)
}
