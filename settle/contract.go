// Package settle implements the source side swap orchestrator and the
// destination side settlement executor of one contract instance.
package settle

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/router"
	"github.com/anyswap/CrossChain-Settlement/state"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/tokens/base"
	"github.com/anyswap/CrossChain-Settlement/tokens/fee"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
)

// Options identity of a contract instance
type Options struct {
	ChainID          uint64
	Address          common.Address
	TransportAccount common.Address
	WrappedNative    common.Address

	Clock clockwork.Clock
	Sink  tokens.IEventSink
}

// Capabilities external collaborators keyed by their on chain address
type Capabilities struct {
	Dexes     map[common.Address]tokens.IDexRouter
	Markets   map[common.Address]tokens.INFTMarket
	Transport tokens.ITransport
}

// Contract one settlement contract instance
type Contract struct {
	chainID          uint64
	address          common.Address
	transportAccount common.Address
	wnative          common.Address

	registry *router.Registry
	journal  *state.Journal
	vault    *state.Vault
	nonces   *base.NonceAllocator
	fees     *fee.Engine

	settled     map[common.Hash]*tokens.SettlementOutcome
	settledLock sync.RWMutex

	pending []tokens.Event

	caps  *Capabilities
	clock clockwork.Clock
	sink  tokens.IEventSink

	// serializes entry points
	mu       sync.Mutex
	external externalCallGuard
}

// NewContract new contract instance
func NewContract(opts *Options, registry *router.Registry, caps *Capabilities) *Contract {
	if caps == nil {
		caps = &Capabilities{}
	}
	if caps.Dexes == nil {
		caps.Dexes = make(map[common.Address]tokens.IDexRouter)
	}
	if caps.Markets == nil {
		caps.Markets = make(map[common.Address]tokens.INFTMarket)
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	journal := state.NewJournal()
	return &Contract{
		chainID:          opts.ChainID,
		address:          opts.Address,
		transportAccount: opts.TransportAccount,
		wnative:          opts.WrappedNative,
		registry:         registry,
		journal:          journal,
		vault:            state.NewVault(journal),
		nonces:           base.NewNonceAllocator(opts.ChainID, journal),
		fees:             fee.NewEngine(registry, fee.NewLedger(journal)),
		settled:          make(map[common.Hash]*tokens.SettlementOutcome),
		caps:             caps,
		clock:            clock,
		sink:             opts.Sink,
	}
}

// enter rejects reentrant calls and takes the single writer lock
func (c *Contract) enter(ctx context.Context) error {
	if isInExternalCall(ctx) || c.external.isActive() {
		return tokens.ErrReentrantCall
	}
	c.mu.Lock()
	return nil
}

// leave reverts everything on error, otherwise commits and flushes events
func (c *Contract) leave(snapshot int, err error) {
	defer c.mu.Unlock()
	if err != nil {
		c.journal.RevertToSnapshot(snapshot)
		return
	}
	events := c.pending
	c.pending = nil
	c.journal.Commit()
	if c.sink == nil {
		return
	}
	for _, ev := range events {
		c.sink.HandleEvent(ev)
	}
	if listener, ok := c.sink.(tokens.ICommitListener); ok {
		listener.OnCommit()
	}
}

func (c *Contract) emit(ev tokens.Event) {
	n := len(c.pending)
	c.journal.Append(func() { c.pending = c.pending[:n] })
	c.pending = append(c.pending, ev)
}

func (c *Contract) now() uint64 {
	return uint64(c.clock.Now().Unix())
}

func (c *Contract) markSettled(outcome *tokens.SettlementOutcome) {
	c.settledLock.Lock()
	defer c.settledLock.Unlock()
	id := outcome.RequestID
	c.settled[id] = outcome
	c.journal.Append(func() {
		c.settledLock.Lock()
		defer c.settledLock.Unlock()
		delete(c.settled, id)
	})
}

// Deposit credits externally held funds into custody of account
func (c *Contract) Deposit(token, account common.Address, amount *big.Int) (err error) {
	if err = c.enter(context.Background()); err != nil {
		return err
	}
	snapshot := c.journal.Snapshot()
	defer func() { c.leave(snapshot, err) }()
	return c.vault.Credit(token, account, amount)
}

// Withdraw removes funds of account out of custody
func (c *Contract) Withdraw(token, account common.Address, amount *big.Int) (err error) {
	if err = c.enter(context.Background()); err != nil {
		return err
	}
	snapshot := c.journal.Snapshot()
	defer func() { c.leave(snapshot, err) }()
	return c.vault.Debit(token, account, amount)
}

// RestoreState rehydrate nonce, fee ledger and settled set from persistence
func (c *Contract) RestoreState(nonce uint64, ledger []*fee.LedgerEntry, settled []*tokens.SettlementOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonces.Restore(nonce)
	for _, entry := range ledger {
		c.fees.Ledger().Restore(entry.Token, entry.Beneficiary, entry.Amount)
	}
	c.settledLock.Lock()
	for _, outcome := range settled {
		c.settled[outcome.RequestID] = outcome
	}
	c.settledLock.Unlock()
	log.Info("restore contract state", "chainID", c.chainID, "nonce", nonce, "ledger", len(ledger), "settled", len(settled))
}

// RestoreBalances rehydrate custody balances from persistence
func (c *Contract) RestoreBalances(balances []*state.Balance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, bal := range balances {
		c.vault.Restore(bal.Token, bal.Account, bal.Amount)
	}
	log.Info("restore custody balances", "chainID", c.chainID, "count", len(balances))
}

// SetEventSink replace the sink of committed events
func (c *Contract) SetEventSink(sink tokens.IEventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// ChainID own chain id
func (c *Contract) ChainID() uint64 { return c.chainID }

// Address own address
func (c *Contract) Address() common.Address { return c.address }

// TransportAccount custody account of the transport on this chain
func (c *Contract) TransportAccount() common.Address { return c.transportAccount }

// WrappedNative wrapped native token
func (c *Contract) WrappedNative() common.Address { return c.wnative }

// Registry config aggregate
func (c *Contract) Registry() *router.Registry { return c.registry }

// Nonce next nonce to be allocated
func (c *Contract) Nonce() uint64 { return c.nonces.Current() }

// BalanceOf custody balance of account
func (c *Contract) BalanceOf(token, account common.Address) *big.Int {
	return c.vault.BalanceOf(token, account)
}

// Balances all custody balances
func (c *Contract) Balances() []*state.Balance {
	return c.vault.Balances()
}

// CollectedFee accrued fee of beneficiary
func (c *Contract) CollectedFee(token, beneficiary common.Address) *big.Int {
	return c.fees.Ledger().Get(token, beneficiary)
}

// FeeLedger all accrued fees
func (c *Contract) FeeLedger() []*fee.LedgerEntry {
	return c.fees.Ledger().Entries()
}

// QuoteCryptoFee native fee owed for a request to dstChainID
func (c *Contract) QuoteCryptoFee(dstChainID uint64, integrator common.Address) (*tokens.CryptoFeeQuote, error) {
	return c.fees.QuoteCryptoFee(dstChainID, integrator)
}

// CalcFee fee split of a destination settlement without crediting
func (c *Contract) CalcFee(integrator common.Address, srcChainID uint64, gross *big.Int) (*tokens.Settlement, error) {
	return c.fees.Calculate(integrator, srcChainID, gross)
}

// GetSettlement outcome of a settled request, nil if not settled
func (c *Contract) GetSettlement(id common.Hash) *tokens.SettlementOutcome {
	c.settledLock.RLock()
	defer c.settledLock.RUnlock()
	if outcome, exist := c.settled[id]; exist {
		res := *outcome
		return &res
	}
	return nil
}

// IsSettled is request settled
func (c *Contract) IsSettled(id common.Hash) bool {
	return c.GetSettlement(id) != nil
}

func (c *Contract) String() string {
	return fmt.Sprintf("contract(chain=%v, address=%v)", c.chainID, c.address.Hex())
}
