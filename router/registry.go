// Package router holds the owner managed configuration of a settlement contract.
package router

import (
	"bytes"
	"math/big"
	"sync"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Registry the configuration aggregate consulted by fee engine, bounds
// validator, orchestrator and executor. Mutations go through the owner
// gated setters in admin.go.
type Registry struct {
	lock sync.RWMutex

	owner      common.Address
	messageBus common.Address

	defaultTokenFee       uint64
	fixedCryptoFee        *big.Int
	feeAmountOfBlockchain map[uint64]uint64   // key is source chain ID
	cryptoFeeOfBlockchain map[uint64]*big.Int // key is destination chain ID

	integrators map[common.Address]*tokens.IntegratorInfo
	tokenBounds map[common.Address]*tokens.TokenBounds

	supportedRouters mapset.Set // of common.Address
	markets          map[uint64]common.Address
	peers            map[uint64]common.Address // key is chain ID
}

// NewRegistry new empty registry
func NewRegistry(owner, messageBus common.Address) *Registry {
	return &Registry{
		owner:                 owner,
		messageBus:            messageBus,
		fixedCryptoFee:        new(big.Int),
		feeAmountOfBlockchain: make(map[uint64]uint64),
		cryptoFeeOfBlockchain: make(map[uint64]*big.Int),
		integrators:           make(map[common.Address]*tokens.IntegratorInfo),
		tokenBounds:           make(map[common.Address]*tokens.TokenBounds),
		supportedRouters:      mapset.NewSet(),
		markets:               make(map[uint64]common.Address),
		peers:                 make(map[uint64]common.Address),
	}
}

// Owner current owner
func (r *Registry) Owner() common.Address {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.owner
}

// MessageBus authenticated transport caller
func (r *Registry) MessageBus() common.Address {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.messageBus
}

// GetIntegratorInfo returns a copy, nil if unknown
func (r *Registry) GetIntegratorInfo(integrator common.Address) *tokens.IntegratorInfo {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if info, exist := r.integrators[integrator]; exist {
		return info.Clone()
	}
	return nil
}

// GetAllIntegrators returns sorted integrator addresses
func (r *Registry) GetAllIntegrators() []common.Address {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return sortedAddresses(maps.Keys(r.integrators))
}

// GetDefaultTokenFee default token fee used for unregistered integrators
func (r *Registry) GetDefaultTokenFee(srcChainID uint64) uint64 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if fee, exist := r.feeAmountOfBlockchain[srcChainID]; exist {
		return fee
	}
	return r.defaultTokenFee
}

// GetCryptoFeeOfBlockchain transport fee of destination chain
func (r *Registry) GetCryptoFeeOfBlockchain(dstChainID uint64) *big.Int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if fee, exist := r.cryptoFeeOfBlockchain[dstChainID]; exist {
		return new(big.Int).Set(fee)
	}
	return new(big.Int)
}

// GetFixedCryptoFee fixed crypto fee taken from non integrators
func (r *Registry) GetFixedCryptoFee() *big.Int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return new(big.Int).Set(r.fixedCryptoFee)
}

// GetTokenBounds returns a copy, nil if unbounded
func (r *Registry) GetTokenBounds(token common.Address) *tokens.TokenBounds {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if b, exist := r.tokenBounds[token]; exist {
		res := &tokens.TokenBounds{}
		if b.Min != nil {
			res.Min = new(big.Int).Set(b.Min)
		}
		if b.Max != nil {
			res.Max = new(big.Int).Set(b.Max)
		}
		return res
	}
	return nil
}

// IsSupportedRouter is dex router supported
func (r *Registry) IsSupportedRouter(dex common.Address) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.supportedRouters.Contains(dex)
}

// GetAvailableRouters returns sorted supported dex routers
func (r *Registry) GetAvailableRouters() []common.Address {
	r.lock.RLock()
	defer r.lock.RUnlock()
	routers := make([]common.Address, 0, r.supportedRouters.Cardinality())
	for _, item := range r.supportedRouters.ToSlice() {
		routers = append(routers, item.(common.Address))
	}
	return sortedAddresses(routers)
}

// GetMarket marketplace address of market id
func (r *Registry) GetMarket(marketID uint64) (common.Address, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	addr, exist := r.markets[marketID]
	return addr, exist
}

// GetPeer settlement contract on chain, false if not configured
func (r *Registry) GetPeer(chainID uint64) (common.Address, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	addr, exist := r.peers[chainID]
	return addr, exist
}

func sortedAddresses(addrs []common.Address) []common.Address {
	slices.SortFunc(addrs, func(a, b common.Address) bool {
		return bytes.Compare(a[:], b[:]) < 0
	})
	return addrs
}
