package router

import (
	"fmt"
	"math/big"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/ethereum/go-ethereum/common"
)

// CheckBounds per token min/max check, unrestricted if not configured
func (r *Registry) CheckBounds(token common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: %v", tokens.ErrInvalidAmount, amount)
	}
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.tokenBounds[token].Check(amount)
}
