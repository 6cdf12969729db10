package router

import (
	"fmt"
	"math/big"

	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/ethereum/go-ethereum/common"
)

func (r *Registry) checkOwner(caller common.Address) error {
	if caller != r.owner {
		return fmt.Errorf("%w: caller %v is not owner", tokens.ErrUnauthorized, caller.Hex())
	}
	return nil
}

func (r *Registry) lockOwner(caller common.Address) (unlock func(), err error) {
	r.lock.Lock()
	if err = r.checkOwner(caller); err != nil {
		r.lock.Unlock()
		return nil, err
	}
	return r.lock.Unlock, nil
}

// TransferOwnership set new owner
func (r *Registry) TransferOwnership(caller, newOwner common.Address) error {
	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()
	if newOwner == (common.Address{}) {
		return fmt.Errorf("%w: zero owner", tokens.ErrUnauthorized)
	}
	log.Info("transfer ownership", "old", r.owner, "new", newOwner)
	r.owner = newOwner
	return nil
}

// SetMessageBus set authenticated transport caller
func (r *Registry) SetMessageBus(caller, messageBus common.Address) error {
	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()
	r.messageBus = messageBus
	log.Info("set message bus", "messageBus", messageBus)
	return nil
}

// SetIntegratorInfo register or update an integrator
func (r *Registry) SetIntegratorInfo(caller, integrator common.Address, info *tokens.IntegratorInfo) error {
	if integrator == (common.Address{}) {
		return fmt.Errorf("%w: zero integrator", tokens.ErrInvalidFeeConfig)
	}
	if err := info.CheckConfig(); err != nil {
		return err
	}
	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()
	r.integrators[integrator] = info.Clone()
	log.Info("set integrator info", "integrator", integrator, "isIntegrator", info.IsIntegrator,
		"tokenFee", info.TokenFee, "platformTokenShare", info.PlatformTokenShare,
		"platformFixedCryptoShare", info.PlatformFixedCryptoShare, "fixedCryptoFee", info.FixedCryptoFee)
	return nil
}

// SetDefaultTokenFee set default token fee in parts per million
func (r *Registry) SetDefaultTokenFee(caller common.Address, fee uint64) error {
	if err := tokens.CheckFeeRate("DefaultTokenFee", fee); err != nil {
		return err
	}
	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()
	r.defaultTokenFee = fee
	return nil
}

// SetFeeAmountOfBlockchain set default token fee of a source chain
func (r *Registry) SetFeeAmountOfBlockchain(caller common.Address, chainID, fee uint64) error {
	if err := tokens.CheckFeeRate("FeeAmountOfBlockchain", fee); err != nil {
		return err
	}
	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()
	r.feeAmountOfBlockchain[chainID] = fee
	return nil
}

// SetCryptoFeeOfBlockchain set transport fee of a destination chain
func (r *Registry) SetCryptoFeeOfBlockchain(caller common.Address, chainID uint64, fee *big.Int) error {
	if fee == nil || fee.Sign() < 0 {
		return fmt.Errorf("%w: crypto fee %v", tokens.ErrInvalidFeeConfig, fee)
	}
	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()
	r.cryptoFeeOfBlockchain[chainID] = new(big.Int).Set(fee)
	return nil
}

// SetFixedCryptoFee set fixed crypto fee of non integrators
func (r *Registry) SetFixedCryptoFee(caller common.Address, fee *big.Int) error {
	if fee == nil || fee.Sign() < 0 {
		return fmt.Errorf("%w: fixed crypto fee %v", tokens.ErrInvalidFeeConfig, fee)
	}
	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()
	r.fixedCryptoFee = new(big.Int).Set(fee)
	return nil
}

func (r *Registry) setTokenBound(caller, token common.Address, amount *big.Int, isMax bool) error {
	if amount != nil && amount.Sign() < 0 {
		return fmt.Errorf("%w: negative bound %v", tokens.ErrInvalidAmount, amount)
	}
	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()
	bounds := &tokens.TokenBounds{}
	if old, exist := r.tokenBounds[token]; exist {
		*bounds = *old
	}
	var value *big.Int
	if amount != nil {
		value = new(big.Int).Set(amount)
	}
	if isMax {
		bounds.Max = value
	} else {
		bounds.Min = value
	}
	if err = bounds.CheckConfig(); err != nil {
		return err
	}
	r.tokenBounds[token] = bounds
	log.Info("set token bounds", "token", token, "min", bounds.Min, "max", bounds.Max)
	return nil
}

// SetMaxTokenAmount set max amount of token, nil or zero removes the bound
func (r *Registry) SetMaxTokenAmount(caller, token common.Address, amount *big.Int) error {
	return r.setTokenBound(caller, token, amount, true)
}

// SetMinTokenAmount set min amount of token, nil or zero removes the bound
func (r *Registry) SetMinTokenAmount(caller, token common.Address, amount *big.Int) error {
	return r.setTokenBound(caller, token, amount, false)
}

// SetSupportedRouters add or remove supported dex routers
func (r *Registry) SetSupportedRouters(caller common.Address, routers []common.Address, supported bool) error {
	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()
	for _, dex := range routers {
		if supported {
			r.supportedRouters.Add(dex)
		} else {
			r.supportedRouters.Remove(dex)
		}
	}
	log.Info("set supported routers", "routers", routers, "supported", supported)
	return nil
}

// SetMPRegistry set marketplace of market id, zero address removes it
func (r *Registry) SetMPRegistry(caller common.Address, marketID uint64, market common.Address) error {
	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()
	if market == (common.Address{}) {
		delete(r.markets, marketID)
	} else {
		r.markets[marketID] = market
	}
	log.Info("set marketplace registry", "marketID", marketID, "market", market)
	return nil
}

// SetPeer set settlement contract on another chain
func (r *Registry) SetPeer(caller common.Address, chainID uint64, contract common.Address) error {
	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()
	if contract == (common.Address{}) {
		delete(r.peers, chainID)
	} else {
		r.peers[chainID] = contract
	}
	return nil
}
