// Package fee quotes and settles platform and integrator fees.
package fee

import (
	"fmt"
	"math/big"

	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// ConfigReader fee configuration consulted by the engine
type ConfigReader interface {
	GetIntegratorInfo(integrator ethcommon.Address) *tokens.IntegratorInfo
	GetDefaultTokenFee(srcChainID uint64) uint64
	GetCryptoFeeOfBlockchain(dstChainID uint64) *big.Int
	GetFixedCryptoFee() *big.Int
}

// Engine fee engine
type Engine struct {
	config ConfigReader
	ledger *Ledger
}

// NewEngine new fee engine
func NewEngine(config ConfigReader, ledger *Ledger) *Engine {
	return &Engine{config: config, ledger: ledger}
}

// Ledger read only access for queries
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

func (e *Engine) registeredInfo(integrator ethcommon.Address) *tokens.IntegratorInfo {
	if integrator == (ethcommon.Address{}) {
		return nil
	}
	if info := e.config.GetIntegratorInfo(integrator); info != nil && info.IsIntegrator {
		return info
	}
	return nil
}

// QuoteCryptoFee native fee owed for sending to dstChainID
func (e *Engine) QuoteCryptoFee(dstChainID uint64, integrator ethcommon.Address) (*tokens.CryptoFeeQuote, error) {
	quote := &tokens.CryptoFeeQuote{
		TransportFee:    common.BigOrZero(e.config.GetCryptoFeeOfBlockchain(dstChainID)),
		PlatformShare:   new(big.Int),
		IntegratorShare: new(big.Int),
	}
	if info := e.registeredInfo(integrator); info != nil {
		if err := tokens.CheckFeeRate("PlatformFixedCryptoShare", info.PlatformFixedCryptoShare); err != nil {
			return nil, err
		}
		fixed := info.GetFixedCryptoFee()
		if fixed.Sign() > 0 {
			quote.PlatformShare = common.MulDiv(fixed, info.PlatformFixedCryptoShare, tokens.FeeDecimals)
			quote.IntegratorShare = new(big.Int).Sub(fixed, quote.PlatformShare)
		}
		return quote, nil
	}
	quote.PlatformShare = common.BigOrZero(e.config.GetFixedCryptoFee())
	return quote, nil
}

// CollectCryptoFee credits the fixed crypto fee shares of a quote in native token
func (e *Engine) CollectCryptoFee(quote *tokens.CryptoFeeQuote, integrator ethcommon.Address) {
	e.ledger.credit(tokens.NativeToken, tokens.PlatformBeneficiary, quote.PlatformShare)
	if quote.IntegratorShare.Sign() > 0 && integrator != (ethcommon.Address{}) {
		e.ledger.credit(tokens.NativeToken, integrator, quote.IntegratorShare)
	}
}

// Calculate pure fee split of gross, no ledger mutation
func (e *Engine) Calculate(integrator ethcommon.Address, srcChainID uint64, gross *big.Int) (*tokens.Settlement, error) {
	if gross == nil || gross.Sign() < 0 {
		return nil, fmt.Errorf("%w: gross amount %v", tokens.ErrInvalidAmount, gross)
	}

	var rate, platformShare uint64
	if info := e.registeredInfo(integrator); info != nil {
		rate, platformShare = info.TokenFee, info.PlatformTokenShare
	} else {
		rate, platformShare = e.config.GetDefaultTokenFee(srcChainID), tokens.FeeDecimals
	}
	if err := tokens.CheckFeeRate("TokenFee", rate); err != nil {
		return nil, err
	}
	if err := tokens.CheckFeeRate("PlatformTokenShare", platformShare); err != nil {
		return nil, err
	}
	return Split(gross, rate, platformShare), nil
}

// Split computes totalFee = gross*rate/1e6, platformFee = totalFee*platformShare/1e6,
// integratorFee = totalFee - platformFee, net = gross - totalFee
func Split(gross *big.Int, rate, platformShare uint64) *tokens.Settlement {
	totalFee := common.MulDiv(gross, rate, tokens.FeeDecimals)
	platformFee := common.MulDiv(totalFee, platformShare, tokens.FeeDecimals)
	return &tokens.Settlement{
		Gross:         new(big.Int).Set(gross),
		Net:           new(big.Int).Sub(gross, totalFee),
		TotalFee:      totalFee,
		PlatformFee:   platformFee,
		IntegratorFee: new(big.Int).Sub(totalFee, platformFee),
	}
}

// Settle splits gross into net and fees and credits the fee ledger
func (e *Engine) Settle(token, integrator ethcommon.Address, srcChainID uint64, gross *big.Int) (*tokens.Settlement, error) {
	res, err := e.Calculate(integrator, srcChainID, gross)
	if err != nil {
		return nil, err
	}
	e.ledger.credit(token, tokens.PlatformBeneficiary, res.PlatformFee)
	if integrator != (ethcommon.Address{}) {
		e.ledger.credit(token, integrator, res.IntegratorFee)
	}
	return res, nil
}
