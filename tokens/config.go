package tokens

import (
	"errors"
	"fmt"
	"math/big"
)

// IntegratorInfo fee config of an integrator
type IntegratorInfo struct {
	IsIntegrator             bool     `json:"isIntegrator"`
	TokenFee                 uint64   `json:"tokenFee"`
	PlatformTokenShare       uint64   `json:"platformTokenShare"`
	PlatformFixedCryptoShare uint64   `json:"platformFixedCryptoShare"`
	FixedCryptoFee           *big.Int `json:"fixedCryptoFee"`
}

// TokenBounds per bridging token min and max amount, nil or zero is unbounded
type TokenBounds struct {
	Min *big.Int `json:"min,omitempty"`
	Max *big.Int `json:"max,omitempty"`
}

// CheckConfig check integrator info
func (c *IntegratorInfo) CheckConfig() error {
	if err := CheckFeeRate("TokenFee", c.TokenFee); err != nil {
		return err
	}
	if err := CheckFeeRate("PlatformTokenShare", c.PlatformTokenShare); err != nil {
		return err
	}
	if err := CheckFeeRate("PlatformFixedCryptoShare", c.PlatformFixedCryptoShare); err != nil {
		return err
	}
	if c.FixedCryptoFee != nil && c.FixedCryptoFee.Sign() < 0 {
		return fmt.Errorf("%w: negative 'FixedCryptoFee'", ErrInvalidFeeConfig)
	}
	return nil
}

// Clone deep copy
func (c *IntegratorInfo) Clone() *IntegratorInfo {
	res := *c
	if c.FixedCryptoFee != nil {
		res.FixedCryptoFee = new(big.Int).Set(c.FixedCryptoFee)
	}
	return &res
}

// GetFixedCryptoFee nil safe getter
func (c *IntegratorInfo) GetFixedCryptoFee() *big.Int {
	if c.FixedCryptoFee == nil {
		return new(big.Int)
	}
	return c.FixedCryptoFee
}

// CheckFeeRate rates and shares are parts per million
func CheckFeeRate(name string, rate uint64) error {
	if rate > FeeDecimals {
		return fmt.Errorf("%w: '%v' %v exceeds %v", ErrInvalidFeeConfig, name, rate, FeeDecimals)
	}
	return nil
}

// CheckConfig check token bounds
func (b *TokenBounds) CheckConfig() error {
	if b.Min != nil && b.Min.Sign() < 0 {
		return errors.New("negative min amount")
	}
	if b.Max != nil && b.Max.Sign() < 0 {
		return errors.New("negative max amount")
	}
	if b.HasMin() && b.HasMax() && b.Min.Cmp(b.Max) > 0 {
		return fmt.Errorf("min amount %v is greater than max amount %v", b.Min, b.Max)
	}
	return nil
}

// HasMin min is configured
func (b *TokenBounds) HasMin() bool {
	return b != nil && b.Min != nil && b.Min.Sign() > 0
}

// HasMax max is configured
func (b *TokenBounds) HasMax() bool {
	return b != nil && b.Max != nil && b.Max.Sign() > 0
}

// Check amount against bounds
func (b *TokenBounds) Check(amount *big.Int) error {
	if b.HasMin() && amount.Cmp(b.Min) < 0 {
		return fmt.Errorf("%w: %v < %v", ErrAmountTooSmall, amount, b.Min)
	}
	if b.HasMax() && amount.Cmp(b.Max) > 0 {
		return fmt.Errorf("%w: %v > %v", ErrAmountTooLarge, amount, b.Max)
	}
	return nil
}
