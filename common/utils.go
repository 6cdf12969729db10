package common

import (
	"errors"
	"math/big"
	"strings"
	"time"
)

var (
	errInvalidBigInt = errors.New("invalid big int")
	bigZero          = big.NewInt(0)
)

// GetBigIntFromStr parse decimal or 0x-prefixed hex string to big int
func GetBigIntFromStr(str string) (*big.Int, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, errInvalidBigInt
	}
	base := 10
	if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
		str = str[2:]
		base = 16
	}
	value, ok := new(big.Int).SetString(str, base)
	if !ok {
		return nil, errInvalidBigInt
	}
	return value, nil
}

// BigOrZero returns a copy of value, or zero if value is nil
func BigOrZero(value *big.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(value)
}

// IsPositive is value > 0
func IsPositive(value *big.Int) bool {
	return value != nil && value.Sign() > 0
}

// IsNegative is value < 0
func IsNegative(value *big.Int) bool {
	return value != nil && value.Sign() < 0
}

// MulDiv returns value * mul / div rounding down, div must be positive
func MulDiv(value *big.Int, mul, div uint64) *big.Int {
	if value == nil || value.Cmp(bigZero) == 0 {
		return new(big.Int)
	}
	res := new(big.Int).Mul(value, new(big.Int).SetUint64(mul))
	return res.Div(res, new(big.Int).SetUint64(div))
}

// NowMilli returns now timestamp in milliseconds
func NowMilli() int64 {
	return time.Now().UnixNano() / 1e6
}
