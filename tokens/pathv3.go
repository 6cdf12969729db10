package tokens

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	v3FeeSize    = 3
	v3HopSize    = common.AddressLength + v3FeeSize
	v3MinPathLen = common.AddressLength + v3HopSize

	// MaxV3PoolFee uint24 upper bound
	MaxV3PoolFee = 1<<24 - 1
)

var errWrongV3Path = errors.New("wrong v3 path")

// EncodeV3Path packs token0 fee0 token1 fee1 token2 ...
func EncodeV3Path(path []common.Address, fees []uint32) ([]byte, error) {
	if len(path) < 2 || len(fees) != len(path)-1 {
		return nil, fmt.Errorf("%w: %v tokens with %v fees", errWrongV3Path, len(path), len(fees))
	}
	res := make([]byte, 0, common.AddressLength+len(fees)*v3HopSize)
	for i, token := range path {
		res = append(res, token.Bytes()...)
		if i < len(fees) {
			fee := fees[i]
			if fee > MaxV3PoolFee {
				return nil, fmt.Errorf("%w: fee %v overflows uint24", errWrongV3Path, fee)
			}
			res = append(res, byte(fee>>16), byte(fee>>8), byte(fee))
		}
	}
	return res, nil
}

// DecodeV3Path unpacks a packed v3 path
func DecodeV3Path(packed []byte) (path []common.Address, fees []uint32, err error) {
	if !IsValidV3Path(packed) {
		return nil, nil, fmt.Errorf("%w: length %v", errWrongV3Path, len(packed))
	}
	hops := (len(packed) - common.AddressLength) / v3HopSize
	path = make([]common.Address, 0, hops+1)
	fees = make([]uint32, 0, hops)
	path = append(path, common.BytesToAddress(packed[:common.AddressLength]))
	for i := 0; i < hops; i++ {
		pos := common.AddressLength + i*v3HopSize
		fee := uint32(packed[pos])<<16 | uint32(packed[pos+1])<<8 | uint32(packed[pos+2])
		fees = append(fees, fee)
		path = append(path, common.BytesToAddress(packed[pos+v3FeeSize:pos+v3HopSize]))
	}
	return path, fees, nil
}

// IsValidV3Path length is 20 + 23*k with k >= 1
func IsValidV3Path(packed []byte) bool {
	return len(packed) >= v3MinPathLen && (len(packed)-common.AddressLength)%v3HopSize == 0
}

// V3PathEnds first and last token of a packed path
func V3PathEnds(packed []byte) (first, last common.Address, ok bool) {
	if !IsValidV3Path(packed) {
		return first, last, false
	}
	first = common.BytesToAddress(packed[:common.AddressLength])
	last = common.BytesToAddress(packed[len(packed)-common.AddressLength:])
	return first, last, true
}

// PathEnds input and output token of a swap leg
func PathEnds(version SwapVersion, path []common.Address, pathV3 []byte) (first, last common.Address, ok bool) {
	if version == SwapV3 {
		return V3PathEnds(pathV3)
	}
	if len(path) == 0 {
		return first, last, false
	}
	return path[0], path[len(path)-1], true
}
