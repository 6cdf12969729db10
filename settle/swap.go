package settle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/ethereum/go-ethereum/common"
)

type swapLeg struct {
	dex              common.Address
	version          tokens.SwapVersion
	path             []common.Address
	pathV3           []byte
	amountIn         *big.Int
	amountOutMinimum *big.Int
	deadline         uint64
}

// swap moves amountIn out of custody, calls the dex and credits the output.
// Custody is updated before the external call.
func (c *Contract) swap(ctx context.Context, leg *swapLeg) (tokenOut common.Address, amountOut *big.Int, err error) {
	if !c.registry.IsSupportedRouter(leg.dex) {
		return tokenOut, nil, fmt.Errorf("%w: %v", tokens.ErrRouterNotSupported, leg.dex.Hex())
	}
	dex := c.caps.Dexes[leg.dex]
	if dex == nil {
		return tokenOut, nil, fmt.Errorf("%w: no adapter of %v", tokens.ErrRouterNotSupported, leg.dex.Hex())
	}
	if now := c.now(); leg.deadline < now {
		return tokenOut, nil, fmt.Errorf("%w: deadline %v before now %v", tokens.ErrDeadlineExpired, leg.deadline, now)
	}
	tokenIn, tokenOut, ok := tokens.PathEnds(leg.version, leg.path, leg.pathV3)
	if !ok {
		return tokenOut, nil, fmt.Errorf("%w: wrong %v path", tokens.ErrInvalidInstructions, leg.version)
	}
	minOut := leg.amountOutMinimum
	if minOut == nil {
		minOut = new(big.Int)
	}

	if err = c.vault.Debit(tokenIn, c.address, leg.amountIn); err != nil {
		return tokenOut, nil, err
	}
	route := &tokens.SwapRoute{
		Version:          leg.version,
		Path:             leg.path,
		PathV3:           leg.pathV3,
		TokenIn:          tokenIn,
		TokenOut:         tokenOut,
		AmountIn:         new(big.Int).Set(leg.amountIn),
		AmountOutMinimum: new(big.Int).Set(minOut),
		Deadline:         leg.deadline,
		Recipient:        c.address,
	}
	err = c.callExternal(ctx, func(ctx context.Context) (errf error) {
		amountOut, errf = dex.SwapExactIn(ctx, route)
		return errf
	})
	if err != nil {
		return tokenOut, nil, err
	}
	if amountOut == nil || amountOut.Cmp(minOut) < 0 {
		return tokenOut, nil, fmt.Errorf("output %v below minimum %v", amountOut, minOut)
	}
	if err = c.vault.Credit(tokenOut, c.address, amountOut); err != nil {
		return tokenOut, nil, err
	}
	log.Debug("swap success", "chainID", c.chainID, "dex", leg.dex, "version", leg.version,
		"tokenIn", tokenIn, "amountIn", leg.amountIn, "tokenOut", tokenOut, "amountOut", amountOut)
	return tokenOut, amountOut, nil
}

// payout transfers amount of token to receiver, unwrapping wrapped native if asked.
// Returns the token the receiver actually got.
func (c *Contract) payout(token common.Address, amount *big.Int, receiver common.Address, nativeOut bool) (common.Address, error) {
	if nativeOut && token == c.wnative {
		if err := c.vault.Unwrap(c.wnative, c.address, amount); err != nil {
			return token, err
		}
		token = tokens.NativeToken
	}
	if err := c.vault.Transfer(token, c.address, receiver, amount); err != nil {
		return token, err
	}
	return token, nil
}
