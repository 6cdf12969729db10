package settle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/ethereum/go-ethereum/common"
)

type routeContext struct {
	requestID common.Hash
	token     common.Address
	net       *big.Int
	instr     *tokens.DestinationInstructions
}

// routeHandler performs the destination action and pays the receiver
type routeHandler func(c *Contract, ctx context.Context, route *routeContext) (paidToken common.Address, paidAmount *big.Int, err error)

var routeHandlers = map[tokens.RouteKind]routeHandler{
	tokens.RouteSwapV2:      (*Contract).handleSwap,
	tokens.RouteSwapV3:      (*Contract).handleSwap,
	tokens.RouteNFTPurchase: (*Contract).handleNFTPurchase,
}

func (c *Contract) dispatch(ctx context.Context, kind tokens.RouteKind, route *routeContext) (common.Address, *big.Int, error) {
	handler, exist := routeHandlers[kind]
	if !exist {
		return common.Address{}, nil, fmt.Errorf("%w: no handler of route %v", tokens.ErrInvalidInstructions, kind)
	}
	return handler(c, ctx, route)
}

// destinationSwap swaps the net bridging amount along the instructions path
func (c *Contract) destinationSwap(ctx context.Context, route *routeContext) (common.Address, *big.Int, error) {
	instr := route.instr
	first, _, ok := tokens.PathEnds(instr.Version, instr.Path, instr.PathV3)
	if !ok || first != route.token {
		return common.Address{}, nil, fmt.Errorf("%w: path does not start with bridging token %v", tokens.ErrInvalidInstructions, route.token.Hex())
	}
	return c.swap(ctx, &swapLeg{
		dex:              instr.Dex,
		version:          instr.Version,
		path:             instr.Path,
		pathV3:           instr.PathV3,
		amountIn:         route.net,
		amountOutMinimum: instr.AmountOutMinimum,
		deadline:         instr.Deadline,
	})
}

func (c *Contract) handleSwap(ctx context.Context, route *routeContext) (common.Address, *big.Int, error) {
	tokenOut, amountOut, err := c.destinationSwap(ctx, route)
	if err != nil {
		return tokenOut, nil, err
	}
	paidToken, err := c.payout(tokenOut, amountOut, route.instr.Receiver, route.instr.NativeOut)
	if err != nil {
		return paidToken, nil, err
	}
	return paidToken, amountOut, nil
}

func (c *Contract) handleNFTPurchase(ctx context.Context, route *routeContext) (common.Address, *big.Int, error) {
	instr := route.instr
	nft := &instr.NFT

	var (
		tokenOut  common.Address
		amountOut *big.Int
		err       error
	)
	if instr.Version == tokens.BridgeOnly {
		tokenOut, amountOut = route.token, route.net
	} else {
		tokenOut, amountOut, err = c.destinationSwap(ctx, route)
		if err != nil {
			return tokenOut, nil, err
		}
	}
	if tokenOut != c.wnative {
		return tokenOut, nil, fmt.Errorf("%w: nft purchase needs wrapped native, got %v", tokens.ErrInvalidInstructions, tokenOut.Hex())
	}
	value := nft.Value
	if value == nil {
		value = new(big.Int)
	}
	if amountOut.Cmp(value) < 0 {
		return tokenOut, nil, fmt.Errorf("%w: nft value %v exceeds amount %v", tokens.ErrInsufficientValue, value, amountOut)
	}

	marketAddr, exist := c.registry.GetMarket(nft.MarketID)
	if !exist {
		return tokenOut, nil, fmt.Errorf("%w: market %v", tokens.ErrUnknownMarket, nft.MarketID)
	}
	market := c.caps.Markets[marketAddr]
	if market == nil {
		return tokenOut, nil, fmt.Errorf("%w: no adapter of market %v", tokens.ErrUnknownMarket, marketAddr.Hex())
	}

	if err = c.vault.Unwrap(c.wnative, c.address, amountOut); err != nil {
		return tokenOut, nil, err
	}
	if err = c.vault.Transfer(tokens.NativeToken, c.address, marketAddr, value); err != nil {
		return tokenOut, nil, err
	}
	err = c.callExternal(ctx, func(ctx context.Context) error {
		return market.Purchase(ctx, new(big.Int).Set(value), nft.Data, instr.Receiver)
	})
	if err != nil {
		return tokenOut, nil, err
	}
	c.emit(&tokens.NFTPurchasedEvent{
		RequestID: route.requestID,
		MarketID:  nft.MarketID,
		Value:     new(big.Int).Set(value),
	})

	leftover := new(big.Int).Sub(amountOut, value)
	if leftover.Sign() > 0 {
		if err = c.vault.Transfer(tokens.NativeToken, c.address, instr.Receiver, leftover); err != nil {
			return tokens.NativeToken, nil, err
		}
	}
	return tokens.NativeToken, leftover, nil
}
