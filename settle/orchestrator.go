package settle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/tokens/abicoder"
	"github.com/ethereum/go-ethereum/common"
)

// InitiateArgs source side request
type InitiateArgs struct {
	Caller     common.Address
	Receiver   common.Address
	AmountIn   *big.Int
	DstChainID uint64
	SrcSwap    tokens.SourceSwapRequest
	DstSwap    tokens.DestinationInstructions
	GasBudget  uint64
	Value      *big.Int // native currency supplied with the call
	NativeIn   bool
}

func hasSourceSwap(req *tokens.SourceSwapRequest) bool {
	switch req.Version {
	case tokens.SwapV2:
		return len(req.Path) > 1
	case tokens.SwapV3:
		return true
	default:
		return false
	}
}

func (c *Contract) checkInitiateArgs(args *InitiateArgs) (srcToken common.Address, err error) {
	if args.AmountIn == nil || args.AmountIn.Sign() <= 0 {
		return srcToken, fmt.Errorf("%w: amountIn %v", tokens.ErrInvalidAmount, args.AmountIn)
	}
	if args.Value != nil && args.Value.Sign() < 0 {
		return srcToken, fmt.Errorf("%w: value %v", tokens.ErrInvalidAmount, args.Value)
	}
	if args.DstChainID == c.chainID || args.DstChainID == 0 {
		return srcToken, fmt.Errorf("%w: %v", tokens.ErrSameChain, args.DstChainID)
	}
	if args.Receiver == (common.Address{}) {
		return srcToken, fmt.Errorf("%w: zero receiver", tokens.ErrInvalidInstructions)
	}
	req := &args.SrcSwap
	if !req.Version.IsValid() {
		return srcToken, fmt.Errorf("%w: source version %v", tokens.ErrInvalidInstructions, req.Version)
	}
	srcToken, _, ok := tokens.PathEnds(req.Version, req.Path, req.PathV3)
	if !ok {
		return srcToken, fmt.Errorf("%w: wrong source path", tokens.ErrInvalidInstructions)
	}
	if hasSourceSwap(req) && !c.registry.IsSupportedRouter(req.Dex) {
		return srcToken, fmt.Errorf("%w: %v", tokens.ErrRouterNotSupported, req.Dex.Hex())
	}
	if args.NativeIn && srcToken != c.wnative {
		return srcToken, fmt.Errorf("%w: native input needs wrapped native path, got %v", tokens.ErrInvalidInstructions, srcToken.Hex())
	}
	return srcToken, nil
}

// TransferWithSwap initiate with a pre-approved token
func (c *Contract) TransferWithSwap(ctx context.Context, args *InitiateArgs) (common.Hash, error) {
	req := *args
	req.NativeIn = false
	return c.Initiate(ctx, &req)
}

// TransferWithSwapNative initiate with native currency, the source path must start with wrapped native
func (c *Contract) TransferWithSwapNative(ctx context.Context, args *InitiateArgs) (common.Hash, error) {
	req := *args
	req.NativeIn = true
	return c.Initiate(ctx, &req)
}

// Initiate builds and hands off one cross chain request. It is all or nothing.
//
//nolint:funlen,gocyclo // ok
func (c *Contract) Initiate(ctx context.Context, args *InitiateArgs) (requestID common.Hash, err error) {
	if err = c.enter(ctx); err != nil {
		return requestID, err
	}
	snapshot := c.journal.Snapshot()
	defer func() {
		if err != nil {
			log.Info("initiate request failed", "chainID", c.chainID, "caller", args.Caller, "dstChainID", args.DstChainID, "err", err)
		}
		c.leave(snapshot, err)
	}()

	srcToken, err := c.checkInitiateArgs(args)
	if err != nil {
		return requestID, err
	}
	instr := args.DstSwap
	instr.Receiver = args.Receiver
	if err = abicoder.ValidateInstructions(&instr); err != nil {
		return requestID, err
	}

	amountIn := new(big.Int).Set(args.AmountIn)
	value := new(big.Int)
	if args.Value != nil {
		value.Set(args.Value)
	}

	// value check precedes any funds movement
	quote, err := c.fees.QuoteCryptoFee(args.DstChainID, instr.Integrator)
	if err != nil {
		return requestID, err
	}
	required := quote.Total()
	if args.NativeIn {
		required.Add(required, amountIn)
	}
	if value.Cmp(required) < 0 {
		return requestID, fmt.Errorf("%w: supplied %v, required %v", tokens.ErrInsufficientValue, value, required)
	}

	if err = c.vault.Transfer(tokens.NativeToken, args.Caller, c.address, value); err != nil {
		return requestID, err
	}
	if args.NativeIn {
		err = c.vault.Wrap(c.wnative, c.address, amountIn)
	} else {
		err = c.vault.Transfer(srcToken, args.Caller, c.address, amountIn)
	}
	if err != nil {
		return requestID, err
	}

	bridgingToken, bridgedAmount := srcToken, amountIn
	if hasSourceSwap(&args.SrcSwap) {
		req := &args.SrcSwap
		bridgingToken, bridgedAmount, err = c.swap(ctx, &swapLeg{
			dex:              req.Dex,
			version:          req.Version,
			path:             req.Path,
			pathV3:           req.PathV3,
			amountIn:         amountIn,
			amountOutMinimum: req.AmountOutMinimum,
			deadline:         req.Deadline,
		})
		if err != nil {
			return requestID, fmt.Errorf("%w: %v", tokens.ErrSwapFailed, err)
		}
	}

	if err = c.registry.CheckBounds(bridgingToken, bridgedAmount); err != nil {
		return requestID, err
	}

	nonce := c.nonces.Next()
	encoded, err := abicoder.EncodeInstructions(&instr)
	if err != nil {
		return requestID, err
	}
	requestID = abicoder.DeriveID(instr.Receiver, c.chainID, args.DstChainID, encoded, nonce)
	message, err := abicoder.EncodeMessage(&instr, nonce, args.DstChainID)
	if err != nil {
		return requestID, err
	}

	c.fees.CollectCryptoFee(quote, instr.Integrator)
	if excess := new(big.Int).Sub(value, required); excess.Sign() > 0 {
		if err = c.vault.Transfer(tokens.NativeToken, c.address, args.Caller, excess); err != nil {
			return requestID, err
		}
	}

	if err = c.vault.Transfer(bridgingToken, c.address, c.transportAccount, bridgedAmount); err != nil {
		return requestID, err
	}
	if err = c.vault.Transfer(tokens.NativeToken, c.address, c.transportAccount, quote.TransportFee); err != nil {
		return requestID, err
	}

	c.emit(&tokens.RequestSentEvent{
		RequestID:     requestID,
		SrcChainID:    c.chainID,
		DstChainID:    args.DstChainID,
		Nonce:         nonce,
		Sender:        args.Caller,
		Receiver:      instr.Receiver,
		Integrator:    instr.Integrator,
		SrcToken:      srcToken,
		AmountIn:      amountIn,
		BridgingToken: bridgingToken,
		BridgedAmount: bridgedAmount,
		Timestamp:     c.now(),
	})

	if c.caps.Transport == nil {
		return requestID, fmt.Errorf("%w: no transport", tokens.ErrTransportFailed)
	}
	peer, _ := c.registry.GetPeer(args.DstChainID)
	packet := &tokens.TransferPacket{
		RequestID:  requestID,
		SrcChainID: c.chainID,
		DstChainID: args.DstChainID,
		Sender:     c.address,
		Receiver:   peer,
		Token:      bridgingToken,
		Amount:     bridgedAmount,
		Message:    message,
		Fee:        quote.TransportFee,
		GasBudget:  args.GasBudget,
		Nonce:      nonce,
	}
	err = c.callExternal(ctx, func(ctx context.Context) error {
		return c.caps.Transport.SendMessageWithTransfer(ctx, packet)
	})
	if err != nil {
		return requestID, fmt.Errorf("%w: %v", tokens.ErrTransportFailed, err)
	}

	log.Info("initiate request success", "chainID", c.chainID, "requestID", requestID.Hex(),
		"dstChainID", args.DstChainID, "nonce", nonce, "srcToken", srcToken, "amountIn", amountIn,
		"bridgingToken", bridgingToken, "bridgedAmount", bridgedAmount, "cryptoFee", quote.Total())
	return requestID, nil
}
