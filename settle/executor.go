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

// Delivery what the message bus hands to the destination contract
type Delivery struct {
	SourceSender common.Address
	Token        common.Address
	Amount       *big.Int
	SrcChainID   uint64
	Message      []byte
	Executor     common.Address
}

func (c *Contract) checkDelivery(caller common.Address, d *Delivery) error {
	if bus := c.registry.MessageBus(); caller != bus {
		return fmt.Errorf("%w: caller %v is not message bus %v", tokens.ErrUnauthorized, caller.Hex(), bus.Hex())
	}
	if peer, exist := c.registry.GetPeer(d.SrcChainID); exist && peer != d.SourceSender {
		return fmt.Errorf("%w: source sender %v is not peer %v of chain %v", tokens.ErrUnauthorized, d.SourceSender.Hex(), peer.Hex(), d.SrcChainID)
	}
	if d.Amount == nil || d.Amount.Sign() < 0 {
		return fmt.Errorf("%w: delivered amount %v", tokens.ErrInvalidAmount, d.Amount)
	}
	return nil
}

// ExecuteMessageWithTransfer settles one delivered request.
// A failed destination action is absorbed by paying out the bridging token.
//
//nolint:funlen // ok
func (c *Contract) ExecuteMessageWithTransfer(ctx context.Context, caller common.Address, d *Delivery) (outcome *tokens.SettlementOutcome, err error) {
	if err = c.enter(ctx); err != nil {
		return nil, err
	}
	snapshot := c.journal.Snapshot()
	defer func() { c.leave(snapshot, err) }()

	if err = c.checkDelivery(caller, d); err != nil {
		return nil, err
	}

	msg, err := abicoder.DecodeMessage(d.Message)
	if err == nil && msg.DstChainID != c.chainID {
		err = fmt.Errorf("%w: dstChainID %v mismatch own chain %v", tokens.ErrMalformedMessage, msg.DstChainID, c.chainID)
	}
	if err != nil {
		log.Error("[settle] decode message failed, manual intervention needed", "chainID", c.chainID, "srcChainID", d.SrcChainID, "sender", d.SourceSender, "token", d.Token, "amount", d.Amount, "err", err)
		return nil, err
	}
	requestID, err := abicoder.MessageID(msg, d.SrcChainID)
	if err != nil {
		return nil, err
	}
	logCtx := []interface{}{"chainID", c.chainID, "requestID", requestID.Hex(), "srcChainID", d.SrcChainID, "nonce", msg.Nonce}
	log.Debug("[settle] message received", append(logCtx, "state", tokens.StateReceived)...)

	if stored := c.GetSettlement(requestID); stored != nil {
		stored.Replayed = true
		log.Info("[settle] request already settled, ignore redelivery", logCtx...)
		return stored, nil
	}

	if err = c.vault.Transfer(d.Token, c.transportAccount, c.address, d.Amount); err != nil {
		return nil, err
	}

	instr := msg.Instructions
	settlement, err := c.fees.Settle(d.Token, instr.Integrator, d.SrcChainID, d.Amount)
	if err != nil {
		return nil, err
	}

	outcome = &tokens.SettlementOutcome{
		RequestID:     requestID,
		Receiver:      instr.Receiver,
		NetAmount:     settlement.Net,
		PlatformFee:   settlement.PlatformFee,
		IntegratorFee: settlement.IntegratorFee,
	}

	route := &routeContext{
		requestID: requestID,
		token:     d.Token,
		net:       settlement.Net,
		instr:     instr,
	}

	kind := instr.Kind()
	if kind == tokens.RouteBridgeOnly {
		if len(instr.Path) != 1 || instr.Path[0] != d.Token {
			return nil, fmt.Errorf("%w: path %v, bridging token %v", tokens.ErrBridgeTokenMismatch, instr.Path, d.Token.Hex())
		}
		outcome.Branch = tokens.BranchBridgeOnly
		outcome.Token, err = c.payout(d.Token, settlement.Net, instr.Receiver, instr.NativeOut)
		if err != nil {
			return nil, err
		}
		outcome.FinalAmount = new(big.Int).Set(settlement.Net)
	} else {
		log.Debug("[settle] try destination action", append(logCtx, "state", tokens.StateSwapAttempted, "kind", kind)...)
		actionSnapshot := c.journal.Snapshot()
		paidToken, paidAmount, actionErr := c.dispatch(ctx, kind, route)
		if actionErr == nil {
			log.Debug("[settle] destination action success", append(logCtx, "state", tokens.StateSwapSucceeded)...)
			outcome.Branch = tokens.BranchSwapSucceeded
			outcome.Token, outcome.FinalAmount = paidToken, paidAmount
		} else {
			c.journal.RevertToSnapshot(actionSnapshot)
			log.Warn("[settle] destination action failed, pay out bridging token", append(logCtx, "state", tokens.StateSwapFailed, "kind", kind, "err", actionErr)...)
			outcome.Branch = tokens.BranchSwapFailed
			outcome.Token, err = c.payout(d.Token, settlement.Net, instr.Receiver, instr.NativeOut)
			if err != nil {
				return nil, err
			}
			outcome.FinalAmount = new(big.Int).Set(settlement.Net)
		}
	}

	c.markSettled(outcome)
	c.emit(&tokens.RequestSettledEvent{
		RequestID:     requestID,
		SrcChainID:    d.SrcChainID,
		DstChainID:    c.chainID,
		Nonce:         msg.Nonce,
		Branch:        outcome.Branch,
		Receiver:      outcome.Receiver,
		Token:         outcome.Token,
		FinalAmount:   outcome.FinalAmount,
		PlatformFee:   outcome.PlatformFee,
		IntegratorFee: outcome.IntegratorFee,
		Integrator:    instr.Integrator,
		Timestamp:     c.now(),
	})
	log.Info("[settle] request settled", append(logCtx, "state", tokens.StateSettled, "branch", outcome.Branch,
		"receiver", outcome.Receiver, "token", outcome.Token, "finalAmount", outcome.FinalAmount,
		"platformFee", outcome.PlatformFee, "integratorFee", outcome.IntegratorFee)...)

	res := *outcome
	return &res, nil
}
