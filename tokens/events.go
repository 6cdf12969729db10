package tokens

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// event names
const (
	RequestSentEventName    = "RequestSent"
	RequestSettledEventName = "RequestSettled"
	NFTPurchasedEventName   = "NFTPurchased"
)

// Event observable side effect
type Event interface {
	EventName() string
}

// RequestSentEvent emitted by the source side
type RequestSentEvent struct {
	RequestID     common.Hash    `json:"requestID"`
	SrcChainID    uint64         `json:"srcChainID"`
	DstChainID    uint64         `json:"dstChainID"`
	Nonce         uint64         `json:"nonce"`
	Sender        common.Address `json:"sender"`
	Receiver      common.Address `json:"receiver"`
	Integrator    common.Address `json:"integrator"`
	SrcToken      common.Address `json:"srcToken"`
	AmountIn      *big.Int       `json:"amountIn"`
	BridgingToken common.Address `json:"bridgingToken"`
	BridgedAmount *big.Int       `json:"bridgedAmount"`
	Timestamp     uint64         `json:"timestamp"`
}

// EventName impl Event
func (e *RequestSentEvent) EventName() string { return RequestSentEventName }

// RequestSettledEvent emitted by the destination side
type RequestSettledEvent struct {
	RequestID     common.Hash    `json:"requestID"`
	SrcChainID    uint64         `json:"srcChainID"`
	DstChainID    uint64         `json:"dstChainID"`
	Nonce         uint64         `json:"nonce"`
	Branch        SettleBranch   `json:"branch"`
	Receiver      common.Address `json:"receiver"`
	Token         common.Address `json:"token"`
	FinalAmount   *big.Int       `json:"finalAmount"`
	PlatformFee   *big.Int       `json:"platformFee"`
	IntegratorFee *big.Int       `json:"integratorFee"`
	Integrator    common.Address `json:"integrator"`
	Timestamp     uint64         `json:"timestamp"`
}

// EventName impl Event
func (e *RequestSettledEvent) EventName() string { return RequestSettledEventName }

// NFTPurchasedEvent emitted after a successful marketplace purchase
type NFTPurchasedEvent struct {
	RequestID common.Hash `json:"requestID"`
	MarketID  uint64      `json:"marketId"`
	Value     *big.Int    `json:"value"`
}

// EventName impl Event
func (e *NFTPurchasedEvent) EventName() string { return NFTPurchasedEventName }
