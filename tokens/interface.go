// Package tokens defines the settlement data model, errors and external capabilities.
package tokens

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapRoute one swap through a dex router
type SwapRoute struct {
	Version          SwapVersion
	Path             []common.Address
	PathV3           []byte
	TokenIn          common.Address
	TokenOut         common.Address
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
	Deadline         uint64
	Recipient        common.Address
}

// IDexRouter external dex capability, may fail or under deliver
type IDexRouter interface {
	SwapExactIn(ctx context.Context, route *SwapRoute) (amountOut *big.Int, err error)
}

// INFTMarket external nft marketplace adapter
type INFTMarket interface {
	Purchase(ctx context.Context, value *big.Int, data []byte, receiver common.Address) error
}

// TransferPacket what the source side hands over to the transport
type TransferPacket struct {
	RequestID  common.Hash    `json:"requestID"`
	SrcChainID uint64         `json:"srcChainID"`
	DstChainID uint64         `json:"dstChainID"`
	Sender     common.Address `json:"sender"`
	Receiver   common.Address `json:"receiver"`
	Token      common.Address `json:"token"`
	Amount     *big.Int       `json:"amount"`
	Message    []byte         `json:"message"`
	Fee        *big.Int       `json:"fee"`
	GasBudget  uint64         `json:"gasBudget"`
	Nonce      uint64         `json:"nonce"`
}

// ITransport external cross chain message transport
type ITransport interface {
	SendMessageWithTransfer(ctx context.Context, packet *TransferPacket) error
}

// IEventSink receives committed events in emission order
type IEventSink interface {
	HandleEvent(ev Event)
}

// EventSinks fan out to several sinks
type EventSinks []IEventSink

// HandleEvent impl IEventSink
func (sinks EventSinks) HandleEvent(ev Event) {
	for _, sink := range sinks {
		sink.HandleEvent(ev)
	}
}

// ICommitListener optional sink hook called once after every committed call
type ICommitListener interface {
	OnCommit()
}

// OnCommit impl ICommitListener
func (sinks EventSinks) OnCommit() {
	for _, sink := range sinks {
		if listener, ok := sink.(ICommitListener); ok {
			listener.OnCommit()
		}
	}
}
