package tokens

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FeeDecimals fixed-point scale of every fee rate and fee share
const FeeDecimals uint64 = 1000000

var (
	// NativeToken key of native currency in custody and fee ledger
	NativeToken = common.Address{}

	// PlatformBeneficiary fee ledger beneficiary of the platform share
	PlatformBeneficiary = common.Address{}
)

// SwapVersion wire tag of destination instructions
type SwapVersion uint8

// SwapVersion constants
const (
	SwapV2 SwapVersion = iota
	SwapV3
	BridgeOnly

	MaxValidSwapVersion
)

func (v SwapVersion) String() string {
	switch v {
	case SwapV2:
		return "v2"
	case SwapV3:
		return "v3"
	case BridgeOnly:
		return "bridge"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}

// IsValid is valid swap version
func (v SwapVersion) IsValid() bool {
	return v < MaxValidSwapVersion
}

// RouteKind destination handler selector
type RouteKind uint8

// RouteKind constants
const (
	RouteSwapV2 RouteKind = iota
	RouteSwapV3
	RouteBridgeOnly
	RouteNFTPurchase
)

func (k RouteKind) String() string {
	switch k {
	case RouteSwapV2:
		return "swapV2"
	case RouteSwapV3:
		return "swapV3"
	case RouteBridgeOnly:
		return "bridgeOnly"
	case RouteNFTPurchase:
		return "nftPurchase"
	default:
		return "unknown"
	}
}

// SourceSwapRequest source side swap leg
type SourceSwapRequest struct {
	Dex              common.Address   `json:"dex"`
	Version          SwapVersion      `json:"version"`
	Path             []common.Address `json:"path,omitempty"`
	PathV3           hexutil.Bytes    `json:"pathV3,omitempty"`
	Deadline         uint64           `json:"deadline"`
	AmountOutMinimum *big.Int         `json:"amountOutMinimum"`
}

// NFTPurchaseInfo nft purchase following the destination swap
type NFTPurchaseInfo struct {
	MarketID uint64        `json:"marketId"`
	Value    *big.Int      `json:"value"`
	Data     hexutil.Bytes `json:"data,omitempty"`
}

// IsEmpty no nft purchase requested
func (n *NFTPurchaseInfo) IsEmpty() bool {
	return (n.Value == nil || n.Value.Sign() == 0) && len(n.Data) == 0
}

// DestinationInstructions what the destination contract does with bridged tokens
type DestinationInstructions struct {
	Dex              common.Address   `json:"dex"`
	NativeOut        bool             `json:"nativeOut"`
	Receiver         common.Address   `json:"receiver"`
	Integrator       common.Address   `json:"integrator"`
	Version          SwapVersion      `json:"version"`
	Path             []common.Address `json:"path,omitempty"`
	PathV3           hexutil.Bytes    `json:"pathV3,omitempty"`
	Deadline         uint64           `json:"deadline"`
	AmountOutMinimum *big.Int         `json:"amountOutMinimum"`
	NFT              NFTPurchaseInfo  `json:"nft"`
}

// Kind the tagged variant of the instructions
func (d *DestinationInstructions) Kind() RouteKind {
	if !d.NFT.IsEmpty() {
		return RouteNFTPurchase
	}
	switch d.Version {
	case SwapV3:
		return RouteSwapV3
	case BridgeOnly:
		return RouteBridgeOnly
	default:
		return RouteSwapV2
	}
}

// HasIntegrator integrator is not none
func (d *DestinationInstructions) HasIntegrator() bool {
	return d.Integrator != (common.Address{})
}

// Message transport payload
type Message struct {
	Instructions *DestinationInstructions
	Nonce        uint64
	DstChainID   uint64
}

// SettleBranch outcome branch of destination settlement
type SettleBranch uint8

// SettleBranch constants
const (
	BranchBridgeOnly SettleBranch = iota
	BranchSwapSucceeded
	BranchSwapFailed
)

func (b SettleBranch) String() string {
	switch b {
	case BranchBridgeOnly:
		return "BridgeOnly"
	case BranchSwapSucceeded:
		return "SwapSucceeded"
	case BranchSwapFailed:
		return "SwapFailed"
	default:
		return "Unknown"
	}
}

// SettleState destination state machine
type SettleState uint8

// SettleState constants
const (
	StateReceived SettleState = iota
	StateSwapAttempted
	StateSwapSucceeded
	StateSwapFailed
	StateSettled
)

func (s SettleState) String() string {
	switch s {
	case StateReceived:
		return "Received"
	case StateSwapAttempted:
		return "SwapAttempted"
	case StateSwapSucceeded:
		return "SwapSucceeded"
	case StateSwapFailed:
		return "SwapFailed"
	case StateSettled:
		return "Settled"
	default:
		return "Unknown"
	}
}

// SettlementOutcome result of executeMessageWithTransfer
type SettlementOutcome struct {
	RequestID     common.Hash    `json:"requestID"`
	Branch        SettleBranch   `json:"branch"`
	Receiver      common.Address `json:"receiver"`
	Token         common.Address `json:"token"`
	FinalAmount   *big.Int       `json:"finalAmount"`
	NetAmount     *big.Int       `json:"netAmount"`
	PlatformFee   *big.Int       `json:"platformFee"`
	IntegratorFee *big.Int       `json:"integratorFee"`
	Replayed      bool           `json:"replayed,omitempty"`
}

// Settlement fee settle result
type Settlement struct {
	Gross         *big.Int
	Net           *big.Int
	TotalFee      *big.Int
	PlatformFee   *big.Int
	IntegratorFee *big.Int
}

// CryptoFeeQuote native fee owed on the source side
type CryptoFeeQuote struct {
	TransportFee    *big.Int `json:"transportFee"`
	PlatformShare   *big.Int `json:"platformShare"`
	IntegratorShare *big.Int `json:"integratorShare"`
}

// FixedFee platform share plus integrator share
func (q *CryptoFeeQuote) FixedFee() *big.Int {
	return new(big.Int).Add(q.PlatformShare, q.IntegratorShare)
}

// Total transport fee plus fixed fee
func (q *CryptoFeeQuote) Total() *big.Int {
	return new(big.Int).Add(q.TransportFee, q.FixedFee())
}
