package swapapi

import (
	"github.com/anyswap/CrossChain-Settlement/mongodb"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/tokens/fee"
)

// ServerInfo serverinfo
type ServerInfo struct {
	Identifier       string
	Version          string
	ChainID          uint64
	Contract         string
	Owner            string
	MessageBus       string
	TransportAccount string
	WrappedNative    string
	MongoDBEnabled   bool
}

// FeeLedgerInfo fee ledger of the contract
type FeeLedgerInfo struct {
	ChainID uint64             `json:"chainID"`
	Entries []*fee.LedgerEntry `json:"entries"`
}

// IntegratorInfo integrator info with its address
type IntegratorInfo struct {
	Integrator string `json:"integrator"`
	tokens.IntegratorInfo
}

// TokenBoundsInfo token bounds with its address
type TokenBoundsInfo struct {
	Token string `json:"token"`
	Min   string `json:"min"`
	Max   string `json:"max"`
}

// CryptoFeeInfo crypto fee quote
type CryptoFeeInfo struct {
	DstChainID      uint64 `json:"dstChainID"`
	Integrator      string `json:"integrator,omitempty"`
	TransportFee    string `json:"transportFee"`
	PlatformShare   string `json:"platformShare"`
	IntegratorShare string `json:"integratorShare"`
	Total           string `json:"total"`
}

// RequestInfo request info
type RequestInfo struct {
	RequestID     string                `json:"requestID"`
	SrcChainID    uint64                `json:"srcChainID"`
	DstChainID    uint64                `json:"dstChainID"`
	Nonce         uint64                `json:"nonce"`
	Sender        string                `json:"sender"`
	Receiver      string                `json:"receiver"`
	Token         string                `json:"token"`
	Amount        string                `json:"amount"`
	Fee           string                `json:"fee"`
	EndUser       string                `json:"endUser,omitempty"`
	Integrator    string                `json:"integrator,omitempty"`
	SrcToken      string                `json:"srcToken,omitempty"`
	AmountIn      string                `json:"amountIn,omitempty"`
	Status        mongodb.RequestStatus `json:"status"`
	StatusMsg     string                `json:"statusmsg"`
	DeliveryTimes int                   `json:"deliveryTimes"`
	InitTime      int64                 `json:"inittime"`
	Timestamp     int64                 `json:"timestamp"`
	Memo          string                `json:"memo,omitempty"`
}

// SettlementInfo settlement info
type SettlementInfo struct {
	RequestID     string `json:"requestID"`
	SrcChainID    uint64 `json:"srcChainID,omitempty"`
	DstChainID    uint64 `json:"dstChainID"`
	Nonce         uint64 `json:"nonce,omitempty"`
	Branch        string `json:"branch"`
	Receiver      string `json:"receiver"`
	Token         string `json:"token"`
	FinalAmount   string `json:"finalAmount"`
	NetAmount     string `json:"netAmount"`
	PlatformFee   string `json:"platformFee"`
	IntegratorFee string `json:"integratorFee"`
	Integrator    string `json:"integrator,omitempty"`
	Timestamp     int64  `json:"timestamp,omitempty"`
}
