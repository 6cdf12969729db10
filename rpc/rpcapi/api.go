// Package rpcapi provides the JSON-RPC 2 service of the settlement node.
package rpcapi

import (
	"net/http"

	"github.com/anyswap/CrossChain-Settlement/internal/swapapi"
	"github.com/anyswap/CrossChain-Settlement/params"
)

// SettleAPI rpc api handler
type SettleAPI struct{}

// RPCNullArgs null args
type RPCNullArgs struct{}

// AddressArgs args
type AddressArgs struct {
	Address string `json:"address"`
}

// CollectedFeeArgs args, empty token is the native currency, empty beneficiary is the platform
type CollectedFeeArgs struct {
	Token       string `json:"token"`
	Beneficiary string `json:"beneficiary"`
}

// QuoteCryptoFeeArgs args
type QuoteCryptoFeeArgs struct {
	DstChainID uint64 `json:"dstChainID"`
	Integrator string `json:"integrator"`
}

// RequestIDArgs args
type RequestIDArgs struct {
	RequestID string `json:"requestID"`
}

// GetVersionInfo api
func (s *SettleAPI) GetVersionInfo(r *http.Request, args *RPCNullArgs, result *string) error {
	version := params.VersionWithMeta
	*result = version
	return nil
}

// GetServerInfo api
func (s *SettleAPI) GetServerInfo(r *http.Request, args *RPCNullArgs, result *swapapi.ServerInfo) error {
	serverInfo := swapapi.GetServerInfo()
	*result = *serverInfo
	return nil
}

// GetNonce api
func (s *SettleAPI) GetNonce(r *http.Request, args *RPCNullArgs, result *uint64) error {
	res, err := swapapi.GetNonce()
	if err == nil {
		*result = res
	}
	return err
}

// GetCollectedFee api
func (s *SettleAPI) GetCollectedFee(r *http.Request, args *CollectedFeeArgs, result *string) error {
	res, err := swapapi.GetCollectedFee(args.Token, args.Beneficiary)
	if err == nil {
		*result = res
	}
	return err
}

// GetFeeLedger api
func (s *SettleAPI) GetFeeLedger(r *http.Request, args *RPCNullArgs, result *swapapi.FeeLedgerInfo) error {
	res, err := swapapi.GetFeeLedger()
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetIntegratorInfo api
func (s *SettleAPI) GetIntegratorInfo(r *http.Request, args *AddressArgs, result *swapapi.IntegratorInfo) error {
	res, err := swapapi.GetIntegratorInfo(args.Address)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetTokenBounds api
func (s *SettleAPI) GetTokenBounds(r *http.Request, args *AddressArgs, result *swapapi.TokenBoundsInfo) error {
	res, err := swapapi.GetTokenBounds(args.Address)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetAvailableRouters api
func (s *SettleAPI) GetAvailableRouters(r *http.Request, args *RPCNullArgs, result *[]string) error {
	res, err := swapapi.GetAvailableRouters()
	if err == nil {
		*result = res
	}
	return err
}

// QuoteCryptoFee api
func (s *SettleAPI) QuoteCryptoFee(r *http.Request, args *QuoteCryptoFeeArgs, result *swapapi.CryptoFeeInfo) error {
	res, err := swapapi.QuoteCryptoFee(args.DstChainID, args.Integrator)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetRequest api
func (s *SettleAPI) GetRequest(r *http.Request, args *RequestIDArgs, result *swapapi.RequestInfo) error {
	res, err := swapapi.GetRequest(args.RequestID)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetSettlement api
func (s *SettleAPI) GetSettlement(r *http.Request, args *RequestIDArgs, result *swapapi.SettlementInfo) error {
	res, err := swapapi.GetSettlement(args.RequestID)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}
