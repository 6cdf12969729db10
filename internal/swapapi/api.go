package swapapi

import (
	"errors"
	"strings"
	"sync"

	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/mongodb"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/settle"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/tokens/fee"
	ethcommon "github.com/ethereum/go-ethereum/common"
	rpcjson "github.com/gorilla/rpc/v2/json2"
)

var (
	errNoContract        = errors.New("settlement contract is not initialized")
	errMongoDBNotEnabled = errors.New("mongodb is not enabled")
	errInvalidAddress    = errors.New("invalid address")
	errInvalidRequestID  = errors.New("invalid request id")

	contract     *settle.Contract
	contractLock sync.RWMutex
)

// SetContract set the contract served by the api
func SetContract(c *settle.Contract) {
	contractLock.Lock()
	defer contractLock.Unlock()
	contract = c
}

func getContract() (*settle.Contract, error) {
	contractLock.RLock()
	defer contractLock.RUnlock()
	if contract == nil {
		return nil, newRPCInternalError(errNoContract)
	}
	return contract, nil
}

func newRPCError(ec rpcjson.ErrorCode, message string) error {
	return &rpcjson.Error{
		Code:    ec,
		Message: message,
	}
}

func newRPCInternalError(err error) error {
	return newRPCError(-32000, "rpcError: "+err.Error())
}

func parseAddress(address string) (ethcommon.Address, error) {
	if !ethcommon.IsHexAddress(address) {
		return ethcommon.Address{}, newRPCError(-32602, errInvalidAddress.Error()+" '"+address+"'")
	}
	return ethcommon.HexToAddress(address), nil
}

// empty address means none
func parseOptionalAddress(address string) (ethcommon.Address, error) {
	if address == "" {
		return ethcommon.Address{}, nil
	}
	return parseAddress(address)
}

func parseRequestID(requestID string) (ethcommon.Hash, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(requestID, "0x"), "0X")
	if len(s) != 2*ethcommon.HashLength {
		return ethcommon.Hash{}, newRPCError(-32602, errInvalidRequestID.Error()+" '"+requestID+"'")
	}
	return ethcommon.HexToHash(s), nil
}

// GetServerInfo get server info
func GetServerInfo() *ServerInfo {
	cfg := params.GetConfig()
	return &ServerInfo{
		Identifier:       cfg.Identifier,
		Version:          params.VersionWithMeta,
		ChainID:          cfg.ChainID,
		Contract:         cfg.ContractAddress,
		Owner:            cfg.Owner,
		MessageBus:       cfg.MessageBus,
		TransportAccount: cfg.TransportAccount,
		WrappedNative:    cfg.WrappedNative,
		MongoDBEnabled:   mongodb.IsEnabled(),
	}
}

// GetNonce get current nonce, the last one consumed
func GetNonce() (uint64, error) {
	c, err := getContract()
	if err != nil {
		return 0, err
	}
	return c.Nonce(), nil
}

// GetCollectedFee get accrued fee of beneficiary in token
func GetCollectedFee(tokenStr, beneficiaryStr string) (string, error) {
	c, err := getContract()
	if err != nil {
		return "", err
	}
	token, err := parseOptionalAddress(tokenStr)
	if err != nil {
		return "", err
	}
	beneficiary, err := parseOptionalAddress(beneficiaryStr)
	if err != nil {
		return "", err
	}
	return c.CollectedFee(token, beneficiary).String(), nil
}

// GetFeeLedger get all fee ledger entries
func GetFeeLedger() (*FeeLedgerInfo, error) {
	c, err := getContract()
	if err != nil {
		return nil, err
	}
	entries := c.FeeLedger()
	if entries == nil {
		entries = []*fee.LedgerEntry{}
	}
	return &FeeLedgerInfo{
		ChainID: c.ChainID(),
		Entries: entries,
	}, nil
}

// GetIntegratorInfo get integrator info
func GetIntegratorInfo(integratorStr string) (*IntegratorInfo, error) {
	c, err := getContract()
	if err != nil {
		return nil, err
	}
	integrator, err := parseAddress(integratorStr)
	if err != nil {
		return nil, err
	}
	info := c.Registry().GetIntegratorInfo(integrator)
	if info == nil {
		return nil, newRPCInternalError(tokens.ErrNotFound)
	}
	return &IntegratorInfo{
		Integrator:     integrator.Hex(),
		IntegratorInfo: *info,
	}, nil
}

// GetTokenBounds get min and max amount of bridging token
func GetTokenBounds(tokenStr string) (*TokenBoundsInfo, error) {
	c, err := getContract()
	if err != nil {
		return nil, err
	}
	token, err := parseAddress(tokenStr)
	if err != nil {
		return nil, err
	}
	bounds := c.Registry().GetTokenBounds(token)
	if bounds == nil {
		bounds = &tokens.TokenBounds{}
	}
	return &TokenBoundsInfo{
		Token: token.Hex(),
		Min:   common.BigOrZero(bounds.Min).String(),
		Max:   common.BigOrZero(bounds.Max).String(),
	}, nil
}

// GetAvailableRouters get supported dex routers
func GetAvailableRouters() ([]string, error) {
	c, err := getContract()
	if err != nil {
		return nil, err
	}
	routers := c.Registry().GetAvailableRouters()
	result := make([]string, len(routers))
	for i, r := range routers {
		result[i] = r.Hex()
	}
	return result, nil
}

// QuoteCryptoFee quote the native fee to send to dstChainID
func QuoteCryptoFee(dstChainID uint64, integratorStr string) (*CryptoFeeInfo, error) {
	c, err := getContract()
	if err != nil {
		return nil, err
	}
	integrator, err := parseOptionalAddress(integratorStr)
	if err != nil {
		return nil, err
	}
	quote, err := c.QuoteCryptoFee(dstChainID, integrator)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	return ConvertCryptoFeeQuote(dstChainID, integratorStr, quote), nil
}

// GetRequest get request sent to transport
func GetRequest(requestIDStr string) (*RequestInfo, error) {
	requestID, err := parseRequestID(requestIDStr)
	if err != nil {
		return nil, err
	}
	if !mongodb.IsEnabled() {
		return nil, newRPCInternalError(errMongoDBNotEnabled)
	}
	mr, err := mongodb.FindRequest(requestID.Hex())
	if err != nil {
		log.Debug("[api] find request failed", "requestID", requestIDStr, "err", err)
		return nil, newRPCInternalError(err)
	}
	return ConvertMgoRequestToRequestInfo(mr), nil
}

// GetSettlement get settlement, from mongodb if enabled otherwise from the local contract
func GetSettlement(requestIDStr string) (*SettlementInfo, error) {
	requestID, err := parseRequestID(requestIDStr)
	if err != nil {
		return nil, err
	}
	if mongodb.IsEnabled() {
		ms, errf := mongodb.FindSettlement(requestID.Hex())
		if errf == nil {
			return ConvertMgoSettlementToSettlementInfo(ms), nil
		}
		if !errors.Is(errf, tokens.ErrNotFound) {
			return nil, newRPCInternalError(errf)
		}
	}
	c, err := getContract()
	if err != nil {
		return nil, err
	}
	outcome := c.GetSettlement(requestID)
	if outcome == nil {
		return nil, newRPCInternalError(tokens.ErrNotFound)
	}
	return ConvertOutcomeToSettlementInfo(c.ChainID(), outcome), nil
}
