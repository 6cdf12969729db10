// Package restapi provides the RESTful handlers of the settlement node.
package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/anyswap/CrossChain-Settlement/internal/swapapi"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/gorilla/mux"
)

func writeResponse(w http.ResponseWriter, resp interface{}, err error) {
	// Note: must set header before write header
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	if err == nil {
		jsonData, _ := json.Marshal(resp)
		_, _ = w.Write(jsonData)
	} else {
		fmt.Fprintln(w, err.Error())
	}
}

// VersionInfoHandler handler
func VersionInfoHandler(w http.ResponseWriter, r *http.Request) {
	version := params.VersionWithMeta
	writeResponse(w, version, nil)
}

// ServerInfoHandler handler
func ServerInfoHandler(w http.ResponseWriter, r *http.Request) {
	serverInfo := swapapi.GetServerInfo()
	writeResponse(w, serverInfo, nil)
}

// NonceHandler handler
func NonceHandler(w http.ResponseWriter, r *http.Request) {
	res, err := swapapi.GetNonce()
	writeResponse(w, res, err)
}

// CollectedFeeHandler handler, token and beneficiary are optional query values
func CollectedFeeHandler(w http.ResponseWriter, r *http.Request) {
	vals := r.URL.Query()
	res, err := swapapi.GetCollectedFee(vals.Get("token"), vals.Get("beneficiary"))
	writeResponse(w, res, err)
}

// FeeLedgerHandler handler
func FeeLedgerHandler(w http.ResponseWriter, r *http.Request) {
	res, err := swapapi.GetFeeLedger()
	writeResponse(w, res, err)
}

// IntegratorInfoHandler handler
func IntegratorInfoHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := swapapi.GetIntegratorInfo(vars["address"])
	writeResponse(w, res, err)
}

// TokenBoundsHandler handler
func TokenBoundsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := swapapi.GetTokenBounds(vars["token"])
	writeResponse(w, res, err)
}

// AvailableRoutersHandler handler
func AvailableRoutersHandler(w http.ResponseWriter, r *http.Request) {
	res, err := swapapi.GetAvailableRouters()
	writeResponse(w, res, err)
}

// QuoteCryptoFeeHandler handler
func QuoteCryptoFeeHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dstChainID, err := strconv.ParseUint(vars["dstchainid"], 10, 64)
	if err != nil {
		writeResponse(w, nil, fmt.Errorf("wrong dst chain id %q", vars["dstchainid"]))
		return
	}
	res, err := swapapi.QuoteCryptoFee(dstChainID, r.URL.Query().Get("integrator"))
	writeResponse(w, res, err)
}

// RequestHandler handler
func RequestHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := swapapi.GetRequest(vars["requestid"])
	writeResponse(w, res, err)
}

// SettlementHandler handler
func SettlementHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := swapapi.GetSettlement(vars["requestid"])
	writeResponse(w, res, err)
}
