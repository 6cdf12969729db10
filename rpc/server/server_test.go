package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anyswap/CrossChain-Settlement/internal/swapapi"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/router"
	"github.com/anyswap/CrossChain-Settlement/settle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testOwner  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	testBus    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	testDex    = common.HexToAddress("0x000000000000000000000000000000000000dE11")
	testToken  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	integrator = common.HexToAddress("0x0000000000000000000000000000000000001234")
)

func newTestServer(t *testing.T) *httptest.Server {
	registry := router.NewRegistry(testOwner, testBus)
	require.NoError(t, registry.SetSupportedRouters(testOwner, []common.Address{testDex}, true))
	require.NoError(t, registry.SetMinTokenAmount(testOwner, testToken, common.Big1))
	require.NoError(t, registry.SetCryptoFeeOfBlockchain(testOwner, 56, common.Big3))
	contract := settle.NewContract(&settle.Options{ChainID: 1}, registry, nil)
	swapapi.SetContract(contract)
	t.Cleanup(func() { swapapi.SetContract(nil) })

	params.SetConfig(&params.Config{Identifier: "test-settle", ChainID: 1})
	srv := httptest.NewServer(NewHandler(&params.APIServerConfig{MaxRequestsPer: 1000}))
	t.Cleanup(srv.Close)
	return srv
}

func getBody(t *testing.T, url string) string {
	resp, err := http.Get(url) //nolint:gosec // test server url
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return strings.TrimSpace(buf.String())
}

func callRPC(t *testing.T, url, method string, args interface{}) map[string]json.RawMessage {
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  args,
	})
	require.NoError(t, err)
	resp, err := http.Post(url+"/rpc", "application/json", bytes.NewReader(body)) //nolint:gosec // test server url
	require.NoError(t, err)
	defer resp.Body.Close()
	var res map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestRESTHandlers(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, `"`+params.VersionWithMeta+`"`, getBody(t, srv.URL+"/versioninfo"))
	assert.Equal(t, "0", getBody(t, srv.URL+"/nonce"))
	assert.Equal(t, `["`+testDex.Hex()+`"]`, getBody(t, srv.URL+"/routers"))

	var bounds swapapi.TokenBoundsInfo
	require.NoError(t, json.Unmarshal([]byte(getBody(t, srv.URL+"/bounds/"+testToken.Hex())), &bounds))
	assert.Equal(t, "1", bounds.Min)
	assert.Equal(t, "0", bounds.Max)

	var quote swapapi.CryptoFeeInfo
	require.NoError(t, json.Unmarshal([]byte(getBody(t, srv.URL+"/fee/quote/56")), &quote))
	assert.Equal(t, "3", quote.TransportFee)
	assert.Equal(t, "3", quote.Total)

	assert.Contains(t, getBody(t, srv.URL+"/fee/quote/abc"), "wrong dst chain id")
	assert.Contains(t, getBody(t, srv.URL+"/integrator/"+integrator.Hex()), "not found")
	assert.Contains(t, getBody(t, srv.URL+"/bounds/0x1234"), "invalid address")
	assert.Contains(t, getBody(t, srv.URL+"/request/"+common.Hash{1}.Hex()), "mongodb is not enabled")
	assert.Contains(t, getBody(t, srv.URL+"/settlement/0x01"), "invalid request id")
	assert.Contains(t, getBody(t, srv.URL+"/settlement/"+common.Hash{1}.Hex()), "not found")
}

func TestJSONRPCService(t *testing.T) {
	srv := newTestServer(t)

	res := callRPC(t, srv.URL, "settle.GetNonce", struct{}{})
	assert.Equal(t, "0", string(res["result"]))

	res = callRPC(t, srv.URL, "settle.GetCollectedFee", map[string]string{})
	assert.Equal(t, `"0"`, string(res["result"]))

	res = callRPC(t, srv.URL, "settle.GetServerInfo", struct{}{})
	var info swapapi.ServerInfo
	require.NoError(t, json.Unmarshal(res["result"], &info))
	assert.Equal(t, "test-settle", info.Identifier)
	assert.False(t, info.MongoDBEnabled)

	res = callRPC(t, srv.URL, "settle.GetIntegratorInfo", map[string]string{"address": "bad"})
	assert.Contains(t, string(res["error"]), "invalid address")

	res = callRPC(t, srv.URL, "settle.NoSuchMethod", struct{}{})
	assert.NotEmpty(t, res["error"])
}
