package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"volatilitycats/core/state"
	"volatilitycats/crypto"
	"volatilitycats/native/cats"
	"volatilitycats/native/registry"
	"volatilitycats/storage"
)

const testAuthToken = "test-token"

var (
	testOwner = [20]byte{0x11, 0x22}
	testAdmin = [20]byte{0x33, 0x44}
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	require.NoError(t, manager.RegisterToken(cats.TokenSymbol, "Churr", 18))
	require.NoError(t, manager.SetTokenMintAuthority(cats.TokenSymbol, cats.ModuleAddress[:]))
	require.NoError(t, manager.SetRole(cats.RoleGameAdmin, testAdmin[:]))
	require.NoError(t, manager.SetRole(registry.RoleRegistryAdmin, testAdmin[:]))

	engine, err := cats.NewEngine(cats.DefaultParams())
	require.NoError(t, err)
	engine.SetState(manager)

	reg := registry.NewRegistry()
	reg.SetState(manager)

	srv := NewServer(engine, reg, testAuthToken, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

type rpcResult struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func call(t *testing.T, ts *httptest.Server, token, method string, params interface{}) rpcResult {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out rpcResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func bech(addr [20]byte) string {
	return crypto.NewAddress(crypto.CatPrefix, addr[:]).String()
}

func TestRPCMintAndGetCat(t *testing.T) {
	ts := newTestServer(t)

	minted := call(t, ts, testAuthToken, "cats_mint", map[string]interface{}{
		"caller": bech(testOwner),
		"clan":   "eth",
	})
	require.Nil(t, minted.Error)

	var cat catResult
	require.NoError(t, json.Unmarshal(minted.Result, &cat))
	require.Equal(t, "eth", cat.Imprint.Clan)
	require.Equal(t, bech(testOwner), cat.Owner)

	got := call(t, ts, "", "cats_getCat", map[string]interface{}{"tokenId": cat.TokenID})
	require.Nil(t, got.Error)

	var fetched catResult
	require.NoError(t, json.Unmarshal(got.Result, &fetched))
	require.Equal(t, cat.TokenID, fetched.TokenID)
	require.True(t, fetched.Teleport.IsAlive)
}

func TestRPCMutationRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	out := call(t, ts, "", "cats_mint", map[string]interface{}{
		"caller": bech(testOwner),
		"clan":   "btc",
	})
	require.NotNil(t, out.Error)
	require.Equal(t, codeUnauthorized, out.Error.Code)

	out = call(t, ts, "wrong-token", "cats_mint", map[string]interface{}{
		"caller": bech(testOwner),
		"clan":   "btc",
	})
	require.NotNil(t, out.Error)
	require.Equal(t, codeUnauthorized, out.Error.Code)
}

func TestRPCMethodNotFound(t *testing.T) {
	ts := newTestServer(t)
	out := call(t, ts, "", "cats_nope", nil)
	require.NotNil(t, out.Error)
	require.Equal(t, codeMethodNotFound, out.Error.Code)
}

func TestRPCMissingCatMapsToNotFound(t *testing.T) {
	ts := newTestServer(t)
	out := call(t, ts, "", "cats_getCat", map[string]interface{}{"tokenId": 404})
	require.NotNil(t, out.Error)
	require.Equal(t, codeNotFound, out.Error.Code)
}

func TestRPCJackpotAccruesMintFee(t *testing.T) {
	ts := newTestServer(t)

	out := call(t, ts, testAuthToken, "cats_mint", map[string]interface{}{
		"caller": bech(testOwner),
		"clan":   "doge",
	})
	require.Nil(t, out.Error)

	balance := call(t, ts, "", "cats_jackpotBalance", nil)
	require.Nil(t, balance.Error)

	var result struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(balance.Result, &result))
	require.Equal(t, cats.DefaultParams().Jackpot.MintFee.String(), result.Balance)
}

func TestRPCRegistryFlow(t *testing.T) {
	ts := newTestServer(t)

	added := call(t, ts, testAuthToken, "registry_addAsset", map[string]interface{}{
		"caller":         bech(testAdmin),
		"symbol":         "BTC",
		"feed":           bech([20]byte{0xFE}),
		"decimals":       8,
		"tier":           "high",
		"maxExposureBps": 1500,
	})
	require.Nil(t, added.Error)

	var asset assetResult
	require.NoError(t, json.Unmarshal(added.Result, &asset))
	require.True(t, asset.Enabled)
	require.Equal(t, "high", asset.Tier)

	list := call(t, ts, "", "registry_getAllAssetIds", nil)
	require.Nil(t, list.Error)

	var ids struct {
		AssetIDs []string `json:"assetIds"`
	}
	require.NoError(t, json.Unmarshal(list.Result, &ids))
	require.Len(t, ids.AssetIDs, 1)
	require.Equal(t, asset.AssetID, ids.AssetIDs[0])

	unauthorized := call(t, ts, testAuthToken, "registry_addAsset", map[string]interface{}{
		"caller":         bech(testOwner),
		"symbol":         "ETH",
		"feed":           bech([20]byte{0xFE}),
		"decimals":       8,
		"tier":           "mid",
		"maxExposureBps": 1500,
	})
	require.NotNil(t, unauthorized.Error)
	require.Equal(t, codeUnauthorized, unauthorized.Error.Code)
}

func TestRPCHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
