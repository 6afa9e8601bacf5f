package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken = "0x1111111111111111111111111111111111111111"
	testVault = "0x2222222222222222222222222222222222222222"
	testOwner = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	selectorBalanceOf = "70a08231"
	selectorDecimals  = "313ce567"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// newEthServer answers eth_call by 4-byte selector and target contract
func newEthServer(t *testing.T, answer func(to, selector string) string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result string
		switch req.Method {
		case "eth_call":
			var msg map[string]string
			require.NoError(t, json.Unmarshal(req.Params[0], &msg))
			input := msg["input"]
			if input == "" {
				input = msg["data"]
			}
			result = answer(strings.ToLower(msg["to"]), strings.TrimPrefix(input, "0x")[:8])
		case "eth_chainId":
			result = "0x7a69"
		default:
			t.Errorf("unexpected method %s", req.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%q}`, req.ID, result)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func word(v int64) string {
	return fmt.Sprintf("0x%064x", v)
}

func TestEVMKeys_RoundTrip(t *testing.T) {
	keys := EVMKeys{}
	addr, priv, err := keys.NewKeypair()
	require.NoError(t, err)
	require.NoError(t, keys.ValidateAddress(addr))
	assert.Len(t, priv, 64)

	derived, err := keys.AddressOf(priv)
	require.NoError(t, err)
	assert.Equal(t, addr, derived)

	derived, err = keys.AddressOf("0x" + priv)
	require.NoError(t, err)
	assert.Equal(t, addr, derived)
}

func TestEVMKeys_KnownVector(t *testing.T) {
	addr, err := EVMKeys{}.AddressOf("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)
	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", addr)
}

func TestEVMKeys_ValidateAddress(t *testing.T) {
	keys := EVMKeys{}
	assert.NoError(t, keys.ValidateAddress(testOwner))
	assert.Error(t, keys.ValidateAddress("not-an-address"))
	assert.Error(t, keys.ValidateAddress("0x1234"))
	assert.Error(t, keys.ValidateAddress(""))
}

func TestNewEVMClient_InvalidAddresses(t *testing.T) {
	_, err := NewEVMClient("http://127.0.0.1:1", "nope", "", 0)
	assert.Error(t, err)

	_, err = NewEVMClient("http://127.0.0.1:1", testToken, "nope", 0)
	assert.Error(t, err)
}

func TestEVMClient_Reads(t *testing.T) {
	srv := newEthServer(t, func(to, selector string) string {
		switch {
		case to == testToken && selector == selectorBalanceOf:
			return word(30_000_000)
		case to == testToken && selector == selectorDecimals:
			return word(6)
		case to == testVault && selector == selectorBalanceOf:
			return word(50_000_000)
		}
		return "0x"
	})

	c, err := NewEVMClient(srv.URL, testToken, testVault, 0)
	require.NoError(t, err)
	ctx := context.Background()

	bal, err := c.BalanceOf(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(30_000_000), bal)

	d, err := c.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), d)

	vault, err := c.VaultBalanceOf(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50_000_000), vault)

	id, err := c.networkID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(31337), id.Int64())

	assert.Equal(t, "evm", c.Chain())
	assert.Equal(t, strings.ToLower(testVault), strings.ToLower(c.VaultAddress()))
}

func TestEVMClient_NoVault(t *testing.T) {
	c, err := NewEVMClient("http://127.0.0.1:1", testToken, "", 1)
	require.NoError(t, err)

	assert.Empty(t, c.VaultAddress())
	_, err = c.VaultBalanceOf(context.Background(), testOwner)
	assert.Error(t, err)
	_, err = c.Deposit(context.Background(), "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318", big.NewInt(1))
	assert.Error(t, err)
}

func TestEVMClient_BalanceOfRejectsBadAddress(t *testing.T) {
	c, err := NewEVMClient("http://127.0.0.1:1", testToken, "", 1)
	require.NoError(t, err)

	_, err = c.BalanceOf(context.Background(), "not-an-address")
	assert.Error(t, err)
}
