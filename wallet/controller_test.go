package wallet

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/activity"
	"github.com/AlexZinkM/browse-wallet/internal/client"
	"github.com/AlexZinkM/browse-wallet/internal/common"
	"github.com/AlexZinkM/browse-wallet/internal/config"
	"github.com/AlexZinkM/browse-wallet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userAddress     = "0x1111111111111111111111111111111111111111"
	userKey         = "user-key"
	operatorAddress = "0x2222222222222222222222222222222222222222"
	operatorKey     = "operator-key"
	vaultAddress    = "0x3333333333333333333333333333333333333333"
	peerAddress     = "0x4444444444444444444444444444444444444444"
)

type staticIdentity struct {
	id  model.WalletIdentity
	err error
}

func (s staticIdentity) GetOrCreate(context.Context) (*model.WalletIdentity, error) {
	if s.err != nil {
		return nil, s.err
	}
	id := s.id
	return &id, nil
}

// fakeClient records every chain call in order
type fakeClient struct {
	client.EVMKeys

	mu        sync.Mutex
	calls     []string
	balances  map[string]*big.Int
	allowance *big.Int
	vault     string
	failOn    map[string]error

	// mintEntered and mintRelease block Mint when set
	mintEntered chan struct{}
	mintRelease chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		balances:  map[string]*big.Int{},
		allowance: big.NewInt(0),
		vault:     vaultAddress,
		failOn:    map[string]error{},
	}
}

func (f *fakeClient) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeClient) setBalance(address string, whole int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[address] = new(big.Int).Mul(big.NewInt(whole), big.NewInt(1_000_000))
}

func (f *fakeClient) AddressOf(privateKey string) (string, error) {
	switch privateKey {
	case userKey:
		return userAddress, nil
	case operatorKey:
		return operatorAddress, nil
	}
	return "", errors.New("unknown key")
}

func (f *fakeClient) Chain() string { return "evm" }

func (f *fakeClient) VaultAddress() string { return f.vault }

func (f *fakeClient) Decimals(context.Context) (uint8, error) {
	return 6, f.record("decimals")
}

func (f *fakeClient) BalanceOf(_ context.Context, address string) (*big.Int, error) {
	if err := f.record("balanceOf"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.balances[address]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeClient) VaultBalanceOf(context.Context, string) (*big.Int, error) {
	return nil, client.ErrUnsupported
}

func (f *fakeClient) Allowance(context.Context, string, string) (*big.Int, error) {
	if err := f.record("allowance"); err != nil {
		return nil, err
	}
	return f.allowance, nil
}

func (f *fakeClient) Mint(context.Context, string, string, *big.Int) (string, error) {
	if f.mintEntered != nil {
		f.mintEntered <- struct{}{}
		<-f.mintRelease
	}
	return "0xmint", f.record("mint")
}

func (f *fakeClient) Approve(context.Context, string, string, *big.Int) (string, error) {
	return "0xapprove", f.record("approve")
}

func (f *fakeClient) Deposit(context.Context, string, *big.Int) (string, error) {
	return "0xdeposit", f.record("deposit")
}

func (f *fakeClient) Transfer(context.Context, string, string, *big.Int) (string, error) {
	return "0xtransfer", f.record("transfer")
}

func tokens(whole int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(whole), big.NewInt(1_000_000))
}

func newTestController(t *testing.T, fc *fakeClient) *Controller {
	t.Helper()
	var tc client.TokenClient
	if fc != nil {
		tc = fc
	}
	c := New(Options{
		Chain: "evm",
		Identities: staticIdentity{id: model.WalletIdentity{
			Chain: "evm", Address: userAddress, PrivateKey: userKey, DeviceTag: "abcdef0123456789",
		}},
		Client: tc,
		Settings: Settings{
			OperatorKey:   operatorKey,
			FaucetAmount:  tokens(100),
			RewardAmount:  tokens(10),
			DepositAmount: tokens(50),
			RefreshDelay:  time.Hour,
		},
		Activity: activity.New(nil),
	})
	t.Cleanup(c.Close)
	return c
}

func lastMessage(c *Controller) string {
	entries := c.Activity().Latest(1)
	if len(entries) == 0 {
		return ""
	}
	return entries[0].Message
}

func TestInit_ReadsBalance(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(userAddress, 30)
	c := newTestController(t, fc)

	require.NoError(t, c.Init(context.Background()))

	st := c.Snapshot()
	assert.Equal(t, userAddress, st.Address)
	assert.Equal(t, "abcdef0123456789", st.DeviceTag)
	require.NotNil(t, st.Balance)
	assert.Equal(t, "30.000000", common.FormatToken(st.Balance))
	assert.False(t, st.Busy)
}

func TestInit_IdentityFailureIsFatal(t *testing.T) {
	c := New(Options{Identities: staticIdentity{err: errors.New("corrupt record")}})
	defer c.Close()

	err := c.Init(context.Background())
	assert.ErrorContains(t, err, "corrupt record")
}

func TestInit_WithoutClientDisablesOperations(t *testing.T) {
	c := newTestController(t, nil)
	c.missing = []string{"RPC_URL", "TOKEN_ADDRESS"}

	require.NoError(t, c.Init(context.Background()))
	assert.Contains(t, lastMessage(c), "RPC_URL")

	_, err := c.FaucetMint(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.Deposit(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRefreshBalance_KeepsPreviousOnError(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(userAddress, 30)
	c := newTestController(t, fc)
	require.NoError(t, c.RefreshBalance(context.Background()))

	fc.failOn["balanceOf"] = errors.New("rpc down")
	err := c.RefreshBalance(context.Background())
	assert.ErrorContains(t, err, "rpc down")

	st := c.Snapshot()
	assert.Equal(t, "30.000000", common.FormatToken(st.Balance))
	assert.Contains(t, lastMessage(c), "Balance refresh failed")
}

func TestDeposit_ZeroBalanceAbortsBeforeCalls(t *testing.T) {
	fc := newFakeClient()
	c := newTestController(t, fc)

	records, err := c.Deposit(context.Background(), "")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, records)
	assert.Equal(t, []string{"balanceOf"}, fc.Calls())
	assert.Contains(t, strings.ToLower(lastMessage(c)), "insufficient")
}

func TestDeposit_ReportsShortfall(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(userAddress, 30)
	c := newTestController(t, fc)

	_, err := c.Deposit(context.Background(), "50")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Contains(t, err.Error(), "have 30.000000, need 50.000000 (short by 20.000000)")
	assert.Zero(t, fc.count("approve"))
	assert.Zero(t, fc.count("deposit"))
	assert.Contains(t, lastMessage(c), "short by 20.000000")
}

func TestDeposit_ApproveThenDeposit(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(userAddress, 80)
	c := newTestController(t, fc)

	records, err := c.Deposit(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.OperationApprove, records[0].Kind)
	assert.Equal(t, model.TxConfirmed, records[0].Status)
	assert.Equal(t, model.OperationDeposit, records[1].Kind)
	assert.Equal(t, "50.000000", records[1].Amount)
	assert.Equal(t, []string{"balanceOf", "allowance", "approve", "deposit"}, fc.Calls())
}

func TestDeposit_SkipsApproveWhenAllowanceCovers(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(userAddress, 80)
	fc.allowance = tokens(1000)
	c := newTestController(t, fc)

	records, err := c.Deposit(context.Background(), "50")
	require.NoError(t, err)
	assert.Equal(t, model.TxSkipped, records[0].Status)
	assert.Zero(t, fc.count("approve"))
	assert.Equal(t, 1, fc.count("deposit"))
}

func TestDeposit_FailureAfterApproveKeepsApproval(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(userAddress, 80)
	fc.failOn["deposit"] = errors.New("execution reverted")
	c := newTestController(t, fc)

	records, err := c.Deposit(context.Background(), "")
	require.Error(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.TxConfirmed, records[0].Status)
	assert.Equal(t, model.TxFailed, records[1].Status)
	assert.Equal(t, 1, fc.count("approve"), "no compensating approve")
	assert.Contains(t, lastMessage(c), "execution reverted")
}

func TestDeposit_NoVault(t *testing.T) {
	fc := newFakeClient()
	fc.vault = ""
	c := newTestController(t, fc)

	_, err := c.Deposit(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, fc.Calls())
}

func TestTransfer_InvalidAddress(t *testing.T) {
	fc := newFakeClient()
	c := newTestController(t, fc)

	_, err := c.Transfer(context.Background(), "not-an-address", "5")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Empty(t, fc.Calls(), "no balance read")
	assert.Contains(t, lastMessage(c), "invalid address")
}

func TestTransfer_InvalidAmount(t *testing.T) {
	fc := newFakeClient()
	c := newTestController(t, fc)

	for _, amount := range []string{"0", "0.000000", "-1", "abc", ""} {
		_, err := c.Transfer(context.Background(), peerAddress, amount)
		assert.ErrorIsf(t, err, ErrInvalidAmount, "amount %q", amount)
	}
	assert.Empty(t, fc.Calls())
	assert.Contains(t, lastMessage(c), "invalid amount")
}

func TestTransfer_RejectsExtraDecimals(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(userAddress, 30)
	c := newTestController(t, fc)

	records, err := c.Transfer(context.Background(), peerAddress, "1.2345678")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.ErrorContains(t, err, "too many decimal places")
	assert.Empty(t, records)
	assert.Empty(t, fc.Calls())
}

func TestDeposit_RejectsExtraDecimals(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(userAddress, 30)
	c := newTestController(t, fc)

	records, err := c.Deposit(context.Background(), "0.0000009")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.NotContains(t, err.Error(), "greater than zero")
	assert.Empty(t, records)
	assert.Empty(t, fc.Calls())
}

func TestTransfer_Sends(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(userAddress, 30)
	c := newTestController(t, fc)

	records, err := c.Transfer(context.Background(), peerAddress, "12.5")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "12.500000", records[0].Amount)
	assert.Equal(t, "0xtransfer", records[0].TxID)
	assert.Equal(t, []string{"balanceOf", "transfer"}, fc.Calls())
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(userAddress, 1)
	c := newTestController(t, fc)

	_, err := c.Transfer(context.Background(), peerAddress, "2")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Zero(t, fc.count("transfer"))
}

func TestFaucetMint(t *testing.T) {
	fc := newFakeClient()
	c := newTestController(t, fc)

	records, err := c.FaucetMint(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.OperationMint, records[0].Kind)
	assert.Equal(t, "100.000000", records[0].Amount)
	assert.Contains(t, lastMessage(c), "Faucet minted 100.000000")
}

func TestFaucetMint_RequiresOperatorKey(t *testing.T) {
	fc := newFakeClient()
	c := newTestController(t, fc)
	c.settings.OperatorKey = ""

	_, err := c.FaucetMint(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, fc.Calls())
}

func TestClaimReward_ChecksOperatorBalance(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(operatorAddress, 5)
	c := newTestController(t, fc)

	_, err := c.ClaimReward(context.Background())
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Zero(t, fc.count("transfer"))

	fc.setBalance(operatorAddress, 500)
	records, err := c.ClaimReward(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.000000", records[0].Amount)
	assert.Equal(t, 1, fc.count("transfer"))
}

func TestExecute_RejectsWhileBusy(t *testing.T) {
	fc := newFakeClient()
	fc.mintEntered = make(chan struct{})
	fc.mintRelease = make(chan struct{})
	c := newTestController(t, fc)

	done := make(chan error, 1)
	go func() {
		_, err := c.FaucetMint(context.Background())
		done <- err
	}()

	<-fc.mintEntered
	assert.True(t, c.Snapshot().Busy)

	_, err := c.ClaimReward(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(fc.mintRelease)
	require.NoError(t, <-done)
	assert.False(t, c.Snapshot().Busy)
	assert.Equal(t, 1, fc.count("mint"))
}

func TestExecute_SchedulesRefreshEvenOnFailure(t *testing.T) {
	fc := newFakeClient()
	c := newTestController(t, fc)

	_, err := c.Transfer(context.Background(), "not-an-address", "1")
	require.Error(t, err)
	assert.True(t, c.refreshPending())
}

func TestScheduledRefresh_Fires(t *testing.T) {
	fc := newFakeClient()
	fc.setBalance(userAddress, 7)
	c := newTestController(t, fc)
	c.settings.RefreshDelay = 10 * time.Millisecond

	_, err := c.FaucetMint(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		st := c.Snapshot()
		return st.Balance != nil && st.Balance.Cmp(tokens(7)) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestNewOperationCancelsPendingRefresh(t *testing.T) {
	fc := newFakeClient()
	c := newTestController(t, fc)
	c.settings.RefreshDelay = 100 * time.Millisecond

	_, err := c.FaucetMint(context.Background())
	require.NoError(t, err)
	_, err = c.FaucetMint(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return fc.count("balanceOf") == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, fc.count("balanceOf"), "first refresh was cancelled")
}

func TestParseAmount(t *testing.T) {
	_, err := parseAmount("1.5.0")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = parseAmount("0.0000009")
	assert.ErrorContains(t, err, "too many decimal places")

	v, err := parseAmount("0.000001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int64())
}

func TestSettingsFromConfig(t *testing.T) {
	s, err := SettingsFromConfig(&config.Config{
		FaucetAmount: "100", RewardAmount: "10", DepositAmount: "50", RefreshDelay: 2500 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.DepositAmount.Cmp(tokens(50)))

	_, err = SettingsFromConfig(&config.Config{FaucetAmount: "lots", RewardAmount: "10", DepositAmount: "50"})
	assert.ErrorContains(t, err, "FAUCET_AMOUNT")
}
