package huobi

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/xvenue/errs"
	"github.com/coachpo/xvenue/internal/schema"
)

type fakeAccountAPI struct {
	mu            sync.Mutex
	accounts      []Account
	balances      map[int64]Balance
	accountErr    error
	accountCalls  int
	balanceCalls  int
	balanceLookup []int64
}

func (f *fakeAccountAPI) Accounts(context.Context) ([]Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountCalls++
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return f.accounts, nil
}

func (f *fakeAccountAPI) Balance(_ context.Context, id int64) (Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	f.balanceLookup = append(f.balanceLookup, id)
	return f.balances[id], nil
}

func trade(currency string) BalanceRecord {
	return BalanceRecord{Currency: currency, Type: "trade", Balance: dec("1")}
}

func frozen(currency string) BalanceRecord {
	return BalanceRecord{Currency: currency, Type: "frozen", Balance: dec("1")}
}

var btcUSDT = schema.MustCurrencyPair("BTC/USDT")

func TestMarginAccountPicksFirstAccountWithBothLegs(t *testing.T) {
	api := &fakeAccountAPI{
		accounts: []Account{
			{ID: 1, Type: "spot"},
			{ID: 2, Type: "margin"},
			{ID: 3, Type: "margin"},
			{ID: 4, Type: "super-margin"},
		},
		balances: map[int64]Balance{
			1: {List: []BalanceRecord{trade("btc"), trade("usdt")}},
			2: {List: []BalanceRecord{trade("eth"), trade("usdt")}},
			3: {List: []BalanceRecord{trade("BTC"), frozen("usdt"), trade("usdt")}},
			4: {List: []BalanceRecord{trade("btc"), trade("usdt")}},
		},
	}
	svc := NewAccountService(api)

	account, err := svc.MarginAccount(context.Background(), btcUSDT)
	require.NoError(t, err)
	require.Equal(t, int64(3), account.ID)
	require.Equal(t, []int64{2, 3}, api.balanceLookup)
}

func TestMarginAccountRequiresTradeItemsForBothLegs(t *testing.T) {
	api := &fakeAccountAPI{
		accounts: []Account{{ID: 7, Type: "margin"}},
		balances: map[int64]Balance{
			7: {List: []BalanceRecord{trade("btc"), frozen("usdt"), {Currency: "usdt", Type: "loan"}}},
		},
	}
	_, err := NewAccountService(api).MarginAccount(context.Background(), btcUSDT)
	require.Error(t, err)
	require.True(t, errs.HasCode(err, errs.CodeNotFound))
	require.True(t, errs.HasCanonical(err, errs.CanonicalMarginAccountNotFound))
	require.Contains(t, err.Error(), "BTC/USDT")
}

func TestMarginAccountWithoutMarginAccounts(t *testing.T) {
	api := &fakeAccountAPI{accounts: []Account{{ID: 1, Type: "spot"}}}
	_, err := NewAccountService(api).MarginAccount(context.Background(), btcUSDT)
	require.True(t, errs.HasCanonical(err, errs.CanonicalMarginAccountNotFound))
	require.Zero(t, api.balanceCalls)
}

func TestAccountListIsCached(t *testing.T) {
	api := &fakeAccountAPI{
		accounts: []Account{{ID: 1, Type: "spot"}, {ID: 2, Type: "margin"}},
		balances: map[int64]Balance{2: {List: []BalanceRecord{trade("btc"), trade("usdt")}}},
	}
	svc := NewAccountService(api)
	ctx := context.Background()

	_, err := svc.MarginAccount(ctx, btcUSDT)
	require.NoError(t, err)
	_, err = svc.MarginAccount(ctx, btcUSDT)
	require.NoError(t, err)
	spot, err := svc.SpotAccount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), spot.ID)
	require.Equal(t, 1, api.accountCalls)
	require.Equal(t, 2, api.balanceCalls)

	svc.Reset()
	_, err = svc.Accounts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, api.accountCalls)
}

func TestAccountFetchFailureIsNotCached(t *testing.T) {
	api := &fakeAccountAPI{accountErr: errors.New("boom")}
	svc := NewAccountService(api)
	ctx := context.Background()

	_, err := svc.MarginAccount(ctx, btcUSDT)
	require.Error(t, err)

	api.accountErr = nil
	api.accounts = []Account{{ID: 9, Type: "spot"}}
	spot, err := svc.SpotAccount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(9), spot.ID)
	require.Equal(t, 2, api.accountCalls)
}

func TestConcurrentFirstAccessFetchesOnce(t *testing.T) {
	api := &fakeAccountAPI{accounts: []Account{{ID: 1, Type: "spot"}}}
	svc := NewAccountService(api)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Accounts(context.Background())
		}()
	}
	wg.Wait()
	require.Equal(t, 1, api.accountCalls)
}

func TestSpotAccountEmptyList(t *testing.T) {
	_, err := NewAccountService(&fakeAccountAPI{}).SpotAccount(context.Background())
	require.True(t, errs.HasCode(err, errs.CodeNotFound))
}
