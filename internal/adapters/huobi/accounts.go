package huobi

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/coachpo/xvenue/errs"
	"github.com/coachpo/xvenue/internal/schema"
	"github.com/coachpo/xvenue/internal/telemetry"
)

// AccountAPI lists accounts and their balances.
type AccountAPI interface {
	Accounts(ctx context.Context) ([]Account, error)
	Balance(ctx context.Context, accountID int64) (Balance, error)
}

// AccountService resolves which account an order should be placed against.
// The account list is fetched once and cached for the life of the service.
type AccountService struct {
	api AccountAPI

	mu       sync.Mutex
	accounts []Account
	loaded   bool
}

// NewAccountService wraps api.
func NewAccountService(api AccountAPI) *AccountService {
	return &AccountService{api: api}
}

// Accounts returns the cached account list, fetching it on first use.
// A failed fetch is not cached.
func (s *AccountService) Accounts(ctx context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		accounts, err := s.api.Accounts(ctx)
		if err != nil {
			return nil, err
		}
		s.accounts = accounts
		s.loaded = true
	}
	return append([]Account(nil), s.accounts...), nil
}

// Reset drops the cached account list.
func (s *AccountService) Reset() {
	s.mu.Lock()
	s.accounts = nil
	s.loaded = false
	s.mu.Unlock()
}

// SpotAccount returns the first listed account, which spot orders use.
func (s *AccountService) SpotAccount(ctx context.Context) (Account, error) {
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return Account{}, err
	}
	if len(accounts) == 0 {
		return Account{}, errs.NotFound(venueName, errs.CanonicalUnknown, "no accounts")
	}
	return accounts[0], nil
}

// MarginAccount returns the first margin account holding trade balances in
// both legs of pair.
func (s *AccountService) MarginAccount(ctx context.Context, pair schema.CurrencyPair) (Account, error) {
	accounts, err := s.Accounts(ctx)
	if err != nil {
		telemetry.Venue().RecordMarginLookup(ctx, venueName, "error")
		return Account{}, err
	}
	for _, account := range accounts {
		if !account.IsMargin() {
			continue
		}
		balance, err := s.api.Balance(ctx, account.ID)
		if err != nil {
			telemetry.Venue().RecordMarginLookup(ctx, venueName, "error")
			return Account{}, err
		}
		if tradeLegs(balance, pair) >= 2 {
			telemetry.Venue().RecordMarginLookup(ctx, venueName, "found")
			return account, nil
		}
	}
	telemetry.Venue().RecordMarginLookup(ctx, venueName, "not_found")
	return Account{}, errs.New(venueName, errs.CodeNotFound,
		errs.WithCanonicalCode(errs.CanonicalMarginAccountNotFound),
		errs.WithMessage("margin account not found for currency pair "+pair.String()),
		errs.WithField("pair", pair.String()))
}

// tradeLegs counts the "trade" line items whose currency is a leg of pair.
func tradeLegs(balance Balance, pair schema.CurrencyPair) int {
	count := 0
	for _, rec := range balance.List {
		if rec.Type != "trade" {
			continue
		}
		code := strings.TrimSpace(rec.Currency)
		if strings.EqualFold(code, pair.Base) || strings.EqualFold(code, pair.Counter) {
			count++
		}
	}
	return count
}

// accountID renders an account id for request bodies.
func accountID(a Account) string {
	return strconv.FormatInt(a.ID, 10)
}
