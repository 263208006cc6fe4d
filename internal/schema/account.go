package schema

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Balance holds the amounts of one currency in an account.
type Balance struct {
	Currency  string
	Total     decimal.Decimal
	Available decimal.Decimal
	Frozen    decimal.Decimal
}

// Wallet groups balances under an account or profile identifier.
type Wallet struct {
	ID       string
	Balances map[string]Balance
}

// NewWallet keys balances by currency. A later balance for the same currency
// replaces an earlier one.
func NewWallet(id string, balances []Balance) Wallet {
	w := Wallet{ID: id, Balances: make(map[string]Balance, len(balances))}
	for _, b := range balances {
		w.Balances[b.Currency] = b
	}
	return w
}

// Balance returns the balance for currency, or a zero balance.
func (w Wallet) Balance(currency string) Balance {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if b, ok := w.Balances[code]; ok {
		return b
	}
	return Balance{Currency: code}
}

// Currencies lists the wallet currencies in sorted order.
func (w Wallet) Currencies() []string {
	out := make([]string, 0, len(w.Balances))
	for c := range w.Balances {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// FundingType distinguishes deposits from withdrawals.
type FundingType string

const (
	FundingDeposit    FundingType = "deposit"
	FundingWithdrawal FundingType = "withdrawal"
)

// FundingStatus is the settlement state of a transfer.
type FundingStatus string

const (
	FundingProcessing FundingStatus = "processing"
	FundingComplete   FundingStatus = "complete"
	FundingCancelled  FundingStatus = "cancelled"
	FundingFailed     FundingStatus = "failed"
)

// FundingRecord describes a deposit or withdrawal.
type FundingRecord struct {
	Address          string
	DestinationTag   string
	Timestamp        *time.Time
	Currency         string
	Amount           decimal.Decimal
	ID               string
	BlockchainTxHash string
	Type             FundingType
	Status           FundingStatus
	Fee              decimal.Decimal
	Description      string
}
