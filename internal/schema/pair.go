// Package schema defines the venue-agnostic trading model exposed to callers.
package schema

import (
	"fmt"
	"strings"
)

// CurrencyPair is an ordered (base, counter) pair of currency codes.
// It is comparable and may be used as a map key.
type CurrencyPair struct {
	Base    string `json:"base"`
	Counter string `json:"counter"`
}

// NewCurrencyPair trims both legs and upper-cases them. Any code is
// accepted; Valid reports whether both legs are present.
func NewCurrencyPair(base, counter string) CurrencyPair {
	return CurrencyPair{
		Base:    NormalizeCurrencyCode(base),
		Counter: NormalizeCurrencyCode(counter),
	}
}

// ParseCurrencyPair accepts "BTC/USD", "BTC-USD" or "btc_usd".
func ParseCurrencyPair(symbol string) (CurrencyPair, error) {
	trimmed := strings.TrimSpace(symbol)
	for _, sep := range []string{"/", "-", "_"} {
		base, counter, ok := strings.Cut(trimmed, sep)
		if !ok {
			continue
		}
		pair := NewCurrencyPair(base, counter)
		if !pair.Valid() {
			break
		}
		return pair, nil
	}
	return CurrencyPair{}, fmt.Errorf("invalid currency pair %q", symbol)
}

// MustCurrencyPair is ParseCurrencyPair for literals known to be valid.
func MustCurrencyPair(symbol string) CurrencyPair {
	pair, err := ParseCurrencyPair(symbol)
	if err != nil {
		panic(err)
	}
	return pair
}

// String renders the canonical "BASE/COUNTER" form.
func (p CurrencyPair) String() string {
	return p.Base + "/" + p.Counter
}

// Symbol renders the pair with a venue-specific separator.
func (p CurrencyPair) Symbol(sep string) string {
	return p.Base + sep + p.Counter
}

// Equal reports whether both legs match, ignoring case.
func (p CurrencyPair) Equal(other CurrencyPair) bool {
	return strings.EqualFold(p.Base, other.Base) && strings.EqualFold(p.Counter, other.Counter)
}

// Contains reports whether currency is one of the two legs.
func (p CurrencyPair) Contains(currency string) bool {
	return strings.EqualFold(p.Base, currency) || strings.EqualFold(p.Counter, currency)
}

// Valid reports whether both legs are non-empty.
func (p CurrencyPair) Valid() bool {
	return p.Base != "" && p.Counter != ""
}

// IsZero reports whether the pair is unset.
func (p CurrencyPair) IsZero() bool {
	return p.Base == "" && p.Counter == ""
}

// NormalizeCurrencyCode trims and upper-cases a currency identifier.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
