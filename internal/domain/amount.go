package domain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal quantity of a currency.
type Amount struct {
	Currency Currency
	Value    decimal.Decimal
}

// NewAmount creates an amount of the currency.
func NewAmount(currency Currency, value decimal.Decimal) Amount {
	return Amount{Currency: currency, Value: value}
}

// NewAmountFromRaw creates an amount from its minimal-unit integer value.
func NewAmountFromRaw(currency Currency, raw *big.Int) Amount {
	if raw == nil {
		return Amount{Currency: currency, Value: decimal.Zero}
	}
	return Amount{Currency: currency, Value: decimal.NewFromBigInt(raw, -currency.Decimals)}
}

// TryParseAmount parses user input as an amount of the currency.
// Empty, malformed, negative or zero input and input with more fractional digits than the
// currency supports yield false.
func TryParseAmount(typed string, currency *Currency) (Amount, bool) {
	if currency == nil {
		return Amount{}, false
	}
	typed = strings.TrimSpace(typed)
	if typed == "" {
		return Amount{}, false
	}

	value, err := decimal.NewFromString(typed)
	if err != nil {
		return Amount{}, false
	}
	if !value.Equal(value.Truncate(currency.Decimals)) {
		return Amount{}, false
	}
	if !value.IsPositive() {
		return Amount{}, false
	}

	return Amount{Currency: *currency, Value: value}, true
}

// GreaterThan reports whether a > other.
func (a Amount) GreaterThan(other decimal.Decimal) bool {
	return a.Value.GreaterThan(other)
}

// LessThan reports whether a < other.
func (a Amount) LessThan(other Amount) bool {
	return a.Value.LessThan(other.Value)
}

// Exact returns the exact decimal representation without trailing zeros.
func (a Amount) Exact() string {
	return a.Value.String()
}

// Quotient returns the amount in the currency's minimal unit.
func (a Amount) Quotient() *big.Int {
	return a.Value.Shift(a.Currency.Decimals).BigInt()
}

// RawString returns Quotient as a base-10 string.
func (a Amount) RawString() string {
	return a.Quotient().String()
}
