// Package domain defines the currency, amount and wrap types shared by the wrap simulator.
package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// NativeDecimals is the precision of every supported chain's gas token.
const NativeDecimals int32 = 18

// Currency identifies a native gas token or an ERC20 token on a specific chain.
type Currency struct {
	// ChainID chain the currency lives on.
	ChainID int64
	// Native is true for the chain's gas token, Address is ignored then.
	Native bool
	// Address token contract address.
	Address common.Address
	// Decimals number of fractional digits of the minimal unit.
	Decimals int32
	// Symbol display symbol.
	Symbol string
	// Name display name.
	Name string
}

// NewNativeCurrency returns the gas token of the chain.
func NewNativeCurrency(chainID int64, symbol, name string) Currency {
	return Currency{
		ChainID:  chainID,
		Native:   true,
		Decimals: NativeDecimals,
		Symbol:   symbol,
		Name:     name,
	}
}

// NewToken returns an ERC20 token currency.
func NewToken(chainID int64, address common.Address, decimals int32, symbol, name string) Currency {
	return Currency{
		ChainID:  chainID,
		Address:  address,
		Decimals: decimals,
		Symbol:   symbol,
		Name:     name,
	}
}

// Equals compares canonical identity: chain plus either the native flag or the contract address.
func (c Currency) Equals(other Currency) bool {
	if c.ChainID != other.ChainID || c.Native != other.Native {
		return false
	}
	if c.Native {
		return true
	}
	return c.Address == other.Address
}

// String returns the string representation.
func (c Currency) String() string {
	if c.Native {
		return fmt.Sprintf("%s(native)@%d", c.Symbol, c.ChainID)
	}
	return fmt.Sprintf("%s(%s)@%d", c.Symbol, c.Address.Hex(), c.ChainID)
}
