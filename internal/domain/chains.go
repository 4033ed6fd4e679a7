package domain

import "github.com/ethereum/go-ethereum/common"

// chain ids of supported networks
const (
	ChainMainnet   int64 = 1
	ChainGoerli    int64 = 5
	ChainOptimism  int64 = 10
	ChainBSC       int64 = 56
	ChainPolygon   int64 = 137
	ChainBase      int64 = 8453
	ChainArbitrum  int64 = 42161
	ChainAvalanche int64 = 43114
	ChainSepolia   int64 = 11155111
)

type chainInfo struct {
	nativeSymbol  string
	nativeName    string
	wrappedSymbol string
	wrappedName   string
	wrapped       common.Address
}

var chains = map[int64]chainInfo{
	ChainMainnet:   {"ETH", "Ether", "WETH", "Wrapped Ether", common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")},
	ChainGoerli:    {"ETH", "Ether", "WETH", "Wrapped Ether", common.HexToAddress("0xB4FBF271143F4FBf7B91A5ded31805e42b2208d6")},
	ChainSepolia:   {"ETH", "Ether", "WETH", "Wrapped Ether", common.HexToAddress("0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14")},
	ChainOptimism:  {"ETH", "Ether", "WETH", "Wrapped Ether", common.HexToAddress("0x4200000000000000000000000000000000000006")},
	ChainBase:      {"ETH", "Ether", "WETH", "Wrapped Ether", common.HexToAddress("0x4200000000000000000000000000000000000006")},
	ChainArbitrum:  {"ETH", "Ether", "WETH", "Wrapped Ether", common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")},
	ChainPolygon:   {"MATIC", "Polygon Matic", "WMATIC", "Wrapped MATIC", common.HexToAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270")},
	ChainBSC:       {"BNB", "BNB", "WBNB", "Wrapped BNB", common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")},
	ChainAvalanche: {"AVAX", "Avalanche", "WAVAX", "Wrapped AVAX", common.HexToAddress("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7")},
}

// WrappedNative returns the canonical wrapped form of the chain's gas token.
func WrappedNative(chainID int64) (Currency, bool) {
	info, ok := chains[chainID]
	if !ok {
		return Currency{}, false
	}
	return NewToken(chainID, info.wrapped, NativeDecimals, info.wrappedSymbol, info.wrappedName), true
}

// NativeCurrency returns the gas token of the chain.
func NativeCurrency(chainID int64) (Currency, bool) {
	info, ok := chains[chainID]
	if !ok {
		return Currency{}, false
	}
	return NewNativeCurrency(chainID, info.nativeSymbol, info.nativeName), true
}
