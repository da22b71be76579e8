// Package asset models denominated on-chain quantities such as fee-token
// amounts and gas prices.
package asset

// Asset describes the unit a raw on-chain integer is denominated in.
type Asset struct {
	symbol   string
	decimals int32
}

// Gwei is the display unit for gas prices: raw wei scaled by 1e9.
var Gwei = NewAsset("gwei", 9)

// Ether is the native coin of every chain the dashboard reads.
var Ether = NewAsset("ETH", 18)

// NewAsset creates a new Asset with the given symbol and decimals.
func NewAsset(symbol string, decimals int32) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals < 0 || decimals > 30 {
		panic("asset: suspicious decimals")
	}
	return &Asset{symbol: symbol, decimals: decimals}
}

// Symbol returns the display symbol (e.g. "TKO", "gwei").
func (a *Asset) Symbol() string {
	return a.symbol
}

// Decimals returns the number of decimal places of the raw unit.
func (a *Asset) Decimals() int32 {
	return a.decimals
}

// String returns a human-readable representation.
func (a *Asset) String() string {
	return a.symbol
}
