package market

import (
	"strings"

	"portbridge/sdkerr"
	"portbridge/wire"
)

type Market int

const (
	MarketUS Market = iota + 1
	MarketHK
	MarketCN
	MarketSG
)

var markets = wire.NewEnum("market", map[Market]string{
	MarketUS: "US",
	MarketHK: "HK",
	MarketCN: "CN",
	MarketSG: "SG",
})

func (m Market) String() string { return markets.Name(m) }

func (m Market) MarshalJSON() ([]byte, error) { return markets.Encode(m) }
func (m *Market) UnmarshalJSON(b []byte) error {
	return markets.Decode(b, m)
}

// suffixes maps a symbol suffix to its market. Mainland symbols carry the
// exchange (SH, SZ) rather than the market.
var suffixes = map[string]Market{
	"US": MarketUS,
	"HK": MarketHK,
	"SH": MarketCN,
	"SZ": MarketCN,
	"SG": MarketSG,
}

// Symbol is a parsed security symbol such as 700.HK.
type Symbol struct {
	Code   string
	Suffix string
	Market Market
}

func (s Symbol) String() string {
	return s.Code + "." + s.Suffix
}

// ParseSymbol splits symbol at its last dot. A symbol without a code or
// suffix is invalid; an unrecognized suffix is an unknown market.
func ParseSymbol(symbol string) (Symbol, error) {
	i := strings.LastIndexByte(symbol, '.')
	if i <= 0 || i == len(symbol)-1 {
		return Symbol{}, sdkerr.InvalidSecuritySymbol(symbol)
	}
	suffix := strings.ToUpper(symbol[i+1:])
	m, ok := suffixes[suffix]
	if !ok {
		return Symbol{}, sdkerr.UnknownMarket(symbol)
	}
	return Symbol{Code: symbol[:i], Suffix: suffix, Market: m}, nil
}
