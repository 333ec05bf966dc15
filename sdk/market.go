package sdk

import (
	"time"

	"portbridge/config"
	"portbridge/market"
	"portbridge/sdkerr"
)

// SessionInfo is the classification of a symbol at an instant.
type SessionInfo struct {
	Symbol  string              `json:"symbol"`
	Market  market.Market       `json:"market"`
	Session market.TradeSession `json:"session"`
}

// SessionAt classifies symbol at the Unix time unix (seconds). The overnight
// session is only considered when the configuration behind cfg enables it.
func (s *SDK) SessionAt(cfg Handle, symbol string, unix int64) (SessionInfo, *sdkerr.SimpleError) {
	var info SessionInfo
	err := s.configs.With(cfg, func(c *config.Config) error {
		sym, err := market.ParseSymbol(symbol)
		if err != nil {
			return err
		}
		session, err := market.SessionAt(symbol, time.Unix(unix, 0).UTC(), c.EnableOvernight)
		if err != nil {
			return err
		}
		info = SessionInfo{Symbol: sym.String(), Market: sym.Market, Session: session}
		return nil
	})
	return info, simple(err)
}
