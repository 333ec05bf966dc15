package market

import (
	"time"
	_ "time/tzdata"

	"portbridge/sdkerr"
	"portbridge/wire"
)

type TradeSession int

const (
	SessionIntraday TradeSession = iota + 1
	SessionPre
	SessionPost
	SessionOvernight
)

var sessions = wire.NewEnum("trade session", map[TradeSession]string{
	SessionIntraday:  "Intraday",
	SessionPre:       "Pre",
	SessionPost:      "Post",
	SessionOvernight: "Overnight",
})

func (s TradeSession) String() string { return sessions.Name(s) }

func (s TradeSession) MarshalJSON() ([]byte, error) { return sessions.Encode(s) }
func (s *TradeSession) UnmarshalJSON(b []byte) error {
	return sessions.Decode(b, s)
}

// span is a half-open range of local minutes since midnight. end may exceed
// a day for spans that cross midnight.
type span struct {
	session    TradeSession
	begin, end int
}

func hm(h, m int) int { return h*60 + m }

type schedule struct {
	loc   *time.Location
	spans []span
}

var schedules = map[Market]schedule{
	MarketUS: {loc: mustLoad("America/New_York"), spans: []span{
		{SessionPre, hm(4, 0), hm(9, 30)},
		{SessionIntraday, hm(9, 30), hm(16, 0)},
		{SessionPost, hm(16, 0), hm(20, 0)},
		{SessionOvernight, hm(20, 0), hm(28, 0)},
	}},
	MarketHK: {loc: mustLoad("Asia/Hong_Kong"), spans: []span{
		{SessionPre, hm(9, 0), hm(9, 30)},
		{SessionIntraday, hm(9, 30), hm(12, 0)},
		{SessionIntraday, hm(13, 0), hm(16, 0)},
		{SessionPost, hm(16, 0), hm(16, 10)},
	}},
	MarketCN: {loc: mustLoad("Asia/Shanghai"), spans: []span{
		{SessionIntraday, hm(9, 30), hm(11, 30)},
		{SessionIntraday, hm(13, 0), hm(15, 0)},
	}},
	MarketSG: {loc: mustLoad("Asia/Singapore"), spans: []span{
		{SessionIntraday, hm(9, 0), hm(12, 0)},
		{SessionIntraday, hm(13, 0), hm(17, 0)},
	}},
}

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// SessionAt classifies t for symbol in its market's local time. The overnight
// session exists only for US symbols and only when enableOvernight is set.
// Times outside every session fail with an unknown trade session error. The
// trading calendar (weekends, holidays) is not modelled.
func SessionAt(symbol string, t time.Time, enableOvernight bool) (TradeSession, error) {
	sym, err := ParseSymbol(symbol)
	if err != nil {
		return 0, err
	}
	sched := schedules[sym.Market]
	local := t.In(sched.loc)
	minute := local.Hour()*60 + local.Minute()

	for _, s := range sched.spans {
		if s.session == SessionOvernight && !enableOvernight {
			continue
		}
		if inSpan(minute, s) {
			return s.session, nil
		}
	}
	return 0, sdkerr.UnknownTradeSession(symbol, t)
}

func inSpan(minute int, s span) bool {
	const day = 24 * 60
	if minute >= s.begin && minute < s.end {
		return true
	}
	// spans crossing midnight also cover the early hours of the next day
	return s.end > day && minute+day >= s.begin && minute+day < s.end
}
