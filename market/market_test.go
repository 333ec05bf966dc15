package market

import (
	"errors"
	"testing"
	"time"

	"portbridge/sdkerr"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		in     string
		code   string
		market Market
	}{
		{"700.HK", "700", MarketHK},
		{"AAPL.US", "AAPL", MarketUS},
		{"600519.SH", "600519", MarketCN},
		{"000001.sz", "000001", MarketCN},
		{"D05.SG", "D05", MarketSG},
		{"BRK.B.US", "BRK.B", MarketUS},
	}
	for _, tt := range tests {
		s, err := ParseSymbol(tt.in)
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if s.Code != tt.code || s.Market != tt.market {
			t.Fatalf("%s: got %+v", tt.in, s)
		}
	}
}

func TestParseSymbolErrors(t *testing.T) {
	for _, in := range []string{"700", "", ".HK", "700."} {
		_, err := ParseSymbol(in)
		var e *sdkerr.Error
		if !errors.As(err, &e) || e.Kind != sdkerr.KindInvalidSecuritySymbol {
			t.Errorf("%q: expected invalid symbol, got %v", in, err)
		}
	}
	_, err := ParseSymbol("700.XX")
	var e *sdkerr.Error
	if !errors.As(err, &e) || e.Kind != sdkerr.KindUnknownMarket || e.Error() != "unknown market: 700.XX" {
		t.Fatalf("expected unknown market, got %v", err)
	}
}

func TestSessionAt(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	hk, _ := time.LoadLocation("Asia/Hong_Kong")
	tests := []struct {
		symbol    string
		at        time.Time
		overnight bool
		want      TradeSession
	}{
		{"AAPL.US", time.Date(2024, 3, 5, 10, 0, 0, 0, ny), false, SessionIntraday},
		{"AAPL.US", time.Date(2024, 3, 5, 5, 0, 0, 0, ny), false, SessionPre},
		{"AAPL.US", time.Date(2024, 3, 5, 17, 30, 0, 0, ny), false, SessionPost},
		{"AAPL.US", time.Date(2024, 3, 5, 22, 0, 0, 0, ny), true, SessionOvernight},
		{"AAPL.US", time.Date(2024, 3, 5, 2, 0, 0, 0, ny), true, SessionOvernight},
		{"700.HK", time.Date(2024, 3, 5, 9, 15, 0, 0, hk), false, SessionPre},
		{"700.HK", time.Date(2024, 3, 5, 14, 0, 0, 0, hk), false, SessionIntraday},
		{"700.HK", time.Date(2024, 3, 5, 16, 5, 0, 0, hk), false, SessionPost},
		// 02:00 UTC is 10:00 in Shanghai
		{"600519.SH", time.Date(2024, 3, 5, 2, 0, 0, 0, time.UTC), false, SessionIntraday},
	}
	for _, tt := range tests {
		got, err := SessionAt(tt.symbol, tt.at, tt.overnight)
		if err != nil {
			t.Fatalf("%s at %v: %v", tt.symbol, tt.at, err)
		}
		if got != tt.want {
			t.Fatalf("%s at %v: got %v, want %v", tt.symbol, tt.at, got, tt.want)
		}
	}
}

func TestSessionAtUnknown(t *testing.T) {
	hk, _ := time.LoadLocation("Asia/Hong_Kong")
	at := time.Date(2024, 3, 5, 12, 30, 0, 0, hk)
	_, err := SessionAt("700.HK", at, false)
	var e *sdkerr.Error
	if !errors.As(err, &e) || e.Kind != sdkerr.KindUnknownTradeSession || e.Symbol != "700.HK" || !e.Time.Equal(at) {
		t.Fatalf("expected unknown trade session, got %v", err)
	}

	ny, _ := time.LoadLocation("America/New_York")
	if _, err := SessionAt("AAPL.US", time.Date(2024, 3, 5, 22, 0, 0, 0, ny), false); err == nil {
		t.Fatal("overnight must be rejected when disabled")
	}
	if _, err := SessionAt("bogus", at, false); !errors.Is(err, &sdkerr.Error{Kind: sdkerr.KindInvalidSecuritySymbol}) {
		t.Fatalf("expected invalid symbol, got %v", err)
	}
}
