package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"portbridge/sdkerr"
	"portbridge/trade"
	"portbridge/wsclient"
)

const pushData = `{"event":"order_changed_lb","data":{
	"side":"Buy","stock_name":"Tencent","submitted_quantity":"100","symbol":"700.HK",
	"order_type":"LO","submitted_price":"300","executed_quantity":"0","executed_price":"0",
	"order_id":"42","currency":"HKD","status":"NewStatus","submitted_at":"1651234567",
	"updated_at":"1651234567","trigger_price":"","msg":"","tag":"Normal","trigger_status":"NOT_USED",
	"trigger_at":"0","trailing_amount":"","trailing_percent":"","limit_offset":"","account_no":"HK1",
	"last_share":"","last_price":"","remark":""}}`

func newTradeServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/socket/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"data":{"otp":"otp"}}`))
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			req, err := wsclient.DecodePacket(msg)
			if err != nil {
				return
			}
			resp := wsclient.Packet{Type: wsclient.PacketResponse, Cmd: req.Cmd, RequestID: req.RequestID}
			switch req.Cmd {
			case wsclient.CmdAuth:
				resp.Body = []byte{0x0a, 1, 's'}
			case trade.CmdSubscribe:
				resp.Body = (&trade.SubResponse{Success: []string{"private"}, Current: []string{"private"}}).Marshal()
			default:
				resp.Body = (&trade.SubResponse{}).Marshal()
			}
			conn.WriteMessage(websocket.BinaryMessage, resp.Encode())
			if req.Cmd == trade.CmdSubscribe {
				n := trade.Notification{Topic: "private", ContentType: trade.ContentJSON, Data: []byte(pushData)}
				push := wsclient.Packet{Type: wsclient.PacketPush, Cmd: trade.CmdPushNotification, Body: n.Marshal()}
				conn.WriteMessage(websocket.BinaryMessage, push.Encode())
			}
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestTradeContextLifecycle(t *testing.T) {
	server := newTradeServer(t)
	s := newTestSDK(t)

	doc := fmt.Sprintf(`{"credentials":{"app_key":"k","app_secret":"s","access_token":"t"},
		"endpoints":{"http_url":%q,"trade_ws_url":%q}}`, server.URL, "ws"+strings.TrimPrefix(server.URL, "http")+"/ws")
	cfg, serr := s.NewConfig([]byte(doc))
	if serr != nil {
		t.Fatalf("NewConfig: %v", serr)
	}

	cb, ch := collect()
	if serr := s.NewTradeContext(cfg, cb); serr != nil {
		t.Fatalf("NewTradeContext: %v", serr)
	}
	r := wait(t, ch)
	if r.err != nil {
		t.Fatalf("connect: %v", r.err)
	}
	var created handleResult
	if err := json.Unmarshal(r.value, &created); err != nil || created.Handle == 0 {
		t.Fatalf("unexpected result %s: %v", r.value, err)
	}
	h := created.Handle

	pushes := make(chan []byte, 1)
	if serr := s.TradeContextSetOnPush(h, func(event []byte) { pushes <- event }); serr != nil {
		t.Fatalf("TradeContextSetOnPush: %v", serr)
	}
	if serr := s.TradeContextSubscribe(h, []string{"unknown"}, nil); serr == nil {
		t.Fatal("expected error for unknown topic")
	}

	cb, ch = collect()
	if serr := s.TradeContextSubscribe(h, []string{"private"}, cb); serr != nil {
		t.Fatalf("TradeContextSubscribe: %v", serr)
	}
	if r := wait(t, ch); r.err != nil || string(r.value) != `["private"]` {
		t.Fatalf("unexpected subscribe result %s %v", r.value, r.err)
	}

	select {
	case event := <-pushes:
		var decoded struct {
			Event string `json:"event"`
			Data  struct {
				OrderID string `json:"order_id"`
				Symbol  string `json:"symbol"`
			} `json:"data"`
		}
		if err := json.Unmarshal(event, &decoded); err != nil {
			t.Fatalf("decode push: %v", err)
		}
		if decoded.Event != "order_changed_lb" || decoded.Data.OrderID != "42" || decoded.Data.Symbol != "700.HK" {
			t.Fatalf("unexpected push %s", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("push was not delivered")
	}

	if serr := s.FreeTradeContext(h); serr != nil {
		t.Fatalf("FreeTradeContext: %v", serr)
	}
	if serr := s.TradeContextUnsubscribe(h, []string{"private"}, nil); serr == nil {
		t.Fatal("expected error using freed trade context")
	}
}

func TestNewTradeContextInvalidConfigHandle(t *testing.T) {
	s := newTestSDK(t)
	if serr := s.NewTradeContext(12345, nil); serr == nil {
		t.Fatal("expected error for unknown config handle")
	}
}

func TestFreeTradeContextFromPushHandler(t *testing.T) {
	server := newTradeServer(t)
	s := newTestSDK(t)

	doc := fmt.Sprintf(`{"credentials":{"app_key":"k","app_secret":"s","access_token":"t"},
		"endpoints":{"http_url":%q,"trade_ws_url":%q}}`, server.URL, "ws"+strings.TrimPrefix(server.URL, "http")+"/ws")
	cfg, serr := s.NewConfig([]byte(doc))
	if serr != nil {
		t.Fatalf("NewConfig: %v", serr)
	}
	cb, ch := collect()
	s.NewTradeContext(cfg, cb)
	r := wait(t, ch)
	if r.err != nil {
		t.Fatalf("connect: %v", r.err)
	}
	var created handleResult
	if err := json.Unmarshal(r.value, &created); err != nil {
		t.Fatal(err)
	}
	h := created.Handle

	freed := make(chan *sdkerr.SimpleError, 1)
	s.TradeContextSetOnPush(h, func([]byte) {
		freed <- s.FreeTradeContext(h)
	})
	cb, ch = collect()
	if serr := s.TradeContextSubscribe(h, []string{"private"}, cb); serr != nil {
		t.Fatalf("TradeContextSubscribe: %v", serr)
	}
	wait(t, ch)

	select {
	case serr := <-freed:
		if serr != nil {
			t.Fatalf("FreeTradeContext: %v", serr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("FreeTradeContext called from the push handler did not return")
	}
	if live := s.Live()["trade_context"]; live != 0 {
		t.Fatalf("expected no live trade contexts, got %d", live)
	}
}
