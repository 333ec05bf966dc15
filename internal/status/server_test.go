package status

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"portbridge/logger"
)

func TestNormalizeAddress(t *testing.T) {
	cases := map[string]string{
		"":               "127.0.0.1:9090",
		"  :9100  ":      "0.0.0.0:9100",
		"localhost":      "localhost:9090",
		"0.0.0.0:80":     "0.0.0.0:80",
		"[::1]:443":      "[::1]:443",
		"::1":            "[::1]:9090",
		"::":             "[::]:9090",
		"*:8080":         "0.0.0.0:8080",
		"127.0.0.1:7070": "127.0.0.1:7070",
	}
	for input, want := range cases {
		if got := normalizeAddress(input); got != want {
			t.Fatalf("normalizeAddress(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLogStoreKeepsRecentWarnings(t *testing.T) {
	store := newLogStore(2)
	for i := 0; i < 3; i++ {
		entry := logrus.NewEntry(logrus.New())
		entry.Time = time.Unix(int64(i), 0)
		entry.Level = logrus.WarnLevel
		entry.Message = "warning"
		entry.Data = logrus.Fields{"component": "trade_push", "error": errors.New("boom"), "n": i}
		if err := store.Fire(entry); err != nil {
			t.Fatalf("Fire: %v", err)
		}
	}

	snapshot := store.snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snapshot))
	}
	rec := snapshot[1]
	if rec.Component != "trade_push" || rec.Fields["error"] != "boom" || rec.Fields["n"] != 2 {
		t.Fatalf("unexpected record %#v", rec)
	}
	if _, ok := rec.Fields["component"]; ok {
		t.Fatal("component should not be repeated in fields")
	}

	store.close()
	store.Fire(logrus.NewEntry(logrus.New()))
	if len(store.snapshot()) != 2 {
		t.Fatal("closed store should ignore entries")
	}
}

func TestRouter(t *testing.T) {
	srv := NewServer(":0", func() map[string]int { return map[string]int{"http_client": 2} }, logger.GetLogger())
	defer srv.logStore.close()
	router := srv.router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Handles map[string]int `json:"handles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Handles["http_client"] != 2 {
		t.Fatalf("unexpected handles %v", body.Handles)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "portbridge_") {
		t.Fatalf("unexpected metrics response %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
