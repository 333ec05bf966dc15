package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSnapshotCountsByLabel(t *testing.T) {
	before := Snapshot()
	HandleCreated("http_client")
	HandleCreated("http_client")
	HandleReleased("http_client")
	Push(PushFiltered)
	OperationScheduled()

	after := Snapshot()
	if d := after["handles_created_total.http_client"] - before["handles_created_total.http_client"]; d != 2 {
		t.Fatalf("handles created delta = %v", d)
	}
	if d := after["handles_released_total.http_client"] - before["handles_released_total.http_client"]; d != 1 {
		t.Fatalf("handles released delta = %v", d)
	}
	if d := after["pushes_total.filtered"] - before["pushes_total.filtered"]; d != 1 {
		t.Fatalf("pushes filtered delta = %v", d)
	}
	if d := after["operations_scheduled_total"] - before["operations_scheduled_total"]; d != 1 {
		t.Fatalf("operations scheduled delta = %v", d)
	}
	for k := range after {
		if strings.HasPrefix(k, "go_") || strings.HasPrefix(k, "process_") {
			t.Fatalf("runtime collector %s leaked into snapshot", k)
		}
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	CallbackDelivered()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "portbridge_callbacks_delivered_total") {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}
