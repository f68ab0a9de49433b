package utils

import (
	"net/http/httptest"
	"testing"
)

func TestSendSSEEvent(t *testing.T) {
	resp := httptest.NewRecorder()
	SetupSSEHeaders(resp)
	SendSSEEvent(resp, resp, "stage", map[string]string{"stage": "RECEIVED"})

	if got := resp.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}
	want := "event: stage\ndata: {\"stage\":\"RECEIVED\"}\n\n"
	if resp.Body.String() != want {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
	if !resp.Flushed {
		t.Fatal("expected flush")
	}
}
