package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNotifier_DeliverSigned(t *testing.T) {
	var gotSig string
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		if want := "sha256=" + Sign("s3cret", body); gotSig != want {
			t.Errorf("signature = %q, want %q", gotSig, want)
		}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "s3cret")
	ev := NewEvent(EventPageSnapshot, "session-1", map[string]string{"title": "Demo"})
	if err := n.Deliver(context.Background(), ev); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got.ID != ev.ID || got.Type != EventPageSnapshot || got.SessionID != "session-1" {
		t.Errorf("delivered event = %+v", got)
	}
}

func TestNotifier_DeliverUnsigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(SignatureHeader) != "" {
			t.Error("signature header set without a secret")
		}
	}))
	defer srv.Close()

	if err := NewNotifier(srv.URL, "").Deliver(context.Background(), NewEvent(EventVideoSummary, "", nil)); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
}

func TestNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewNotifier(srv.URL, "").Deliver(context.Background(), NewEvent(EventVideoSummary, "", nil)); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestNotifier_DeliverAsyncRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "")
	n.delays = []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}
	n.DeliverAsync(NewEvent(EventPageSnapshot, "", nil))
	n.Wait()

	if got := calls.Load(); got != 3 {
		t.Errorf("endpoint called %d times, want 3", got)
	}
}
