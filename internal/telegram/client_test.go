package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetUpdatesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/bottest-token/getUpdates" {
			t.Errorf("unexpected path %s", got)
		}
		q := r.URL.Query()
		if got := q.Get("offset"); got != "100" {
			t.Errorf("expected offset 100, got %s", got)
		}
		if got := q.Get("timeout"); got != "25" {
			t.Errorf("expected timeout 25, got %s", got)
		}
		if got := q.Get("allowed_updates"); got != `["message","callback_query"]` {
			t.Errorf("unexpected allowed_updates %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true, "result": [
			{"update_id": 100, "message": {"message_id": 1, "chat": {"id": 5, "type": "private"}, "text": "one"}},
			{"update_id": 101, "message": {"message_id": 2, "chat": {"id": 5, "type": "private"}, "text": "two"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL))
	batch, err := c.GetUpdates(context.Background(), 100, 25*time.Second, []string{"message", "callback_query"})
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(batch))
	}
	if batch[0].ID != 100 || batch[1].ID != 101 {
		t.Errorf("unexpected ids %d, %d", batch[0].ID, batch[1].ID)
	}
	if batch[0].ReceivedAt.IsZero() {
		t.Error("expected ReceivedAt to be stamped")
	}
}

func TestGetUpdatesRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok": false, "description": "Too Many Requests: retry after 17", "parameters": {"retry_after": 17}}`))
	}))
	defer srv.Close()

	c := NewClient("t", WithBaseURL(srv.URL))
	_, err := c.GetUpdates(context.Background(), 0, time.Second, nil)

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected *RateLimitError, got %v", err)
	}
	if rl.RetryAfter != 17*time.Second {
		t.Errorf("expected retry after 17s, got %s", rl.RetryAfter)
	}
}

func TestGetUpdatesRateLimitedDefaultDelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok": false, "description": "Too Many Requests"}`))
	}))
	defer srv.Close()

	c := NewClient("t", WithBaseURL(srv.URL))
	_, err := c.GetUpdates(context.Background(), 0, time.Second, nil)

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected *RateLimitError, got %v", err)
	}
	if rl.RetryAfter <= 0 {
		t.Errorf("expected a positive default delay, got %s", rl.RetryAfter)
	}
}

func TestGetUpdatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"ok": false, "description": "Bad Gateway"}`))
	}))
	defer srv.Close()

	c := NewClient("t", WithBaseURL(srv.URL))
	_, err := c.GetUpdates(context.Background(), 0, time.Second, nil)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if te.Status != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", te.Status)
	}
}

func TestGetUpdatesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "description": "Unauthorized"}`))
	}))
	defer srv.Close()

	c := NewClient("t", WithBaseURL(srv.URL))
	_, err := c.GetUpdates(context.Background(), 0, time.Second, nil)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
}

func TestGetUpdatesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient("t", WithBaseURL(srv.URL))
	_, err := c.GetUpdates(context.Background(), 0, time.Second, nil)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
}

func TestGetUpdatesMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	c := NewClient("t", WithBaseURL(srv.URL))
	_, err := c.GetUpdates(context.Background(), 0, time.Second, nil)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
}
