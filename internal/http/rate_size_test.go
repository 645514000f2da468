package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bazaar/internal/http/handlers"
)

func tightLimits(o *handlers.Options) {
	o.Limits = handlers.Limits{Global: 1000, Login: 3, Avail: 3, Callback: 3}
}

// Burst hits return 429 and are logged as security events.
func TestRateLimits(t *testing.T) {
	a := newApp(t, tightLimits)

	logs := captureLogs(t, func() {
		for i := 0; i < 4; i++ {
			resp, _ := a.call(t, "GET", "/api/v1/products/p-kettle/availability", "", nil)
			if i < 3 && resp.StatusCode == http.StatusTooManyRequests {
				t.Fatalf("hit rate limit too early at %d", i)
			}
			if i == 3 && resp.StatusCode != http.StatusTooManyRequests {
				t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
			}
		}
	})
	if e := findLog(logs, "rate.availability.hit"); e == nil || e.Level != "warn" {
		t.Fatalf("rate.availability.hit not logged")
	}

	for i := 0; i < 4; i++ {
		resp, _ := a.call(t, "POST", "/api/v1/auth/login", "", map[string]string{
			"email": "alice@bazaar.test", "password": "nope",
		})
		if i < 3 && resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("login attempt %d: expected 401, got %d", i, resp.StatusCode)
		}
		if i == 3 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after login limit, got %d", resp.StatusCode)
		}
	}

	for i := 0; i < 4; i++ {
		req := httptest.NewRequest("GET", "/api/v1/payment/callback/cancel?tran_id=TXN-X", nil)
		resp, err := a.app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		if i == 3 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after callback limit, got %d", resp.StatusCode)
		}
	}
}

// Oversized POST rejected with 413
func TestBodySizeLimit(t *testing.T) {
	a := newApp(t)

	oversize := bytes.Repeat([]byte("A"), (1<<20)+10)
	req := httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+aliceTok(t))
	resp, err := a.app.Test(req, -1)
	// Fiber returns an error instead of a response when body too large; treat that as pass
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 413 for oversize, got %d body=%s", resp.StatusCode, string(body))
	}
}

func TestHealthAndMetricsBypassLimiter(t *testing.T) {
	a := newApp(t, func(o *handlers.Options) { o.Limits = handlers.Limits{Global: 1} })
	for i := 0; i < 3; i++ {
		resp, err := a.app.Test(httptest.NewRequest("GET", "/healthz", nil))
		if err != nil || resp.StatusCode != http.StatusOK {
			t.Fatalf("healthz %d: %v %v", i, err, resp)
		}
	}
}
