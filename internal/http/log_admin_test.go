package handlers_test

import (
	"net/http"
	"testing"
)

// Privileged writes are audited.
func TestAdminAuditLogging(t *testing.T) {
	a := newApp(t)
	o := placeCOD(t, a, aliceTok(t), "p-kettle", 1)

	logs := captureLogs(t, func() {
		code, body := setStatus(t, a, adminTok(t), o.ID, "PROCESSING")
		if code != http.StatusOK {
			t.Fatalf("status update: %d %s", code, body.Message)
		}
	})
	e := findLog(logs, "order.status.update")
	if e == nil || e.Level != "audit" {
		t.Fatalf("order.status.update not audited: %+v", logs)
	}
	if e.UserID != "u-admin" || e.Fields["order"] != o.ID || e.Fields["status"] != "PROCESSING" {
		t.Fatalf("unexpected audit entry %+v", e)
	}

	logs = captureLogs(t, func() {
		code, _ := setStatus(t, a, adminTok(t), o.ID, "PENDING")
		if code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", code)
		}
	})
	if findLog(logs, "order.status.fail") == nil {
		t.Fatalf("order.status.fail not logged")
	}

	logs = captureLogs(t, func() {
		resp, _ := a.call(t, "POST", "/api/v1/products", adminTok(t), map[string]any{"name": "Rice Cooker", "price": "3200", "stock": 7})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create product: %d", resp.StatusCode)
		}
	})
	if e := findLog(logs, "product.create"); e == nil || e.Fields["price"] != "3200" {
		t.Fatalf("product.create not audited: %+v", logs)
	}
}
