package handlers_test

import (
	"testing"
)

// auth logging on success/fail
func TestAuthLogging(t *testing.T) {
	a := newApp(t)

	run := func(email, pass string) []logEntry {
		return captureLogs(t, func() {
			_, _ = a.call(t, "POST", "/api/v1/auth/login", "", map[string]string{"email": email, "password": pass})
		})
	}

	failLogs := run("alice@bazaar.test", "badpass!")
	e := findLog(failLogs, "auth.login.fail")
	if e == nil {
		t.Fatalf("auth.login.fail log not found in %+v", failLogs)
	}
	if e.Level != "warn" {
		t.Fatalf("auth.login.fail level = %q", e.Level)
	}
	if _, ok := e.Fields["email"]; !ok {
		t.Fatalf("auth.login.fail missing email field")
	}

	successLogs := run("alice@bazaar.test", "Passw0rd!")
	e = findLog(successLogs, "auth.login.success")
	if e == nil {
		t.Fatalf("auth.login.success log not found")
	}
	if e.UserID != "u-alice" {
		t.Fatalf("auth.login.success user_id = %q", e.UserID)
	}
	for _, entry := range successLogs {
		for _, v := range entry.Fields {
			if s, ok := v.(string); ok && s == "Passw0rd!" {
				t.Fatalf("password leaked into logs: %+v", entry)
			}
		}
	}
}
