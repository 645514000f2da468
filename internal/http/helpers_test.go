package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"bazaar/internal/config"
	"bazaar/internal/domain"
	"bazaar/internal/gateway"
	"bazaar/internal/http/handlers"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

const testSecret = "test-secret"

type testApp struct {
	app *fiber.App
	db  *sqlx.DB
	gw  *fakeGateway
}

func testConfig() config.Config {
	return config.Config{
		DBDSN:        ":memory:",
		TemplatesDir: "../../web/templates",
		CORSOrigins:  "http://localhost:3000",
		JWTSecret:    testSecret,
		JWTTTL:       time.Hour,
		BcryptCost:   4,
		Gateway:      config.GatewayConfig{Currency: "BDT"},
	}
}

// newApp builds the real route table over a fresh in-memory database.
func newApp(t *testing.T, tweak ...func(*handlers.Options)) *testApp {
	t.Helper()
	cfg := testConfig()
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gw := &fakeGateway{}
	opts := handlers.Options{DB: db, Config: cfg, Gateway: gw}
	for _, fn := range tweak {
		fn(&opts)
	}
	return &testApp{app: handlers.NewApp(opts), db: db, gw: gw}
}

// token signs a JWT for one of the seeded users.
func token(t *testing.T, id string, role domain.Role) string {
	t.Helper()
	auth := &services.AuthService{Secret: []byte(testSecret), TTL: time.Hour}
	tok, err := auth.Issue(&domain.User{ID: id, Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func aliceTok(t *testing.T) string  { return token(t, "u-alice", domain.RoleCustomer) }
func bobTok(t *testing.T) string    { return token(t, "u-bob", domain.RoleCustomer) }
func sellerTok(t *testing.T) string { return token(t, "u-seller", domain.RoleSeller) }
func adminTok(t *testing.T) string  { return token(t, "u-admin", domain.RoleAdmin) }

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// call sends a JSON request. tok may be empty; body may be nil or a
// string of raw JSON.
func (a *testApp) call(t *testing.T, method, path, tok string, body any, hdr ...string) (*http.Response, apiResponse) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var out apiResponse
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp, out
}

func decodeData(t *testing.T, r apiResponse, dst any) {
	t.Helper()
	if err := json.Unmarshal(r.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", r.Data, err)
	}
}

type placed struct {
	Order        domain.Order         `json:"order"`
	Payment      *services.InitResult `json:"payment"`
	PaymentError string               `json:"paymentError"`
}

// fakeGateway answers every init with a hosted page under pay.test.
type fakeGateway struct {
	mu    sync.Mutex
	calls []gateway.InitRequest
	err   error
}

func (f *fakeGateway) Init(_ context.Context, req gateway.InitRequest) (*gateway.InitResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.InitResponse{Status: "SUCCESS", SessionKey: "sess-" + req.TransactionID,
		GatewayPageURL: "https://pay.test/" + req.TransactionID}, nil
}

type logEntry struct {
	Level  string                 `json:"level"`
	Action string                 `json:"action"`
	UserID string                 `json:"user_id"`
	Fields map[string]interface{} `json:"fields"`
}

// capture logs by temporarily replacing the standard logger output
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0) // remove timestamps to make JSON parseable
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func findLog(entries []logEntry, action string) *logEntry {
	for i := range entries {
		if entries[i].Action == action {
			return &entries[i]
		}
	}
	return nil
}
