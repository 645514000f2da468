// Package gateway talks to the hosted payment page provider.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrInitFailed wraps every reason a checkout session could not be opened.
var ErrInitFailed = errors.New("payment gateway init failed")

type Gateway interface {
	Init(ctx context.Context, req InitRequest) (*InitResponse, error)
}

type InitRequest struct {
	TransactionID   string
	OrderID         string
	Amount          decimal.Decimal
	Currency        string
	CusName         string
	CusEmail        string
	CusPhone        string
	CusAddress      string
	CusCity         string
	CusState        string
	CusPostcode     string
	CusCountry      string
	ProductName     string
	ProductCategory string
	NumItems        int
}

type InitResponse struct {
	Status             string `json:"status"`
	FailedReason       string `json:"failedreason"`
	SessionKey         string `json:"sessionkey"`
	GatewayPageURL     string `json:"GatewayPageURL"`
	RedirectGatewayURL string `json:"redirectGatewayURL"`
}

// PaymentURL prefers the hosted page and falls back to the redirect URL.
func (r *InitResponse) PaymentURL() string {
	if r.GatewayPageURL != "" {
		return r.GatewayPageURL
	}
	return r.RedirectGatewayURL
}

type Config struct {
	StoreID     string
	StorePass   string
	BaseURL     string
	CallbackURL string // success/fail/cancel are appended
	Timeout     time.Duration
}

// SSLCommerz is the v4 hosted checkout client.
type SSLCommerz struct {
	cfg    Config
	client *http.Client
}

// NewSSLCommerz builds a client whose outbound calls are traced.
// base may be nil.
func NewSSLCommerz(cfg Config, base http.RoundTripper) *SSLCommerz {
	if base == nil {
		base = http.DefaultTransport
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SSLCommerz{
		cfg:    cfg,
		client: &http.Client{Transport: otelhttp.NewTransport(base)},
	}
}

func (g *SSLCommerz) Init(ctx context.Context, in InitRequest) (*InitResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/gwprocess/v4/api.php"
	body := g.form(in).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: gateway timed out", ErrInitFailed)
		}
		return nil, fmt.Errorf("%w: %v", ErrInitFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitFailed, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: gateway returned HTTP %d", ErrInitFailed, resp.StatusCode)
	}

	var out InitResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: unreadable gateway response", ErrInitFailed)
	}
	if !strings.EqualFold(out.Status, "SUCCESS") || out.PaymentURL() == "" {
		reason := out.FailedReason
		if reason == "" {
			reason = "gateway status " + out.Status
		}
		return &out, fmt.Errorf("%w: %s", ErrInitFailed, reason)
	}
	return &out, nil
}

func (g *SSLCommerz) form(in InitRequest) url.Values {
	cb := strings.TrimRight(g.cfg.CallbackURL, "/")
	v := url.Values{}
	v.Set("store_id", g.cfg.StoreID)
	v.Set("store_passwd", g.cfg.StorePass)
	v.Set("total_amount", in.Amount.StringFixed(2))
	v.Set("currency", in.Currency)
	v.Set("tran_id", in.TransactionID)
	v.Set("success_url", cb+"/success")
	v.Set("fail_url", cb+"/fail")
	v.Set("cancel_url", cb+"/cancel")
	v.Set("cus_name", in.CusName)
	v.Set("cus_email", in.CusEmail)
	v.Set("cus_add1", in.CusAddress)
	v.Set("cus_city", in.CusCity)
	v.Set("cus_state", in.CusState)
	v.Set("cus_postcode", in.CusPostcode)
	v.Set("cus_country", in.CusCountry)
	v.Set("cus_phone", in.CusPhone)
	v.Set("shipping_method", "NO")
	v.Set("num_of_item", strconv.Itoa(in.NumItems))
	v.Set("product_name", in.ProductName)
	v.Set("product_category", in.ProductCategory)
	v.Set("product_profile", "general")
	v.Set("value_a", in.OrderID)
	return v
}
