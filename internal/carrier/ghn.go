package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/minhdn/cuestore/internal/telemetry"
)

const defaultTimeout = 10 * time.Second

// GHNClient implements Gateway against the GHN (Giao Hàng Nhanh) REST API.
// Every response arrives wrapped in a {code, message, data} envelope where
// code 200 means success regardless of the HTTP status.
type GHNClient struct {
	baseURL    string
	token      string
	shopID     int32
	httpClient *http.Client
	logger     *slog.Logger
}

// GHNConfig contains configuration for the GHN client.
type GHNConfig struct {
	BaseURL string
	Token   string
	ShopID  int32
	Timeout time.Duration // defaults to 10s
	Logger  *slog.Logger  // defaults to slog.Default()
}

// NewGHNClient creates a GHN API client.
func NewGHNClient(cfg GHNConfig) (*GHNClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ghn: base URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("ghn: API token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GHNClient{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		shopID:     cfg.ShopID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "ghn_client")),
	}, nil
}

func (c *GHNClient) Name() string { return "GHN" }

// envelope is the wrapper GHN puts around every response body.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends the request and unmarshals the envelope data into out. A nil body
// issues a GET, anything else a POST. out may be nil when only success
// matters. op labels the call in the carrier metrics.
func (c *GHNClient) do(ctx context.Context, op, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		telemetry.Checkout.CarrierRequests.WithLabelValues(op, outcome).Inc()
		telemetry.Checkout.CarrierLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	method := http.MethodGet
	var reader io.Reader
	if body != nil {
		method = http.MethodPost
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ghn: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("ghn: build request: %w", err)
	}
	req.Header.Set("Token", c.token)
	req.Header.Set("ShopId", strconv.Itoa(int(c.shopID)))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %v", ErrUnavailable, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("carrier API returned non-OK status",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %s: status %d", ErrUnavailable, path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %s: decode envelope: %v", ErrUnavailable, path, err)
	}
	if env.Code != 200 {
		c.logger.Warn("carrier API returned error code",
			slog.String("path", path),
			slog.Int("code", env.Code),
			slog.String("message", env.Message))
		return fmt.Errorf("%w: %s: code %d: %s", ErrUnavailable, path, env.Code, env.Message)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: %s: decode data: %v", ErrUnavailable, path, err)
		}
	}
	return nil
}

// CalculateFee quotes the delivery fee for a parcel.
func (c *GHNClient) CalculateFee(ctx context.Context, req FeeRequest) (*FeeQuote, error) {
	var quote FeeQuote
	if err := c.do(ctx, "fee", "/v2/shipping-order/fee", req, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// CreateOrder registers a shipping order with the carrier.
func (c *GHNClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	var result CreateOrderResult
	if err := c.do(ctx, "create", "/v2/shipping-order/create", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelOrder cancels a shipping order by its tracking code.
func (c *GHNClient) CancelOrder(ctx context.Context, orderCode string) error {
	body := map[string][]string{"order_codes": {orderCode}}
	return c.do(ctx, "cancel", "/v2/shipping-order/cancel", body, nil)
}

// GetOrderDetail fetches the carrier-side state of an order.
func (c *GHNClient) GetOrderDetail(ctx context.Context, orderCode string) (*OrderDetail, error) {
	body := map[string]string{"order_code": orderCode}
	var detail OrderDetail
	if err := c.do(ctx, "detail", "/v2/shipping-order/detail", body, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetProvinces lists all provinces in the carrier's master data.
func (c *GHNClient) GetProvinces(ctx context.Context) ([]Province, error) {
	var provinces []Province
	if err := c.do(ctx, "master_data", "/master-data/province", nil, &provinces); err != nil {
		return nil, err
	}
	return provinces, nil
}

// GetDistricts lists the districts of a province.
func (c *GHNClient) GetDistricts(ctx context.Context, provinceID int32) ([]District, error) {
	body := map[string]int32{"province_id": provinceID}
	var districts []District
	if err := c.do(ctx, "master_data", "/master-data/district", body, &districts); err != nil {
		return nil, err
	}
	return districts, nil
}

// GetWards lists the wards of a district.
func (c *GHNClient) GetWards(ctx context.Context, districtID int32) ([]Ward, error) {
	body := map[string]int32{"district_id": districtID}
	var wards []Ward
	if err := c.do(ctx, "master_data", "/master-data/ward", body, &wards); err != nil {
		return nil, err
	}
	return wards, nil
}
