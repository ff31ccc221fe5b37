package carrier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdn/cuestore/internal/telemetry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GHNClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGHNClient(GHNConfig{
		BaseURL: srv.URL,
		Token:   "test-token",
		ShopID:  12345,
	})
	require.NoError(t, err)
	return client
}

func TestNewGHNClientValidation(t *testing.T) {
	_, err := NewGHNClient(GHNConfig{Token: "t"})
	assert.Error(t, err)

	_, err = NewGHNClient(GHNConfig{BaseURL: "https://example.com"})
	assert.Error(t, err)
}

func TestCalculateFee(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/shipping-order/fee", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("Token"))
		assert.Equal(t, "12345", r.Header.Get("ShopId"))

		var req FeeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int32(1442), req.ToDistrictID)
		assert.Equal(t, int32(1500), req.WeightGrams)
		assert.Equal(t, int32(53320), req.ServiceID)
		assert.Equal(t, int32(1), req.ServiceTypeID)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"message":"Success","data":{"total":30000,"service_fee":30000}}`))
	})

	quote, err := client.CalculateFee(context.Background(), FeeRequest{
		FromDistrictID: 1447,
		FromWardCode:   "20211",
		ToDistrictID:   1442,
		ToWardCode:     "20101",
		WeightGrams:    1500,
		LengthCm:       20,
		WidthCm:        15,
		HeightCm:       10,
		ServiceID:      53320,
		ServiceTypeID:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30000), quote.Total)
}

func TestCalculateFeeErrorEnvelope(t *testing.T) {
	// HTTP 200 with a non-200 envelope code is still a failure
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":400,"message":"route not found","data":null}`))
	})

	_, err := client.CalculateFee(context.Background(), FeeRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCalculateFeeHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.CalculateFee(context.Background(), FeeRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRequestMetricsPerOperation(t *testing.T) {
	okBefore := testutil.ToFloat64(telemetry.Checkout.CarrierRequests.WithLabelValues("fee", "ok"))
	errBefore := testutil.ToFloat64(telemetry.Checkout.CarrierRequests.WithLabelValues("fee", "error"))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"message":"Success","data":{"total":30000}}`))
	})
	_, err := client.CalculateFee(context.Background(), FeeRequest{})
	require.NoError(t, err)

	failing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err = failing.CalculateFee(context.Background(), FeeRequest{})
	require.Error(t, err)

	assert.Equal(t, okBefore+1,
		testutil.ToFloat64(telemetry.Checkout.CarrierRequests.WithLabelValues("fee", "ok")))
	assert.Equal(t, errBefore+1,
		testutil.ToFloat64(telemetry.Checkout.CarrierRequests.WithLabelValues("fee", "error")))
}

func TestCreateOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/shipping-order/create", r.URL.Path)

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int32(1), req.PaymentTypeID)
		assert.Equal(t, int64(530000), req.CODAmount)
		require.Len(t, req.Items, 1)
		assert.Equal(t, "CUE-001", req.Items[0].Code)

		w.Write([]byte(`{"code":200,"message":"Success","data":{"order_code":"GHN123ABC","total_fee":30000,"expected_delivery_time":"2026-09-02T16:00:00Z"}}`))
	})

	result, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		FromName:      "Cue Store",
		ToName:        "Nguyễn Văn A",
		ToDistrictID:  1442,
		ToWardCode:    "20101",
		PaymentTypeID: 1,
		CODAmount:     530000,
		Items: []OrderItem{
			{Name: "Predator cue", Code: "CUE-001", Quantity: 1, Price: 500000, Weight: 900},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "GHN123ABC", result.OrderCode)
	assert.Equal(t, int64(30000), result.TotalFee)
}

func TestCancelOrder(t *testing.T) {
	var gotBody map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/shipping-order/cancel", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"code":200,"message":"Success","data":null}`))
	})

	err := client.CancelOrder(context.Background(), "GHN123ABC")
	require.NoError(t, err)
	assert.Equal(t, []string{"GHN123ABC"}, gotBody["order_codes"])
}

func TestGetOrderDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/shipping-order/detail", r.URL.Path)
		w.Write([]byte(`{"code":200,"message":"Success","data":{
			"order_code":"GHN123ABC","status":"delivering",
			"pick_time":"2026-08-30 09:15:00",
			"log":[{"status":"picked","action_at":"2026-08-30T09:15:00Z"}]}}`))
	})

	detail, err := client.GetOrderDetail(context.Background(), "GHN123ABC")
	require.NoError(t, err)
	assert.Equal(t, "delivering", detail.Status)
	require.Len(t, detail.Log, 1)
	assert.Equal(t, "picked", detail.Log[0].Status)
}

func TestGetProvincesUsesGet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/master-data/province", r.URL.Path)
		w.Write([]byte(`{"code":200,"message":"Success","data":[{"ProvinceID":202,"ProvinceName":"Hồ Chí Minh","Code":"79"}]}`))
	})

	provinces, err := client.GetProvinces(context.Background())
	require.NoError(t, err)
	require.Len(t, provinces, 1)
	assert.Equal(t, int32(202), provinces[0].ProvinceID)
	assert.Equal(t, "Hồ Chí Minh", provinces[0].ProvinceName)
}

func TestGetDistrictsAndWards(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/master-data/district":
			var body map[string]int32
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, int32(202), body["province_id"])
			w.Write([]byte(`{"code":200,"message":"Success","data":[{"DistrictID":1442,"ProvinceID":202,"DistrictName":"Quận 1"}]}`))
		case "/master-data/ward":
			w.Write([]byte(`{"code":200,"message":"Success","data":[{"WardCode":"20101","DistrictID":1442,"WardName":"Bến Nghé"}]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	districts, err := client.GetDistricts(context.Background(), 202)
	require.NoError(t, err)
	require.Len(t, districts, 1)
	assert.Equal(t, "Quận 1", districts[0].DistrictName)

	wards, err := client.GetWards(context.Background(), 1442)
	require.NoError(t, err)
	require.Len(t, wards, 1)
	assert.Equal(t, "20101", wards[0].WardCode)
}
