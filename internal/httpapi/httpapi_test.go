package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"warungpos/backend/internal/cache"
	"warungpos/backend/internal/domain"
	queuemem "warungpos/backend/internal/queue/memory"
	"warungpos/backend/internal/service"
	storemem "warungpos/backend/internal/store/memory"
)

const testSecret = "test-secret"

func newTestAPI(t *testing.T) (http.Handler, *storemem.Store) {
	t.Helper()
	mem := storemem.New()

	ctx := context.Background()
	if _, err := mem.CreateProduct(ctx, domain.Product{
		SKU: "SKU-MIE-01", Name: "Mie Goreng Instan", Category: "grocery", PriceCents: 1500,
	}); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if _, err := mem.CreateBatch(ctx, domain.Batch{
		SKU: "SKU-MIE-01", BoughtPriceCents: 500, SellingPriceCents: 1500, Qty: 10,
	}); err != nil {
		t.Fatalf("seed batch: %v", err)
	}

	svc := service.New(mem, queuemem.New(), cache.NoopCatalogCache{}, 2*time.Second, time.Minute)
	api := New(svc, NewAuthManager(testSecret, "471932"), "*")
	return api.Handler(), mem
}

func signToken(t *testing.T, username string, role string) string {
	t.Helper()
	claims := struct {
		jwtlib.RegisteredClaims
		Role string `json:"role"`
	}{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(time.Now().UTC().Add(time.Hour)),
			Issuer:    "idp-test",
		},
		Role: role,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doRequest(handler http.Handler, method string, path string, token string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	handler, _ := newTestAPI(t)
	rec := doRequest(handler, http.MethodGet, "/healthz", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	handler, _ := newTestAPI(t)
	rec := doRequest(handler, http.MethodGet, "/api/v1/products", "", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestGarbageTokenIsUnauthorized(t *testing.T) {
	handler, _ := newTestAPI(t)
	rec := doRequest(handler, http.MethodGet, "/api/v1/products", "not-a-jwt", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestCashierCannotReadBatchLedger(t *testing.T) {
	handler, _ := newTestAPI(t)
	token := signToken(t, "siti", "cashier")
	rec := doRequest(handler, http.MethodGet, "/api/v1/batches", token, "", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403", rec.Code)
	}
}

func TestCheckoutEndToEnd(t *testing.T) {
	handler, mem := newTestAPI(t)
	token := signToken(t, "siti", "cashier")

	body := `{"payment_method":"cash","cash_received_cents":5000,"cart_items":[{"sku":"SKU-MIE-01","qty":2}]}`
	rec := doRequest(handler, http.MethodPost, "/api/v1/checkout", token, body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp domain.CheckoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != domain.CheckoutCommitted {
		t.Errorf("status %q, want committed", resp.Status)
	}
	if resp.Receipt.TotalCents != 3000 || resp.Receipt.ChangeCents != 2000 {
		t.Errorf("receipt = %+v, want total 3000 change 2000", resp.Receipt)
	}
	if len(mem.Sales()) != 1 {
		t.Errorf("got %d remote sales, want 1", len(mem.Sales()))
	}
}

func TestCheckoutInsufficientStockIsConflict(t *testing.T) {
	handler, _ := newTestAPI(t)
	token := signToken(t, "siti", "cashier")

	body := `{"payment_method":"cash","cash_received_cents":100000,"cart_items":[{"sku":"SKU-MIE-01","qty":50}]}`
	rec := doRequest(handler, http.MethodPost, "/api/v1/checkout", token, body, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestCheckoutRejectsUnknownFields(t *testing.T) {
	handler, _ := newTestAPI(t)
	token := signToken(t, "siti", "cashier")

	body := `{"payment_method":"cash","surprise":true,"cart_items":[]}`
	rec := doRequest(handler, http.MethodPost, "/api/v1/checkout", token, body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestBatchDeleteNeedsManagerPIN(t *testing.T) {
	handler, mem := newTestAPI(t)
	token := signToken(t, "owner", "admin")

	batches, err := mem.ListBatches(context.Background(), "SKU-MIE-01")
	if err != nil || len(batches) != 1 {
		t.Fatalf("seed batches = %v (%v)", batches, err)
	}
	path := "/api/v1/batches/" + batches[0].ID

	rec := doRequest(handler, http.MethodDelete, path, token, "", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("without pin: status %d, want 403", rec.Code)
	}

	rec = doRequest(handler, http.MethodDelete, path, token, "", map[string]string{"X-Manager-PIN": "9999"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong pin: status %d, want 403", rec.Code)
	}

	rec = doRequest(handler, http.MethodDelete, path, token, "", map[string]string{"X-Manager-PIN": "471932"})
	if rec.Code != http.StatusOK {
		t.Fatalf("valid pin: status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	batches, _ = mem.ListBatches(context.Background(), "SKU-MIE-01")
	if len(batches) != 0 {
		t.Errorf("batch still present after delete")
	}
}

func TestQueueStatusForCashier(t *testing.T) {
	handler, _ := newTestAPI(t)
	token := signToken(t, "siti", "cashier")

	rec := doRequest(handler, http.MethodGet, "/api/v1/queue/status", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var summary domain.QueueSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !summary.Online || summary.Pending != 0 {
		t.Errorf("summary = %+v, want online with empty queue", summary)
	}
}
