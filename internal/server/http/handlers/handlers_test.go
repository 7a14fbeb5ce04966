package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testRedirects = Redirects{Success: "/orders/success", Failure: "/orders/failed", Error: "/checkout"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func asUser(id int64) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDContextKey, id)
	}
}

func performRequest(t *testing.T, method, route, target string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, route, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", resp.Body.String(), err)
	}
	return body
}

func TestCurrentUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentUserID(c); got != 0 {
		t.Fatalf("expected 0 when not set, got %d", got)
	}

	c.Set(middleware.UserIDContextKey, int64(42))
	if got := CurrentUserID(c); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[domainErrors.Kind]int{
		domainErrors.KindValidation:        http.StatusBadRequest,
		domainErrors.KindInvalidTransition: http.StatusBadRequest,
		domainErrors.KindUnauthenticated:   http.StatusUnauthorized,
		domainErrors.KindForbidden:         http.StatusForbidden,
		domainErrors.KindNotFound:          http.StatusNotFound,
		domainErrors.KindConflict:          http.StatusConflict,
		domainErrors.KindCapacity:          http.StatusConflict,
		domainErrors.KindTransient:         http.StatusInternalServerError,
		domainErrors.KindExternal:          http.StatusBadGateway,
		domainErrors.KindInternal:          http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := StatusFor(kind); got != want {
			t.Fatalf("kind %s: expected %d, got %d", kind, want, got)
		}
	}
}

func TestCheckoutHandlerPlace(t *testing.T) {
	var got model.PlaceOrderRequest
	facade := testhelpers.StorefrontFacadeStub{PlaceFn: func(_ context.Context, req model.PlaceOrderRequest) (*model.Confirmation, error) {
		got = req
		return &model.Confirmation{
			Order: &model.Order{
				ID:            "8b1c",
				Number:        "ORD-20240310-ABCZ09",
				Subtotal:      decimal.RequireFromString("25"),
				Tax:           decimal.RequireFromString("2"),
				ShippingCost:  decimal.RequireFromString("10"),
				Total:         decimal.RequireFromString("37"),
				Status:        model.OrderStatusPending,
				PaymentStatus: model.PaymentStatusPending,
				CreatedAt:     time.Unix(0, 0).UTC(),
			},
			PaymentURL: "https://checkout.test/8b1c",
		}, nil
	}}
	body := []byte(`{"shippingAddress":{"street":"1 Main","city":"Springfield","state":"IL","zipCode":"62701","country":"US"},"productId":"A","quantity":2,"saveAddress":true}`)
	handler := NewCheckoutHandler(facade, testRedirects, discardLogger())
	key := uuid.NewString()

	resp := performRequest(t, http.MethodPost, "/checkout", "/checkout", handler.Place, asUser(7), body, map[string]string{
		"Content-Type":       "application/json",
		IdempotencyKeyHeader: key,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var out dto.CheckoutResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.PaymentURL != "https://checkout.test/8b1c" || out.Order.Total != "37.00" || out.Order.Tax != "2.00" {
		t.Fatalf("unexpected response %+v", out)
	}
	if got.UserID != 7 || got.IdempotencyKey != key || !got.SaveAddress {
		t.Fatalf("unexpected request passed to facade: %+v", got)
	}
	if got.Direct == nil || got.Direct.ProductID != "A" || got.Direct.Quantity != 2 {
		t.Fatalf("expected direct purchase, got %+v", got.Direct)
	}
	if got.Address.ZipCode != "62701" {
		t.Fatalf("address not bound: %+v", got.Address)
	}
}

func TestCheckoutHandlerPlaceFromCart(t *testing.T) {
	var got model.PlaceOrderRequest
	facade := testhelpers.StorefrontFacadeStub{PlaceFn: func(ctx context.Context, req model.PlaceOrderRequest) (*model.Confirmation, error) {
		got = req
		return testhelpers.StorefrontFacadeStub{}.PlaceOrder(ctx, req)
	}}
	handler := NewCheckoutHandler(facade, testRedirects, discardLogger())
	resp := performRequest(t, http.MethodPost, "/checkout", "/checkout", handler.Place, asUser(3), []byte(`{"shippingAddress":{}}`), map[string]string{"Content-Type": "application/json"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if got.Direct != nil {
		t.Fatalf("expected cart checkout, got direct %+v", got.Direct)
	}
}

func TestCheckoutHandlerPlaceFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		body    []byte
		status  int
		kind    string
		message string
	}{
		{name: "bad json", body: []byte("not json"), status: http.StatusBadRequest, kind: "validation"},
		{name: "address", err: &domainErrors.AddressError{Field: "city"}, status: http.StatusBadRequest, kind: "validation", message: "city is required in shipping address"},
		{name: "stock", err: &domainErrors.StockError{Product: "Mug", Available: 3}, status: http.StatusConflict, kind: "capacity", message: "Insufficient stock for Mug. Only 3 available"},
		{name: "not found", err: domainErrors.ErrProductNotFound, status: http.StatusNotFound, kind: "not_found"},
		{name: "number conflict", err: domainErrors.ErrOrderNumberConflict, status: http.StatusConflict, kind: "conflict"},
		{name: "transient", err: domainErrors.ErrTransactionFailed, status: http.StatusInternalServerError, kind: "transient", message: "temporary failure, please retry"},
		{name: "internal", err: errors.New("pq: connection reset"), status: http.StatusInternalServerError, kind: "internal", message: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == nil {
				body = []byte(`{"shippingAddress":{}}`)
			}
			facade := testhelpers.StorefrontFacadeStub{PlaceFn: func(context.Context, model.PlaceOrderRequest) (*model.Confirmation, error) {
				return nil, tt.err
			}}
			handler := NewCheckoutHandler(facade, testRedirects, discardLogger())
			resp := performRequest(t, http.MethodPost, "/checkout", "/checkout", handler.Place, asUser(1), body, map[string]string{"Content-Type": "application/json"})
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
			out := decodeError(t, resp)
			if out.Kind != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, out.Kind)
			}
			if tt.message != "" && out.Error != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, out.Error)
			}
			if strings.Contains(out.Error, "pq:") {
				t.Fatalf("internal detail leaked: %q", out.Error)
			}
		})
	}
}

func TestCheckoutHandlerVerify(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		outcome  model.ReconcileOutcome
		err      error
		location string
	}{
		{name: "success", target: "/verify?reference=abc", outcome: model.ReconcileSuccess, location: "/orders/success"},
		{name: "failed", target: "/verify?reference=abc", outcome: model.ReconcileFailed, location: "/orders/failed?ref=abc"},
		{name: "missing reference", target: "/verify", location: "/checkout?error=no_reference"},
		{name: "unknown order", target: "/verify?reference=abc", outcome: model.ReconcileError, err: domainErrors.ErrOrderNotFound, location: "/checkout?error=server_error"},
		{name: "storage", target: "/verify?reference=abc", outcome: model.ReconcileError, err: domainErrors.ErrTransactionFailed, location: "/checkout?error=server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called string
			facade := testhelpers.StorefrontFacadeStub{VerifyFn: func(_ context.Context, reference string) (model.ReconcileOutcome, error) {
				called = reference
				return tt.outcome, tt.err
			}}
			handler := NewCheckoutHandler(facade, testRedirects, discardLogger())
			resp := performRequest(t, http.MethodGet, "/verify", tt.target, handler.Verify, nil, nil, nil)
			if resp.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", resp.Code)
			}
			if got := resp.Header().Get("Location"); got != tt.location {
				t.Fatalf("expected redirect to %q, got %q", tt.location, got)
			}
			if strings.Contains(tt.target, "reference=") && called != "abc" {
				t.Fatalf("expected facade to verify abc, got %q", called)
			}
		})
	}
}

func TestCheckoutHandlerVerifyIgnoresOtherParams(t *testing.T) {
	facade := testhelpers.StorefrontFacadeStub{VerifyFn: func(context.Context, string) (model.ReconcileOutcome, error) {
		return model.ReconcileFailed, nil
	}}
	handler := NewCheckoutHandler(facade, testRedirects, discardLogger())
	resp := performRequest(t, http.MethodGet, "/verify", "/verify?reference=abc&status=success&trxref=abc", handler.Verify, nil, nil, nil)
	if got := resp.Header().Get("Location"); got != "/orders/failed?ref=abc" {
		t.Fatalf("expected failure redirect, got %q", got)
	}
}

func TestCheckoutHandlerWebhook(t *testing.T) {
	var gotBody, gotSignature string
	facade := testhelpers.StorefrontFacadeStub{WebhookFn: func(_ context.Context, body []byte, signature string) error {
		gotBody = string(body)
		gotSignature = signature
		return nil
	}}
	handler := NewCheckoutHandler(facade, testRedirects, discardLogger())
	payload := []byte(`{"event":"charge.success","data":{"reference":"abc"}}`)
	resp := performRequest(t, http.MethodPost, "/webhook", "/webhook", handler.Webhook, nil, payload, map[string]string{"x-paystack-signature": "deadbeef"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotBody != string(payload) || gotSignature != "deadbeef" {
		t.Fatalf("unexpected webhook passthrough %q %q", gotBody, gotSignature)
	}
}

func TestCheckoutHandlerWebhookFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "signature", err: domainErrors.ErrInvalidSignature, status: http.StatusUnauthorized},
		{name: "malformed", err: domainErrors.ErrMissingReference, status: http.StatusBadRequest},
		{name: "processor down", err: domainErrors.ErrPaymentUnverified, status: http.StatusBadGateway},
		{name: "storage", err: domainErrors.ErrTransactionFailed, status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := testhelpers.StorefrontFacadeStub{WebhookFn: func(context.Context, []byte, string) error { return tt.err }}
			handler := NewCheckoutHandler(facade, testRedirects, discardLogger())
			resp := performRequest(t, http.MethodPost, "/webhook", "/webhook", handler.Webhook, nil, []byte(`{}`), nil)
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestOrderHandlerList(t *testing.T) {
	var got model.OrderFilter
	facade := testhelpers.StorefrontFacadeStub{OrdersFn: func(_ context.Context, filter model.OrderFilter) (*model.OrderPage, error) {
		got = filter
		return &model.OrderPage{
			Orders: []model.Order{{ID: "o1", Number: "ORD-1", Total: decimal.RequireFromString("37"), Status: model.OrderStatusPending, ItemCount: 3}},
			Total:  11,
			Page:   2,
			Limit:  5,
		}, nil
	}}
	resp := performRequest(t, http.MethodGet, "/orders", "/orders?page=2&limit=5&status=PENDING", NewOrderHandler(facade).List, asUser(9), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got.UserID != 9 || got.Page != 2 || got.Limit != 5 || got.Status != model.OrderStatusPending {
		t.Fatalf("unexpected filter %+v", got)
	}

	var out dto.OrderListResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Orders) != 1 || out.Orders[0].ItemCount != 3 || out.Orders[0].Total != "37.00" {
		t.Fatalf("unexpected orders %+v", out.Orders)
	}
	if out.Pagination.Pages != 3 || out.Pagination.Total != 11 {
		t.Fatalf("unexpected pagination %+v", out.Pagination)
	}
}

func TestOrderHandlerListFailures(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/orders", "/orders?page=two", NewOrderHandler(testhelpers.StorefrontFacadeStub{}).List, asUser(1), nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad page, got %d", resp.Code)
	}

	facade := testhelpers.StorefrontFacadeStub{OrdersFn: func(context.Context, model.OrderFilter) (*model.OrderPage, error) {
		return nil, domainErrors.ErrInvalidStatusFilter
	}}
	resp = performRequest(t, http.MethodGet, "/orders", "/orders?status=LOST", NewOrderHandler(facade).List, asUser(1), nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status, got %d", resp.Code)
	}
}

func TestOrderHandlerDetail(t *testing.T) {
	facade := testhelpers.StorefrontFacadeStub{OrderFn: func(_ context.Context, userID int64, id string) (*model.Order, error) {
		switch id {
		case "missing":
			return nil, domainErrors.ErrOrderNotFound
		case "other":
			return nil, domainErrors.ErrNotOrderOwner
		}
		return &model.Order{
			ID:     id,
			UserID: userID,
			Items: []model.OrderItem{
				{ProductID: "A", ProductName: "Mug", Price: decimal.RequireFromString("10"), Quantity: 2},
			},
		}, nil
	}}
	handler := NewOrderHandler(facade)

	resp := performRequest(t, http.MethodGet, "/orders/:id", "/orders/o1", handler.Detail, asUser(1), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out dto.OrderDetail
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].LineTotal != "20.00" || out.ItemCount != 2 {
		t.Fatalf("unexpected detail %+v", out)
	}

	resp = performRequest(t, http.MethodGet, "/orders/:id", "/orders/missing", handler.Detail, asUser(1), nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	resp = performRequest(t, http.MethodGet, "/orders/:id", "/orders/other", handler.Detail, asUser(1), nil, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestOrderHandlerUpdateStatus(t *testing.T) {
	var cancelled string
	facade := testhelpers.StorefrontFacadeStub{CancelFn: func(_ context.Context, userID int64, id string) (*model.Order, error) {
		cancelled = id
		return &model.Order{ID: id, Number: "ORD-1", Status: model.OrderStatusCancelled, PaymentStatus: model.PaymentStatusFailed}, nil
	}}
	handler := NewOrderHandler(facade)
	headers := map[string]string{"Content-Type": "application/json"}

	resp := performRequest(t, http.MethodPatch, "/orders/:id", "/orders/o1", handler.UpdateStatus, asUser(1), []byte(`{"status":"CANCELLED"}`), headers)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out dto.StatusResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cancelled != "o1" || out.Status != "CANCELLED" || out.PaymentStatus != "FAILED" {
		t.Fatalf("unexpected cancellation %q %+v", cancelled, out)
	}

	cancelled = ""
	resp = performRequest(t, http.MethodPatch, "/orders/:id", "/orders/o1", handler.UpdateStatus, asUser(1), []byte(`{"status":"SHIPPED"}`), headers)
	if resp.Code != http.StatusBadRequest || cancelled != "" {
		t.Fatalf("expected 400 without cancellation, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPatch, "/orders/:id", "/orders/o1", handler.UpdateStatus, asUser(1), []byte(`{}`), headers)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing status, got %d", resp.Code)
	}
}

func TestOrderHandlerUpdateStatusFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{name: "not pending", err: domainErrors.ErrInvalidTransition, status: http.StatusBadRequest, kind: "invalid_transition"},
		{name: "not owner", err: domainErrors.ErrNotOrderOwner, status: http.StatusForbidden, kind: "forbidden"},
		{name: "missing", err: domainErrors.ErrOrderNotFound, status: http.StatusNotFound, kind: "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := testhelpers.StorefrontFacadeStub{CancelFn: func(context.Context, int64, string) (*model.Order, error) {
				return nil, tt.err
			}}
			resp := performRequest(t, http.MethodPatch, "/orders/:id", "/orders/o1", NewOrderHandler(facade).UpdateStatus, asUser(1), []byte(`{"status":"CANCELLED"}`), map[string]string{"Content-Type": "application/json"})
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.Code)
			}
			if out := decodeError(t, resp); out.Kind != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, out.Kind)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", NewHealthHandler(testhelpers.StorefrontFacadeStub{}).Check, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	facade := testhelpers.StorefrontFacadeStub{HealthFn: func(context.Context) error { return errors.New("db down") }}
	resp = performRequest(t, http.MethodGet, "/healthz", "/healthz", NewHealthHandler(facade).Check, nil, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

var _ StorefrontFacade = testhelpers.StorefrontFacadeStub{}
