package services

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"tunecards-api/models"
)

func TestMapMollieStatus(t *testing.T) {
	tests := []struct {
		mollie string
		want   string
	}{
		{"paid", models.OrderStatusPaid},
		{"failed", models.OrderStatusFailed},
		{"expired", models.OrderStatusExpired},
		{"canceled", models.OrderStatusCanceled},
		{"pending", ""},
		{"authorized", ""},
		{"open", ""},
	}
	for _, tt := range tests {
		if got := mapMollieStatus(tt.mollie); got != tt.want {
			t.Errorf("mapMollieStatus(%q) = %q, want %q", tt.mollie, got, tt.want)
		}
	}
}

func testMollieService(t *testing.T, server *httptest.Server, steps []*queryStep) (*MollieService, *scriptedDB) {
	t.Helper()
	t.Setenv("MOLLIE_API_KEY", "test_key")

	db, state, cleanup := newScriptedGormDB(t, steps)
	t.Cleanup(cleanup)

	svc := NewMollieService(db, server.Client())
	svc.baseURL = server.URL
	return svc, state
}

func TestCreatePaymentStoresPaymentID(t *testing.T) {
	t.Setenv("FRONTEND_URL", "https://tunecards.example")
	t.Setenv("BACKEND_URL", "https://api.tunecards.example")

	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test_key" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{
			"id": "tr_abc123",
			"status": "open",
			"_links": {"checkout": {"href": "https://pay.example/tr_abc123"}}
		}`))
	}))
	defer server.Close()

	svc, state := testMollieService(t, server, []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `orders`"),
			result:  scriptedResult{rowsAffected: 1},
		},
	})

	order := &models.Order{
		OrderID:     1,
		OrderNumber: "ABC123",
		AmountCents: 1250,
		Currency:    "EUR",
	}

	checkoutURL, err := svc.CreatePayment(context.Background(), order)
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	if checkoutURL != "https://pay.example/tr_abc123" {
		t.Fatalf("checkout url = %q", checkoutURL)
	}
	if order.MolliePaymentID == nil || *order.MolliePaymentID != "tr_abc123" {
		t.Fatal("payment id not stored on order")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}

	amount := gotBody["amount"].(map[string]interface{})
	if amount["value"] != "12.50" {
		t.Errorf("amount value = %v", amount["value"])
	}
	if gotBody["redirectUrl"] != "https://tunecards.example/order/ABC123/thanks" {
		t.Errorf("redirectUrl = %v", gotBody["redirectUrl"])
	}
	if gotBody["webhookUrl"] != "https://api.tunecards.example/api/v1/payments/webhook" {
		t.Errorf("webhookUrl = %v", gotBody["webhookUrl"])
	}
}

func orderRowStep(status string) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT .* FROM `orders`"),
		columns: []string{"order_id", "order_number", "email", "playlist_name", "card_count", "status", "mollie_payment_id"},
		rows: [][]driver.Value{{
			int64(1), "ABC123", "buyer@example.com", "Road Trip", int64(40), status, "tr_abc123",
		}},
	}
}

func TestHandleWebhookPaidUpdatesAndMails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments/tr_abc123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"id": "tr_abc123", "status": "paid"}`))
	}))
	defer server.Close()

	svc, state := testMollieService(t, server, []*queryStep{
		orderRowStep(models.OrderStatusOpen),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `orders`"),
			result:  scriptedResult{rowsAffected: 1},
		},
	})

	var mailedTo []string
	svc.mail = func(to []string, subject, html string) error {
		mailedTo = to
		return nil
	}

	if err := svc.HandleWebhook(context.Background(), "tr_abc123"); err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
	if len(mailedTo) != 1 || mailedTo[0] != "buyer@example.com" {
		t.Fatalf("confirmation mailed to %v", mailedTo)
	}
}

func TestHandleWebhookReplayIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "tr_abc123", "status": "paid"}`))
	}))
	defer server.Close()

	// Order already paid: no update, no mail.
	svc, state := testMollieService(t, server, []*queryStep{
		orderRowStep(models.OrderStatusPaid),
	})

	svc.mail = func(to []string, subject, html string) error {
		t.Error("replay must not resend the confirmation mail")
		return nil
	}

	if err := svc.HandleWebhook(context.Background(), "tr_abc123"); err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestHandleWebhookTerminalStateNeverRegresses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "tr_abc123", "status": "expired"}`))
	}))
	defer server.Close()

	svc, state := testMollieService(t, server, []*queryStep{
		orderRowStep(models.OrderStatusPaid),
	})

	if err := svc.HandleWebhook(context.Background(), "tr_abc123"); err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestHandleWebhookPendingIsNoop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "tr_abc123", "status": "pending"}`))
	}))
	defer server.Close()

	svc, state := testMollieService(t, server, []*queryStep{
		orderRowStep(models.OrderStatusOpen),
	})

	if err := svc.HandleWebhook(context.Background(), "tr_abc123"); err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}
