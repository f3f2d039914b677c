//go:build !integration

package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"docstore-payments/internal/domain"
	"docstore-payments/internal/domain/ports/adapter"
	"docstore-payments/internal/infra/payment"
)

func TestBitPayGateway_CreateInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("returns invoice id and pay URL", func(t *testing.T) {
		var gotKey string
		var gotBody map[string]interface{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v2/invoice" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			gotKey = r.Header.Get("X-API-KEY")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": 9981})
		}))
		defer srv.Close()

		g := payment.NewBitPayGatewayWithBaseURL("token-1", srv.URL)
		id, payURL, err := g.CreateInvoice(ctx, adapter.Invoice{
			AmountRials: 500000,
			OrderRef:    "order-9",
			CallbackURL: "https://pay.example/payment/verify/bitpay",
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if id != "9981" {
			t.Errorf("expected invoice id 9981, got %q", id)
		}
		if payURL != srv.URL+"/invoice-payment/9981" {
			t.Errorf("unexpected pay URL %q", payURL)
		}
		if gotKey != "token-1" {
			t.Errorf("expected the API token header, got %q", gotKey)
		}
		if gotBody["price"] != float64(500000) {
			t.Errorf("expected price 500000, got %v", gotBody["price"])
		}
		if gotBody["order_id"] != "order-9" {
			t.Errorf("expected order_id to carry the transaction id, got %v", gotBody["order_id"])
		}
	})

	t.Run("redirect flow opens the invoice through the legacy form endpoint", func(t *testing.T) {
		var gotForm map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/payment/gateway-send" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			_ = r.ParseForm()
			gotForm = map[string]string{
				"api":      r.PostFormValue("api"),
				"amount":   r.PostFormValue("amount"),
				"redirect": r.PostFormValue("redirect"),
				"factorId": r.PostFormValue("factorId"),
			}
			_, _ = w.Write([]byte("4321"))
		}))
		defer srv.Close()

		g := payment.NewBitPayGatewayWithBaseURL("token-1", srv.URL)
		id, payURL, err := g.CreateInvoice(ctx, adapter.Invoice{
			AmountRials:  500000,
			OrderRef:     "order-7",
			CallbackURL:  "https://pay.example/payment/verify/bitpay",
			RedirectFlow: true,
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if id != "4321" {
			t.Errorf("expected id 4321, got %q", id)
		}
		if payURL != srv.URL+"/payment/gateway-4321-get" {
			t.Errorf("unexpected pay URL %q", payURL)
		}
		if gotForm["api"] != "token-1" || gotForm["amount"] != "500000" {
			t.Errorf("unexpected form payload %v", gotForm)
		}
		if gotForm["redirect"] != "https://pay.example/payment/verify/bitpay" {
			t.Errorf("expected the browser-return URL, got %q", gotForm["redirect"])
		}
		if gotForm["factorId"] != "order-7" {
			t.Errorf("expected factorId to carry the transaction id, got %q", gotForm["factorId"])
		}
	})

	t.Run("redirect flow negative code is a rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("-2"))
		}))
		defer srv.Close()

		g := payment.NewBitPayGatewayWithBaseURL("token-1", srv.URL)
		_, _, err := g.CreateInvoice(ctx, adapter.Invoice{AmountRials: 1000, RedirectFlow: true})
		if !errors.Is(err, domain.ErrGatewayRejected) {
			t.Fatalf("expected ErrGatewayRejected, got: %v", err)
		}
	})

	t.Run("redirect flow non-numeric body is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		}))
		defer srv.Close()

		g := payment.NewBitPayGatewayWithBaseURL("token-1", srv.URL)
		_, _, err := g.CreateInvoice(ctx, adapter.Invoice{AmountRials: 1000, RedirectFlow: true})
		if err == nil {
			t.Fatal("expected an error for a non-numeric body")
		}
		if errors.Is(err, domain.ErrGatewayRejected) {
			t.Error("a malformed body is a transport fault, not a rejection")
		}
	})

	t.Run("surfaces the gateway error message on rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"errorMessage": "invalid api token"})
		}))
		defer srv.Close()

		g := payment.NewBitPayGatewayWithBaseURL("bad-token", srv.URL)
		_, _, err := g.CreateInvoice(ctx, adapter.Invoice{AmountRials: 1000})
		if !errors.Is(err, domain.ErrGatewayRejected) {
			t.Fatalf("expected ErrGatewayRejected, got: %v", err)
		}
	})
}

func TestBitPayGateway_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("v2 status 11 is settled", func(t *testing.T) {
		var gotBody map[string]interface{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v2/verify" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": 11})
		}))
		defer srv.Close()

		g := payment.NewBitPayGatewayWithBaseURL("token-1", srv.URL)
		res, err := g.Verify(ctx, adapter.VerifyRequest{TrackingID: "9981", OrderRef: "order-9"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !res.Settled || res.AlreadySettled {
			t.Errorf("expected fresh settlement, got %+v", res)
		}
		if gotBody["id"] != "9981" || gotBody["order_id"] != "order-9" {
			t.Errorf("unexpected verify payload %v", gotBody)
		}
	})

	t.Run("v2 non-11 status is a rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": -2})
		}))
		defer srv.Close()

		g := payment.NewBitPayGatewayWithBaseURL("token-1", srv.URL)
		res, err := g.Verify(ctx, adapter.VerifyRequest{TrackingID: "9981"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if res.Settled {
			t.Error("expected not settled")
		}
		if res.RawCode != -2 {
			t.Errorf("expected raw code -2, got %d", res.RawCode)
		}
	})

	t.Run("legacy callback with id_get uses the form endpoint", func(t *testing.T) {
		var gotForm map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/payment/gateway-result-second" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			_ = r.ParseForm()
			gotForm = map[string]string{
				"api":      r.PostFormValue("api"),
				"trans_id": r.PostFormValue("trans_id"),
				"id_get":   r.PostFormValue("id_get"),
			}
			_, _ = w.Write([]byte("1"))
		}))
		defer srv.Close()

		g := payment.NewBitPayGatewayWithBaseURL("token-1", srv.URL)
		res, err := g.Verify(ctx, adapter.VerifyRequest{TrackingID: "555", Extra: "777"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !res.Settled || res.AlreadySettled {
			t.Errorf("expected fresh settlement, got %+v", res)
		}
		if gotForm["api"] != "token-1" || gotForm["trans_id"] != "555" || gotForm["id_get"] != "777" {
			t.Errorf("unexpected form payload %v", gotForm)
		}
	})

	t.Run("legacy status 11 is already settled", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("11\n"))
		}))
		defer srv.Close()

		g := payment.NewBitPayGatewayWithBaseURL("token-1", srv.URL)
		res, err := g.Verify(ctx, adapter.VerifyRequest{TrackingID: "555", Extra: "777"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !res.Settled || !res.AlreadySettled {
			t.Errorf("expected already-settled, got %+v", res)
		}
	})

	t.Run("legacy negative status is a rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("-4"))
		}))
		defer srv.Close()

		g := payment.NewBitPayGatewayWithBaseURL("token-1", srv.URL)
		res, err := g.Verify(ctx, adapter.VerifyRequest{TrackingID: "555", Extra: "777"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if res.Settled {
			t.Error("expected not settled")
		}
		if res.RawCode != -4 {
			t.Errorf("expected raw code -4, got %d", res.RawCode)
		}
	})

	t.Run("legacy non-numeric body is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>gateway down</html>"))
		}))
		defer srv.Close()

		g := payment.NewBitPayGatewayWithBaseURL("token-1", srv.URL)
		_, err := g.Verify(ctx, adapter.VerifyRequest{TrackingID: "555", Extra: "777"})
		if err == nil {
			t.Fatal("expected an error for a non-numeric body")
		}
	})
}
