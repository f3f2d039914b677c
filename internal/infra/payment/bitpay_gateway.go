package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"docstore-payments/internal/domain"
	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/domain/ports/adapter"
)

// BitPay status codes. The v2 JSON API reports 11 for a completed payment;
// the legacy form API answers 1 for a fresh verification and 11 when the
// transaction was verified before.
const (
	bitpayStatusPaid            = 11
	bitpayLegacyOK              = 1
	bitpayLegacyAlreadyVerified = 11
)

// BitPayGateway implements adapter.PaymentGateway against bitpay.ir. The
// webhook flow creates and verifies through the v2 JSON API; the redirect
// flow creates through the legacy form API (gateway-send) and verifies its
// trans_id/id_get callback through gateway-result-second. Both live behind
// this one adapter so checkout and settlement never branch on calling
// convention.
type BitPayGateway struct {
	apiToken string
	baseURL  string
	client   *http.Client
}

var _ adapter.PaymentGateway = (*BitPayGateway)(nil)

func NewBitPayGateway(apiToken string) *BitPayGateway {
	return &BitPayGateway{
		apiToken: apiToken,
		baseURL:  "https://bitpay.ir",
		client:   &http.Client{Timeout: gatewayCallTimeout},
	}
}

// NewBitPayGatewayWithBaseURL is used by tests to point at a fake server.
func NewBitPayGatewayWithBaseURL(apiToken, baseURL string) *BitPayGateway {
	g := NewBitPayGateway(apiToken)
	g.baseURL = baseURL
	return g
}

func (g *BitPayGateway) Name() model.Gateway { return model.GatewayBitPay }

type bitpayInvoiceResponse struct {
	ID           json.Number `json:"id"`
	ErrorMessage string      `json:"errorMessage"`
}

type bitpayVerifyResponse struct {
	Status int `json:"status"`
}

func (g *BitPayGateway) CreateInvoice(ctx context.Context, inv adapter.Invoice) (string, string, error) {
	if inv.RedirectFlow {
		return g.createLegacy(ctx, inv)
	}
	payload := map[string]interface{}{
		"price":       inv.AmountRials,
		"description": inv.Description,
		"order_id":    inv.OrderRef,
		"callback":    inv.CallbackURL,
	}
	if inv.PayerName != "" {
		payload["payerName"] = inv.PayerName
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal request data: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/v2/invoice", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", g.apiToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read response body: %w", err)
	}

	var out bitpayInvoiceResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", "", fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}
	if resp.StatusCode != http.StatusOK || out.ID.String() == "" {
		msg := out.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("http status %d", resp.StatusCode)
		}
		return "", "", fmt.Errorf("%w: bitpay: %s", domain.ErrGatewayRejected, msg)
	}

	id := out.ID.String()
	return id, fmt.Sprintf("%s/invoice-payment/%s", g.baseURL, id), nil
}

// createLegacy opens an invoice through gateway-send. The endpoint answers
// with a bare integer: a positive id on success, a negative code otherwise.
// The buyer's browser later returns to inv.CallbackURL carrying
// trans_id/id_get/factorId.
func (g *BitPayGateway) createLegacy(ctx context.Context, inv adapter.Invoice) (string, string, error) {
	form := url.Values{}
	form.Set("api", g.apiToken)
	form.Set("amount", strconv.FormatInt(inv.AmountRials, 10))
	form.Set("redirect", inv.CallbackURL)
	form.Set("factorId", inv.OrderRef)
	if inv.PayerName != "" {
		form.Set("name", inv.PayerName)
	}
	if inv.Description != "" {
		form.Set("description", inv.Description)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payment/gateway-send", strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(hreq)
	if err != nil {
		return "", "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read response body: %w", err)
	}

	id, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("bitpay: unexpected gateway-send response %q", strings.TrimSpace(string(body)))
	}
	if id <= 0 {
		return "", "", fmt.Errorf("%w: bitpay: gateway-send code %d", domain.ErrGatewayRejected, id)
	}

	idStr := strconv.FormatInt(id, 10)
	return idStr, fmt.Sprintf("%s/payment/gateway-%s-get", g.baseURL, idStr), nil
}

// Verify picks the convention from the callback shape: redirect callbacks
// carry the legacy id_get token in Extra, webhooks do not.
func (g *BitPayGateway) Verify(ctx context.Context, req adapter.VerifyRequest) (adapter.VerifyResult, error) {
	if req.Extra != "" {
		return g.verifyLegacy(ctx, req.TrackingID, req.Extra)
	}
	return g.verifyV2(ctx, req.TrackingID, req.OrderRef)
}

func (g *BitPayGateway) verifyV2(ctx context.Context, invoiceID, orderRef string) (adapter.VerifyResult, error) {
	payload := map[string]interface{}{
		"id":       invoiceID,
		"order_id": orderRef,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("failed to marshal request data: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/v2/verify", bytes.NewBuffer(jsonData))
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("X-API-KEY", g.apiToken)

	resp, err := g.client.Do(hreq)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("failed to read response body: %w", err)
	}
	var out bitpayVerifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}

	res := adapter.VerifyResult{RawCode: out.Status}
	if out.Status == bitpayStatusPaid {
		res.Settled = true
	} else {
		res.Message = fmt.Sprintf("bitpay status %d", out.Status)
	}
	return res, nil
}

func (g *BitPayGateway) verifyLegacy(ctx context.Context, transID, idGet string) (adapter.VerifyResult, error) {
	form := url.Values{}
	form.Set("api", g.apiToken)
	form.Set("trans_id", transID)
	form.Set("id_get", idGet)

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payment/gateway-result-second", strings.NewReader(form.Encode()))
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(hreq)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("failed to read response body: %w", err)
	}

	// The legacy endpoint answers with a bare integer status.
	status, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("bitpay: unexpected verify response %q", strings.TrimSpace(string(body)))
	}

	res := adapter.VerifyResult{RawCode: status}
	switch status {
	case bitpayLegacyOK:
		res.Settled = true
	case bitpayLegacyAlreadyVerified:
		res.Settled = true
		res.AlreadySettled = true
	default:
		res.Message = fmt.Sprintf("bitpay status %d", status)
	}
	return res, nil
}
