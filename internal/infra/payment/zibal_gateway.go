package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"docstore-payments/internal/domain"
	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/domain/ports/adapter"
)

// Upper bound on any single PSP call; request contexts tighten it further.
const gatewayCallTimeout = 15 * time.Second

// Zibal result codes that matter to settlement.
const (
	zibalResultOK              = 100
	zibalResultAlreadyVerified = 201
)

// ZibalGateway implements adapter.PaymentGateway against gateway.zibal.ir/v1.
type ZibalGateway struct {
	merchantCode string
	baseURL      string
	client       *http.Client
}

var _ adapter.PaymentGateway = (*ZibalGateway)(nil)

func NewZibalGateway(merchantCode string) *ZibalGateway {
	return &ZibalGateway{
		merchantCode: merchantCode,
		baseURL:      "https://gateway.zibal.ir",
		client:       &http.Client{Timeout: gatewayCallTimeout},
	}
}

// NewZibalGatewayWithBaseURL is used by tests to point at a fake server.
func NewZibalGatewayWithBaseURL(merchantCode, baseURL string) *ZibalGateway {
	g := NewZibalGateway(merchantCode)
	g.baseURL = baseURL
	return g
}

func (g *ZibalGateway) Name() model.Gateway { return model.GatewayZibal }

type zibalRequestResponse struct {
	Result  int    `json:"result"`
	TrackID int64  `json:"trackId"`
	Message string `json:"message"`
}

type zibalVerifyResponse struct {
	Result  int    `json:"result"`
	Amount  int64  `json:"amount"`
	RefNum  string `json:"refNumber"`
	Message string `json:"message"`
}

func (g *ZibalGateway) CreateInvoice(ctx context.Context, inv adapter.Invoice) (string, string, error) {
	payload := map[string]interface{}{
		"merchant":    g.merchantCode,
		"amount":      inv.AmountRials,
		"description": inv.Description,
		"orderId":     inv.OrderRef,
		"callbackUrl": inv.CallbackURL,
	}
	if inv.PayerMobile != "" {
		payload["mobile"] = inv.PayerMobile
	}

	var resp zibalRequestResponse
	if err := g.postJSON(ctx, "/v1/request", payload, &resp); err != nil {
		return "", "", err
	}
	if resp.Result != zibalResultOK {
		return "", "", fmt.Errorf("%w: zibal code %d: %s", domain.ErrGatewayRejected, resp.Result, resp.Message)
	}

	trackID := strconv.FormatInt(resp.TrackID, 10)
	return trackID, fmt.Sprintf("%s/start/%s", g.baseURL, trackID), nil
}

func (g *ZibalGateway) Verify(ctx context.Context, req adapter.VerifyRequest) (adapter.VerifyResult, error) {
	trackID, err := strconv.ParseInt(req.TrackingID, 10, 64)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("zibal: bad trackId %q: %w", req.TrackingID, err)
	}

	payload := map[string]interface{}{
		"merchant": g.merchantCode,
		"trackId":  trackID,
	}
	var resp zibalVerifyResponse
	if err := g.postJSON(ctx, "/v1/verify", payload, &resp); err != nil {
		return adapter.VerifyResult{}, err
	}

	res := adapter.VerifyResult{RawCode: resp.Result, Message: resp.Message}
	switch resp.Result {
	case zibalResultOK:
		res.Settled = true
	case zibalResultAlreadyVerified:
		res.Settled = true
		res.AlreadySettled = true
	default:
		if res.Message == "" {
			res.Message = fmt.Sprintf("zibal verify code %d", resp.Result)
		}
	}
	return res, nil
}

func (g *ZibalGateway) postJSON(ctx context.Context, path string, payload map[string]interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}
	return nil
}
