package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/infra/metrics"
	"docstore-payments/internal/usecase"
)

// handleZibalCallback is the browser-redirect return from Zibal:
// GET ?success=1&trackId=...&orderId=...
// The redirect convention always carries the success flag; an absent
// parameter is an unsuccessful return, never a reason to verify.
func (s *Server) handleZibalCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cb := usecase.Callback{
		Gateway:     model.GatewayZibal,
		OrderRef:    q.Get("orderId"),
		TrackingID:  q.Get("trackId"),
		SuccessFlag: q.Get("success"),
		HasFlag:     true,
	}
	s.settleAndRedirect(w, r, cb)
}

// handleBitPayCallback is the legacy BitPay redirect convention:
// GET ?trans_id=...&id_get=...&factorId=...
func (s *Server) handleBitPayCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cb := usecase.Callback{
		Gateway:    model.GatewayBitPay,
		OrderRef:   q.Get("factorId"),
		TrackingID: q.Get("trans_id"),
		Extra:      q.Get("id_get"),
	}
	s.settleAndRedirect(w, r, cb)
}

func (s *Server) settleAndRedirect(w http.ResponseWriter, r *http.Request, cb usecase.Callback) {
	start := time.Now()
	out := s.settlement.Settle(r.Context(), cb)
	metrics.IncSettlement(string(cb.Gateway), out.Result, out.Reason)
	metrics.SettlementDuration.WithLabelValues(out.Result).Observe(time.Since(start).Seconds())

	http.Redirect(w, r, s.returnURL(out), http.StatusSeeOther)
}

// returnURL sends the buyer back to the right storefront page with the
// outcome in query parameters the front-end understands.
func (s *Server) returnURL(out usecase.Outcome) string {
	base := s.site.DocumentsReturnURL
	if out.ProductType == model.ProductTypeCalendar {
		base = s.site.CalendarReturnURL
	}

	u, err := url.Parse(base)
	if err != nil {
		// Config was validated at startup; treat a bad URL as plain path.
		u = &url.URL{Path: "/"}
	}
	qs := u.Query()
	qs.Set("payment", out.Result)
	if out.Reason == usecase.ReasonAlreadyVerified {
		qs.Set("reason", usecase.ReasonAlreadyVerified)
	}
	if out.Result != usecase.ResultSuccess && out.Message != "" {
		qs.Set("message", out.Message)
	}
	u.RawQuery = qs.Encode()
	return u.String()
}

// The server-to-server BitPay webhook. Push gateways retry on non-200, so a
// business failure still acknowledges with 200; only malformed input and
// internal faults may answer otherwise.
type bitpayWebhookRequest struct {
	ID      json.Number `json:"id"`
	OrderID string      `json:"order_id"`
}

func (s *Server) handleBitPayWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req bitpayWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.IncSettlement(string(model.GatewayBitPay), usecase.ResultError, usecase.ReasonMalformed)
		writeError(w, "invalid webhook body")
		return
	}

	cb := usecase.Callback{
		Gateway:    model.GatewayBitPay,
		OrderRef:   req.OrderID,
		TrackingID: req.ID.String(),
	}
	out := s.settlement.Settle(r.Context(), cb)
	metrics.IncSettlement(string(cb.Gateway), out.Result, out.Reason)
	metrics.SettlementDuration.WithLabelValues(out.Result).Observe(time.Since(start).Seconds())

	switch out.Reason {
	case usecase.ReasonMalformed:
		writeError(w, out.Message)
	case usecase.ReasonUnknownTransaction:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": out.Message})
	case usecase.ReasonGatewayError, usecase.ReasonDBError:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": out.Message})
	default:
		// Business outcome, good or bad: acknowledge so the gateway stops
		// retrying. The transaction row reflects the real result.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
