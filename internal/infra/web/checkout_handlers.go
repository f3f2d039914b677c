package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"docstore-payments/internal/domain"
	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/usecase"
)

// The JSON body the storefront sends when the buyer hits "pay".
type createPaymentRequest struct {
	ProductType    string `json:"productType"`
	DocumentTypeID string `json:"documentTypeId"`
	Gateway        string `json:"gateway"`
	UserInfo       struct {
		FullName string `json:"fullName"`
		Mobile   string `json:"mobile"`
	} `json:"userInfo"`
	DiscountCode string `json:"discountCode"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	userID, err := s.auth.UserID(r)
	if err != nil {
		writeError(w, "user could not be identified")
		return
	}

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body")
		return
	}
	if req.Gateway == "" {
		writeError(w, "missing required fields")
		return
	}

	// Older storefront pages omit productType and send a documentTypeId only.
	productType := model.ProductType(req.ProductType)
	if productType == "" {
		productType = model.ProductTypeDocument
	}

	_, payURL, err := s.checkout.Initiate(r.Context(), usecase.CheckoutRequest{
		UserID:         userID,
		ProductType:    productType,
		DocumentTypeID: req.DocumentTypeID,
		Gateway:        model.Gateway(req.Gateway),
		FullName:       req.UserInfo.FullName,
		Mobile:         req.UserInfo.Mobile,
		DiscountCode:   req.DiscountCode,
	})
	if err != nil {
		writeError(w, checkoutErrorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"paymentUrl": payURL})
}

// checkoutErrorMessage maps domain errors to user-safe strings. Gateway
// rejections keep the gateway's own message, everything internal is flattened.
func checkoutErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "user could not be identified"
	case errors.Is(err, domain.ErrUnknownGateway):
		return "unsupported payment gateway"
	case errors.Is(err, domain.ErrUnknownProduct), errors.Is(err, domain.ErrInvalidArgument):
		return "missing required fields"
	case errors.Is(err, domain.ErrGatewayRejected):
		return err.Error()
	default:
		return "failed to create payment request"
	}
}

type validateDiscountRequest struct {
	Code        string `json:"code"`
	ProductType string `json:"product_type"`
}

func (s *Server) handleValidateDiscount(w http.ResponseWriter, r *http.Request) {
	var req validateDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body")
		return
	}

	res, err := s.discounts.Validate(r.Context(), req.Code, model.ProductType(req.ProductType))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, "missing required fields")
			return
		}
		writeError(w, "failed to validate discount code")
		return
	}

	if !res.IsValid {
		writeJSON(w, http.StatusOK, map[string]interface{}{"isValid": false, "message": res.Message})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"isValid": true, "discount_percent": res.PercentOff})
}
