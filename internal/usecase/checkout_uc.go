// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docstore-payments/internal/domain"
	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/domain/ports/adapter"
	"docstore-payments/internal/domain/ports/repository"
	"docstore-payments/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// Initiate computes the price, records a pending transaction and opens an
	// invoice with the chosen gateway. Returns the URL to redirect the buyer to.
	Initiate(ctx context.Context, req CheckoutRequest) (*model.PendingTransaction, string, error)
}

// CheckoutRequest is the normalized client input. UserID comes from the
// verified bearer token, never from the request body.
type CheckoutRequest struct {
	UserID         string
	ProductType    model.ProductType
	DocumentTypeID string // required for document purchases
	Gateway        model.Gateway
	FullName       string
	Mobile         string
	DiscountCode   string // optional; a bad code means zero discount, not an error
}

// Pricing is the server-side price table in Tomans.
type Pricing struct {
	DocumentToman int64
	CalendarToman int64
}

// CallbackURLs are the absolute verify endpoints handed to each gateway.
// BitPay has two: the server-to-server webhook for document purchases and
// the browser-redirect return used by the calendar flow.
type CallbackURLs struct {
	Zibal          string
	BitPay         string // v2 webhook
	BitPayRedirect string // legacy trans_id/id_get return
}

type checkoutUC struct {
	transactions repository.TransactionRepository
	discounts    repository.DiscountRepository
	profiles     repository.ProfileRepository
	gateways     map[model.Gateway]adapter.PaymentGateway
	pricing      Pricing
	callbacks    CallbackURLs
	log          *zerolog.Logger
}

func NewCheckoutUseCase(
	transactions repository.TransactionRepository,
	discounts repository.DiscountRepository,
	profiles repository.ProfileRepository,
	gateways map[model.Gateway]adapter.PaymentGateway,
	pricing Pricing,
	callbacks CallbackURLs,
	log *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		transactions: transactions,
		discounts:    discounts,
		profiles:     profiles,
		gateways:     gateways,
		pricing:      pricing,
		callbacks:    callbacks,
		log:          log,
	}
}

func (u *checkoutUC) Initiate(ctx context.Context, req CheckoutRequest) (*model.PendingTransaction, string, error) {
	if req.UserID == "" {
		return nil, "", domain.ErrUnauthorized
	}
	gw, ok := u.gateways[req.Gateway]
	if !ok {
		metrics.IncCheckout(string(req.Gateway), "bad_gateway")
		return nil, "", domain.ErrUnknownGateway
	}

	basePrice, err := u.basePrice(req)
	if err != nil {
		metrics.IncCheckout(string(req.Gateway), "bad_product")
		return nil, "", err
	}
	amount, percentOff := u.applyDiscount(ctx, basePrice, req)

	// Refresh the buyer's display info; a failure here must not block checkout.
	if req.FullName != "" || req.Mobile != "" {
		if err := u.profiles.UpdateContact(ctx, repository.NoTX, req.UserID, req.FullName, req.Mobile); err != nil {
			u.log.Warn().Err(err).Str("user_id", req.UserID).Msg("checkout: profile refresh failed")
		}
	}

	// The pending row goes in before the gateway hears about the order, so a
	// callback can never reference a transaction we do not know.
	now := time.Now().UTC()
	tx := &model.PendingTransaction{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		ProductType: req.ProductType,
		Gateway:     req.Gateway,
		Amount:      amount,
		Status:      model.TransactionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.ProductType == model.ProductTypeDocument {
		ref := req.DocumentTypeID
		tx.ProductRef = &ref
	}
	if err := u.transactions.Save(ctx, repository.NoTX, tx); err != nil {
		metrics.IncCheckout(string(req.Gateway), "db_error")
		return nil, "", fmt.Errorf("save pending transaction: %w", err)
	}
	metrics.IncTransaction(string(model.TransactionStatusPending))

	inv := adapter.Invoice{
		AmountRials: amount * 10, // Tomans to Rials, the single conversion point
		OrderRef:    tx.ID,
		CallbackURL: u.callbackFor(req.Gateway, req.ProductType),
		Description: u.describe(req.ProductType, percentOff),
		PayerName:   req.FullName,
		PayerMobile: req.Mobile,
		// Calendar sales return the buyer's browser to the storefront, so
		// BitPay must open the invoice through its redirect convention.
		RedirectFlow: req.Gateway == model.GatewayBitPay && req.ProductType == model.ProductTypeCalendar,
	}
	trackingID, payURL, err := gw.CreateInvoice(ctx, inv)
	if err != nil {
		// The row stays pending; the buyer may retry with the same product.
		metrics.IncCheckout(string(req.Gateway), "gateway_error")
		u.log.Error().Err(err).Str("tx_id", tx.ID).Str("gateway", string(req.Gateway)).Msg("checkout: invoice creation failed")
		if errors.Is(err, domain.ErrGatewayRejected) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: invoice creation failed", domain.ErrGatewayRejected)
	}

	metrics.IncCheckout(string(req.Gateway), "ok")
	u.log.Info().
		Str("tx_id", tx.ID).
		Str("gateway", string(req.Gateway)).
		Str("tracking_id", trackingID).
		Int64("amount_toman", amount).
		Msg("checkout: invoice created")
	return tx, payURL, nil
}

func (u *checkoutUC) basePrice(req CheckoutRequest) (int64, error) {
	switch req.ProductType {
	case model.ProductTypeDocument:
		if req.DocumentTypeID == "" {
			return 0, domain.ErrInvalidArgument
		}
		return u.pricing.DocumentToman, nil
	case model.ProductTypeCalendar:
		return u.pricing.CalendarToman, nil
	default:
		return 0, domain.ErrUnknownProduct
	}
}

// applyDiscount returns the final amount. Missing, inactive or mismatched
// codes silently leave the base price untouched; checkout never blocks on a
// bad code.
func (u *checkoutUC) applyDiscount(ctx context.Context, base int64, req CheckoutRequest) (int64, int) {
	code := strings.ToUpper(strings.TrimSpace(req.DiscountCode))
	if code == "" {
		return base, 0
	}
	dc, err := u.discounts.FindByCode(ctx, repository.NoTX, code, req.ProductType)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Err(err).Str("code", code).Msg("checkout: discount lookup failed")
		}
		return base, 0
	}
	if !dc.IsActive {
		return base, 0
	}
	return dc.Apply(base), dc.PercentOff
}

func (u *checkoutUC) callbackFor(gw model.Gateway, pt model.ProductType) string {
	if gw == model.GatewayBitPay {
		if pt == model.ProductTypeCalendar {
			return u.callbacks.BitPayRedirect
		}
		return u.callbacks.BitPay
	}
	return u.callbacks.Zibal
}

func (u *checkoutUC) describe(pt model.ProductType, percentOff int) string {
	switch pt {
	case model.ProductTypeCalendar:
		if percentOff > 0 {
			return fmt.Sprintf("Premium calendar purchase (%d%% off)", percentOff)
		}
		return "Premium calendar purchase"
	default:
		return "Accounting documents purchase"
	}
}
