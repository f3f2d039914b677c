package adapter

import (
	"context"

	"docstore-payments/internal/domain/model"
)

// Invoice is everything a provider needs to open a payment page.
// AmountRials is in the smallest currency subunit; the Toman to Rial
// conversion happens exactly once, in the checkout use case.
type Invoice struct {
	AmountRials int64
	OrderRef    string // our PendingTransaction id, echoed back in the callback
	CallbackURL string
	Description string
	PayerName   string
	PayerMobile string
	// RedirectFlow selects the browser-redirect convention where the provider
	// has more than one. BitPay then creates the invoice through its legacy
	// form API so the buyer returns to CallbackURL with trans_id/id_get;
	// providers with a single convention ignore it.
	RedirectFlow bool
}

// VerifyRequest carries the provider-side identifiers from a callback.
type VerifyRequest struct {
	TrackingID string // zibal trackId / bitpay trans_id or invoice id
	OrderRef   string
	Extra      string // second provider token where the convention has one (bitpay id_get)
}

// VerifyResult is the provider's authoritative answer. A business rejection
// (bad status code) comes back as Settled=false with a nil error; errors are
// reserved for transport or malformed-response failures.
type VerifyResult struct {
	Settled        bool
	AlreadySettled bool // the provider's "already verified" code; treat as settled
	RawCode        int
	Message        string
}

// PaymentGateway is the hex port for payment providers.
type PaymentGateway interface {
	Name() model.Gateway

	// CreateInvoice registers the invoice with the provider and returns its
	// tracking id plus the URL to send the buyer's browser to.
	CreateInvoice(ctx context.Context, inv Invoice) (trackingID, payURL string, err error)

	// Verify asks the provider whether money was actually captured. The
	// client-supplied success flag is advisory only; this call is the sole
	// source of truth.
	Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error)
}
