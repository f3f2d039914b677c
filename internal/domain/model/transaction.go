package model

import "time"

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"   // row created; awaiting gateway callback
	TransactionStatusCompleted TransactionStatus = "completed" // verified at provider, entitlement granted
	TransactionStatusFailed    TransactionStatus = "failed"    // verification failed or provider rejected
)

type Gateway string

const (
	GatewayZibal  Gateway = "zibal"
	GatewayBitPay Gateway = "bitpay"
)

type ProductType string

const (
	ProductTypeDocument ProductType = "document" // one document bundle per purchase
	ProductTypeCalendar ProductType = "calendar" // premium calendar flag on the profile
)

// PendingTransaction is one purchase attempt. Its ID doubles as the
// order/factor reference sent to the gateway, so verification can always
// find its way back to this row.
type PendingTransaction struct {
	ID           string // UUID
	UserID       string // UUID
	ProductType  ProductType
	ProductRef   *string // document type id; nil for flat-rate products like the calendar
	Gateway      Gateway
	Amount       int64 // Tomans, computed server-side; never taken from the client
	Status       TransactionStatus
	TrackingID   *string // gateway-assigned id, stored once known
	ErrorMessage *string // last failure reason, set only on failure
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Purchase is the entitlement row for document products. The
// (user_id, document_type_id) pair is unique; a duplicate insert means the
// settlement ran twice and is harmless.
type Purchase struct {
	ID             string
	UserID         string
	DocumentTypeID string
	CreatedAt      time.Time
}
