// File: internal/usecase/settlement_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"docstore-payments/internal/domain"
	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/domain/ports/adapter"
	"docstore-payments/internal/domain/ports/repository"
	"docstore-payments/internal/infra/metrics"
)

// Compile-time check
var _ SettlementUseCase = (*settlementUC)(nil)

type SettlementUseCase interface {
	// Settle runs the verification state machine for one gateway callback.
	// It is safe to invoke any number of times for the same transaction.
	Settle(ctx context.Context, cb Callback) Outcome
}

// Callback is the normalized shape of every invocation style: browser
// redirects with query parameters and server-to-server webhooks alike.
type Callback struct {
	Gateway    model.Gateway
	OrderRef   string // our PendingTransaction id
	TrackingID string // gateway tracking id (zibal trackId / bitpay trans_id or invoice id)
	Extra      string // second gateway token where the convention has one (bitpay id_get)
	// SuccessFlag is the client-visible flag from redirect callbacks ("1" for
	// success). HasFlag is false only for invocation styles that carry no
	// flag at all (webhooks, bitpay redirects); on a flag-carrying route an
	// absent parameter arrives as HasFlag=true with an empty value and counts
	// as a failed return. Advisory only, never a substitute for the
	// server-side verify call.
	SuccessFlag string
	HasFlag     bool
}

// Outcome results
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultError   = "error"
)

// Outcome reasons (bounded; also used as metric labels)
const (
	ReasonVerified           = "verified"
	ReasonAlreadyVerified    = "already_verified"
	ReasonCancelled          = "cancelled"
	ReasonRejected           = "rejected"
	ReasonMalformed          = "malformed"
	ReasonUnknownTransaction = "unknown_transaction"
	ReasonGatewayError       = "gateway_error"
	ReasonDBError            = "db_error"
)

// Outcome is what the caller renders: a redirect for browser flows, an
// acknowledgement body for webhooks. Message is always safe to show.
type Outcome struct {
	Result      string
	Reason      string
	Message     string
	ProductType model.ProductType // set once the transaction row was loaded
}

type settlementUC struct {
	transactions repository.TransactionRepository
	purchases    repository.PurchaseRepository
	profiles     repository.ProfileRepository
	gateways     map[model.Gateway]adapter.PaymentGateway
	log          *zerolog.Logger
}

func NewSettlementUseCase(
	transactions repository.TransactionRepository,
	purchases repository.PurchaseRepository,
	profiles repository.ProfileRepository,
	gateways map[model.Gateway]adapter.PaymentGateway,
	log *zerolog.Logger,
) *settlementUC {
	return &settlementUC{
		transactions: transactions,
		purchases:    purchases,
		profiles:     profiles,
		gateways:     gateways,
		log:          log,
	}
}

func (u *settlementUC) Settle(ctx context.Context, cb Callback) Outcome {
	// 1. Required fields.
	if cb.OrderRef == "" || cb.TrackingID == "" {
		return Outcome{Result: ResultError, Reason: ReasonMalformed, Message: "incomplete callback data"}
	}

	// 2. Explicit user cancellation short-circuits before any gateway or
	// database work. The row stays pending so the buyer can retry.
	if cb.HasFlag && cb.SuccessFlag != "1" {
		return Outcome{Result: ResultFailed, Reason: ReasonCancelled, Message: "payment was cancelled"}
	}

	// 3. The transaction must pre-exist; a missing row means a forged or
	// stale callback and must never create state.
	tx, err := u.transactions.FindByID(ctx, repository.NoTX, cb.OrderRef)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			u.log.Warn().Str("order_ref", cb.OrderRef).Str("gateway", string(cb.Gateway)).Msg("settle: callback for unknown transaction")
			return Outcome{Result: ResultError, Reason: ReasonUnknownTransaction, Message: "transaction not found"}
		}
		u.log.Error().Err(err).Str("order_ref", cb.OrderRef).Msg("settle: transaction lookup failed")
		return Outcome{Result: ResultError, Reason: ReasonDBError, Message: "could not load transaction"}
	}
	out := Outcome{ProductType: tx.ProductType}

	// 4. Idempotency gate: a completed transaction is done, no matter how
	// many more callbacks arrive.
	if tx.Status == model.TransactionStatusCompleted {
		out.Result, out.Reason = ResultSuccess, ReasonAlreadyVerified
		return out
	}

	gw, ok := u.gateways[cb.Gateway]
	if !ok {
		out.Result, out.Reason, out.Message = ResultError, ReasonMalformed, "unknown gateway"
		return out
	}

	// 5. Server-side verify; the only answer that counts.
	res, err := gw.Verify(ctx, adapter.VerifyRequest{
		TrackingID: cb.TrackingID,
		OrderRef:   cb.OrderRef,
		Extra:      cb.Extra,
	})
	if err != nil {
		u.log.Error().Err(err).Str("tx_id", tx.ID).Str("gateway", string(cb.Gateway)).Msg("settle: gateway verify call failed")
		u.markFailed(ctx, tx.ID, "gateway verification unavailable")
		out.Result, out.Reason, out.Message = ResultError, ReasonGatewayError, "payment verification failed"
		return out
	}

	// 6. Map the provider's answer. "Already verified" is success; anything
	// else not settled fails the row (idempotently: only while pending).
	if !res.Settled && !res.AlreadySettled {
		u.markFailed(ctx, tx.ID, res.Message)
		u.log.Info().Str("tx_id", tx.ID).Int("raw_code", res.RawCode).Str("gateway", string(cb.Gateway)).Msg("settle: gateway rejected payment")
		out.Result, out.Reason, out.Message = ResultFailed, ReasonRejected, res.Message
		return out
	}

	// 7. Grant the entitlement before touching status; the entitlement
	// tables carry the uniqueness constraints and are the source of truth.
	if err := u.grant(ctx, tx); err != nil {
		u.log.Error().Err(err).Str("tx_id", tx.ID).Msg("settle: entitlement grant failed")
		u.markFailed(ctx, tx.ID, "failed to record purchase")
		out.Result, out.Reason, out.Message = ResultError, ReasonDBError, "failed to record purchase"
		return out
	}

	// Status flip is a convenience cache after the grant; losing this write
	// costs one extra verify round-trip later, never a double grant.
	if err := u.transactions.Complete(ctx, repository.NoTX, tx.ID, cb.TrackingID); err != nil {
		u.log.Error().Err(err).Str("tx_id", tx.ID).Msg("settle: status update failed after grant")
	} else {
		metrics.IncTransaction(string(model.TransactionStatusCompleted))
		metrics.AddRevenue(string(tx.ProductType), tx.Amount)
	}

	out.Result = ResultSuccess
	if res.AlreadySettled {
		out.Reason = ReasonAlreadyVerified
	} else {
		out.Reason = ReasonVerified
	}
	u.log.Info().Str("tx_id", tx.ID).Str("gateway", string(cb.Gateway)).Str("reason", out.Reason).Msg("settle: transaction completed")
	return out
}

func (u *settlementUC) grant(ctx context.Context, tx *model.PendingTransaction) error {
	switch tx.ProductType {
	case model.ProductTypeCalendar:
		return u.profiles.EnablePremiumCalendar(ctx, repository.NoTX, tx.UserID)
	default:
		ref := ""
		if tx.ProductRef != nil {
			ref = *tx.ProductRef
		}
		if ref == "" {
			return domain.ErrInvalidArgument
		}
		alreadyOwned, err := u.purchases.Grant(ctx, repository.NoTX, tx.UserID, ref)
		if err != nil {
			return err
		}
		if alreadyOwned {
			u.log.Debug().Str("tx_id", tx.ID).Msg("settle: duplicate entitlement grant swallowed")
		}
		return nil
	}
}

// markFailed records the failure reason best-effort; a write failure while
// recording a failure is logged, not escalated.
func (u *settlementUC) markFailed(ctx context.Context, id, msg string) {
	updated, err := u.transactions.MarkFailedIfPending(ctx, repository.NoTX, id, msg)
	if err != nil {
		u.log.Error().Err(err).Str("tx_id", id).Msg("settle: could not record failure")
		return
	}
	if updated {
		metrics.IncTransaction(string(model.TransactionStatusFailed))
	}
}
