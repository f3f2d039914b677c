package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrUnauthorized        = errors.New("user could not be identified")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrGatewayRejected     = errors.New("payment gateway rejected the request")
	ErrUnknownGateway      = errors.New("unknown payment gateway")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrOperationFailed     = errors.New("operation failed")
	ErrReadDatabaseRow     = errors.New("failed to read database row")
)
