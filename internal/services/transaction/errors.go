package transaction

import "errors"

// Service errors
var (
	ErrInvalidAmount       = errors.New("invalid transaction amount")
	ErrUnsupportedKind     = errors.New("unsupported transaction kind")
	ErrMissingDetails      = errors.New("missing transaction details")
	ErrSenderNotFound      = errors.New("sender not found")
	ErrReceiverNotFound    = errors.New("receiver not found")
	ErrSelfTransfer        = errors.New("cannot transfer to self")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrGatewayFailure      = errors.New("payment gateway failure")
)
