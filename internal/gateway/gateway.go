// Package gateway wraps the external payment processor used for bank
// payouts and bill purchases. The orchestrator only ever talks to the
// PaymentGateway interface so tests can substitute a double.
package gateway

import "context"

// AccountInfo is the result of a bank account resolution.
type AccountInfo struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

// TransferResult carries the provider references for an initiated payout.
type TransferResult struct {
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
	Reference    string `json:"reference"`
}

// PurchaseResult is the outcome of a bill-payment call.
type PurchaseResult struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

// PaymentGateway is the processor capability consumed by the
// transaction orchestrator. Every call is synchronous and must be
// bounded by the context deadline.
type PaymentGateway interface {
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*AccountInfo, error)
	CreateRecipient(ctx context.Context, name, accountNumber, bankCode string) (string, error)
	InitiateTransfer(ctx context.Context, amount int64, recipientCode, reason, reference string) (*TransferResult, error)
	PurchaseAirtime(ctx context.Context, phone string, amount int64, reference string) (*PurchaseResult, error)
	PurchaseData(ctx context.Context, phone, plan, reference string) (*PurchaseResult, error)
	PurchaseCable(ctx context.Context, smartCardNumber, provider, plan, reference string) (*PurchaseResult, error)
	PurchaseElectricity(ctx context.Context, meterNumber, disco string, amount int64, reference string) (*PurchaseResult, error)
}
