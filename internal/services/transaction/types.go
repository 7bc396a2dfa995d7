package transaction

import (
	"time"

	"amstapay/internal/models"
)

// Kind tags a transaction request with its movement type. Each kind
// carries only the payload struct relevant to it; the orchestrator
// dispatches through a single exhaustive switch.
type Kind string

const (
	KindTransfer     Kind = models.TransactionTypeTransfer
	KindQRPayment    Kind = models.TransactionTypeQRPayment
	KindBankTransfer Kind = models.TransactionTypeBankTransfer
	KindAirtime      Kind = models.TransactionTypeAirtime
	KindData         Kind = models.TransactionTypeData
	KindCable        Kind = models.TransactionTypeCable
	KindElectricity  Kind = models.TransactionTypeElectricity
	KindFund         Kind = models.TransactionTypeFund
	KindWithdraw     Kind = models.TransactionTypeWithdraw
)

// TransferDetails addresses a wallet-to-wallet movement.
type TransferDetails struct {
	ReceiverAccountNumber string
	QRData                string // scanned QR payload, qr_payment only
}

// BankDetails addresses an external bank payout.
type BankDetails struct {
	AccountNumber string
	BankCode      string
	AccountName   string // resolved via the gateway when empty
}

// BillDetails addresses a bill purchase. Customer is the phone number,
// smartcard or meter number depending on the kind.
type BillDetails struct {
	Customer string
	Plan     string // data bundle or cable package code
	Provider string // cable provider or electricity disco
}

// Request represents one attempted money movement.
type Request struct {
	Kind        Kind
	SenderID    uint
	Amount      int64 // minor units
	Description string

	Transfer *TransferDetails
	Bank     *BankDetails
	Bill     *BillDetails
}

// Config holds orchestrator tuning.
type Config struct {
	GatewayTimeout time.Duration
}

// Default configuration values
const (
	DefaultGatewayTimeout = 30 * time.Second
)
