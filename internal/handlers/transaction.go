package handlers

import (
	"errors"

	"amstapay/internal/gateway"
	"amstapay/internal/services/transaction"
	"amstapay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	txnService transaction.Service
	gateway    gateway.PaymentGateway
}

func NewTransactionHandler(txnService transaction.Service, gw gateway.PaymentGateway) *TransactionHandler {
	return &TransactionHandler{
		txnService: txnService,
		gateway:    gw,
	}
}

func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	txns, err := h.txnService.List(c.Context(), claims.UserID, limit, offset)
	if err != nil {
		return utils.InternalError(c, "Failed to list transactions")
	}

	return utils.Success(c, fiber.Map{
		"transactions": txns,
	})
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	reference := c.Params("reference")
	txn, err := h.txnService.GetByReference(c.Context(), claims.UserID, reference)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound) {
			return utils.NotFound(c, "Transaction not found")
		}
		if errors.Is(err, transaction.ErrAccessDenied) {
			return utils.Forbidden(c, "Access denied")
		}
		return utils.InternalError(c, "Failed to get transaction")
	}

	return utils.Success(c, fiber.Map{
		"transaction": txn,
	})
}

// BankTransfer initiates an external payout. The response carries the
// transaction in processing; the terminal state arrives via webhook.
func (h *TransactionHandler) BankTransfer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		AccountNumber string `json:"account_number"`
		BankCode      string `json:"bank_code"`
		AccountName   string `json:"account_name"`
		Amount        int64  `json:"amount"` // minor units
		Description   string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Amount <= 0 {
		return utils.BadRequest(c, "Valid amount required")
	}

	txn, err := h.txnService.Process(c.Context(), transaction.Request{
		Kind:        transaction.KindBankTransfer,
		SenderID:    claims.UserID,
		Amount:      input.Amount,
		Description: input.Description,
		Bank: &transaction.BankDetails{
			AccountNumber: input.AccountNumber,
			BankCode:      input.BankCode,
			AccountName:   input.AccountName,
		},
	})
	if err != nil {
		return respondProcessError(c, err)
	}

	return utils.Created(c, fiber.Map{
		"message":     "Transfer initiated",
		"transaction": txn,
	})
}

// SendQRPayment moves funds to the wallet behind a scanned QR code.
func (h *TransactionHandler) SendQRPayment(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		ReceiverAccountNumber string `json:"receiver_account_number"`
		Amount                int64  `json:"amount"` // minor units
		Description           string `json:"description"`
		QRData                string `json:"qr_data"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Amount <= 0 {
		return utils.BadRequest(c, "Valid amount required")
	}

	txn, err := h.txnService.Process(c.Context(), transaction.Request{
		Kind:        transaction.KindQRPayment,
		SenderID:    claims.UserID,
		Amount:      input.Amount,
		Description: input.Description,
		Transfer: &transaction.TransferDetails{
			ReceiverAccountNumber: input.ReceiverAccountNumber,
			QRData:                input.QRData,
		},
	})
	if err != nil {
		return respondProcessError(c, err)
	}

	return utils.Created(c, fiber.Map{
		"message":     "Payment sent successfully",
		"transaction": txn,
	})
}

// ResolveAccount previews the account name behind a bank account number
// before a transfer is committed.
func (h *TransactionHandler) ResolveAccount(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	accountNumber := c.Query("account_number")
	bankCode := c.Query("bank_code")
	if accountNumber == "" || bankCode == "" {
		return utils.BadRequest(c, "account_number and bank_code are required")
	}

	info, err := h.gateway.ResolveAccount(c.Context(), accountNumber, bankCode)
	if err != nil {
		return utils.BadGateway(c, "Failed to resolve account")
	}

	return utils.Success(c, fiber.Map{
		"account": info,
	})
}
