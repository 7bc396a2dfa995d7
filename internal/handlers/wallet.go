package handlers

import (
	"amstapay/internal/models"
	"amstapay/internal/services/transaction"
	"amstapay/internal/services/wallet"
	"amstapay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
	txnService    transaction.Service
}

func NewWalletHandler(walletService wallet.Service, txnService transaction.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		txnService:    txnService,
	}
}

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetWallet(c.Context(), claims.UserID)
	if err != nil {
		return utils.InternalError(c, "Failed to get wallet")
	}

	return utils.Success(c, fiber.Map{
		"wallet": w,
	})
}

func (h *WalletHandler) GetLedger(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	entries, err := h.walletService.LedgerEntries(c.Context(), claims.UserID, limit, offset)
	if err != nil {
		return utils.InternalError(c, "Failed to get ledger entries")
	}

	return utils.Success(c, fiber.Map{
		"entries": entries,
	})
}

func (h *WalletHandler) FundWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount      int64  `json:"amount"` // minor units
		Description string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Amount <= 0 {
		return utils.BadRequest(c, "Valid amount required")
	}

	txn, err := h.txnService.Process(c.Context(), transaction.Request{
		Kind:        transaction.KindFund,
		SenderID:    claims.UserID,
		Amount:      input.Amount,
		Description: input.Description,
	})
	if err != nil {
		return respondProcessError(c, err)
	}

	balance, berr := h.walletService.GetBalance(c.Context(), claims.UserID)
	if berr != nil {
		return utils.InternalError(c, "Failed to get updated balance")
	}

	return utils.Success(c, fiber.Map{
		"message":     "Wallet funded successfully",
		"transaction": txn,
		"balance":     balance,
	})
}

func (h *WalletHandler) WithdrawWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount      int64  `json:"amount"` // minor units
		Description string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Amount <= 0 {
		return utils.BadRequest(c, "Valid amount required")
	}

	txn, err := h.txnService.Process(c.Context(), transaction.Request{
		Kind:        transaction.KindWithdraw,
		SenderID:    claims.UserID,
		Amount:      input.Amount,
		Description: input.Description,
	})
	if err != nil {
		return respondProcessError(c, err)
	}

	balance, berr := h.walletService.GetBalance(c.Context(), claims.UserID)
	if berr != nil {
		return utils.InternalError(c, "Failed to get updated balance")
	}

	return utils.Success(c, fiber.Map{
		"message":     "Withdrawal successful",
		"transaction": txn,
		"balance":     balance,
	})
}

func (h *WalletHandler) TransferWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		RecipientAccountNumber string `json:"recipient_account_number"`
		Amount                 int64  `json:"amount"` // minor units
		Description            string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Amount <= 0 {
		return utils.BadRequest(c, "Valid amount required")
	}

	txn, err := h.txnService.Process(c.Context(), transaction.Request{
		Kind:        transaction.KindTransfer,
		SenderID:    claims.UserID,
		Amount:      input.Amount,
		Description: input.Description,
		Transfer: &transaction.TransferDetails{
			ReceiverAccountNumber: input.RecipientAccountNumber,
		},
	})
	if err != nil {
		return respondProcessError(c, err)
	}

	balance, berr := h.walletService.GetBalance(c.Context(), claims.UserID)
	if berr != nil {
		return utils.InternalError(c, "Failed to get updated balance")
	}

	return utils.Success(c, fiber.Map{
		"message":     "Transfer successful",
		"transaction": txn,
		"balance":     balance,
	})
}
