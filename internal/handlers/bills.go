package handlers

import (
	"amstapay/internal/services/transaction"
	"amstapay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type BillsHandler struct {
	txnService transaction.Service
}

func NewBillsHandler(txnService transaction.Service) *BillsHandler {
	return &BillsHandler{
		txnService: txnService,
	}
}

func (h *BillsHandler) BuyAirtime(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Phone  string `json:"phone"`
		Amount int64  `json:"amount"` // minor units
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Amount <= 0 {
		return utils.BadRequest(c, "Valid amount required")
	}

	txn, err := h.txnService.Process(c.Context(), transaction.Request{
		Kind:     transaction.KindAirtime,
		SenderID: claims.UserID,
		Amount:   input.Amount,
		Bill: &transaction.BillDetails{
			Customer: input.Phone,
		},
	})
	if err != nil {
		return respondProcessError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "Airtime purchase successful",
		"transaction": txn,
	})
}

func (h *BillsHandler) BuyData(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Phone  string `json:"phone"`
		Plan   string `json:"plan"`
		Amount int64  `json:"amount"` // minor units
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Amount <= 0 {
		return utils.BadRequest(c, "Valid amount required")
	}

	txn, err := h.txnService.Process(c.Context(), transaction.Request{
		Kind:     transaction.KindData,
		SenderID: claims.UserID,
		Amount:   input.Amount,
		Bill: &transaction.BillDetails{
			Customer: input.Phone,
			Plan:     input.Plan,
		},
	})
	if err != nil {
		return respondProcessError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "Data purchase successful",
		"transaction": txn,
	})
}

func (h *BillsHandler) PayCable(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		SmartCardNumber string `json:"smartcard_number"`
		Provider        string `json:"provider"`
		Plan            string `json:"plan"`
		Amount          int64  `json:"amount"` // minor units
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Amount <= 0 {
		return utils.BadRequest(c, "Valid amount required")
	}

	txn, err := h.txnService.Process(c.Context(), transaction.Request{
		Kind:     transaction.KindCable,
		SenderID: claims.UserID,
		Amount:   input.Amount,
		Bill: &transaction.BillDetails{
			Customer: input.SmartCardNumber,
			Provider: input.Provider,
			Plan:     input.Plan,
		},
	})
	if err != nil {
		return respondProcessError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "Cable subscription successful",
		"transaction": txn,
	})
}

func (h *BillsHandler) PayElectricity(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		MeterNumber string `json:"meter_number"`
		Disco       string `json:"disco"`
		Amount      int64  `json:"amount"` // minor units
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Amount <= 0 {
		return utils.BadRequest(c, "Valid amount required")
	}

	txn, err := h.txnService.Process(c.Context(), transaction.Request{
		Kind:     transaction.KindElectricity,
		SenderID: claims.UserID,
		Amount:   input.Amount,
		Bill: &transaction.BillDetails{
			Customer: input.MeterNumber,
			Provider: input.Disco,
		},
	})
	if err != nil {
		return respondProcessError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "Electricity payment successful",
		"transaction": txn,
	})
}
