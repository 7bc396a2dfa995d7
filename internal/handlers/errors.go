package handlers

import (
	"errors"

	"amstapay/internal/services/transaction"
	"amstapay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// respondProcessError maps orchestrator errors to HTTP responses.
func respondProcessError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, transaction.ErrInvalidAmount),
		errors.Is(err, transaction.ErrMissingDetails),
		errors.Is(err, transaction.ErrSelfTransfer),
		errors.Is(err, transaction.ErrUnsupportedKind):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, transaction.ErrInsufficientBalance):
		return utils.BadRequest(c, "Insufficient balance")
	case errors.Is(err, transaction.ErrReceiverNotFound):
		return utils.NotFound(c, "Recipient not found")
	case errors.Is(err, transaction.ErrSenderNotFound):
		return utils.NotFound(c, "Sender not found")
	case errors.Is(err, transaction.ErrGatewayFailure):
		return utils.BadGateway(c, "Payment processor unavailable, transaction failed")
	default:
		return utils.InternalError(c, "Transaction failed")
	}
}
