package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zatca-einvoice/internal/application/dto"
	"github.com/jhoicas/zatca-einvoice/internal/domain"
)

// writeError traduce los errores de dominio a status HTTP y dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	var (
		chainErr  *domain.ChainStateError
		cryptoErr *domain.CryptoError
	)
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidTransition):
		status, code = fiber.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrSyncInProgress):
		status, code = fiber.StatusConflict, "SYNC_IN_PROGRESS"
	case errors.Is(err, domain.ErrOffline):
		status, code = fiber.StatusServiceUnavailable, "OFFLINE"
	case errors.As(err, &chainErr):
		code = "CHAIN_STATE"
	case errors.As(err, &cryptoErr):
		code = "CRYPTO"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}
