package seller

import (
	"errors"

	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/service"

	"github.com/gin-gonic/gin"
)

func getSellerID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "user_id")
}

func respondServiceError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		handlershared.RespondError(c, response.CodeNotFound, "not found", nil)
	case errors.Is(err, service.ErrForbidden):
		handlershared.RespondError(c, response.CodeForbidden, "forbidden", nil)
	case errors.Is(err, service.ErrOrderStateConflict):
		handlershared.RespondError(c, response.CodeConflict, "state changed", nil)
	case errors.Is(err, service.ErrTransitionInvalid):
		handlershared.RespondError(c, response.CodeBadRequest, "action not allowed in this state", nil)
	case errors.Is(err, service.ErrReturnStateInvalid):
		handlershared.RespondError(c, response.CodeBadRequest, "return not in a resolvable state", nil)
	case errors.Is(err, service.ErrQuantityInvalid):
		handlershared.RespondError(c, response.CodeBadRequest, "invalid quantity", nil)
	case errors.Is(err, service.ErrStockNotEnough):
		handlershared.RespondError(c, response.CodeConflict, "stock below reserved quantity", nil)
	case errors.Is(err, service.ErrInvalidOrderItem):
		handlershared.RespondError(c, response.CodeBadRequest, "invalid input", nil)
	case errors.Is(err, service.ErrVoucherInvalid):
		handlershared.RespondError(c, response.CodeBadRequest, "voucher invalid", nil)
	default:
		handlershared.RespondError(c, response.CodeInternal, fallbackMsg, err)
	}
}
