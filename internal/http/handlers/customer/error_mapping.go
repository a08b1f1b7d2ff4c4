package customer

import (
	"errors"

	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError maps a business error onto an API error response.
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			handlershared.RespondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	handlershared.RespondError(c, fallbackCode, fallbackMsg, err)
}

var commonErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "not found"},
	{target: service.ErrForbidden, code: response.CodeForbidden, msg: "forbidden"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrEmptyCheckout, code: response.CodeBadRequest, msg: "no items selected"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, msg: "invalid order item"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, msg: "invalid quantity"},
	{target: service.ErrVariantInactive, code: response.CodeBadRequest, msg: "item no longer available"},
	{target: service.ErrStockNotEnough, code: response.CodeConflict, msg: "insufficient stock"},
	{target: service.ErrPaymentMethodNotOK, code: response.CodeBadRequest, msg: "payment method unavailable"},
	{target: service.ErrWalletInsufficient, code: response.CodeBadRequest, msg: "wallet balance too low"},
	{target: service.ErrVoucherInvalid, code: response.CodeBadRequest, msg: "voucher invalid"},
	{target: service.ErrVoucherNotStarted, code: response.CodeBadRequest, msg: "voucher not started"},
	{target: service.ErrVoucherExpired, code: response.CodeBadRequest, msg: "voucher expired"},
	{target: service.ErrVoucherExhausted, code: response.CodeBadRequest, msg: "voucher exhausted"},
	{target: service.ErrVoucherMinNotMet, code: response.CodeBadRequest, msg: "order below voucher minimum"},
	{target: service.ErrVoucherUserLimit, code: response.CodeBadRequest, msg: "voucher usage limit reached"},
	{target: service.ErrVoucherScopeNoFit, code: response.CodeBadRequest, msg: "voucher not applicable"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderStateConflict, code: response.CodeConflict, msg: "order state changed"},
	{target: service.ErrTransitionInvalid, code: response.CodeBadRequest, msg: "action not allowed in this state"},
}

var returnErrorRules = []mappedHandlerError{
	{target: service.ErrReturnWindowClosed, code: response.CodeBadRequest, msg: "return window closed"},
	{target: service.ErrReturnExists, code: response.CodeConflict, msg: "return already requested"},
	{target: service.ErrReturnStateInvalid, code: response.CodeBadRequest, msg: "return not allowed in this state"},
	{target: service.ErrNoReturnableItems, code: response.CodeBadRequest, msg: "no sub-order is eligible for return"},
	{target: service.ErrOrderStateConflict, code: response.CodeConflict, msg: "order state changed"},
}

func concatRules(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
