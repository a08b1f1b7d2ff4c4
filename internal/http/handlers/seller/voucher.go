package seller

import (
	"time"

	"github.com/chogo-next/internal/constants"
	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/repository"
	"github.com/chogo-next/internal/service"

	"github.com/gin-gonic/gin"
)

type voucherRequest struct {
	Code          string       `json:"code"`
	Type          string       `json:"type"`
	Value         models.Money `json:"value"`
	MaxDiscount   models.Money `json:"max_discount"`
	MinOrderValue models.Money `json:"min_order_value"`
	UsageLimit    int          `json:"usage_limit"`
	PerUserLimit  int          `json:"per_user_limit"`
	StartsAt      *time.Time   `json:"starts_at"`
	EndsAt        *time.Time   `json:"ends_at"`
}

// CreateVoucher issues a shop-scope voucher
func (h *Handler) CreateVoucher(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	var req voucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	voucher, err := h.VoucherAdminService.CreateVoucher(sellerID, constants.RoleSeller, service.VoucherInput{
		Code:          req.Code,
		Type:          req.Type,
		Value:         req.Value,
		MaxDiscount:   req.MaxDiscount,
		MinOrderValue: req.MinOrderValue,
		UsageLimit:    req.UsageLimit,
		PerUserLimit:  req.PerUserLimit,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
	})
	if err != nil {
		respondServiceError(c, err, "voucher create failed")
		return
	}
	response.Success(c, voucher)
}

// ListVouchers lists the shop's vouchers
func (h *Handler) ListVouchers(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	vouchers, total, err := h.VoucherAdminService.List(sellerID, constants.RoleSeller, repository.VoucherListFilter{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "voucher list failed")
		return
	}
	response.SuccessWithPage(c, vouchers, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.TotalPages(total, pageSize),
	})
}

// DeactivateVoucher turns a voucher off
func (h *Handler) DeactivateVoucher(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	voucherID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.VoucherAdminService.Deactivate(sellerID, constants.RoleSeller, voucherID); err != nil {
		respondServiceError(c, err, "voucher deactivate failed")
		return
	}
	response.Success(c, nil)
}
