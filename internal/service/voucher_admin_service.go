package service

import (
	"strings"
	"time"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/repository"
)

// VoucherAdminService voucher lifecycle management. Sellers manage vouchers
// scoped to their own shop; platform-scope vouchers are managed by system
// actors.
type VoucherAdminService struct {
	voucherRepo repository.VoucherRepository
	shopRepo    repository.ShopRepository
}

// NewVoucherAdminService creates the voucher management service
func NewVoucherAdminService(voucherRepo repository.VoucherRepository, shopRepo repository.ShopRepository) *VoucherAdminService {
	return &VoucherAdminService{voucherRepo: voucherRepo, shopRepo: shopRepo}
}

// VoucherInput voucher create/update fields
type VoucherInput struct {
	Code          string
	Scope         string
	Type          string
	Value         models.Money
	MaxDiscount   models.Money
	MinOrderValue models.Money
	UsageLimit    int
	PerUserLimit  int
	StartsAt      *time.Time
	EndsAt        *time.Time
}

// CreateVoucher issues a new voucher. Seller actors get shop scope bound to
// their own shop; system actors may issue platform-scope vouchers.
func (s *VoucherAdminService) CreateVoucher(actorID uint, actorRole string, input VoucherInput) (*models.Voucher, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrVoucherInvalid
	}
	if input.Type != constants.VoucherTypePercentage && input.Type != constants.VoucherTypeFixed {
		return nil, ErrVoucherInvalid
	}
	if input.Value.Decimal.Sign() <= 0 {
		return nil, ErrVoucherInvalid
	}
	if input.Type == constants.VoucherTypePercentage && input.Value.Decimal.IntPart() > 100 {
		return nil, ErrVoucherInvalid
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, ErrVoucherInvalid
	}

	voucher := &models.Voucher{
		Code:          code,
		Type:          input.Type,
		Value:         input.Value,
		MaxDiscount:   input.MaxDiscount,
		MinOrderValue: input.MinOrderValue,
		UsageLimit:    input.UsageLimit,
		PerUserLimit:  input.PerUserLimit,
		StartsAt:      input.StartsAt,
		EndsAt:        input.EndsAt,
		IsActive:      true,
	}
	switch actorRole {
	case constants.RoleSeller:
		shop, err := s.shopRepo.GetByOwnerID(actorID)
		if err != nil {
			return nil, err
		}
		if shop == nil {
			return nil, ErrForbidden
		}
		voucher.Scope = constants.VoucherScopeShop
		voucher.ShopID = &shop.ID
	case constants.RoleSystem:
		voucher.Scope = constants.VoucherScopePlatform
		if input.Scope == constants.VoucherScopeShop {
			return nil, ErrVoucherInvalid
		}
	default:
		return nil, ErrForbidden
	}

	existing, err := s.voucherRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrVoucherInvalid
	}
	if err := s.voucherRepo.Create(voucher); err != nil {
		return nil, err
	}
	logger.Infow("voucher_created", "code", voucher.Code, "scope", voucher.Scope)
	return voucher, nil
}

// Deactivate turns a voucher off. Existing orders keep their discount.
func (s *VoucherAdminService) Deactivate(actorID uint, actorRole string, voucherID uint) error {
	voucher, err := s.owned(actorID, actorRole, voucherID)
	if err != nil {
		return err
	}
	voucher.IsActive = false
	return s.voucherRepo.Update(voucher)
}

// UpdateLimits adjusts a voucher's usage caps and validity window.
func (s *VoucherAdminService) UpdateLimits(actorID uint, actorRole string, voucherID uint, input VoucherInput) (*models.Voucher, error) {
	voucher, err := s.owned(actorID, actorRole, voucherID)
	if err != nil {
		return nil, err
	}
	if input.UsageLimit > 0 {
		voucher.UsageLimit = input.UsageLimit
	}
	if input.PerUserLimit > 0 {
		voucher.PerUserLimit = input.PerUserLimit
	}
	if input.StartsAt != nil {
		voucher.StartsAt = input.StartsAt
	}
	if input.EndsAt != nil {
		voucher.EndsAt = input.EndsAt
	}
	if input.MinOrderValue.Decimal.Sign() > 0 {
		voucher.MinOrderValue = input.MinOrderValue
	}
	if err := s.voucherRepo.Update(voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

// List lists vouchers; sellers see only their shop's.
func (s *VoucherAdminService) List(actorID uint, actorRole string, filter repository.VoucherListFilter) ([]models.Voucher, int64, error) {
	if actorRole == constants.RoleSeller {
		shop, err := s.shopRepo.GetByOwnerID(actorID)
		if err != nil {
			return nil, 0, err
		}
		if shop == nil {
			return nil, 0, ErrForbidden
		}
		filter.ShopID = shop.ID
		filter.Scope = constants.VoucherScopeShop
	}
	return s.voucherRepo.List(filter)
}

// owned fetches a voucher the actor may manage.
func (s *VoucherAdminService) owned(actorID uint, actorRole string, voucherID uint) (*models.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrNotFound
	}
	switch actorRole {
	case constants.RoleSystem:
		return voucher, nil
	case constants.RoleSeller:
		shop, err := s.shopRepo.GetByOwnerID(actorID)
		if err != nil {
			return nil, err
		}
		if shop == nil || voucher.ShopID == nil || *voucher.ShopID != shop.ID {
			return nil, ErrForbidden
		}
		return voucher, nil
	default:
		return nil, ErrForbidden
	}
}
