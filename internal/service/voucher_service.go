package service

import (
	"strings"
	"time"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VoucherService voucher validation and discount computation
type VoucherService struct {
	voucherRepo repository.VoucherRepository
	usageRepo   repository.VoucherUsageRepository
}

// NewVoucherService creates the voucher service
func NewVoucherService(
	voucherRepo repository.VoucherRepository,
	usageRepo repository.VoucherUsageRepository,
) *VoucherService {
	return &VoucherService{
		voucherRepo: voucherRepo,
		usageRepo:   usageRepo,
	}
}

// VoucherQuote a validated voucher and the discount it grants
type VoucherQuote struct {
	Voucher  *models.Voucher
	Discount models.Money
}

// Quote validates a voucher against a checkout and computes the discount.
// shopSubtotals maps shop id to that shop's line subtotal; orderSubtotal is
// the sum. Read-only: the redemption slot is only taken by Redeem inside the
// checkout transaction.
func (s *VoucherService) Quote(code string, userID uint, orderSubtotal models.Money, shopSubtotals map[uint]models.Money, now time.Time) (*VoucherQuote, error) {
	voucher, err := s.voucherRepo.GetByCode(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if voucher == nil || !voucher.IsActive {
		return nil, ErrVoucherInvalid
	}
	if voucher.StartsAt != nil && now.Before(*voucher.StartsAt) {
		return nil, ErrVoucherNotStarted
	}
	if voucher.EndsAt != nil && now.After(*voucher.EndsAt) {
		return nil, ErrVoucherExpired
	}
	if voucher.UsageLimit > 0 && voucher.UsedCount >= voucher.UsageLimit {
		return nil, ErrVoucherExhausted
	}
	if voucher.PerUserLimit > 0 {
		used, err := s.usageRepo.CountByVoucherAndUser(voucher.ID, userID)
		if err != nil {
			return nil, err
		}
		if used >= int64(voucher.PerUserLimit) {
			return nil, ErrVoucherUserLimit
		}
	}

	base, err := eligibleBase(voucher, orderSubtotal, shopSubtotals)
	if err != nil {
		return nil, err
	}
	if voucher.MinOrderValue.IsPositive() && base.LessThan(voucher.MinOrderValue.Decimal) {
		return nil, ErrVoucherMinNotMet
	}

	discount := computeDiscount(voucher, base)
	return &VoucherQuote{
		Voucher:  voucher,
		Discount: models.NewMoneyFromDecimal(discount),
	}, nil
}

// Redeem takes a redemption slot and records the usage. Runs inside the
// checkout transaction; the guarded counter update is what makes the total
// usage limit hold under concurrency.
func (s *VoucherService) Redeem(tx *gorm.DB, quote *VoucherQuote, userID, orderID uint) error {
	if quote == nil || quote.Voucher == nil {
		return ErrVoucherInvalid
	}
	taken, err := s.voucherRepo.WithTx(tx).IncrementUsedCount(quote.Voucher.ID)
	if err != nil {
		return err
	}
	if !taken {
		return ErrVoucherExhausted
	}
	usage := &models.VoucherUsage{
		VoucherID: quote.Voucher.ID,
		UserID:    userID,
		OrderID:   orderID,
		Discount:  quote.Discount,
	}
	if err := s.usageRepo.WithTx(tx).Create(usage); err != nil {
		return err
	}
	logger.Infow("voucher_redeemed",
		"voucher_id", quote.Voucher.ID,
		"code", quote.Voucher.Code,
		"user_id", userID,
		"order_id", orderID,
		"discount", quote.Discount.String(),
	)
	return nil
}

// ReleaseRedemption returns the slot when a voucher order dies before
// payment. Runs inside the cancel transaction.
func (s *VoucherService) ReleaseRedemption(tx *gorm.DB, voucherID, orderID uint) error {
	if voucherID == 0 {
		return nil
	}
	if err := s.voucherRepo.WithTx(tx).DecrementUsedCount(voucherID); err != nil {
		return err
	}
	return s.usageRepo.WithTx(tx).DeleteByOrderID(orderID)
}

// eligibleBase resolves the subtotal a voucher discounts: the whole order
// for platform scope, one shop's lines for shop scope.
func eligibleBase(voucher *models.Voucher, orderSubtotal models.Money, shopSubtotals map[uint]models.Money) (decimal.Decimal, error) {
	switch voucher.Scope {
	case constants.VoucherScopePlatform:
		return orderSubtotal.Decimal, nil
	case constants.VoucherScopeShop:
		if voucher.ShopID == nil {
			return decimal.Zero, ErrVoucherInvalid
		}
		sub, ok := shopSubtotals[*voucher.ShopID]
		if !ok {
			return decimal.Zero, ErrVoucherScopeNoFit
		}
		return sub.Decimal, nil
	default:
		return decimal.Zero, ErrVoucherInvalid
	}
}

// computeDiscount applies the voucher type. The result never exceeds the
// eligible base, so an order total cannot go negative.
func computeDiscount(voucher *models.Voucher, base decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch voucher.Type {
	case constants.VoucherTypePercentage:
		discount = base.Mul(voucher.Value.Decimal).Div(decimal.NewFromInt(100))
		if voucher.MaxDiscount.IsPositive() && discount.GreaterThan(voucher.MaxDiscount.Decimal) {
			discount = voucher.MaxDiscount.Decimal
		}
	case constants.VoucherTypeFixed:
		discount = voucher.Value.Decimal
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(base) {
		discount = base
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(2)
}
