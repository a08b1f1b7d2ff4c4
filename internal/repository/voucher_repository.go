package repository

import (
	"errors"
	"strings"

	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// VoucherRepository voucher data access
type VoucherRepository interface {
	GetByID(id uint) (*models.Voucher, error)
	GetByCode(code string) (*models.Voucher, error)
	Create(voucher *models.Voucher) error
	Update(voucher *models.Voucher) error
	Delete(id uint) error
	List(filter VoucherListFilter) ([]models.Voucher, int64, error)
	IncrementUsedCount(id uint) (bool, error)
	DecrementUsedCount(id uint) error
	WithTx(tx *gorm.DB) *GormVoucherRepository
}

// VoucherListFilter voucher listing filter
type VoucherListFilter struct {
	Code     string
	Scope    string
	ShopID   uint
	IsActive *bool
	Page     int
	PageSize int
}

// GormVoucherRepository GORM implementation
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository creates the voucher repository
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx binds a transaction
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) *GormVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// GetByID fetches a voucher
func (r *GormVoucherRepository) GetByID(id uint) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByCode fetches a voucher by its code, case-insensitive
func (r *GormVoucherRepository) GetByCode(code string) (*models.Voucher, error) {
	var voucher models.Voucher
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if err := r.db.Where("code = ?", normalized).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// Create inserts a voucher
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	voucher.Code = strings.ToUpper(strings.TrimSpace(voucher.Code))
	return r.db.Create(voucher).Error
}

// Update saves a voucher
func (r *GormVoucherRepository) Update(voucher *models.Voucher) error {
	return r.db.Save(voucher).Error
}

// Delete removes a voucher
func (r *GormVoucherRepository) Delete(id uint) error {
	return r.db.Delete(&models.Voucher{}, id).Error
}

// List fetches vouchers
func (r *GormVoucherRepository) List(filter VoucherListFilter) ([]models.Voucher, int64, error) {
	var vouchers []models.Voucher
	query := r.db.Model(&models.Voucher{})

	if filter.Code != "" {
		query = query.Where("code = ?", strings.ToUpper(strings.TrimSpace(filter.Code)))
	}
	if filter.Scope != "" {
		query = query.Where("scope = ?", filter.Scope)
	}
	if filter.ShopID > 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}
	return vouchers, total, nil
}

// IncrementUsedCount takes one redemption slot. The usage_limit guard makes
// concurrent redemptions safe: once the limit is reached no row matches and
// the caller sees false.
func (r *GormVoucherRepository) IncrementUsedCount(id uint) (bool, error) {
	result := r.db.Model(&models.Voucher{}).
		Where("id = ?", id).
		Where("usage_limit = 0 OR used_count < usage_limit").
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementUsedCount returns one redemption slot, used when a voucher order
// is canceled before payment.
func (r *GormVoucherRepository) DecrementUsedCount(id uint) error {
	return r.db.Model(&models.Voucher{}).
		Where("id = ?", id).
		Where("used_count >= 1").
		UpdateColumn("used_count", gorm.Expr("used_count - 1")).Error
}
