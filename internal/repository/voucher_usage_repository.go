package repository

import (
	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// VoucherUsageRepository voucher redemption record data access
type VoucherUsageRepository interface {
	Create(usage *models.VoucherUsage) error
	CountByVoucherAndUser(voucherID, userID uint) (int64, error)
	DeleteByOrderID(orderID uint) error
	WithTx(tx *gorm.DB) *GormVoucherUsageRepository
}

// GormVoucherUsageRepository GORM implementation
type GormVoucherUsageRepository struct {
	db *gorm.DB
}

// NewVoucherUsageRepository creates the voucher usage repository
func NewVoucherUsageRepository(db *gorm.DB) *GormVoucherUsageRepository {
	return &GormVoucherUsageRepository{db: db}
}

// WithTx binds a transaction
func (r *GormVoucherUsageRepository) WithTx(tx *gorm.DB) *GormVoucherUsageRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherUsageRepository{db: tx}
}

// Create inserts a redemption record
func (r *GormVoucherUsageRepository) Create(usage *models.VoucherUsage) error {
	return r.db.Create(usage).Error
}

// CountByVoucherAndUser counts a user's redemptions of one voucher
func (r *GormVoucherUsageRepository) CountByVoucherAndUser(voucherID, userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.VoucherUsage{}).
		Where("voucher_id = ? AND user_id = ?", voucherID, userID).
		Count(&total).Error
	return total, err
}

// DeleteByOrderID removes the redemption record when its order is canceled
func (r *GormVoucherUsageRepository) DeleteByOrderID(orderID uint) error {
	return r.db.Where("order_id = ?", orderID).Delete(&models.VoucherUsage{}).Error
}
