package repository

import (
	"errors"

	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository cart data access
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	ListByUserAndIDs(userID uint, ids []uint) ([]models.CartItem, error)
	Upsert(item *models.CartItem) error
	DeleteByUserAndVariant(userID, variantID uint) error
	DeleteByUserAndIDs(userID uint, ids []uint) error
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM implementation
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates the cart repository
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx binds a transaction
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser fetches a user's cart
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.
		Preload("Variant").
		Preload("Variant.Product").
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListByUserAndIDs fetches selected cart lines for checkout
func (r *GormCartRepository) ListByUserAndIDs(userID uint, ids []uint) ([]models.CartItem, error) {
	if len(ids) == 0 {
		return []models.CartItem{}, nil
	}
	var items []models.CartItem
	err := r.db.
		Preload("Variant").
		Preload("Variant.Product").
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert adds a line or replaces the quantity of an existing one
func (r *GormCartRepository) Upsert(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	var existing models.CartItem
	err := r.db.Where("user_id = ? AND variant_id = ?", item.UserID, item.VariantID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(item).Error
	}
	if err != nil {
		return err
	}
	return r.db.Model(&existing).UpdateColumn("quantity", item.Quantity).Error
}

// DeleteByUserAndVariant removes one cart line
func (r *GormCartRepository) DeleteByUserAndVariant(userID, variantID uint) error {
	return r.db.Where("user_id = ? AND variant_id = ?", userID, variantID).Delete(&models.CartItem{}).Error
}

// DeleteByUserAndIDs removes the checked-out lines
func (r *GormCartRepository) DeleteByUserAndIDs(userID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("user_id = ? AND id IN ?", userID, ids).Delete(&models.CartItem{}).Error
}

// ClearByUser empties the cart
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
