package repository

import (
	"errors"

	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// VariantRepository variant and stock ledger data access
type VariantRepository interface {
	GetByID(id uint) (*models.Variant, error)
	ListByIDs(ids []uint) ([]models.Variant, error)
	Create(variant *models.Variant) error
	Update(variant *models.Variant) error
	List(filter VariantListFilter) ([]models.Variant, int64, error)
	Reserve(id uint, qty int) (bool, error)
	Release(id uint, qty int) error
	ConfirmSale(id uint, qty int) (bool, error)
	AdjustOnHand(id uint, delta int) (bool, error)
	SetOnHand(id uint, newQuantity int) (bool, error)
	Deactivate(id uint) error
	WithTx(tx *gorm.DB) *GormVariantRepository
}

// VariantListFilter variant listing filter
type VariantListFilter struct {
	ProductID uint
	ShopID    uint
	IsActive  *bool
	Page      int
	PageSize  int
}

// GormVariantRepository GORM implementation
type GormVariantRepository struct {
	db *gorm.DB
}

// NewVariantRepository creates the variant repository
func NewVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// WithTx binds a transaction
func (r *GormVariantRepository) WithTx(tx *gorm.DB) *GormVariantRepository {
	if tx == nil {
		return r
	}
	return &GormVariantRepository{db: tx}
}

// GetByID fetches a variant
func (r *GormVariantRepository) GetByID(id uint) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.First(&variant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// ListByIDs fetches variants in bulk
func (r *GormVariantRepository) ListByIDs(ids []uint) ([]models.Variant, error) {
	if len(ids) == 0 {
		return []models.Variant{}, nil
	}
	var variants []models.Variant
	if err := r.db.Where("id IN ?", ids).Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// Create inserts a variant
func (r *GormVariantRepository) Create(variant *models.Variant) error {
	return r.db.Create(variant).Error
}

// Update saves a variant
func (r *GormVariantRepository) Update(variant *models.Variant) error {
	return r.db.Save(variant).Error
}

// List fetches variants
func (r *GormVariantRepository) List(filter VariantListFilter) ([]models.Variant, int64, error) {
	var variants []models.Variant
	query := r.db.Model(&models.Variant{})

	if filter.ProductID > 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.ShopID > 0 {
		query = query.Where(
			"product_id IN (?)",
			r.db.Model(&models.Product{}).Select("id").Where("shop_id = ?", filter.ShopID),
		)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&variants).Error; err != nil {
		return nil, 0, err
	}
	return variants, total, nil
}

// Reserve holds qty units against unreserved stock. Returns false when the
// sellable balance is short; the guard in the WHERE clause makes concurrent
// reservations safe without a row lock.
func (r *GormVariantRepository) Reserve(id uint, qty int) (bool, error) {
	if qty <= 0 {
		return false, nil
	}
	result := r.db.Model(&models.Variant{}).
		Where("id = ?", id).
		Where("is_active = ?", true).
		Where("quantity - reserved_quantity >= ?", qty).
		UpdateColumn("reserved_quantity", gorm.Expr("reserved_quantity + ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Release returns qty held units to the sellable pool. Clamps at zero so a
// double release cannot drive the counter negative.
func (r *GormVariantRepository) Release(id uint, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.Model(&models.Variant{}).
		Where("id = ?", id).
		UpdateColumn("reserved_quantity", gorm.Expr(
			"CASE WHEN reserved_quantity >= ? THEN reserved_quantity - ? ELSE 0 END", qty, qty,
		)).Error
}

// ConfirmSale converts qty held units into a completed sale, decrementing
// both on-hand and reserved counters together.
func (r *GormVariantRepository) ConfirmSale(id uint, qty int) (bool, error) {
	if qty <= 0 {
		return false, nil
	}
	result := r.db.Model(&models.Variant{}).
		Where("id = ?", id).
		Where("reserved_quantity >= ?", qty).
		Where("quantity >= ?", qty).
		UpdateColumns(map[string]interface{}{
			"quantity":          gorm.Expr("quantity - ?", qty),
			"reserved_quantity": gorm.Expr("reserved_quantity - ?", qty),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AdjustOnHand moves the on-hand quantity by delta. A negative delta is
// rejected when it would leave on-hand below the reserved balance.
func (r *GormVariantRepository) AdjustOnHand(id uint, delta int) (bool, error) {
	if delta == 0 {
		return true, nil
	}
	query := r.db.Model(&models.Variant{}).Where("id = ?", id)
	if delta < 0 {
		query = query.Where("quantity + ? >= reserved_quantity", delta)
	}
	result := query.UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetOnHand writes an absolute on-hand quantity. Rejected when the new value
// would fall below the reserved balance.
func (r *GormVariantRepository) SetOnHand(id uint, newQuantity int) (bool, error) {
	if newQuantity < 0 {
		return false, nil
	}
	result := r.db.Model(&models.Variant{}).
		Where("id = ?", id).
		Where("reserved_quantity <= ?", newQuantity).
		UpdateColumn("quantity", newQuantity)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Deactivate pulls a variant from the catalog.
func (r *GormVariantRepository) Deactivate(id uint) error {
	return r.db.Model(&models.Variant{}).
		Where("id = ?", id).
		UpdateColumn("is_active", false).Error
}
