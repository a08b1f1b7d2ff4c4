package repository

import (
	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// StockAdjustmentRepository stock audit trail data access. Rows are append-only.
type StockAdjustmentRepository interface {
	Create(adjustment *models.StockAdjustment) error
	ListByVariantID(variantID uint, page, pageSize int) ([]models.StockAdjustment, int64, error)
	WithTx(tx *gorm.DB) *GormStockAdjustmentRepository
}

// GormStockAdjustmentRepository GORM implementation
type GormStockAdjustmentRepository struct {
	db *gorm.DB
}

// NewStockAdjustmentRepository creates the stock adjustment repository
func NewStockAdjustmentRepository(db *gorm.DB) *GormStockAdjustmentRepository {
	return &GormStockAdjustmentRepository{db: db}
}

// WithTx binds a transaction
func (r *GormStockAdjustmentRepository) WithTx(tx *gorm.DB) *GormStockAdjustmentRepository {
	if tx == nil {
		return r
	}
	return &GormStockAdjustmentRepository{db: tx}
}

// Create appends an audit row
func (r *GormStockAdjustmentRepository) Create(adjustment *models.StockAdjustment) error {
	return r.db.Create(adjustment).Error
}

// ListByVariantID fetches a variant's audit trail, newest first
func (r *GormStockAdjustmentRepository) ListByVariantID(variantID uint, page, pageSize int) ([]models.StockAdjustment, int64, error) {
	var rows []models.StockAdjustment
	query := r.db.Model(&models.StockAdjustment{}).Where("variant_id = ?", variantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, page, pageSize)

	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
