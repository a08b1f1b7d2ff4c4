package repository

import (
	"errors"

	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// ReturnRepository return request data access
type ReturnRepository interface {
	GetByID(id uint) (*models.ReturnRequest, error)
	GetBySubOrderID(subOrderID uint) (*models.ReturnRequest, error)
	Create(request *models.ReturnRequest) error
	Update(request *models.ReturnRequest) error
	UpdateStatus(id uint, fromStatus, toStatus string) (bool, error)
	List(filter ReturnListFilter) ([]models.ReturnRequest, int64, error)
	WithTx(tx *gorm.DB) *GormReturnRepository
}

// ReturnListFilter return request listing filter
type ReturnListFilter struct {
	UserID   uint
	ShopID   uint
	Status   string
	Page     int
	PageSize int
}

// GormReturnRepository GORM implementation
type GormReturnRepository struct {
	db *gorm.DB
}

// NewReturnRepository creates the return repository
func NewReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// WithTx binds a transaction
func (r *GormReturnRepository) WithTx(tx *gorm.DB) *GormReturnRepository {
	if tx == nil {
		return r
	}
	return &GormReturnRepository{db: tx}
}

// GetByID fetches a return request
func (r *GormReturnRepository) GetByID(id uint) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	if err := r.db.First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// GetBySubOrderID fetches the return request of a sub-order
func (r *GormReturnRepository) GetBySubOrderID(subOrderID uint) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	if err := r.db.Where("sub_order_id = ?", subOrderID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// Create inserts a return request. The unique index on sub_order_id rejects
// a second request for the same sub-order.
func (r *GormReturnRepository) Create(request *models.ReturnRequest) error {
	return r.db.Create(request).Error
}

// Update saves a return request
func (r *GormReturnRepository) Update(request *models.ReturnRequest) error {
	return r.db.Save(request).Error
}

// UpdateStatus moves a return request between statuses with a from-status guard
func (r *GormReturnRepository) UpdateStatus(id uint, fromStatus, toStatus string) (bool, error) {
	result := r.db.Model(&models.ReturnRequest{}).
		Where("id = ?", id).
		Where("status = ?", fromStatus).
		UpdateColumn("status", toStatus)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List fetches return requests
func (r *GormReturnRepository) List(filter ReturnListFilter) ([]models.ReturnRequest, int64, error) {
	var requests []models.ReturnRequest
	query := r.db.Model(&models.ReturnRequest{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ShopID > 0 {
		query = query.Where(
			"sub_order_id IN (?)",
			r.db.Model(&models.SubOrder{}).Select("id").Where("shop_id = ?", filter.ShopID),
		)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}
