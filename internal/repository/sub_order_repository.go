package repository

import (
	"errors"
	"time"

	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// SubOrderRepository sub-order data access
type SubOrderRepository interface {
	GetByID(id uint) (*models.SubOrder, error)
	GetByIDWithItems(id uint) (*models.SubOrder, error)
	ListByOrderID(orderID uint) ([]models.SubOrder, error)
	List(filter SubOrderListFilter) ([]models.SubOrder, int64, error)
	Update(subOrder *models.SubOrder) error
	UpdateStatus(id uint, fromStatus, toStatus string) (bool, error)
	UpdateFields(id uint, fields map[string]interface{}) error
	ListStatuses(orderID uint) ([]string, error)
	ListOverdueAutoConfirm(cutoff time.Time, limit int) ([]models.SubOrder, error)
	WithTx(tx *gorm.DB) *GormSubOrderRepository
}

// SubOrderListFilter sub-order listing filter
type SubOrderListFilter struct {
	OrderID   uint
	ShopID    uint
	ShipperID uint
	UserID    uint
	Status    string
	Statuses  []string
	Page      int
	PageSize  int
}

// GormSubOrderRepository GORM implementation
type GormSubOrderRepository struct {
	db *gorm.DB
}

// NewSubOrderRepository creates the sub-order repository
func NewSubOrderRepository(db *gorm.DB) *GormSubOrderRepository {
	return &GormSubOrderRepository{db: db}
}

// WithTx binds a transaction
func (r *GormSubOrderRepository) WithTx(tx *gorm.DB) *GormSubOrderRepository {
	if tx == nil {
		return r
	}
	return &GormSubOrderRepository{db: tx}
}

// GetByID fetches a sub-order
func (r *GormSubOrderRepository) GetByID(id uint) (*models.SubOrder, error) {
	var subOrder models.SubOrder
	if err := r.db.First(&subOrder, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subOrder, nil
}

// GetByIDWithItems fetches a sub-order with its items and return request
func (r *GormSubOrderRepository) GetByIDWithItems(id uint) (*models.SubOrder, error) {
	var subOrder models.SubOrder
	err := r.db.
		Preload("Items").
		Preload("ReturnRequest").
		First(&subOrder, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subOrder, nil
}

// ListByOrderID fetches all sub-orders of an order
func (r *GormSubOrderRepository) ListByOrderID(orderID uint) ([]models.SubOrder, error) {
	var subOrders []models.SubOrder
	err := r.db.
		Preload("Items").
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&subOrders).Error
	if err != nil {
		return nil, err
	}
	return subOrders, nil
}

// List fetches sub-orders
func (r *GormSubOrderRepository) List(filter SubOrderListFilter) ([]models.SubOrder, int64, error) {
	var subOrders []models.SubOrder
	query := r.db.Model(&models.SubOrder{})

	if filter.OrderID > 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.ShopID > 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.ShipperID > 0 {
		query = query.Where("shipper_id = ?", filter.ShipperID)
	}
	if filter.UserID > 0 {
		query = query.Where(
			"order_id IN (?)",
			r.db.Model(&models.Order{}).Select("id").Where("user_id = ?", filter.UserID),
		)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("Items").Order("id desc").Find(&subOrders).Error; err != nil {
		return nil, 0, err
	}
	return subOrders, total, nil
}

// Update saves a sub-order
func (r *GormSubOrderRepository) Update(subOrder *models.SubOrder) error {
	return r.db.Save(subOrder).Error
}

// UpdateStatus moves a sub-order from one status to another. The from-status
// guard rejects stale writers; the caller checks the returned flag.
func (r *GormSubOrderRepository) UpdateStatus(id uint, fromStatus, toStatus string) (bool, error) {
	result := r.db.Model(&models.SubOrder{}).
		Where("id = ?", id).
		Where("status = ?", fromStatus).
		UpdateColumn("status", toStatus)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateFields updates selected columns
func (r *GormSubOrderRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.SubOrder{}).Where("id = ?", id).Updates(fields).Error
}

// ListStatuses fetches the status of every sub-order under an order
func (r *GormSubOrderRepository) ListStatuses(orderID uint) ([]string, error) {
	var statuses []string
	err := r.db.Model(&models.SubOrder{}).
		Where("order_id = ?", orderID).
		Pluck("status", &statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// ListOverdueAutoConfirm fetches delivered sub-orders whose receipt window has
// passed, for the periodic sweep backing up the per-order delayed tasks.
func (r *GormSubOrderRepository) ListOverdueAutoConfirm(cutoff time.Time, limit int) ([]models.SubOrder, error) {
	if limit <= 0 {
		limit = 100
	}
	var subOrders []models.SubOrder
	err := r.db.
		Where("status = ?", "delivered").
		Where("delivered_at IS NOT NULL AND delivered_at <= ?", cutoff).
		Order("delivered_at asc").
		Limit(limit).
		Find(&subOrders).Error
	if err != nil {
		return nil, err
	}
	return subOrders, nil
}
