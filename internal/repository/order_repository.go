package repository

import (
	"errors"
	"time"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository order aggregate data access
type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	GetByIDWithSubOrders(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByIdempotencyKey(userID uint, key string) (*models.Order, error)
	Create(order *models.Order) error
	Update(order *models.Order) error
	UpdateFields(id uint, fields map[string]interface{}) error
	MarkPaid(id uint, paidAt time.Time) (bool, error)
	UpdateStatusIf(id uint, fromStatus, toStatus string) (bool, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	CountVoucherUse(voucherID, userID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// OrderListFilter order listing filter
type OrderListFilter struct {
	UserID        uint
	Status        string
	PaymentStatus string
	OrderNo       string
	Page          int
	PageSize      int
}

// GormOrderRepository GORM implementation
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates the order repository
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx binds a transaction
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// GetByID fetches an order
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDWithSubOrders fetches an order with sub-orders and their items
func (r *GormOrderRepository) GetByIDWithSubOrders(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Preload("SubOrders").
		Preload("SubOrders.Items").
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo fetches an order by its number
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Preload("SubOrders").
		Preload("SubOrders.Items").
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIdempotencyKey fetches the order a previous checkout with the same key
// created, if any.
func (r *GormOrderRepository) GetByIdempotencyKey(userID uint, key string) (*models.Order, error) {
	if key == "" {
		return nil, nil
	}
	var order models.Order
	err := r.db.
		Preload("SubOrders").
		Preload("SubOrders.Items").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Create inserts an order with its sub-orders and items
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// Update saves an order
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// UpdateFields updates selected columns
func (r *GormOrderRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}

// MarkPaid flips an order from pending to paid. The payment_status guard
// makes a duplicate gateway callback a no-op: only the first caller sees
// RowsAffected > 0.
func (r *GormOrderRepository) MarkPaid(id uint, paidAt time.Time) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Where("payment_status = ?", constants.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": constants.PaymentStatusPaid,
			"status":         constants.OrderStatusConfirmed,
			"paid_at":        paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateStatusIf moves an order between statuses. The from-status guard loses
// gracefully when another writer got there first.
func (r *GormOrderRepository) UpdateStatusIf(id uint, fromStatus, toStatus string) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Where("status = ?", fromStatus).
		UpdateColumn("status", toStatus)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List fetches orders
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("SubOrders").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CountVoucherUse counts a user's non-canceled orders that redeemed a voucher
func (r *GormOrderRepository) CountVoucherUse(voucherID, userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Order{}).
		Where("voucher_id = ? AND user_id = ?", voucherID, userID).
		Where("status NOT IN ?", []string{"cancelled", "payment_failed"}).
		Count(&total).Error
	return total, err
}
