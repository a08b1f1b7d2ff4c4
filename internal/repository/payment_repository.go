package repository

import (
	"errors"
	"time"

	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository payment record data access
type PaymentRepository interface {
	Create(payment *models.Payment) error
	Update(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByPaymentNo(paymentNo string) (*models.Payment, error)
	GetLatestByProviderRef(providerRef string) (*models.Payment, error)
	ListByOrderID(orderID uint) ([]models.Payment, error)
	GetLatestPendingByOrder(orderID uint, now time.Time) (*models.Payment, error)
	MarkSuccess(id uint, providerRef string, payload models.JSON, at time.Time) (bool, error)
	MarkFailed(id uint, payload models.JSON, at time.Time) (bool, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM implementation
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates the payment repository
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx binds a transaction
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create inserts a payment record
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// Update saves a payment record
func (r *GormPaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// GetByID fetches a payment record
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByPaymentNo fetches a payment record by its number
func (r *GormPaymentRepository) GetByPaymentNo(paymentNo string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("payment_no = ?", paymentNo).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetLatestByProviderRef fetches the newest payment carrying a gateway reference
func (r *GormPaymentRepository) GetLatestByProviderRef(providerRef string) (*models.Payment, error) {
	if providerRef == "" {
		return nil, nil
	}
	var payment models.Payment
	err := r.db.Where("provider_ref = ?", providerRef).Order("id desc").First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// ListByOrderID fetches an order's payment attempts, newest first
func (r *GormPaymentRepository) ListByOrderID(orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("order_id = ?", orderID).Order("id desc").Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// GetLatestPendingByOrder fetches the order's newest collectible payment,
// skipping expired sessions.
func (r *GormPaymentRepository) GetLatestPendingByOrder(orderID uint, now time.Time) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.
		Where("order_id = ?", orderID).
		Where("status IN ?", []string{"initiated", "pending"}).
		Where("expired_at IS NULL OR expired_at > ?", now).
		Order("id desc").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// MarkSuccess settles a payment. The status guard keeps a replayed callback
// from settling twice.
func (r *GormPaymentRepository) MarkSuccess(id uint, providerRef string, payload models.JSON, at time.Time) (bool, error) {
	result := r.db.Model(&models.Payment{}).
		Where("id = ?", id).
		Where("status IN ?", []string{"initiated", "pending"}).
		Updates(map[string]interface{}{
			"status":           "success",
			"provider_ref":     providerRef,
			"provider_payload": payload,
			"paid_at":          at,
			"callback_at":      at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkFailed records a failed attempt, with the same replay guard
func (r *GormPaymentRepository) MarkFailed(id uint, payload models.JSON, at time.Time) (bool, error) {
	result := r.db.Model(&models.Payment{}).
		Where("id = ?", id).
		Where("status IN ?", []string{"initiated", "pending"}).
		Updates(map[string]interface{}{
			"status":           "failed",
			"provider_payload": payload,
			"callback_at":      at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
