package repository

import (
	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// TrackingRepository tracking event data access. Events are append-only.
type TrackingRepository interface {
	Create(event *models.TrackingEvent) error
	ListBySubOrderID(subOrderID uint) ([]models.TrackingEvent, error)
	ListByOrderID(orderID uint) ([]models.TrackingEvent, error)
	WithTx(tx *gorm.DB) *GormTrackingRepository
}

// GormTrackingRepository GORM implementation
type GormTrackingRepository struct {
	db *gorm.DB
}

// NewTrackingRepository creates the tracking repository
func NewTrackingRepository(db *gorm.DB) *GormTrackingRepository {
	return &GormTrackingRepository{db: db}
}

// WithTx binds a transaction
func (r *GormTrackingRepository) WithTx(tx *gorm.DB) *GormTrackingRepository {
	if tx == nil {
		return r
	}
	return &GormTrackingRepository{db: tx}
}

// Create appends an event
func (r *GormTrackingRepository) Create(event *models.TrackingEvent) error {
	return r.db.Create(event).Error
}

// ListBySubOrderID fetches a sub-order's event history, oldest first
func (r *GormTrackingRepository) ListBySubOrderID(subOrderID uint) ([]models.TrackingEvent, error) {
	var events []models.TrackingEvent
	err := r.db.Where("sub_order_id = ?", subOrderID).Order("id asc").Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListByOrderID fetches every event under an order, oldest first
func (r *GormTrackingRepository) ListByOrderID(orderID uint) ([]models.TrackingEvent, error) {
	var events []models.TrackingEvent
	err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
