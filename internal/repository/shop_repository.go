package repository

import (
	"errors"

	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// ShopRepository shop data access
type ShopRepository interface {
	GetByID(id uint) (*models.Shop, error)
	GetByOwnerID(ownerID uint) (*models.Shop, error)
	ListByIDs(ids []uint) ([]models.Shop, error)
	Create(shop *models.Shop) error
	Update(shop *models.Shop) error
	WithTx(tx *gorm.DB) *GormShopRepository
}

// GormShopRepository GORM implementation
type GormShopRepository struct {
	db *gorm.DB
}

// NewShopRepository creates the shop repository
func NewShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// WithTx binds a transaction
func (r *GormShopRepository) WithTx(tx *gorm.DB) *GormShopRepository {
	if tx == nil {
		return r
	}
	return &GormShopRepository{db: tx}
}

// GetByID fetches a shop
func (r *GormShopRepository) GetByID(id uint) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.First(&shop, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// GetByOwnerID fetches the shop a seller owns
func (r *GormShopRepository) GetByOwnerID(ownerID uint) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.Where("owner_id = ?", ownerID).First(&shop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// ListByIDs fetches shops in bulk
func (r *GormShopRepository) ListByIDs(ids []uint) ([]models.Shop, error) {
	if len(ids) == 0 {
		return []models.Shop{}, nil
	}
	var shops []models.Shop
	if err := r.db.Where("id IN ?", ids).Find(&shops).Error; err != nil {
		return nil, err
	}
	return shops, nil
}

// Create inserts a shop
func (r *GormShopRepository) Create(shop *models.Shop) error {
	return r.db.Create(shop).Error
}

// Update saves a shop
func (r *GormShopRepository) Update(shop *models.Shop) error {
	return r.db.Save(shop).Error
}
