package models

import (
	"time"

	"gorm.io/gorm"
)

// Shop one seller storefront.
type Shop struct {
	ID        uint           `gorm:"primarykey" json:"id"`           // primary key
	OwnerID   uint           `gorm:"index;not null" json:"owner_id"` // seller user id
	Name      string         `gorm:"not null" json:"name"`           // shop display name
	IsActive  bool           `gorm:"default:true" json:"is_active"`  // open flag
	CreatedAt time.Time      `gorm:"index" json:"created_at"`        // creation time
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`        // update time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                 // soft delete time
}

// TableName sets the table name.
func (Shop) TableName() string {
	return "shops"
}
