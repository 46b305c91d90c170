package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog entry
type Product struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name        string         `gorm:"size:255;not null;index" json:"name"`
	Price       int64          `gorm:"not null;default:0" json:"-"` // cents
	Stock       int            `gorm:"not null;default:0" json:"stock"`
	Category    *string        `gorm:"size:100;index" json:"category,omitempty"`
	Description *string        `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Product) TableName() string {
	return "products"
}

// PriceDecimal returns the price as a decimal amount
func (p *Product) PriceDecimal() decimal.Decimal {
	return FromCents(p.Price)
}

// MarshalJSON renders the price in currency units instead of cents
func (p Product) MarshalJSON() ([]byte, error) {
	type Alias Product
	return json.Marshal(&struct {
		Alias
		Price decimal.Decimal `json:"price"`
	}{
		Alias: Alias(p),
		Price: p.PriceDecimal(),
	})
}
