package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bill is a submitted sale. Amounts are stored in cents.
type Bill struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	BillNumber    string             `gorm:"size:32;uniqueIndex;not null" json:"bill_number"`
	CustomerID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"customer_id"`
	PaymentMethod enum.PaymentMethod `gorm:"size:16;not null;index" json:"payment_method"`
	TaxPercent    decimal.Decimal    `gorm:"type:numeric;not null;default:0" json:"tax_percent"`
	TotalProducts int                `gorm:"not null;default:0" json:"total_products"`
	SubTotal      int64              `gorm:"not null;default:0" json:"-"`
	TaxAmount     int64              `gorm:"not null;default:0" json:"-"`
	Discount      int64              `gorm:"not null;default:0" json:"-"`
	Total         int64              `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	Customer *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []BillItem `gorm:"foreignKey:BillID" json:"items,omitempty"`
}

func (b Bill) MarshalJSON() ([]byte, error) {
	type Alias Bill
	return json.Marshal(&struct {
		Alias
		SubTotal  decimal.Decimal `json:"sub_total"`
		TaxAmount decimal.Decimal `json:"tax_amount"`
		Discount  decimal.Decimal `json:"discount"`
		Total     decimal.Decimal `json:"total"`
	}{
		Alias:     Alias(b),
		SubTotal:  FromCents(b.SubTotal),
		TaxAmount: FromCents(b.TaxAmount),
		Discount:  FromCents(b.Discount),
		Total:     FromCents(b.Total),
	})
}

func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (Bill) TableName() string {
	return "bills"
}

// BillItem is one persisted line of a bill
type BillItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BillID    uuid.UUID `gorm:"type:uuid;not null;index" json:"bill_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice int64     `gorm:"not null" json:"-"`
	Total     int64     `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (bi BillItem) MarshalJSON() ([]byte, error) {
	type Alias BillItem
	return json.Marshal(&struct {
		Alias
		UnitPrice decimal.Decimal `json:"unit_price"`
		Total     decimal.Decimal `json:"total"`
	}{
		Alias:     Alias(bi),
		UnitPrice: FromCents(bi.UnitPrice),
		Total:     FromCents(bi.Total),
	})
}

func (bi *BillItem) BeforeCreate(tx *gorm.DB) error {
	if bi.ID == uuid.Nil {
		bi.ID = uuid.New()
	}
	return nil
}

func (BillItem) TableName() string {
	return "bill_items"
}
