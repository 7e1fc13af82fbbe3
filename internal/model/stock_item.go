package model

import "github.com/shopspring/decimal"

// DefaultMinQuantity is the low-stock threshold for items created without one.
const DefaultMinQuantity = 5

type StockItem struct {
	BaseModel
	Name        string              `gorm:"type:varchar(150);not null;index" json:"name" validate:"notblank"`
	SKU         string              `gorm:"type:varchar(50);index" json:"sku"`
	Category    string              `gorm:"type:varchar(80)" json:"category"`
	Subcategory string              `gorm:"type:varchar(80)" json:"subcategory"`
	Location    string              `gorm:"type:varchar(50)" json:"location"`
	Quantity    int                 `gorm:"not null;default:0" json:"quantity" validate:"gte=0"`
	MinQuantity int                 `gorm:"not null;default:5" json:"min_quantity" validate:"gte=0"`
	UnitPrice   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"unit_price"`
}

// IsLow reports whether the quantity sits at or below the configured minimum.
func (s *StockItem) IsLow() bool {
	return s.Quantity <= s.MinQuantity
}
