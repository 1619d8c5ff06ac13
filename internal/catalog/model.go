package catalog

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// LowStockThreshold is the exclusive upper bound of a low stock level.
const LowStockThreshold = 5

type Variation struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	ProductID     uuid.UUID       `json:"product_id" db:"product_id"`
	Name          string          `json:"name" db:"name"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

type Product struct {
	ID             uuid.UUID           `json:"id" db:"id"`
	Name           string              `json:"name" db:"name"`
	Description    string              `json:"description" db:"description"`
	Category       string              `json:"category" db:"category"`
	BasePrice      decimal.Decimal     `json:"base_price" db:"base_price"`
	DiscountPrice  decimal.NullDecimal `json:"discount_price" db:"discount_price"`
	DiscountActive bool                `json:"discount_active" db:"discount_active"`
	StockQuantity  int                 `json:"stock_quantity" db:"stock_quantity"`
	Variations     []Variation         `json:"variations" db:"-"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" db:"updated_at"`
}

func (p Product) HasVariations() bool {
	return len(p.Variations) > 0
}

// EffectivePrice is the discount price when a discount is active and set,
// otherwise the base price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountActive && p.DiscountPrice.Valid {
		return p.DiscountPrice.Decimal
	}
	return p.BasePrice
}

// StockLevels returns the per-variation stock levels, or the product's own
// level when it has no variations.
func (p Product) StockLevels() []int {
	if !p.HasVariations() {
		return []int{p.StockQuantity}
	}
	levels := make([]int, len(p.Variations))
	for i, v := range p.Variations {
		levels[i] = v.StockQuantity
	}
	return levels
}

func (p Product) InventoryValue() decimal.Decimal {
	if !p.HasVariations() {
		return p.EffectivePrice().Mul(decimal.NewFromInt(int64(p.StockQuantity)))
	}
	total := decimal.Zero
	for _, v := range p.Variations {
		total = total.Add(v.Price.Mul(decimal.NewFromInt(int64(v.StockQuantity))))
	}
	return total
}

func (p Product) InStock() bool {
	for _, level := range p.StockLevels() {
		if level > 0 {
			return true
		}
	}
	return false
}

func (p Product) LowStock() bool {
	for _, level := range p.StockLevels() {
		if IsLowStock(level) {
			return true
		}
	}
	return false
}

// OutOfStock holds only when every stock level is exactly zero.
func (p Product) OutOfStock() bool {
	for _, level := range p.StockLevels() {
		if level != 0 {
			return false
		}
	}
	return true
}

func (p Product) Variation(id uuid.UUID) (Variation, bool) {
	for _, v := range p.Variations {
		if v.ID == id {
			return v, true
		}
	}
	return Variation{}, false
}

func IsLowStock(level int) bool {
	return level > 0 && level < LowStockThreshold
}

// StockRef points at the stock field a line item draws from: the variation
// when VariationID is set, otherwise the product.
type StockRef struct {
	ProductID   uuid.UUID
	VariationID *uuid.UUID
}

func (r StockRef) String() string {
	if r.VariationID != nil {
		return "variation:" + r.VariationID.String()
	}
	return "product:" + r.ProductID.String()
}
