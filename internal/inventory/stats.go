package inventory

import (
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront-admin/internal/catalog"
	"github.com/vasiliy-maslov/storefront-admin/internal/order"
)

type Stats struct {
	TotalSales          decimal.Decimal `json:"total_sales"`
	TotalVialsSold      int             `json:"total_vials_sold"`
	TotalInventoryValue decimal.Decimal `json:"total_inventory_value"`
	LowStockCount       int             `json:"low_stock_count"`
	TotalItems          int             `json:"total_items"`
}

// Compute derives dashboard figures from the catalog and the order list.
// Only recognized-revenue orders contribute to sales and units sold, so the
// full order list may be passed in. Nothing is cached between calls.
func Compute(products []catalog.Product, orders []order.Order) Stats {
	stats := Stats{
		TotalSales:          decimal.Zero,
		TotalInventoryValue: decimal.Zero,
		TotalItems:          len(products),
	}

	for _, o := range orders {
		if !o.RecognizedRevenue() {
			continue
		}
		stats.TotalSales = stats.TotalSales.Add(o.FinalTotal())
		stats.TotalVialsSold += o.UnitsOrdered()
	}

	for _, p := range products {
		stats.TotalInventoryValue = stats.TotalInventoryValue.Add(p.InventoryValue())
		if p.LowStock() {
			stats.LowStockCount++
		}
	}

	return stats
}
