package catalog

import (
	"fmt"
	"strings"
)

const AllCategories = "all"

type StockFilter string

const (
	StockAll        StockFilter = "all"
	StockInStock    StockFilter = "in-stock"
	StockLow        StockFilter = "low-stock"
	StockOutOfStock StockFilter = "out-of-stock"
)

func ParseStockFilter(s string) (StockFilter, error) {
	switch f := StockFilter(s); f {
	case "":
		return StockAll, nil
	case StockAll, StockInStock, StockLow, StockOutOfStock:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStockFilter, s)
	}
}

func (f StockFilter) matches(p Product) bool {
	switch f {
	case StockInStock:
		return p.InStock()
	case StockLow:
		return p.LowStock()
	case StockOutOfStock:
		return p.OutOfStock()
	default:
		return true
	}
}

// FilterProducts narrows products by category, a case-insensitive search
// over name and description, and stock level. All filters must match.
// A blank query disables the search; otherwise it is matched as given.
func FilterProducts(products []Product, category, searchQuery string, stock StockFilter) []Product {
	searching := strings.TrimSpace(searchQuery) != ""
	query := strings.ToLower(searchQuery)

	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if category != "" && category != AllCategories && p.Category != category {
			continue
		}
		if searching &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		if !stock.matches(p) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}
