package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatus           = errors.New("unrecognized order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrConfirmationRequired    = errors.New("orders can only be confirmed through stock reconciliation")
	ErrInvalidLineItem         = errors.New("invalid order line item")
)

// InsufficientStockError aborts a confirmation when a line item asks for
// more units than its stock field holds.
type InsufficientStockError struct {
	ItemName  string
	Available int
	Required  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, required %d", e.ItemName, e.Available, e.Required)
}
