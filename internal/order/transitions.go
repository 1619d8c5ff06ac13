package order

import "fmt"

var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusNew: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ValidateTransition rejects any edge outside the order lifecycle graph.
// Status writes are deliberately stricter than a plain overwrite: terminal
// states stay terminal, and confirmed is reachable only via ConfirmOrder so
// stock is always deducted.
func ValidateTransition(from, to OrderStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	next, ok := allowedTransitions[from]
	if !ok || !next[to] {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
	}
	return nil
}

// AllowedTransitions lists the statuses reachable from s in lifecycle order.
func AllowedTransitions(s OrderStatus) []OrderStatus {
	next := make([]OrderStatus, 0, 2)
	for _, candidate := range Statuses {
		if allowedTransitions[s][candidate] {
			next = append(next, candidate)
		}
	}
	return next
}

func IsTerminal(s OrderStatus) bool {
	return len(allowedTransitions[s]) == 0
}
