package order

import "strings"

const AllStatuses = "all"

// FilterOrders keeps orders matching both the status filter and the search
// query. Name, email and id match case-insensitively; phone matches as typed.
// A blank query matches everything; otherwise it is used untrimmed.
func FilterOrders(orders []Order, statusFilter, searchQuery string) []Order {
	searching := strings.TrimSpace(searchQuery) != ""
	lowered := strings.ToLower(searchQuery)

	filtered := make([]Order, 0, len(orders))
	for _, o := range orders {
		if statusFilter != "" && statusFilter != AllStatuses && string(o.Status) != statusFilter {
			continue
		}
		if searching && !matchesSearch(o, searchQuery, lowered) {
			continue
		}
		filtered = append(filtered, o)
	}
	return filtered
}

func matchesSearch(o Order, query, lowered string) bool {
	return strings.Contains(strings.ToLower(o.CustomerName), lowered) ||
		strings.Contains(strings.ToLower(o.CustomerEmail), lowered) ||
		strings.Contains(strings.ToLower(o.ID.String()), lowered) ||
		strings.Contains(o.CustomerPhone, query)
}

// CountByStatus tallies orders per status. Every status and "all" is
// present in the result, zero or not.
func CountByStatus(orders []Order) map[string]int {
	counts := make(map[string]int, len(Statuses)+1)
	counts[AllStatuses] = len(orders)
	for _, s := range Statuses {
		counts[string(s)] = 0
	}
	for _, o := range orders {
		counts[string(o.Status)]++
	}
	return counts
}
