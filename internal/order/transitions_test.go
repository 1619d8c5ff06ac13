package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/storefront-admin/internal/order"
)

func TestValidateTransition(t *testing.T) {
	allowed := map[order.OrderStatus][]order.OrderStatus{
		order.StatusNew:        {order.StatusConfirmed, order.StatusCancelled},
		order.StatusConfirmed:  {order.StatusProcessing, order.StatusCancelled},
		order.StatusProcessing: {order.StatusShipped, order.StatusCancelled},
		order.StatusShipped:    {order.StatusDelivered},
	}

	for _, from := range order.Statuses {
		for _, to := range order.Statuses {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}

			err := order.ValidateTransition(from, to)
			if want {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				assert.ErrorIs(t, err, order.ErrInvalidStatusTransition, "%s -> %s", from, to)
			}
		}
	}
}

func TestValidateTransition_UnknownTarget(t *testing.T) {
	err := order.ValidateTransition(order.StatusNew, order.OrderStatus("refunded"))
	assert.ErrorIs(t, err, order.ErrInvalidStatus)
}

func TestAllowedTransitions(t *testing.T) {
	assert.Equal(t, []order.OrderStatus{order.StatusProcessing, order.StatusCancelled}, order.AllowedTransitions(order.StatusConfirmed))
	assert.Equal(t, []order.OrderStatus{order.StatusDelivered}, order.AllowedTransitions(order.StatusShipped))
	assert.Empty(t, order.AllowedTransitions(order.StatusDelivered))

	assert.True(t, order.IsTerminal(order.StatusCancelled))
	assert.True(t, order.IsTerminal(order.StatusDelivered))
	assert.False(t, order.IsTerminal(order.StatusNew))
}

func TestParseStatus(t *testing.T) {
	s, err := order.ParseStatus("processing")
	assert.NoError(t, err)
	assert.Equal(t, order.StatusProcessing, s)

	_, err = order.ParseStatus("PROCESSING")
	assert.ErrorIs(t, err, order.ErrInvalidStatus)
}
