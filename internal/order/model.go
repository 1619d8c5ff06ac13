package order

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront-admin/internal/catalog"
)

type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// Statuses lists every order status in lifecycle order.
var Statuses = []OrderStatus{
	StatusNew,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

func (os OrderStatus) String() string {
	return string(os)
}

func (os OrderStatus) Valid() bool {
	for _, s := range Statuses {
		if os == s {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

func (ps PaymentStatus) String() string {
	return string(ps)
}

// OrderItem is a line item snapshot stored with its order. It is never
// rewritten after checkout.
type OrderItem struct {
	ProductID        uuid.UUID       `json:"product_id"`
	ProductName      string          `json:"product_name"`
	VariationID      *uuid.UUID      `json:"variation_id,omitempty"`
	VariationName    *string         `json:"variation_name,omitempty"`
	Quantity         int             `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	Total            decimal.Decimal `json:"total"`
	PurityPercentage *float64        `json:"purity_percentage,omitempty"`
}

func (i OrderItem) StockRef() catalog.StockRef {
	return catalog.StockRef{ProductID: i.ProductID, VariationID: i.VariationID}
}

func (i OrderItem) DisplayName() string {
	if i.VariationName != nil && *i.VariationName != "" {
		return i.ProductName + " " + *i.VariationName
	}
	return i.ProductName
}

type Order struct {
	ID                uuid.UUID           `json:"id" db:"id"`
	CustomerName      string              `json:"customer_name" db:"customer_name"`
	CustomerEmail     string              `json:"customer_email" db:"customer_email"`
	CustomerPhone     string              `json:"customer_phone" db:"customer_phone"`
	ContactMethod     string              `json:"contact_method" db:"contact_method"`
	ShippingAddress   string              `json:"shipping_address" db:"shipping_address"`
	ShippingCity      string              `json:"shipping_city" db:"shipping_city"`
	ShippingState     string              `json:"shipping_state" db:"shipping_state"`
	ShippingZipCode   string              `json:"shipping_zip_code" db:"shipping_zip_code"`
	ShippingCountry   string              `json:"shipping_country" db:"shipping_country"`
	ShippingLocation  string              `json:"shipping_location" db:"shipping_location"`
	ShippingFee       decimal.NullDecimal `json:"shipping_fee" db:"shipping_fee"`
	Items             []OrderItem         `json:"order_items" db:"order_items"`
	TotalPrice        decimal.Decimal     `json:"total_price" db:"total_price"`
	PaymentMethodID   string              `json:"payment_method_id" db:"payment_method_id"`
	PaymentMethodName string              `json:"payment_method_name" db:"payment_method_name"`
	PaymentProofURL   string              `json:"payment_proof_url" db:"payment_proof_url"`
	PaymentStatus     PaymentStatus       `json:"payment_status" db:"payment_status"`
	Status            OrderStatus         `json:"order_status" db:"order_status"`
	Notes             string              `json:"notes" db:"notes"`
	CreatedAt         time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" db:"updated_at"`
}

// FinalTotal is the item total plus the shipping fee, if any.
func (o Order) FinalTotal() decimal.Decimal {
	if o.ShippingFee.Valid {
		return o.TotalPrice.Add(o.ShippingFee.Decimal)
	}
	return o.TotalPrice
}

func (o Order) UnitsOrdered() int {
	units := 0
	for _, item := range o.Items {
		units += item.Quantity
	}
	return units
}

// RecognizedRevenue reports whether the order is paid and has progressed
// past creation without being cancelled.
func (o Order) RecognizedRevenue() bool {
	if o.PaymentStatus != PaymentPaid {
		return false
	}
	switch o.Status {
	case StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered:
		return true
	default:
		return false
	}
}

// RecognizedRevenueStatuses are the statuses counted toward sales.
var RecognizedRevenueStatuses = []OrderStatus{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered}
