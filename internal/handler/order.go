package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront-admin/internal/order"
)

type UpdateOrderStatusRequest struct {
	OrderStatus string `json:"order_status" validate:"required"`
}

type OrderResponse struct {
	order.Order
	FinalTotal         decimal.Decimal     `json:"final_total"`
	AllowedTransitions []order.OrderStatus `json:"allowed_transitions"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Counts map[string]int  `json:"counts"`
}

type InsufficientStockResponse struct {
	Error     string `json:"error"`
	Item      string `json:"item"`
	Available int    `json:"available"`
	Required  int    `json:"required"`
}

func newOrderResponse(o order.Order) OrderResponse {
	return OrderResponse{
		Order:              o,
		FinalTotal:         o.FinalTotal(),
		AllowedTransitions: order.AllowedTransitions(o.Status),
	}
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Get("/orders", h.handleListOrders)
	router.Get("/orders/{id}", h.handleGetOrderByID)
	router.Post("/orders/{id}/confirm", h.handleConfirmOrder)
	router.Patch("/orders/{id}/status", h.handleUpdateOrderStatus)
}

// handleListOrders filters by ?status= and ?q=. The status filter is an
// exact match, so an unknown status yields an empty list. Counts always
// cover the unfiltered list.
func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")

	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list orders")
		return
	}

	filtered := order.FilterOrders(orders, statusFilter, r.URL.Query().Get("q"))
	response := OrderListResponse{
		Orders: make([]OrderResponse, 0, len(filtered)),
		Counts: order.CountByStatus(orders),
	}
	for _, o := range filtered {
		response.Orders = append(response.Orders, newOrderResponse(o))
	}

	respondWithJSON(w, http.StatusOK, response)
}

func (h *OrderHandler) handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	found, err := h.service.GetOrderByID(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("Failed to get order by id via service")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to get order by id"))
		return
	}

	respondWithJSON(w, http.StatusOK, newOrderResponse(*found))
}

func (h *OrderHandler) handleConfirmOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	confirmed, err := h.service.ConfirmOrder(r.Context(), orderID)
	if err != nil {
		var stockErr *order.InsufficientStockError
		if errors.As(err, &stockErr) {
			respondWithJSON(w, http.StatusConflict, InsufficientStockResponse{
				Error:     stockErr.Error(),
				Item:      stockErr.ItemName,
				Available: stockErr.Available,
				Required:  stockErr.Required,
			})
			return
		}

		log.Error().Err(err).Stringer("order_id", orderID).Msg("Failed to confirm order via service")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to confirm order"))
		return
	}

	respondWithJSON(w, http.StatusOK, newOrderResponse(*confirmed))
}

func (h *OrderHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.service.UpdateOrderStatus(r.Context(), orderID, order.OrderStatus(requestPayload.OrderStatus))
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Str("new_status", requestPayload.OrderStatus).Msg("Failed to update order status via service")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to update order status"))
		return
	}

	respondWithJSON(w, http.StatusOK, newOrderResponse(*updated))
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	orderID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("order_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return orderID, true
}
