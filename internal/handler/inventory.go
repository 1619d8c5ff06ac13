package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront-admin/internal/catalog"
	"github.com/vasiliy-maslov/storefront-admin/internal/inventory"
)

type UpdateStockRequest struct {
	StockQuantity *int       `json:"stock_quantity" validate:"required,min=0"`
	VariationID   *uuid.UUID `json:"variation_id,omitempty"`
}

type ProductListResponse struct {
	Products []catalog.Product `json:"products"`
}

type InventoryHandler struct {
	service  inventory.Service
	validate *validator.Validate
}

func NewInventoryHandler(service inventory.Service) *InventoryHandler {
	return &InventoryHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *InventoryHandler) RegisterRoutes(router chi.Router) {
	router.Get("/inventory/stats", h.handleStats)
	router.Get("/products", h.handleListProducts)
	router.Put("/products/{id}/stock", h.handleUpdateStock)
}

func (h *InventoryHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute inventory stats via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to compute inventory stats")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *InventoryHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	stock, err := catalog.ParseStockFilter(query.Get("stock"))
	if err != nil {
		log.Warn().Err(err).Str("stock", query.Get("stock")).Msg("Unknown stock filter")
		respondWithError(w, http.StatusBadRequest, "Invalid stock filter")
		return
	}

	products, err := h.service.ListProducts(r.Context(), query.Get("category"), query.Get("q"), stock)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list products")
		return
	}

	respondWithJSON(w, http.StatusOK, ProductListResponse{Products: products})
}

func (h *InventoryHandler) handleUpdateStock(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	productID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("product_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateStockRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.service.UpdateStock(r.Context(), productID, requestPayload.VariationID, *requestPayload.StockQuantity)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("Failed to update stock via service")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to update stock"))
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
