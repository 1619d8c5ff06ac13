package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront-admin/internal/settings"
)

type UpdateSettingRequest struct {
	Value string `json:"value" validate:"max=2000"`
}

type SettingsHandler struct {
	service  settings.Service
	validate *validator.Validate
}

func NewSettingsHandler(service settings.Service) *SettingsHandler {
	return &SettingsHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *SettingsHandler) RegisterRoutes(router chi.Router) {
	router.Get("/settings", h.handleGetSettings)
	router.Put("/settings/{key}", h.handleUpdateSetting)
	router.Patch("/settings", h.handleUpdateSettings)
}

func (h *SettingsHandler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Get(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load site settings via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to load site settings")
		return
	}

	respondWithJSON(w, http.StatusOK, current)
}

func (h *SettingsHandler) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var requestPayload UpdateSettingRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.service.Update(r.Context(), key, requestPayload.Value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to update site setting via service")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to update site setting"))
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// handleUpdateSettings accepts a flat {"key": "value"} object and applies
// it all or nothing.
func (h *SettingsHandler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(values) == 0 {
		respondWithError(w, http.StatusBadRequest, "No settings provided")
		return
	}
	for key, value := range values {
		if err := h.validate.Var(value, "max=2000"); err != nil {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: map[string]string{key: "must be at most 2000"},
			})
			return
		}
	}

	updated, err := h.service.UpdateMany(r.Context(), values)
	if err != nil {
		log.Error().Err(err).Int("keys", len(values)).Msg("Failed to update site settings via service")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to update site settings"))
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
