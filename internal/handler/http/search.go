// Package http exposes the search service over a JSON REST API.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bazario/search-service/internal/domain"
	"github.com/bazario/search-service/internal/service"
	"github.com/bazario/search-service/pkg/httputil"
	"github.com/bazario/search-service/pkg/validator"
)

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SearchRequest is the JSON request body for a product search.
type SearchRequest struct {
	Term       string   `json:"term" validate:"required,min=1"`
	Country    int      `json:"country" validate:"gte=0"`
	Locale     string   `json:"locale" validate:"omitempty,oneof=en fr"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,longitude"`
	SortBy     string   `json:"sort_by"`
	Limit      int      `json:"limit" validate:"omitempty,gte=1,lte=100"`
	Page       int      `json:"page" validate:"omitempty,gte=1"`
	RadiusKm   float64  `json:"radius_km" validate:"omitempty,gte=0"`
	MinPrice   *float64 `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice   *float64 `json:"max_price" validate:"omitempty,gte=0"`
	CategoryID *int64   `json:"category_id"`
}

// SuggestRequest is the JSON request body for a search-as-you-type request.
type SuggestRequest struct {
	Term    string `json:"term" validate:"required,min=1"`
	Country int    `json:"country" validate:"gte=0"`
	Locale  string `json:"locale" validate:"omitempty,oneof=en fr"`
	Limit   int    `json:"limit" validate:"omitempty,gte=1,lte=100"`
	Page    int    `json:"page" validate:"omitempty,gte=1"`
}

// --- Handlers ---

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must not exceed max_price"},
		})
		return
	}

	query := &domain.SearchQuery{
		Term:       req.Term,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		SortBy:     req.SortBy,
		Limit:      req.Limit,
		Page:       req.Page,
		Country:    req.Country,
		RadiusKm:   req.RadiusKm,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		CategoryID: req.CategoryID,
		Locale:     domain.Locale(req.Locale),
	}

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Suggest handles POST /api/v1/search/suggest
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	query := &domain.SuggestQuery{
		Term:    req.Term,
		Country: req.Country,
		Locale:  domain.Locale(req.Locale),
		Limit:   req.Limit,
		Page:    req.Page,
	}

	result, err := h.service.Suggest(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Upsert handles POST /api/v1/search/index
func (h *SearchHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var update domain.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	changed, err := h.service.UpsertProduct(r.Context(), &update)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"id":      *update.ID,
		"changed": changed,
	}})
}

// Reindex handles POST /api/v1/search/reindex
func (h *SearchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.RebuildIndex(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}
