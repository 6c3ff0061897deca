package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/adapter/logger"
	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

type StockHandler struct {
	service interfaces.StockService
	logger  logger.Logger
}

func NewStockHandler(service interfaces.StockService, logger logger.Logger) *StockHandler {
	return &StockHandler{
		service: service,
		logger:  logger,
	}
}

type CreateBatchRequest struct {
	VariantID    string `json:"variant_id"`
	WarehouseID  string `json:"warehouse_id"`
	BatchNumber  string `json:"batch_number"`
	ExpiryDate   string `json:"expiry_date"`
	Quantity     int    `json:"quantity"`
	SupplierInfo string `json:"supplier_info,omitempty"`
}

type UpdateBatchRequest struct {
	BatchNumber  *string `json:"batch_number,omitempty"`
	ExpiryDate   *string `json:"expiry_date,omitempty"`
	Quantity     *int    `json:"quantity,omitempty"`
	SupplierInfo *string `json:"supplier_info,omitempty"`
	IsAvailable  *bool   `json:"is_available,omitempty"`
}

type AdjustReservationRequest struct {
	Amount int `json:"amount"`
}

type BatchResponse struct {
	ID                string    `json:"id"`
	VariantID         string    `json:"variant_id"`
	WarehouseID       string    `json:"warehouse_id"`
	BatchNumber       string    `json:"batch_number"`
	ExpiryDate        time.Time `json:"expiry_date"`
	ReceivedDate      time.Time `json:"received_date"`
	Quantity          int       `json:"quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	IsAvailable       bool      `json:"is_available"`
	IsExpired         bool      `json:"is_expired"`
	DaysUntilExpiry   int       `json:"days_until_expiry"`
	SupplierInfo      string    `json:"supplier_info,omitempty"`
}

func batchToResponse(b *domain.PerishableBatch, now time.Time) BatchResponse {
	return BatchResponse{
		ID:                b.ID.String(),
		VariantID:         b.VariantID.String(),
		WarehouseID:       b.WarehouseID.String(),
		BatchNumber:       b.BatchNumber,
		ExpiryDate:        b.ExpiryDate,
		ReceivedDate:      b.ReceivedDate,
		Quantity:          b.Quantity,
		ReservedQuantity:  b.ReservedQuantity,
		AvailableQuantity: b.AvailableQuantity(),
		IsAvailable:       b.IsAvailable,
		IsExpired:         b.IsExpired(now),
		DaysUntilExpiry:   b.DaysUntilExpiry(now),
		SupplierInfo:      b.SupplierInfo,
	}
}

// HandleBatches routes /stock/batches and /stock/batches/{id}[/action].
func (h *StockHandler) HandleBatches(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 2:
		h.createBatch(w, r)
	case len(parts) == 3:
		h.updateBatch(w, r, parts[2])
	case len(parts) == 4:
		h.adjustBatch(w, r, parts[2], parts[3])
	default:
		respondError(w, "Not found", http.StatusNotFound, nil)
	}
}

func (h *StockHandler) createBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	var validationErrors []ValidationError

	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "variant_id",
			Message: "variant id must be a valid UUID",
		})
	}
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "warehouse_id",
			Message: "warehouse id must be a valid UUID",
		})
	}
	expiryDate, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "expiry_date",
			Message: "expiry date must be in YYYY-MM-DD format",
		})
	}
	if strings.TrimSpace(req.BatchNumber) == "" {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "batch_number",
			Message: "batch number is required",
		})
	}

	if len(validationErrors) > 0 {
		respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	batch, err := h.service.CreateBatch(r.Context(), interfaces.CreateBatchCommand{
		VariantID:    variantID,
		WarehouseID:  warehouseID,
		BatchNumber:  strings.TrimSpace(req.BatchNumber),
		ExpiryDate:   expiryDate,
		Quantity:     req.Quantity,
		SupplierInfo: req.SupplierInfo,
	})
	if err != nil {
		h.logger.Error("batch_creation_failed", "Failed to create batch", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, batchToResponse(batch, time.Now().UTC()))
}

func (h *StockHandler) updateBatch(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodPatch {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, "Invalid batch id", http.StatusBadRequest, nil)
		return
	}

	var req UpdateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	patch := domain.BatchPatch{
		BatchNumber:  req.BatchNumber,
		Quantity:     req.Quantity,
		SupplierInfo: req.SupplierInfo,
		IsAvailable:  req.IsAvailable,
	}
	if req.ExpiryDate != nil {
		expiryDate, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
				{Field: "expiry_date", Message: "expiry date must be in YYYY-MM-DD format"},
			})
			return
		}
		patch.ExpiryDate = &expiryDate
	}

	batch, err := h.service.UpdateBatch(r.Context(), id, patch)
	if err != nil {
		h.logger.Error("batch_update_failed", "Failed to update batch", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, batchToResponse(batch, time.Now().UTC()))
}

func (h *StockHandler) adjustBatch(w http.ResponseWriter, r *http.Request, rawID, action string) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, "Invalid batch id", http.StatusBadRequest, nil)
		return
	}

	var batch *domain.PerishableBatch
	switch action {
	case "reserve", "release":
		var req AdjustReservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest, nil)
			return
		}
		if action == "reserve" {
			batch, err = h.service.Reserve(r.Context(), id, req.Amount)
		} else {
			batch, err = h.service.Release(r.Context(), id, req.Amount)
		}
	case "expire":
		batch, err = h.service.MarkExpired(r.Context(), id)
	default:
		respondError(w, "Not found", http.StatusNotFound, nil)
		return
	}

	if err != nil {
		h.logger.Error("batch_adjustment_failed", "Failed to adjust batch", "", map[string]interface{}{
			"action": action,
		}, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, batchToResponse(batch, time.Now().UTC()))
}

// GetExpiring handles GET /stock/expiring?days=N&warehouse_id=UUID.
func (h *StockHandler) GetExpiring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
				{Field: "days", Message: "days must be a non-negative integer"},
			})
			return
		}
		days = parsed
	}

	var warehouseID *uuid.UUID
	if raw := r.URL.Query().Get("warehouse_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
				{Field: "warehouse_id", Message: "warehouse id must be a valid UUID"},
			})
			return
		}
		warehouseID = &parsed
	}

	batches, err := h.service.ListExpiringWithin(r.Context(), days, warehouseID)
	if err != nil {
		h.logger.Error("expiring_query_failed", "Failed to list expiring batches", "", nil, err)
		respondServiceError(w, err)
		return
	}

	now := time.Now().UTC()
	resp := make([]BatchResponse, len(batches))
	for i, batch := range batches {
		resp[i] = batchToResponse(batch, now)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetFIFORecommendations handles GET /stock/fifo-recommendations.
func (h *StockHandler) GetFIFORecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	recs, err := h.service.RecommendFIFOPriority(r.Context())
	if err != nil {
		h.logger.Error("fifo_query_failed", "Failed to compute FIFO recommendations", "", nil, err)
		respondServiceError(w, err)
		return
	}

	resp := make([]map[string]interface{}, len(recs))
	for i, rec := range recs {
		resp[i] = map[string]interface{}{
			"batch_id":           rec.Batch.ID.String(),
			"variant_id":         rec.Batch.VariantID.String(),
			"batch_number":       rec.Batch.BatchNumber,
			"expiry_date":        rec.Batch.ExpiryDate,
			"available_quantity": rec.AvailableQuantity,
			"days_until_expiry":  rec.DaysUntilExpiry,
			"priority":           string(rec.Priority),
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
