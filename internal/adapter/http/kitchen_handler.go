package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/adapter/logger"
	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

type KitchenHandler struct {
	service interfaces.KitchenService
	logger  logger.Logger
}

func NewKitchenHandler(service interfaces.KitchenService, logger logger.Logger) *KitchenHandler {
	return &KitchenHandler{
		service: service,
		logger:  logger,
	}
}

type CreateKitchenRequest struct {
	Name                   string `json:"name"`
	ChannelID              string `json:"channel_id"`
	MaxConcurrentOrders    *int   `json:"max_concurrent_orders,omitempty"`
	AveragePrepTimeMinutes *int   `json:"average_prep_time_minutes,omitempty"`
	IsActive               *bool  `json:"is_active,omitempty"`
}

type UpdateKitchenRequest struct {
	Name                   *string `json:"name,omitempty"`
	IsActive               *bool   `json:"is_active,omitempty"`
	MaxConcurrentOrders    *int    `json:"max_concurrent_orders,omitempty"`
	AveragePrepTimeMinutes *int    `json:"average_prep_time_minutes,omitempty"`
}

type AssignOrderRequest struct {
	OrderID             string `json:"order_id"`
	KitchenID           string `json:"kitchen_id"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status              string  `json:"status"`
	SpecialInstructions *string `json:"special_instructions,omitempty"`
}

type KitchenResponse struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	ChannelID              string `json:"channel_id"`
	IsActive               bool   `json:"is_active"`
	MaxConcurrentOrders    int    `json:"max_concurrent_orders"`
	AveragePrepTimeMinutes int    `json:"average_prep_time_minutes"`
}

type KitchenOrderResponse struct {
	ID                  string     `json:"id"`
	OrderID             string     `json:"order_id"`
	KitchenID           string     `json:"kitchen_id"`
	Status              string     `json:"status"`
	EstimatedCompletion time.Time  `json:"estimated_completion"`
	ActualCompletion    *time.Time `json:"actual_completion,omitempty"`
	SpecialInstructions string     `json:"special_instructions,omitempty"`
}

func kitchenToResponse(k *domain.Kitchen) KitchenResponse {
	return KitchenResponse{
		ID:                     k.ID.String(),
		Name:                   k.Name,
		ChannelID:              k.ChannelID.String(),
		IsActive:               k.IsActive,
		MaxConcurrentOrders:    k.MaxConcurrentOrders,
		AveragePrepTimeMinutes: k.AveragePrepTimeMinutes,
	}
}

func kitchenOrderToResponse(o *domain.KitchenOrder) KitchenOrderResponse {
	return KitchenOrderResponse{
		ID:                  o.ID.String(),
		OrderID:             o.OrderID.String(),
		KitchenID:           o.KitchenID.String(),
		Status:              string(o.Status),
		EstimatedCompletion: o.EstimatedCompletion,
		ActualCompletion:    o.ActualCompletion,
		SpecialInstructions: o.SpecialInstructions,
	}
}

// HandleKitchens routes /kitchens, /kitchens/{id}, and
// /kitchens/{id}/performance.
func (h *KitchenHandler) HandleKitchens(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 1:
		h.createKitchen(w, r)
	case len(parts) == 2:
		h.updateKitchen(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "performance":
		h.getPerformance(w, r, parts[1])
	default:
		respondError(w, "Not found", http.StatusNotFound, nil)
	}
}

func (h *KitchenHandler) createKitchen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var req CreateKitchenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	var validationErrors []ValidationError
	if strings.TrimSpace(req.Name) == "" {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "name",
			Message: "kitchen name is required",
		})
	}
	channelID, err := uuid.Parse(req.ChannelID)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "channel_id",
			Message: "channel id must be a valid UUID",
		})
	}
	if len(validationErrors) > 0 {
		respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	kitchen, err := h.service.CreateKitchen(r.Context(), interfaces.CreateKitchenCommand{
		Name:                   strings.TrimSpace(req.Name),
		ChannelID:              channelID,
		MaxConcurrentOrders:    req.MaxConcurrentOrders,
		AveragePrepTimeMinutes: req.AveragePrepTimeMinutes,
		IsActive:               req.IsActive,
	})
	if err != nil {
		h.logger.Error("kitchen_creation_failed", "Failed to create kitchen", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, kitchenToResponse(kitchen))
}

func (h *KitchenHandler) updateKitchen(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodPatch {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, "Invalid kitchen id", http.StatusBadRequest, nil)
		return
	}

	var req UpdateKitchenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	kitchen, err := h.service.UpdateKitchen(r.Context(), id, domain.KitchenPatch{
		Name:                   req.Name,
		IsActive:               req.IsActive,
		MaxConcurrentOrders:    req.MaxConcurrentOrders,
		AveragePrepTimeMinutes: req.AveragePrepTimeMinutes,
	})
	if err != nil {
		h.logger.Error("kitchen_update_failed", "Failed to update kitchen", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, kitchenToResponse(kitchen))
}

func (h *KitchenHandler) getPerformance(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, "Invalid kitchen id", http.StatusBadRequest, nil)
		return
	}

	// Defaults to the trailing 7 days.
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -7)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
				{Field: "from", Message: "from must be an RFC3339 timestamp"},
			})
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
				{Field: "to", Message: "to must be an RFC3339 timestamp"},
			})
			return
		}
		to = parsed
	}

	report, err := h.service.PerformanceReport(r.Context(), id, from, to)
	if err != nil {
		h.logger.Error("performance_report_failed", "Failed to build performance report", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"kitchen_id":                  report.KitchenID.String(),
		"kitchen_name":                report.KitchenName,
		"from":                        report.From,
		"to":                          report.To,
		"total_orders":                report.TotalOrders,
		"delivered_orders":            report.DeliveredOrders,
		"completion_rate":             report.CompletionRate,
		"avg_completion_time_minutes": report.AvgCompletionTimeMinutes,
	})
}

// HandleKitchenOrders routes /kitchen-orders and
// /kitchen-orders/{id}/status.
func (h *KitchenHandler) HandleKitchenOrders(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 1:
		h.assignOrder(w, r)
	case len(parts) == 3 && parts[2] == "status":
		h.updateOrderStatus(w, r, parts[1])
	default:
		respondError(w, "Not found", http.StatusNotFound, nil)
	}
}

func (h *KitchenHandler) assignOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var req AssignOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	var validationErrors []ValidationError
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "order_id",
			Message: "order id must be a valid UUID",
		})
	}
	kitchenID, err := uuid.Parse(req.KitchenID)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "kitchen_id",
			Message: "kitchen id must be a valid UUID",
		})
	}
	if len(validationErrors) > 0 {
		respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	order, err := h.service.AssignOrderToKitchen(r.Context(), interfaces.AssignOrderCommand{
		OrderID:             orderID,
		KitchenID:           kitchenID,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		h.logger.Error("order_assignment_failed", "Failed to assign order to kitchen", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, kitchenOrderToResponse(order))
}

func (h *KitchenHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodPatch {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, "Invalid kitchen order id", http.StatusBadRequest, nil)
		return
	}

	var req UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status, req.SpecialInstructions)
	if err != nil {
		h.logger.Error("order_status_update_failed", "Failed to update kitchen order status", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, kitchenOrderToResponse(order))
}
