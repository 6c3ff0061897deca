package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foodops/localfood/internal/adapter/logger"
	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

type SchedulingHandler struct {
	service interfaces.SchedulingService
	logger  logger.Logger
}

func NewSchedulingHandler(service interfaces.SchedulingService, logger logger.Logger) *SchedulingHandler {
	return &SchedulingHandler{
		service: service,
		logger:  logger,
	}
}

type CreateScheduledOrderRequest struct {
	OrderID             string    `json:"order_id"`
	ScheduledTime       time.Time `json:"scheduled_time"`
	DeliveryWindowStart time.Time `json:"delivery_window_start"`
	DeliveryWindowEnd   time.Time `json:"delivery_window_end"`
	DeliveryAddress     string    `json:"delivery_address,omitempty"`
	SpecialInstructions string    `json:"special_instructions,omitempty"`
	IsPickup            bool      `json:"is_pickup"`
}

type UpdateScheduledOrderRequest struct {
	ScheduledTime       *time.Time `json:"scheduled_time,omitempty"`
	DeliveryWindowStart *time.Time `json:"delivery_window_start,omitempty"`
	DeliveryWindowEnd   *time.Time `json:"delivery_window_end,omitempty"`
	DeliveryAddress     *string    `json:"delivery_address,omitempty"`
	SpecialInstructions *string    `json:"special_instructions,omitempty"`
	IsPickup            *bool      `json:"is_pickup,omitempty"`
}

type UpdateWindowRequest struct {
	DeliveryWindowStart time.Time `json:"delivery_window_start"`
	DeliveryWindowEnd   time.Time `json:"delivery_window_end"`
}

type CreateDeliveryZoneRequest struct {
	Name                     string `json:"name"`
	ChannelID                string `json:"channel_id"`
	DeliveryFee              string `json:"delivery_fee"`
	MinimumOrderValue        string `json:"minimum_order_value"`
	EstimatedDeliveryMinutes *int   `json:"estimated_delivery_minutes,omitempty"`
	PostalCodes              string `json:"postal_codes"`
}

type UpdateDeliveryZoneRequest struct {
	Name                     *string `json:"name,omitempty"`
	DeliveryFee              *string `json:"delivery_fee,omitempty"`
	MinimumOrderValue        *string `json:"minimum_order_value,omitempty"`
	EstimatedDeliveryMinutes *int    `json:"estimated_delivery_minutes,omitempty"`
	IsActive                 *bool   `json:"is_active,omitempty"`
	PostalCodes              *string `json:"postal_codes,omitempty"`
}

type ScheduledOrderResponse struct {
	ID                  string    `json:"id"`
	OrderID             string    `json:"order_id"`
	ScheduledTime       time.Time `json:"scheduled_time"`
	DeliveryWindowStart time.Time `json:"delivery_window_start"`
	DeliveryWindowEnd   time.Time `json:"delivery_window_end"`
	DeliveryAddress     string    `json:"delivery_address,omitempty"`
	SpecialInstructions string    `json:"special_instructions,omitempty"`
	IsPickup            bool      `json:"is_pickup"`
}

type DeliveryZoneResponse struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	ChannelID                string `json:"channel_id"`
	DeliveryFee              string `json:"delivery_fee"`
	MinimumOrderValue        string `json:"minimum_order_value"`
	EstimatedDeliveryMinutes int    `json:"estimated_delivery_minutes"`
	IsActive                 bool   `json:"is_active"`
	PostalCodes              string `json:"postal_codes"`
}

func scheduledOrderToResponse(o *domain.ScheduledOrder) ScheduledOrderResponse {
	return ScheduledOrderResponse{
		ID:                  o.ID.String(),
		OrderID:             o.OrderID.String(),
		ScheduledTime:       o.ScheduledTime,
		DeliveryWindowStart: o.DeliveryWindowStart,
		DeliveryWindowEnd:   o.DeliveryWindowEnd,
		DeliveryAddress:     o.DeliveryAddress,
		SpecialInstructions: o.SpecialInstructions,
		IsPickup:            o.IsPickup,
	}
}

func zoneToResponse(z *domain.DeliveryZone) DeliveryZoneResponse {
	return DeliveryZoneResponse{
		ID:                       z.ID.String(),
		Name:                     z.Name,
		ChannelID:                z.ChannelID.String(),
		DeliveryFee:              z.DeliveryFee.String(),
		MinimumOrderValue:        z.MinimumOrderValue.String(),
		EstimatedDeliveryMinutes: z.EstimatedDeliveryMinutes,
		IsActive:                 z.IsActive,
		PostalCodes:              z.PostalCodes,
	}
}

// HandleScheduledOrders routes /scheduled-orders, /scheduled-orders/{id},
// and /scheduled-orders/{id}/window.
func (h *SchedulingHandler) HandleScheduledOrders(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 1:
		h.createScheduledOrder(w, r)
	case len(parts) == 2:
		h.updateScheduledOrder(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "window":
		h.updateWindow(w, r, parts[1])
	default:
		respondError(w, "Not found", http.StatusNotFound, nil)
	}
}

func (h *SchedulingHandler) createScheduledOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var req CreateScheduledOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
			{Field: "order_id", Message: "order id must be a valid UUID"},
		})
		return
	}

	order, err := h.service.CreateScheduledOrder(r.Context(), interfaces.CreateScheduledOrderCommand{
		OrderID:             orderID,
		ScheduledTime:       req.ScheduledTime,
		DeliveryWindowStart: req.DeliveryWindowStart,
		DeliveryWindowEnd:   req.DeliveryWindowEnd,
		DeliveryAddress:     req.DeliveryAddress,
		SpecialInstructions: req.SpecialInstructions,
		IsPickup:            req.IsPickup,
	})
	if err != nil {
		h.logger.Error("schedule_creation_failed", "Failed to create scheduled order", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, scheduledOrderToResponse(order))
}

func (h *SchedulingHandler) updateScheduledOrder(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodPatch {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, "Invalid scheduled order id", http.StatusBadRequest, nil)
		return
	}

	var req UpdateScheduledOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	order, err := h.service.UpdateScheduledOrder(r.Context(), id, domain.ScheduledOrderPatch{
		ScheduledTime:       req.ScheduledTime,
		DeliveryWindowStart: req.DeliveryWindowStart,
		DeliveryWindowEnd:   req.DeliveryWindowEnd,
		DeliveryAddress:     req.DeliveryAddress,
		SpecialInstructions: req.SpecialInstructions,
		IsPickup:            req.IsPickup,
	})
	if err != nil {
		h.logger.Error("schedule_update_failed", "Failed to update scheduled order", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, scheduledOrderToResponse(order))
}

func (h *SchedulingHandler) updateWindow(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodPut {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, "Invalid scheduled order id", http.StatusBadRequest, nil)
		return
	}

	var req UpdateWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	order, err := h.service.UpdateDeliveryWindow(r.Context(), id, req.DeliveryWindowStart, req.DeliveryWindowEnd)
	if err != nil {
		h.logger.Error("window_update_failed", "Failed to update delivery window", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, scheduledOrderToResponse(order))
}

// HandleDeliveryZones routes /delivery-zones, /delivery-zones/{id}, and
// /delivery-zones/lookup.
func (h *SchedulingHandler) HandleDeliveryZones(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 1:
		h.createZone(w, r)
	case len(parts) == 2 && parts[1] == "lookup":
		h.lookupZone(w, r)
	case len(parts) == 2:
		h.updateZone(w, r, parts[1])
	default:
		respondError(w, "Not found", http.StatusNotFound, nil)
	}
}

func (h *SchedulingHandler) createZone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var req CreateDeliveryZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	var validationErrors []ValidationError
	channelID, err := uuid.Parse(req.ChannelID)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "channel_id",
			Message: "channel id must be a valid UUID",
		})
	}
	fee, err := decimal.NewFromString(req.DeliveryFee)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "delivery_fee",
			Message: "delivery fee must be a decimal number",
		})
	}
	minOrder, err := decimal.NewFromString(req.MinimumOrderValue)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "minimum_order_value",
			Message: "minimum order value must be a decimal number",
		})
	}
	if len(validationErrors) > 0 {
		respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	zone, err := h.service.CreateDeliveryZone(r.Context(), interfaces.CreateDeliveryZoneCommand{
		Name:                     strings.TrimSpace(req.Name),
		ChannelID:                channelID,
		DeliveryFee:              fee,
		MinimumOrderValue:        minOrder,
		EstimatedDeliveryMinutes: req.EstimatedDeliveryMinutes,
		PostalCodes:              req.PostalCodes,
	})
	if err != nil {
		h.logger.Error("zone_creation_failed", "Failed to create delivery zone", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, zoneToResponse(zone))
}

func (h *SchedulingHandler) updateZone(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodPatch {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, "Invalid delivery zone id", http.StatusBadRequest, nil)
		return
	}

	var req UpdateDeliveryZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	patch := domain.DeliveryZonePatch{
		Name:                     req.Name,
		EstimatedDeliveryMinutes: req.EstimatedDeliveryMinutes,
		IsActive:                 req.IsActive,
		PostalCodes:              req.PostalCodes,
	}
	if req.DeliveryFee != nil {
		fee, err := decimal.NewFromString(*req.DeliveryFee)
		if err != nil {
			respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
				{Field: "delivery_fee", Message: "delivery fee must be a decimal number"},
			})
			return
		}
		patch.DeliveryFee = &fee
	}
	if req.MinimumOrderValue != nil {
		minOrder, err := decimal.NewFromString(*req.MinimumOrderValue)
		if err != nil {
			respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
				{Field: "minimum_order_value", Message: "minimum order value must be a decimal number"},
			})
			return
		}
		patch.MinimumOrderValue = &minOrder
	}

	zone, err := h.service.UpdateDeliveryZone(r.Context(), id, patch)
	if err != nil {
		h.logger.Error("zone_update_failed", "Failed to update delivery zone", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, zoneToResponse(zone))
}

func (h *SchedulingHandler) lookupZone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	channelID, err := uuid.Parse(r.URL.Query().Get("channel_id"))
	if err != nil {
		respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
			{Field: "channel_id", Message: "channel id must be a valid UUID"},
		})
		return
	}
	postalCode := strings.TrimSpace(r.URL.Query().Get("postal_code"))
	if postalCode == "" {
		respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
			{Field: "postal_code", Message: "postal code is required"},
		})
		return
	}

	zone, err := h.service.FindZoneForPostalCode(r.Context(), channelID, postalCode)
	if err != nil {
		h.logger.Error("zone_lookup_failed", "Failed to look up delivery zone", "", nil, err)
		respondServiceError(w, err)
		return
	}

	if zone == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"covered": false,
			"zone":    nil,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"covered": true,
		"zone":    zoneToResponse(zone),
	})
}
