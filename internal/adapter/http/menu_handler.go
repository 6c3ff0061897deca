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

type MenuHandler struct {
	service interfaces.MenuService
	logger  logger.Logger
}

func NewMenuHandler(service interfaces.MenuService, logger logger.Logger) *MenuHandler {
	return &MenuHandler{
		service: service,
		logger:  logger,
	}
}

type CreateTimeSlotRequest struct {
	VariantID   string `json:"variant_id"`
	ChannelID   string `json:"channel_id"`
	Weekday     int    `json:"weekday"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
}

type UpdateTimeSlotRequest struct {
	Weekday     *int  `json:"weekday,omitempty"`
	StartMinute *int  `json:"start_minute,omitempty"`
	EndMinute   *int  `json:"end_minute,omitempty"`
	IsActive    *bool `json:"is_active,omitempty"`
}

type TimeSlotResponse struct {
	ID          string `json:"id"`
	VariantID   string `json:"variant_id"`
	ChannelID   string `json:"channel_id"`
	Weekday     int    `json:"weekday"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	IsActive    bool   `json:"is_active"`
}

func timeSlotToResponse(s *domain.MenuTimeSlot) TimeSlotResponse {
	return TimeSlotResponse{
		ID:          s.ID.String(),
		VariantID:   s.VariantID.String(),
		ChannelID:   s.ChannelID.String(),
		Weekday:     s.Weekday,
		StartMinute: s.StartMinute,
		EndMinute:   s.EndMinute,
		IsActive:    s.IsActive,
	}
}

// HandleTimeSlots routes /menu/time-slots and /menu/time-slots/{id}.
func (h *MenuHandler) HandleTimeSlots(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 2:
		h.createTimeSlot(w, r)
	case len(parts) == 3:
		h.updateTimeSlot(w, r, parts[2])
	default:
		respondError(w, "Not found", http.StatusNotFound, nil)
	}
}

func (h *MenuHandler) createTimeSlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var req CreateTimeSlotRequest
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

	slot, err := h.service.CreateTimeSlot(r.Context(), interfaces.CreateTimeSlotCommand{
		VariantID:   variantID,
		ChannelID:   channelID,
		Weekday:     req.Weekday,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
	})
	if err != nil {
		h.logger.Error("time_slot_creation_failed", "Failed to create time slot", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, timeSlotToResponse(slot))
}

func (h *MenuHandler) updateTimeSlot(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodPatch {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, "Invalid time slot id", http.StatusBadRequest, nil)
		return
	}

	var req UpdateTimeSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	slot, err := h.service.UpdateTimeSlot(r.Context(), id, domain.MenuTimeSlotPatch{
		Weekday:     req.Weekday,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.logger.Error("time_slot_update_failed", "Failed to update time slot", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, timeSlotToResponse(slot))
}

// GetAvailability handles GET /menu/availability?variant_id=&channel_id=&at=.
func (h *MenuHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var validationErrors []ValidationError
	variantID, err := uuid.Parse(r.URL.Query().Get("variant_id"))
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "variant_id",
			Message: "variant id must be a valid UUID",
		})
	}
	channelID, err := uuid.Parse(r.URL.Query().Get("channel_id"))
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "channel_id",
			Message: "channel id must be a valid UUID",
		})
	}

	at := time.Now().UTC()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			validationErrors = append(validationErrors, ValidationError{
				Field:   "at",
				Message: "at must be an RFC3339 timestamp",
			})
		} else {
			at = parsed
		}
	}

	if len(validationErrors) > 0 {
		respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	available, err := h.service.IsAvailableAt(r.Context(), variantID, channelID, at)
	if err != nil {
		h.logger.Error("availability_query_failed", "Failed to check menu availability", "", nil, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"variant_id": variantID.String(),
		"channel_id": channelID.String(),
		"at":         at,
		"available":  available,
	})
}
