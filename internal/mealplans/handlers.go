package mealplans

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/fdg312/meal-planner/internal/planstore"
	"github.com/fdg312/meal-planner/internal/userctx"
)

// Handler handles HTTP requests for meal plans.
type Handler struct {
	service *Service
}

// NewHandler creates a new meal plans handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGetPlan handles GET /v1/meal/plan?profile_id=
func (h *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	profileID := r.URL.Query().Get("profile_id")
	if profileID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "profile_id is required")
		return
	}

	resp, err := h.service.GetPlan(r.Context(), ownerUserID, profileID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to get meal plan")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDeletePlan handles DELETE /v1/meal/plan?profile_id=
func (h *Handler) HandleDeletePlan(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearPlan(r.Context(), ownerUserID, r.URL.Query().Get("profile_id")); err != nil {
		h.writeServiceError(w, err, "Failed to delete meal plan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleGetWeek handles GET /v1/meal/plan/week?profile_id=&week=
func (h *Handler) HandleGetWeek(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	view, err := h.service.GetWeek(r.Context(), ownerUserID, WeekRef{ProfileID: q.Get("profile_id"), Week: q.Get("week")})
	if err != nil {
		h.writeServiceError(w, err, "Failed to get week")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleGetDay handles GET /v1/meal/plan/day?profile_id=&week=&day=
func (h *Handler) HandleGetDay(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	slot, ok := slotFromQuery(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetDay(r.Context(), ownerUserID, slot)
	if err != nil {
		h.writeServiceError(w, err, "Failed to get day")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleAddMeal handles POST /v1/meal/plan/meals
func (h *Handler) HandleAddMeal(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddMealRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := h.service.AddMeals(r.Context(), ownerUserID, req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to add meal")
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// HandleRemoveMeal handles DELETE /v1/meal/plan/meals?profile_id=&week=&day=&position=
func (h *Handler) HandleRemoveMeal(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	slot, ok := slotFromQuery(w, r)
	if !ok {
		return
	}

	position, err := strconv.Atoi(r.URL.Query().Get("position"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "position must be an integer")
		return
	}

	resp, err := h.service.RemoveMeal(r.Context(), ownerUserID, slot, position)
	if err != nil {
		h.writeServiceError(w, err, "Failed to remove meal")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleReorderMeal handles POST /v1/meal/plan/meals/reorder
func (h *Handler) HandleReorderMeal(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ReorderMealRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.ReorderMeal(r.Context(), ownerUserID, req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to reorder meal")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleApplyDayTemplate handles PUT /v1/meal/plan/day/template
func (h *Handler) HandleApplyDayTemplate(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req DayTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := h.service.ApplyDailyTemplate(r.Context(), ownerUserID, req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to apply daily template")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleApplyWeekTemplate handles PUT /v1/meal/plan/week/template
func (h *Handler) HandleApplyWeekTemplate(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req WeekTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := h.service.ApplyWeeklyTemplate(r.Context(), ownerUserID, req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to apply weekly template")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleClearDay handles POST /v1/meal/plan/day/clear
func (h *Handler) HandleClearDay(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req Slot
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := h.service.ClearDay(r.Context(), ownerUserID, req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to clear day")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleClearWeek handles POST /v1/meal/plan/week/clear
func (h *Handler) HandleClearWeek(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req WeekRef
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := h.service.ClearWeek(r.Context(), ownerUserID, req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to clear week")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleSetGoal handles PUT /v1/meal/goals
func (h *Handler) HandleSetGoal(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SetGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := h.service.SetGoal(r.Context(), ownerUserID, req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to set goal")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleRemoveGoal handles DELETE /v1/meal/goals?profile_id=&week=&day=
// Without day every goal of the week is reset.
func (h *Handler) HandleRemoveGoal(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	if q.Get("day") == "" {
		view, err := h.service.ClearWeekGoals(r.Context(), ownerUserID, WeekRef{ProfileID: q.Get("profile_id"), Week: q.Get("week")})
		if err != nil {
			h.writeServiceError(w, err, "Failed to clear goals")
			return
		}
		writeJSON(w, http.StatusOK, view)
		return
	}

	slot, ok := slotFromQuery(w, r)
	if !ok {
		return
	}

	view, err := h.service.RemoveGoal(r.Context(), ownerUserID, slot)
	if err != nil {
		h.writeServiceError(w, err, "Failed to remove goal")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerUserID, ok := userctx.GetUserID(r.Context())
	if !ok || ownerUserID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Missing user")
		return "", false
	}
	return ownerUserID, true
}

// slotFromQuery reads profile_id, week and day; day accepts a number or a name.
func slotFromQuery(w http.ResponseWriter, r *http.Request) (Slot, bool) {
	q := r.URL.Query()
	day, err := planstore.ParseDayOfWeek(q.Get("day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return Slot{}, false
	}
	return Slot{ProfileID: q.Get("profile_id"), Week: q.Get("week"), Day: int(day)}, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, ErrValidation) {
		writeError(w, http.StatusBadRequest, "invalid_request", ValidationMessage(err))
		return
	}
	log.Printf("ERROR mealplans: %v", err)
	writeError(w, http.StatusInternalServerError, "internal_error", message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
