package exports

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/fdg312/meal-planner/internal/mealplans"
	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/fdg312/meal-planner/internal/userctx"
	"github.com/google/uuid"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleCreate handles POST /v1/meal/exports
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
		return
	}

	meta, err := h.service.Create(r.Context(), ownerUserID, req)
	if err != nil {
		writeServiceError(w, err, "Failed to create export")
		return
	}

	downloadURL, err := h.service.DownloadURL(r.Context(), meta, getBaseURL(r))
	if err != nil {
		writeServiceError(w, err, "Failed to generate download URL")
		return
	}

	writeJSON(w, http.StatusCreated, toDTO(meta, downloadURL))
}

// HandleList handles GET /v1/meal/exports?profile_id=&limit=&offset=
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit := DefaultListLimit
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	list, err := h.service.List(r.Context(), ownerUserID, q.Get("profile_id"), limit, offset)
	if err != nil {
		writeServiceError(w, err, "Failed to list exports")
		return
	}

	baseURL := getBaseURL(r)
	resp := ListExportsResponse{Exports: make([]ExportDTO, 0, len(list))}
	for i := range list {
		downloadURL, err := h.service.DownloadURL(r.Context(), &list[i], baseURL)
		if err != nil {
			log.Printf("WARN exports: download url for %s: %v", list[i].ID, err)
			downloadURL = ""
		}
		resp.Exports = append(resp.Exports, toDTO(&list[i], downloadURL))
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDownload handles GET /v1/meal/exports/{id}/download. Inline exports
// are streamed; uploaded ones redirect to a presigned URL.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	meta, err := h.service.Get(r.Context(), ownerUserID, id)
	if err != nil {
		writeServiceError(w, err, "Failed to get export")
		return
	}

	if meta.ObjectKey != nil {
		url, err := h.service.DownloadURL(r.Context(), meta, getBaseURL(r))
		if err != nil {
			writeServiceError(w, err, "Failed to generate download URL")
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", contentType(meta.Format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, Filename(meta)))
	w.Header().Set("Content-Length", strconv.Itoa(len(meta.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(meta.Data)
}

// HandleDelete handles DELETE /v1/meal/exports/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), ownerUserID, id); err != nil {
		writeServiceError(w, err, "Failed to delete export")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerUserID, ok := userctx.GetUserID(r.Context())
	if !ok || ownerUserID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Missing user")
		return "", false
	}
	return ownerUserID, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid export id")
		return uuid.Nil, false
	}
	return id, true
}

func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func writeServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "invalid_format", "Format must be 'csv' or 'pdf'")
	case errors.Is(err, mealplans.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", mealplans.ValidationMessage(err))
	case errors.Is(err, storage.ErrExportNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Export not found")
	default:
		log.Printf("ERROR exports: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", message)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

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
