package templates

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/fdg312/meal-planner/internal/userctx"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList handles GET /v1/meal/templates
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	list, err := h.service.List(r.Context(), ownerUserID)
	if err != nil {
		writeServiceError(w, err, "Failed to list templates")
		return
	}

	writeJSON(w, http.StatusOK, ListTemplatesResponse{Templates: list})
}

// HandleCreate handles POST /v1/meal/templates. The body is a JSON document,
// or YAML when Content-Type is application/yaml.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var doc Document
	if isYAML(r.Header.Get("Content-Type")) {
		data, err := readBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
			return
		}
		doc, err = ParseYAML(data)
		if err != nil {
			writeServiceError(w, err, "Failed to parse template")
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	dto, err := h.service.Create(r.Context(), ownerUserID, doc)
	if err != nil {
		writeServiceError(w, err, "Failed to create template")
		return
	}

	writeJSON(w, http.StatusCreated, dto)
}

// HandleGet handles GET /v1/meal/templates/{id}; ?format=yaml returns the document as YAML.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	dto, err := h.service.Get(r.Context(), ownerUserID, id)
	if err != nil {
		writeServiceError(w, err, "Failed to get template")
		return
	}

	if r.URL.Query().Get("format") == "yaml" {
		data, err := MarshalYAML(dto.Document)
		if err != nil {
			writeServiceError(w, err, "Failed to encode template")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// HandleDelete handles DELETE /v1/meal/templates/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), ownerUserID, id); err != nil {
		writeServiceError(w, err, "Failed to delete template")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleApply handles POST /v1/meal/templates/{id}/apply
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	ownerUserID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	dto, err := h.service.Get(r.Context(), ownerUserID, id)
	if err != nil {
		writeServiceError(w, err, "Failed to get template")
		return
	}

	view, err := h.service.Apply(r.Context(), ownerUserID, dto, req)
	if err != nil {
		writeServiceError(w, err, "Failed to apply template")
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

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid template id")
		return uuid.Nil, false
	}
	return id, true
}

func isYAML(contentType string) bool {
	return strings.Contains(contentType, "yaml")
}

func readBody(r *http.Request) ([]byte, error) {
	const maxBody = 1 << 20
	return io.ReadAll(io.LimitReader(r.Body, maxBody))
}

func writeServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case IsValidation(err):
		msg := err.Error()
		if i := strings.Index(msg, "validation failed: "); i >= 0 {
			msg = msg[i+len("validation failed: "):]
		}
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
	case errors.Is(err, storage.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Template not found")
	case errors.Is(err, ErrLimitReached):
		writeError(w, http.StatusConflict, "limit_reached", err.Error())
	default:
		log.Printf("ERROR templates: %v", err)
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
