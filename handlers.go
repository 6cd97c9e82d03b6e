package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 20

// Handler handles HTTP requests for items.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler creates a Handler with dependencies.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Routes wires the item endpoints behind authentication and request logging.
func (h *Handler) Routes(auth *Authenticator) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/whoami", h.whoamiHandler)
	api.HandleFunc("/items", h.itemsHandler)
	api.HandleFunc("/items/", h.itemHandler)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	mux.Handle("/", authMiddleware(auth, h.logger)(api))
	return loggingMiddleware(h.logger)(mux)
}

// whoamiHandler processes GET /whoami.
func (h *Handler) whoamiHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"identity": h.svc.Whoami(r.Context())})
}

// itemsHandler routes requests without ID: GET for list, POST for create.
func (h *Handler) itemsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListItems(w, r)
	case http.MethodPost:
		h.handleCreateItem(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// itemHandler routes requests with ID: GET, PUT, DELETE.
func (h *Handler) itemHandler(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/items/")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: item id %q", ErrInvalidInput, raw))
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.handleGetItem(w, r, id)
	case http.MethodPut:
		h.handleUpdateItem(w, r, id)
	case http.MethodDelete:
		h.handleDeleteItem(w, r, id)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// handleListItems processes GET /items and GET /items?scope=mine.
func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	var (
		items []Item
		err   error
	)
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "all":
		items, err = h.svc.ListAll(r.Context())
	case "mine":
		items, err = h.svc.ListMine(r.Context())
	default:
		err = fmt.Errorf("%w: unknown scope %q", ErrInvalidInput, scope)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleCreateItem processes POST /items.
func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	p, err := decodeItemPayload(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	item, err := h.svc.Create(r.Context(), CreateItemRequest{Name: *p.Name, Description: *p.Description})
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/items/%d", item.ID))
	writeJSON(w, http.StatusCreated, item)
}

// handleGetItem processes GET /items/{id}.
func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request, id uint64) {
	item, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleUpdateItem processes PUT /items/{id}.
func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request, id uint64) {
	p, err := decodeItemPayload(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	item, err := h.svc.Update(r.Context(), UpdateItemRequest{ID: id, Name: *p.Name, Description: *p.Description})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleDeleteItem processes DELETE /items/{id}.
func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request, id uint64) {
	msg, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// decodeItemPayload reads a create/update body; both text fields are required.
func decodeItemPayload(w http.ResponseWriter, r *http.Request) (itemPayload, error) {
	var p itemPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return itemPayload{}, fmt.Errorf("%w: invalid request payload: %v", ErrInvalidInput, err)
	}
	if err := ensureSingleJSON(dec); err != nil {
		return itemPayload{}, err
	}
	if !p.complete() {
		return itemPayload{}, fmt.Errorf("%w: name and description are required", ErrInvalidInput)
	}
	return p, nil
}

// ensureSingleJSON ensures only a single JSON object is in the request body.
func ensureSingleJSON(dec *json.Decoder) error {
	if t, err := dec.Token(); err != io.EOF || t != nil {
		return fmt.Errorf("%w: request body must only contain a single JSON object", ErrInvalidInput)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  Code   `json:"code"`
}

// writeError renders err with the status matching its kind. Storage failures
// are logged and replaced by a generic message.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := errorCode(err)
	status := http.StatusInternalServerError
	msg := err.Error()
	switch code {
	case CodeNotFound:
		status = http.StatusNotFound
	case CodeForbidden:
		status = http.StatusForbidden
	case CodeInvalidInput:
		status = http.StatusBadRequest
	default:
		h.logger.Error("item operation failed", "error", err)
		msg = http.StatusText(http.StatusInternalServerError)
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
