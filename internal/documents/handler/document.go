package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"jsonbin/internal/documents/model"
	"jsonbin/internal/documents/service"
	apperrors "jsonbin/pkg/errors"
	httputil "jsonbin/pkg/http"
	"jsonbin/pkg/logger"
)

type DocumentHandler struct {
	service service.DocumentService
	log     *logger.Logger
}

func NewDocumentHandler(service service.DocumentService, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		log:     log,
	}
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	id, err := h.service.Create(r.Context(), body)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, id); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	doc, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	etag := `"` + doc.ETag + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		httputil.WriteNotModified(w)
		return
	}

	if err := httputil.WriteData(w, doc.Data); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteData", "error", err)
	}
}

func (h *DocumentHandler) Replace(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, "Replace", err)
		return
	}

	if err := h.service.Replace(r.Context(), ps.ByName("id"), body); err != nil {
		h.writeError(w, "Replace", err)
		return
	}

	if err := httputil.WriteSuccess(w, httputil.MsgUpdated); err != nil {
		h.log.Error("failed to write success response", "handler", "Replace", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DocumentHandler) Patch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, "Patch", err)
		return
	}

	var req model.PatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, "Patch", apperrors.InvalidInput("Malformed JSON body"))
		return
	}

	if err := h.service.Patch(r.Context(), ps.ByName("id"), &req); err != nil {
		h.writeError(w, "Patch", err)
		return
	}

	if err := httputil.WriteSuccess(w, httputil.MsgUpdated); err != nil {
		h.log.Error("failed to write success response", "handler", "Patch", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteSuccess(w, httputil.MsgDeleted); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DocumentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/", h.Create)
	router.GET("/:id", h.Get)
	router.PUT("/:id", h.Replace)
	router.PATCH("/:id", h.Patch)
	router.DELETE("/:id", h.Delete)
}

func (h *DocumentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.PayloadTooLarge(maxErr.Limit)
		}
		return nil, apperrors.InvalidInput("Failed to read request body")
	}
	return body, nil
}

// etagMatches implements the weak comparison If-None-Match uses.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
