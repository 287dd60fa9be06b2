package http

import (
	"encoding/json"
	"net/http"

	apperrors "jsonbin/pkg/errors"
)

type DataResponse struct {
	Data json.RawMessage `json:"data"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type SuccessResponse struct {
	Success string `json:"success"`
}

const (
	MsgUpdated = "Item updated"
	MsgDeleted = "Item deleted"
)

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

// WriteError maps err to its AppError status and client-facing body.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)
	return WriteJSON(w, appErr.StatusCode(), appErr.Response())
}

// WriteData writes an already-serialized document under the "data" key.
func WriteData(w http.ResponseWriter, doc []byte) error {
	return WriteJSON(w, http.StatusOK, DataResponse{Data: doc})
}

func WriteCreated(w http.ResponseWriter, id string) error {
	return WriteJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: message})
}

func WriteNotModified(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotModified)
}
