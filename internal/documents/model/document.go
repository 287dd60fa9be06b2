package model

import "encoding/json"

// ActionArrayUpsert replaces the array element whose id matches, or appends.
const ActionArrayUpsert = "ARRAY_UPSERT"

// Document is a stored document rendered for clients.
type Document struct {
	ID string
	// Data is the canonical JSON serialization of the stored document.
	Data []byte
	// ETag is the digest of Data.
	ETag string
}

type PatchRequest struct {
	Action string          `json:"action" validate:"required,oneof=ARRAY_UPSERT"`
	Path   string          `json:"path" validate:"required,max=1024"`
	Data   json.RawMessage `json:"data" validate:"required,object_with_id"`
}
