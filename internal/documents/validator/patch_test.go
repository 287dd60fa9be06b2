package validator

import (
	"encoding/json"
	"errors"
	"testing"

	"jsonbin/internal/documents/model"
	"jsonbin/pkg/logger"
)

func TestPatchValidator_Validate(t *testing.T) {
	v := NewPatchValidator(logger.Discard())

	tests := []struct {
		name      string
		req       model.PatchRequest
		wantErr   bool
		wantField string
	}{
		{
			name: "valid upsert",
			req: model.PatchRequest{
				Action: model.ActionArrayUpsert,
				Path:   "messages",
				Data:   json.RawMessage(`{"id":1,"text":"hi"}`),
			},
		},
		{
			name: "valid nested path with null id",
			req: model.PatchRequest{
				Action: model.ActionArrayUpsert,
				Path:   `rooms[0]["chat log"]`,
				Data:   json.RawMessage(`{"id":null}`),
			},
		},
		{
			name:      "missing action",
			req:       model.PatchRequest{Path: "a", Data: json.RawMessage(`{"id":1}`)},
			wantErr:   true,
			wantField: "action",
		},
		{
			name:      "unknown action",
			req:       model.PatchRequest{Action: "ARRAY_REMOVE", Path: "a", Data: json.RawMessage(`{"id":1}`)},
			wantErr:   true,
			wantField: "action",
		},
		{
			name:      "missing path",
			req:       model.PatchRequest{Action: model.ActionArrayUpsert, Data: json.RawMessage(`{"id":1}`)},
			wantErr:   true,
			wantField: "path",
		},
		{
			name:      "malformed path",
			req:       model.PatchRequest{Action: model.ActionArrayUpsert, Path: "a..b", Data: json.RawMessage(`{"id":1}`)},
			wantErr:   true,
			wantField: "path",
		},
		{
			name:      "missing data",
			req:       model.PatchRequest{Action: model.ActionArrayUpsert, Path: "a"},
			wantErr:   true,
			wantField: "data",
		},
		{
			name:      "data without id",
			req:       model.PatchRequest{Action: model.ActionArrayUpsert, Path: "a", Data: json.RawMessage(`{"name":"x"}`)},
			wantErr:   true,
			wantField: "data",
		},
		{
			name:      "data not an object",
			req:       model.PatchRequest{Action: model.ActionArrayUpsert, Path: "a", Data: json.RawMessage(`[1,2]`)},
			wantErr:   true,
			wantField: "data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error for field %s", tt.wantField)
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			if _, ok := verrs.Details()[tt.wantField]; !ok {
				t.Errorf("expected error on field %s, got %v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{{Field: "path", Message: "path is required"}}
	want := "validation failed: 1 error(s): [path: path is required]"
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
	if (ValidationErrors{}).Error() != "" {
		t.Errorf("empty ValidationErrors should render as empty string")
	}
}
