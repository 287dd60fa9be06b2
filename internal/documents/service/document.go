package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	documentserrors "jsonbin/internal/documents/errors"
	"jsonbin/internal/documents/events"
	"jsonbin/internal/documents/model"
	"jsonbin/internal/documents/repository"
	"jsonbin/internal/documents/validator"
	"jsonbin/pkg/canonical"
	"jsonbin/pkg/config"
	"jsonbin/pkg/docpath"
	apperrors "jsonbin/pkg/errors"
	"jsonbin/pkg/metrics"
	"jsonbin/pkg/middleware"

	"github.com/google/uuid"
)

// wrapKey holds non-object request bodies so every stored document is an object.
const wrapKey = "data"

type DocumentService interface {
	Create(ctx context.Context, raw []byte) (string, error)
	Get(ctx context.Context, id string) (*model.Document, error)
	Replace(ctx context.Context, id string, raw []byte) error
	Patch(ctx context.Context, id string, req *model.PatchRequest) error
	Delete(ctx context.Context, id string) error
}

type documentService struct {
	repo      repository.DocumentRepository
	validator *validator.PatchValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewDocumentService(
	repo repository.DocumentRepository,
	validator *validator.PatchValidator,
	publisher events.Publisher,
	cfg *config.Config,
) DocumentService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &documentService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func observe(op string, err error) {
	metrics.DocumentOps.WithLabelValues(op, metrics.Outcome(err)).Inc()
}

func (s *documentService) Create(ctx context.Context, raw []byte) (id string, err error) {
	defer func() { observe("create", err) }()

	doc, err := prepare(raw)
	if err != nil {
		s.cfg.Log.Warn("Rejected document body", "error", err)
		return "", err
	}

	id = uuid.NewString()
	if err := s.repo.Create(ctx, id, canonical.ToDocument(doc)); err != nil {
		s.cfg.Log.Error("Failed to create document",
			"id", id,
			"error", err,
		)
		return "", apperrors.Internal("Failed to create document", err)
	}

	s.cfg.Log.Info("Document created successfully", "id", id, "fields", len(doc))
	s.publish(ctx, events.DocumentCreated, id, doc)
	return id, nil
}

func (s *documentService) Get(ctx context.Context, id string) (_ *model.Document, err error) {
	defer func() { observe("get", err) }()

	stored, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.mapRepoError("get", id, err)
	}

	v, err := canonical.FromBSON(stored)
	if err != nil {
		s.cfg.Log.Error("Stored document holds an unsupported value",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to decode document", err)
	}

	data, err := canonical.Stringify(v)
	if err != nil {
		s.cfg.Log.Error("Failed to serialize document",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to serialize document", err)
	}

	return &model.Document{
		ID:   id,
		Data: data,
		ETag: canonical.DigestBytes(data),
	}, nil
}

func (s *documentService) Replace(ctx context.Context, id string, raw []byte) (err error) {
	defer func() { observe("replace", err) }()

	doc, err := prepare(raw)
	if err != nil {
		s.cfg.Log.Warn("Rejected document body", "id", id, "error", err)
		return err
	}

	if err := s.repo.Set(ctx, id, canonical.ToDocument(doc)); err != nil {
		return s.mapRepoError("replace", id, err)
	}

	s.cfg.Log.Info("Document replaced successfully", "id", id)
	s.publish(ctx, events.DocumentReplaced, id, doc)
	return nil
}

func (s *documentService) Patch(ctx context.Context, id string, req *model.PatchRequest) (err error) {
	defer func() { observe("array_upsert", err) }()

	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Patch validation failed",
			"id", id,
			"action", req.Action,
			"path", req.Path,
			"error", err,
		)
		return validationError(err)
	}

	path, err := docpath.Parse(req.Path)
	if err != nil {
		return validationError(validator.ValidationErrors{{Field: "path", Message: err.Error()}})
	}
	field, err := path.Field()
	if err != nil {
		return validationError(validator.ValidationErrors{{Field: "path", Message: err.Error()}})
	}

	item, err := canonical.ParseJSON(req.Data)
	if err != nil {
		return validationError(validator.ValidationErrors{{Field: "data", Message: err.Error()}})
	}
	itemObj, ok := item.(canonical.Object)
	if !ok {
		return validationError(validator.ValidationErrors{{Field: "data", Message: "data must be a JSON object with an id"}})
	}
	itemID, _ := itemObj.Get("id")

	var updated canonical.Value
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		stored, err := s.repo.Get(txCtx, id)
		if err != nil {
			return s.mapRepoError("array upsert", id, err)
		}

		doc, err := canonical.FromBSON(stored)
		if err != nil {
			return apperrors.Internal("Failed to decode document", err)
		}

		target, _ := path.Lookup(doc)
		arr, isArray := target.(canonical.Array)
		if !isArray {
			found := "missing"
			if target != nil {
				found = canonical.KindOf(target).String()
			}
			return apperrors.Validation(fmt.Sprintf("The value at %s is not an array", req.Path), map[string]any{
				"path":  req.Path,
				"found": found,
			})
		}

		next, replaced := upsert(arr, itemID, item)

		if err := s.repo.UpdateField(txCtx, id, field, canonical.ToBSON(next)); err != nil {
			return s.mapRepoError("array upsert", id, err)
		}

		updated, _ = path.Replace(doc, next)
		s.cfg.Log.Info("Array upserted successfully",
			"id", id,
			"path", req.Path,
			"replaced", replaced,
			"length", len(next),
		)
		return nil
	})
	if err != nil {
		if !apperrors.IsAppError(err) {
			s.cfg.Log.Error("Array upsert failed", "id", id, "error", err)
			return apperrors.Internal("Failed to update document", err)
		}
		return err
	}

	s.publish(ctx, events.DocumentArrayUpserted, id, updated)
	return nil
}

func (s *documentService) Delete(ctx context.Context, id string) (err error) {
	defer func() { observe("delete", err) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		s.cfg.Log.Error("Failed to delete document",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete document", err)
	}

	s.cfg.Log.Info("Document deleted successfully", "id", id)
	s.publish(ctx, events.DocumentDeleted, id, nil)
	return nil
}

// prepare parses a request body into the object that will be stored.
func prepare(raw []byte) (canonical.Object, error) {
	v, err := canonical.ParseJSON(raw)
	if err != nil {
		return nil, apperrors.InvalidInput("Malformed JSON body")
	}

	obj, ok := v.(canonical.Object)
	if !ok {
		return canonical.Object{{Key: wrapKey, Value: v}}, nil
	}
	if obj.Has("_id") {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s: _id", documentserrors.ErrReservedField))
	}
	// Stored documents are replaced whole, and a replacement may not carry
	// operator-like top-level keys.
	for _, m := range obj {
		if strings.HasPrefix(m.Key, "$") {
			return nil, apperrors.InvalidInput(fmt.Sprintf("%s: %s", documentserrors.ErrReservedField, m.Key))
		}
	}
	return obj, nil
}

// upsert replaces every element whose id strictly equals id, or appends item
// when none does. arr is not modified.
func upsert(arr canonical.Array, id canonical.Value, item canonical.Value) (canonical.Array, bool) {
	next := make(canonical.Array, 0, len(arr)+1)
	replaced := false
	for _, existing := range arr {
		if obj, ok := existing.(canonical.Object); ok {
			if existingID, ok := obj.Get("id"); ok && sameID(existingID, id) {
				next = append(next, item)
				replaced = true
				continue
			}
		}
		next = append(next, existing)
	}
	if !replaced {
		next = append(next, item)
	}
	return next, replaced
}

// sameID compares two ids the way JavaScript's === does: scalars by value,
// numbers numerically, and containers or opaque leaves never.
func sameID(a, b canonical.Value) bool {
	switch x := a.(type) {
	case canonical.Null:
		_, ok := b.(canonical.Null)
		return ok
	case canonical.Bool:
		y, ok := b.(canonical.Bool)
		return ok && x == y
	case canonical.Text:
		y, ok := b.(canonical.Text)
		return ok && x == y
	case canonical.Number:
		y, ok := b.(canonical.Number)
		if !ok {
			return false
		}
		fx, okx := x.Float64()
		fy, oky := y.Float64()
		return okx && oky && fx == fy
	default:
		return false
	}
}

func validationError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Patch validation failed", verrs.Details())
	}
	return apperrors.Validation("Patch validation failed", map[string]any{"error": err.Error()})
}

func (s *documentService) mapRepoError(op, id string, err error) error {
	if errors.Is(err, documentserrors.ErrNotFound) {
		return apperrors.NotFound()
	}
	s.cfg.Log.Error("Document store failure",
		"op", op,
		"id", id,
		"error", err,
	)
	return apperrors.Internal(fmt.Sprintf("Failed to %s document", op), err)
}

func (s *documentService) publish(ctx context.Context, eventType events.EventType, id string, doc canonical.Value) {
	var data []byte
	if doc != nil {
		b, err := canonical.Stringify(doc)
		if err != nil {
			s.cfg.Log.Error("Failed to serialize change event", "id", id, "error", err)
			return
		}
		data = b
	}

	s.publisher.Publish(ctx, events.Event{
		Type:          eventType,
		DocumentID:    id,
		Data:          data,
		CorrelationID: middleware.RequestIDFromContext(ctx),
	})
}
