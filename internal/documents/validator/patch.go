package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"jsonbin/internal/documents/model"
	"jsonbin/pkg/canonical"
	"jsonbin/pkg/docpath"
	"jsonbin/pkg/logger"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details renders the errors as a field → message map for error responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

type PatchValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewPatchValidator(log *logger.Logger) *PatchValidator {
	v := validator.New()

	v.RegisterTagNameFunc(jsonTagName)

	if err := v.RegisterValidation("object_with_id", validateObjectWithID); err != nil {
		log.Fatal("Failed to register 'object_with_id' validator", "error", err)
	}

	log.Debug("Patch validator initialized successfully")

	return &PatchValidator{
		validate: v,
		logger:   log,
	}
}

// validateObjectWithID accepts a JSON object that carries an "id" member.
func validateObjectWithID(fl validator.FieldLevel) bool {
	raw := fl.Field().Bytes()
	v, err := canonical.ParseJSON(raw)
	if err != nil {
		return false
	}
	obj, ok := v.(canonical.Object)
	return ok && obj.Has("id")
}

func jsonTagName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func (v *PatchValidator) Validate(req *model.PatchRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if _, err := docpath.Parse(req.Path); err != nil {
		return ValidationErrors{{Field: "path", Message: err.Error()}}
	}
	return nil
}

func (v *PatchValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "object_with_id":
			message = fmt.Sprintf("%s must be a JSON object with an id", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
