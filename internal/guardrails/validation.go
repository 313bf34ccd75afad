package guardrails

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidationError is the body of a rejected request.
type ValidationError struct {
	Message string       `json:"error"`
	Details []FieldError `json:"details"`
}

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func Invalid(details ...FieldError) *ValidationError {
	return &ValidationError{Message: "invalid request", Details: details}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

var jsonNamesOnce sync.Once

// UseJSONFieldNames makes gin's validator report json field names. Only the
// first call touches the shared validator.
func UseJSONFieldNames() {
	jsonNamesOnce.Do(registerJSONNames)
}

func registerJSONNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

// FromBinding converts a request binding failure into a *ValidationError.
func FromBinding(err error) *ValidationError {
	var (
		ve        validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
		already   *ValidationError
	)
	switch {
	case errors.As(err, &already):
		return already
	case errors.As(err, &ve):
		details := make([]FieldError, 0, len(ve))
		for _, fe := range ve {
			details = append(details, FieldError{
				Field:   fieldPath(fe.Namespace()),
				Rule:    fe.Tag(),
				Message: describe(fe),
			})
		}
		return Invalid(details...)
	case errors.As(err, &tooLarge):
		return Invalid(FieldError{Field: "body", Rule: "max_bytes",
			Message: fmt.Sprintf("must be at most %d bytes", tooLarge.Limit)})
	case errors.As(err, &typeErr):
		return Invalid(FieldError{Field: typeErr.Field, Rule: "type",
			Message: fmt.Sprintf("must be a %s", typeErr.Type)})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return Invalid(FieldError{Field: "body", Rule: "json", Message: "malformed JSON"})
	case errors.Is(err, io.EOF):
		return Invalid(FieldError{Field: "body", Rule: "required", Message: "request body is empty"})
	default:
		return Invalid(FieldError{Field: "body", Rule: "invalid", Message: err.Error()})
	}
}

// fieldPath drops the root struct name: "ChatRequest.messages[0].role"
// becomes "messages[0].role".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	unit := "characters"
	if fe.Kind() == reflect.Slice {
		unit = "items"
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s %s", fe.Param(), unit)
	case "max":
		return fmt.Sprintf("must have at most %s %s", fe.Param(), unit)
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}
