package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iho/gobooks/internal/domain"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = time.DateOnly

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterAlias("reference", fmt.Sprintf("max=%d", domain.MaxReferenceLength))
	return v
}

// Validate checks struct tags on a request. Failures are returned as a
// *RequestError.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make([]ErrorDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, ErrorDetail{
			Field:  trimNamespace(fe.Namespace()),
			Reason: describeTag(fe),
		})
	}
	return &RequestError{Details: details}
}

// RequestError reports request fields that failed validation.
type RequestError struct {
	Details []ErrorDetail
}

func (e *RequestError) Error() string {
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = d.Field + ": " + d.Reason
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &RequestError{Details: []ErrorDetail{{Field: "date", Reason: "must be a YYYY-MM-DD date"}}}
	}
	return t, nil
}

// trimNamespace drops the struct name validator puts in front of the path.
func trimNamespace(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be %s characters", fe.Param())
	case "numeric":
		return "must be numeric"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "reference":
		return fmt.Sprintf("must be at most %d characters", domain.MaxReferenceLength)
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "datetime":
		return "must be a YYYY-MM-DD date"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
