package validator

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is a validator that validates the given struct.
type Validator interface {
	// Validate validates the given struct
	Validate(s any) error
}

type DefaultValidator struct {
	v *validator.Validate
}

// NewDefaultValidator creates a new default validator.
// It returns a new DefaultValidator and an error if the validator registration fails.
//
// Field names reported in validation errors are taken from the json tag.
func NewDefaultValidator() (*DefaultValidator, error) {
	v := validator.New()
	v.RegisterTagNameFunc(jsonTagName)

	// Register custom validators
	if err := v.RegisterValidation("notblank", validateNotBlank); err != nil {
		return nil, fmt.Errorf("register notblank validator: %w", err)
	}

	if err := v.RegisterValidation("posint", validatePositiveInt); err != nil {
		return nil, fmt.Errorf("register posint validator: %w", err)
	}

	if err := v.RegisterValidation("nonnegint", validateNonNegativeInt); err != nil {
		return nil, fmt.Errorf("register nonnegint validator: %w", err)
	}

	if err := v.RegisterValidation("maxdecimals", validateMaxDecimals); err != nil {
		return nil, fmt.Errorf("register maxdecimals validator: %w", err)
	}

	return &DefaultValidator{v: v}, nil
}

func (v DefaultValidator) Validate(s any) error {
	return v.v.Struct(s)
}

// IsValidationError checks if the given error is a validation error
func IsValidationError(err error) bool {
	var validationErrs validator.ValidationErrors
	return errors.As(err, &validationErrs)
}

func ValidationErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "notblank":
		return "must not be blank"
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "posint":
		return "must be a positive integer"
	case "nonnegint":
		return "must be a non-negative integer"
	case "maxdecimals":
		return fmt.Sprintf("must have at most %s decimal places", fe.Param())
	default:
		return "is invalid"
	}
}

// ParseInt32 parses a decimal string holding an integral number, accepting
// forms such as "3" and "3.0". It fails on fractions and on values outside
// the int32 range.
func ParseInt32(s string) (int32, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse number: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %s", s)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("out of range: %s", s)
	}
	return int32(f), nil
}

func jsonTagName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validatePositiveInt(fl validator.FieldLevel) bool {
	n, err := ParseInt32(fl.Field().String())
	return err == nil && n > 0
}

func validateNonNegativeInt(fl validator.FieldLevel) bool {
	n, err := ParseInt32(fl.Field().String())
	return err == nil && n >= 0
}

// validateMaxDecimals checks the shortest decimal form of a float, so 10.01
// passes with param 2 while 10.005 does not.
func validateMaxDecimals(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
	default:
		return false
	}

	formatted := strconv.FormatFloat(fl.Field().Float(), 'f', -1, 64)
	_, fraction, _ := strings.Cut(formatted, ".")
	return len(fraction) <= limit
}
