package validator

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Bounds on accepted decimals. Larger exponents make arithmetic on
// fractional values allocate coefficients of unbounded size.
const (
	MaxDecimalExponent = 28
	MaxDecimalDigits   = 38
)

// DecimalInRange reports whether d has at most MaxDecimalDigits digits and an
// exponent within ±MaxDecimalExponent.
func DecimalInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp > MaxDecimalExponent || exp < -MaxDecimalExponent {
		return false
	}
	return d.NumDigits() <= MaxDecimalDigits
}

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
func NewDefaultValidator() (*DefaultValidator, error) {
	v := validator.New()

	// decimals are validated through their string form
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})

	if err := v.RegisterValidation("decimal_gte0", validateNonNegativeDecimal); err != nil {
		return nil, fmt.Errorf("register decimal_gte0 validator: %w", err)
	}

	return &DefaultValidator{v: v}, nil
}

func (v DefaultValidator) Validate(s any) error {
	return v.v.Struct(s)
}

// IsValidationError checks if the given error is a validation error
func IsValidationError(err error) bool {
	_, ok := err.(validator.ValidationErrors)
	return ok
}

func ValidationErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "decimal_gte0":
		return "must be a non-negative decimal number"
	default:
		return "is invalid"
	}
}

// decimalValue returns the string form of a decimal field. Out-of-range values
// map to "" so decimal tags reject them without expanding the exponent.
func decimalValue(field reflect.Value) any {
	switch d := field.Interface().(type) {
	case decimal.Decimal:
		return rangedString(d)
	case decimal.NullDecimal:
		if !d.Valid {
			return nil
		}
		return rangedString(d.Decimal)
	default:
		return nil
	}
}

func rangedString(d decimal.Decimal) string {
	if !DecimalInRange(d) {
		return ""
	}
	return d.String()
}

func validateNonNegativeDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}

	return DecimalInRange(d) && !d.IsNegative()
}
