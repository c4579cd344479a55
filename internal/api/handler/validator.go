package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// requestValidator adapts go-playground/validator to echo.Validator. Field
// names in messages are the JSON names clients send.
type requestValidator struct {
	v *validator.Validate
}

// NewValidator returns the validator assigned to echo.Echo.Validator. It knows
// the reminder vocabulary through the "channel" and "offsetunit" tags.
func NewValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
		switch domain.Channel(fl.Field().String()) {
		case domain.ChannelEmail, domain.ChannelPush:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("offsetunit", func(fl validator.FieldLevel) bool {
		spec := domain.ReminderSpec{OffsetValue: 1, OffsetUnit: domain.OffsetUnit(fl.Field().String())}
		return spec.Validate() == nil
	})
	return &requestValidator{v: v}
}

func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// fieldError renders one failed rule. Namespace keeps the index of nested
// reminders, e.g. reminders[1].offsetValue.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	if ns := fe.Namespace(); strings.Contains(ns, ".") {
		_, field, _ = strings.Cut(ns, ".")
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param())
	case "channel":
		return fmt.Sprintf("%s must be one of: %s, %s", field, domain.ChannelEmail, domain.ChannelPush)
	case "offsetunit":
		return fmt.Sprintf("%s must be one of: %s, %s, %s, %s", field,
			domain.UnitMinutes, domain.UnitHours, domain.UnitDays, domain.UnitWeeks)
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
