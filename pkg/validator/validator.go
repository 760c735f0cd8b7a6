package validator

import (
	"go-telehealth-booking/internal/domain/timeslot"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("clock", validateClock)
	_ = v.RegisterValidation("date", validateDate)

	return &CustomValidator{
		validator: v,
	}
}

// validateClock accepts HH:MM or HH:MM:SS
func validateClock(fl validator.FieldLevel) bool {
	_, err := timeslot.ParseClock(fl.Field().String())
	return err == nil
}

// validateDate accepts YYYY-MM-DD
func validateDate(fl validator.FieldLevel) bool {
	_, err := timeslot.ParseDate(fl.Field().String(), nil)
	return err == nil
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "min":
				errors[field] = field + " must be at least " + e.Param()
			case "max":
				errors[field] = field + " must be at most " + e.Param()
			case "uuid":
				errors[field] = field + " must be a valid UUID"
			case "clock":
				errors[field] = field + " must be a time of day in HH:MM format"
			case "date":
				errors[field] = field + " must be a date in YYYY-MM-DD format"
			case "oneof":
				errors[field] = field + " must be one of: " + e.Param()
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}
