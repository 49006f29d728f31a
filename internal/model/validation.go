package model

import (
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the custom binding rules used by the request
// types. It must run before the first request is bound.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("appointment_status", func(fl validator.FieldLevel) bool {
		return AppointmentStatus(fl.Field().String()).Valid()
	})
}
