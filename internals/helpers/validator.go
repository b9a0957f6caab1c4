package helper

import (
	"github.com/go-playground/validator/v10"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
)

// NewValidator returns a validator with the tenantkey tag registered: the
// value must normalize to a key usable in physical table names.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("tenantkey", func(fl validator.FieldLevel) bool {
		return normalizer.IsProvisionable(normalizer.Normalize(fl.Field().String()))
	})
	return v
}
