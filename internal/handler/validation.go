package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/practiva/scheduling-api/pkg/timerange"
)

// RegisterValidations installs the request-level format checks used by the
// binding tags on request DTOs.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		_, err := timerange.ParseClock(fl.Field().String())
		return err == nil
	})
}
