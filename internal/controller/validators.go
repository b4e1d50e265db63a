package controller

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var transactionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// RegisterValidators installs the custom binding rules. Called once at
// startup.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("txid", func(fl validator.FieldLevel) bool {
			return transactionIDPattern.MatchString(fl.Field().String())
		})
	}
}
