package service

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validEmail reports whether s is a syntactically valid email address
func validEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}
