// Package validator wraps go-playground/validator with the custom rules
// request DTOs and widget field rules may reference.
package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Custom rule tags.
const (
	TagNotBlank   = "notblank"
	TagUKPostcode = "ukpostcode"
)

var ukPostcode = regexp.MustCompile(`(?i)^(GIR ?0AA|[A-PR-UWYZ]([0-9]{1,2}|[A-HK-Y][0-9]([0-9ABEHMNPRV-Y])?|[0-9][A-HJKPS-UW]) ?[0-9][ABD-HJLNP-UW-Z]{2})$`)

// Validator is safe for concurrent use once rules are registered.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation(TagNotBlank, notBlank)
	_ = v.RegisterValidation(TagUKPostcode, isUKPostcode)
	return &Validator{v: v}
}

func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

// Var checks one value against a rule string such as "required,max=10".
// An unknown tag panics inside the library.
func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// isUKPostcode accepts an empty value so the rule composes with "required".
func isUKPostcode(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	return s == "" || ukPostcode.MatchString(s)
}
