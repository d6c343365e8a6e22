package validator

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v *validator.Validate

func init() {
	v = validator.New()
	_ = v.RegisterValidation("origin", validateOrigin)
}

func Instance() *validator.Validate {
	return v
}

// Validate returns field -> reason code, or nil when i is valid.
// Field keys are the struct namespace without the root type ("Database.Host").
func Validate(i any) map[string]string {
	if err := v.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			out := make(map[string]string, len(errs))
			for _, e := range errs {
				out[fieldPath(e)] = mapTagToCode(e.Tag())
			}
			return out
		}
		return map[string]string{"_error": "validation_failed"}
	}
	return nil
}

// Summary renders a Validate result deterministically: "A=required, B=too_small".
func Summary(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}
	return strings.Join(parts, ", ")
}

func fieldPath(e validator.FieldError) string {
	ns := e.StructNamespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// validateOrigin accepts "*" or a scheme://host[:port] origin without path.
func validateOrigin(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "*" {
		return true
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	return u.Path == "" && u.RawQuery == "" && u.Fragment == ""
}
