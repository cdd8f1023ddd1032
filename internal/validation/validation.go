// Package validation checks request payloads before they reach the services.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// emailPattern is intentionally loose: something@something.something.
	emailPattern  = regexp.MustCompile(`\S+@\S+\.\S+`)
	handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Use JSON tag names for field names in errors
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
			return IsEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
			return handlePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("image_ref", func(fl validator.FieldLevel) bool {
			return IsImageRef(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// IsEmail applies the loose email rule used across the API.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// IsImageRef accepts absolute http(s) URLs and site-relative paths.
func IsImageRef(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") ||
		(strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//"))
}

// IsHandle reports whether s can be used as a username.
func IsHandle(s string) bool {
	return handlePattern.MatchString(s)
}

// Validate checks v against its struct tags and returns the first failure as
// a readable error, or nil.
func Validate(v interface{}) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return errors.New(Message(fieldErrs[0]))
	}
	return err
}

// Message renders one field error for humans.
func Message(e validator.FieldError) string {
	label := humanize(e.Field())
	switch e.Tag() {
	case "required":
		return label + " is required"
	case "loose_email":
		return "Please enter a valid email address"
	case "handle":
		return label + " may only contain letters, numbers, underscores and dashes"
	case "image_ref":
		return label + " must be an http(s) URL or an absolute path"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, e.Param())
		}
		return fmt.Sprintf("%s must contain at least %s items", label, e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, e.Param())
		}
		return fmt.Sprintf("%s must contain at most %s items", label, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(e.Param(), " ", ", "))
	default:
		return label + " is invalid"
	}
}

func humanize(field string) string {
	// dive errors look like tags[0]
	if i := strings.IndexByte(field, '['); i > 0 {
		field = strings.TrimSuffix(field[:i], "s") + " " + field[i:]
	}
	field = strings.ReplaceAll(field, "_", " ")
	if field == "" {
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
