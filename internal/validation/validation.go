// Package validation registers the custom validator tags used by the request
// structs in internal/dto and turns validator failures into field errors.
package validation

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/japb1998/contacts/internal/errs"
	"github.com/japb1998/contacts/internal/model"
)

var (
	phonePattern    = regexp.MustCompile(`^[+]?[(]?[0-9]{1,4}[)]?[-\s.]?[(]?[0-9]{1,4}[)]?[-\s.]?[0-9]{1,4}[-\s.]?[0-9]{1,9}$`)
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	indexSuffix     = regexp.MustCompile(`\[\d+\]$`)
)

var messages = map[string]string{
	"name.required":           "Name is required",
	"name.min":                "Name must be at least 2 characters",
	"name.max":                "Name must not exceed 50 characters",
	"email.required":          "Email is required",
	"email.email":             "Invalid email format",
	"phone.required":          "Phone number is required",
	"phone.min":               "Phone number must be at least 10 digits",
	"phone.max":               "Phone number must not exceed 15 digits",
	"phone.phone":             "Invalid phone number format",
	"category.category":       "Category must be one of Work, Family, Friends, Other",
	"category.categoryfilter": "Category must be one of All, Work, Family, Friends, Other",
	"message.max":             "Message must not exceed 500 characters",
	"id.required":             "Invalid contact ID",
	"id.objectid":             "Invalid contact ID",
	"ids.required":            "At least one contact ID is required",
	"ids.min":                 "At least one contact ID is required",
	"ids.max":                 "Cannot delete more than 100 contacts at once",
	"ids.objectid":            "Invalid contact ID",
	"page.min":                "Page must be a positive number",
	"limit.min":               "Limit must be a positive number",
	"limit.max":               "Limit must not exceed 5000",
}

// Register installs the field name function and the custom tags on v. It is
// called on gin's validator engine and on the standalone validator.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(fieldName)

	validations := map[string]validator.Func{
		"phone": func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		},
		"objectid": func(fl validator.FieldLevel) bool {
			return IsObjectID(fl.Field().String())
		},
		"category": func(fl validator.FieldLevel) bool {
			return model.Category(fl.Field().String()).Valid()
		},
		"categoryfilter": func(fl validator.FieldLevel) bool {
			c := fl.Field().String()
			return c == model.CategoryAll || model.Category(c).Valid()
		},
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// IsObjectID reports whether s has the 24 hex character identifier shape.
func IsObjectID(s string) bool {
	return objectIDPattern.MatchString(s)
}

// fieldName reports struct fields by their wire name so errors read "email"
// instead of "Email".
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

var (
	std     *validator.Validate
	stdOnce sync.Once
)

func standalone() *validator.Validate {
	stdOnce.Do(func() {
		std = validator.New(validator.WithRequiredStructEnabled())
		std.SetTagName("binding")
		if err := Register(std); err != nil {
			panic(err)
		}
	})
	return std
}

// Struct validates v outside of a gin request, using the same binding tags.
// It returns a *errs.ValidationError or nil.
func Struct(v any) error {
	if err := standalone().Struct(v); err != nil {
		return &errs.ValidationError{Fields: Errors(err)}
	}
	return nil
}

// Errors converts a binding or validation failure into field errors,
// keeping every violation.
func Errors(err error) []errs.FieldError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]errs.FieldError, len(ve))
		for i, fe := range ve {
			out[i] = errs.FieldError{
				Field:   fe.Field(),
				Message: getErrorMsg(fe),
			}
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []errs.FieldError{{Field: typeErr.Field, Message: "Expected " + typeErr.Type.String()}}
	}

	if errors.Is(err, io.EOF) {
		return []errs.FieldError{{Field: "body", Message: "Request body is required"}}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return []errs.FieldError{{Field: "body", Message: "Invalid JSON payload"}}
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return []errs.FieldError{{Field: "query", Message: "Expected a number, got " + strconv.Quote(numErr.Num)}}
	}

	var validationErr *errs.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}

	return []errs.FieldError{{Field: "body", Message: err.Error()}}
}

func getErrorMsg(fe validator.FieldError) string {
	field := indexSuffix.ReplaceAllString(fe.Field(), "")
	if msg, ok := messages[field+"."+fe.Tag()]; ok {
		return msg
	}

	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Should have min value of " + fe.Param()
	case "max":
		return "Should have max value of " + fe.Param()
	case "email":
		return "Invalid email format"
	case "objectid":
		return "Invalid id"
	}
	return "Invalid value"
}
