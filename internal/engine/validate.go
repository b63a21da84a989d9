package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func payloadValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// check validates v. Failures of a nested object are reported the way
// nested documents are: name is the object, description maps the field path
// to its messages. With an empty name the top-level field is the name.
func check(name string, v any) error {
	err := payloadValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: KindInternal, Location: "body", Name: name, Description: "Invalid payload", Err: err}
	}
	fe := verrs[0]
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}
	msg := describe(fe)
	if name == "" {
		head, rest, ok := strings.Cut(path, ".")
		if i := strings.IndexByte(head, '['); i > 0 {
			head = head[:i]
		}
		if !ok {
			return invalid(head, msg)
		}
		name, path = head, rest
	}
	return invalid(name, map[string][]string{path: {msg}})
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fieldRequired
	case "oneof":
		return fmt.Sprintf("Value must be one of [%s].", strings.Join(strings.Fields(fe.Param()), ", "))
	case "url", "http_url":
		return "Not a well formed URL."
	case "startswith", "len", "hexadecimal":
		return "Hash type is not supported."
	case "max":
		return fmt.Sprintf("Value is too long, at most %s allowed.", fe.Param())
	case "min":
		return fmt.Sprintf("Value is too short, at least %s required.", fe.Param())
	default:
		return "Invalid value."
	}
}
