package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// rule renders f as a validator rule string, e.g. "required,max=254,email".
// Length bounds and formats apply to strings only.
func (f Field) rule() string {
	rules := []string{"omitempty"}
	if f.Required {
		rules[0] = "required"
	}

	if f.Type == TypeString {
		if f.MinLength > 0 {
			rules = append(rules, fmt.Sprintf("min=%d", f.MinLength))
		}
		if f.MaxLength > 0 {
			rules = append(rules, fmt.Sprintf("max=%d", f.MaxLength))
		}
		if f.Format == FormatEmail {
			rules = append(rules, "email")
		}
	}

	return strings.Join(rules, ",")
}

// target is what the validator sees for f. Values go in behind a pointer so
// that "required" means present: a present zero value passes, a nil pointer
// fails.
func (f Field) target(v any, present bool) any {
	switch f.Type {
	case TypeString:
		if !present {
			return (*string)(nil)
		}
		s := v.(string)
		return &s
	case TypeNumber:
		if !present {
			return (*float64)(nil)
		}
		n := v.(float64)
		return &n
	case TypeInteger:
		if !present {
			return (*int64)(nil)
		}
		n := v.(int64)
		return &n
	case TypeBoolean:
		if !present {
			return (*bool)(nil)
		}
		b := v.(bool)
		return &b
	}
	return v
}

// message turns the first validator failure into a user-facing issue message.
func message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid value"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min":
		return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
	case "email":
		return "Invalid email"
	}
	return "Invalid value"
}
