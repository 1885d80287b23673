package accounts

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/go-playground/validator/v10"
)

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,max=50,identifier"`
	Email     string `json:"email" validate:"required,email,max=120"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name,omitempty" validate:"max=50"`
	LastName  string `json:"last_name,omitempty" validate:"max=50"`
}

func (in RegisterInput) Profile() Profile {
	return Profile{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
}

// ValidationErrors collects every rule an input broke. Each element wraps
// common.ErrorValidation.
type ValidationErrors []error

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e ValidationErrors) Unwrap() []error { return e }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// usernames are matched exactly, so blanks and control characters are refused
	if err := v.RegisterValidation("identifier", validIdentifier); err != nil {
		panic(fmt.Sprintf("register identifier rule: %v", err))
	}
	return v
}

func validIdentifier(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
}

// Validate checks the input. A short or missing password is reported as
// common.ErrorPasswordTooShort and an over-long one as
// common.ErrorPasswordTooLong, next to any other violations.
func (in RegisterInput) Validate() error {
	var errs ValidationErrors

	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		for _, fe := range fieldErrs {
			if fe.StructField() == "Password" {
				errs = append(errs, common.ErrorPasswordTooShort)
				continue
			}
			errs = append(errs, fmt.Errorf("%w: %s %s", common.ErrorValidation, fe.Field(), describe(fe)))
		}
	}

	if len(in.Password) > common.MaxPasswordBytes {
		errs = append(errs, common.ErrorPasswordTooLong)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "identifier":
		return "must not contain whitespace"
	default:
		return "is invalid"
	}
}
