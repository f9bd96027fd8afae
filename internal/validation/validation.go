// Package validation checks form input before it is sent to the backend.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^@ ]+@[^@ ]+\.[^@ ]{2,}$`)

type FieldError struct {
	Field   string
	Message string
}

type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		messages = append(messages, field.Message)
	}
	return strings.Join(messages, "; ")
}

// First is the message shown in a toast.
func (e *Error) First() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Message
}

// Field returns the message for one field, empty when it passed.
func (e *Error) Field(name string) string {
	for _, field := range e.Fields {
		if field.Field == name {
			return field.Message
		}
	}
	return ""
}

type registerForm struct {
	Username string `json:"username" validate:"required,min=5"`
	Email    string `json:"email" validate:"required,email_address"`
	Password string `json:"password" validate:"required,min=8,has_digit,has_upper"`
}

type loginForm struct {
	Identifier string `json:"identifier" validate:"required,email_address"`
	Password   string `json:"password" validate:"required"`
}

type profileForm struct {
	Username string `json:"username" validate:"required,min=5"`
	Email    string `json:"email" validate:"required,email_address"`
}

type passwordForm struct {
	CurrentPassword      string `json:"currentPassword" validate:"required"`
	Password             string `json:"password" validate:"required,min=8,has_digit,has_upper"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,eqfield=Password"`
}

type todoForm struct {
	Title string `json:"title" validate:"not_blank"`
}

// messages is keyed by "field.tag".
var messages = map[string]string{
	"username.required":             "Username is required!",
	"username.min":                  "Username must be at least 5 characters long",
	"email.required":                "Email is required!",
	"email.email_address":           "Please enter a valid email address",
	"identifier.required":           "Email is required!",
	"identifier.email_address":      "Please enter a valid email address",
	"password.required":             "Password is required!",
	"password.min":                  "Password must be at least 8 characters long",
	"password.has_digit":            "Password must contain at least one number",
	"password.has_upper":            "Password must contain at least one uppercase letter",
	"currentPassword.required":      "Current password is required!",
	"passwordConfirmation.required": "Please confirm your new password",
	"passwordConfirmation.eqfield":  "Passwords must match",
	"title.not_blank":               "Title is required",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "email_address", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "has_digit", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsDigit) >= 0
	})
	mustRegister(v, "has_upper", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0
	})
	mustRegister(v, "not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		message, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			message = fe.Field() + " is invalid"
		}
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message})
	}
	return out
}

func Register(input api.RegisterInput) error {
	return check(registerForm{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.TrimSpace(input.Email),
		Password: input.Password,
	})
}

func Login(input api.LoginInput) error {
	return check(loginForm{Identifier: strings.TrimSpace(input.Identifier), Password: input.Password})
}

func Profile(input api.ProfileInput) error {
	return check(profileForm{Username: strings.TrimSpace(input.Username), Email: strings.TrimSpace(input.Email)})
}

func Password(input api.PasswordInput) error {
	return check(passwordForm(input))
}

func Draft(draft model.Draft) error {
	return check(todoForm{Title: draft.Title})
}

// Message returns the first validation message, or "" when err is not a
// validation error.
func Message(err error) string {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.First()
	}
	return ""
}
