package profile

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	domain "profile-service/internal/domain/profile"
	pkgerrors "profile-service/pkg/errors"
)

// Messages shown for the first failing rule.
const (
	MsgNameTooShort  = "Name must be at least 3 characters"
	MsgNameTooLong   = "Name must be at most 254 characters"
	MsgInvalidEmail  = "Invalid email"
	MsgAgeNotNumber  = "Age must be a number"
	MsgAgeOutOfRange = "Age must be between 1 and 120"
)

const (
	minNameLength = 3
	minAge        = 1
	maxAge        = 120
)

const emailLocalPart = `^[a-zA-Z0-9](?:[a-zA-Z0-9._%+-]{0,63})@`

const anyDomain = `[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}$`

var errAgeNotNumber = errors.New("age is not a number")

// formFields carries the tags checked by the validator. Field order is the order
// in which violations are reported. The name and email rules include those the
// profile API applies to the same fields.
type formFields struct {
	Name  string `validate:"name_length,max=254"`
	Email string `validate:"required,email,max=254,profile_email"`
	Age   string `validate:"omitempty,age_number,age_range"`
}

// FormValidator checks submitted profile forms.
type FormValidator struct {
	validate     *validator.Validate
	emailPattern *regexp.Regexp
}

// NewFormValidator creates a validator. An empty emailDomain accepts any address
// domain; otherwise only addresses at exactly that domain pass.
func NewFormValidator(emailDomain string) (*FormValidator, error) {
	pattern := emailLocalPart + anyDomain
	if emailDomain != "" {
		pattern = emailLocalPart + regexp.QuoteMeta(emailDomain) + `$`
	}

	emailPattern, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid email domain %q: %w", emailDomain, err)
	}

	fv := &FormValidator{
		validate:     validator.New(),
		emailPattern: emailPattern,
	}

	rules := map[string]validator.Func{
		"name_length": func(fl validator.FieldLevel) bool {
			return utf8.RuneCountInString(fl.Field().String()) >= minNameLength
		},
		"profile_email": func(fl validator.FieldLevel) bool {
			return fv.emailPattern.MatchString(fl.Field().String())
		},
		"age_number": func(fl validator.FieldLevel) bool {
			_, err := parseAgeNumber(fl.Field().String())
			return err == nil
		},
		"age_range": func(fl validator.FieldLevel) bool {
			n, err := parseAgeNumber(fl.Field().String())
			return err == nil && n >= minAge && n <= maxAge
		},
	}
	for tag, fn := range rules {
		if err := fv.validate.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %s rule: %w", tag, err)
		}
	}

	return fv, nil
}

// Validate checks in and returns the profile payload to submit. The error, if any,
// is a *pkgerrors.ValidationError carrying the first violated rule.
func (fv *FormValidator) Validate(in FormInput) (*domain.Profile, error) {
	err := fv.validate.Struct(formFields{Name: in.Name, Email: in.Email, Age: in.Age})
	if err != nil {
		return nil, firstViolation(err)
	}

	p := &domain.Profile{
		Name:  in.Name,
		Email: in.Email,
	}
	if in.Age != "" {
		n, _ := parseAgeNumber(in.Age)
		age := int(n)
		p.Age = &age
	}
	return p, nil
}

func firstViolation(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return pkgerrors.NewInternalError("validation failed", err)
	}

	switch e := errs[0]; e.Field() {
	case "Name":
		if e.Tag() == "max" {
			return pkgerrors.NewValidationError("name", MsgNameTooLong)
		}
		return pkgerrors.NewValidationError("name", MsgNameTooShort)
	case "Email":
		return pkgerrors.NewValidationError("email", MsgInvalidEmail)
	case "Age":
		if e.Tag() == "age_number" {
			return pkgerrors.NewValidationError("age", MsgAgeNotNumber)
		}
		return pkgerrors.NewValidationError("age", MsgAgeOutOfRange)
	default:
		return pkgerrors.NewValidationError(strings.ToLower(e.Field()), e.Error())
	}
}

// parseAgeNumber reads a numeric age in Go float syntax: decimal with optional
// fraction and exponent ("41.7", "1e2"), or hex float with a p exponent.
// Surrounding blanks are ignored and a blank value reads as zero, which then
// fails the range rule.
func parseAgeNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) {
		return 0, errAgeNotNumber
	}
	return n, nil
}
