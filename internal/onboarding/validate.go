package onboarding

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"researchPortalAPI/internal/user"
)

const PhoneMessage = "Please enter a valid phone number, e.g. +441234567890"

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

var requiredMessages = map[string]string{
	"name":           "Name is required",
	"phone":          "Phone is required",
	"company":        "Company is required",
	"jobTitle":       "Job Title is required",
	"university":     "University/College is required",
	"qualification":  "Qualification is required",
	"graduationYear": "Year of Graduation is required",
	"address1":       "Address line 1 is required",
	"city":           "City is required",
	"state":          "State is required",
	"country":        "Country is required",
	"postCode":       "Post code is required",
}

// ValidationErrors maps a form field to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type requiredForm struct {
	Name           string `json:"name" validate:"required"`
	Phone          string `json:"phone" validate:"required,phone"`
	Company        string `json:"company" validate:"required"`
	JobTitle       string `json:"jobTitle" validate:"required"`
	University     string `json:"university" validate:"required"`
	Qualification  string `json:"qualification" validate:"required"`
	GraduationYear string `json:"graduationYear" validate:"required"`
	Address1       string `json:"address1" validate:"required"`
	City           string `json:"city" validate:"required"`
	State          string `json:"state" validate:"required"`
	Country        string `json:"country" validate:"required"`
	PostCode       string `json:"postCode" validate:"required"`
}

type phoneForm struct {
	Phone string `json:"phone" validate:"omitempty,phone"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// ValidPhone reports whether phone is a loose E.164 number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

// Trim returns d with surrounding whitespace removed from every field.
func Trim(d user.Details) user.Details {
	return user.Details{
		Name:           strings.TrimSpace(d.Name),
		Phone:          strings.TrimSpace(d.Phone),
		Company:        strings.TrimSpace(d.Company),
		JobTitle:       strings.TrimSpace(d.JobTitle),
		University:     strings.TrimSpace(d.University),
		Qualification:  strings.TrimSpace(d.Qualification),
		GraduationYear: strings.TrimSpace(d.GraduationYear),
		Address1:       strings.TrimSpace(d.Address1),
		City:           strings.TrimSpace(d.City),
		State:          strings.TrimSpace(d.State),
		Country:        strings.TrimSpace(d.Country),
		PostCode:       strings.TrimSpace(d.PostCode),
	}
}

// ValidateRequired checks the onboarding form: every field is required and
// the phone must be a loose E.164 number.
func ValidateRequired(d user.Details) error {
	d = Trim(d)
	return collect(validate.Struct(requiredForm(d)))
}

// ValidatePhone checks an optional phone number.
func ValidatePhone(phone string) error {
	return collect(validate.Struct(phoneForm{Phone: strings.TrimSpace(phone)}))
}

func collect(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := ValidationErrors{}
	for _, fe := range verrs {
		field := fe.Field()
		if fe.Tag() == "phone" {
			out[field] = PhoneMessage
			continue
		}
		if msg, ok := requiredMessages[field]; ok {
			out[field] = msg
		} else {
			out[field] = field + " is invalid"
		}
	}
	return out
}
