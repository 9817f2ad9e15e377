package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"vitalnotes/internal/domain"
)

var formValidator = validator.New()

type patientForm struct {
	Name string `validate:"required"`
	Age  string `validate:"required,numeric"`
}

// ValidatePatientForm applies the form rules for adding or editing a
// patient: name and age are required and age must be numeric.
func ValidatePatientForm(patient domain.Patient) error {
	form := patientForm{
		Name: strings.TrimSpace(patient.Name),
		Age:  strings.TrimSpace(string(patient.Age)),
	}
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "numeric":
		return field + " must be a number"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
