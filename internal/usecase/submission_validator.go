package usecase

import (
	"net/http"
	"strings"

	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type submissionFields struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// SubmissionValidator gates the HTTP method and the required fields. It is pure.
type SubmissionValidator struct {
	validate *validator.Validate
}

func NewSubmissionValidator() *SubmissionValidator {
	return &SubmissionValidator{validate: validation.New()}
}

// Validate returns a SubmissionRequest, a *domain.MethodNotAllowedError or a
// *domain.MissingFieldsError. Name and email are trimmed; the message is kept
// byte-for-byte once it is known to contain more than whitespace.
func (v *SubmissionValidator) Validate(method string, fields map[string]string) (*domain.SubmissionRequest, error) {
	if method != http.MethodPost {
		return nil, &domain.MethodNotAllowedError{Method: method, Allowed: domain.SubmitAllowedMethods()}
	}

	in := submissionFields{
		Name:    strings.TrimSpace(fields["name"]),
		Email:   strings.TrimSpace(fields["email"]),
		Message: strings.TrimSpace(fields["message"]),
	}
	if err := v.validate.Struct(in); err != nil {
		missing := validation.FieldNames(err)
		if len(missing) == 0 {
			missing = []string{"name", "email", "message"}
		}
		return nil, &domain.MissingFieldsError{Fields: missing}
	}

	return &domain.SubmissionRequest{
		Name:    in.Name,
		Email:   in.Email,
		Message: fields["message"],
	}, nil
}
