package usecase

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/xavierca1/clientpulse/internal/entity"
)

const (
	FieldName    = "name"
	FieldURL     = "url"
	FieldGeneral = "general"
)

const (
	MsgCompanyNameRequired = "Company name is required"
	MsgURLRequired         = "Website URL is required"
	MsgURLInvalid          = "Please enter a valid URL (e.g., acme.com)"
	MsgGeneralError        = "Something went wrong. Please try again."
)

// ValidationErrors maps a field to its message. A missing key means the
// field is valid.
type ValidationErrors map[string]string

func (v ValidationErrors) Clone() ValidationErrors {
	out := make(ValidationErrors, len(v))
	for k, msg := range v {
		out[k] = msg
	}
	return out
}

// First returns the message of the first failing field in a stable order.
func (v ValidationErrors) First() string {
	for _, k := range []string{FieldName, FieldURL, FieldGeneral} {
		if msg, ok := v[k]; ok {
			return msg
		}
	}
	for _, msg := range v {
		return msg
	}
	return ""
}

func notBlank(message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return validation.NewError("validation_blank", message)
		}
		return nil
	})
}

var websiteRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if !IsValidURL(s) {
		return validation.NewError("validation_url_invalid", MsgURLInvalid)
	}
	return nil
})

type workspaceForm struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ValidateWorkspace checks the company identity fields of the wizard.
func ValidateWorkspace(companyName, companyURL string) ValidationErrors {
	form := workspaceForm{Name: companyName, URL: companyURL}
	err := validation.ValidateStruct(&form,
		validation.Field(&form.Name, notBlank(MsgCompanyNameRequired)),
		validation.Field(&form.URL, notBlank(MsgURLRequired), websiteRule),
	)
	return toValidationErrors(err)
}

func ValidateCreateSignalInput(input CreateSignalInput) ValidationErrors {
	sourceTypes := make([]interface{}, 0, len(entity.SignalSourceTypes))
	for _, st := range entity.SignalSourceTypes {
		sourceTypes = append(sourceTypes, string(st))
	}
	err := validation.ValidateStruct(&input,
		validation.Field(&input.AccountID, notBlank("account_id is required")),
		validation.Field(&input.Title, notBlank("title is required"), validation.Length(0, 300)),
		validation.Field(&input.SourceURL, notBlank("source_url is required"), websiteRule),
		validation.Field(&input.SourceType, validation.In(sourceTypes...).Error("source_type is not supported")),
	)
	return toValidationErrors(err)
}

func ValidateRegisterInput(input RegisterInput) ValidationErrors {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name, notBlank("name is required")),
		validation.Field(&input.Email, notBlank("email is required"), is.EmailFormat.Error("email is invalid")),
		validation.Field(&input.Password, validation.Required.Error("password is required"), validation.Length(6, 72).Error("password must have between 6 and 72 characters")),
	)
	return toValidationErrors(err)
}

func ValidateDraftOutreachInput(input DraftOutreachInput) ValidationErrors {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Subject, notBlank("subject is required"), validation.Length(0, 200)),
		validation.Field(&input.Body, notBlank("body is required")),
		validation.Field(&input.Recipient, notBlank("recipient is required"), is.EmailFormat.Error("recipient is not a valid email")),
	)
	return toValidationErrors(err)
}

func ValidateReject(input RejectInput) error {
	if strings.TrimSpace(input.Reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

func ValidateRefine(input RefineInput) error {
	if strings.TrimSpace(input.Feedback) == "" {
		return ErrFeedbackRequired
	}
	return nil
}

func ValidateNeedsMoreEvidence(input NeedsMoreEvidenceInput) error {
	if strings.TrimSpace(input.Question) == "" {
		return ErrQuestionRequired
	}
	return nil
}

func toValidationErrors(err error) ValidationErrors {
	out := ValidationErrors{}
	if err == nil {
		return out
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, fe := range fieldErrs {
			out[field] = fe.Error()
		}
		return out
	}
	out[FieldGeneral] = err.Error()
	return out
}

func validationFailure(errs ValidationErrors) *DomainError {
	return &DomainError{Code: CodeValidation, Message: errs.First(), Fields: errs}
}
