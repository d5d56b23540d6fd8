package validators

import (
	"github.com/KOLIFAST/backend/internal/models"
)

// DocumentSubmission is the validated shape of a document upload form.
type DocumentSubmission struct {
	Category     string `validate:"required,oneof=identity address selfie"`
	IdentityType string `validate:"omitempty,oneof=cni passport permit"`
	FrontKey     string `validate:"required"`
	BackKey      string `validate:"omitempty"`
}

// ReferenceSubmission is one entry of the reference list.
type ReferenceSubmission struct {
	FullName string `validate:"required,min=2,max=120"`
	Phone    string `validate:"required,phone_number"`
	Relation string `validate:"required,min=2,max=60"`
}

// ValidateDocumentSubmission checks structural rules plus the category
// specific key requirements.
func ValidateDocumentSubmission(submission *DocumentSubmission) ValidationErrors {
	errs := ValidateStruct(submission)

	category := models.DocumentCategory(submission.Category)
	identityType := models.IdentityDocumentType(submission.IdentityType)

	switch category {
	case models.DocumentCategoryIdentity:
		if submission.IdentityType == "" {
			errs = append(errs, ValidationError{
				Field:   "IdentityType",
				Tag:     "required",
				Message: "IdentityType is required for identity documents",
			})
		}
		if identityType == models.IdentityDocumentCNI && submission.BackKey == "" {
			errs = append(errs, ValidationError{
				Field:   "BackKey",
				Tag:     "required",
				Message: "Both sides of the cni are required",
			})
		}
		if identityType != models.IdentityDocumentCNI && submission.BackKey != "" {
			errs = append(errs, ValidationError{
				Field:   "BackKey",
				Tag:     "excluded",
				Message: "Only the cni carries a back side",
			})
		}
	case models.DocumentCategoryAddress, models.DocumentCategorySelfie:
		if submission.IdentityType != "" {
			errs = append(errs, ValidationError{
				Field:   "IdentityType",
				Tag:     "excluded",
				Message: "IdentityType is only allowed for identity documents",
			})
		}
		if submission.BackKey != "" {
			errs = append(errs, ValidationError{
				Field:   "BackKey",
				Tag:     "excluded",
				Message: "BackKey is only allowed for identity documents",
			})
		}
	}

	return errs
}

// ValidateReferences checks the whole reference list.
func ValidateReferences(references []*ReferenceSubmission) ValidationErrors {
	var errs ValidationErrors

	if len(references) > 3 {
		errs = append(errs, ValidationError{
			Field:   "References",
			Tag:     "max",
			Message: "At most 3 references allowed",
		})
	}

	seen := make(map[string]bool, len(references))
	for _, reference := range references {
		errs = append(errs, ValidateStruct(reference)...)
		if seen[reference.Phone] {
			errs = append(errs, ValidationError{
				Field:   "Phone",
				Tag:     "unique",
				Value:   reference.Phone,
				Message: "Each reference must have a distinct phone number",
			})
		}
		seen[reference.Phone] = true
	}

	return errs
}
