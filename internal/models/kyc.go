package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DocumentCategory string
type IdentityDocumentType string
type CategoryStatus string
type OverallStatus string
type DocumentDecision string
type ReferenceStatus string

const (
	DocumentCategoryIdentity DocumentCategory = "identity"
	DocumentCategoryAddress  DocumentCategory = "address"
	DocumentCategorySelfie   DocumentCategory = "selfie"

	IdentityDocumentCNI      IdentityDocumentType = "cni"
	IdentityDocumentPassport IdentityDocumentType = "passport"
	IdentityDocumentPermit   IdentityDocumentType = "permit"

	CategoryStatusNotSubmitted CategoryStatus = "not_submitted"
	CategoryStatusPending      CategoryStatus = "pending"
	CategoryStatusVerified     CategoryStatus = "verified"
	CategoryStatusRejected     CategoryStatus = "rejected"
	CategoryStatusSkipped      CategoryStatus = "skipped" // references only

	OverallStatusNotStarted    OverallStatus = "not_started"
	OverallStatusInProgress    OverallStatus = "in_progress"
	OverallStatusPendingReview OverallStatus = "pending_review"
	OverallStatusVerified      OverallStatus = "verified"
	OverallStatusRejected      OverallStatus = "rejected"

	DocumentDecisionVerified DocumentDecision = "verified"
	DocumentDecisionRejected DocumentDecision = "rejected"

	ReferenceStatusNotContacted ReferenceStatus = "not_contacted"
	ReferenceStatusPending      ReferenceStatus = "pending"
	ReferenceStatusVerified     ReferenceStatus = "verified"
	ReferenceStatusFailed       ReferenceStatus = "failed"
)

// MandatoryCategories are the document categories a driver must submit before
// the file can go to review. References are optional and tracked separately.
var MandatoryCategories = []DocumentCategory{
	DocumentCategoryIdentity,
	DocumentCategoryAddress,
	DocumentCategorySelfie,
}

// KYCDocument is one uploaded artifact. The backend stores only storage keys,
// never file bytes. A CNI carries both front and back keys; every other
// document carries the front key only.
type KYCDocument struct {
	ID                primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	DriverID          primitive.ObjectID   `json:"driver_id" bson:"driver_id" validate:"required"`
	Category          DocumentCategory     `json:"category" bson:"category" validate:"required"`
	IdentityType      IdentityDocumentType `json:"identity_type,omitempty" bson:"identity_type,omitempty"`
	FrontKey          string               `json:"front_key" bson:"front_key" validate:"required"`
	BackKey           string               `json:"back_key,omitempty" bson:"back_key,omitempty"`
	FileSize          int64                `json:"file_size" bson:"file_size"`
	MimeType          string               `json:"mime_type" bson:"mime_type"`
	Status            CategoryStatus       `json:"status" bson:"status" default:"pending"`
	VerificationNotes string               `json:"verification_notes,omitempty" bson:"verification_notes,omitempty"`
	RejectionReason   string               `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	VerifiedBy        *primitive.ObjectID  `json:"verified_by,omitempty" bson:"verified_by,omitempty"`
	UploadedAt        time.Time            `json:"uploaded_at" bson:"uploaded_at"`
	VerifiedAt        *time.Time           `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
	RejectedAt        *time.Time           `json:"rejected_at,omitempty" bson:"rejected_at,omitempty"`
	UpdatedAt         time.Time            `json:"updated_at" bson:"updated_at"`
}

// KYCReference is one personal contact vouching for the driver. References
// are replaced wholesale on every submission, never edited in place.
type KYCReference struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DriverID   primitive.ObjectID `json:"driver_id" bson:"driver_id" validate:"required"`
	FullName   string             `json:"full_name" bson:"full_name" validate:"required"`
	Phone      string             `json:"phone" bson:"phone" validate:"required"`
	Relation   string             `json:"relation" bson:"relation" validate:"required"`
	Status     ReferenceStatus    `json:"status" bson:"status" default:"not_contacted"`
	Notes      string             `json:"notes,omitempty" bson:"notes,omitempty"`
	VerifiedAt *time.Time         `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}

// KYCStatus is the per-driver aggregate. Overall status and completion
// percentage are derived from the three mandatory category statuses and are
// never written directly outside the recompute path.
type KYCStatus struct {
	DriverID             primitive.ObjectID `json:"driver_id" bson:"_id"`
	IdentityStatus       CategoryStatus     `json:"identity_status" bson:"identity_status"`
	AddressStatus        CategoryStatus     `json:"address_status" bson:"address_status"`
	SelfieStatus         CategoryStatus     `json:"selfie_status" bson:"selfie_status"`
	ReferencesStatus     CategoryStatus     `json:"references_status" bson:"references_status"`
	OverallStatus        OverallStatus      `json:"overall_status" bson:"overall_status"`
	CompletionPercentage int                `json:"completion_percentage" bson:"completion_percentage"`
	CanResubmit          bool               `json:"can_resubmit" bson:"can_resubmit"`
	RejectionReason      string             `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	StartedAt            time.Time          `json:"started_at" bson:"started_at"`
	SubmittedAt          *time.Time         `json:"submitted_at,omitempty" bson:"submitted_at,omitempty"`
	VerifiedAt           *time.Time         `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
	RejectedAt           *time.Time         `json:"rejected_at,omitempty" bson:"rejected_at,omitempty"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updated_at"`
}

// CategoryStatusFor returns the stored status of one mandatory category.
func (s *KYCStatus) CategoryStatusFor(category DocumentCategory) CategoryStatus {
	switch category {
	case DocumentCategoryIdentity:
		return s.IdentityStatus
	case DocumentCategoryAddress:
		return s.AddressStatus
	case DocumentCategorySelfie:
		return s.SelfieStatus
	}
	return CategoryStatusNotSubmitted
}

// MissingCategories lists the mandatory categories still not submitted.
func (s *KYCStatus) MissingCategories() []DocumentCategory {
	var missing []DocumentCategory
	for _, category := range MandatoryCategories {
		if s.CategoryStatusFor(category) == CategoryStatusNotSubmitted {
			missing = append(missing, category)
		}
	}
	return missing
}
