package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/repositories/interfaces"
	"github.com/KOLIFAST/backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxReferences = 3

type KYCService interface {
	// Driver-facing operations
	SubmitDocument(ctx context.Context, driverID primitive.ObjectID, request *SubmitDocumentRequest) (*models.KYCDocument, error)
	ReplaceReferences(ctx context.Context, driverID primitive.ObjectID, request *ReplaceReferencesRequest) ([]*models.KYCReference, error)
	SubmitForReview(ctx context.Context, driverID primitive.ObjectID) (*KYCStatusDetail, error)
	GetStatus(ctx context.Context, driverID primitive.ObjectID) (*KYCStatusDetail, error)

	// Reviewer operations
	RecordDocumentDecision(ctx context.Context, documentID primitive.ObjectID, request *DocumentDecisionRequest) (*models.KYCDocument, error)
	RecordReferenceDecision(ctx context.Context, referenceID primitive.ObjectID, request *ReferenceDecisionRequest) (*models.KYCReference, error)
	ListDocuments(ctx context.Context, driverID primitive.ObjectID) ([]*models.KYCDocument, error)
}

type kycService struct {
	documentRepo  interfaces.KYCDocumentRepository
	referenceRepo interfaces.KYCReferenceRepository
	statusRepo    interfaces.KYCStatusRepository
	userRepo      interfaces.UserRepository
	logger        *logger.Logger

	// One mutex per driver. Ledger write plus aggregate recompute must not
	// interleave for the same driver; different drivers proceed in parallel.
	driverLocks sync.Map
}

type SubmitDocumentRequest struct {
	Category     models.DocumentCategory     `json:"category" validate:"required"`
	IdentityType models.IdentityDocumentType `json:"identity_type,omitempty"`
	FrontKey     string                      `json:"front_key" validate:"required"`
	BackKey      string                      `json:"back_key,omitempty"`
	FileSize     int64                       `json:"file_size"`
	MimeType     string                      `json:"mime_type"`
}

type ReferenceInput struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Relation string `json:"relation" validate:"required"`
}

type ReplaceReferencesRequest struct {
	References []*ReferenceInput `json:"references"`
}

type DocumentDecisionRequest struct {
	Decision        models.DocumentDecision `json:"decision" validate:"required"`
	Notes           string                  `json:"notes,omitempty"`
	RejectionReason string                  `json:"rejection_reason,omitempty"`
	ReviewerID      primitive.ObjectID      `json:"-"`
}

type ReferenceDecisionRequest struct {
	Status models.ReferenceStatus `json:"status" validate:"required"`
	Notes  string                 `json:"notes,omitempty"`
}

// KYCStatusDetail is the read model returned to drivers and reviewers. It
// combines the stored aggregate with the underlying records.
type KYCStatusDetail struct {
	Status            *models.KYCStatus         `json:"status"`
	Documents         []*models.KYCDocument     `json:"documents"`
	References        []*models.KYCReference    `json:"references"`
	MissingCategories []models.DocumentCategory `json:"missing_categories"`
}

func NewKYCService(
	documentRepo interfaces.KYCDocumentRepository,
	referenceRepo interfaces.KYCReferenceRepository,
	statusRepo interfaces.KYCStatusRepository,
	userRepo interfaces.UserRepository,
	logger *logger.Logger,
) KYCService {
	return &kycService{
		documentRepo:  documentRepo,
		referenceRepo: referenceRepo,
		statusRepo:    statusRepo,
		userRepo:      userRepo,
		logger:        logger,
	}
}

func (s *kycService) lockDriver(driverID primitive.ObjectID) func() {
	value, _ := s.driverLocks.LoadOrStore(driverID.Hex(), &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// SubmitDocument records one uploaded document and recomputes the aggregate.
// A category already pending or verified cannot be resubmitted. A rejected
// category is resubmittable: the rejected record is removed first.
func (s *kycService) SubmitDocument(ctx context.Context, driverID primitive.ObjectID, request *SubmitDocumentRequest) (*models.KYCDocument, error) {
	if err := validateSubmitDocument(request); err != nil {
		return nil, err
	}

	unlock := s.lockDriver(driverID)
	defer unlock()

	status, err := s.statusRepo.GetOrCreate(ctx, driverID)
	if err != nil {
		return nil, NewStorageError("get kyc status", err, false)
	}

	switch status.CategoryStatusFor(request.Category) {
	case models.CategoryStatusPending:
		return nil, NewConflictError("%s document is already under review", request.Category)
	case models.CategoryStatusVerified:
		return nil, NewConflictError("%s document is already verified", request.Category)
	case models.CategoryStatusRejected:
		if err := s.removeRejectedDocument(ctx, driverID, request.Category); err != nil {
			return nil, err
		}
	}

	document := &models.KYCDocument{
		DriverID:     driverID,
		Category:     request.Category,
		IdentityType: request.IdentityType,
		FrontKey:     request.FrontKey,
		BackKey:      request.BackKey,
		FileSize:     request.FileSize,
		MimeType:     request.MimeType,
	}
	if err := s.documentRepo.Create(ctx, document); err != nil {
		return nil, NewStorageError("create kyc document", err, false)
	}

	if err := s.recompute(ctx, status, request.Category, models.CategoryStatusPending, ""); err != nil {
		return nil, err
	}

	s.logger.LogKYCEvent(driverID, "document_submitted", map[string]interface{}{
		"category":    request.Category,
		"document_id": document.ID.Hex(),
	})

	return document, nil
}

func (s *kycService) removeRejectedDocument(ctx context.Context, driverID primitive.ObjectID, category models.DocumentCategory) error {
	previous, err := s.documentRepo.LatestByCategory(ctx, driverID, category)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil
		}
		return NewStorageError("load rejected document", err, false)
	}

	if err := s.documentRepo.Delete(ctx, previous.ID); err != nil {
		return NewStorageError("delete rejected document", err, false)
	}
	return nil
}

// RecordDocumentDecision applies a reviewer verdict to a pending document and
// recomputes the driver aggregate.
func (s *kycService) RecordDocumentDecision(ctx context.Context, documentID primitive.ObjectID, request *DocumentDecisionRequest) (*models.KYCDocument, error) {
	if request.Decision != models.DocumentDecisionVerified && request.Decision != models.DocumentDecisionRejected {
		return nil, NewValidationError("invalid decision", map[string]string{
			"decision": "must be verified or rejected",
		})
	}
	if request.Decision == models.DocumentDecisionRejected {
		// The reviewer's notes double as the rejection reason when no
		// separate reason is supplied.
		if request.RejectionReason == "" {
			request.RejectionReason = request.Notes
		}
		if request.RejectionReason == "" {
			return nil, NewValidationError("rejection requires a reason", map[string]string{
				"rejection_reason": "required when rejecting",
			})
		}
	}

	document, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("document", documentID.Hex())
		}
		return nil, NewStorageError("get kyc document", err, false)
	}

	unlock := s.lockDriver(document.DriverID)
	defer unlock()

	if document.Status != models.CategoryStatusPending {
		return nil, NewConflictError("document %s is already %s", documentID.Hex(), document.Status)
	}

	status, err := s.statusRepo.GetOrCreate(ctx, document.DriverID)
	if err != nil {
		return nil, NewStorageError("get kyc status", err, false)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"verified_by":        request.ReviewerID,
		"verification_notes": request.Notes,
	}

	var categoryStatus models.CategoryStatus
	if request.Decision == models.DocumentDecisionVerified {
		categoryStatus = models.CategoryStatusVerified
		updates["status"] = models.CategoryStatusVerified
		updates["verified_at"] = now
		document.VerifiedAt = &now
	} else {
		categoryStatus = models.CategoryStatusRejected
		updates["status"] = models.CategoryStatusRejected
		updates["rejected_at"] = now
		updates["rejection_reason"] = request.RejectionReason
		document.RejectedAt = &now
		document.RejectionReason = request.RejectionReason
	}
	document.Status = categoryStatus
	document.VerifiedBy = &request.ReviewerID
	document.VerificationNotes = request.Notes

	if err := s.documentRepo.UpdateDecision(ctx, documentID, updates); err != nil {
		return nil, NewStorageError("update kyc document", err, false)
	}

	if err := s.recompute(ctx, status, document.Category, categoryStatus, request.RejectionReason); err != nil {
		return nil, err
	}

	s.logger.LogKYCEvent(document.DriverID, "document_decision", map[string]interface{}{
		"category":    document.Category,
		"document_id": documentID.Hex(),
		"decision":    request.Decision,
	})

	return document, nil
}

// ReplaceReferences swaps the driver's reference list. References never
// affect the overall status or percentage; only the references category
// status on the aggregate row moves.
func (s *kycService) ReplaceReferences(ctx context.Context, driverID primitive.ObjectID, request *ReplaceReferencesRequest) ([]*models.KYCReference, error) {
	if len(request.References) > MaxReferences {
		return nil, NewValidationError("too many references", map[string]string{
			"references": "at most 3 references allowed",
		})
	}
	for i, input := range request.References {
		if input.FullName == "" || input.Phone == "" || input.Relation == "" {
			return nil, NewValidationError("incomplete reference", map[string]string{
				"references": "full_name, phone and relation are required for every reference",
			})
		}
		for j := 0; j < i; j++ {
			if request.References[j].Phone == input.Phone {
				return nil, NewValidationError("duplicate reference", map[string]string{
					"references": "each reference must have a distinct phone number",
				})
			}
		}
	}

	unlock := s.lockDriver(driverID)
	defer unlock()

	if _, err := s.statusRepo.GetOrCreate(ctx, driverID); err != nil {
		return nil, NewStorageError("get kyc status", err, false)
	}

	references := make([]*models.KYCReference, len(request.References))
	for i, input := range request.References {
		references[i] = &models.KYCReference{
			FullName: input.FullName,
			Phone:    input.Phone,
			Relation: input.Relation,
		}
	}

	if err := s.referenceRepo.ReplaceAll(ctx, driverID, references); err != nil {
		return nil, NewStorageError("replace kyc references", err, false)
	}

	if err := s.recomputeReferences(ctx, driverID, references); err != nil {
		return nil, err
	}

	s.logger.LogKYCEvent(driverID, "references_replaced", map[string]interface{}{
		"count": len(references),
	})

	return references, nil
}

// RecordReferenceDecision applies a contact-check outcome to one reference.
func (s *kycService) RecordReferenceDecision(ctx context.Context, referenceID primitive.ObjectID, request *ReferenceDecisionRequest) (*models.KYCReference, error) {
	switch request.Status {
	case models.ReferenceStatusPending, models.ReferenceStatusVerified, models.ReferenceStatusFailed:
	default:
		return nil, NewValidationError("invalid reference status", map[string]string{
			"status": "must be pending, verified or failed",
		})
	}

	reference, err := s.referenceRepo.GetByID(ctx, referenceID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("reference", referenceID.Hex())
		}
		return nil, NewStorageError("get kyc reference", err, false)
	}

	unlock := s.lockDriver(reference.DriverID)
	defer unlock()

	updates := map[string]interface{}{
		"status": request.Status,
		"notes":  request.Notes,
	}
	if request.Status == models.ReferenceStatusVerified && reference.VerifiedAt == nil {
		now := time.Now()
		updates["verified_at"] = now
		reference.VerifiedAt = &now
	}
	reference.Status = request.Status
	reference.Notes = request.Notes

	if err := s.referenceRepo.UpdateDecision(ctx, referenceID, updates); err != nil {
		return nil, NewStorageError("update kyc reference", err, false)
	}

	references, err := s.referenceRepo.ListByDriver(ctx, reference.DriverID)
	if err != nil {
		return nil, NewStorageError("list kyc references", err, true)
	}
	if err := s.recomputeReferences(ctx, reference.DriverID, references); err != nil {
		return nil, err
	}

	return reference, nil
}

// recomputeReferences folds the reference set into the aggregate row. Every
// reference-ledger write goes through here, mirroring recompute for the
// mandatory categories. The reference ledger is already persisted, so a
// failure is retryable.
func (s *kycService) recomputeReferences(ctx context.Context, driverID primitive.ObjectID, references []*models.KYCReference) error {
	err := s.statusRepo.Update(ctx, driverID, map[string]interface{}{
		"references_status": DeriveReferencesStatus(references),
	})
	if err != nil {
		return NewStorageError("update references status", err, true)
	}
	return nil
}

// SubmitForReview checks that every mandatory category has been submitted and
// stamps the submission time. The aggregate itself already moved to
// pending_review when the last document landed; this is the explicit driver
// action that closes the submission.
func (s *kycService) SubmitForReview(ctx context.Context, driverID primitive.ObjectID) (*KYCStatusDetail, error) {
	unlock := s.lockDriver(driverID)
	defer unlock()

	status, err := s.statusRepo.GetOrCreate(ctx, driverID)
	if err != nil {
		return nil, NewStorageError("get kyc status", err, false)
	}

	// Every mandatory category must be awaiting or past review. A rejected
	// category needs a resubmission before the file can be closed again.
	fields := make(map[string]string)
	for _, category := range models.MandatoryCategories {
		switch status.CategoryStatusFor(category) {
		case models.CategoryStatusPending, models.CategoryStatusVerified:
		case models.CategoryStatusRejected:
			fields[string(category)] = "rejected, resubmit the document first"
		default:
			fields[string(category)] = "not submitted"
		}
	}
	if len(fields) > 0 {
		return nil, NewValidationError("verification file is incomplete", fields)
	}

	if status.OverallStatus == models.OverallStatusPendingReview && status.SubmittedAt != nil {
		return s.statusDetail(ctx, status)
	}

	if err := s.recomputeCurrent(ctx, status); err != nil {
		return nil, err
	}

	s.logger.LogKYCEvent(driverID, "submitted_for_review", nil)

	fresh, err := s.statusRepo.Get(ctx, driverID)
	if err != nil {
		return nil, NewStorageError("get kyc status", err, false)
	}
	return s.statusDetail(ctx, fresh)
}

// GetStatus returns the full read model, lazily creating the aggregate on
// first touch.
func (s *kycService) GetStatus(ctx context.Context, driverID primitive.ObjectID) (*KYCStatusDetail, error) {
	status, err := s.statusRepo.GetOrCreate(ctx, driverID)
	if err != nil {
		return nil, NewStorageError("get kyc status", err, false)
	}
	return s.statusDetail(ctx, status)
}

func (s *kycService) ListDocuments(ctx context.Context, driverID primitive.ObjectID) ([]*models.KYCDocument, error) {
	documents, err := s.documentRepo.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, NewStorageError("list kyc documents", err, false)
	}
	return documents, nil
}

func (s *kycService) statusDetail(ctx context.Context, status *models.KYCStatus) (*KYCStatusDetail, error) {
	documents, err := s.documentRepo.ListByDriver(ctx, status.DriverID)
	if err != nil {
		return nil, NewStorageError("list kyc documents", err, false)
	}
	references, err := s.referenceRepo.ListByDriver(ctx, status.DriverID)
	if err != nil {
		return nil, NewStorageError("list kyc references", err, false)
	}

	return &KYCStatusDetail{
		Status:            status,
		Documents:         documents,
		References:        references,
		MissingCategories: status.MissingCategories(),
	}, nil
}

// recompute applies one category transition to the aggregate row and derives
// the overall status from it. The caller holds the driver lock and has
// already persisted the ledger write; a failure here is therefore retryable.
func (s *kycService) recompute(ctx context.Context, status *models.KYCStatus, category models.DocumentCategory, categoryStatus models.CategoryStatus, rejectionReason string) error {
	identity, address, selfie := status.IdentityStatus, status.AddressStatus, status.SelfieStatus
	switch category {
	case models.DocumentCategoryIdentity:
		identity = categoryStatus
	case models.DocumentCategoryAddress:
		address = categoryStatus
	case models.DocumentCategorySelfie:
		selfie = categoryStatus
	}

	derived := DeriveCompletion(identity, address, selfie)
	event := CompletionEventFor(status.OverallStatus, derived.OverallStatus)

	updates := map[string]interface{}{
		string(category) + "_status": categoryStatus,
		"overall_status":             derived.OverallStatus,
		"completion_percentage":      derived.CompletionPercentage,
	}

	now := time.Now()
	if event.BecameSubmitted && status.SubmittedAt == nil {
		updates["submitted_at"] = now
	}
	if event.ReachedVerified && status.VerifiedAt == nil {
		updates["verified_at"] = now
	}
	if event.BecameRejected {
		updates["rejected_at"] = now
		updates["can_resubmit"] = true
		if rejectionReason != "" {
			updates["rejection_reason"] = rejectionReason
		}
	}
	if status.OverallStatus == models.OverallStatusRejected && derived.OverallStatus != models.OverallStatusRejected {
		updates["can_resubmit"] = false
		updates["rejection_reason"] = ""
	}

	if err := s.statusRepo.Update(ctx, status.DriverID, updates); err != nil {
		return NewStorageError("recompute kyc status", err, true)
	}

	if event.ReachedVerified {
		if err := s.userRepo.SetDriverVerified(ctx, status.DriverID, true); err != nil {
			return NewStorageError("set driver verified", err, true)
		}
		s.logger.LogKYCEvent(status.DriverID, "driver_verified", nil)
	}

	return nil
}

// recomputeCurrent re-derives the aggregate without changing any category.
func (s *kycService) recomputeCurrent(ctx context.Context, status *models.KYCStatus) error {
	derived := DeriveCompletion(status.IdentityStatus, status.AddressStatus, status.SelfieStatus)
	event := CompletionEventFor(status.OverallStatus, derived.OverallStatus)

	updates := map[string]interface{}{
		"overall_status":        derived.OverallStatus,
		"completion_percentage": derived.CompletionPercentage,
	}

	now := time.Now()
	if derived.OverallStatus == models.OverallStatusPendingReview && status.SubmittedAt == nil {
		updates["submitted_at"] = now
	}
	if event.ReachedVerified && status.VerifiedAt == nil {
		updates["verified_at"] = now
	}

	if err := s.statusRepo.Update(ctx, status.DriverID, updates); err != nil {
		return NewStorageError("recompute kyc status", err, true)
	}
	return nil
}

func validateSubmitDocument(request *SubmitDocumentRequest) error {
	fields := make(map[string]string)

	switch request.Category {
	case models.DocumentCategoryIdentity:
		switch request.IdentityType {
		case models.IdentityDocumentCNI:
			if request.BackKey == "" {
				fields["back_key"] = "both sides of the cni are required"
			}
		case models.IdentityDocumentPassport, models.IdentityDocumentPermit:
			if request.BackKey != "" {
				fields["back_key"] = "only the cni carries a back side"
			}
		default:
			fields["identity_type"] = "must be cni, passport or permit"
		}
	case models.DocumentCategoryAddress, models.DocumentCategorySelfie:
		if request.IdentityType != "" {
			fields["identity_type"] = "only allowed for identity documents"
		}
		if request.BackKey != "" {
			fields["back_key"] = "only allowed for identity documents"
		}
	default:
		fields["category"] = "must be identity, address or selfie"
	}

	if request.FrontKey == "" {
		fields["front_key"] = "required"
	}

	if len(fields) > 0 {
		return NewValidationError("invalid document submission", fields)
	}
	return nil
}
