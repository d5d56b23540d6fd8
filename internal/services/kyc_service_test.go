package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/repositories/interfaces"
	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory doubles for the repositories. They implement just enough of the
// Mongo semantics for the service logic: update maps are applied field by
// field the way the real repositories do.

type fakeDocumentRepo struct {
	documents map[primitive.ObjectID]*models.KYCDocument
	createErr error
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{documents: make(map[primitive.ObjectID]*models.KYCDocument)}
}

func (r *fakeDocumentRepo) Create(_ context.Context, document *models.KYCDocument) error {
	if r.createErr != nil {
		return r.createErr
	}
	document.ID = primitive.NewObjectID()
	document.Status = models.CategoryStatusPending
	document.UploadedAt = time.Now()
	copied := *document
	r.documents[document.ID] = &copied
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.KYCDocument, error) {
	document, ok := r.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id.Hex(), interfaces.ErrNotFound)
	}
	copied := *document
	return &copied, nil
}

func (r *fakeDocumentRepo) ListByDriver(_ context.Context, driverID primitive.ObjectID) ([]*models.KYCDocument, error) {
	var result []*models.KYCDocument
	for _, document := range r.documents {
		if document.DriverID == driverID {
			copied := *document
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeDocumentRepo) LatestByCategory(_ context.Context, driverID primitive.ObjectID, category models.DocumentCategory) (*models.KYCDocument, error) {
	var latest *models.KYCDocument
	for _, document := range r.documents {
		if document.DriverID != driverID || document.Category != category {
			continue
		}
		if latest == nil || document.UploadedAt.After(latest.UploadedAt) {
			latest = document
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("latest %s document: %w", category, interfaces.ErrNotFound)
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeDocumentRepo) UpdateDecision(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	document, ok := r.documents[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if status, ok := updates["status"].(models.CategoryStatus); ok {
		document.Status = status
	}
	if reason, ok := updates["rejection_reason"].(string); ok {
		document.RejectionReason = reason
	}
	return nil
}

func (r *fakeDocumentRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.documents[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(r.documents, id)
	return nil
}

type fakeReferenceRepo struct {
	references map[primitive.ObjectID]*models.KYCReference
	replaceErr error
}

func newFakeReferenceRepo() *fakeReferenceRepo {
	return &fakeReferenceRepo{references: make(map[primitive.ObjectID]*models.KYCReference)}
}

func (r *fakeReferenceRepo) ReplaceAll(_ context.Context, driverID primitive.ObjectID, references []*models.KYCReference) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	for id, reference := range r.references {
		if reference.DriverID == driverID {
			delete(r.references, id)
		}
	}
	for _, reference := range references {
		reference.ID = primitive.NewObjectID()
		reference.DriverID = driverID
		reference.Status = models.ReferenceStatusNotContacted
		reference.CreatedAt = time.Now()
		copied := *reference
		r.references[reference.ID] = &copied
	}
	return nil
}

func (r *fakeReferenceRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.KYCReference, error) {
	reference, ok := r.references[id]
	if !ok {
		return nil, fmt.Errorf("reference %s: %w", id.Hex(), interfaces.ErrNotFound)
	}
	copied := *reference
	return &copied, nil
}

func (r *fakeReferenceRepo) ListByDriver(_ context.Context, driverID primitive.ObjectID) ([]*models.KYCReference, error) {
	var result []*models.KYCReference
	for _, reference := range r.references {
		if reference.DriverID == driverID {
			copied := *reference
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeReferenceRepo) UpdateDecision(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	reference, ok := r.references[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if status, ok := updates["status"].(models.ReferenceStatus); ok {
		reference.Status = status
	}
	if notes, ok := updates["notes"].(string); ok {
		reference.Notes = notes
	}
	return nil
}

type fakeStatusRepo struct {
	statuses  map[primitive.ObjectID]*models.KYCStatus
	updateErr error
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{statuses: make(map[primitive.ObjectID]*models.KYCStatus)}
}

func (r *fakeStatusRepo) GetOrCreate(_ context.Context, driverID primitive.ObjectID) (*models.KYCStatus, error) {
	if status, ok := r.statuses[driverID]; ok {
		copied := *status
		return &copied, nil
	}
	status := &models.KYCStatus{
		DriverID:         driverID,
		IdentityStatus:   models.CategoryStatusNotSubmitted,
		AddressStatus:    models.CategoryStatusNotSubmitted,
		SelfieStatus:     models.CategoryStatusNotSubmitted,
		ReferencesStatus: models.CategoryStatusNotSubmitted,
		OverallStatus:    models.OverallStatusNotStarted,
		StartedAt:        time.Now(),
	}
	r.statuses[driverID] = status
	copied := *status
	return &copied, nil
}

func (r *fakeStatusRepo) Get(_ context.Context, driverID primitive.ObjectID) (*models.KYCStatus, error) {
	status, ok := r.statuses[driverID]
	if !ok {
		return nil, fmt.Errorf("status %s: %w", driverID.Hex(), interfaces.ErrNotFound)
	}
	copied := *status
	return &copied, nil
}

func (r *fakeStatusRepo) Update(_ context.Context, driverID primitive.ObjectID, updates map[string]interface{}) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	status, ok := r.statuses[driverID]
	if !ok {
		return interfaces.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "identity_status":
			status.IdentityStatus = value.(models.CategoryStatus)
		case "address_status":
			status.AddressStatus = value.(models.CategoryStatus)
		case "selfie_status":
			status.SelfieStatus = value.(models.CategoryStatus)
		case "references_status":
			status.ReferencesStatus = value.(models.CategoryStatus)
		case "overall_status":
			status.OverallStatus = value.(models.OverallStatus)
		case "completion_percentage":
			status.CompletionPercentage = value.(int)
		case "can_resubmit":
			status.CanResubmit = value.(bool)
		case "rejection_reason":
			status.RejectionReason = value.(string)
		case "submitted_at":
			at := value.(time.Time)
			status.SubmittedAt = &at
		case "verified_at":
			at := value.(time.Time)
			status.VerifiedAt = &at
		case "rejected_at":
			at := value.(time.Time)
			status.RejectedAt = &at
		}
	}
	status.UpdatedAt = time.Now()
	return nil
}

type fakeUserRepo struct {
	users           map[primitive.ObjectID]*models.User
	verifiedFlags   map[primitive.ObjectID]bool
	setVerifiedErr  error
	setVerifiedHits int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:         make(map[primitive.ObjectID]*models.User),
		verifiedFlags: make(map[primitive.ObjectID]bool),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id.Hex(), interfaces.ErrNotFound)
	}
	return user, nil
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	for _, user := range r.users {
		if user.Phone == phone {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", phone, interfaces.ErrNotFound)
}

func (r *fakeUserRepo) Update(_ context.Context, id primitive.ObjectID, _ map[string]interface{}) error {
	if _, ok := r.users[id]; !ok {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, _ primitive.ObjectID) error { return nil }

func (r *fakeUserRepo) UpdatePhoneVerification(_ context.Context, _ primitive.ObjectID, _ bool) error {
	return nil
}

func (r *fakeUserRepo) SetDriverVerified(_ context.Context, id primitive.ObjectID, verified bool) error {
	if r.setVerifiedErr != nil {
		return r.setVerifiedErr
	}
	r.setVerifiedHits++
	r.verifiedFlags[id] = verified
	if user, ok := r.users[id]; ok {
		user.DriverVerified = verified
	}
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, _ *utils.PaginationParams) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (r *fakeUserRepo) GetByType(_ context.Context, _ models.UserType, _ *utils.PaginationParams) ([]*models.User, int64, error) {
	return nil, 0, nil
}

type kycFixture struct {
	service    KYCService
	documents  *fakeDocumentRepo
	references *fakeReferenceRepo
	statuses   *fakeStatusRepo
	users      *fakeUserRepo
	driverID   primitive.ObjectID
}

func newKYCFixture(t *testing.T) *kycFixture {
	t.Helper()

	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: "stdout"})
	require.NoError(t, err)

	documents := newFakeDocumentRepo()
	references := newFakeReferenceRepo()
	statuses := newFakeStatusRepo()
	users := newFakeUserRepo()

	return &kycFixture{
		service:    NewKYCService(documents, references, statuses, users, log),
		documents:  documents,
		references: references,
		statuses:   statuses,
		users:      users,
		driverID:   primitive.NewObjectID(),
	}
}

func submitAllCategories(t *testing.T, f *kycFixture) map[models.DocumentCategory]*models.KYCDocument {
	t.Helper()
	ctx := context.Background()

	result := make(map[models.DocumentCategory]*models.KYCDocument, 3)

	identity, err := f.service.SubmitDocument(ctx, f.driverID, &SubmitDocumentRequest{
		Category:     models.DocumentCategoryIdentity,
		IdentityType: models.IdentityDocumentCNI,
		FrontKey:     "kyc/identity/front.jpg",
		BackKey:      "kyc/identity/back.jpg",
	})
	require.NoError(t, err)
	result[models.DocumentCategoryIdentity] = identity

	address, err := f.service.SubmitDocument(ctx, f.driverID, &SubmitDocumentRequest{
		Category: models.DocumentCategoryAddress,
		FrontKey: "kyc/address/front.jpg",
	})
	require.NoError(t, err)
	result[models.DocumentCategoryAddress] = address

	selfie, err := f.service.SubmitDocument(ctx, f.driverID, &SubmitDocumentRequest{
		Category: models.DocumentCategorySelfie,
		FrontKey: "kyc/selfie/front.jpg",
	})
	require.NoError(t, err)
	result[models.DocumentCategorySelfie] = selfie

	return result
}

func TestSubmitDocumentMovesAggregate(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	_, err := f.service.SubmitDocument(ctx, f.driverID, &SubmitDocumentRequest{
		Category:     models.DocumentCategoryIdentity,
		IdentityType: models.IdentityDocumentPassport,
		FrontKey:     "kyc/identity/passport.jpg",
	})
	require.NoError(t, err)

	status := f.statuses.statuses[f.driverID]
	assert.Equal(t, models.CategoryStatusPending, status.IdentityStatus)
	assert.Equal(t, models.OverallStatusInProgress, status.OverallStatus)
	assert.Equal(t, 0, status.CompletionPercentage)
}

func TestSubmitDocumentValidation(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		request *SubmitDocumentRequest
		field   string
	}{
		{
			name: "cni without back",
			request: &SubmitDocumentRequest{
				Category:     models.DocumentCategoryIdentity,
				IdentityType: models.IdentityDocumentCNI,
				FrontKey:     "front.jpg",
			},
			field: "back_key",
		},
		{
			name: "passport with back",
			request: &SubmitDocumentRequest{
				Category:     models.DocumentCategoryIdentity,
				IdentityType: models.IdentityDocumentPassport,
				FrontKey:     "front.jpg",
				BackKey:      "back.jpg",
			},
			field: "back_key",
		},
		{
			name: "selfie with identity type",
			request: &SubmitDocumentRequest{
				Category:     models.DocumentCategorySelfie,
				IdentityType: models.IdentityDocumentCNI,
				FrontKey:     "front.jpg",
			},
			field: "identity_type",
		},
		{
			name: "unknown category",
			request: &SubmitDocumentRequest{
				Category: "diploma",
				FrontKey: "front.jpg",
			},
			field: "category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.SubmitDocument(ctx, f.driverID, tt.request)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Fields, tt.field)
		})
	}
}

func TestResubmissionRules(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	first, err := f.service.SubmitDocument(ctx, f.driverID, &SubmitDocumentRequest{
		Category: models.DocumentCategoryAddress,
		FrontKey: "kyc/address/v1.jpg",
	})
	require.NoError(t, err)

	// Pending category cannot be resubmitted.
	_, err = f.service.SubmitDocument(ctx, f.driverID, &SubmitDocumentRequest{
		Category: models.DocumentCategoryAddress,
		FrontKey: "kyc/address/v2.jpg",
	})
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// Reject it, then resubmission replaces the rejected record.
	_, err = f.service.RecordDocumentDecision(ctx, first.ID, &DocumentDecisionRequest{
		Decision:        models.DocumentDecisionRejected,
		RejectionReason: "blurry photo",
		ReviewerID:      primitive.NewObjectID(),
	})
	require.NoError(t, err)

	second, err := f.service.SubmitDocument(ctx, f.driverID, &SubmitDocumentRequest{
		Category: models.DocumentCategoryAddress,
		FrontKey: "kyc/address/v2.jpg",
	})
	require.NoError(t, err)

	_, exists := f.documents.documents[first.ID]
	assert.False(t, exists, "rejected document should be removed on resubmission")
	_, exists = f.documents.documents[second.ID]
	assert.True(t, exists)

	status := f.statuses.statuses[f.driverID]
	assert.Equal(t, models.CategoryStatusPending, status.AddressStatus)
	assert.False(t, status.CanResubmit, "resubmission clears the rejected state")
	assert.Empty(t, status.RejectionReason)

	// Verified category can never be resubmitted.
	_, err = f.service.RecordDocumentDecision(ctx, second.ID, &DocumentDecisionRequest{
		Decision:   models.DocumentDecisionVerified,
		ReviewerID: primitive.NewObjectID(),
	})
	require.NoError(t, err)

	_, err = f.service.SubmitDocument(ctx, f.driverID, &SubmitDocumentRequest{
		Category: models.DocumentCategoryAddress,
		FrontKey: "kyc/address/v3.jpg",
	})
	require.ErrorAs(t, err, &conflictErr)
}

func TestFullVerificationFlow(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()
	reviewer := primitive.NewObjectID()

	documents := submitAllCategories(t, f)

	status := f.statuses.statuses[f.driverID]
	assert.Equal(t, models.OverallStatusPendingReview, status.OverallStatus)
	require.NotNil(t, status.SubmittedAt, "submitted_at stamps when the last category lands")
	firstSubmittedAt := *status.SubmittedAt

	for _, category := range models.MandatoryCategories {
		_, err := f.service.RecordDocumentDecision(ctx, documents[category].ID, &DocumentDecisionRequest{
			Decision:   models.DocumentDecisionVerified,
			ReviewerID: reviewer,
		})
		require.NoError(t, err)
	}

	status = f.statuses.statuses[f.driverID]
	assert.Equal(t, models.OverallStatusVerified, status.OverallStatus)
	assert.Equal(t, 100, status.CompletionPercentage)
	require.NotNil(t, status.VerifiedAt)
	assert.Equal(t, firstSubmittedAt, *status.SubmittedAt, "submitted_at never restamps")

	assert.True(t, f.users.verifiedFlags[f.driverID], "capability flag flips on full verification")
	assert.Equal(t, 1, f.users.setVerifiedHits, "flag is set exactly once")
}

func TestRejectionStampsOnce(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	documents := submitAllCategories(t, f)

	_, err := f.service.RecordDocumentDecision(ctx, documents[models.DocumentCategorySelfie].ID, &DocumentDecisionRequest{
		Decision:        models.DocumentDecisionRejected,
		RejectionReason: "face not visible",
		ReviewerID:      primitive.NewObjectID(),
	})
	require.NoError(t, err)

	status := f.statuses.statuses[f.driverID]
	assert.Equal(t, models.OverallStatusRejected, status.OverallStatus)
	assert.True(t, status.CanResubmit)
	assert.Equal(t, "face not visible", status.RejectionReason)
	require.NotNil(t, status.RejectedAt)

	// Verifying another category keeps the file rejected.
	_, err = f.service.RecordDocumentDecision(ctx, documents[models.DocumentCategoryIdentity].ID, &DocumentDecisionRequest{
		Decision:   models.DocumentDecisionVerified,
		ReviewerID: primitive.NewObjectID(),
	})
	require.NoError(t, err)

	status = f.statuses.statuses[f.driverID]
	assert.Equal(t, models.OverallStatusRejected, status.OverallStatus)
	assert.Equal(t, 33, status.CompletionPercentage)
}

func TestDecisionRequiresPendingDocument(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	documents := submitAllCategories(t, f)
	reviewer := primitive.NewObjectID()

	_, err := f.service.RecordDocumentDecision(ctx, documents[models.DocumentCategoryAddress].ID, &DocumentDecisionRequest{
		Decision:   models.DocumentDecisionVerified,
		ReviewerID: reviewer,
	})
	require.NoError(t, err)

	// Second decision on the same document conflicts.
	_, err = f.service.RecordDocumentDecision(ctx, documents[models.DocumentCategoryAddress].ID, &DocumentDecisionRequest{
		Decision:   models.DocumentDecisionVerified,
		ReviewerID: reviewer,
	})
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// Rejection without a reason is invalid.
	_, err = f.service.RecordDocumentDecision(ctx, documents[models.DocumentCategorySelfie].ID, &DocumentDecisionRequest{
		Decision:   models.DocumentDecisionRejected,
		ReviewerID: reviewer,
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	// Unknown document is not found.
	_, err = f.service.RecordDocumentDecision(ctx, primitive.NewObjectID(), &DocumentDecisionRequest{
		Decision:   models.DocumentDecisionVerified,
		ReviewerID: reviewer,
	})
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestRejectionReasonFallsBackToNotes(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	documents := submitAllCategories(t, f)

	// A rejection carrying only notes uses them as the reason.
	document, err := f.service.RecordDocumentDecision(ctx, documents[models.DocumentCategorySelfie].ID, &DocumentDecisionRequest{
		Decision:   models.DocumentDecisionRejected,
		Notes:      "face not visible",
		ReviewerID: primitive.NewObjectID(),
	})
	require.NoError(t, err)
	assert.Equal(t, "face not visible", document.RejectionReason)

	status := f.statuses.statuses[f.driverID]
	assert.Equal(t, models.OverallStatusRejected, status.OverallStatus)
	assert.Equal(t, "face not visible", status.RejectionReason)

	// An explicit reason wins over the notes.
	document, err = f.service.RecordDocumentDecision(ctx, documents[models.DocumentCategoryAddress].ID, &DocumentDecisionRequest{
		Decision:        models.DocumentDecisionRejected,
		Notes:           "checked against the registry",
		RejectionReason: "utility bill expired",
		ReviewerID:      primitive.NewObjectID(),
	})
	require.NoError(t, err)
	assert.Equal(t, "utility bill expired", document.RejectionReason)
}

func TestSubmitForReviewRejectsRejectedCategory(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	documents := submitAllCategories(t, f)

	_, err := f.service.RecordDocumentDecision(ctx, documents[models.DocumentCategoryIdentity].ID, &DocumentDecisionRequest{
		Decision:        models.DocumentDecisionRejected,
		RejectionReason: "blurry photo",
		ReviewerID:      primitive.NewObjectID(),
	})
	require.NoError(t, err)

	// A rejected category blocks the submission until a fresh document lands.
	_, err = f.service.SubmitForReview(ctx, f.driverID)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "identity")
	assert.NotContains(t, validationErr.Fields, "address")
	assert.NotContains(t, validationErr.Fields, "selfie")

	_, err = f.service.SubmitDocument(ctx, f.driverID, &SubmitDocumentRequest{
		Category:     models.DocumentCategoryIdentity,
		IdentityType: models.IdentityDocumentCNI,
		FrontKey:     "kyc/identity/front-v2.jpg",
		BackKey:      "kyc/identity/back-v2.jpg",
	})
	require.NoError(t, err)

	detail, err := f.service.SubmitForReview(ctx, f.driverID)
	require.NoError(t, err)
	assert.Equal(t, models.OverallStatusPendingReview, detail.Status.OverallStatus)
}

func TestCapabilityFlagNotRevoked(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()
	reviewer := primitive.NewObjectID()

	documents := submitAllCategories(t, f)
	for _, category := range models.MandatoryCategories {
		_, err := f.service.RecordDocumentDecision(ctx, documents[category].ID, &DocumentDecisionRequest{
			Decision:   models.DocumentDecisionVerified,
			ReviewerID: reviewer,
		})
		require.NoError(t, err)
	}
	require.True(t, f.users.verifiedFlags[f.driverID])

	// A failed reference afterwards never touches the capability flag or the
	// overall status.
	_, err := f.service.ReplaceReferences(ctx, f.driverID, &ReplaceReferencesRequest{
		References: []*ReferenceInput{
			{FullName: "Ama Koffi", Phone: "+22890112233", Relation: "sister"},
		},
	})
	require.NoError(t, err)

	var referenceID primitive.ObjectID
	for id := range f.references.references {
		referenceID = id
	}
	_, err = f.service.RecordReferenceDecision(ctx, referenceID, &ReferenceDecisionRequest{
		Status: models.ReferenceStatusFailed,
		Notes:  "number unreachable",
	})
	require.NoError(t, err)

	status := f.statuses.statuses[f.driverID]
	assert.Equal(t, models.OverallStatusVerified, status.OverallStatus)
	assert.Equal(t, 100, status.CompletionPercentage)
	assert.Equal(t, models.CategoryStatusRejected, status.ReferencesStatus)
	assert.True(t, f.users.verifiedFlags[f.driverID])
	assert.Equal(t, 1, f.users.setVerifiedHits)
}

func TestReplaceReferences(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	// Too many references.
	var inputs []*ReferenceInput
	for i := 0; i < 4; i++ {
		inputs = append(inputs, &ReferenceInput{
			FullName: fmt.Sprintf("Contact %d", i),
			Phone:    fmt.Sprintf("+2289011223%d", i),
			Relation: "friend",
		})
	}
	_, err := f.service.ReplaceReferences(ctx, f.driverID, &ReplaceReferencesRequest{References: inputs})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	// Duplicate phones.
	_, err = f.service.ReplaceReferences(ctx, f.driverID, &ReplaceReferencesRequest{
		References: []*ReferenceInput{
			{FullName: "A", Phone: "+22890112233", Relation: "friend"},
			{FullName: "B", Phone: "+22890112233", Relation: "cousin"},
		},
	})
	require.ErrorAs(t, err, &validationErr)

	// Valid set replaces wholesale.
	references, err := f.service.ReplaceReferences(ctx, f.driverID, &ReplaceReferencesRequest{
		References: inputs[:2],
	})
	require.NoError(t, err)
	assert.Len(t, references, 2)
	assert.Equal(t, models.CategoryStatusPending, f.statuses.statuses[f.driverID].ReferencesStatus)

	// Empty list means the driver skipped references.
	references, err = f.service.ReplaceReferences(ctx, f.driverID, &ReplaceReferencesRequest{})
	require.NoError(t, err)
	assert.Empty(t, references)
	assert.Empty(t, f.references.references)
	assert.Equal(t, models.CategoryStatusSkipped, f.statuses.statuses[f.driverID].ReferencesStatus)
}

func TestReferenceFoldRecomputesOnEveryWrite(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	_, err := f.service.ReplaceReferences(ctx, f.driverID, &ReplaceReferencesRequest{
		References: []*ReferenceInput{
			{FullName: "Ama Koffi", Phone: "+22890112233", Relation: "sister"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryStatusPending, f.statuses.statuses[f.driverID].ReferencesStatus)

	var referenceID primitive.ObjectID
	for id := range f.references.references {
		referenceID = id
	}
	_, err = f.service.RecordReferenceDecision(ctx, referenceID, &ReferenceDecisionRequest{
		Status: models.ReferenceStatusFailed,
		Notes:  "number unreachable",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryStatusRejected, f.statuses.statuses[f.driverID].ReferencesStatus)

	// Replacing the set re-folds it from scratch.
	_, err = f.service.ReplaceReferences(ctx, f.driverID, &ReplaceReferencesRequest{
		References: []*ReferenceInput{
			{FullName: "Kodjo Agbeko", Phone: "+22890445566", Relation: "colleague"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryStatusPending, f.statuses.statuses[f.driverID].ReferencesStatus)
}

func TestSubmitForReview(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	// Incomplete file lists the missing categories.
	_, err := f.service.SubmitForReview(ctx, f.driverID)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "identity")
	assert.Contains(t, validationErr.Fields, "address")
	assert.Contains(t, validationErr.Fields, "selfie")

	submitAllCategories(t, f)

	detail, err := f.service.SubmitForReview(ctx, f.driverID)
	require.NoError(t, err)
	assert.Equal(t, models.OverallStatusPendingReview, detail.Status.OverallStatus)
	require.NotNil(t, detail.Status.SubmittedAt)
	assert.Empty(t, detail.MissingCategories)

	// Idempotent: a second call returns the same stamped time.
	first := *detail.Status.SubmittedAt
	detail, err = f.service.SubmitForReview(ctx, f.driverID)
	require.NoError(t, err)
	assert.Equal(t, first, *detail.Status.SubmittedAt)
}

func TestRecomputeFailureIsRetryable(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	// Seed the aggregate row, then break status writes. The document ledger
	// write lands but the recompute fails, so the caller must see a retryable
	// storage error.
	_, err := f.statuses.GetOrCreate(ctx, f.driverID)
	require.NoError(t, err)
	f.statuses.updateErr = fmt.Errorf("connection reset")

	_, err = f.service.SubmitDocument(ctx, f.driverID, &SubmitDocumentRequest{
		Category: models.DocumentCategorySelfie,
		FrontKey: "kyc/selfie/front.jpg",
	})
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.True(t, storageErr.Retryable)
	assert.Len(t, f.documents.documents, 1, "ledger write survives the failed recompute")
}

func TestGetStatusCreatesAggregateLazily(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetStatus(ctx, f.driverID)
	require.NoError(t, err)
	assert.Equal(t, models.OverallStatusNotStarted, detail.Status.OverallStatus)
	assert.Equal(t, 0, detail.Status.CompletionPercentage)
	assert.ElementsMatch(t, models.MandatoryCategories, detail.MissingCategories)
	assert.Empty(t, detail.Documents)
	assert.Empty(t, detail.References)
}
