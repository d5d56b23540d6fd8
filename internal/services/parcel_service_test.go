package services

import (
	"context"
	"fmt"
	"strings"
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

type fakeParcelRepo struct {
	parcels   map[primitive.ObjectID]*models.Parcel
	addresses map[primitive.ObjectID][]*models.ParcelAddress
	timeline  []*models.ParcelTimelineEntry
}

func newFakeParcelRepo() *fakeParcelRepo {
	return &fakeParcelRepo{
		parcels:   make(map[primitive.ObjectID]*models.Parcel),
		addresses: make(map[primitive.ObjectID][]*models.ParcelAddress),
	}
}

func (r *fakeParcelRepo) Create(_ context.Context, parcel *models.Parcel, addresses []*models.ParcelAddress) error {
	parcel.ID = primitive.NewObjectID()
	parcel.Status = models.ParcelStatusPending
	parcel.CreatedAt = time.Now()
	r.parcels[parcel.ID] = parcel
	for i, address := range addresses {
		address.ID = primitive.NewObjectID()
		address.ParcelID = parcel.ID
		address.Position = i
	}
	r.addresses[parcel.ID] = addresses
	return nil
}

func (r *fakeParcelRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Parcel, error) {
	parcel, ok := r.parcels[id]
	if !ok {
		return nil, fmt.Errorf("parcel %s: %w", id.Hex(), interfaces.ErrNotFound)
	}
	return parcel, nil
}

func (r *fakeParcelRepo) GetByTrackingNumber(_ context.Context, trackingNumber string) (*models.Parcel, error) {
	for _, parcel := range r.parcels {
		if parcel.TrackingNumber == trackingNumber {
			return parcel, nil
		}
	}
	return nil, fmt.Errorf("parcel %s: %w", trackingNumber, interfaces.ErrNotFound)
}

func (r *fakeParcelRepo) ListByUser(_ context.Context, userID primitive.ObjectID, filters *interfaces.ParcelFilters, _ *utils.PaginationParams) ([]*models.Parcel, int64, error) {
	var result []*models.Parcel
	for _, parcel := range r.parcels {
		if parcel.UserID != userID {
			continue
		}
		if filters != nil && filters.Status != "" && parcel.Status != filters.Status {
			continue
		}
		if filters != nil && filters.Flow != "" && parcel.Flow != filters.Flow {
			continue
		}
		result = append(result, parcel)
	}
	return result, int64(len(result)), nil
}

func (r *fakeParcelRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	parcel, ok := r.parcels[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if status, ok := updates["status"].(models.ParcelStatus); ok {
		parcel.Status = status
	}
	return nil
}

func (r *fakeParcelRepo) GetAddresses(_ context.Context, parcelID primitive.ObjectID) ([]*models.ParcelAddress, error) {
	return r.addresses[parcelID], nil
}

func (r *fakeParcelRepo) AppendTimeline(_ context.Context, entry *models.ParcelTimelineEntry) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	r.timeline = append(r.timeline, entry)
	return nil
}

func (r *fakeParcelRepo) GetTimeline(_ context.Context, parcelID primitive.ObjectID) ([]*models.ParcelTimelineEntry, error) {
	var result []*models.ParcelTimelineEntry
	for _, entry := range r.timeline {
		if entry.ParcelID == parcelID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type parcelFixture struct {
	service ParcelService
	parcels *fakeParcelRepo
	users   *fakeUserRepo
	userID  primitive.ObjectID
}

func newParcelFixture(t *testing.T) *parcelFixture {
	t.Helper()

	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: "stdout"})
	require.NoError(t, err)

	parcels := newFakeParcelRepo()
	users := newFakeUserRepo()

	return &parcelFixture{
		service: NewParcelService(parcels, users, NewPricingService(), log),
		parcels: parcels,
		users:   users,
		userID:  primitive.NewObjectID(),
	}
}

func validParcelRequest() *CreateParcelRequest {
	return &CreateParcelRequest{
		Flow:         models.ParcelFlowSend,
		ParcelType:   models.ParcelTypeLight,
		Weight:       2,
		Description:  "Documents for the bank",
		DeliveryType: models.DeliveryTypeExpress,
		Addresses: []*ParcelAddressInput{
			{
				AddressType:   models.AddressTypePickup,
				Address:       "Rue du Commerce, Lome",
				Latitude:      6.1319,
				Longitude:     1.2228,
				ContactNumber: "+22890112233",
			},
			{
				AddressType:   models.AddressTypeDelivery,
				Address:       "Agoe, Lome",
				Latitude:      6.1725,
				Longitude:     1.2314,
				ContactNumber: "+22890445566",
			},
		},
	}
}

func (f *parcelFixture) createParcel(t *testing.T) *models.Parcel {
	t.Helper()
	detail, err := f.service.CreateParcel(context.Background(), f.userID, validParcelRequest())
	require.NoError(t, err)
	return detail.Parcel
}

func (f *parcelFixture) verifiedDriver(t *testing.T) primitive.ObjectID {
	t.Helper()
	driver := &models.User{
		Phone:          "+22891000000",
		UserType:       models.UserTypeDriver,
		Status:         models.UserStatusActive,
		IsDriver:       true,
		DriverVerified: true,
	}
	require.NoError(t, f.users.Create(context.Background(), driver))
	return driver.ID
}

func TestCreateParcel(t *testing.T) {
	f := newParcelFixture(t)

	detail, err := f.service.CreateParcel(context.Background(), f.userID, validParcelRequest())
	require.NoError(t, err)

	parcel := detail.Parcel
	assert.True(t, strings.HasPrefix(parcel.TrackingNumber, utils.TrackingNumberPrefix+"-"))
	assert.Equal(t, models.ParcelStatusPending, parcel.Status)
	assert.Equal(t, 1, parcel.ParcelCount, "parcel count defaults to one")
	assert.Positive(t, parcel.EstimatedCost)
	assert.Zero(t, parcel.EstimatedCost%utils.FareRoundingStepFCA, "cost lands on a 10 FCFA step")

	require.Len(t, detail.Addresses, 2)
	assert.Equal(t, 0, detail.Addresses[0].Position)
	require.NotNil(t, detail.Route)
	assert.Positive(t, detail.Route.DistanceKM)

	require.Len(t, f.parcels.timeline, 1)
	assert.Equal(t, models.ParcelStatusPending, f.parcels.timeline[0].Status)
}

func TestCreateParcelValidation(t *testing.T) {
	f := newParcelFixture(t)
	ctx := context.Background()

	// No pickup address.
	request := validParcelRequest()
	request.Addresses = request.Addresses[1:]
	_, err := f.service.CreateParcel(ctx, f.userID, request)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "addresses")

	// Six deliveries.
	request = validParcelRequest()
	for i := 0; i < 5; i++ {
		request.Addresses = append(request.Addresses, &ParcelAddressInput{
			AddressType:   models.AddressTypeDelivery,
			Address:       fmt.Sprintf("Stop %d", i),
			ContactNumber: "+22890445566",
		})
	}
	_, err = f.service.CreateParcel(ctx, f.userID, request)
	require.ErrorAs(t, err, &validationErr)

	// Unknown flow.
	request = validParcelRequest()
	request.Flow = "forward"
	_, err = f.service.CreateParcel(ctx, f.userID, request)
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "type")
}

func TestTrackParcel(t *testing.T) {
	f := newParcelFixture(t)
	parcel := f.createParcel(t)

	detail, err := f.service.TrackParcel(context.Background(), parcel.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, parcel.ID, detail.Parcel.ID)

	_, err = f.service.TrackParcel(context.Background(), "KF-00000000")
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestCancelParcel(t *testing.T) {
	f := newParcelFixture(t)
	ctx := context.Background()
	parcel := f.createParcel(t)

	// Another user cannot cancel it.
	_, err := f.service.CancelParcel(ctx, parcel.ID, primitive.NewObjectID(), "changed my mind")
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	cancelled, err := f.service.CancelParcel(ctx, parcel.ID, f.userID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.ParcelStatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)

	// Cancelled parcels stay cancelled.
	_, err = f.service.CancelParcel(ctx, parcel.ID, f.userID, "again")
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
}

func TestAssignDriverRequiresVerification(t *testing.T) {
	f := newParcelFixture(t)
	ctx := context.Background()
	parcel := f.createParcel(t)

	unverified := &models.User{
		Phone:    "+22892000000",
		UserType: models.UserTypeDriver,
		Status:   models.UserStatusActive,
		IsDriver: true,
	}
	require.NoError(t, f.users.Create(ctx, unverified))

	_, err := f.service.AssignDriver(ctx, parcel.ID, unverified.ID)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	driverID := f.verifiedDriver(t)
	assigned, err := f.service.AssignDriver(ctx, parcel.ID, driverID)
	require.NoError(t, err)
	assert.Equal(t, models.ParcelStatusConfirmed, assigned.Status)
	require.NotNil(t, assigned.DriverID)
	assert.Equal(t, driverID, *assigned.DriverID)

	// A confirmed parcel is no longer up for grabs.
	otherDriver := f.verifiedDriver(t)
	_, err = f.service.AssignDriver(ctx, parcel.ID, otherDriver)
	require.ErrorAs(t, err, &conflictErr)
}

func TestUpdateParcelStatusFlow(t *testing.T) {
	f := newParcelFixture(t)
	ctx := context.Background()
	parcel := f.createParcel(t)
	driverID := f.verifiedDriver(t)

	_, err := f.service.AssignDriver(ctx, parcel.ID, driverID)
	require.NoError(t, err)

	// Skipping a step is rejected.
	_, err = f.service.UpdateParcelStatus(ctx, parcel.ID, driverID, &UpdateParcelStatusRequest{
		Status: models.ParcelStatusDelivered,
	})
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// Another driver cannot move it.
	_, err = f.service.UpdateParcelStatus(ctx, parcel.ID, primitive.NewObjectID(), &UpdateParcelStatusRequest{
		Status: models.ParcelStatusPickedUp,
	})
	require.ErrorAs(t, err, &conflictErr)

	for _, status := range []models.ParcelStatus{
		models.ParcelStatusPickedUp,
		models.ParcelStatusInTransit,
		models.ParcelStatusDelivered,
	} {
		updated, err := f.service.UpdateParcelStatus(ctx, parcel.ID, driverID, &UpdateParcelStatusRequest{
			Status: status,
		})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	final := f.parcels.parcels[parcel.ID]
	require.NotNil(t, final.PickupCompletedAt)
	require.NotNil(t, final.DeliveredAt)
	assert.Equal(t, final.EstimatedCost, final.FinalCost, "final cost settles at the estimate")

	// Delivered is terminal; cancellation is also refused now.
	_, err = f.service.CancelParcel(ctx, parcel.ID, f.userID, "too late")
	require.ErrorAs(t, err, &conflictErr)
}

func TestListParcelsFilters(t *testing.T) {
	f := newParcelFixture(t)
	ctx := context.Background()

	f.createParcel(t)
	f.createParcel(t)

	params := &utils.PaginationParams{Page: 1, PageSize: 20, Sort: "created_at", Order: "desc"}

	parcels, total, err := f.service.ListParcels(ctx, f.userID, &interfaces.ParcelFilters{}, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, parcels, 2)

	parcels, total, err = f.service.ListParcels(ctx, f.userID, &interfaces.ParcelFilters{
		Status: models.ParcelStatusDelivered,
	}, params)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, parcels)
}
