package services

import (
	"context"
	"errors"
	"time"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/repositories/interfaces"
	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ParcelService interface {
	CreateParcel(ctx context.Context, userID primitive.ObjectID, request *CreateParcelRequest) (*ParcelDetail, error)
	GetParcel(ctx context.Context, parcelID primitive.ObjectID) (*ParcelDetail, error)
	TrackParcel(ctx context.Context, trackingNumber string) (*ParcelDetail, error)
	ListParcels(ctx context.Context, userID primitive.ObjectID, filters *interfaces.ParcelFilters, params *utils.PaginationParams) ([]*models.Parcel, int64, error)
	CancelParcel(ctx context.Context, parcelID, userID primitive.ObjectID, reason string) (*models.Parcel, error)

	// Driver operations
	AssignDriver(ctx context.Context, parcelID, driverID primitive.ObjectID) (*models.Parcel, error)
	UpdateParcelStatus(ctx context.Context, parcelID, driverID primitive.ObjectID, request *UpdateParcelStatusRequest) (*models.Parcel, error)
}

type parcelService struct {
	parcelRepo interfaces.ParcelRepository
	userRepo   interfaces.UserRepository
	pricing    PricingService
	logger     *logger.Logger
}

type ParcelAddressInput struct {
	AddressType   models.AddressType `json:"address_type" validate:"required"`
	Address       string             `json:"address" validate:"required"`
	Latitude      float64            `json:"latitude"`
	Longitude     float64            `json:"longitude"`
	ContactName   string             `json:"contact_name"`
	ContactNumber string             `json:"contact_number" validate:"required"`
}

type CreateParcelRequest struct {
	Flow         models.ParcelFlow     `json:"type" validate:"required"`
	ParcelType   models.ParcelType     `json:"parcel_type" validate:"required"`
	Weight       float64               `json:"weight"`
	Description  string                `json:"description" validate:"required"`
	ParcelCount  int                   `json:"parcel_count"`
	DeliveryType models.DeliveryType   `json:"delivery_type" validate:"required"`
	WaitingHours int                   `json:"waiting_hours"`
	Addresses    []*ParcelAddressInput `json:"addresses" validate:"required"`
}

type UpdateParcelStatusRequest struct {
	Status      models.ParcelStatus `json:"status" validate:"required"`
	Description string              `json:"description,omitempty"`
	Latitude    float64             `json:"latitude,omitempty"`
	Longitude   float64             `json:"longitude,omitempty"`
}

type ParcelDetail struct {
	Parcel    *models.Parcel                `json:"parcel"`
	Addresses []*models.ParcelAddress       `json:"addresses"`
	Timeline  []*models.ParcelTimelineEntry `json:"timeline"`
	Route     *RouteMetrics                 `json:"route,omitempty"`
}

// Allowed status transitions for the delivery flow. Cancellation is handled
// separately because only pre-pickup parcels can be cancelled.
var parcelTransitions = map[models.ParcelStatus][]models.ParcelStatus{
	models.ParcelStatusPending:   {models.ParcelStatusConfirmed},
	models.ParcelStatusConfirmed: {models.ParcelStatusPickedUp},
	models.ParcelStatusPickedUp:  {models.ParcelStatusInTransit},
	models.ParcelStatusInTransit: {models.ParcelStatusDelivered},
}

func NewParcelService(
	parcelRepo interfaces.ParcelRepository,
	userRepo interfaces.UserRepository,
	pricing PricingService,
	logger *logger.Logger,
) ParcelService {
	return &parcelService{
		parcelRepo: parcelRepo,
		userRepo:   userRepo,
		pricing:    pricing,
		logger:     logger,
	}
}

func (s *parcelService) CreateParcel(ctx context.Context, userID primitive.ObjectID, request *CreateParcelRequest) (*ParcelDetail, error) {
	if err := validateCreateParcel(request); err != nil {
		return nil, err
	}

	addresses := make([]*models.ParcelAddress, len(request.Addresses))
	deliveries := 0
	for i, input := range request.Addresses {
		addresses[i] = &models.ParcelAddress{
			AddressType:   input.AddressType,
			Address:       input.Address,
			Latitude:      input.Latitude,
			Longitude:     input.Longitude,
			ContactName:   input.ContactName,
			ContactNumber: input.ContactNumber,
		}
		if input.AddressType == models.AddressTypeDelivery {
			deliveries++
		}
	}

	route := s.pricing.RouteMetrics(addresses)
	estimate, err := s.pricing.EstimateCost(&PricingRequest{
		ParcelType:   request.ParcelType,
		DeliveryType: request.DeliveryType,
		Weight:       request.Weight,
		DistanceKM:   route.DistanceKM,
		Destinations: deliveries,
		WaitingHours: request.WaitingHours,
	})
	if err != nil {
		return nil, err
	}

	parcelCount := request.ParcelCount
	if parcelCount == 0 {
		parcelCount = 1
	}

	parcel := &models.Parcel{
		UserID:         userID,
		TrackingNumber: utils.GenerateTrackingNumber(),
		Flow:           request.Flow,
		ParcelType:     request.ParcelType,
		Weight:         request.Weight,
		Description:    request.Description,
		ParcelCount:    parcelCount,
		DeliveryType:   request.DeliveryType,
		WaitingHours:   request.WaitingHours,
		EstimatedCost:  estimate.EstimatedCost,
		SavingsAmount:  estimate.SavingsAmount,
	}

	if err := s.parcelRepo.Create(ctx, parcel, addresses); err != nil {
		return nil, NewStorageError("create parcel", err, false)
	}

	s.appendTimeline(ctx, parcel.ID, models.ParcelStatusPending, "Parcel registered", &userID, 0, 0)
	s.logger.LogParcelEvent(parcel.ID, utils.EventParcelCreated, parcel.EstimatedCost, utils.DefaultCurrency)

	return &ParcelDetail{
		Parcel:    parcel,
		Addresses: addresses,
		Route:     route,
	}, nil
}

func (s *parcelService) GetParcel(ctx context.Context, parcelID primitive.ObjectID) (*ParcelDetail, error) {
	parcel, err := s.parcelRepo.GetByID(ctx, parcelID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("parcel", parcelID.Hex())
		}
		return nil, NewStorageError("get parcel", err, false)
	}
	return s.parcelDetail(ctx, parcel)
}

func (s *parcelService) TrackParcel(ctx context.Context, trackingNumber string) (*ParcelDetail, error) {
	parcel, err := s.parcelRepo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("parcel", trackingNumber)
		}
		return nil, NewStorageError("get parcel", err, false)
	}
	return s.parcelDetail(ctx, parcel)
}

func (s *parcelService) ListParcels(ctx context.Context, userID primitive.ObjectID, filters *interfaces.ParcelFilters, params *utils.PaginationParams) ([]*models.Parcel, int64, error) {
	parcels, total, err := s.parcelRepo.ListByUser(ctx, userID, filters, params)
	if err != nil {
		return nil, 0, NewStorageError("list parcels", err, false)
	}
	return parcels, total, nil
}

func (s *parcelService) CancelParcel(ctx context.Context, parcelID, userID primitive.ObjectID, reason string) (*models.Parcel, error) {
	parcel, err := s.parcelRepo.GetByID(ctx, parcelID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("parcel", parcelID.Hex())
		}
		return nil, NewStorageError("get parcel", err, false)
	}
	if parcel.UserID != userID {
		return nil, NewNotFoundError("parcel", parcelID.Hex())
	}
	if parcel.Status != models.ParcelStatusPending && parcel.Status != models.ParcelStatusConfirmed {
		return nil, NewConflictError("parcel %s can no longer be cancelled", parcel.TrackingNumber)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":        models.ParcelStatusCancelled,
		"cancel_reason": reason,
		"cancelled_at":  now,
	}
	if err := s.parcelRepo.Update(ctx, parcelID, updates); err != nil {
		return nil, NewStorageError("update parcel", err, false)
	}

	parcel.Status = models.ParcelStatusCancelled
	parcel.CancelReason = reason
	parcel.CancelledAt = &now

	s.appendTimeline(ctx, parcelID, models.ParcelStatusCancelled, reason, &userID, 0, 0)

	return parcel, nil
}

// AssignDriver hands the parcel to a driver. Only verified drivers qualify.
func (s *parcelService) AssignDriver(ctx context.Context, parcelID, driverID primitive.ObjectID) (*models.Parcel, error) {
	driver, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("driver", driverID.Hex())
		}
		return nil, NewStorageError("get driver", err, false)
	}
	if !driver.DriverVerified {
		return nil, NewConflictError(utils.ErrDriverNotVerified)
	}

	parcel, err := s.parcelRepo.GetByID(ctx, parcelID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("parcel", parcelID.Hex())
		}
		return nil, NewStorageError("get parcel", err, false)
	}
	if parcel.Status != models.ParcelStatusPending {
		return nil, NewConflictError("parcel %s is not awaiting a driver", parcel.TrackingNumber)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"driver_id":   driverID,
		"status":      models.ParcelStatusConfirmed,
		"assigned_at": now,
	}
	if err := s.parcelRepo.Update(ctx, parcelID, updates); err != nil {
		return nil, NewStorageError("update parcel", err, false)
	}

	parcel.DriverID = &driverID
	parcel.Status = models.ParcelStatusConfirmed
	parcel.AssignedAt = &now

	s.appendTimeline(ctx, parcelID, models.ParcelStatusConfirmed, "Driver assigned", &driverID, 0, 0)

	return parcel, nil
}

func (s *parcelService) UpdateParcelStatus(ctx context.Context, parcelID, driverID primitive.ObjectID, request *UpdateParcelStatusRequest) (*models.Parcel, error) {
	parcel, err := s.parcelRepo.GetByID(ctx, parcelID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("parcel", parcelID.Hex())
		}
		return nil, NewStorageError("get parcel", err, false)
	}
	if parcel.DriverID == nil || *parcel.DriverID != driverID {
		return nil, NewConflictError("parcel %s is not assigned to this driver", parcel.TrackingNumber)
	}

	if !transitionAllowed(parcel.Status, request.Status) {
		return nil, NewConflictError("parcel cannot move from %s to %s", parcel.Status, request.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status": request.Status,
	}
	switch request.Status {
	case models.ParcelStatusPickedUp:
		updates["pickup_completed_at"] = now
		parcel.PickupCompletedAt = &now
	case models.ParcelStatusInTransit:
		updates["delivery_started_at"] = now
		parcel.DeliveryStartedAt = &now
	case models.ParcelStatusDelivered:
		updates["delivered_at"] = now
		updates["final_cost"] = parcel.EstimatedCost
		parcel.DeliveredAt = &now
		parcel.FinalCost = parcel.EstimatedCost
	}

	if err := s.parcelRepo.Update(ctx, parcelID, updates); err != nil {
		return nil, NewStorageError("update parcel", err, false)
	}
	parcel.Status = request.Status

	s.appendTimeline(ctx, parcelID, request.Status, request.Description, &driverID, request.Latitude, request.Longitude)

	if request.Status == models.ParcelStatusDelivered {
		s.logger.LogParcelEvent(parcelID, utils.EventParcelDelivered, parcel.FinalCost, utils.DefaultCurrency)
	}

	return parcel, nil
}

func (s *parcelService) parcelDetail(ctx context.Context, parcel *models.Parcel) (*ParcelDetail, error) {
	addresses, err := s.parcelRepo.GetAddresses(ctx, parcel.ID)
	if err != nil {
		return nil, NewStorageError("get parcel addresses", err, false)
	}
	timeline, err := s.parcelRepo.GetTimeline(ctx, parcel.ID)
	if err != nil {
		return nil, NewStorageError("get parcel timeline", err, false)
	}

	return &ParcelDetail{
		Parcel:    parcel,
		Addresses: addresses,
		Timeline:  timeline,
		Route:     s.pricing.RouteMetrics(addresses),
	}, nil
}

func (s *parcelService) appendTimeline(ctx context.Context, parcelID primitive.ObjectID, status models.ParcelStatus, description string, triggeredBy *primitive.ObjectID, lat, lon float64) {
	entry := &models.ParcelTimelineEntry{
		ParcelID:    parcelID,
		Status:      status,
		Description: description,
		Latitude:    lat,
		Longitude:   lon,
		TriggeredBy: triggeredBy,
	}
	if err := s.parcelRepo.AppendTimeline(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("parcel_id", parcelID.Hex()).Warn("Failed to append parcel timeline")
	}
}

func transitionAllowed(from, to models.ParcelStatus) bool {
	for _, allowed := range parcelTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func validateCreateParcel(request *CreateParcelRequest) error {
	fields := make(map[string]string)

	if request.Flow != models.ParcelFlowSend && request.Flow != models.ParcelFlowReceive {
		fields["type"] = "must be send or receive"
	}
	if request.Description == "" {
		fields["description"] = "required"
	}

	pickups, deliveries := 0, 0
	for _, address := range request.Addresses {
		switch address.AddressType {
		case models.AddressTypePickup:
			pickups++
		case models.AddressTypeDelivery:
			deliveries++
		default:
			fields["addresses"] = "address_type must be pickup or delivery"
		}
		if address.Address == "" || address.ContactNumber == "" {
			fields["addresses"] = "address and contact_number are required for every stop"
		}
	}
	if pickups != 1 {
		fields["addresses"] = "exactly one pickup address is required"
	}
	if deliveries < 1 {
		fields["addresses"] = "at least one delivery address is required"
	} else if deliveries > utils.MaxDestinations {
		fields["addresses"] = "at most 5 delivery addresses allowed"
	}

	if len(fields) > 0 {
		return NewValidationError("invalid parcel", fields)
	}
	return nil
}
