package handlers

import (
	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/repositories/interfaces"
	"github.com/KOLIFAST/backend/internal/services"
	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/internal/validators"

	"github.com/gin-gonic/gin"
)

type ParcelHandler struct {
	parcelService  services.ParcelService
	pricingService services.PricingService
}

func NewParcelHandler(parcelService services.ParcelService, pricingService services.PricingService) *ParcelHandler {
	return &ParcelHandler{
		parcelService:  parcelService,
		pricingService: pricingService,
	}
}

// EstimateCost quotes a delivery without creating it
func (h *ParcelHandler) EstimateCost(c *gin.Context) {
	var request services.PricingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	estimate, err := h.pricingService.EstimateCost(&request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Cost estimated", estimate)
}

// CreateParcel registers a new delivery
func (h *ParcelHandler) CreateParcel(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var request services.CreateParcelRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	stops := make([]*validators.ParcelStop, len(request.Addresses))
	for i, address := range request.Addresses {
		stops[i] = &validators.ParcelStop{
			AddressType:   string(address.AddressType),
			Address:       address.Address,
			ContactNumber: address.ContactNumber,
		}
	}
	creation := &validators.ParcelCreation{
		Flow:         string(request.Flow),
		ParcelType:   string(request.ParcelType),
		Weight:       request.Weight,
		Description:  request.Description,
		ParcelCount:  request.ParcelCount,
		DeliveryType: string(request.DeliveryType),
		WaitingHours: request.WaitingHours,
	}
	if errs := validators.ValidateParcelCreation(creation, stops); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Fields())
		return
	}

	detail, err := h.parcelService.CreateParcel(c.Request.Context(), userID, &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Parcel created", detail)
}

// GetParcel returns one parcel with its stops and timeline
func (h *ParcelHandler) GetParcel(c *gin.Context) {
	parcelID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.parcelService.GetParcel(c.Request.Context(), parcelID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Parcel retrieved", detail)
}

// TrackParcel looks a parcel up by tracking number; no authentication needed
func (h *ParcelHandler) TrackParcel(c *gin.Context) {
	trackingNumber := c.Param("tracking_number")
	if trackingNumber == "" {
		utils.BadRequestResponse(c, "Tracking number is required")
		return
	}

	detail, err := h.parcelService.TrackParcel(c.Request.Context(), trackingNumber)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Parcel retrieved", detail)
}

// ListParcels returns the caller's parcels
func (h *ParcelHandler) ListParcels(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	filters := &interfaces.ParcelFilters{
		Status: models.ParcelStatus(c.Query("status")),
		Flow:   models.ParcelFlow(c.Query("type")),
	}

	params := utils.GetPaginationParams(c)
	parcels, total, err := h.parcelService.ListParcels(c.Request.Context(), userID, filters, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Parcels retrieved", parcels, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
		Count:      len(parcels),
	})
}

// CancelParcel cancels a parcel that has not been picked up yet
func (h *ParcelHandler) CancelParcel(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	parcelID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request struct {
		Reason string `json:"reason"`
	}
	c.ShouldBindJSON(&request)

	parcel, err := h.parcelService.CancelParcel(c.Request.Context(), parcelID, userID, request.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Parcel cancelled", parcel)
}

// AcceptParcel assigns the parcel to the calling driver
func (h *ParcelHandler) AcceptParcel(c *gin.Context) {
	driverID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	parcelID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	parcel, err := h.parcelService.AssignDriver(c.Request.Context(), parcelID, driverID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Parcel accepted", parcel)
}

// UpdateStatus moves the parcel along the delivery flow
func (h *ParcelHandler) UpdateStatus(c *gin.Context) {
	driverID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	parcelID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request services.UpdateParcelStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	parcel, err := h.parcelService.UpdateParcelStatus(c.Request.Context(), parcelID, driverID, &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Parcel status updated", parcel)
}
