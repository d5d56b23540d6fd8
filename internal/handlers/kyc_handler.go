package handlers

import (
	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/services"
	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/internal/validators"
	"github.com/KOLIFAST/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type KYCHandler struct {
	kycService    services.KYCService
	uploadService services.UploadService
	audit         *logger.AuditLogger
}

func NewKYCHandler(kycService services.KYCService, uploadService services.UploadService, audit *logger.AuditLogger) *KYCHandler {
	return &KYCHandler{
		kycService:    kycService,
		uploadService: uploadService,
		audit:         audit,
	}
}

// SubmitDocument uploads a verification document and records it. Expects
// multipart form data: category, identity_type (identity only), a front file
// and, for the cni, a back file.
func (h *KYCHandler) SubmitDocument(c *gin.Context) {
	driverID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	category := models.DocumentCategory(c.PostForm("category"))
	identityType := models.IdentityDocumentType(c.PostForm("identity_type"))

	frontHeader, err := c.FormFile("front")
	if err != nil {
		utils.BadRequestResponse(c, "Front file is required")
		return
	}

	submission := &validators.DocumentSubmission{
		Category:     string(category),
		IdentityType: string(identityType),
		FrontKey:     frontHeader.Filename,
	}
	if backHeader, err := c.FormFile("back"); err == nil {
		submission.BackKey = backHeader.Filename
	}
	if errs := validators.ValidateDocumentSubmission(submission); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Fields())
		return
	}

	front, err := h.uploadService.UploadKYCDocument(c.Request.Context(), category, frontHeader)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	request := &services.SubmitDocumentRequest{
		Category:     category,
		IdentityType: identityType,
		FrontKey:     front.Key,
		FileSize:     front.Size,
		MimeType:     front.MimeType,
	}

	if backHeader, err := c.FormFile("back"); err == nil {
		back, err := h.uploadService.UploadKYCDocument(c.Request.Context(), category, backHeader)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		request.BackKey = back.Key
		request.FileSize += back.Size
	}

	document, err := h.kycService.SubmitDocument(c.Request.Context(), driverID, request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Document submitted", document)
}

// GetStatus returns the driver's verification file
func (h *KYCHandler) GetStatus(c *gin.Context) {
	driverID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	detail, err := h.kycService.GetStatus(c.Request.Context(), driverID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "KYC status retrieved", detail)
}

// SubmitReferences replaces the driver's reference list
func (h *KYCHandler) SubmitReferences(c *gin.Context) {
	driverID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var request services.ReplaceReferencesRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	submissions := make([]*validators.ReferenceSubmission, len(request.References))
	for i, reference := range request.References {
		submissions[i] = &validators.ReferenceSubmission{
			FullName: reference.FullName,
			Phone:    reference.Phone,
			Relation: reference.Relation,
		}
	}
	if errs := validators.ValidateReferences(submissions); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Fields())
		return
	}

	references, err := h.kycService.ReplaceReferences(c.Request.Context(), driverID, &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "References saved", references)
}

// SubmitForReview closes the driver's submission once every mandatory
// category is in
func (h *KYCHandler) SubmitForReview(c *gin.Context) {
	driverID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	detail, err := h.kycService.SubmitForReview(c.Request.Context(), driverID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Submitted for review", detail)
}

// GetDriverStatus returns another driver's verification file (admin)
func (h *KYCHandler) GetDriverStatus(c *gin.Context) {
	driverID, ok := objectIDParam(c, "driver_id")
	if !ok {
		return
	}

	detail, err := h.kycService.GetStatus(c.Request.Context(), driverID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "KYC status retrieved", detail)
}

// ListDriverDocuments returns a driver's document ledger (admin)
func (h *KYCHandler) ListDriverDocuments(c *gin.Context) {
	driverID, ok := objectIDParam(c, "driver_id")
	if !ok {
		return
	}

	documents, err := h.kycService.ListDocuments(c.Request.Context(), driverID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Documents retrieved", documents)
}

// DecideDocument records a reviewer verdict on one document (admin)
func (h *KYCHandler) DecideDocument(c *gin.Context) {
	reviewerID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	documentID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request services.DocumentDecisionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	request.ReviewerID = reviewerID

	document, err := h.kycService.RecordDocumentDecision(c.Request.Context(), documentID, &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.audit.LogVerificationDecision(reviewerID, document.DriverID, "kyc_document", documentID.Hex(), string(request.Decision))

	utils.SuccessResponse(c, "Decision recorded", document)
}

// DecideReference records a contact-check outcome on one reference (admin)
func (h *KYCHandler) DecideReference(c *gin.Context) {
	reviewerID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	referenceID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request services.ReferenceDecisionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	reference, err := h.kycService.RecordReferenceDecision(c.Request.Context(), referenceID, &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.audit.LogVerificationDecision(reviewerID, reference.DriverID, "kyc_reference", referenceID.Hex(), string(request.Status))

	utils.SuccessResponse(c, "Decision recorded", reference)
}
