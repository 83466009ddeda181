package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/medadherence/internal/service"
	"github.com/vcscsvcscs/medadherence/pkg/api"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

// MedicationHandler implements medication API endpoints
type MedicationHandler struct {
	service *service.MedicationService
	logger  *zap.Logger
}

// NewMedicationHandler creates a new MedicationHandler
func NewMedicationHandler(service *service.MedicationService, logger *zap.Logger) *MedicationHandler {
	return &MedicationHandler{
		service: service,
		logger:  logger,
	}
}

// CreateMedication adds a new medication
func (h *MedicationHandler) CreateMedication(c *gin.Context) {
	var req api.CreateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	userID, ok := bindUserID(c, req.UserId)
	if !ok {
		return
	}

	medication := &model.Medication{
		Name:     req.Name,
		Dosage:   req.Dosage,
		Schedule: req.Schedule,
		Notes:    req.Notes,
	}
	if req.StartDate != nil {
		medication.StartDate = req.StartDate.Time
	}
	if req.EndDate != nil {
		endDate := req.EndDate.Time
		medication.EndDate = &endDate
	}

	if err := h.service.AddMedication(c.Request.Context(), userID, medication); err != nil {
		respondError(c, h.logger, err, "Failed to add medication")
		return
	}

	c.JSON(http.StatusCreated, api.NewMedicationResponse(medication))
}

// ListMedications lists all medications for a user
func (h *MedicationHandler) ListMedications(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}

	medications, err := h.service.ListMedications(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list medications")
		return
	}

	response := make([]api.MedicationResponse, 0, len(medications))
	for i := range medications {
		response = append(response, api.NewMedicationResponse(&medications[i]))
	}

	c.JSON(http.StatusOK, response)
}

// UpdateMedication replaces a medication's editable fields
func (h *MedicationHandler) UpdateMedication(c *gin.Context) {
	medicationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req api.UpdateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	userID, ok := bindUserID(c, req.UserId)
	if !ok {
		return
	}

	medication := &model.Medication{
		Name:     req.Name,
		Dosage:   req.Dosage,
		Schedule: req.Schedule,
		Notes:    req.Notes,
	}
	if req.StartDate != nil {
		medication.StartDate = req.StartDate.Time
	}
	if req.EndDate != nil {
		endDate := req.EndDate.Time
		medication.EndDate = &endDate
	}

	if err := h.service.UpdateMedication(c.Request.Context(), userID, medicationID, medication); err != nil {
		respondError(c, h.logger, err, "Failed to update medication")
		return
	}

	c.JSON(http.StatusOK, api.NewMedicationResponse(medication))
}

// DeactivateMedication end-dates a medication today and keeps its history
func (h *MedicationHandler) DeactivateMedication(c *gin.Context) {
	medicationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req api.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}
	userID, ok := bindUserID(c, req.UserId)
	if !ok {
		return
	}

	medication, err := h.service.DeactivateMedication(c.Request.Context(), userID, medicationID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to deactivate medication")
		return
	}

	c.JSON(http.StatusOK, api.NewMedicationResponse(medication))
}

// DeleteMedication removes a medication and its dose history
func (h *MedicationHandler) DeleteMedication(c *gin.Context) {
	medicationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := queryUserID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteMedication(c.Request.Context(), userID, medicationID); err != nil {
		respondError(c, h.logger, err, "Failed to delete medication")
		return
	}

	c.Status(http.StatusNoContent)
}

// LogDose records the outcome of a scheduled dose
func (h *MedicationHandler) LogDose(c *gin.Context) {
	medicationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req api.LogDoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		badRequest(c, "Invalid request body", err.Error())
		return
	}
	userID, ok := bindUserID(c, req.UserId)
	if !ok {
		return
	}

	record, err := h.service.LogDose(c.Request.Context(), userID, medicationID, service.DoseLog{
		ScheduledTime: req.ScheduledTime,
		Status:        model.DoseStatus(req.Status),
		TakenAt:       req.TakenAt,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to log dose")
		return
	}

	c.JSON(http.StatusOK, record)
}
