package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/medadherence/internal/service"
	"github.com/vcscsvcscs/medadherence/pkg/api"
	"go.uber.org/zap"
)

// AdherenceHandler serves computed adherence views
type AdherenceHandler struct {
	service *service.AdherenceService
	logger  *zap.Logger
}

// NewAdherenceHandler creates a new AdherenceHandler
func NewAdherenceHandler(service *service.AdherenceService, logger *zap.Logger) *AdherenceHandler {
	return &AdherenceHandler{
		service: service,
		logger:  logger,
	}
}

// GetOverview returns the user's adherence overview with insights
func (h *AdherenceHandler) GetOverview(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	days, ok := queryDays(c, "days")
	if !ok {
		return
	}
	loc, ok := queryLocation(c)
	if !ok {
		return
	}

	overview, err := h.service.ComputeOverview(c.Request.Context(), userID, days, loc)
	if err != nil {
		respondError(c, h.logger, err, "Failed to compute adherence overview")
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetMedicationAdherence returns one medication's adherence stats
func (h *AdherenceHandler) GetMedicationAdherence(c *gin.Context) {
	medicationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	days, ok := queryDays(c, "days")
	if !ok {
		return
	}
	loc, ok := queryLocation(c)
	if !ok {
		return
	}

	detail, err := h.service.GetMedicationAdherence(c.Request.Context(), userID, medicationID, days, loc)
	if err != nil {
		respondError(c, h.logger, err, "Failed to compute medication adherence")
		return
	}
	if detail.Medication == nil {
		notFound(c, "Medication not found")
		return
	}

	c.JSON(http.StatusOK, api.MedicationAdherenceResponse{
		Medication: api.NewMedicationResponse(detail.Medication),
		Stats:      detail.Stats,
	})
}
