package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/medadherence/internal/service"
	"github.com/vcscsvcscs/medadherence/pkg/api"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

// CorrelationHandler implements correlation endpoints
type CorrelationHandler struct {
	service *service.CorrelationService
	logger  *zap.Logger
}

// NewCorrelationHandler creates a new CorrelationHandler
func NewCorrelationHandler(service *service.CorrelationService, logger *zap.Logger) *CorrelationHandler {
	return &CorrelationHandler{
		service: service,
		logger:  logger,
	}
}

// RunAnalysis recomputes and persists every correlation for the user
func (h *CorrelationHandler) RunAnalysis(c *gin.Context) {
	var req api.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}
	userID, ok := bindUserID(c, req.UserId)
	if !ok {
		return
	}

	results, err := h.service.RunCorrelationAnalysis(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to run correlation analysis")
		return
	}
	if results == nil {
		results = []model.CorrelationResult{}
	}

	c.JSON(http.StatusOK, api.CorrelationListResponse{Results: results, Count: len(results)})
}

// ListInsights returns the user's persisted correlation results
func (h *CorrelationHandler) ListInsights(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}

	results, err := h.service.GetCorrelationInsights(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load correlation insights")
		return
	}
	if results == nil {
		results = []model.CorrelationResult{}
	}

	c.JSON(http.StatusOK, api.CorrelationListResponse{Results: results, Count: len(results)})
}

// AnalyzeMedication runs one ad-hoc analysis without persisting it
func (h *CorrelationHandler) AnalyzeMedication(c *gin.Context) {
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
	metric := model.MetricType(c.DefaultQuery("metric", string(model.MetricWeight)))

	result, err := h.service.AnalyzeMedicationMetricCorrelation(c.Request.Context(), userID, medicationID, metric, days)
	if err != nil {
		respondError(c, h.logger, err, "Failed to analyze correlation")
		return
	}

	c.JSON(http.StatusOK, api.CorrelationAnalysisResponse{Result: result})
}
