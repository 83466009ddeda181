package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/medadherence/internal/service"
	"github.com/vcscsvcscs/medadherence/pkg/api"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

// MetricHandler implements body metric endpoints
type MetricHandler struct {
	service *service.MetricService
	logger  *zap.Logger
}

// NewMetricHandler creates a new MetricHandler
func NewMetricHandler(service *service.MetricService, logger *zap.Logger) *MetricHandler {
	return &MetricHandler{
		service: service,
		logger:  logger,
	}
}

// RecordMetric stores a sample for a calendar date
func (h *MetricHandler) RecordMetric(c *gin.Context) {
	var req api.RecordMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		badRequest(c, "Invalid request body", err.Error())
		return
	}
	userID, ok := bindUserID(c, req.UserId)
	if !ok {
		return
	}

	var date time.Time
	if req.Date != nil {
		date = req.Date.Time
	}

	sample, err := h.service.RecordMetric(c.Request.Context(), userID, model.MetricType(req.Metric), date, *req.Value, req.Unit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to record metric")
		return
	}

	c.JSON(http.StatusOK, api.NewMetricSampleResponse(sample))
}

// ListMetrics returns samples of one metric over the trailing days
func (h *MetricHandler) ListMetrics(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	days, ok := queryDays(c, "days")
	if !ok {
		return
	}

	samples, err := h.service.ListMetrics(c.Request.Context(), userID, model.MetricType(c.Query("metric")), days)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list metrics")
		return
	}

	response := make([]api.MetricSampleResponse, 0, len(samples))
	for i := range samples {
		response = append(response, api.NewMetricSampleResponse(&samples[i]))
	}

	c.JSON(http.StatusOK, response)
}
