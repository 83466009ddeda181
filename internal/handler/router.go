package handler

import "github.com/gin-gonic/gin"

// Handlers groups every endpoint implementation
type Handlers struct {
	Health      *HealthHandler
	Adherence   *AdherenceHandler
	Medication  *MedicationHandler
	Metric      *MetricHandler
	Correlation *CorrelationHandler
}

// RegisterRoutes mounts the API on r
func RegisterRoutes(r gin.IRouter, h Handlers) {
	r.GET("/health", h.Health.GetHealth)

	v1 := r.Group("/api/v1")

	adherence := v1.Group("/adherence")
	adherence.GET("/overview", h.Adherence.GetOverview)
	adherence.GET("/medications/:id", h.Adherence.GetMedicationAdherence)

	medications := v1.Group("/medications")
	medications.POST("", h.Medication.CreateMedication)
	medications.GET("", h.Medication.ListMedications)
	medications.PUT("/:id", h.Medication.UpdateMedication)
	medications.POST("/:id/deactivate", h.Medication.DeactivateMedication)
	medications.DELETE("/:id", h.Medication.DeleteMedication)
	medications.POST("/:id/doses", h.Medication.LogDose)

	metrics := v1.Group("/metrics")
	metrics.POST("", h.Metric.RecordMetric)
	metrics.GET("", h.Metric.ListMetrics)

	correlations := v1.Group("/correlations")
	correlations.POST("/run", h.Correlation.RunAnalysis)
	correlations.GET("", h.Correlation.ListInsights)
	correlations.GET("/medications/:id", h.Correlation.AnalyzeMedication)
}
