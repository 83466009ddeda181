package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vcscsvcscs/medadherence/internal/repository"
	"github.com/vcscsvcscs/medadherence/internal/service"
	"github.com/vcscsvcscs/medadherence/pkg/api"
	"go.uber.org/zap"
)

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

func badRequest(c *gin.Context, message string, details string) {
	resp := api.ErrorResponse{Code: "VALIDATION_ERROR", Message: message}
	if details != "" {
		resp.Details = stringPtr(details)
	}
	c.JSON(http.StatusBadRequest, resp)
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, api.ErrorResponse{Code: "NOT_FOUND", Message: message})
}

// respondError maps a service error onto the standard error body. Storage failures
// are logged and attached to the gin context for the error logging middleware.
func respondError(c *gin.Context, logger *zap.Logger, err error, message string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		badRequest(c, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "), "")
	case errors.Is(err, repository.ErrNotFound):
		notFound(c, message+": not found")
	default:
		logger.Error(message,
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("user_id", c.GetString("user_id")),
		)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: message,
		})
	}
}

// bindUserID validates a user UUID and records it for request logging
func bindUserID(c *gin.Context, raw string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		badRequest(c, "user_id must be a valid UUID", "")
		return "", false
	}
	c.Set("user_id", id.String())
	return id.String(), true
}

// queryUserID reads the required user_id query parameter
func queryUserID(c *gin.Context) (string, bool) {
	return bindUserID(c, c.Query("user_id"))
}

// pathID validates a UUID path parameter
func pathID(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, name+" must be a valid UUID", "")
		return "", false
	}
	return id.String(), true
}

// queryDays reads an optional positive day count; absent means 0, the service default
func queryDays(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		badRequest(c, name+" must be a positive integer", "")
		return 0, false
	}
	return days, true
}

// queryLocation reads the optional IANA tz parameter; absent means the configured zone
func queryLocation(c *gin.Context) (*time.Location, bool) {
	raw := c.Query("tz")
	if raw == "" {
		return nil, true
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		badRequest(c, "tz must be an IANA time zone name", err.Error())
		return nil, false
	}
	return loc, true
}
