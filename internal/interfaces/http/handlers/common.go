// Package handlers implements the JSON API of the compliance platform.
// Every response is wrapped in the common.APIResponse envelope; errors
// carry their platform error code and map to HTTP status in one place.
package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SeaCert-Compliance/internal/interfaces/http/middleware"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// respond writes a success envelope.
func respond(c *gin.Context, status int, data interface{}) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = middleware.GetRequestID(c)
	c.JSON(status, resp)
}

// respondPaginated writes a success envelope with pagination metadata.
func respondPaginated(c *gin.Context, status int, data interface{}, page common.Pagination) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = middleware.GetRequestID(c)
	resp.Pagination = &page
	c.JSON(status, resp)
}

// respondError maps a platform error to its HTTP status and writes an
// error envelope. Non-AppError values are masked as internal errors.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := err.Error()
	if errors.IsServerError(code) {
		message = errors.DefaultMessageForCode(code)
	}

	resp := common.NewErrorResponse(string(code), message)
	resp.RequestID = middleware.GetRequestID(c)
	c.AbortWithStatusJSON(status, resp)
}

// pathID extracts a non-empty path parameter as an entity ID.
func pathID(c *gin.Context, name string) (common.ID, bool) {
	v := strings.TrimSpace(c.Param(name))
	if v == "" {
		respondError(c, errors.InvalidParam(name+" is required"))
		return "", false
	}
	return common.ID(v), true
}

// parsePagination reads page and page_size query parameters with the
// platform defaults and bounds.
func parsePagination(c *gin.Context) common.Pagination {
	page := 1
	pageSize := defaultPageSize

	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := c.Query("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= maxPageSize {
			pageSize = ps
		}
	}
	return common.Pagination{Page: page, PageSize: pageSize}
}

// parseDate parses a calendar date in 2006-01-02 form.
func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, errors.InvalidParam(field + " must be a date in YYYY-MM-DD form")
	}
	return t, nil
}

// parseOptionalDate parses a date that may be absent.
func parseOptionalDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
