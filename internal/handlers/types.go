// Package handlers contains the Echo HTTP handlers for the gateway API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartkrishi/smsgate/internal/conversation"
	"github.com/smartkrishi/smsgate/internal/pipeline"
)

// StatusResponse is the generic status/message payload.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SendRequest is the POST /send payload.
type SendRequest struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

// ChatHistoryResponse is the GET /history/:phone_number payload.
type ChatHistoryResponse struct {
	PhoneNumber string               `json:"phone_number"`
	Messages    []conversation.Entry `json:"messages"`
	TotalCount  int                  `json:"total_count"`
}

// httpError maps pipeline errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, pipeline.ErrInvalidPhone), errors.Is(err, pipeline.ErrEmptyMessage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, pipeline.ErrQueueFull):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
