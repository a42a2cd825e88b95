package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/smartkrishi/smsgate/internal/pipeline"
)

const defaultHistoryLimit = 100

// HistoryHandler serves conversation history, registration, and the
// registered-number listing.
type HistoryHandler struct {
	service *pipeline.Service
	logger  *slog.Logger
}

func NewHistoryHandler(log *slog.Logger, service *pipeline.Service) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  log.With(slog.String("handler", "history")),
	}
}

func (h *HistoryHandler) Register(e *echo.Echo) {
	e.GET("/history/:phone_number", h.Get)
	e.DELETE("/history/:phone_number", h.Clear)
	e.POST("/register/:phone_number", h.RegisterNumber)
	e.GET("/numbers", h.Numbers)
}

// Get returns the most recent history entries for a phone number.
func (h *HistoryHandler) Get(c echo.Context) error {
	phone := strings.TrimSpace(c.Param("phone_number"))

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = parsed
	}

	entries, total, err := h.service.History(phone, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ChatHistoryResponse{
		PhoneNumber: phone,
		Messages:    entries,
		TotalCount:  total,
	})
}

// Clear wipes a phone number's history and AI session.
func (h *HistoryHandler) Clear(c echo.Context) error {
	phone := strings.TrimSpace(c.Param("phone_number"))
	if err := h.service.UnregisterAndClear(phone); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, StatusResponse{
		Status:  "success",
		Message: fmt.Sprintf("History cleared for %s", phone),
	})
}

// RegisterNumber adds a phone number to the auto-reply set.
func (h *HistoryHandler) RegisterNumber(c echo.Context) error {
	phone := strings.TrimSpace(c.Param("phone_number"))
	created, err := h.service.Register(phone)
	if err != nil {
		return httpError(err)
	}
	if !created {
		return c.JSON(http.StatusOK, StatusResponse{
			Status:  "info",
			Message: fmt.Sprintf("Phone number %s is already registered", phone),
		})
	}
	return c.JSON(http.StatusOK, StatusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Phone number %s registered successfully", phone),
	})
}

// Numbers lists the registered phone numbers.
func (h *HistoryHandler) Numbers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.ListRegistered())
}
