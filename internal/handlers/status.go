package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartkrishi/smsgate/internal/pipeline"
)

// StatusHandler serves liveness and the system status snapshot.
type StatusHandler struct {
	service *pipeline.Service
	logger  *slog.Logger
}

func NewStatusHandler(log *slog.Logger, service *pipeline.Service) *StatusHandler {
	return &StatusHandler{
		service: service,
		logger:  log.With(slog.String("handler", "status")),
	}
}

func (h *StatusHandler) Register(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/ping", h.Root)
	e.GET("/status", h.Status)
}

func (h *StatusHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Status:  "online",
		Message: "SMS gateway is running",
	})
}

func (h *StatusHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Status(c.Request().Context()))
}
