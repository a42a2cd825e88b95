package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/smartkrishi/smsgate/internal/pipeline"
)

// MessagesHandler serves outbound sending, long-poll receive, and the
// direct chat-to-AI endpoint.
type MessagesHandler struct {
	service *pipeline.Service
	logger  *slog.Logger
}

func NewMessagesHandler(log *slog.Logger, service *pipeline.Service) *MessagesHandler {
	return &MessagesHandler{
		service: service,
		logger:  log.With(slog.String("handler", "messages")),
	}
}

func (h *MessagesHandler) Register(e *echo.Echo) {
	e.POST("/send", h.Send)
	e.GET("/receive", h.Receive)
	e.POST("/chat/:phone_number", h.Chat)
}

// Send queues an SMS for delivery; long text is chunked by the send worker.
func (h *MessagesHandler) Send(c echo.Context) error {
	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.EnqueueOutbound(strings.TrimSpace(req.PhoneNumber), req.Message); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "SMS queued for sending",
	})
}

// Receive long-polls for the next inbound message. A quiet window is a
// normal outcome, not an error.
func (h *MessagesHandler) Receive(c echo.Context) error {
	msg, err := h.service.AwaitInbound(c.Request().Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrNoNewMessages) {
			return c.JSON(http.StatusOK, map[string]string{"status": "no_new_messages"})
		}
		return httpError(err)
	}
	return c.JSON(http.StatusOK, msg)
}

// Chat records a message for a phone number and dispatches it to the AI
// (registering the number when needed).
func (h *MessagesHandler) Chat(c echo.Context) error {
	phone := strings.TrimSpace(c.Param("phone_number"))
	message := strings.TrimSpace(c.QueryParam("message"))
	if err := h.service.ChatMessage(phone, message); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Message sent for AI processing",
	})
}
