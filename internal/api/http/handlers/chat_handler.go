package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-chat/internal/api/dto"
	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/guard"
	"github.com/spec-kit/support-chat/internal/service"
)

// ChatHandler exposes customer and message endpoints.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Register handles POST /api/users.
func (h *ChatHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	customer, created, err := h.chat.RegisterCustomer(c.UserContext(), req.UserID, req.Name)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"data": fiber.Map{
			"user":    dto.NewCustomerResponse(customer),
			"created": created,
		},
	})
}

// SendMessage handles POST /api/messages. Media goes through the upload
// endpoints.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.SenderType == "" {
		req.SenderType = string(domain.SenderCustomer)
	}
	if req.MessageType != "" && req.MessageType != string(domain.ContentText) {
		return &guard.ValidationError{Field: "message_type", Reason: "only text is accepted here; upload media through /api/files"}
	}

	session, _ := auth.SessionFromContext(c)
	msg, err := h.chat.SendMessage(c.UserContext(), service.SendMessageInput{
		CustomerID: req.UserID,
		Sender:     domain.SenderRole(req.SenderType),
		Content:    req.Content,
	}, session)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"message_id": msg.ID,
			"message":    dto.NewMessageResponse(msg),
		},
	})
}

// ListMessages handles GET /api/messages/:user_id.
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	msgs, err := h.chat.ListMessages(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"messages": dto.NewMessageList(msgs),
		},
	})
}
