package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-chat/internal/api/dto"
	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/service"
)

// FilesHandler accepts image and voice uploads.
type FilesHandler struct {
	chat *service.ChatService
}

// NewFilesHandler constructs handler.
func NewFilesHandler(chat *service.ChatService) *FilesHandler {
	return &FilesHandler{chat: chat}
}

// UploadImage handles POST /api/files/upload/image.
func (h *FilesHandler) UploadImage(c *fiber.Ctx) error {
	return h.upload(c, domain.ContentImage)
}

// UploadVoice handles POST /api/files/upload/voice.
func (h *FilesHandler) UploadVoice(c *fiber.Ctx) error {
	return h.upload(c, domain.ContentVoice)
}

func (h *FilesHandler) upload(c *fiber.Ctx, kind domain.ContentKind) error {
	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "file is required")
	}
	sender := c.FormValue("sender_type", string(domain.SenderCustomer))

	file, err := header.Open()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "unreadable file")
	}
	defer file.Close()

	session, _ := auth.SessionFromContext(c)
	msg, err := h.chat.UploadMedia(c.UserContext(), service.UploadInput{
		CustomerID: c.FormValue("user_id"),
		Sender:     domain.SenderRole(sender),
		Kind:       kind,
		FileName:   header.Filename,
		Body:       file,
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
