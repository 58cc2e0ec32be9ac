package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/guard"
	"github.com/spec-kit/support-chat/internal/hub"
)

// StreamHandler serves server-sent events from the notification hub.
type StreamHandler struct {
	hub       *hub.Hub
	validator guard.Validator
	keepalive time.Duration
	// base outlives single requests; cancelling it ends every open stream.
	base   context.Context
	logger *zap.Logger
}

// NewStreamHandler constructs handler.
func NewStreamHandler(base context.Context, h *hub.Hub, validator guard.Validator, keepalive time.Duration, logger *zap.Logger) *StreamHandler {
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	return &StreamHandler{hub: h, validator: validator, keepalive: keepalive, base: base, logger: logger}
}

// Stream handles GET /api/stream/:user_id. Each event is one `data:` frame;
// a ping frame is written whenever the keepalive interval passes quietly.
// A closed client is noticed on the next write.
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	recipient := c.Params("user_id")
	if err := h.validator.ValidateCustomerID(recipient); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	listener := h.hub.Subscribe(recipient)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unsubscribe(listener)
		for {
			ev, err := h.hub.Drain(h.base, listener, h.keepalive)
			if err != nil {
				return
			}
			if err := writeFrame(w, ev); err != nil {
				h.logger.Debug("stream closed", zap.String("customer_id", recipient), zap.Error(err))
				return
			}
		}
	})
	return nil
}

func writeFrame(w *bufio.Writer, ev hub.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
