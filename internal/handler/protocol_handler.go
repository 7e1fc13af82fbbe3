package handler

import (
	"go-brindes-ws/internal/document"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProtocolHandler struct {
	service service.ProtocolService
}

func NewProtocolHandler(s service.ProtocolService) *ProtocolHandler {
	return &ProtocolHandler{service: s}
}

func (h *ProtocolHandler) CreateProtocol(c *fiber.Ctx) error {
	var req service.CreateProtocolRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	p, err := h.service.Create(c.UserContext(), &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Protocol created", "data": p})
}

// GetProtocols lists protocols, newest first
// Query params: status (OPEN, RETURNED, CLOSED)
func (h *ProtocolHandler) GetProtocols(c *fiber.Ctx) error {
	protocols, err := h.service.List(c.UserContext(), model.ProtocolStatus(c.Query("status")))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(protocols)
}

func (h *ProtocolHandler) GetProtocol(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid protocol ID"})
	}

	p, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

func (h *ProtocolHandler) ReturnProtocol(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid protocol ID"})
	}

	p, err := h.service.Return(c.UserContext(), id, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Protocol returned", "data": p})
}

func (h *ProtocolHandler) CloseProtocol(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid protocol ID"})
	}

	p, err := h.service.Close(c.UserContext(), id, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Protocol closed", "data": p})
}

// GetDocument streams the rendered hand-off sheet.
func (h *ProtocolHandler) GetDocument(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid protocol ID"})
	}

	p, data, err := h.service.Document(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	c.Attachment(document.Filename(p))
	c.Set(fiber.HeaderContentType, document.ContentType)
	return c.Send(data)
}
