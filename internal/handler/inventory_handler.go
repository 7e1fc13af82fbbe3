package handler

import (
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.StockService
}

func NewInventoryHandler(s service.StockService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// StockMovementRequest is a signed quantity change; Reference is only read by
// the resolve route.
type StockMovementRequest struct {
	Reference string `json:"reference"`
	Delta     int    `json:"delta"`
}

func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	var item model.StockItem
	if err := c.BodyParser(&item); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.Create(c.UserContext(), &item, actorName(c)); err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Stock item created", "data": item})
}

func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid stock item ID"})
	}

	var item model.StockItem
	if err := c.BodyParser(&item); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.Update(c.UserContext(), id, &item, actorName(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Stock item updated", "data": updated})
}

func (h *InventoryHandler) GetItems(c *fiber.Ctx) error {
	var (
		items []model.StockItem
		err   error
	)
	if c.QueryBool("low") {
		items, err = h.service.LowStock(c.UserContext())
	} else {
		items, err = h.service.List(c.UserContext())
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(items)
}

func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid stock item ID"})
	}

	item, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// RecordMovement applies a signed delta to the item named by :id.
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid stock item ID"})
	}

	var req StockMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	res, err := h.service.ApplyDelta(c.UserContext(), id, req.Delta, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(stockResponse(res))
}

// RecordMovementByReference resolves a free-text reference first.
func (h *InventoryHandler) RecordMovementByReference(c *fiber.Ctx) error {
	var req StockMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	res, err := h.service.MutateStock(c.UserContext(), req.Reference, req.Delta, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(stockResponse(res))
}

func stockResponse(res *service.StockResult) fiber.Map {
	out := fiber.Map{"message": "Stock movement recorded", "data": res}
	if w := res.Warning(); w != "" {
		out["warning"] = w
	}
	return out
}
