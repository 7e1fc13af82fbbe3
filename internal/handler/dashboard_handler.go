package handler

import (
	"strconv"

	"go-brindes-ws/internal/middleware"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/repository"
	"go-brindes-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	daysStr := c.Query("days", "7")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days <= 0 {
		days = 7
	}

	data, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch stock movement"})
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard stats"})
	}

	return c.JSON(stats)
}

// GetOverview lists what the caller's role may see: stock, samples or both
func (h *DashboardHandler) GetOverview(c *fiber.Ctx) error {
	var caps model.Capabilities
	if s := middleware.Session(c); s != nil {
		caps = s.Capabilities
	}
	overview, err := h.service.Overview(c.UserContext(), caps)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch overview"})
	}
	return c.JSON(overview)
}

// GetMovements lists the audit trail, newest first
// Query params: kind, target_id, protocol_id, actor, limit
func (h *DashboardHandler) GetMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		Kind:  model.TargetKind(c.Query("kind")),
		Actor: c.Query("actor"),
		Limit: c.QueryInt("limit", 100),
	}
	if v := c.Query("target_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid target_id"})
		}
		filter.TargetID = id
	}
	if v := c.Query("protocol_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid protocol_id"})
		}
		filter.ProtocolID = id
	}

	logs, err := h.service.Movements(c.UserContext(), filter)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch movements"})
	}
	return c.JSON(logs)
}
