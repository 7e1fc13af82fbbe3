package handler

import (
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SampleHandler struct {
	service service.SampleService
}

func NewSampleHandler(s service.SampleService) *SampleHandler {
	return &SampleHandler{service: s}
}

// TransitionBody is the form payload for a lifecycle step.
type TransitionBody struct {
	Reference   string `json:"reference"`
	Action      string `json:"action"`
	Destination string `json:"destination"`
	Address     string `json:"address"`
	Days        int    `json:"days"`
}

func (b *TransitionBody) request() (service.TransitionRequest, bool) {
	action, ok := model.ParseSampleAction(b.Action)
	if !ok {
		return service.TransitionRequest{}, false
	}
	return service.TransitionRequest{
		Action:      action,
		Destination: b.Destination,
		Address:     b.Address,
		Days:        b.Days,
	}, true
}

func (h *SampleHandler) CreateSample(c *fiber.Ctx) error {
	var sample model.Sample
	if err := c.BodyParser(&sample); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.Create(c.UserContext(), &sample, actorName(c)); err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Sample created", "data": sample})
}

// GetSamples lists samples
// Query params: status (AVAILABLE, CHECKED_OUT, SOLD, DISCONTINUED)
func (h *SampleHandler) GetSamples(c *fiber.Ctx) error {
	samples, err := h.service.List(c.UserContext(), model.SampleStatus(c.Query("status")))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(samples)
}

func (h *SampleHandler) GetOverdue(c *fiber.Ctx) error {
	samples, err := h.service.Overdue(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(samples)
}

func (h *SampleHandler) GetSample(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sample ID"})
	}

	sample, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sample)
}

func (h *SampleHandler) Transition(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sample ID"})
	}

	var body TransitionBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	req, ok := body.request()
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Unknown action '" + body.Action + "'"})
	}

	res, err := h.service.Transition(c.UserContext(), id, req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Sample updated", "data": res})
}

func (h *SampleHandler) TransitionByReference(c *fiber.Ctx) error {
	var body TransitionBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	req, ok := body.request()
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Unknown action '" + body.Action + "'"})
	}

	res, err := h.service.MoveSample(c.UserContext(), body.Reference, req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Sample updated", "data": res})
}
