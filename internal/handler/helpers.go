package handler

import (
	"errors"

	"go-brindes-ws/internal/middleware"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/service"
	"go-brindes-ws/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// actor builds the log identity for a web request from the session set by RequireAuth.
func actor(c *fiber.Ctx) service.Actor {
	s := middleware.Session(c)
	if s == nil {
		return service.Actor{Name: "system", Channel: model.ChannelWeb}
	}
	return service.Actor{Name: s.Label(), Channel: model.ChannelWeb}
}

func actorName(c *fiber.Ctx) string {
	return actor(c).Name
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// respondError maps the service failure taxonomy onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status == 500 {
		logger.LogError("handler", c.Method()+" "+c.Path(), "", "", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrMalformedInput):
		return 400
	case errors.Is(err, service.ErrForbidden):
		return 403
	case errors.Is(err, service.ErrResolution), errors.Is(err, service.ErrNotFound):
		return 404
	case errors.Is(err, service.ErrInsufficientStock), errors.Is(err, service.ErrIllegalTransition):
		return 409
	default:
		return 500
	}
}
