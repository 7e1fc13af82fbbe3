package handler

import (
	"encoding/json"

	"go-brindes-ws/internal/assistant"
	"go-brindes-ws/internal/middleware"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AssistantHandler serves the tool endpoints the completion backend calls,
// either on behalf of a logged-in user or as the chat bot.
type AssistantHandler struct {
	tools *assistant.Tools
}

func NewAssistantHandler(tools *assistant.Tools) *AssistantHandler {
	return &AssistantHandler{tools: tools}
}

func (h *AssistantHandler) GetTools(c *fiber.Ctx) error {
	return c.JSON(assistant.Declarations())
}

// CallTool runs :name for the session user. The body is the tool's argument object.
func (h *AssistantHandler) CallTool(c *fiber.Ctx) error {
	s := middleware.Session(c)
	if s == nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}
	caller := assistant.Caller{
		Actor:        service.Actor{Name: s.Label(), Channel: model.ChannelAssistant},
		Capabilities: s.Capabilities,
	}
	return h.call(c, caller)
}

// CallBotTool runs :name for the bot. The bot acts with full capabilities
// under the actor named in X-Actor.
func (h *AssistantHandler) CallBotTool(c *fiber.Ctx) error {
	caller := assistant.Caller{
		Actor:        service.Actor{Name: middleware.BotActor(c), Channel: model.ChannelBot},
		Capabilities: model.RoleAdministrator.Capabilities(),
	}
	return h.call(c, caller)
}

func (h *AssistantHandler) call(c *fiber.Ctx, caller assistant.Caller) error {
	body := c.Body()
	args := make(json.RawMessage, len(body))
	copy(args, body)

	result := h.tools.Call(c.UserContext(), assistant.ToolCall{Name: c.Params("name"), Args: args}, caller)
	return c.JSON(fiber.Map{"tool": c.Params("name"), "result": result})
}
