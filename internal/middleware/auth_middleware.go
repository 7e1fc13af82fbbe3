package middleware

import (
	"strings"

	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionKey  = "session"
	botActorKey = "bot_actor"

	// DefaultBotActor is logged when the bot does not say who it speaks for.
	DefaultBotActor = "SlackBot"
)

// RequireAuth is middleware that validates the bearer token and stores the session in context
func RequireAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		session, err := authService.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals(sessionKey, session)
		return c.Next()
	}
}

// Session returns the session set by RequireAuth, or nil.
func Session(c *fiber.Ctx) *service.Session {
	s, _ := c.Locals(sessionKey).(*service.Session)
	return s
}

// RequireCapability lets the request through only if the session's role grants what allow checks.
func RequireCapability(name string, allow func(model.Capabilities) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := Session(c)
		if s == nil {
			return c.Status(403).JSON(fiber.Map{"error": "No session found"})
		}
		if !allow(s.Capabilities) {
			return c.Status(403).JSON(fiber.Map{
				"error": "Forbidden: role " + s.Role.String() + " cannot " + name,
			})
		}
		return c.Next()
	}
}

func CanViewStock(c model.Capabilities) bool     { return c.CanViewStock }
func CanMutateStock(c model.Capabilities) bool   { return c.CanMutateStock }
func CanViewSamples(c model.Capabilities) bool   { return c.CanViewSamples }
func CanMutateSamples(c model.Capabilities) bool { return c.CanMutateSamples }
func IsAdmin(c model.Capabilities) bool          { return c.IsAdmin }

// RequireBotKey checks X-Bot-Key against a bcrypt hash. The actor the bot
// speaks for comes from X-Actor.
func RequireBotKey(keyHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if keyHash == "" {
			return c.Status(503).JSON(fiber.Map{"error": "Bot access is not configured"})
		}
		key := c.Get("X-Bot-Key")
		if key == "" || bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)) != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid bot key"})
		}

		actor := strings.TrimSpace(c.Get("X-Actor"))
		if actor == "" {
			actor = DefaultBotActor
		}
		c.Locals(botActorKey, actor)
		return c.Next()
	}
}

// BotActor returns the actor set by RequireBotKey.
func BotActor(c *fiber.Ctx) string {
	if a, ok := c.Locals(botActorKey).(string); ok && a != "" {
		return a
	}
	return DefaultBotActor
}
