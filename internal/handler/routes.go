package handler

import (
	"go-brindes-ws/internal/middleware"
	"go-brindes-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Routes carries everything Register needs to mount the API.
type Routes struct {
	AuthService service.AuthService
	BotKeyHash  string

	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Inventory *InventoryHandler
	Samples   *SampleHandler
	Protocols *ProtocolHandler
	Assistant *AssistantHandler
}

// Register mounts /api/v1 on app.
func Register(app *fiber.App, r Routes) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", r.Auth.Login)
	auth.Post("/validate-token", r.Auth.ValidateToken)

	// Chat bot, authenticated by service key instead of a user session
	bot := api.Group("/bot", middleware.RequireBotKey(r.BotKeyHash))
	bot.Get("/tools", r.Assistant.GetTools)
	bot.Post("/tools/:name", r.Assistant.CallBotTool)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(r.AuthService))

	viewStock := middleware.RequireCapability("view stock", middleware.CanViewStock)
	mutateStock := middleware.RequireCapability("change stock", middleware.CanMutateStock)
	viewSamples := middleware.RequireCapability("view samples", middleware.CanViewSamples)
	mutateSamples := middleware.RequireCapability("move samples", middleware.CanMutateSamples)
	admin := middleware.RequireCapability("manage the catalog", middleware.IsAdmin)

	protected.Get("/me", r.Auth.Me)

	// Dashboard Routes
	protected.Get("/dashboard/stats", r.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", r.Dashboard.GetStockMovement)
	protected.Get("/dashboard/overview", r.Dashboard.GetOverview)
	protected.Get("/movements", r.Dashboard.GetMovements)

	// Stock Routes
	protected.Get("/stock", viewStock, r.Inventory.GetItems)
	protected.Post("/stock", admin, r.Inventory.CreateItem)
	protected.Post("/stock/resolve/movements", mutateStock, r.Inventory.RecordMovementByReference)
	protected.Get("/stock/:id", viewStock, r.Inventory.GetItem)
	protected.Put("/stock/:id", admin, r.Inventory.UpdateItem)
	protected.Post("/stock/:id/movements", mutateStock, r.Inventory.RecordMovement)

	// Sample Routes
	protected.Get("/samples", viewSamples, r.Samples.GetSamples)
	protected.Get("/samples/overdue", viewSamples, r.Samples.GetOverdue)
	protected.Post("/samples", admin, r.Samples.CreateSample)
	protected.Post("/samples/resolve/transitions", mutateSamples, r.Samples.TransitionByReference)
	protected.Get("/samples/:id", viewSamples, r.Samples.GetSample)
	protected.Post("/samples/:id/transitions", mutateSamples, r.Samples.Transition)

	// Hand-off protocols are a sales workflow
	protected.Get("/protocols", viewSamples, r.Protocols.GetProtocols)
	protected.Post("/protocols", mutateSamples, r.Protocols.CreateProtocol)
	protected.Get("/protocols/:id", viewSamples, r.Protocols.GetProtocol)
	protected.Get("/protocols/:id/document", viewSamples, r.Protocols.GetDocument)
	protected.Post("/protocols/:id/return", mutateSamples, r.Protocols.ReturnProtocol)
	protected.Post("/protocols/:id/close", mutateSamples, r.Protocols.CloseProtocol)

	// Assistant tools, gated per tool by the caller's role
	protected.Get("/assistant/tools", r.Assistant.GetTools)
	protected.Post("/assistant/tools/:name", r.Assistant.CallTool)
}
