package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	auth := app.Group("/api/v1/auth")
	auth.Post("/login", h.Login)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/logout", h.Logout)
	auth.Post("/password", h.ChangePassword)
	auth.Get("/public-key", h.PublicKey)
	auth.Get("/validate", h.Validate)

	// Admin-only endpoints
	admin := app.Group("/api/v1/admin", h.RequireRole("admin"))
	admin.Get("/accounts/:id/sessions", h.GetUserSessions)
	admin.Delete("/accounts/:id/sessions", h.ForceLogout)
}
