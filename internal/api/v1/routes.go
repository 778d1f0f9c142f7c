package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/ujjwalcurry30/Task-Tracker/internal/api/v1/handlers"
	"github.com/ujjwalcurry30/Task-Tracker/internal/auth"
	"github.com/ujjwalcurry30/Task-Tracker/internal/middleware"
	ws "github.com/ujjwalcurry30/Task-Tracker/internal/websocket"
)

func RegisterRoutes(app *fiber.App, authHandler *handlers.AuthHandler, taskHandler *handlers.TaskHandler, tokens *auth.TokenService, hub *ws.Hub) {
	api := app.Group("/api")

	// Auth
	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", middleware.RequireAuth(tokens), authHandler.Me)

	// Task
	taskRoutes := api.Group("/tasks", middleware.RequireAuth(tokens))
	taskRoutes.Get("/", taskHandler.List)
	taskRoutes.Post("/", taskHandler.Create)
	taskRoutes.Get("/:id", taskHandler.Get)
	taskRoutes.Put("/:id", taskHandler.Update)
	taskRoutes.Delete("/:id", taskHandler.Delete)

	// WebSocket task events: autentikasi dulu, baru upgrade
	if hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/tasks", middleware.RequireAuth(tokens), websocket.New(func(conn *websocket.Conn) {
			client := &ws.Client{Conn: conn, UserID: conn.Locals("userID").(int)}
			hub.Register <- client
			defer func() {
				hub.Unregister <- client
			}()
			for {
				// Feed satu arah; baca hanya untuk mendeteksi close
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}))
	}
}
