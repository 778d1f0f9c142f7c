package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ujjwalcurry30/Task-Tracker/internal/auth"
	"github.com/ujjwalcurry30/Task-Tracker/pkg/logger"
)

// RequireAuth adalah gerbang autentikasi: header harus persis berbentuk
// "Authorization: Bearer <token>". User id hasil verifikasi disimpan di
// c.Locals("userID") dan menjadi satu-satunya sumber identitas downstream —
// tidak pernah diambil dari body atau query client.
func RequireAuth(tokens *auth.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if authHeader == "" || len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized: missing token",
			})
		}

		userID, err := tokens.Verify(parts[1])
		if err != nil {
			logger.SecurityLogger.Warn("Rejected token",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized: invalid token",
			})
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// CallerID membaca identitas caller yang sudah diverifikasi RequireAuth.
func CallerID(c *fiber.Ctx) int {
	return c.Locals("userID").(int)
}
