package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ujjwalcurry30/Task-Tracker/internal/middleware"
	"github.com/ujjwalcurry30/Task-Tracker/internal/users"
	"github.com/ujjwalcurry30/Task-Tracker/pkg/logger"
)

// Me mengembalikan profil user pemilik token (id, name, email) untuk
// ditampilkan di frontend. Token yang valid untuk user yang sudah tidak ada
// menghasilkan 404.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	callerID := middleware.CallerID(c)

	user, err := h.Users.FindByID(c.Context(), callerID)
	if errors.Is(err, users.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"message": "User not found."})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error fetching user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"message": "Server error."})
	}
	return c.JSON(user)
}
