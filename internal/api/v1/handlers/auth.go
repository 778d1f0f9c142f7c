package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ujjwalcurry30/Task-Tracker/internal/auth"
	"github.com/ujjwalcurry30/Task-Tracker/internal/users"
	"github.com/ujjwalcurry30/Task-Tracker/pkg/logger"
)

var validate = validator.New()

// AuthHandler melayani signup dan login: satu-satunya jalur yang memakai
// credential store dan menerbitkan token.
type AuthHandler struct {
	Users  *users.Store
	Tokens *auth.TokenService
}

func NewAuthHandler(userStore *users.Store, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{Users: userStore, Tokens: tokens}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	type SignupRequest struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in signup", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{"message": "Name, email, and password are required."})
	}
	if err := validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during signup", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{"message": "Name, email, and password are required."})
	}

	user, err := h.Users.Register(c.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, users.ErrMissingFields) {
		return c.Status(400).JSON(fiber.Map{"message": "Name, email, and password are required."})
	}
	if errors.Is(err, users.ErrDuplicateEmail) {
		logger.SecurityLogger.Warn("Duplicate email on signup", zap.String("email", users.NormalizeEmail(req.Email)))
		return c.Status(409).JSON(fiber.Map{"message": "Email already in use."})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error creating user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"message": "Server error during signup."})
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		logger.ErrorLogger.Error("Error generating token", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"message": "Server error during signup."})
	}

	logger.AuditLogger.Info("User registered", zap.Int("user_id", user.ID))
	return c.Status(201).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{"message": "Email and password are required."})
	}
	if err := validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{"message": "Email and password are required."})
	}

	// Pesan error sengaja sama untuk email tak dikenal dan password salah,
	// supaya tidak bisa dipakai menebak akun yang terdaftar
	user, err := h.Users.FindByEmail(c.Context(), req.Email)
	if errors.Is(err, users.ErrNotFound) {
		logger.SecurityLogger.Warn("Login failed: unknown email", zap.String("email", users.NormalizeEmail(req.Email)))
		return c.Status(401).JSON(fiber.Map{"message": "Invalid email or password."})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error fetching user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"message": "Server error during login."})
	}
	if !h.Users.VerifyPassword(user, req.Password) {
		logger.SecurityLogger.Warn("Login failed: password mismatch", zap.Int("user_id", user.ID))
		return c.Status(401).JSON(fiber.Map{"message": "Invalid email or password."})
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		logger.ErrorLogger.Error("Error generating token", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"message": "Server error during login."})
	}

	logger.AuditLogger.Info("Login success", zap.Int("user_id", user.ID))
	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}
