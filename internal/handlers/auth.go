package handlers

import (
	"strings"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/middleware"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return h.respondError(c, apperror.Internal(err, "failed to hash password"))
	}

	user := models.User{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashedPassword),
		Name:     req.Name,
		Role:     models.RoleEmployee,
	}
	if err := h.users.Create(c.UserContext(), &user); err != nil {
		return h.respondError(c, err)
	}

	token, err := middleware.GenerateToken(h.cfg.JWTSecret, &user)
	if err != nil {
		return h.respondError(c, apperror.Internal(err, "failed to generate token"))
	}

	return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
		Token: token,
		User:  user,
	})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	user, err := h.users.GetByEmail(c.UserContext(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	// Check password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := middleware.GenerateToken(h.cfg.JWTSecret, user)
	if err != nil {
		return h.respondError(c, apperror.Internal(err, "failed to generate token"))
	}

	return c.JSON(models.AuthResponse{
		Token: token,
		User:  *user,
	})
}

func (h *Handler) GetMe(c *fiber.Ctx) error {
	actor := middleware.GetIdentity(c)

	user, err := h.users.GetByID(c.UserContext(), actor.UserID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(user)
}
