package handlers

import (
	"context"

	"github.com/eventdesk/backend/internal/auth"
	"github.com/eventdesk/backend/internal/config"
	"github.com/eventdesk/backend/internal/http/dto"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type userByEmail interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthHandler issues API tokens to the identity front end, which has already
// authenticated the person. It sits behind the internal key.
type AuthHandler struct {
	users userByEmail
	cfg   *config.Config
	log   *zap.Logger
}

func NewAuthHandler(users userByEmail, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, cfg: cfg, log: log}
}

func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.IssueTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := services.Validate(req); err != nil {
		return respondError(c, h.log, err)
	}

	user, err := h.users.GetByEmail(c.UserContext(), req.Email)
	if err != nil {
		if services.IsNotFound(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "unknown user"})
		}
		return respondError(c, h.log, err)
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "token generation failed"})
	}

	h.log.Info("token issued", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))
	return c.JSON(dto.AuthResponse{Token: token, User: user})
}
