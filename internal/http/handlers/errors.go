package handlers

import (
	"errors"

	"github.com/eventdesk/backend/internal/http/dto"
	"github.com/eventdesk/backend/internal/middleware"
	"github.com/eventdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError maps the service error taxonomy onto HTTP statuses.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)
	resp := dto.ErrorResponse{Error: err.Error(), RequestID: reqID}

	var (
		ve *services.ValidationError
		pe *services.PermissionError
		ce *services.PreconditionError
		co *services.CompensationError
	)
	status := fiber.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		status = fiber.StatusBadRequest
		resp.Field = ve.Field
	case errors.As(err, &pe):
		status = fiber.StatusForbidden
	case errors.As(err, &ce):
		status = fiber.StatusConflict
	case errors.As(err, &co):
		log.Error("partial write needs investigation", zap.String("request_id", reqID), zap.Error(err))
		resp.Error = "change partially applied, investigate"
	case services.IsNotFound(err):
		status = fiber.StatusNotFound
		resp.Error = "not found"
	default:
		log.Error("request failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error = "internal error"
	}
	return c.Status(status).JSON(resp)
}

func badRequest(c *fiber.Ctx, msg string) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg, RequestID: reqID})
}

func actorOf(c *fiber.Ctx) services.Actor {
	return services.Actor{ID: middleware.GetUserID(c), Role: middleware.GetRole(c)}
}

func paramID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// queryUUID parses an optional id query parameter. "me" resolves to the caller.
func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, bool) {
	v := c.Query(key)
	switch v {
	case "":
		return nil, true
	case "me":
		id := middleware.GetUserID(c)
		return &id, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, false
	}
	return &id, true
}
