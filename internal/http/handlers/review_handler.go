package handlers

import (
	"github.com/eventdesk/backend/internal/http/dto"
	"github.com/eventdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	review *services.ReviewService
	log    *zap.Logger
}

func NewReviewHandler(review *services.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{review: review, log: log}
}

// ReviewQueue lists submitted events with their SLA bucket. ?assignee_id=me narrows it
// to the caller.
func (h *ReviewHandler) ReviewQueue(c *fiber.Ctx) error {
	assignee, ok := queryUUID(c, "assignee_id")
	if !ok {
		return badRequest(c, "invalid assignee_id")
	}

	items, err := h.review.ReviewQueue(c.UserContext(), assignee)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: items})
}

func (h *ReviewHandler) Conflicts(c *fiber.Ctx) error {
	pairs, err := h.review.ListConflicts(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: pairs})
}
