package handlers

import (
	"github.com/eventdesk/backend/internal/diff"
	"github.com/eventdesk/backend/internal/http/dto"
	"github.com/eventdesk/backend/internal/repositories"
	"github.com/eventdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type EventHandler struct {
	events     *services.EventService
	assignment *services.AssignmentService
	timeline   *services.TimelineService
	log        *zap.Logger
}

func NewEventHandler(
	events *services.EventService,
	assignment *services.AssignmentService,
	timeline *services.TimelineService,
	log *zap.Logger,
) *EventHandler {
	return &EventHandler{events: events, assignment: assignment, timeline: timeline, log: log}
}

func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	var in services.EventInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request")
	}

	ev, err := h.events.CreateDraft(c.UserContext(), actorOf(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: ev})
}

func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	filter := repositories.EventFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}

	var ok bool
	if filter.VenueID, ok = queryUUID(c, "venue_id"); !ok {
		return badRequest(c, "invalid venue_id")
	}
	if filter.AssigneeID, ok = queryUUID(c, "assignee_id"); !ok {
		return badRequest(c, "invalid assignee_id")
	}
	if filter.CreatedBy, ok = queryUUID(c, "created_by"); !ok {
		return badRequest(c, "invalid created_by")
	}

	list, err := h.events.ListEvents(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: list})
}

func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}

	detail, err := h.events.GetEvent(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: detail})
}

func (h *EventHandler) UpdateEvent(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var in services.EventInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request")
	}

	ev, err := h.events.UpdateDraft(c.UserContext(), id, actorOf(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ev})
}

func (h *EventHandler) SubmitEvent(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var req dto.SubmitEventRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request")
		}
	}

	ev, err := h.events.Submit(c.UserContext(), id, actorOf(c), req.ReviewerID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ev})
}

func (h *EventHandler) RecordDecision(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var req dto.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := services.Validate(req); err != nil {
		return respondError(c, h.log, err)
	}

	ev, err := h.events.RecordDecision(c.UserContext(), id, actorOf(c), req.Decision, req.Feedback)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ev})
}

func (h *EventHandler) Reassign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var req dto.AssigneeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := services.Validate(req); err != nil {
		return respondError(c, h.log, err)
	}

	ev, err := h.assignment.Reassign(c.UserContext(), id, actorOf(c), req.AssigneeID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ev})
}

func (h *EventHandler) SubmitDebrief(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var in services.DebriefInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request")
	}

	ev, debrief, err := h.events.SubmitDebrief(c.UserContext(), id, actorOf(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.DebriefResponse{Event: ev, Debrief: debrief}})
}

func (h *EventHandler) GetTimeline(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	filter, err := diff.ParseFilter(c.Query("source"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	entries, err := h.timeline.GetTimeline(c.UserContext(), id, filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

func (h *EventHandler) RecordAIMetadata(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var req dto.AIMetadataRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	v, err := h.timeline.RecordAIMetadata(c.UserContext(), id, actorOf(c), req.Fields)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: v})
}

func (h *EventHandler) History(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}

	entries, err := h.events.History(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}
