package handlers

import (
	"github.com/eventdesk/backend/internal/fields"
	"github.com/eventdesk/backend/internal/http/dto"
	"github.com/eventdesk/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

type MetaHandler struct {
	registry *fields.Registry
}

func NewMetaHandler(registry *fields.Registry) *MetaHandler {
	return &MetaHandler{registry: registry}
}

type MetaEventType struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var eventTypeLabels = map[string]string{
	"quiz":             "Quiz",
	"live_music":       "Live music",
	"comedy":           "Comedy",
	"sports_screening": "Sports screening",
	"tasting":          "Tasting",
	"private_hire":     "Private hire",
	"community":        "Community",
	"other":            "Other",
}

// GetFields returns the field-label registry the timeline and audit entries are rendered with.
func (h *MetaHandler) GetFields(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.registry})
}

func (h *MetaHandler) GetEventTypes(c *fiber.Ctx) error {
	out := make([]MetaEventType, 0, len(models.EventTypes))
	for _, t := range models.EventTypes {
		label, ok := eventTypeLabels[t]
		if !ok {
			label = t
		}
		out = append(out, MetaEventType{ID: t, Label: label})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: out})
}
