package services

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/eventdesk/backend/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// EventInput is the editable field set of an event form.
type EventInput struct {
	Title        string         `json:"title" validate:"required,max=200"`
	EventType    string         `json:"event_type" validate:"omitempty,event_type"`
	StartAt      *time.Time     `json:"start_at" validate:"required"`
	EndAt        *time.Time     `json:"end_at" validate:"required"`
	VenueID      uuid.UUID      `json:"venue_id" validate:"required"`
	VenueSpace   string         `json:"venue_space" validate:"max=500"`
	Promotions   string         `json:"promotions" validate:"max=5000"`
	Notes        string         `json:"notes" validate:"max=5000"`
	Terms        string         `json:"terms" validate:"max=5000"`
	PublicFields map[string]any `json:"public_fields"`
}

type DebriefInput struct {
	Attendance      *int     `json:"attendance" validate:"omitempty,min=0"`
	BaselineTakings *float64 `json:"baseline_takings" validate:"omitempty,min=0"`
	Takings         *float64 `json:"takings" validate:"omitempty,min=0"`
	Highlights      string   `json:"highlights" validate:"max=5000"`
	Issues          string   `json:"issues" validate:"max=5000"`
	FollowUps       string   `json:"follow_ups" validate:"max=5000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.EventTypes, fl.Field().String())
	})
	return v
}

// validateStruct runs the struct tags and reports the first failure as a ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return &ValidationError{Field: fe.Field(), Message: validationMessage(fe)}
	}
	return &ValidationError{Message: err.Error()}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return "must not be negative"
	case "event_type":
		return "must be one of " + strings.Join(models.EventTypes, ", ")
	default:
		return "is invalid"
	}
}

// Validate checks request structs outside this package with the same rules and errors.
func Validate(s any) error { return validateStruct(s) }
