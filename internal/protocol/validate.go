package protocol

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Vasu1712/scenyx-canvas/internal/models"
)

var validate = validator.New()

// Validate checks struct tags on payload. Drawing events are validated per
// variant since the tags live on the geometry structs.
func Validate(payload any) error {
	switch p := payload.(type) {
	case *models.DrawingEvent:
		return ValidateDrawing(*p)
	case models.DrawingEvent:
		return ValidateDrawing(p)
	}
	if err := validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedEvent, err)
	}
	return nil
}

// ValidateDrawing checks the pen and the geometry of a decoded drawing event.
// A clear carries neither.
func ValidateDrawing(e models.DrawingEvent) error {
	if e.Shape == nil {
		return fmt.Errorf("%w: drawing event without shape", models.ErrMalformedEvent)
	}
	if e.Shape.Kind() == models.KindClear {
		return nil
	}
	if err := validate.Struct(e.Style); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedEvent, err)
	}
	if _, ok := e.Shape.(models.Freehand); ok {
		return nil
	}
	if err := validate.Struct(e.Shape); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedEvent, err)
	}
	return nil
}
