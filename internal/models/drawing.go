package models

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the DrawingEvent variants.
type Kind string

const (
	KindFreehand  Kind = "freehand"
	KindRectangle Kind = "rectangle"
	KindEllipse   Kind = "ellipse"
	KindText      Kind = "text"
	KindClear     Kind = "clear"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shape is the geometry of one drawing operation.
type Shape interface {
	Kind() Kind
}

// Freehand is a single segment of a pen stroke.
type Freehand struct {
	From Point
	To   Point
}

type Rectangle struct {
	X      float64
	Y      float64
	Width  float64 `validate:"gte=0"`
	Height float64 `validate:"gte=0"`
}

// Ellipse is described by its bounding box.
type Ellipse struct {
	X      float64
	Y      float64
	Width  float64 `validate:"gte=0"`
	Height float64 `validate:"gte=0"`
}

type Text struct {
	X    float64
	Y    float64
	Text string `validate:"required,max=2000"`
}

type Clear struct{}

func (Freehand) Kind() Kind  { return KindFreehand }
func (Rectangle) Kind() Kind { return KindRectangle }
func (Ellipse) Kind() Kind   { return KindEllipse }
func (Text) Kind() Kind      { return KindText }
func (Clear) Kind() Kind     { return KindClear }

// Style is the pen used for a drawing operation. Size is the stroke width for
// strokes and shapes and the font size for text.
type Style struct {
	Color string  `validate:"required,max=64"`
	Size  float64 `validate:"gt=0,lte=512"`
}

// DrawingEvent is a single relayed drawing operation. It is never stored; the
// room only keeps full-surface snapshots that clients save explicitly.
type DrawingEvent struct {
	RoomID string
	Style  Style
	Shape  Shape
}

// drawingWire is the flat JSON form shared with browser clients.
type drawingWire struct {
	RoomID string   `json:"roomId,omitempty"`
	Kind   Kind     `json:"kind"`
	Color  string   `json:"color,omitempty"`
	Size   float64  `json:"size,omitempty"`
	From   *Point   `json:"from,omitempty"`
	To     *Point   `json:"to,omitempty"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Text   *string  `json:"text,omitempty"`
}

func (e DrawingEvent) MarshalJSON() ([]byte, error) {
	if e.Shape == nil {
		return nil, fmt.Errorf("%w: drawing event without shape", ErrMalformedEvent)
	}
	w := drawingWire{
		RoomID: e.RoomID,
		Kind:   e.Shape.Kind(),
		Color:  e.Style.Color,
		Size:   e.Style.Size,
	}
	switch s := e.Shape.(type) {
	case Freehand:
		w.From, w.To = &s.From, &s.To
	case Rectangle:
		w.X, w.Y, w.Width, w.Height = &s.X, &s.Y, &s.Width, &s.Height
	case Ellipse:
		w.X, w.Y, w.Width, w.Height = &s.X, &s.Y, &s.Width, &s.Height
	case Text:
		w.X, w.Y, w.Text = &s.X, &s.Y, &s.Text
	case Clear:
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownDrawingKind, e.Shape)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the flat wire form into the variant named by "kind".
// Geometry fields required by the variant must be present.
func (e *DrawingEvent) UnmarshalJSON(data []byte) error {
	var w drawingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	missing := func(field string) error {
		return fmt.Errorf("%w: %s event requires %q", ErrMalformedEvent, w.Kind, field)
	}

	var shape Shape
	switch w.Kind {
	case KindFreehand:
		if w.From == nil {
			return missing("from")
		}
		if w.To == nil {
			return missing("to")
		}
		shape = Freehand{From: *w.From, To: *w.To}
	case KindRectangle, KindEllipse:
		box, err := w.box()
		if err != nil {
			return err
		}
		if w.Kind == KindRectangle {
			shape = Rectangle(box)
		} else {
			shape = box
		}
	case KindText:
		if w.X == nil || w.Y == nil {
			return missing("x/y")
		}
		if w.Text == nil {
			return missing("text")
		}
		shape = Text{X: *w.X, Y: *w.Y, Text: *w.Text}
	case KindClear:
		shape = Clear{}
	case "":
		return fmt.Errorf("%w: missing kind", ErrMalformedEvent)
	default:
		return fmt.Errorf("%w: %w %q", ErrMalformedEvent, ErrUnknownDrawingKind, w.Kind)
	}

	*e = DrawingEvent{
		RoomID: w.RoomID,
		Style:  Style{Color: w.Color, Size: w.Size},
		Shape:  shape,
	}
	return nil
}

func (w drawingWire) box() (Ellipse, error) {
	if w.X == nil || w.Y == nil || w.Width == nil || w.Height == nil {
		return Ellipse{}, fmt.Errorf("%w: %s event requires x, y, width and height", ErrMalformedEvent, w.Kind)
	}
	return Ellipse{X: *w.X, Y: *w.Y, Width: *w.Width, Height: *w.Height}, nil
}
