// Package geometry defines the pixel layout of the measure columns that the
// codec maps notes onto.
package geometry

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// GridSteps is the number of snap boundaries per measure column, not counting
// the column start. One step is an eighth note.
const GridSteps = 16

// Config holds the layout constants. It is created once per session and must
// not be modified after Validate succeeds.
type Config struct {
	OffsetX              float64 `yaml:"offset_x" json:"offset_x"`
	OffsetY              float64 `yaml:"offset_y" json:"offset_y"`
	MeasureWidth         float64 `yaml:"measure_width" json:"measure_width"`
	SpaceBetweenMeasures float64 `yaml:"space_between_measures" json:"space_between_measures"`
	EndCutoff            float64 `yaml:"end_cutoff" json:"end_cutoff"`
	WholeStepPixelHeight float64 `yaml:"whole_step_pixel_height" json:"whole_step_pixel_height"`
	// FlipHeight is the logical height drawn at OffsetY (the top of the staff).
	FlipHeight      float64 `yaml:"flip_height" json:"flip_height"`
	VisibleMeasures int     `yaml:"visible_measures" json:"visible_measures"`
}

// Default returns the layout used by the drawing canvas.
func Default() Config {
	return Config{
		OffsetX:              87.5,
		OffsetY:              400,
		MeasureWidth:         500,
		SpaceBetweenMeasures: 50,
		EndCutoff:            5,
		WholeStepPixelHeight: 50,
		FlipHeight:           12,
		VisibleMeasures:      4,
	}
}

// Validate validates the geometry. EndCutoff has to stay below one grid step
// so the decoder can snap a shortened note end back onto its boundary.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.OffsetX, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.OffsetY, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.MeasureWidth, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.SpaceBetweenMeasures, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.EndCutoff, validation.Required, validation.Min(0.0).Exclusive(),
			validation.Max(c.StepWidth()).Exclusive()),
		validation.Field(&c.WholeStepPixelHeight, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.FlipHeight, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.VisibleMeasures, validation.Required, validation.Min(1)),
	)
}

// StepWidth returns the pixel width of one grid step.
func (c Config) StepWidth() float64 {
	return c.MeasureWidth / GridSteps
}

// Stride returns the horizontal distance between the starts of two
// consecutive measure columns.
func (c Config) Stride() float64 {
	return c.MeasureWidth + c.SpaceBetweenMeasures
}

// MeasureOffset returns the pixel offset of measure i relative to measure 0.
func (c Config) MeasureOffset(i int) float64 {
	if i == 0 {
		return 0
	}
	return float64(i) * c.Stride()
}

// MeasureStart returns the absolute pixel X where measure i begins.
func (c Config) MeasureStart(i int) float64 {
	return c.OffsetX + c.MeasureOffset(i)
}

// ScoreEnd returns the absolute pixel X of the end of the last visible measure.
func (c Config) ScoreEnd() float64 {
	return c.MeasureStart(c.VisibleMeasures-1) + c.MeasureWidth
}
