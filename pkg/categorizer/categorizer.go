// Package categorizer maps flight timestamps to night, shoulder and regular
// time-of-day bands.
package categorizer

import (
	"time"

	"flightwindow-service/internal/domain/entity"
)

// Categorizer classifies timestamps against a fixed Window.
type Categorizer struct {
	window   Window
	location *time.Location
	sink     Sink
}

// Option configures a Categorizer
type Option func(*Categorizer)

// WithSink reports unparseable input to s.
func WithSink(s Sink) Option {
	return func(c *Categorizer) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithLocation converts dated, offset-bearing timestamps into loc before
// reading the clock. Timestamps without an offset or a date are taken as
// already local.
func WithLocation(loc *time.Location) Option {
	return func(c *Categorizer) { c.location = loc }
}

// New returns a Categorizer for window, which must validate.
func New(window Window, opts ...Option) (*Categorizer, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	c := &Categorizer{window: window, sink: NopSink{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var defaultCategorizer = &Categorizer{window: DefaultWindow(), sink: NopSink{}}

// Categorize classifies value with the default window and no diagnostics.
func Categorize(value string) entity.TimeCategory {
	return defaultCategorizer.Categorize(value)
}

// Window returns the configured window
func (c *Categorizer) Window() Window { return c.window }

// Categorize classifies value. It never fails: empty or unparseable input is
// Unknown, and unparseable input is reported to the sink.
func (c *Categorizer) Categorize(value string) entity.TimeCategory {
	category, _ := c.CategorizeField("", value)
	return category
}

// CategorizeField is Categorize with the source field named in diagnostics.
// The parse result lets callers tell empty input from malformed input.
func (c *Categorizer) CategorizeField(field, value string) (entity.TimeCategory, ParseResult) {
	res := c.Parse(value)
	switch res.Status {
	case StatusOK:
		return c.window.Classify(res.Clock), res
	case StatusMalformed:
		c.sink.Report(entity.Diagnostic{
			Kind:  entity.DiagnosticMalformedTimestamp,
			Field: field,
			Value: value,
			Err:   res.Err,
		})
	}
	return entity.CategoryUnknown, res
}

// CategorizeTime classifies the wall clock of t.
func (c *Categorizer) CategorizeTime(t time.Time) entity.TimeCategory {
	if c.location != nil {
		t = t.In(c.location)
	}
	return c.window.Classify(NewClock(t.Hour(), t.Minute()))
}

// Parse reads value and applies the configured location, if any.
func (c *Categorizer) Parse(value string) ParseResult {
	res := Parse(value)
	if res.OK() && res.HasOffset && res.HasDate && c.location != nil {
		t := res.Time.In(c.location)
		res.Time = t
		res.Clock = NewClock(t.Hour(), t.Minute())
	}
	return res
}
