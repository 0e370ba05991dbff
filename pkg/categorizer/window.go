package categorizer

import (
	"errors"
	"fmt"

	"flightwindow-service/internal/domain/entity"
)

// ErrInvalidWindow is returned by Window.Validate
var ErrInvalidWindow = errors.New("invalid classification window")

// Window holds the band boundaries. Night wraps midnight:
//
//	[NightStart, 24:00) ∪ [00:00, NightEnd)            Night
//	[NightEnd, ShoulderMorningEnd)                      Shoulder
//	[ShoulderEveningStart, NightStart)                  Shoulder
//	[ShoulderMorningEnd, ShoulderEveningStart)          Regular
type Window struct {
	NightStart           Clock `yaml:"night_start"`
	NightEnd             Clock `yaml:"night_end"`
	ShoulderMorningEnd   Clock `yaml:"shoulder_morning_end"`
	ShoulderEveningStart Clock `yaml:"shoulder_evening_start"`
}

// DefaultWindow is 23:30-06:00 night with shoulder hours 06:00-07:00 and 23:00-23:30.
func DefaultWindow() Window {
	return Window{
		NightStart:           NewClock(23, 30),
		NightEnd:             NewClock(6, 0),
		ShoulderMorningEnd:   NewClock(7, 0),
		ShoulderEveningStart: NewClock(23, 0),
	}
}

// Validate checks the boundaries are in order within one day.
func (w Window) Validate() error {
	for _, c := range []Clock{w.NightStart, w.NightEnd, w.ShoulderMorningEnd, w.ShoulderEveningStart} {
		if !c.Valid() {
			return fmt.Errorf("%w: boundary %d out of range", ErrInvalidWindow, int(c))
		}
	}
	if !(w.NightEnd <= w.ShoulderMorningEnd &&
		w.ShoulderMorningEnd <= w.ShoulderEveningStart &&
		w.ShoulderEveningStart <= w.NightStart) {
		return fmt.Errorf("%w: want night_end <= shoulder_morning_end <= shoulder_evening_start <= night_start, got %s %s %s %s",
			ErrInvalidWindow, w.NightEnd, w.ShoulderMorningEnd, w.ShoulderEveningStart, w.NightStart)
	}
	return nil
}

// Classify maps a valid clock value to its category. Out-of-range values are Unknown.
func (w Window) Classify(c Clock) entity.TimeCategory {
	switch {
	case !c.Valid():
		return entity.CategoryUnknown
	case c >= w.NightStart || c < w.NightEnd:
		return entity.CategoryNight
	case c < w.ShoulderMorningEnd || c >= w.ShoulderEveningStart:
		return entity.CategoryShoulder
	default:
		return entity.CategoryRegular
	}
}
