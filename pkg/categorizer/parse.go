package categorizer

import (
	"errors"
	"strings"
	"time"
)

// ParseStatus separates "no data" from "data we could not read"
type ParseStatus int

const (
	StatusOK ParseStatus = iota
	StatusEmpty
	StatusMalformed
)

func (s ParseStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	default:
		return "malformed"
	}
}

var errUnrecognizedFormat = errors.New("unrecognized timestamp format")

// ParseResult is the outcome of reading a timestamp string.
type ParseResult struct {
	Status    ParseStatus
	Clock     Clock
	Time      time.Time
	HasDate   bool
	HasOffset bool
	Err       error
}

// OK reports whether a clock value was read
func (r ParseResult) OK() bool { return r.Status == StatusOK }

var (
	offsetLayouts = []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04:05-0700",
		"2006-01-02T15:04:05-07",
		"2006-01-02T15:04-07",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05-0700",
		"2006-01-02 15:04:05-07",
	}
	offsetClockLayouts = []string{
		"15:04:05Z07:00",
		"15:04Z07:00",
		"15:04:05-0700",
		"15:04-0700",
		"15:04:05-07",
		"15:04-07",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
	clockLayouts = []string{
		"15:04:05",
		"15:04",
	}
)

// Parse reads the wall clock written in value. A trailing Z is treated as
// +00:00 and offsets may be written as +HH, +HHMM or +HH:MM. No zone
// conversion happens here: "23:45Z" is 23:45.
func Parse(value string) ParseResult {
	s := strings.TrimSpace(value)
	if s == "" {
		return ParseResult{Status: StatusEmpty}
	}
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "+00:00"
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return okResult(t, true, true)
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return okResult(t, true, false)
		}
	}
	for _, layout := range offsetClockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return okResult(t, false, true)
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return okResult(t, false, false)
		}
	}
	return ParseResult{Status: StatusMalformed, Err: errUnrecognizedFormat}
}

func okResult(t time.Time, hasDate, hasOffset bool) ParseResult {
	return ParseResult{
		Status:    StatusOK,
		Clock:     NewClock(t.Hour(), t.Minute()),
		Time:      t,
		HasDate:   hasDate,
		HasOffset: hasOffset,
	}
}
