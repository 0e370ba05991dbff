package categorizer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"flightwindow-service/internal/domain/entity"
)

func TestCategorizeBoundaries(t *testing.T) {
	tests := []struct {
		in   string
		want entity.TimeCategory
	}{
		{"23:30", entity.CategoryNight},
		{"23:29", entity.CategoryShoulder},
		{"23:00", entity.CategoryShoulder},
		{"22:59", entity.CategoryRegular},
		{"06:00", entity.CategoryShoulder},
		{"06:59", entity.CategoryShoulder},
		{"07:00", entity.CategoryRegular},
		{"05:59", entity.CategoryNight},
		{"00:00", entity.CategoryNight},
		{"12:15", entity.CategoryRegular},
		{"", entity.CategoryUnknown},
		{"   ", entity.CategoryUnknown},
		{"not-a-time", entity.CategoryUnknown},
		{"24:00", entity.CategoryUnknown},
		{"2024-01-05T23:45:00Z", entity.CategoryNight},
		{"2024-01-05T23:45:00+00:00", entity.CategoryNight},
		{"2024-01-05T06:10:00.000", entity.CategoryShoulder},
		{"2024-01-05T06:10:00.000+01:00", entity.CategoryShoulder},
		{"2024-01-05 23:10:00", entity.CategoryShoulder},
		{"2024-01-05T14:05", entity.CategoryRegular},
		{"23:45Z", entity.CategoryNight},
		{"23:45:00Z", entity.CategoryNight},
		{"06:00Z", entity.CategoryShoulder},
		{"23:10+01:00", entity.CategoryShoulder},
		{"07:00:00-0500", entity.CategoryRegular},
		{"2024-01-05T23:45:00+01", entity.CategoryNight},
		{"2024-01-05T05:59-03", entity.CategoryNight},
		{"2024-01-05 06:30:00+02", entity.CategoryShoulder},
	}

	for _, test := range tests {
		if got := Categorize(test.in); got != test.want {
			t.Errorf("Categorize(%q) = %s, want %s", test.in, got, test.want)
		}
	}
}

func TestCategorizeTotalAndDeterministic(t *testing.T) {
	c, err := New(DefaultWindow())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			in := fmt.Sprintf("%02d:%02d", h, m)
			first := c.Categorize(in)
			if first == entity.CategoryUnknown {
				t.Fatalf("%s classified as Unknown", in)
			}
			if again := c.Categorize(in); again != first {
				t.Fatalf("%s: %s then %s", in, first, again)
			}
			if iso := c.Categorize("2024-03-01T" + in + ":00Z"); iso != first {
				t.Fatalf("%s: clock form %s, ISO form %s", in, first, iso)
			}
		}
	}
}

func TestCategorizeReportsMalformedOnly(t *testing.T) {
	rec := &Recorder{}
	c, err := New(DefaultWindow(), WithSink(rec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Categorize("")
	c.Categorize("07:30")
	cat, res := c.CategorizeField("arrival.actual", "yesterday-ish")

	if cat != entity.CategoryUnknown || res.Status != StatusMalformed {
		t.Fatalf("got %s/%s, want Unknown/malformed", cat, res.Status)
	}
	if len(rec.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(rec.Diagnostics))
	}
	d := rec.Diagnostics[0]
	if d.Kind != entity.DiagnosticMalformedTimestamp || d.Field != "arrival.actual" || d.Value != "yesterday-ish" {
		t.Errorf("unexpected diagnostic %+v", d)
	}
}

func TestParseStatus(t *testing.T) {
	if got := Parse("").Status; got != StatusEmpty {
		t.Errorf("empty: got %s", got)
	}
	if got := Parse("13:61").Status; got != StatusMalformed {
		t.Errorf("13:61: got %s", got)
	}
	res := Parse("2024-01-05T23:45:00Z")
	if !res.OK() || !res.HasDate || !res.HasOffset || res.Clock != NewClock(23, 45) {
		t.Errorf("unexpected result %+v", res)
	}
	res = Parse("08:05")
	if !res.OK() || res.HasDate || res.Clock != NewClock(8, 5) {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestWithLocationConvertsOffsetTimestamps(t *testing.T) {
	loc := time.FixedZone("BST", 60*60)
	c, err := New(DefaultWindow(), WithLocation(loc))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// 22:45 UTC is 23:45 at +01:00
	if got := c.Categorize("2024-06-05T22:45:00Z"); got != entity.CategoryNight {
		t.Errorf("offset timestamp: got %s, want Night", got)
	}
	// no offset: already local
	if got := c.Categorize("2024-06-05T22:45:00"); got != entity.CategoryRegular {
		t.Errorf("local timestamp: got %s, want Regular", got)
	}
	// no date: the wall clock is kept
	if got := c.Categorize("22:45Z"); got != entity.CategoryRegular {
		t.Errorf("bare clock: got %s, want Regular", got)
	}
}

func TestCustomWindow(t *testing.T) {
	w := Window{
		NightStart:           NewClock(23, 0),
		NightEnd:             NewClock(7, 0),
		ShoulderMorningEnd:   NewClock(7, 0),
		ShoulderEveningStart: NewClock(23, 0),
	}
	c, err := New(w)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for in, want := range map[string]entity.TimeCategory{
		"22:59": entity.CategoryRegular,
		"23:00": entity.CategoryNight,
		"06:59": entity.CategoryNight,
		"07:00": entity.CategoryRegular,
	} {
		if got := c.Categorize(in); got != want {
			t.Errorf("%s: got %s, want %s", in, got, want)
		}
	}
}

func TestWindowValidate(t *testing.T) {
	w := DefaultWindow()
	w.ShoulderMorningEnd = NewClock(5, 0)
	if err := w.Validate(); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("got %v, want ErrInvalidWindow", err)
	}
	if _, err := New(w); err == nil {
		t.Error("New accepted an invalid window")
	}

	w = DefaultWindow()
	w.NightStart = Clock(MinutesPerDay)
	if err := w.Validate(); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("got %v, want ErrInvalidWindow", err)
	}
}

func TestClockText(t *testing.T) {
	var c Clock
	if err := c.UnmarshalText([]byte("06:30")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if c != NewClock(6, 30) || c.String() != "06:30" {
		t.Errorf("got %v", c)
	}
	for _, bad := range []string{"6", "25:00", "06:7", "ab:cd"} {
		if _, err := ParseClock(bad); !errors.Is(err, ErrInvalidClock) {
			t.Errorf("ParseClock(%q) = %v, want ErrInvalidClock", bad, err)
		}
	}
}
