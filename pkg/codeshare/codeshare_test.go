package codeshare

import (
	"errors"
	"reflect"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"flightwindow-service/internal/domain/entity"
)

func record(airline, number, depSched, arrSched, from, to string) entity.FlightRecord {
	return entity.FlightRecord{
		Flight:    entity.FlightIdent{Number: number, IATA: airline + number},
		Airline:   entity.AirlineRef{IATA: airline},
		Departure: entity.Leg{IATA: from, Scheduled: depSched},
		Arrival:   entity.Leg{IATA: to, Scheduled: arrSched},
	}
}

func codeshareOf(r entity.FlightRecord, airline, number string) entity.FlightRecord {
	cs := r
	cs.Codeshare = &entity.Codeshare{
		AirlineIATA:  r.Airline.IATA,
		FlightNumber: r.Flight.Number,
		FlightIATA:   r.Flight.IATA,
	}
	cs.Airline = entity.AirlineRef{IATA: airline}
	cs.Flight = entity.FlightIdent{Number: number, IATA: airline + number}
	return cs
}

func TestCodesharePairCollapses(t *testing.T) {
	op := record("U2", "6203", "2024-01-05T06:00:00+00:00", "2024-01-05T09:30:00+00:00", "BRS", "AMS")
	mk := codeshareOf(op, "KL", "1042")

	for _, s := range []Strategy{StrategyScheduleRoute, StrategyFlightNumber} {
		res := Deduplicate([]entity.FlightRecord{op, mk}, s)
		if len(res.Records) != 1 {
			t.Fatalf("%s: got %d records, want 1", s, len(res.Records))
		}
		if res.Records[0].Flight.IATA != "U26203" {
			t.Errorf("%s: kept %s, want the first-seen operating record", s, res.Records[0].Flight.IATA)
		}
		if len(res.Dropped) != 1 || res.Dropped[0].Index != 1 || res.Dropped[0].KeptIndex != 0 {
			t.Errorf("%s: unexpected dropped %+v", s, res.Dropped)
		}
	}
}

func TestNumberReuseDifferentScheduleSurvives(t *testing.T) {
	morning := record("FR", "100", "2024-01-05T06:00:00", "2024-01-05T08:00:00", "BRS", "DUB")
	evening := record("FR", "100", "2024-01-05T19:00:00", "2024-01-05T21:00:00", "BRS", "DUB")

	res := Deduplicate([]entity.FlightRecord{morning, evening}, StrategyScheduleRoute)
	if len(res.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(res.Records))
	}

	// the coarse key merges them
	res = Deduplicate([]entity.FlightRecord{morning, evening}, StrategyFlightNumber)
	if len(res.Records) != 1 {
		t.Fatalf("flight_number: got %d records, want 1", len(res.Records))
	}
}

func TestUnkeyablePassThrough(t *testing.T) {
	noSchedule := entity.FlightRecord{Flight: entity.FlightIdent{Number: "1"}}
	noNumber := entity.FlightRecord{Departure: entity.Leg{Scheduled: "2024-01-05T10:00:00"}}

	res := Deduplicate([]entity.FlightRecord{noSchedule, noSchedule}, StrategyScheduleRoute)
	if len(res.Records) != 2 || len(res.Unkeyable) != 2 {
		t.Errorf("schedule_route: got %d records, %d unkeyable", len(res.Records), len(res.Unkeyable))
	}

	res = Deduplicate([]entity.FlightRecord{noNumber, noNumber}, StrategyFlightNumber)
	if len(res.Records) != 2 || len(res.Unkeyable) != 2 {
		t.Errorf("flight_number: got %d records, %d unkeyable", len(res.Records), len(res.Unkeyable))
	}
}

func TestRecordWithoutIdentityPassesThrough(t *testing.T) {
	op := record("BA", "100", "2024-01-05T10:00:00+00:00", "2024-01-05T12:00:00+00:00", "BRS", "AMS")
	anon := op
	anon.Flight = entity.FlightIdent{}
	anon.Airline = entity.AirlineRef{}

	for _, s := range []Strategy{StrategyScheduleRoute, StrategyFlightNumber} {
		res := Deduplicate([]entity.FlightRecord{op, anon}, s)
		if len(res.Records) != 2 || len(res.Dropped) != 0 {
			t.Errorf("%s: kept %d, dropped %d, want 2/0", s, len(res.Records), len(res.Dropped))
		}
		if !reflect.DeepEqual(res.Unkeyable, []int{1}) {
			t.Errorf("%s: unkeyable = %v, want [1]", s, res.Unkeyable)
		}
	}

	// a codeshare reference alone is enough to key the record
	marketed := anon
	marketed.Codeshare = &entity.Codeshare{AirlineIATA: "BA", FlightNumber: "100"}
	res := Deduplicate([]entity.FlightRecord{op, marketed}, StrategyScheduleRoute)
	if len(res.Records) != 1 || len(res.Unkeyable) != 0 {
		t.Errorf("codeshare only: kept %d, unkeyable %v", len(res.Records), res.Unkeyable)
	}
}

func TestScheduleRouteKeyComparesInstants(t *testing.T) {
	tests := []struct {
		name      string
		dep, dep2 string
		kept      int
	}{
		{"Z and +00:00", "2024-01-05T10:00:00Z", "2024-01-05T10:00:00+00:00", 1},
		{"same instant in another zone", "2024-01-05T10:00:00Z", "2024-01-05T11:00:00+01:00", 1},
		{"fractional seconds", "2024-01-05T10:00:00.000+00:00", "2024-01-05T10:00:00Z", 1},
		{"local, space separated", "2024-01-05 10:00:00", "2024-01-05T10:00:00", 1},
		{"different instants", "2024-01-05T10:00:00Z", "2024-01-05T10:00:00+01:00", 2},
		{"unparseable kept as written", "soon", "soon ", 1},
	}
	for _, test := range tests {
		a := record("U2", "6203", test.dep, "", "BRS", "AMS")
		b := codeshareOf(record("U2", "6203", test.dep2, "", "BRS", "AMS"), "KL", "1042")
		res := Deduplicate([]entity.FlightRecord{a, b}, StrategyScheduleRoute)
		if len(res.Records) != test.kept {
			t.Errorf("%s: kept %d, want %d", test.name, len(res.Records), test.kept)
		}
	}
}

func TestFlightNumberKeyMatchesCodeshareTarget(t *testing.T) {
	op := entity.FlightRecord{
		Airline: entity.AirlineRef{Name: "KLM", IATA: "KL"},
		Flight:  entity.FlightIdent{Number: "1042", IATA: "KL1042"},
	}
	mk := entity.FlightRecord{
		Airline:   entity.AirlineRef{IATA: "DL"},
		Flight:    entity.FlightIdent{Number: "9551"},
		Codeshare: &entity.Codeshare{AirlineName: "klm", AirlineIATA: "kl", FlightIATA: "kl1042"},
	}
	a, okA := KeyFor(StrategyFlightNumber, op)
	b, okB := KeyFor(StrategyFlightNumber, mk)
	if !okA || !okB || a != b {
		t.Errorf("keys differ: %v (%v) vs %v (%v)", a, okA, b, okB)
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	f := gofakeit.New(42)
	airlines := []string{"BA", "U2", "FR", "KL", "EI"}
	airports := []string{"BRS", "AMS", "DUB", "EDI"}
	hours := []string{"06", "07", "12", "23"}

	var batch []entity.FlightRecord
	for i := 0; i < 200; i++ {
		hour := f.RandomString(hours)
		r := record(
			f.RandomString(airlines),
			f.DigitN(3),
			"2024-01-05T"+hour+":00:00",
			"2024-01-05T"+hour+":50:00",
			"BRS",
			f.RandomString(airports),
		)
		if f.Bool() && len(batch) > 0 {
			r = codeshareOf(batch[f.Number(0, len(batch)-1)], f.RandomString(airlines), f.DigitN(4))
		}
		batch = append(batch, r)
	}

	for _, s := range []Strategy{StrategyScheduleRoute, StrategyFlightNumber} {
		once := Deduplicate(batch, s)
		twice := Deduplicate(once.Records, s)
		if !reflect.DeepEqual(once.Records, twice.Records) {
			t.Errorf("%s: second pass changed the output (%d -> %d)", s, len(once.Records), len(twice.Records))
		}
		if len(twice.Dropped) != 0 {
			t.Errorf("%s: second pass dropped %d records", s, len(twice.Dropped))
		}
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{
		"":               StrategyScheduleRoute,
		"schedule_route": StrategyScheduleRoute,
		"FLIGHT_NUMBER":  StrategyFlightNumber,
	} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseStrategy("airline"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("got %v, want ErrUnknownStrategy", err)
	}
}
