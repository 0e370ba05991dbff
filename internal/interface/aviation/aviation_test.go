package aviation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"flightwindow-service/internal/domain/repository"
	"flightwindow-service/pkg/metrics"
)

var (
	bristol = repository.Airport{IATA: "BRS", ICAO: "EGGD"}
	day     = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
)

func testOptions(url string) ClientOptions {
	return ClientOptions{
		BaseURL:    url,
		MaxRetries: 2,
		Backoff:    time.Millisecond,
		Metrics:    metrics.NewMetrics("test", prometheus.NewRegistry()),
	}
}

const stackFlight = `{
	"flight_date": "2024-01-05",
	"flight_status": "landed",
	"departure": {"airport": "Schiphol", "iata": "ams", "icao": "EHAM", "scheduled": "2024-01-05T21:00:00+00:00"},
	"arrival": {"airport": "Bristol", "iata": "BRS", "icao": "EGGD", "delay": "%s",
		"scheduled": "2024-01-05T23:10:00+00:00", "estimated": null, "actual": "2024-01-05T23:22:00+00:00"},
	"airline": {"name": "KLM", "iata": "KL", "icao": "KLM"},
	"flight": {"number": "%d", "iata": "KL%d", "icao": "KLM%d",
		"codeshared": {"airline_name": "easyjet", "airline_iata": "u2", "flight_number": "6204", "flight_iata": "u26204"}}
}`

func TestAviationStackPaginates(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		q := r.URL.Query()
		if r.URL.Path != "/v1/flights" || q.Get("access_key") != "secret" || q.Get("arr_iata") != "BRS" || q.Get("flight_date") != "2024-01-05" {
			t.Errorf("unexpected request %s", r.URL)
		}
		offset, _ := strconv.Atoi(q.Get("offset"))
		var data string
		count := 2
		if offset == 0 {
			data = fmt.Sprintf(stackFlight, "12", 1, 1, 1) + "," + fmt.Sprintf(stackFlight, "", 2, 2, 2)
		} else {
			data = fmt.Sprintf(stackFlight, "x", 3, 3, 3)
			count = 1
		}
		fmt.Fprintf(w, `{"pagination": {"limit": 2, "offset": %d, "count": %d, "total": 3}, "data": [%s]}`, offset, count, data)
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.PageSize = 2
	got, err := NewAviationStackClient("secret", opts).FetchArrivals(context.Background(), bristol, day)
	if err != nil {
		t.Fatalf("FetchArrivals: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(got.Records) != 3 || len(got.Raw) != 3 {
		t.Fatalf("got %d records, %d raw", len(got.Records), len(got.Raw))
	}

	first := got.Records[0]
	if first.Departure.IATA != "AMS" || first.Arrival.Actual != "2024-01-05T23:22:00+00:00" || first.Flight.IATA != "KL1" {
		t.Errorf("unexpected record %+v", first)
	}
	if first.Arrival.Delay == nil || *first.Arrival.Delay != 12 {
		t.Errorf("delay = %v, want 12", first.Arrival.Delay)
	}
	if got.Records[1].Arrival.Delay != nil || got.Records[2].Arrival.Delay != nil {
		t.Error("empty or malformed delay should read as absent")
	}
	if cs := first.Codeshare; cs == nil || cs.FlightIATA != "U26204" || cs.AirlineIATA != "U2" {
		t.Errorf("codeshare = %+v", first.Codeshare)
	}
	if got.Raw[0]["flight_status"] != "landed" {
		t.Errorf("raw = %v", got.Raw[0])
	}
}

func TestAviationStackErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("dep_iata") != "BRS" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"error": {"code": "invalid_access_key", "message": "You have not supplied a valid API Access Key."}}`)
	}))
	defer srv.Close()

	_, err := NewAviationStackClient("bad", testOptions(srv.URL)).FetchDepartures(context.Background(), bristol, day)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRetriesRateLimited(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"pagination": {"count": 0, "total": 0}, "data": []}`)
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	got, err := NewAviationStackClient("k", opts).FetchArrivals(context.Background(), bristol, day)
	if err != nil {
		t.Fatalf("FetchArrivals: %v", err)
	}
	if len(got.Records) != 0 || calls != 2 {
		t.Errorf("records = %d, calls = %d", len(got.Records), calls)
	}
	if v := testutil.ToFloat64(opts.Metrics.FetchRetries.WithLabelValues("aviationstack")); v != 1 {
		t.Errorf("retries metric = %v, want 1", v)
	}
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		target    error
		wantCalls int32
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited, 3},
		{"server error", http.StatusBadGateway, nil, 3},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized, 1},
		{"quota", http.StatusPaymentRequired, ErrQuotaExceeded, 1},
		{"bad request", http.StatusBadRequest, nil, 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(test.status)
			}))
			defer srv.Close()

			_, err := NewAviationStackClient("k", testOptions(srv.URL)).FetchArrivals(context.Background(), bristol, day)
			var statusErr *StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != test.status {
				t.Fatalf("err = %v, want status %d", err, test.status)
			}
			if test.target != nil && !errors.Is(err, test.target) {
				t.Errorf("err = %v, want %v", err, test.target)
			}
			if calls != test.wantCalls {
				t.Errorf("calls = %d, want %d", calls, test.wantCalls)
			}
		})
	}
}

func TestRetryWaitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.Backoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewAviationStackClient("k", opts).FetchArrivals(ctx, bristol, day)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("retry wait ignored the context")
	}
}

func TestAviationEdgeHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/v2/public/flightsHistory" || q.Get("code") != "BRS" || q.Get("date_from") != "2024-01-05" || q.Get("date_to") != "2024-01-05" {
			t.Errorf("unexpected request %s", r.URL)
		}
		switch q.Get("type") {
		case "departure":
			fmt.Fprint(w, `[{
				"type": "departure", "status": "active",
				"departure": {"iataCode": "brs", "icaoCode": "eggd", "delay": "7", "scheduledTime": "2024-01-05t06:00:00.000", "actualTime": "2024-01-05t06:07:00.000"},
				"arrival": {"iataCode": "ams", "icaoCode": "eham", "scheduledTime": "2024-01-05t08:15:00.000"},
				"airline": {"name": "klm", "iataCode": "kl", "icaoCode": "klm"},
				"flight": {"number": "1042", "iataNumber": "kl1042", "icaoNumber": "klm1042"},
				"codeshared": {"airline": {"name": "easyjet", "iataCode": "u2"}, "flight": {"number": "6204", "iataNumber": "u26204"}}
			}]`)
		default:
			fmt.Fprint(w, `{"error": "No Record Found", "success": false}`)
		}
	}))
	defer srv.Close()

	client := NewAviationEdgeClient("k", testOptions(srv.URL))
	deps, err := client.FetchDepartures(context.Background(), bristol, day)
	if err != nil {
		t.Fatalf("FetchDepartures: %v", err)
	}
	if len(deps.Records) != 1 {
		t.Fatalf("got %d records", len(deps.Records))
	}
	r := deps.Records[0]
	if r.Departure.Scheduled != "2024-01-05T06:00:00.000" || r.Departure.IATA != "BRS" || r.FlightDate != "2024-01-05" {
		t.Errorf("unexpected departure %+v", r.Departure)
	}
	if r.Departure.Delay == nil || *r.Departure.Delay != 7 || r.Flight.IATA != "KL1042" {
		t.Errorf("unexpected record %+v", r)
	}
	if r.Codeshare == nil || r.Codeshare.FlightIATA != "U26204" {
		t.Errorf("codeshare = %+v", r.Codeshare)
	}

	arrs, err := client.FetchArrivals(context.Background(), bristol, day)
	if err != nil || len(arrs.Records) != 0 {
		t.Errorf("no-record response: %v, %d records", err, len(arrs.Records))
	}
}

func TestAviationEdgeErrorObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "Invalid API key"}`)
	}))
	defer srv.Close()

	if _, err := NewAviationEdgeClient("k", testOptions(srv.URL)).FetchArrivals(context.Background(), bristol, day); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenSkyFlights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("airport") != "EGGD" || q.Get("begin") != "1704412800" || q.Get("end") != "1704499199" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.URL.Path == "/api/flights/departure" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `[{"icao24": "4ca7b5", "firstSeen": 1704488400, "estDepartureAirport": "EHAM",
			"lastSeen": 1704497400, "estArrivalAirport": "EGGD", "callsign": "EZY6204 "},
			{"icao24": "400f0c", "firstSeen": 1704470000, "estDepartureAirport": null,
			"lastSeen": 1704471000, "estArrivalAirport": "EGGD", "callsign": "GBXYZ"}]`)
	}))
	defer srv.Close()

	client := NewOpenSkyClient(testOptions(srv.URL))
	arrs, err := client.FetchArrivals(context.Background(), bristol, day)
	if err != nil {
		t.Fatalf("FetchArrivals: %v", err)
	}
	if len(arrs.Records) != 2 {
		t.Fatalf("got %d records", len(arrs.Records))
	}
	r := arrs.Records[0]
	if r.Flight.ICAO != "EZY6204" || r.Flight.Number != "6204" || r.Airline.ICAO != "EZY" {
		t.Errorf("unexpected ident %+v %+v", r.Flight, r.Airline)
	}
	if r.Arrival.Actual != "2024-01-05T23:30:00Z" || r.Arrival.ICAO != "EGGD" || r.Departure.ICAO != "EHAM" {
		t.Errorf("unexpected legs %+v %+v", r.Departure, r.Arrival)
	}
	if g := arrs.Records[1]; g.Flight.Number != "GBXYZ" || g.Airline.ICAO != "" {
		t.Errorf("unexpected private flight %+v", g.Flight)
	}

	deps, err := client.FetchDepartures(context.Background(), bristol, day)
	if err != nil || len(deps.Records) != 0 {
		t.Errorf("404 should be empty: %v", err)
	}

	if _, err := client.FetchArrivals(context.Background(), repository.Airport{IATA: "BRS"}, day); err == nil {
		t.Error("expected error without ICAO code")
	}
}

func TestBackoffWait(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{6, 64 * time.Second},
		{7, maxRetryWait},
		{34, maxRetryWait},
		{100, maxRetryWait},
	}
	for _, test := range tests {
		if got := backoffWait(time.Second, test.attempt); got != test.want {
			t.Errorf("backoffWait(1s, %d) = %s, want %s", test.attempt, got, test.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"Fri, 05 Jan 2024 12:00:30 GMT", 30 * time.Second},
		{"Fri, 05 Jan 2024 11:00:00 GMT", 0},
		{"soon", 0},
	}
	for _, test := range tests {
		if got := parseRetryAfter(test.value, now); got != test.want {
			t.Errorf("parseRetryAfter(%q) = %s, want %s", test.value, got, test.want)
		}
	}
}

func TestSplitCallsign(t *testing.T) {
	tests := []struct{ in, airline, number string }{
		{"EZY6204", "EZY", "6204"},
		{"BAW12A", "BAW", "12A"},
		{"GBXYZ", "", "GBXYZ"},
		{"N12", "", "N12"},
		{"", "", ""},
	}
	for _, test := range tests {
		airline, number := splitCallsign(test.in)
		if airline != test.airline || number != test.number {
			t.Errorf("splitCallsign(%q) = %q, %q", test.in, airline, number)
		}
	}
}

func TestDecodeAviationStackBatch(t *testing.T) {
	doc := `{"date": "2024-01-05", "arrivals": [` + fmt.Sprintf(stackFlight, "3", 1, 1, 1) + `], "departures": []}`
	b, err := DecodeAviationStackBatch(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeAviationStackBatch: %v", err)
	}
	arrivals, departures := b.Records()
	if len(arrivals) != 1 || len(departures) != 0 || arrivals[0].Arrival.IATA != "BRS" {
		t.Errorf("unexpected batch %+v / %+v", arrivals, departures)
	}
	if _, err := DecodeAviationStackBatch(strings.NewReader("{")); err == nil {
		t.Error("expected error for truncated document")
	}
}
