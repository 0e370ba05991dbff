package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"
	"flightwindow-service/internal/usecase"
	"flightwindow-service/pkg/categorizer"
	"flightwindow-service/pkg/logger"
	"flightwindow-service/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeReports struct {
	summaries map[string]*entity.DailySummary
	flights   []entity.ClassifiedFlight
	rangeErr  error
	err       error
	airports  []string
}

func (f *fakeReports) Daily(_ context.Context, date, airport string) (*entity.DailySummary, error) {
	f.airports = append(f.airports, airport)
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.summaries[date]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeReports) Flights(_ context.Context, _, _ string, filter repository.FlightFilter) ([]entity.ClassifiedFlight, error) {
	var out []entity.ClassifiedFlight
	for _, fl := range f.flights {
		if filter.Category != "" && fl.Category != filter.Category {
			continue
		}
		if filter.Leg != "" && fl.Leg != filter.Leg {
			continue
		}
		out = append(out, fl)
	}
	return out, nil
}

func (f *fakeReports) Range(_ context.Context, airport, from, to string) (*usecase.RangeReport, error) {
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	var days []*entity.DailySummary
	for _, s := range f.summaries {
		days = append(days, s)
	}
	return usecase.MergeDays(airport, from, to, days), nil
}

func newTestRouter(t *testing.T, reports *fakeReports) (*gin.Engine, *prometheus.Registry) {
	t.Helper()
	pipeline, err := usecase.NewPipeline(usecase.PipelineConfig{
		AirportCodes: []string{"BRS", "EGGD"},
		Window:       categorizer.DefaultWindow(),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	metrics.NewMetrics("test", reg)
	h := NewHandler(reports, pipeline, "brs", entity.WriteOverwrite, logger.NewNop())
	return NewRouter(h, reg, logger.NewNop()), reg
}

func seededReports() *fakeReports {
	s := &entity.DailySummary{Date: "2024-01-05", Airport: "BRS", AverageDelayMinutes: 3}
	flights := []entity.ClassifiedFlight{
		{Record: entity.FlightRecord{Flight: entity.FlightIdent{IATA: "U26204"}}, Leg: entity.LegArrival, Category: entity.CategoryNight},
		{Record: entity.FlightRecord{Flight: entity.FlightIdent{IATA: "KL1042"}}, Leg: entity.LegDeparture, Category: entity.CategoryRegular},
	}
	for _, f := range flights {
		s.Summary.Add(f.Leg, f.Category)
	}
	return &fakeReports{summaries: map[string]*entity.DailySummary{"2024-01-05": s}, flights: flights}
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var resp struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, resp.Data)
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, seededReports())
	if w := do(r, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestGetDailySummary(t *testing.T) {
	reports := seededReports()
	r, _ := newTestRouter(t, reports)

	tests := []struct {
		target string
		status int
	}{
		{"/api/v1/summaries/2024-01-05", http.StatusOK},
		{"/api/v1/summaries/2024-01-06", http.StatusNotFound},
		{"/api/v1/summaries/05-01-2024", http.StatusBadRequest},
	}
	for _, test := range tests {
		if w := do(r, http.MethodGet, test.target, ""); w.Code != test.status {
			t.Errorf("GET %s = %d, want %d", test.target, w.Code, test.status)
		}
	}

	w := do(r, http.MethodGet, "/api/v1/summaries/2024-01-05?airport=lhr", "")
	if last := reports.airports[len(reports.airports)-1]; last != "LHR" {
		t.Errorf("airport = %q, want LHR", last)
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if reports.airports[0] != "BRS" {
		t.Errorf("default airport = %q", reports.airports[0])
	}
}

func TestGetRangeSummary(t *testing.T) {
	reports := seededReports()
	r, _ := newTestRouter(t, reports)

	w := do(r, http.MethodGet, "/api/v1/summaries?from=2024-01-01&to=2024-01-31", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var report usecase.RangeReport
	decodeData(t, w, &report)
	if report.Days != 1 || report.Summary.Total != 2 || len(report.Months) != 1 {
		t.Errorf("unexpected report %+v", report)
	}

	if w := do(r, http.MethodGet, "/api/v1/summaries?from=2024-01-01", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing to: status = %d", w.Code)
	}
	reports.rangeErr = fmt.Errorf("%w: to before from", usecase.ErrInvalidRange)
	if w := do(r, http.MethodGet, "/api/v1/summaries?from=2024-02-01&to=2024-01-01", ""); w.Code != http.StatusBadRequest {
		t.Errorf("inverted range: status = %d", w.Code)
	}
	reports.rangeErr = errors.New("connection refused")
	if w := do(r, http.MethodGet, "/api/v1/summaries?from=2024-01-01&to=2024-01-31", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("store failure: status = %d", w.Code)
	}
}

func TestListFlights(t *testing.T) {
	r, _ := newTestRouter(t, seededReports())

	tests := []struct {
		query  string
		status int
		count  int
	}{
		{"date=2024-01-05", http.StatusOK, 2},
		{"date=2024-01-05&category=night", http.StatusOK, 1},
		{"date=2024-01-05&leg=departure", http.StatusOK, 1},
		{"date=2024-01-05&category=Night&leg=departure", http.StatusOK, 0},
		{"date=2024-01-05&category=late", http.StatusBadRequest, 0},
		{"date=2024-01-05&leg=transit", http.StatusBadRequest, 0},
		{"", http.StatusBadRequest, 0},
	}
	for _, test := range tests {
		w := do(r, http.MethodGet, "/api/v1/flights?"+test.query, "")
		if w.Code != test.status {
			t.Errorf("%s: status = %d, want %d", test.query, w.Code, test.status)
			continue
		}
		if test.status != http.StatusOK {
			continue
		}
		var data struct {
			Count   int                       `json:"count"`
			Flights []entity.ClassifiedFlight `json:"flights"`
		}
		decodeData(t, w, &data)
		if data.Count != test.count || len(data.Flights) != test.count || data.Flights == nil {
			t.Errorf("%s: count = %d, want %d", test.query, data.Count, test.count)
		}
	}
}

func TestClassifyBatch(t *testing.T) {
	r, _ := newTestRouter(t, seededReports())

	flight := func(airline, number, actual string) string {
		return fmt.Sprintf(`{"flight_status": "landed",
			"departure": {"iata": "AMS", "scheduled": "2024-01-05T21:00:00+00:00"},
			"arrival": {"iata": "BRS", "scheduled": "2024-01-05T23:10:00+00:00", "actual": %q},
			"airline": {"iata": %q}, "flight": {"number": %q, "iata": %q}}`, actual, airline, number, airline+number)
	}
	body := `{"arrivals": [` +
		flight("U2", "6204", "2024-01-05T23:45:00+00:00") + "," +
		flight("KL", "1042", "2024-01-05T23:45:00+00:00") +
		`], "departures": []}`

	w := do(r, http.MethodPost, "/api/v1/classify", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var result usecase.PipelineResult
	decodeData(t, w, &result)
	if result.Summary.Arrivals != 1 || result.Dropped != 1 || result.Summary.Categories.Night != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if len(result.Flights) != 1 || result.Flights[0].Record.Flight.IATA != "U26204" {
		t.Errorf("flights = %+v", result.Flights)
	}

	if w := do(r, http.MethodPost, "/api/v1/classify", `{"arrivals": [`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d", w.Code)
	}
}

func TestExport(t *testing.T) {
	r, _ := newTestRouter(t, seededReports())

	w := do(r, http.MethodGet, "/api/v1/exports/2024-01-05?format=csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "flights_BRS_2024-01-05.csv") {
		t.Errorf("content disposition = %q", cd)
	}
	if lines := strings.Count(w.Body.String(), "\n"); lines != 3 {
		t.Errorf("got %d csv lines, want 3", lines)
	}

	w = do(r, http.MethodGet, "/api/v1/exports/2024-01-05?format=sql", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "DELETE FROM flights") {
		t.Errorf("sql export: %d %s", w.Code, w.Body.String())
	}

	if w := do(r, http.MethodGet, "/api/v1/exports/2024-01-05?format=pdf", ""); w.Code != http.StatusBadRequest {
		t.Errorf("unknown format: status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/exports/2024-02-01", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing day: status = %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, seededReports())
	w := do(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "test_ingestion_time_seconds") {
		t.Errorf("metrics body missing ingestion histogram")
	}
}
