package usecase

import (
	"context"
	"errors"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"
)

type fakeSource struct {
	arrivals   map[string][]entity.FlightRecord
	departures map[string][]entity.FlightRecord
	failOn     map[string]error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchArrivals(_ context.Context, _ repository.Airport, date time.Time) (*repository.FetchResult, error) {
	day := date.Format(dateLayout)
	if err := f.failOn[day]; err != nil {
		return nil, err
	}
	return resultOf(f.arrivals[day]), nil
}

func (f *fakeSource) FetchDepartures(_ context.Context, _ repository.Airport, date time.Time) (*repository.FetchResult, error) {
	return resultOf(f.departures[date.Format(dateLayout)]), nil
}

func resultOf(records []entity.FlightRecord) *repository.FetchResult {
	res := &repository.FetchResult{Records: records}
	for _, r := range records {
		res.Raw = append(res.Raw, map[string]interface{}{"flight_iata": r.Flight.IATA})
	}
	return res
}

type fakeAirlineRepo struct {
	names map[string]string
	calls int
}

func (f *fakeAirlineRepo) GetByIATA(_ context.Context, code string) (*entity.Airline, error) {
	f.calls++
	name, ok := f.names[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &entity.Airline{IATA: code, Name: name}, nil
}

type fakeFlightRepo struct {
	days     map[string][]entity.ClassifiedFlight
	policies []entity.WritePolicy
	err      error
}

func newFakeFlightRepo() *fakeFlightRepo {
	return &fakeFlightRepo{days: make(map[string][]entity.ClassifiedFlight)}
}

func (f *fakeFlightRepo) SaveDay(_ context.Context, date, airport string, flights []entity.ClassifiedFlight, policy entity.WritePolicy) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.policies = append(f.policies, policy)
	key := date + "/" + airport
	if policy == entity.WriteAppend {
		f.days[key] = append(f.days[key], flights...)
	} else {
		f.days[key] = append([]entity.ClassifiedFlight(nil), flights...)
	}
	return len(flights), nil
}

func (f *fakeFlightRepo) FindByDate(_ context.Context, date, airport string, filter repository.FlightFilter) ([]entity.ClassifiedFlight, error) {
	var out []entity.ClassifiedFlight
	for _, fl := range f.days[date+"/"+airport] {
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

type fakeSummaryRepo struct {
	byDate map[string]*entity.DailySummary
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{byDate: make(map[string]*entity.DailySummary)}
}

func (f *fakeSummaryRepo) Upsert(_ context.Context, s *entity.DailySummary) error {
	f.byDate[s.Date+"/"+s.Airport] = s
	return nil
}

func (f *fakeSummaryRepo) FindByDate(_ context.Context, date, airport string) (*entity.DailySummary, error) {
	s, ok := f.byDate[date+"/"+airport]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeSummaryRepo) FindRange(_ context.Context, airport, from, to string) ([]*entity.DailySummary, error) {
	var out []*entity.DailySummary
	for _, s := range f.byDate {
		if s.Airport == airport && s.Date >= from && s.Date <= to {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeSnapshotRepo struct {
	saved []*entity.RawSnapshot
	err   error
}

func (f *fakeSnapshotRepo) Save(_ context.Context, s *entity.RawSnapshot) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeSnapshotRepo) FindByDate(_ context.Context, date, airport string) (*entity.RawSnapshot, error) {
	for _, s := range f.saved {
		if s.Date == date && s.Airport == airport {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeRunRepo struct {
	runs []entity.IngestionRun
}

func (f *fakeRunRepo) Create(_ context.Context, run *entity.IngestionRun) error {
	run.ID = uint(len(f.runs) + 1)
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeRunRepo) Update(_ context.Context, run *entity.IngestionRun) error {
	if run.ID == 0 || int(run.ID) > len(f.runs) {
		return errors.New("unknown run")
	}
	f.runs[run.ID-1] = *run
	return nil
}

func (f *fakeRunRepo) LastByDate(_ context.Context, date, airport string) (*entity.IngestionRun, error) {
	for i := len(f.runs) - 1; i >= 0; i-- {
		if f.runs[i].Date == date && f.runs[i].Airport == airport {
			run := f.runs[i]
			return &run, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakePublisher struct {
	published []*entity.DailySummary
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, s *entity.DailySummary) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, s)
	return nil
}
