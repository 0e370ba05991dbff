package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"flightwindow-service/internal/domain/entity"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var summaryColumns = []string{
	"summary_date", "airport", "total_flights", "arrivals", "departures",
	"regular_flights", "shoulder_flights", "night_flights", "unknown_flights",
	"regular_arrivals", "shoulder_arrivals", "night_arrivals", "unknown_arrivals",
	"regular_departures", "shoulder_departures", "night_departures", "unknown_departures",
	"avg_delay_minutes", "created_at", "updated_at",
}

var flightTableColumns = []string{
	"flight_date", "airport", "leg", "flight", "scheduled", "airline_name", "airline_iata",
	"flight_status", "departure_airport", "arrival_airport", "time_category", "time_source",
	"timestamp", "delay_minutes", "codeshare_of", "record", "created_at", "updated_at",
}

// SQLExporter writes a PostgreSQL script that loads the day into the
// flights and daily_summary tables under the report's write policy.
type SQLExporter struct{}

func (SQLExporter) ContentType() string { return "application/sql" }
func (SQLExporter) Extension() string   { return "sql" }

func (SQLExporter) Write(w io.Writer, r Report) error {
	statements, err := Statements(r)
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "-- %s %s: %d flights, policy %s\n", r.Summary.Airport, r.Summary.Date, len(r.Flights), policyOf(r))
	b.WriteString("BEGIN;\n")
	for _, s := range statements {
		b.WriteString(s)
		b.WriteString(";\n")
	}
	b.WriteString("COMMIT;\n")
	_, err = io.WriteString(w, b.String())
	return err
}

func policyOf(r Report) entity.WritePolicy {
	if r.Policy == "" {
		return entity.WriteOverwrite
	}
	return r.Policy
}

// Statements returns the literal SQL statements for r, without a trailing
// semicolon.
func Statements(r Report) ([]string, error) {
	date, airport := r.Summary.Date, r.Summary.Airport
	policy := policyOf(r)

	var builders []sq.Sqlizer
	switch policy {
	case entity.WriteOverwrite:
		builders = append(builders, psql.Delete("flights").Where(sq.Eq{"flight_date": date, "airport": airport}))
	case entity.WriteUpsert, entity.WriteAppend:
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownPolicy, policy)
	}

	for _, f := range r.Flights {
		values, err := flightValues(date, airport, f)
		if err != nil {
			return nil, err
		}
		if policy == entity.WriteUpsert {
			// No unique key on flights: replace the matching natural key.
			builders = append(builders, psql.Delete("flights").Where(sq.Eq{
				"flight_date": date,
				"airport":     airport,
				"leg":         values[2],
				"flight":      values[3],
				"scheduled":   values[4],
			}))
		}
		builders = append(builders, psql.Insert("flights").Columns(flightTableColumns...).Values(values...))
	}

	builders = append(builders, summaryInsert(r.Summary))

	out := make([]string, 0, len(builders))
	for _, b := range builders {
		query, args, err := b.ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build statement: %w", err)
		}
		stmt, err := inline(query, args)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func flightValues(date, airport string, f entity.ClassifiedFlight) ([]interface{}, error) {
	record, err := json.Marshal(f.Record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record %s: %w", f.Record.Designator(), err)
	}
	local, _ := f.LocalLeg()
	var delay interface{}
	if f.DelayMinutes != nil {
		delay = *f.DelayMinutes
	}
	codeshare := ""
	if f.Record.Codeshare != nil {
		codeshare = f.Record.Codeshare.FlightIATA
	}
	return []interface{}{
		date, airport, string(f.Leg), f.Record.Designator(), local.Scheduled,
		f.Record.Airline.Name, f.Record.Airline.IATA, f.Record.Status,
		f.Record.Departure.Code(), f.Record.Arrival.Code(),
		string(f.Category), string(f.TimeSource), f.Timestamp, delay, codeshare,
		string(record), sq.Expr("NOW()"), sq.Expr("NOW()"),
	}, nil
}

func summaryInsert(d entity.DailySummary) sq.InsertBuilder {
	s := d.Summary
	updates := make([]string, 0, len(summaryColumns))
	for _, c := range summaryColumns[2:] {
		if c == "created_at" {
			continue
		}
		updates = append(updates, c+" = EXCLUDED."+c)
	}
	return psql.Insert("daily_summary").
		Columns(summaryColumns...).
		Values(
			d.Date, d.Airport, s.Total, s.Arrivals, s.Departures,
			s.Categories.Regular, s.Categories.Shoulder, s.Categories.Night, s.Categories.Unknown,
			s.ArrivalCategories.Regular, s.ArrivalCategories.Shoulder, s.ArrivalCategories.Night, s.ArrivalCategories.Unknown,
			s.DepartureCategories.Regular, s.DepartureCategories.Shoulder, s.DepartureCategories.Night, s.DepartureCategories.Unknown,
			d.AverageDelayMinutes, sq.Expr("NOW()"), sq.Expr("NOW()"),
		).
		Suffix("ON CONFLICT (summary_date, airport) DO UPDATE SET " + strings.Join(updates, ", "))
}

// inline substitutes $n placeholders with SQL literals. The generated query
// text holds no string literals, so a single left-to-right scan is enough.
func inline(query string, args []interface{}) (string, error) {
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c != '$' || i+1 >= len(query) || query[i+1] < '0' || query[i+1] > '9' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		n, _ := strconv.Atoi(query[i+1 : j])
		if n < 1 || n > len(args) {
			return "", fmt.Errorf("placeholder $%d out of range", n)
		}
		lit, err := literal(args[n-1])
		if err != nil {
			return "", err
		}
		b.WriteString(lit)
		i = j - 1
	}
	return b.String(), nil
}

func literal(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	return "", fmt.Errorf("unsupported literal %T", v)
}
