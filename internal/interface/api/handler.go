package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"
	"flightwindow-service/internal/infrastructure/export"
	"flightwindow-service/internal/interface/aviation"
	"flightwindow-service/internal/usecase"
	"flightwindow-service/pkg/logger"
)

const (
	dateLayout   = "2006-01-02"
	maxBatchBody = 16 << 20
)

// Reports reads stored results
type Reports interface {
	Daily(ctx context.Context, date, airport string) (*entity.DailySummary, error)
	Flights(ctx context.Context, date, airport string, filter repository.FlightFilter) ([]entity.ClassifiedFlight, error)
	Range(ctx context.Context, airport, from, to string) (*usecase.RangeReport, error)
}

// Classifier runs the pipeline on a posted batch
type Classifier interface {
	Run(batch usecase.Batch) usecase.PipelineResult
}

// Handler serves the read and classify API
type Handler struct {
	reports    Reports
	classifier Classifier
	airport    string
	policy     entity.WritePolicy
	logger     logger.Logger
}

// NewHandler creates a new Handler. airport is the default for requests
// without an airport parameter; policy shapes SQL exports.
func NewHandler(reports Reports, classifier Classifier, airport string, policy entity.WritePolicy, logger logger.Logger) *Handler {
	return &Handler{
		reports:    reports,
		classifier: classifier,
		airport:    strings.ToUpper(airport),
		policy:     policy,
		logger:     logger,
	}
}

func (h *Handler) airportOf(c *gin.Context) string {
	if a := strings.TrimSpace(c.Query("airport")); a != "" {
		return strings.ToUpper(a)
	}
	return h.airport
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// Health GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetDailySummary GET /api/v1/summaries/:date
func (h *Handler) GetDailySummary(c *gin.Context) {
	date := c.Param("date")
	if !validDate(date) {
		BadRequest(c, "date must be YYYY-MM-DD")
		return
	}

	summary, err := h.reports.Daily(c.Request.Context(), date, h.airportOf(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	OK(c, summary)
}

// GetRangeSummary GET /api/v1/summaries?from=&to=
func (h *Handler) GetRangeSummary(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		BadRequest(c, "from and to are required")
		return
	}

	report, err := h.reports.Range(c.Request.Context(), h.airportOf(c), from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	OK(c, report)
}

// ListFlights GET /api/v1/flights?date=&category=&leg=
func (h *Handler) ListFlights(c *gin.Context) {
	date := c.Query("date")
	if !validDate(date) {
		BadRequest(c, "date must be YYYY-MM-DD")
		return
	}
	filter, err := parseFilter(c.Query("category"), c.Query("leg"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	flights, err := h.reports.Flights(c.Request.Context(), date, h.airportOf(c), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if flights == nil {
		flights = []entity.ClassifiedFlight{}
	}
	OK(c, gin.H{"date": date, "count": len(flights), "flights": flights})
}

func parseFilter(category, leg string) (repository.FlightFilter, error) {
	var filter repository.FlightFilter
	if category != "" {
		matched := false
		for _, c := range entity.Categories {
			if strings.EqualFold(string(c), category) {
				filter.Category = c
				matched = true
			}
		}
		if !matched {
			return filter, errors.New("category must be Night, Shoulder, Regular or Unknown")
		}
	}
	if leg != "" {
		switch l := entity.LegKind(strings.ToLower(leg)); l {
		case entity.LegArrival, entity.LegDeparture, entity.LegUnresolved:
			filter.Leg = l
		default:
			return filter, errors.New("leg must be arrival, departure or unresolved")
		}
	}
	return filter, nil
}

// Classify POST /api/v1/classify. The body is a day of AviationStack
// objects split into arrivals and departures; nothing is stored.
func (h *Handler) Classify(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBatchBody)
	batch, err := aviation.DecodeAviationStackBatch(c.Request.Body)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	arrivals, departures := batch.Records()
	result := h.classifier.Run(usecase.Batch{Arrivals: arrivals, Departures: departures})
	h.logger.Info("Classified posted batch",
		"arrivals", len(arrivals),
		"departures", len(departures),
		"total", result.Summary.Total)
	OK(c, result)
}

// Export GET /api/v1/exports/:date?format=json|csv|sql|xlsx
func (h *Handler) Export(c *gin.Context) {
	date := c.Param("date")
	if !validDate(date) {
		BadRequest(c, "date must be YYYY-MM-DD")
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	exporter, err := export.New(format)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	airport := h.airportOf(c)
	summary, err := h.reports.Daily(ctx, date, airport)
	if err != nil {
		h.handleError(c, err)
		return
	}
	flights, err := h.reports.Flights(ctx, date, airport, repository.FlightFilter{})
	if err != nil {
		h.handleError(c, err)
		return
	}

	report := export.Report{Summary: *summary, Flights: flights, Policy: h.policy}
	var buf bytes.Buffer
	if err := exporter.Write(&buf, report); err != nil {
		h.logger.Error("Failed to render export", "date", date, "format", format, "error", err)
		InternalError(c)
		return
	}

	filename := url.QueryEscape(export.Filename(exporter, report))
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+filename)
	c.Data(http.StatusOK, exporter.ContentType(), buf.Bytes())
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "no data for that day")
	case errors.Is(err, usecase.ErrInvalidRange):
		BadRequest(c, err.Error())
	default:
		c.Error(err)
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		InternalError(c)
	}
}
