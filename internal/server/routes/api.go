package routes

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/ingestq/internal/app/domain"
	appservices "github.com/fr0stylo/ingestq/internal/app/services"
)

// Ingestor is the service surface used by the HTTP routes.
type Ingestor interface {
	Submit(ctx context.Context, cmd appservices.SubmitCommand) (appservices.SubmitResult, error)
	Status(ctx context.Context, ingestionID string) (domain.IngestionStatus, error)
}

// DispatchState reports dispatcher activity for health checks.
type DispatchState interface {
	Pending() int
	Running() bool
}

// APIRoutes registers the JSON ingestion API.
type APIRoutes struct {
	ingest   Ingestor
	dispatch DispatchState
	log      *slog.Logger
}

// NewAPIRoutes constructs the JSON API routes.
func NewAPIRoutes(ingest Ingestor, dispatch DispatchState, log *slog.Logger) *APIRoutes {
	if log == nil {
		log = slog.Default()
	}
	return &APIRoutes{ingest: ingest, dispatch: dispatch, log: log}
}

// RegisterRoutes registers API endpoints.
func (a *APIRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST("/ingest", a.handleIngest)
	s.GET("/status/:ingestion_id", a.handleStatus)
	s.GET("/healthz", a.handleHealth)
}

type ingestRequest struct {
	IDs      []int64 `json:"ids"`
	Priority string  `json:"priority"`
}

type ingestResponse struct {
	IngestionID string `json:"ingestion_id"`
}

type batchResponse struct {
	BatchID string  `json:"batch_id"`
	IDs     []int64 `json:"ids"`
	Status  string  `json:"status"`
}

type statusResponse struct {
	IngestionID string          `json:"ingestion_id"`
	Status      string          `json:"status"`
	Batches     []batchResponse `json:"batches"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Pending     int    `json:"pending"`
	Dispatching bool   `json:"dispatching"`
}

func (a *APIRoutes) handleIngest(c echo.Context) error {
	var req ingestRequest
	if err := decodeJSON(c, &req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body: ids must be an array of positive integers")
	}

	result, err := a.ingest.Submit(c.Request().Context(), appservices.SubmitCommand{
		IDs:      req.IDs,
		Priority: strings.TrimSpace(req.Priority),
	})
	if err != nil {
		return a.serviceError(c, err)
	}

	a.log.InfoContext(c.Request().Context(), "ingestion_accepted",
		"ingestion_id", result.IngestionID,
		"priority", req.Priority,
		"ids", len(req.IDs),
		"batches", result.Batches,
	)
	return c.JSON(http.StatusOK, ingestResponse{IngestionID: result.IngestionID})
}

func (a *APIRoutes) handleStatus(c echo.Context) error {
	status, err := a.ingest.Status(c.Request().Context(), c.Param("ingestion_id"))
	if err != nil {
		return a.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, toStatusResponse(status))
}

func (a *APIRoutes) handleHealth(c echo.Context) error {
	resp := healthResponse{Status: "ok"}
	if a.dispatch != nil {
		resp.Pending = a.dispatch.Pending()
		resp.Dispatching = a.dispatch.Running()
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *APIRoutes) serviceError(c echo.Context, err error) error {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		a.log.ErrorContext(c.Request().Context(), "ingest_request_failed", "error", err, "status", status)
	}
	switch status {
	case http.StatusNotFound:
		return errorJSON(c, status, "ingestion not found")
	case http.StatusInternalServerError:
		return errorJSON(c, status, "internal error")
	default:
		return errorJSON(c, status, err.Error())
	}
}

func statusForError(err error) int {
	switch appservices.ClassifyIngestError(err) {
	case appservices.IngestErrorValidation:
		return http.StatusBadRequest
	case appservices.IngestErrorNotFound:
		return http.StatusNotFound
	case appservices.IngestErrorBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func toStatusResponse(status domain.IngestionStatus) statusResponse {
	batches := make([]batchResponse, 0, len(status.Batches))
	for _, batch := range status.Batches {
		ids := batch.IDs
		if ids == nil {
			ids = []int64{}
		}
		batches = append(batches, batchResponse{
			BatchID: batch.ID,
			IDs:     ids,
			Status:  batch.Status.String(),
		})
	}
	return statusResponse{
		IngestionID: status.IngestionID,
		Status:      status.Status.String(),
		Batches:     batches,
	}
}
