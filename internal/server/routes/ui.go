package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/fr0stylo/ingestq/internal/app/domain"
	appservices "github.com/fr0stylo/ingestq/internal/app/services"
	"github.com/fr0stylo/ingestq/views/pages"
)

var priorityOptions = []string{
	string(domain.PriorityHigh),
	string(domain.PriorityMedium),
	string(domain.PriorityLow),
}

// ViewRoutes renders the submission form and status pages.
type ViewRoutes struct {
	ingest   Ingestor
	dispatch DispatchState
}

// NewViewRoutes constructs view routes.
func NewViewRoutes(ingest Ingestor, dispatch DispatchState) *ViewRoutes {
	return &ViewRoutes{ingest: ingest, dispatch: dispatch}
}

// RegisterRoutes registers view routes.
func (v *ViewRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/", v.handleHome)
	s.POST("/ui/ingest", v.handleSubmit)
	s.GET("/ui/status/:ingestion_id", v.handleStatus)
}

func (v *ViewRoutes) handleHome(c echo.Context) error {
	return c.Render(http.StatusOK, "", pages.IngestPage(v.formView(c, "", string(domain.PriorityMedium))))
}

func (v *ViewRoutes) handleSubmit(c echo.Context) error {
	rawIDs := strings.TrimSpace(c.FormValue("ids"))
	priority := strings.ToUpper(strings.TrimSpace(c.FormValue("priority")))
	vm := v.formView(c, rawIDs, priority)

	ids, err := parseIDList(rawIDs)
	if err != nil {
		vm.Flash = &pages.Flash{Kind: "error", Message: err.Error()}
		return c.Render(http.StatusBadRequest, "", pages.IngestPage(vm))
	}

	result, err := v.ingest.Submit(c.Request().Context(), appservices.SubmitCommand{IDs: ids, Priority: priority})
	if err != nil {
		status := statusForError(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			message = "could not accept the ingestion, try again"
		}
		vm.Flash = &pages.Flash{Kind: "error", Message: message}
		return c.Render(status, "", pages.IngestPage(vm))
	}

	vm.IDs = ""
	vm.IngestionID = result.IngestionID
	vm.Flash = &pages.Flash{Kind: "success", Message: "Ingestion accepted"}
	vm.Pending = v.pending()
	return c.Render(http.StatusOK, "", pages.IngestPage(vm))
}

func (v *ViewRoutes) handleStatus(c echo.Context) error {
	status, err := v.ingest.Status(c.Request().Context(), c.Param("ingestion_id"))
	if err != nil {
		if errors.Is(err, appservices.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "ingestion not found")
		}
		return err
	}

	return c.Render(http.StatusOK, "", pages.StatusPage(pages.StatusPageView{
		IngestionID: status.IngestionID,
		Priority:    string(status.Priority),
		Status:      status.Status.String(),
		Batches: lo.Map(status.Batches, func(batch domain.Batch, _ int) pages.BatchRow {
			return pages.BatchRow{
				BatchID:     batch.ID,
				Seq:         batch.Seq,
				IDs:         formatIDList(batch.IDs),
				Status:      batch.Status.String(),
				FailedCount: batch.FailedCount,
			}
		}),
	}))
}

func (v *ViewRoutes) formView(c echo.Context, ids, priority string) pages.IngestPageView {
	return pages.IngestPageView{
		CSRFToken:  csrfToken(c),
		IDs:        ids,
		Priority:   priority,
		Priorities: priorityOptions,
		Pending:    v.pending(),
	}
}

func (v *ViewRoutes) pending() int {
	if v.dispatch == nil {
		return 0
	}
	return v.dispatch.Pending()
}
